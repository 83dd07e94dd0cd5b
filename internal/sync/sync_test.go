package sync

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"holdfast/internal/config"
)

func TestMemoryTarget_RoundTrip(t *testing.T) {
	ctx := context.Background()
	target := NewMemoryTarget("test")

	if err := target.Put(ctx, ArchiveKey, strings.NewReader(`{"pages":{}}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	var out bytes.Buffer
	if err := target.Get(ctx, ArchiveKey, &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.String() != `{"pages":{}}` {
		t.Errorf("Get() = %q, want %q", out.String(), `{"pages":{}}`)
	}
}

func TestMemoryTarget_GetMissing(t *testing.T) {
	var out bytes.Buffer
	if err := NewMemoryTarget("test").Get(context.Background(), ArchiveKey, &out); err == nil {
		t.Error("Get() on empty target expected error")
	}
}

func TestFilesystemTarget_RoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	target, err := NewFilesystemTarget("local", root)
	if err != nil {
		t.Fatalf("NewFilesystemTarget() error = %v", err)
	}
	if err := target.Validate(ctx); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if err := target.Put(ctx, ArchiveKey, strings.NewReader("payload-1")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	// Replacing an existing archive is allowed.
	if err := target.Put(ctx, ArchiveKey, strings.NewReader("payload-2")); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	var out bytes.Buffer
	if err := target.Get(ctx, ArchiveKey, &out); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if out.String() != "payload-2" {
		t.Errorf("Get() = %q, want %q", out.String(), "payload-2")
	}

	// No temporary files left behind.
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("sync root has %d entries, want 1", len(entries))
	}
}

func TestFilesystemTarget_ValidateMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "gone")
	target, err := NewFilesystemTarget("local", root)
	if err != nil {
		t.Fatalf("NewFilesystemTarget() error = %v", err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if err := target.Validate(context.Background()); err == nil {
		t.Error("Validate() on removed root expected error")
	}
}

func TestNewTargetFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		target, err := NewTargetFromConfig(ctx, config.SyncTargetConfig{Type: "memory", Name: "m"})
		if err != nil {
			t.Fatalf("NewTargetFromConfig() error = %v", err)
		}
		if target.Name() != "m" {
			t.Errorf("Name() = %q, want %q", target.Name(), "m")
		}
	})

	t.Run("filesystem requires root", func(t *testing.T) {
		if _, err := NewTargetFromConfig(ctx, config.SyncTargetConfig{Type: "filesystem"}); err == nil {
			t.Error("expected error for missing fs_root")
		}
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		if _, err := NewTargetFromConfig(ctx, config.SyncTargetConfig{Type: "s3"}); err == nil {
			t.Error("expected error for missing s3_bucket")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewTargetFromConfig(ctx, config.SyncTargetConfig{Type: "ftp"}); err == nil {
			t.Error("expected error for unknown type")
		}
	})
}
