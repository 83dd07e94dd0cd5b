package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/holdfast",
		LogDir:  "/home/user/.local/share/holdfast/log",
		Store:   StoreConfig{Type: "badger", DataDir: "/home/user/.local/share/holdfast/store"},
		Encryption: EncryptionConfig{
			PublicKeyPath:  "/home/user/.local/share/holdfast/keys/holdfast.pub",
			PrivateKeyPath: "/home/user/.local/share/holdfast/keys/holdfast.key",
		},
		SyncTargets: []SyncTargetConfig{
			{Type: "filesystem", Name: "local", FSRoot: "/srv/holdfast-sync"},
			{Type: "s3", Name: "cloud", S3Bucket: "my-highlights", S3Region: "eu-west-1"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.Store.Type != "badger" || got.Store.DataDir != original.Store.DataDir {
		t.Errorf("Store = %+v, want %+v", got.Store, original.Store)
	}
	if len(got.SyncTargets) != 2 {
		t.Fatalf("SyncTargets count = %d, want 2", len(got.SyncTargets))
	}
	if got.SyncTargets[1].S3Bucket != "my-highlights" {
		t.Errorf("S3Bucket = %q, want %q", got.SyncTargets[1].S3Bucket, "my-highlights")
	}
	if got.Encryption.PublicKeyPath != original.Encryption.PublicKeyPath {
		t.Errorf("PublicKeyPath = %q, want %q", got.Encryption.PublicKeyPath, original.Encryption.PublicKeyPath)
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig("/data/holdfast")

	if cfg.Store.Type != "badger" {
		t.Errorf("Store.Type = %q, want badger", cfg.Store.Type)
	}
	if cfg.Store.DataDir != filepath.Join("/data/holdfast", "store") {
		t.Errorf("Store.DataDir = %q", cfg.Store.DataDir)
	}
	if cfg.LogDir != filepath.Join("/data/holdfast", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
}

func TestInit_RefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holdfast.toml")

	if err := Init(path, NewConfig(dir)); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	if err := Init(path, NewConfig(dir)); err == nil {
		t.Error("Init() on existing file expected error")
	}
}

func TestReadFromFile_Missing(t *testing.T) {
	if _, err := ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("ReadFromFile() on missing file expected error")
	}
}
