package exporter_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"holdfast/internal/encryption"
	"holdfast/internal/exporter"
	"holdfast/internal/model"
	"holdfast/internal/store"
	"holdfast/internal/sync"
)

func seedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	ctx := context.Background()

	h := model.Highlight{
		ID:        "1a2b-c3d4",
		Text:      "hello world",
		Color:     model.ColorGreen,
		Note:      "checked",
		Timestamp: 1700000000000,
		Anchor: model.Anchor{
			XPath:       "/html[1]/body[1]/p[1]",
			StartOffset: 4,
			EndOffset:   15,
			Prefix:      "say ",
			Suffix:      " today",
			TextContent: "hello world",
		},
	}
	if err := st.Save(ctx, "https://example.com/post", []model.Highlight{h}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := st.SaveSettings(ctx, model.Settings{LastColor: model.ColorGreen, UseSync: true}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	return st
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seedStore(t)

	var buf bytes.Buffer
	if err := exporter.New(src, nil).Export(ctx, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	dst := store.NewMemoryStore()
	pages, dropped, err := exporter.New(dst, nil).Import(ctx, &buf, false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if pages != 1 || dropped != 0 {
		t.Errorf("Import() = (%d pages, %d dropped), want (1, 0)", pages, dropped)
	}

	list, err := dst.Load(ctx, "https://example.com/post")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(list) != 1 || list[0].ID != "1a2b-c3d4" || list[0].Note != "checked" {
		t.Errorf("imported list = %+v", list)
	}

	settings, err := dst.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if settings.LastColor != model.ColorGreen || !settings.UseSync {
		t.Errorf("imported settings = %+v", settings)
	}
}

func TestImport_DropsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	archive := `{
	  "pages": {
	    "https://example.com/a": [
	      {"id": "good", "text": "t", "color": "yellow", "note": "", "timestamp": 1,
	       "anchor": {"xpath": "/html[1]/body[1]/p[1]", "startOffset": 0, "endOffset": 1, "prefix": "", "suffix": "", "textContent": "t"}},
	      {"id": "", "text": "missing id", "color": "yellow", "note": "", "timestamp": 1,
	       "anchor": {"xpath": "/html[1]", "startOffset": 0, "endOffset": 1, "prefix": "", "suffix": "", "textContent": "x"}}
	    ]
	  },
	  "settings": {"lastColor": "vermilion", "useSync": false}
	}`

	st := store.NewMemoryStore()
	pages, dropped, err := exporter.New(st, nil).Import(ctx, strings.NewReader(archive), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if pages != 1 || dropped != 1 {
		t.Errorf("Import() = (%d pages, %d dropped), want (1, 1)", pages, dropped)
	}

	// Out-of-palette settings fall back to defaults.
	settings, err := st.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if settings.LastColor != model.ColorYellow {
		t.Errorf("LastColor = %q, want fallback yellow", settings.LastColor)
	}
}

func TestImport_RejectsGarbage(t *testing.T) {
	st := store.NewMemoryStore()
	if _, _, err := exporter.New(st, nil).Import(context.Background(), strings.NewReader("not json"), false); err == nil {
		t.Error("Import() of garbage expected error")
	}
}

func TestEncryptedExport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seedStore(t)
	enc := encryption.NewTestEncryptor()

	var buf bytes.Buffer
	if err := exporter.New(src, nil).ExportEncrypted(ctx, &buf, enc); err != nil {
		t.Fatalf("ExportEncrypted() error = %v", err)
	}
	if bytes.Contains(buf.Bytes()[:8], []byte("{")) {
		t.Error("encrypted archive should not start as plain JSON")
	}

	dec, err := enc.Unlock("passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	dst := store.NewMemoryStore()
	pages, _, err := exporter.New(dst, nil).ImportDecrypted(ctx, &buf, dec, false)
	if err != nil {
		t.Fatalf("ImportDecrypted() error = %v", err)
	}
	if pages != 1 {
		t.Errorf("pages = %d, want 1", pages)
	}
}

func TestPushPull_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seedStore(t)
	target := sync.NewMemoryTarget("test")

	if err := exporter.New(src, nil).Push(ctx, target, nil); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	dst := store.NewMemoryStore()
	pages, dropped, err := exporter.New(dst, nil).Pull(ctx, target, nil, false)
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if pages != 1 || dropped != 0 {
		t.Errorf("Pull() = (%d, %d), want (1, 0)", pages, dropped)
	}
}

func TestPushPull_Encrypted(t *testing.T) {
	ctx := context.Background()
	src := seedStore(t)
	target := sync.NewMemoryTarget("test")
	enc := encryption.NewTestEncryptor()

	if err := exporter.New(src, nil).Push(ctx, target, enc); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	dec, err := enc.Unlock("passphrase")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	dst := store.NewMemoryStore()
	if _, _, err := exporter.New(dst, nil).Pull(ctx, target, dec, false); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}

	list, err := dst.Load(ctx, "https://example.com/post")
	if err != nil || len(list) != 1 {
		t.Fatalf("Load() = (%v, %v), want one highlight", list, err)
	}
}
