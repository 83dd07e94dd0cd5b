// Package exporter dumps and restores the entire persisted structure as a
// single JSON archive, optionally encrypted, and moves archives to and
// from sync targets.
package exporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"holdfast/internal/encryption"
	"holdfast/internal/engine"
	"holdfast/internal/model"
	"holdfast/internal/store"
	"holdfast/internal/sync"
)

// Exporter wires a store to archive output and input.
type Exporter struct {
	store  store.Store
	logger engine.Logger
}

// New creates an Exporter. A nil logger discards output.
func New(st store.Store, logger engine.Logger) *Exporter {
	if logger == nil {
		logger = engine.NewNopLogger()
	}
	return &Exporter{store: st, logger: logger}
}

// Export writes the full archive as indented JSON.
func (e *Exporter) Export(ctx context.Context, w io.Writer) error {
	a, err := e.store.Dump(ctx)
	if err != nil {
		return fmt.Errorf("dumping store: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}
	return nil
}

// ExportEncrypted writes the archive encrypted with the configured key.
func (e *Exporter) ExportEncrypted(ctx context.Context, w io.Writer, enc encryption.Encryptor) error {
	var plain bytes.Buffer
	if err := e.Export(ctx, &plain); err != nil {
		return err
	}
	if err := enc.Encrypt(&plain, w); err != nil {
		return fmt.Errorf("encrypting archive: %w", err)
	}
	return nil
}

// Import loads an archive from r into the store. Malformed records are
// dropped per record, not per archive; the number dropped is returned.
// With merge set, pages absent from the archive are kept.
func (e *Exporter) Import(ctx context.Context, r io.Reader, merge bool) (pages, dropped int, err error) {
	var a model.Archive
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return 0, 0, fmt.Errorf("decoding archive: %w", err)
	}
	if a.Pages == nil {
		a.Pages = map[string][]model.Highlight{}
	}
	if !model.ValidColor(a.Settings.LastColor) {
		a.Settings = model.DefaultSettings()
	}

	for page, list := range a.Pages {
		kept := make([]model.Highlight, 0, len(list))
		for i := range list {
			if verr := list[i].Validate(); verr != nil {
				e.logger.Warn("dropping malformed record on import", "page", page, "err", verr)
				dropped++
				continue
			}
			kept = append(kept, list[i])
		}
		a.Pages[page] = kept
	}

	if err := e.store.RestoreArchive(ctx, &a, merge); err != nil {
		return 0, dropped, fmt.Errorf("restoring archive: %w", err)
	}
	return len(a.Pages), dropped, nil
}

// ImportDecrypted decrypts r with an unlocked key before importing.
func (e *Exporter) ImportDecrypted(ctx context.Context, r io.Reader, dec encryption.DecryptionContext, merge bool) (int, int, error) {
	var plain bytes.Buffer
	if err := dec.Decrypt(r, &plain); err != nil {
		return 0, 0, fmt.Errorf("decrypting archive: %w", err)
	}
	return e.Import(ctx, &plain, merge)
}

// Push exports the archive to a sync target. With enc set the archive is
// encrypted first and stored under the encrypted key.
func (e *Exporter) Push(ctx context.Context, target sync.Target, enc encryption.Encryptor) error {
	var buf bytes.Buffer
	key := sync.ArchiveKey
	if enc != nil {
		if err := e.ExportEncrypted(ctx, &buf, enc); err != nil {
			return err
		}
		key += ".age"
	} else {
		if err := e.Export(ctx, &buf); err != nil {
			return err
		}
	}
	if err := target.Put(ctx, key, &buf); err != nil {
		return fmt.Errorf("pushing to %s: %w", target.Name(), err)
	}
	e.logger.Info("archive pushed", "target", target.Name(), "key", key, "bytes", buf.Len())
	return nil
}

// Pull imports the archive stored on a sync target. With dec set the
// encrypted key is fetched and decrypted first.
func (e *Exporter) Pull(ctx context.Context, target sync.Target, dec encryption.DecryptionContext, merge bool) (int, int, error) {
	var buf bytes.Buffer
	key := sync.ArchiveKey
	if dec != nil {
		key += ".age"
	}
	if err := target.Get(ctx, key, &buf); err != nil {
		return 0, 0, fmt.Errorf("pulling from %s: %w", target.Name(), err)
	}
	if dec != nil {
		return e.ImportDecrypted(ctx, &buf, dec, merge)
	}
	return e.Import(ctx, &buf, merge)
}
