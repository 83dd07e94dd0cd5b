// Package app is the application layer between the CLI and the highlight
// engine. It constructs all dependencies from config, exposes high-level
// operations that accept raw URLs and file paths, and manages resource
// lifetimes on Close.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/net/html"

	"holdfast/internal/anchor"
	"holdfast/internal/config"
	"holdfast/internal/encryption"
	"holdfast/internal/engine"
	"holdfast/internal/exporter"
	"holdfast/internal/model"
	"holdfast/internal/store"
	"holdfast/internal/sync"
)

// App wires the store, encryption, sync targets and exporter together.
type App struct {
	cfg      *config.Config
	store    store.Store
	exporter *exporter.Exporter
	logger   *slogAdapter
	logFile  *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Add", "SyncPush"); it is
// attached to every log line. The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	runID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, runID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("op", operation)

	st, err := store.NewStoreFromConfig(cfg.Store)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating store: %w", err)
	}

	adapter := &slogAdapter{l: logger}
	return &App{
		cfg:      cfg,
		store:    st,
		exporter: exporter.New(st, adapter),
		logger:   adapter,
		logFile:  logFile,
	}, nil
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if err := a.logFile.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing log file: %w", err)
	}
	return firstErr
}

// Page is an open page session: a parsed document with its stored
// highlights re-applied, ready for mutation and re-rendering.
type Page struct {
	URL      string
	Session  *engine.Session
	Restored int
	Skipped  int

	app *App
}

// OpenPage parses the page's HTML file, normalizes the raw URL into a page
// key, loads the stored highlights and re-applies them to the document.
func (a *App) OpenPage(ctx context.Context, rawURL, pagePath string) (*Page, error) {
	key, err := model.NormalizePageURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("normalizing page URL: %w", err)
	}

	f, err := os.Open(pagePath)
	if err != nil {
		return nil, fmt.Errorf("opening page file: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing page file: %w", err)
	}

	sess := engine.NewSession(key, doc, a.store, a.logger, nil, nil)
	if err := sess.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing session: %w", err)
	}
	restored, skipped := sess.Restore()
	a.logger.Info("page opened", "url", key, "restored", restored, "skipped", skipped)

	return &Page{URL: key, Session: sess, Restored: restored, Skipped: skipped, app: a}, nil
}

// Add highlights the nth occurrence of text on the page and persists it.
// An empty color means the last-used color; a non-empty note is attached
// to the new highlight.
func (p *Page) Add(ctx context.Context, text string, occurrence int, color, note string) (*model.Highlight, error) {
	if occurrence < 1 {
		occurrence = 1
	}
	r := anchor.FindText(p.Session.Doc(), text, occurrence)
	if r == nil {
		return nil, fmt.Errorf("occurrence %d of %q not found on page", occurrence, text)
	}

	h, err := p.Session.Create(ctx, *r, model.Color(color))
	if err != nil {
		return nil, err
	}
	if note != "" {
		if err := p.Session.EditNote(ctx, h.ID, note); err != nil {
			return nil, err
		}
		h.Note = note
	}
	return h, nil
}

// Write renders the annotated document.
func (p *Page) Write(w io.Writer) error {
	return p.Session.Render(w)
}

// WriteFile renders the annotated document to the given path.
func (p *Page) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := p.Session.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("rendering page: %w", err)
	}
	return f.Close()
}

// ListHighlights returns the stored highlights for a page in creation
// order. It does not need the page's HTML.
func (a *App) ListHighlights(ctx context.Context, rawURL string) ([]model.Highlight, error) {
	key, err := model.NormalizePageURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("normalizing page URL: %w", err)
	}
	return a.store.Load(ctx, key)
}

// EditNote updates the note on a stored highlight. An unknown id is a
// logged no-op.
func (a *App) EditNote(ctx context.Context, rawURL, id, note string) error {
	key, err := model.NormalizePageURL(rawURL)
	if err != nil {
		return fmt.Errorf("normalizing page URL: %w", err)
	}
	list, err := a.store.Load(ctx, key)
	if err != nil {
		return err
	}
	for i := range list {
		if list[i].ID == id {
			list[i].Note = note
			return a.store.Save(ctx, key, list)
		}
	}
	a.logger.Warn("note edit for unknown highlight", "url", key, "id", id)
	return nil
}

// RemoveHighlight deletes a stored highlight. Removing an unknown id is a
// no-op.
func (a *App) RemoveHighlight(ctx context.Context, rawURL, id string) error {
	key, err := model.NormalizePageURL(rawURL)
	if err != nil {
		return fmt.Errorf("normalizing page URL: %w", err)
	}
	list, err := a.store.Load(ctx, key)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, h := range list {
		if h.ID != id {
			kept = append(kept, h)
		}
	}
	if len(kept) == len(list) {
		a.logger.Warn("remove for unknown highlight", "url", key, "id", id)
		return nil
	}
	return a.store.Save(ctx, key, kept)
}

// RemoveAllHighlights deletes every stored highlight for a page.
func (a *App) RemoveAllHighlights(ctx context.Context, rawURL string) error {
	key, err := model.NormalizePageURL(rawURL)
	if err != nil {
		return fmt.Errorf("normalizing page URL: %w", err)
	}
	return a.store.Save(ctx, key, nil)
}

// Encryptor builds the configured encryptor.
func (a *App) Encryptor() (encryption.Encryptor, error) {
	return encryption.NewEncryptorFromConfig(a.cfg.Encryption)
}

// SetupKeys generates the encryption key pair, protecting the private key
// with the passphrase. Fails if keys already exist.
func (a *App) SetupKeys(passphrase string) error {
	enc, err := a.Encryptor()
	if err != nil {
		return err
	}
	if enc.IsConfigured() {
		return fmt.Errorf("encryption keys already exist")
	}
	return enc.Setup(passphrase)
}

// Export writes the full archive to w as JSON. With encrypt set the
// archive is encrypted with the configured public key.
func (a *App) Export(ctx context.Context, w io.Writer, encrypt bool) error {
	if !encrypt {
		return a.exporter.Export(ctx, w)
	}
	enc, err := a.Encryptor()
	if err != nil {
		return err
	}
	if !enc.IsConfigured() {
		return fmt.Errorf("encryption keys not set up: run keys init first")
	}
	return a.exporter.ExportEncrypted(ctx, w, enc)
}

// Import loads a plaintext archive from r. Returns the number of pages
// imported and the number of malformed records dropped.
func (a *App) Import(ctx context.Context, r io.Reader, merge bool) (pages, dropped int, err error) {
	return a.exporter.Import(ctx, r, merge)
}

// ImportEncrypted unlocks the private key with the passphrase and loads an
// encrypted archive from r.
func (a *App) ImportEncrypted(ctx context.Context, r io.Reader, passphrase string, merge bool) (pages, dropped int, err error) {
	dec, err := a.unlock(passphrase)
	if err != nil {
		return 0, 0, err
	}
	return a.exporter.ImportDecrypted(ctx, r, dec, merge)
}

// SyncPush uploads the archive to the named sync target. An empty name
// selects the first configured target. The archive is encrypted when
// encryption keys are set up.
func (a *App) SyncPush(ctx context.Context, targetName string) error {
	target, err := a.target(ctx, targetName)
	if err != nil {
		return err
	}
	enc, err := a.Encryptor()
	if err != nil {
		return err
	}
	if !enc.IsConfigured() {
		enc = nil
	}
	return a.exporter.Push(ctx, target, enc)
}

// SyncPull downloads the archive from the named sync target and imports
// it. passphrase is required when encryption keys are set up, since the
// pushed archive is then encrypted.
func (a *App) SyncPull(ctx context.Context, targetName, passphrase string, merge bool) (pages, dropped int, err error) {
	target, err := a.target(ctx, targetName)
	if err != nil {
		return 0, 0, err
	}
	enc, err := a.Encryptor()
	if err != nil {
		return 0, 0, err
	}
	var dec encryption.DecryptionContext
	if enc.IsConfigured() {
		dec, err = a.unlock(passphrase)
		if err != nil {
			return 0, 0, err
		}
	}
	return a.exporter.Pull(ctx, target, dec, merge)
}

// PageCount pairs a page URL with its stored highlight count.
type PageCount struct {
	URL   string
	Count int
}

// Status summarizes the stored data and the active configuration.
type Status struct {
	Pages       []PageCount
	Total       int
	Settings    model.Settings
	StoreType   string
	Encrypted   bool
	SyncTargets []string
}

// GetStatus reports per-page highlight counts and the active configuration.
func (a *App) GetStatus(ctx context.Context) (*Status, error) {
	urls, err := a.store.Pages(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{StoreType: a.cfg.Store.Type}
	for _, u := range urls {
		list, err := a.store.Load(ctx, u)
		if err != nil {
			return nil, err
		}
		st.Pages = append(st.Pages, PageCount{URL: u, Count: len(list)})
		st.Total += len(list)
	}
	st.Settings, err = a.store.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	enc, err := a.Encryptor()
	if err == nil {
		st.Encrypted = enc.IsConfigured()
	}
	for _, t := range a.cfg.SyncTargets {
		st.SyncTargets = append(st.SyncTargets, t.Name)
	}
	return st, nil
}

func (a *App) unlock(passphrase string) (encryption.DecryptionContext, error) {
	enc, err := a.Encryptor()
	if err != nil {
		return nil, err
	}
	if !enc.IsConfigured() {
		return nil, fmt.Errorf("encryption keys not set up: run keys init first")
	}
	dec, err := enc.Unlock(passphrase)
	if err != nil {
		return nil, fmt.Errorf("unlocking private key: %w", err)
	}
	return dec, nil
}

func (a *App) target(ctx context.Context, name string) (sync.Target, error) {
	if len(a.cfg.SyncTargets) == 0 {
		return nil, fmt.Errorf("no sync targets configured")
	}
	cfg := a.cfg.SyncTargets[0]
	if name != "" {
		found := false
		for _, c := range a.cfg.SyncTargets {
			if c.Name == name {
				cfg, found = c, true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no sync target named %q", name)
		}
	}
	target, err := sync.NewTargetFromConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating sync target: %w", err)
	}
	return target, nil
}
