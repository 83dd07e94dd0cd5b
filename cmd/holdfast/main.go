package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"holdfast/internal/app"
	"holdfast/internal/config"
	"holdfast/internal/model"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Add", "SyncPush").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on stderr and reads a passphrase without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:   "holdfast",
	Short: "Durable text highlights for saved web pages",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Store:    %s (%s)\n", cfg.Store.Type, cfg.Store.DataDir)
		for _, t := range cfg.SyncTargets {
			fmt.Printf("Sync:     %s (%s)\n", t.Name, t.Type)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the archive encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetupKeys")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("Passphrase for new private key: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupKeys(pass); err != nil {
			return fmt.Errorf("setting up keys: %w", err)
		}
		fmt.Println("Encryption keys generated.")
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add TEXT",
	Short: "Highlight text on a saved page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		pagePath, _ := cmd.Flags().GetString("page")
		occurrence, _ := cmd.Flags().GetInt("occurrence")
		color, _ := cmd.Flags().GetString("color")
		note, _ := cmd.Flags().GetString("note")
		out, _ := cmd.Flags().GetString("out")

		a, err := newApp("Add")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		p, err := a.OpenPage(ctx, url, pagePath)
		if err != nil {
			return err
		}

		h, err := p.Add(ctx, args[0], occurrence, color, note)
		if err != nil {
			return err
		}
		fmt.Printf("Added highlight %s (%s)\n", h.ID, h.Color)

		if out != "" {
			if err := p.WriteFile(out); err != nil {
				return err
			}
			fmt.Printf("Annotated page written to %s\n", out)
		}
		return nil
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List highlights stored for a page",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		a, err := newApp("List")
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.ListHighlights(context.Background(), url)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No highlights stored.")
			return nil
		}

		for _, h := range list {
			fmt.Println(highlightLine(h))
		}
		return nil
	},
}

// highlightLine formats one highlight for the list output. Timestamps are
// stored as epoch milliseconds and shown in UTC.
func highlightLine(h model.Highlight) string {
	note := ""
	if h.Note != "" {
		note = "  note: " + h.Note
	}
	ts := time.UnixMilli(h.Timestamp).UTC().Format("2006-01-02 15:04:05")
	return fmt.Sprintf("%s  %-6s  %s  %q%s", h.ID, h.Color, ts, h.Text, note)
}

// note command
var noteCmd = &cobra.Command{
	Use:   "note ID NOTE",
	Short: "Attach or replace the note on a highlight",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		a, err := newApp("EditNote")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.EditNote(context.Background(), url, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Note updated.")
		return nil
	},
}

// remove command
var removeCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "Remove a highlight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		a, err := newApp("Remove")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveHighlight(context.Background(), url, args[0]); err != nil {
			return err
		}
		fmt.Println("Highlight removed.")
		return nil
	},
}

// remove-all command
var removeAllCmd = &cobra.Command{
	Use:   "remove-all",
	Short: "Remove every highlight on a page",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		a, err := newApp("RemoveAll")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveAllHighlights(context.Background(), url); err != nil {
			return err
		}
		fmt.Println("All highlights removed.")
		return nil
	},
}

// restore command
var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Re-apply stored highlights to a saved page",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		pagePath, _ := cmd.Flags().GetString("page")
		out, _ := cmd.Flags().GetString("out")

		a, err := newApp("Restore")
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.OpenPage(context.Background(), url, pagePath)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %d highlight(s), skipped %d\n", p.Restored, p.Skipped)

		if out != "" {
			if err := p.WriteFile(out); err != nil {
				return err
			}
			fmt.Printf("Annotated page written to %s\n", out)
			return nil
		}
		return p.Write(os.Stdout)
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export [FILE]",
	Short: "Export all highlights as a JSON archive",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		a, err := newApp("Export")
		if err != nil {
			return err
		}
		defer a.Close()

		w := os.Stdout
		if len(args) > 0 {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return a.Export(context.Background(), w, encrypt)
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a JSON archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		merge, _ := cmd.Flags().GetBool("merge")
		decrypt, _ := cmd.Flags().GetBool("decrypt")

		a, err := newApp("Import")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer f.Close()

		ctx := context.Background()
		var pages, dropped int
		if decrypt {
			pass, err := readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
			pages, dropped, err = a.ImportEncrypted(ctx, f, pass, merge)
			if err != nil {
				return err
			}
		} else {
			pages, dropped, err = a.Import(ctx, f, merge)
			if err != nil {
				return err
			}
		}

		fmt.Printf("Imported %d page(s)", pages)
		if dropped > 0 {
			fmt.Printf(", dropped %d malformed record(s)", dropped)
		}
		fmt.Println()
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push or pull the archive to a sync target",
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload the archive to a sync target",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")

		a, err := newApp("SyncPush")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SyncPush(context.Background(), target); err != nil {
			return err
		}
		fmt.Println("Archive pushed.")
		return nil
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download and import the archive from a sync target",
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")
		merge, _ := cmd.Flags().GetBool("merge")

		a, err := newApp("SyncPull")
		if err != nil {
			return err
		}
		defer a.Close()

		enc, err := a.Encryptor()
		if err != nil {
			return err
		}
		pass := ""
		if enc.IsConfigured() {
			pass, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		pages, dropped, err := a.SyncPull(context.Background(), target, pass, merge)
		if err != nil {
			return err
		}
		fmt.Printf("Pulled %d page(s)", pages)
		if dropped > 0 {
			fmt.Printf(", dropped %d malformed record(s)", dropped)
		}
		fmt.Println()
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored pages and active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.GetStatus(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("Store:      %s\n", st.StoreType)
		fmt.Printf("Encryption: %v\n", st.Encrypted)
		if len(st.SyncTargets) > 0 {
			fmt.Printf("Sync:       %v\n", st.SyncTargets)
		}
		fmt.Printf("Last color: %s\n", st.Settings.LastColor)
		fmt.Println()

		if len(st.Pages) == 0 {
			fmt.Println("No highlights stored.")
			return nil
		}
		for _, p := range st.Pages {
			fmt.Printf("%4d  %s\n", p.Count, p.URL)
		}
		fmt.Printf("\n%d highlight(s) on %d page(s)\n", st.Total, len(st.Pages))
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// sync subcommands
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncPushCmd.Flags().StringP("target", "t", "", "Sync target name (default: first configured)")
	syncPullCmd.Flags().StringP("target", "t", "", "Sync target name (default: first configured)")
	syncPullCmd.Flags().Bool("merge", false, "Merge into existing data instead of replacing")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)

	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringP("url", "u", "", "Page URL")
	addCmd.Flags().StringP("page", "p", "", "Path to the saved page HTML")
	addCmd.Flags().IntP("occurrence", "n", 1, "Which occurrence of the text to highlight")
	addCmd.Flags().StringP("color", "c", "", "Highlight color (default: last used)")
	addCmd.Flags().String("note", "", "Note to attach")
	addCmd.Flags().StringP("out", "o", "", "Write the annotated page to this file")
	addCmd.MarkFlagRequired("url")
	addCmd.MarkFlagRequired("page")

	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("url", "u", "", "Page URL")
	listCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(noteCmd)
	noteCmd.Flags().StringP("url", "u", "", "Page URL")
	noteCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(removeCmd)
	removeCmd.Flags().StringP("url", "u", "", "Page URL")
	removeCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(removeAllCmd)
	removeAllCmd.Flags().StringP("url", "u", "", "Page URL")
	removeAllCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(restoreCmd)
	restoreCmd.Flags().StringP("url", "u", "", "Page URL")
	restoreCmd.Flags().StringP("page", "p", "", "Path to the saved page HTML")
	restoreCmd.Flags().StringP("out", "o", "", "Write the annotated page to this file")
	restoreCmd.MarkFlagRequired("url")
	restoreCmd.MarkFlagRequired("page")

	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the archive with the configured public key")

	rootCmd.AddCommand(importCmd)
	importCmd.Flags().Bool("merge", false, "Merge into existing data instead of replacing")
	importCmd.Flags().Bool("decrypt", false, "Archive is encrypted; prompt for the passphrase")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
}
