package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"journalsync/internal/backend"
	"journalsync/internal/backend/archive"
	"journalsync/internal/backend/tablehttp"
	"journalsync/internal/config"
	"journalsync/internal/journey"
	"journalsync/internal/syncer"
	"journalsync/internal/unpack"
)

var rootCmd = &cobra.Command{
	Use:   "jsync",
	Short: "Journal sync CLI",
	Long: `jsync moves journal entries from a Journey.Cloud export into a
table backend (Teable, Grist, NocoDB) or a local SQLite archive.

Entries are diffed by id and modification time: new entries are
created, changed entries are updated, everything else is skipped, so
running the same sync twice is harmless.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("JOURNALSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "directory holding journalsync.yml")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().StringP("backend", "b", "", "destination backend (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(dumpCmd())
	rootCmd.AddCommand(unpackCmd())
	rootCmd.AddCommand(backendsCmd())
	rootCmd.AddCommand(configCmd())
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads journalsync.yml and layers env overrides on top, so
// tokens can stay out of the file entirely.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOptional(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *config.Config) {
	override := func(dst *string, key string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.Backend, "backend")
	override(&cfg.Teable.APIURL, "teable.api_url")
	override(&cfg.Teable.APIToken, "teable.api_token")
	override(&cfg.Teable.BaseID, "teable.base_id")
	override(&cfg.Grist.APIURL, "grist.api_url")
	override(&cfg.Grist.APIKey, "grist.api_key")
	override(&cfg.Grist.DocID, "grist.doc_id")
	override(&cfg.NocoDB.URL, "nocodb.url")
	override(&cfg.NocoDB.APIToken, "nocodb.api_token")
	override(&cfg.NocoDB.ProjectID, "nocodb.project_id")
	override(&cfg.Archive.Path, "archive.path")
}

// openDestination builds the configured destination. The returned
// closer is a no-op for the HTTP backends.
func openDestination(ctx context.Context, cfg *config.Config, logger *slog.Logger) (backend.Destination, func() error, error) {
	name := cfg.Backend
	if name == "" {
		return nil, nil, fmt.Errorf("no backend selected; set backend in journalsync.yml or pass --backend")
	}
	if err := cfg.ValidateBackend(name); err != nil {
		return nil, nil, err
	}
	noop := func() error { return nil }
	switch name {
	case "teable":
		c := tablehttp.NewClient(joinURL(cfg.Teable.APIURL, "api"), map[string]string{
			"Authorization": "Bearer " + cfg.Teable.APIToken,
		})
		dest, err := tablehttp.New(ctx, c, tablehttp.Teable(cfg.Teable.BaseID), logger)
		return dest, noop, err
	case "grist":
		c := tablehttp.NewClient(cfg.Grist.APIURL, map[string]string{
			"Authorization": "Bearer " + cfg.Grist.APIKey,
		})
		dest, err := tablehttp.New(ctx, c, tablehttp.Grist(cfg.Grist.DocID), logger)
		return dest, noop, err
	case "nocodb":
		c := tablehttp.NewClient(joinURL(cfg.NocoDB.URL, "api/v3"), map[string]string{
			"xc-token": cfg.NocoDB.APIToken,
		})
		dest, err := tablehttp.New(ctx, c, tablehttp.NocoDB(cfg.NocoDB.ProjectID), logger)
		return dest, noop, err
	case "archive":
		store, err := archive.Open(cfg.Archive.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", name)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync <export-dir> [<export-dir>...]",
		Short: "Sync Journey.Cloud export directories to the backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			dest, closeDest, err := openDestination(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeDest()

			type dirReport struct {
				Dir    string         `json:"dir"`
				Report *syncer.Report `json:"report,omitempty"`
				Error  string         `json:"error,omitempty"`
			}
			var reports []dirReport
			failed := 0
			for _, dir := range args {
				rep, err := syncDir(ctx, dir, dest, logger)
				if err != nil {
					logger.Error("sync failed", "dir", dir, "error", err)
					reports = append(reports, dirReport{Dir: dir, Report: rep, Error: err.Error()})
					failed++
					continue
				}
				reports = append(reports, dirReport{Dir: dir, Report: rep})
			}

			if viper.GetBool("json") {
				if err := printJSON(reports); err != nil {
					return err
				}
			} else {
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Source", "Backend", "Fetched", "Created", "Updated", "Skipped", "Error"})
				for _, r := range reports {
					var fetched, created, updated, skipped int
					if r.Report != nil {
						fetched, created, updated, skipped = r.Report.Fetched, r.Report.Created, r.Report.Updated, r.Report.Skipped
					}
					tw.AppendRow(table.Row{r.Dir, dest.Name(), fetched, created, updated, skipped, r.Error})
				}
				tw.Render()
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d directories failed", failed, len(args))
			}
			return nil
		},
	}
	return cmd
}

func syncDir(ctx context.Context, dir string, dest backend.Destination, logger *slog.Logger) (*syncer.Report, error) {
	src, err := journey.NewSource(dir, logger)
	if err != nil {
		return nil, err
	}
	rep, err := syncer.New(src, dest, logger).Run(ctx)
	return &rep, err
}

func dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <export-dir>",
		Short: "Print an export directory as canonical entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			src, err := journey.NewSource(args[0], logger)
			if err != nil {
				return err
			}
			entries, err := src.FetchEntries(cmd.Context())
			if err != nil {
				return err
			}
			maps := make([]map[string]any, len(entries))
			for i, e := range entries {
				maps[i] = e.Map()
			}
			return printJSON(maps)
		},
	}
	return cmd
}

func unpackCmd() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "unpack <zip> [<zip>...]",
		Short: "Extract export archives into per-entry directories",
		Long: `Extracts each archive into <out>/<archive-name>/ and records every
entry's media files in its JSON sidecar, in archive order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			results, err := unpack.ExtractAll(args, outDir, logger)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(results)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Archive", "Entries", "Sidecars updated"})
			for _, r := range results {
				tw.AppendRow(table.Row{r.Zip, r.Entries, r.Updated})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "output base directory")
	return cmd
}

func backendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List backends and their configuration state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			type state struct {
				Name       string `json:"name"`
				Selected   bool   `json:"selected"`
				Configured bool   `json:"configured"`
			}
			var states []state
			for _, b := range config.Backends {
				states = append(states, state{
					Name:       b,
					Selected:   cfg.Backend == b,
					Configured: cfg.ValidateBackend(b) == nil,
				})
			}
			if viper.GetBool("json") {
				return printJSON(states)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Backend", "Selected", "Configured"})
			for _, s := range states {
				tw.AppendRow(table.Row{s.Name, mark(s.Selected), mark(s.Configured)})
			}
			tw.Render()
			return nil
		},
	}
	return cmd
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage configuration"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default journalsync.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	})
	return cfgCmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
