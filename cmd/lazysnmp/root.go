package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazysnmp/internal/app"
	"github.com/rebeliceyang/lazysnmp/internal/bookmarks"
	"github.com/rebeliceyang/lazysnmp/internal/config"
	"github.com/rebeliceyang/lazysnmp/internal/history"
	"github.com/rebeliceyang/lazysnmp/internal/logging"
	"github.com/rebeliceyang/lazysnmp/internal/mib"
	"github.com/rebeliceyang/lazysnmp/internal/profile"
	"github.com/rebeliceyang/lazysnmp/internal/snmp"
)

var (
	configFile string
	exportDir  string
)

var rootCmd = &cobra.Command{
	Use:   "lazysnmp",
	Short: "Terminal console for SNMP agents",
	Long:  "Browse MIB modules, connect to SNMP agents with saved profiles and stream Get, GetNext and BulkWalk results into a searchable table.",
	RunE:  runConsole,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/lazysnmp/config.yaml)")
	rootCmd.Flags().StringVar(&exportDir, "export-dir", "", "directory for CSV and JSON exports (default is the working directory)")
}

func loadConfig() *config.Config {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		log.Printf("Warning: Could not load config: %v (using defaults)\n", err)
		cfg = config.GetDefaults()
	}
	return cfg
}

func configDir() (string, error) {
	dir, err := config.GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

func setupLogging(cfg *config.Config, dir string) io.Closer {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(dir, "lazysnmp.log")
	}
	closer, err := logging.Setup(path, cfg.Log.Level)
	if err != nil {
		log.Printf("Warning: logging disabled: %v\n", err)
		logging.Discard()
		return io.NopCloser(nil)
	}
	return closer
}

func openProfiles(dir string) (*profile.Store, error) {
	secrets, err := profile.NewPasswordStore(dir)
	if err != nil {
		slog.Warn("keyring unavailable, secrets stay in memory", "err", err)
		secrets = nil
	} else if secrets.IsUsingFallback() {
		slog.Info("using encrypted file keyring")
	}
	return profile.NewStore(dir, secrets)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	dir, err := configDir()
	if err != nil {
		return err
	}
	defer setupLogging(cfg, dir).Close()

	profiles, err := openProfiles(dir)
	if err != nil {
		return err
	}
	marks, err := bookmarks.NewManager(dir)
	if err != nil {
		return err
	}

	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.NewStore(filepath.Join(dir, "history.db"))
		if err != nil {
			slog.Warn("history disabled", "err", err)
			hist = nil
		} else {
			defer hist.Close()
		}
	}

	if exportDir == "" {
		if exportDir, err = os.Getwd(); err != nil {
			return err
		}
	}

	transport := snmp.NewTransport(snmp.Options{
		MaxRepetitions:     uint32(cfg.SNMP.MaxRepetitions),
		ExponentialTimeout: cfg.SNMP.ExponentialTimeout,
		DebugLog:           cfg.SNMP.DebugLog,
		Logger:             slog.Default(),
	})

	console, err := app.New(cfg, app.Deps{
		Transport: transport,
		Profiles:  profiles,
		Bookmarks: marks,
		History:   hist,
		Fetcher:   mib.NewLoader(cfg.Schema.MIBPaths),
		ExportDir: exportDir,
		Logger:    slog.Default(),
	})
	if err != nil {
		return err
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	zone.NewGlobal()

	p := tea.NewProgram(console, opts...)
	stop := console.Run(p)
	defer stop()

	_, runErr := p.Run()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.SNMP.DisconnectTimeoutDuration())
	defer cancel()
	if err := console.Close(ctx); err != nil {
		slog.Warn("failed to close SNMP session", "err", err)
	}

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", runErr)
	}
	return nil
}
