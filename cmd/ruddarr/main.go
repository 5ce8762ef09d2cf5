package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tillkruss/ruddarr/internal/arr"
	"github.com/tillkruss/ruddarr/internal/config"
	"github.com/tillkruss/ruddarr/internal/history"
	"github.com/tillkruss/ruddarr/internal/instance"
	"github.com/tillkruss/ruddarr/internal/log"
	"github.com/tillkruss/ruddarr/internal/service"
	"github.com/tillkruss/ruddarr/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

var configDir string

func main() {
	rootCmd := &cobra.Command{
		Use:   "ruddarr",
		Short: "Terminal companion for Radarr and Sonarr",
		Long: `Ruddarr browses the movies and series of your Radarr and Sonarr
instances, searches for new movies, toggles episode monitoring and
starts automatic searches.

Add an instance first:
  ruddarr instance add --type radarr --label Home --url http://10.0.1.5:7878`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default: ~/.config/ruddarr)")

	rootCmd.AddCommand(newInstanceCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ruddarr %s\n", Version)
		},
	}
}

// app holds the dependencies shared by all commands
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *instance.Registry
	client   *arr.Client
}

// loadEnv loads .env files into the environment. Missing files are fine.
func loadEnv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func setup() (*app, error) {
	envErr := loadEnv()

	dir := configDir
	if dir == "" {
		dir = config.DefaultDir()
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	if envErr != nil {
		logger.Warn("Failed to load .env", "error", envErr)
	}

	registry, err := instance.NewRegistry(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open instance registry: %w", err)
	}

	client := arr.NewClient(arr.Options{
		Timeout:   cfg.Sync.RequestTimeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
		UserAgent: cfg.API.UserAgent + "/" + Version,
	}, logger)

	return &app{cfg: cfg, logger: logger, registry: registry, client: client}, nil
}

func (a *app) Close() {
	if err := a.registry.Close(); err != nil {
		a.logger.Error("Failed to close registry", "error", err)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("starting ruddarr", "version", Version)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ws := service.NewWorkspace(ctx, a.registry, a.client,
		service.Options{
			FreshnessWindow: a.cfg.Sync.FreshnessWindow,
			DebounceWindow:  a.cfg.Sync.DebounceWindow,
		},
		history.Options{
			PageSize: a.cfg.Sync.HistoryPageSize,
			Workers:  a.cfg.Sync.HistoryWorkers,
		},
		a.logger,
	)
	defer ws.Close()

	model := tui.NewModel(ws, tui.Options{
		DefaultTab: a.cfg.UI.DefaultTab,
		ShowHelp:   a.cfg.UI.ShowHelp,
	}, a.logger)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}
