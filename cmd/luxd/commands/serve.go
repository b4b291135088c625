package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/luxd/internal/config"
	"git.home.luguber.info/inful/luxd/internal/daemon"
	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	DataDir string `short:"d" help:"Override the configured data directory"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadOrDefault(root.Config)
	if err != nil {
		return err
	}
	if s.DataDir != "" {
		cfg.Storage.DataDir = s.DataDir
	}
	return RunDaemon(cfg)
}

// loadOrDefault loads the config file, falling back to built-in defaults
// when the default config name is absent. An explicitly named file that
// does not exist is still an error.
func loadOrDefault(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && luxerrors.HasCategory(err, luxerrors.CategoryConfig) && path == "luxd.yaml" {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			slog.Info("No configuration file found, using defaults")
			return config.Default(), nil
		}
	}
	return cfg, err
}

// RunDaemon runs the daemon until a shutdown signal arrives.
func RunDaemon(cfg *config.Config) error {
	slog.Info("Starting luxd",
		"port", cfg.HTTP.Port,
		"data_dir", cfg.Storage.DataDir,
		"lockout_window", cfg.Control.LockoutWindow,
		"debounce_cooldown", cfg.Control.DebounceCooldown)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping daemon...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := d.Stop(stopCtx); err != nil {
		return err
	}

	slog.Info("Daemon stopped successfully")
	return nil
}
