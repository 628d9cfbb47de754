package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"

	"arcdata/config"
	"arcdata/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed
type app struct {
	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, log: zap.NewNop()}

	var configPath, logLevel string

	root := &cobra.Command{
		Use:           "arcdata",
		Short:         "arcdata exports ARC Raiders game data to local JSON files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}

			cfg, missing, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			log, err := logger.New(cfg.Log.Level)
			if err != nil {
				return err
			}
			if missing {
				log.Info("Config file not found, using default configuration", zap.String("path", configPath))
			}

			a.cfg = cfg
			a.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")

	root.AddCommand(
		newCollectCmd(a),
		newWorkbenchesCmd(a),
		newSeedCmd(a),
	)
	return root
}

// loadConfig reads path, falling back to the defaults when the file does not exist.
// A file that exists but does not parse is an error.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg, false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return config.GetDefaultConfig(), true, nil
	}
	return nil, false, err
}
