package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scrollwm/scrollwm/internal/daemon"
	"github.com/scrollwm/scrollwm/internal/platform"
	"github.com/scrollwm/scrollwm/pkg/config"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scrollwm-daemon",
		Short: "scrollwm window manager daemon",
		Long:  "Scrollable-tiling window manager daemon for Windows",
		Run:   runDaemon,
	}

	rootCmd.Flags().String("config", "", "config file (default: search app-data, config dir, cwd)")
	rootCmd.Flags().String("log-level", "", "log level override (trace, debug, info, warn, error)")
	rootCmd.Flags().Bool("version", false, "print version and exit")

	_ = viper.BindPFlags(rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) {
	if viper.GetBool("version") {
		fmt.Printf("scrollwm-daemon %s (%s, built %s)\n", Version, Commit, BuildTime)
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, cfgPath, err := config.Load(viper.GetString("config"))
	if err != nil {
		logger.WithError(err).Warn("Config rejected; falling back to built-in defaults")
		cfg = config.Default()
		cfgPath = ""
	}
	applyLogLevel(logger, cfg, viper.GetString("log-level"))
	if cfgPath != "" {
		logger.WithField("config", cfgPath).Info("Configuration loaded")
	}

	plat, err := platform.New()
	if err != nil {
		logger.WithError(err).Fatal("Platform initialization failed")
	}

	d, err := daemon.New(logger, plat, cfg, cfgPath, Version)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize daemon")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		logger.WithError(err).Fatal("Daemon terminated")
	}
}

// applyLogLevel resolves the effective level: the flag wins over config.
func applyLogLevel(logger *logrus.Logger, cfg config.Config, override string) {
	level := cfg.Behavior.LogLevel
	if override != "" {
		level = override
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("Unknown log level; using info")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
}
