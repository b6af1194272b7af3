package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/scrollwm/scrollwm/internal/daemon"
	"github.com/scrollwm/scrollwm/internal/platform"
	"github.com/scrollwm/scrollwm/pkg/config"
)

func initCommand() *cobra.Command {
	var output string
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path := output
			if path == "" {
				path = config.SearchPaths()[0]
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "target path (default: app-data config location)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func autostartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart {enable|disable}",
		Short: "Register or unregister a user-scope startup entry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:  "enable",
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			exe, err := os.Executable()
			if err != nil {
				return err
			}
			if err := enableAutostart(exe); err != nil {
				return err
			}
			fmt.Println("autostart enabled")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:  "disable",
		Args: cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := disableAutostart(); err != nil {
				return err
			}
			fmt.Println("autostart disabled")
			return nil
		},
	})
	return cmd
}

// runCommand starts the daemon in the foreground from the control binary.
func runCommand() *cobra.Command {
	var cfgPath string
	var logLevel string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the window manager daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			logger := logrus.New()
			logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

			cfg, loadedPath, err := config.Load(cfgPath)
			if err != nil {
				logger.WithError(err).Warn("Config rejected; falling back to built-in defaults")
				cfg = config.Default()
				loadedPath = ""
			}
			level := cfg.Behavior.LogLevel
			if logLevel != "" {
				level = logLevel
			}
			if parsed, err := logrus.ParseLevel(level); err == nil {
				logger.SetLevel(parsed)
			}

			plat, err := platform.New()
			if err != nil {
				return err
			}
			d, err := daemon.New(logger, plat, cfg, loadedPath, Version)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return d.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level override")
	return cmd
}
