package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clientcmd "github.com/labelwire/labelwire/internal/cmd/client"
	serverrun "github.com/labelwire/labelwire/internal/cmd/server"
	cfgpkg "github.com/labelwire/labelwire/internal/config"
	pebblestore "github.com/labelwire/labelwire/internal/storage/pebble"
	logpkg "github.com/labelwire/labelwire/pkg/log"
)

func main() {
	// Respect LW_LOG_LEVEL for both CLI and server start output.
	level := os.Getenv("LW_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	// Redirect standard library logs (used by Pebble) to our logger.
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "labelwire",
		Short: "labelwire instance CLI",
		Long:  "labelwire is a single-binary email labeling worker. This CLI manages the server and basic operations.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the labelwire server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			configPath, _ := cmd.Flags().GetString("config")
			mailboxDir, _ := cmd.Flags().GetString("mailbox-dir")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}
			if logLevel != "" {
				_ = os.Setenv("LW_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("LW_LOG_FORMAT", logFormat)
			}

			cfg := cfgpkg.Default()
			cfgpkg.FromEnv(&cfg)
			if mailboxDir != "" {
				cfg.MailboxDir = mailboxDir
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:    dataDir,
				HTTPAddr:   httpAddr,
				ConfigPath: configPath,
				Fsync:      mode,
				Config:     cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", ":8080", "HTTP listen address")
	serverStartCmd.Flags().String("config", os.Getenv("LW_CONFIG"), "Config file path (JSON or YAML), re-read each work pass")
	serverStartCmd.Flags().String("mailbox-dir", "", "Mailbox directory (overrides config)")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().String("log-level", os.Getenv("LW_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("LW_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// register against the channel via the running server
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Announce this instance on the chat channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := clientcmd.PostRegister(apiURL)
			if err != nil {
				return err
			}
			if out["success"] != true {
				return fmt.Errorf("register failed: %v", out["error"])
			}
			fmt.Println("registered")
			return nil
		},
	}
	rootCmd.AddCommand(registerCmd)

	rootCmd.AddCommand(clientcmd.NewQueueCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewLabelsCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewChatCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("LW_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
