package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nhle/webmail/internal/api"
	"github.com/nhle/webmail/internal/app"
	"github.com/nhle/webmail/internal/credential"
	"github.com/nhle/webmail/internal/endpoint"
	"github.com/nhle/webmail/internal/logging"
	"github.com/nhle/webmail/internal/mailbox"
	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/session"
)

func main() {
	root := &cobra.Command{
		Use:   "webmail",
		Short: "Terminal mail client",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			logLevel, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return err
			}
			return run(configPath, logLevel)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path (default ~/.config/webmail/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, logLevel string) error {
	// A .env file can override the compiled-in server defaults.
	_ = godotenv.Load()

	setupLogging(logLevel)

	if configPath == "" {
		configPath = model.DefaultConfigPath()
	}

	client := api.NewClient("")
	cfg := endpoint.New(configPath, client)
	if _, _, err := cfg.Load(); err != nil {
		return fmt.Errorf("load endpoint config: %w", err)
	}

	sess := session.New(client, credential.Keyring{})
	cfg.OnInvalidate(sess.Invalidate)
	sess.Restore()

	box := mailbox.New(client)

	program := tea.NewProgram(app.New(cfg, sess, box), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// setupLogging sends logs to a state file; the terminal belongs to the UI.
func setupLogging(levelName string) {
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		level = logrus.InfoLevel
	}

	var out io.Writer = io.Discard
	if path := logFilePath(); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
				out = f
			}
		}
	}

	logging.Configure(level, out)
}

func logFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "webmail", "webmail.log")
}
