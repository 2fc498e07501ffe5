package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/johncui/vega/pkg/config"
)

var (
	verbose      bool
	settingsPath string
	envPath      string

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "vega",
	Short: "A spoken-language personal assistant",
	Long: `Vega listens for transcribed utterances, keeps a sleep/wake state,
remembers facts you ask it to, runs simple device actions and answers
everything else with a language model.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&settingsPath, "config", "c", config.DefaultPath, "Settings file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "Environment file")
}

// loadSettings reads .env, the settings file and environment overrides.
// Problems with the settings file are logged and the defaults used.
func loadSettings() config.Settings {
	if err := config.LoadEnv(envPath); err != nil {
		logger.Warn("env file not loaded", "path", envPath, "err", err)
	}
	s, err := config.Load(settingsPath)
	if err != nil {
		logger.Warn("settings unreadable, using defaults", "path", settingsPath, "err", err)
	}
	s.ApplyEnv()
	return s
}
