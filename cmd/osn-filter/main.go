// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the osn-filter CLI, which filters an
// OpenStreetMap Notes export by creation date and bounding box.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

var verbose bool

// rootCmd is the base command for the osn-filter CLI.
var rootCmd = &cobra.Command{
	Use:   "osn-filter",
	Short: "Filter OpenStreetMap Notes exports by date and area",
	Long: `osn-filter loads an OpenStreetMap Notes export (.osn), converts it to
note records and filters them by creation date range and/or bounding box.

Filter parameters can also come from a config file (osn-filter.yaml) or from
OSN_FILTER_* environment variables; explicit flags take precedence.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./osn-filter.yaml or ~/.config/osn-filter/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("osn-filter")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "osn-filter"))
		}
	}

	viper.SetEnvPrefix("OSN_FILTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setting returns the flag value if it was given on the command line,
// otherwise the config or environment value, otherwise the flag default.
func setting(cmd *cobra.Command, name string) string {
	f := cmd.Flags().Lookup(name)
	if f != nil && f.Changed {
		return f.Value.String()
	}
	if viper.IsSet(name) {
		return viper.GetString(name)
	}
	if f != nil {
		return f.Value.String()
	}
	return ""
}

// commandContext returns the command's context, or a background context when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
