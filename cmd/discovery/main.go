// Package main is the discovery command line tool. It runs the filter,
// classification and ranking engines against local JSON files and manages the
// activity registry consumed by the workflow modelers.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"provider-discovery/internal/common/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "discovery",
		Short:         "Provider discovery and matching tools",
		Long:          "Filters, classifies and ranks service providers offline and maintains the worker activity registry.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	cmd.AddCommand(
		newFilterCmd(opts),
		newClassifyCmd(opts),
		newRankCmd(),
		newRegistryCmd(),
	)
	return cmd
}

func (o *rootOptions) logger() logger.Logger {
	return logger.NewZapAdapter(logger.NewWithOptions(logger.Options{
		Level:  o.logLevel,
		Format: "console",
		Output: "stderr",
	}))
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// writeJSON writes v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if path == "" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
