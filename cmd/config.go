package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/hws/internal/config"
	"github.com/derickschaefer/hws/internal/model"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage hws configuration",
	Long:  `Read and write hws configuration stored in config.json.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Set feed_url if you use a mirror of the water-level feed.")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		cfg := deps.Config

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}
		t := model.Table{
			Title:   "Configuration",
			Columns: []string{"Key", "Value"},
			Rows: [][]string{
				{"default_format", cfg.Format},
				{"timeout", cfg.Timeout.String()},
				{"concurrency", strconv.Itoa(cfg.Concurrency)},
				{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
				{"feed_url", cfg.FeedURL},
				{"db_path", cfg.DBPath},
				{"width", strconv.Itoa(cfg.Width)},
				{"height", strconv.Itoa(cfg.Height)},
				{"hcontrols", cfg.HControls},
				{"vcontrols", cfg.VControls},
				{"config_file", src},
			},
		}
		return emit(cmd.OutOrStdout(), deps, buildTableResult("config get", t))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])

		// Load existing file or start from template
		path := config.DefaultConfigFile
		f, err := config.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			f, err = config.Template(), nil
		}
		if err != nil {
			return err
		}

		if err := setConfigKey(&f, key, args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

const configKeys = "default_format, timeout, concurrency, rate, feed_url, db_path, width, height, hcontrols, vcontrols"

// setConfigKey validates val and stores it under key.
func setConfigKey(f *config.File, key, val string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%s must be a positive integer", key)
		}
		return n, nil
	}
	var err error
	switch key {
	case "default_format", "format":
		f.DefaultFormat = val
	case "timeout":
		if _, err := time.ParseDuration(val); err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		f.Timeout = val
	case "concurrency":
		f.Concurrency, err = atoi()
	case "rate":
		r, perr := strconv.ParseFloat(val, 64)
		if perr != nil || r <= 0 {
			return fmt.Errorf("rate must be a positive number")
		}
		f.Rate = r
	case "feed_url":
		f.FeedURL = val
	case "db_path":
		f.DBPath = val
	case "width":
		f.Width, err = atoi()
	case "height":
		f.Height, err = atoi()
	case "hcontrols":
		if _, err := parseHControls(val); err != nil {
			return err
		}
		f.HControls = strings.ToLower(val)
	case "vcontrols":
		if _, err := parseVControls(val); err != nil {
			return err
		}
		f.VControls = strings.ToLower(val)
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, configKeys)
	}
	return err
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
