package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/cvilledata/crimedash/internal/config"
	"github.com/cvilledata/crimedash/internal/dataset"
	"github.com/cvilledata/crimedash/internal/incident"
	"github.com/cvilledata/crimedash/internal/logging"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagDataFile  string
	flagSheetName string
	flagTimezone  string

	// Loaded configuration
	cfg *cfgpkg.Global
	// cfgErr is reported by commands that need configuration.
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "crimedash",
	Short: "Crime incident dashboard: cascading filters, metrics and trends",
	Long: `crimedash loads a municipal crime-incident spreadsheet and reports counts,
recency windows, period-over-period growth and grouped breakdowns, either on the
command line or through a JSON API for a dashboard front end.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.crimedash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataFile, "data-file", "", "incident spreadsheet (.xlsx, .csv, .tsv); overrides config")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet", "", "XLSX sheet name (default: first sheet)")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "timezone", "", "IANA zone for calendar boundaries; overrides config")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		cfg, cfgErr = nil, err
		// Non-fatal: config commands can still repair the file
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg, cfgErr = c, nil

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("data-file") && flagDataFile != "" {
		cfg.DataFile = flagDataFile
	}
	if f.Changed("sheet") {
		cfg.SheetName = flagSheetName
	}
	if f.Changed("timezone") && flagTimezone != "" {
		cfg.Timezone = flagTimezone
	}

	lc := logging.DefaultConfig()
	lc.Level, lc.Format = cfg.LogLevel, cfg.LogFormat
	if debug {
		lc.Level = "debug"
	}
	logging.Init(lc)
}

// requireConfig returns the loaded configuration or the reason it is missing.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if cfgErr != nil {
		return nil, fmt.Errorf("configuration unavailable: %w", cfgErr)
	}
	return nil, fmt.Errorf("configuration not loaded")
}

// loadOptions derives dataset load options from the configuration.
func loadOptions(c *cfgpkg.Global) (dataset.LoadOptions, error) {
	loc, err := c.Location()
	if err != nil {
		return dataset.LoadOptions{}, err
	}
	return dataset.LoadOptions{SheetName: c.SheetName, Location: loc}, nil
}

// loadTable reads the configured data file once.
func loadTable() (*incident.Table, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	opt, err := loadOptions(c)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	t, err := dataset.LoadIncidents(c.DataPath(), opt)
	if err != nil {
		return nil, err
	}
	logging.Debug().Str("path", c.DataPath()).Int("records", t.Len()).Dur("elapsed", time.Since(start)).Msg("dataset loaded")
	return t, nil
}
