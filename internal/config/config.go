package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/cvilledata/crimedash/internal/utils"
)

// EnvPrefix is prepended to every environment override, e.g. CRIMEDASH_DATA_FILE.
const EnvPrefix = "CRIMEDASH"

// DefaultDataFile is the dataset path relative to the working directory.
const DefaultDataFile = "data/charlottesville_crime_incidents.xlsx"

// Global configuration structure.
type Global struct {
	// WorkingDir anchors a relative DataFile. Empty means the process
	// working directory.
	WorkingDir string `mapstructure:"working_dir" yaml:"working_dir"`
	DataFile   string `mapstructure:"data_file" yaml:"data_file"`
	SheetName  string `mapstructure:"sheet_name" yaml:"sheet_name"`
	CacheTTL   string `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	Timezone   string `mapstructure:"timezone" yaml:"timezone"`
	// WindowsDays are the trailing windows reported by summary metrics.
	WindowsDays []int `mapstructure:"windows_days" yaml:"windows_days"`

	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	// CORSOrigins may call the API from a browser. Empty disables CORS.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"working_dir", "data_file", "sheet_name", "cache_ttl", "timezone",
	"windows_days", "listen_addr", "cors_origins", "rate_limit",
	"log_level", "log_format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("working_dir", "")
	v.SetDefault("data_file", DefaultDataFile)
	v.SetDefault("sheet_name", "")
	v.SetDefault("cache_ttl", "24h")
	v.SetDefault("timezone", "America/New_York")
	v.SetDefault("windows_days", []int{3, 7, 14, 30})
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("rate_limit", 120)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// DefaultPath returns ~/.crimedash/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".crimedash", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.crimedash/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, file, env, and defaults.
// Precedence: env (including .env) > config file > defaults. An explicit
// cfgFile must exist; the default file is optional.
func Load(cfgFile string) (*Global, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		path, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// loadDotEnv exports variables from a .env file without overriding the
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Validate checks the values that are parsed later.
func (c *Global) Validate() error {
	if _, err := c.TTL(); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	for _, d := range c.WindowsDays {
		if d <= 0 {
			return fmt.Errorf("invalid windows_days entry %d: must be positive", d)
		}
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate_limit %d: must be 0 or more", c.RateLimit)
	}
	return nil
}

// DataPath resolves DataFile against WorkingDir.
func (c *Global) DataPath() string {
	if c.DataFile == "" || filepath.IsAbs(c.DataFile) {
		return c.DataFile
	}
	return filepath.Join(c.WorkingDir, c.DataFile)
}

// TTL parses CacheTTL. Empty means 24h.
func (c *Global) TTL() (time.Duration, error) {
	if strings.TrimSpace(c.CacheTTL) == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid cache_ttl %q: want a positive duration such as 24h", c.CacheTTL)
	}
	return d, nil
}

// Location loads Timezone. Empty means UTC.
func (c *Global) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Set assigns one key from its string form, validating the result.
func (c *Global) Set(key, val string) error {
	next := *c
	switch key {
	case "working_dir":
		next.WorkingDir = val
	case "data_file":
		next.DataFile = val
	case "sheet_name":
		next.SheetName = val
	case "cache_ttl":
		next.CacheTTL = val
	case "timezone":
		next.Timezone = val
	case "windows_days":
		days, err := parseInts(val)
		if err != nil {
			return fmt.Errorf("invalid windows_days: %w", err)
		}
		next.WindowsDays = days
	case "listen_addr":
		next.ListenAddr = val
	case "cors_origins":
		next.CORSOrigins = nil
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				next.CORSOrigins = append(next.CORSOrigins, o)
			}
		}
	case "rate_limit":
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return fmt.Errorf("invalid rate_limit: %q is not an integer", val)
		}
		next.RateLimit = n
	case "log_level":
		next.LogLevel = strings.ToLower(val)
	case "log_format":
		switch strings.ToLower(val) {
		case "json", "console":
			next.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use json or console)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(Keys, ", "))
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Get returns the string form of one key.
func (c *Global) Get(key string) (string, bool) {
	switch key {
	case "working_dir":
		return c.WorkingDir, true
	case "data_file":
		return c.DataFile, true
	case "sheet_name":
		return c.SheetName, true
	case "cache_ttl":
		return c.CacheTTL, true
	case "timezone":
		return c.Timezone, true
	case "windows_days":
		parts := make([]string, len(c.WindowsDays))
		for i, d := range c.WindowsDays {
			parts[i] = strconv.Itoa(d)
		}
		return strings.Join(parts, ","), true
	case "listen_addr":
		return c.ListenAddr, true
	case "cors_origins":
		return strings.Join(c.CORSOrigins, ","), true
	case "rate_limit":
		return strconv.Itoa(c.RateLimit), true
	case "log_level":
		return c.LogLevel, true
	case "log_format":
		return c.LogFormat, true
	}
	return "", false
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", f)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("no values")
	}
	return out, nil
}
