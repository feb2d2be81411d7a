package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for a harvest run
type Config struct {
	// Remote endpoints and identifiers
	Instagram InstagramConfig `yaml:"instagram" json:"instagram"`

	// Interactive browser used for discovery and login
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Hashtag discovery settings
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`

	// Resilient fetch settings
	Fetch FetchConfig `yaml:"fetch" json:"fetch"`

	// Comment pagination
	Comments CommentsConfig `yaml:"comments" json:"comments"`

	// Pauses between remote calls
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Output files
	Output OutputConfig `yaml:"output" json:"output"`

	// Stored session handling
	Auth AuthConfig `yaml:"auth" json:"auth"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// InstagramConfig holds the remote endpoints the pipeline talks to
type InstagramConfig struct {
	BaseURL    string `yaml:"base_url" json:"base_url"`
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`
	AppID      string `yaml:"app_id" json:"app_id"`
	QueryHash  string `yaml:"query_hash" json:"query_hash"`
}

// BrowserConfig holds the interactive browser settings
type BrowserConfig struct {
	ExecPath          string        `yaml:"exec_path" json:"exec_path"`
	UserDataDir       string        `yaml:"user_data_dir" json:"user_data_dir"`
	ProfileDirectory  string        `yaml:"profile_directory" json:"profile_directory"`
	Headless          bool          `yaml:"headless" json:"headless"`
	LoginPollInterval time.Duration `yaml:"login_poll_interval" json:"login_poll_interval"`
	LoginTimeout      time.Duration `yaml:"login_timeout" json:"login_timeout"`
	HomeSettle        time.Duration `yaml:"home_settle" json:"home_settle"`
}

// DiscoveryConfig holds hashtag page discovery settings
type DiscoveryConfig struct {
	Topic          string        `yaml:"topic" json:"topic"`
	ScrollPasses   int           `yaml:"scroll_passes" json:"scroll_passes"`
	WaitTimeout    time.Duration `yaml:"wait_timeout" json:"wait_timeout"`
	SettleInterval time.Duration `yaml:"settle_interval" json:"settle_interval"`
}

// FetchConfig holds retry settings for API calls
type FetchConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	MinRetryDelay  time.Duration `yaml:"min_retry_delay" json:"min_retry_delay"`
	MaxRetryDelay  time.Duration `yaml:"max_retry_delay" json:"max_retry_delay"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// CommentsConfig controls how deep comment pagination goes
type CommentsConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
	MaxPages int `yaml:"max_pages" json:"max_pages"`
}

// PacingConfig holds the pause ranges between remote calls
type PacingConfig struct {
	DetailMinPause    time.Duration `yaml:"detail_min_pause" json:"detail_min_pause"`
	DetailMaxPause    time.Duration `yaml:"detail_max_pause" json:"detail_max_pause"`
	ProfileMinPause   time.Duration `yaml:"profile_min_pause" json:"profile_min_pause"`
	ProfileMaxPause   time.Duration `yaml:"profile_max_pause" json:"profile_max_pause"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	Directory    string `yaml:"directory" json:"directory"`
	CommentsFile string `yaml:"comments_file" json:"comments_file"`
	ProfilesFile string `yaml:"profiles_file" json:"profiles_file"`
	XLSX         bool   `yaml:"xlsx" json:"xlsx"`
	XLSXFile     string `yaml:"xlsx_file" json:"xlsx_file"`
	Report       bool   `yaml:"report" json:"report"`
	ReportFile   string `yaml:"report_file" json:"report_file"`
}

// AuthConfig controls reuse of stored browser sessions
type AuthConfig struct {
	Account     string `yaml:"account" json:"account"`
	SaveSession bool   `yaml:"save_session" json:"save_session"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Instagram: InstagramConfig{
			BaseURL:    "https://www.instagram.com",
			APIBaseURL: "https://i.instagram.com",
			AppID:      "936619743392459",
			QueryHash:  "97b41c52301f77ce508f55e66d17620e",
		},
		Browser: BrowserConfig{
			Headless:          false,
			LoginPollInterval: 3 * time.Second,
			LoginTimeout:      10 * time.Minute,
			HomeSettle:        5 * time.Second,
		},
		Discovery: DiscoveryConfig{
			ScrollPasses:   1,
			WaitTimeout:    60 * time.Second,
			SettleInterval: 3 * time.Second,
		},
		Fetch: FetchConfig{
			MaxAttempts:    3,
			MinRetryDelay:  2 * time.Second,
			MaxRetryDelay:  4 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Comments: CommentsConfig{
			PageSize: 50,
			MaxPages: 1,
		},
		Pacing: PacingConfig{
			DetailMinPause:    2 * time.Second,
			DetailMaxPause:    2 * time.Second,
			ProfileMinPause:   30 * time.Second,
			ProfileMaxPause:   60 * time.Second,
			RequestsPerMinute: 30,
		},
		Output: OutputConfig{
			Directory:    ".",
			CommentsFile: "comments.csv",
			ProfilesFile: "profiles_phone.csv",
			XLSX:         false,
			XLSXFile:     "harvest.xlsx",
			Report:       true,
			ReportFile:   "report.json",
		},
		Auth: AuthConfig{
			SaveSession: false,
		},
		Notifications: NotificationConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if topic := os.Getenv("IGHARVEST_TOPIC"); topic != "" {
		c.Discovery.Topic = topic
	}
	if passes := os.Getenv("IGHARVEST_SCROLL_PASSES"); passes != "" {
		val, err := strconv.Atoi(passes)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGHARVEST_SCROLL_PASSES: %w", err))
		} else {
			c.Discovery.ScrollPasses = val
		}
	}

	// Browser
	if dir := os.Getenv("IGHARVEST_USER_DATA_DIR"); dir != "" {
		c.Browser.UserDataDir = dir
	}
	if profile := os.Getenv("IGHARVEST_PROFILE_DIRECTORY"); profile != "" {
		c.Browser.ProfileDirectory = profile
	}
	if execPath := os.Getenv("IGHARVEST_CHROME_PATH"); execPath != "" {
		c.Browser.ExecPath = execPath
	}
	if headless := os.Getenv("IGHARVEST_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}

	// Fetching and pacing
	if attempts := os.Getenv("IGHARVEST_MAX_ATTEMPTS"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGHARVEST_MAX_ATTEMPTS: %w", err))
		} else {
			c.Fetch.MaxAttempts = val
		}
	}
	if pages := os.Getenv("IGHARVEST_COMMENT_PAGES"); pages != "" {
		val, err := strconv.Atoi(pages)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGHARVEST_COMMENT_PAGES: %w", err))
		} else {
			c.Comments.MaxPages = val
		}
	}
	if rpm := os.Getenv("IGHARVEST_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			errs = append(errs, fmt.Errorf("IGHARVEST_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.Pacing.RequestsPerMinute = val
		}
	}

	if outputDir := os.Getenv("IGHARVEST_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}
	if account := os.Getenv("IGHARVEST_ACCOUNT"); account != "" {
		c.Auth.Account = account
	}
	if notifEnabled := os.Getenv("IGHARVEST_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}
	if logLevel := os.Getenv("IGHARVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("IGHARVEST_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igharvest.yaml",
		".igharvest.yml",
		filepath.Join(home, ".config", "igharvest", "config.yaml"),
		filepath.Join(home, ".config", "igharvest", "config.yml"),
		filepath.Join(home, ".igharvest.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Instagram.BaseURL == "" {
		errs = append(errs, errors.New("instagram base URL is required"))
	}
	if c.Instagram.APIBaseURL == "" {
		errs = append(errs, errors.New("instagram API base URL is required"))
	}
	if c.Instagram.QueryHash == "" {
		errs = append(errs, errors.New("detail query hash is required"))
	}

	if c.Discovery.ScrollPasses < 0 {
		errs = append(errs, errors.New("scroll passes cannot be negative"))
	}
	if c.Discovery.WaitTimeout <= 0 {
		errs = append(errs, errors.New("discovery wait timeout must be positive"))
	}
	if c.Browser.LoginPollInterval <= 0 {
		errs = append(errs, errors.New("login poll interval must be positive"))
	}

	if c.Fetch.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.Fetch.MinRetryDelay < 0 || c.Fetch.MaxRetryDelay < c.Fetch.MinRetryDelay {
		errs = append(errs, errors.New("retry delay range is invalid"))
	}
	if c.Fetch.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Comments.PageSize < 1 || c.Comments.PageSize > 50 {
		errs = append(errs, errors.New("comment page size must be between 1 and 50"))
	}
	if c.Comments.MaxPages < 1 {
		errs = append(errs, errors.New("comment max pages must be at least 1"))
	}

	if c.Pacing.DetailMinPause < 0 || c.Pacing.DetailMaxPause < c.Pacing.DetailMinPause {
		errs = append(errs, errors.New("detail pause range is invalid"))
	}
	if c.Pacing.ProfileMinPause < 0 || c.Pacing.ProfileMaxPause < c.Pacing.ProfileMinPause {
		errs = append(errs, errors.New("profile pause range is invalid"))
	}
	if c.Pacing.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.CommentsFile == "" || c.Output.ProfilesFile == "" {
		errs = append(errs, errors.New("output file names are required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if topic, ok := flags["topic"].(string); ok && topic != "" {
		c.Discovery.Topic = topic
	}
	if passes, ok := flags["scroll-passes"].(int); ok && passes >= 0 {
		c.Discovery.ScrollPasses = passes
	}
	if dir, ok := flags["user-data-dir"].(string); ok && dir != "" {
		c.Browser.UserDataDir = dir
	}
	if profile, ok := flags["profile-directory"].(string); ok && profile != "" {
		c.Browser.ProfileDirectory = profile
	}
	if execPath, ok := flags["chrome-path"].(string); ok && execPath != "" {
		c.Browser.ExecPath = execPath
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts > 0 {
		c.Fetch.MaxAttempts = attempts
	}
	if pages, ok := flags["comment-pages"].(int); ok && pages > 0 {
		c.Comments.MaxPages = pages
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm >= 0 {
		c.Pacing.RequestsPerMinute = rpm
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if xlsx, ok := flags["xlsx"].(bool); ok {
		c.Output.XLSX = xlsx
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Auth.Account = account
	}
	if save, ok := flags["save-session"].(bool); ok {
		c.Auth.SaveSession = save
	}
	if enabled, ok := flags["notifications"].(bool); ok {
		c.Notifications.Enabled = enabled
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igharvest.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
