package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/juparave/secretgate/internal/util"
	"github.com/spf13/viper"
)

// DefaultConfigFile is read from the working directory when no path is given
const DefaultConfigFile = ".secretgate.yaml"

// Config holds all run configuration
type Config struct {
	Repository  string        `mapstructure:"repository"`
	Token       string        `mapstructure:"token"`
	ConfigRepo  string        `mapstructure:"config_repo"`
	ConfigPath  string        `mapstructure:"config_path"`
	PRNumber    string        `mapstructure:"pr_number"`
	APIURL      string        `mapstructure:"api_url"`
	Reports     ReportsConfig `mapstructure:"reports"`
	MetricsFile string        `mapstructure:"metrics_file"`
	Verbose     bool          `mapstructure:"-"` // Set via CLI only
}

// ReportsConfig holds report storage settings
type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"` // Empty disables saving
}

// envBindings maps configuration keys to the environment variables set by
// the workflow
var envBindings = map[string]string{
	"repository":         "GITHUB_REPOSITORY",
	"token":              "GITHUB_TOKEN",
	"config_repo":        "CONFIG_REPO",
	"config_path":        "CONFIG_PATH",
	"pr_number":          "PR_NUMBER",
	"api_url":            "GITHUB_API_URL",
	"reports.output_dir": "SECRETGATE_REPORT_DIR",
	"metrics_file":       "SECRETGATE_METRICS_FILE",
}

// Load reads configuration from the environment and an optional YAML file.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("api_url", "https://api.github.com")

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	path = util.ExpandPath(path)

	if explicit || util.FileExists(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Reports.OutputDir = util.ExpandPath(cfg.Reports.OutputDir)
	cfg.MetricsFile = util.ExpandPath(cfg.MetricsFile)

	return cfg, nil
}

// Validate checks that every required input is present and that the pull
// request number is usable
func (c *Config) Validate() error {
	required := []struct {
		value string
		name  string
	}{
		{c.Repository, "repository (GITHUB_REPOSITORY)"},
		{c.Token, "token (GITHUB_TOKEN)"},
		{c.ConfigRepo, "config repository (CONFIG_REPO)"},
		{c.ConfigPath, "config path (CONFIG_PATH)"},
		{c.PRNumber, "pull request number (PR_NUMBER)"},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required inputs: %s", strings.Join(missing, ", "))
	}

	_, err := c.PullRequest()
	return err
}

// PullRequest returns the parsed pull request number
func (c *Config) PullRequest() (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(c.PRNumber))
	if err != nil {
		return 0, fmt.Errorf("invalid pull request number %q", c.PRNumber)
	}
	if n <= 0 {
		return 0, fmt.Errorf("pull request number must be positive, got %d", n)
	}
	return n, nil
}
