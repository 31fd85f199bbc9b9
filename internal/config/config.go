// Package config loads the release-runner configuration.
//
// Configuration is optional: every field has a default tuned for
// a typical crate release. A file in the repository root may
// override them, either as YAML (.release.yaml / .release.yml, parsed with
// gopkg.in/yaml.v3) or as JSON with comments (.release.jsonc /
// .release.json, cleaned with github.com/tidwall/jsonc before decoding).
// Command-line flags override file values.
//
// The API bearer token is never read from the file; it comes from the
// environment variable named by TokenEnv.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/release-runner/internal/model"
)

// FileNames are the config file names searched for, in order.
var FileNames = []string{".release.yaml", ".release.yml", ".release.jsonc", ".release.json"}

// Config is the full runtime configuration of one release run.
type Config struct {
	// Owner and Repo name the hosting repository. When empty they are
	// derived from the git remote URL before validation.
	Owner string `yaml:"owner" json:"owner" validate:"required"`
	Repo  string `yaml:"repo" json:"repo" validate:"required"`

	// Workflow is the display name of the CI workflow to wait on.
	Workflow string `yaml:"workflow" json:"workflow" validate:"required"`

	// Remote and Branch are where the release commit is pushed.
	Remote string `yaml:"remote" json:"remote" validate:"required"`
	Branch string `yaml:"branch" json:"branch" validate:"required"`

	// Manifest is the manifest file name relative to the package root.
	Manifest string `yaml:"manifest" json:"manifest" validate:"required"`

	// APIURL is the base URL of the hosting REST API.
	APIURL string `yaml:"api_url" json:"api_url" validate:"required,url"`

	// TokenEnv names the environment variable holding the bearer token.
	TokenEnv string `yaml:"token_env" json:"token_env" validate:"required"`

	// Pager shows the edited manifest for review. Empty disables it.
	Pager string `yaml:"pager" json:"pager"`

	// Timing holds every delay, timeout and retry budget.
	Timing Timing `yaml:"timing" json:"timing"`

	// Token is filled from the environment by LoadCredential.
	Token string `yaml:"-" json:"-"`
}

// Timing holds the named timing constants of the remote wait.
type Timing struct {
	// CITimeout bounds one wait for a run to complete.
	CITimeout Duration `yaml:"ci_timeout" json:"ci_timeout" validate:"gt=0"`

	// MinBuildTime is held once before the first commit build is polled.
	MinBuildTime Duration `yaml:"min_build_time" json:"min_build_time" validate:"gte=0"`

	// PollInterval is the sleep between status checks.
	PollInterval Duration `yaml:"poll_interval" json:"poll_interval" validate:"gt=0"`

	// SettleDelay is held before resolving a run, so the hosting service
	// has registered the push.
	SettleDelay Duration `yaml:"settle_delay" json:"settle_delay" validate:"gte=0"`

	// ResolveAttempts is the number of run listing fetches before giving up.
	ResolveAttempts int `yaml:"resolve_attempts" json:"resolve_attempts" validate:"min=1"`

	// BackoffInitial is the first sleep after an empty listing.
	BackoffInitial Duration `yaml:"backoff_initial" json:"backoff_initial" validate:"gte=0"`

	// BackoffMultiplier scales the backoff after every empty listing.
	BackoffMultiplier float64 `yaml:"backoff_multiplier" json:"backoff_multiplier" validate:"gte=1"`

	// HoldTick is how often countdown lines are redrawn.
	HoldTick Duration `yaml:"hold_tick" json:"hold_tick" validate:"gt=0"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Workflow: "Publish",
		Remote:   "origin",
		Branch:   "master",
		Manifest: "Cargo.toml",
		APIURL:   "https://api.github.com",
		TokenEnv: "GITHUB_TOKEN",
		Timing: Timing{
			CITimeout:         Duration(15 * time.Minute),
			MinBuildTime:      Duration(4 * time.Minute),
			PollInterval:      Duration(10 * time.Second),
			SettleDelay:       Duration(10 * time.Second),
			ResolveAttempts:   4,
			BackoffInitial:    Duration(time.Second),
			BackoffMultiplier: 2,
			HoldTick:          Duration(500 * time.Millisecond),
		},
	}
}

// Discover returns the first config file found in dir, or "" if none.
func Discover(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load returns Default overlaid with the file at path. An empty path
// returns the defaults unchanged. Fields absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfig, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", model.ErrConfig, path, err)
		}
	case ".json", ".jsonc":
		// jsonc.ToJSON strips comments and trailing commas so the standard
		// decoder can handle hand-edited files.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", model.ErrConfig, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config file type %q", model.ErrConfig, filepath.Ext(path))
	}

	return cfg, nil
}

// LoadCredential reads the bearer token from the environment. A missing
// token is fatal before any release step runs.
func (c *Config) LoadCredential() error {
	token := strings.TrimSpace(os.Getenv(c.TokenEnv))
	if token == "" {
		return fmt.Errorf("%w: environment variable %s is not set", model.ErrMissingCredential, c.TokenEnv)
	}
	c.Token = token
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints. Call it after Owner/Repo have been
// resolved and flag overrides applied.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: invalid fields: %s", model.ErrConfig, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", model.ErrConfig, err)
}
