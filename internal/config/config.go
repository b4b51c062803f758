// Package config loads the bot's settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var (
	ErrMissingCredentials = errors.New("LINKEDIN_EMAIL or LINKEDIN_PASSWORD environment variables not set")
	ErrMissingSetting     = errors.New("required environment variable not set")
	ErrInvalidSetting     = errors.New("invalid setting")
	ErrResumeNotFound     = errors.New("resume file not found")
)

// Config holds every setting of a run. Each field is bound to an
// environment variable; there are no command-line flags, so credentials
// never appear in the process list.
type Config struct {
	Email    string `env:"LINKEDIN_EMAIL" help:"LinkedIn account email."`
	Password string `env:"LINKEDIN_PASSWORD" help:"LinkedIn account password."`

	ResumeFileName        string `env:"RESUME_FILE_NAME" help:"Resume to attach, relative to the base directory."`
	MessageRecordFileName string `env:"MESSAGE_RECORD_FILE_NAME" help:"File of profiles already messaged."`
	FailRecordFileName    string `env:"FAIL_RECORD_FILE_NAME" help:"File of profiles whose message failed."`

	BaseDir     string `env:"REFERRAL_BASE_DIR" default:"." help:"Directory relative paths are resolved against."`
	UserDataDir string `env:"REFERRAL_USER_DATA_DIR" default:"linkedin_user_data" help:"Chrome profile kept between runs."`
	MessageFile string `env:"REFERRAL_MESSAGE_FILE" help:"Message template with a {name} placeholder."`
	Headless    bool   `env:"REFERRAL_HEADLESS" help:"Run Chrome without a window."`
	ChromePath  string `env:"CHROME_PATH" help:"Chrome binary to launch."`
	LogLevel    string `env:"REFERRAL_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level."`

	ScrollPasses int           `env:"REFERRAL_SCROLL_PASSES" default:"3" help:"Scrolls used to lazy-load connections."`
	MinDelay     time.Duration `env:"REFERRAL_MIN_DELAY" default:"30s" help:"Shortest wait between messages."`
	MaxDelay     time.Duration `env:"REFERRAL_MAX_DELAY" default:"90s" help:"Longest wait between messages."`
	StepTimeout  time.Duration `env:"REFERRAL_STEP_TIMEOUT" default:"15s" help:"Timeout of each page step."`
}

// Load reads .env from the working directory when present, then parses
// the environment into a checked Config
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	var cfg Config
	parser, err := kong.New(&cfg,
		kong.Name("referral"),
		kong.Description("Message newly accepted LinkedIn connections with a referral request."),
	)
	if err != nil {
		return nil, fmt.Errorf("building config parser: %w", err)
	}
	if _, err := parser.Parse(nil); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv exports the variables of path without overriding the
// environment; a missing file is ignored
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

// Check reports the first setting that prevents a run
func (c *Config) Check() error {
	if c.Email == "" || c.Password == "" {
		return ErrMissingCredentials
	}

	required := []struct {
		env   string
		value string
	}{
		{"RESUME_FILE_NAME", c.ResumeFileName},
		{"MESSAGE_RECORD_FILE_NAME", c.MessageRecordFileName},
		{"FAIL_RECORD_FILE_NAME", c.FailRecordFileName},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, r.env)
		}
	}

	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("%w: delay range %s..%s", ErrInvalidSetting, c.MinDelay, c.MaxDelay)
	}
	if c.ScrollPasses < 0 {
		return fmt.Errorf("%w: scroll passes %d", ErrInvalidSetting, c.ScrollPasses)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("%w: step timeout %s", ErrInvalidSetting, c.StepTimeout)
	}

	info, err := os.Stat(c.ResumePath())
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w at path: %s", ErrResumeNotFound, c.ResumePath())
	}
	return nil
}

func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.BaseDir, path)
}

// ResumePath is the absolute or base-relative location of the resume
func (c *Config) ResumePath() string {
	return c.resolve(c.ResumeFileName)
}

// SuccessRecordPath is the location of the messaged-profiles record
func (c *Config) SuccessRecordPath() string {
	return c.resolve(c.MessageRecordFileName)
}

// FailureRecordPath is the location of the failed-profiles record
func (c *Config) FailureRecordPath() string {
	return c.resolve(c.FailRecordFileName)
}

// UserDataPath is the location of the persisted Chrome profile
func (c *Config) UserDataPath() string {
	return c.resolve(c.UserDataDir)
}

// MessagePath is the location of the message template, empty for the default
func (c *Config) MessagePath() string {
	return c.resolve(c.MessageFile)
}
