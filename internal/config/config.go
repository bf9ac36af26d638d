package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BadgePosition selects where the freshness badge is inserted
type BadgePosition int

const (
	// AfterTitle inserts the badge right after the first </h1>
	AfterTitle BadgePosition = iota
	// BeforeContent inserts the badge right before the disclosure block
	BeforeContent
)

// String returns the configuration spelling of the position
func (p BadgePosition) String() string {
	if p == BeforeContent {
		return "before-content"
	}
	return "after-title"
}

// ParseBadgePosition converts "after-title" or "before-content" to a BadgePosition
func ParseBadgePosition(s string) (BadgePosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "after-title":
		return AfterTitle, nil
	case "before-content":
		return BeforeContent, nil
	default:
		return AfterTitle, fmt.Errorf("unknown badge position %q", s)
	}
}

// DefaultBadgeAnchor is the disclosure block the before-content badge is placed in front of
const DefaultBadgeAnchor = `<div class="affiliate-disclosure"`

// Ambient site base URL variables, tried in order when siteUrl is not
// configured. Netlify builds expose the primary site URL as URL.
const (
	SiteURLEnv        = "SITE_URL"
	NetlifySiteURLEnv = "URL"
)

// Config mirrors the configuration file and environment
type Config struct {
	FreshnessMonths int           `mapstructure:"freshnessMonths" validate:"gt=0"`
	SiteName        string        `mapstructure:"siteName" validate:"required"`
	SiteURL         string        `mapstructure:"siteUrl" validate:"omitempty,url"`
	ContentPaths    []string      `mapstructure:"contentPaths" validate:"min=1,dive,urlprefix"`
	IgnorePaths     []string      `mapstructure:"ignorePaths" validate:"dive,urlprefix"`
	InjectJSONLD    bool          `mapstructure:"injectJsonLd"`
	InjectBadge     bool          `mapstructure:"injectBadge"`
	BadgePosition   string        `mapstructure:"badgePosition" validate:"oneof=after-title before-content"`
	BadgeAnchor     string        `mapstructure:"badgeAnchor" validate:"required_if=BadgePosition before-content"`
	FailOnStale     bool          `mapstructure:"failOnStale"`
	Workers         int           `mapstructure:"workers" validate:"gte=1"`
	DryRun          bool          `mapstructure:"dryRun"`
	Logging         LoggingConfig `mapstructure:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"` // "console" or "json"
	File   string `mapstructure:"file"`
}

// FreshnessConfig is the validated, immutable configuration for one run.
// It is passed by value so no component can alter another's view of it.
type FreshnessConfig struct {
	FreshnessMonths      int
	SiteName             string
	SiteURL              string
	ContentPathPrefixes  []string
	IgnorePathPrefixes   []string
	InjectStructuredData bool
	InjectBadge          bool
	BadgePosition        BadgePosition
	BadgeAnchor          string
	FailOnStale          bool
	Workers              int
	DryRun               bool
	Logging              LoggingConfig
}

// flagKeys maps configuration keys to the CLI flags that may override them
var flagKeys = map[string]string{
	"freshnessMonths": "freshness-months",
	"siteName":        "site-name",
	"siteUrl":         "site-url",
	"contentPaths":    "content-paths",
	"ignorePaths":     "ignore-paths",
	"injectJsonLd":    "inject-json-ld",
	"injectBadge":     "inject-badge",
	"badgePosition":   "badge-position",
	"badgeAnchor":     "badge-anchor",
	"failOnStale":     "fail-on-stale",
	"workers":         "workers",
	"dryRun":          "dry-run",
	"logging.level":   "log-level",
	"logging.format":  "log-format",
	"logging.file":    "log-file",
}

// defaults returns the documented default configuration
func defaults() Config {
	return Config{
		FreshnessMonths: 6,
		SiteName:        "Pro Trainer Prep",
		SiteURL:         "",
		ContentPaths:    []string{"/blog/"},
		IgnorePaths:     []string{},
		InjectJSONLD:    true,
		InjectBadge:     true,
		BadgePosition:   "after-title",
		BadgeAnchor:     DefaultBadgeAnchor,
		FailOnStale:     false,
		Workers:         1,
		DryRun:          false,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Default returns the documented defaults as a FreshnessConfig, ignoring
// config files and the environment
func Default() FreshnessConfig {
	d := defaults()
	cfg, _ := d.Freeze()
	return cfg
}

// Load builds the run configuration from defaults, an optional config file,
// FRESHSMITH_* environment variables and, when flags is non-nil, changed CLI flags.
func Load(configPath string, flags *pflag.FlagSet) (FreshnessConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FRESHSMITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return FreshnessConfig{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return FreshnessConfig{}, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("freshsmith")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return FreshnessConfig{}, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var raw Config
	if err := v.Unmarshal(&raw); err != nil {
		return FreshnessConfig{}, fmt.Errorf("unable to decode config: %w", err)
	}

	for _, env := range []string{SiteURLEnv, NetlifySiteURLEnv} {
		if raw.SiteURL != "" {
			break
		}
		raw.SiteURL = strings.TrimSpace(os.Getenv(env))
	}

	if err := raw.Validate(); err != nil {
		return FreshnessConfig{}, err
	}
	return raw.Freeze()
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := defaults()
	v.SetDefault("freshnessMonths", d.FreshnessMonths)
	v.SetDefault("siteName", d.SiteName)
	v.SetDefault("siteUrl", d.SiteURL)
	v.SetDefault("contentPaths", d.ContentPaths)
	v.SetDefault("ignorePaths", d.IgnorePaths)
	v.SetDefault("injectJsonLd", d.InjectJSONLD)
	v.SetDefault("injectBadge", d.InjectBadge)
	v.SetDefault("badgePosition", d.BadgePosition)
	v.SetDefault("badgeAnchor", d.BadgeAnchor)
	v.SetDefault("failOnStale", d.FailOnStale)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("dryRun", d.DryRun)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}

// Validate checks the configuration against its validation rules
func (c *Config) Validate() error {
	validate := validator.New()

	// Path prefixes are matched against URL paths, so they must be rooted
	_ = validate.RegisterValidation("urlprefix", func(fl validator.FieldLevel) bool {
		return strings.HasPrefix(fl.Field().String(), "/")
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// Freeze converts a validated Config into a FreshnessConfig
func (c *Config) Freeze() (FreshnessConfig, error) {
	pos, err := ParseBadgePosition(c.BadgePosition)
	if err != nil {
		return FreshnessConfig{}, err
	}
	return FreshnessConfig{
		FreshnessMonths:      c.FreshnessMonths,
		SiteName:             c.SiteName,
		SiteURL:              c.SiteURL,
		ContentPathPrefixes:  append([]string(nil), c.ContentPaths...),
		IgnorePathPrefixes:   append([]string(nil), c.IgnorePaths...),
		InjectStructuredData: c.InjectJSONLD,
		InjectBadge:          c.InjectBadge,
		BadgePosition:        pos,
		BadgeAnchor:          c.BadgeAnchor,
		FailOnStale:          c.FailOnStale,
		Workers:              c.Workers,
		DryRun:               c.DryRun,
		Logging:              c.Logging,
	}, nil
}
