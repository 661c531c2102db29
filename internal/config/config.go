// Package config loads agent settings from defaults, an optional config file,
// a .env file and DOMAIN_AGENT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/LuckyB33f/domainAgent/internal/orchestrator"
	"github.com/LuckyB33f/domainAgent/internal/registrar"
	"github.com/LuckyB33f/domainAgent/internal/schedule"
	"github.com/LuckyB33f/domainAgent/internal/selection"
)

// EnvPrefix prefixes every environment override, e.g. DOMAIN_AGENT_ORDER_PERIOD.
const EnvPrefix = "DOMAIN_AGENT"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the full agent configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Registrar RegistrarConfig `mapstructure:"registrar"`
	Selection SelectionConfig `mapstructure:"selection"`
	Order     OrderConfig     `mapstructure:"order"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// RegistrarConfig configures the TPP Wholesale client.
// DryRun keeps the real drop-list fetch but replaces order submission with a stub.
type RegistrarConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	APISecret      string        `mapstructure:"api_secret"`
	ResellerID     string        `mapstructure:"reseller_id"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	DryRun         bool          `mapstructure:"dry_run"`
}

type SelectionConfig struct {
	AllowedTLDs      []string `mapstructure:"allowed_tlds"`
	MaxDomainsPerDay int      `mapstructure:"max_domains_per_day"`
	MinDomainLength  int      `mapstructure:"min_domain_length"`
	MaxDomainLength  int      `mapstructure:"max_domain_length"`
	PriorityKeywords []string `mapstructure:"priority_keywords"`
	ExcludeKeywords  []string `mapstructure:"exclude_keywords"`
}

// OrderConfig holds per-order defaults. Empty admin, tech and billing IDs fall
// back to the registrant.
type OrderConfig struct {
	DefaultRegistrantContactID string   `mapstructure:"default_registrant_contact_id"`
	DefaultAdminContactID      string   `mapstructure:"default_admin_contact_id"`
	DefaultTechContactID       string   `mapstructure:"default_tech_contact_id"`
	DefaultBillingContactID    string   `mapstructure:"default_billing_contact_id"`
	DefaultNameservers         []string `mapstructure:"default_nameservers"`
	Period                     int      `mapstructure:"period"`
}

type StorageConfig struct {
	Driver        string `mapstructure:"driver"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // optional, run summaries
}

type ScheduleConfig struct {
	Cron       string `mapstructure:"cron"`
	Timezone   string `mapstructure:"timezone"`
	RunOnStart bool   `mapstructure:"run_on_start"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("registrar.base_url", registrar.DefaultBaseURL)
	v.SetDefault("registrar.api_key", "")
	v.SetDefault("registrar.api_secret", "")
	v.SetDefault("registrar.reseller_id", "")
	v.SetDefault("registrar.timeout", registrar.DefaultTimeout)
	v.SetDefault("registrar.max_retries", registrar.DefaultMaxRetries)
	v.SetDefault("registrar.retry_delay", registrar.DefaultRetryDelay)
	v.SetDefault("registrar.rate_limit_rps", registrar.DefaultRateLimit)
	v.SetDefault("registrar.rate_limit_burst", registrar.DefaultRateBurst)
	v.SetDefault("registrar.dry_run", false)

	sel := selection.DefaultConfig()
	v.SetDefault("selection.allowed_tlds", sel.AllowedTLDs)
	v.SetDefault("selection.max_domains_per_day", sel.MaxDomainsPerDay)
	v.SetDefault("selection.min_domain_length", sel.MinDomainLength)
	v.SetDefault("selection.max_domain_length", sel.MaxDomainLength)
	v.SetDefault("selection.priority_keywords", []string{})
	v.SetDefault("selection.exclude_keywords", []string{})

	v.SetDefault("order.default_registrant_contact_id", "")
	v.SetDefault("order.default_admin_contact_id", "")
	v.SetDefault("order.default_tech_contact_id", "")
	v.SetDefault("order.default_billing_contact_id", "")
	v.SetDefault("order.default_nameservers", []string{})
	v.SetDefault("order.period", 1)

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.sqlite_path", "domain_agent.db")
	v.SetDefault("storage.clickhouse_dsn", "")

	v.SetDefault("schedule.cron", schedule.DefaultExpression)
	v.SetDefault("schedule.timezone", schedule.DefaultTimeZone)
	v.SetDefault("schedule.run_on_start", false)
}

// Load reads configuration. path is an optional YAML/TOML/JSON file; pass "" to skip it.
// A .env file in the working directory is loaded into the environment first if present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// normalize trims list entries and drops blanks left by comma-separated env values.
func (c *Config) normalize() {
	c.Selection.AllowedTLDs = cleanList(c.Selection.AllowedTLDs)
	c.Selection.PriorityKeywords = cleanList(c.Selection.PriorityKeywords)
	c.Selection.ExcludeKeywords = cleanList(c.Selection.ExcludeKeywords)
	c.Order.DefaultNameservers = cleanList(c.Order.DefaultNameservers)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate reports every configuration fault at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Order.DefaultRegistrantContactID) == "" {
		errs = append(errs, errors.New("order.default_registrant_contact_id is required"))
	}
	if !c.Registrar.DryRun {
		if c.Registrar.APIKey == "" || c.Registrar.APISecret == "" || c.Registrar.ResellerID == "" {
			errs = append(errs, errors.New("registrar.api_key, registrar.api_secret and registrar.reseller_id are required unless registrar.dry_run is set"))
		}
	}
	if c.Registrar.BaseURL == "" {
		errs = append(errs, errors.New("registrar.base_url is required"))
	}

	s := c.Selection
	if s.MinDomainLength < 1 {
		errs = append(errs, fmt.Errorf("selection.min_domain_length must be >= 1, got %d", s.MinDomainLength))
	}
	if s.MaxDomainLength < s.MinDomainLength {
		errs = append(errs, fmt.Errorf("selection.max_domain_length (%d) must be >= min_domain_length (%d)", s.MaxDomainLength, s.MinDomainLength))
	}
	if s.MaxDomainsPerDay < 0 {
		errs = append(errs, fmt.Errorf("selection.max_domains_per_day must be >= 0, got %d", s.MaxDomainsPerDay))
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("schedule.timezone: %w", err))
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		errs = append(errs, fmt.Errorf("schedule.cron: %w", err))
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, postgres, sqlite", c.Storage.Driver))
	}

	return errors.Join(errs...)
}

// SelectionRules converts the selection section for selection.New.
func (c *Config) SelectionRules() selection.Config {
	return selection.Config{
		AllowedTLDs:      c.Selection.AllowedTLDs,
		MaxDomainsPerDay: c.Selection.MaxDomainsPerDay,
		MinDomainLength:  c.Selection.MinDomainLength,
		MaxDomainLength:  c.Selection.MaxDomainLength,
		PriorityKeywords: c.Selection.PriorityKeywords,
		ExcludeKeywords:  c.Selection.ExcludeKeywords,
	}
}

// OrderDefaults converts the order section for the orchestrator.
func (c *Config) OrderDefaults() orchestrator.OrderDefaults {
	return orchestrator.OrderDefaults{
		RegistrantContactID: c.Order.DefaultRegistrantContactID,
		AdminContactID:      c.Order.DefaultAdminContactID,
		TechContactID:       c.Order.DefaultTechContactID,
		BillingContactID:    c.Order.DefaultBillingContactID,
		Nameservers:         c.Order.DefaultNameservers,
		Period:              c.Order.Period,
	}
}

// Credentials returns the registrar credentials.
func (c *Config) Credentials() registrar.Credentials {
	return registrar.Credentials{
		APIKey:     c.Registrar.APIKey,
		APISecret:  c.Registrar.APISecret,
		ResellerID: c.Registrar.ResellerID,
	}
}

// RegistrarOptions returns client options for the registrar section.
func (c *Config) RegistrarOptions() []registrar.ClientOption {
	return []registrar.ClientOption{
		registrar.WithTimeout(c.Registrar.Timeout),
		registrar.WithMaxRetries(c.Registrar.MaxRetries),
		registrar.WithRetryDelay(c.Registrar.RetryDelay),
		registrar.WithRateLimit(c.Registrar.RateLimitRPS, c.Registrar.RateLimitBurst),
	}
}
