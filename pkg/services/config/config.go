package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
	"github.com/ses4j/ebird-statistical-report/pkg/services/media"
	"github.com/ses4j/ebird-statistical-report/pkg/services/names"
	"github.com/ses4j/ebird-statistical-report/pkg/services/stats"
)

const EnvPrefix = "EBIRD_REPORT"

type Config struct {
	Store        StoreConfig        `mapstructure:"store"`
	Report       ReportConfig       `mapstructure:"report"`
	Limits       stats.Limits       `mapstructure:"limits"`
	Names        NamesConfig        `mapstructure:"names"`
	ResultsCache ResultsCacheConfig `mapstructure:"results_cache"`
	Media        MediaConfig        `mapstructure:"media"`
	Output       OutputConfig       `mapstructure:"output"`
	Publish      PublishConfig      `mapstructure:"publish"`
	Server       ServerConfig       `mapstructure:"server"`
}

type StoreConfig struct {
	Driver  string `mapstructure:"driver"` // duckdb or postgres
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
	Threads int    `mapstructure:"threads"`
}

type ReportConfig struct {
	Title            string `mapstructure:"title"`
	Author           string `mapstructure:"author"`
	Version          string `mapstructure:"version"`
	Thanks           string `mapstructure:"thanks"`
	ReviewPolicy     string `mapstructure:"review_policy"`
	Workers          int    `mapstructure:"workers"`
	ChecklistBaseURL string `mapstructure:"checklist_base_url"`
	SubRegionsFile   string `mapstructure:"sub_regions_file"`
}

type NamesConfig struct {
	Policy        string        `mapstructure:"policy"`
	OverridesFile string        `mapstructure:"overrides_file"`
	CachePath     string        `mapstructure:"cache_path"`
	TTL           time.Duration `mapstructure:"ttl"`
	BaseURL       string        `mapstructure:"base_url"`
	Retries       int           `mapstructure:"retries"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type ResultsCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type MediaConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Photos   int            `mapstructure:"photos"`
	Settings media.Settings `mapstructure:",squash"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"` // one of Formats
	// LatexCommand compiles the pdf format.
	LatexCommand string `mapstructure:"latex_command"`
}

type PublishConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var Formats = []string{"latex", "pdf", "xlsx", "text"}

func setDefaults(v *viper.Viper) {
	limits := stats.DefaultLimits()

	defaults := map[string]any{
		"store.driver":  "duckdb",
		"store.path":    "ebird.duckdb",
		"store.dsn":     "",
		"store.threads": 4,

		"report.title":              "",
		"report.author":             "",
		"report.version":            "",
		"report.thanks":             "",
		"report.review_policy":      string(domain.ReviewExcludeRejected),
		"report.workers":            4,
		"report.checklist_base_url": "https://ebird.org",
		"report.sub_regions_file":   "",

		"limits.top_list":               limits.TopList,
		"limits.month_list":             limits.MonthList,
		"limits.sub_region_list":        limits.SubRegionList,
		"limits.all_time_bigs":          limits.AllTimeBigs,
		"limits.last_x_years":           limits.LastXYears,
		"limits.four_seasons":           limits.FourSeasons,
		"limits.most_seen":              limits.MostSeen,
		"limits.media":                  limits.Media,
		"limits.single_list":            limits.SingleList,
		"limits.single_list_max_hours":  limits.SingleListMaxHours,
		"limits.single_list_max_miles":  limits.SingleListMaxMiles,
		"limits.breeding":               limits.Breeding,
		"limits.credit_names":           limits.CreditNames,
		"limits.efficiency":             limits.Efficiency,
		"limits.efficiency_min_hours":   limits.EfficiencyMinHours,
		"limits.efficiency_min_lists":   limits.EfficiencyMinLists,
		"limits.efficiency_min_minutes": limits.EfficiencyMinMinutes,
		"limits.honest":                 limits.Honest,
		"limits.time_in_field":          limits.TimeInField,
		"limits.closeouts":              limits.Closeouts,
		"limits.effort":                 limits.Effort,
		"limits.infrequent_years":       limits.InfrequentYears,
		"limits.infrequent_max_years":   limits.InfrequentMaxYears,

		"names.policy":         string(names.PolicyStrict),
		"names.overrides_file": "observers.ini",
		"names.cache_path":     ".cache/ebird-report.sqlite",
		"names.ttl":            "0s",
		"names.base_url":       "https://ebird.org",
		"names.retries":        3,
		"names.timeout":        "20s",

		"results_cache.enabled": false,
		"results_cache.ttl":     "24h",

		"media.enabled":  true,
		"media.photos":   1,
		"media.base_url": "https://ebird.org",
		"media.dir":      "images",
		"media.retries":  2,
		"media.timeout":  "30s",

		"output.dir":           "reports",
		"output.format":        "pdf",
		"output.latex_command": "pdflatex",

		"publish.s3.bucket":         "",
		"publish.s3.prefix":         "",
		"publish.s3.region":         "",
		"publish.s3.endpoint":       "",
		"publish.s3.use_path_style": false,

		"server.host":             "127.0.0.1",
		"server.port":             "8080",
		"server.shutdown_timeout": "10s",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// LoadConfig layers the optional YAML file at path and EBIRD_REPORT_*
// environment variables over the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "duckdb":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for duckdb")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	switch domain.ReviewPolicy(c.Report.ReviewPolicy) {
	case domain.ReviewExcludeRejected, domain.ReviewIncludeAll:
	default:
		return fmt.Errorf("unknown report.review_policy %q", c.Report.ReviewPolicy)
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("report.workers must be at least 1")
	}
	if _, err := names.ParsePolicy(c.Names.Policy); err != nil {
		return fmt.Errorf("names.policy: %w", err)
	}
	if err := CheckFormat(c.Output.Format); err != nil {
		return err
	}
	return nil
}

func CheckFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q (want one of %s)", format, strings.Join(Formats, ", "))
}
