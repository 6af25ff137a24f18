package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rendis/storetap/internal/engine/crawler"
	"github.com/rendis/storetap/internal/engine/geo"
	"github.com/rendis/storetap/internal/engine/listing"
	"github.com/rendis/storetap/internal/engine/oracle"
)

// Config holds the full application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Starbucks StarbucksConfig `yaml:"starbucks" mapstructure:"starbucks"`
	Yext      YextConfig      `yaml:"yext" mapstructure:"yext"`
	DutchBros DutchBrosConfig `yaml:"dutchbros" mapstructure:"dutchbros"`
	SevenBrew SevenBrewConfig `yaml:"sevenbrew" mapstructure:"sevenbrew"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging. File, when set, receives a copy of every entry;
// Quiet drops the stderr output, for runs that own the terminal.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file" mapstructure:"file"`
	Quiet  bool   `yaml:"-" mapstructure:"-"`
}

// CrawlConfig configures the adaptive crawler.
type CrawlConfig struct {
	CellDeg     float64       `yaml:"cell_deg" mapstructure:"cell_deg"`
	RingRadii   []float64     `yaml:"ring_radii_deg" mapstructure:"ring_radii_deg"`
	Limit       int           `yaml:"limit" mapstructure:"limit"`
	Delay       time.Duration `yaml:"delay" mapstructure:"delay"`
	Workers     int           `yaml:"workers" mapstructure:"workers"`
	MaxCells    int           `yaml:"max_cells" mapstructure:"max_cells"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	CallTimeout time.Duration `yaml:"call_timeout" mapstructure:"call_timeout"`
	StrictRetry bool          `yaml:"strict_retry" mapstructure:"strict_retry"`
	GridStepDeg float64       `yaml:"grid_step_deg" mapstructure:"grid_step_deg"`
}

// Driver converts the crawl section into crawler settings for the given region.
func (c CrawlConfig) Driver(region geo.Region) crawler.Config {
	return crawler.Config{
		CellSize:    c.CellDeg,
		RingRadii:   append([]float64(nil), c.RingRadii...),
		Limit:       c.Limit,
		Delay:       c.Delay,
		Workers:     c.Workers,
		MaxCells:    c.MaxCells,
		Timeout:     c.Timeout,
		CallTimeout: c.CallTimeout,
		StrictRetry: c.StrictRetry,
		Region:      region,
	}
}

// HTTPConfig configures the shared oracle client.
type HTTPConfig struct {
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	ProxyURL    string        `yaml:"proxy_url" mapstructure:"proxy_url"`
	Fingerprint bool          `yaml:"fingerprint" mapstructure:"fingerprint"`
}

// Client converts the section into oracle client settings.
func (c HTTPConfig) Client() oracle.HTTPConfig {
	return oracle.HTTPConfig{Timeout: c.Timeout, ProxyURL: c.ProxyURL, Fingerprint: c.Fingerprint}
}

// StarbucksConfig configures the Starbucks locator oracle.
type StarbucksConfig struct {
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	CookieFile string `yaml:"cookie_file" mapstructure:"cookie_file"`
	Place      string `yaml:"place" mapstructure:"place"`
}

// YextConfig configures a Yext-backed locator oracle.
type YextConfig struct {
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	APIKey        string `yaml:"api_key" mapstructure:"api_key"`
	ExperienceKey string `yaml:"experience_key" mapstructure:"experience_key"`
	VerticalKey   string `yaml:"vertical_key" mapstructure:"vertical_key"`
	VersionDate   string `yaml:"version_date" mapstructure:"version_date"`
	Environment   string `yaml:"environment" mapstructure:"environment"`
	Locale        string `yaml:"locale" mapstructure:"locale"`
	RadiusM       int    `yaml:"radius_m" mapstructure:"radius_m"`
}

// Oracle converts the section into oracle settings.
func (c YextConfig) Oracle() oracle.YextConfig {
	return oracle.YextConfig{
		BaseURL:       c.BaseURL,
		APIKey:        c.APIKey,
		ExperienceKey: c.ExperienceKey,
		VerticalKey:   c.VerticalKey,
		VersionDate:   c.VersionDate,
		Environment:   c.Environment,
		Locale:        c.Locale,
		RadiusMeters:  c.RadiusM,
	}
}

// DutchBrosConfig configures the Dutch Bros listing fetcher.
type DutchBrosConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// SevenBrewConfig configures the 7 Brew listing fetcher.
type SevenBrewConfig struct {
	ListURL string `yaml:"list_url" mapstructure:"list_url"`
}

// MetricsConfig configures the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// OutputConfig configures where run artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("storetap")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STORETAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("crawl.cell_deg", geo.DefaultCellSize)
	v.SetDefault("crawl.ring_radii_deg", geo.DefaultRingRadii)
	v.SetDefault("crawl.limit", 50)
	v.SetDefault("crawl.delay", 350*time.Millisecond)
	v.SetDefault("crawl.workers", 1)
	v.SetDefault("crawl.max_cells", 0)
	v.SetDefault("crawl.timeout", time.Duration(0))
	v.SetDefault("crawl.call_timeout", 25*time.Second)
	v.SetDefault("crawl.strict_retry", false)
	v.SetDefault("crawl.grid_step_deg", geo.DefaultGridStep)
	v.SetDefault("http.timeout", 25*time.Second)
	v.SetDefault("http.proxy_url", "")
	v.SetDefault("http.fingerprint", true)
	v.SetDefault("starbucks.base_url", oracle.StarbucksURL)
	v.SetDefault("starbucks.cookie_file", "cookie.txt")
	v.SetDefault("starbucks.place", "United States")
	v.SetDefault("yext.base_url", oracle.YextURL)
	v.SetDefault("yext.api_key", "")
	v.SetDefault("yext.experience_key", "locator")
	v.SetDefault("yext.vertical_key", "locations")
	v.SetDefault("yext.version_date", "20220511")
	v.SetDefault("yext.environment", "PRODUCTION")
	v.SetDefault("yext.locale", "en")
	v.SetDefault("yext.radius_m", 400_000)
	v.SetDefault("dutchbros.url", listing.DutchBrosURL)
	v.SetDefault("sevenbrew.list_url", listing.SevenBrewURL)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("output.dir", ".")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate rejects settings the crawler cannot run with.
func (c *Config) Validate() error {
	if c.Crawl.CellDeg <= 0 {
		return eris.Errorf("config: crawl.cell_deg must be positive, got %v", c.Crawl.CellDeg)
	}
	if c.Crawl.Limit <= 0 {
		return eris.Errorf("config: crawl.limit must be positive, got %d", c.Crawl.Limit)
	}
	if c.Crawl.Workers <= 0 {
		return eris.Errorf("config: crawl.workers must be positive, got %d", c.Crawl.Workers)
	}
	if c.Crawl.MaxCells < 0 {
		return eris.Errorf("config: crawl.max_cells must not be negative, got %d", c.Crawl.MaxCells)
	}
	if c.Crawl.Delay < 0 || c.Crawl.Timeout < 0 {
		return eris.New("config: crawl durations must not be negative")
	}
	for _, r := range c.Crawl.RingRadii {
		if r <= 0 {
			return eris.Errorf("config: crawl.ring_radii_deg must be positive, got %v", r)
		}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.Quiet {
		zapCfg.OutputPaths = nil
	}
	if cfg.File != "" {
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.File)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
