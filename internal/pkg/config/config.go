package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Highway   HighwayConfig   `mapstructure:"highway"`
	Landmarks LandmarksConfig `mapstructure:"landmarks"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`

	// Pending jobs are re-enriched every SweepInterval, at most SweepLimit
	// per pass. A zero interval disables the sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepLimit    int           `mapstructure:"sweep_limit"`

	// A running job not updated for StaleAfter is eligible for a rerun.
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// ProvidersConfig configures the outbound geodata services.
type ProvidersConfig struct {
	UserAgent string          `mapstructure:"user_agent"`
	Nominatim NominatimConfig `mapstructure:"nominatim"`
	Overpass  OverpassConfig  `mapstructure:"overpass"`
	Wikidata  WikidataConfig  `mapstructure:"wikidata"`
}

type NominatimConfig struct {
	URL            string        `mapstructure:"url"`
	Language       string        `mapstructure:"language"`
	RateInterval   time.Duration `mapstructure:"rate_interval"`
	ReverseTimeout time.Duration `mapstructure:"reverse_timeout"`
	ReverseRetries int           `mapstructure:"reverse_retries"`
	SearchTimeout  time.Duration `mapstructure:"search_timeout"`
	SearchRetries  int           `mapstructure:"search_retries"`
}

type OverpassConfig struct {
	URL            string        `mapstructure:"url"`
	HighwayTimeout time.Duration `mapstructure:"highway_timeout"`
	HighwayRetries int           `mapstructure:"highway_retries"`
	POITimeout     time.Duration `mapstructure:"poi_timeout"`
	POIRetries     int           `mapstructure:"poi_retries"`
}

type WikidataConfig struct {
	URL       string        `mapstructure:"url"`
	Languages string        `mapstructure:"languages"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
}

type CacheConfig struct {
	MaxAge     time.Duration `mapstructure:"max_age"`
	MaxEntries int           `mapstructure:"max_entries"`
	Shared     bool          `mapstructure:"shared"`
}

// HighwayConfig holds the highway locator thresholds in meters.
type HighwayConfig struct {
	RefPattern            string  `mapstructure:"ref_pattern"`
	PreferredPrefix       string  `mapstructure:"preferred_prefix"`
	SearchRadius          float64 `mapstructure:"search_radius"`
	WayRadius             float64 `mapstructure:"way_radius"`
	MilestoneRadius       float64 `mapstructure:"milestone_radius"`
	MilestoneLineDistance float64 `mapstructure:"milestone_line_distance"`
	PreferredMargin       float64 `mapstructure:"preferred_margin"`
	NearestFallback       float64 `mapstructure:"nearest_fallback"`
	DirectionSpread       float64 `mapstructure:"direction_spread"`
	ExactDistance         float64 `mapstructure:"exact_distance"`
}

type LandmarksConfig struct {
	Radius      float64 `mapstructure:"radius"`
	SearchDelta float64 `mapstructure:"search_delta"`
	MaxDistance float64 `mapstructure:"max_distance"`
	Limit       int     `mapstructure:"limit"`
}

// MinNominatimInterval is the smallest spacing allowed between Nominatim
// requests. Nominatim permits one request per second; the extra 100 ms
// absorbs clock skew between this host and theirs.
const MinNominatimInterval = 1100 * time.Millisecond

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "geofotos")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "geofotos")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "geofotos:")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.enabled", false)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "geofotos-enrichment")
	v.SetDefault("temporal.sweep_interval", 15*time.Minute)
	v.SetDefault("temporal.sweep_limit", 100)
	v.SetDefault("temporal.stale_after", 30*time.Minute)

	v.SetDefault("providers.user_agent", "GeoFotos-App/1.0")
	v.SetDefault("providers.nominatim.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("providers.nominatim.language", "pt-BR")
	v.SetDefault("providers.nominatim.rate_interval", 1100*time.Millisecond)
	v.SetDefault("providers.nominatim.reverse_timeout", 10*time.Second)
	v.SetDefault("providers.nominatim.reverse_retries", 2)
	v.SetDefault("providers.nominatim.search_timeout", 10*time.Second)
	v.SetDefault("providers.nominatim.search_retries", 1)
	v.SetDefault("providers.overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("providers.overpass.highway_timeout", 25*time.Second)
	v.SetDefault("providers.overpass.highway_retries", 1)
	v.SetDefault("providers.overpass.poi_timeout", 18*time.Second)
	v.SetDefault("providers.overpass.poi_retries", 1)
	v.SetDefault("providers.wikidata.url", "https://query.wikidata.org/sparql")
	v.SetDefault("providers.wikidata.languages", "pt,en")
	v.SetDefault("providers.wikidata.timeout", 12*time.Second)
	v.SetDefault("providers.wikidata.retries", 1)

	v.SetDefault("cache.max_age", 10*time.Minute)
	v.SetDefault("cache.max_entries", 100)
	v.SetDefault("cache.shared", true)

	v.SetDefault("highway.preferred_prefix", "BR-")
	v.SetDefault("highway.search_radius", 200)
	v.SetDefault("highway.way_radius", 2000)
	v.SetDefault("highway.milestone_radius", 5000)
	v.SetDefault("highway.milestone_line_distance", 200)
	v.SetDefault("highway.preferred_margin", 50)
	v.SetDefault("highway.nearest_fallback", 5000)
	v.SetDefault("highway.direction_spread", 10)
	v.SetDefault("highway.exact_distance", 10)

	v.SetDefault("landmarks.radius", 100)
	v.SetDefault("landmarks.search_delta", 0.0009)
	v.SetDefault("landmarks.max_distance", 100)
	v.SetDefault("landmarks.limit", 3)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: GEOFOTOS_DATABASE_HOST → database.host
	v.SetEnvPrefix("GEOFOTOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Temporal.Enabled && c.Temporal.HostPort == "" {
		errs = append(errs, "temporal.host_port is required when temporal is enabled")
	}

	if c.Providers.UserAgent == "" {
		errs = append(errs, "providers.user_agent is required")
	}
	if c.Providers.Nominatim.URL == "" || c.Providers.Overpass.URL == "" || c.Providers.Wikidata.URL == "" {
		errs = append(errs, "providers.{nominatim,overpass,wikidata}.url are required")
	}
	if c.Providers.Nominatim.RateInterval < MinNominatimInterval {
		errs = append(errs, fmt.Sprintf("providers.nominatim.rate_interval must be at least %s, got %s", MinNominatimInterval, c.Providers.Nominatim.RateInterval))
	}

	if c.Cache.MaxAge <= 0 {
		errs = append(errs, "cache.max_age must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, "cache.max_entries must be positive")
	}
	if c.Highway.DirectionSpread < 0 || c.Highway.ExactDistance < 0 {
		errs = append(errs, "highway.direction_spread and highway.exact_distance must not be negative")
	}
	if c.Highway.SearchRadius <= 0 || c.Highway.WayRadius < c.Highway.SearchRadius {
		errs = append(errs, "highway.way_radius must be at least highway.search_radius, both positive")
	}
	if c.Landmarks.Radius <= 0 || c.Landmarks.Limit <= 0 {
		errs = append(errs, "landmarks.radius and landmarks.limit must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
