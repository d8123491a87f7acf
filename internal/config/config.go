// Package config loads and validates the application configuration.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Geocode  GeocodeConfig  `yaml:"geocode" mapstructure:"geocode"`
	Zones    ZonesConfig    `yaml:"zones" mapstructure:"zones"`
	Land     LandConfig     `yaml:"land" mapstructure:"land"`
	Urgency  UrgencyConfig  `yaml:"urgency" mapstructure:"urgency"`
	Import   ImportConfig   `yaml:"import" mapstructure:"import"`
	Telegram TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// GeocodeConfig configures the geocoder, its durable cache, and the
// plausibility check against the reference center.
type GeocodeConfig struct {
	CachePath           string  `yaml:"cache_path" mapstructure:"cache_path"`
	BaseURL             string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent           string  `yaml:"user_agent" mapstructure:"user_agent"`
	RegionSuffix        string  `yaml:"region_suffix" mapstructure:"region_suffix"`
	StateSuffix         string  `yaml:"state_suffix" mapstructure:"state_suffix"`
	CenterLat           float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon           float64 `yaml:"center_lon" mapstructure:"center_lon"`
	ValidityRadiusMiles float64 `yaml:"validity_radius_miles" mapstructure:"validity_radius_miles"`
	RequestsPerSecond   float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LadderConfig holds the descending price-per-sqft cutoffs for the color
// ladder. Anything below Yellow is red.
type LadderConfig struct {
	Green      float64 `yaml:"green" mapstructure:"green"`
	LightGreen float64 `yaml:"light_green" mapstructure:"light_green"`
	Yellow     float64 `yaml:"yellow" mapstructure:"yellow"`
}

// ZonesConfig configures the street classifier ladder and the area analyzer
// ladder. The two are independent on purpose: street thresholds are tuned per
// deployment while the area scan uses broader market-wide cutoffs.
type ZonesConfig struct {
	Thresholds     LadderConfig `yaml:"thresholds" mapstructure:"thresholds"`
	AreaThresholds LadderConfig `yaml:"area_thresholds" mapstructure:"area_thresholds"`
}

// LandConfig holds the eligibility filter bounds for parcel evaluation.
type LandConfig struct {
	MaxPrice              float64  `yaml:"max_price" mapstructure:"max_price"`
	MinLotSizeAcres       float64  `yaml:"min_lot_size_acres" mapstructure:"min_lot_size_acres"`
	AllowedZoneColors     []string `yaml:"allowed_zone_colors" mapstructure:"allowed_zone_colors"`
	AllowedMarketStatuses []string `yaml:"allowed_market_statuses" mapstructure:"allowed_market_statuses"`
	MinNearbyPriceSqft    float64  `yaml:"min_nearby_price_sqft" mapstructure:"min_nearby_price_sqft"`
	MinRecentSales        int      `yaml:"min_recent_sales" mapstructure:"min_recent_sales"`
	SearchRadiusMiles     float64  `yaml:"search_radius_miles" mapstructure:"search_radius_miles"`
}

// UrgencyConfig holds the scoring weight vector and level thresholds.
type UrgencyConfig struct {
	Weights WeightsConfig `yaml:"weights" mapstructure:"weights"`
	Levels  LevelsConfig  `yaml:"levels" mapstructure:"levels"`
}

// WeightsConfig weights the four scoring factors. Weights need not sum to 1;
// the configured scale defines the output scale.
type WeightsConfig struct {
	ZoneColor        float64 `yaml:"zone_color" mapstructure:"zone_color"`
	MarketHeat       float64 `yaml:"market_heat" mapstructure:"market_heat"`
	PriceOpportunity float64 `yaml:"price_opportunity" mapstructure:"price_opportunity"`
	RecentSales      float64 `yaml:"recent_sales" mapstructure:"recent_sales"`
}

// LevelsConfig maps urgency scores to levels. Scores at or above Urgent are
// urgent, at or above Good are good, anything else is normal.
type LevelsConfig struct {
	Good   int `yaml:"good" mapstructure:"good"`
	Urgent int `yaml:"urgent" mapstructure:"urgent"`
}

// ImportConfig configures MLS CSV ingestion.
type ImportConfig struct {
	ArchiveAfterDays int `yaml:"archive_after_days" mapstructure:"archive_after_days"`
}

// TelegramConfig holds the bot credentials for urgent-opportunity alerts.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" mapstructure:"bot_token"`
	ChatID   string `yaml:"chat_id" mapstructure:"chat_id"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
}

// ServerConfig configures the read-only JSON API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment and validates it.
// Validation failures are fatal at startup, never recoverable per-call.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LANDSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "landscout.db")
	v.SetDefault("geocode.cache_path", "data/cache/geocode_cache.json")
	v.SetDefault("geocode.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocode.user_agent", "landscout/1.0")
	v.SetDefault("geocode.region_suffix", "Asheville, NC")
	v.SetDefault("geocode.state_suffix", "NC")
	v.SetDefault("geocode.center_lat", 35.5951)
	v.SetDefault("geocode.center_lon", -82.5515)
	v.SetDefault("geocode.validity_radius_miles", 30.0)
	v.SetDefault("geocode.requests_per_second", 1.0)
	v.SetDefault("geocode.timeout_secs", 10)
	v.SetDefault("zones.thresholds.green", 350.0)
	v.SetDefault("zones.thresholds.light_green", 300.0)
	v.SetDefault("zones.thresholds.yellow", 220.0)
	v.SetDefault("zones.area_thresholds.green", 350.0)
	v.SetDefault("zones.area_thresholds.light_green", 300.0)
	v.SetDefault("zones.area_thresholds.yellow", 220.0)
	v.SetDefault("land.max_price", 150000.0)
	v.SetDefault("land.min_lot_size_acres", 0.5)
	v.SetDefault("land.allowed_zone_colors", []string{"green", "light_green"})
	v.SetDefault("land.allowed_market_statuses", []string{"growing", "stable"})
	v.SetDefault("land.min_nearby_price_sqft", 200.0)
	v.SetDefault("land.min_recent_sales", 2)
	v.SetDefault("land.search_radius_miles", 5.0)
	v.SetDefault("urgency.weights.zone_color", 0.3)
	v.SetDefault("urgency.weights.market_heat", 0.3)
	v.SetDefault("urgency.weights.price_opportunity", 0.25)
	v.SetDefault("urgency.weights.recent_sales", 0.15)
	v.SetDefault("urgency.levels.good", 60)
	v.SetDefault("urgency.levels.urgent", 80)
	v.SetDefault("import.archive_after_days", 365)
	v.SetDefault("telegram.base_url", "https://api.telegram.org")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration invariants the engine relies on.
func (c *Config) Validate() error {
	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if err := validateLadder("zones.thresholds", c.Zones.Thresholds); err != nil {
		return err
	}
	if err := validateLadder("zones.area_thresholds", c.Zones.AreaThresholds); err != nil {
		return err
	}
	if c.Geocode.ValidityRadiusMiles <= 0 {
		return eris.New("config: geocode.validity_radius_miles must be positive")
	}
	if c.Geocode.RequestsPerSecond <= 0 {
		return eris.New("config: geocode.requests_per_second must be positive")
	}
	if c.Land.SearchRadiusMiles <= 0 {
		return eris.New("config: land.search_radius_miles must be positive")
	}
	w := c.Urgency.Weights
	if w.ZoneColor < 0 || w.MarketHeat < 0 || w.PriceOpportunity < 0 || w.RecentSales < 0 {
		return eris.New("config: urgency weights must be non-negative")
	}
	if w.ZoneColor+w.MarketHeat+w.PriceOpportunity+w.RecentSales == 0 {
		return eris.New("config: at least one urgency weight must be positive")
	}
	if c.Urgency.Levels.Urgent < c.Urgency.Levels.Good {
		return eris.New("config: urgency.levels.urgent must be >= urgency.levels.good")
	}
	if c.Import.ArchiveAfterDays <= 0 {
		return eris.New("config: import.archive_after_days must be positive")
	}
	return nil
}

func validateLadder(key string, l LadderConfig) error {
	if !(l.Green > l.LightGreen && l.LightGreen > l.Yellow && l.Yellow > 0) {
		return eris.Errorf("config: %s must be strictly descending and positive", key)
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

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
