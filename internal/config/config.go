package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Map         MapConfig         `yaml:"map"`
	Storage     StorageConfig     `yaml:"storage"`
	Geolocation GeolocationConfig `yaml:"geolocation"`
	Tailscale   TailscaleConfig   `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// AllowedOrigins may read the API cross-origin. Writes are same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type MapConfig struct {
	Zoom        int    `yaml:"zoom"`
	TileURL     string `yaml:"tile_url"`
	Attribution string `yaml:"attribution"`
}

// StorageConfig selects the key-value backend holding the persisted workouts.
type StorageConfig struct {
	Driver         string         `yaml:"driver"` // sqlite, postgres, redis or memory
	Key            string         `yaml:"key"`
	SQLite         SQLiteConfig   `yaml:"sqlite"`
	Postgres       DatabaseConfig `yaml:"postgres"`
	Redis          RedisConfig    `yaml:"redis"`
	MigrationsPath string         `yaml:"migrations_path"`
}

type SQLiteConfig struct {
	Dir string `yaml:"dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GeolocationConfig picks how the initial map center is found.
type GeolocationConfig struct {
	Provider string        `yaml:"provider"` // http, static or none
	URL      string        `yaml:"url"`
	Lat      *float64      `yaml:"lat"`
	Lng      *float64      `yaml:"lng"`
	Timeout  time.Duration `yaml:"timeout"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

const (
	DefaultZoom        = 13
	DefaultTileURL     = "https://{s}.tile.openstreetmap.fr/hot/{z}/{x}/{y}.png"
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, Tiles style by <a href="https://www.hotosm.org/" target="_blank">Humanitarian OpenStreetMap Team</a> hosted by <a href="https://openstreetmap.fr/" target="_blank">OpenStreetMap France</a>`
	DefaultStorageKey  = "workouts"
	DefaultGeoURL      = "http://ip-api.com/json/"
	DefaultGeoTimeout  = 10 * time.Second
)

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, fills defaults, then applies
// environment variable overrides. Env vars use the prefix MAPTY_:
//
//	MAPTY_SERVER_HOST, MAPTY_SERVER_PORT,
//	MAPTY_STORAGE_DRIVER, MAPTY_STORAGE_KEY, MAPTY_SQLITE_DIR,
//	MAPTY_DB_HOST, MAPTY_DB_PORT, MAPTY_DB_NAME, MAPTY_DB_USER,
//	MAPTY_DB_PASSWORD, MAPTY_DB_SSLMODE,
//	MAPTY_REDIS_ADDR, MAPTY_REDIS_PASSWORD,
//	MAPTY_GEO_PROVIDER, MAPTY_GEO_URL, MAPTY_GEO_LAT, MAPTY_GEO_LNG,
//	MAPTY_TAILSCALE_ENABLED
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Map.Zoom == 0 {
		c.Map.Zoom = DefaultZoom
	}
	if c.Map.TileURL == "" {
		c.Map.TileURL = DefaultTileURL
		c.Map.Attribution = DefaultAttribution
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Key == "" {
		c.Storage.Key = DefaultStorageKey
	}
	if c.Storage.SQLite.Dir == "" {
		c.Storage.SQLite.Dir = "data"
	}
	if c.Storage.MigrationsPath == "" {
		c.Storage.MigrationsPath = "migrations"
	}
	if c.Geolocation.Provider == "" {
		c.Geolocation.Provider = "http"
	}
	if c.Geolocation.URL == "" {
		c.Geolocation.URL = DefaultGeoURL
	}
	if c.Geolocation.Timeout == 0 {
		c.Geolocation.Timeout = DefaultGeoTimeout
	}
	if c.Tailscale.Hostname == "" {
		c.Tailscale.Hostname = "mapty"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MAPTY_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("MAPTY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MAPTY_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("MAPTY_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("MAPTY_STORAGE_KEY"); v != "" {
		cfg.Storage.Key = v
	}
	if v := os.Getenv("MAPTY_SQLITE_DIR"); v != "" {
		cfg.Storage.SQLite.Dir = v
	}
	if v := os.Getenv("MAPTY_DB_HOST"); v != "" {
		cfg.Storage.Postgres.Host = v
	}
	if v := os.Getenv("MAPTY_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Storage.Postgres.Port = port
		}
	}
	if v := os.Getenv("MAPTY_DB_NAME"); v != "" {
		cfg.Storage.Postgres.Name = v
	}
	if v := os.Getenv("MAPTY_DB_USER"); v != "" {
		cfg.Storage.Postgres.User = v
	}
	if v := os.Getenv("MAPTY_DB_PASSWORD"); v != "" {
		cfg.Storage.Postgres.Password = v
	}
	if v := os.Getenv("MAPTY_DB_SSLMODE"); v != "" {
		cfg.Storage.Postgres.SSLMode = v
	}
	if v := os.Getenv("MAPTY_REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("MAPTY_REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("MAPTY_GEO_PROVIDER"); v != "" {
		cfg.Geolocation.Provider = v
	}
	if v := os.Getenv("MAPTY_GEO_URL"); v != "" {
		cfg.Geolocation.URL = v
	}
	if v := os.Getenv("MAPTY_GEO_LAT"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Geolocation.Lat = &lat
		}
	}
	if v := os.Getenv("MAPTY_GEO_LNG"); v != "" {
		if lng, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Geolocation.Lng = &lng
		}
	}
	if v := os.Getenv("MAPTY_TAILSCALE_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = enabled
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 19 {
		return fmt.Errorf("map.zoom must be between 0 and 19")
	}

	switch c.Storage.Driver {
	case "sqlite", "memory":
	case "postgres":
		if c.Storage.Postgres.Host == "" {
			return fmt.Errorf("storage.postgres.host is required")
		}
		if c.Storage.Postgres.Port == 0 {
			return fmt.Errorf("storage.postgres.port is required")
		}
		if c.Storage.Postgres.Name == "" {
			return fmt.Errorf("storage.postgres.name is required")
		}
		if c.Storage.Postgres.User == "" {
			return fmt.Errorf("storage.postgres.user is required")
		}
	case "redis":
		if c.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, redis, memory", c.Storage.Driver)
	}

	switch c.Geolocation.Provider {
	case "http", "none":
	case "static":
		if c.Geolocation.Lat == nil || c.Geolocation.Lng == nil {
			return fmt.Errorf("geolocation.lat and geolocation.lng are required for the static provider")
		}
		if *c.Geolocation.Lat < -90 || *c.Geolocation.Lat > 90 {
			return fmt.Errorf("geolocation.lat must be between -90 and 90")
		}
		if *c.Geolocation.Lng < -180 || *c.Geolocation.Lng > 180 {
			return fmt.Errorf("geolocation.lng must be between -180 and 180")
		}
	default:
		return fmt.Errorf("geolocation.provider %q is not one of http, static, none", c.Geolocation.Provider)
	}
	if c.Geolocation.Timeout < 0 {
		return fmt.Errorf("geolocation.timeout must not be negative")
	}
	return nil
}
