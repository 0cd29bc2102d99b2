// Package config carrega a configuração do reportd.
//
// Ordem de precedência (a última vence): padrões do código, arquivo YAML
// (--config ou CONFIG_PATH) e variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const PathEnvVar = "CONFIG_PATH"

type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Database    DatabaseConfig    `koanf:"database"`
	Rate        RateConfig        `koanf:"rate"`
	Redis       RedisConfig       `koanf:"redis"`
	Stats       StatsConfig       `koanf:"stats"`
	Concurrency ConcurrencyConfig `koanf:"concurrency"`
	Logging     LoggingConfig     `koanf:"logging"`
}

type ServerConfig struct {
	ListenAddr        string        `koanf:"listen_addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	// WriteTimeout precisa ser maior que rate.stall_delay, senão a resposta
	// placeholder nunca chega ao cliente.
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL          string        `koanf:"url"`
	MaxConns     int32         `koanf:"max_conns"`
	QueryTimeout time.Duration `koanf:"query_timeout"`
}

type RateConfig struct {
	Enabled bool `koanf:"enabled"`
	// Backend: "memory" (padrão) ou "redis".
	Backend string `koanf:"backend"`
	// Capacity é informativa: o limiar de atraso é fixo (2).
	Capacity      int           `koanf:"capacity"`
	Window        time.Duration `koanf:"window"`
	StallDelay    time.Duration `koanf:"stall_delay"`
	DelayedStatus int           `koanf:"delayed_status"`
	KeyHeader     string        `koanf:"key_header"`
	TrustXFF      bool          `koanf:"trust_xff"`
	AddHeaders    bool          `koanf:"add_headers"`
	RedisPrefix   string        `koanf:"redis_prefix"`
}

type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

type StatsConfig struct {
	Redis        bool          `koanf:"redis"`
	Prefix       string        `koanf:"prefix"`
	TTL          time.Duration `koanf:"ttl"`
	Bucket       string        `koanf:"bucket"`
	TrackClients bool          `koanf:"track_clients"`
}

type ConcurrencyConfig struct {
	// Max por endpoint; 0 desliga, 1 = um worker por endpoint.
	Max     int           `koanf:"max"`
	Timeout time.Duration `koanf:"timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr:        ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       90 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Database: DatabaseConfig{
			MaxConns:     4,
			QueryTimeout: 5 * time.Second,
		},
		Rate: RateConfig{
			Enabled:     true,
			Backend:     "memory",
			Capacity:    5,
			Window:      10 * time.Second,
			StallDelay:  10 * time.Second,
			RedisPrefix: "ratelimit:gate",
		},
		Stats: StatsConfig{
			Prefix: "ratelimit:stats",
			TTL:    24 * time.Hour,
			Bucket: "minute",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envKeys mapeia as variáveis de ambiente aceitas para as chaves do koanf.
var envKeys = map[string]string{
	"LISTEN_ADDR":      "server.listen_addr",
	"READ_TIMEOUT":     "server.read_timeout",
	"WRITE_TIMEOUT":    "server.write_timeout",
	"IDLE_TIMEOUT":     "server.idle_timeout",
	"SHUTDOWN_TIMEOUT": "server.shutdown_timeout",

	"DATABASE_URL":           "database.url",
	"DATABASE_MAX_CONNS":     "database.max_conns",
	"DATABASE_QUERY_TIMEOUT": "database.query_timeout",

	"RATE_ENABLED":          "rate.enabled",
	"RATE_BACKEND":          "rate.backend",
	"RATE_CAPACITY":         "rate.capacity",
	"RATE_WINDOW":           "rate.window",
	"RATE_STALL_DELAY":      "rate.stall_delay",
	"RATE_DELAYED_STATUS":   "rate.delayed_status",
	"RATE_KEY_HEADER":       "rate.key_header",
	"TRUST_XFF":             "rate.trust_xff",
	"ADD_RATELIMIT_HEADERS": "rate.add_headers",
	"RATE_REDIS_PREFIX":     "rate.redis_prefix",

	"REDIS_ADDR":     "redis.addr",
	"REDIS_PASSWORD": "redis.password",
	"REDIS_DB":       "redis.db",

	"RATE_STATS_REDIS":         "stats.redis",
	"RATE_STATS_PREFIX":        "stats.prefix",
	"RATE_STATS_TTL":           "stats.ttl",
	"RATE_STATS_BUCKET":        "stats.bucket",
	"RATE_STATS_TRACK_CLIENTS": "stats.track_clients",

	"CONCURRENCY_MAX":     "concurrency.max",
	"CONCURRENCY_TIMEOUT": "concurrency.timeout",

	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",
}

// Load monta a configuração. path vazio usa CONFIG_PATH, se existir.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	defaults := Default()
	if err := k.Load(structs.Provider(&defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(s string) string { return envKeys[s] })
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Rate.Backend = strings.ToLower(strings.TrimSpace(cfg.Rate.Backend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("LISTEN_ADDR is required"))
	}
	if c.Rate.Window <= 0 {
		errs = append(errs, errors.New("RATE_WINDOW must be > 0"))
	}
	if c.Rate.StallDelay <= 0 {
		errs = append(errs, errors.New("RATE_STALL_DELAY must be > 0"))
	}
	if c.Rate.Capacity < 0 {
		errs = append(errs, errors.New("RATE_CAPACITY must be >= 0"))
	}
	switch c.Rate.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("RATE_BACKEND must be memory or redis, got %q", c.Rate.Backend))
	}
	if c.NeedsRedis() && strings.TrimSpace(c.Redis.Addr) == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when RATE_BACKEND=redis or RATE_STATS_REDIS=true"))
	}
	if c.Rate.Enabled && c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Rate.StallDelay {
		errs = append(errs, fmt.Errorf("WRITE_TIMEOUT (%s) must exceed RATE_STALL_DELAY (%s)", c.Server.WriteTimeout, c.Rate.StallDelay))
	}
	if c.Concurrency.Max < 0 {
		errs = append(errs, errors.New("CONCURRENCY_MAX must be >= 0"))
	}
	if c.Database.MaxConns < 0 {
		errs = append(errs, errors.New("DATABASE_MAX_CONNS must be >= 0"))
	}

	return errors.Join(errs...)
}

// NeedsRedis indica se algum componente configurado usa Redis.
func (c Config) NeedsRedis() bool {
	return (c.Rate.Enabled && c.Rate.Backend == "redis") || c.Stats.Redis
}
