package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Tracing    TracingConfig `mapstructure:"tracing"`
	Redis      RedisConfig
	Log        LogConfig
	Evaluator  EvaluatorConfig  `mapstructure:"evaluator"`
	Answer     AnswerConfig     `mapstructure:"answer"`
	Evaluation EvaluationConfig `mapstructure:"evaluation"`
	Sweep      SweepConfig      `mapstructure:"sweep"`
	Hunt       HuntConfig       `mapstructure:"hunt"`
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`

	// Runtime flags, set from the command line rather than the config file.
	MigrateOnly bool   `mapstructure:"-"`
	SweepOnce   bool   `mapstructure:"-"`
	Path        string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string
	// Path is the sqlite file; ":memory:" is allowed.
	Path string
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

// EvaluatorConfig selects and configures the external scoring backend.
type EvaluatorConfig struct {
	Provider string        `mapstructure:"provider"` // openai, gemini
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AnswerConfig struct {
	EditWindow time.Duration `mapstructure:"edit_window"`
}

// EvaluationConfig tunes the queue that scores answers after an edit.
type EvaluationConfig struct {
	Workers      int           `mapstructure:"workers"`
	QueueSize    int           `mapstructure:"queue_size"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type SweepConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Throttle     time.Duration `mapstructure:"throttle"`
	AmbiguousMin int           `mapstructure:"ambiguous_min"`
	AmbiguousMax int           `mapstructure:"ambiguous_max"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	UseRedisLock bool          `mapstructure:"use_redis_lock"`
}

type HuntConfig struct {
	PhaseKey        string `mapstructure:"phase_key"`
	AnswersReadyKey string `mapstructure:"answers_ready_key"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "hunt.db")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)

	v.SetDefault("evaluator.provider", "openai")
	v.SetDefault("evaluator.timeout", "30s")

	v.SetDefault("answer.edit_window", "5m")

	v.SetDefault("evaluation.workers", 2)
	v.SetDefault("evaluation.queue_size", 256)
	v.SetDefault("evaluation.max_attempts", 3)
	v.SetDefault("evaluation.retry_backoff", "2s")

	v.SetDefault("sweep.interval", "0s")
	v.SetDefault("sweep.throttle", "1500ms")
	v.SetDefault("sweep.ambiguous_min", 60)
	v.SetDefault("sweep.ambiguous_max", 80)
	v.SetDefault("sweep.lock_ttl", "30m")

	v.SetDefault("hunt.phase_key", "hunt:phase")
	v.SetDefault("hunt.answers_ready_key", "hunt:answers_ready")
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("HUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")

	// Evaluator
	v.BindEnv("evaluator.provider", "EVALUATOR_PROVIDER")
	v.BindEnv("evaluator.base_url", "EVALUATOR_BASE_URL")
	v.BindEnv("evaluator.api_key", "EVALUATOR_API_KEY")
	v.BindEnv("evaluator.model", "EVALUATOR_MODEL")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Answer.EditWindow <= 0 {
		return fmt.Errorf("answer.edit_window must be positive, got %s", c.Answer.EditWindow)
	}
	if c.Sweep.Throttle < 0 {
		return fmt.Errorf("sweep.throttle must not be negative, got %s", c.Sweep.Throttle)
	}
	if c.Sweep.AmbiguousMin < 0 || c.Sweep.AmbiguousMax > 100 || c.Sweep.AmbiguousMin >= c.Sweep.AmbiguousMax {
		return fmt.Errorf("sweep ambiguous band [%d,%d) is invalid", c.Sweep.AmbiguousMin, c.Sweep.AmbiguousMax)
	}
	if c.Evaluation.Workers < 1 {
		return fmt.Errorf("evaluation.workers must be at least 1")
	}
	if c.Evaluation.MaxAttempts < 1 {
		return fmt.Errorf("evaluation.max_attempts must be at least 1")
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}
