// Package config loads locallore settings.
//
// Sources are applied in order, later ones winning: built-in defaults, the
// YAML file given with --config, a .env file in the working directory,
// LOCALLORE_* environment variables, and finally command-line flags (applied
// by the CLI). The result is checked with [Config.Validate].
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/locallore/pkg/errors"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "LOCALLORE_"

// Config is the complete process configuration.
type Config struct {
	Paths         []string      `yaml:"paths" validate:"dive,required"`
	Interval      time.Duration `yaml:"interval" validate:"gte=0"`
	BatchSize     int           `yaml:"batch_size" validate:"gte=1,lte=1000"`
	TrackProjects bool          `yaml:"track_projects"`
	LogLevel      string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat     string        `yaml:"log_format" validate:"oneof=text json logfmt"`

	Store StoreConfig `yaml:"store"`
	Redis RedisConfig `yaml:"redis"`
	Kafka KafkaConfig `yaml:"kafka"`
	HTTP  HTTPConfig  `yaml:"http"`
	OTel  OTelConfig  `yaml:"otel"`
	Cache CacheConfig `yaml:"cache"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver   string `yaml:"driver" validate:"oneof=memory postgres mongo"`
	DSN      string `yaml:"dsn" validate:"required_unless=Driver memory"`
	Database string `yaml:"database" validate:"required_if=Driver mongo"`
}

// RedisConfig enables the scan queue and the distributed path lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr" validate:"omitempty,hostname_port"`
	QueueKey string        `yaml:"queue_key" validate:"required"`
	LockTTL  time.Duration `yaml:"lock_ttl" validate:"gt=0"`
}

// KafkaConfig enables publishing unindexed records.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" validate:"dive,hostname_port"`
	Topic   string   `yaml:"topic" validate:"required_with=Brokers"`
}

// HTTPConfig configures the serve command's listener.
type HTTPConfig struct {
	Addr string `yaml:"addr" validate:"required"`
}

// OTelConfig configures trace export. An empty endpoint disables tracing.
type OTelConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
	Service  string `yaml:"service" validate:"required"`
}

// CacheConfig configures the manifest cache. An empty Dir selects the
// default XDG location; Size > 0 switches long-lived processes to an
// in-memory LRU.
type CacheConfig struct {
	Dir  string        `yaml:"dir"`
	Size int           `yaml:"size" validate:"gte=0"`
	TTL  time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Interval:      time.Hour,
		BatchSize:     20,
		TrackProjects: true,
		LogLevel:      "info",
		LogFormat:     "text",
		Store:         StoreConfig{Driver: "memory"},
		Redis:         RedisConfig{QueueKey: "locallore:scans", LockTTL: 10 * time.Minute},
		Kafka:         KafkaConfig{Topic: "locallore.unindexed"},
		HTTP:          HTTPConfig{Addr: ":8080"},
		OTel:          OTelConfig{Service: "locallore"},
		Cache:         CacheConfig{TTL: 7 * 24 * time.Hour},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// non-empty), a .env file and the environment. Flags are applied by the
// caller before Validate.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read .env")
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config file")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	return nil
}

// ApplyEnv overrides fields from LOCALLORE_* variables returned by lookup.
// List values are comma-separated.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}
	e.setList("PATHS", &c.Paths)
	e.setDuration("INTERVAL", &c.Interval)
	e.setInt("BATCH_SIZE", &c.BatchSize)
	e.setBool("TRACK_PROJECTS", &c.TrackProjects)
	e.setString("LOG_LEVEL", &c.LogLevel)
	e.setString("LOG_FORMAT", &c.LogFormat)

	e.setString("STORE_DRIVER", &c.Store.Driver)
	e.setString("STORE_DSN", &c.Store.DSN)
	e.setString("STORE_DATABASE", &c.Store.Database)

	e.setString("REDIS_ADDR", &c.Redis.Addr)
	e.setString("REDIS_QUEUE_KEY", &c.Redis.QueueKey)
	e.setDuration("REDIS_LOCK_TTL", &c.Redis.LockTTL)

	e.setList("KAFKA_BROKERS", &c.Kafka.Brokers)
	e.setString("KAFKA_TOPIC", &c.Kafka.Topic)

	e.setString("HTTP_ADDR", &c.HTTP.Addr)

	e.setString("OTEL_ENDPOINT", &c.OTel.Endpoint)
	e.setBool("OTEL_INSECURE", &c.OTel.Insecure)
	e.setString("OTEL_SERVICE", &c.OTel.Service)

	e.setString("CACHE_DIR", &c.Cache.Dir)
	e.setInt("CACHE_SIZE", &c.Cache.Size)
	e.setDuration("CACHE_TTL", &c.Cache.TTL)

	return e.err
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			msg += fmt.Sprintf(" (%s)", fe.Param())
		}
		msgs = append(msgs, msg)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid configuration: %s", strings.Join(msgs, "; "))
}

// envReader applies variables and keeps the first parse error.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(key string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) fail(key string, err error) {
	if e.err == nil {
		e.err = errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s%s", EnvPrefix, key)
	}
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e *envReader) setList(key string, dst *[]string) {
	v, ok := e.get(key)
	if !ok {
		return
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func (e *envReader) setInt(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) setBool(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) setDuration(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(key, err)
			return
		}
		*dst = d
	}
}
