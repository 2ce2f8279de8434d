package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PLEVENLAB_API_PORT.
const EnvPrefix = "PLEVENLAB_"

// minJWTSecretLength matches the HS256 key size enforced by the token issuer.
const minJWTSecretLength = 32

// Config is the root configuration structure for PlevenLab Core.
// Values come from defaults, then the YAML file, then environment variables.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Audit    AuditConfig    `yaml:"audit"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

// ServiceConfig identifies this deployment in logs and notifications.
type ServiceConfig struct {
	Name string `yaml:"name"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host         string           `yaml:"host"`
	Port         int              `yaml:"port"`
	TLS          TLSConfig        `yaml:"tls"`
	Timeouts     APITimeoutConfig `yaml:"timeouts"`
	CORS         CORSConfig       `yaml:"cors"`
	MaxBodyBytes int64            `yaml:"max_body_bytes"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// APITimeoutConfig contains HTTP timeouts in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SecurityConfig contains token signing settings.
type SecurityConfig struct {
	JWT JWTConfig `yaml:"jwt"`
}

// JWTConfig holds the HS256 signing secret. Token lifetime is fixed.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// AuditConfig sizes the asynchronous audit queue.
type AuditConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// MQTTConfig contains the optional content notifier settings.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig contains the optional login telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides, then validates the result.
//
// The configuration loading order is:
//  1. Default values
//  2. YAML file values
//  3. PLEVENLAB_* environment variables
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults. The JWT secret is left
// empty and must be provided.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "plevenlab-core"},
		Database: DatabaseConfig{
			Path:        "./data/plevenlab.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			MaxBodyBytes: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Audit: AuditConfig{BufferSize: 256},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "plevenlab-core",
			},
			QoS:         1,
			TopicPrefix: "plevenlab",
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "plevenlab",
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// envOverride binds one environment variable (without prefix) to a field.
type envOverride struct {
	key   string
	apply func(cfg *Config, v string) error
}

func setString(field func(*Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*field(cfg) = v
		return nil
	}
}

func setInt(field func(*Config) *int) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("not an integer: %q", v)
		}
		*field(cfg) = n
		return nil
	}
}

func setBool(field func(*Config) *bool) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", v)
		}
		*field(cfg) = b
		return nil
	}
}

var envOverrides = []envOverride{
	{"DATABASE_PATH", setString(func(c *Config) *string { return &c.Database.Path })},
	{"API_HOST", setString(func(c *Config) *string { return &c.API.Host })},
	{"API_PORT", setInt(func(c *Config) *int { return &c.API.Port })},
	{"JWT_SECRET", setString(func(c *Config) *string { return &c.Security.JWT.Secret })},
	{"LOG_LEVEL", setString(func(c *Config) *string { return &c.Logging.Level })},
	{"LOG_FORMAT", setString(func(c *Config) *string { return &c.Logging.Format })},
	{"MQTT_ENABLED", setBool(func(c *Config) *bool { return &c.MQTT.Enabled })},
	{"MQTT_HOST", setString(func(c *Config) *string { return &c.MQTT.Broker.Host })},
	{"MQTT_USERNAME", setString(func(c *Config) *string { return &c.MQTT.Auth.Username })},
	{"MQTT_PASSWORD", setString(func(c *Config) *string { return &c.MQTT.Auth.Password })},
	{"INFLUXDB_ENABLED", setBool(func(c *Config) *bool { return &c.InfluxDB.Enabled })},
	{"INFLUXDB_URL", setString(func(c *Config) *string { return &c.InfluxDB.URL })},
	{"INFLUXDB_TOKEN", setString(func(c *Config) *string { return &c.InfluxDB.Token })},
}

// applyEnvOverrides applies PLEVENLAB_* variables found by lookup.
// Sensitive values (JWT secret, broker and InfluxDB credentials) should
// always come from here in production.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []error
	for _, o := range envOverrides {
		v, ok := lookup(EnvPrefix + o.key)
		if !ok || v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, o.key, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the configuration for errors and security issues.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.API.TLS.Enabled && (c.API.TLS.CertFile == "" || c.API.TLS.KeyFile == "") {
		errs = append(errs, "api.tls.cert_file and api.tls.key_file are required when TLS is enabled")
	}
	if c.API.MaxBodyBytes <= 0 {
		errs = append(errs, "api.max_body_bytes must be positive")
	}

	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set PLEVENLAB_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, fmt.Sprintf("security.jwt.secret must be at least %d bytes", minJWTSecretLength))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, "logging.format must be json or text")
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url, influxdb.org and influxdb.bucket are required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Addr returns the API listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.API.Host, strconv.Itoa(c.API.Port))
}

// ReadTimeout returns the API read timeout as a Duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// WriteTimeout returns the API write timeout as a Duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// IdleTimeout returns the API idle timeout as a Duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
