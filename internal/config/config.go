package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultPath is used when --configs is not given.
const DefaultPath = "configs/main.yaml"

const (
	defaultTimezone     = "Europe/Paris"
	defaultCooldown     = 3600
	defaultLedgerPath   = "outputs/status.json"
	defaultDBPath       = "heaters.db"
	defaultAPIPort      = "8080"
	defaultTokenTTL     = time.Hour
	defaultMQTTTopic    = "heaters"
	defaultMQTTClientID = "heating-scheduler"
	defaultMaxResults   = 50
	defaultCalendarID   = "primary"

	LedgerBackendFile   = "file"
	LedgerBackendSQLite = "sqlite"
)

var errUnknownLedgerBackend = errors.New("unknown ledger backend")

// Config mirrors configs/main.yaml.
type Config struct {
	Timezone     string             `mapstructure:"timezone"`
	Logs         LogsConfig         `mapstructure:"logs"`
	GetSchedules GetSchedulesConfig `mapstructure:"get_schedules"`
	SetHeaters   SetHeatersConfig   `mapstructure:"set_heaters"`
	Ledger       LedgerConfig       `mapstructure:"ledger"`
	DB           DBConfig           `mapstructure:"db"`
	MQTT         MQTTConfig         `mapstructure:"mqtt"`
	API          APIConfig          `mapstructure:"api"`
}

type LogsConfig struct {
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

type GetSchedulesConfig struct {
	Providers struct {
		Google GoogleConfig `mapstructure:"google"`
	} `mapstructure:"providers"`
	Outputs struct {
		Schedules string `mapstructure:"schedules"`
	} `mapstructure:"outputs"`
}

type GoogleConfig struct {
	Credentials string `mapstructure:"credentials"` // file://path or env://VAR
	CalendarID  string `mapstructure:"calendar_id"`
	MaxResults  int64  `mapstructure:"max_results"`
}

type SetHeatersConfig struct {
	// MaxDelayReapplied is the cooldown, in seconds, after an external change.
	MaxDelayReapplied int `mapstructure:"max_delay_reapplied"`
	Inputs            struct {
		Modes     string `mapstructure:"modes"`
		Schedules string `mapstructure:"schedules"`
		Status    string `mapstructure:"status"`
	} `mapstructure:"inputs"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// ProvidersConfig holds one optional block per family; a nil block disables the family.
type ProvidersConfig struct {
	Heatzy *HeatzyConfig `mapstructure:"heatzy"`
	Stove  *StoveConfig  `mapstructure:"stove"`
	Tempo  *TempoConfig  `mapstructure:"edf_tempo"`
}

type HeatzyConfig struct {
	Credentials string `mapstructure:"credentials"`
	BaseURL     string `mapstructure:"base_url"`
}

type StoveConfig struct {
	Credentials  string         `mapstructure:"credentials"`
	BaseURL      string         `mapstructure:"base_url"`
	CustomerCode string         `mapstructure:"customer_code"`
	BrandID      string         `mapstructure:"brand_id"`
	Temperatures map[string]int `mapstructure:"temperatures"`
	Registers    StoveRegisters `mapstructure:"registers"`
}

// StoveRegisters are the buffer offsets used by the stove controller board.
type StoveRegisters struct {
	Status      int `mapstructure:"status"`
	Power       int `mapstructure:"power"`
	Temperature int `mapstructure:"temperature"`
}

type TempoConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BaseURL       string        `mapstructure:"base_url"`
	RedHourMargin int           `mapstructure:"red_hour_margin"`
	Schedules     []RedSchedule `mapstructure:"schedules"`
}

type RedSchedule struct {
	RedHourStart int `mapstructure:"red_hour_start"`
	RedHourStop  int `mapstructure:"red_hour_stop"`
}

type LedgerConfig struct {
	Backend string `mapstructure:"backend"` // file | sqlite
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type APIConfig struct {
	Port       string            `mapstructure:"port"`
	SigningKey string            `mapstructure:"signing_key"`
	TokenTTL   time.Duration     `mapstructure:"token_ttl"`
	Interval   time.Duration     `mapstructure:"interval"`
	Operators  map[string]string `mapstructure:"operators"` // name -> bcrypt hash
}

// Load reads the YAML file at path, applies HEATERS_* env overrides and defaults,
// and validates the result. Any error is fatal for the process.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	v.SetEnvPrefix("HEATERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", defaultTimezone)
	v.SetDefault("logs.level", "info")
	v.SetDefault("get_schedules.providers.google.calendar_id", defaultCalendarID)
	v.SetDefault("get_schedules.providers.google.max_results", defaultMaxResults)
	v.SetDefault("set_heaters.max_delay_reapplied", defaultCooldown)
	v.SetDefault("set_heaters.inputs.status", defaultLedgerPath)
	v.SetDefault("ledger.backend", LedgerBackendFile)
	v.SetDefault("db.path", defaultDBPath)
	v.SetDefault("mqtt.client_id", defaultMQTTClientID)
	v.SetDefault("mqtt.topic", defaultMQTTTopic)
	v.SetDefault("api.port", defaultAPIPort)
	v.SetDefault("api.token_ttl", defaultTokenTTL)
}

func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.SetHeaters.MaxDelayReapplied < 0 {
		return fmt.Errorf("set_heaters.max_delay_reapplied must be >= 0, got %d", c.SetHeaters.MaxDelayReapplied)
	}
	switch c.Ledger.Backend {
	case LedgerBackendFile, LedgerBackendSQLite:
	default:
		return fmt.Errorf("%w %q", errUnknownLedgerBackend, c.Ledger.Backend)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt.broker is required when mqtt.enabled is true")
	}
	return nil
}

// Location returns the configured timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Cooldown returns set_heaters.max_delay_reapplied as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.SetHeaters.MaxDelayReapplied) * time.Second
}
