package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const appName = "lazysnmp"

// Config holds all application configuration
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	UI      UIConfig      `mapstructure:"ui"`
	SNMP    SNMPConfig    `mapstructure:"snmp"`
	Session SessionConfig `mapstructure:"session"`
	Results ResultsConfig `mapstructure:"results"`
	Schema  SchemaConfig  `mapstructure:"schema"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

type GeneralConfig struct {
	AutoConnectLast bool `mapstructure:"auto_connect_last"`
	ConfirmSet      bool `mapstructure:"confirm_set"`
}

type UIConfig struct {
	Theme           string `mapstructure:"theme"`
	MouseEnabled    bool   `mapstructure:"mouse_enabled"`
	PanelWidthRatio int    `mapstructure:"panel_width_ratio"`
}

type SNMPConfig struct {
	MaxRepetitions     int  `mapstructure:"max_repetitions"`
	ExponentialTimeout bool `mapstructure:"exponential_timeout"`
	// ConnectTimeout and DisconnectTimeout are in milliseconds
	ConnectTimeout    int `mapstructure:"connect_timeout"`
	DisconnectTimeout int `mapstructure:"disconnect_timeout"`
	// QueryTimeout bounds Get, GetNext and Set in milliseconds; 0 disables it
	QueryTimeout int  `mapstructure:"query_timeout"`
	DebugLog     bool `mapstructure:"debug_log"`
}

type SessionConfig struct {
	LateRows string `mapstructure:"late_rows"`
}

type ResultsConfig struct {
	TableOffset int `mapstructure:"table_offset"`
	MaxRowsHint int `mapstructure:"max_rows_hint"`
}

type SchemaConfig struct {
	MIBPaths       []string `mapstructure:"mib_paths"`
	ConflictPolicy string   `mapstructure:"conflict_policy"`
	LoadOnStart    bool     `mapstructure:"load_on_start"`
}

type HistoryConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxEntries    int  `mapstructure:"max_entries"`
	RetentionDays int  `mapstructure:"retention_days"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// ConnectTimeoutDuration returns the connect bound as a duration
func (c SNMPConfig) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Millisecond
}

// DisconnectTimeoutDuration returns the disconnect bound as a duration
func (c SNMPConfig) DisconnectTimeoutDuration() time.Duration {
	return time.Duration(c.DisconnectTimeout) * time.Millisecond
}

// QueryTimeoutDuration returns the query bound as a duration
func (c SNMPConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(c.QueryTimeout) * time.Millisecond
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			AutoConnectLast: false,
			ConfirmSet:      true,
		},
		UI: UIConfig{
			Theme:           "default",
			MouseEnabled:    true,
			PanelWidthRatio: 30,
		},
		SNMP: SNMPConfig{
			MaxRepetitions:     10,
			ExponentialTimeout: false,
			ConnectTimeout:     15000,
			DisconnectTimeout:  5000,
			QueryTimeout:       0,
			DebugLog:           false,
		},
		Session: SessionConfig{
			LateRows: "drop",
		},
		Results: ResultsConfig{
			TableOffset: 8,
			MaxRowsHint: 100000,
		},
		Schema: SchemaConfig{
			MIBPaths:       nil,
			ConflictPolicy: "suffix",
			LoadOnStart:    true,
		},
		History: HistoryConfig{
			Enabled:       true,
			MaxEntries:    1000,
			RetentionDays: 90,
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.auto_connect_last", false)
	v.SetDefault("general.confirm_set", true)
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.mouse_enabled", true)
	v.SetDefault("ui.panel_width_ratio", 30)
	v.SetDefault("snmp.max_repetitions", 10)
	v.SetDefault("snmp.exponential_timeout", false)
	v.SetDefault("snmp.connect_timeout", 15000)
	v.SetDefault("snmp.disconnect_timeout", 5000)
	v.SetDefault("snmp.query_timeout", 0)
	v.SetDefault("snmp.debug_log", false)
	v.SetDefault("session.late_rows", "drop")
	v.SetDefault("results.table_offset", 8)
	v.SetDefault("results.max_rows_hint", 100000)
	v.SetDefault("schema.mib_paths", []string{})
	v.SetDefault("schema.conflict_policy", "suffix")
	v.SetDefault("schema.load_on_start", true)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_entries", 1000)
	v.SetDefault("history.retention_days", 90)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(appName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load loads configuration from the first config.yaml found
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")

	// Add config paths in priority order
	// 1. User config directory
	if configDir, err := GetConfigPath(); err == nil {
		v.AddConfigPath(configDir)
	}

	// 2. Current directory
	v.AddConfigPath(".")

	// 3. Default config directory
	v.AddConfigPath("./config")

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFile loads configuration from an explicit file
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}
