package sender

import (
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"log/slog"
	"time"
)

const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// ErrorListener is notified of every connect, format and write failure absorbed by a Sink.
type ErrorListener func(err error)

type Config struct {
	Host string `yaml:"server_host"`
	Port int    `yaml:"server_port"`
	// Prefix is the first segment of every metric path. When nil the literal "null"
	// is sent instead.
	Prefix       *string       `yaml:"metrics_prefix"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	Logger *slog.Logger `yaml:"-"`
	ErrorListener `yaml:"-"`
}

// ParseConfig decodes a YAML config fragment such as
//
//	server_host: graphite.example.com
//	server_port: 2003
//	metrics_prefix: cluster1
//	dial_timeout: 2s
func ParseConfig(data []byte) (Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

func (c Config) validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
