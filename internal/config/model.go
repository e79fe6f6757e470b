package config

import (
	"net/url"
	"strings"
	"time"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	History HistoryConfig `mapstructure:"history"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig describes the remote travel service.
type APIConfig struct {
	Endpoint     string        `mapstructure:"endpoint" default:"http://localhost:8000"`
	Timeout      time.Duration `mapstructure:"timeout" default:"30s"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" default:"5s"`
	UserAgent    string        `mapstructure:"user_agent"`
}

// StorageConfig selects where credentials and the return destination
// live between invocations.
type StorageConfig struct {
	Mode string `mapstructure:"mode" default:"auto"` // auto, file, memory or none
	Path string `mapstructure:"path" default:"~/.config/travel"`
}

type HistoryConfig struct {
	PageSize int `mapstructure:"page_size" default:"10"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"warn"`
	Format string `mapstructure:"format" default:"text"`
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

func (c *Config) GetEndpoint() string {
	return strings.TrimSuffix(c.API.Endpoint, "/")
}

// GetEndpointHostname returns the host of the API endpoint, used to keep
// state of different services apart.
func (c *Config) GetEndpointHostname() string {
	parsed, err := url.Parse(c.GetEndpoint())
	if err != nil || len(parsed.Host) == 0 {
		return c.GetEndpoint()
	}
	return parsed.Host
}

func (c *Config) GetPageSize() int {
	if c.History.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.History.PageSize
}
