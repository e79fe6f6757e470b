package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"github.com/travelrag/travel-cli/internal/client"
	"github.com/travelrag/travel-cli/internal/common"
)

const (
	DefaultEndpoint    = "http://localhost:8000"
	DefaultStoragePath = "~/.config/travel"
	DefaultPageSize    = 10

	envPrefix = "TRAVEL"
)

var ErrInvalidEndpoint = errors.New("api endpoint must be an absolute http(s) URL")

func DefaultConfig() *Config {

	v := viper.New()

	// Set default values
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		logrus.Fatalf("error unmarshaling default config: %v", err)
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return nil, err
	}
	return LoadFrom(v)
}

// LoadFrom finishes loading from a prepared viper instance, which lets the
// CLI bind its flags before the values are read.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// NewViper prepares viper with the env file, config paths, defaults and
// environment bindings. Nothing is read yet.
func NewViper(configFile string) (*viper.Viper, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if err := setupViperConfig(v, configFile); err != nil {
		return nil, err
	}

	bindEnvironmentVariables(v)

	return v, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		// .env file not found, that's okay - continue with other sources
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}
	return nil
}

// setupViperConfig configures viper with file paths and defaults
func setupViperConfig(v *viper.Viper, configFile string) error {
	// Set configuration file details
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/travel")

	if home, err := os.UserHomeDir(); err == nil && len(home) > 0 {
		v.AddConfigPath(filepath.Join(home, ".config", "travel"))
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	// Set default values
	setDefaults(v)

	// Set environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(false)

	return nil
}

// bindEnvironmentVariables binds all environment variables to viper
func bindEnvironmentVariables(v *viper.Viper) {

	// Travel service
	v.BindEnv("api.endpoint", "TRAVEL_API_ENDPOINT", "TRAVEL_BASE_URL")
	v.BindEnv("api.timeout", "TRAVEL_API_TIMEOUT")
	v.BindEnv("api.probe_timeout", "TRAVEL_API_PROBE_TIMEOUT")
	v.BindEnv("api.user_agent", "TRAVEL_API_USER_AGENT")

	// Session state storage
	v.BindEnv("storage.mode", "TRAVEL_STORAGE_MODE")
	v.BindEnv("storage.path", "TRAVEL_STORAGE_PATH")

	v.BindEnv("history.page_size", "TRAVEL_HISTORY_PAGE_SIZE")

	bindLoggingEnvVars(v)
}

// bindLoggingEnvVars binds logging configuration environment variables
func bindLoggingEnvVars(v *viper.Viper) {
	v.BindEnv("logging.level", "TRAVEL_LOGGING_LEVEL")
	v.BindEnv("logging.format", "TRAVEL_LOGGING_FORMAT")
	v.BindEnv("logging.output", "TRAVEL_LOGGING_OUTPUT")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	// Read configuration file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and environment variables
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if !common.IsValidURL(c.API.Endpoint) {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.API.Endpoint)
	}

	switch strings.ToLower(c.Storage.Mode) {
	case "", "auto", "file", "memory", "none":
	default:
		return fmt.Errorf("unknown storage mode %q, expected auto, file, memory or none", c.Storage.Mode)
	}

	return nil
}

// setupLogging configures the logging system based on the config
func setupLogging(config *Config, v *viper.Viper) error {
	// Set logging level
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)

	// Set logging format
	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	output, err := logOutput(config.Logging.Output)
	if err != nil {
		return err
	}
	logrus.SetOutput(output)

	// Dump out the config settings if in debug mode
	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			logrus.Debugf("Config '%s': %v\n", key, value)
		}
	}

	return nil
}

// logOutput resolves the logging destination. Logs default to stderr so
// they never mix with command output.
func logOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}
	return file, nil
}

func setDefaults(v *viper.Viper) {

	// Travel service defaults
	v.SetDefault("api.endpoint", DefaultEndpoint)
	v.SetDefault("api.timeout", client.DefaultTimeout)
	v.SetDefault("api.probe_timeout", client.DefaultProbeTimeout)
	v.SetDefault("api.user_agent", common.UserAgent())

	// Storage defaults
	v.SetDefault("storage.mode", "auto")
	v.SetDefault("storage.path", DefaultStoragePath)

	v.SetDefault("history.page_size", DefaultPageSize)

	// Logging defaults
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
}
