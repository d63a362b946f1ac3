package settings

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Arguments struct {
	// Host reported by clients created without a connection string.
	Host string `mapstructure:"host"`

	// Port reported by clients created without a connection string.
	Port int `mapstructure:"port"`

	// Debug switches the logger to the development configuration and
	// enables per-operation log lines.
	Debug bool `mapstructure:"debug"`

	// Strongly verbose logging
	Verbose bool `mapstructure:"verbose"`

	ConfigFile string `mapstructure:"-"`
}

const (
	DefaultHost = "localhost"
	DefaultPort = 27017
	envPrefix   = "MOCKMONGO"
)

var (
	instance *Arguments
	once     sync.Once
	mu       sync.RWMutex
)

// Defaults returns the built-in settings.
func Defaults() *Arguments {
	return &Arguments{
		Host: DefaultHost,
		Port: DefaultPort,
	}
}

// GetSettings returns the global settings, initialized with the defaults on
// first use.
func GetSettings() *Arguments {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if instance == nil {
			instance = Defaults()
		}
	})

	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// SetSettings replaces the global settings.
func SetSettings(args *Arguments) {
	once.Do(func() {})
	mu.Lock()
	defer mu.Unlock()
	instance = args
}

// ResetSettings restores the defaults. Useful for testing.
func ResetSettings() {
	SetSettings(Defaults())
}

// Load reads settings from the defaults, the optional YAML config file and
// MOCKMONGO_* environment variables, in increasing priority.
func Load(configFile string) (*Arguments, error) {
	v := viper.New()
	defaults := Defaults()
	v.SetDefault("host", defaults.Host)
	v.SetDefault("port", defaults.Port)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("could not read config file %s: %w", configFile, err)
			}
		}
	}

	args := &Arguments{}
	if err := v.Unmarshal(args); err != nil {
		return nil, fmt.Errorf("could not decode settings: %w", err)
	}
	args.ConfigFile = configFile

	if err := args.Validate(); err != nil {
		return nil, err
	}
	return args, nil
}

// Validate checks the settings and returns an error if invalid
func (a *Arguments) Validate() error {
	if strings.TrimSpace(a.Host) == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if a.Port < 1 || a.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", a.Port)
	}
	return nil
}
