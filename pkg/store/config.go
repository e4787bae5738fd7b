package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config is the tool configuration, read from .sln.yaml and SLN_* variables.
type Config struct {
	// StatePath is where persisted view state lives.
	StatePath string
	// Debounce coalesces bursts of file changes into one rebuild.
	Debounce time.Duration
	// RapidThreshold rebuild triggers inside RapidWindow freeze the
	// expansion set until the next rebuild.
	RapidThreshold int
	RapidWindow    time.Duration

	LogLevel       string
	LogDevelopment bool

	// Dotnet is the CLI used for package references.
	Dotnet string
	// Hook, when set, runs after projects are added or removed.
	Hook []string
}

// LoadConfig reads .sln.yaml from $SLN_CONFIG_PATH or the working directory.
// A missing file is fine; every key has a default.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("state", "~/.sln/state")
	v.SetDefault("debounce", 150*time.Millisecond)
	v.SetDefault("rapid.threshold", 8)
	v.SetDefault("rapid.window", 2*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("dotnet", "dotnet")
	v.SetDefault("hook", []string{})

	v.SetConfigName(".sln") // .yaml is implicit
	v.SetEnvPrefix("SLN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("SLN_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	state, err := homedir.Expand(v.GetString("state"))
	if err != nil {
		return nil, fmt.Errorf("store: expand state path: %w", err)
	}
	cfg := &Config{
		StatePath:      state,
		Debounce:       v.GetDuration("debounce"),
		RapidThreshold: v.GetInt("rapid.threshold"),
		RapidWindow:    v.GetDuration("rapid.window"),
		LogLevel:       v.GetString("log.level"),
		LogDevelopment: v.GetBool("log.development"),
		Dotnet:         v.GetString("dotnet"),
		Hook:           v.GetStringSlice("hook"),
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 150 * time.Millisecond
	}
	return cfg, nil
}
