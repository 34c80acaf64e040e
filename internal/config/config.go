// Package config loads the optional deploynet configuration file and turns
// its network entries into profiles layered over the built-in table.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/Bidon15/deploynet"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding file values.
const EnvPrefix = "DEPLOYNET"

// Default values
const (
	DefaultEnvFile  = ".env"
	DefaultLogLevel = "info"
)

// NetworkEntry is one network declared in the config file.
type NetworkEntry struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	NetworkID     string `yaml:"network_id"`
	PrivateKeyEnv string `yaml:"private_key_env"`
	URLEnv        string `yaml:"url_env"`
}

// File is the decoded configuration.
type File struct {
	DefaultNetwork string                  `mapstructure:"network"`
	EnvFile        string                  `mapstructure:"env_file"`
	LogLevel       string                  `mapstructure:"log_level"`

	// Networks is keyed by the names exactly as written in the file.
	Networks map[string]NetworkEntry `mapstructure:"-"`

	// Path is the file actually read, empty when none was.
	Path string `mapstructure:"-"`
}

// Load reads path (YAML) and applies DEPLOYNET_* environment overrides to the
// scalar settings. An empty path yields defaults plus environment overrides.
//
// The networks section is decoded with yaml.v3 rather than viper, so network
// names keep their exact case and may contain dots.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetDefault("network", deploynet.DefaultNetwork)
	v.SetDefault("env_file", DefaultEnvFile)
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv("network", EnvPrefix+"_NETWORK")
	_ = v.BindEnv("env_file", EnvPrefix+"_ENV_FILE")
	_ = v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	f := &File{}
	if err := v.Unmarshal(f); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	f.Path = v.ConfigFileUsed()

	if path != "" {
		networks, err := readNetworks(path)
		if err != nil {
			return nil, err
		}
		f.Networks = networks
	}
	return f, nil
}

func readNetworks(path string) (map[string]NetworkEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var doc struct {
		Networks map[string]NetworkEntry `yaml:"networks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return doc.Networks, nil
}

// Profiles converts the declared networks, sorted by name. A missing
// network_id becomes the wildcard.
func (f *File) Profiles() ([]deploynet.Profile, error) {
	names := make([]string, 0, len(f.Networks))
	for name := range f.Networks {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]deploynet.Profile, 0, len(names))
	for _, name := range names {
		e := f.Networks[name]
		id := deploynet.NetworkID(e.NetworkID)
		if id == "" {
			id = deploynet.AnyNetwork
		}
		if !id.Valid() {
			return nil, fmt.Errorf("network %s: invalid network_id %q", name, e.NetworkID)
		}
		profiles = append(profiles, deploynet.Profile{
			Name:          name,
			Host:          e.Host,
			Port:          e.Port,
			NetworkID:     id,
			PrivateKeyEnv: e.PrivateKeyEnv,
			URLEnv:        e.URLEnv,
		})
	}
	return profiles, nil
}

// Resolve loads path and returns the built-in table with the file's
// networks merged over it.
func Resolve(path string) (*deploynet.Table, *File, error) {
	f, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	profiles, err := f.Profiles()
	if err != nil {
		return nil, nil, err
	}
	if len(profiles) == 0 {
		return deploynet.Default(), f, nil
	}
	table, err := deploynet.Default().Merge(profiles...)
	if err != nil {
		if errors.Is(err, deploynet.ErrIncompleteProfile) || errors.Is(err, deploynet.ErrMixedProfile) {
			return nil, nil, fmt.Errorf("invalid config file: %w", err)
		}
		return nil, nil, err
	}
	return table, f, nil
}
