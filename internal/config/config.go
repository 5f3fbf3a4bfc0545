package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/asaskevich/govalidator"
	"github.com/charmbracelet/log"
	"github.com/creasty/defaults"
	"github.com/ethereum/go-ethereum/common"
)

const (
	// EnvDir overrides the config directory.
	EnvDir = "POLYCTL_CONFIG_DIR"

	configFile  = "config.json"
	walletsFile = "wallets.json"
)

// Config holds all polyctl configuration.
type Config struct {
	Network         string  `json:"network"           default:"mainnet"`
	RPCURL          string  `json:"rpc_url"           default:"http://127.0.0.1:8545"`
	RegistryAddress string  `json:"registry_address"`
	DefaultWallet   string  `json:"default_wallet"`
	GasSafetyFactor float64 `json:"gas_safety_factor" default:"1.2"`
	ConfirmTimeout  int     `json:"confirm_timeout"   default:"180"` // seconds
	LogLevel        string  `json:"log_level"         default:"info"`

	// internal: config dir path used for Save()
	configDir string
}

// Load reads config from dir (or creates defaults). dir defaults to
// $POLYCTL_CONFIG_DIR, then ~/.polyctl.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv(EnvDir)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "could not determine home dir")
		}
		dir = filepath.Join(home, ".polyctl")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "could not create config dir")
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "applying defaults")
	}
	cfg.configDir = dir

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Validate checks every value that has a fixed format.
func (c *Config) Validate() error {
	if c.Network == "" {
		return errors.New("network must not be empty")
	}
	if !govalidator.IsURL(c.RPCURL) {
		return errors.Errorf("rpc_url %q is not a valid URL", c.RPCURL)
	}
	if c.RegistryAddress != "" && !common.IsHexAddress(c.RegistryAddress) {
		return errors.Errorf("registry_address %q is not an address", c.RegistryAddress)
	}
	if c.GasSafetyFactor < 1 {
		return errors.Errorf("gas_safety_factor %v must be at least 1", c.GasSafetyFactor)
	}
	if c.ConfirmTimeout <= 0 {
		return errors.Errorf("confirm_timeout %d must be positive", c.ConfirmTimeout)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Errorf("log_level %q is not a level", c.LogLevel)
	}
	return nil
}

// setters maps each config key to a parser for its string form.
var setters = map[string]func(c *Config, v string) error{
	"network":          func(c *Config, v string) error { c.Network = strings.ToLower(v); return nil },
	"rpc_url":          func(c *Config, v string) error { c.RPCURL = v; return nil },
	"registry_address": func(c *Config, v string) error { c.RegistryAddress = v; return nil },
	"default_wallet":   func(c *Config, v string) error { c.DefaultWallet = v; return nil },
	"log_level":        func(c *Config, v string) error { c.LogLevel = strings.ToLower(v); return nil },
	"gas_safety_factor": func(c *Config, v string) (err error) {
		c.GasSafetyFactor, err = strconv.ParseFloat(v, 64)
		return errors.Wrap(err, "gas_safety_factor")
	},
	"confirm_timeout": func(c *Config, v string) (err error) {
		c.ConfirmTimeout, err = strconv.Atoi(v)
		return errors.Wrap(err, "confirm_timeout")
	},
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value into key and validates the result. The config is left
// unchanged on error.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return errors.Errorf("unknown key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	next := *c
	if err := set(&next, value); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where the wallet list is stored.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, walletsFile)
}

// Timeout returns ConfirmTimeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.ConfirmTimeout) * time.Second
}

// Registry returns the configured registry address, or the zero address.
func (c *Config) Registry() common.Address {
	if c.RegistryAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.RegistryAddress)
}
