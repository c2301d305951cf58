// Package config loads the optional YAML settings file and fills in
// defaults for anything it leaves out.
package config

import (
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/denismitr/keeper/internal/bank"
	"github.com/denismitr/keeper/internal/contacts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir = "data"
	logFileName    = "keeper.log"
)

type Bank struct {
	InterestRate   float64 `yaml:"interest_rate"`
	OverdraftLimit float64 `yaml:"overdraft_limit"`
}

type Contacts struct {
	PhoneRegion string `yaml:"phone_region"`
}

type Store struct {
	InPlaceWrite bool `yaml:"in_place_write"`
}

type Config struct {
	DataDir  string   `yaml:"data_dir"`
	LogFile  string   `yaml:"log_file"`
	Verbose  bool     `yaml:"verbose"`
	Bank     Bank     `yaml:"bank"`
	Contacts Contacts `yaml:"contacts"`
	Store    Store    `yaml:"store"`
}

func Defaults() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Bank: Bank{
			InterestRate:   bank.DefaultInterestRate,
			OverdraftLimit: bank.DefaultOverdraftLimit,
		},
		Contacts: Contacts{PhoneRegion: contacts.DefaultRegion},
	}
}

// Load reads path when it is set and fills every zero field from
// Defaults. An empty path yields the defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not read config %s", path)
		}

		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, errors.Wrapf(err, "could not parse config %s", path)
		}
	}

	if err := cfg.Merge(Defaults()); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge fills the zero fields of cfg from other.
func (cfg *Config) Merge(other *Config) error {
	if err := mergo.Merge(cfg, other); err != nil {
		return errors.Wrap(err, "could not merge config")
	}
	return nil
}

// Override copies every non-zero field of other over cfg.
func (cfg *Config) Override(other *Config) error {
	if err := mergo.Merge(cfg, other, mergo.WithOverride); err != nil {
		return errors.Wrap(err, "could not override config")
	}
	return nil
}

func (cfg *Config) LogPath() string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	return filepath.Join(cfg.DataDir, logFileName)
}

func (cfg *Config) Path(file string) string {
	return filepath.Join(cfg.DataDir, file)
}
