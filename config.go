package keeper

import "go.uber.org/zap"

const defaultIndent = "    "

type Config struct {
	// Logger receives load and persist events. Nop when nil.
	Logger *zap.Logger

	// Indent used for the backing file, four spaces by default.
	Indent string

	// InPlaceWrite truncates and rewrites the backing file directly
	// instead of writing a tmp file and renaming it over the original.
	InPlaceWrite bool

	// Unique lists json paths whose values must be unique across
	// records, compared case-insensitively.
	Unique []string
}

func (cfg *Config) applyDefaults() {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	if cfg.Indent == "" {
		cfg.Indent = defaultIndent
	}
}

func resolveConfig(cfgs []*Config) *Config {
	cfg := &Config{}
	if len(cfgs) > 0 && cfgs[0] != nil {
		cp := *cfgs[0]
		cfg = &cp
	}

	cfg.applyDefaults()

	return cfg
}
