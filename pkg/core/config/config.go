// Package config loads engine settings: defaults, then YAML or TOML files,
// then a .env file, then FINMODEL_* environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/statement"
	"finmodeling/pkg/core/store"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FINMODEL_"

// dotEnvPath is loaded between config files and environment overrides.
var dotEnvPath = ".env"

// Config represents the engine configuration.
type Config struct {
	Classifier    ClassifierConfig         `yaml:"classifier" toml:"classifier"`
	Reformulation ReformulationConfig      `yaml:"reformulation" toml:"reformulation"`
	Cache         CacheConfig              `yaml:"cache" toml:"cache"`
	Logging       applog.Config            `yaml:"logging" toml:"logging"`
	Concepts      map[string]ConceptConfig `yaml:"concepts" toml:"concepts"`
}

type ClassifierConfig struct {
	Lookahead int `yaml:"lookahead" toml:"lookahead"`
}

type ReformulationConfig struct {
	PlausibilityThreshold float64 `yaml:"plausibility_threshold" toml:"plausibility_threshold"`
	MarginalTaxRate       float64 `yaml:"marginal_tax_rate" toml:"marginal_tax_rate"`
}

// CacheConfig selects the classification cache backend.
type CacheConfig struct {
	Backend     string `yaml:"backend" toml:"backend"` // memory, file, postgres, s3
	Dir         string `yaml:"dir" toml:"dir"`
	DatabaseURL string `yaml:"database_url" toml:"database_url"`
	S3Bucket    string `yaml:"s3_bucket" toml:"s3_bucket"`
	S3Prefix    string `yaml:"s3_prefix" toml:"s3_prefix"`
	Region      string `yaml:"region" toml:"region"`
}

// ConceptConfig overrides the label and ID patterns of a named concept.
type ConceptConfig struct {
	Labels []string `yaml:"labels" toml:"labels"`
	IDs    []string `yaml:"ids" toml:"ids"`
}

// Load reads configuration with priority: defaults -> paths in order ->
// .env -> environment. Later files override earlier files.
func Load(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to read config file %s", path)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, eris.Wrapf(err, "failed to parse config file %s (file %d of %d)", path, i+1, len(paths))
		}
	}

	if err := godotenv.Load(dotEnvPath); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrapf(err, "failed to load %s", dotEnvPath)
	}
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".toml":
		return toml.Unmarshal(data, cfg)
	}
	return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
}

// applyEnvOverrides applies FINMODEL_* environment variable overrides.
// Unparseable numbers are logged and ignored.
func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, set func(string) error) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		if err := set(v); err != nil {
			applog.L().Warn().Err(err).Str("var", EnvPrefix+name).Msg("[config] ignoring invalid override")
		}
	}

	num("LOOKAHEAD", func(v string) error {
		n, err := strconv.Atoi(v)
		if err == nil {
			cfg.Classifier.Lookahead = n
		}
		return err
	})
	num("PLAUSIBILITY_THRESHOLD", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			cfg.Reformulation.PlausibilityThreshold = f
		}
		return err
	})
	num("MARGINAL_TAX_RATE", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			cfg.Reformulation.MarginalTaxRate = f
		}
		return err
	})

	str("CACHE_BACKEND", &cfg.Cache.Backend)
	str("CACHE_DIR", &cfg.Cache.Dir)
	str("DATABASE_URL", &cfg.Cache.DatabaseURL)
	str("S3_BUCKET", &cfg.Cache.S3Bucket)
	str("S3_PREFIX", &cfg.Cache.S3Prefix)
	str("REGION", &cfg.Cache.Region)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)
}

// Validate checks ranges and that concept overrides compile.
func (c *Config) Validate() error {
	if c.Classifier.Lookahead < 1 {
		return fmt.Errorf("classifier.lookahead must be at least 1, got %d", c.Classifier.Lookahead)
	}
	if c.Reformulation.PlausibilityThreshold < 0 {
		return fmt.Errorf("reformulation.plausibility_threshold must not be negative, got %v", c.Reformulation.PlausibilityThreshold)
	}
	if r := c.Reformulation.MarginalTaxRate; r < 0 || r >= 1 {
		return fmt.Errorf("reformulation.marginal_tax_rate must be in [0, 1), got %v", r)
	}

	switch c.Cache.Backend {
	case store.BackendMemory, store.BackendFile, store.BackendPostgres:
	case store.BackendS3:
		if c.Cache.S3Bucket == "" {
			return fmt.Errorf("cache.s3_bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown cache.backend %q", c.Cache.Backend)
	}

	_, err := c.concepts()
	return err
}

func (c *Config) concepts() (map[string]calc.Concept, error) {
	if len(c.Concepts) == 0 {
		return nil, nil
	}
	defaults := statement.DefaultConcepts()
	out := make(map[string]calc.Concept, len(c.Concepts))
	for name, cc := range c.Concepts {
		def, ok := defaults[name]
		if !ok {
			return nil, fmt.Errorf("unknown concept %q", name)
		}
		labels, err := calc.NewPatternSet(cc.Labels...)
		if err != nil {
			return nil, fmt.Errorf("concepts.%s.labels: %w", name, err)
		}
		ids, err := calc.NewPatternSet(cc.IDs...)
		if err != nil {
			return nil, fmt.Errorf("concepts.%s.ids: %w", name, err)
		}
		if labels.Len() == 0 && ids.Len() == 0 {
			return nil, fmt.Errorf("concepts.%s needs at least one label or id pattern", name)
		}
		out[name] = calc.Concept{Goal: def.Goal, Labels: labels, IDs: ids}
	}
	return out, nil
}

// StatementOptions builds statement options around cache.
func (c *Config) StatementOptions(cache classify.Cache) (statement.Options, error) {
	concepts, err := c.concepts()
	if err != nil {
		return statement.Options{}, err
	}
	threshold, rate := c.Reformulation.PlausibilityThreshold, c.Reformulation.MarginalTaxRate
	return statement.Options{
		Lookahead:             c.Classifier.Lookahead,
		PlausibilityThreshold: &threshold,
		MarginalTaxRate:       &rate,
		Cache:                 cache,
		Concepts:              concepts,
	}, nil
}

func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.Cache.Backend,
		Dir:         c.Cache.Dir,
		DatabaseURL: c.Cache.DatabaseURL,
		S3: store.S3Config{
			Bucket: c.Cache.S3Bucket,
			Prefix: c.Cache.S3Prefix,
			Region: c.Cache.Region,
		},
	}
}
