package config

import (
	"path/filepath"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/classify"
	"finmodeling/pkg/core/reformulate"
	"finmodeling/pkg/core/statement"
	"finmodeling/pkg/core/store"
)

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Lookahead: classify.DefaultLookahead,
		},
		Reformulation: ReformulationConfig{
			PlausibilityThreshold: statement.DefaultPlausibilityThreshold,
			MarginalTaxRate:       reformulate.DefaultMarginalTaxRate,
		},
		Cache: CacheConfig{
			Backend:  store.BackendMemory,
			Dir:      filepath.Join(".cache", "classifications"),
			S3Prefix: "classifications",
		},
		Logging: applog.Config{
			Level:  "info",
			Format: "console",
		},
	}
}
