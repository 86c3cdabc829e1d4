package compiler

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/broady/bridgec/passes"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	schemaDecoder.SetAliasTag("set")
}

// Config holds the configuration of a compilation run.
type Config struct {
	// Parallelism is the number of units lowered at once.
	// Default: 1 (sequential)
	Parallelism int `set:"parallelism" validate:"gte=0,lte=256"`

	// Passes names the lowering passes to run, in order.
	// Default: the standard pipeline (see passes.Default)
	Passes []string `set:"passes" validate:"dive,required"`

	// SkipCheck lowers units without running the restriction checker.
	SkipCheck bool `set:"skip-check"`

	// Verify checks the structural invariants of each unit after every pass.
	Verify bool `set:"verify"`

	// FailOnWarnings treats checker warnings as restriction violations.
	FailOnWarnings bool `set:"fail-on-warnings"`

	// Format selects the emitted representation.
	// Supported values: "json" (astjson documents), "none" (lower only).
	// Default: "json"
	Format string `set:"format" validate:"omitempty,oneof=json none"`

	// ExtraPasses run after the named passes.
	ExtraPasses []passes.Pass `set:"-" validate:"-"`

	// Logger receives pass and diagnostic logs.
	// Default: slog.Default()
	Logger *slog.Logger `set:"-" validate:"-"`
}

// applyConfigDefaults applies default values to Config.
func applyConfigDefaults(cfg *Config) *Config {
	// Make a copy to avoid mutating the input
	result := *cfg

	if result.Parallelism == 0 {
		result.Parallelism = 1
	}
	if result.Format == "" {
		result.Format = "json"
	}
	if result.Logger == nil {
		result.Logger = slog.Default()
	}
	return &result
}

// Validate checks the field constraints of cfg and that every named pass
// exists.
func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for _, name := range cfg.Passes {
		if _, ok := passes.Lookup(name); !ok {
			return fmt.Errorf("invalid config: unknown pass %q", name)
		}
	}
	return nil
}

// pipeline returns the passes cfg selects.
func (cfg *Config) pipeline() []passes.Pass {
	var ps []passes.Pass
	if len(cfg.Passes) == 0 {
		ps = passes.Default()
	} else {
		for _, name := range cfg.Passes {
			p, _ := passes.Lookup(name)
			ps = append(ps, p)
		}
	}
	return append(ps, cfg.ExtraPasses...)
}

// ParseSettings turns key=value settings into values for ConfigFromValues.
// A repeated key accumulates; a comma-separated value is split so that
// passes=A,B works.
func ParseSettings(settings []string) (url.Values, error) {
	values := url.Values{}
	for _, s := range settings {
		key, value, ok := strings.Cut(s, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed setting %q (expected key=value)", s)
		}
		for _, v := range strings.Split(value, ",") {
			values.Add(key, strings.TrimSpace(v))
		}
	}
	return values, nil
}

// ConfigFromValues decodes a Config from values, e.g. parallelism=4 or
// passes=NormalizeLambdas. Unknown keys are an error.
func ConfigFromValues(values url.Values) (*Config, error) {
	var cfg Config
	if err := schemaDecoder.Decode(&cfg, values); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
