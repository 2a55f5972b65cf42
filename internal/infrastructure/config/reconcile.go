package config

import (
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/settlement-recon/internal/application/reconcile"
	"github.com/eshaffer321/settlement-recon/internal/domain/aggregator"
	"github.com/eshaffer321/settlement-recon/internal/domain/normalizer"
)

// Default returns a Config carrying the reference engine configuration and
// the default operational settings.
func Default() *Config {
	ref := reconcile.DefaultConfig()
	parallel := ref.Matcher.Parallel

	cfg := &Config{
		Engine: EngineConfig{
			MaxRows:         ref.MaxRows,
			AmountTolerance: ref.Matcher.AmountTolerance.String(),
			Timezone:        "UTC",
			Parallel:        &parallel,
		},
		Datasets: DatasetsConfig{
			Hub:   fromDataset(ref.Normalizer.Hub),
			Sales: fromDataset(ref.Normalizer.Sales),
		},
		Labels: LabelsConfig{
			StripPrefixes:   ref.Normalizer.Labels.StripPrefixes,
			Aliases:         ref.Normalizer.Labels.Aliases,
			Known:           ref.Normalizer.Labels.Known,
			GenericHolder:   ref.Normalizer.Labels.GenericHolder,
			GenericVariants: ref.Normalizer.Labels.GenericVariants,
		},
		Categories: CategoriesConfig{
			Defaults: ref.Categories.Defaults,
			Exclude:  ref.Categories.Exclude,
			Fallback: ref.Categories.Fallback,
		},
	}
	for _, r := range ref.Categories.Rules {
		cfg.Categories.Rules = append(cfg.Categories.Rules, CategoryRule{Contains: r.Contains, Category: r.Category})
	}

	cfg.applyDefaults()
	return cfg
}

// DefaultReconcile returns the reference engine configuration.
func DefaultReconcile() reconcile.Config {
	return reconcile.DefaultConfig()
}

// Reconcile converts the file sections into an engine configuration. Any
// section left empty keeps its reference value.
func (c *Config) Reconcile() (reconcile.Config, error) {
	out := reconcile.DefaultConfig()

	if c.Engine.MaxRows != 0 {
		out.MaxRows = c.Engine.MaxRows
	}
	if out.MaxRows < 0 {
		out.MaxRows = 0
	}

	if c.Engine.AmountTolerance != "" {
		tol, err := decimal.NewFromString(c.Engine.AmountTolerance)
		if err != nil {
			return out, fmt.Errorf("engine.amount_tolerance: %w", err)
		}
		if !tol.IsPositive() {
			return out, fmt.Errorf("engine.amount_tolerance must be positive, got %s", tol)
		}
		out.Matcher.AmountTolerance = tol
	}
	if c.Engine.Parallel != nil {
		out.Matcher.Parallel = *c.Engine.Parallel
	}

	if c.Engine.Timezone != "" {
		loc, err := time.LoadLocation(c.Engine.Timezone)
		if err != nil {
			return out, fmt.Errorf("engine.timezone: %w", err)
		}
		out.Normalizer.Location = loc
	}

	var err error
	if out.Normalizer.Hub, err = c.Datasets.Hub.toDataset(out.Normalizer.Hub); err != nil {
		return out, fmt.Errorf("datasets.hub: %w", err)
	}
	if out.Normalizer.Sales, err = c.Datasets.Sales.toDataset(out.Normalizer.Sales); err != nil {
		return out, fmt.Errorf("datasets.sales: %w", err)
	}

	labels := &out.Normalizer.Labels
	if c.Labels.StripPrefixes != nil {
		labels.StripPrefixes = c.Labels.StripPrefixes
	}
	if c.Labels.Aliases != nil {
		labels.Aliases = c.Labels.Aliases
	}
	if c.Labels.Known != nil {
		labels.Known = c.Labels.Known
	}
	if c.Labels.GenericHolder != "" {
		labels.GenericHolder = c.Labels.GenericHolder
	}
	if c.Labels.GenericVariants != nil {
		labels.GenericVariants = c.Labels.GenericVariants
	}

	cats := &out.Categories
	if c.Categories.Defaults != nil {
		cats.Defaults = c.Categories.Defaults
	}
	if c.Categories.Rules != nil {
		cats.Rules = make([]aggregator.Rule, 0, len(c.Categories.Rules))
		for _, r := range c.Categories.Rules {
			cats.Rules = append(cats.Rules, aggregator.Rule{Contains: r.Contains, Category: r.Category})
		}
	}
	if c.Categories.Exclude != nil {
		cats.Exclude = c.Categories.Exclude
	}
	if c.Categories.Fallback != "" {
		cats.Fallback = c.Categories.Fallback
	}

	return out, nil
}

func (d DatasetConfig) toDataset(base normalizer.DatasetConfig) (normalizer.DatasetConfig, error) {
	switch normalizer.HeaderMatch(d.HeaderMatch) {
	case "":
	case normalizer.HeaderMatchExact, normalizer.HeaderMatchFold:
		base.HeaderMatch = normalizer.HeaderMatch(d.HeaderMatch)
	default:
		return base, fmt.Errorf("unknown header_match %q", d.HeaderMatch)
	}

	if d.Columns != nil {
		aliases := make(map[normalizer.Field][]string, len(d.Columns))
		for name, headers := range d.Columns {
			field, err := parseField(name)
			if err != nil {
				return base, err
			}
			aliases[field] = headers
		}
		base.Aliases = aliases
	}

	if d.Required != nil {
		required := make([]normalizer.Field, 0, len(d.Required))
		for _, name := range d.Required {
			field, err := parseField(name)
			if err != nil {
				return base, err
			}
			required = append(required, field)
		}
		base.Required = required
	}
	return base, nil
}

func fromDataset(d normalizer.DatasetConfig) DatasetConfig {
	out := DatasetConfig{
		HeaderMatch: string(d.HeaderMatch),
		Columns:     make(map[string][]string, len(d.Aliases)),
	}
	for field, headers := range d.Aliases {
		out.Columns[string(field)] = headers
	}
	for _, f := range d.Required {
		out.Required = append(out.Required, string(f))
	}
	return out
}

func parseField(name string) (normalizer.Field, error) {
	for _, f := range normalizer.Fields {
		if string(f) == name {
			return f, nil
		}
	}
	known := make([]string, 0, len(normalizer.Fields))
	for _, f := range normalizer.Fields {
		known = append(known, string(f))
	}
	sort.Strings(known)
	return "", fmt.Errorf("unknown column field %q (want one of %v)", name, known)
}
