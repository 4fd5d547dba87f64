// Package config loads pipeline definitions from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/rk-toolkit/pkg/filter"
	"github.com/dd0wney/rk-toolkit/pkg/linkage"
	"github.com/dd0wney/rk-toolkit/pkg/localization"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/metrics"
	"github.com/dd0wney/rk-toolkit/pkg/ontology"
	"github.com/dd0wney/rk-toolkit/pkg/pipeline"
	"github.com/dd0wney/rk-toolkit/pkg/rkio"
	"github.com/dd0wney/rk-toolkit/pkg/validation"
)

// Localizer kinds.
const (
	LocalizerIterable = "iterable"
	LocalizerNDMax    = "ndmax"
)

// ErrNoOntology is returned when a config names neither an inline ontology
// nor an ontology file.
var ErrNoOntology = errors.New("config has no ontology")

// Config describes a pipeline and where its models go.
type Config struct {
	Lens         string                  `yaml:"lens"`
	ColorDecay   *float64                `yaml:"colorDecay" validate:"omitempty,gte=0,lte=1"`
	Ontology     ontology.Ontology       `yaml:"ontology"`
	OntologyPath string                  `yaml:"ontologyPath"`
	Filters      map[string]FilterConfig `yaml:"filters" validate:"dive"`
	Linkage      LinkageConfig           `yaml:"linkage"`
	Localizer    LocalizerConfig         `yaml:"localizer"`
	Output       OutputConfig            `yaml:"output"`
	LogLevel     string                  `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
}

// FilterConfig configures the filter of one node. Unset knobs keep the
// filter's defaults.
type FilterConfig struct {
	Kind string   `yaml:"kind" validate:"required,oneof=range all none"`
	Min  *float64 `yaml:"min"`
	Max  *float64 `yaml:"max"`
}

// LinkageConfig selects the linkage function.
type LinkageConfig struct {
	Kind      string   `yaml:"kind" validate:"omitempty,oneof=simple child"`
	Threshold *float64 `yaml:"threshold"`
	Theta     *float64 `yaml:"theta"`
}

// LocalizerConfig selects the localizer.
type LocalizerConfig struct {
	Kind string `yaml:"kind" validate:"omitempty,oneof=iterable ndmax"`
	Axes []bool `yaml:"axes"`
	XKey string `yaml:"xKey"`
	YKey string `yaml:"yKey"`
	ZKey string `yaml:"zKey"`
}

// OutputConfig names where models are written: a model file, an S3 bucket
// or both.
type OutputConfig struct {
	Path string         `yaml:"path"`
	S3   *rkio.S3Config `yaml:"s3"`
}

// Load reads and validates the config at path. A relative ontologyPath is
// resolved against the config's directory and loaded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.OntologyPath != "" && !filepath.IsAbs(cfg.OntologyPath) {
		cfg.OntologyPath = filepath.Join(filepath.Dir(path), cfg.OntologyPath)
	}
	if err := cfg.resolveOntology(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML config. Unknown keys are rejected. An
// ontologyPath is kept as is and only read by Load or Build.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config: %w", ErrNoOntology)
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags, then the cross-field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	cv := validation.NewConfigValidator("config")
	cv.Custom("ontology", func() error {
		switch {
		case len(c.Ontology) == 0 && c.OntologyPath == "":
			return ErrNoOntology
		case len(c.Ontology) > 0 && c.OntologyPath != "":
			return errors.New("ontology and ontologyPath are mutually exclusive")
		}
		return nil
	})
	cv.When(c.Lens != "", func(cv *validation.ConfigValidator) {
		cv.Custom("lens", func() error { return validation.ValidateNodeID(c.Lens) })
	})
	cv.When(c.ColorDecay != nil, func(cv *validation.ConfigValidator) {
		cv.Finite("colorDecay", *c.ColorDecay)
	})

	for _, target := range slices.Sorted(maps.Keys(c.Filters)) {
		f := c.Filters[target]
		field := "filters." + target
		cv.Custom(field, func() error { return validation.ValidateNodeID(target) })
		cv.When(f.Min != nil, func(cv *validation.ConfigValidator) { cv.Finite(field+".min", *f.Min) })
		cv.When(f.Max != nil, func(cv *validation.ConfigValidator) { cv.Finite(field+".max", *f.Max) })
		cv.When(f.Min != nil && f.Max != nil, func(cv *validation.ConfigValidator) {
			cv.LessOrEqual(field+".min", *f.Min, field+".max", *f.Max)
		})
		cv.When(f.Kind != filter.KindRange && (f.Min != nil || f.Max != nil), func(cv *validation.ConfigValidator) {
			cv.Custom(field, func() error { return fmt.Errorf("filter kind %q takes no knobs", f.Kind) })
		})
	}

	cv.When(c.Linkage.Threshold != nil, func(cv *validation.ConfigValidator) {
		cv.Finite("linkage.threshold", *c.Linkage.Threshold)
	})
	cv.When(c.Linkage.Theta != nil, func(cv *validation.ConfigValidator) {
		cv.Finite("linkage.theta", *c.Linkage.Theta)
	})
	cv.When(c.Linkage.Kind == linkage.KindChild && c.Linkage.Threshold != nil, func(cv *validation.ConfigValidator) {
		cv.Custom("linkage.threshold", func() error { return errors.New("the child linker is tuned with theta") })
	})
	cv.When(c.linkageKind() == linkage.KindSimple && c.Linkage.Theta != nil, func(cv *validation.ConfigValidator) {
		cv.Custom("linkage.theta", func() error { return errors.New("the simple linker is tuned with threshold") })
	})

	cv.When(c.Localizer.Kind == LocalizerNDMax, func(cv *validation.ConfigValidator) {
		cv.Required("localizer.xKey", c.Localizer.XKey).
			Required("localizer.yKey", c.Localizer.YKey).
			Required("localizer.zKey", c.Localizer.ZKey)
	})
	return cv.Validate()
}

func (c *Config) linkageKind() string {
	return validation.DefaultOr(c.Linkage.Kind, linkage.KindSimple)
}

func (c *Config) resolveOntology() error {
	if len(c.Ontology) > 0 || c.OntologyPath == "" {
		return nil
	}
	o, err := ontology.Load(c.OntologyPath)
	if err != nil {
		return fmt.Errorf("load ontology: %w", err)
	}
	if len(o) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrNoOntology, c.OntologyPath)
	}
	c.Ontology = o
	c.OntologyPath = ""
	return nil
}

// Build turns the config into a pipeline. logger and reg may be nil.
func (c *Config) Build(logger logging.Logger, reg *metrics.Registry) (*pipeline.Pipeline, error) {
	if err := c.resolveOntology(); err != nil {
		return nil, err
	}
	logger = logging.OrDefault(logger)

	topts := []ontology.Option{
		ontology.WithLens(validation.DefaultOr(c.Lens, ontology.DefaultLens)),
		ontology.WithLogger(logger),
	}
	if c.ColorDecay != nil {
		topts = append(topts, ontology.WithColorDecay(*c.ColorDecay))
	}
	tr, err := ontology.New(c.Ontology, topts...)
	if err != nil {
		return nil, err
	}

	popts := []pipeline.Option{pipeline.WithLogger(logger)}
	if reg != nil {
		popts = append(popts, pipeline.WithMetrics(reg))
	}

	for _, target := range slices.Sorted(maps.Keys(c.Filters)) {
		fc := c.Filters[target]
		f, err := filter.New(fc.Kind, knobs(map[string]*float64{"min": fc.Min, "max": fc.Max}), logger)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", target, err)
		}
		popts = append(popts, pipeline.WithFilter(target, f))
	}

	l, err := linkage.New(c.linkageKind(), knobs(map[string]*float64{"threshold": c.Linkage.Threshold, "theta": c.Linkage.Theta}), logger)
	if err != nil {
		return nil, fmt.Errorf("linkage: %w", err)
	}
	popts = append(popts, pipeline.WithLinker(l))

	switch c.Localizer.Kind {
	case LocalizerNDMax:
		popts = append(popts, pipeline.WithLocalizer(localization.NDMaxLocalizer{
			XKey: c.Localizer.XKey,
			YKey: c.Localizer.YKey,
			ZKey: c.Localizer.ZKey,
		}))
	default:
		popts = append(popts, pipeline.WithLocalizer(localization.NewIterableLocalizer(c.Localizer.Axes...)))
	}

	return pipeline.New(tr, popts...), nil
}

// knobs drops unset knobs.
func knobs(set map[string]*float64) map[string]float64 {
	out := make(map[string]float64, len(set))
	for name, v := range set {
		if v != nil {
			out[name] = *v
		}
	}
	return out
}
