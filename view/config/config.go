// Package config builds view stage chains from declarative definitions.
//
// A definition lists stages in order:
//
//	name: top-scorers
//	stages:
//	  - kind: filter
//	    pattern: "ab"
//	  - kind: sort
//	    field: Score
//	    desc: true
//	  - kind: take
//	    param: limit
//
// Definitions are read from YAML, JSON or TOML with viper. Top level keys can
// be overridden from the environment with the MINVIEW_ prefix, so
// MINVIEW_NAME replaces name. Stage parameters are either literal values or
// names bound to reactive values through Bindings.
package config

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/lguimbarda/min-view/view"
	"github.com/lguimbarda/min-view/view/core"
	"github.com/lguimbarda/min-view/view/filter"
	"github.com/lguimbarda/min-view/view/order"
)

// EnvPrefix is prepended to environment overrides.
const EnvPrefix = "MINVIEW"

// ErrUnbound is returned when a stage names a parameter missing from the
// Bindings passed to Apply.
var ErrUnbound = errors.New("config: unbound parameter")

// Definition is a named stage chain.
type Definition struct {
	Name   string  `mapstructure:"name"`
	Stages []Stage `mapstructure:"stages" validate:"dive"`
}

// Stage is one entry of a chain. Which fields apply depends on Kind:
// filter uses Pattern or Param, sort uses Field and Desc, skip, take and
// step use exactly one of Value or Param.
type Stage struct {
	Kind    string `mapstructure:"kind" validate:"required,oneof=filter sort skip take step"`
	Pattern string `mapstructure:"pattern" validate:"excluded_unless=Kind filter,excluded_with=Param"`
	Field   string `mapstructure:"field" validate:"required_if=Kind sort,excluded_unless=Kind sort"`
	Desc    bool   `mapstructure:"desc"`
	Value   any    `mapstructure:"value"`
	Param   string `mapstructure:"param" validate:"excluded_if=Kind sort"`
}

// Bindings maps parameter names to values. Observables bound here make the
// resulting view react when they change.
type Bindings struct {
	Ints    map[string]core.Readable[int]
	Strings map[string]core.Readable[string]
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("mapstructure")
			if name == "" || name == "-" {
				return strings.ToLower(fld.Name)
			}
			return name
		})
		validate.RegisterStructValidation(positional, Stage{})
	})
	return validate
}

// positional requires exactly one of value or param on skip, take and step.
func positional(sl validator.StructLevel) {
	s := sl.Current().Interface().(Stage)
	switch s.Kind {
	case "skip", "take", "step":
		if (s.Value == nil) == (s.Param == "") {
			sl.ReportError(s.Value, "value", "Value", "value_xor_param", "")
		}
	default:
		if s.Value != nil {
			sl.ReportError(s.Value, "value", "Value", "excluded_unless", "")
		}
	}
}

// Validate checks the structure of a definition. It does not check value
// types or bindings; Apply does.
func Validate(def *Definition) error {
	if def == nil {
		return errors.New("config: nil definition")
	}
	if err := getValidator().Struct(def); err != nil {
		return fmt.Errorf("config: invalid definition: %w", err)
	}
	return nil
}

// Decode converts a raw map, as produced by a YAML or JSON decoder, into a
// validated definition. Unknown keys are rejected.
func Decode(raw map[string]any) (*Definition, error) {
	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(&def); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads a definition file. The format follows the file extension.
func Load(path string) (*Definition, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(v.AllSettings())
}

// Parse reads a definition from r in the given format ("yaml", "json",
// "toml").
func Parse(r io.Reader, format string) (*Definition, error) {
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", format, err)
	}
	return Decode(v.AllSettings())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("name", "")
	return v
}

// Build creates a view over src named after the definition and applies
// its stages.
func Build[T any](src core.Source[T], def *Definition, b Bindings, opts ...view.Option) (*view.View[T], error) {
	if def.Name != "" {
		opts = append([]view.Option{view.WithName(def.Name)}, opts...)
	}
	v := view.Of(src, opts...)
	if err := Apply(v, def, b); err != nil {
		return nil, err
	}
	return v, nil
}

// Apply appends the definition's stages to v in order. Either every stage
// is appended or none is.
func Apply[T any](v *view.View[T], def *Definition, b Bindings) error {
	if err := Validate(def); err != nil {
		return err
	}
	ops := make([]view.Op[T], 0, len(def.Stages))
	for i, s := range def.Stages {
		op, err := stageOp[T](s, b)
		if err != nil {
			return fmt.Errorf("config: stage %d (%s): %w", i, s.Kind, err)
		}
		ops = append(ops, op)
	}
	return v.Append(ops...)
}

func stageOp[T any](s Stage, b Bindings) (view.Op[T], error) {
	kind, ok := view.ParseKind(s.Kind)
	if !ok {
		return view.Op[T]{}, fmt.Errorf("unknown kind %q", s.Kind)
	}

	switch kind {
	case view.KindFilter:
		if s.Param != "" {
			p, ok := b.Strings[s.Param]
			if !ok {
				return view.Op[T]{}, fmt.Errorf("%w %q", ErrUnbound, s.Param)
			}
			return view.NewFilter(filter.Match[T](p))
		}
		return view.NewFilter(filter.MatchString[T](s.Pattern))
	case view.KindSort:
		c := order.ByField[T](s.Field)
		if s.Desc {
			c = order.Desc(c)
		}
		return view.NewSort(c)
	default:
		if s.Param != "" {
			p, ok := b.Ints[s.Param]
			if !ok {
				return view.Op[T]{}, fmt.Errorf("%w %q", ErrUnbound, s.Param)
			}
			return view.NewCount[T](kind, p)
		}
		return view.ParseCount[T](kind, s.Value)
	}
}
