// Package dist provides the probabilistic outcome samplers injected into
// sensors: detection success draws and track-quality increments.
package dist

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"
)

// Sampler draws one value per call.
type Sampler interface {
	Sample() float64
}

// Spec parameterizes a sampler in scenario configuration.
type Spec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// UnmarshalYAML replaces the spec wholesale rather than merging params into
// a previously set default. Unknown keys are rejected.
func (spec *Spec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			switch key := value.Content[i]; key.Value {
			case "type", "params":
			default:
				return fmt.Errorf("line %d: field %s not found in sampler spec", key.Line, key.Value)
			}
		}
	}
	var raw struct {
		Type   string             `yaml:"type"`
		Params map[string]float64 `yaml:"params"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*spec = Spec{Type: raw.Type, Params: raw.Params}
	return nil
}

// BetaSpec is shorthand for a beta distribution spec.
func BetaSpec(alpha, beta float64) Spec {
	return Spec{Type: "beta", Params: map[string]float64{"alpha": alpha, "beta": beta}}
}

// Beta samples a Beta(alpha, beta) distribution.
type Beta struct {
	d distuv.Beta
}

// NewBeta creates a Beta sampler drawing from rng.
func NewBeta(alpha, beta float64, rng *rand.Rand) (*Beta, error) {
	if alpha <= 0 || beta <= 0 {
		return nil, fmt.Errorf("beta distribution requires alpha > 0 and beta > 0, got (%v, %v)", alpha, beta)
	}
	return &Beta{d: distuv.Beta{Alpha: alpha, Beta: beta, Src: rng}}, nil
}

func (s *Beta) Sample() float64 { return s.d.Rand() }

// Mean returns the distribution mean alpha/(alpha+beta).
func (s *Beta) Mean() float64 { return s.d.Mean() }

// Uniform samples a continuous uniform distribution on [min, max).
type Uniform struct {
	d distuv.Uniform
}

// NewUniform creates a Uniform sampler drawing from rng.
func NewUniform(min, max float64, rng *rand.Rand) (*Uniform, error) {
	if max <= min {
		return nil, fmt.Errorf("uniform distribution requires min < max, got [%v, %v)", min, max)
	}
	return &Uniform{d: distuv.Uniform{Min: min, Max: max, Src: rng}}, nil
}

func (s *Uniform) Sample() float64 { return s.d.Rand() }

// Constant always returns the same value.
type Constant float64

func (c Constant) Sample() float64 { return float64(c) }

// Sequence replays a fixed list of values, cycling when exhausted.
// It makes probabilistic outcomes deterministic in tests.
type Sequence struct {
	values []float64
	next   int
}

// NewSequence creates a Sequence over values. At least one value is required.
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		panic("NewSequence: at least one value required")
	}
	return &Sequence{values: append([]float64(nil), values...)}
}

func (s *Sequence) Sample() float64 {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v
}

// Draws returns how many values have been sampled.
func (s *Sequence) Draws() int { return s.next }

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// Validate checks the spec without constructing a sampler.
func (spec Spec) Validate() error {
	_, err := New(spec, rand.New(rand.NewSource(0)))
	return err
}

// New creates a Sampler from a Spec.
func New(spec Spec, rng *rand.Rand) (Sampler, error) {
	switch spec.Type {
	case "beta":
		if err := requireParam(spec.Params, "alpha", "beta"); err != nil {
			return nil, err
		}
		return NewBeta(spec.Params["alpha"], spec.Params["beta"], rng)

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		return NewUniform(spec.Params["min"], spec.Params["max"], rng)

	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return Constant(spec.Params["value"]), nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
