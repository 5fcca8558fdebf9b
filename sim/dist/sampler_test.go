package dist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNew_KnownTypes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := []struct {
		name string
		spec Spec
	}{
		{"beta", BetaSpec(2, 3)},
		{"uniform", Spec{Type: "uniform", Params: map[string]float64{"min": 0, "max": 1}}},
		{"constant", Spec{Type: "constant", Params: map[string]float64{"value": 0.7}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.spec, rng)
			require.NoError(t, err)
			v := s.Sample()
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		})
	}
}

func TestNew_Errors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := []struct {
		name string
		spec Spec
	}{
		{"unknown type", Spec{Type: "weibull"}},
		{"missing beta param", Spec{Type: "beta", Params: map[string]float64{"alpha": 2}}},
		{"non-positive alpha", BetaSpec(0, 2)},
		{"empty uniform", Spec{Type: "uniform", Params: map[string]float64{"min": 1, "max": 1}}},
		{"missing constant value", Spec{Type: "constant"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.spec, rng)
			assert.Error(t, err)
			assert.Error(t, tt.spec.Validate())
		})
	}
}

func TestBeta_SamplesStayInUnitIntervalAndTrackMean(t *testing.T) {
	// GIVEN the default track-quality distribution Beta(2,3)
	b, err := NewBeta(2, 3, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	// WHEN drawing many samples
	const n = 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		v := b.Sample()
		require.True(t, v >= 0 && v <= 1, "sample %v outside [0,1]", v)
		sum += v
	}

	// THEN the empirical mean is close to alpha/(alpha+beta)
	assert.InDelta(t, b.Mean(), sum/n, 0.01)
	assert.InDelta(t, 0.4, b.Mean(), 1e-12)
}

func TestBeta_SameSeedSameDraws(t *testing.T) {
	a, err := NewBeta(2, 2, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	b, err := NewBeta(2, 2, rand.New(rand.NewSource(9)))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Sample(), b.Sample())
	}
}

func TestSequence_CyclesValues(t *testing.T) {
	s := NewSequence(0.9, 0.1)
	assert.Equal(t, []float64{0.9, 0.1, 0.9}, []float64{s.Sample(), s.Sample(), s.Sample()})
	assert.Equal(t, 3, s.Draws())
	assert.Panics(t, func() { NewSequence() })
}

func TestSpec_UnmarshalYAML_ReplacesDefault(t *testing.T) {
	// GIVEN a spec pre-set to a beta default
	spec := BetaSpec(2, 2)

	// WHEN YAML selects a different distribution
	err := yaml.Unmarshal([]byte("type: uniform\nparams: {min: 0, max: 1}\n"), &spec)

	// THEN the default params do not leak into the decoded spec
	require.NoError(t, err)
	assert.Equal(t, Spec{Type: "uniform", Params: map[string]float64{"min": 0, "max": 1}}, spec)
}

func TestSpec_UnmarshalYAML_RejectsUnknownKeys(t *testing.T) {
	var spec Spec
	err := yaml.Unmarshal([]byte("type: beta\nparms: {alpha: 2}\n"), &spec)
	assert.ErrorContains(t, err, "parms")
}
