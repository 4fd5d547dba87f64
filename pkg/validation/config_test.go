package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidator_Checks(t *testing.T) {
	tests := []struct {
		name  string
		check func(cv *ConfigValidator)
		fails bool
	}{
		{"required empty", func(cv *ConfigValidator) { cv.Required("lens", "") }, true},
		{"required set", func(cv *ConfigValidator) { cv.Required("lens", "root") }, false},
		{"finite NaN", func(cv *ConfigValidator) { cv.Finite("min", math.NaN()) }, true},
		{"finite +Inf", func(cv *ConfigValidator) { cv.Finite("min", math.Inf(1)) }, true},
		{"finite -Inf", func(cv *ConfigValidator) { cv.Finite("min", math.Inf(-1)) }, true},
		{"finite value", func(cv *ConfigValidator) { cv.Finite("min", 3.5) }, false},
		{"range below", func(cv *ConfigValidator) { cv.RangeFloat("decay", -0.1, 0, 1) }, true},
		{"range low edge", func(cv *ConfigValidator) { cv.RangeFloat("decay", 0, 0, 1) }, false},
		{"range high edge", func(cv *ConfigValidator) { cv.RangeFloat("decay", 1, 0, 1) }, false},
		{"range above", func(cv *ConfigValidator) { cv.RangeFloat("decay", 1.5, 0, 1) }, true},
		{"range NaN", func(cv *ConfigValidator) { cv.RangeFloat("decay", math.NaN(), 0, 1) }, true},
		{"inverted bounds", func(cv *ConfigValidator) { cv.LessOrEqual("min", 2, "max", 1) }, true},
		{"equal bounds", func(cv *ConfigValidator) { cv.LessOrEqual("min", 1, "max", 1) }, false},
		{"when false", func(cv *ConfigValidator) { cv.When(false, func(v *ConfigValidator) { v.Required("x", "") }) }, false},
		{"when true", func(cv *ConfigValidator) { cv.When(true, func(v *ConfigValidator) { v.Required("x", "") }) }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("test")
			tt.check(cv)
			if tt.fails {
				assert.ErrorIs(t, cv.Validate(), ErrInvalidConfig)
			} else {
				assert.NoError(t, cv.Validate())
			}
		})
	}
}

func TestConfigValidator_Custom(t *testing.T) {
	sentinel := errors.New("custom failure")
	err := NewConfigValidator("test").Custom("field", func() error { return sentinel }).Validate()
	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "test.field")

	assert.NoError(t, NewConfigValidator("test").Custom("field", func() error { return nil }).Validate())
}

func TestConfigValidator_CollectsAll(t *testing.T) {
	sentinel := errors.New("bad lens")
	cv := NewConfigValidator("pipeline").
		Required("lens", "").
		Finite("min", math.NaN()).
		Custom("lens", func() error { return sentinel })

	require.Len(t, cv.Failures(), 3)
	err := cv.Validate()
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "3 problems")
}

func TestDefaultOr(t *testing.T) {
	assert.Equal(t, "root", DefaultOr("", "root"))
	assert.Equal(t, "lens", DefaultOr("lens", "root"))
	assert.Equal(t, 4, DefaultOr(0, 4))
	assert.Equal(t, 0.5, DefaultOr(0.5, 1.0))
}
