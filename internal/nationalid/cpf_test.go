package nationalid

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValid(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"52998224725", true},
		{"529.982.247-25", true},
		{"111.444.777-35", true},
		{"52998224724", false},
		{"11111111111", false},
		{"00000000000", false},
		{"5299822472", false},
		{"529982247250", false},
		{"", false},
		{"abc", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Valid(tc.in), tc.in)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "52998224725", Normalize(" 529.982.247-25 "))
}

func TestRegisterValidation(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidation(v))

	type req struct {
		CPF string `validate:"national_id"`
	}
	assert.NoError(t, v.Struct(req{CPF: "111.444.777-35"}))
	assert.Error(t, v.Struct(req{CPF: "111.444.777-36"}))
}
