// Package nationalid validates Brazilian CPF numbers used as customer national ids.
package nationalid

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const Length = 11

// Normalize strips every non-digit rune, so "529.982.247-25" becomes "52998224725".
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether raw is a well-formed CPF: 11 digits after normalization,
// not all identical, with both check digits correct.
func Valid(raw string) bool {
	cpf := Normalize(raw)
	if len(cpf) != Length {
		return false
	}
	if strings.Count(cpf, cpf[:1]) == Length {
		return false
	}
	return cpf[9] == checkDigit(cpf[:9]) && cpf[10] == checkDigit(cpf[:10])
}

func checkDigit(digits string) byte {
	sum := 0
	weight := len(digits) + 1
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (weight - i)
	}
	rem := sum % 11
	if rem < 2 {
		return '0'
	}
	return byte('0' + 11 - rem)
}

// RegisterValidation adds the "national_id" tag to v.
func RegisterValidation(v *validator.Validate) error {
	return v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.String {
			return false
		}
		return Valid(fl.Field().String())
	})
}
