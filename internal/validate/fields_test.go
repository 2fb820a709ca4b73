package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{email: "taller@example.com", want: true},
		{email: "nombre.apellido+tag@sub.example.es", want: true},
		{email: " padded@example.com ", want: true},
		{email: "sin-arroba.com", want: false},
		{email: "dos@@example.com", want: false},
		{email: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateEmail(tt.email))
		})
	}
}

func TestNormalizeMatricula(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "1234 abc", want: "1234ABC"},
		{input: "1234-BCD", want: "1234BCD"},
		{input: "m.1234.ab", want: "M1234AB"},
		{input: "  1234BCD  ", want: "1234BCD"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMatricula(tt.input))
		})
	}
}

func TestValidateMatricula(t *testing.T) {
	tests := []struct {
		name      string
		matricula string
		want      bool
	}{
		{name: "current format", matricula: "1234BCD", want: true},
		{name: "current format with spaces", matricula: "1234 BCD", want: true},
		{name: "current format rejects vowels", matricula: "1234ABE", want: false},
		{name: "old provincial single letter", matricula: "M1234AB", want: true},
		{name: "old provincial two letters", matricula: "TE1234C", want: true},
		{name: "too short", matricula: "123BCD", want: false},
		{name: "garbage", matricula: "matricula", want: false},
		{name: "empty", matricula: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateMatricula(tt.matricula))
		})
	}
}

func TestValidateDNICIF(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "dni", id: "12345678A", want: true},
		{name: "dni lowercase with dashes", id: "12345678-a", want: true},
		{name: "nie", id: "X1234567B", want: true},
		{name: "nie Y prefix", id: "Y7654321C", want: true},
		{name: "cif", id: "B12345678", want: true},
		{name: "cif seven digits", id: "A1234567", want: true},
		{name: "too short", id: "1234", want: false},
		{name: "dni missing letter", id: "12345678", want: false},
		{name: "empty", id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateDNICIF(tt.id))
		})
	}
}

func TestValidatePostalCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "madrid", code: "28001", want: true},
		{name: "lowest province", code: "01001", want: true},
		{name: "highest province", code: "52001", want: true},
		{name: "province zero", code: "00001", want: false},
		{name: "province out of range", code: "53000", want: false},
		{name: "four digits", code: "2800", want: false},
		{name: "letters", code: "2800A", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePostalCode(tt.code))
		})
	}
}
