package dto

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	d, err := ParseMoney("0.10000000")
	require.NoError(t, err)
	assert.Equal(t, "0.1", d.String())

	d, err = ParseMoney("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseMoney("not-a-number")
	assert.Error(t, err)
}

func TestSanitizeStruct(t *testing.T) {
	extra := "  padded  "
	s := struct {
		Name  string
		Extra *string
		Count int
	}{
		Name:  "  acme  ",
		Extra: &extra,
		Count: 3,
	}

	SanitizeStruct(&s)

	assert.Equal(t, "acme", s.Name)
	assert.Equal(t, "padded", *s.Extra)
	assert.Equal(t, 3, s.Count)
}

func TestSanitizeStruct_NonStruct(t *testing.T) {
	// Must not panic on non-pointer or non-struct input.
	SanitizeStruct("plain string")
	SanitizeStruct(42)
	s := "x"
	SanitizeStruct(&s)
}

func TestValidateMoney(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"0", true},
		{"0.10000000", true},
		{"123.456", true},
		{"-1", false},
		{"abc", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			req := CreateTransferRequest{
				FromMerchant: "a",
				ToMerchant:   "b",
				Amount:       tt.value,
				Currency:     "USD",
			}
			err := binding.Validator.ValidateStruct(req)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
