package handlers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestConditionLabel(t *testing.T) {
	cases := map[string]string{
		"AS_GOOD_AS_NEW":   "As good as new",
		"NEW":              "New",
		"HAS_GIVEN_IT_ALL": "Has given it all",
		"_X":               "X",
		"__":               "",
		"":                 "",
		"ÉTAT_NEUF":        "État neuf",
	}
	for in, want := range cases {
		assert.NotPanics(t, func() { _ = conditionLabel(in) }, in)
		assert.Equal(t, want, conditionLabel(in), in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "50 €", formatPrice(decimal.NewFromInt(50)))
	assert.Equal(t, "120.50 €", formatPrice(decimal.RequireFromString("120.5")))
}
