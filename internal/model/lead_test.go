package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLead_GetTrims(t *testing.T) {
	l := Lead{"CIF": "  B67217349 "}
	assert.Equal(t, "B67217349", l.Get("CIF"))
	assert.Equal(t, "", l.Get("MISSING"))
}

func TestLead_HasVsEmpty(t *testing.T) {
	l := Lead{"LUZ": ""}
	assert.True(t, l.Has("LUZ"))
	assert.False(t, l.Has("GAS"))
}

func TestLead_Flag(t *testing.T) {
	l := Lead{"A": "true", "B": "1", "C": "YES", "D": "false", "E": "0", "F": ""}
	assert.True(t, l.Flag("A"))
	assert.True(t, l.Flag("B"))
	assert.True(t, l.Flag("C"))
	assert.False(t, l.Flag("D"))
	assert.False(t, l.Flag("E"))
	assert.False(t, l.Flag("F"))
	assert.False(t, l.Flag("MISSING"))
}

func TestLead_FlagSet(t *testing.T) {
	l := Lead{"EMAIL_VALID": "false"}

	v, ok := l.FlagSet("EMAIL_VALID")
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = l.FlagSet("PHONE_VALID")
	assert.False(t, ok)
}

func TestLead_Float(t *testing.T) {
	l := Lead{"A": "150", "B": "70,5", "C": "x", "D": ""}

	v, ok := l.Float("A")
	assert.True(t, ok)
	assert.Equal(t, 150.0, v)

	v, ok = l.Float("B")
	assert.True(t, ok)
	assert.Equal(t, 70.5, v)

	_, ok = l.Float("C")
	assert.False(t, ok)
	_, ok = l.Float("D")
	assert.False(t, ok)
}

func TestLead_Clone(t *testing.T) {
	l := Lead{"CIF": "B67217349"}
	c := l.Clone()
	c.Set("CIF", "changed")
	assert.Equal(t, "B67217349", l.Get("CIF"))
	assert.Equal(t, "changed", c.Get("CIF"))
}

func TestIsEffectivelyEmpty(t *testing.T) {
	assert.True(t, IsEffectivelyEmpty(""))
	assert.True(t, IsEffectivelyEmpty("   "))
	assert.True(t, IsEffectivelyEmpty("NOT_FOUND"))
	assert.True(t, IsEffectivelyEmpty("no_email_found"))
	assert.True(t, IsEffectivelyEmpty(" NO_WEBSITE_FOUND "))

	assert.False(t, IsEffectivelyEmpty("acme.es"))
	assert.False(t, IsEffectivelyEmpty("0"))
}
