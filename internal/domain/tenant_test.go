package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTenant(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		claim    string
		expected TenantID
	}{
		{"default when nothing matches", "localhost:5000", "", TenantOEO},
		{"supermart host", "pos.supermart.ng", "", TenantSupermart},
		{"equiplease host", "EQUIPLEASE.example.com", "", TenantEquiplease},
		{"claim overrides host", "pos.supermart.ng", "equiplease", TenantEquiplease},
		{"claim on default host", "localhost", "supermart", TenantSupermart},
		{"unknown claim is ignored", "pos.supermart.ng", "acme", TenantSupermart},
		{"claim is case insensitive", "localhost", " SuperMart ", TenantSupermart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveTenant(tt.host, tt.claim, TenantOEO))
		})
	}
}

func TestParseTenant(t *testing.T) {
	for _, tenant := range KnownTenants {
		parsed, err := ParseTenant(string(tenant))
		require.NoError(t, err)
		assert.Equal(t, tenant, parsed)
	}

	_, err := ParseTenant("acme")
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, KindInvalid, KindOf(err))
}

func TestTenantDisplayName(t *testing.T) {
	assert.Equal(t, "SuperMart", TenantSupermart.DisplayName())
	assert.Equal(t, "acme", TenantID("acme").DisplayName())
}

func TestMustTenant(t *testing.T) {
	assert.Equal(t, TenantEquiplease, MustTenant("equiplease"))
	assert.Panics(t, func() { MustTenant("nope") })
}
