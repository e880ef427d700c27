package domain

import (
	"fmt"
	"strings"
)

// TenantID identifies an isolated business context. Every product, cart and
// receipt belongs to exactly one tenant.
type TenantID string

const (
	TenantOEO        TenantID = "oeo"
	TenantSupermart  TenantID = "supermart"
	TenantEquiplease TenantID = "equiplease"
)

// KnownTenants is the closed set of tenants served by this deployment.
var KnownTenants = []TenantID{TenantOEO, TenantSupermart, TenantEquiplease}

var tenantDisplayNames = map[TenantID]string{
	TenantOEO:        "OEO SmartApp",
	TenantSupermart:  "SuperMart",
	TenantEquiplease: "EquipLease",
}

// hostRules are checked in order; the first substring found in the host wins.
var hostRules = []struct {
	substr string
	tenant TenantID
}{
	{"supermart", TenantSupermart},
	{"equiplease", TenantEquiplease},
}

func (t TenantID) String() string {
	return string(t)
}

// Valid reports whether t is one of KnownTenants.
func (t TenantID) Valid() bool {
	_, ok := tenantDisplayNames[t]
	return ok
}

// DisplayName returns the human-readable business name used on receipts.
func (t TenantID) DisplayName() string {
	if name, ok := tenantDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

// ParseTenant converts s into a known tenant.
func ParseTenant(s string) (TenantID, error) {
	t := TenantID(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", Invalid("unknown tenant %q", s)
	}
	return t, nil
}

// TenantFromHost applies the static host rules. The second return value is
// false when no rule matches.
func TenantFromHost(host string) (TenantID, bool) {
	host = strings.ToLower(host)
	for _, rule := range hostRules {
		if strings.Contains(host, rule.substr) {
			return rule.tenant, true
		}
	}
	return "", false
}

// ResolveTenant applies the resolution order: token claim, then host rule,
// then fallback. claim is ignored when it does not name a known tenant.
func ResolveTenant(host, claim string, fallback TenantID) TenantID {
	if claim != "" {
		if t, err := ParseTenant(claim); err == nil {
			return t
		}
	}
	if t, ok := TenantFromHost(host); ok {
		return t
	}
	return fallback
}

// MustTenant is used for compile-time constants in tests and seed tooling.
func MustTenant(s string) TenantID {
	t, err := ParseTenant(s)
	if err != nil {
		panic(fmt.Sprintf("domain: %v", err))
	}
	return t
}
