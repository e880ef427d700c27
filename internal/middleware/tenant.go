package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"oeo-pos/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	TenantKey contextKey = "tenant"

	// TenantClaim is the token claim that overrides host based resolution
	TenantClaim  = "tenantId"
	TenantHeader = "X-Tenant"
)

var errMalformedAuthorization = errors.New("malformed authorization header")

// TenantMiddleware resolves the tenant of every request and stores it in the
// request context. A valid tenant claim in the bearer token wins over the
// Host header, which wins over fallback. Undecodable tokens and unknown
// tenant claims are ignored. When jwtSecret is empty the token payload is
// read without verifying its signature.
func TenantMiddleware(fallback domain.TenantID, jwtSecret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claim, err := tenantClaim(r.Header.Get("Authorization"), jwtSecret)
			if err != nil {
				logger.Debug("Ignoring tenant claim", zap.Error(err))
			}
			if claim != "" && !domain.TenantID(strings.ToLower(claim)).Valid() {
				logger.Debug("Ignoring unknown tenant claim", zap.String("claim", claim))
			}

			tenant := domain.ResolveTenant(r.Host, claim, fallback)
			w.Header().Set(TenantHeader, tenant.String())

			ctx := context.WithValue(r.Context(), TenantKey, tenant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tenantClaim(authHeader, jwtSecret string) (string, error) {
	if authHeader == "" {
		return "", nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errMalformedAuthorization
	}

	claims := jwt.MapClaims{}
	if jwtSecret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(parts[1], claims); err != nil {
			return "", err
		}
	} else {
		_, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
		if err != nil {
			return "", err
		}
	}

	claim, _ := claims[TenantClaim].(string)
	return claim, nil
}

// GetTenant extracts the resolved tenant from the request context
func GetTenant(ctx context.Context) (domain.TenantID, bool) {
	tenant, ok := ctx.Value(TenantKey).(domain.TenantID)
	return tenant, ok
}

// WithTenant stores tenant in ctx the same way TenantMiddleware does
func WithTenant(ctx context.Context, tenant domain.TenantID) context.Context {
	return context.WithValue(ctx, TenantKey, tenant)
}
