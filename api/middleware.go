package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/models"
)

// AdminTokenTTL is how long an issued admin token stays valid
const AdminTokenTTL = 12 * time.Hour

const adminScope = "admin"

type adminContextKey struct{}

// AdminClaims are the claims carried by an admin bearer token
type AdminClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// AdminAuth guards the admin routes. Credentials come from the configuration;
// there is a single administrator account.
type AdminAuth struct {
	Config *config.Config

	authenticator auth.Authenticator

	hashOnce sync.Once
	hash     []byte
	hashErr  error
}

// NewAdminAuth sets up go-guardian with a basic strategy checked against the configured admin
func NewAdminAuth(conf *config.Config) *AdminAuth {
	a := &AdminAuth{Config: conf}
	cache := store.NewFIFO(context.Background(), 10*time.Minute)
	basicStrategy := basic.New(a.ValidateAdmin, cache)

	a.authenticator = auth.New()
	a.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	return a
}

// ValidateAdmin checks an email/password pair against the configured administrator
func (a *AdminAuth) ValidateAdmin(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	if err := a.Config.Require("ADMIN_EMAIL", "ADMIN_PASSWORD"); err != nil {
		return nil, err
	}
	hash, err := a.passwordHash()
	if err != nil {
		return nil, err
	}

	emailHash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	expectedEmailHash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(a.Config.AdminEmail))))
	emailMatch := subtle.ConstantTimeCompare(emailHash[:], expectedEmailHash[:]) == 1

	// always compare the password so timing does not reveal whether the email matched
	passwordErr := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if !emailMatch || passwordErr != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return auth.NewDefaultUser(a.Config.AdminEmail, "admin", nil, nil), nil
}

// passwordHash accepts ADMIN_PASSWORD either as a bcrypt hash or in plain text
func (a *AdminAuth) passwordHash() ([]byte, error) {
	a.hashOnce.Do(func() {
		pw := a.Config.AdminPassword
		if _, err := bcrypt.Cost([]byte(pw)); err == nil {
			a.hash = []byte(pw)
			return
		}
		a.hash, a.hashErr = bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	})
	return a.hash, a.hashErr
}

// CreateToken exchanges HTTP basic admin credentials for a signed bearer token
func (a *AdminAuth) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := a.Config.Require("ADMIN_EMAIL", "ADMIN_PASSWORD"); err != nil {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, err)
		return
	}
	secret := a.Config.TokenSecret()
	if len(secret) == 0 {
		config.ErrorStatus("server misconfigured", http.StatusInternalServerError, w, errors.New("no token secret configured"))
		return
	}

	user, err := a.authenticator.Authenticate(r)
	if err != nil {
		zap.S().Warnw("admin authentication failed", "url", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "unauthorized"})
		return
	}

	now := time.Now()
	expires := now.Add(AdminTokenTTL)
	claims := AdminClaims{
		Scope: adminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserName(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		config.ErrorStatus("token generation failed", http.StatusInternalServerError, w, err)
		return
	}

	zap.S().Infow("admin token issued", "admin", user.UserName(), "jti", claims.ID)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(models.AdminTokenResponse{Token: signed, ExpiresAt: expires.Unix()})
}

// Middleware rejects requests without a valid admin bearer token.
// Browsers cannot set headers on websocket upgrades, so a "token" query parameter is also accepted.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.ParseToken(bearerToken(r))
		if err != nil {
			zap.S().Warnw("unauthorized", "url", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), adminContextKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ParseToken verifies signature, expiry and scope of an admin token
func (a *AdminAuth) ParseToken(raw string) (*AdminClaims, error) {
	if raw == "" {
		return nil, errors.New("missing token")
	}
	secret := a.Config.TokenSecret()
	if len(secret) == 0 {
		return nil, errors.New("no token secret configured")
	}
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Scope != adminScope {
		return nil, fmt.Errorf("token scope %q is not admin", claims.Scope)
	}
	return claims, nil
}

// AdminFromContext returns the authenticated admin's email, if any
func AdminFromContext(ctx context.Context) string {
	s, _ := ctx.Value(adminContextKey{}).(string)
	return s
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
