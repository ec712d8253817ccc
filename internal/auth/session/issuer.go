// Package session mints, validates and resolves session credentials.
//
// A session credential is an HS256-signed JWT whose subject is the account ID. It carries
// no role: the role is read from the account on every resolution, so promotions and
// demotions take effect on the next request. The credential travels in a single
// HTTP-only cookie; there is no companion role cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brailletranslate/backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the one canonical session cookie name
const CookieName = "session"

// DefaultTTL is the lifetime of a session credential
const DefaultTTL = 7 * 24 * time.Hour

const issuerName = "braille-backend"

// AccountLookup is the subset of the account repository needed to resolve sessions
type AccountLookup interface {
	// GetByID returns models.ErrAccountNotFound when the account does not exist
	GetByID(ctx context.Context, id string) (*models.Account, error)
}

// RevocationStore keeps revoked credential IDs until they would have expired anyway
type RevocationStore interface {
	Revoke(ctx context.Context, credentialID string, until time.Time) error
	IsRevoked(ctx context.Context, credentialID string) (bool, error)
}

// Claims are the JWT claims of a session credential
type Claims struct {
	jwt.RegisteredClaims
}

// Credential is a freshly minted session credential
type Credential struct {
	Value     string
	AccountID string
	ExpiresAt time.Time
}

// Issuer mints and validates session credentials
type Issuer struct {
	secret       []byte
	ttl          time.Duration
	secureCookie bool
	accounts     AccountLookup
	revocations  RevocationStore
	now          func() time.Time
}

// NewIssuer creates a new session issuer; revocations may be nil for the cookie-only model
func NewIssuer(secret string, ttl time.Duration, secureCookie bool, accounts AccountLookup, revocations RevocationStore) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret:       []byte(secret),
		ttl:          ttl,
		secureCookie: secureCookie,
		accounts:     accounts,
		revocations:  revocations,
		now:          time.Now,
	}
}

// Mint creates a signed credential for the account without touching any response
func (i *Issuer) Mint(accountID string) (*Credential, error) {
	if _, err := uuid.Parse(accountID); err != nil {
		return nil, fmt.Errorf("invalid account id: %w", err)
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   accountID,
			Issuer:    issuerName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	value, err := token.SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session credential: %w", err)
	}

	return &Credential{Value: value, AccountID: accountID, ExpiresAt: expiresAt}, nil
}

// Issue mints a credential and sets it as the session cookie, replacing any previous one
func (i *Issuer) Issue(w http.ResponseWriter, accountID string) (*Credential, error) {
	cred, err := i.Mint(accountID)
	if err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    cred.Value,
		Path:     "/",
		MaxAge:   int(i.ttl.Seconds()),
		Expires:  cred.ExpiresAt,
		HttpOnly: true,
		Secure:   i.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	return cred, nil
}

// ValidateStructure reports whether the raw cookie value is a well-formed, correctly signed,
// unexpired credential. It never consults the account store.
func (i *Issuer) ValidateStructure(raw string) bool {
	_, err := i.parse(raw)
	return err == nil
}

// Resolve returns the account the credential refers to.
// Any credential problem yields models.ErrSessionInvalid; store failures are returned wrapped
// so the caller can fail closed with a server error.
func (i *Issuer) Resolve(ctx context.Context, raw string) (*models.Account, error) {
	claims, err := i.parse(raw)
	if err != nil {
		return nil, models.ErrSessionInvalid
	}

	if i.revocations != nil {
		revoked, err := i.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check session revocation: %w", err)
		}
		if revoked {
			return nil, models.ErrSessionInvalid
		}
	}

	account, err := i.accounts.GetByID(ctx, claims.Subject)
	if errors.Is(err, models.ErrAccountNotFound) {
		return nil, models.ErrSessionInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session account: %w", err)
	}

	return account, nil
}

// Revoke clears the session cookie. With a revocation store configured, the credential
// is also denied server-side until its natural expiry. Calling it without a valid
// credential is not an error.
func (i *Issuer) Revoke(ctx context.Context, w http.ResponseWriter, raw string) error {
	i.ClearCookie(w)

	if i.revocations == nil || raw == "" {
		return nil
	}
	claims, err := i.parse(raw)
	if err != nil {
		return nil
	}
	if err := i.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// ClearCookie expires the session cookie on the client
func (i *Issuer) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   i.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest returns the raw session cookie value, if any
func FromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

func (i *Issuer) parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty credential")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credential: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("credential is invalid")
	}

	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, fmt.Errorf("credential subject is not an account id: %w", err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("credential has no id")
	}

	return claims, nil
}
