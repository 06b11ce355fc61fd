package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sentinel errors for token verification. Verify never returns raw library
// errors; callers map these to user-facing validation reasons.
var (
	// ErrKeyMissing is returned by NewTokenCodec when no signing key is configured.
	ErrKeyMissing = errors.New("signing key is not configured")
	// ErrTokenMalformed is returned when a token cannot be parsed at all.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenExpired is returned when the token's embedded hard expiration has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid is returned when the signature or registered claims check fails.
	ErrTokenInvalid = errors.New("token invalid")
)

// Identity is the set of claims embedded in a session token at issuance.
type Identity struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Role      string
}

// SessionClaims holds the JWT claims carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IP        string `json:"ip"`
}

// TokenCodec issues and verifies HS256-signed session tokens.
//
// The expiration embedded at issuance is a hard ceiling: the token cannot be
// verified past that instant regardless of any store-side sliding window.
// Verification grants no clock-skew leeway.
type TokenCodec struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration

	// Clock supplies the current time for issuance and expiry checks.
	// Defaults to time.Now; tests may replace it.
	Clock func() time.Time
}

// NewTokenCodec returns a TokenCodec signing with the given symmetric key.
// issuer and audience are optional; when empty the corresponding claim check
// is disabled. A missing key is a startup misconfiguration and returns
// ErrKeyMissing.
func NewTokenCodec(key []byte, issuer, audience string, ttl time.Duration) (*TokenCodec, error) {
	if len(key) == 0 {
		return nil, ErrKeyMissing
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenCodec{
		key:      key,
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		Clock:    time.Now,
	}, nil
}

// Issue mints a signed token for the given identity and source address.
// The token carries the identity claims, the source IP, a uniqueness nonce
// (jti), and the hard expiration instant.
func (c *TokenCodec) Issue(ident Identity, sourceAddress string) (string, error) {
	now := c.Clock().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   ident.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Username:  ident.Username,
		FirstName: ident.FirstName,
		LastName:  ident.LastName,
		Role:      ident.Role,
		IP:        sourceAddress,
	}
	if c.issuer != "" {
		claims.Issuer = c.issuer
	}
	if c.audience != "" {
		claims.Audience = jwt.ClaimStrings{c.audience}
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.key)
}

// Verify checks the token's signature, registered claims, and hard expiration,
// and returns the decoded claims on success. No leeway is granted for the
// expiration check. Failures are reported as ErrTokenMalformed,
// ErrTokenExpired, or ErrTokenInvalid.
func (c *TokenCodec) Verify(tokenString string) (*SessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return c.Clock().UTC() }),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		opts = append(opts, jwt.WithAudience(c.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Decode parses the token without verifying the signature or expiration.
// Used only for diagnostics (Describe); never for authorization decisions.
func (c *TokenCodec) Decode(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
