package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrInvalidToken is returned for any token that fails parsing, signature or claim checks
var ErrInvalidToken = errors.New("invalid token")

// acceptableSkew tolerates small clock drift between issuer and server
const acceptableSkew = 30 * time.Second

// Claims is the verified identity carried by a bearer token
type Claims struct {
	UserID  uuid.UUID
	Subject string
	Issuer  string
	Expires time.Time
}

// Verifier validates bearer tokens
type Verifier interface {
	Verify(ctx context.Context, token string) (*Claims, error)
}

// HMACVerifier validates HS256 tokens signed with a shared secret
type HMACVerifier struct {
	secret []byte
	issuer string
}

// NewHMACVerifier creates a shared-secret verifier. An empty issuer skips the iss check.
func NewHMACVerifier(secret, issuer string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates token
func (v *HMACVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	return parse(token, v.issuer, jwt.WithKey(jwa.HS256, v.secret))
}

// JWKSVerifier validates tokens signed by keys published at a JWKS URL
type JWKSVerifier struct {
	jwks   *JWKSManager
	issuer string
}

// NewJWKSVerifier creates a verifier backed by jwks
func NewJWKSVerifier(jwks *JWKSManager, issuer string) *JWKSVerifier {
	return &JWKSVerifier{jwks: jwks, issuer: issuer}
}

// Verify parses and validates token against the published key set
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (*Claims, error) {
	keys, err := v.jwks.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get JWKS: %w", err)
	}
	// an unknown kid usually means the issuer rotated its keys
	if kid := keyID(token); kid != "" {
		if _, ok := keys.LookupKeyID(kid); !ok {
			v.jwks.Invalidate()
			if keys, err = v.jwks.Keys(ctx); err != nil {
				return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
			}
		}
	}
	return parse(token, v.issuer, jwt.WithKeySet(keys))
}

func keyID(token string) string {
	msg, err := jws.Parse([]byte(token))
	if err != nil || len(msg.Signatures()) == 0 {
		return ""
	}
	return msg.Signatures()[0].ProtectedHeaders().KeyID()
}

func parse(token, issuer string, keyOpt jwt.ParseOption) (*Claims, error) {
	opts := []jwt.ParseOption{
		keyOpt,
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(acceptableSkew),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	tok, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(tok.Subject())
	if err != nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	return &Claims{
		UserID:  userID,
		Subject: tok.Subject(),
		Issuer:  tok.Issuer(),
		Expires: tok.Expiration(),
	}, nil
}

// SignHMAC issues an HS256 token for userID. Used by trackctl and tests.
func SignHMAC(secret, issuer string, userID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	b := jwt.NewBuilder().
		Subject(userID.String()).
		IssuedAt(now).
		Expiration(now.Add(ttl))
	if issuer != "" {
		b = b.Issuer(issuer)
	}
	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

var (
	_ Verifier = (*HMACVerifier)(nil)
	_ Verifier = (*JWKSVerifier)(nil)
)
