package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// JWT verifies (and, for local tooling, signs) HS256 access tokens whose
// subject is the username. Verification needs only the shared secret.
type JWT struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewJWT(secret string, issuer string) *JWT {
	return &JWT{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
}

type accessClaims struct {
	jwt.RegisteredClaims
}

// VerifyAccessToken returns the identity carried by a valid token.
// Failures are ErrTokenExpired or ErrTokenInvalid; callers decide whether to surface them.
func (j *JWT) VerifyAccessToken(raw string) (domain.Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	parsed, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(t *jwt.Token) (any, error) {
		// prevent alg confusion
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return j.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrTokenExpired
		}
		return domain.Identity{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, ErrTokenInvalid
	}

	username := strings.TrimSpace(claims.Subject)
	if username == "" {
		return domain.Identity{}, ErrTokenInvalid
	}
	return domain.Identity{Username: username}, nil
}

// SignAccessToken mints a token for username. Only local tooling and tests use it.
func (j *JWT) SignAccessToken(username string, ttl time.Duration) (string, error) {
	now := j.now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", domain.ErrInternal(err)
	}
	return signed, nil
}
