package authorization

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/e8yes/webchat/internal/identity/entity"
	"github.com/e8yes/webchat/pkg/utilities"
)

type Config struct {
	Issuer string        `env:"TOKEN_ISSUER" env-default:"webchat"`
	TTL    time.Duration `env:"TOKEN_TTL" env-default:"15m"`
}

// ConfigFromEnv reads token settings from environment variables
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read token env: %w", err)
	}
	return cfg, nil
}

// KeySource supplies the signing key and its id.
type KeySource interface {
	SigningKey() *rsa.PrivateKey
	KeyID() string
}

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Groups      []string `json:"grp"`
	Permissions []string `json:"perm,omitempty"`
}

// UserID parses the subject back into a user id.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Service issues and verifies RS256 access tokens.
type Service struct {
	keys   KeySource
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewService(keys KeySource, cfg Config) *Service {
	return &Service{keys: keys, issuer: cfg.Issuer, ttl: cfg.TTL, now: time.Now}
}

func (s *Service) TTL() time.Duration { return s.ttl }

// IssueToken creates an access token for u carrying its groups and permissions.
func (s *Service) IssueToken(u *entity.User, permissions []string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        utilities.NewKSUID(),
		},
		Groups:      u.GroupNames,
		Permissions: permissions,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = s.keys.KeyID()
	signed, err := tok.SignedString(s.keys.SigningKey())
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, issuer and expiry of token.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != s.keys.KeyID() {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return &s.keys.SigningKey().PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// JWK is a single RSA public key in JSON Web Key form.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type JWKSet struct {
	Keys []JWK `json:"keys"`
}

// JWKS returns the public half of the signing key.
func (s *Service) JWKS() JWKSet {
	pub := s.keys.SigningKey().PublicKey
	return JWKSet{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Alg: jwt.SigningMethodRS256.Alg(),
		Kid: s.keys.KeyID(),
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		// minimal big-endian bytes of the exponent
		E: base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}
