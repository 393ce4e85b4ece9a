package authorization

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e8yes/webchat/internal/identity/entity"
)

type staticKeys struct {
	key *rsa.PrivateKey
	kid string
}

func (k staticKeys) SigningKey() *rsa.PrivateKey { return k.key }
func (k staticKeys) KeyID() string { return k.kid }

func newKeys(t *testing.T, kid string) staticKeys {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	return staticKeys{key: k, kid: kid}
}

var testConfig = Config{Issuer: "webchat-test", TTL: 15 * time.Minute}

func testUser() *entity.User {
	return &entity.User{ID: 1700000000000000001, GroupNames: []string{"BASELINE_USER_GROUP"}}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TOKEN_ISSUER", "https://chat.example.com")
	t.Setenv("TOKEN_TTL", "1h")
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{Issuer: "https://chat.example.com", TTL: time.Hour}, cfg)
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"TOKEN_ISSUER", "TOKEN_TTL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, Config{Issuer: "webchat", TTL: 15 * time.Minute}, cfg)
}

func TestIssueAndVerify(t *testing.T) {
	svc := NewService(newKeys(t, "k1"), testConfig)
	tok, err := svc.IssueToken(testUser(), []string{"READ_PROFILE"})
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, &Claims{})
	require.NoError(t, err)
	assert.Equal(t, "k1", parsed.Header["kid"])
	assert.Equal(t, "RS256", parsed.Header["alg"])

	claims, err := svc.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "webchat-test", claims.Issuer)
	assert.Equal(t, "1700000000000000001", claims.Subject)
	assert.Len(t, claims.ID, 27)
	assert.Equal(t, []string{"BASELINE_USER_GROUP"}, claims.Groups)
	assert.Equal(t, []string{"READ_PROFILE"}, claims.Permissions)
	assert.Equal(t, 15*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000000001), id)
}

func TestIssueToken_UniqueIDs(t *testing.T) {
	svc := NewService(newKeys(t, "k1"), testConfig)
	a, err := svc.IssueToken(testUser(), nil)
	require.NoError(t, err)
	b, err := svc.IssueToken(testUser(), nil)
	require.NoError(t, err)
	ca, err := svc.Verify(a)
	require.NoError(t, err)
	cb, err := svc.Verify(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestVerify_Rejects(t *testing.T) {
	keys := newKeys(t, "k1")
	svc := NewService(keys, testConfig)
	good, err := svc.IssueToken(testUser(), nil)
	require.NoError(t, err)

	expired := NewService(keys, testConfig)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.IssueToken(testUser(), nil)
	require.NoError(t, err)

	foreign, err := NewService(newKeys(t, "k1"), testConfig).IssueToken(testUser(), nil)
	require.NoError(t, err)

	otherIssuer, err := NewService(keys, Config{Issuer: "elsewhere", TTL: time.Minute}).IssueToken(testUser(), nil)
	require.NoError(t, err)

	otherKid, err := NewService(staticKeys{key: keys.key, kid: "k2"}, testConfig).IssueToken(testUser(), nil)
	require.NoError(t, err)

	hmac, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "webchat-test", "sub": "1", "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(`{"iss":"webchat-test","sub":"1"}`)) + "." + parts[2]

	cases := map[string]string{
		"garbage":      "not.a.token",
		"expired":      old,
		"foreign key":  foreign,
		"wrong issuer": otherIssuer,
		"unknown kid":  otherKid,
		"hmac":         hmac,
		"tampered":     tampered,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWKS(t *testing.T) {
	keys := newKeys(t, "k1")
	set := NewService(keys, testConfig).JWKS()
	require.Len(t, set.Keys, 1)
	jwk := set.Keys[0]
	assert.Equal(t, "RSA", jwk.Kty)
	assert.Equal(t, "sig", jwk.Use)
	assert.Equal(t, "RS256", jwk.Alg)
	assert.Equal(t, "k1", jwk.Kid)
	assert.Equal(t, "AQAB", jwk.E)

	n, err := base64.RawURLEncoding.DecodeString(jwk.N)
	require.NoError(t, err)
	assert.Equal(t, 0, new(big.Int).SetBytes(n).Cmp(keys.key.N))
}
