package tokenparser

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/openauthz/oidcauthzfilter/internal/logger"
)

const testKID = "test-key-1"

func startJWKSServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	pub := key.PublicKey
	jwk := map[string]any{
		"kty": "RSA",
		"kid": testKID,
		"use": "sig",
		"alg": "RS256",
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(bigEndianBytesForExponent(pub.E)),
	}
	body, err := json.Marshal(map[string]any{"keys": []any{jwk}})
	require.NoError(t, err)

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
}

func bigEndianBytesForExponent(e int) []byte {
	if e == 65537 {
		return []byte{0x01, 0x00, 0x01}
	}
	b := make([]byte, 0, 4)
	for e > 0 {
		b = append([]byte{byte(e & 0xff)}, b...)
		e >>= 8
	}
	return b
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	srv := startJWKSServer(t, key)
	defer srv.Close()

	parser, err := New(srv.URL, "https://idp.example.com", logger.NoOp{})
	require.NoError(t, err)

	idToken := signIDToken(t, key, jwt.MapClaims{
		"iss":   "https://idp.example.com",
		"aud":   "client-123",
		"nonce": "nonce-abc",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"sub":   "user-1",
	})

	body, _ := json.Marshal(map[string]any{
		"id_token":     idToken,
		"access_token": "opaque-access-token",
		"expires_in":   3600,
	})

	result, ok := parser.Parse("client-123", "nonce-abc", body)
	require.True(t, ok)
	require.Equal(t, idToken, result.IDTokenJWT)
	require.Equal(t, "opaque-access-token", result.AccessToken)
	require.NotNil(t, result.ExpirySeconds)
	require.Equal(t, int64(3600), *result.ExpirySeconds)
}

func TestParseRejectsNonceMismatch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := startJWKSServer(t, key)
	defer srv.Close()

	parser, err := New(srv.URL, "https://idp.example.com", logger.NoOp{})
	require.NoError(t, err)

	idToken := signIDToken(t, key, jwt.MapClaims{
		"iss":   "https://idp.example.com",
		"aud":   "client-123",
		"nonce": "wrong-nonce",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	body, _ := json.Marshal(map[string]any{"id_token": idToken})

	_, ok := parser.Parse("client-123", "nonce-abc", body)
	require.False(t, ok)
}

func TestParseRejectsAudienceMismatch(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := startJWKSServer(t, key)
	defer srv.Close()

	parser, err := New(srv.URL, "https://idp.example.com", logger.NoOp{})
	require.NoError(t, err)

	idToken := signIDToken(t, key, jwt.MapClaims{
		"iss":   "https://idp.example.com",
		"aud":   "someone-else",
		"nonce": "nonce-abc",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	body, _ := json.Marshal(map[string]any{"id_token": idToken})

	_, ok := parser.Parse("client-123", "nonce-abc", body)
	require.False(t, ok)
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := startJWKSServer(t, key)
	defer srv.Close()

	parser, err := New(srv.URL, "https://idp.example.com", logger.NoOp{})
	require.NoError(t, err)

	_, ok := parser.Parse("client-123", "nonce-abc", []byte("not json"))
	require.False(t, ok)
}

func TestParseRejectsSignatureFromUnknownKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := startJWKSServer(t, key)
	defer srv.Close()

	parser, err := New(srv.URL, "https://idp.example.com", logger.NoOp{})
	require.NoError(t, err)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	idToken := signIDToken(t, otherKey, jwt.MapClaims{
		"iss":   "https://idp.example.com",
		"aud":   "client-123",
		"nonce": "nonce-abc",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	body, _ := json.Marshal(map[string]any{"id_token": idToken})

	_, ok := parser.Parse("client-123", "nonce-abc", body)
	require.False(t, ok)
}
