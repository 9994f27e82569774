package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProjectID = "demo-project"

func testBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "test-cb"})
}

// newSigningSetup generates a throwaway RSA key with a self-signed
// certificate served the way Google's securetoken endpoint serves its
// rotating certs.
func newSigningSetup(t *testing.T, kid string) (*rsa.PrivateKey, *httptest.Server) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{kid: string(certPEM)})
	}))
	t.Cleanup(server.Close)

	return key, server
}

func signTestToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.Claims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestFirebaseVerifyAcceptsValidToken(t *testing.T) {
	key, server := newSigningSetup(t, "kid-1")

	verifier := NewFirebaseVerifier(testProjectID, server.Client(), testBreaker())
	verifier.certsURL = server.URL

	idToken := signTestToken(t, key, "kid-1", firebaseClaims{
		Email: "person@example.com",
		Name:  "Some Person",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProjectID,
			Audience:  jwt.ClaimStrings{testProjectID},
			Subject:   "firebase-uid-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	identity, err := verifier.Verify(context.Background(), idToken)
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", identity.UID)
	assert.Equal(t, "person@example.com", identity.Email)
	assert.Equal(t, "Some Person", identity.Name)
}

func TestFirebaseVerifyRejectsWrongAudience(t *testing.T) {
	key, server := newSigningSetup(t, "kid-1")

	verifier := NewFirebaseVerifier(testProjectID, server.Client(), testBreaker())
	verifier.certsURL = server.URL

	idToken := signTestToken(t, key, "kid-1", firebaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProjectID,
			Audience:  jwt.ClaimStrings{"someone-elses-project"},
			Subject:   "uid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := verifier.Verify(context.Background(), idToken)
	assert.Error(t, err)
}

func TestFirebaseVerifyRejectsExpiredToken(t *testing.T) {
	key, server := newSigningSetup(t, "kid-1")

	verifier := NewFirebaseVerifier(testProjectID, server.Client(), testBreaker())
	verifier.certsURL = server.URL

	idToken := signTestToken(t, key, "kid-1", firebaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProjectID,
			Audience:  jwt.ClaimStrings{testProjectID},
			Subject:   "uid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := verifier.Verify(context.Background(), idToken)
	assert.Error(t, err)
}

func TestFirebaseVerifyRejectsUnknownKid(t *testing.T) {
	key, server := newSigningSetup(t, "kid-1")

	verifier := NewFirebaseVerifier(testProjectID, server.Client(), testBreaker())
	verifier.certsURL = server.URL

	idToken := signTestToken(t, key, "other-kid", firebaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProjectID,
			Audience:  jwt.ClaimStrings{testProjectID},
			Subject:   "uid",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := verifier.Verify(context.Background(), idToken)
	assert.Error(t, err)
}

func TestFirebaseVerifyCertEndpointDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	verifier := NewFirebaseVerifier(testProjectID, server.Client(), testBreaker())
	verifier.certsURL = server.URL

	_, err := verifier.Verify(context.Background(), "whatever.token.here")
	assert.Error(t, err)
}
