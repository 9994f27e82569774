package services

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker"
)

const firebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// FirebaseIdentity is the subset of Firebase ID-token claims the backend
// consumes to hydrate a session after an OAuth redirect.
type FirebaseIdentity struct {
	UID   string
	Email string
	Name  string
}

type firebaseClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// FirebaseVerifier validates Firebase ID tokens against Google's rotating
// x509 certificates. The cert fetch goes through a circuit breaker so a
// Google outage fails fast instead of piling up requests.
type FirebaseVerifier struct {
	projectID string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	certsURL  string

	mu        sync.RWMutex
	certs     map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewFirebaseVerifier(projectID string, client *http.Client, breaker *gobreaker.CircuitBreaker) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: projectID,
		client:    client,
		breaker:   breaker,
		certsURL:  firebaseCertsURL,
	}
}

// Verify checks the token signature, issuer and audience and returns the
// identity claims.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*FirebaseIdentity, error) {
	claims := &firebaseClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			kid, ok := token.Header["kid"].(string)
			if !ok {
				return nil, fmt.Errorf("token has no kid header")
			}
			return v.keyForKid(ctx, kid)
		},
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid Firebase token: %v", err)
	}

	return &FirebaseIdentity{
		UID:   claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

// keyForKid serves the key from the cached cert set, refreshing it when the
// kid is unknown or the cache is older than an hour.
func (v *FirebaseVerifier) keyForKid(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.certs[kid]
	fresh := time.Since(v.fetchedAt) < time.Hour
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := v.refreshCerts(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.certs[kid]
	if !ok {
		return nil, fmt.Errorf("no certificate for kid %s", kid)
	}
	return key, nil
}

func (v *FirebaseVerifier) refreshCerts(ctx context.Context) error {
	body, err := v.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := v.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("certificate endpoint returned %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return fmt.Errorf("failed to fetch Firebase certificates: %v", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(body.([]byte), &raw); err != nil {
		return fmt.Errorf("failed to decode Firebase certificates: %v", err)
	}

	certs := make(map[string]*rsa.PublicKey, len(raw))
	for kid, certPEM := range raw {
		block, _ := pem.Decode([]byte(certPEM))
		if block == nil {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		if key, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			certs[kid] = key
		}
	}
	if len(certs) == 0 {
		return fmt.Errorf("no usable Firebase certificates in response")
	}

	v.mu.Lock()
	v.certs = certs
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}
