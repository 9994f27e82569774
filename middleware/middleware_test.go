package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func stubLookup(user *models.User) UserLookup {
	return func(ctx context.Context, userID string) (*models.User, error) {
		if user != nil && user.ID.Hex() == userID {
			return user, nil
		}
		return nil, fmt.Errorf("user not found")
	}
}

func TestJWTAuthMissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := JWTAuth(stubLookup(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestJWTAuthInvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := JWTAuth(stubLookup(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	request.Header.Set("Authorization", "Bearer not-a-token")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestJWTAuthValidCookie(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{ID: primitive.NewObjectID(), Name: "Test User"}
	token, err := utils.GenerateToken(user.ID.Hex(), "", utils.LocalTokenTTL)
	require.NoError(t, err)

	reached := false
	handler := JWTAuth(stubLookup(user))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		got, ok := UserFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, user.ID, got.ID)
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	request.AddCookie(&http.Cookie{Name: "token", Value: token})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestJWTAuthValidBearer(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{ID: primitive.NewObjectID()}
	token, err := utils.GenerateToken(user.ID.Hex(), "", utils.LocalTokenTTL)
	require.NoError(t, err)

	handler := JWTAuth(stubLookup(user))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestJWTAuthUnknownUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken(primitive.NewObjectID().Hex(), "", utils.LocalTokenTTL)
	require.NoError(t, err)

	handler := JWTAuth(stubLookup(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAdminOnly(t *testing.T) {
	admin := &models.User{ID: primitive.NewObjectID(), IsAdmin: true}
	member := &models.User{ID: primitive.NewObjectID()}

	handler := AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, tc := range []struct {
		name string
		user *models.User
		want int
	}{
		{"admin passes", admin, http.StatusOK},
		{"member rejected", member, http.StatusForbidden},
		{"anonymous rejected", nil, http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/users/get-team", nil)
			if tc.user != nil {
				ctx := context.WithValue(request.Context(), userKey, tc.user)
				request = request.WithContext(ctx)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)
			assert.Equal(t, tc.want, recorder.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight should not reach the handler")
	}))

	request := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	request.Header.Set("Origin", "http://localhost:5173")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "http://localhost:5173", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", recorder.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSUnknownOrigin(t *testing.T) {
	handler := CORS([]string{"http://localhost:5173"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	request.Header.Set("Origin", "http://evil.example.com")

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
}
