package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/premsla/Task-Management/config"
	"github.com/premsla/Task-Management/handlers"
	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testRouter builds the full route tree with a lookup that always resolves
// to the given user, so guard behavior can be checked without a database.
func testRouter(user *models.User) http.Handler {
	cfg := &config.Config{AllowedOrigins: []string{"http://localhost:5173"}}
	lookup := func(ctx context.Context, userID string) (*models.User, error) {
		return user, nil
	}
	return buildRouter(cfg,
		handlers.NewTaskHandler(nil),
		handlers.NewAuthHandler(nil, nil, cfg),
		handlers.NewUserHandler(nil, nil),
		lookup,
	)
}

func authedRequest(t *testing.T, user *models.User, method, target string) *http.Request {
	t.Helper()

	token, err := utils.GenerateToken(user.ID.Hex(), "", utils.LocalTokenTTL)
	require.NoError(t, err)

	request := httptest.NewRequest(method, target, nil)
	request.Header.Set("Authorization", "Bearer "+token)
	return request
}

func TestDuplicateTaskRequiresAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	member := &models.User{ID: primitive.NewObjectID()}
	request := authedRequest(t, member, http.MethodPost, "/api/tasks/duplicate/"+primitive.NewObjectID().Hex())

	recorder := httptest.NewRecorder()
	testRouter(member).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestDeleteRestoreRequiresAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	member := &models.User{ID: primitive.NewObjectID()}
	request := authedRequest(t, member, http.MethodDelete, "/api/tasks/delete-restore?actionType=deleteAll")

	recorder := httptest.NewRecorder()
	testRouter(member).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
