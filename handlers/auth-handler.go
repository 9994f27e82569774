package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/premsla/Task-Management/config"
	"github.com/premsla/Task-Management/logging"
	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/services"
	"github.com/premsla/Task-Management/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthHandler struct {
	userService *services.UserService
	firebase    *services.FirebaseVerifier
	cfg         *config.Config
}

func NewAuthHandler(userService *services.UserService, firebase *services.FirebaseVerifier, cfg *config.Config) *AuthHandler {
	return &AuthHandler{userService: userService, firebase: firebase, cfg: cfg}
}

// ConfigureOAuth registers every social provider whose credentials are
// present. Registration happens once at startup from the explicit config,
// not from ambient globals.
func ConfigureOAuth(cfg *config.Config) {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400)
	store.Options.HttpOnly = true
	gothic.Store = store

	providers := []goth.Provider{}
	if cfg.Google.Configured() {
		providers = append(providers, google.New(
			cfg.Google.ClientID, cfg.Google.ClientSecret,
			cfg.ServerURL+"/api/auth/google/callback",
			"profile", "email",
		))
	}
	if cfg.GitHub.Configured() {
		providers = append(providers, github.New(
			cfg.GitHub.ClientID, cfg.GitHub.ClientSecret,
			cfg.ServerURL+"/api/auth/github/callback",
			"user:email",
		))
	}
	if cfg.Facebook.Configured() {
		providers = append(providers, facebook.New(
			cfg.Facebook.ClientID, cfg.Facebook.ClientSecret,
			cfg.ServerURL+"/api/auth/facebook/callback",
			"email",
		))
	}
	goth.UseProviders(providers...)

	logging.Logger.Infof("Event ID: OAUTH_CONFIGURED, Description: %d social login providers registered.", len(providers))
}

func (h *AuthHandler) providerConfigured(provider string) bool {
	switch provider {
	case models.ProviderGoogle:
		return h.cfg.Google.Configured()
	case models.ProviderGitHub:
		return h.cfg.GitHub.Configured()
	case models.ProviderFacebook:
		return h.cfg.Facebook.Configured()
	}
	return false
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			respondError(w, http.StatusBadRequest, "User already exists with this email.")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, utils.LocalTokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.SetTokenCookie(w, token, utils.LocalTokenTTL)

	respond(w, http.StatusCreated, map[string]interface{}{
		"status": true,
		"user":   user,
		"token":  token,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		// Always the same message, regardless of which check failed.
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, utils.LocalTokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.SetTokenCookie(w, token, utils.LocalTokenTTL)

	respond(w, http.StatusOK, map[string]interface{}{
		"status": true,
		"user":   user,
		"token":  token,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	utils.ClearTokenCookie(w)
	gothic.Logout(w, r)
	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Logged out successfully.",
	})
}

// BeginOAuth starts the provider flow. The optional "from" query survives
// the round trip as OAuth state so the callback knows which client page
// started the flow.
func (h *AuthHandler) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	if !h.providerConfigured(provider) {
		respond(w, http.StatusServiceUnavailable, map[string]interface{}{
			"error":   fmt.Sprintf("%s OAuth not configured", provider),
			"message": "Please configure the provider client id and secret in environment variables",
		})
		return
	}

	q := r.URL.Query()
	q.Set("provider", provider)
	if from := q.Get("from"); from != "" {
		q.Set("state", from)
	}
	r.URL.RawQuery = q.Encode()

	gothic.BeginAuthHandler(w, r)
}

func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]

	q := r.URL.Query()
	q.Set("provider", provider)
	r.URL.RawQuery = q.Encode()

	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		logging.Logger.Warnf("Event ID: OAUTH_CALLBACK_FAILED, Description: %s callback failed: %v", provider, err)
		http.Redirect(w, r, h.cfg.ClientURL+"/log-in?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	identity := services.SocialIdentity{
		Provider:   provider,
		ProviderID: gothUser.UserID,
		Email:      gothUser.Email,
		Name:       gothUser.Name,
		Avatar:     gothUser.AvatarURL,
	}
	if identity.Name == "" {
		identity.Name = gothUser.NickName
	}

	user, err := h.userService.FindOrCreateSocial(r.Context(), identity)
	if err != nil {
		logging.Logger.Errorf("Event ID: OAUTH_USER_RESOLVE_FAILED, Description: find-or-create failed for %s user: %v", provider, err)
		http.Redirect(w, r, h.cfg.ClientURL+"/log-in?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, utils.SocialTokenTTL)
	if err != nil {
		http.Redirect(w, r, h.cfg.ClientURL+"/log-in?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}
	utils.SetTokenCookie(w, token, utils.SocialTokenTTL)

	target := h.cfg.ClientURL + "/dashboard?token=" + token
	if r.URL.Query().Get("state") == "signup" {
		target = h.cfg.ClientURL + "/signup?token=" + token
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// SocialSuccess verifies a previously issued token and returns the
// sanitized profile so the client can hydrate its session after an OAuth
// redirect.
func (h *AuthHandler) SocialSuccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respond(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Token required",
		})
		return
	}

	claims, err := utils.ValidateToken(req.Token)
	if err != nil {
		respond(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Invalid token",
		})
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid user ID in token",
		})
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		respond(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "User not found",
		})
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// FirebaseSocialLogin verifies a Firebase ID token and mints the custom
// session JWT for the matching (or newly created) user.
func (h *AuthHandler) FirebaseSocialLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		respond(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Token required",
		})
		return
	}

	identity, err := h.firebase.Verify(r.Context(), req.Token)
	if err != nil {
		logging.Logger.Warnf("Event ID: FIREBASE_LOGIN_FAILED, Description: Firebase token rejected: %v", err)
		respond(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"message": "Invalid Firebase token",
		})
		return
	}

	user, err := h.userService.FindOrCreateSocial(r.Context(), services.SocialIdentity{
		Provider:   models.ProviderFirebase,
		ProviderID: identity.UID,
		Email:      identity.Email,
		Name:       identity.Name,
	})
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, utils.LocalTokenTTL)
	if err != nil {
		respond(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to generate token",
		})
		return
	}
	utils.SetTokenCookie(w, token, utils.LocalTokenTTL)

	respond(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}
