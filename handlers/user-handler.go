package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserHandler struct {
	userService   *services.UserService
	noticeService *services.NoticeService
}

func NewUserHandler(userService *services.UserService, noticeService *services.NoticeService) *UserHandler {
	return &UserHandler{userService: userService, noticeService: noticeService}
}

func (h *UserHandler) GetTeamList(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListTeam(r.Context())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respond(w, http.StatusOK, users)
}

func (h *UserHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	notices, err := h.noticeService.ListUnreadForUser(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if notices == nil {
		notices = []models.Notice{}
	}
	respond(w, http.StatusOK, notices)
}

// MarkNotificationRead marks one notice (isReadType=one&id=...) or every
// notice (isReadType=all) as read for the caller.
func (h *UserHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	query := r.URL.Query()
	isReadType := query.Get("isReadType")

	var noticeID primitive.ObjectID
	if isReadType == "one" {
		var err error
		noticeID, err = primitive.ObjectIDFromHex(query.Get("id"))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid notification ID format")
			return
		}
	}

	if err := h.noticeService.MarkRead(r.Context(), user.ID, isReadType, noticeID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Done",
	})
}

// UpdateProfile updates the caller's own profile, or a targeted user's when
// the caller is an admin and supplies _id.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	var req struct {
		ID    string `json:"_id"`
		Name  string `json:"name"`
		Title string `json:"title"`
		Role  string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	targetID := user.ID
	if user.IsAdmin && req.ID != "" {
		var err error
		targetID, err = primitive.ObjectIDFromHex(req.ID)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid user ID format")
			return
		}
	}

	if err := h.userService.UpdateProfile(r.Context(), targetID, req.Name, req.Title, req.Role); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Profile updated successfully.",
	})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Password is required")
		return
	}

	if err := h.userService.ChangePassword(r.Context(), user.ID, req.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Password changed successfully.",
	})
}

func (h *UserHandler) ActivateUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	var req struct {
		IsActive bool `json:"isActive"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.userService.SetActive(r.Context(), userID, req.IsActive); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	message := "User account has been disabled"
	if req.IsActive {
		message = "User account has been activated"
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": message,
	})
}

func (h *UserHandler) DeleteUserProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	if err := h.userService.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "User deleted successfully.",
	})
}
