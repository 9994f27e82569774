package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/premsla/Task-Management/middleware"
	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// caller pulls the authenticated user loaded by the JWT middleware.
func caller(r *http.Request) (*models.User, bool) {
	return middleware.UserFromContext(r.Context())
}

func taskIDVar(r *http.Request, name string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(mux.Vars(r)[name])
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	var req services.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	task, err := h.service.CreateTask(r.Context(), user.ID, req)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"task":    task,
		"message": "Task created successfully.",
	})
}

func (h *TaskHandler) DuplicateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	taskID, err := taskIDVar(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	if _, err := h.service.DuplicateTask(r.Context(), taskID, user.ID); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Task duplicated successfully.",
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDVar(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var req services.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.service.UpdateTask(r.Context(), taskID, req); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Task updated successfully.",
	})
}

func (h *TaskHandler) ChangeTaskStage(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDVar(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var req struct {
		Stage string `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.service.ChangeStage(r.Context(), taskID, req.Stage); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Task stage changed successfully.",
	})
}

func (h *TaskHandler) ChangeSubTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDVar(r, "taskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}
	subTaskID, err := taskIDVar(r, "subTaskId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sub-task ID format")
		return
	}

	var req struct {
		Status bool `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.service.ChangeSubTaskStatus(r.Context(), taskID, subTaskID, req.Status); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	message := "Task has been marked uncompleted"
	if req.Status {
		message = "Task has been marked completed"
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": message,
	})
}

func (h *TaskHandler) CreateSubTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDVar(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var req struct {
		Title string `json:"title"`
		Tag   string `json:"tag"`
		Date  string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.service.CreateSubTask(r.Context(), taskID, req.Title, req.Tag, req.Date); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "SubTask added successfully.",
	})
}

func (h *TaskHandler) PostTaskActivity(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	taskID, err := taskIDVar(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	var req struct {
		Type     string `json:"type"`
		Activity string `json:"activity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if err := h.service.PostActivity(r.Context(), taskID, user.ID, req.Type, req.Activity); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Activity posted successfully.",
	})
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	query := r.URL.Query()
	stage := query.Get("stage")
	search := query.Get("search")
	isTrashedParam := query.Get("isTrashed")
	isTrashed := isTrashedParam != "" && isTrashedParam != "false"

	tasks, err := h.service.GetTasks(r.Context(), user.ID, user.IsAdmin, stage, isTrashed, search)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status": true,
		"tasks":  tasks,
	})
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := taskIDVar(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status": true,
		"task":   task,
	})
}

func (h *TaskHandler) TrashTask(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	taskID, err := taskIDVar(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid task ID format")
		return
	}

	if err := h.service.TrashTask(r.Context(), taskID, user.ID, user.IsAdmin); err != nil {
		switch {
		case errors.Is(err, services.ErrTaskNotFound):
			respondError(w, http.StatusNotFound, "Task not found")
		case errors.Is(err, services.ErrForbidden):
			respondError(w, http.StatusForbidden, "You don't have permission to delete this task")
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Task trashed successfully.",
	})
}

func (h *TaskHandler) DeleteRestoreTask(w http.ResponseWriter, r *http.Request) {
	actionType := r.URL.Query().Get("actionType")

	var taskID primitive.ObjectID
	if idStr := mux.Vars(r)["id"]; idStr != "" {
		var err error
		taskID, err = primitive.ObjectIDFromHex(idStr)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid task ID format")
			return
		}
	}

	if err := h.service.DeleteRestore(r.Context(), taskID, actionType); err != nil {
		if errors.Is(err, services.ErrTaskNotFound) {
			respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":  true,
		"message": "Operation performed successfully.",
	})
}

func (h *TaskHandler) DashboardStatistics(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized. Try login again.")
		return
	}

	summary, err := h.service.Dashboard(r.Context(), user.ID, user.IsAdmin)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"status":     true,
		"totalTasks": summary.TotalTasks,
		"last10Task": summary.Last10Task,
		"users":      summary.Users,
		"tasks":      summary.Tasks,
		"graphData":  summary.GraphData,
		"message":    "Successfully.",
	})
}
