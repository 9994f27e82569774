package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/premsla/Task-Management/config"
	"github.com/premsla/Task-Management/handlers"
	"github.com/premsla/Task-Management/logging"
	"github.com/premsla/Task-Management/middleware"
	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func buildRouter(cfg *config.Config, taskHandler *handlers.TaskHandler, authHandler *handlers.AuthHandler, userHandler *handlers.UserHandler, lookup middleware.UserLookup) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	r.Use(middleware.RequestLogger)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/signup", authHandler.Signup).Methods(http.MethodPost)
	auth.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)
	auth.HandleFunc("/social-success", authHandler.SocialSuccess).Methods(http.MethodPost)
	auth.HandleFunc("/firebase-social-login", authHandler.FirebaseSocialLogin).Methods(http.MethodPost)
	auth.HandleFunc("/{provider}", authHandler.BeginOAuth).Methods(http.MethodGet)
	auth.HandleFunc("/{provider}/callback", authHandler.OAuthCallback).Methods(http.MethodGet)

	tasks := r.PathPrefix("/api/tasks").Subrouter()
	tasks.Use(middleware.JWTAuth(lookup))
	tasks.HandleFunc("/create", taskHandler.CreateTask).Methods(http.MethodPost)
	tasks.Handle("/duplicate/{id}", middleware.AdminOnly(http.HandlerFunc(taskHandler.DuplicateTask))).Methods(http.MethodPost)
	tasks.HandleFunc("/activity/{id}", taskHandler.PostTaskActivity).Methods(http.MethodPost)
	tasks.HandleFunc("/dashboard", taskHandler.DashboardStatistics).Methods(http.MethodGet)
	tasks.HandleFunc("", taskHandler.GetTasks).Methods(http.MethodGet)
	tasks.HandleFunc("/create-subtask/{id}", taskHandler.CreateSubTask).Methods(http.MethodPut)
	tasks.HandleFunc("/update/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	tasks.HandleFunc("/change-stage/{id}", taskHandler.ChangeTaskStage).Methods(http.MethodPut)
	tasks.HandleFunc("/change-status/{taskId}/{subTaskId}", taskHandler.ChangeSubTaskStatus).Methods(http.MethodPut)
	tasks.HandleFunc("/trash/{id}", taskHandler.TrashTask).Methods(http.MethodPut)
	tasks.Handle("/delete-restore", middleware.AdminOnly(http.HandlerFunc(taskHandler.DeleteRestoreTask))).Methods(http.MethodDelete)
	tasks.Handle("/delete-restore/{id}", middleware.AdminOnly(http.HandlerFunc(taskHandler.DeleteRestoreTask))).Methods(http.MethodDelete)
	tasks.HandleFunc("/{id}", taskHandler.GetTask).Methods(http.MethodGet)

	users := r.PathPrefix("/api/users").Subrouter()
	users.Use(middleware.JWTAuth(lookup))
	users.Handle("/get-team", middleware.AdminOnly(http.HandlerFunc(userHandler.GetTeamList))).Methods(http.MethodGet)
	users.HandleFunc("/notifications", userHandler.GetNotifications).Methods(http.MethodGet)
	users.HandleFunc("/read-noti", userHandler.MarkNotificationRead).Methods(http.MethodPut)
	users.HandleFunc("/profile", userHandler.UpdateProfile).Methods(http.MethodPut)
	users.HandleFunc("/change-password", userHandler.ChangePassword).Methods(http.MethodPut)
	users.Handle("/{id}", middleware.AdminOnly(http.HandlerFunc(userHandler.ActivateUserProfile))).Methods(http.MethodPut)
	users.Handle("/{id}", middleware.AdminOnly(http.HandlerFunc(userHandler.DeleteUserProfile))).Methods(http.MethodDelete)

	return middleware.CORS(cfg.AllowedOrigins)(r)
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Management backend...")

	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB database %s.", cfg.MongoDBName)

	db := client.Database(cfg.MongoDBName)

	userService := services.NewUserService(db)
	if err := userService.EnsureIndexes(ctx); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: %v", err)
	}
	noticeService := services.NewNoticeService(db)
	taskService := services.NewTaskService(db, noticeService)

	certsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "firebase-certs-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
	firebaseVerifier := services.NewFirebaseVerifier(cfg.FirebaseProjectID, &http.Client{Timeout: 10 * time.Second}, certsBreaker)

	handlers.ConfigureOAuth(cfg)

	taskHandler := handlers.NewTaskHandler(taskService)
	authHandler := handlers.NewAuthHandler(userService, firebaseVerifier, cfg)
	userHandler := handlers.NewUserHandler(userService, noticeService)

	lookup := func(ctx context.Context, userID string) (*models.User, error) {
		objectID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return nil, err
		}
		return userService.GetByID(ctx, objectID)
	}

	router := buildRouter(cfg, taskHandler, authHandler, userHandler, lookup)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, router); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
