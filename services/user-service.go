package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/premsla/Task-Management/logging"
	"github.com/premsla/Task-Management/models"
	"github.com/premsla/Task-Management/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// SocialIdentity is the normalized record every OAuth strategy produces.
// One find-or-create routine consumes it regardless of provider.
type SocialIdentity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
	Avatar     string
}

type UserService struct {
	UserCollection *mongo.Collection
}

func NewUserService(db *mongo.Database) *UserService {
	return &UserService{UserCollection: db.Collection("users")}
}

// EnsureIndexes creates the unique email index at startup.
func (s *UserService) EnsureIndexes(ctx context.Context) error {
	_, err := s.UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %v", err)
	}
	return nil
}

// Register creates a local account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	var existing models.User
	if err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&existing); err == nil {
		return nil, ErrEmailTaken
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		ID:          primitive.NewObjectID(),
		Name:        html.EscapeString(name),
		Email:       email,
		Password:    hashed,
		IsAdmin:     false,
		IsActive:    true,
		SocialLogin: models.SocialLogin{Provider: models.ProviderLocal},
		Tasks:       []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.UserCollection.InsertOne(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save user: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: New user registered with email %s.", email)
	return user, nil
}

// Login authenticates a local account. All failure modes collapse into
// ErrInvalidCredentials so account existence is never revealed.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Social-only accounts have no password hash to compare against.
	if !user.HasPassword() {
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// FindOrCreateSocial resolves an external identity to a user record:
// lookup by (provider, providerId), then by email (attaching the provider
// metadata), then create with the default non-admin role.
func (s *UserService) FindOrCreateSocial(ctx context.Context, identity SocialIdentity) (*models.User, error) {
	var user models.User

	err := s.UserCollection.FindOne(ctx, bson.M{
		"socialLogin.provider":   identity.Provider,
		"socialLogin.providerId": identity.ProviderID,
	}).Decode(&user)
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up social user: %v", err)
	}

	email := identity.Email
	if email == "" {
		email = fmt.Sprintf("%s@%s.local", identity.ProviderID, identity.Provider)
	}

	social := models.SocialLogin{
		Provider:   identity.Provider,
		ProviderID: identity.ProviderID,
		Avatar:     identity.Avatar,
	}

	err = s.UserCollection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == nil {
		_, err = s.UserCollection.UpdateOne(ctx,
			bson.M{"_id": user.ID},
			bson.M{"$set": bson.M{"socialLogin": social, "avatar": identity.Avatar, "updatedAt": time.Now()}},
		)
		if err != nil {
			return nil, fmt.Errorf("failed to attach social login: %v", err)
		}
		user.SocialLogin = social
		user.Avatar = identity.Avatar
		return &user, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to look up user by email: %v", err)
	}

	title := "Team Member"
	if identity.Provider == models.ProviderGitHub {
		title = "Developer"
	}

	now := time.Now()
	created := &models.User{
		ID:          primitive.NewObjectID(),
		Name:        identity.Name,
		Email:       email,
		Role:        "Employee",
		Title:       title,
		IsActive:    true,
		SocialLogin: social,
		Avatar:      identity.Avatar,
		Tasks:       []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.UserCollection.InsertOne(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create social user: %v", err)
	}

	logging.Logger.Infof("Event ID: SOCIAL_USER_CREATED, Description: New %s user created for email %s.", identity.Provider, email)
	return created, nil
}

func (s *UserService) GetByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.UserCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %v", err)
	}
	return &user, nil
}

// ListTeam returns every user with the fields the team picker needs.
func (s *UserService) ListTeam(ctx context.Context) ([]models.User, error) {
	projection := options.Find().SetProjection(bson.M{
		"name": 1, "title": 1, "role": 1, "email": 1, "isActive": 1, "isAdmin": 1, "avatar": 1,
	})
	cursor, err := s.UserCollection.Find(ctx, bson.M{}, projection)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve team: %v", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode team: %v", err)
	}
	return users, nil
}

// UpdateProfile overwrites name, title and role on the target user.
func (s *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, name, title, role string) error {
	result, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{
			"name":      html.EscapeString(name),
			"title":     title,
			"role":      role,
			"updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ChangePassword recomputes the bcrypt hash. This is the only path on which
// the stored hash changes.
func (s *UserService) ChangePassword(ctx context.Context, userID primitive.ObjectID, newPassword string) error {
	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	result, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"password": hashed, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to change password: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetActive toggles the isActive flag (admin action).
func (s *UserService) SetActive(ctx context.Context, userID primitive.ObjectID, isActive bool) error {
	result, err := s.UserCollection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"isActive": isActive, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update user status: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete hard-deletes a user record (admin action).
func (s *UserService) Delete(ctx context.Context, userID primitive.ObjectID) error {
	result, err := s.UserCollection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}
