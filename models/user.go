package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProviderLocal    = "local"
	ProviderGoogle   = "google"
	ProviderGitHub   = "github"
	ProviderFacebook = "facebook"
	ProviderFirebase = "firebase"
)

// SocialLogin describes the external identity attached to a user record
// after a social sign-in. Local accounts keep the zero value.
type SocialLogin struct {
	Provider   string `bson:"provider" json:"provider"`
	ProviderID string `bson:"providerId,omitempty" json:"providerId,omitempty"`
	Avatar     string `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

type User struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Name        string               `bson:"name" json:"name"`
	Email       string               `bson:"email" json:"email"`
	Password    string               `bson:"password,omitempty" json:"-"`
	IsAdmin     bool                 `bson:"isAdmin" json:"isAdmin"`
	Role        string               `bson:"role" json:"role"`
	Title       string               `bson:"title" json:"title"`
	IsActive    bool                 `bson:"isActive" json:"isActive"`
	SocialLogin SocialLogin          `bson:"socialLogin" json:"socialLogin"`
	Avatar      string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Tasks       []primitive.ObjectID `bson:"tasks" json:"tasks"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasPassword reports whether this account can authenticate locally.
// Social-only accounts never store a password hash.
func (u *User) HasPassword() bool {
	return u.Password != ""
}
