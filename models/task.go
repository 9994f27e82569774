package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StageTodo       = "todo"
	StageInProgress = "in progress"
	StageCompleted  = "completed"
)

const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// Activity is one entry in a task's activity log.
type Activity struct {
	Type     string             `bson:"type" json:"type"`
	Activity string             `bson:"activity" json:"activity"`
	By       primitive.ObjectID `bson:"by" json:"by"`
	ByName   string             `bson:"-" json:"byName,omitempty"`
	Date     time.Time          `bson:"date" json:"date"`
}

type SubTask struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	Title       string             `bson:"title" json:"title"`
	Date        time.Time          `bson:"date" json:"date"`
	Tag         string             `bson:"tag" json:"tag"`
	IsCompleted bool               `bson:"isCompleted" json:"isCompleted"`
}

// TeamMember is the populated projection of a team reference returned to
// clients on task reads.
type TeamMember struct {
	ID    primitive.ObjectID `bson:"_id" json:"_id"`
	Name  string             `bson:"name" json:"name"`
	Title string             `bson:"title" json:"title"`
	Role  string             `bson:"role" json:"role,omitempty"`
	Email string             `bson:"email" json:"email"`
}

type Task struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title       string               `bson:"title" json:"title"`
	Team        []primitive.ObjectID `bson:"team" json:"team"`
	Stage       string               `bson:"stage" json:"stage"`
	Priority    string               `bson:"priority" json:"priority"`
	Date        time.Time            `bson:"date" json:"date"`
	Assets      []string             `bson:"assets" json:"assets"`
	Links       []string             `bson:"links" json:"links"`
	Description string               `bson:"description" json:"description"`
	Activities  []Activity           `bson:"activities" json:"activities"`
	SubTasks    []SubTask            `bson:"subTasks" json:"subTasks"`
	IsTrashed   bool                 `bson:"isTrashed" json:"isTrashed"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`

	// TeamMembers carries the populated team on reads; never persisted.
	TeamMembers []TeamMember `bson:"-" json:"teamMembers,omitempty"`
}
