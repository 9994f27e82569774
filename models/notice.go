package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notice is the fan-out record created alongside a task for every team
// member. IsRead collects the ids of users who opened it.
type Notice struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Team      []primitive.ObjectID `bson:"team" json:"team"`
	Text      string               `bson:"text" json:"text"`
	Task      primitive.ObjectID   `bson:"task" json:"task"`
	TaskTitle string               `bson:"-" json:"taskTitle,omitempty"`
	NotiType  string               `bson:"notiType" json:"notiType"`
	IsRead    []primitive.ObjectID `bson:"isRead" json:"isRead"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
}
