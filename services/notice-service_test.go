package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNoticeCreateRequiresTeamAndText(t *testing.T) {
	service := &NoticeService{}

	err := service.Create(context.Background(), nil, "text", primitive.NewObjectID())
	assert.Error(t, err)

	err = service.Create(context.Background(), []primitive.ObjectID{primitive.NewObjectID()}, "", primitive.NewObjectID())
	assert.Error(t, err)
}

func TestMarkReadRejectsUnknownType(t *testing.T) {
	service := &NoticeService{}

	err := service.MarkRead(context.Background(), primitive.NewObjectID(), "everything", primitive.NilObjectID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown isReadType")
}
