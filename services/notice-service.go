package services

import (
	"context"
	"fmt"
	"time"

	"github.com/premsla/Task-Management/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NoticeService struct {
	noticesCollection *mongo.Collection
	tasksCollection   *mongo.Collection
}

func NewNoticeService(db *mongo.Database) *NoticeService {
	return &NoticeService{
		noticesCollection: db.Collection("notices"),
		tasksCollection:   db.Collection("tasks"),
	}
}

// Create inserts a fan-out notice for every member of the team.
func (s *NoticeService) Create(ctx context.Context, team []primitive.ObjectID, text string, taskID primitive.ObjectID) error {
	if len(team) == 0 || text == "" {
		return fmt.Errorf("team and text are required")
	}

	notice := models.Notice{
		ID:        primitive.NewObjectID(),
		Team:      team,
		Text:      text,
		Task:      taskID,
		NotiType:  "alert",
		IsRead:    []primitive.ObjectID{},
		CreatedAt: time.Now(),
	}

	if _, err := s.noticesCollection.InsertOne(ctx, notice); err != nil {
		return fmt.Errorf("failed to create notice: %v", err)
	}
	return nil
}

// ListUnreadForUser returns the caller's unread notices, newest first,
// with the referenced task titles attached.
func (s *NoticeService) ListUnreadForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Notice, error) {
	filter := bson.M{
		"team":   userID,
		"isRead": bson.M{"$nin": bson.A{userID}},
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := s.noticesCollection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve notices: %v", err)
	}
	defer cursor.Close(ctx)

	var notices []models.Notice
	if err := cursor.All(ctx, &notices); err != nil {
		return nil, fmt.Errorf("failed to decode notices: %v", err)
	}

	if err := s.populateTaskTitles(ctx, notices); err != nil {
		return nil, err
	}
	return notices, nil
}

// MarkRead records the caller in the read set of one notice (isReadType
// "one" plus a notice id) or of all their notices (isReadType "all").
func (s *NoticeService) MarkRead(ctx context.Context, userID primitive.ObjectID, isReadType string, noticeID primitive.ObjectID) error {
	update := bson.M{"$push": bson.M{"isRead": userID}}

	var err error
	switch isReadType {
	case "all":
		_, err = s.noticesCollection.UpdateMany(ctx,
			bson.M{"team": userID, "isRead": bson.M{"$nin": bson.A{userID}}},
			update,
		)
	case "one":
		_, err = s.noticesCollection.UpdateOne(ctx,
			bson.M{"_id": noticeID, "isRead": bson.M{"$nin": bson.A{userID}}},
			update,
		)
	default:
		return fmt.Errorf("unknown isReadType: %s", isReadType)
	}

	if err != nil {
		return fmt.Errorf("failed to mark notice read: %v", err)
	}
	return nil
}

func (s *NoticeService) populateTaskTitles(ctx context.Context, notices []models.Notice) error {
	taskIDs := make([]primitive.ObjectID, 0, len(notices))
	for _, notice := range notices {
		taskIDs = append(taskIDs, notice.Task)
	}
	if len(taskIDs) == 0 {
		return nil
	}

	projection := options.Find().SetProjection(bson.M{"title": 1})
	cursor, err := s.tasksCollection.Find(ctx, bson.M{"_id": bson.M{"$in": taskIDs}}, projection)
	if err != nil {
		return fmt.Errorf("failed to populate notice tasks: %v", err)
	}
	defer cursor.Close(ctx)

	titles := map[primitive.ObjectID]string{}
	for cursor.Next(ctx) {
		var task struct {
			ID    primitive.ObjectID `bson:"_id"`
			Title string             `bson:"title"`
		}
		if err := cursor.Decode(&task); err != nil {
			return fmt.Errorf("failed to decode notice task: %v", err)
		}
		titles[task.ID] = task.Title
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("cursor error: %v", err)
	}

	for i := range notices {
		notices[i].TaskTitle = titles[notices[i].Task]
	}
	return nil
}
