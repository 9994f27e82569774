package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/premsla/Task-Management/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChartPoint struct {
	Name  string `json:"name"`
	Total int    `json:"total"`
}

// DashboardSummary is the per-request aggregate over the caller's visible,
// non-trashed tasks. Recomputed on every request; nothing is materialized.
type DashboardSummary struct {
	TotalTasks int            `json:"totalTasks"`
	Last10Task []models.Task  `json:"last10Task"`
	Users      []models.User  `json:"users"`
	Tasks      map[string]int `json:"tasks"`
	GraphData  []ChartPoint   `json:"graphData"`
}

// buildDashboard groups tasks by stage and priority in a single pass.
// Tasks must already be sorted newest first.
func buildDashboard(tasks []models.Task, users []models.User, isAdmin bool) DashboardSummary {
	byStage := map[string]int{}
	byPriority := map[string]int{}
	for _, task := range tasks {
		byStage[task.Stage]++
		byPriority[task.Priority]++
	}

	graphData := make([]ChartPoint, 0, len(byPriority))
	for name, total := range byPriority {
		graphData = append(graphData, ChartPoint{Name: name, Total: total})
	}
	sort.Slice(graphData, func(i, j int) bool { return graphData[i].Name < graphData[j].Name })

	last10 := tasks
	if len(last10) > 10 {
		last10 = last10[:10]
	}

	if !isAdmin {
		users = []models.User{}
	}

	return DashboardSummary{
		TotalTasks: len(tasks),
		Last10Task: last10,
		Users:      users,
		Tasks:      byStage,
		GraphData:  graphData,
	}
}

// Dashboard loads the caller's visible non-trashed tasks and, for admins,
// the ten most recently created active users, then aggregates them.
func (s *TaskService) Dashboard(ctx context.Context, userID primitive.ObjectID, isAdmin bool) (*DashboardSummary, error) {
	filter := visibilityFilter(userID, isAdmin, false)

	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	cursor, err := s.tasksCollection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	if err := s.populateTeams(ctx, tasks); err != nil {
		return nil, err
	}

	var users []models.User
	if isAdmin {
		userOptions := options.Find().
			SetProjection(bson.M{"name": 1, "title": 1, "role": 1, "isActive": 1, "createdAt": 1}).
			SetSort(bson.D{{Key: "_id", Value: -1}}).
			SetLimit(10)
		userCursor, err := s.usersCollection.Find(ctx, bson.M{"isActive": true}, userOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve users: %v", err)
		}
		defer userCursor.Close(ctx)
		if err := userCursor.All(ctx, &users); err != nil {
			return nil, fmt.Errorf("failed to decode users: %v", err)
		}
	}

	summary := buildDashboard(tasks, users, isAdmin)
	return &summary, nil
}
