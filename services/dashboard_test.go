package services

import (
	"fmt"
	"testing"

	"github.com/premsla/Task-Management/models"

	"github.com/stretchr/testify/assert"
)

func makeTasks(stages []string, priorities []string) []models.Task {
	tasks := make([]models.Task, len(stages))
	for i := range stages {
		tasks[i] = models.Task{
			Title:    fmt.Sprintf("task-%d", i),
			Stage:    stages[i],
			Priority: priorities[i],
		}
	}
	return tasks
}

func TestBuildDashboardStageCountsSumToTotal(t *testing.T) {
	tasks := makeTasks(
		[]string{models.StageTodo, models.StageTodo, models.StageInProgress, models.StageCompleted, models.StageTodo},
		[]string{models.PriorityHigh, models.PriorityLow, models.PriorityHigh, models.PriorityNormal, models.PriorityMedium},
	)

	summary := buildDashboard(tasks, nil, true)

	assert.Equal(t, 5, summary.TotalTasks)

	sum := 0
	for _, count := range summary.Tasks {
		sum += count
	}
	assert.Equal(t, summary.TotalTasks, sum)
	assert.Equal(t, 3, summary.Tasks["todo"])
	assert.Equal(t, 1, summary.Tasks["in progress"])
	assert.Equal(t, 1, summary.Tasks["completed"])
}

func TestBuildDashboardGraphData(t *testing.T) {
	tasks := makeTasks(
		[]string{models.StageTodo, models.StageTodo, models.StageTodo},
		[]string{models.PriorityHigh, models.PriorityHigh, models.PriorityLow},
	)

	summary := buildDashboard(tasks, nil, true)

	assert.Equal(t, []ChartPoint{
		{Name: "high", Total: 2},
		{Name: "low", Total: 1},
	}, summary.GraphData)
}

func TestBuildDashboardLast10Cap(t *testing.T) {
	stages := make([]string, 14)
	priorities := make([]string, 14)
	for i := range stages {
		stages[i] = "todo"
		priorities[i] = "normal"
	}
	tasks := makeTasks(stages, priorities)

	summary := buildDashboard(tasks, nil, true)

	assert.Len(t, summary.Last10Task, 10)
	assert.Equal(t, 14, summary.TotalTasks)
	// The slice keeps the incoming (newest-first) order.
	assert.Equal(t, "task-0", summary.Last10Task[0].Title)
}

func TestBuildDashboardHidesUsersFromNonAdmins(t *testing.T) {
	users := []models.User{{Name: "someone"}}

	adminSummary := buildDashboard(nil, users, true)
	assert.Len(t, adminSummary.Users, 1)

	memberSummary := buildDashboard(nil, users, false)
	assert.Empty(t, memberSummary.Users)
}

func TestBuildDashboardEmpty(t *testing.T) {
	summary := buildDashboard(nil, nil, false)

	assert.Equal(t, 0, summary.TotalTasks)
	assert.Empty(t, summary.Last10Task)
	assert.Empty(t, summary.GraphData)
	assert.Empty(t, summary.Tasks)
}
