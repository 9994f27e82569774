package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/premsla/Task-Management/logging"
	"github.com/premsla/Task-Management/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrForbidden    = errors.New("you don't have permission to delete this task")
)

type TaskService struct {
	tasksCollection *mongo.Collection
	usersCollection *mongo.Collection
	noticeService   *NoticeService
}

func NewTaskService(db *mongo.Database, noticeService *NoticeService) *TaskService {
	return &TaskService{
		tasksCollection: db.Collection("tasks"),
		usersCollection: db.Collection("users"),
		noticeService:   noticeService,
	}
}

// CreateTaskRequest carries the create/update payload. Links arrive as a
// single comma-separated string, matching the client form field.
type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Team        []string `json:"team"`
	Stage       string   `json:"stage"`
	Date        string   `json:"date"`
	Priority    string   `json:"priority"`
	Assets      []string `json:"assets"`
	Links       string   `json:"links"`
	Description string   `json:"description"`
}

// ensureCreator guarantees the creator appears in the team exactly once.
func ensureCreator(team []primitive.ObjectID, creator primitive.ObjectID) []primitive.ObjectID {
	for _, member := range team {
		if member == creator {
			return team
		}
	}
	return append(team, creator)
}

// normalizeStage lowercases the stage and falls back to "todo" when empty.
func normalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	if stage == "" {
		return models.StageTodo
	}
	return stage
}

// normalizePriority lowercases the priority and falls back to "normal".
func normalizePriority(priority string) string {
	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority == "" {
		return models.PriorityNormal
	}
	return priority
}

// splitLinks turns the comma-separated links field into a list, never nil.
func splitLinks(links string) []string {
	result := []string{}
	for _, link := range strings.Split(links, ",") {
		if link = strings.TrimSpace(link); link != "" {
			result = append(result, link)
		}
	}
	return result
}

// assignmentText builds the notification sent to every assignee.
func assignmentText(teamSize int, priority string, date time.Time) string {
	text := "New task has been assigned to you"
	if teamSize > 1 {
		text += fmt.Sprintf(" and %d others.", teamSize-1)
	}
	text += fmt.Sprintf(" The task priority is set a %s priority, so check and act accordingly. The task date is %s. Thank you!!!", priority, date.Format("Mon Jan 02 2006"))
	return text
}

// parseTaskDate accepts the date formats the client sends; empty dates
// default to now.
func parseTaskDate(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.000Z", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Now()
}

func parseTeam(ids []string) ([]primitive.ObjectID, error) {
	team := []primitive.ObjectID{}
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid team member ID format: %v", err)
		}
		team = append(team, objectID)
	}
	return team, nil
}

// CreateTask persists a new task, then fans out a notice to the team and
// appends the task id to each member's task list. The three steps are not
// wrapped in a transaction; a mid-sequence failure is logged and leaves the
// earlier writes in place.
func (s *TaskService) CreateTask(ctx context.Context, creatorID primitive.ObjectID, req CreateTaskRequest) (*models.Task, error) {
	team, err := parseTeam(req.Team)
	if err != nil {
		return nil, err
	}
	team = ensureCreator(team, creatorID)

	date := parseTaskDate(req.Date)
	priority := normalizePriority(req.Priority)
	text := assignmentText(len(team), priority, date)

	now := time.Now()
	task := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       req.Title,
		Team:        team,
		Stage:       normalizeStage(req.Stage),
		Priority:    priority,
		Date:        date,
		Assets:      req.Assets,
		Links:       splitLinks(req.Links),
		Description: req.Description,
		Activities: []models.Activity{{
			Type:     "assigned",
			Activity: text,
			By:       creatorID,
			Date:     now,
		}},
		SubTasks:  []models.SubTask{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if task.Assets == nil {
		task.Assets = []string{}
	}

	if _, err := s.tasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	if err := s.noticeService.Create(ctx, team, text, task.ID); err != nil {
		logging.Logger.Warnf("Event ID: NOTICE_FANOUT_FAILED, Description: Notice creation failed for task %s: %v", task.ID.Hex(), err)
	}

	for _, member := range team {
		_, err := s.usersCollection.UpdateOne(ctx,
			bson.M{"_id": member},
			bson.M{"$push": bson.M{"tasks": task.ID}},
		)
		if err != nil {
			logging.Logger.Warnf("Event ID: USER_TASKLIST_UPDATE_FAILED, Description: Failed to append task %s to user %s: %v", task.ID.Hex(), member.Hex(), err)
		}
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by user %s with %d team members.", task.ID.Hex(), creatorID.Hex(), len(team))
	return task, nil
}

// DuplicateTask clones an existing task under a "Duplicate - " title with a
// fresh assignment activity and notice fan-out.
func (s *TaskService) DuplicateTask(ctx context.Context, taskID, userID primitive.ObjectID) (*models.Task, error) {
	source, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	text := assignmentText(len(source.Team), source.Priority, source.Date)

	now := time.Now()
	duplicate := &models.Task{
		ID:          primitive.NewObjectID(),
		Title:       "Duplicate - " + source.Title,
		Team:        source.Team,
		Stage:       source.Stage,
		Priority:    source.Priority,
		Date:        source.Date,
		Assets:      source.Assets,
		Links:       source.Links,
		Description: source.Description,
		Activities: []models.Activity{{
			Type:     "assigned",
			Activity: text,
			By:       userID,
			Date:     now,
		}},
		SubTasks:  source.SubTasks,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.tasksCollection.InsertOne(ctx, duplicate); err != nil {
		return nil, fmt.Errorf("failed to duplicate task: %v", err)
	}

	if err := s.noticeService.Create(ctx, duplicate.Team, text, duplicate.ID); err != nil {
		logging.Logger.Warnf("Event ID: NOTICE_FANOUT_FAILED, Description: Notice creation failed for duplicated task %s: %v", duplicate.ID.Hex(), err)
	}

	return duplicate, nil
}

// UpdateTask overwrites the editable fields. It intentionally appends no
// activity entry, unlike create/duplicate.
func (s *TaskService) UpdateTask(ctx context.Context, taskID primitive.ObjectID, req CreateTaskRequest) error {
	team, err := parseTeam(req.Team)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"title":       req.Title,
		"date":        parseTaskDate(req.Date),
		"priority":    normalizePriority(req.Priority),
		"assets":      req.Assets,
		"stage":       normalizeStage(req.Stage),
		"team":        team,
		"links":       splitLinks(req.Links),
		"description": req.Description,
		"updatedAt":   time.Now(),
	}}

	result, err := s.tasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update)
	if err != nil {
		return fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ChangeStage updates only the workflow stage. Any stage value is accepted;
// there is no transition graph.
func (s *TaskService) ChangeStage(ctx context.Context, taskID primitive.ObjectID, stage string) error {
	update := bson.M{"$set": bson.M{"stage": normalizeStage(stage), "updatedAt": time.Now()}}
	result, err := s.tasksCollection.UpdateOne(ctx, bson.M{"_id": taskID}, update)
	if err != nil {
		return fmt.Errorf("failed to change task stage: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// ChangeSubTaskStatus toggles a sub-task's completion flag.
func (s *TaskService) ChangeSubTaskStatus(ctx context.Context, taskID, subTaskID primitive.ObjectID, status bool) error {
	result, err := s.tasksCollection.UpdateOne(ctx,
		bson.M{"_id": taskID, "subTasks._id": subTaskID},
		bson.M{"$set": bson.M{"subTasks.$.isCompleted": status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to change sub-task status: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// CreateSubTask appends a new incomplete sub-task.
func (s *TaskService) CreateSubTask(ctx context.Context, taskID primitive.ObjectID, title, tag, date string) error {
	subTask := models.SubTask{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Date:        parseTaskDate(date),
		Tag:         tag,
		IsCompleted: false,
	}

	result, err := s.tasksCollection.UpdateOne(ctx,
		bson.M{"_id": taskID},
		bson.M{"$push": bson.M{"subTasks": subTask}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to add sub-task: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// PostActivity appends a timestamped entry to the task's activity log.
func (s *TaskService) PostActivity(ctx context.Context, taskID, userID primitive.ObjectID, activityType, text string) error {
	activity := models.Activity{
		Type:     activityType,
		Activity: text,
		By:       userID,
		Date:     time.Now(),
	}

	result, err := s.tasksCollection.UpdateOne(ctx,
		bson.M{"_id": taskID},
		bson.M{"$push": bson.M{"activities": activity}},
	)
	if err != nil {
		return fmt.Errorf("failed to post activity: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// TrashTask soft-deletes a task. Only an admin or a team member may trash it.
func (s *TaskService) TrashTask(ctx context.Context, taskID, userID primitive.ObjectID, isAdmin bool) error {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}

	if !isAdmin && !containsID(task.Team, userID) {
		return ErrForbidden
	}

	_, err = s.tasksCollection.UpdateOne(ctx,
		bson.M{"_id": taskID},
		bson.M{"$set": bson.M{"isTrashed": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to trash task: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_TRASHED, Description: Task %s trashed by user %s.", taskID.Hex(), userID.Hex())
	return nil
}

// DeleteRestore executes the delete/restore action selected by actionType:
// delete, deleteAll, restore or restoreAll.
func (s *TaskService) DeleteRestore(ctx context.Context, taskID primitive.ObjectID, actionType string) error {
	var err error
	switch actionType {
	case "delete":
		_, err = s.tasksCollection.DeleteOne(ctx, bson.M{"_id": taskID})
	case "deleteAll":
		_, err = s.tasksCollection.DeleteMany(ctx, bson.M{"isTrashed": true})
	case "restore":
		var result *mongo.UpdateResult
		result, err = s.tasksCollection.UpdateOne(ctx,
			bson.M{"_id": taskID},
			bson.M{"$set": bson.M{"isTrashed": false, "updatedAt": time.Now()}},
		)
		if err == nil && result.MatchedCount == 0 {
			return ErrTaskNotFound
		}
	case "restoreAll":
		_, err = s.tasksCollection.UpdateMany(ctx,
			bson.M{"isTrashed": true},
			bson.M{"$set": bson.M{"isTrashed": false}},
		)
	default:
		return fmt.Errorf("unknown action type: %s", actionType)
	}

	if err != nil {
		return fmt.Errorf("failed to perform %s: %v", actionType, err)
	}
	return nil
}

// visibilityFilter builds the base query: exact trashed match plus, for
// non-admins, membership in the team or an empty team (tasks predating team
// assignment stay visible to everyone).
func visibilityFilter(userID primitive.ObjectID, isAdmin, isTrashed bool) bson.M {
	filter := bson.M{"isTrashed": isTrashed}
	if !isAdmin {
		filter["$or"] = bson.A{
			bson.M{"team": userID},
			bson.M{"team": bson.M{"$size": 0}},
		}
	}
	return filter
}

// listFilter layers the optional stage match and case-insensitive search
// onto the visibility filter. The search clause is ANDed with the visibility
// clause so a non-admin can never search into someone else's tasks.
func listFilter(userID primitive.ObjectID, isAdmin bool, stage string, isTrashed bool, search string) bson.M {
	filter := visibilityFilter(userID, isAdmin, isTrashed)
	if stage != "" {
		filter["stage"] = stage
	}
	if search != "" {
		searchOr := bson.A{
			bson.M{"title": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"stage": bson.M{"$regex": search, "$options": "i"}},
			bson.M{"priority": bson.M{"$regex": search, "$options": "i"}},
		}
		if visibility, ok := filter["$or"]; ok {
			delete(filter, "$or")
			filter["$and"] = bson.A{bson.M{"$or": visibility}, bson.M{"$or": searchOr}}
		} else {
			filter["$or"] = searchOr
		}
	}
	return filter
}

// GetTasks lists tasks matching the trashed flag, optional stage and
// case-insensitive search, restricted to the caller's visibility, newest
// first, with team fields populated.
func (s *TaskService) GetTasks(ctx context.Context, userID primitive.ObjectID, isAdmin bool, stage string, isTrashed bool, search string) ([]models.Task, error) {
	filter := listFilter(userID, isAdmin, stage, isTrashed, search)

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
	return tasks, nil
}

// GetTask returns a single task with populated team and activity authors.
func (s *TaskService) GetTask(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{*task}
	if err := s.populateTeams(ctx, tasks); err != nil {
		return nil, err
	}
	task = &tasks[0]

	authorIDs := make([]primitive.ObjectID, 0, len(task.Activities))
	for _, activity := range task.Activities {
		authorIDs = append(authorIDs, activity.By)
	}
	authors, err := s.lookupMembers(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	for i := range task.Activities {
		if author, ok := authors[task.Activities[i].By]; ok {
			task.Activities[i].ByName = author.Name
		}
	}

	return task, nil
}

func (s *TaskService) findTask(ctx context.Context, taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := s.tasksCollection.FindOne(ctx, bson.M{"_id": taskID}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}
	return &task, nil
}

// populateTeams resolves team references to name/title/role/email in one
// users query shared across all tasks.
func (s *TaskService) populateTeams(ctx context.Context, tasks []models.Task) error {
	memberIDs := []primitive.ObjectID{}
	for _, task := range tasks {
		memberIDs = append(memberIDs, task.Team...)
	}

	members, err := s.lookupMembers(ctx, memberIDs)
	if err != nil {
		return err
	}

	for i := range tasks {
		populated := make([]models.TeamMember, 0, len(tasks[i].Team))
		for _, id := range tasks[i].Team {
			if member, ok := members[id]; ok {
				populated = append(populated, member)
			}
		}
		tasks[i].TeamMembers = populated
	}
	return nil
}

func (s *TaskService) lookupMembers(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.TeamMember, error) {
	members := map[primitive.ObjectID]models.TeamMember{}
	if len(ids) == 0 {
		return members, nil
	}

	projection := options.Find().SetProjection(bson.M{"name": 1, "title": 1, "role": 1, "email": 1})
	cursor, err := s.usersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, projection)
	if err != nil {
		return nil, fmt.Errorf("failed to populate team members: %v", err)
	}
	defer cursor.Close(ctx)

	var results []models.TeamMember
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode team members: %v", err)
	}
	for _, member := range results {
		members[member.ID] = member
	}
	return members, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
