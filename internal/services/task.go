package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/catalog"
	progressrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/progress"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

// TaskView is a task as seen by one user: the editor is seeded with the
// user's last effective sources when they exist, otherwise the defaults.
type TaskView struct {
	Task           *domain.Task `json:"task"`
	Description    string       `json:"description"`
	VertexShader   string       `json:"vertex_shader"`
	FragmentShader string       `json:"fragment_shader"`
	Likes          int          `json:"likes"`
	Dislikes       int          `json:"dislikes"`
	Liked          *bool        `json:"liked,omitempty"`
}

type CreateTaskInput struct {
	ModuleID             uuid.UUID
	Name                 string
	Cost                 int
	Threshold            float64
	Visibility           bool
	VertexCodeEditable   bool
	FragmentCodeEditable bool
	Animated             bool
	AnimationSteps       int
	AnimationStepTime    int
	Payload              domain.TaskPayload
	CreatedBy            uuid.UUID
}

type TaskFeedbackInput struct {
	UnclearDescription bool   `json:"unclear_description"`
	StrictRuntime      bool   `json:"strict_runtime"`
	Other              bool   `json:"other"`
	Message            string `json:"message"`
}

type TaskService interface {
	Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	SetVisibility(ctx context.Context, taskID uuid.UUID, visible bool) error
	GetForUser(ctx context.Context, userID, taskID uuid.UUID) (*TaskView, error)
	ListByModule(ctx context.Context, moduleID uuid.UUID) ([]*domain.Task, error)
	List(ctx context.Context) ([]*domain.Task, error)
	SetLiked(ctx context.Context, userID, taskID uuid.UUID, liked bool) error
	SubmitFeedback(ctx context.Context, userID, taskID uuid.UUID, in TaskFeedbackInput) error
}

type taskService struct {
	db           *gorm.DB
	log          *logger.Logger
	taskRepo     catalogrepo.TaskRepo
	feedbackRepo catalogrepo.FeedbackRepo
	userTaskRepo progressrepo.UserTaskRepo
}

func NewTaskService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taskRepo catalogrepo.TaskRepo,
	feedbackRepo catalogrepo.FeedbackRepo,
	userTaskRepo progressrepo.UserTaskRepo,
) TaskService {
	return &taskService{
		db:           db,
		log:          baseLog.With("service", "TaskService"),
		taskRepo:     taskRepo,
		feedbackRepo: feedbackRepo,
		userTaskRepo: userTaskRepo,
	}
}

func (s *taskService) Create(ctx context.Context, in CreateTaskInput) (*domain.Task, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: task name required", pkgerrors.ErrInvalidArgument)
	}
	if _, err := s.taskRepo.GetByName(ctx, nil, in.Name); err == nil {
		return nil, fmt.Errorf("%w: task name %q taken", pkgerrors.ErrConflict, in.Name)
	} else if !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}

	last, err := s.taskRepo.LastOrder(ctx, nil, in.ModuleID)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		ModuleID:             in.ModuleID,
		Name:                 in.Name,
		Order:                last + 1,
		Cost:                 in.Cost,
		Threshold:            in.Threshold,
		Visibility:           in.Visibility,
		VertexCodeEditable:   in.VertexCodeEditable,
		FragmentCodeEditable: in.FragmentCodeEditable,
		Animated:             in.Animated,
		AnimationSteps:       in.AnimationSteps,
		AnimationStepTime:    in.AnimationStepTime,
		CreatedBy:            in.CreatedBy,
	}
	if err := task.SetPayload(in.Payload); err != nil {
		return nil, err
	}
	return s.taskRepo.Create(ctx, nil, task)
}

func (s *taskService) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	existing, err := s.taskRepo.GetByName(ctx, nil, task.Name)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.ID != task.ID {
		return nil, fmt.Errorf("%w: task name %q taken", pkgerrors.ErrConflict, task.Name)
	}
	if err := s.taskRepo.Update(ctx, nil, task); err != nil {
		return nil, err
	}
	return s.taskRepo.GetByID(ctx, nil, task.ID)
}

func (s *taskService) SetVisibility(ctx context.Context, taskID uuid.UUID, visible bool) error {
	return s.taskRepo.SetVisibility(ctx, nil, taskID, visible)
}

func (s *taskService) GetForUser(ctx context.Context, userID, taskID uuid.UUID) (*TaskView, error) {
	task, err := s.taskRepo.GetByID(ctx, nil, taskID)
	if err != nil {
		return nil, err
	}
	payload, err := task.Payload()
	if err != nil {
		return nil, err
	}

	view := &TaskView{
		Task:           task,
		Description:    payload.Description,
		VertexShader:   payload.DefaultVertexShader,
		FragmentShader: payload.DefaultFragmentShader,
	}

	ut, err := s.userTaskRepo.Get(ctx, nil, userID, taskID)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}
	if ut != nil {
		view.Liked = ut.Liked
		up, err := ut.Payload()
		if err != nil {
			return nil, err
		}
		if up.VertexShader != "" {
			view.VertexShader = up.VertexShader
		}
		if up.FragmentShader != "" {
			view.FragmentShader = up.FragmentShader
		}
	}

	likes, err := s.taskRepo.CountVotes(ctx, nil, taskID, true)
	if err != nil {
		return nil, err
	}
	dislikes, err := s.taskRepo.CountVotes(ctx, nil, taskID, false)
	if err != nil {
		return nil, err
	}
	view.Likes = likes
	view.Dislikes = dislikes
	return view, nil
}

func (s *taskService) ListByModule(ctx context.Context, moduleID uuid.UUID) ([]*domain.Task, error) {
	return s.taskRepo.ListByModule(ctx, nil, moduleID)
}

func (s *taskService) List(ctx context.Context) ([]*domain.Task, error) {
	return s.taskRepo.List(ctx, nil)
}

func (s *taskService) SetLiked(ctx context.Context, userID, taskID uuid.UUID, liked bool) error {
	err := s.userTaskRepo.SetLiked(ctx, nil, userID, taskID, liked)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		// Voting without a prior submission creates an empty record first.
		if _, uerr := s.userTaskRepo.UpsertMerge(ctx, nil, &domain.UserTask{
			UserID: userID,
			TaskID: taskID,
		}); uerr != nil {
			return uerr
		}
		return s.userTaskRepo.SetLiked(ctx, nil, userID, taskID, liked)
	}
	return err
}

func (s *taskService) SubmitFeedback(ctx context.Context, userID, taskID uuid.UUID, in TaskFeedbackInput) error {
	if _, err := s.taskRepo.GetByID(ctx, nil, taskID); err != nil {
		return err
	}
	_, err := s.feedbackRepo.Create(ctx, nil, &domain.TaskFeedback{
		UserID:             userID,
		TaskID:             taskID,
		UnclearDescription: in.UnclearDescription,
		StrictRuntime:      in.StrictRuntime,
		Other:              in.Other,
		Message:            in.Message,
		CreatedAt:          time.Now().UTC(),
	})
	return err
}
