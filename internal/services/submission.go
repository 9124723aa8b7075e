package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	redisclient "github.com/shaderlabs/shaderlab-backend/internal/clients/redis"
	catalogrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/catalog"
	progressrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/progress"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	"github.com/shaderlabs/shaderlab-backend/internal/grading"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

const (
	renderWidth  = 256
	renderHeight = 256
)

// ErrRenderingUnavailable is returned by renderers that have no GPU or
// headless GL context to work with.
var ErrRenderingUnavailable = errors.New("shader rendering unavailable")

// ShaderRenderer produces an RGBA pixel buffer for a shader pair. A nil
// buffer with a nil error signals a compile/link failure, which graders treat
// as zero match rather than an error.
type ShaderRenderer interface {
	Render(ctx context.Context, vertexSource, fragmentSource string, width, height int) ([]byte, error)
}

type disabledRenderer struct{}

func (disabledRenderer) Render(ctx context.Context, vertexSource, fragmentSource string, width, height int) ([]byte, error) {
	return nil, ErrRenderingUnavailable
}

// NewDisabledRenderer is the production default: submissions come in through
// the trusted-match path and server-side rendering reports unavailable.
func NewDisabledRenderer() ShaderRenderer { return disabledRenderer{} }

// SubmitInput is the caller's submission payload. Match is the client-side
// pre-computed match degree used by the trusted submit path.
type SubmitInput struct {
	VertexShader   string  `json:"vertex_shader"`
	FragmentShader string  `json:"fragment_shader"`
	Match          float64 `json:"match"`
}

// SubmissionOutcome reports the merged result of one submission attempt.
type SubmissionOutcome struct {
	Accepted           bool                       `json:"accepted"`
	AcceptedPreviously bool                       `json:"accepted_previously"`
	StatusChanged      bool                       `json:"status_changed"`
	Score              int                        `json:"score"`
	Match              float64                    `json:"match"`
	Timestamp          time.Time                  `json:"timestamp"`
	VertexShader       string                     `json:"vertex_shader"`
	FragmentShader     string                     `json:"fragment_shader"`
	NextTaskID         *uuid.UUID                 `json:"next_task_id,omitempty"`
	NextModuleID       *uuid.UUID                 `json:"next_module_id,omitempty"`
	ModuleFinished     bool                       `json:"module_finished"`
	Achievements       []domain.EarnedAchievement `json:"achievements,omitempty"`
}

type SubmissionService interface {
	// Submit evaluates a submission with a caller-supplied match degree.
	Submit(ctx context.Context, userID, taskID uuid.UUID, in SubmitInput, now time.Time) (*SubmissionOutcome, error)
	// SubmitWithValidation renders both shader pairs server-side and compares
	// them, then shares Submit's evaluation path.
	SubmitWithValidation(ctx context.Context, userID, taskID uuid.UUID, in SubmitInput, now time.Time) (*SubmissionOutcome, error)
	History(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.UserTaskSubmission, error)
}

type submissionService struct {
	db           *gorm.DB
	log          *logger.Logger
	taskRepo     catalogrepo.TaskRepo
	userTaskRepo progressrepo.UserTaskRepo
	subRepo      progressrepo.SubmissionRepo
	renderer     ShaderRenderer
	activity     ActivityService
	scoreCache   redisclient.ScoreCache
}

func NewSubmissionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	taskRepo catalogrepo.TaskRepo,
	userTaskRepo progressrepo.UserTaskRepo,
	subRepo progressrepo.SubmissionRepo,
	renderer ShaderRenderer,
	activity ActivityService,
	scoreCache redisclient.ScoreCache,
) SubmissionService {
	return &submissionService{
		db:           db,
		log:          baseLog.With("service", "SubmissionService"),
		taskRepo:     taskRepo,
		userTaskRepo: userTaskRepo,
		subRepo:      subRepo,
		renderer:     renderer,
		activity:     activity,
		scoreCache:   scoreCache,
	}
}

func (s *submissionService) Submit(ctx context.Context, userID, taskID uuid.UUID, in SubmitInput, now time.Time) (*SubmissionOutcome, error) {
	task, payload, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := validateSources(task, in); err != nil {
		return nil, err
	}
	return s.evaluate(ctx, userID, task, payload, in, in.Match, now)
}

func (s *submissionService) SubmitWithValidation(ctx context.Context, userID, taskID uuid.UUID, in SubmitInput, now time.Time) (*SubmissionOutcome, error) {
	task, payload, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := validateSources(task, in); err != nil {
		return nil, err
	}

	vertex, fragment := effectiveSources(task, payload, in)

	var reference, candidate []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buf, err := s.renderer.Render(gctx, payload.VertexShader, payload.FragmentShader, renderWidth, renderHeight)
		if err != nil {
			return fmt.Errorf("render reference: %w", err)
		}
		if buf == nil {
			return fmt.Errorf("reference shader failed to compile for task %s", task.ID)
		}
		reference = buf
		return nil
	})
	g.Go(func() error {
		buf, err := s.renderer.Render(gctx, vertex, fragment, renderWidth, renderHeight)
		if err != nil {
			return fmt.Errorf("render candidate: %w", err)
		}
		// nil means the candidate did not compile; graded as zero match.
		candidate = buf
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	match := grading.Compare(reference, candidate)
	return s.evaluate(ctx, userID, task, payload, in, match, now)
}

func (s *submissionService) History(ctx context.Context, userID, taskID uuid.UUID) ([]*domain.UserTaskSubmission, error) {
	return s.subRepo.ListByUserTask(ctx, nil, userID, taskID)
}

func (s *submissionService) loadTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, domain.TaskPayload, error) {
	task, err := s.taskRepo.GetByID(ctx, nil, taskID)
	if err != nil {
		return nil, domain.TaskPayload{}, err
	}
	payload, err := task.Payload()
	if err != nil {
		return nil, domain.TaskPayload{}, fmt.Errorf("decode task payload: %w", err)
	}
	return task, payload, nil
}

func validateSources(task *domain.Task, in SubmitInput) error {
	if task.VertexCodeEditable && in.VertexShader == "" {
		return fmt.Errorf("%w: missing vertex shader", pkgerrors.ErrInvalidArgument)
	}
	if task.FragmentCodeEditable && in.FragmentShader == "" {
		return fmt.Errorf("%w: missing fragment shader", pkgerrors.ErrInvalidArgument)
	}
	if in.Match < 0 || in.Match > 1 {
		return fmt.Errorf("%w: match out of range", pkgerrors.ErrInvalidArgument)
	}
	return nil
}

// effectiveSources falls back to the reference source for any channel the
// task does not let the user edit, so ignored edits are never stored.
func effectiveSources(task *domain.Task, payload domain.TaskPayload, in SubmitInput) (string, string) {
	vertex := payload.VertexShader
	if task.VertexCodeEditable {
		vertex = in.VertexShader
	}
	fragment := payload.FragmentShader
	if task.FragmentCodeEditable {
		fragment = in.FragmentShader
	}
	return vertex, fragment
}

func (s *submissionService) evaluate(ctx context.Context, userID uuid.UUID, task *domain.Task, payload domain.TaskPayload, in SubmitInput, match float64, now time.Time) (*SubmissionOutcome, error) {
	score := int(math.Round(match * float64(task.Cost)))
	accepted := match*100 >= task.Threshold

	prior, err := s.userTaskRepo.Get(ctx, nil, userID, task.ID)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}
	acceptedPreviously := prior != nil && prior.Accepted

	vertex, fragment := effectiveSources(task, payload, in)

	// History first, then the merged record. A failure in either write fails
	// the whole submission so the audit trail and the current-best record
	// cannot drift apart.
	sub := &domain.UserTaskSubmission{
		UserID:   userID,
		TaskID:   task.ID,
		Score:    score,
		Accepted: accepted,
		At:       now,
	}
	if err := sub.SetPayload(domain.UserTaskPayload{VertexShader: in.VertexShader, FragmentShader: in.FragmentShader}); err != nil {
		return nil, err
	}
	if _, err := s.subRepo.Create(ctx, nil, sub); err != nil {
		return nil, fmt.Errorf("append submission history: %w", err)
	}

	ut := &domain.UserTask{
		UserID:   userID,
		TaskID:   task.ID,
		Score:    score,
		Accepted: accepted,
		Rejected: !accepted,
	}
	if accepted {
		ut.AcceptedAt = &now
	}
	if err := ut.SetPayload(domain.UserTaskPayload{VertexShader: vertex, FragmentShader: fragment}); err != nil {
		return nil, err
	}
	merged, err := s.userTaskRepo.UpsertMerge(ctx, nil, ut)
	if err != nil {
		return nil, fmt.Errorf("upsert user task: %w", err)
	}
	s.scoreCache.Invalidate(ctx, userID)

	out := &SubmissionOutcome{
		Accepted:           merged.Accepted,
		AcceptedPreviously: acceptedPreviously,
		StatusChanged:      merged.Accepted != acceptedPreviously,
		Score:              merged.Score,
		Match:              match,
		Timestamp:          now,
		VertexShader:       vertex,
		FragmentShader:     fragment,
	}

	next, err := s.userTaskRepo.NextModuleTask(ctx, nil, userID, task.ID)
	if err != nil && !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}
	if next != nil {
		nextTaskID := next.TaskID
		nextModuleID := next.ModuleID
		out.NextTaskID = &nextTaskID
		out.NextModuleID = &nextModuleID
		out.ModuleFinished = merged.Accepted && next.ModuleID != task.ModuleID
	} else {
		out.ModuleFinished = merged.Accepted
	}

	// Activity dispatch happens after persistence and never fails the
	// submission; granted achievements ride along for client notification.
	out.Achievements = append(out.Achievements, s.recordActivity(ctx, userID, domain.ActivityTaskSubmitted, now)...)
	if accepted {
		out.Achievements = append(out.Achievements, s.recordActivity(ctx, userID, domain.ActivityTaskSubmitAccepted, now)...)
	}

	return out, nil
}

func (s *submissionService) recordActivity(ctx context.Context, userID uuid.UUID, kind domain.ActivityKind, now time.Time) []domain.EarnedAchievement {
	granted, err := s.activity.RecordActivity(ctx, userID, kind, now)
	if err != nil {
		s.log.Error("activity dispatch failed", "kind", kind, "error", err)
		return nil
	}
	return granted
}
