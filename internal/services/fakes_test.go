package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
)

// In-memory repo fakes shared by the service tests in this package.

type fakeTaskRepo struct {
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskRepo(tasks ...*domain.Task) *fakeTaskRepo {
	m := make(map[uuid.UUID]*domain.Task, len(tasks))
	for _, task := range tasks {
		m[task.ID] = task
	}
	return &fakeTaskRepo{tasks: m}
}

func (f *fakeTaskRepo) Create(ctx context.Context, tx *gorm.DB, task *domain.Task) (*domain.Task, error) {
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, tx *gorm.DB, task *domain.Task) error {
	if _, ok := f.tasks[task.ID]; !ok {
		return pkgerrors.ErrNotFound
	}
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskRepo) SetVisibility(ctx context.Context, tx *gorm.DB, id uuid.UUID, visible bool) error {
	task, ok := f.tasks[id]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	task.Visibility = visible
	return nil
}

func (f *fakeTaskRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return task, nil
}

func (f *fakeTaskRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Task, error) {
	for _, task := range f.tasks {
		if task.Name == name {
			return task, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeTaskRepo) LastOrder(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (int, error) {
	last := -1
	for _, task := range f.tasks {
		if task.ModuleID == moduleID && task.Order > last {
			last = task.Order
		}
	}
	return last, nil
}

func (f *fakeTaskRepo) ListByModule(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.ModuleID == moduleID {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Task, error) {
	var out []*domain.Task
	for _, task := range f.tasks {
		out = append(out, task)
	}
	return out, nil
}

func (f *fakeTaskRepo) CountVotes(ctx context.Context, tx *gorm.DB, taskID uuid.UUID, liked bool) (int, error) {
	return 0, nil
}

type fakeUserTaskRepo struct {
	records   map[string]*domain.UserTask
	nextTask  *domain.TaskResult
	results   []domain.TaskResult
	upsertErr error
	score     int
	scoreHits int
}

func newFakeUserTaskRepo() *fakeUserTaskRepo {
	return &fakeUserTaskRepo{records: make(map[string]*domain.UserTask)}
}

func userTaskKey(userID, taskID uuid.UUID) string {
	return userID.String() + "/" + taskID.String()
}

func (f *fakeUserTaskRepo) Get(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*domain.UserTask, error) {
	ut, ok := f.records[userTaskKey(userID, taskID)]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	snapshot := *ut
	return &snapshot, nil
}

// UpsertMerge mirrors the SQL merge: score only grows, accepted is sticky,
// rejected clears once accepted, accepted_at keeps its first value.
func (f *fakeUserTaskRepo) UpsertMerge(ctx context.Context, tx *gorm.DB, ut *domain.UserTask) (*domain.UserTask, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	now := time.Now().UTC()
	if ut.Accepted && ut.AcceptedAt == nil {
		ut.AcceptedAt = &now
	}
	key := userTaskKey(ut.UserID, ut.TaskID)
	cur, ok := f.records[key]
	if !ok {
		stored := *ut
		stored.Rejected = ut.Rejected && !ut.Accepted
		f.records[key] = &stored
		snapshot := stored
		return &snapshot, nil
	}
	if ut.Score > cur.Score {
		cur.Score = ut.Score
	}
	accepted := cur.Accepted || ut.Accepted
	cur.Rejected = ut.Rejected && !accepted
	cur.Accepted = accepted
	if cur.AcceptedAt == nil {
		cur.AcceptedAt = ut.AcceptedAt
	}
	cur.Data = ut.Data
	cur.UpdatedAt = now
	snapshot := *cur
	return &snapshot, nil
}

func (f *fakeUserTaskRepo) SetLiked(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, liked bool) error {
	ut, ok := f.records[userTaskKey(userID, taskID)]
	if !ok {
		return pkgerrors.ErrNotFound
	}
	ut.Liked = &liked
	return nil
}

func (f *fakeUserTaskRepo) ModuleTaskResults(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) ([]domain.TaskResult, error) {
	return f.results, nil
}

func (f *fakeUserTaskRepo) TaskResults(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.TaskResult, error) {
	return f.results, nil
}

func (f *fakeUserTaskRepo) FindNext(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.TaskResult, error) {
	if f.nextTask == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return f.nextTask, nil
}

func (f *fakeUserTaskRepo) NextModuleTask(ctx context.Context, tx *gorm.DB, userID, fromTaskID uuid.UUID) (*domain.TaskResult, error) {
	if f.nextTask == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return f.nextTask, nil
}

func (f *fakeUserTaskRepo) UserScore(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	f.scoreHits++
	return f.score, nil
}

type fakeSubmissionRepo struct {
	subs      []*domain.UserTaskSubmission
	createErr error
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, tx *gorm.DB, sub *domain.UserTaskSubmission) (*domain.UserTaskSubmission, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubmissionRepo) ListByUserTask(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) ([]*domain.UserTaskSubmission, error) {
	var out []*domain.UserTaskSubmission
	for _, sub := range f.subs {
		if sub.UserID == userID && sub.TaskID == taskID {
			out = append(out, sub)
		}
	}
	return out, nil
}

type fakeActivityService struct {
	kinds  []domain.ActivityKind
	grants map[domain.ActivityKind][]domain.EarnedAchievement
	err    error
}

func (f *fakeActivityService) RecordActivity(ctx context.Context, userID uuid.UUID, kind domain.ActivityKind, now time.Time) ([]domain.EarnedAchievement, error) {
	f.kinds = append(f.kinds, kind)
	if f.err != nil {
		return nil, f.err
	}
	return f.grants[kind], nil
}

type fakeScoreCache struct {
	values      map[uuid.UUID]int
	invalidated []uuid.UUID
	sets        int
}

func newFakeScoreCache() *fakeScoreCache {
	return &fakeScoreCache{values: make(map[uuid.UUID]int)}
}

func (f *fakeScoreCache) Get(ctx context.Context, userID uuid.UUID) (int, bool) {
	score, ok := f.values[userID]
	return score, ok
}

func (f *fakeScoreCache) Set(ctx context.Context, userID uuid.UUID, score int) {
	f.sets++
	f.values[userID] = score
}

func (f *fakeScoreCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	f.invalidated = append(f.invalidated, userID)
	delete(f.values, userID)
}

func (f *fakeScoreCache) Close() error { return nil }

// fakeRenderer resolves shader pairs against a canned buffer table keyed by
// fragment source. A missing entry renders as nil, i.e. a compile failure.
type fakeRenderer struct {
	buffers map[string][]byte
	err     error
}

func (f *fakeRenderer) Render(ctx context.Context, vertexSource, fragmentSource string, width, height int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.buffers[fragmentSource], nil
}

type fakeModuleRepo struct {
	modules  map[uuid.UUID]*domain.Module
	progress []domain.ModuleProgress
}

func newFakeModuleRepo(modules ...*domain.Module) *fakeModuleRepo {
	m := make(map[uuid.UUID]*domain.Module, len(modules))
	for _, module := range modules {
		m[module.ID] = module
	}
	return &fakeModuleRepo{modules: m}
}

func (f *fakeModuleRepo) Create(ctx context.Context, tx *gorm.DB, module *domain.Module) (*domain.Module, error) {
	if module.ID == uuid.Nil {
		module.ID = uuid.New()
	}
	f.modules[module.ID] = module
	return module, nil
}

func (f *fakeModuleRepo) Update(ctx context.Context, tx *gorm.DB, module *domain.Module) error {
	if _, ok := f.modules[module.ID]; !ok {
		return pkgerrors.ErrNotFound
	}
	f.modules[module.ID] = module
	return nil
}

func (f *fakeModuleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Module, error) {
	module, ok := f.modules[id]
	if !ok {
		return nil, pkgerrors.ErrNotFound
	}
	return module, nil
}

func (f *fakeModuleRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Module, error) {
	for _, module := range f.modules {
		if module.Name == name {
			return module, nil
		}
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeModuleRepo) LastOrder(ctx context.Context, tx *gorm.DB) (int, error) {
	last := -1
	for _, module := range f.modules {
		if module.Order > last {
			last = module.Order
		}
	}
	return last, nil
}

func (f *fakeModuleRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Module, error) {
	var out []*domain.Module
	for _, module := range f.modules {
		out = append(out, module)
	}
	return out, nil
}

func (f *fakeModuleRepo) ListWithUserProgress(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]domain.ModuleProgress, error) {
	return f.progress, nil
}
