package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaderlabs/shaderlab-backend/internal/data/repos/testutil"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
)

const (
	refVertex   = "void main() { gl_Position = vec4(position, 1.0); }"
	refFragment = "void main() { gl_FragColor = vec4(1.0); }"
)

func newTestTask(t *testing.T) *domain.Task {
	t.Helper()
	task := &domain.Task{
		ID:                   uuid.New(),
		ModuleID:             uuid.New(),
		Name:                 "circle",
		Cost:                 100,
		Threshold:            75,
		Visibility:           true,
		FragmentCodeEditable: true,
	}
	err := task.SetPayload(domain.TaskPayload{
		VertexShader:   refVertex,
		FragmentShader: refFragment,
	})
	if err != nil {
		t.Fatalf("set task payload: %v", err)
	}
	return task
}

type submissionFixture struct {
	svc      SubmissionService
	task     *domain.Task
	userID   uuid.UUID
	taskRepo *fakeTaskRepo
	utRepo   *fakeUserTaskRepo
	subRepo  *fakeSubmissionRepo
	activity *fakeActivityService
	cache    *fakeScoreCache
	renderer *fakeRenderer
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	f := &submissionFixture{
		task:     newTestTask(t),
		userID:   uuid.New(),
		utRepo:   newFakeUserTaskRepo(),
		subRepo:  &fakeSubmissionRepo{},
		activity: &fakeActivityService{},
		cache:    newFakeScoreCache(),
		renderer: &fakeRenderer{buffers: map[string][]byte{}},
	}
	f.taskRepo = newFakeTaskRepo(f.task)
	f.svc = NewSubmissionService(nil, testutil.Logger(t), f.taskRepo, f.utRepo, f.subRepo, f.renderer, f.activity, f.cache)
	return f
}

func (f *submissionFixture) submit(t *testing.T, match float64, now time.Time) *SubmissionOutcome {
	t.Helper()
	out, err := f.svc.Submit(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: "void main() { gl_FragColor = vec4(0.5); }",
		Match:          match,
	}, now)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return out
}

func TestSubmitScoresAndAccepts(t *testing.T) {
	f := newSubmissionFixture(t)
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	out := f.submit(t, 0.8, now)

	if out.Score != 80 {
		t.Fatalf("score = %d, want 80", out.Score)
	}
	if !out.Accepted {
		t.Fatalf("0.8 match against threshold 75 must accept")
	}
	if out.AcceptedPreviously {
		t.Fatalf("first submission cannot be previously accepted")
	}
	if !out.StatusChanged {
		t.Fatalf("first acceptance must report a status change")
	}
	if !out.Timestamp.Equal(now) {
		t.Fatalf("timestamp = %v, want %v", out.Timestamp, now)
	}

	merged, err := f.utRepo.Get(context.Background(), nil, f.userID, f.task.ID)
	if err != nil {
		t.Fatalf("Get merged record: %v", err)
	}
	if merged.Score != 80 || !merged.Accepted || merged.Rejected {
		t.Fatalf("merged = {score %d accepted %v rejected %v}", merged.Score, merged.Accepted, merged.Rejected)
	}
	if merged.AcceptedAt == nil {
		t.Fatalf("accepted_at must be set on first acceptance")
	}
	if len(f.subRepo.subs) != 1 {
		t.Fatalf("history rows = %d, want 1", len(f.subRepo.subs))
	}
	if len(f.cache.invalidated) != 1 || f.cache.invalidated[0] != f.userID {
		t.Fatalf("score cache not invalidated for user")
	}
}

func TestSubmitAcceptanceBoundary(t *testing.T) {
	f := newSubmissionFixture(t)
	now := time.Now().UTC()

	// Exactly at threshold accepts; just below rejects.
	if out := f.submit(t, 0.75, now); !out.Accepted {
		t.Fatalf("match equal to threshold must accept")
	}

	g := newSubmissionFixture(t)
	if out := g.submit(t, 0.74, now); out.Accepted {
		t.Fatalf("match below threshold must not accept")
	}
}

func TestSubmitMergeIsMonotonic(t *testing.T) {
	f := newSubmissionFixture(t)
	first := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	f.submit(t, 0.9, first)
	before, _ := f.utRepo.Get(context.Background(), nil, f.userID, f.task.ID)

	out := f.submit(t, 0.5, second)

	// A worse attempt never degrades the merged record.
	if out.Score != 90 {
		t.Fatalf("merged score = %d, want 90", out.Score)
	}
	if !out.Accepted {
		t.Fatalf("accepted must not revert on a worse attempt")
	}
	if !out.AcceptedPreviously {
		t.Fatalf("second attempt after acceptance must report accepted previously")
	}
	if out.StatusChanged {
		t.Fatalf("no status change when accepted stays accepted")
	}

	merged, _ := f.utRepo.Get(context.Background(), nil, f.userID, f.task.ID)
	if merged.Score != 90 || !merged.Accepted || merged.Rejected {
		t.Fatalf("merged = {score %d accepted %v rejected %v}", merged.Score, merged.Accepted, merged.Rejected)
	}
	if !merged.AcceptedAt.Equal(*before.AcceptedAt) {
		t.Fatalf("accepted_at must keep its first value")
	}

	// History keeps the raw attempt, not the merged state.
	if len(f.subRepo.subs) != 2 {
		t.Fatalf("history rows = %d, want 2", len(f.subRepo.subs))
	}
	raw := f.subRepo.subs[1]
	if raw.Score != 50 || raw.Accepted {
		t.Fatalf("raw attempt = {score %d accepted %v}, want {50 false}", raw.Score, raw.Accepted)
	}
}

func TestSubmitValidatesBeforePersisting(t *testing.T) {
	f := newSubmissionFixture(t)
	now := time.Now().UTC()

	_, err := f.svc.Submit(context.Background(), f.userID, f.task.ID, SubmitInput{Match: 0.5}, now)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("missing editable fragment: err = %v, want ErrInvalidArgument", err)
	}

	_, err = f.svc.Submit(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: "void main() {}",
		Match:          1.5,
	}, now)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("out-of-range match: err = %v, want ErrInvalidArgument", err)
	}

	if len(f.subRepo.subs) != 0 {
		t.Fatalf("rejected submissions must not reach history")
	}
	if len(f.utRepo.records) != 0 {
		t.Fatalf("rejected submissions must not touch the merged record")
	}
}

func TestSubmitUnknownTask(t *testing.T) {
	f := newSubmissionFixture(t)
	_, err := f.svc.Submit(context.Background(), f.userID, uuid.New(), SubmitInput{
		FragmentShader: "void main() {}",
		Match:          0.5,
	}, time.Now().UTC())
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitHistoryWriteFailureIsFatal(t *testing.T) {
	f := newSubmissionFixture(t)
	f.subRepo.createErr = errors.New("disk full")

	_, err := f.svc.Submit(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: "void main() {}",
		Match:          0.8,
	}, time.Now().UTC())
	if err == nil {
		t.Fatalf("history write failure must fail the submission")
	}
	if len(f.utRepo.records) != 0 {
		t.Fatalf("merged record must not be written when history fails")
	}
}

func TestSubmitUpsertFailureIsFatal(t *testing.T) {
	f := newSubmissionFixture(t)
	f.utRepo.upsertErr = errors.New("deadlock")

	_, err := f.svc.Submit(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: "void main() {}",
		Match:          0.8,
	}, time.Now().UTC())
	if err == nil {
		t.Fatalf("merge failure must fail the submission")
	}
}

func TestSubmitStoresReferenceSourceForLockedChannel(t *testing.T) {
	f := newSubmissionFixture(t)
	now := time.Now().UTC()

	out, err := f.svc.Submit(context.Background(), f.userID, f.task.ID, SubmitInput{
		VertexShader:   "ignored edit",
		FragmentShader: "void main() {}",
		Match:          0.8,
	}, now)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.VertexShader != refVertex {
		t.Fatalf("locked vertex channel must fall back to the reference source")
	}

	merged, _ := f.utRepo.Get(context.Background(), nil, f.userID, f.task.ID)
	payload, err := merged.Payload()
	if err != nil {
		t.Fatalf("merged payload: %v", err)
	}
	if payload.VertexShader != refVertex {
		t.Fatalf("stored vertex = %q, want reference source", payload.VertexShader)
	}
}

func TestSubmitDispatchesActivity(t *testing.T) {
	f := newSubmissionFixture(t)
	f.activity.grants = map[domain.ActivityKind][]domain.EarnedAchievement{
		domain.ActivityTaskSubmitAccepted: {{AchievementID: "first-step", Name: "First Step"}},
	}
	now := time.Now().UTC()

	out := f.submit(t, 0.9, now)

	want := []domain.ActivityKind{domain.ActivityTaskSubmitted, domain.ActivityTaskSubmitAccepted}
	if len(f.activity.kinds) != len(want) || f.activity.kinds[0] != want[0] || f.activity.kinds[1] != want[1] {
		t.Fatalf("dispatched kinds = %v, want %v", f.activity.kinds, want)
	}
	if len(out.Achievements) != 1 || out.Achievements[0].AchievementID != "first-step" {
		t.Fatalf("granted achievements must ride along on the outcome: %v", out.Achievements)
	}

	// Re-solving an already-accepted task still records an accepted event,
	// so day streaks can be sustained by revisiting old tasks.
	f.activity.kinds = nil
	f.submit(t, 0.95, now.Add(time.Hour))
	if len(f.activity.kinds) != 2 || f.activity.kinds[1] != domain.ActivityTaskSubmitAccepted {
		t.Fatalf("re-accepted attempt kinds = %v, want attempt plus accepted", f.activity.kinds)
	}

	// A rejected attempt reports only the bare attempt, even when the task
	// was accepted before.
	f.activity.kinds = nil
	f.submit(t, 0.2, now.Add(2*time.Hour))
	if len(f.activity.kinds) != 1 || f.activity.kinds[0] != domain.ActivityTaskSubmitted {
		t.Fatalf("rejected attempt must dispatch only task_submitted, got %v", f.activity.kinds)
	}
}

func TestSubmitActivityFailureIsNotFatal(t *testing.T) {
	f := newSubmissionFixture(t)
	f.activity.err = errors.New("checker backend down")

	out := f.submit(t, 0.9, time.Now().UTC())
	if !out.Accepted {
		t.Fatalf("submission must succeed despite activity failure")
	}
	if len(out.Achievements) != 0 {
		t.Fatalf("no achievements on activity failure")
	}
}

func TestSubmitNextTaskNavigation(t *testing.T) {
	f := newSubmissionFixture(t)
	nextModule := uuid.New()
	nextTask := uuid.New()
	f.utRepo.nextTask = &domain.TaskResult{TaskID: nextTask, ModuleID: nextModule, Order: 0}

	out := f.submit(t, 0.9, time.Now().UTC())
	if out.NextTaskID == nil || *out.NextTaskID != nextTask {
		t.Fatalf("next task id = %v, want %v", out.NextTaskID, nextTask)
	}
	if out.NextModuleID == nil || *out.NextModuleID != nextModule {
		t.Fatalf("next module id = %v, want %v", out.NextModuleID, nextModule)
	}
	// Accepted and the next task lives in a different module.
	if !out.ModuleFinished {
		t.Fatalf("crossing into another module on acceptance must finish the module")
	}

	// Same module: more tasks remain.
	g := newSubmissionFixture(t)
	g.utRepo.nextTask = &domain.TaskResult{TaskID: uuid.New(), ModuleID: g.task.ModuleID, Order: 1}
	if out := g.submit(t, 0.9, time.Now().UTC()); out.ModuleFinished {
		t.Fatalf("module with remaining tasks is not finished")
	}

	// Nothing left anywhere: acceptance finishes the module.
	h := newSubmissionFixture(t)
	if out := h.submit(t, 0.9, time.Now().UTC()); !out.ModuleFinished {
		t.Fatalf("accepting the last task must finish the module")
	}

	// A rejected attempt never finishes anything.
	i := newSubmissionFixture(t)
	if out := i.submit(t, 0.1, time.Now().UTC()); out.ModuleFinished {
		t.Fatalf("rejected attempt cannot finish the module")
	}
}

func TestSubmitWithValidationMatchesRenders(t *testing.T) {
	f := newSubmissionFixture(t)
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = 0xAB
	}
	candidate := "void main() { gl_FragColor = vec4(0.5); }"
	f.renderer.buffers[refFragment] = buf
	f.renderer.buffers[candidate] = buf

	out, err := f.svc.SubmitWithValidation(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: candidate,
	}, time.Now().UTC())
	if err != nil {
		t.Fatalf("SubmitWithValidation: %v", err)
	}
	if out.Match != 1 {
		t.Fatalf("identical renders: match = %v, want 1", out.Match)
	}
	if !out.Accepted || out.Score != 100 {
		t.Fatalf("outcome = {accepted %v score %d}, want {true 100}", out.Accepted, out.Score)
	}
}

func TestSubmitWithValidationCompileFailureScoresZero(t *testing.T) {
	f := newSubmissionFixture(t)
	f.renderer.buffers[refFragment] = make([]byte, 16)
	// Candidate has no buffer entry: rendered as nil, a compile failure.

	out, err := f.svc.SubmitWithValidation(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: "garbage",
	}, time.Now().UTC())
	if err != nil {
		t.Fatalf("SubmitWithValidation: %v", err)
	}
	if out.Match != 0 || out.Accepted || out.Score != 0 {
		t.Fatalf("compile failure = {match %v accepted %v score %d}, want zeros", out.Match, out.Accepted, out.Score)
	}
	// The failed attempt is still part of the history.
	if len(f.subRepo.subs) != 1 {
		t.Fatalf("history rows = %d, want 1", len(f.subRepo.subs))
	}
}

func TestSubmitWithValidationReferenceFailureIsError(t *testing.T) {
	f := newSubmissionFixture(t)
	// No reference buffer: the task's own shader failed to render.

	_, err := f.svc.SubmitWithValidation(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: "void main() {}",
	}, time.Now().UTC())
	if err == nil {
		t.Fatalf("reference render failure must be an error, not a zero grade")
	}
	if len(f.subRepo.subs) != 0 {
		t.Fatalf("failed validation must not write history")
	}
}

func TestSubmitWithValidationRendererUnavailable(t *testing.T) {
	f := newSubmissionFixture(t)
	f.renderer.err = ErrRenderingUnavailable

	_, err := f.svc.SubmitWithValidation(context.Background(), f.userID, f.task.ID, SubmitInput{
		FragmentShader: "void main() {}",
	}, time.Now().UTC())
	if !errors.Is(err, ErrRenderingUnavailable) {
		t.Fatalf("err = %v, want ErrRenderingUnavailable", err)
	}
}

func TestHistoryListsAttemptsInOrder(t *testing.T) {
	f := newSubmissionFixture(t)
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f.submit(t, 0.3, base)
	f.submit(t, 0.9, base.Add(time.Minute))

	subs, err := f.svc.History(context.Background(), f.userID, f.task.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("history rows = %d, want 2", len(subs))
	}
	if subs[0].Score != 30 || subs[1].Score != 90 {
		t.Fatalf("scores = [%d %d], want [30 90]", subs[0].Score, subs[1].Score)
	}
}
