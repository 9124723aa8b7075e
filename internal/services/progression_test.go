package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/shaderlabs/shaderlab-backend/internal/data/repos/testutil"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
)

func results(accepted ...bool) []domain.TaskResult {
	out := make([]domain.TaskResult, len(accepted))
	for i, a := range accepted {
		out[i] = domain.TaskResult{TaskID: uuid.New(), Order: i, Cost: 100, Accepted: a}
	}
	return out
}

func TestComputeTaskLocking(t *testing.T) {
	tests := []struct {
		name         string
		results      []domain.TaskResult
		randomAccess bool
		want         []bool
	}{
		{
			name:    "frontier stays unlocked, everything after locks",
			results: results(true, true, false, false),
			want:    []bool{false, false, false, true},
		},
		{
			name:    "nothing accepted locks all but the first",
			results: results(false, false, false),
			want:    []bool{false, true, true},
		},
		{
			name:    "all accepted locks nothing",
			results: results(true, true, true),
			want:    []bool{false, false, false},
		},
		{
			name:         "random access locks nothing",
			results:      results(false, false, false),
			randomAccess: true,
			want:         []bool{false, false, false},
		},
		{
			name:    "empty",
			results: nil,
			want:    []bool{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTaskLocking(tt.results, tt.randomAccess)
			if len(got) != len(tt.want) {
				t.Fatalf("len(locked) = %d, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("locked = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestComputeTaskLockingSkipsGapsByOrder(t *testing.T) {
	// A later-accepted task after the frontier still locks: locking follows
	// display order relative to the frontier, not acceptance.
	rs := results(true, false, true, false)
	got := ComputeTaskLocking(rs, false)
	want := []bool{false, false, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("locked = %v, want %v", got, want)
		}
	}
}

func TestGetUserModuleProgress(t *testing.T) {
	module := &domain.Module{ID: uuid.New(), Name: "basics", RandomTaskAccess: false}
	utRepo := newFakeUserTaskRepo()
	utRepo.results = []domain.TaskResult{
		{TaskID: uuid.New(), ModuleID: module.ID, Name: "a", Order: 0, Cost: 100, Score: 100, Accepted: true},
		{TaskID: uuid.New(), ModuleID: module.ID, Name: "b", Order: 1, Cost: 80, Score: 40},
		{TaskID: uuid.New(), ModuleID: module.ID, Name: "c", Order: 2, Cost: 100},
	}
	svc := NewProgressionService(nil, testutil.Logger(t), newFakeModuleRepo(module), utRepo, newFakeScoreCache())

	progress, err := svc.GetUserModuleProgress(context.Background(), uuid.New(), module.ID)
	if err != nil {
		t.Fatalf("GetUserModuleProgress: %v", err)
	}
	if len(progress) != 3 {
		t.Fatalf("tasks = %d, want 3", len(progress))
	}
	if progress[0].Locked || progress[1].Locked {
		t.Fatalf("accepted task and frontier must not be locked")
	}
	if !progress[2].Locked {
		t.Fatalf("task after the frontier must be locked")
	}
	if progress[1].Match != 0.5 {
		t.Fatalf("match = %v, want 0.5", progress[1].Match)
	}
}

func TestGetUserModuleProgressRandomAccess(t *testing.T) {
	module := &domain.Module{ID: uuid.New(), Name: "sandbox", RandomTaskAccess: true}
	utRepo := newFakeUserTaskRepo()
	utRepo.results = results(false, false, false)
	svc := NewProgressionService(nil, testutil.Logger(t), newFakeModuleRepo(module), utRepo, newFakeScoreCache())

	progress, err := svc.GetUserModuleProgress(context.Background(), uuid.New(), module.ID)
	if err != nil {
		t.Fatalf("GetUserModuleProgress: %v", err)
	}
	for _, p := range progress {
		if p.Locked {
			t.Fatalf("random access module must not lock any task")
		}
	}
}

func TestGetUserProgressNeverLocks(t *testing.T) {
	utRepo := newFakeUserTaskRepo()
	utRepo.results = results(false, false, false)
	svc := NewProgressionService(nil, testutil.Logger(t), newFakeModuleRepo(), utRepo, newFakeScoreCache())

	progress, err := svc.GetUserProgress(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetUserProgress: %v", err)
	}
	for _, p := range progress {
		if p.Locked {
			t.Fatalf("cross-module view must not lock tasks")
		}
	}
}

func TestFindNextExhausted(t *testing.T) {
	utRepo := newFakeUserTaskRepo()
	svc := NewProgressionService(nil, testutil.Logger(t), newFakeModuleRepo(), utRepo, newFakeScoreCache())

	next, err := svc.FindNext(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindNext: %v", err)
	}
	if next != nil {
		t.Fatalf("exhausted catalog must yield nil, got %+v", next)
	}

	utRepo.nextTask = &domain.TaskResult{TaskID: uuid.New(), Name: "a"}
	next, err = svc.FindNext(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindNext: %v", err)
	}
	if next == nil || next.Name != "a" {
		t.Fatalf("next = %+v, want task a", next)
	}
}

func TestUserScoreUsesCache(t *testing.T) {
	utRepo := newFakeUserTaskRepo()
	utRepo.score = 230
	cache := newFakeScoreCache()
	svc := NewProgressionService(nil, testutil.Logger(t), newFakeModuleRepo(), utRepo, cache)
	userID := uuid.New()

	score, err := svc.UserScore(context.Background(), userID)
	if err != nil {
		t.Fatalf("UserScore: %v", err)
	}
	if score != 230 {
		t.Fatalf("score = %d, want 230", score)
	}
	if utRepo.scoreHits != 1 || cache.sets != 1 {
		t.Fatalf("miss must hit the database once and populate the cache")
	}

	// Cached value serves the second call.
	if _, err := svc.UserScore(context.Background(), userID); err != nil {
		t.Fatalf("UserScore: %v", err)
	}
	if utRepo.scoreHits != 1 {
		t.Fatalf("cache hit must not query the database again")
	}
}
