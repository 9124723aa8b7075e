package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaderlabs/shaderlab-backend/internal/data/repos/testutil"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
)

func TestAchievementRepoGrantIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAchievementRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "grant@test.dev")
	testutil.SeedAchievement(t, ctx, tx, "first-step")
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	inserted, err := repo.Grant(ctx, tx, user.ID, "first-step", at)
	if err != nil {
		t.Fatalf("first grant: %v", err)
	}
	if !inserted {
		t.Fatalf("first grant must insert")
	}

	inserted, err = repo.Grant(ctx, tx, user.ID, "first-step", at.Add(time.Hour))
	if err != nil {
		t.Fatalf("second grant: %v", err)
	}
	if inserted {
		t.Fatalf("second grant for the same pair must be a no-op")
	}

	earned, err := repo.EarnedIDs(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("EarnedIDs: %v", err)
	}
	if len(earned) != 1 || earned[0] != "first-step" {
		t.Fatalf("earned = %v, want exactly one first-step", earned)
	}

	// The kept row carries the first grant's timestamp.
	list, err := repo.ListEarned(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("ListEarned: %v", err)
	}
	if len(list) != 1 || !list[0].At.Equal(at) {
		t.Fatalf("earned = %v, want one grant at %v", list, at)
	}
}

func TestAchievementRepoUnviewedLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAchievementRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "viewed@test.dev")
	testutil.SeedAchievement(t, ctx, tx, "first-step")
	testutil.SeedAchievement(t, ctx, tx, "daily-coder")
	now := time.Now().UTC().Truncate(time.Microsecond)

	if _, err := repo.Grant(ctx, tx, user.ID, "first-step", now); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if _, err := repo.Grant(ctx, tx, user.ID, "daily-coder", now.Add(time.Minute)); err != nil {
		t.Fatalf("grant: %v", err)
	}

	unviewed, err := repo.ListUnviewed(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("ListUnviewed: %v", err)
	}
	if len(unviewed) != 2 {
		t.Fatalf("unviewed = %d, want 2", len(unviewed))
	}
	if unviewed[0].AchievementID != "first-step" {
		t.Fatalf("unviewed must be ordered by grant time")
	}
	if unviewed[0].Name == "" || unviewed[0].Message == "" {
		t.Fatalf("unviewed rows must join the catalog name and message")
	}

	if err := repo.MarkViewed(ctx, tx, user.ID, "first-step"); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}
	unviewed, err = repo.ListUnviewed(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("ListUnviewed: %v", err)
	}
	if len(unviewed) != 1 || unviewed[0].AchievementID != "daily-coder" {
		t.Fatalf("unviewed after mark = %v", unviewed)
	}

	// Viewed grants still list as completed.
	earned, err := repo.ListEarned(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("ListEarned: %v", err)
	}
	if len(earned) != 2 {
		t.Fatalf("earned = %d, want 2", len(earned))
	}
}

func TestAchievementRepoMarkViewedMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAchievementRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "markmissing@test.dev")
	err := repo.MarkViewed(ctx, tx, user.ID, "never-granted")
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAchievementRepoUpsertCatalog(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewAchievementRepo(db, testutil.Logger(t))

	catalog := []domain.Achievement{{ID: "first-step", Name: "First Step", Message: "one down"}}
	if err := repo.UpsertCatalog(ctx, tx, catalog); err != nil {
		t.Fatalf("UpsertCatalog: %v", err)
	}

	// Re-sync with edited copy: name and message follow the config.
	catalog[0].Message = "edited"
	if err := repo.UpsertCatalog(ctx, tx, catalog); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}

	got, err := repo.Get(ctx, tx, "first-step")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Message != "edited" {
		t.Fatalf("message = %q, want the re-synced value", got.Message)
	}
}

func TestActivityRepoQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewActivityRepo(db, testutil.Logger(t))

	user := testutil.SeedUser(t, ctx, tx, "activity@test.dev")
	base := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	testutil.SeedActivity(t, ctx, tx, user.ID, domain.ActivityTaskSubmitted, base)
	testutil.SeedActivity(t, ctx, tx, user.ID, domain.ActivityTaskSubmitAccepted, base.Add(time.Hour))
	testutil.SeedActivity(t, ctx, tx, user.ID, domain.ActivitySignedIn, base.Add(2*time.Hour))

	kinds := []domain.ActivityKind{domain.ActivityTaskSubmitted, domain.ActivityTaskSubmitAccepted}

	count, err := repo.CountByKinds(ctx, tx, user.ID, kinds)
	if err != nil {
		t.Fatalf("CountByKinds: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	first, err := repo.FirstByKinds(ctx, tx, user.ID, kinds)
	if err != nil {
		t.Fatalf("FirstByKinds: %v", err)
	}
	if first.Kind != domain.ActivityTaskSubmitted {
		t.Fatalf("first = %v, want the earliest matching event", first.Kind)
	}

	_, err = repo.FirstByKinds(ctx, tx, user.ID, []domain.ActivityKind{domain.ActivityTaskOpened})
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// Half-open interval: the upper bound is excluded.
	events, err := repo.InIntervalByKinds(ctx, tx, user.ID, kinds, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("InIntervalByKinds: %v", err)
	}
	if len(events) != 1 || events[0].Kind != domain.ActivityTaskSubmitted {
		t.Fatalf("interval events = %v, want only the lower-bound event", events)
	}
}
