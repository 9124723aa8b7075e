package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "student",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, order int) *domain.Module {
	tb.Helper()
	m := &domain.Module{
		ID:    uuid.New(),
		Name:  fmt.Sprintf("module-%s", uuid.NewString()[:8]),
		Order: order,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedTask(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, order int) *domain.Task {
	tb.Helper()
	t := &domain.Task{
		ID:         uuid.New(),
		ModuleID:   moduleID,
		Name:       fmt.Sprintf("task-%s", uuid.NewString()[:8]),
		Order:      order,
		Cost:       100,
		Threshold:  90,
		Visibility: true,
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed task: %v", err)
	}
	return t
}

func SeedUserTask(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID, score int, accepted bool) *domain.UserTask {
	tb.Helper()
	ut := &domain.UserTask{
		ID:       uuid.New(),
		UserID:   userID,
		TaskID:   taskID,
		Score:    score,
		Accepted: accepted,
	}
	if accepted {
		now := time.Now().UTC()
		ut.AcceptedAt = &now
	}
	if err := tx.WithContext(ctx).Create(ut).Error; err != nil {
		tb.Fatalf("seed user task: %v", err)
	}
	return ut
}

func SeedAchievement(tb testing.TB, ctx context.Context, tx *gorm.DB, id string) *domain.Achievement {
	tb.Helper()
	a := &domain.Achievement{
		ID:      id,
		Name:    id,
		Message: "congrats",
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed achievement: %v", err)
	}
	return a
}

func SeedActivity(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, kind domain.ActivityKind, at time.Time) *domain.UserActivity {
	tb.Helper()
	ev := &domain.UserActivity{
		ID:     uuid.New(),
		UserID: userID,
		Kind:   kind,
		At:     at,
	}
	if err := tx.WithContext(ctx).Create(ev).Error; err != nil {
		tb.Fatalf("seed activity: %v", err)
	}
	return ev
}

func PtrTime(v time.Time) *time.Time { return &v }
