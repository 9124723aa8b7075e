package achievements

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	activityrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/activity"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
)

// FirstEventChecker grants as soon as a single qualifying event exists for
// the user, ever.
type FirstEventChecker struct {
	id       string
	triggers []domain.ActivityKind
	repo     activityrepo.ActivityRepo
}

func NewFirstEventChecker(id string, triggers []domain.ActivityKind, repo activityrepo.ActivityRepo) *FirstEventChecker {
	return &FirstEventChecker{id: id, triggers: triggers, repo: repo}
}

func (c *FirstEventChecker) AchievementID() string { return c.id }

func (c *FirstEventChecker) Triggers() []domain.ActivityKind { return c.triggers }

func (c *FirstEventChecker) Progress(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	reached, err := c.Reached(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	if reached {
		return 1, nil
	}
	return 0, nil
}

func (c *FirstEventChecker) Reached(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	_, err := c.repo.FirstByKinds(ctx, nil, userID, c.triggers)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
