package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shaderlabs/shaderlab-backend/internal/domain"
)

// Checker decides whether a user has earned a single achievement. Checkers
// are evaluated by the activity dispatcher for the kinds they declare in
// Triggers; they are stateless and safe for concurrent use.
type Checker interface {
	AchievementID() string
	Triggers() []domain.ActivityKind
	Progress(ctx context.Context, userID uuid.UUID, now time.Time) (int, error)
	Reached(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error)
}
