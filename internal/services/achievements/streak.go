package achievements

import (
	"context"
	"time"

	"github.com/google/uuid"

	activityrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/activity"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
)

// StreakChecker grants after qualifying activity on N consecutive calendar
// days ending at the most recent event day. Progress is the length of that
// unbroken run, capped at N; a past streak that has since broken never
// counts.
type StreakChecker struct {
	id       string
	triggers []domain.ActivityKind
	days     int
	repo     activityrepo.ActivityRepo
}

func NewStreakChecker(id string, triggers []domain.ActivityKind, days int, repo activityrepo.ActivityRepo) *StreakChecker {
	return &StreakChecker{id: id, triggers: triggers, days: days, repo: repo}
}

func (c *StreakChecker) AchievementID() string { return c.id }

func (c *StreakChecker) Triggers() []domain.ActivityKind { return c.triggers }

func (c *StreakChecker) Progress(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	days, err := c.activityDays(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	run := runLength(days)
	if run > c.days {
		run = c.days
	}
	return run, nil
}

func (c *StreakChecker) Reached(ctx context.Context, userID uuid.UUID, now time.Time) (bool, error) {
	days, err := c.activityDays(ctx, userID, now)
	if err != nil {
		return false, err
	}
	return runLength(days) >= c.days, nil
}

// activityDays returns the distinct event days in the trailing window,
// ascending, truncated to whole calendar days in UTC.
func (c *StreakChecker) activityDays(ctx context.Context, userID uuid.UUID, now time.Time) ([]time.Time, error) {
	today := truncateDay(now)
	from := today.AddDate(0, 0, -(c.days - 1))
	to := today.AddDate(0, 0, 1)

	events, err := c.repo.InIntervalByKinds(ctx, nil, userID, c.triggers, from, to)
	if err != nil {
		return nil, err
	}

	var days []time.Time
	for _, ev := range events {
		day := truncateDay(ev.At)
		if len(days) == 0 || !days[len(days)-1].Equal(day) {
			days = append(days, day)
		}
	}
	return days, nil
}

// runLength walks the distinct-day list backward from the most recent day,
// counting while consecutive entries differ by exactly one day and stopping
// at the first larger gap.
func runLength(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	run := 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
			continue
		}
		break
	}
	return run
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
