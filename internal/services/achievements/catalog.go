package achievements

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	activityrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/activity"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
)

const (
	KindFirstEvent = "first_event"
	KindStreak     = "streak"
)

type CatalogEntry struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Message  string   `yaml:"message"`
	Kind     string   `yaml:"kind"`
	Triggers []string `yaml:"triggers"`
	Days     int      `yaml:"days"`
}

type Catalog struct {
	Achievements []CatalogEntry `yaml:"achievements"`
}

func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read achievement catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse achievement catalog: %w", err)
	}
	return &c, nil
}

// Build turns the catalog into checker instances plus the achievement rows
// to sync into the database.
func (c *Catalog) Build(repo activityrepo.ActivityRepo) ([]Checker, []domain.Achievement, error) {
	var (
		checkers []Checker
		rows     []domain.Achievement
	)
	for _, e := range c.Achievements {
		if e.ID == "" {
			return nil, nil, fmt.Errorf("achievement catalog entry without id")
		}
		if len(e.Triggers) == 0 {
			return nil, nil, fmt.Errorf("achievement %q has no triggers", e.ID)
		}
		triggers := make([]domain.ActivityKind, 0, len(e.Triggers))
		for _, t := range e.Triggers {
			triggers = append(triggers, domain.ActivityKind(t))
		}

		switch e.Kind {
		case KindFirstEvent:
			checkers = append(checkers, NewFirstEventChecker(e.ID, triggers, repo))
		case KindStreak:
			if e.Days <= 0 {
				return nil, nil, fmt.Errorf("achievement %q needs a positive days value", e.ID)
			}
			checkers = append(checkers, NewStreakChecker(e.ID, triggers, e.Days, repo))
		default:
			return nil, nil, fmt.Errorf("achievement %q has unknown kind %q", e.ID, e.Kind)
		}

		rows = append(rows, domain.Achievement{ID: e.ID, Name: e.Name, Message: e.Message})
	}
	return checkers, rows, nil
}
