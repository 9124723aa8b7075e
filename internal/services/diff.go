package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	catalogrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/catalog"
	"github.com/shaderlabs/shaderlab-backend/internal/grading"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
)

const diffUpscaleFactor = 2

// DiffService renders a candidate shader against the task reference and
// returns a PNG where matching pixels are grayscale and mismatches are red.
type DiffService interface {
	Preview(ctx context.Context, taskID uuid.UUID, in SubmitInput) ([]byte, error)
}

type diffService struct {
	db       *gorm.DB
	log      *logger.Logger
	taskRepo catalogrepo.TaskRepo
	renderer ShaderRenderer
}

func NewDiffService(db *gorm.DB, baseLog *logger.Logger, taskRepo catalogrepo.TaskRepo, renderer ShaderRenderer) DiffService {
	return &diffService{
		db:       db,
		log:      baseLog.With("service", "DiffService"),
		taskRepo: taskRepo,
		renderer: renderer,
	}
}

func (s *diffService) Preview(ctx context.Context, taskID uuid.UUID, in SubmitInput) ([]byte, error) {
	task, err := s.taskRepo.GetByID(ctx, nil, taskID)
	if err != nil {
		return nil, err
	}
	payload, err := task.Payload()
	if err != nil {
		return nil, err
	}
	vertex, fragment := effectiveSources(task, payload, in)

	var reference, candidate []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buf, err := s.renderer.Render(gctx, payload.VertexShader, payload.FragmentShader, renderWidth, renderHeight)
		if err != nil {
			return err
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
			return err
		}
		candidate = buf
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	img, err := grading.DiffImage(reference, candidate, renderWidth, renderHeight)
	if err != nil {
		return nil, err
	}
	return grading.EncodePNG(grading.Upscale(img, diffUpscaleFactor))
}
