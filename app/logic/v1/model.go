package v1

import (
	"context"
	"net/http"

	"github.com/vieagent/vieagent/app/core"
	"github.com/vieagent/vieagent/pkg/errors"
	"github.com/vieagent/vieagent/pkg/selector"
	"github.com/vieagent/vieagent/pkg/types"
)

type ModelLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewModelLogic(ctx context.Context, core *core.Core) *ModelLogic {
	return &ModelLogic{
		ctx:  ctx,
		core: core,
	}
}

// Select picks the model for one request and returns the full score breakdown.
func (l *ModelLogic) Select(sc types.SelectionContext) (*types.ModelSelection, error) {
	sel := l.core.Srv().Selector()
	if sel == nil {
		return nil, errors.New("ModelLogic.Select.NoSelector", "no models configured", nil).Code(http.StatusServiceUnavailable)
	}

	selection, err := sel.Select(l.ctx, sc)
	if err != nil {
		return nil, errors.New("ModelLogic.Select", "model selection failed", err)
	}
	return selection, nil
}

// RecordOutcome feeds an observed call back into the selector and the durable
// performance trail.
func (l *ModelLogic) RecordOutcome(modelID string, outcome selector.Outcome) error {
	sel := l.core.Srv().Selector()
	if sel == nil {
		return errors.New("ModelLogic.RecordOutcome.NoSelector", "no models configured", nil).Code(http.StatusServiceUnavailable)
	}

	if err := sel.RecordPerformance(l.ctx, modelID, outcome); err != nil {
		return errors.New("ModelLogic.RecordOutcome.RecordPerformance", "internal error", err)
	}
	return nil
}
