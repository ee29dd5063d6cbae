package deploy

import (
	"context"

	"github.com/pricewatch/opsctl/pkg/logging"
)

// Stage is one ordered unit of remote work. Run must be idempotent with
// respect to the remote host: re-running a completed stage converges to
// the same state instead of duplicating effects.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Pipeline executes stages in order, fail-fast: the first stage error
// aborts all remaining stages and is returned as the pipeline result.
type Pipeline struct {
	stages []Stage
	logger logging.Logger
}

func NewPipeline(stages []Stage, logger logging.Logger) *Pipeline {
	return &Pipeline{
		stages: stages,
		logger: logger,
	}
}

func (p *Pipeline) Run(ctx context.Context) error {
	total := len(p.stages)
	for i, stage := range p.stages {
		p.logger.Infof("[%d/%d] %s", i+1, total, stage.Name)
		if err := stage.Run(ctx); err != nil {
			p.logger.Errorf("Stage failed: %s: %v", stage.Name, err)
			return err
		}
	}
	p.logger.Infof("All %d stages complete", total)
	return nil
}
