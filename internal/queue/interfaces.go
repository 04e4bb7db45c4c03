package queue

import (
	"github.com/grabtune/grabtune/internal/config"
	"github.com/grabtune/grabtune/internal/model"
	"github.com/grabtune/grabtune/internal/runner"
)

// Launcher starts downloader runs. *runner.Runner satisfies it; tests
// substitute a fake.
type Launcher interface {
	Launch(job model.Job, cfg config.Config, gen uint64, events chan<- runner.Event) runner.Handle
}

// ConfigProvider hands the orchestrator live configuration. Snapshot is
// called on every dispatch so limit and downloader settings are never
// cached; Update backs SetConcurrentLimit. *config.Manager satisfies it.
type ConfigProvider interface {
	Snapshot() config.Config
	Update(config.Config) error
}
