package store

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/oliviabot/oliviabot/pkg/logger"
)

// Refresher re-imports the neofetch CSV on a cron schedule
type Refresher struct {
	store *Store
	path  string
	cron  *cron.Cron
	log   *logger.Logger
}

// NewRefresher schedules imports of path. schedule is a standard five-field
// cron expression or a descriptor such as "@daily".
func NewRefresher(s *Store, path, schedule string, log *logger.Logger) (*Refresher, error) {
	if log == nil {
		log = logger.Global().WithComponent("store")
	}
	r := &Refresher{
		store: s,
		path:  path,
		cron:  cron.New(),
		log:   log,
	}
	if _, err := r.cron.AddFunc(schedule, r.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Refresher) refresh() {
	n, err := r.store.ImportFile(context.Background(), r.path)
	if err != nil {
		r.log.Error("neofetch refresh failed", "path", r.path, "error", err)
		return
	}
	r.log.Info("neofetch table refreshed", "path", r.path, "rows", n)
}

// Run runs the scheduler until ctx is done, then waits for a running import.
func (r *Refresher) Run(ctx context.Context) error {
	r.cron.Start()
	<-ctx.Done()
	<-r.cron.Stop().Done()
	return nil
}

// RefreshNow imports the file immediately
func (r *Refresher) RefreshNow() {
	r.refresh()
}
