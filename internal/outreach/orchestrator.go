package outreach

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/runlog"
)

// Orchestrator drives a whole outreach run: it splits the pending
// contacts into batches, fans each batch out over a bounded worker
// pool, and renews credentials at refresh checkpoints between batches.
type Orchestrator struct {
	store     contact.Store
	processor *Processor
	session   *Session
	runs      runlog.Store

	workers         int
	refreshInterval int
	batchTimeout    time.Duration
	dryRun          bool
}

// NewOrchestrator creates an Orchestrator. runs may be nil to skip run
// logging.
func NewOrchestrator(store contact.Store, processor *Processor, session *Session, runs runlog.Store, cfg config.OutreachConfig) *Orchestrator {
	workers := cfg.MaxConcurrentWorkers
	if workers < 1 {
		workers = 1
	}
	refresh := cfg.RefreshIntervalContacts
	if refresh < 1 {
		refresh = 1
	}
	return &Orchestrator{
		store:           store,
		processor:       processor,
		session:         session,
		runs:            runs,
		workers:         workers,
		refreshInterval: refresh,
		batchTimeout:    time.Duration(cfg.BatchTimeoutSecs) * time.Second,
	}
}

// SetDryRun makes Run report the pending contacts without processing.
func (o *Orchestrator) SetDryRun(v bool) { o.dryRun = v }

// Run processes up to limit pending contacts (limit <= 0 means all).
// Batches run sequentially; within a batch at most workers contacts are
// in flight. An expired batch deadline fails the batch and the run
// continues; cancellation of ctx stops the run cleanly after the
// current attempts wind down.
func (o *Orchestrator) Run(ctx context.Context, limit int) (*model.Summary, error) {
	pending, err := o.pendingContacts(ctx, limit)
	if err != nil {
		return nil, err
	}

	summary := &model.Summary{}
	if len(pending) == 0 {
		zap.L().Info("outreach: no pending contacts")
		return summary, nil
	}
	zap.L().Info("outreach: starting run",
		zap.Int("pending", len(pending)), zap.Int("workers", o.workers))

	if o.dryRun {
		for _, c := range pending {
			zap.L().Info("outreach: would process",
				zap.String("email", c.Email), zap.String("website", c.Website))
		}
		return summary, nil
	}

	var run *runlog.Run
	if o.runs != nil {
		run, err = o.runs.CreateRun(ctx, o.workers)
		if err != nil {
			return nil, eris.Wrap(err, "outreach: create run record")
		}
	}

	sinceRefresh := 0
	batchSize := 2 * o.workers
	cancelled := false
	reconnected := false

	for start := 0; start < len(pending) && !cancelled; start += batchSize {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		if sinceRefresh >= o.refreshInterval {
			if err := o.refreshCheckpoint(ctx); err != nil {
				o.finishRun(run, runlog.RunStatusCancelled, summary)
				return summary, err
			}
			sinceRefresh = 0
		}

		end := start + batchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		batchCtx, cancel := context.WithTimeout(ctx, o.batchTimeout)
		g, gctx := errgroup.WithContext(batchCtx)
		g.SetLimit(o.workers)

		outcomes := make([]model.Outcome, len(batch))
		for i, c := range batch {
			g.Go(func() error {
				out, fatal := o.processor.Process(gctx, o.session.Token(), c)
				o.session.SetToken(out.Token)
				outcomes[i] = out
				if fatal != nil {
					return fatal
				}
				return nil
			})
		}
		fatal := g.Wait()
		cancel()

		timedOut := batchCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil
		if ctx.Err() != nil {
			cancelled = true
		}

		for _, out := range outcomes {
			if out.Status == "" {
				continue
			}
			if out.Status == model.OutcomeCancelled && cancelled {
				// A cancelled run leaves unfinished contacts for the
				// next one; they are not failures.
				continue
			}
			summary.Add(out)
			o.recordOutcome(run, out)
		}
		sinceRefresh += len(batch)

		if timedOut {
			zap.L().Warn("outreach: batch deadline expired",
				zap.Int("batch_start", start), zap.Int("batch_size", len(batch)),
				zap.Duration("timeout", o.batchTimeout))
		}

		if fatal != nil && !cancelled {
			if reconnected {
				o.finishRun(run, runlog.RunStatusCancelled, summary)
				return summary, eris.Wrap(fatal, "outreach: run aborted after reconnect")
			}
			zap.L().Warn("outreach: backend failure, attempting reconnect", zap.Error(fatal))
			if err := o.reconnect(ctx); err != nil {
				o.finishRun(run, runlog.RunStatusCancelled, summary)
				return summary, eris.Wrap(err, "outreach: reconnect failed")
			}
			reconnected = true
			sinceRefresh = 0
		}
	}

	status := runlog.RunStatusComplete
	if cancelled {
		status = runlog.RunStatusCancelled
		zap.L().Info("outreach: run cancelled",
			zap.Int("processed", summary.Processed))
	}
	o.finishRun(run, status, summary)

	zap.L().Info("outreach: run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// pendingContacts loads the sheet and filters to rows worth attempting.
func (o *Orchestrator) pendingContacts(ctx context.Context, limit int) ([]model.Contact, error) {
	contacts, err := o.store.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "outreach: list contacts")
	}

	var pending []model.Contact
	for _, c := range contacts {
		if c.Contacted {
			continue
		}
		pending = append(pending, c)
		if limit > 0 && len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

// refreshCheckpoint renews the access token and drops the cached sheet
// state. Runs only between batches, never mid-flight.
func (o *Orchestrator) refreshCheckpoint(ctx context.Context) error {
	zap.L().Info("outreach: refresh checkpoint")
	if err := o.session.Renew(ctx); err != nil {
		return err
	}
	o.store.Refresh()
	return nil
}

// reconnect gives the backend one chance to come back after a store or
// auth fault mid-run.
func (o *Orchestrator) reconnect(ctx context.Context) error {
	if err := o.session.Renew(ctx); err != nil {
		return err
	}
	o.store.Refresh()
	return o.session.Healthy(ctx)
}

func (o *Orchestrator) recordOutcome(run *runlog.Run, out model.Outcome) {
	if o.runs == nil || run == nil {
		return
	}
	// Run logging is best effort and must not take down the run.
	recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.runs.RecordOutcome(recCtx, run.ID, out); err != nil {
		zap.L().Warn("outreach: record outcome failed", zap.Error(err))
	}
}

func (o *Orchestrator) finishRun(run *runlog.Run, status runlog.RunStatus, summary *model.Summary) {
	if o.runs == nil || run == nil {
		return
	}
	finCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.runs.FinishRun(finCtx, run.ID, status, *summary); err != nil {
		zap.L().Warn("outreach: finish run record failed", zap.Error(err))
	}
}
