// Package jobs holds the periodic reconciliation jobs run by the scheduler:
// the cascade delete of withdrawn accounts and the daily alarm dispatch.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/dmitrijs2005/lifecycle/internal/dbx"
	"github.com/dmitrijs2005/lifecycle/internal/logging"
	"github.com/dmitrijs2005/lifecycle/internal/metrics"
	"github.com/dmitrijs2005/lifecycle/internal/server/models"
	"github.com/dmitrijs2005/lifecycle/internal/server/repositories/repomanager"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// BlobRemover deletes every stored object of an owner.
type BlobRemover interface {
	DeleteAllForOwner(ctx context.Context, ownerType, ownerID string) error
}

// OwnerPurger removes the rows a dependent service keeps for an account.
type OwnerPurger interface {
	PurgeOwner(ctx context.Context, ownerID string) error
}

// OwnerPurgerFunc adapts a function to OwnerPurger.
type OwnerPurgerFunc func(ctx context.Context, ownerID string) error

func (f OwnerPurgerFunc) PurgeOwner(ctx context.Context, ownerID string) error {
	return f(ctx, ownerID)
}

type CascadeOptions struct {
	GracePeriod     time.Duration
	PageSize        int
	Concurrency     int
	MaxStepAttempts int
}

// CascadeReport summarizes one Purge cycle.
type CascadeReport struct {
	Selected int
	Deleted  int
	Failed   int
	// Deferred counts account steps that failed and were written to the outbox.
	Deferred int

	StepsDone      int
	StepsRetrying  int
	StepsAbandoned int
}

// CascadeDeleter removes accounts whose grace period has expired together
// with their blobs and their dependent rows.
type CascadeDeleter struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       BlobRemover
	purger      OwnerPurger
	opts        CascadeOptions
	logger      logging.Logger
	now         func() time.Time
}

// cascadeRun collects the outcome of one Purge call across workers.
type cascadeRun struct {
	mu     sync.Mutex
	report CascadeReport
	errs   error
}

func (r *cascadeRun) count(fn func(*CascadeReport)) {
	r.mu.Lock()
	fn(&r.report)
	r.mu.Unlock()
}

func (r *cascadeRun) fail(err error) {
	r.mu.Lock()
	r.errs = multierr.Append(r.errs, err)
	r.mu.Unlock()
}

func (r *cascadeRun) finish(fatal error) (*CascadeReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := r.report
	if fatal != nil {
		return &report, multierr.Append(fatal, r.errs)
	}
	if r.errs != nil {
		return &report, fmt.Errorf("%w: %w", common.ErrPartialFailure, r.errs)
	}
	return &report, nil
}

func NewCascadeDeleter(db *sql.DB, rm repomanager.RepositoryManager, blobs BlobRemover, purger OwnerPurger, opts CascadeOptions, logger logging.Logger) *CascadeDeleter {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.MaxStepAttempts <= 0 {
		opts.MaxStepAttempts = 10
	}
	return &CascadeDeleter{
		db:          db,
		repomanager: rm,
		blobs:       blobs,
		purger:      purger,
		opts:        opts,
		logger:      logger.With("module", "cascade"),
		now:         time.Now,
	}
}

// Run is the scheduler entry point.
func (d *CascadeDeleter) Run(ctx context.Context) error {
	report, err := d.Purge(ctx)
	if report != nil {
		d.logger.Info(ctx, "cascade delete finished",
			"selected", report.Selected, "deleted", report.Deleted, "failed", report.Failed,
			"deferred", report.Deferred, "steps_done", report.StepsDone,
			"steps_retrying", report.StepsRetrying, "steps_abandoned", report.StepsAbandoned)
	}
	return err
}

// Purge runs one cycle. Pending outbox steps are retried first, then every
// account marked deleted before now-GracePeriod is purged:
//
//  1. its blobs are deleted,
//  2. the dependent service purges its rows,
//  3. the account row is deleted in the same transaction that records any
//     failure of 1 or 2 in the outbox.
//
// Steps 1 and 2 never block step 3. A failing account does not stop the
// others. If any account or step failed the returned error matches
// common.ErrPartialFailure and carries every cause.
func (d *CascadeDeleter) Purge(ctx context.Context) (*CascadeReport, error) {
	run := &cascadeRun{}

	if err := d.drainOutbox(ctx, run); err != nil {
		return run.finish(err)
	}

	cutoff := d.now().Add(-d.opts.GracePeriod)
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return run.finish(err)
		}

		page, err := d.repomanager.Accounts(d.db).SelectPurgeable(ctx, cutoff, afterID, d.opts.PageSize)
		if err != nil {
			return run.finish(fmt.Errorf("select purgeable accounts: %w", err))
		}
		if len(page) == 0 {
			break
		}

		run.count(func(r *CascadeReport) { r.Selected += len(page) })

		var g errgroup.Group
		g.SetLimit(d.opts.Concurrency)
		for _, a := range page {
			g.Go(func() error {
				d.purgeAccount(ctx, run, a)
				return nil
			})
		}
		_ = g.Wait()

		afterID = page[len(page)-1].ID
		if len(page) < d.opts.PageSize {
			break
		}
	}

	return run.finish(nil)
}

type deferredStep struct {
	step string
	err  error
}

func (d *CascadeDeleter) purgeAccount(ctx context.Context, run *cascadeRun, a *models.Account) {
	var deferred []deferredStep

	if err := d.blobs.DeleteAllForOwner(ctx, models.OwnerTypeAccount, a.ID); err != nil {
		d.logger.Warn(ctx, "account blob cleanup failed", "account_id", a.ID, "error", err)
		deferred = append(deferred, deferredStep{models.StepBlobs, err})
	}

	if err := d.purger.PurgeOwner(ctx, a.ID); err != nil {
		d.logger.Warn(ctx, "dependent purge failed", "account_id", a.ID, "error", err)
		deferred = append(deferred, deferredStep{models.StepDependents, err})
	}

	err := dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, s := range deferred {
			if err := d.repomanager.Purges(tx).Enqueue(ctx, models.OwnerTypeAccount, a.ID, s.step, s.err.Error()); err != nil {
				return fmt.Errorf("enqueue %s step: %w", s.step, err)
			}
		}
		if err := d.repomanager.Accounts(tx).Delete(ctx, a.ID); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		d.logger.Error(ctx, "account delete failed", "account_id", a.ID, "error", err)
		metrics.CascadeAccounts.WithLabelValues(metrics.StatusFailed).Inc()
		run.count(func(r *CascadeReport) { r.Failed++ })
		run.fail(fmt.Errorf("account %s: %w", a.ID, err))
		return
	}

	metrics.CascadeAccounts.WithLabelValues("deleted").Inc()
	for _, s := range deferred {
		metrics.PurgeSteps.WithLabelValues(s.step, "enqueued").Inc()
		run.fail(fmt.Errorf("account %s %s: %w", a.ID, s.step, s.err))
	}

	run.count(func(r *CascadeReport) {
		r.Deleted++
		r.Deferred += len(deferred)
	})
}

// drainOutbox retries pending steps, least recently attempted first, until
// every pending step was tried once in this cycle.
func (d *CascadeDeleter) drainOutbox(ctx context.Context, run *cascadeRun) error {
	seen := make(map[string]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		steps, err := d.repomanager.Purges(d.db).SelectPending(ctx, d.opts.PageSize)
		if err != nil {
			return fmt.Errorf("select pending purge steps: %w", err)
		}

		fresh := 0
		for _, s := range steps {
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
			fresh++
			if err := d.retryStep(ctx, run, s); err != nil {
				return err
			}
		}

		if fresh == 0 || len(steps) < d.opts.PageSize {
			return nil
		}
	}
}

// retryStep runs one outbox step. Only outbox bookkeeping errors are
// returned; a failed step is recorded and reported as partial failure.
func (d *CascadeDeleter) retryStep(ctx context.Context, run *cascadeRun, s *models.PurgeStep) error {
	var err error
	switch s.Step {
	case models.StepBlobs:
		err = d.blobs.DeleteAllForOwner(ctx, s.OwnerType, s.OwnerID)
	case models.StepDependents:
		err = d.purger.PurgeOwner(ctx, s.OwnerID)
	default:
		err = fmt.Errorf("%w: unknown purge step %q", common.ErrorValidation, s.Step)
	}

	purges := d.repomanager.Purges(d.db)
	if err == nil {
		if err := purges.MarkDone(ctx, s.ID); err != nil {
			return fmt.Errorf("mark purge step %s done: %w", s.ID, err)
		}
		metrics.PurgeSteps.WithLabelValues(s.Step, "done").Inc()
		run.count(func(r *CascadeReport) { r.StepsDone++ })
		return nil
	}

	giveUp := s.Attempts+1 >= d.opts.MaxStepAttempts || errors.Is(err, common.ErrorValidation)
	if markErr := purges.MarkFailed(ctx, s.ID, err.Error(), giveUp); markErr != nil {
		return fmt.Errorf("mark purge step %s failed: %w", s.ID, markErr)
	}

	result := "retrying"
	if giveUp {
		result = "abandoned"
		run.count(func(r *CascadeReport) { r.StepsAbandoned++ })
	} else {
		run.count(func(r *CascadeReport) { r.StepsRetrying++ })
	}

	metrics.PurgeSteps.WithLabelValues(s.Step, result).Inc()
	d.logger.Warn(ctx, "purge step failed", "step_id", s.ID, "step", s.Step,
		"owner_type", s.OwnerType, "owner_id", s.OwnerID, "attempts", s.Attempts+1, "give_up", giveUp, "error", err)
	run.fail(fmt.Errorf("purge step %s %s/%s: %w", s.Step, s.OwnerType, s.OwnerID, err))
	return nil
}
