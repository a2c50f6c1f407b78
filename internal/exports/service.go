// Package exports queues and processes table exports. A table toolbar hands
// the selection and filters to an Exporter; the worker later counts the rows
// the request covers and completes the job.
package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Broadcaster is notified when export jobs change. Topics name the tables
// that should refetch.
type Broadcaster interface {
	Broadcast(topics ...string)
}

// Options configures a Service.
type Options struct {
	// Interval between scans for queued jobs. Defaults to 2s.
	Interval time.Duration

	// Workers bounds how many jobs are processed at once. Defaults to 2.
	Workers int

	Logger *slog.Logger
}

// Service records export jobs and runs them.
type Service struct {
	store    core.Store
	notify   Broadcaster
	logger   *slog.Logger
	interval time.Duration
	workers  int
	wake     chan struct{}
}

// NewService creates a Service. notify may be nil.
func NewService(store core.Store, notify Broadcaster, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.Workers < 1 {
		opts.Workers = 2
	}
	return &Service{
		store:    store,
		notify:   notify,
		logger:   opts.Logger,
		interval: opts.Interval,
		workers:  opts.Workers,
		wake:     make(chan struct{}, 1),
	}
}

// For returns the Exporter of one resource.
func (s *Service) For(resource string) datatable.Exporter {
	return resourceExporter{svc: s, resource: resource}
}

type resourceExporter struct {
	svc      *Service
	resource string
}

// Export queues a job and returns its id.
func (e resourceExporter) Export(ctx context.Context, req datatable.ExportRequest) (string, error) {
	job, err := e.svc.store.CreateExportJob(ctx, e.resource, req)
	if err != nil {
		return "", fmt.Errorf("failed to queue %s export: %w", e.resource, err)
	}

	e.svc.logger.Info("export queued",
		slog.String("job", job.ID),
		slog.String("resource", e.resource),
		slog.Int("ids", len(req.IDs)))

	e.svc.broadcast()
	select {
	case e.svc.wake <- struct{}{}:
	default:
	}
	return job.ID, nil
}

// Run processes queued jobs until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("export scan failed", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

// ProcessPending runs every queued job once and returns how many finished.
func (s *Service) ProcessPending(ctx context.Context) (int, error) {
	jobs, err := s.store.PendingExportJobs(ctx)
	if err != nil {
		return 0, err
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, job := range jobs {
		g.Go(func() error {
			return s.process(gctx, job)
		})
	}
	err = g.Wait()

	s.broadcast()
	return len(jobs), err
}

func (s *Service) process(ctx context.Context, job *core.ExportJob) error {
	req := datatable.ExportRequest{IDs: job.IDs, Filters: job.Filters}

	n, err := s.store.CountRows(ctx, job.Resource, req)
	if err != nil {
		s.logger.Warn("export failed", slog.String("job", job.ID), slog.Any("error", err))
		if uerr := s.store.UpdateExportJob(ctx, job.ID, core.ExportFailed, 0); uerr != nil {
			return fmt.Errorf("failed to record export failure: %w", uerr)
		}
		return nil
	}

	if err := s.store.UpdateExportJob(ctx, job.ID, core.ExportCompleted, n); err != nil {
		return fmt.Errorf("failed to complete export %s: %w", job.ID, err)
	}
	s.logger.Debug("export completed", slog.String("job", job.ID), slog.Int("rows", n))
	return nil
}

func (s *Service) broadcast() {
	if s.notify != nil {
		s.notify.Broadcast(core.ResourceExports)
	}
}
