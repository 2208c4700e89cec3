package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/use-agent/regbot/models"
	"github.com/use-agent/regbot/report"
	"github.com/use-agent/regbot/webhook"
)

// Errors returned by Service.Submit. Each carries the API code it maps to.
var (
	ErrQueueFull = models.NewRunError(models.ErrCodeQueueFull, "run queue is full, try again later", nil)
	ErrStopped   = models.NewRunError(models.ErrCodeUnavailable, "service is shutting down", nil)
	ErrNoRecords = models.NewRunError(models.ErrCodeInvalidInput, "run has no records", nil)
)

const (
	defaultQueueSize = 16
	defaultRetention = time.Hour
	sweepInterval    = 5 * time.Minute
)

// job is one queued run. Fields after mu are guarded by it.
type job struct {
	id         string
	records    []models.Record
	webhookURL string
	createdAt  time.Time

	mu         sync.Mutex
	state      models.RunState
	results    []models.RecordResult
	summary    *models.Summary
	reportPath string
	finishedAt *time.Time
}

func (j *job) snapshot() models.RunStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	st := models.RunStatus{
		ID:         j.id,
		Status:     j.state,
		Total:      len(j.records),
		Completed:  len(j.results),
		Summary:    j.summary,
		ReportPath: j.reportPath,
		CreatedAt:  j.createdAt,
		FinishedAt: j.finishedAt,
	}
	if len(j.results) > 0 {
		st.Results = append([]models.RecordResult(nil), j.results...)
	}
	return st
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// ReportDir receives one report file per completed run; empty skips reports.
	ReportDir string

	// QueueSize bounds the number of runs waiting for the browser.
	QueueSize int

	// Retention is how long finished runs stay queryable.
	Retention time.Duration
}

// Service queues runs and executes them one after another on a single
// worker, so runs never share the browser session concurrently.
type Service struct {
	runner  *Runner
	cfg     ServiceConfig
	webhook *webhook.Sender
	logger  *slog.Logger
	now     func() time.Time

	jobs  sync.Map // id → *job
	queue chan *job

	mu      sync.Mutex
	stopped bool
	running bool

	wg sync.WaitGroup
}

// NewService creates a Service. Call Start before submitting runs.
func NewService(runner *Runner, cfg ServiceConfig, sender *webhook.Sender, logger *slog.Logger) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		runner:  runner,
		cfg:     cfg,
		webhook: sender,
		logger:  logger,
		now:     time.Now,
		queue:   make(chan *job, cfg.QueueSize),
	}
}

// Start launches the worker and the expiry sweeper. Both stop when ctx is
// done; runs still queued at that point complete with interrupted results.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(2)
	go s.work(ctx)
	go s.sweep(ctx)
}

// Wait blocks until the worker, the sweeper and any webhook deliveries have
// finished. Call it after cancelling the Start context.
func (s *Service) Wait() {
	s.wg.Wait()
	if s.webhook != nil {
		s.webhook.Wait()
	}
}

// Submit queues a run and returns its initial status.
func (s *Service) Submit(recs []models.Record, webhookURL string) (models.RunStatus, error) {
	if len(recs) == 0 {
		return models.RunStatus{}, ErrNoRecords
	}
	j := &job{
		id:         uuid.NewString(),
		records:    recs,
		webhookURL: webhookURL,
		createdAt:  s.now(),
		state:      models.RunQueued,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return models.RunStatus{}, ErrStopped
	}
	select {
	case s.queue <- j:
	default:
		return models.RunStatus{}, ErrQueueFull
	}
	s.jobs.Store(j.id, j)
	s.logger.Info("run queued", "run_id", j.id, "records", len(recs))
	return j.snapshot(), nil
}

// Get returns the status of run id.
func (s *Service) Get(id string) (models.RunStatus, bool) {
	v, ok := s.jobs.Load(id)
	if !ok {
		return models.RunStatus{}, false
	}
	return v.(*job).snapshot(), true
}

// Stats reports the queue state.
func (s *Service) Stats() models.QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.QueueStats{
		Queued:   len(s.queue),
		Capacity: cap(s.queue),
		Running:  s.running,
		Stopped:  s.stopped,
	}
}

func (s *Service) work(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case j := <-s.queue:
			s.execute(ctx, j)
		case <-ctx.Done():
			s.mu.Lock()
			s.stopped = true
			s.mu.Unlock()
			// Nothing can be queued any more; flush what is left.
			for {
				select {
				case j := <-s.queue:
					s.execute(ctx, j)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) execute(ctx context.Context, j *job) {
	s.setRunning(true)
	defer s.setRunning(false)

	j.mu.Lock()
	j.state = models.RunRunning
	j.mu.Unlock()
	s.logger.Info("run started", "run_id", j.id, "records", len(j.records))

	results := s.runner.RunEach(ctx, j.records, func(res models.RecordResult) {
		j.mu.Lock()
		j.results = append(j.results, res)
		j.mu.Unlock()
	})

	finished := s.now()
	summary := models.Summarize(results)
	var reportPath string
	if s.cfg.ReportDir != "" {
		path, err := report.WriteFile(s.cfg.ReportDir, finished, results)
		if err != nil {
			s.logger.Error("writing report failed", "run_id", j.id, "error", err)
		} else {
			reportPath = path
		}
	}

	j.mu.Lock()
	j.state = models.RunCompleted
	j.summary = &summary
	j.reportPath = reportPath
	j.finishedAt = &finished
	j.mu.Unlock()

	s.logger.Info("run completed", "run_id", j.id, "summary", summary.String(), "report", reportPath)

	if j.webhookURL != "" && s.webhook != nil {
		status := j.snapshot()
		status.Results = nil
		s.webhook.DeliverAsync(ctx, j.webhookURL, &webhook.Event{
			Type:      webhook.EventRunCompleted,
			RunID:     j.id,
			Timestamp: finished.Unix(),
			Data:      status,
		})
	}
}

func (s *Service) setRunning(v bool) {
	s.mu.Lock()
	s.running = v
	s.mu.Unlock()
}

// sweep drops finished runs older than the retention period.
func (s *Service) sweep(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.expire(s.now())
		case <-ctx.Done():
			return
		}
	}
}

// expire removes completed runs that finished before now minus Retention.
// Queued and running jobs are never removed, however old.
func (s *Service) expire(now time.Time) {
	cutoff := now.Add(-s.cfg.Retention)
	s.jobs.Range(func(key, value any) bool {
		j := value.(*job)
		j.mu.Lock()
		stale := j.state == models.RunCompleted && j.finishedAt != nil && j.finishedAt.Before(cutoff)
		j.mu.Unlock()
		if stale {
			s.jobs.Delete(key)
		}
		return true
	})
}
