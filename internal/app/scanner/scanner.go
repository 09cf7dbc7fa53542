package scanner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/imigrasi-dev/wna-registry/internal/services"
	"github.com/imigrasi-dev/wna-registry/pkg/logger"
	"github.com/imigrasi-dev/wna-registry/pkg/metrics"
)

const defaultScanSpec = "@daily"

// Scanner runs the alert classifier on a schedule. The classification pass is
// idempotent, so overlapping or repeated runs converge on the same alert set.
type Scanner struct {
	classifier *services.ClassifierService
	cron       *cron.Cron
	now        func() time.Time
	log        *zap.Logger
	schedule   string
}

// Option customises the Scanner.
type Option func(*Scanner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scanner) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for classification.
func WithNow(now func() time.Time) Option {
	return func(s *Scanner) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSchedule overrides the cron expression for the classification scan.
func WithSchedule(spec string) Option {
	return func(s *Scanner) {
		if spec != "" {
			s.schedule = spec
		}
	}
}

// New constructs a Scanner with sensible defaults.
func New(classifier *services.ClassifierService, opts ...Option) *Scanner {
	s := &Scanner{
		classifier: classifier,
		now:        time.Now,
		schedule:   defaultScanSpec,
		log:        logger.WithModule("scanner"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

// Start registers the scan job with the cron scheduler and launches it.
func (s *Scanner) Start() error {
	if s.classifier == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("scheduled classification scan failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scanner) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes a single classification pass. Used by the scheduled job,
// the manual scan endpoint and tests.
func (s *Scanner) RunOnce(ctx context.Context) (services.ScanReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.classifier == nil {
		return services.ScanReport{}, nil
	}

	report, err := s.classifier.Run(ctx, s.now())

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.ScanRuns.WithLabelValues("scheduled", result).Inc()

	return report, err
}
