package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/layout"
	"github.com/bft-labs/radbatch/internal/ports"
)

// TableSuffix is appended to the batch label to name the feature table.
const TableSuffix = "_radiomics_feature.csv"

// RunnerConfig contains configuration for a batch run.
type RunnerConfig struct {
	Start int
	End   int

	// BatchLabel names the output table. Defaults to DefaultBatchLabel.
	BatchLabel string
	TableDir   string

	// MapExt is the file extension of written feature maps, e.g. ".nrrd".
	MapExt string

	ContinueOnError bool

	// Host is recorded in the run status.
	Host domain.HostInfo
}

// Validate checks the case range and fills derived defaults.
func (c *RunnerConfig) Validate() error {
	if c.Start < 0 {
		return fmt.Errorf("%w: start %d is negative", domain.ErrInvalidConfig, c.Start)
	}
	if c.End <= c.Start {
		return fmt.Errorf("%w: end %d must be greater than start %d", domain.ErrInvalidConfig, c.End, c.Start)
	}
	if c.End-1 > layout.MaxCaseIndex {
		return fmt.Errorf("%w: end %d exceeds %d", domain.ErrInvalidCaseIndex, c.End, layout.MaxCaseIndex+1)
	}
	if c.BatchLabel == "" {
		c.BatchLabel = DefaultBatchLabel(c.Start, c.End)
	}
	if c.MapExt == "" {
		c.MapExt = ".nrrd"
	}
	return nil
}

// DefaultBatchLabel names a batch after its first and last case index.
func DefaultBatchLabel(start, end int) string {
	return fmt.Sprintf("%05d-%05d", start, end-1)
}

// TablePath returns the location of the feature table for label.
func TablePath(dir, label string) string {
	return filepath.Join(dir, label+TableSuffix)
}

// CaseEventEmitter is notified after every case.
type CaseEventEmitter interface {
	OnCaseDone(caseID string, features, maps int, duration time.Duration)
	OnCaseError(caseID string, err error)
}

// Summary describes a finished batch.
type Summary struct {
	TablePath string
	Rows      int
	Failed    int
}

// Runner drives the per-case extraction loop and exports the table.
type Runner struct {
	config     RunnerConfig
	layout     layout.Layout
	extractor  ports.Extractor
	maps       ports.VolumeWriter
	tables     ports.TableWriter
	statusRepo ports.StatusRepository
	logger     ports.Logger
	emitter    CaseEventEmitter
}

// NewRunner creates a runner with the given dependencies.
func NewRunner(
	config RunnerConfig,
	l layout.Layout,
	extractor ports.Extractor,
	maps ports.VolumeWriter,
	tables ports.TableWriter,
	statusRepo ports.StatusRepository,
	logger ports.Logger,
	emitter CaseEventEmitter,
) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Runner{
		config:     config,
		layout:     l,
		extractor:  extractor,
		maps:       maps,
		tables:     tables,
		statusRepo: statusRepo,
		logger:     logger,
		emitter:    emitter,
	}, nil
}

// Config returns the validated configuration.
func (r *Runner) Config() RunnerConfig {
	return r.config
}

// Run processes cases [Start, End) sequentially and writes one table.
// On cancellation or on a failed case (unless ContinueOnError is set) the
// table is not written and the error is returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	status := domain.RunStatus{
		BatchLabel: r.config.BatchLabel,
		Start:      r.config.Start,
		End:        r.config.End,
		StartedAt:  time.Now().UTC(),
		CasesTotal: r.config.End - r.config.Start,
		Host:       r.config.Host,
	}
	r.saveStatus(ctx, status)

	r.logger.Info("starting batch",
		ports.String("label", r.config.BatchLabel),
		ports.Int("start", r.config.Start),
		ports.Int("end", r.config.End),
	)

	collector := NewCollector()
	var summary Summary

	for i := r.config.Start; i < r.config.End; i++ {
		if err := ctx.Err(); err != nil {
			return summary, r.abort(status, err)
		}

		c, err := r.layout.Resolve(i)
		if err != nil {
			return summary, r.abort(status, err)
		}

		rec, err := r.processCase(ctx, c)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return summary, r.abort(status, ctxErr)
			}
			status.MarkCase(c.ID, false)
			summary.Failed++
			if !r.config.ContinueOnError {
				return summary, r.abort(status, fmt.Errorf("case %s: %w", c.ID, err))
			}
			r.saveStatus(ctx, status)
			continue
		}

		collector.Add(rec)
		status.MarkCase(c.ID, true)
		r.saveStatus(ctx, status)
	}

	path := TablePath(r.config.TableDir, r.config.BatchLabel)
	if err := r.tables.WriteTable(path, collector.Table()); err != nil {
		return summary, r.abort(status, fmt.Errorf("write table: %w", err))
	}

	summary.TablePath = path
	summary.Rows = collector.Len()

	status.TablePath = path
	status.FinishedAt = time.Now().UTC()
	r.saveStatus(ctx, status)

	r.logger.Info("batch complete",
		ports.String("table", path),
		ports.Int("rows", summary.Rows),
		ports.Int("failed", summary.Failed),
	)
	return summary, nil
}

// processCase extracts one case and routes its result.
func (r *Runner) processCase(ctx context.Context, c domain.Case) (*domain.Record, error) {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	r.logger.Info("extracting case",
		ports.String("case", c.ID),
		ports.String("image", c.ImagePath),
		ports.String("mask", c.MaskPath),
	)

	start := time.Now()
	res, err := r.extractor.Execute(ctx, c.ImagePath, c.MaskPath)
	if err != nil {
		r.caseFailed(c.ID, err)
		return nil, err
	}

	rec, written, err := Partition(c, res, r.maps, r.config.MapExt, r.logger)
	if err != nil {
		r.caseFailed(c.ID, err)
		return nil, err
	}
	duration := time.Since(start)

	r.logger.Info("case extracted",
		ports.String("case", c.ID),
		ports.Int("features", rec.Len()),
		ports.Int("maps", len(written)),
		ports.Duration("duration", duration),
	)
	if r.emitter != nil {
		r.emitter.OnCaseDone(c.ID, rec.Len(), len(written), duration)
	}
	return rec, nil
}

func (r *Runner) caseFailed(caseID string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	r.logger.Error("case failed", ports.String("case", caseID), ports.Err(err))
	if r.emitter != nil {
		r.emitter.OnCaseError(caseID, err)
	}
}

// abort records err in the run status and returns it.
func (r *Runner) abort(status domain.RunStatus, err error) error {
	status.Error = err.Error()
	status.FinishedAt = time.Now().UTC()
	// The status must land even when ctx is already cancelled.
	r.saveStatus(context.Background(), status)
	return err
}

func (r *Runner) saveStatus(ctx context.Context, status domain.RunStatus) {
	if r.statusRepo == nil {
		return
	}
	if err := r.statusRepo.Save(ctx, status); err != nil {
		r.logger.Error("failed to save run status", ports.Err(err))
	}
}
