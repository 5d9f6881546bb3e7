package radbatch

import (
	"context"
	"fmt"
	"io"

	"github.com/bft-labs/radbatch/internal/adapters/csvtable"
	"github.com/bft-labs/radbatch/internal/adapters/fs"
	"github.com/bft-labs/radbatch/internal/adapters/imageio"
	"github.com/bft-labs/radbatch/internal/adapters/pyradiomics"
	"github.com/bft-labs/radbatch/internal/app"
	"github.com/bft-labs/radbatch/internal/cliconfig"
	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/layout"
	"github.com/bft-labs/radbatch/internal/params"
	"github.com/bft-labs/radbatch/internal/ports"
	"github.com/bft-labs/radbatch/internal/radiomics"
	"github.com/bft-labs/radbatch/internal/system"
)

// Config holds the configuration of a batch.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// Summary describes a finished batch.
type Summary = app.Summary

// HostInfo is the machine snapshot stored in the run status.
type HostInfo = domain.HostInfo

// Extractor backends accepted in Config.Extractor.
const (
	ExtractorNative      = cliconfig.ExtractorNative
	ExtractorPyradiomics = cliconfig.ExtractorPyradiomics
)

// DefaultConfig returns a Config with sensible default values.
// At minimum DataDir must be set before calling New.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Batch extracts features for a range of cases and exports one table.
type Batch struct {
	config    Config
	params    *params.Params
	runner    *app.Runner
	extractor ports.Extractor
	closer    io.Closer
	tables    *csvtable.Store
	logger    ports.Logger
}

// New validates cfg, loads the parameter file and builds the extractor.
// Call Close when done to release extractor resources.
func New(cfg Config, opts ...Option) (*Batch, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	p, err := params.Load(cfg.ParamsFile)
	if err != nil {
		return nil, fmt.Errorf("load params: %w", err)
	}
	if cfg.EnableAll {
		p.EnableAllFeatures()
	}

	mapExt, err := imageio.Extension(cfg.MapFormat)
	if err != nil {
		return nil, err
	}

	images := imageio.NewRegistry()
	extractor, closer := o.extractor, io.Closer(nil)
	if extractor == nil {
		extractor, closer, err = newExtractor(cfg, p, images, logger, o.version)
		if err != nil {
			return nil, err
		}
	}

	host := o.host
	if host == nil {
		snap, err := system.Snapshot(context.Background())
		if err != nil {
			logger.Warn("host snapshot incomplete", ports.Err(err))
		}
		host = &snap
	}
	logger.Info("host",
		ports.String("hostname", host.Hostname),
		ports.String("platform", host.Platform),
		ports.Int("cpus", host.LogicalCPUs),
		ports.Any("memory", host.TotalMemory),
	)

	var emitter app.CaseEventEmitter
	if o.eventHandler != nil {
		emitter = &eventEmitterWrapper{handler: o.eventHandler}
	}

	tables := csvtable.NewStore()
	runner, err := app.NewRunner(
		app.RunnerConfig{
			Start:           cfg.Start,
			End:             cfg.End,
			BatchLabel:      cfg.BatchLabel,
			TableDir:        cfg.TableDir,
			MapExt:          mapExt,
			ContinueOnError: cfg.ContinueOnError,
			Host:            *host,
		},
		layout.Default(cfg.DataDir, cfg.ExportDir),
		extractor,
		images,
		tables,
		fs.NewStatusFileRepository(cfg.StateDir),
		logger,
		emitter,
	)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	return &Batch{
		config:    cfg,
		params:    p,
		runner:    runner,
		extractor: extractor,
		closer:    closer,
		tables:    tables,
		logger:    logger,
	}, nil
}

// newExtractor builds the backend named in cfg.Extractor.
func newExtractor(cfg Config, p *params.Params, images ports.VolumeReader, logger ports.Logger, version string) (ports.Extractor, io.Closer, error) {
	switch cfg.Extractor {
	case ExtractorPyradiomics:
		e, err := pyradiomics.New(pyradiomics.Config{
			Binary:     cfg.PyradiomicsBin,
			Params:     p,
			Logger:     logger,
			VoxelBased: cfg.VoxelBased,
		})
		if err != nil {
			return nil, nil, err
		}
		return e, e, nil
	default:
		e, err := radiomics.New(radiomics.Config{
			Params:     p,
			Reader:     images,
			Logger:     logger,
			VoxelBased: cfg.VoxelBased,
			Version:    version,
		})
		if err != nil {
			return nil, nil, err
		}
		return e, nil, nil
	}
}

// Run processes every case in [Start, End) and writes the feature table.
// It blocks until the batch is done or ctx is cancelled.
func (b *Batch) Run(ctx context.Context) (Summary, error) {
	return b.runner.Run(ctx)
}

// Watch processes masks as they appear in the labels directory and keeps
// the table up to date. It blocks until ctx is cancelled.
func (b *Batch) Watch(ctx context.Context) error {
	return b.runner.Watch(ctx, app.WatchConfig{
		Debounce: b.config.WatchDebounce,
		Retries:  b.config.WatchRetries,
		Existing: b.tables,
	})
}

// TablePath returns where the feature table is written.
func (b *Batch) TablePath() string {
	rc := b.runner.Config()
	return app.TablePath(rc.TableDir, rc.BatchLabel)
}

// Config returns the validated configuration.
func (b *Batch) Config() Config {
	return b.config
}

// Params returns the resolved extraction parameters.
func (b *Batch) Params() *params.Params {
	return b.params
}

// Close releases extractor resources.
func (b *Batch) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}
