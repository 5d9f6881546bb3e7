package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/radbatch/internal/cliconfig"
)

const helpDescription = `
Extract radiomic features for a cohort of CT volumes and their segmentation
masks, one table row per case.

Input layout (under --data-dir):
  imagesTr/case_NNNNN_0000.nii.gz   CT volume
  labelsTr/case_NNNNN.nii.gz        segmentation mask

Outputs:
  <table-dir>/<batch-label>_radiomics_feature.csv   scalar features
  <export-dir>/case_NNNNN/case_NNNNN_<feature>.nrrd feature maps
  <state-dir>/run-status.json                       progress

Settings come from defaults, then $HOME/.radbatch/config.toml, then
RADBATCH_* environment variables, then flags.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  radbatch --data-dir /data/kits19 --start 0 --end 210 --params params.yaml
  radbatch --data-dir /data/kits19 --voxel-based --map-format nii.gz
  radbatch watch --data-dir /data/kits19 --batch-label incoming
  radbatch info /data/kits19/imagesTr/case_00000_0000.nii.gz
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli holds the state shared by all subcommands.
type cli struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
}

func main() {
	c := &cli{cfg: cliconfig.DefaultConfig()}
	c.log, _ = cliconfig.NewLogger(os.Stderr, c.cfg.LogLevel)

	root := &cobra.Command{
		Use:           "radbatch",
		Short:         "Batch radiomics feature extraction",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runBatch,
	}

	c.bindFlags(root.PersistentFlags())

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Extract features for every case in [start, end) and write the table",
			Args:  cobra.NoArgs,
			RunE:  c.runBatch,
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Extract features for masks as they appear in labelsTr",
			Args:  cobra.NoArgs,
			RunE:  c.runWatch,
		},
		&cobra.Command{
			Use:   "info <image>...",
			Short: "Print the geometry of image or mask files",
			Args:  cobra.MinimumNArgs(1),
			RunE:  c.runInfo,
		},
		&cobra.Command{
			Use:   "params",
			Short: "Print the resolved extraction parameters",
			Args:  cobra.NoArgs,
			RunE:  c.runParams,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the status of the last run",
			Args:  cobra.NoArgs,
			RunE:  c.runStatus,
		},
	)

	if err := root.Execute(); err != nil {
		c.log.Error().Err(err).Msg("radbatch")
		os.Exit(1)
	}
}

func (c *cli) bindFlags(flags *pflag.FlagSet) {
	cfg := &c.cfg
	flags.StringVar(&c.cfgPath, "config", "", "path to config file (default: $HOME/.radbatch/config.toml)")

	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "cohort directory containing imagesTr and labelsTr")
	flags.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "directory for per-case feature maps (default: <data-dir>/radiomics)")
	flags.StringVar(&cfg.TableDir, "table-dir", cfg.TableDir, "directory for the feature table (default: export-dir)")
	flags.StringVar(&cfg.StateDir, "state-dir", cfg.StateDir, "directory for run-status.json (default: export-dir)")
	flags.StringVar(&cfg.ParamsFile, "params", cfg.ParamsFile, "pyradiomics parameter file (YAML)")

	flags.IntVar(&cfg.Start, "start", cfg.Start, "first case index")
	flags.IntVar(&cfg.End, "end", cfg.End, "case index to stop before")
	flags.StringVar(&cfg.BatchLabel, "batch-label", cfg.BatchLabel, "label naming the output table (default: <start>-<end-1>)")

	flags.StringVar(&cfg.Extractor, "extractor", cfg.Extractor, "extraction backend: native or pyradiomics")
	flags.StringVar(&cfg.PyradiomicsBin, "pyradiomics-bin", cfg.PyradiomicsBin, "pyradiomics executable")
	flags.BoolVar(&cfg.VoxelBased, "voxel-based", cfg.VoxelBased, "compute voxel-wise feature maps")
	flags.StringVar(&cfg.MapFormat, "map-format", cfg.MapFormat, "feature map format: nrrd, nii or nii.gz")
	flags.BoolVar(&cfg.EnableAll, "enable-all", cfg.EnableAll, "enable every feature class")
	flags.BoolVar(&cfg.ContinueOnError, "continue-on-error", cfg.ContinueOnError, "skip failed cases instead of aborting")

	flags.DurationVar(&cfg.WatchDebounce, "watch-debounce", cfg.WatchDebounce, "quiet period before a new mask is processed")
	flags.IntVar(&cfg.WatchRetries, "watch-retries", cfg.WatchRetries, "retries for a watched case")

	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
}

// loadConfig layers the config file and the environment under the flags.
// validate is false for commands that do not need a data directory.
func (c *cli) loadConfig(cmd *cobra.Command, validate bool) error {
	cfgFile := c.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&c.cfg, fc, changed); err != nil {
			return err
		}
	}

	if err := cliconfig.ApplyEnvConfig(&c.cfg, changed); err != nil {
		return err
	}

	log, err := cliconfig.NewLogger(os.Stderr, c.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	c.log = log

	if !validate {
		return nil
	}
	if err := c.cfg.Validate(); err != nil {
		return err
	}
	c.log.Debug().Interface("config", c.cfg).Msg("configuration")
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func (c *cli) signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			c.log.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
