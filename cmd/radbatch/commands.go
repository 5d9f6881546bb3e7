package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bft-labs/radbatch/internal/adapters/fs"
	"github.com/bft-labs/radbatch/internal/adapters/imageio"
	logAdapter "github.com/bft-labs/radbatch/internal/adapters/log"
	"github.com/bft-labs/radbatch/internal/params"
	"github.com/bft-labs/radbatch/pkg/radbatch"
)

func (c *cli) newBatch() (*radbatch.Batch, error) {
	b, err := radbatch.New(c.cfg,
		radbatch.WithLogger(logAdapter.NewZerologAdapterWithLogger(c.log)),
		radbatch.WithVersion(getVersion()),
	)
	if err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}
	return b, nil
}

func (c *cli) runBatch(cmd *cobra.Command, args []string) error {
	if err := c.loadConfig(cmd, true); err != nil {
		return err
	}
	b, err := c.newBatch()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := c.signalContext()
	defer cancel()

	summary, err := b.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.TablePath)
	return nil
}

func (c *cli) runWatch(cmd *cobra.Command, args []string) error {
	if err := c.loadConfig(cmd, true); err != nil {
		return err
	}
	b, err := c.newBatch()
	if err != nil {
		return err
	}
	defer b.Close()

	ctx, cancel := c.signalContext()
	defer cancel()

	c.log.Info().Str("table", b.TablePath()).Msg("watching for new masks")
	return b.Watch(ctx)
}

func (c *cli) runInfo(cmd *cobra.Command, args []string) error {
	if err := c.loadConfig(cmd, false); err != nil {
		return err
	}
	reg := imageio.NewRegistry()
	out := cmd.OutOrStdout()
	for _, path := range args {
		vol, err := reg.Read(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", path)
		fmt.Fprintf(out, "  format:    %s\n", imageio.Format(path))
		fmt.Fprintf(out, "  pixel:     %s\n", vol.PixelType)
		fmt.Fprintf(out, "  size:      %d x %d x %d\n", vol.Size[0], vol.Size[1], vol.Size[2])
		fmt.Fprintf(out, "  spacing:   %g\n", vol.Spacing)
		fmt.Fprintf(out, "  origin:    %g\n", vol.Origin)
		fmt.Fprintf(out, "  direction: %g\n", vol.Direction)
		fmt.Fprintf(out, "  nan:       %d\n", vol.CountNaN())
	}
	return nil
}

func (c *cli) runParams(cmd *cobra.Command, args []string) error {
	if err := c.loadConfig(cmd, false); err != nil {
		return err
	}
	p, err := params.Load(c.cfg.ParamsFile)
	if err != nil {
		return err
	}
	if c.cfg.EnableAll {
		p.EnableAllFeatures()
	}
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func (c *cli) runStatus(cmd *cobra.Command, args []string) error {
	if err := c.loadConfig(cmd, false); err != nil {
		return err
	}
	dir, err := c.cfg.StatusDir()
	if err != nil {
		return err
	}
	repo := fs.NewStatusFileRepository(dir)
	status, err := repo.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load %s: %w", repo.Path(), err)
	}
	if status.StartedAt.IsZero() {
		fmt.Fprintf(cmd.OutOrStdout(), "no run recorded in %s\n", repo.Path())
		return nil
	}
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", data)
	return nil
}
