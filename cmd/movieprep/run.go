// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"golang.org/x/term"

	"github.com/jaycherian/gcp-go-movie-features/internal/cloud"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/workflow"
)

// stages selects the parts of the pipeline a subcommand runs.
type stages struct {
	tables  bool
	scripts bool
	publish bool
}

func runPipeline(cmd *cobra.Command, selected stages) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := InitState(ctx, cmd)
	if err != nil {
		return err
	}
	defer state.Close(context.Background())
	config := state.config

	options := workflow.PipelineOptions{Tables: selected.tables, Scripts: selected.scripts}

	if selected.publish && config.Sink.Enabled {
		clients, err := cloud.NewCloudServiceClients(ctx, config)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMovieprep, err)
		}
		defer clients.Close()
		targets := workflow.NewPublishTargets(config, clients)
		options.Publish = &targets
	}

	var progress *mpb.Progress
	if selected.scripts {
		showProgress, err := cmd.Flags().GetBool(flagProgress)
		if err != nil {
			return err
		}
		if showProgress && term.IsTerminal(int(os.Stdout.Fd())) {
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				return fmt.Errorf("%w: getting terminal size: %w", ErrMovieprep, err)
			}
			progress = mpb.New(mpb.WithWidth(width))
			options.Progress = progress.AddBar(0,
				mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
				mpb.PrependDecorators(decor.Name("scripts")),
				mpb.PrependDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
				mpb.BarRemoveOnComplete())
		}
	}

	pipeline, err := workflow.NewFeaturePipeline(config, options)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMovieprep, err)
	}

	runCtx, manifest := workflow.NewRun(ctx, state.logger)
	state.logger.Info("run started", "run_id", manifest.RunID, "stages", pipeline.Stages())
	pipeline.Execute(runCtx)
	if progress != nil {
		progress.Wait()
	}

	printSummary(cmd.OutOrStdout(), manifest, runCtx.GetWarnings())
	if runCtx.HasErrors() {
		errs := runCtx.GetErrors()
		names := make([]string, 0, len(errs))
		for name := range errs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, errs[name])
		}
		return fmt.Errorf("%w: run %s failed in %d stage(s)", ErrMovieprep, manifest.RunID, len(errs))
	}
	return nil
}

func printSummary(w io.Writer, manifest *model.RunManifest, warnings []error) {
	fmt.Fprintf(w, "run %s\n", manifest.RunID)
	for _, a := range manifest.Artifacts {
		fmt.Fprintf(w, "  %-8s %6d rows  %s\n", a.Format, a.Rows, a.Path)
		if a.GCSURI != "" {
			fmt.Fprintf(w, "  %-8s %11s %s\n", "", "", a.GCSURI)
		}
	}
	for _, warning := range warnings {
		fmt.Fprintf(w, "  warning: %v\n", warning)
	}
}
