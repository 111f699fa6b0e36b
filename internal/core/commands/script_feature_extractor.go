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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that computes the script feature records.
//
// Logic Flow:
// Tokenizing and scoring documents is the expensive part of a run, so the
// documents are processed by a fixed-size worker pool.
//
//  1. The documents are read from ScriptDocumentsKey.
//  2. A `jobs` channel feeds one ScriptJob per document to the workers and a
//     `results` channel carries the feature records back. Each job owns a
//     child span that is closed by the worker.
//  3. Results are placed by their job index, so the output order matches the
//     input order regardless of which worker finished first.
//  4. An optional ProgressReporter is advanced as results arrive.
//  5. The records go to ScriptFeaturesKey and their table to the output key.
//     Malformed documents are recorded as warnings.
package commands

import (
	goctx "context"
	"fmt"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jaycherian/gcp-go-movie-features/internal/core/cor"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/model"
	"github.com/jaycherian/gcp-go-movie-features/internal/core/text"
)

// ProgressReporter receives the document count and is advanced once per
// finished document.
type ProgressReporter interface {
	SetTotal(total int64, final bool)
	IncrBy(n int, wdd ...time.Duration)
}

// ScriptFeatureExtractor scores script documents in parallel.
type ScriptFeatureExtractor struct {
	cor.BaseCommand
	extractor        *text.Extractor
	numberOfWorkers  int
	outputName       string
	progress         ProgressReporter
	malformedCounter metric.Int64Counter
}

// NewScriptFeatureExtractor is the constructor for the ScriptFeatureExtractor
// command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - extractor: The configured feature extractor.
//   - numberOfWorkers: The size of the worker pool; values below 1 mean 1.
//   - outputName: The logical name of the script feature table.
//
// Outputs:
//   - *ScriptFeatureExtractor: A pointer to the newly instantiated command.
func NewScriptFeatureExtractor(name string, extractor *text.Extractor, numberOfWorkers int, outputName string) *ScriptFeatureExtractor {
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	out := &ScriptFeatureExtractor{
		BaseCommand:     *cor.NewBaseCommand(name),
		extractor:       extractor,
		numberOfWorkers: numberOfWorkers,
		outputName:      outputName,
	}
	out.InputParamName = ScriptDocumentsKey
	out.OutputParamName = TableParam(outputName)
	out.malformedCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.documents.malformed", name))
	return out
}

// WithProgress attaches a progress reporter.
func (s *ScriptFeatureExtractor) WithProgress(progress ProgressReporter) *ScriptFeatureExtractor {
	s.progress = progress
	return s
}

// Execute runs the worker pool over the documents.
func (s *ScriptFeatureExtractor) Execute(context cor.Context) {
	docs, ok := context.Get(s.GetInputParam()).([]model.ScriptDocument)
	if !ok {
		s.Fail(context, fmt.Errorf("context value %q is not a document list", s.GetInputParam()))
		return
	}

	var wg sync.WaitGroup
	jobs := make(chan *ScriptJob, len(docs))
	results := make(chan *ScriptResult, len(docs))

	for w := 1; w <= s.numberOfWorkers; w++ {
		wg.Add(1)
		go scriptWorker(s.extractor, jobs, results, &wg)
	}

	for i, doc := range docs {
		jobs <- NewScriptJob(context.GetContext(), s.Tracer, s.GetName(), i, doc)
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	if s.progress != nil {
		s.progress.SetTotal(int64(len(docs)), true)
	}
	start := time.Now()
	records := make([]model.ScriptFeatures, len(docs))
	var failures []error
	for r := range results {
		if s.progress != nil {
			s.progress.IncrBy(1, time.Since(start))
		}
		if r.err != nil {
			failures = append(failures, r.err)
			continue
		}
		records[r.index] = r.value
	}
	if len(failures) > 0 {
		s.Fail(context, failures[0])
		return
	}

	unscoreable := 0
	for i, record := range records {
		if record.Malformed {
			s.malformedCounter.Add(context.GetContext(), 1)
			context.AddWarning(s.GetName(), model.NewComputationWarning(s.GetName(),
				"script %s is malformed: %v", record.ScriptName, docs[i].Err))
		} else if math.IsNaN(record.FleschKincaid) {
			unscoreable++
		}
	}
	context.GetLogger().InfoContext(context.GetContext(), "script features extracted",
		"documents", len(records),
		"workers", s.numberOfWorkers,
		"unscoreable", unscoreable,
		"duration_ms", time.Since(start).Milliseconds())

	table := model.ScriptFeatureTable(records)
	table.Name = s.outputName

	s.Succeed(context)
	context.Add(ScriptFeaturesKey, records)
	context.Add(s.GetOutputParam(), table)
}

// ScriptResult carries one feature record, or the reason there is none, back
// from a worker.
type ScriptResult struct {
	index int
	value model.ScriptFeatures
	err   error
}

// ScriptJob is the unit of work of one worker: one document and its span.
type ScriptJob struct {
	index int
	ctx   goctx.Context
	span  trace.Span
	doc   model.ScriptDocument
}

// NewScriptJob starts the span of the job.
func NewScriptJob(ctx goctx.Context, tracer trace.Tracer, commandName string, index int, doc model.ScriptDocument) *ScriptJob {
	jobCtx, span := tracer.Start(ctx, fmt.Sprintf("%s_script_%d", commandName, index))
	span.SetAttributes(
		attribute.Int("sequence", index),
		attribute.String("script", doc.Name),
		attribute.Int("bytes", len(doc.Text)),
	)
	return &ScriptJob{index: index, ctx: jobCtx, span: span, doc: doc}
}

// Close ends the span of the job.
func (j *ScriptJob) Close(status codes.Code, description string) {
	j.span.SetStatus(status, description)
	j.span.End()
}

// scriptWorker scores jobs until the jobs channel is closed. A cancelled run
// turns the remaining jobs into errors.
func scriptWorker(extractor *text.Extractor, jobs <-chan *ScriptJob, results chan<- *ScriptResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		if err := j.ctx.Err(); err != nil {
			j.Close(codes.Error, "cancelled")
			results <- &ScriptResult{index: j.index, err: fmt.Errorf("scoring %s: %w", j.doc.Name, err)}
			continue
		}
		value := extractor.Extract(j.doc)
		if value.Malformed {
			j.span.SetAttributes(attribute.Bool("malformed", true))
		}
		j.span.SetAttributes(attribute.Int("words", value.WordCount))
		j.Close(codes.Ok, "scored")
		results <- &ScriptResult{index: j.index, value: value}
	}
}
