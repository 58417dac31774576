// Command pipeline is the thin wiring layer: it decodes one session
// submission, runs the orchestration pipeline end to end, streams
// progress as NDJSON to stdout, and writes the rendered report to disk
// (spec.md §6).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"insightpipeline/internal/analysis"
	"insightpipeline/internal/config"
	"insightpipeline/internal/controller"
	"insightpipeline/internal/document"
	"insightpipeline/internal/events"
	"insightpipeline/internal/llm"
	"insightpipeline/internal/outline"
	"insightpipeline/internal/provider"
	"insightpipeline/internal/query"
	"insightpipeline/internal/report"
	"insightpipeline/internal/rpc"
	"insightpipeline/internal/search"
	"insightpipeline/internal/section"
	"insightpipeline/internal/session"
	"insightpipeline/internal/summary"
)

func main() {
	cfg := config.Load()

	req, err := readRequest(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read request:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, req, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "pipeline:", err)
		os.Exit(1)
	}
}

// readRequest decodes a Request from r; an empty/whitespace-only stream
// yields a zero Request rather than an error, so the command can also be
// invoked with no stdin for smoke testing.
func readRequest(r io.Reader) (rpc.Request, error) {
	data, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return rpc.Request{}, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return rpc.Request{}, nil
	}
	var req rpc.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return rpc.Request{}, fmt.Errorf("decode request json: %w", err)
	}
	return req, nil
}

func run(ctx context.Context, cfg *config.Config, req rpc.Request, out io.Writer) error {
	kwargs, err := rpc.DecodeKwargs(req.Kwargs)
	if err != nil {
		return fmt.Errorf("decode kwargs: %w", err)
	}
	taskType := rpc.ResolveTaskType(req.TaskType, req.Task)
	topic := req.Task
	if topic == "" {
		topic = "untitled topic"
	}

	sess, sessCtx := session.New(ctx, topic, cfg.EventBusBacklog)
	defer sess.Cancel()
	sess.SetStatus(session.StatusRunning)

	enc := json.NewEncoder(out)
	var encMu sync.Mutex
	writeLine := func(v interface{}) {
		encMu.Lock()
		defer encMu.Unlock()
		_ = enc.Encode(v)
	}

	streamCtx, stopStream := context.WithCancel(context.Background())
	defer stopStream()
	var streamWG sync.WaitGroup
	streamWG.Add(1)
	go func() {
		defer streamWG.Done()
		for ev := range sess.Bus.Subscribe(streamCtx) {
			if note, ok := rpc.FromEvent(ev); ok {
				writeLine(note)
			}
		}
	}()

	baseClient := llm.New(cfg)
	chatClient := sess.Instrument(baseClient, "llm")

	registry := provider.NewRegistry(cfg)
	generator := query.NewGenerator(chatClient)
	orchestrator := search.New(registry, sess.Bus)
	analyzer := analysis.NewAnalyzer(chatClient, sess.Bus)

	budgets := controller.Budgets{
		MaxIterations:      kwargs.MaxIterations,
		QualityThreshold:   kwargs.QualityThreshold,
		WallTimeBudget:     cfg.SessionTimeout,
		PerIterationBudget: cfg.IterationTimeout,
	}
	ctrl := controller.New(generator, orchestrator, analyzer, registry, sess.Bus, budgets)

	result, err := ctrl.Run(sessCtx, topic)
	if err != nil {
		sess.SetStatus(session.StatusFailed)
		stopStreamAndWait(stopStream, &streamWG)
		writeLine(rpc.FromError(err))
		return err
	}

	rpt, markdown, err := assembleReport(sessCtx, cfg, sess, generator, orchestrator, registry, chatClient, taskType, topic, result, kwargs)
	if err != nil {
		sess.SetStatus(session.StatusFailed)
		stopStreamAndWait(stopStream, &streamWG)
		writeLine(rpc.FromError(err))
		return err
	}

	sess.Bus.Publish(events.Final, "report", result.Iterations, events.FinalData{ReportMarkdown: markdown})
	stopStreamAndWait(stopStream, &streamWG)
	writeLine(rpc.SessionCompleted(sess.ID))
	sess.SetStatus(session.StatusComplete)

	return writeArtifact(cfg.OutputDir, topic, string(taskType), rpt, markdown)
}

// stopStreamAndWait cancels the subscriber's context and waits for the
// forwarding goroutine to drain and exit before the caller emits any more
// notifications directly, preserving FIFO ordering on stdout.
func stopStreamAndWait(stop context.CancelFunc, wg *sync.WaitGroup) {
	stop()
	wg.Wait()
}

// assembleReport runs the outline→per-section-search→section-writer→
// summary stages and hands off to the Report Assembler (spec.md §2's
// happy-path data flow, §4.10).
func assembleReport(
	ctx context.Context,
	cfg *config.Config,
	sess *session.Session,
	generator *query.Generator,
	orchestrator *search.Orchestrator,
	registry *provider.Registry,
	chatClient llm.ChatClient,
	taskType rpc.TaskType,
	topic string,
	result controller.Result,
	kwargs rpc.Kwargs,
) (report.Report, string, error) {
	builder := outline.NewBuilder(chatClient)
	o, err := builder.BuildOutline(ctx, topic, reportTypeFor(taskType), sampleDocs(result.Documents, 10))
	if err != nil {
		return report.Report{}, "", err
	}

	leaves := o.Leaves()
	sections := make([]section.Section, len(leaves))
	completed := make([]bool, len(leaves))

	sectionCap := cfg.SectionWorkerCap
	if sectionCap <= 0 || sectionCap > 6 {
		sectionCap = 6
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sectionCap)

	writer := section.NewWriter(chatClient)
	sectionCfg := section.Config{
		Style:            section.Professional,
		Tone:             section.Objective,
		Depth:            section.ComprehensiveDepth,
		IncludeCitations: kwargs.IncludeCitations,
		MinLength:        500,
		MaxLength:        2000,
	}

	for i, n := range leaves {
		i, n := i, n
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			queries := generator.Generate(gctx, topic, query.Targeted, query.Context{
				SectionTitle:       n.Title,
				SectionDescription: n.Description,
				Companies:          kwargs.Companies,
			})
			scoped := orchestrator.ParallelSearch(gctx, queries, registry.All(), search.Options{MaxResults: 8})
			scoped = mergeSectionDocs(scoped, result.Documents)

			sec, werr := writer.WriteSection(gctx, n, scoped, sectionCfg)
			if werr != nil {
				return werr
			}
			sess.Bus.Publish(events.SectionGenerated, "section", result.Iterations, events.SectionGeneratedData{
				OutlineID:     n.ID,
				Title:         n.Title,
				WordCount:     sec.WordCount,
				CitationCount: len(sec.Citations),
			})
			sections[i] = sec
			completed[i] = true
			return nil
		})
	}

	partial := false
	if err := g.Wait(); err != nil {
		if !cfg.EmitPartialOnCancel || !errors.Is(err, context.Canceled) {
			return report.Report{}, "", err
		}
		partial = true
		fillIncompleteSections(sections, completed, leaves)
	}

	summaryInput := combineSectionContent(sections)
	summaryWriter := summary.NewWriter(chatClient)
	exec, err := summaryWriter.WriteSummary(ctx, summaryInput, summary.Constraints{Format: summary.Executive, MaxWords: 300})
	if err != nil {
		return report.Report{}, "", err
	}

	assembler := report.NewAssembler()
	rpt, markdown, err := assembler.Assemble(report.Input{
		Topic:            topic,
		Outline:          o,
		Sections:         sections,
		ExecutiveSummary: exec,
		Quality:          result.Quality,
		SessionID:        sess.ID,
		SourcesCount:     len(result.Documents),
		Iterations:       result.Iterations,
		GeneratedAt:      time.Now(),
		ModelUsageTotals: sess.UsageTotals(),
	})
	if err != nil {
		return report.Report{}, "", err
	}
	if partial {
		rpt.Metadata["partial"] = true
	}
	return rpt, markdown, nil
}

// fillIncompleteSections replaces any section whose writer goroutine never
// finished (cancellation mid-pool) with a placeholder so the Assembler's
// section-count invariant still holds for a partial report.
func fillIncompleteSections(sections []section.Section, completed []bool, leaves []*outline.Node) {
	for i, done := range completed {
		if done {
			continue
		}
		sections[i] = section.Section{
			Content: fmt.Sprintf("*%s: generation was cancelled before this section completed.*", leaves[i].Title),
		}
	}
}

func reportTypeFor(t rpc.TaskType) outline.ReportType {
	switch t {
	case rpc.TaskInsight:
		return outline.Insight
	case rpc.TaskIndustry:
		return outline.Industry
	case rpc.TaskResearch:
		return outline.Research
	case rpc.TaskNewsReport:
		return outline.NewsReport
	default:
		return outline.Comprehensive
	}
}

func sampleDocs(docs []document.Document, n int) []document.Document {
	if len(docs) <= n {
		return docs
	}
	return docs[:n]
}

// mergeSectionDocs prefers section-scoped search results but falls back to
// the controller's accumulated set when the targeted search starves,
// keeping the section writer from ever seeing zero documents.
func mergeSectionDocs(scoped, accumulated []document.Document) []document.Document {
	if len(scoped) >= 3 {
		return scoped
	}
	seen := make(map[string]struct{}, len(scoped))
	merged := append([]document.Document{}, scoped...)
	for _, d := range scoped {
		seen[d.Key()] = struct{}{}
	}
	for _, d := range accumulated {
		if _, ok := seen[d.Key()]; ok {
			continue
		}
		seen[d.Key()] = struct{}{}
		merged = append(merged, d)
		if len(merged) >= 8 {
			break
		}
	}
	return merged
}

func combineSectionContent(sections []section.Section) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-]+`)

func safeTopic(topic string) string {
	slug := unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(topic), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "report"
	}
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return slug
}

// writeArtifact writes the UTF-8 Markdown (with BOM) and its YAML sidecar
// using the spec.md §6 filename template.
func writeArtifact(outputDir, topic, reportType string, rpt report.Report, markdown string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	timestamp := rpt.GeneratedAt.Format("20060102_150405")
	base := fmt.Sprintf("%s_%s_%s", safeTopic(topic), reportType, timestamp)

	mdPath := filepath.Join(outputDir, base+".md")
	var body strings.Builder
	body.WriteString("﻿")
	body.WriteString(markdown)
	if err := os.WriteFile(mdPath, []byte(body.String()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	sidecarBytes, err := report.SidecarFor(rpt).Marshal()
	if err != nil {
		return fmt.Errorf("marshal sidecar: %w", err)
	}
	yamlPath := filepath.Join(outputDir, base+".yaml")
	if err := os.WriteFile(yamlPath, sidecarBytes, 0o644); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}

	return nil
}
