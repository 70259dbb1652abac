package main

// Run the analysis pipeline against a local resume:
//   go run ./cmd/analyze --resume resume.pdf --jd jd.txt --mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"recruit-assistant/internal/bootstrap"
	"recruit-assistant/internal/extract"
	"recruit-assistant/internal/pipeline"
	"recruit-assistant/internal/shared/config"
	"recruit-assistant/internal/shared/telemetry"
)

type options struct {
	resumePath string
	jdPath     string
	outPath    string
	mock       bool
}

type result struct {
	pipeline.Outcome
	InterviewQuestions []string `json:"interview_questions"`
}

func main() {
	var opts options
	pflag.StringVarP(&opts.resumePath, "resume", "r", "", "Path to resume file (pdf, docx or text)")
	pflag.StringVarP(&opts.jdPath, "jd", "j", "", "Path to job description file (optional)")
	pflag.StringVarP(&opts.outPath, "out", "o", "", "Path to write JSON output (optional)")
	pflag.BoolVar(&opts.mock, "mock", false, "Use canned model output instead of the configured provider")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil && !opts.mock {
		exitErr(fmt.Sprintf("load config: %v", err))
	}
	telemetry.Init(telemetry.Config{Level: "warn", Format: "pretty"})

	if err := run(context.Background(), cfg, opts, os.Stdout); err != nil {
		exitErr(err.Error())
	}
}

func run(ctx context.Context, cfg config.Config, opts options, stdout io.Writer) error {
	if strings.TrimSpace(opts.resumePath) == "" {
		return errors.New("resume path is required")
	}
	if opts.mock {
		cfg.UseMockAI = true
	}

	resumeBytes, err := os.ReadFile(opts.resumePath)
	if err != nil {
		return fmt.Errorf("read resume: %w", err)
	}
	text, err := extract.FromBytes(ctx, resumeBytes, "", filepath.Base(opts.resumePath))
	if err != nil {
		return fmt.Errorf("extract resume text: %w", err)
	}

	jobDescription := ""
	if strings.TrimSpace(opts.jdPath) != "" {
		jdBytes, err := os.ReadFile(opts.jdPath)
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
		jobDescription = strings.TrimSpace(string(jdBytes))
	}

	client, _, err := bootstrap.NewCompleter(cfg)
	if err != nil {
		return err
	}
	orch := pipeline.New(client)
	if cfg.PipelineWorkers > 0 {
		orch.Workers = cfg.PipelineWorkers
	}

	out := orch.Run(ctx, pipeline.Input{ResumeText: extract.Clean(text), JobDescription: jobDescription})
	questions := orch.GenerateQuestions(ctx, out.Profile, jobDescription, out.Analysis)

	pretty, err := json.MarshalIndent(result{Outcome: out, InterviewQuestions: questions}, "", "  ")
	if err != nil {
		return fmt.Errorf("format json: %w", err)
	}
	pretty = append(pretty, '\n')

	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, pretty, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	if _, err := stdout.Write(pretty); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
