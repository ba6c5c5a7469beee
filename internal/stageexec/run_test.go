package stageexec_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"subtitler/internal/logging"
	"subtitler/internal/services"
	"subtitler/internal/stage"
	"subtitler/internal/stageexec"
)

type fakeHandler struct {
	logger *slog.Logger
}

func (h *fakeHandler) Name() string { return stage.Translate }

func (h *fakeHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(stage.Translate) }

func (h *fakeHandler) SetLogger(logger *slog.Logger) { h.logger = logger }

func TestRunAttachesStageContextAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := &fakeHandler{}

	var seenStage string
	results, err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:  logger,
		Handler: handler,
		Exec: func(ctx context.Context) ([]stage.Result, error) {
			seenStage, _ = services.StageFromContext(ctx)
			return []stage.Result{{Stage: stage.Translate, Input: "a.srt", Output: "a_translated.srt"}}, nil
		},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected results to pass through, got %+v", results)
	}
	if seenStage != stage.Translate {
		t.Fatalf("expected stage in context, got %q", seenStage)
	}
	if handler.logger == nil {
		t.Fatal("expected handler logger to be set")
	}
	out := buf.String()
	for _, event := range []string{`"event_type":"stage_start"`, `"event_type":"stage_complete"`, `"stage":"translate"`} {
		if !strings.Contains(out, event) {
			t.Fatalf("expected %s in logs:\n%s", event, out)
		}
	}
}

func TestRunLogsFailureStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	stageErr := services.Wrap(services.ErrValidation, stage.Translate, "parse subtitle", "b.srt", errors.New("bad timestamp"))

	results, err := stageexec.Run(context.Background(), stageexec.Options{
		Logger:  logger,
		Handler: &fakeHandler{},
		Exec: func(context.Context) ([]stage.Result, error) {
			return []stage.Result{
				{Stage: stage.Translate, Input: "a.srt", Output: "a_translated.srt"},
				{Stage: stage.Translate, Input: "b.srt", Err: stageErr},
			}, stageErr
		},
	})
	if !errors.Is(err, stageErr) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected partial results, got %d", len(results))
	}
	out := buf.String()
	for _, fragment := range []string{`"event_type":"stage_failure"`, `"resolved_status":"review"`, `"failed_input":"b.srt"`, `"completed_before_failure":1`, `"failed_operation":"parse subtitle"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %s in logs:\n%s", fragment, out)
		}
	}
}

func TestRunRequiresHandler(t *testing.T) {
	if _, err := stageexec.Run(context.Background(), stageexec.Options{}); err == nil {
		t.Fatal("expected error without handler")
	}
}

func TestComponentLogLinesCarryContextOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := &fakeHandler{}
	ctx := services.WithRequestID(context.Background(), "run-1")

	_, err := stageexec.Run(ctx, stageexec.Options{
		Logger:  logger,
		Handler: handler,
		Exec: func(ctx context.Context) ([]stage.Result, error) {
			fileCtx := services.WithFile(ctx, "clip.srt")
			logging.WithFile(fileCtx, handler.logger).Info("file done")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, `"msg":"file done"`) {
			line = l
		}
	}
	if line == "" {
		t.Fatalf("file log line missing:\n%s", buf.String())
	}
	for _, key := range []string{`"stage":`, `"correlation_id":`, `"file":`} {
		if n := strings.Count(line, key); n != 1 {
			t.Fatalf("expected %s once, found %d times: %s", key, n, line)
		}
	}
}
