package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"subtitler/internal/compose"
	"subtitler/internal/config"
	"subtitler/internal/fileutil"
	"subtitler/internal/ledger"
	"subtitler/internal/pipeline"
	"subtitler/internal/services"
	"subtitler/internal/stage"
	"subtitler/internal/testsupport"
)

// journal records the order in which fake stages touch files.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(entry string) {
	j.mu.Lock()
	j.entries = append(j.entries, entry)
	j.mu.Unlock()
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

type fakeBase struct {
	name string
	log  *journal
}

func (f fakeBase) Name() string { return f.name }

func (f fakeBase) HealthCheck(context.Context) stage.Health { return stage.Healthy(f.name) }

// mapDir runs fn for every file in dir with the given extensions, tracked as
// one stage.
func mapDir(ctx context.Context, name, dir string, exts []string, fn func(src string) (string, error)) ([]stage.Result, error) {
	files, err := fileutil.ListFiles(dir, exts...)
	if err != nil {
		return nil, err
	}
	tracker := stage.Track(ctx, name, len(files))
	for _, src := range files {
		if err := tracker.Item(src, func() (string, error) { return fn(src) }); err != nil {
			return tracker.Done(err)
		}
	}
	return tracker.Done(nil)
}

type fakeExtractor struct{ fakeBase }

func (f fakeExtractor) ExtractDir(ctx context.Context, in, out string) ([]stage.Result, error) {
	return mapDir(ctx, stage.Extract, in, []string{".mp4"}, func(src string) (string, error) {
		f.log.add("extract " + filepath.Base(src))
		dst := filepath.Join(out, fileutil.Stem(src)+".mp3")
		return dst, os.WriteFile(dst, []byte("mp3"), 0o644)
	})
}

type fakeTranscriber struct{ fakeBase }

func (f fakeTranscriber) TranscribeDir(ctx context.Context, in, out string) ([]stage.Result, error) {
	return mapDir(ctx, stage.Transcribe, in, []string{".mp3"}, func(src string) (string, error) {
		f.log.add("transcribe " + filepath.Base(src))
		dst := filepath.Join(out, fileutil.Stem(src)+".srt")
		return dst, os.WriteFile(dst, []byte("1\n00:00:00,000 --> 00:00:01,000\nhello\n"), 0o644)
	})
}

type fakeTranslator struct {
	fakeBase
	failOn string
}

func (f fakeTranslator) TranslateDir(ctx context.Context, dir, suffix, target string) ([]stage.Result, error) {
	return mapDir(ctx, stage.Translate, dir, []string{".srt"}, func(src string) (string, error) {
		if strings.HasSuffix(fileutil.Stem(src), suffix) {
			return "", nil
		}
		dst := filepath.Join(dir, fileutil.Stem(src)+suffix+".srt")
		return dst, f.TranslateFile(ctx, src, dst, target)
	})
}

func (f fakeTranslator) TranslateFile(_ context.Context, src, dst, target string) error {
	f.log.add("translate " + filepath.Base(src) + " " + target)
	if f.failOn != "" && filepath.Base(src) == f.failOn {
		return services.Wrap(services.ErrTransient, stage.Translate, "request", "", errors.New("503 service unavailable"))
	}
	return os.WriteFile(dst, []byte("translated"), 0o644)
}

type fakeCompositor struct{ fakeBase }

func (f fakeCompositor) ComposeAll(ctx context.Context, jobs []compose.Job) ([]stage.Result, error) {
	tracker := stage.Track(ctx, stage.Compose, len(jobs))
	for _, job := range jobs {
		err := tracker.Item(job.Video, func() (string, error) {
			f.log.add("compose " + filepath.Base(job.Video) + "+" + filepath.Base(job.Subtitle))
			return job.Output, os.WriteFile(job.Output, []byte("mp4"), 0o644)
		})
		if err != nil {
			return tracker.Done(err)
		}
	}
	return tracker.Done(nil)
}

func newFakeRunner(t *testing.T, cfg *config.Config, log *journal, store *ledger.Store, opts ...pipeline.Option) *pipeline.Runner {
	t.Helper()
	base := []pipeline.Option{
		pipeline.WithExtractor(fakeExtractor{fakeBase{stage.Extract, log}}),
		pipeline.WithTranscriber(fakeTranscriber{fakeBase{stage.Transcribe, log}}),
		pipeline.WithTranslator(fakeTranslator{fakeBase: fakeBase{stage.Translate, log}}),
		pipeline.WithCompositor(fakeCompositor{fakeBase{stage.Compose, log}}),
		pipeline.WithIDGenerator(func() string { return "run-1" }),
	}
	if store != nil {
		base = append(base, pipeline.WithLedger(store))
	}
	runner, err := pipeline.New(cfg, nil, append(base, opts...)...)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return runner
}

func seedVideos(t *testing.T, cfg *config.Config, names ...string) {
	t.Helper()
	for _, name := range names {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.VideoDir, name), 16)
	}
}

func TestRunExecutesStagesWithBarriers(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedVideos(t, cfg, "b.mp4", "a.mp4")
	log := &journal{}
	store := testsupport.MustOpenLedger(t, cfg)
	runner := newFakeRunner(t, cfg, log, store)

	report, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []string{
		"extract a.mp4",
		"extract b.mp4",
		"transcribe a.mp3",
		"transcribe b.mp3",
		"translate a.srt vi",
		"translate b.srt vi",
		"compose a.mp4+a_translated.srt",
		"compose b.mp4+b_translated.srt",
	}
	got := log.list()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("unexpected stage order:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	for _, stem := range []string{"a", "b"} {
		if _, err := os.Stat(filepath.Join(cfg.Paths.SubtitleDir, stem+"_subtitled.mp4")); err != nil {
			t.Fatalf("expected output for %s: %v", stem, err)
		}
	}
	if report.RunID != "run-1" || report.Command != pipeline.CommandRun {
		t.Fatalf("unexpected report: %+v", report)
	}

	run, err := store.GetRun(context.Background(), "run-1")
	if err != nil || run == nil {
		t.Fatalf("expected run in ledger: %v", err)
	}
	if run.Status != ledger.StatusCompleted {
		t.Fatalf("expected completed run, got %s", run.Status)
	}
	summary, err := store.Summarize(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Completed != len(report.Results) || summary.Failed != 0 {
		t.Fatalf("ledger summary %+v does not match %d results", summary, len(report.Results))
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedVideos(t, cfg, "a.mp4", "b.mp4")
	log := &journal{}
	store := testsupport.MustOpenLedger(t, cfg)
	runner := newFakeRunner(t, cfg, log, store,
		pipeline.WithTranslator(fakeTranslator{fakeBase: fakeBase{stage.Translate, log}, failOn: "a.srt"}),
	)

	report, err := runner.Run(context.Background())
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected translation failure, got %v", err)
	}
	for _, entry := range log.list() {
		if strings.HasPrefix(entry, "compose") || entry == "translate b.srt vi" {
			t.Fatalf("no work should follow the failure, saw %q", entry)
		}
	}
	if last := report.Results[len(report.Results)-1]; last.OK() || last.Stage != stage.Translate {
		t.Fatalf("expected last result to be the failed translation, got %+v", last)
	}

	run, err := store.GetRun(context.Background(), "run-1")
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != ledger.StatusFailed || !strings.Contains(run.Error, "503") {
		t.Fatalf("unexpected run record: %+v", run)
	}
	items, err := store.RunItems(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("RunItems: %v", err)
	}
	last := items[len(items)-1]
	if last.Stage != stage.Translate || last.Status != ledger.StatusFailed {
		t.Fatalf("expected failed translate item, got %+v", last)
	}
}

func TestRunRejectsUnpairedFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedVideos(t, cfg, "a.mp4")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SRTDir, "orphan_translated.srt"), 8)
	log := &journal{}
	runner := newFakeRunner(t, cfg, log, nil)

	_, err := runner.Run(context.Background())
	if !errors.Is(err, pipeline.ErrUnpaired) {
		t.Fatalf("expected unpaired error, got %v", err)
	}
	for _, entry := range log.list() {
		if strings.HasPrefix(entry, "compose") {
			t.Fatalf("compose must not run with unpaired files, saw %q", entry)
		}
	}
}

func TestJobsSortedPairingFollowsFilenameOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPairing(config.PairingSorted))
	seedVideos(t, cfg, "a.mp4", "b.mp4")
	for _, name := range []string{"z_translated.srt", "a_translated.srt", "a.srt"} {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.SRTDir, name), 8)
	}
	runner := newFakeRunner(t, cfg, &journal{}, nil)

	jobs, err := runner.Jobs(context.Background())
	if err != nil {
		t.Fatalf("Jobs returned error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %+v", jobs)
	}
	if filepath.Base(jobs[1].Video) != "b.mp4" || filepath.Base(jobs[1].Subtitle) != "z_translated.srt" {
		t.Fatalf("sorted pairing should zip b.mp4 with z_translated.srt, got %+v", jobs[1])
	}
	if jobs[0].Output != filepath.Join(cfg.Paths.SubtitleDir, "a_subtitled.mp4") {
		t.Fatalf("unexpected output path %s", jobs[0].Output)
	}
}

func TestExecuteRefusesConcurrentRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	held := flock.New(cfg.LockPath())
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("hold lock: %v", err)
	}
	defer held.Unlock()

	runner := newFakeRunner(t, cfg, &journal{}, nil)
	called := false
	_, err = runner.Execute(context.Background(), pipeline.CommandExtract, func(context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, pipeline.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if called {
		t.Fatal("work must not run without the lock")
	}
}

func TestExecuteCarriesRunIDAndObserver(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var events []string
	obs := observerFunc(func(event string) { events = append(events, event) })
	runner := newFakeRunner(t, cfg, &journal{}, nil, pipeline.WithObserver(obs))

	_, err := runner.Execute(context.Background(), pipeline.CommandTranslate, func(ctx context.Context) error {
		if id, ok := services.RequestIDFromContext(ctx); !ok || id != "run-1" {
			t.Fatalf("expected run id in context, got %q", id)
		}
		tracker := stage.Track(ctx, stage.Translate, 1)
		_, err := tracker.Done(tracker.Item("a.srt", func() (string, error) { return "a_vi.srt", nil }))
		return err
	})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	want := "stage_started item_started item_finished stage_finished"
	if strings.Join(events, " ") != want {
		t.Fatalf("unexpected observer events %v", events)
	}
}

func TestTranslateFileDefaultsDestinationAndTarget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(t.TempDir(), "episode.srt")
	testsupport.WriteFile(t, src, 8)
	log := &journal{}
	runner := newFakeRunner(t, cfg, log, nil)

	report, err := runner.TranslateFile(context.Background(), src, "", "")
	if err != nil {
		t.Fatalf("TranslateFile returned error: %v", err)
	}
	wantDst := filepath.Join(filepath.Dir(src), "episode_translated.srt")
	if len(report.Results) != 1 || report.Results[0].Output != wantDst {
		t.Fatalf("unexpected results: %+v", report.Results)
	}
	if got := log.list(); len(got) != 1 || got[0] != "translate episode.srt vi" {
		t.Fatalf("unexpected calls: %v", got)
	}
}

type observerFunc func(event string)

func (f observerFunc) StageStarted(context.Context, string, int) { f("stage_started") }
func (f observerFunc) ItemStarted(context.Context, string, string) { f("item_started") }
func (f observerFunc) ItemFinished(context.Context, stage.Result) { f("item_finished") }
func (f observerFunc) StageFinished(context.Context, string, error) { f("stage_finished") }
