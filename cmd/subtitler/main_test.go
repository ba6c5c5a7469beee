package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"subtitler/internal/config"
	"subtitler/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

// setupCLITestEnv writes a config that points every directory into a temp
// tree and sends Google translation requests to a local server that answers
// every query with "xin chao".
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[["xin chao","hello",null,null,1]],null,"en"]`))
	}))
	t.Cleanup(server.Close)

	opts = append([]testsupport.ConfigOption{
		testsupport.WithTranslationEngine(config.EngineGoogle, server.URL, ""),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)

	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestTranslateCommandRecordsRun(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.cfg.Paths.SRTDir, "movie.srt")
	testsupport.WriteSRT(t, src,
		testsupport.Cue(0, 1500, "hello"),
		testsupport.Cue(2000, 3500, "hello"),
	)

	out, _, err := runCLI(t, env.configPath, "translate", src)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	requireContains(t, out, "completed")

	dst := filepath.Join(env.cfg.Paths.SRTDir, "movie_translated.srt")
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read translated file: %v", err)
	}
	if got := strings.Count(string(data), "xin chao"); got != 2 {
		t.Fatalf("expected 2 translated cues, got %d in:\n%s", got, data)
	}
	requireContains(t, string(data), "00:00:02,000 --> 00:00:03,500")

	out, _, err = runCLI(t, env.configPath, "status", "--output", "json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode status output: %v\n%s", err, out)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Command != "translate" || run.Status != "completed" {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.Summary.Total != 1 || run.Summary.Completed != 1 {
		t.Fatalf("unexpected summary %+v", run.Summary)
	}

	out, _, err = runCLI(t, env.configPath, "status", "--run", shortID(run.ID))
	if err != nil {
		t.Fatalf("status --run: %v", err)
	}
	requireContains(t, out, "Run "+run.ID)
	requireContains(t, out, "movie.srt")
	requireContains(t, out, "movie_translated.srt")
}

func TestStatusWithoutRuns(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "No runs recorded")

	if _, _, err := runCLI(t, env.configPath, "status", "--run", "latest"); err == nil {
		t.Fatal("expected error for latest run on empty ledger")
	}
	if _, _, err := runCLI(t, env.configPath, "status", "--output", "xml"); err == nil {
		t.Fatal("expected error for unsupported output format")
	}
}

func TestStatusYAMLOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.cfg.Paths.SRTDir, "clip.srt")
	testsupport.WriteSRT(t, src, testsupport.Cue(0, 1000, "hello"))
	if _, _, err := runCLI(t, env.configPath, "translate", src, "--to", "vi"); err != nil {
		t.Fatalf("translate: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "status", "--output", "yaml", "--run", "latest")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "command: translate")
	requireContains(t, out, "stage: translate")
}

// ageRuns backdates every recorded run by days.
func ageRuns(t *testing.T, ledgerPath string, days int) {
	t.Helper()
	db, err := sql.Open("sqlite", ledgerPath)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer db.Close()
	stamp := time.Now().AddDate(0, 0, -days).UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
	if _, err := db.Exec(`UPDATE runs SET started_at = ?`, stamp); err != nil {
		t.Fatalf("backdate runs: %v", err)
	}
}

func statusRuns(t *testing.T, configPath string, extra ...string) ([]runView, string) {
	t.Helper()
	out, errOut, err := runCLI(t, configPath, append([]string{"status", "--output", "json"}, extra...)...)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var runs []runView
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode status output: %v\n%s", err, out)
	}
	return runs, errOut
}

func TestStatusPruneDropsExpiredRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.cfg.Paths.SRTDir, "clip.srt")
	testsupport.WriteSRT(t, src, testsupport.Cue(0, 1000, "hello"))
	for i := 0; i < 2; i++ {
		if _, _, err := runCLI(t, env.configPath, "translate", src); err != nil {
			t.Fatalf("translate: %v", err)
		}
	}
	ageRuns(t, env.cfg.LedgerPath(), env.cfg.Logging.RetentionDays+1)

	runs, _ := statusRuns(t, env.configPath)
	if len(runs) != 2 {
		t.Fatalf("plain status should not prune, got %d runs", len(runs))
	}
	runs, errOut := statusRuns(t, env.configPath, "--prune")
	requireContains(t, errOut, "Pruned 2 expired runs")
	if len(runs) != 0 {
		t.Fatalf("expected expired runs to be pruned, got %+v", runs)
	}
}

func TestPipelineCommandPrunesExpiredRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.cfg.Paths.SRTDir, "clip.srt")
	testsupport.WriteSRT(t, src, testsupport.Cue(0, 1000, "hello"))
	if _, _, err := runCLI(t, env.configPath, "translate", src); err != nil {
		t.Fatalf("translate: %v", err)
	}
	ageRuns(t, env.cfg.LedgerPath(), env.cfg.Logging.RetentionDays+1)

	if _, _, err := runCLI(t, env.configPath, "translate", src); err != nil {
		t.Fatalf("translate: %v", err)
	}
	runs, _ := statusRuns(t, env.configPath)
	if len(runs) != 1 {
		t.Fatalf("expected only the fresh run to remain, got %d", len(runs))
	}
	if time.Since(runs[0].StartedAt) > time.Hour {
		t.Fatalf("expected the remaining run to be recent, started %s", runs[0].StartedAt)
	}
}

func TestRunStopsOnFailedPreflight(t *testing.T) {
	env := setupCLITestEnv(t)
	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	env.cfg.Translation.GoogleBaseURL = closed.URL
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, env.configPath, "run")
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, err.Error(), "preflight failed")
	requireContains(t, err.Error(), "Translation (google)")
}

func TestConfigInitAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Sample configuration written to")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting an existing file")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}

	out, _, err = runCLI(t, env.configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration OK")

	env.cfg.Translation.APIKey = "sk-very-secret"
	writeTestConfig(t, env.configPath, env.cfg)
	out, _, err = runCLI(t, env.configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "sk-very-secret") {
		t.Fatalf("config show leaked the API key:\n%s", out)
	}
	requireContains(t, out, redacted)
	requireContains(t, out, env.cfg.Paths.VideoDir)
}
