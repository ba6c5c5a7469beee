package fileutil

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestStemAndTempPath(t *testing.T) {
	if got := Stem("/data/video/talk.final.mp4"); got != "talk.final" {
		t.Fatalf("Stem = %q", got)
	}
	if got := TempPath("/data/subtitle/talk_subtitled.mp4"); got != "/data/subtitle/.talk_subtitled.tmp.mp4" {
		t.Fatalf("TempPath = %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.srt")
	if err := WriteFileAtomic(path, []byte("1\n"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "1\n" {
		t.Fatalf("unexpected content %q err=%v", got, err)
	}
	if _, err := os.Stat(TempPath(path)); !os.IsNotExist(err) {
		t.Fatalf("temporary file should be gone, stat err=%v", err)
	}
}

func TestCommitMissingTemp(t *testing.T) {
	dir := t.TempDir()
	if err := Commit(filepath.Join(dir, "missing"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing temp file")
	}
}

func TestListFilesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.mp4", "a.MP4", "c.mkv", ".hidden.mp4", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "d.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListFiles(dir, ".mp4", "mkv")
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []string{filepath.Join(dir, "a.MP4"), filepath.Join(dir, "b.mp4"), filepath.Join(dir, "c.mkv")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListFiles = %v, want %v", got, want)
	}

	all, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 visible files, got %v", all)
	}

	if _, err := ListFiles(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestHasExt(t *testing.T) {
	tests := []struct {
		path string
		exts []string
		want bool
	}{
		{"a/clip.MP4", []string{".mp4"}, true},
		{"clip.mkv", []string{"mp4", "mkv"}, true},
		{"notes.txt", []string{".mp4"}, false},
		{"README", []string{".mp4"}, false},
		{"clip.mp4", nil, false},
	}
	for _, tt := range tests {
		if got := HasExt(tt.path, tt.exts...); got != tt.want {
			t.Fatalf("HasExt(%q, %v) = %v, want %v", tt.path, tt.exts, got, tt.want)
		}
	}
}

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp4")
	dst := filepath.Join(dir, "dst.mp4")
	if err := os.WriteFile(src, []byte("video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "video bytes" {
		t.Fatalf("unexpected copy %q err=%v", got, err)
	}
	if err := CopyFileVerified(filepath.Join(dir, "missing"), dst); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyFileVerifiedKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		t.Fatalf("CopyFileVerified: %v", err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", info.Mode().Perm())
	}
}
