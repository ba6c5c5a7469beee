package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TempPath returns a hidden sibling of dst that keeps dst's extension, so
// tools that infer the container from the name still work.
func TempPath(dst string) string {
	dir := filepath.Dir(dst)
	ext := filepath.Ext(dst)
	return filepath.Join(dir, "."+Stem(dst)+".tmp"+ext)
}

// Commit renames tmp over dst, removing tmp when the rename fails.
func Commit(tmp, dst string) error {
	if _, err := os.Stat(tmp); err != nil {
		return fmt.Errorf("temporary output missing: %w", err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", filepath.Base(dst), err)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary sibling and renames it into place.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp := TempPath(path)
	if err := os.WriteFile(tmp, data, mode); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return Commit(tmp, path)
}

// ListFiles returns the regular, non-hidden files in dir whose extension is
// one of exts, compared case-insensitively with or without the leading dot.
// No exts matches everything. Paths come back sorted.
func ListFiles(dir string, exts ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if len(exts) > 0 && !HasExt(entry.Name(), exts...) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// HasExt reports whether path ends in one of exts, ignoring case and a
// missing leading dot.
func HasExt(path string, exts ...string) bool {
	got := normalizeExt(filepath.Ext(path))
	if got == "" {
		return false
	}
	for _, ext := range exts {
		if normalizeExt(ext) == got {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}

// CopyFileVerified copies src to dst with src's permissions, then re-reads
// dst and compares its SHA-256 against the bytes that were read from src.
// dst is removed when the copy cannot be confirmed.
func CopyFileVerified(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(dst)
		}
	}()
	want := sha256.New()
	_, copyErr := io.Copy(out, io.TeeReader(in, want))
	if err := errors.Join(copyErr, out.Close()); err != nil {
		return err
	}

	got, err := hashFile(dst)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want.Sum(nil)) {
		return fmt.Errorf("copy of %s does not match source", filepath.Base(src))
	}
	return nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
