package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"subtitler/internal/fileutil"
	"subtitler/internal/services"
)

// ErrUnpaired reports videos or subtitles left without a partner.
var ErrUnpaired = errors.New("unpaired files")

// Pair is one video and the subtitle file to burn into it.
type Pair struct {
	Video    string
	Subtitle string
}

// UnpairedError lists every file PairByStem could not match.
type UnpairedError struct {
	Videos    []string
	Subtitles []string
}

func (e *UnpairedError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Videos) > 0 {
		parts = append(parts, "videos without subtitles: "+joinBase(e.Videos))
	}
	if len(e.Subtitles) > 0 {
		parts = append(parts, "subtitles without videos: "+joinBase(e.Subtitles))
	}
	return fmt.Sprintf("%s: %s", ErrUnpaired, strings.Join(parts, "; "))
}

// Unwrap exposes ErrUnpaired and the validation marker used for ledger status.
func (e *UnpairedError) Unwrap() []error {
	return []error{ErrUnpaired, services.ErrValidation}
}

// PairSorted zips videos and subtitles by sorted filename order. Names are not
// compared: if the two listings sort differently, videos are silently matched
// with the wrong subtitles, and extra files on either side are dropped.
func PairSorted(videos, subs []string) []Pair {
	v := sortedCopy(videos)
	s := sortedCopy(subs)
	n := min(len(v), len(s))
	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, Pair{Video: v[i], Subtitle: s[i]})
	}
	return pairs
}

// PairByStem matches each video with the subtitle whose stem, minus suffix,
// equals the video stem. Any leftover on either side yields an *UnpairedError
// and no pairs.
func PairByStem(videos, subs []string, suffix string) ([]Pair, error) {
	byStem := make(map[string]string, len(subs))
	var extraSubs []string
	for _, sub := range sortedCopy(subs) {
		stem := strings.TrimSuffix(fileutil.Stem(sub), suffix)
		if _, dup := byStem[stem]; dup {
			extraSubs = append(extraSubs, sub)
			continue
		}
		byStem[stem] = sub
	}

	var (
		pairs         []Pair
		missingVideos []string
	)
	for _, video := range sortedCopy(videos) {
		stem := fileutil.Stem(video)
		sub, ok := byStem[stem]
		if !ok {
			missingVideos = append(missingVideos, video)
			continue
		}
		delete(byStem, stem)
		pairs = append(pairs, Pair{Video: video, Subtitle: sub})
	}
	for _, sub := range byStem {
		extraSubs = append(extraSubs, sub)
	}
	if len(missingVideos) > 0 || len(extraSubs) > 0 {
		sort.Strings(extraSubs)
		return nil, &UnpairedError{Videos: missingVideos, Subtitles: extraSubs}
	}
	return pairs, nil
}

func sortedCopy(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Strings(out)
	return out
}

func joinBase(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}
