package pipeline_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"subtitler/internal/pipeline"
	"subtitler/internal/services"
)

func TestPairSortedMatchesWhenOrdersAgree(t *testing.T) {
	pairs := pipeline.PairSorted(
		[]string{"video/b.mp4", "video/a.mp4"},
		[]string{"srt/a_translated.srt", "srt/b_translated.srt"},
	)
	want := []pipeline.Pair{
		{Video: "video/a.mp4", Subtitle: "srt/a_translated.srt"},
		{Video: "video/b.mp4", Subtitle: "srt/b_translated.srt"},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("got %+v, want %+v", pairs, want)
	}
}

func TestPairSortedSilentlyMismatchesDivergentNames(t *testing.T) {
	pairs := pipeline.PairSorted(
		[]string{"video/a.mp4", "video/b.mp4"},
		[]string{"srt/z_translated.srt", "srt/a_translated.srt"},
	)
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Video != "video/a.mp4" || pairs[0].Subtitle != "srt/a_translated.srt" {
		t.Fatalf("unexpected first pair: %+v", pairs[0])
	}
	// b.mp4 receives z's subtitles: sorted pairing never compares names.
	if pairs[1].Video != "video/b.mp4" || pairs[1].Subtitle != "srt/z_translated.srt" {
		t.Fatalf("expected b.mp4 to be paired with z_translated.srt, got %+v", pairs[1])
	}
}

func TestPairSortedDropsExtras(t *testing.T) {
	pairs := pipeline.PairSorted([]string{"a.mp4", "b.mp4", "c.mp4"}, []string{"a_translated.srt"})
	if len(pairs) != 1 {
		t.Fatalf("expected zip to stop at the shorter list, got %+v", pairs)
	}
}

func TestPairByStem(t *testing.T) {
	pairs, err := pipeline.PairByStem(
		[]string{"video/b.mp4", "video/a.mp4"},
		[]string{"srt/b_translated.srt", "srt/a_translated.srt"},
		"_translated",
	)
	if err != nil {
		t.Fatalf("PairByStem returned error: %v", err)
	}
	want := []pipeline.Pair{
		{Video: "video/a.mp4", Subtitle: "srt/a_translated.srt"},
		{Video: "video/b.mp4", Subtitle: "srt/b_translated.srt"},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("got %+v, want %+v", pairs, want)
	}
}

func TestPairByStemReportsEveryUnmatchedFile(t *testing.T) {
	pairs, err := pipeline.PairByStem(
		[]string{"video/a.mp4", "video/b.mp4", "video/c.mp4"},
		[]string{"srt/z_translated.srt", "srt/a_translated.srt"},
		"_translated",
	)
	if pairs != nil {
		t.Fatalf("expected no pairs on mismatch, got %+v", pairs)
	}
	if !errors.Is(err, pipeline.ErrUnpaired) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected unpaired validation error, got %v", err)
	}
	var unpaired *pipeline.UnpairedError
	if !errors.As(err, &unpaired) {
		t.Fatalf("expected *UnpairedError, got %T", err)
	}
	var videos []string
	for _, v := range unpaired.Videos {
		videos = append(videos, filepath.Base(v))
	}
	if !reflect.DeepEqual(videos, []string{"b.mp4", "c.mp4"}) {
		t.Fatalf("unexpected unmatched videos: %v", videos)
	}
	if !reflect.DeepEqual(unpaired.Subtitles, []string{"srt/z_translated.srt"}) {
		t.Fatalf("unexpected unmatched subtitles: %v", unpaired.Subtitles)
	}
}
