package pipeline

import (
	"path/filepath"

	"subtitler/internal/config"
	"subtitler/internal/fileutil"
)

// Layout is the fixed set of stage directories under the data root.
type Layout struct {
	VideoDir    string
	AudioDir    string
	SRTDir      string
	SubtitleDir string
}

// LayoutFromConfig returns the directories configured for cfg.
func LayoutFromConfig(cfg *config.Config) Layout {
	return Layout{
		VideoDir:    cfg.Paths.VideoDir,
		AudioDir:    cfg.Paths.AudioDir,
		SRTDir:      cfg.Paths.SRTDir,
		SubtitleDir: cfg.Paths.SubtitleDir,
	}
}

// OutputPath is where the subtitled rendition of video is written.
func (l Layout) OutputPath(video, suffix string) string {
	return filepath.Join(l.SubtitleDir, fileutil.Stem(video)+suffix+".mp4")
}
