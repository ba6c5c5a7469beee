// Package extract pulls the audio track out of each source video as an MP3.
//
// Every video is probed with ffprobe first. A file that is not a readable
// container, or has no audio stream, fails the stage instead of being
// skipped. Audio is encoded with libmp3lame at VBR quality 2 into a hidden
// temporary sibling and renamed into place once ffmpeg succeeds.
package extract
