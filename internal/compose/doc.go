// Package compose burns translated subtitles into a video.
//
// Each segment with a positive duration becomes one Overlay: centred
// horizontally, its top edge at 80% of the frame height, wrapped to 75% of
// the frame width, and visible on [start, start+duration). Segments that
// overlap in time are drawn at the same position. Zero-length segments are
// dropped silently.
//
// Rendering uses one ffmpeg drawtext filter per overlay. Text reaches
// ffmpeg through textfile= so subtitle content never needs filtergraph
// escaping. Video is re-encoded with libx264, audio is copied, and the
// result is written to a temporary sibling before being renamed into place.
package compose
