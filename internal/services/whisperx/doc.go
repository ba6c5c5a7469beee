// Package whisperx drives WhisperX through uvx to produce SRT transcripts.
//
// A batch of audio files is passed to a single WhisperX process so the
// model loads once per invocation. Model weights are cached under the
// configured model directory. Output is written as <stem>.srt into the
// requested output directory.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
package whisperx
