// Package transcribe turns extracted audio into timed SRT subtitles.
//
// Two engines are available. The WhisperX engine hands every audio file to a
// single uvx process so the speech model loads once per invocation. The
// OpenAI engine uploads each file to the hosted transcription endpoint and
// asks for SRT output directly.
//
// Silent or unintelligible audio is not an error: when an engine produces no
// file the transcriber writes an empty SRT so later stages still see one
// subtitle per audio file.
package transcribe
