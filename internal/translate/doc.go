// Package translate rewrites the text of SRT files into a target language
// while leaving every index and timestamp untouched.
//
// Engines translate one segment per call and let the remote side detect the
// source language:
//
//   - google: the public Google Translate web endpoint (default)
//   - llm: an OpenAI-compatible chat endpoint such as OpenRouter
//   - openai: the OpenAI chat completions API via openai-go
//
// Translator.TranslateFile issues the calls through a bounded worker group
// (translation.workers, default 1, which keeps requests in segment order)
// and reassembles results by segment position. Any failed segment fails the
// whole file and nothing is written.
package translate
