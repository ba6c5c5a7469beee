package transcribe

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"subtitler/internal/config"
	"subtitler/internal/fileutil"
	langpkg "subtitler/internal/language"
	"subtitler/internal/services"
	"subtitler/internal/stage"
)

// OpenAI transcribes through the hosted audio transcription endpoint.
type OpenAI struct {
	client   openai.Client
	model    string
	language string
}

// NewOpenAI builds the hosted engine. Extra request options (base URL, HTTP
// client) are appended after the configured API key.
func NewOpenAI(cfg config.Transcription, opts ...option.RequestOption) (*OpenAI, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, stage.Transcribe, "openai", "api key required", nil)
	}
	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	return &OpenAI{
		client:   openai.NewClient(append(base, opts...)...),
		model:    cfg.OpenAIModel,
		language: langpkg.ToISO2(cfg.Language),
	}, nil
}

// Name identifies the engine.
func (o *OpenAI) Name() string {
	return "openai (" + o.model + ")"
}

// TranscribeAll transcribes each source in turn.
func (o *OpenAI) TranscribeAll(ctx context.Context, sources []string, outputDir string) error {
	for _, source := range sources {
		if err := o.TranscribeFile(ctx, source, OutputPath(source, outputDir)); err != nil {
			return err
		}
	}
	return nil
}

// TranscribeFile uploads source and stores the returned SRT at dst.
func (o *OpenAI) TranscribeFile(ctx context.Context, source, dst string) error {
	file, err := os.Open(source)
	if err != nil {
		return services.Wrap(services.ErrNotFound, stage.Transcribe, "open audio", filepath.Base(source), err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(o.model),
		ResponseFormat: openai.AudioResponseFormatSRT,
	}
	if o.language != "" {
		params.Language = openai.String(o.language)
	}

	// SRT responses are plain text, so take the raw body instead of the
	// decoded Transcription.
	var body []byte
	if _, err := o.client.Audio.Transcriptions.New(ctx, params, option.WithResponseBodyInto(&body)); err != nil {
		return services.Wrap(apiErrorMarker(err), stage.Transcribe, "openai", filepath.Base(source), err)
	}
	if err := fileutil.WriteFileAtomic(dst, body, 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, stage.Transcribe, "write srt", filepath.Base(dst), err)
	}
	return nil
}

// apiErrorMarker classifies OpenAI API failures. Rate limits and server
// errors have already been retried by the SDK.
func apiErrorMarker(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return services.ErrConfiguration
		case apiErr.StatusCode == http.StatusTooManyRequests, apiErr.StatusCode >= http.StatusInternalServerError:
			return services.ErrTransient
		}
	}
	return services.ErrExternalTool
}
