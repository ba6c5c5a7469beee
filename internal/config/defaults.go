package config

const (
	defaultDataDir              = "data"
	defaultVideoSubdir          = "video"
	defaultAudioSubdir          = "audio"
	defaultSRTSubdir            = "srt"
	defaultSubtitleSubdir       = "subtitle"
	defaultModelDir             = "models"
	defaultLogDir               = "~/.local/share/subtitler/logs"
	defaultTranscriptionEngine  = "whisperx"
	defaultTranscriptionModel   = "large"
	defaultOpenAITranscribe     = "whisper-1"
	defaultVADMethod            = "silero"
	defaultTranslationEngine    = "google"
	defaultTargetLanguage       = "vi"
	defaultTranslationWorkers   = 1
	defaultRetryAttempts        = 3
	defaultTranslationTimeout   = 30
	defaultGoogleBaseURL        = "https://translate.googleapis.com/translate_a/single"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-2.5-flash"
	defaultLLMReferer           = "https://github.com/subtitler/subtitler"
	defaultLLMTitle             = "Subtitler"
	defaultOpenAITranslateModel = "gpt-4o-mini"
	defaultFont                 = "FreeMono"
	defaultFontSize             = 24
	defaultColor                = "yellow"
	defaultBackgroundColor      = "black"
	defaultVerticalRatio        = 0.8
	defaultWidthRatio           = 0.75
	defaultVideoCodec           = "libx264"
	defaultPreset               = "medium"
	defaultCRF                  = 23
	defaultAudioCodec           = "copy"
	defaultPairing              = PairingStem
	defaultTranslatedSuffix     = "_translated"
	defaultSubtitledSuffix      = "_subtitled"
	defaultWatchDebounceSeconds = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Pairing strategies understood by the driver.
const (
	PairingStem   = "stem"
	PairingSorted = "sorted"
)

// Engine names.
const (
	EngineWhisperX = "whisperx"
	EngineOpenAI   = "openai"
	EngineGoogle   = "google"
	EngineLLM      = "llm"
)

// Default returns a Config populated with repository defaults. Stage
// directories are left empty so normalize can derive them from DataDir.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			ModelDir: defaultModelDir,
			LogDir:   defaultLogDir,
		},
		Transcription: Transcription{
			Engine:      defaultTranscriptionEngine,
			Model:       defaultTranscriptionModel,
			VADMethod:   defaultVADMethod,
			OpenAIModel: defaultOpenAITranscribe,
		},
		Translation: Translation{
			Engine:         defaultTranslationEngine,
			TargetLanguage: defaultTargetLanguage,
			Workers:        defaultTranslationWorkers,
			RetryAttempts:  defaultRetryAttempts,
			TimeoutSeconds: defaultTranslationTimeout,
			GoogleBaseURL:  defaultGoogleBaseURL,
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
		},
		Compositor: Compositor{
			Font:            defaultFont,
			FontSize:        defaultFontSize,
			Color:           defaultColor,
			BackgroundColor: defaultBackgroundColor,
			VerticalRatio:   defaultVerticalRatio,
			WidthRatio:      defaultWidthRatio,
			VideoCodec:      defaultVideoCodec,
			Preset:          defaultPreset,
			CRF:             defaultCRF,
			AudioCodec:      defaultAudioCodec,
		},
		Pipeline: Pipeline{
			Pairing:           defaultPairing,
			VideoExtensions:   []string{".mp4"},
			TranslatedSuffix:  defaultTranslatedSuffix,
			SubtitledSuffix:   defaultSubtitledSuffix,
			WatchDebounceSecs: defaultWatchDebounceSeconds,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
