package whisperx

// Config selects the model and hardware a WhisperX run uses.
type Config struct {
	Model       string // tier ("base", "large", "turbo") or a full model name
	ModelDir    string
	CUDAEnabled bool
	VADMethod   string // "silero" (default) or "pyannote"
	HFToken     string // only sent with pyannote
}

const (
	// UVXCommand launches WhisperX in an isolated Python environment.
	UVXCommand = "uvx"

	DefaultModel      = "large-v3"
	VADMethodSilero   = "silero"
	VADMethodPyannote = "pyannote"

	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
)

// decodeFlags are fixed WhisperX tuning values. Sentence segmentation with
// short chunks keeps subtitle cues readable.
var decodeFlags = [][2]string{
	{"--batch_size", "4"},
	{"--output_format", "srt"},
	{"--segment_resolution", "sentence"},
	{"--chunk_size", "15"},
	{"--vad_onset", "0.08"},
	{"--vad_offset", "0.07"},
	{"--beam_size", "10"},
	{"--best_of", "10"},
	{"--temperature", "0.0"},
	{"--patience", "1.0"},
}

var modelTiers = map[string]string{
	"tiny":   "tiny",
	"base":   "base",
	"small":  "small",
	"medium": "medium",
	"large":  "large-v3",
	"turbo":  "large-v3-turbo",
}

// ResolveModel maps a tier name onto a WhisperX model. Anything else is
// treated as an explicit model name.
func ResolveModel(model string) string {
	if resolved, ok := modelTiers[model]; ok {
		return resolved
	}
	if model == "" {
		return DefaultModel
	}
	return model
}
