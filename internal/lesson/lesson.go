// Package lesson defines the domain types of mythos: generation requests,
// generated artifacts, history entries, conversation turns and quizzes.
//
// A Request is an immutable description of one generation call. The
// orchestration layers (provider chain, media pipeline) consume it and
// produce an Artifact; the history store wraps Artifacts into HistoryItems
// for persistence.
package lesson

import (
	"errors"
	"time"
)

// ErrEmptyTopic indicates a request was submitted without a topic.
// This is the only validation error surfaced directly to the user
// before any provider is contacted.
var ErrEmptyTopic = errors.New("topic must not be empty")

// Genre classifies the requested content.
type Genre string

// Supported genres. The zero value is not valid.
const (
	GenreEducational Genre = "educational"
	GenreFantasy     Genre = "fantasy"
	GenreSciFi       Genre = "sci-fi"
	GenreFolktale    Genre = "folktale"
	GenreMystery     Genre = "mystery"
	GenreAdventure   Genre = "adventure"
)

// genreLabels are the display strings interpolated into prompts.
// The pedagogical prompt templates are French, so labels are too.
var genreLabels = map[Genre]string{
	GenreEducational: "Éducatif / Cours",
	GenreFantasy:     "Fantaisie",
	GenreSciFi:       "Science-Fiction",
	GenreFolktale:    "Conte / Légende",
	GenreMystery:     "Mystère",
	GenreAdventure:   "Aventure",
}

// Label returns the human-readable prompt label for g.
func (g Genre) Label() string { return genreLabels[g] }

// Valid reports whether g is a known genre.
func (g Genre) Valid() bool { _, ok := genreLabels[g]; return ok }

// AgeBand is the target audience level.
type AgeBand string

// Supported age bands.
const (
	AgeChild AgeBand = "child"
	AgeTeen  AgeBand = "teen"
	AgeAdult AgeBand = "adult"
)

var ageLabels = map[AgeBand]string{
	AgeChild: "Enfants (5-10 ans)",
	AgeTeen:  "Adolescents (11-17 ans)",
	AgeAdult: "Adultes (18+ ans)",
}

// Label returns the human-readable prompt label for a.
func (a AgeBand) Label() string { return ageLabels[a] }

// Valid reports whether a is a known age band.
func (a AgeBand) Valid() bool { _, ok := ageLabels[a]; return ok }

// VisualStyle selects the illustration rendering style.
type VisualStyle string

// Supported visual styles.
const (
	StyleDigitalArt  VisualStyle = "digital-art"
	StyleRealistic   VisualStyle = "realistic"
	StyleCartoon     VisualStyle = "cartoon"
	StyleWatercolor  VisualStyle = "watercolor"
	StyleOilPainting VisualStyle = "oil-painting"
	StyleSketch      VisualStyle = "sketch"
	StyleRetro       VisualStyle = "retro"
)

var styleLabels = map[VisualStyle]string{
	StyleDigitalArt:  "Art Numérique (Défaut)",
	StyleRealistic:   "Photo Réaliste",
	StyleCartoon:     "Dessin Animé / Pixar",
	StyleWatercolor:  "Aquarelle",
	StyleOilPainting: "Peinture à l'huile",
	StyleSketch:      "Esquisse Crayon",
	StyleRetro:       "Rétro / Vintage",
}

// Label returns the style description appended to image prompts.
func (s VisualStyle) Label() string { return styleLabels[s] }

// Valid reports whether s is a known style.
func (s VisualStyle) Valid() bool { _, ok := styleLabels[s]; return ok }

// MediaKind is the requested output format.
type MediaKind string

// Supported media kinds.
const (
	MediaText        MediaKind = "text"
	MediaIllustrated MediaKind = "illustrated"
	MediaVideo       MediaKind = "video"
)

// Valid reports whether m is a known media kind.
func (m MediaKind) Valid() bool {
	switch m {
	case MediaText, MediaIllustrated, MediaVideo:
		return true
	}
	return false
}

// VideoContainer is the requested container format for generated videos.
type VideoContainer string

// Supported containers.
const (
	ContainerMP4 VideoContainer = "mp4"
	ContainerMOV VideoContainer = "mov"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one exchange in an interactive session. For user turns Text holds
// the message; for assistant turns Text holds the artifact body that was
// shown to the user.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request describes one generation call. Build it once and treat it as
// immutable; the pipeline never mutates it.
type Request struct {
	Topic          string         `json:"topic"`
	Genre          Genre          `json:"genre"`
	AgeBand        AgeBand        `json:"ageBand"`
	Style          VisualStyle    `json:"style"`
	Media          MediaKind      `json:"mediaType"`
	VideoContainer VideoContainer `json:"videoFormat,omitempty"`
	Language       string         `json:"language"`
	HaitianCulture bool           `json:"haitianCulture"`

	// Context carries the prior conversation turns for follow-up requests,
	// oldest first.
	Context []Turn `json:"context,omitempty"`

	// FastMode skips the slower media stages where the caller only needs
	// text quickly.
	FastMode bool `json:"fastMode,omitempty"`

	// FollowUp marks a conversational continuation. Follow-up turns are
	// always resolved text-only regardless of Media.
	FollowUp bool `json:"followUp,omitempty"`
}

// Validate checks the request before any provider is contacted.
func (r *Request) Validate() error {
	if r.Topic == "" {
		return ErrEmptyTopic
	}
	return nil
}

// Artifact is the merged result of one generation request. Media fields are
// best-effort: any of them may be empty when the corresponding stage failed.
type Artifact struct {
	Title   string `json:"title"`
	Content string `json:"content"`

	// ImageRef is a data URI (inline generation) or an external URL
	// (fallback image provider).
	ImageRef string `json:"imageUrl,omitempty"`

	// AudioRef is base64 PCM (Gemini TTS) or a data URI / URL (fallback
	// narration provider).
	AudioRef string `json:"audioUrl,omitempty"`

	// VideoRef is the generated video URL. When VideoSimulated is true it
	// carries the image reference instead; no distinct video bytes exist.
	VideoRef string `json:"videoUrl,omitempty"`

	// ImagePrompt is the illustration prompt used, kept for regeneration.
	ImagePrompt string `json:"imagePrompt,omitempty"`

	// VideoError describes a failed video stage, for informational display.
	VideoError string `json:"videoError,omitempty"`

	VideoContainer VideoContainer `json:"videoFormat,omitempty"`

	// VideoSimulated marks the video as a static-image substitute.
	VideoSimulated bool `json:"isVideoSimulated,omitempty"`

	// NextStep is a suggested prompt for continuing interactively.
	NextStep string `json:"nextStepSuggestion,omitempty"`
}

// HistoryItem is an Artifact persisted to the history store.
type HistoryItem struct {
	Artifact

	ID      string    `json:"id"`
	SavedAt time.Time `json:"timestamp"`

	// Request parameters kept for redisplay and regeneration.
	Topic string    `json:"originalTopic"`
	Media MediaKind `json:"mediaType"`
	Genre Genre     `json:"genre"`
}

// QuizQuestion is one multiple-choice question generated for a lesson.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}
