package orchestrator

// #region imports
import (
	"github.com/sentinelforge/go-middleware/internal/adapter"
	"github.com/sentinelforge/go-middleware/internal/entropy"
	"github.com/sentinelforge/go-middleware/internal/glyph"
	"github.com/sentinelforge/go-middleware/internal/lens"
)

// #endregion

// #region event-types

// Bus event types published by the pipeline. Topics group them for
// subscribers: "cognitive" for zone activity, "symbolic" for shape matches,
// "glyph" for sequence parsing and admin changes.
const (
	EventZoneClassified = "zone.classified"
	EventSymbolicMatch  = "symbolic.matched"
	EventGlyphParsed    = "glyph.parsed"
	EventPackMerged     = "pack.merged"
	EventSeedsAdded     = "seeds.added"

	TopicCognitive = "cognitive"
	TopicSymbolic  = "symbolic"
	TopicGlyph     = "glyph"
)

// #endregion

// #region chat-request

// ChatRequest is one inbound message plus optional conversation history.
type ChatRequest struct {
	Message string            `json:"message"`
	Tag     string            `json:"tag,omitempty"`
	Lens    lens.Lens         `json:"lens,omitempty"`
	History []adapter.Message `json:"history,omitempty"`
}

// #endregion

// #region cognitive-metadata

// CognitiveMetadata is the middleware's annotation of one exchange: entropy
// and zone for both directions, the lens used, and the symbolic analysis of
// the input.
type CognitiveMetadata struct {
	InputEntropy    float64       `json:"input_entropy"`
	InputZone       entropy.Zone  `json:"input_zone"`
	OutputEntropy   float64       `json:"output_entropy"`
	OutputZone      entropy.Zone  `json:"output_zone"`
	LensApplied     lens.Lens     `json:"lens_applied"`
	SymbolicMatches []glyph.Match `json:"symbolic_matches"`
	DominantTopic   string        `json:"dominant_topic,omitempty"`
	SymbolicTags    []string      `json:"symbolic_tags"`
	ParsedGlyphs    int           `json:"parsed_glyphs"`
	GlyphConcepts   []string      `json:"glyph_concepts,omitempty"`
	NoteID          string        `json:"note_id,omitempty"`
}

// #endregion

// #region chat-response

// ChatResponse pairs the model reply with the cognitive annotation.
type ChatResponse struct {
	Reply      string             `json:"reply"`
	Completion adapter.Completion `json:"completion"`
	Cognitive  CognitiveMetadata  `json:"cognitive"`
}

// #endregion

// #region metrics

// Metrics is the aggregate view served by the status surface.
type Metrics struct {
	Zones        entropy.Metrics          `json:"zones"`
	Distribution map[entropy.Zone]float64 `json:"distribution"`
	Shapes       []string                 `json:"shapes"`
	SeedCount    int                      `json:"seed_count"`
	Processed    int64                    `json:"processed"`
}

// #endregion
