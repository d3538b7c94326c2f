package glyph

// #region imports
import (
	"errors"
)

// #endregion

// #region errors

// ErrInvalidShapeDefinition marks a shape table whose structure violates the
// required {topic, seeds[], rules{}} layout. Loading malformed input fails
// loudly with this error; a missing source is not an error (defaults apply).
var ErrInvalidShapeDefinition = errors.New("invalid shape definition")

// #endregion

// #region shape

// Shape is a named glyph pattern: a topic label, seed keywords used for
// fuzzy matching, and seed→tag rules applied when their key fires.
type Shape struct {
	Topic string            `json:"topic" validate:"required"`
	Seeds []string          `json:"seeds" validate:"required,min=1,dive,required"`
	Rules map[string]string `json:"rules" validate:"omitempty,dive,keys,required,endkeys,required"`
}

// clone returns a deep copy so callers can't mutate table internals.
func (s Shape) clone() Shape {
	out := Shape{Topic: s.Topic}
	out.Seeds = append([]string(nil), s.Seeds...)
	if s.Rules != nil {
		out.Rules = make(map[string]string, len(s.Rules))
		for k, v := range s.Rules {
			out.Rules[k] = v
		}
	}
	return out
}

// #endregion

// #region match

// Match is the result of matching one shape against one text. Produced only
// when at least one seed fired.
type Match struct {
	Shape        string            `json:"shape"`
	Topic        string            `json:"topic"`
	Confidence   float64           `json:"confidence"`
	MatchedSeeds []string          `json:"matched_seeds"`
	AppliedRules map[string]string `json:"applied_rules,omitempty"`
}

// #endregion

// #region metadata

// Metadata is the symbolic processing output for one input text: all shape
// matches sorted by descending confidence, the topic of the strongest match,
// and the deduplicated union of applied rule tags (sorted for determinism).
type Metadata struct {
	Matches       []Match  `json:"matches"`
	DominantTopic string   `json:"dominant_topic,omitempty"`
	SymbolicTags  []string `json:"symbolic_tags"`
}

// #endregion

// #region merge-summary

// MergeSummary reports what an administrative merge actually added.
type MergeSummary struct {
	AddedSeeds   int `json:"added_seeds"`
	AddedAliases int `json:"added_aliases"`
	AddedRules   int `json:"added_rules"`
}

// #endregion

// #region export

// Export is the flattened matcher state handed to the persistence layer:
// all rules keyed by seed, the full seed pool sorted, and the alias map
// (seed or shape name → topic).
type Export struct {
	Rules   map[string]string `json:"rules"`
	Seeds   []string          `json:"seeds"`
	Aliases map[string]string `json:"aliases"`
}

// #endregion
