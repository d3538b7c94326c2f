package lens

// #region imports
import (
	"strings"
)

// #endregion

// #region lens-enum

// Lens selects a presentation transform for context text. Baseline passes
// text through untouched.
type Lens string

const (
	LensBaseline  Lens = "baseline"
	LensBurst     Lens = "burst"
	LensPrecision Lens = "precision"
	LensSpatial   Lens = "spatial"
)

// Parse maps a wire label to a Lens, falling back to baseline for anything
// unknown.
func Parse(s string) Lens {
	switch Lens(strings.ToLower(strings.TrimSpace(s))) {
	case LensBurst:
		return LensBurst
	case LensPrecision:
		return LensPrecision
	case LensSpatial:
		return LensSpatial
	default:
		return LensBaseline
	}
}

// #endregion

// #region transformer

// Transformer reformats text for presentation. Transformers are pure aside
// from rotating marker counters used for cosmetic variety.
type Transformer interface {
	ID() Lens
	Transform(text string) string
}

// #endregion

// #region set

// Set bundles the built-in transformers keyed by lens.
type Set struct {
	burst     *Burst
	precision *Precision
	spatial   *Spatial
}

// NewSet returns the three built-in transformers.
func NewSet() *Set {
	return &Set{
		burst:     NewBurst(),
		precision: NewPrecision(),
		spatial:   NewSpatial(),
	}
}

// Apply runs the transformer for the given lens; baseline and unknown lenses
// return the text unchanged.
func (s *Set) Apply(l Lens, text string) string {
	switch l {
	case LensBurst:
		return s.burst.Transform(text)
	case LensPrecision:
		return s.precision.Transform(text)
	case LensSpatial:
		return s.spatial.Transform(text)
	default:
		return text
	}
}

// #endregion

// #region sentence-split

// splitSentences breaks text after terminal punctuation followed by
// whitespace. Good enough for presentation chunking.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder

	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				s := strings.TrimSpace(cur.String())
				if s != "" {
					out = append(out, s)
				}
				cur.Reset()
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// #endregion
