package entropy

// #region imports
import (
	"strings"
)

// #endregion

// #region zone

// Zone is the memory zone a piece of text routes to based on its entropy.
type Zone string

const (
	ZoneActive  Zone = "active"  // high entropy, novel content
	ZonePattern Zone = "pattern" // mid entropy, emerging patterns
	ZoneCrystal Zone = "crystal" // low entropy, stable content
)

// ParseZone maps a wire label back to a Zone. Unknown labels return ok=false.
func ParseZone(s string) (Zone, bool) {
	switch Zone(s) {
	case ZoneActive, ZonePattern, ZoneCrystal:
		return Zone(s), true
	}
	return "", false
}

// #endregion

// #region compute

// Compute returns the token-diversity entropy of text in [0, 1].
// Higher means more diverse/novel content, lower means more repetitive.
// The measure is the unique-token ratio over lowercase whitespace tokens;
// empty or whitespace-only input yields 0.
func Compute(text string) float64 {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return 0.0
	}
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(tokens))
	return clamp(ratio)
}

// #endregion

// #region classify

// Zone thresholds. >ActiveThreshold routes active, >PatternThreshold routes
// pattern, everything else crystal. Both boundaries are strict, so 0.7 is
// pattern and 0.3 is crystal.
const (
	ActiveThreshold  = 0.7
	PatternThreshold = 0.3
)

// ClassifyZone routes an entropy value to its memory zone.
// Out-of-range input is tolerated: anything above 0.7 is active,
// anything at or below 0.3 is crystal.
func ClassifyZone(e float64) Zone {
	switch {
	case e > ActiveThreshold:
		return ZoneActive
	case e > PatternThreshold:
		return ZonePattern
	default:
		return ZoneCrystal
	}
}

// Classify computes entropy for text and routes it in one step.
func Classify(text string) (Zone, float64) {
	e := Compute(text)
	return ClassifyZone(e), e
}

// #endregion

// #region helpers

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
