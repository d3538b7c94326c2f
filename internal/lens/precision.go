package lens

// #region imports
import (
	"fmt"
	"strings"
)

// #endregion

// #region config

var categoryLabels = []struct {
	keywords []string
	label    string
	marker   string
}{
	{[]string{"definition", "concept", "category"}, "Definition", "🏷️"},
	{[]string{"example", "instance", "case"}, "Example", "📂"},
	{[]string{"relationship", "connection", "link"}, "Relationship", "🔗"},
	{[]string{"process", "method", "approach"}, "Process", "⚙️"},
}

var sequenceWords = []string{"first", "then", "next", "finally"}
var logicWords = []string{"because", "therefore", "however"}

// #endregion

// #region precision

// Precision annotates text with explicit structure and category labels:
// long lines get a structural marker, recognizable categories get an
// explicit label, and multi-paragraph input gets a structure summary header.
type Precision struct{}

// NewPrecision returns a precision transformer.
func NewPrecision() *Precision {
	return &Precision{}
}

// ID returns LensPrecision.
func (p *Precision) ID() Lens { return LensPrecision }

// Transform adds structural and category annotations paragraph by paragraph.
// Empty input passes through unchanged.
func (p *Precision) Transform(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	var paragraphs []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paragraphs = append(paragraphs, p.annotate(para))
	}

	out := strings.Join(paragraphs, "\n\n")
	if len(paragraphs) > 1 {
		out = fmt.Sprintf("📊 Structure: %d sections\n\n%s", len(paragraphs), out)
	}
	return out
}

func (p *Precision) annotate(para string) string {
	var lines []string
	for _, line := range strings.Split(para, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, annotateLine(line))
	}
	return strings.Join(lines, "\n")
}

// #endregion

// #region annotate-line

func annotateLine(line string) string {
	lower := strings.ToLower(line)

	for _, cat := range categoryLabels {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return fmt.Sprintf("%s [%s] %s", cat.marker, cat.label, line)
			}
		}
	}

	// Structural markers only for lines long enough to need them.
	if len(line) > 50 {
		if containsAny(lower, sequenceWords) {
			return "🔗 " + line
		}
		if containsAny(lower, logicWords) {
			return "📊 " + line
		}
		return "📝 " + line
	}
	return line
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// #endregion
