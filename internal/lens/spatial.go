package lens

// #region imports
import (
	"fmt"
	"strings"
	"sync"
)

// #endregion

// #region config

var spatialAnchors = []string{"🌟", "🔮", "🎨", "🌈", "🎭", "🎪"}
var chunkMarkers = []string{"📦", "🎁", "🗂️", "📚", "🎯", "🧭"}
var colorMarks = []string{"🟡", "🟠", "🟣", "🟢", "🔵", "🟤"}

// Paragraphs longer than this split into sentence pairs.
const spatialSplitLen = 200

// #endregion

// #region spatial

// Spatial lays text out with visual anchors, chunk wrapping and navigation
// indicators, plus an overview line for multi-chunk output.
type Spatial struct {
	mu        sync.Mutex
	anchorIdx int
	chunkIdx  int
	colorIdx  int
}

// NewSpatial returns a spatial transformer.
func NewSpatial() *Spatial {
	return &Spatial{}
}

// ID returns LensSpatial.
func (s *Spatial) ID() Lens { return LensSpatial }

// Transform reorganizes text into anchored, navigable chunks.
// Empty input passes through unchanged.
func (s *Spatial) Transform(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	chunks := identifyChunks(text)
	total := len(chunks)

	out := make([]string, 0, total)
	for i, chunk := range chunks {
		decorated := s.decorate(chunk)
		decorated = addNavigation(decorated, i, total)
		out = append(out, decorated)
	}

	result := strings.Join(out, "\n\n")
	if total > 1 {
		result = fmt.Sprintf("🧭 Map: %d regions below\n\n%s", total, result)
	}
	return result
}

func (s *Spatial) decorate(chunk string) string {
	s.mu.Lock()
	anchor := spatialAnchors[s.anchorIdx%len(spatialAnchors)]
	marker := chunkMarkers[s.chunkIdx%len(chunkMarkers)]
	color := colorMarks[s.colorIdx%len(colorMarks)]
	s.anchorIdx++
	s.chunkIdx++
	s.colorIdx++
	s.mu.Unlock()

	return fmt.Sprintf("%s%s %s %s %s%s", marker, color, anchor, chunk, color, marker)
}

// #endregion

// #region chunking

// identifyChunks splits text into paragraphs, then breaks long paragraphs
// into sentence pairs.
func identifyChunks(text string) []string {
	var chunks []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= spatialSplitLen {
			chunks = append(chunks, para)
			continue
		}
		sentences := splitSentences(para)
		for i := 0; i < len(sentences); i += 2 {
			end := i + 2
			if end > len(sentences) {
				end = len(sentences)
			}
			chunks = append(chunks, strings.Join(sentences[i:end], " "))
		}
	}
	return chunks
}

// addNavigation appends previous/next/connection indicators.
func addNavigation(chunk string, position, total int) string {
	var nav []string
	if position > 0 {
		nav = append(nav, "⬆️")
	}
	if position < total-1 {
		nav = append(nav, "⬇️")
	}
	if total > 1 {
		nav = append(nav, "🔀")
	}
	if len(nav) == 0 {
		return chunk
	}
	return chunk + " [" + strings.Join(nav, " ") + "]"
}

// #endregion
