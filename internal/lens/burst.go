package lens

// #region imports
import (
	"regexp"
	"strings"
	"sync"
)

// #endregion

// #region config

const burstChunkWords = 50

var burstMarkers = []string{"⚡", "💥", "🚀", "🔥", "💫", "⭐", "🎯"}

var actionWords = []string{"start", "begin", "launch", "create", "build", "run", "execute", "activate"}

var actionPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(actionWords))
	for i, w := range actionWords {
		out[i] = regexp.MustCompile(`(?i)\b` + w + `\b`)
	}
	return out
}()

// #endregion

// #region burst

// Burst chunks text into short bullet groups for rapid scanning: sentences
// are packed into ≤50-word chunks, each prefixed with a cycling marker, and
// action words are emphasized.
type Burst struct {
	mu        sync.Mutex
	chunkSize int
	markerIdx int
}

// NewBurst returns a burst transformer with the default chunk size.
func NewBurst() *Burst {
	return &Burst{chunkSize: burstChunkWords}
}

// ID returns LensBurst.
func (b *Burst) ID() Lens { return LensBurst }

// Transform reformats text into marker-prefixed word-limited chunks.
// Empty input passes through unchanged.
func (b *Burst) Transform(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	chunks := packChunks(splitSentences(text), b.chunkSize)

	var bullets []string
	for _, chunk := range chunks {
		bullets = append(bullets, b.nextMarker()+" "+emphasizeActions(chunk))
	}
	return strings.Join(bullets, "\n\n")
}

func (b *Burst) nextMarker() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := burstMarkers[b.markerIdx%len(burstMarkers)]
	b.markerIdx++
	return m
}

// #endregion

// #region helpers

// packChunks groups sentences into chunks of at most maxWords words,
// never splitting a sentence.
func packChunks(sentences []string, maxWords int) []string {
	var chunks []string
	var cur []string
	words := 0

	for _, s := range sentences {
		n := len(strings.Fields(s))
		if words+n > maxWords && len(cur) > 0 {
			chunks = append(chunks, strings.Join(cur, " "))
			cur = nil
			words = 0
		}
		cur = append(cur, s)
		words += n
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// emphasizeActions uppercases and bolds action-oriented words.
func emphasizeActions(text string) string {
	out := text
	for i, re := range actionPatterns {
		out = re.ReplaceAllString(out, "**"+strings.ToUpper(actionWords[i])+"**")
	}
	return out
}

// #endregion
