package glyph

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// #endregion

// #region scoring

// Per-seed score contributions. A whole-word hit outranks a substring hit,
// and the whole-word check runs first so a seed contributes at most once.
const (
	wholeWordScore = 1.0
	substringScore = 0.7
)

// #endregion

// #region validator

var validate = validator.New()

// #endregion

// #region matcher

// Matcher holds the shape table and matches input text against it.
// The table is the only shared mutable state: reads take the read lock,
// administrative writes (Load, Merge, AddSeeds) take the write lock, so
// every match sees a complete, non-corrupted table.
//
// Table order is the lexical order of shape names, fixed at load time and
// extended append-only by merges. Confidence ties between shapes resolve in
// table order, which makes the dominant topic deterministic.
type Matcher struct {
	mu       sync.RWMutex
	order    []string
	shapes   map[string]Shape
	seedPool map[string]struct{}
	aliases  map[string]string
	log      *zap.SugaredLogger
}

// NewMatcher returns a matcher with an empty table. Pass nil to disable logging.
func NewMatcher(log *zap.SugaredLogger) *Matcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Matcher{
		shapes:   make(map[string]Shape),
		seedPool: make(map[string]struct{}),
		aliases:  make(map[string]string),
		log:      log,
	}
}

// #endregion

// #region load

// Load replaces the shape table wholesale. Each shape must carry a topic and
// at least one seed; violations fail with ErrInvalidShapeDefinition and leave
// the previous table untouched.
func (m *Matcher) Load(shapes map[string]Shape) error {
	order := make([]string, 0, len(shapes))
	normalized := make(map[string]Shape, len(shapes))

	for name := range shapes {
		order = append(order, name)
	}
	sort.Strings(order)

	for _, name := range order {
		shape, err := normalizeShape(name, shapes[name])
		if err != nil {
			return err
		}
		normalized[name] = shape
	}

	pool := make(map[string]struct{})
	aliases := make(map[string]string)
	for _, name := range order {
		indexShape(name, normalized[name], pool, aliases)
	}

	m.mu.Lock()
	m.order = order
	m.shapes = normalized
	m.seedPool = pool
	m.aliases = aliases
	m.mu.Unlock()

	m.log.Infow("shape table loaded", "shapes", len(order))
	return nil
}

// LoadFile loads a shape pack from a JSON file of the form
// {"shapes": {NAME: {topic, seeds, rules}}}. A missing file is not an error:
// the built-in default table applies and the condition is logged as a warning.
// Malformed JSON or invalid shapes fail loudly.
func (m *Matcher) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m.log.Warnw("shape pack not found, using default table", "path", path)
		return m.LoadDefaults()
	}
	if err != nil {
		return fmt.Errorf("read shape pack %s: %w", path, err)
	}

	var pack struct {
		Shapes map[string]Shape `json:"shapes"`
	}
	if err := json.Unmarshal(raw, &pack); err != nil {
		return fmt.Errorf("%w: parse shape pack %s: %v", ErrInvalidShapeDefinition, path, err)
	}
	if err := m.Load(pack.Shapes); err != nil {
		return fmt.Errorf("shape pack %s: %w", path, err)
	}
	return nil
}

// LoadDefaults installs the built-in five-shape table.
func (m *Matcher) LoadDefaults() error {
	return m.Load(DefaultShapes())
}

// #endregion

// #region normalize

// normalizeShape validates one shape definition and normalizes seed and rule
// keys to lowercase trimmed form. Normalization is the only transformation a
// round-trip through the table applies.
func normalizeShape(name string, shape Shape) (Shape, error) {
	if err := validate.Struct(shape); err != nil {
		return Shape{}, fmt.Errorf("%w: shape %q: %v", ErrInvalidShapeDefinition, name, err)
	}

	out := Shape{Topic: shape.Topic}
	for _, seed := range shape.Seeds {
		token := strings.ToLower(strings.TrimSpace(seed))
		if token == "" {
			continue
		}
		out.Seeds = append(out.Seeds, token)
	}
	if len(out.Seeds) == 0 {
		return Shape{}, fmt.Errorf("%w: shape %q: no usable seeds", ErrInvalidShapeDefinition, name)
	}
	if len(shape.Rules) > 0 {
		out.Rules = make(map[string]string, len(shape.Rules))
		for k, v := range shape.Rules {
			key := strings.ToLower(strings.TrimSpace(k))
			if key == "" {
				continue
			}
			out.Rules[key] = v
		}
	}
	return out, nil
}

// indexShape folds one shape into the seed pool and alias map.
func indexShape(name string, shape Shape, pool map[string]struct{}, aliases map[string]string) {
	for _, seed := range shape.Seeds {
		pool[seed] = struct{}{}
		if shape.Topic != "" {
			aliases[seed] = shape.Topic
		}
	}
	if shape.Topic != "" {
		aliases[strings.ToLower(name)] = shape.Topic
	}
}

// #endregion

// #region process-text

// ProcessText matches text against every shape in the table and derives the
// symbolic metadata. Empty or whitespace-only text yields empty metadata;
// no text input can produce an error.
func (m *Matcher) ProcessText(text string) Metadata {
	meta := Metadata{SymbolicTags: []string{}}
	if strings.TrimSpace(text) == "" {
		return meta
	}

	textLower := strings.ToLower(text)

	m.mu.RLock()
	for _, name := range m.order {
		if match, ok := matchShape(textLower, name, m.shapes[name]); ok {
			meta.Matches = append(meta.Matches, match)
		}
	}
	m.mu.RUnlock()

	// Stable sort keeps table order between equal confidences.
	sort.SliceStable(meta.Matches, func(i, j int) bool {
		return meta.Matches[i].Confidence > meta.Matches[j].Confidence
	})

	if len(meta.Matches) > 0 {
		meta.DominantTopic = meta.Matches[0].Topic
	}

	tags := make(map[string]struct{})
	for _, match := range meta.Matches {
		for _, tag := range match.AppliedRules {
			tags[tag] = struct{}{}
		}
	}
	for tag := range tags {
		meta.SymbolicTags = append(meta.SymbolicTags, tag)
	}
	sort.Strings(meta.SymbolicTags)

	return meta
}

// matchShape matches a single shape against lowercased text. Each seed
// contributes once: whole-word hits score 1.0 and short-circuit the substring
// check, substring hits score 0.7. Rules apply to any matched seed regardless
// of which mode fired. Shapes with zero matched seeds produce no result.
func matchShape(textLower, name string, shape Shape) (Match, bool) {
	var matched []string
	var applied map[string]string
	total := 0.0

	for _, seed := range shape.Seeds {
		var score float64
		switch {
		case containsWholeWord(textLower, seed):
			score = wholeWordScore
		case strings.Contains(textLower, seed):
			score = substringScore
		default:
			continue
		}

		matched = append(matched, seed)
		total += score

		if tag, ok := shape.Rules[seed]; ok {
			if applied == nil {
				applied = make(map[string]string)
			}
			applied[seed] = tag
		}
	}

	if len(matched) == 0 {
		return Match{}, false
	}

	confidence := total / float64(len(matched))
	if confidence > 1.0 {
		confidence = 1.0
	}

	return Match{
		Shape:        name,
		Topic:        shape.Topic,
		Confidence:   confidence,
		MatchedSeeds: matched,
		AppliedRules: applied,
	}, true
}

// #endregion

// #region word-boundary

// containsWholeWord reports whether seed occurs in text bounded by non-word
// bytes or string edges. Word characters are ASCII letters, digits and
// underscore; multi-byte runes count as boundaries, so matching is
// ASCII-boundary-only (non-ASCII seeds still substring-match).
func containsWholeWord(text, seed string) bool {
	if seed == "" {
		return false
	}
	for start := 0; start <= len(text)-len(seed); {
		idx := strings.Index(text[start:], seed)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(seed)
		if (idx == 0 || !isWordByte(text[idx-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = idx + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}

// #endregion

// #region accessors

// Shapes returns the shape names in table order.
func (m *Matcher) Shapes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// ShapeInfo returns a copy of one shape definition.
func (m *Matcher) ShapeInfo(name string) (Shape, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shape, ok := m.shapes[name]
	if !ok {
		return Shape{}, false
	}
	return shape.clone(), true
}

// AliasTopic resolves a seed or shape name to its canonical topic.
func (m *Matcher) AliasTopic(token string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	topic, ok := m.aliases[strings.ToLower(strings.TrimSpace(token))]
	return topic, ok
}

// Export flattens the matcher state for persistence: the union of all shape
// rules keyed by seed, the sorted seed pool, and the alias map.
func (m *Matcher) Export() Export {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := Export{
		Rules:   make(map[string]string),
		Aliases: make(map[string]string, len(m.aliases)),
	}
	for _, name := range m.order {
		for k, v := range m.shapes[name].Rules {
			out.Rules[k] = v
		}
	}
	for seed := range m.seedPool {
		out.Seeds = append(out.Seeds, seed)
	}
	sort.Strings(out.Seeds)
	for k, v := range m.aliases {
		out.Aliases[k] = v
	}
	return out
}

// #endregion
