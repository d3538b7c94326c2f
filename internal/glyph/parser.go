package glyph

// #region imports
import (
	"strings"
	"sync"
)

// #endregion

// #region symbol-table

// defaultSymbols maps glyph characters to the cognitive concept they stand for.
func defaultSymbols() map[string]string {
	return map[string]string{
		// meta-context
		"🌐": "meta_context",
		"🔭": "observation_mode",
		"🌀": "cognitive_flow",
		// action pulse
		"🜂": "action_pulse",
		"⚙️": "processing_gear",
		"🔺": "initiation_triangle",
		// memory zones
		"🟢": "active_zone",
		"🟡": "pattern_zone",
		"🔴": "crystal_zone",
		// cognitive lenses
		"🧠": "baseline_mode",
		"⚡": "burst_lens",
		"🎯": "precision_lens",
		"🌊": "spatial_lens",
	}
}

// #endregion

// #region parser

// Parser recognizes glyph symbols inside free text and interprets explicit
// glyph route sequences like "APEX->CORE->EMIT". Mappings are append-only at
// runtime and safe under concurrent reads.
type Parser struct {
	mu      sync.RWMutex
	symbols map[string]string
}

// NewParser returns a parser seeded with the default symbol table.
func NewParser() *Parser {
	return &Parser{symbols: defaultSymbols()}
}

// AddMapping registers a new glyph symbol at runtime.
func (p *Parser) AddMapping(symbol, concept string) {
	p.mu.Lock()
	p.symbols[symbol] = concept
	p.mu.Unlock()
}

// Symbols returns a copy of the symbol table.
func (p *Parser) Symbols() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.symbols))
	for k, v := range p.symbols {
		out[k] = v
	}
	return out
}

// #endregion

// #region parse-sequence

// ParsedGlyph is one recognized symbol occurrence.
type ParsedGlyph struct {
	Symbol  string `json:"symbol"`
	Concept string `json:"concept"`
}

// SequenceResult is the structured output of scanning text for glyph symbols.
type SequenceResult struct {
	Parsed         bool          `json:"parsed"`
	Glyphs         []ParsedGlyph `json:"glyphs"`
	Concepts       []string      `json:"concepts"`
	SequenceLength int           `json:"sequence_length"`
	ParsedCount    int           `json:"parsed_count"`
}

// ParseSequence scans text rune by rune and collects every known glyph symbol
// in order of appearance. Unknown characters are skipped; empty input yields
// an unparsed result, never an error.
func (p *Parser) ParseSequence(text string) SequenceResult {
	if strings.TrimSpace(text) == "" {
		return SequenceResult{Glyphs: []ParsedGlyph{}, Concepts: []string{}}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	result := SequenceResult{
		Glyphs:   []ParsedGlyph{},
		Concepts: []string{},
	}
	for _, r := range text {
		result.SequenceLength++
		if concept, ok := p.symbols[string(r)]; ok {
			result.Glyphs = append(result.Glyphs, ParsedGlyph{Symbol: string(r), Concept: concept})
			result.Concepts = append(result.Concepts, concept)
		}
	}
	result.ParsedCount = len(result.Glyphs)
	result.Parsed = result.ParsedCount > 0
	return result
}

// #endregion

// #region interpret

// RouteHint is the interpretation of an explicit glyph route sequence.
type RouteHint struct {
	Tokens []string `json:"tokens"`
	Topics []string `json:"topics"`
	Action string   `json:"action"`
	Target string   `json:"target"`
}

// routeTokenNames normalizes route tokens and their glyph spellings to the
// canonical shape names.
var routeTokenNames = map[string]string{
	"APEX": "APEX", "🜂": "APEX", "FIRE": "APEX",
	"CORE": "CORE", "♾": "CORE",
	"EMIT": "EMIT", "🚀": "EMIT",
	"ROOT": "ROOT", "🌳": "ROOT",
	"CUBE": "CUBE", "🧊": "CUBE",
}

// Interpret parses a route sequence like "APEX->CORE->EMIT" (arrow variants
// tolerated), resolves alias topics through the matcher, and suggests a route
// action. The canonical APEX→CORE→EMIT prefix routes to process; ROOT routes
// to help when paired with APEX, otherwise status; CUBE routes to stress_test.
func (p *Parser) Interpret(sequence string, aliasTopic func(string) (string, bool)) RouteHint {
	hint := RouteHint{Tokens: []string{}, Topics: []string{}, Action: "process", Target: "local"}

	raw := strings.NewReplacer("→", "->", "—", "->").Replace(sequence)
	for _, part := range strings.Split(raw, "->") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		upper := strings.ToUpper(part)
		if canonical, ok := routeTokenNames[upper]; ok {
			upper = canonical
		}
		hint.Tokens = append(hint.Tokens, upper)
	}

	if aliasTopic != nil {
		seen := make(map[string]struct{})
		for _, token := range hint.Tokens {
			if topic, ok := aliasTopic(token); ok {
				if _, dup := seen[topic]; !dup {
					hint.Topics = append(hint.Topics, topic)
					seen[topic] = struct{}{}
				}
			}
		}
	}

	switch {
	case len(hint.Tokens) >= 3 && hint.Tokens[0] == "APEX" && hint.Tokens[1] == "CORE" && hint.Tokens[2] == "EMIT":
		hint.Action = "process"
	case contains(hint.Tokens, "ROOT"):
		if contains(hint.Tokens, "APEX") {
			hint.Action = "help"
		} else {
			hint.Action = "status"
		}
	case contains(hint.Tokens, "CUBE"):
		hint.Action = "stress_test"
	}

	return hint
}

func contains(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

// #endregion
