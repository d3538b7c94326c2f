package glyph

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func newDefaultMatcher(t *testing.T) *Matcher {
	t.Helper()
	m := NewMatcher(nil)
	if err := m.LoadDefaults(); err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return m
}

func TestProcessText_WholeWordMatches(t *testing.T) {
	m := newDefaultMatcher(t)

	meta := m.ProcessText("Let's start the process now")

	if len(meta.Matches) != 2 {
		t.Fatalf("matches: got %d, want 2 (%+v)", len(meta.Matches), meta.Matches)
	}
	for _, match := range meta.Matches {
		if match.Confidence != 1.0 {
			t.Errorf("%s confidence: got %v, want 1.0", match.Shape, match.Confidence)
		}
	}
	// APEX and CORE tie at 1.0; table order is lexical, so APEX leads.
	if meta.Matches[0].Shape != "APEX" || meta.Matches[1].Shape != "CORE" {
		t.Errorf("tie order: got %s, %s", meta.Matches[0].Shape, meta.Matches[1].Shape)
	}
	if meta.DominantTopic != "initiation" {
		t.Errorf("dominant topic: got %q, want initiation", meta.DominantTopic)
	}
	// CORE's "process" rule fired; APEX's "apex" rule did not.
	if !reflect.DeepEqual(meta.SymbolicTags, []string{"tag:process.core"}) {
		t.Errorf("tags: got %v", meta.SymbolicTags)
	}
}

func TestProcessText_SubstringScoresLower(t *testing.T) {
	m := newDefaultMatcher(t)

	// "initialize" contains the seed "init" but not as a whole word.
	meta := m.ProcessText("initialize the relay")

	if len(meta.Matches) != 1 {
		t.Fatalf("matches: got %d, want 1 (%+v)", len(meta.Matches), meta.Matches)
	}
	match := meta.Matches[0]
	if match.Shape != "APEX" {
		t.Errorf("shape: got %q", match.Shape)
	}
	if math.Abs(match.Confidence-0.7) > 1e-9 {
		t.Errorf("confidence: got %v, want 0.7", match.Confidence)
	}
	if !reflect.DeepEqual(match.MatchedSeeds, []string{"init"}) {
		t.Errorf("matched seeds: got %v", match.MatchedSeeds)
	}
}

func TestProcessText_MixedModesAverage(t *testing.T) {
	m := newDefaultMatcher(t)

	// "query" whole word (1.0) + "init" inside "initialized" (0.7) → mean 0.85.
	meta := m.ProcessText("query the initialized node")

	if len(meta.Matches) != 1 {
		t.Fatalf("matches: got %d (%+v)", len(meta.Matches), meta.Matches)
	}
	if got := meta.Matches[0].Confidence; math.Abs(got-0.85) > 1e-9 {
		t.Errorf("confidence: got %v, want 0.85", got)
	}
}

func TestProcessText_EmptyInput(t *testing.T) {
	m := newDefaultMatcher(t)

	for _, text := range []string{"", "   ", "\t\n"} {
		meta := m.ProcessText(text)
		if len(meta.Matches) != 0 || meta.DominantTopic != "" || len(meta.SymbolicTags) != 0 {
			t.Errorf("ProcessText(%q) = %+v, want empty metadata", text, meta)
		}
	}
}

func TestProcessText_NoRaiseOnHostileInput(t *testing.T) {
	m := newDefaultMatcher(t)

	for _, text := range []string{
		"!!!???###",
		"日本語のテキストです",
		string([]byte{0xff, 0xfe, 0x20, 0x61}),
		"🜂🜂🜂",
	} {
		_ = m.ProcessText(text) // must not panic
	}
}

func TestProcessText_Idempotent(t *testing.T) {
	m := newDefaultMatcher(t)

	text := "launch the process and bind memory"
	first := m.ProcessText(text)
	second := m.ProcessText(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestProcessText_WordBoundaries(t *testing.T) {
	m := NewMatcher(nil)
	if err := m.Load(map[string]Shape{
		"T": {Topic: "t", Seeds: []string{"start"}},
	}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		text string
		want float64
	}{
		{"edge-of-string", "start", 1.0},
		{"punctuation-bounded", "go: start.", 1.0},
		{"substring-suffix", "restart", 0.7},
		{"substring-prefix", "starting", 0.7},
		{"underscore-joined", "cold_start", 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := m.ProcessText(tt.text)
			if len(meta.Matches) != 1 {
				t.Fatalf("matches: got %d", len(meta.Matches))
			}
			if got := meta.Matches[0].Confidence; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("confidence: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProcessText_RulesApplyForPartialMatches(t *testing.T) {
	m := NewMatcher(nil)
	if err := m.Load(map[string]Shape{
		"T": {Topic: "t", Seeds: []string{"ignite"}, Rules: map[string]string{"ignite": "tag:fire"}},
	}); err != nil {
		t.Fatal(err)
	}

	// Substring occurrence still triggers the rule.
	meta := m.ProcessText("reignited the array")
	if len(meta.Matches) != 1 {
		t.Fatalf("matches: got %d", len(meta.Matches))
	}
	if meta.Matches[0].AppliedRules["ignite"] != "tag:fire" {
		t.Errorf("applied rules: got %v", meta.Matches[0].AppliedRules)
	}
	if !reflect.DeepEqual(meta.SymbolicTags, []string{"tag:fire"}) {
		t.Errorf("tags: got %v", meta.SymbolicTags)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	m := NewMatcher(nil)
	err := m.Load(map[string]Shape{
		"WAVE": {
			Topic: "flow",
			Seeds: []string{" Surge ", "TIDE", "ripple"},
			Rules: map[string]string{"Surge": "tag:flow.surge"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	shape, ok := m.ShapeInfo("WAVE")
	if !ok {
		t.Fatal("shape missing after load")
	}
	if shape.Topic != "flow" {
		t.Errorf("topic: got %q", shape.Topic)
	}
	// Seeds and rule keys come back lowercased and trimmed, nothing else changes.
	if !reflect.DeepEqual(shape.Seeds, []string{"surge", "tide", "ripple"}) {
		t.Errorf("seeds: got %v", shape.Seeds)
	}
	if shape.Rules["surge"] != "tag:flow.surge" {
		t.Errorf("rules: got %v", shape.Rules)
	}
}

func TestLoad_InvalidShape(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
	}{
		{"missing-topic", Shape{Seeds: []string{"x"}}},
		{"no-seeds", Shape{Topic: "t"}},
		{"blank-seeds-only", Shape{Topic: "t", Seeds: []string{"  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMatcher(nil)
			err := m.Load(map[string]Shape{"BAD": tt.shape})
			if !errors.Is(err, ErrInvalidShapeDefinition) {
				t.Errorf("got %v, want ErrInvalidShapeDefinition", err)
			}
		})
	}
}

func TestLoad_FailureKeepsPreviousTable(t *testing.T) {
	m := newDefaultMatcher(t)
	if err := m.Load(map[string]Shape{"BAD": {}}); err == nil {
		t.Fatal("expected load error")
	}
	if got := len(m.Shapes()); got != 5 {
		t.Errorf("table clobbered by failed load: %d shapes", got)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing-file-falls-back", func(t *testing.T) {
		m := NewMatcher(nil)
		if err := m.LoadFile(filepath.Join(dir, "absent.json")); err != nil {
			t.Fatalf("missing file should not error: %v", err)
		}
		if got := len(m.Shapes()); got != 5 {
			t.Errorf("default table: got %d shapes", got)
		}
	})

	t.Run("malformed-json-errors", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		m := NewMatcher(nil)
		if err := m.LoadFile(path); !errors.Is(err, ErrInvalidShapeDefinition) {
			t.Errorf("got %v, want ErrInvalidShapeDefinition", err)
		}
	})

	t.Run("valid-pack", func(t *testing.T) {
		path := filepath.Join(dir, "pack.json")
		pack := `{"shapes": {"ARC": {"topic": "span", "seeds": ["arc", "bridge"], "rules": {"arc": "tag:span"}}}}`
		if err := os.WriteFile(path, []byte(pack), 0o644); err != nil {
			t.Fatal(err)
		}
		m := NewMatcher(nil)
		if err := m.LoadFile(path); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(m.Shapes(), []string{"ARC"}) {
			t.Errorf("shapes: got %v", m.Shapes())
		}
	})
}

func TestMerge_Additive(t *testing.T) {
	m := newDefaultMatcher(t)

	text := "start the process"
	before := m.ProcessText(text)

	summary, err := m.Merge(map[string]Shape{
		"APEX": {Topic: "initiation", Seeds: []string{"kickoff"}, Rules: map[string]string{"kickoff": "tag:kickoff"}},
		"NOVA": {Topic: "expansion", Seeds: []string{"nova", "expand"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if summary.AddedSeeds != 3 {
		t.Errorf("added seeds: got %d, want 3", summary.AddedSeeds)
	}
	if summary.AddedRules != 1 {
		t.Errorf("added rules: got %d, want 1", summary.AddedRules)
	}
	if summary.AddedAliases != 1 { // NOVA is new; APEX alias already existed
		t.Errorf("added aliases: got %d, want 1", summary.AddedAliases)
	}

	// Previously matching text keeps its confidence.
	after := m.ProcessText(text)
	if len(after.Matches) < len(before.Matches) {
		t.Fatalf("merge removed matches: before %d, after %d", len(before.Matches), len(after.Matches))
	}
	for i, prev := range before.Matches {
		if after.Matches[i].Confidence < prev.Confidence {
			t.Errorf("%s confidence dropped: %v → %v", prev.Shape, prev.Confidence, after.Matches[i].Confidence)
		}
	}

	// Merged seeds are matchable without a restart.
	nova := m.ProcessText("expand the perimeter")
	if len(nova.Matches) != 1 || nova.Matches[0].Shape != "NOVA" {
		t.Errorf("new shape not matchable: %+v", nova.Matches)
	}
	kick := m.ProcessText("kickoff at dawn")
	if len(kick.Matches) != 1 || kick.Matches[0].AppliedRules["kickoff"] != "tag:kickoff" {
		t.Errorf("merged seed/rule not live: %+v", kick.Matches)
	}
}

func TestMerge_InvalidPatchRejected(t *testing.T) {
	m := newDefaultMatcher(t)
	_, err := m.Merge(map[string]Shape{"BAD": {Topic: "", Seeds: []string{"x"}}})
	if !errors.Is(err, ErrInvalidShapeDefinition) {
		t.Errorf("got %v, want ErrInvalidShapeDefinition", err)
	}
}

func TestAddSeeds(t *testing.T) {
	m := newDefaultMatcher(t)

	added := m.AddSeeds([]string{" Flux ", "flux", "PULSE", "", "   "})
	if added != 2 {
		t.Errorf("added: got %d, want 2", added)
	}
	// Second call is a no-op for known seeds.
	if again := m.AddSeeds([]string{"flux", "pulse"}); again != 0 {
		t.Errorf("re-add: got %d, want 0", again)
	}

	export := m.Export()
	found := 0
	for _, s := range export.Seeds {
		if s == "flux" || s == "pulse" {
			found++
		}
	}
	if found != 2 {
		t.Errorf("seed pool missing additions: %v", export.Seeds)
	}
}

func TestExport(t *testing.T) {
	m := newDefaultMatcher(t)
	export := m.Export()

	if export.Rules["process"] != "tag:process.core" {
		t.Errorf("flattened rules: got %v", export.Rules)
	}
	if export.Aliases["apex"] != "initiation" || export.Aliases["cube"] != "stability" {
		t.Errorf("aliases: got %v", export.Aliases)
	}
	if !sortedStrings(export.Seeds) {
		t.Errorf("seeds not sorted: %v", export.Seeds)
	}
}

func TestMatcher_ConcurrentReadsAndMerges(t *testing.T) {
	m := newDefaultMatcher(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				meta := m.ProcessText("start the process and launch")
				if len(meta.Matches) == 0 {
					t.Error("concurrent read saw an empty table")
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			if _, err := m.Merge(map[string]Shape{
				"FLUX": {Topic: "drift", Seeds: []string{"flux"}},
			}); err != nil {
				t.Errorf("merge: %v", err)
				return
			}
			m.AddSeeds([]string{"surge"})
		}
	}()
	wg.Wait()
}

func sortedStrings(ss []string) bool {
	for i := 1; i < len(ss); i++ {
		if ss[i-1] > ss[i] {
			return false
		}
	}
	return true
}
