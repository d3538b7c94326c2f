package glyph

// #region imports
import (
	"fmt"
	"sort"
	"strings"
)

// #endregion

// #region add-seeds

// AddSeeds appends words to the seed pool with set semantics: lowercased,
// trimmed, deduplicated, never removed. Returns the number of new entries.
// Safe to call concurrently with matching.
func (m *Matcher) AddSeeds(words []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, w := range words {
		token := strings.ToLower(strings.TrimSpace(w))
		if token == "" {
			continue
		}
		if _, ok := m.seedPool[token]; !ok {
			m.seedPool[token] = struct{}{}
			added++
		}
	}
	if added > 0 {
		m.log.Debugw("seeds added", "count", added)
	}
	return added
}

// #endregion

// #region add-aliases

// AddAliases registers token→topic aliases, lowercased and trimmed. Existing
// entries are overwritten; the return value counts only new keys. Used by the
// admin surface and by snapshot restore.
func (m *Matcher) AddAliases(aliases map[string]string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for token, topic := range aliases {
		key := strings.ToLower(strings.TrimSpace(token))
		if key == "" || topic == "" {
			continue
		}
		if _, ok := m.aliases[key]; !ok {
			added++
		}
		m.aliases[key] = topic
	}
	return added
}

// #endregion

// #region merge

// Merge folds a shape patch into the table append-only: new shapes are
// appended to the table, unseen seeds are appended to existing shapes,
// rule entries and topic aliases are added, and nothing is ever deleted.
// Texts that matched before a merge keep at least their previous confidence,
// and merged seeds are matchable immediately.
func (m *Matcher) Merge(patch map[string]Shape) (MergeSummary, error) {
	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)

	// Validate the whole patch before touching the table.
	normalized := make(map[string]Shape, len(patch))
	for _, name := range names {
		shape, err := normalizeShape(name, patch[name])
		if err != nil {
			return MergeSummary{}, fmt.Errorf("merge: %w", err)
		}
		normalized[name] = shape
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var summary MergeSummary
	for _, name := range names {
		incoming := normalized[name]
		nameKey := strings.ToLower(name)
		_, hadNameAlias := m.aliases[nameKey]
		existing, ok := m.shapes[name]
		if !ok {
			m.order = append(m.order, name)
			existing = Shape{Topic: incoming.Topic}
		}
		if existing.Topic == "" {
			existing.Topic = incoming.Topic
		}

		have := make(map[string]struct{}, len(existing.Seeds))
		for _, s := range existing.Seeds {
			have[s] = struct{}{}
		}
		for _, seed := range incoming.Seeds {
			if _, dup := have[seed]; !dup {
				existing.Seeds = append(existing.Seeds, seed)
				have[seed] = struct{}{}
			}
			if _, pooled := m.seedPool[seed]; !pooled {
				m.seedPool[seed] = struct{}{}
				summary.AddedSeeds++
			}
			if incoming.Topic != "" {
				m.aliases[seed] = incoming.Topic
			}
		}

		for k, v := range incoming.Rules {
			if existing.Rules == nil {
				existing.Rules = make(map[string]string)
			}
			if _, dup := existing.Rules[k]; !dup {
				summary.AddedRules++
			}
			existing.Rules[k] = v
		}

		if incoming.Topic != "" {
			if !hadNameAlias {
				summary.AddedAliases++
			}
			m.aliases[nameKey] = incoming.Topic
		}

		m.shapes[name] = existing
	}

	m.log.Infow("shape patch merged",
		"seeds", summary.AddedSeeds,
		"aliases", summary.AddedAliases,
		"rules", summary.AddedRules,
	)
	return summary, nil
}

// #endregion
