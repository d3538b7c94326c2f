package orchestrator

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sentinelforge/go-middleware/internal/adapter"
	"github.com/sentinelforge/go-middleware/internal/bus"
	"github.com/sentinelforge/go-middleware/internal/entropy"
	"github.com/sentinelforge/go-middleware/internal/glyph"
	"github.com/sentinelforge/go-middleware/internal/lens"
	"github.com/sentinelforge/go-middleware/internal/state"
)

// #endregion

// #region orchestrator-struct

// Orchestrator is the top-level coordinator: it runs every message through
// zone classification, symbolic matching, glyph parsing and a lens transform,
// calls the model adapter, and fans the resulting events out on the bus.
type Orchestrator struct {
	matcher *glyph.Matcher
	parser  *glyph.Parser
	lenses  *lens.Set
	model   adapter.Adapter
	tracker *entropy.Tracker
	store   *state.Store
	events  *bus.Bus
	log     *zap.SugaredLogger

	mu        sync.Mutex
	matrix    map[string]map[string]int // topic co-occurrence counts
	processed int64
}

// #endregion

// #region constructor

// New wires an orchestrator. store may be nil (no persistence, used in
// tests); log may be nil.
func New(
	matcher *glyph.Matcher,
	parser *glyph.Parser,
	lenses *lens.Set,
	model adapter.Adapter,
	store *state.Store,
	events *bus.Bus,
	log *zap.SugaredLogger,
) *Orchestrator {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		matcher: matcher,
		parser:  parser,
		lenses:  lenses,
		model:   model,
		tracker: entropy.NewTracker(),
		store:   store,
		events:  events,
		log:     log,
		matrix:  make(map[string]map[string]int),
	}
}

// #endregion

// #region restore

// Restore loads the persisted snapshot, if any, and folds it back into the
// matcher and the co-occurrence matrix. Called once at startup.
func (o *Orchestrator) Restore() error {
	if o.store == nil {
		return nil
	}
	snap, ok, err := o.store.LoadSnapshot()
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if !ok {
		o.log.Infow("no snapshot to restore")
		return nil
	}

	seeds := o.matcher.AddSeeds(snap.Seeds)
	aliases := o.matcher.AddAliases(snap.Aliases)

	o.mu.Lock()
	for a, row := range snap.Matrix {
		if o.matrix[a] == nil {
			o.matrix[a] = make(map[string]int, len(row))
		}
		for b, n := range row {
			o.matrix[a][b] += n
		}
	}
	o.mu.Unlock()

	o.log.Infow("snapshot restored", "seeds", seeds, "aliases", aliases, "topics", len(snap.Matrix))
	return nil
}

// #endregion

// #region process

// Process runs one message through the full pipeline and returns the reply
// with cognitive metadata attached.
func (o *Orchestrator) Process(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if req.Lens == "" {
		req.Lens = lens.LensBaseline
	}

	inputZone, inputEntropy := o.tracker.Route(req.Message)

	meta := o.matcher.ProcessText(req.Message)
	seq := o.parser.ParseSequence(req.Message)

	focused := o.lenses.Apply(req.Lens, req.Message)

	messages := append(append([]adapter.Message(nil), req.History...),
		adapter.Message{Role: "user", Content: focused})
	completion, err := o.model.Chat(ctx, messages)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("adapter: %w", err)
	}
	reply := completion.Text()

	outputZone, outputEntropy := o.tracker.Route(reply)
	if inputZone != outputZone {
		o.tracker.RecordTransition(inputZone, outputZone)
	}

	o.recordCooccurrence(meta.Matches)

	cog := CognitiveMetadata{
		InputEntropy:    inputEntropy,
		InputZone:       inputZone,
		OutputEntropy:   outputEntropy,
		OutputZone:      outputZone,
		LensApplied:     req.Lens,
		SymbolicMatches: meta.Matches,
		DominantTopic:   meta.DominantTopic,
		SymbolicTags:    meta.SymbolicTags,
		ParsedGlyphs:    seq.ParsedCount,
		GlyphConcepts:   seq.Concepts,
	}

	o.publish(cog, seq)
	cog.NoteID = o.persist(req, cog)

	o.mu.Lock()
	o.processed++
	o.mu.Unlock()

	o.log.Infow("message processed",
		"zone_in", inputZone, "zone_out", outputZone,
		"matches", len(meta.Matches), "topic", meta.DominantTopic,
	)

	return ChatResponse{Reply: reply, Completion: completion, Cognitive: cog}, nil
}

// #endregion

// #region publish

func (o *Orchestrator) publish(cog CognitiveMetadata, seq glyph.SequenceResult) {
	if o.events == nil {
		return
	}
	o.events.Publish(bus.Event{
		Type:  EventZoneClassified,
		Topic: TopicCognitive,
		Data: map[string]interface{}{
			"input_zone":     cog.InputZone,
			"input_entropy":  cog.InputEntropy,
			"output_zone":    cog.OutputZone,
			"output_entropy": cog.OutputEntropy,
		},
	})
	if len(cog.SymbolicMatches) > 0 {
		o.events.Publish(bus.Event{
			Type:  EventSymbolicMatch,
			Topic: TopicSymbolic,
			Data: map[string]interface{}{
				"matches":        cog.SymbolicMatches,
				"dominant_topic": cog.DominantTopic,
				"symbolic_tags":  cog.SymbolicTags,
			},
		})
	}
	if seq.ParsedCount > 0 {
		o.events.Publish(bus.Event{
			Type:  EventGlyphParsed,
			Topic: TopicGlyph,
			Data:  seq,
		})
	}
}

// #endregion

// #region persist

// persist writes the note and provenance row. Returns the note ID, or ""
// when there is no store or the write failed (logged, not fatal: persistence
// must never break the chat path).
func (o *Orchestrator) persist(req ChatRequest, cog CognitiveMetadata) string {
	if o.store == nil {
		return ""
	}

	tag := req.Tag
	if tag == "" {
		tag = "chat"
	}
	metaJSON, err := json.Marshal(cog)
	if err != nil {
		o.log.Warnw("metadata marshal failed", "err", err)
		metaJSON = nil
	}

	note, err := o.store.LogProcess(
		state.Note{
			Text:         req.Message,
			Tag:          tag,
			Zone:         string(cog.InputZone),
			Entropy:      cog.InputEntropy,
			Lens:         string(cog.LensApplied),
			MetadataJSON: string(metaJSON),
			CreatedAt:    time.Now().UTC(),
		},
		state.ProcessEntry{
			Zone:          string(cog.OutputZone),
			Entropy:       cog.OutputEntropy,
			DominantTopic: cog.DominantTopic,
			MetadataJSON:  string(metaJSON),
		},
	)
	if err != nil {
		o.log.Warnw("note persist failed", "err", err)
		return ""
	}
	return note.ID
}

// #endregion

// #region matrix

// recordCooccurrence increments the symmetric topic pair counts for all
// topics matched in one text.
func (o *Orchestrator) recordCooccurrence(matches []glyph.Match) {
	if len(matches) < 2 {
		return
	}
	topics := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		if _, dup := seen[m.Topic]; dup {
			continue
		}
		seen[m.Topic] = struct{}{}
		topics = append(topics, m.Topic)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	for i, a := range topics {
		for j, b := range topics {
			if i == j {
				continue
			}
			if o.matrix[a] == nil {
				o.matrix[a] = make(map[string]int)
			}
			o.matrix[a][b]++
		}
	}
}

// Matrix returns a copy of the topic co-occurrence matrix.
func (o *Orchestrator) Matrix() map[string]map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make(map[string]map[string]int, len(o.matrix))
	for a, row := range o.matrix {
		out[a] = make(map[string]int, len(row))
		for b, n := range row {
			out[a][b] = n
		}
	}
	return out
}

// #endregion

// #region admin

// MergePack folds a shape patch into the matcher, snapshots the result and
// announces the change.
func (o *Orchestrator) MergePack(patch map[string]glyph.Shape) (glyph.MergeSummary, error) {
	summary, err := o.matcher.Merge(patch)
	if err != nil {
		return glyph.MergeSummary{}, err
	}
	o.snapshot()
	if o.events != nil {
		o.events.Publish(bus.Event{Type: EventPackMerged, Topic: TopicGlyph, Data: summary})
	}
	return summary, nil
}

// AddSeeds appends seeds to the matcher pool, snapshots and announces.
func (o *Orchestrator) AddSeeds(words []string) int {
	added := o.matcher.AddSeeds(words)
	if added > 0 {
		o.snapshot()
		if o.events != nil {
			o.events.Publish(bus.Event{Type: EventSeedsAdded, Topic: TopicGlyph,
				Data: map[string]int{"added": added}})
		}
	}
	return added
}

// snapshot persists the current symbolic state. Failures are logged, never
// propagated: admin ops already succeeded in memory.
func (o *Orchestrator) snapshot() {
	if o.store == nil {
		return
	}
	export := o.matcher.Export()
	err := o.store.SaveSnapshot(state.Snapshot{
		Rules:   export.Rules,
		Seeds:   export.Seeds,
		Matrix:  o.Matrix(),
		Aliases: export.Aliases,
	})
	if err != nil {
		o.log.Warnw("snapshot save failed", "err", err)
	}
}

// #endregion

// #region metrics

// Metrics returns the aggregate pipeline view.
func (o *Orchestrator) Metrics() Metrics {
	o.mu.Lock()
	processed := o.processed
	o.mu.Unlock()

	export := o.matcher.Export()
	return Metrics{
		Zones:        o.tracker.Metrics(),
		Distribution: o.tracker.Distribution(),
		Shapes:       o.matcher.Shapes(),
		SeedCount:    len(export.Seeds),
		Processed:    processed,
	}
}

// Interpret resolves a symbolic route sequence against the alias table.
func (o *Orchestrator) Interpret(sequence string) glyph.RouteHint {
	return o.parser.Interpret(sequence, o.matcher.AliasTopic)
}

// Seeds returns the sorted seed pool.
func (o *Orchestrator) Seeds() []string {
	return o.matcher.Export().Seeds
}

// Aliases returns the alias map sorted into a stable slice of "token=topic"
// pairs for display, plus the raw map.
func (o *Orchestrator) Aliases() map[string]string {
	return o.matcher.Export().Aliases
}

// Matcher exposes the shape table for read endpoints.
func (o *Orchestrator) Matcher() *glyph.Matcher {
	return o.matcher
}

// Notes returns recent notes from the store, newest first.
func (o *Orchestrator) Notes(zone string, limit int) ([]state.Note, error) {
	if o.store == nil {
		return nil, nil
	}
	return o.store.ListNotes(zone, limit)
}

// #endregion
