package state

import "time"

// #region note
// Note is a stored unit of processed content with its zone classification.
// Zone and lens travel as wire strings so this package stays a leaf.
type Note struct {
	ID           string
	Text         string
	Tag          string
	Zone         string
	Entropy      float64
	Lens         string
	MetadataJSON string
	CreatedAt    time.Time
}
// #endregion note

// #region snapshot
// Snapshot is the persisted symbolic state: flattened seed→tag rules, the
// sorted seed pool, the topic co-occurrence matrix and the seed→topic
// alias map.
type Snapshot struct {
	Rules   map[string]string         `json:"rules"`
	Seeds   []string                  `json:"seeds"`
	Matrix  map[string]map[string]int `json:"matrix"`
	Aliases map[string]string         `json:"aliases"`
}
// #endregion snapshot

// #region process-entry
// ProcessEntry is one provenance row for a processed message.
type ProcessEntry struct {
	NoteID        string
	Zone          string
	Entropy       float64
	DominantTopic string
	MetadataJSON  string
	CreatedAt     time.Time
}
// #endregion process-entry
