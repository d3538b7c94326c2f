package main

// #region imports
import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sentinelforge/go-middleware/internal/state"
	_ "modernc.org/sqlite"
)

// #endregion

// #region main

func main() {
	dbPath := flag.String("db", "", "path to sentinel_forge.db")
	last := flag.Int("last", 20, "show N most recent notes")
	zone := flag.String("zone", "", "filter notes to one zone (active|pattern|crystal)")
	note := flag.String("note", "", "show single note detail")
	showLog := flag.Bool("log", false, "show the process log instead of notes")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/sentinel_forge.db [--last N] [--zone z] [--note id] [--log] [--json]")
		os.Exit(2)
	}

	store, err := state.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	switch {
	case *note != "":
		err = runNoteDetail(store, *note, *jsonOut)
	case *showLog:
		err = runProcessLog(store, *last, *jsonOut)
	default:
		err = runOverview(store, *zone, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region overview

type overview struct {
	Snapshot *state.Snapshot `json:"snapshot,omitempty"`
	Zones    map[string]int  `json:"zones"`
	Notes    []state.Note    `json:"notes"`
}

func runOverview(store *state.Store, zone string, last int, jsonOut bool) error {
	notes, err := store.ListNotes(zone, last)
	if err != nil {
		return err
	}

	out := overview{Zones: map[string]int{}}
	for _, n := range notes {
		out.Zones[n.Zone]++
	}
	out.Notes = notes

	if snap, ok, err := store.LoadSnapshot(); err != nil {
		return err
	} else if ok {
		out.Snapshot = &snap
	}

	if jsonOut {
		return printJSON(out)
	}

	if out.Snapshot != nil {
		fmt.Printf("Snapshot: %d seeds, %d rules, %d aliases, %d matrix topics\n",
			len(out.Snapshot.Seeds), len(out.Snapshot.Rules),
			len(out.Snapshot.Aliases), len(out.Snapshot.Matrix))
		printMatrix(out.Snapshot.Matrix)
	} else {
		fmt.Println("Snapshot: none")
	}

	fmt.Printf("\nZone counts:\n")
	for _, z := range []string{"active", "pattern", "crystal"} {
		fmt.Printf("  %-8s %d\n", z, out.Zones[z])
	}

	fmt.Printf("\n%-10s  %-8s  %7s  %-10s  %-20s  %s\n",
		"Note", "Zone", "Entropy", "Lens", "Time", "Text")
	for _, n := range notes {
		fmt.Printf("%-10s  %-8s  %7.3f  %-10s  %-20s  %s\n",
			shortID(n.ID), n.Zone, n.Entropy, n.Lens,
			n.CreatedAt.Format("2006-01-02T15:04:05Z"), clip(n.Text, 48))
	}
	return nil
}

func printMatrix(matrix map[string]map[string]int) {
	if len(matrix) == 0 {
		return
	}
	topics := make([]string, 0, len(matrix))
	for t := range matrix {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	fmt.Println("\nCo-occurrence:")
	for _, a := range topics {
		row := matrix[a]
		others := make([]string, 0, len(row))
		for b := range row {
			others = append(others, b)
		}
		sort.Strings(others)
		for _, b := range others {
			fmt.Printf("  %-14s x %-14s %d\n", a, b, row[b])
		}
	}
}

// #endregion overview

// #region note-detail

func runNoteDetail(store *state.Store, id string, jsonOut bool) error {
	n, err := store.GetNote(id)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(n)
	}

	fmt.Printf("Note:     %s\n", n.ID)
	fmt.Printf("Created:  %s\n", n.CreatedAt.Format("2006-01-02T15:04:05Z"))
	fmt.Printf("Tag:      %s\n", n.Tag)
	fmt.Printf("Zone:     %s\n", n.Zone)
	fmt.Printf("Entropy:  %.4f\n", n.Entropy)
	fmt.Printf("Lens:     %s\n", n.Lens)
	fmt.Printf("Text:     %s\n", n.Text)
	if n.MetadataJSON != "" {
		fmt.Printf("\nMetadata:\n")
		var pretty map[string]interface{}
		if err := json.Unmarshal([]byte(n.MetadataJSON), &pretty); err == nil {
			printJSON(pretty)
		} else {
			fmt.Println(n.MetadataJSON)
		}
	}
	return nil
}

// #endregion note-detail

// #region process-log

func runProcessLog(store *state.Store, last int, jsonOut bool) error {
	entries, err := store.RecentProcessLog(last)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(entries)
	}

	fmt.Printf("%-10s  %-8s  %7s  %-14s  %s\n",
		"Note", "Zone", "Entropy", "Topic", "Time")
	for _, e := range entries {
		topic := e.DominantTopic
		if topic == "" {
			topic = "—"
		}
		fmt.Printf("%-10s  %-8s  %7.3f  %-14s  %s\n",
			shortID(e.NoteID), e.Zone, e.Entropy, topic,
			e.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion process-log

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// #endregion output
