package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/erg0nix/synapse/internal/content"
)

// RenderTranscript renders the session as a human-readable Markdown
// document: a metadata header, one section per exchange in chronological
// order, and a closing mastery summary. Content lookups fall back to the
// recorded IDs when the store no longer resolves them.
func RenderTranscript(s Session, store *content.Store) string {
	var b strings.Builder

	b.WriteString("# Synapse Session Transcript\n\n")
	fmt.Fprintf(&b, "**Session ID:** %s\n", s.ID)
	fmt.Fprintf(&b, "**Model:** %s\n", s.Model)
	fmt.Fprintf(&b, "**Started:** %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	if !s.EndedAt.IsZero() {
		fmt.Fprintf(&b, "**Ended:** %s\n", s.EndedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "**Total Exchanges:** %d\n\n---\n", len(s.Exchanges))

	for i, exchange := range s.Exchanges {
		fmt.Fprintf(&b, "\n## Exchange %d\n\n", i+1)
		fmt.Fprintf(&b, "**Time:** %s\n", exchange.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "**Mode:** %s\n", exchange.Mode)
		fmt.Fprintf(&b, "**Archetype:** %s\n", archetypeLabel(store, exchange.ArchetypeID))
		fmt.Fprintf(&b, "**Element:** %s\n", exchange.Element)

		b.WriteString("\n### Koan\n\n")
		koanText, koanCategory := koanLabel(store, exchange.KoanID)
		fmt.Fprintf(&b, "> *%q*\n>\n> Category: %s\n", koanText, koanCategory)

		b.WriteString("\n### Human\n\n")
		b.WriteString(exchange.Input)
		b.WriteString("\n\n### Model\n\n")
		b.WriteString(exchange.Output)
		b.WriteString("\n\n---\n")
	}

	if mastery := s.MasteryCounts(); len(mastery) > 0 {
		b.WriteString("\n## Mastery Summary\n\n")
		for _, line := range masteryLines(store, mastery) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func archetypeLabel(store *content.Store, id string) string {
	if store != nil {
		if archetype, err := store.Archetype(id); err == nil {
			return archetype.Name
		}
	}
	return id
}

func koanLabel(store *content.Store, id string) (text, category string) {
	if store != nil {
		if koan, err := store.Koan(id); err == nil {
			return koan.Text, koan.Category
		}
	}
	return id, "unknown"
}

// masteryLines orders archetypes by descending count, then by ID for
// deterministic output.
func masteryLines(store *content.Store, mastery map[string]int) []string {
	ids := make([]string, 0, len(mastery))
	for id := range mastery {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if mastery[ids[i]] != mastery[ids[j]] {
			return mastery[ids[i]] > mastery[ids[j]]
		}
		return ids[i] < ids[j]
	})

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("- **%s**: %d interaction(s)", archetypeLabel(store, id), mastery[id]))
	}
	return lines
}
