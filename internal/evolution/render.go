package evolution

import (
	"fmt"
	"strings"

	"github.com/erg0nix/synapse/internal/content"
	"github.com/erg0nix/synapse/internal/session"
)

const diagramNodeLimit = 10

// Tier maps an interaction count to a visual weight tier. Thresholds are
// the ascending upper bounds of the lower tiers: with [2, 5], counts 1-2
// map to tier 1, 3-5 to tier 2, 6+ to tier 3. Zero or negative counts map
// to tier 0. The mapping is monotonic in the count.
func Tier(count int, thresholds []int) int {
	if count <= 0 {
		return 0
	}

	tier := 1
	for _, threshold := range thresholds {
		if count > threshold {
			tier++
		}
	}
	return tier
}

// RenderDiagram renders the report's archetype usage as a Mermaid graph.
// Node weight classes come from Tier, so more-practiced archetypes carry a
// heavier visual style.
func RenderDiagram(store *content.Store, report Report, thresholds []int) string {
	if len(report.Archetypes) == 0 {
		return "graph TD\n    ROOT[No practice data yet] --> HINT[Start a session]\n"
	}

	var b strings.Builder
	b.WriteString("graph TD\n")
	b.WriteString("    SYN[Synapse Practice]\n")

	ranked := rankedCounts(report.Archetypes)
	if len(ranked) > diagramNodeLimit {
		ranked = ranked[:diagramNodeLimit]
	}

	maxTier := Tier(report.Archetypes[ranked[0]], thresholds)
	for _, id := range ranked {
		count := report.Archetypes[id]
		tier := Tier(count, thresholds)
		fmt.Fprintf(&b, "    SYN --> %s[\"%s: %d\"]:::tier%d\n",
			nodeID(id), archetypeName(store, id), count, tier)
	}

	for tier := 1; tier <= maxTier; tier++ {
		fmt.Fprintf(&b, "    classDef tier%d stroke-width:%dpx,font-size:%dpx\n", tier, tier, 12+2*tier)
	}

	return b.String()
}

// MasteryDiagram renders a single session's archetype counts as a Mermaid
// graph using the same tier mapping as the corpus diagram.
func MasteryDiagram(store *content.Store, s session.Session, thresholds []int) string {
	report := Report{Archetypes: s.MasteryCounts()}
	return RenderDiagram(store, report, thresholds)
}

// RenderReport renders the evolution report as plain text: corpus totals,
// elemental balance, top archetypes, modes explored and suggested next
// steps.
func RenderReport(store *content.Store, report Report) string {
	var b strings.Builder

	line := strings.Repeat("=", 60)
	b.WriteString(line + "\n")
	b.WriteString("    SYNAPSE EVOLUTION REPORT\n")
	b.WriteString(line + "\n\n")

	fmt.Fprintf(&b, "Sessions Analyzed: %d\n", report.SessionsAnalyzed)
	fmt.Fprintf(&b, "Total Exchanges: %d\n", report.TotalExchanges)
	fmt.Fprintf(&b, "Unique Koans Encountered: %d / %d (%.0f%%)\n\n",
		len(report.Koans), store.KoanCount(), report.KoanCoverage*100)

	b.WriteString("--- ELEMENTAL BALANCE ---\n")
	for _, element := range content.Elements {
		count := report.Elements[string(element)]
		bar := strings.Repeat("#", min(count, 20))
		fmt.Fprintf(&b, "  %-6s [%-20s] %d\n", element, bar, count)
	}
	b.WriteString("\n")

	b.WriteString("--- TOP ARCHETYPES ---\n")
	ranked := rankedCounts(report.Archetypes)
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	for _, id := range ranked {
		fmt.Fprintf(&b, "  [%3dx] %s\n", report.Archetypes[id], archetypeName(store, id))
	}
	b.WriteString("\n")

	b.WriteString("--- MODES EXPLORED ---\n")
	for _, mode := range rankedCounts(report.Modes) {
		fmt.Fprintf(&b, "  %-15s: %d exchanges\n", mode, report.Modes[mode])
	}
	b.WriteString("\n")

	b.WriteString("--- SUGGESTED NEXT STEPS ---\n")
	for i, suggestion := range Suggestions(store, report) {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, suggestion)
	}

	if len(report.Warnings) > 0 {
		b.WriteString("\n--- WARNINGS ---\n")
		for _, warning := range report.Warnings {
			fmt.Fprintf(&b, "  %s\n", warning)
		}
	}

	return b.String()
}

// Suggestions derives next-step hints from the aggregate: the least
// explored element, untried modes, koan coverage milestones and archetypes
// never drawn. At most five are returned.
func Suggestions(store *content.Store, report Report) []string {
	var suggestions []string

	if report.TotalExchanges > 0 {
		minElement, maxElement := content.Elements[0], content.Elements[0]
		for _, element := range content.Elements {
			if report.Elements[string(element)] < report.Elements[string(minElement)] {
				minElement = element
			}
			if report.Elements[string(element)] > report.Elements[string(maxElement)] {
				maxElement = element
			}
		}
		maxCount := report.Elements[string(maxElement)]
		if maxCount > 0 && float64(report.Elements[string(minElement)]) < 0.3*float64(maxCount) {
			suggestions = append(suggestions,
				fmt.Sprintf("Explore %s archetypes - your least practiced element", minElement))
		}
	}

	for _, mode := range store.Modes() {
		if report.Modes[mode] == 0 {
			suggestions = append(suggestions, fmt.Sprintf("Try /mode %s - you haven't explored it yet", mode))
			break
		}
	}

	switch coverage := report.KoanCoverage; {
	case coverage < 0.3:
		suggestions = append(suggestions, "Continue exploring - you've encountered less than 30% of the koans")
	case coverage < 0.8:
		suggestions = append(suggestions,
			fmt.Sprintf("Good progress: %d of %d koans encountered - keep going for full coverage",
				len(report.Koans), store.KoanCount()))
	default:
		suggestions = append(suggestions, "Near-complete koan exposure - consider deepening with /mode metaanalysis")
	}

	for _, archetype := range store.Archetypes() {
		if report.Archetypes[archetype.ID] == 0 {
			suggestions = append(suggestions, fmt.Sprintf("Unexplored archetype: %s", archetype.Name))
			break
		}
	}

	switch total := report.TotalExchanges; {
	case total < 10:
		suggestions = append(suggestions, "You're just beginning - commit to 10 exchanges for initial calibration")
	case total < 50:
		suggestions = append(suggestions, "Building momentum - aim for 50 exchanges for a deeper synapse")
	default:
		suggestions = append(suggestions, "Strong practice - consider /mode full_synapse for synthesis")
	}

	if len(suggestions) > 5 {
		suggestions = suggestions[:5]
	}
	return suggestions
}

func nodeID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
