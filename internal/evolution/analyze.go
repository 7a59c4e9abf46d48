// Package evolution computes aggregate usage reports across the persisted
// session corpus and renders them as text and Mermaid diagrams.
package evolution

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/erg0nix/synapse/internal/content"
	"github.com/erg0nix/synapse/internal/session"
)

// Report is the derived aggregate over every scanned session. It is
// recomputed per request, never persisted.
type Report struct {
	SessionsAnalyzed int
	TotalExchanges   int
	Archetypes       map[string]int
	Elements         map[string]int
	Koans            map[string]int
	Modes            map[string]int
	KoanCoverage     float64
	Dates            []string
	Warnings         []string
}

// Analyze scans the persisted sessions under dir, or only the named files
// when given. A file that cannot be read or parsed is recorded as a warning
// and skipped; corruption of part of the corpus never aborts the report.
func Analyze(store *content.Store, dir string, files ...string) (Report, error) {
	report := Report{
		Archetypes: make(map[string]int),
		Elements:   make(map[string]int),
		Koans:      make(map[string]int),
		Modes:      make(map[string]int),
	}

	paths, warnings, err := resolvePaths(dir, files)
	if err != nil {
		return report, err
	}
	report.Warnings = warnings

	dates := make(map[string]bool)

	for _, path := range paths {
		s, err := session.Load(path)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("skipped %s: %v", filepath.Base(path), err))
			continue
		}

		report.SessionsAnalyzed++
		if !s.StartedAt.IsZero() {
			dates[s.StartedAt.Format("2006-01-02")] = true
		}

		for _, exchange := range s.Exchanges {
			report.TotalExchanges++
			report.Archetypes[exchange.ArchetypeID]++
			report.Elements[exchange.Element]++
			report.Koans[exchange.KoanID]++
			report.Modes[exchange.Mode]++
		}
	}

	if total := store.KoanCount(); total > 0 {
		report.KoanCoverage = float64(len(report.Koans)) / float64(total)
	}

	for date := range dates {
		report.Dates = append(report.Dates, date)
	}
	sort.Strings(report.Dates)

	return report, nil
}

func resolvePaths(dir string, files []string) (paths []string, warnings []string, err error) {
	if len(files) == 0 {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil, nil
			}
			return nil, nil, fmt.Errorf("scan sessions: %w", err)
		}

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasPrefix(name, "session_") || !strings.HasSuffix(name, ".json") {
				continue
			}
			paths = append(paths, filepath.Join(dir, name))
		}
		return paths, nil, nil
	}

	for _, file := range files {
		path := file
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if filepath.Ext(path) == "" {
			path += ".json"
		}

		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("session not found: %s", file))
			continue
		}
		paths = append(paths, path)
	}
	return paths, warnings, nil
}

// rankedCounts orders a count map by descending count, ties broken by key,
// so rendering is deterministic.
func rankedCounts(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func archetypeName(store *content.Store, id string) string {
	if store != nil {
		if archetype, err := store.Archetype(id); err == nil {
			return archetype.Name
		}
	}
	return id
}
