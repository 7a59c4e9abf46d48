package content

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
)

const (
	ArchetypesFile = "archetypes.json"
	KoansFile      = "koans.json"
	FrameworksDir  = "frameworks"
)

// Store indexes the archetype, koan and framework documents loaded from a
// content directory. Lookups read an immutable snapshot, so a concurrent
// Reload never exposes a partially loaded state.
type Store struct {
	dir  string
	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	archetypes     map[string]Archetype
	archetypeOrder []string
	koans          map[string]Koan
	koanOrder      []string
	frameworks     map[string]Framework
}

// Load reads every content document under dir and returns a Store indexing
// them. A missing or malformed document is a *LoadError.
func Load(dir string) (*Store, error) {
	snap, err := loadSnapshot(dir)
	if err != nil {
		return nil, err
	}

	store := &Store{dir: dir}
	store.snap.Store(snap)
	return store, nil
}

// Reload re-reads the content directory and atomically replaces the index.
// On failure the previous snapshot stays in place.
func (s *Store) Reload() error {
	snap, err := loadSnapshot(s.dir)
	if err != nil {
		return err
	}

	s.snap.Store(snap)
	return nil
}

// Dir returns the content directory the store was loaded from.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Archetype(id string) (Archetype, error) {
	snap := s.snap.Load()
	archetype, ok := snap.archetypes[id]
	if !ok {
		return Archetype{}, &NotFoundError{Kind: "archetype", ID: id}
	}
	return archetype, nil
}

func (s *Store) Koan(id string) (Koan, error) {
	snap := s.snap.Load()
	koan, ok := snap.koans[id]
	if !ok {
		return Koan{}, &NotFoundError{Kind: "koan", ID: id}
	}
	return koan, nil
}

func (s *Store) Framework(mode string) (Framework, error) {
	snap := s.snap.Load()
	framework, ok := snap.frameworks[mode]
	if !ok {
		return Framework{}, &NotFoundError{Kind: "framework", ID: mode}
	}
	return framework, nil
}

// Archetypes returns every archetype in document order.
func (s *Store) Archetypes() []Archetype {
	snap := s.snap.Load()
	result := make([]Archetype, 0, len(snap.archetypeOrder))
	for _, id := range snap.archetypeOrder {
		result = append(result, snap.archetypes[id])
	}
	return result
}

// ArchetypesByElement returns the archetypes of one element in document order.
func (s *Store) ArchetypesByElement(element Element) []Archetype {
	snap := s.snap.Load()
	var result []Archetype
	for _, id := range snap.archetypeOrder {
		if snap.archetypes[id].Element == element {
			result = append(result, snap.archetypes[id])
		}
	}
	return result
}

// Koans returns every koan in document order.
func (s *Store) Koans() []Koan {
	snap := s.snap.Load()
	result := make([]Koan, 0, len(snap.koanOrder))
	for _, id := range snap.koanOrder {
		result = append(result, snap.koans[id])
	}
	return result
}

// KoansByCategory returns the koans of one category in document order.
func (s *Store) KoansByCategory(category string) []Koan {
	snap := s.snap.Load()
	var result []Koan
	for _, id := range snap.koanOrder {
		if snap.koans[id].Category == category {
			result = append(result, snap.koans[id])
		}
	}
	return result
}

func (s *Store) KoanCount() int {
	return len(s.snap.Load().koans)
}

// Modes returns the mode names with a loaded framework, sorted.
func (s *Store) Modes() []string {
	snap := s.snap.Load()
	modes := make([]string, 0, len(snap.frameworks))
	for mode := range snap.frameworks {
		modes = append(modes, mode)
	}
	sort.Strings(modes)
	return modes
}

// LoadFrameworkFile merges one framework document, or every document in a
// directory, into the live index. Paths resolve relative to the store's
// frameworks directory, with an implied .json extension. Returns the number
// of frameworks loaded.
func (s *Store) LoadFrameworkFile(path string) (int, error) {
	resolved, err := s.resolveFrameworkPath(path)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return 0, &LoadError{Path: resolved, Err: err}
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(resolved)
		if err != nil {
			return 0, &LoadError{Path: resolved, Err: err}
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
				paths = append(paths, filepath.Join(resolved, entry.Name()))
			}
		}
	} else {
		paths = []string{resolved}
	}

	loaded := make([]Framework, 0, len(paths))
	for _, p := range paths {
		framework, err := loadFramework(p)
		if err != nil {
			return 0, err
		}
		loaded = append(loaded, framework)
	}

	old := s.snap.Load()
	next := &snapshot{
		archetypes:     old.archetypes,
		archetypeOrder: old.archetypeOrder,
		koans:          old.koans,
		koanOrder:      old.koanOrder,
		frameworks:     make(map[string]Framework, len(old.frameworks)+len(loaded)),
	}
	for mode, framework := range old.frameworks {
		next.frameworks[mode] = framework
	}
	for _, framework := range loaded {
		next.frameworks[framework.Mode] = framework
	}

	s.snap.Store(next)
	return len(loaded), nil
}

func (s *Store) resolveFrameworkPath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if !filepath.IsAbs(path) {
		candidate := filepath.Join(s.dir, FrameworksDir, path)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		if _, err := os.Stat(candidate + ".json"); err == nil {
			return candidate + ".json", nil
		}
	}

	return "", &LoadError{Path: path, Err: os.ErrNotExist}
}

func loadSnapshot(dir string) (*snapshot, error) {
	snap := &snapshot{
		archetypes: make(map[string]Archetype),
		koans:      make(map[string]Koan),
		frameworks: make(map[string]Framework),
	}

	archetypesPath := filepath.Join(dir, ArchetypesFile)
	archetypeData, err := os.ReadFile(archetypesPath)
	if err != nil {
		return nil, &LoadError{Path: archetypesPath, Err: err}
	}
	if err := validateDocument("ArchetypeDocument", archetypeData); err != nil {
		return nil, &LoadError{Path: archetypesPath, Err: err}
	}

	var archetypeDoc archetypeDocument
	if err := json.Unmarshal(archetypeData, &archetypeDoc); err != nil {
		return nil, &LoadError{Path: archetypesPath, Err: err}
	}

	for _, archetype := range archetypeDoc.Archetypes {
		if _, exists := snap.archetypes[archetype.ID]; exists {
			return nil, &LoadError{Path: archetypesPath, Err: fmt.Errorf("duplicate archetype id %q", archetype.ID)}
		}
		snap.archetypes[archetype.ID] = archetype
		snap.archetypeOrder = append(snap.archetypeOrder, archetype.ID)
	}

	koansPath := filepath.Join(dir, KoansFile)
	koanData, err := os.ReadFile(koansPath)
	if err != nil {
		return nil, &LoadError{Path: koansPath, Err: err}
	}
	if err := validateDocument("KoanDocument", koanData); err != nil {
		return nil, &LoadError{Path: koansPath, Err: err}
	}

	var koanDoc koanDocument
	if err := json.Unmarshal(koanData, &koanDoc); err != nil {
		return nil, &LoadError{Path: koansPath, Err: err}
	}

	for _, koan := range koanDoc.Koans {
		if _, exists := snap.koans[koan.ID]; exists {
			return nil, &LoadError{Path: koansPath, Err: fmt.Errorf("duplicate koan id %q", koan.ID)}
		}
		snap.koans[koan.ID] = koan
		snap.koanOrder = append(snap.koanOrder, koan.ID)
	}

	frameworksPath := filepath.Join(dir, FrameworksDir)
	entries, err := os.ReadDir(frameworksPath)
	if err != nil {
		return nil, &LoadError{Path: frameworksPath, Err: err}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(frameworksPath, entry.Name())
		framework, err := loadFramework(path)
		if err != nil {
			return nil, err
		}

		if _, exists := snap.frameworks[framework.Mode]; exists {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("duplicate framework for mode %q", framework.Mode)}
		}
		snap.frameworks[framework.Mode] = framework
	}

	if len(snap.frameworks) == 0 {
		return nil, &LoadError{Path: frameworksPath, Err: fmt.Errorf("no framework documents found")}
	}

	return snap, nil
}

func loadFramework(path string) (Framework, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Framework{}, &LoadError{Path: path, Err: err}
	}
	if err := validateDocument("Framework", data); err != nil {
		return Framework{}, &LoadError{Path: path, Err: err}
	}

	var framework Framework
	if err := json.Unmarshal(data, &framework); err != nil {
		return Framework{}, &LoadError{Path: path, Err: err}
	}

	seen := make(map[string]bool, len(framework.Elements))
	for _, element := range framework.Elements {
		if seen[element.ID] {
			return Framework{}, &LoadError{Path: path, Err: fmt.Errorf("duplicate element id %q", element.ID)}
		}
		seen[element.ID] = true
	}

	return framework, nil
}
