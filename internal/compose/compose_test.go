package compose

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/erg0nix/synapse/internal/content"
	"github.com/erg0nix/synapse/internal/session"
)

func newTestStore(t *testing.T) *content.Store {
	t.Helper()

	dir := t.TempDir()
	write := func(path, data string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write(filepath.Join(dir, "archetypes.json"), `{
  "archetypes": [
    {"id": "ancestral-root", "name": "Ancestral Root", "element": "earth", "description": "deep roots", "mission": "anchor the dialogue"},
    {"id": "liquid-neuron", "name": "Liquid Neuron", "element": "water", "description": "flow"},
    {"id": "quantum-observer", "name": "Quantum Observer", "element": "ether", "description": "watch"}
  ]
}`)
	write(filepath.Join(dir, "koans.json"), `{
  "koans": [
    {"id": "k1", "text": "What is the sound of one hand coding?", "category": "practice"},
    {"id": "k2", "text": "When is now?", "category": "attention"}
  ]
}`)
	write(filepath.Join(dir, "frameworks", "standard.json"), `{
  "id": "standard-synapse", "mode": "standard", "directive": "respond with depth", "random_draw": true
}`)
	write(filepath.Join(dir, "frameworks", "debate.json"), `{
  "id": "debate-champion", "mode": "debate", "directive": "challenge every claim", "random_draw": true,
  "elements": [
    {"id": "steel-man", "name": "Steel Man", "text": "strengthen before you strike"},
    {"id": "edge-case", "name": "Edge Case", "text": "find the boundary"}
  ]
}`)
	write(filepath.Join(dir, "frameworks", "metaanalysis.json"), `{
  "id": "meta", "mode": "metaanalysis", "directive": "observe the dialogue itself", "random_draw": false
}`)

	store, err := content.Load(dir)
	if err != nil {
		t.Fatalf("load test content: %v", err)
	}
	return store
}

func mustFramework(t *testing.T, store *content.Store, mode string) content.Framework {
	t.Helper()
	framework, err := store.Framework(mode)
	if err != nil {
		t.Fatalf("framework %s: %v", mode, err)
	}
	return framework
}

func TestSelector_FixedSeedReproducible(t *testing.T) {
	store := newTestStore(t)
	framework := mustFramework(t, store, "debate")

	a := NewSelector(42)
	b := NewSelector(42)

	for turn := 0; turn < 20; turn++ {
		archetypeA, koanA, elementA, err := a.Choose(store, framework, turn)
		if err != nil {
			t.Fatal(err)
		}
		archetypeB, koanB, elementB, err := b.Choose(store, framework, turn)
		if err != nil {
			t.Fatal(err)
		}

		if archetypeA.ID != archetypeB.ID || koanA.ID != koanB.ID {
			t.Fatalf("turn %d diverged: %s/%s vs %s/%s", turn, archetypeA.ID, koanA.ID, archetypeB.ID, koanB.ID)
		}
		if elementA.ID != elementB.ID {
			t.Fatalf("turn %d element diverged: %s vs %s", turn, elementA.ID, elementB.ID)
		}
	}
}

func TestSelector_NonRandomCycles(t *testing.T) {
	store := newTestStore(t)
	framework := mustFramework(t, store, "metaanalysis")
	selector := NewSelector(1)

	archetypes := store.Archetypes()
	koans := store.Koans()

	for turn := 0; turn < 7; turn++ {
		archetype, koan, element, err := selector.Choose(store, framework, turn)
		if err != nil {
			t.Fatal(err)
		}
		if archetype.ID != archetypes[turn%len(archetypes)].ID {
			t.Fatalf("turn %d: expected archetype %s, got %s", turn, archetypes[turn%len(archetypes)].ID, archetype.ID)
		}
		if koan.ID != koans[turn%len(koans)].ID {
			t.Fatalf("turn %d: expected koan %s, got %s", turn, koans[turn%len(koans)].ID, koan.ID)
		}
		if element != nil {
			t.Fatal("framework without elements should select none")
		}
	}
}

func TestCompose_Deterministic(t *testing.T) {
	store := newTestStore(t)
	composer := Composer{HistoryWindow: 8}

	turn := Turn{
		Mode:      "standard",
		Framework: mustFramework(t, store, "standard"),
		Archetype: store.Archetypes()[0],
		Koan:      store.Koans()[0],
		Input:     "what grows here?",
	}

	first := composer.Compose(turn)
	second := composer.Compose(turn)
	if first != second {
		t.Fatal("composition must be a pure function of the turn")
	}
}

func TestCompose_SystemOrdering(t *testing.T) {
	store := newTestStore(t)
	composer := Composer{HistoryWindow: 8}
	framework := mustFramework(t, store, "debate")
	element := &framework.Elements[0]

	prompt := composer.Compose(Turn{
		Mode:      "debate",
		Framework: framework,
		Archetype: store.Archetypes()[0],
		Koan:      store.Koans()[0],
		Element:   element,
		Input:     "memory is identity",
	})

	archetypeAt := strings.Index(prompt.System, "CURRENT ARCHETYPE: Ancestral Root")
	modeAt := strings.Index(prompt.System, "CURRENT MODE: DEBATE")
	patternAt := strings.Index(prompt.System, "ACTIVE PATTERN: Steel Man")

	if archetypeAt < 0 || modeAt < 0 || patternAt < 0 {
		t.Fatalf("system prompt missing sections:\n%s", prompt.System)
	}
	if !(archetypeAt < modeAt && modeAt < patternAt) {
		t.Fatal("system sections out of order: archetype, then mode, then pattern")
	}
	if !strings.Contains(prompt.System, "MISSION: anchor the dialogue") {
		t.Fatal("archetype mission missing from system prompt")
	}
	if !strings.Contains(prompt.System, "challenge every claim") {
		t.Fatal("mode directive missing from system prompt")
	}
}

func TestCompose_UserContainsKoanAndInput(t *testing.T) {
	store := newTestStore(t)
	composer := Composer{HistoryWindow: 8}

	prompt := composer.Compose(Turn{
		Mode:      "standard",
		Framework: mustFramework(t, store, "standard"),
		Archetype: store.Archetypes()[0],
		Koan:      store.Koans()[1],
		Input:     "I keep refactoring the same function",
	})

	koanAt := strings.Index(prompt.User, "When is now?")
	inputAt := strings.Index(prompt.User, "I keep refactoring the same function")
	if koanAt < 0 || inputAt < 0 {
		t.Fatalf("user prompt missing koan or input:\n%s", prompt.User)
	}
	if koanAt > inputAt {
		t.Fatal("koan must precede the human input")
	}
}

func TestCompose_HistoryWindow(t *testing.T) {
	store := newTestStore(t)
	composer := Composer{HistoryWindow: 2}

	history := []session.Exchange{
		{Input: "oldest question", Output: "oldest answer"},
		{Input: "middle question", Output: "middle answer"},
		{Input: "latest question", Output: "latest answer"},
	}

	prompt := composer.Compose(Turn{
		Mode:      "standard",
		Framework: mustFramework(t, store, "standard"),
		Archetype: store.Archetypes()[0],
		Koan:      store.Koans()[0],
		History:   history,
		Input:     "next",
	})

	if strings.Contains(prompt.User, "oldest question") {
		t.Fatal("history older than the window must be dropped")
	}
	if !strings.Contains(prompt.User, "middle question") || !strings.Contains(prompt.User, "latest question") {
		t.Fatal("history inside the window must be kept")
	}
	if !strings.Contains(prompt.User, "RECENT EXCHANGES (last 2)") {
		t.Fatalf("unexpected history header:\n%s", prompt.User)
	}

	middleAt := strings.Index(prompt.User, "middle question")
	latestAt := strings.Index(prompt.User, "latest question")
	if middleAt > latestAt {
		t.Fatal("history must stay in chronological order")
	}
}

func TestCompose_NoHistorySection(t *testing.T) {
	store := newTestStore(t)
	composer := Composer{HistoryWindow: 8}

	prompt := composer.Compose(Turn{
		Mode:      "standard",
		Framework: mustFramework(t, store, "standard"),
		Archetype: store.Archetypes()[0],
		Koan:      store.Koans()[0],
		Input:     "first turn",
	})

	if strings.Contains(prompt.User, "RECENT EXCHANGES") {
		t.Fatal("empty history must not emit a history section")
	}
}
