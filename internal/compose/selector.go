package compose

import (
	"errors"
	"math/rand/v2"

	"github.com/erg0nix/synapse/internal/content"
)

// Selector draws the archetype, koan and framework element for a turn.
// Frameworks with random_draw use a seedable PCG stream so a fixed seed
// reproduces the same sequence of picks; other frameworks cycle through the
// content deterministically in document order, keyed by the turn index.
type Selector struct {
	rng *rand.Rand
}

func NewSelector(seed uint64) *Selector {
	return &Selector{rng: rand.New(rand.NewPCG(seed, seed))}
}

// Choose picks the turn's ritual elements from the store according to the
// framework's draw policy. turnIndex is the number of prior exchanges in the
// session.
func (s *Selector) Choose(store *content.Store, framework content.Framework, turnIndex int) (content.Archetype, content.Koan, *content.FrameworkElement, error) {
	archetypes := store.Archetypes()
	if len(archetypes) == 0 {
		return content.Archetype{}, content.Koan{}, nil, errors.New("no archetypes loaded")
	}

	koans := store.Koans()
	if len(koans) == 0 {
		return content.Archetype{}, content.Koan{}, nil, errors.New("no koans loaded")
	}

	var archetype content.Archetype
	var koan content.Koan
	if framework.RandomDraw {
		archetype = archetypes[s.rng.IntN(len(archetypes))]
		koan = koans[s.rng.IntN(len(koans))]
	} else {
		archetype = archetypes[turnIndex%len(archetypes)]
		koan = koans[turnIndex%len(koans)]
	}

	return archetype, koan, s.element(framework, turnIndex), nil
}

func (s *Selector) element(framework content.Framework, turnIndex int) *content.FrameworkElement {
	if len(framework.Elements) == 0 {
		return nil
	}

	var element content.FrameworkElement
	if framework.RandomDraw {
		element = framework.Elements[s.rng.IntN(len(framework.Elements))]
	} else {
		element = framework.Elements[turnIndex%len(framework.Elements)]
	}
	return &element
}
