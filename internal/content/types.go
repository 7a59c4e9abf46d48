package content

// Element is the fixed elemental classification an archetype belongs to.
type Element string

const (
	ElementEarth Element = "earth"
	ElementWater Element = "water"
	ElementAir   Element = "air"
	ElementFire  Element = "fire"
	ElementEther Element = "ether"
)

// Elements lists every valid element in canonical order.
var Elements = []Element{ElementEarth, ElementWater, ElementAir, ElementFire, ElementEther}

func ValidElement(e Element) bool {
	for _, known := range Elements {
		if e == known {
			return true
		}
	}
	return false
}

// Archetype is a named persona applied to the prompt for a turn.
type Archetype struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Element     Element `json:"element"`
	Description string  `json:"description"`
	Mission     string  `json:"mission,omitempty"`
}

// Koan is a short provocative text inserted into a prompt.
type Koan struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// FrameworkElement is one selectable directive inside a framework, such as
// a rebuttal technique or a cooperation case. The role fields are only set
// by frameworks that assign sides to the dialogue.
type FrameworkElement struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	AIRole    string `json:"ai_role,omitempty"`
	HumanRole string `json:"human_role,omitempty"`
}

// Framework is a mode-specific bundle of directives shaping how archetype,
// koan and history are combined into a prompt.
type Framework struct {
	ID         string             `json:"id"`
	Mode       string             `json:"mode"`
	Directive  string             `json:"directive"`
	RandomDraw bool               `json:"random_draw"`
	Elements   []FrameworkElement `json:"elements,omitempty"`
}

type archetypeDocument struct {
	Archetypes []Archetype `json:"archetypes"`
}

type koanDocument struct {
	Koans []Koan `json:"koans"`
}
