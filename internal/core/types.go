package core

// SamplingConfig carries the generation options forwarded to the model
// endpoint. Nil fields are omitted from the request so the server defaults
// apply.
type SamplingConfig struct {
	Temperature   *float64 `toml:"temperature" json:"temperature,omitempty"`
	TopP          *float64 `toml:"top_p" json:"top_p,omitempty"`
	TopK          *int     `toml:"top_k" json:"top_k,omitempty"`
	RepeatPenalty *float64 `toml:"repeat_penalty" json:"repeat_penalty,omitempty"`
}
