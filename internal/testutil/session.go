package testutil

// FixedSessionGenerator returns the same session ID every time.
//
// Golden HUD renders embed the session ID, so tests pin it.
// Implements state.SessionGenerator.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a generator. An empty id becomes
// "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
