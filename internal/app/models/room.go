package models

// Room represents a physical room. Rooms flagged unavailable are dropped
// during normalization and never reach the model builder.
type Room struct {
	ID        string
	Kind      Kind
	Capacity  int
	Available bool
}
