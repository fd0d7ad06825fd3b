package bridge

import "github.com/google/uuid"

// IDGenerator produces request IDs. Implementations must be safe for
// concurrent use.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 request IDs, so IDs in a
// log sort in submission order.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7, falling back to a random UUID if
// the clock source fails.
func (UUIDv7Generator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// WithIDGenerator sets the request ID source. The default is UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) {
		if g != nil {
			c.ids = g
		}
	}
}
