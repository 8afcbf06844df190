package pkg

import "github.com/google/uuid"

// GenerateConnectionID - unique transient identifier for one websocket
// connection. Seats bind to this, not to any durable player identity.
func GenerateConnectionID() string {
	return uuid.NewString()
}
