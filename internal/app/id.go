package app

import "github.com/google/uuid"

// generateID produces a random event identifier.
// Isolated here so the ID strategy can evolve independently.
func generateID() string {
	return uuid.NewString()
}
