package pkg

import "github.com/google/uuid"

const roomIDLength = 8

// GenerateRoomID - generates a short identifier for the room.
func GenerateRoomID() string {
	return uuid.NewString()[:roomIDLength]
}

// GenerateConnectionID - generates a unique identifier for a client connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
