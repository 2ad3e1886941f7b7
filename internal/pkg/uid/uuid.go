package uid

import "github.com/google/uuid"

// UUID generates time ordered version 7 UUIDs used for otp record ids and
// correlation ids.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
