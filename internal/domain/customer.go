package domain

import (
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string

	CreatedAt time.Time
}
