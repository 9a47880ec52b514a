package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
)

type ListFiresInput struct {
	Since      *time.Time // nil = no lower bound on actual_fire_time
	CursorTime *time.Time // cursor on (actual_fire_time DESC, id DESC); nil = first page
	CursorID   string
	Limit      int
}

// FireRepository stores emitted fire events. The trigger never reads it back;
// history exists only for the HTTP API.
type FireRepository interface {
	Record(ctx context.Context, ev domain.FireEvent) error
	GetByID(ctx context.Context, id string) (*domain.FireRecord, error)
	List(ctx context.Context, input ListFiresInput) ([]*domain.FireRecord, error)
}
