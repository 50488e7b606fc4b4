package member

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested member does not exist.
var ErrNotFound = errors.New("member not found")

// Member is a loyalty profile that can be attached to a cart.
type Member struct {
	ID       string
	Name     string
	Phone    string
	Points   int
	JoinDate time.Time
}

// Repository defines read operations for the member list.
type Repository interface {
	List(ctx context.Context) ([]Member, error)
	GetByID(ctx context.Context, id string) (*Member, error)
	Count(ctx context.Context) (int, error)
}
