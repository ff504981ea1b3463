package vehicle

import (
	"context"

	"github.com/google/uuid"
)

// VehicleRepository defines persistence operations for fleet vehicles.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	// List returns active vehicles, filtered by group when group is not empty.
	List(ctx context.Context, group string, page, limit int) ([]*Vehicle, int64, error)
	Save(ctx context.Context, v *Vehicle) error
	Update(ctx context.Context, v *Vehicle) error
}
