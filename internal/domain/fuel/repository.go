package fuel

import "context"

// PriceRepository persists the current price of each fuel type.
type PriceRepository interface {
	// FindByType returns the current price, or a not-found error.
	FindByType(ctx context.Context, t Type) (*Price, error)

	// ListAll returns the current price of every fuel type that has one.
	ListAll(ctx context.Context) ([]*Price, error)

	// Upsert replaces the stored prices for the given types in one transaction.
	Upsert(ctx context.Context, prices []*Price) error
}
