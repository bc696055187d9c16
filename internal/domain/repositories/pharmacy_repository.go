package repositories

import (
	"context"

	"github.com/nabhacare/backend/internal/domain/entities"
)

// PharmacyRepository defines the interface for pharmacy, medicine and stock data
type PharmacyRepository interface {
	// ListMedicines returns the medicine catalogue ordered by name
	ListMedicines(ctx context.Context) ([]*entities.Medicine, error)

	// CreateMedicine adds a medicine to the catalogue
	CreateMedicine(ctx context.Context, medicine *entities.Medicine) error

	// ListActivePharmacies returns active pharmacies ordered by name
	ListActivePharmacies(ctx context.Context) ([]*entities.Pharmacy, error)

	// ListInventory returns stock rows, newest first, optionally for one pharmacy
	ListInventory(ctx context.Context, pharmacyID string) ([]*entities.InventoryItem, error)

	// UpdateInventory sets quantity and, when price is not nil, price on a
	// row owned by ownerUserID's pharmacy, and returns that pharmacy's id
	UpdateInventory(ctx context.Context, id, ownerUserID string, quantity int, price *float64) (string, error)

	// FindAvailable returns in-stock rows whose medicine name matches name
	FindAvailable(ctx context.Context, name string) ([]*entities.InventoryItem, error)
}
