package database

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/repositories"
	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

var inventoryColumns = []interface{}{
	goqu.I("pi.id"), goqu.I("pi.pharmacy_id"), goqu.I("pi.medicine_id"),
	goqu.I("pi.quantity"), goqu.I("pi.price"), goqu.I("pi.expiry_date"),
	goqu.I("pi.low_stock_threshold"), goqu.I("pi.created_at"), goqu.I("pi.updated_at"),
	goqu.I("m.name").As("medicine_name"),
	goqu.I("ph.name").As("pharmacy_name"),
}

// PharmacyAdapter implements the PharmacyRepository interface
type PharmacyAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPharmacyAdapter creates a new pharmacy adapter
func NewPharmacyAdapter(client *postgres.Client) repositories.PharmacyRepository {
	return &PharmacyAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListMedicines returns the medicine catalogue ordered by name
func (a *PharmacyAdapter) ListMedicines(ctx context.Context) ([]*entities.Medicine, error) {
	query, args, err := a.db.From("medicines").
		Select("id", "name", "generic_name", "manufacturer", "description", "category", "created_at", "updated_at").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	medicines := []*entities.Medicine{}
	if err := a.client.DBX().SelectContext(ctx, &medicines, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list medicines", err)
	}
	return medicines, nil
}

// CreateMedicine adds a medicine to the catalogue
func (a *PharmacyAdapter) CreateMedicine(ctx context.Context, medicine *entities.Medicine) error {
	if medicine.ID == "" {
		medicine.ID = uuid.NewString()
	}
	medicine.CreatedAt = time.Now()
	medicine.UpdatedAt = medicine.CreatedAt

	query, args, err := a.db.Insert("medicines").Rows(goqu.Record{
		"id":           medicine.ID,
		"name":         medicine.Name,
		"generic_name": medicine.GenericName,
		"manufacturer": medicine.Manufacturer,
		"description":  medicine.Description,
		"category":     medicine.Category,
		"created_at":   medicine.CreatedAt,
		"updated_at":   medicine.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return wrapWriteError(err, "failed to create medicine")
	}
	return nil
}

// ListActivePharmacies returns active pharmacies ordered by name
func (a *PharmacyAdapter) ListActivePharmacies(ctx context.Context) ([]*entities.Pharmacy, error) {
	query, args, err := a.db.From("pharmacies").
		Select("id", "user_id", "name", "village", "address", "phone", "is_active", "created_at", "updated_at").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	pharmacies := []*entities.Pharmacy{}
	if err := a.client.DBX().SelectContext(ctx, &pharmacies, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list pharmacies", err)
	}
	return pharmacies, nil
}

func (a *PharmacyAdapter) inventoryQuery() *goqu.SelectDataset {
	return a.db.From(goqu.T("pharmacy_inventory").As("pi")).
		Join(goqu.T("medicines").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("pi.medicine_id")))).
		Join(goqu.T("pharmacies").As("ph"), goqu.On(goqu.I("ph.id").Eq(goqu.I("pi.pharmacy_id")))).
		Select(inventoryColumns...)
}

// ListInventory returns stock rows, newest first, optionally for one pharmacy
func (a *PharmacyAdapter) ListInventory(ctx context.Context, pharmacyID string) ([]*entities.InventoryItem, error) {
	ds := a.inventoryQuery()
	if pharmacyID != "" {
		ds = ds.Where(goqu.I("pi.pharmacy_id").Eq(pharmacyID))
	}

	query, args, err := ds.Order(goqu.I("pi.created_at").Desc()).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	items := []*entities.InventoryItem{}
	if err := a.client.DBX().SelectContext(ctx, &items, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list inventory", err)
	}
	return items, nil
}

// UpdateInventory sets quantity and, when price is not nil, price on a
// stock row of a pharmacy owned by ownerUserID. It returns the row's
// pharmacy id. Rows of other pharmacies are reported as not found.
func (a *PharmacyAdapter) UpdateInventory(ctx context.Context, id, ownerUserID string, quantity int, price *float64) (string, error) {
	set := goqu.Record{
		"quantity":   quantity,
		"updated_at": time.Now(),
	}
	if price != nil {
		set["price"] = *price
	}

	owned := a.db.From("pharmacies").Select("id").Where(goqu.Ex{"user_id": ownerUserID})
	query, args, err := a.db.Update("pharmacy_inventory").
		Set(set).
		Where(goqu.Ex{"id": id}, goqu.C("pharmacy_id").In(owned)).
		Returning("pharmacy_id").
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build update query", err)
	}

	var pharmacyID string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&pharmacyID)
	if isMissingRow(err) {
		return "", apperrors.NewNotFoundError(fmt.Sprintf("inventory item with id %s not found", id))
	}
	if err != nil {
		return "", wrapWriteError(err, "failed to update inventory")
	}
	return pharmacyID, nil
}

// FindAvailable returns in-stock rows whose medicine name contains name
func (a *PharmacyAdapter) FindAvailable(ctx context.Context, name string) ([]*entities.InventoryItem, error) {
	query, args, err := a.inventoryQuery().
		Where(
			goqu.I("pi.quantity").Gt(0),
			goqu.I("m.name").ILike("%"+name+"%"),
		).
		Order(goqu.I("pi.price").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build availability query", err)
	}

	items := []*entities.InventoryItem{}
	if err := a.client.DBX().SelectContext(ctx, &items, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to check availability", err)
	}
	return items, nil
}
