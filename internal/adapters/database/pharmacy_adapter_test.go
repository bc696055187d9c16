package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabhacare/backend/internal/adapters/database"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

var inventoryCols = []string{
	"id", "pharmacy_id", "medicine_id", "quantity", "price", "expiry_date",
	"low_stock_threshold", "created_at", "updated_at", "medicine_name", "pharmacy_name",
}

func TestPharmacyAdapter_FindAvailable(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewPharmacyAdapter(client)
	now := time.Now()

	mock.ExpectQuery(`"pi"."quantity" > 0\).*"m"."name" ILIKE '%para%'`).
		WillReturnRows(sqlmock.NewRows(inventoryCols).
			AddRow("i1", "ph1", "m1", 12, 2.5, nil, 10, now, now, "Paracetamol", "Village Pharmacy"))

	items, err := adapter.FindAvailable(context.Background(), "para")

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Paracetamol", items[0].MedicineName)
	assert.Equal(t, 12, items[0].Quantity)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, 2.5, *items[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_ListInventory_FiltersByPharmacy(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewPharmacyAdapter(client)

	mock.ExpectQuery(`WHERE \("pi"."pharmacy_id" = 'ph1'\) ORDER BY "pi"."created_at" DESC`).
		WillReturnRows(sqlmock.NewRows(inventoryCols))

	items, err := adapter.ListInventory(context.Background(), "ph1")

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_UpdateInventory(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewPharmacyAdapter(client)
	price := 4.75

	mock.ExpectQuery(`UPDATE "pharmacy_inventory" SET "price"=4.75,\s?"quantity"=30.*"pharmacy_id" IN \(SELECT "id" FROM "pharmacies" WHERE \("user_id" = 'ph-1'\)\).*RETURNING "pharmacy_id"`).
		WillReturnRows(sqlmock.NewRows([]string{"pharmacy_id"}).AddRow("store-1"))
	mock.ExpectQuery(`UPDATE "pharmacy_inventory" SET "quantity"=0`).
		WillReturnRows(sqlmock.NewRows([]string{"pharmacy_id"}))
	mock.ExpectQuery(`UPDATE "pharmacy_inventory"`).
		WillReturnError(&pq.Error{Code: "22P02"})

	pharmacyID, err := adapter.UpdateInventory(context.Background(), "i1", "ph-1", 30, &price)
	require.NoError(t, err)
	assert.Equal(t, "store-1", pharmacyID)

	_, err = adapter.UpdateInventory(context.Background(), "someone-elses", "ph-1", 0, nil)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = adapter.UpdateInventory(context.Background(), "abc", "ph-1", 1, nil)
	assert.True(t, apperrors.IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPharmacyAdapter_ListActivePharmacies(t *testing.T) {
	client, mock := newMockClient(t)
	adapter := database.NewPharmacyAdapter(client)
	now := time.Now()

	mock.ExpectQuery(`FROM "pharmacies" WHERE \("is_active" IS TRUE\) ORDER BY "name" ASC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "village", "address", "phone", "is_active", "created_at", "updated_at"}).
			AddRow("ph1", nil, "Nabha Chemists", "Nabha", nil, nil, true, now, now))

	pharmacies, err := adapter.ListActivePharmacies(context.Background())

	require.NoError(t, err)
	require.Len(t, pharmacies, 1)
	assert.Equal(t, "Nabha Chemists", pharmacies[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
