package entities

import "time"

// Pharmacy is a dispensing location
type Pharmacy struct {
	ID        string    `json:"id" db:"id"`
	UserID    *string   `json:"user_id,omitempty" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Village   *string   `json:"village,omitempty" db:"village"`
	Address   *string   `json:"address,omitempty" db:"address"`
	Phone     *string   `json:"phone,omitempty" db:"phone"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Medicine is a catalogue entry shared by all pharmacies
type Medicine struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	GenericName  *string   `json:"generic_name,omitempty" db:"generic_name"`
	Manufacturer *string   `json:"manufacturer,omitempty" db:"manufacturer"`
	Description  *string   `json:"description,omitempty" db:"description"`
	Category     *string   `json:"category,omitempty" db:"category"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// InventoryItem is the stock of one medicine at one pharmacy
type InventoryItem struct {
	ID                string     `json:"id" db:"id"`
	PharmacyID        string     `json:"pharmacy_id" db:"pharmacy_id"`
	MedicineID        string     `json:"medicine_id" db:"medicine_id"`
	Quantity          int        `json:"quantity" db:"quantity"`
	Price             *float64   `json:"price,omitempty" db:"price"`
	ExpiryDate        *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
	LowStockThreshold int        `json:"low_stock_threshold" db:"low_stock_threshold"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`

	MedicineName string `json:"medicine_name,omitempty" db:"medicine_name"`
	PharmacyName string `json:"pharmacy_name,omitempty" db:"pharmacy_name"`
}

// IsLowStock reports whether quantity is at or under the threshold
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}

// InventoryPatch is a pending local change to an inventory row
type InventoryPatch struct {
	Quantity int
	Price    *float64
}
