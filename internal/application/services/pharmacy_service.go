package services

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/providers"
	"github.com/nabhacare/backend/internal/domain/repositories"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

type pendingPatch struct {
	patch   entities.InventoryPatch
	version uint64
}

// PharmacyService handles the medicine catalogue and pharmacy stock.
// Inventory edits are visible to readers as soon as they are requested and
// give way to the stored row once the write lands.
type PharmacyService struct {
	repo     repositories.PharmacyRepository
	notifier providers.Notifier

	mu      sync.Mutex
	version uint64
	patches map[string]pendingPatch
}

// NewPharmacyService creates a new pharmacy service
func NewPharmacyService(repo repositories.PharmacyRepository, notifier providers.Notifier) *PharmacyService {
	return &PharmacyService{
		repo:     repo,
		notifier: notifier,
		patches:  make(map[string]pendingPatch),
	}
}

// ListMedicines returns the catalogue ordered by name
func (s *PharmacyService) ListMedicines(ctx context.Context) []*entities.Medicine {
	medicines, err := s.repo.ListMedicines(ctx)
	if err != nil {
		s.notifyError(ctx, err)
		return []*entities.Medicine{}
	}
	if medicines == nil {
		medicines = []*entities.Medicine{}
	}
	return medicines
}

// AddMedicine adds a catalogue entry
func (s *PharmacyService) AddMedicine(ctx context.Context, caller *entities.Caller, medicine *entities.Medicine) (*entities.Medicine, error) {
	if err := requirePharmacy(caller); err != nil {
		s.notifyError(ctx, err)
		return nil, err
	}

	medicine.Name = strings.TrimSpace(medicine.Name)
	if medicine.Name == "" {
		err := apperrors.NewValidationError("medicine name is required")
		s.notifyError(ctx, err)
		return nil, err
	}

	if err := s.repo.CreateMedicine(ctx, medicine); err != nil {
		s.notifyError(ctx, err)
		return nil, err
	}

	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Success",
		Description: "Medicine added successfully",
	})
	return medicine, nil
}

// ListPharmacies returns active pharmacies ordered by name
func (s *PharmacyService) ListPharmacies(ctx context.Context) []*entities.Pharmacy {
	pharmacies, err := s.repo.ListActivePharmacies(ctx)
	if err != nil {
		s.notifyError(ctx, err)
		return []*entities.Pharmacy{}
	}
	if pharmacies == nil {
		pharmacies = []*entities.Pharmacy{}
	}
	return pharmacies
}

// ListInventory returns stock rows, newest first, with pending edits applied
func (s *PharmacyService) ListInventory(ctx context.Context, pharmacyID string) []*entities.InventoryItem {
	items, err := s.repo.ListInventory(ctx, pharmacyID)
	if err != nil {
		s.notifyError(ctx, err)
		return []*entities.InventoryItem{}
	}
	return s.overlay(items)
}

// UpdateInventory sets quantity and optionally price on a stock row of the
// caller's pharmacy and returns that pharmacy's refreshed inventory. On
// failure the pending edit is rolled back.
func (s *PharmacyService) UpdateInventory(ctx context.Context, caller *entities.Caller, id string, quantity int, price *float64) ([]*entities.InventoryItem, error) {
	if err := requirePharmacy(caller); err != nil {
		s.notifyError(ctx, err)
		return nil, err
	}
	if quantity < 0 {
		err := apperrors.NewValidationError("quantity must not be negative")
		s.notifyError(ctx, err)
		return nil, err
	}
	if price != nil && *price < 0 {
		err := apperrors.NewValidationError("price must not be negative")
		s.notifyError(ctx, err)
		return nil, err
	}

	version := s.stage(id, entities.InventoryPatch{Quantity: quantity, Price: price})

	pharmacyID, err := s.repo.UpdateInventory(ctx, id, caller.UserID, quantity, price)
	if err != nil {
		s.release(id, version)
		log.Warn().Err(err).Str("inventory_id", id).Msg("failed to update inventory")
		s.notifyError(ctx, err)
		return nil, err
	}

	s.release(id, version)
	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Success",
		Description: "Inventory updated successfully",
	})

	return s.ListInventory(ctx, pharmacyID), nil
}

// CheckAvailability lists in-stock rows whose medicine name contains name
func (s *PharmacyService) CheckAvailability(ctx context.Context, name string) []*entities.InventoryItem {
	name = strings.TrimSpace(name)
	if name == "" {
		return []*entities.InventoryItem{}
	}

	items, err := s.repo.FindAvailable(ctx, name)
	if err != nil {
		s.notifyError(ctx, err)
		return []*entities.InventoryItem{}
	}
	if items == nil {
		items = []*entities.InventoryItem{}
	}
	return items
}

// stage records a pending edit for id and returns its version
func (s *PharmacyService) stage(id string, patch entities.InventoryPatch) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.patches[id] = pendingPatch{patch: patch, version: s.version}
	return s.version
}

// release drops the pending edit for id unless a newer one replaced it
func (s *PharmacyService) release(id string, version uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.patches[id]; ok && p.version == version {
		delete(s.patches, id)
	}
}

func (s *PharmacyService) overlay(items []*entities.InventoryItem) []*entities.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*entities.InventoryItem, 0, len(items))
	for _, item := range items {
		p, ok := s.patches[item.ID]
		if !ok {
			out = append(out, item)
			continue
		}
		patched := *item
		patched.Quantity = p.patch.Quantity
		if p.patch.Price != nil {
			price := *p.patch.Price
			patched.Price = &price
		}
		out = append(out, &patched)
	}
	return out
}

func (s *PharmacyService) notifyError(ctx context.Context, err error) {
	s.notifier.Notify(ctx, entities.Notification{
		Title:       "Error",
		Description: apperrors.PublicMessage(err),
		Variant:     entities.NotificationVariantDestructive,
	})
}

func requirePharmacy(caller *entities.Caller) error {
	if !caller.IsAuthenticated() {
		return apperrors.NewUnauthorizedError("not authenticated")
	}
	if caller.Role != entities.RolePharmacy {
		return apperrors.NewForbiddenError("only pharmacies can change stock")
	}
	return nil
}
