package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/domain/repositories"
	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nabhacare/backend/pkg/errors"
)

var consultationColumns = []interface{}{
	"id", "patient_id", "doctor_id", "scheduled_at", "status",
	"symptoms", "notes", "prescription", "room_id",
	"created_at", "updated_at",
}

var consultationDetailColumns = append(append([]interface{}{}, consultationColumns...), "patient_name", "doctor_name")

// openStatuses are the statuses a consultation may still leave
var openStatuses = []string{
	string(entities.ConsultationStatusScheduled),
	string(entities.ConsultationStatusInProgress),
}

// ConsultationAdapter implements the ConsultationRepository interface
type ConsultationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewConsultationAdapter creates a new consultation adapter
func NewConsultationAdapter(client *postgres.Client) repositories.ConsultationRepository {
	return &ConsultationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListDetails returns the caller's consultations through get_consultations_with_details
func (a *ConsultationAdapter) ListDetails(ctx context.Context, role entities.Role, userID string) ([]*entities.ConsultationDetails, error) {
	if role != entities.RolePatient && role != entities.RoleDoctor {
		return []*entities.ConsultationDetails{}, nil
	}

	query, args, err := a.db.
		From(goqu.Func("get_consultations_with_details", string(role), userID)).
		Select(consultationDetailColumns...).
		Order(goqu.I("scheduled_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	details := []*entities.ConsultationDetails{}
	if err := a.client.DBX().SelectContext(ctx, &details, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list consultations", err)
	}

	return details, nil
}

// GetDetails retrieves one row of the consultation_details view
func (a *ConsultationAdapter) GetDetails(ctx context.Context, id string) (*entities.ConsultationDetails, error) {
	query, args, err := a.db.
		From("consultation_details").
		Select(consultationDetailColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	details := &entities.ConsultationDetails{}
	err = a.client.DBX().GetContext(ctx, details, query, args...)
	if isMissingRow(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consultation with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get consultation details", err)
	}

	return details, nil
}

// GetByID retrieves a consultation by ID
func (a *ConsultationAdapter) GetByID(ctx context.Context, id string) (*entities.Consultation, error) {
	query, args, err := a.db.
		From("consultations").
		Select(consultationColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	consultation := &entities.Consultation{}
	err = a.client.DBX().GetContext(ctx, consultation, query, args...)
	if isMissingRow(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("consultation with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get consultation", err)
	}

	return consultation, nil
}

// Book inserts the consultation and its companion record in one transaction
func (a *ConsultationAdapter) Book(ctx context.Context, consultation *entities.Consultation, record *entities.MedicalRecord) error {
	now := time.Now()
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = now
	}
	consultation.UpdatedAt = consultation.CreatedAt

	consultationQuery, args, err := a.db.Insert("consultations").Rows(goqu.Record{
		"id":           consultation.ID,
		"patient_id":   consultation.PatientID,
		"doctor_id":    consultation.DoctorID,
		"scheduled_at": consultation.ScheduledAt,
		"status":       string(consultation.Status),
		"symptoms":     consultation.Symptoms,
		"created_at":   consultation.CreatedAt,
		"updated_at":   consultation.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	return a.client.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, consultationQuery, args...); err != nil {
			return wrapWriteError(err, "failed to create consultation")
		}
		if record == nil {
			return nil
		}
		return insertMedicalRecord(ctx, a.db, tx, record)
	})
}

// UpdateStatus sets status and, when given, notes. Rows whose current status
// cannot move to the new one are left untouched.
func (a *ConsultationAdapter) UpdateStatus(ctx context.Context, id string, status entities.ConsultationStatus, notes *string) error {
	set := goqu.Record{
		"status":     string(status),
		"updated_at": time.Now(),
	}
	if notes != nil {
		set["notes"] = *notes
	}

	query, args, err := a.db.Update("consultations").
		Set(set).
		Where(goqu.Ex{"id": id, "status": predecessors(status)}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return wrapWriteError(err, "failed to update consultation status")
	}

	return a.requireAffected(ctx, result, id)
}

// StartVideoCall assigns roomID unless a room exists and moves the row to in-progress
func (a *ConsultationAdapter) StartVideoCall(ctx context.Context, id, roomID string) (string, error) {
	query, args, err := a.db.Update("consultations").
		Set(goqu.Record{
			"status":     string(entities.ConsultationStatusInProgress),
			"room_id":    goqu.COALESCE(goqu.C("room_id"), roomID),
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id, "status": openStatuses}).
		Returning("room_id").
		ToSQL()
	if err != nil {
		return "", apperrors.NewInternalError("failed to build update query", err)
	}

	var stored string
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&stored)
	if isMissingRow(err) {
		return "", a.closedOrMissing(ctx, id)
	}
	if err != nil {
		return "", apperrors.NewInternalError("failed to start video call", err)
	}

	return stored, nil
}

// Complete closes an open consultation and stores the prescription record when given
func (a *ConsultationAdapter) Complete(ctx context.Context, id string, notes *string, prescription entities.Prescription, record *entities.MedicalRecord) error {
	set := goqu.Record{
		"status":       string(entities.ConsultationStatusCompleted),
		"prescription": prescription,
		"updated_at":   time.Now(),
	}
	if notes != nil {
		set["notes"] = *notes
	}

	query, args, err := a.db.Update("consultations").
		Set(set).
		Where(goqu.Ex{"id": id, "status": openStatuses}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	err = a.client.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return wrapWriteError(err, "failed to complete consultation")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return apperrors.NewInternalError("failed to get rows affected", err)
		}
		if affected == 0 {
			return errNoOpenConsultation
		}
		if record == nil {
			return nil
		}
		return insertMedicalRecord(ctx, a.db, tx, record)
	})
	if errors.Is(err, errNoOpenConsultation) {
		return a.closedOrMissing(ctx, id)
	}
	return err
}

// Cancel moves a scheduled consultation to cancelled
func (a *ConsultationAdapter) Cancel(ctx context.Context, id string) error {
	return a.UpdateStatus(ctx, id, entities.ConsultationStatusCancelled, nil)
}

// DoctorNames returns doctor display names keyed by consultation id
func (a *ConsultationAdapter) DoctorNames(ctx context.Context, consultationIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(consultationIDs))
	if len(consultationIDs) == 0 {
		return names, nil
	}

	query, args, err := a.db.
		From(goqu.T("consultations").As("c")).
		LeftJoin(goqu.T("profiles").As("p"), goqu.On(goqu.I("p.user_id").Eq(goqu.I("c.doctor_id")))).
		Select(goqu.I("c.id"), goqu.COALESCE(goqu.I("p.name"), entities.UnknownDoctorName)).
		Where(goqu.I("c.id").In(consultationIDs)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load doctor names", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor name", err)
		}
		names[id] = name
	}

	return names, rows.Err()
}

var errNoOpenConsultation = errors.New("no open consultation matched")

func (a *ConsultationAdapter) requireAffected(ctx context.Context, result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return a.closedOrMissing(ctx, id)
	}
	return nil
}

// closedOrMissing distinguishes an unknown id from a row the guard rejected
func (a *ConsultationAdapter) closedOrMissing(ctx context.Context, id string) error {
	current, err := a.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return apperrors.NewConflictError(fmt.Sprintf("consultation %s is %s", id, current.Status))
}

// predecessors lists the statuses from which a row may be set to next,
// including next itself while it is not terminal.
func predecessors(next entities.ConsultationStatus) []string {
	var out []string
	for _, s := range []entities.ConsultationStatus{
		entities.ConsultationStatusScheduled,
		entities.ConsultationStatusInProgress,
		entities.ConsultationStatusCompleted,
		entities.ConsultationStatusCancelled,
	} {
		if s.CanTransitionTo(next) || (s == next && !s.IsTerminal()) {
			out = append(out, string(s))
		}
	}
	return out
}
