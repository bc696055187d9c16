package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nabhacare/backend/internal/adapters/database"
	"github.com/nabhacare/backend/internal/domain/entities"
	"github.com/nabhacare/backend/internal/infrastructure/clients/postgres"
)

type seedProfile struct {
	UserID  string
	Name    string
	Role    entities.Role
	Village string
}

type seedPharmacy struct {
	OwnerID string
	Name    string
	Village string
	Stock   map[string]int
}

var seedProfiles = []seedProfile{
	{UserID: "demo-patient-1", Name: "Gurpreet Kaur", Role: entities.RolePatient, Village: "Nabha"},
	{UserID: "demo-patient-2", Name: "Harjit Singh", Role: entities.RolePatient, Village: "Bhadson"},
	{UserID: "demo-doctor-1", Name: "Dr. Amanpreet Sandhu", Role: entities.RoleDoctor, Village: "Nabha"},
	{UserID: "demo-doctor-2", Name: "Dr. Rajesh Sharma", Role: entities.RoleDoctor, Village: "Patiala"},
	{UserID: "demo-pharmacy-1", Name: "Nabha Medical Store", Role: entities.RolePharmacy, Village: "Nabha"},
	{UserID: "demo-govt-1", Name: "Block Health Office", Role: entities.RoleGovt, Village: "Nabha"},
}

var seedDoctors = []entities.DoctorProfile{
	{UserID: "demo-doctor-1", Name: "Dr. Amanpreet Sandhu", Specialties: []string{"General Medicine", "Pediatrics"}, ConsultationFee: 200, Rating: 4.6, IsOnline: true},
	{UserID: "demo-doctor-2", Name: "Dr. Rajesh Sharma", Specialties: []string{"Cardiology"}, ConsultationFee: 500, Rating: 4.8},
}

var seedMedicines = []string{"Paracetamol 500mg", "Amoxicillin 250mg", "ORS Sachet", "Metformin 500mg", "Cetirizine 10mg"}

var seedPharmacies = []seedPharmacy{
	{
		OwnerID: "demo-pharmacy-1",
		Name:    "Nabha Medical Store",
		Village: "Nabha",
		Stock:   map[string]int{"Paracetamol 500mg": 120, "ORS Sachet": 40, "Amoxicillin 250mg": 0},
	},
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo profiles, doctors, pharmacies and medicines",
		RunE: func(cmd *cobra.Command, args []string) error {
			reset, _ := cmd.Flags().GetBool("reset")

			ctx := cmd.Context()
			_, pgClient, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer pgClient.Close()

			if reset {
				log.Warn().Msg("--reset set, truncating tables before seeding")
				if _, err := pgClient.DB().ExecContext(ctx, `
					TRUNCATE TABLE
						pharmacy_inventory,
						medicines,
						pharmacies,
						medical_records,
						consultations,
						doctors,
						profiles
					RESTART IDENTITY CASCADE
				`); err != nil {
					return fmt.Errorf("failed to reset tables: %w", err)
				}
			}

			if err := seed(ctx, pgClient); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seeding completed")
			return nil
		},
	}
	cmd.Flags().Bool("reset", false, "Truncate tables before seeding")
	return cmd
}

func seed(ctx context.Context, pgClient *postgres.Client) error {
	// 1. Profiles
	err := pgClient.WithTx(ctx, func(tx *sql.Tx) error {
		for _, p := range seedProfiles {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO profiles (user_id, name, role, village)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (user_id) DO NOTHING`,
				p.UserID, p.Name, string(p.Role), p.Village,
			); err != nil {
				return fmt.Errorf("failed to create profile %s: %w", p.UserID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 2. Doctors
	doctorRepo := database.NewDoctorAdapter(pgClient)
	for i := range seedDoctors {
		d := seedDoctors[i]
		if err := doctorRepo.Upsert(ctx, &d); err != nil {
			log.Error().Err(err).Str("user_id", d.UserID).Msg("failed to create doctor")
		}
	}

	// 3. Medicines
	pharmacyRepo := database.NewPharmacyAdapter(pgClient)
	for _, name := range seedMedicines {
		if err := pharmacyRepo.CreateMedicine(ctx, &entities.Medicine{Name: name}); err != nil {
			// Already in the catalogue on a re-run
			log.Debug().Err(err).Str("medicine", name).Msg("medicine not created")
		}
	}

	// 4. Pharmacies and their stock
	return pgClient.WithTx(ctx, func(tx *sql.Tx) error {
		for _, ph := range seedPharmacies {
			var pharmacyID string
			err := tx.QueryRowContext(ctx,
				`INSERT INTO pharmacies (user_id, name, village)
				 VALUES ($1, $2, $3)
				 RETURNING id`,
				ph.OwnerID, ph.Name, ph.Village,
			).Scan(&pharmacyID)
			if err != nil {
				return fmt.Errorf("failed to create pharmacy %s: %w", ph.Name, err)
			}

			for medicine, quantity := range ph.Stock {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO pharmacy_inventory (pharmacy_id, medicine_id, quantity)
					 SELECT $1, id, $3 FROM medicines WHERE name = $2
					 ON CONFLICT (pharmacy_id, medicine_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
					pharmacyID, medicine, quantity,
				); err != nil {
					return fmt.Errorf("failed to stock %s at %s: %w", medicine, ph.Name, err)
				}
			}
		}
		return nil
	})
}
