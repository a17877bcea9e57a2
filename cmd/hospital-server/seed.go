package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/nursing"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/patient"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
)

type patientSeeder interface {
	Admit(ctx context.Context, p *patient.Patient) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*patient.Patient, int, error)
}

type userSeeder interface {
	CreateStaff(ctx context.Context, st *nursing.Staff) error
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo patients and user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, clock, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			logger := newLogger(cfg.Env, cmd.ErrOrStderr())
			patients := patient.NewService(patient.NewPatientRepoPG(pool), patient.NewTransferRepoPG(pool), pool, clock)
			staff := nursing.NewService(nursing.NewStaffRepoPG(pool), nursing.NewShiftRepoPG(pool),
				nursing.NewAssignmentRepoPG(pool), patients, shiftWindows(cfg), logger)
			return seed(ctx, patients, staff, cmd.OutOrStdout())
		},
	}
}

func demoPatients() []*patient.Patient {
	return []*patient.Patient{
		{Name: "Juan Pérez", Age: 45, Room: "201", Condition: patient.ConditionStable,
			AdmissionDate: "2025-10-25", BloodType: "O+", Allergies: "Penicilina"},
		{Name: "María González", Age: 62, Room: "305", Condition: patient.ConditionCritical,
			AdmissionDate: "2025-10-27", BloodType: "A+", Allergies: "Ninguna"},
		{Name: "Carlos Rodríguez", Age: 38, Room: "102", Condition: patient.ConditionRecovering,
			AdmissionDate: "2025-10-23", BloodType: "B+", Allergies: "Aspirina"},
	}
}

// demoUsers returns the default accounts. The patient account is linked to
// patientID.
func demoUsers(patientID int64) []*nursing.Staff {
	return []*nursing.Staff{
		{Username: "admin", Name: "Administrador", Role: nursing.RoleAdmin, Email: "admin@hospital.com"},
		{Username: "enfermero", Name: "Enfermero Juan López", Role: nursing.RoleNurse, Email: "enfermero@hospital.com"},
		{Username: "paciente", Name: "Juan Pérez", Role: nursing.RolePatient, Email: "paciente@hospital.com", PatientID: &patientID},
	}
}

// seed loads the demo patients when the census is empty, then creates any
// default account that does not exist yet.
func seed(ctx context.Context, patients patientSeeder, users userSeeder, out io.Writer) error {
	_, total, err := patients.Search(ctx, map[string]string{"include_inactive": "true"}, 1, 0)
	if err != nil {
		return err
	}
	if total > 0 {
		fmt.Fprintln(out, "Database already has patients, skipping patient seed")
	} else {
		for _, p := range demoPatients() {
			if err := patients.Admit(ctx, p); err != nil {
				return fmt.Errorf("seed patient %s: %w", p.Name, err)
			}
			fmt.Fprintf(out, "Admitted %s (id %d)\n", p.Name, p.ID)
		}
	}

	found, _, err := patients.Search(ctx, map[string]string{"q": "Juan Pérez", "include_inactive": "true"}, 1, 0)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("seed users: patient Juan Pérez not found")
	}

	for _, u := range demoUsers(found[0].ID) {
		err := users.CreateStaff(ctx, u)
		switch {
		case apperr.IsConflict(err):
			fmt.Fprintf(out, "User %s already exists\n", u.Username)
		case err != nil:
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		default:
			fmt.Fprintf(out, "Created user %s (%s)\n", u.Username, u.Role)
		}
	}
	return nil
}
