package clinical

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/nursing"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// Recorder counts accepted and rejected clinical entries.
type Recorder interface {
	ClinicalEntry(kind string)
	MutationRejected(kind, reason string)
}

// Gateway is the single write path for clinical entries. Every entry is
// validated, stamped with the clinic wall clock when no time was given,
// attributed to the caller and appended.
type Gateway struct {
	stores  Stores
	clock   *wallclock.Clock
	windows nursing.ShiftWindows
	logger  zerolog.Logger
	rec     Recorder
}

func NewGateway(stores Stores, clock *wallclock.Clock, windows nursing.ShiftWindows, logger zerolog.Logger) *Gateway {
	return &Gateway{stores: stores, clock: clock, windows: windows, logger: logger}
}

// SetRecorder attaches an optional metrics recorder.
func (g *Gateway) SetRecorder(r Recorder) {
	g.rec = r
}

// Windows returns the shift windows used to classify entries.
func (g *Gateway) Windows() nursing.ShiftWindows { return g.windows }

type field struct {
	name  string
	value *string
}

// requireFields trims each value in place and reports the first blank one.
func requireFields(fields ...field) error {
	for _, f := range fields {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return apperr.Required(f.name)
		}
	}
	return nil
}

func requirePatient(id int64) error {
	if id <= 0 {
		return apperr.Required("patient_id")
	}
	return nil
}

// author falls back to the authenticated caller's name.
func author(ctx context.Context, given string) string {
	if s := strings.TrimSpace(given); s != "" {
		return s
	}
	return auth.UserNameFromContext(ctx)
}

func (g *Gateway) record(ctx context.Context, kind string, patientID int64, validate, create func() error) error {
	if err := validate(); err != nil {
		g.reject(kind, "validation", err)
		return err
	}
	if err := create(); err != nil {
		err = apperr.Store("create "+kind, err)
		reason := "store"
		if apperr.IsValidation(err) {
			reason = "validation"
		}
		g.reject(kind, reason, err)
		return err
	}
	if g.rec != nil {
		g.rec.ClinicalEntry(kind)
	}
	g.logger.Debug().
		Str("kind", kind).
		Int64("patient_id", patientID).
		Str("by", auth.UserNameFromContext(ctx)).
		Msg("clinical entry recorded")
	return nil
}

func (g *Gateway) reject(kind, reason string, err error) {
	if g.rec != nil {
		g.rec.MutationRejected(kind, reason)
	}
	evt := g.logger.Debug()
	if reason == "store" {
		evt = g.logger.Error()
	}
	evt.Err(err).Str("kind", kind).Str("reason", reason).Msg("clinical entry rejected")
}

// RegisterVitalSigns appends a set of vital signs.
func (g *Gateway) RegisterVitalSigns(ctx context.Context, in *VitalSigns) (*VitalSigns, error) {
	err := g.record(ctx, KindVitals, in.PatientID, func() error {
		if err := requirePatient(in.PatientID); err != nil {
			return err
		}
		if err := requireFields(
			field{"temperature", &in.Temperature},
			field{"blood_pressure", &in.BloodPressure},
			field{"heart_rate", &in.HeartRate},
			field{"respiratory_rate", &in.RespiratoryRate},
		); err != nil {
			return err
		}
		if in.Date.IsZero() && in.DateTime != nil {
			in.Date = *in.DateTime
		}
		in.DateTime = nil
		if in.Date.IsZero() {
			in.Date = g.clock.Now()
		}
		in.RegisteredBy = author(ctx, in.RegisteredBy)
		return nil
	}, func() error {
		return g.stores.Vitals.Create(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// ApplyTreatment appends a medication administration. The start date
// defaults to the day of the application.
func (g *Gateway) ApplyTreatment(ctx context.Context, in *Treatment) (*Treatment, error) {
	err := g.record(ctx, KindTreatment, in.PatientID, func() error {
		if err := requirePatient(in.PatientID); err != nil {
			return err
		}
		if err := requireFields(
			field{"medication", &in.Medication},
			field{"dose", &in.Dose},
			field{"frequency", &in.Frequency},
		); err != nil {
			return err
		}
		if in.LastApplication.IsZero() {
			in.LastApplication = g.clock.Now()
		}
		in.StartDate = strings.TrimSpace(in.StartDate)
		if in.StartDate == "" {
			in.StartDate = in.LastApplication.DateString()
		} else if !wallclock.ValidDate(in.StartDate) {
			return apperr.Invalid("start_date", "must be YYYY-MM-DD")
		}
		in.AppliedBy = author(ctx, in.AppliedBy)
		return nil
	}, func() error {
		return g.stores.Treatments.Create(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// RecordNonPharmaTreatment appends a non-pharmacological procedure.
func (g *Gateway) RecordNonPharmaTreatment(ctx context.Context, in *NonPharmaTreatment) (*NonPharmaTreatment, error) {
	err := g.record(ctx, KindNonPharma, in.PatientID, func() error {
		if err := requirePatient(in.PatientID); err != nil {
			return err
		}
		if err := requireFields(
			field{"treatment_type", &in.TreatmentType},
			field{"description", &in.Description},
		); err != nil {
			return err
		}
		now := g.clock.Now()
		in.ApplicationDate = strings.TrimSpace(in.ApplicationDate)
		in.ApplicationTime = strings.TrimSpace(in.ApplicationTime)
		if in.ApplicationDate == "" {
			in.ApplicationDate = now.DateString()
		} else if !wallclock.ValidDate(in.ApplicationDate) {
			return apperr.Invalid("application_date", "must be YYYY-MM-DD")
		}
		if in.ApplicationTime == "" {
			in.ApplicationTime = now.TimeString()
		} else if hhmm, err := wallclock.NormalizeTime(in.ApplicationTime); err != nil {
			return apperr.Invalid("application_time", "must be HH:MM")
		} else {
			in.ApplicationTime = hhmm
		}
		in.PerformedBy = author(ctx, in.PerformedBy)
		return nil
	}, func() error {
		return g.stores.NonPharma.Create(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// AddNurseNote appends a nursing note. The type defaults to evolutiva.
func (g *Gateway) AddNurseNote(ctx context.Context, in *NurseNote) (*NurseNote, error) {
	err := g.record(ctx, KindNote, in.PatientID, func() error {
		if err := requirePatient(in.PatientID); err != nil {
			return err
		}
		if err := requireFields(field{"note", &in.Note}); err != nil {
			return err
		}
		in.NoteType = strings.ToLower(strings.TrimSpace(in.NoteType))
		if in.NoteType == "" {
			in.NoteType = DefaultNoteType
		}
		if !ValidNoteType(in.NoteType) {
			return apperr.Invalid("note_type", "is not a known note type")
		}
		if in.Date.IsZero() {
			in.Date = g.clock.Now()
		}
		in.NurseName = author(ctx, in.NurseName)
		return nil
	}, func() error {
		return g.stores.Notes.Create(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// OrderLabTest appends a lab order. Status defaults to Pendiente.
func (g *Gateway) OrderLabTest(ctx context.Context, in *LabTest) (*LabTest, error) {
	err := g.record(ctx, KindLabTest, in.PatientID, func() error {
		if err := requirePatient(in.PatientID); err != nil {
			return err
		}
		if err := requireFields(field{"test", &in.Test}); err != nil {
			return err
		}
		in.Status = strings.TrimSpace(in.Status)
		if in.Status == "" {
			in.Status = LabStatusPending
		}
		if !ValidLabStatus(in.Status) {
			return apperr.Invalid("status", "must be one of Pendiente, En Proceso, Completado")
		}
		if in.Date.IsZero() {
			in.Date = g.clock.Now()
		}
		in.OrderedBy = author(ctx, in.OrderedBy)
		return nil
	}, func() error {
		return g.stores.Labs.Create(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// AddMedicalHistory appends a diagnosis to the patient's history.
func (g *Gateway) AddMedicalHistory(ctx context.Context, in *MedicalHistory) (*MedicalHistory, error) {
	err := g.record(ctx, KindMedicalHistory, in.PatientID, func() error {
		if err := requirePatient(in.PatientID); err != nil {
			return err
		}
		if err := requireFields(
			field{"diagnosis", &in.Diagnosis},
			field{"treatment", &in.Treatment},
		); err != nil {
			return err
		}
		if in.Date.IsZero() {
			in.Date = g.clock.Now()
		}
		in.Doctor = author(ctx, in.Doctor)
		return nil
	}, func() error {
		return g.stores.History.Create(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// ListVitals returns a patient's vital signs, most recent first, filtered
// by f.
func (g *Gateway) ListVitals(ctx context.Context, patientID int64, f VitalsFilter) ([]*VitalSigns, error) {
	items, err := g.stores.Vitals.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Store("list vitals", err)
	}
	return FilterVitals(Reverse(items), f, g.windows), nil
}

// Reverse returns items in reverse order as a new slice.
func Reverse[T any](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}
