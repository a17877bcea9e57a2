package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/nursing"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

type countingRecorder struct {
	entries  map[string]int
	rejected map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{entries: map[string]int{}, rejected: map[string]int{}}
}

func (r *countingRecorder) ClinicalEntry(kind string)          { r.entries[kind]++ }
func (r *countingRecorder) MutationRejected(kind, reason string) { r.rejected[kind+"/"+reason]++ }

type failingVitals struct{ err error }

func (f failingVitals) Create(context.Context, *VitalSigns) error { return f.err }
func (f failingVitals) ListByPatient(context.Context, int64) ([]*VitalSigns, error) {
	return nil, f.err
}
func (f failingVitals) List(context.Context, int, int) ([]*VitalSigns, int, error) {
	return nil, 0, f.err
}

// The clinic clock reads 2025-11-20 14:35 in Mexico City.
var testNow = time.Date(2025, 11, 20, 20, 35, 42, 0, time.UTC)

func newTestGateway() (*Gateway, Stores, *countingRecorder) {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		loc = time.FixedZone("CST", -6*3600)
	}
	stores := NewInMemoryStores()
	gw := NewGateway(stores, wallclock.Fixed(loc, testNow), nursing.DefaultShiftWindows(), zerolog.Nop())
	rec := newCountingRecorder()
	gw.SetRecorder(rec)
	return gw, stores, rec
}

func nurseCtx() context.Context {
	return auth.WithPrincipal(context.Background(), auth.Principal{
		Subject: "2", Name: "Enfermero Juan López", Role: auth.Nurse{StaffID: 2},
	})
}

func TestRegisterVitalSigns_StampsClinicTime(t *testing.T) {
	gw, stores, rec := newTestGateway()

	v, err := gw.RegisterVitalSigns(nurseCtx(), &VitalSigns{
		PatientID: 1, Temperature: " 36.5 ", BloodPressure: "120/80", HeartRate: "72", RespiratoryRate: "16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.ID == 0 || v.CreatedAt.IsZero() {
		t.Error("expected id and created_at to be assigned")
	}
	if got := v.Date.String(); got != "2025-11-20 14:35" {
		t.Errorf("expected clinic wall clock truncated to the minute, got %s", got)
	}
	if v.Temperature != "36.5" {
		t.Errorf("expected trimmed temperature, got %q", v.Temperature)
	}
	if v.RegisteredBy != "Enfermero Juan López" {
		t.Errorf("expected principal as author, got %q", v.RegisteredBy)
	}
	stored, _ := stores.Vitals.ListByPatient(context.Background(), 1)
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored entry, got %d", len(stored))
	}
	if rec.entries[KindVitals] != 1 {
		t.Errorf("expected 1 recorded vitals entry, got %d", rec.entries[KindVitals])
	}
}

func TestRegisterVitalSigns_ExplicitTimeHonored(t *testing.T) {
	gw, _, _ := newTestGateway()

	explicit := wallclock.At(2025, 11, 19, 23, 10)
	v, err := gw.RegisterVitalSigns(nurseCtx(), &VitalSigns{
		PatientID: 1, Date: explicit, Temperature: "37", BloodPressure: "110/70", HeartRate: "80",
		RespiratoryRate: "18", RegisteredBy: "Enfermera Rosa",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Date.Equal(explicit.Time) || v.RegisteredBy != "Enfermera Rosa" {
		t.Errorf("explicit values overwritten: %+v", v)
	}

	alias := wallclock.At(2025, 11, 18, 6, 0)
	v, err = gw.RegisterVitalSigns(nurseCtx(), &VitalSigns{
		PatientID: 1, DateTime: &alias, Temperature: "37", BloodPressure: "110/70", HeartRate: "80", RespiratoryRate: "18",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Date.Equal(alias.Time) || v.DateTime != nil {
		t.Errorf("date_time alias not folded into date: %+v", v)
	}
}

func TestRegisterVitalSigns_RequiredFields(t *testing.T) {
	base := VitalSigns{PatientID: 1, Temperature: "36", BloodPressure: "120/80", HeartRate: "70", RespiratoryRate: "16"}
	tests := []struct {
		field  string
		mutate func(v *VitalSigns)
	}{
		{"patient_id", func(v *VitalSigns) { v.PatientID = 0 }},
		{"temperature", func(v *VitalSigns) { v.Temperature = "   " }},
		{"blood_pressure", func(v *VitalSigns) { v.BloodPressure = "" }},
		{"heart_rate", func(v *VitalSigns) { v.HeartRate = "" }},
		{"respiratory_rate", func(v *VitalSigns) { v.RespiratoryRate = "\t" }},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			gw, stores, rec := newTestGateway()
			in := base
			tt.mutate(&in)
			_, err := gw.RegisterVitalSigns(nurseCtx(), &in)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
			stored, _ := stores.Vitals.ListByPatient(context.Background(), 1)
			if len(stored) != 0 {
				t.Error("nothing should be stored on validation failure")
			}
			if rec.rejected[KindVitals+"/validation"] != 1 {
				t.Errorf("expected a recorded rejection, got %v", rec.rejected)
			}
		})
	}
}

func TestRegisterVitalSigns_StoreFailure(t *testing.T) {
	gw, _, rec := newTestGateway()
	gw.stores.Vitals = failingVitals{err: errors.New("connection refused")}

	_, err := gw.RegisterVitalSigns(nurseCtx(), &VitalSigns{
		PatientID: 1, Temperature: "36", BloodPressure: "120/80", HeartRate: "70", RespiratoryRate: "16",
	})
	if !apperr.IsStore(err) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if rec.rejected[KindVitals+"/store"] != 1 {
		t.Errorf("expected a store rejection, got %v", rec.rejected)
	}
}

func TestApplyTreatment_Defaults(t *testing.T) {
	gw, _, _ := newTestGateway()

	tr, err := gw.ApplyTreatment(nurseCtx(), &Treatment{PatientID: 1, Medication: "Paracetamol", Dose: "500mg", Frequency: "Cada 8 horas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.LastApplication.String() != "2025-11-20 14:35" {
		t.Errorf("unexpected last_application %s", tr.LastApplication)
	}
	if tr.StartDate != "2025-11-20" {
		t.Errorf("start_date should default to the application day, got %s", tr.StartDate)
	}
	if tr.AppliedBy != "Enfermero Juan López" {
		t.Errorf("unexpected applied_by %q", tr.AppliedBy)
	}

	explicit := wallclock.At(2025, 11, 1, 8, 0)
	tr, err = gw.ApplyTreatment(nurseCtx(), &Treatment{PatientID: 1, Medication: "Ibuprofeno", Dose: "400mg",
		Frequency: "Cada 12 horas", LastApplication: explicit})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.StartDate != "2025-11-01" {
		t.Errorf("start_date should follow an explicit application, got %s", tr.StartDate)
	}
}

func TestApplyTreatment_Validation(t *testing.T) {
	gw, _, _ := newTestGateway()
	tests := []struct {
		in    Treatment
		field string
	}{
		{Treatment{PatientID: 1, Dose: "1", Frequency: "1"}, "medication"},
		{Treatment{PatientID: 1, Medication: "x", Frequency: "1"}, "dose"},
		{Treatment{PatientID: 1, Medication: "x", Dose: "1"}, "frequency"},
		{Treatment{PatientID: 1, Medication: "x", Dose: "1", Frequency: "1", StartDate: "ayer"}, "start_date"},
	}
	for _, tt := range tests {
		in := tt.in
		_, err := gw.ApplyTreatment(nurseCtx(), &in)
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) || ve.Field != tt.field {
			t.Errorf("expected validation error on %s, got %v", tt.field, err)
		}
	}
}

func TestRecordNonPharmaTreatment(t *testing.T) {
	gw, _, _ := newTestGateway()

	np, err := gw.RecordNonPharmaTreatment(nurseCtx(), &NonPharmaTreatment{
		PatientID: 1, TreatmentType: "Curación", Description: "Curación de herida quirúrgica",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if np.ApplicationDate != "2025-11-20" || np.ApplicationTime != "14:35" {
		t.Errorf("unexpected stamp %s %s", np.ApplicationDate, np.ApplicationTime)
	}
	if np.PerformedBy != "Enfermero Juan López" {
		t.Errorf("unexpected performed_by %q", np.PerformedBy)
	}

	_, err = gw.RecordNonPharmaTreatment(nurseCtx(), &NonPharmaTreatment{
		PatientID: 1, TreatmentType: "Curación", Description: "x", ApplicationTime: "2pm",
	})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for bad time, got %v", err)
	}
	_, err = gw.RecordNonPharmaTreatment(nurseCtx(), &NonPharmaTreatment{PatientID: 1, TreatmentType: "Curación"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Field != "description" {
		t.Errorf("expected description required, got %v", err)
	}
}

func TestAddNurseNote(t *testing.T) {
	gw, _, _ := newTestGateway()

	n, err := gw.AddNurseNote(nurseCtx(), &NurseNote{PatientID: 1, Note: "Paciente estable, sin dolor"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.NoteType != DefaultNoteType || n.NurseName != "Enfermero Juan López" || n.Date.String() != "2025-11-20 14:35" {
		t.Errorf("unexpected defaults: %+v", n)
	}

	n, err = gw.AddNurseNote(nurseCtx(), &NurseNote{PatientID: 1, Note: "Caída", NoteType: "Incidente"})
	if err != nil || n.NoteType != "incidente" {
		t.Errorf("expected lowercased note type, got %+v, %v", n, err)
	}

	_, err = gw.AddNurseNote(nurseCtx(), &NurseNote{PatientID: 1, Note: "x", NoteType: "chisme"})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown note type, got %v", err)
	}
	_, err = gw.AddNurseNote(nurseCtx(), &NurseNote{PatientID: 1})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for empty note, got %v", err)
	}
}

func TestOrderLabTest(t *testing.T) {
	gw, _, _ := newTestGateway()
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{Name: "Dra. Ana Martínez", Role: auth.Doctor{StaffID: 3}})

	l, err := gw.OrderLabTest(ctx, &LabTest{PatientID: 1, Test: "Biometría hemática"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Status != LabStatusPending || l.OrderedBy != "Dra. Ana Martínez" {
		t.Errorf("unexpected defaults: %+v", l)
	}
	if _, err := gw.OrderLabTest(ctx, &LabTest{PatientID: 1, Test: "x", Status: "Perdido"}); !apperr.IsValidation(err) {
		t.Errorf("expected validation error for unknown status, got %v", err)
	}
}

func TestAddMedicalHistory(t *testing.T) {
	gw, _, _ := newTestGateway()
	ctx := auth.WithPrincipal(context.Background(), auth.Principal{Name: "Dr. Luis", Role: auth.Doctor{StaffID: 4}})

	h, err := gw.AddMedicalHistory(ctx, &MedicalHistory{PatientID: 1, Diagnosis: "Hipertensión", Treatment: "Losartán"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Doctor != "Dr. Luis" || h.Date.IsZero() {
		t.Errorf("unexpected defaults: %+v", h)
	}
	_, err = gw.AddMedicalHistory(ctx, &MedicalHistory{PatientID: 1, Diagnosis: "Hipertensión"})
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) || ve.Field != "treatment" {
		t.Errorf("expected treatment required, got %v", err)
	}
}

func TestListVitals_MostRecentFirstAndFiltered(t *testing.T) {
	gw, _, _ := newTestGateway()
	ctx := nurseCtx()
	for _, at := range []wallclock.Timestamp{
		wallclock.At(2025, 11, 20, 8, 0),
		wallclock.At(2025, 11, 20, 16, 0),
		wallclock.At(2025, 11, 20, 9, 0),
	} {
		if _, err := gw.RegisterVitalSigns(ctx, &VitalSigns{PatientID: 1, Date: at, Temperature: "36",
			BloodPressure: "120/80", HeartRate: "70", RespiratoryRate: "16"}); err != nil {
			t.Fatal(err)
		}
	}
	gw.RegisterVitalSigns(ctx, &VitalSigns{PatientID: 2, Temperature: "36", BloodPressure: "1", HeartRate: "1", RespiratoryRate: "1"})

	all, err := gw.ListVitals(ctx, 1, VitalsFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(ids(all), []int64{3, 2, 1}) {
		t.Errorf("expected reverse insertion order [3 2 1], got %v", ids(all))
	}

	morning, _ := gw.ListVitals(ctx, 1, VitalsFilter{Shift: nursing.ShiftMorning})
	if !equalIDs(ids(morning), []int64{3, 1}) {
		t.Errorf("expected morning entries [3 1], got %v", ids(morning))
	}
}

func TestInMemoryStore_List(t *testing.T) {
	stores := NewInMemoryStores()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		stores.Notes.Create(ctx, &NurseNote{PatientID: int64(i%2 + 1), Note: "n"})
	}
	page, total, err := stores.Notes.List(ctx, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 || len(page) != 2 || page[0].ID != 4 {
		t.Errorf("unexpected page: total=%d len=%d", total, len(page))
	}
	mine, _ := stores.Notes.ListByPatient(ctx, 2)
	if len(mine) != 2 || mine[0].ID != 2 || mine[1].ID != 4 {
		t.Errorf("unexpected patient notes: %+v", mine)
	}
}
