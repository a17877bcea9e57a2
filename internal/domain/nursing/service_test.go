package nursing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/patient"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// -- Mock Repositories --

type mockStaffRepo struct {
	users  map[int64]*Staff
	nextID int64
}

func newMockStaffRepo() *mockStaffRepo {
	return &mockStaffRepo{users: make(map[int64]*Staff)}
}

func (m *mockStaffRepo) Create(_ context.Context, s *Staff) error {
	for _, u := range m.users {
		if u.Username == s.Username {
			return &apperr.ConflictError{Resource: "user", Key: s.Username}
		}
	}
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	m.users[s.ID] = s
	return nil
}

func (m *mockStaffRepo) GetByID(_ context.Context, id int64) (*Staff, error) {
	s, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s, nil
}

func (m *mockStaffRepo) List(_ context.Context, role string, limit, offset int) ([]*Staff, int, error) {
	var out []*Staff
	for _, s := range m.users {
		if role == "" || s.Role == role {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

type mockShiftRepo struct {
	shifts      map[int64]*NurseShift
	nextID      int64
	assignments *mockAssignmentRepo
	failWith    error
}

func newMockShiftRepo(assignments *mockAssignmentRepo) *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[int64]*NurseShift), assignments: assignments}
}

func (m *mockShiftRepo) Create(_ context.Context, s *NurseShift) error {
	m.nextID++
	s.ID = m.nextID
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.ID) * time.Minute)
	}
	m.shifts[s.ID] = s
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id int64) (*NurseShift, error) {
	s, ok := m.shifts[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s, nil
}

func (m *mockShiftRepo) ListByNurse(_ context.Context, nurseID int64, fromDate, toDate string) ([]*NurseShift, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []*NurseShift{}
	for _, s := range m.shifts {
		if s.NurseID == nurseID && s.Date >= fromDate && s.Date <= toDate {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *mockShiftRepo) CountAssignments(_ context.Context, shiftIDs []int64) (map[int64]int, error) {
	counts := map[int64]int{}
	for _, id := range shiftIDs {
		for _, a := range m.assignments.items {
			if a.ShiftID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

type mockAssignmentRepo struct {
	items []*ShiftAssignment
}

func (m *mockAssignmentRepo) Create(_ context.Context, a *ShiftAssignment) error {
	for _, x := range m.items {
		if x.ShiftID == a.ShiftID && x.PatientID == a.PatientID {
			return &apperr.ConflictError{Resource: "shift assignment", Key: fmt.Sprint(a.ShiftID)}
		}
	}
	a.ID = int64(len(m.items) + 1)
	a.CreatedAt = time.Now()
	m.items = append(m.items, a)
	return nil
}

func (m *mockAssignmentRepo) ListByShifts(_ context.Context, nurseID int64, shiftIDs []int64) ([]*ShiftAssignment, error) {
	wanted := map[int64]bool{}
	for _, id := range shiftIDs {
		wanted[id] = true
	}
	out := []*ShiftAssignment{}
	for _, a := range m.items {
		if a.NurseID == nurseID && wanted[a.ShiftID] {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockPatients struct {
	patients map[int64]*patient.Patient
}

func (m *mockPatients) ListByIDs(_ context.Context, ids []int64) ([]*patient.Patient, error) {
	out := []*patient.Patient{}
	for _, id := range ids {
		if p, ok := m.patients[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type fixture struct {
	staff       *mockStaffRepo
	shifts      *mockShiftRepo
	assignments *mockAssignmentRepo
	patients    *mockPatients
	svc         *Service
	resolver    *Resolver
}

var testNow = time.Date(2025, 11, 20, 10, 30, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		staff:       newMockStaffRepo(),
		assignments: &mockAssignmentRepo{},
		patients: &mockPatients{patients: map[int64]*patient.Patient{
			1: {ID: 1, Name: "Juan Pérez", Active: true},
			2: {ID: 2, Name: "María González", Active: true},
			3: {ID: 3, Name: "Carlos Rodríguez", Active: true},
			4: {ID: 4, Name: "Alta", Active: false},
		}},
	}
	f.shifts = newMockShiftRepo(f.assignments)
	f.svc = NewService(f.staff, f.shifts, f.assignments, f.patients, DefaultShiftWindows(), zerolog.Nop())
	f.resolver = NewResolver(f.staff, f.shifts, f.assignments, f.patients, DefaultWindowConfig(),
		wallclock.Fixed(time.UTC, testNow))
	return f
}

func (f *fixture) nurse(t *testing.T, name string) int64 {
	t.Helper()
	s := &Staff{Username: name, Name: name, Role: RoleNurse}
	if err := f.svc.CreateStaff(context.Background(), s); err != nil {
		t.Fatalf("create nurse: %v", err)
	}
	return s.ID
}

func (f *fixture) shift(t *testing.T, nurseID int64, date string, kind Shift) *NurseShift {
	t.Helper()
	s := &NurseShift{NurseID: nurseID, Date: date, ShiftType: kind}
	if err := f.svc.CreateShift(context.Background(), s); err != nil {
		t.Fatalf("create shift: %v", err)
	}
	return s
}

func (f *fixture) assign(t *testing.T, shiftID, patientID int64) {
	t.Helper()
	if err := f.svc.AssignPatient(context.Background(), &ShiftAssignment{ShiftID: shiftID, PatientID: patientID}); err != nil {
		t.Fatalf("assign: %v", err)
	}
}

// -- Staff --

func TestCreateStaff(t *testing.T) {
	f := newFixture()
	s := &Staff{Username: " enfermero ", Name: "Juan López", Role: "Nurse", Email: "jl@hospital.mx"}
	if err := f.svc.CreateStaff(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID == 0 || !s.Active || s.Role != RoleNurse || s.Username != "enfermero" {
		t.Errorf("unexpected user: %+v", s)
	}
}

func TestCreateStaff_Validation(t *testing.T) {
	pid := int64(1)
	tests := []struct {
		name  string
		in    Staff
		field string
	}{
		{"missing username", Staff{Name: "A", Role: RoleNurse}, "username"},
		{"missing name", Staff{Username: "a", Role: RoleNurse}, "name"},
		{"missing role", Staff{Username: "a", Name: "A"}, "role"},
		{"unknown role", Staff{Username: "a", Name: "A", Role: "janitor"}, "role"},
		{"patient without id", Staff{Username: "a", Name: "A", Role: RolePatient}, "patient_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			s := tt.in
			err := f.svc.CreateStaff(context.Background(), &s)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}

	f := newFixture()
	s := &Staff{Username: "paciente", Name: "Juan Pérez", Role: RolePatient, PatientID: &pid}
	if err := f.svc.CreateStaff(context.Background(), s); err != nil {
		t.Fatalf("patient account with id should be accepted: %v", err)
	}
}

func TestCreateStaff_DuplicateUsername(t *testing.T) {
	f := newFixture()
	f.nurse(t, "enfermero")
	err := f.svc.CreateStaff(context.Background(), &Staff{Username: "enfermero", Name: "Otro", Role: RoleNurse})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

// -- Shifts --

func TestCreateShift_DefaultsFromWindows(t *testing.T) {
	f := newFixture()
	id := f.nurse(t, "enfermero")

	s := &NurseShift{NurseID: id, Date: "2025-11-20", ShiftType: "night", Department: " Urgencias "}
	if err := f.svc.CreateShift(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ShiftType != ShiftNight || s.StartTime != "23:00" || s.EndTime != "07:00" {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.Department != "Urgencias" {
		t.Errorf("expected trimmed department, got %q", s.Department)
	}
}

func TestCreateShift_NormalizesTimes(t *testing.T) {
	f := newFixture()
	id := f.nurse(t, "enfermero")

	s := &NurseShift{NurseID: id, Date: "2025-11-20", ShiftType: ShiftMorning, StartTime: "7:00", EndTime: "15:00"}
	if err := f.svc.CreateShift(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.StartTime != "07:00" {
		t.Errorf("expected start 07:00, got %q", s.StartTime)
	}
	if s.StartTime > s.EndTime {
		t.Errorf("expected %q to sort before %q", s.StartTime, s.EndTime)
	}
}

func TestCreateShift_Validation(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	doctor := &Staff{Username: "medico", Name: "Dr. House", Role: RoleDoctor}
	f.svc.CreateStaff(context.Background(), doctor)

	tests := []struct {
		name  string
		in    NurseShift
		field string
	}{
		{"missing nurse", NurseShift{Date: "2025-11-20", ShiftType: ShiftMorning}, "nurse_id"},
		{"missing date", NurseShift{NurseID: nurseID, ShiftType: ShiftMorning}, "date"},
		{"bad date", NurseShift{NurseID: nurseID, Date: "20-11-2025", ShiftType: ShiftMorning}, "date"},
		{"missing type", NurseShift{NurseID: nurseID, Date: "2025-11-20"}, "shift_type"},
		{"bad type", NurseShift{NurseID: nurseID, Date: "2025-11-20", ShiftType: "siesta"}, "shift_type"},
		{"bad start", NurseShift{NurseID: nurseID, Date: "2025-11-20", ShiftType: ShiftMorning, StartTime: "7"}, "start_time"},
		{"unknown nurse", NurseShift{NurseID: 99, Date: "2025-11-20", ShiftType: ShiftMorning}, "nurse_id"},
		{"not a nurse", NurseShift{NurseID: doctor.ID, Date: "2025-11-20", ShiftType: ShiftMorning}, "nurse_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.in
			err := f.svc.CreateShift(context.Background(), &s)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestAssignPatient(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	s := f.shift(t, nurseID, "2025-11-20", ShiftMorning)

	a := &ShiftAssignment{ShiftID: s.ID, PatientID: 1, AssignmentNotes: " vigilar glucosa "}
	if err := f.svc.AssignPatient(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.NurseID != nurseID || a.AssignmentNotes != "vigilar glucosa" {
		t.Errorf("unexpected assignment: %+v", a)
	}

	err := f.svc.AssignPatient(context.Background(), &ShiftAssignment{ShiftID: s.ID, PatientID: 1})
	if !apperr.IsConflict(err) {
		t.Errorf("expected conflict on duplicate, got %v", err)
	}
	err = f.svc.AssignPatient(context.Background(), &ShiftAssignment{ShiftID: s.ID, PatientID: 4})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for discharged patient, got %v", err)
	}
	err = f.svc.AssignPatient(context.Background(), &ShiftAssignment{ShiftID: s.ID, PatientID: 2, NurseID: nurseID + 1})
	if !apperr.IsValidation(err) {
		t.Errorf("expected validation error for mismatched nurse, got %v", err)
	}
	err = f.svc.AssignPatient(context.Background(), &ShiftAssignment{ShiftID: 77, PatientID: 2})
	if !apperr.IsNotFound(err) {
		t.Errorf("expected not found for unknown shift, got %v", err)
	}
}

// -- Resolver --

func TestResolveActiveShift_Morning(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	morning := f.shift(t, nurseID, "2025-11-20", ShiftMorning)
	f.shift(t, nurseID, "2025-11-20", ShiftAfternoon)
	f.assign(t, morning.ID, 1)

	got, err := f.resolver.ResolveActiveShift(context.Background(), nurseID, wallclock.At(2025, 11, 20, 10, 30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != morning.ID {
		t.Fatalf("expected morning shift, got %+v", got)
	}
	if got.AssignedPatientsCount != 1 {
		t.Errorf("expected 1 assigned patient, got %d", got.AssignedPatientsCount)
	}
}

func TestResolveActiveShift_OvernightFromPreviousDay(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	night := f.shift(t, nurseID, "2025-11-19", ShiftNight)

	got, err := f.resolver.ResolveActiveShift(context.Background(), nurseID, wallclock.At(2025, 11, 20, 3, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != night.ID {
		t.Fatalf("expected the night shift from the previous day, got %+v", got)
	}

	got, _ = f.resolver.ResolveActiveShift(context.Background(), nurseID, wallclock.At(2025, 11, 20, 7, 0))
	if got != nil {
		t.Errorf("night shift should have ended at 07:00, got %+v", got)
	}
}

func TestResolveActiveShift_LatestCreatedWins(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	older := &NurseShift{NurseID: nurseID, Date: "2025-11-20", ShiftType: ShiftMorning,
		CreatedAt: time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)}
	newer := &NurseShift{NurseID: nurseID, Date: "2025-11-20", ShiftType: ShiftMorning, StartTime: "09:00", EndTime: "13:00",
		CreatedAt: time.Date(2025, 11, 2, 8, 0, 0, 0, time.UTC)}
	f.svc.CreateShift(context.Background(), newer)
	f.svc.CreateShift(context.Background(), older)

	got, err := f.resolver.ResolveActiveShift(context.Background(), nurseID, wallclock.At(2025, 11, 20, 10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != newer.ID {
		t.Fatalf("expected the latest created shift, got %+v", got)
	}
}

func TestResolveActiveShift_TieGoesToHigherID(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	created := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	a := &NurseShift{NurseID: nurseID, Date: "2025-11-20", ShiftType: ShiftMorning, CreatedAt: created}
	b := &NurseShift{NurseID: nurseID, Date: "2025-11-20", ShiftType: ShiftMorning, CreatedAt: created}
	f.svc.CreateShift(context.Background(), a)
	f.svc.CreateShift(context.Background(), b)

	got, _ := f.resolver.ResolveActiveShift(context.Background(), nurseID, wallclock.At(2025, 11, 20, 10, 0))
	if got == nil || got.ID != b.ID {
		t.Fatalf("expected shift %d, got %+v", b.ID, got)
	}
}

func TestResolveActiveShift_OffDuty(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	f.shift(t, nurseID, "2025-11-20", ShiftMorning)

	got, err := f.resolver.ResolveActiveShift(context.Background(), nurseID, wallclock.At(2025, 11, 20, 16, 0))
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", got, err)
	}
}

func TestResolver_AbsentNurse(t *testing.T) {
	f := newFixture()
	doctor := &Staff{Username: "medico", Name: "Dr.", Role: RoleDoctor}
	f.svc.CreateStaff(context.Background(), doctor)
	ctx := context.Background()

	for _, id := range []int64{404, doctor.ID} {
		s, err := f.resolver.ResolveActiveShift(ctx, id, wallclock.Of(testNow))
		if err != nil || s != nil {
			t.Errorf("nurse %d: expected no active shift, got %+v, %v", id, s, err)
		}
		ps, err := f.resolver.ResolveAssignedPatients(ctx, id, wallclock.Of(testNow))
		if err != nil || ps == nil || len(ps) != 0 {
			t.Errorf("nurse %d: expected empty patients, got %v, %v", id, ps, err)
		}
		ss, err := f.resolver.ListShiftsInWindow(ctx, id, testNow, testNow.AddDate(0, 0, 7))
		if err != nil || ss == nil || len(ss) != 0 {
			t.Errorf("nurse %d: expected empty shifts, got %v, %v", id, ss, err)
		}
	}
}

func TestResolveAssignedPatients_Window(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	other := f.nurse(t, "enfermera")

	inside := f.shift(t, nurseID, "2025-11-18", ShiftAfternoon)
	later := f.shift(t, nurseID, "2025-11-23", ShiftMorning)
	tooOld := f.shift(t, nurseID, "2025-11-10", ShiftMorning)
	tooLate := f.shift(t, nurseID, "2025-11-25", ShiftMorning)
	colleague := f.shift(t, other, "2025-11-20", ShiftMorning)

	f.patients.patients[4].Active = true
	f.assign(t, later.ID, 2)
	f.assign(t, inside.ID, 1)
	f.assign(t, inside.ID, 4)
	f.assign(t, later.ID, 1)
	f.patients.patients[4].Active = false
	f.assign(t, tooOld.ID, 3)
	f.assign(t, tooLate.ID, 3)
	f.assign(t, colleague.ID, 3)

	got, err := f.resolver.ResolveAssignedPatients(context.Background(), nurseID, wallclock.At(2025, 11, 20, 10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ids []int64
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	if fmt.Sprint(ids) != "[2 1]" {
		t.Errorf("expected distinct active patients [2 1] in assignment order, got %v", ids)
	}
}

func TestResolveAssignedPatients_CustomWindow(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	s := f.shift(t, nurseID, "2025-11-18", ShiftMorning)
	f.assign(t, s.ID, 1)

	narrow := NewResolver(f.staff, f.shifts, f.assignments, f.patients,
		WindowConfig{Before: 12 * time.Hour, After: 12 * time.Hour}, wallclock.Fixed(time.UTC, testNow))
	got, err := narrow.ResolveAssignedPatients(context.Background(), nurseID, wallclock.At(2025, 11, 20, 10, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no patients in a 12h window, got %d", len(got))
	}
}

func TestListShiftsInWindow(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	b := f.shift(t, nurseID, "2025-11-21", ShiftNight)
	a := f.shift(t, nurseID, "2025-11-21", ShiftMorning)
	c := f.shift(t, nurseID, "2025-11-20", ShiftAfternoon)
	f.shift(t, nurseID, "2025-11-22", ShiftMorning)
	f.assign(t, a.ID, 1)
	f.assign(t, a.ID, 2)

	start := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)
	got, err := f.resolver.ListShiftsInWindow(context.Background(), nurseID, start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0].ID != c.ID || got[1].ID != a.ID || got[2].ID != b.ID {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].AssignedPatientsCount != 2 || got[0].AssignedPatientsCount != 0 {
		t.Errorf("unexpected counts: %d, %d", got[1].AssignedPatientsCount, got[0].AssignedPatientsCount)
	}
}

func TestResolver_StoreFailure(t *testing.T) {
	f := newFixture()
	nurseID := f.nurse(t, "enfermero")
	f.shifts.failWith = errors.New("connection reset")

	if _, err := f.resolver.ResolveActiveShift(context.Background(), nurseID, wallclock.Of(testNow)); !apperr.IsStore(err) {
		t.Errorf("expected StoreError, got %v", err)
	}
	if _, err := f.resolver.ResolveAssignedPatients(context.Background(), nurseID, wallclock.Of(testNow)); !apperr.IsStore(err) {
		t.Errorf("expected StoreError, got %v", err)
	}
}
