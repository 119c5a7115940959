package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mkaydev/auto-shop/internal/db"
	"github.com/mkaydev/auto-shop/internal/models"
	"github.com/mkaydev/auto-shop/internal/notify"
)

type fakeAppointments struct {
	inserted    []*models.Appointment
	updated     map[string]models.Appointment
	activeCount int64
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{updated: make(map[string]models.Appointment)}
}

func (f *fakeAppointments) InsertAppointment(_ context.Context, a *models.Appointment) error {
	a.ID = primitive.NewObjectID()
	f.inserted = append(f.inserted, a)
	return nil
}

func (f *fakeAppointments) FindAppointmentByID(_ context.Context, id string) (*models.Appointment, error) {
	for _, a := range f.inserted {
		if a.ID.Hex() == id {
			return a, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeAppointments) FindAppointments(_ context.Context, _ bson.M) ([]models.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointments) CountActiveOnDate(_ context.Context, _ time.Time) (int64, error) {
	return f.activeCount, nil
}

func (f *fakeAppointments) UpdateAppointment(_ context.Context, id string, a models.Appointment) error {
	f.updated[id] = a
	return nil
}

type fakeVehicles struct {
	vehicles       map[string]*models.Vehicle
	serviceRecords []models.ServiceRecord
}

func newFakeVehicles(vehicles ...*models.Vehicle) *fakeVehicles {
	f := &fakeVehicles{vehicles: make(map[string]*models.Vehicle)}
	for _, v := range vehicles {
		f.vehicles[v.ID.Hex()] = v
	}
	return f
}

func (f *fakeVehicles) InsertVehicle(_ context.Context, v *models.Vehicle) error {
	v.ID = primitive.NewObjectID()
	f.vehicles[v.ID.Hex()] = v
	return nil
}

func (f *fakeVehicles) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return v, nil
}

func (f *fakeVehicles) FindVehicleByVIN(_ context.Context, _ string) (*models.Vehicle, error) {
	return nil, db.ErrNotFound
}

func (f *fakeVehicles) FindVehiclesByOwner(_ context.Context, _ string) ([]models.Vehicle, error) {
	return nil, nil
}

func (f *fakeVehicles) UpdateVehicle(_ context.Context, _ string, _ models.Vehicle) error {
	return nil
}

func (f *fakeVehicles) AppendServiceRecord(_ context.Context, _ string, rec models.ServiceRecord) error {
	f.serviceRecords = append(f.serviceRecords, rec)
	return nil
}

func (f *fakeVehicles) AppendDiagnosticRecord(_ context.Context, _ string, _ models.DiagnosticRecord) error {
	return nil
}

type fakeServices struct {
	services map[string]models.Service
}

func newFakeServices(services ...models.Service) *fakeServices {
	f := &fakeServices{services: make(map[string]models.Service)}
	for _, s := range services {
		f.services[s.ID.Hex()] = s
	}
	return f
}

func (f *fakeServices) InsertService(_ context.Context, s *models.Service) error {
	s.ID = primitive.NewObjectID()
	f.services[s.ID.Hex()] = *s
	return nil
}

func (f *fakeServices) FindServiceByID(_ context.Context, id string) (*models.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (f *fakeServices) FindServicesByIDs(_ context.Context, ids []string) ([]models.Service, error) {
	var out []models.Service
	for _, id := range ids {
		if s, ok := f.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeServices) FindActiveServices(_ context.Context) ([]models.Service, error) {
	return nil, nil
}

func (f *fakeServices) UpdateService(_ context.Context, _ string, _ models.Service) error {
	return nil
}

func testFixtures() (*fakeAppointments, *fakeVehicles, *fakeServices, *models.Vehicle, []models.Service) {
	vehicle := &models.Vehicle{
		ID:      primitive.NewObjectID(),
		OwnerID: primitive.NewObjectID().Hex(),
		Make:    "Toyota",
		Model:   "Camry",
		Year:    2019,
	}
	services := []models.Service{
		{ID: primitive.NewObjectID(), Name: "Oil Change", BasePrice: 89.99, Duration: 45, IsActive: true},
		{ID: primitive.NewObjectID(), Name: "Brake Service", BasePrice: 149.99, Duration: 60, IsActive: true},
	}
	return newFakeAppointments(), newFakeVehicles(vehicle), newFakeServices(services...), vehicle, services
}

func TestEngine_Create(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	req := CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex(), svcs[1].ID.Hex()},
		Date:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TimeOfDay:  "10:00",
		Concerns:   "squealing brakes",
	}

	appointment, err := engine.Create(context.Background(), req, nil)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, appointment.Status)
	assert.Equal(t, 105, appointment.EstimatedDuration)
	assert.Equal(t, 239.98, appointment.EstimatedCost)
	assert.Equal(t, models.PaymentPending, appointment.PaymentStatus)
	assert.Equal(t, "medium", appointment.Priority)

	assert.Len(t, appointment.Timeline, 1)
	assert.Equal(t, models.StatusScheduled, appointment.Timeline[0].Status)
	assert.Equal(t, "Appointment scheduled", appointment.Timeline[0].Description)
	assert.Len(t, appointments.inserted, 1)
}

func TestEngine_Create_CapacityReached(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	appointments.activeCount = models.SameDayCapacity
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	_, err := engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, nil)
	assert.ErrorIs(t, err, ErrSchedulingConflict)
	assert.Empty(t, appointments.inserted)
}

func TestEngine_Create_OwnershipEnforcedForCustomers(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	stranger := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCustomer}
	_, err := engine.Create(context.Background(), CreateRequest{
		CustomerID: stranger.ID.Hex(),
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, stranger)
	assert.ErrorIs(t, err, ErrVehicleNotOwned)

	// Staff can book on behalf of any customer.
	manager := &models.User{ID: primitive.NewObjectID(), Role: models.RoleManager}
	_, err = engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, manager)
	assert.NoError(t, err)
}

func TestEngine_Create_ServiceValidation(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	_, err := engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{primitive.NewObjectID().Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, nil)
	assert.ErrorIs(t, err, ErrServiceUnknown)

	inactive := models.Service{ID: primitive.NewObjectID(), Name: "Retired", BasePrice: 50, IsActive: false}
	services.services[inactive.ID.Hex()] = inactive
	_, err = engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{inactive.ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, nil)
	assert.ErrorIs(t, err, ErrServiceInactive)

	_, err = engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "half past nine",
	}, nil)
	assert.ErrorIs(t, err, ErrInvalidTime)

	// Trailing garbage and missing zero padding are not valid clock times.
	for _, bad := range []string{"12:34xyz", "9:5"} {
		_, err = engine.Create(context.Background(), CreateRequest{
			CustomerID: vehicle.OwnerID,
			VehicleID:  vehicle.ID.Hex(),
			ServiceIDs: []string{svcs[0].ID.Hex()},
			Date:       time.Now(),
			TimeOfDay:  bad,
		}, nil)
		assert.ErrorIs(t, err, ErrInvalidTime, "time %q", bad)
	}
}

func TestEngine_UpdateStatus(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	appointment, err := engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, nil)
	assert.NoError(t, err)

	// Every legal step appends exactly one timeline entry and the last
	// entry always matches the current status.
	steps := []models.AppointmentStatus{
		models.StatusConfirmed,
		models.StatusInProgress,
		models.StatusCompleted,
	}
	for i, status := range steps {
		err := engine.UpdateStatus(context.Background(), appointment, status, "")
		assert.NoError(t, err)
		assert.Len(t, appointment.Timeline, i+2)
		assert.Equal(t, status, appointment.Status)
		assert.Equal(t, status, appointment.Timeline[len(appointment.Timeline)-1].Status)
	}

	// Completion records the work on the vehicle.
	assert.Len(t, vehicles.serviceRecords, 1)
	assert.Equal(t, appointment.ID.Hex(), vehicles.serviceRecords[0].AppointmentID)

	// Completed is terminal.
	err = engine.UpdateStatus(context.Background(), appointment, models.StatusInProgress, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, appointment.Timeline, 4)
}

func TestEngine_UpdateStatus_RejectsIllegalJump(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	appointment, _ := engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, nil)

	err := engine.UpdateStatus(context.Background(), appointment, models.StatusCompleted, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StatusScheduled, appointment.Status)
	assert.Len(t, appointment.Timeline, 1)

	err = engine.UpdateStatus(context.Background(), appointment, "bogus", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngine_Reschedule(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	appointment, _ := engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		TimeOfDay:  "10:00",
	}, nil)
	assert.NoError(t, engine.UpdateStatus(context.Background(), appointment, models.StatusConfirmed, ""))

	newDate := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)
	err := engine.Reschedule(context.Background(), appointment, newDate, "14:00")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, appointment.Status)
	assert.Equal(t, newDate, appointment.Date)
	assert.Equal(t, "14:00", appointment.TimeOfDay)
	assert.Equal(t, "Appointment rescheduled", appointment.Timeline[len(appointment.Timeline)-1].Description)

	// A no-show comes back through rescheduling.
	assert.NoError(t, engine.UpdateStatus(context.Background(), appointment, models.StatusNoShow, ""))
	assert.NoError(t, engine.Reschedule(context.Background(), appointment, newDate, "15:00"))
	assert.Equal(t, models.StatusScheduled, appointment.Status)
}

func TestEngine_Reschedule_Guards(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	appointment, _ := engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, nil)

	err := engine.Reschedule(context.Background(), appointment, time.Now(), "bad time")
	assert.ErrorIs(t, err, ErrInvalidTime)

	assert.NoError(t, engine.Cancel(context.Background(), appointment))
	err = engine.Reschedule(context.Background(), appointment, time.Now(), "14:00")
	assert.ErrorIs(t, err, ErrRescheduleFinal)
}

func TestEngine_Cancel(t *testing.T) {
	appointments, vehicles, services, vehicle, svcs := testFixtures()
	engine := NewEngine(appointments, vehicles, services, notify.NopNotifier{})

	appointment, _ := engine.Create(context.Background(), CreateRequest{
		CustomerID: vehicle.OwnerID,
		VehicleID:  vehicle.ID.Hex(),
		ServiceIDs: []string{svcs[0].ID.Hex()},
		Date:       time.Now(),
		TimeOfDay:  "10:00",
	}, nil)

	assert.NoError(t, engine.Cancel(context.Background(), appointment))
	assert.Equal(t, models.StatusCancelled, appointment.Status)

	// Cancelling twice still lands in cancelled; only completed is guarded.
	assert.NoError(t, engine.Cancel(context.Background(), appointment))

	completed := &models.Appointment{ID: primitive.NewObjectID(), Status: models.StatusCompleted}
	assert.ErrorIs(t, engine.Cancel(context.Background(), completed), ErrCancelCompleted)
}
