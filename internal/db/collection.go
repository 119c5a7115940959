package db

import (
	"context"
	"time"

	"github.com/mkaydev/auto-shop/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, user models.User) error
	UpdateLastLogin(ctx context.Context, id string) error
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindVehicleByVIN(ctx context.Context, vin string) (*models.Vehicle, error)
	FindVehiclesByOwner(ctx context.Context, ownerID string) ([]models.Vehicle, error)
	UpdateVehicle(ctx context.Context, id string, vehicle models.Vehicle) error
	AppendServiceRecord(ctx context.Context, id string, rec models.ServiceRecord) error
	AppendDiagnosticRecord(ctx context.Context, id string, rec models.DiagnosticRecord) error
}

// ServiceCollection defines the interface for service catalog operations.
type ServiceCollection interface {
	InsertService(ctx context.Context, service *models.Service) error
	FindServiceByID(ctx context.Context, id string) (*models.Service, error)
	FindServicesByIDs(ctx context.Context, ids []string) ([]models.Service, error)
	FindActiveServices(ctx context.Context) ([]models.Service, error)
	UpdateService(ctx context.Context, id string, service models.Service) error
}

// AppointmentCollection defines the interface for appointment operations.
type AppointmentCollection interface {
	InsertAppointment(ctx context.Context, appointment *models.Appointment) error
	FindAppointmentByID(ctx context.Context, id string) (*models.Appointment, error)
	FindAppointments(ctx context.Context, filter bson.M) ([]models.Appointment, error)
	// CountActiveOnDate counts appointments on the given calendar date whose
	// status still holds a bay (scheduled, confirmed, in-progress).
	CountActiveOnDate(ctx context.Context, date time.Time) (int64, error)
	UpdateAppointment(ctx context.Context, id string, appointment models.Appointment) error
}

// InvoiceCollection defines the interface for invoice document operations.
type InvoiceCollection interface {
	InsertInvoice(ctx context.Context, invoice *models.Invoice) error
	FindInvoiceByID(ctx context.Context, id string) (*models.Invoice, error)
	FindInvoiceByAppointment(ctx context.Context, appointmentID string) (*models.Invoice, error)
	UpdateInvoice(ctx context.Context, id string, invoice models.Invoice) error
}
