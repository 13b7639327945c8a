package oekoboiler

import (
	"context"
	"iter"
)

// BoilerAPI defines the operations of the Oekoboiler client.
// Client implements this interface, enabling mocking for tests.
type BoilerAPI interface {
	// Devices and raw properties
	ListDevices(ctx context.Context) ([]Device, error)
	Devices(ctx context.Context) iter.Seq2[Device, error]
	GetDeviceProperties(ctx context.Context, dsn string) ([]DeviceProperty, error)
	UpdateProperty(ctx context.Context, key int, value any) error

	// Mapped boiler view
	GetBoiler(ctx context.Context, dsn string) (*Boiler, error)
	GetBoilerKeys(ctx context.Context, dsn string) (BoilerKeys, error)
	SetWaterTemperature(ctx context.Context, dsn string, celsius int) error
	SetBoilerPower(ctx context.Context, dsn string, on bool) error
	SetPVFunction(ctx context.Context, dsn string, on bool) error

	// Token lifecycle
	SignIn(ctx context.Context) error
	ResetToken()
	TokenState() TokenState
}

var _ BoilerAPI = (*Client)(nil)
