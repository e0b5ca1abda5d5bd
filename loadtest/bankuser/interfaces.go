package bankuser

import (
	"context"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/bankapi"
)

// Store is the part of the shared local store a simulated user reads and writes.
// *localstore.Store satisfies it.
type Store interface {
	RandomIdentity(ctx context.Context) (loadtest.Identity, error)
	RandomServiceID(ctx context.Context) (string, error)
	AddServiceIDs(ctx context.Context, ids ...string) error
}

// API is the banking API as seen by a simulated user. *bankapi.Client satisfies it.
type API interface {
	Register(ctx context.Context, req bankapi.RegisterRequest) error
	Authenticate(ctx context.Context, req bankapi.AuthRequest) (bankapi.AuthResponse, error)
	ListServices(ctx context.Context, accessToken, userID string) ([]bankapi.ServiceSummary, error)
	CreateService(ctx context.Context, accessToken, userID string, req bankapi.CreateServiceRequest) (bankapi.CreateServiceResponse, error)
	GetService(ctx context.Context, accessToken, serviceID string) (bankapi.ServiceDetails, error)
	CreateTransaction(ctx context.Context, accessToken string, req bankapi.TransactionRequest) error
}
