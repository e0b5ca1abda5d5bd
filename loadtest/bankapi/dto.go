package bankapi

import (
	"github.com/shopspring/decimal"
)

const (
	// ServiceTypeChequing is the account type created by simulated users.
	ServiceTypeChequing = "CHQ"

	// CurrencyUSD is the only currency the load profile trades in.
	CurrencyUSD = "USD"

	moneyDecimalPlaces = 2
)

// RegisterRequest is the body of POST /users.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullname"`
}

// AuthRequest is the body of POST /auth.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the reply of POST /auth.
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"id"`
}

func (r AuthResponse) validate() error {
	switch {
	case r.AccessToken == "":
		return missingField("access_token")
	case r.UserID == "":
		return missingField("id")
	default:
		return nil
	}
}

// ServiceSummary is one NDJSON line of GET /users/{id}/services.
// Only the id is required; the remaining fields are informational.
type ServiceSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	State    string `json:"state,omitempty"`
	Currency string `json:"currency,omitempty"`
}

func (s ServiceSummary) validate() error {
	if s.ID == "" {
		return missingField("id")
	}

	return nil
}

// CreateServiceRequest is the body of POST /users/{id}/services.
type CreateServiceRequest struct {
	Type        string `json:"type"`
	Currency    string `json:"currency"`
	InitBalance string `json:"init_balance"`
}

// NewCreateServiceRequest builds a USD chequing account request with the balance rendered to two decimals.
func NewCreateServiceRequest(initBalance decimal.Decimal) CreateServiceRequest {
	return CreateServiceRequest{
		Type:        ServiceTypeChequing,
		Currency:    CurrencyUSD,
		InitBalance: initBalance.StringFixed(moneyDecimalPlaces),
	}
}

// CreateServiceResponse is the reply of POST /users/{id}/services.
type CreateServiceResponse struct {
	ID string `json:"id"`
}

func (r CreateServiceResponse) validate() error {
	if r.ID == "" {
		return missingField("id")
	}

	return nil
}

// ServiceDetails is the reply of GET /services/{id}.
// Balance is the running balance relative to InitBalance; the funds available are their sum.
type ServiceDetails struct {
	ID          string              `json:"id,omitempty"`
	Type        string              `json:"type,omitempty"`
	State       string              `json:"state,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	Balance     decimal.NullDecimal `json:"balance"`
	InitBalance decimal.NullDecimal `json:"init_balance"`
}

func (d ServiceDetails) validate() error {
	switch {
	case !d.Balance.Valid:
		return missingField("balance")
	case !d.InitBalance.Valid:
		return missingField("init_balance")
	default:
		return nil
	}
}

// Total returns balance plus initial balance.
func (d ServiceDetails) Total() decimal.Decimal {
	return d.Balance.Decimal.Add(d.InitBalance.Decimal)
}

// TransactionRequest is the body of POST /transactions.
type TransactionRequest struct {
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// NewTransactionRequest builds a USD transfer with the amount rendered to two decimals.
func NewTransactionRequest(amount decimal.Decimal, source, destination string) TransactionRequest {
	return TransactionRequest{
		Currency:    CurrencyUSD,
		Amount:      amount.StringFixed(moneyDecimalPlaces),
		Source:      source,
		Destination: destination,
	}
}

// TransactionResponse is the optional reply body of POST /transactions.
type TransactionResponse struct {
	ID string `json:"id,omitempty"`
}
