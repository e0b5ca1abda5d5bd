package fakebank

import (
	"github.com/shopspring/decimal"
)

const (
	serviceStateRequested = "REQ"

	transactionStateSuccess = "SUC"
)

type user struct {
	id       string
	fullName string
	username string
	passhash []byte
}

type service struct {
	id          string
	ownerID     string
	serviceType string
	state       string
	currency    string
	initBalance decimal.Decimal
	balance     decimal.Decimal
}

// funds is what a debit may draw on: the running balance plus the initial balance.
func (s *service) funds() decimal.Decimal {
	return s.balance.Add(s.initBalance)
}

// Service is a read-only snapshot of one account.
type Service struct {
	ID          string
	OwnerID     string
	Type        string
	State       string
	Currency    string
	InitBalance decimal.Decimal
	Balance     decimal.Decimal
}

func (s *service) snapshot() Service {
	return Service{
		ID:          s.id,
		OwnerID:     s.ownerID,
		Type:        s.serviceType,
		State:       s.state,
		Currency:    s.currency,
		InitBalance: s.initBalance,
		Balance:     s.balance,
	}
}

// Transaction is one accepted transfer.
type Transaction struct {
	ID          string
	State       string
	Currency    string
	Amount      decimal.Decimal
	Source      string
	Destination string
}

// Faults makes the matching route reply 500 while set.
type Faults struct {
	FailRegister      bool
	FailAuth          bool
	FailCreateService bool
	FailGetService    bool
	FailTransactions  bool
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullname"`
}

type authRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ID           string `json:"id"`
}

type createServiceRequest struct {
	Type        string `json:"type" binding:"required,oneof=SAV CHQ LOA LOC COD"`
	Currency    string `json:"currency" binding:"required,len=3"`
	InitBalance string `json:"init_balance" binding:"required"`
}

type idResponse struct {
	ID string `json:"id"`
}

type serviceSummary struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	State    string `json:"state"`
	Currency string `json:"currency"`
}

type serviceDetails struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	State       string `json:"state"`
	Currency    string `json:"currency"`
	InitBalance string `json:"init_balance"`
	Balance     string `json:"balance"`
}

type transactionRequest struct {
	Currency    string `json:"currency" binding:"required"`
	Amount      string `json:"amount" binding:"required"`
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}
