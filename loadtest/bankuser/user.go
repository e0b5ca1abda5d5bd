package bankuser

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/bankapi"
)

// Outcome labels reported by RunTransaction.
const (
	OutcomeTransferred               = "transferred"
	OutcomeSkippedSameAccount        = "skipped_same_account"
	OutcomeSkippedBalanceUnavailable = "skipped_balance_unavailable"
	OutcomeSkippedNoFunds            = "skipped_no_funds"
	OutcomeSkippedTransferRejected   = "skipped_transfer_rejected"
)

const (
	defaultMinInitialBalance = int64(100)
	defaultMaxInitialBalance = int64(1_000_000)
	amountDecimalPlaces      = int32(2)
)

// Session is the per-user state built during Bootstrap.
type Session struct {
	FullName     string
	Username     string
	Password     string
	AccessToken  string
	RefreshToken string
	UserID       string
	Services     []loadtest.Account
}

// User is one simulated bank customer. A User is not safe for concurrent use.
type User struct {
	store             Store
	api               API
	rng               *rand.Rand
	session           Session
	bootstrapped      bool
	minInitialBalance int64
	maxInitialBalance int64
	logger            loadtest.Logger
	contextualLogger  loadtest.ContextualLogger
	metricsCollector  loadtest.MetricsCollector
	tracingCollector  loadtest.TracingCollector
}

// NewUser creates a simulated user. Store and API are shared, rng must be owned by this user.
func NewUser(store Store, api API, rng *rand.Rand, options ...Option) (*User, error) {
	if store == nil || api == nil || rng == nil {
		return nil, ErrNilDependency
	}

	u := &User{
		store:             store,
		api:               api,
		rng:               rng,
		session:           Session{Services: make([]loadtest.Account, 0, 1)},
		minInitialBalance: defaultMinInitialBalance,
		maxInitialBalance: defaultMaxInitialBalance,
	}

	for _, option := range options {
		if err := option(u); err != nil {
			return nil, err
		}
	}

	return u, nil
}

// Session returns a copy of the session state.
func (u *User) Session() Session {
	session := u.session
	session.Services = slices.Clone(u.session.Services)

	return session
}

// Bootstrap prepares the session: identity, tokens and at least one owned account.
// Any returned error is fatal for the session.
func (u *User) Bootstrap(ctx context.Context) (err error) {
	ctx, observer := u.startObservation(ctx, operationBootstrap)
	defer func() { observer.finish(err, "") }()

	identity, err := u.store.RandomIdentity(ctx)
	if err != nil {
		return err
	}

	u.session.FullName = identity.FullName
	u.session.Username = identity.Username
	u.session.Password = identity.Password

	if authErr := u.authenticate(ctx); authErr != nil {
		u.logDebug(ctx, logMsgAuthFailedRegistering, logAttrUsername, identity.Username, logAttrError, authErr.Error())

		if regErr := u.register(ctx); regErr != nil {
			return errors.Join(ErrCouldNotRegister, regErr)
		}

		if authErr = u.authenticate(ctx); authErr != nil {
			return errors.Join(ErrCouldNotAuthenticate, authErr)
		}
	}

	if err = u.discoverServices(ctx); err != nil {
		return err
	}

	if len(u.session.Services) == 0 {
		if err = u.createFirstService(ctx); err != nil {
			return err
		}
	}

	u.bootstrapped = true
	u.logInfo(ctx, logMsgBootstrapped,
		logAttrUsername, u.session.Username,
		logAttrUserID, u.session.UserID,
		logAttrServiceCount, len(u.session.Services))

	return nil
}

// RunTask runs one transfer attempt. It lets a User serve as a swarm behavior.
func (u *User) RunTask(ctx context.Context) (string, error) {
	return u.RunTransaction(ctx)
}

// RunTransaction attempts one transfer from a random owned account to a random known account.
// API failures end the attempt silently and are reported as an outcome label. An error is returned
// only for local-store failures, cancellation, or a missing bootstrap.
func (u *User) RunTransaction(ctx context.Context) (outcome string, err error) {
	if !u.bootstrapped || len(u.session.Services) == 0 {
		return "", ErrNotBootstrapped
	}

	ctx, observer := u.startObservation(ctx, operationRunTransaction)
	defer func() { observer.finish(err, outcome) }()

	source := u.session.Services[u.rng.IntN(len(u.session.Services))].ID

	destination, err := u.store.RandomServiceID(ctx)
	if err != nil {
		return "", err
	}

	if source == destination {
		return OutcomeSkippedSameAccount, nil
	}

	details, err := u.api.GetService(ctx, u.session.AccessToken, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		return OutcomeSkippedBalanceUnavailable, nil
	}

	total := details.Total()
	if !total.IsPositive() {
		return OutcomeSkippedNoFunds, nil
	}

	amount := TransferAmount(u.rng.Float64(), total)

	err = u.api.CreateTransaction(ctx, u.session.AccessToken, bankapi.NewTransactionRequest(amount, source, destination))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		return OutcomeSkippedTransferRejected, nil
	}

	return OutcomeTransferred, nil
}

// TransferAmount shapes a uniform draw u in [0, 1) into u² × total, rounded down to cents.
// For a positive total the result lies in [0, total], and half of all amounts are below total/4.
func TransferAmount(u float64, total decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(u * u).Mul(total).RoundFloor(amountDecimalPlaces)
}

func (u *User) authenticate(ctx context.Context) error {
	resp, err := u.api.Authenticate(ctx, bankapi.AuthRequest{
		Username: u.session.Username,
		Password: u.session.Password,
	})
	if err != nil {
		return err
	}

	u.session.AccessToken = resp.AccessToken
	u.session.RefreshToken = resp.RefreshToken
	u.session.UserID = resp.UserID

	return nil
}

func (u *User) register(ctx context.Context) error {
	return u.api.Register(ctx, bankapi.RegisterRequest{
		Username: u.session.Username,
		Password: u.session.Password,
		FullName: u.session.FullName,
	})
}

func (u *User) discoverServices(ctx context.Context) error {
	summaries, err := u.api.ListServices(ctx, u.session.AccessToken, u.session.UserID)
	if err != nil {
		return errors.Join(ErrCouldNotListServices, err)
	}

	if len(summaries) == 0 {
		return nil
	}

	ids := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
		u.session.Services = append(u.session.Services, loadtest.Account{ID: summary.ID})
	}

	return u.store.AddServiceIDs(ctx, ids...)
}

func (u *User) createFirstService(ctx context.Context) error {
	initialBalance := decimal.NewFromInt(u.minInitialBalance + u.rng.Int64N(u.maxInitialBalance-u.minInitialBalance+1))

	resp, err := u.api.CreateService(ctx, u.session.AccessToken, u.session.UserID, bankapi.NewCreateServiceRequest(initialBalance))
	if err != nil {
		return errors.Join(ErrCouldNotCreateService, err)
	}

	if err = u.store.AddServiceIDs(ctx, resp.ID); err != nil {
		return err
	}

	u.session.Services = append(u.session.Services, loadtest.Account{ID: resp.ID})
	u.logInfo(ctx, logMsgServiceCreated, logAttrServiceID, resp.ID, logAttrInitialBalance, initialBalance.String())

	return nil
}
