package fakebank

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Route keys for Calls.
const (
	RouteRegister          = "POST /users"
	RouteAuth              = "POST /auth"
	RouteListServices      = "GET /users/:id/services"
	RouteCreateService     = "POST /users/:id/services"
	RouteGetService        = "GET /services/:id"
	RouteCreateTransaction = "POST /transactions"
)

var (
	// ErrUsernameTaken is returned when a username is registered twice.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUnknownUser is returned when arranging data for a user id that does not exist.
	ErrUnknownUser = errors.New("unknown user")
)

// Server holds the in-memory bank state and its HTTP routes.
type Server struct {
	mu           sync.Mutex
	usersByName  map[string]*user
	usersByID    map[string]*user
	services     map[string]*service
	ownedBy      map[string][]string
	transactions []Transaction
	faults       Faults
	calls        map[string]int

	secret     []byte
	bcryptCost int
	router     *gin.Engine
}

// Option defines a functional option for configuring Server.
type Option func(*Server) error

// WithSecret sets the HS256 signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) error {
		if len(secret) == 0 {
			return errors.New("jwt secret must not be empty")
		}

		s.secret = secret

		return nil
	}
}

// WithBcryptCost sets the password hashing cost, tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) error {
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return bcrypt.InvalidCostError(cost)
		}

		s.bcryptCost = cost

		return nil
	}
}

// WithFaults sets the initial fault injection flags.
func WithFaults(faults Faults) Option {
	return func(s *Server) error {
		s.faults = faults
		return nil
	}
}

// NewServer creates an empty bank with optional configuration.
func NewServer(options ...Option) (*Server, error) {
	s := &Server{
		usersByName: make(map[string]*user),
		usersByID:   make(map[string]*user),
		services:    make(map[string]*service),
		ownedBy:     make(map[string][]string),
		calls:       make(map[string]int),
		secret:      []byte(uuid.NewString()),
		bcryptCost:  bcrypt.DefaultCost,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	s.router = s.routes()

	return s, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.countCalls())

	router.POST("/users", s.register)
	router.POST("/auth", s.authenticate)
	router.POST("/transactions", s.requireAccessToken(), s.createTransaction)
	router.GET("/services/:id", s.requireAccessToken(), s.getService)

	owned := router.Group("/users/:id", s.requireAccessToken(), s.requireSelf())
	owned.GET("/services", s.listServices)
	owned.POST("/services", s.createService)

	return router
}

// SetFaults replaces the fault injection flags.
func (s *Server) SetFaults(faults Faults) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.faults = faults
}

// Calls returns how often the route was hit, e.g. Calls(RouteCreateService).
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[route]
}

// AddUser registers a user directly and returns its id.
func (s *Server) AddUser(fullName, username, password string) (string, error) {
	passhash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addUserLocked(fullName, username, passhash)
}

// AddService opens a USD chequing account for userID and returns its id.
func (s *Server) AddService(userID string, initBalance decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.usersByID[userID]; !ok {
		return "", ErrUnknownUser
	}

	return s.addServiceLocked(userID, "CHQ", "USD", initBalance)
}

// Service returns a snapshot of the account.
func (s *Server) Service(id string) (Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	srv, ok := s.services[id]
	if !ok {
		return Service{}, false
	}

	return srv.snapshot(), true
}

// ServicesOf returns snapshots of the accounts owned by userID in creation order.
func (s *Server) ServicesOf(userID string) []Service {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshots := make([]Service, 0, len(s.ownedBy[userID]))
	for _, id := range s.ownedBy[userID] {
		snapshots = append(snapshots, s.services[id].snapshot())
	}

	return snapshots
}

// UserID returns the id of the user with the given username.
func (s *Server) UserID(username string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByName[username]
	if !ok {
		return "", false
	}

	return u.id, true
}

// Transactions returns all accepted transfers in submission order.
func (s *Server) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Transaction(nil), s.transactions...)
}

func (s *Server) addUserLocked(fullName, username string, passhash []byte) (string, error) {
	if _, taken := s.usersByName[username]; taken {
		return "", ErrUsernameTaken
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	u := &user{id: id.String(), fullName: fullName, username: username, passhash: passhash}
	s.usersByName[username] = u
	s.usersByID[u.id] = u

	return u.id, nil
}

func (s *Server) addServiceLocked(ownerID, serviceType, currency string, initBalance decimal.Decimal) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	srv := &service{
		id:          id.String(),
		ownerID:     ownerID,
		serviceType: serviceType,
		state:       serviceStateRequested,
		currency:    currency,
		initBalance: initBalance,
		balance:     decimal.Zero,
	}

	s.services[srv.id] = srv
	s.ownedBy[ownerID] = append(s.ownedBy[ownerID], srv.id)

	return srv.id, nil
}
