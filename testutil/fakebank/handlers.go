package fakebank

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	ctxKeyUserID       = "userId"
	contentTypeNDJSON  = "application/x-ndjson"
	messageFaultActive = "injected fault"
)

func respondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"message": message})
}

func (s *Server) countCalls() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.Request.Method + " " + c.FullPath()

		s.mu.Lock()
		s.calls[route]++
		s.mu.Unlock()

		c.Next()
	}
}

func (s *Server) requireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || tokenString == "" {
			respondWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}

		userID, err := s.parseAccessToken(tokenString)
		if err != nil {
			respondWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(ctxKeyUserID, userID)
		c.Next()
	}
}

func (s *Server) requireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxKeyUserID) != c.Param("id") {
			respondWithError(c, http.StatusForbidden, "not the owner of this resource")
			return
		}

		c.Next()
	}
}

func (s *Server) faulty(pick func(Faults) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return pick(s.faults)
}

func (s *Server) register(c *gin.Context) {
	if s.faulty(func(f Faults) bool { return f.FailRegister }) {
		respondWithError(c, http.StatusInternalServerError, messageFaultActive)
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	passhash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	s.mu.Lock()
	id, err := s.addUserLocked(req.FullName, req.Username, passhash)
	s.mu.Unlock()

	switch {
	case errors.Is(err, ErrUsernameTaken):
		respondWithError(c, http.StatusConflict, err.Error())
	case err != nil:
		respondWithError(c, http.StatusInternalServerError, err.Error())
	default:
		c.JSON(http.StatusOK, idResponse{ID: id})
	}
}

func (s *Server) authenticate(c *gin.Context) {
	if s.faulty(func(f Faults) bool { return f.FailAuth }) {
		respondWithError(c, http.StatusInternalServerError, messageFaultActive)
		return
	}

	var req authRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	u, ok := s.usersByName[req.Username]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.passhash, []byte(req.Password)) != nil {
		respondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, err := s.issueToken(u.id, tokenTypeAccess, accessTokenTTL)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	refreshToken, err := s.issueToken(u.id, tokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, authResponse{AccessToken: accessToken, RefreshToken: refreshToken, ID: u.id})
}

func (s *Server) listServices(c *gin.Context) {
	summaries := make([]serviceSummary, 0)

	s.mu.Lock()
	for _, id := range s.ownedBy[c.Param("id")] {
		srv := s.services[id]
		summaries = append(summaries, serviceSummary{
			ID:       srv.id,
			Type:     srv.serviceType,
			State:    srv.state,
			Currency: srv.currency,
		})
	}
	s.mu.Unlock()

	c.Header("Content-Type", contentTypeNDJSON)
	c.Status(http.StatusOK)

	encoder := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(c.Writer)
	for _, summary := range summaries {
		if err := encoder.Encode(summary); err != nil {
			_ = c.Error(err)
			return
		}
	}
}

func (s *Server) createService(c *gin.Context) {
	if s.faulty(func(f Faults) bool { return f.FailCreateService }) {
		respondWithError(c, http.StatusInternalServerError, messageFaultActive)
		return
	}

	var req createServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	initBalance, err := decimal.NewFromString(req.InitBalance)
	if err != nil || initBalance.IsNegative() {
		respondWithError(c, http.StatusBadRequest, "Invalid init_balance")
		return
	}

	s.mu.Lock()
	id, err := s.addServiceLocked(c.Param("id"), req.Type, req.Currency, initBalance)
	s.mu.Unlock()

	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, idResponse{ID: id})
}

func (s *Server) getService(c *gin.Context) {
	if s.faulty(func(f Faults) bool { return f.FailGetService }) {
		respondWithError(c, http.StatusInternalServerError, messageFaultActive)
		return
	}

	s.mu.Lock()
	srv, ok := s.services[c.Param("id")]
	var details serviceDetails
	if ok {
		details = serviceDetails{
			ID:          srv.id,
			Type:        srv.serviceType,
			State:       srv.state,
			Currency:    srv.currency,
			InitBalance: srv.initBalance.String(),
			Balance:     srv.balance.String(),
		}
	}
	s.mu.Unlock()

	if !ok {
		respondWithError(c, http.StatusNotFound, "service not found")
		return
	}

	c.JSON(http.StatusOK, details)
}

func (s *Server) createTransaction(c *gin.Context) {
	if s.faulty(func(f Faults) bool { return f.FailTransactions }) {
		respondWithError(c, http.StatusInternalServerError, messageFaultActive)
		return
	}

	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		respondWithError(c, http.StatusBadRequest, "Invalid amount")
		return
	}

	if req.Source == req.Destination {
		respondWithError(c, http.StatusBadRequest, "source and destination must differ")
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	code, message := s.transfer(c.GetString(ctxKeyUserID), id.String(), amount, req)
	if code != http.StatusOK {
		respondWithError(c, code, message)
		return
	}

	c.JSON(http.StatusOK, idResponse{ID: id.String()})
}

// transfer debits source and credits destination atomically, or changes nothing.
func (s *Server) transfer(callerID, transactionID string, amount decimal.Decimal, req transactionRequest) (int, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.services[req.Source]
	if !ok {
		return http.StatusNotFound, "source not found"
	}

	destination, ok := s.services[req.Destination]
	if !ok {
		return http.StatusNotFound, "destination not found"
	}

	if source.ownerID != callerID {
		return http.StatusForbidden, "not the owner of the source"
	}

	if source.currency != req.Currency || destination.currency != req.Currency {
		return http.StatusBadRequest, "currency mismatch"
	}

	if source.funds().Sub(amount).IsNegative() {
		return http.StatusUnprocessableEntity, "insufficient funds"
	}

	source.balance = source.balance.Sub(amount)
	destination.balance = destination.balance.Add(amount)

	s.transactions = append(s.transactions, Transaction{
		ID:          transactionID,
		State:       transactionStateSuccess,
		Currency:    req.Currency,
		Amount:      amount,
		Source:      source.id,
		Destination: destination.id,
	})

	return http.StatusOK, ""
}
