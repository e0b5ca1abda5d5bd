package fakebank

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// StartTestServer runs a fake bank behind an httptest server that is closed when the test ends.
// Passwords are hashed with bcrypt.MinCost to keep tests fast.
func StartTestServer(t testing.TB, options ...Option) (*Server, *httptest.Server) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	bank, err := NewServer(append([]Option{WithBcryptCost(bcrypt.MinCost)}, options...)...)
	require.NoError(t, err, "error in arranging test data")

	httpServer := httptest.NewServer(bank.Handler())
	t.Cleanup(httpServer.Close)

	return bank, httpServer
}
