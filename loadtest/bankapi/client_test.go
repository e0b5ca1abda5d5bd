package bankapi_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardboard-bank/bankload/loadtest"
	"github.com/cardboard-bank/bankload/loadtest/bankapi"
	"github.com/cardboard-bank/bankload/testutil/fakebank"
	. "github.com/cardboard-bank/bankload/testutil/helper" //nolint:revive
)

func newClient(t *testing.T, server *httptest.Server, options ...bankapi.Option) *bankapi.Client {
	t.Helper()

	client, err := bankapi.NewClient(server.URL, append([]bankapi.Option{bankapi.WithHTTPClient(server.Client())}, options...)...)
	require.NoError(t, err)

	return client
}

func Test_NewClient_ShouldRejectInvalidBaseURL(t *testing.T) {
	for _, baseURL := range []string{"", "localhost:8080", "ftp://bank", "http://"} {
		t.Run(baseURL, func(t *testing.T) {
			// act
			_, err := bankapi.NewClient(baseURL)

			// assert
			assert.ErrorIs(t, err, bankapi.ErrInvalidBaseURL)
		})
	}
}

func Test_Client_ShouldRegisterAuthenticateAndManageServices(t *testing.T) {
	// setup
	ctx := context.Background()
	bank, server := fakebank.StartTestServer(t)
	client := newClient(t, server)

	// act
	err := client.Register(ctx, bankapi.RegisterRequest{Username: "jane", Password: "pw", FullName: "Jane Doe"})
	require.NoError(t, err)

	auth, err := client.Authenticate(ctx, bankapi.AuthRequest{Username: "jane", Password: "pw"})
	require.NoError(t, err)

	none, err := client.ListServices(ctx, auth.AccessToken, auth.UserID)
	require.NoError(t, err)

	created, err := client.CreateService(ctx, auth.AccessToken, auth.UserID,
		bankapi.NewCreateServiceRequest(decimal.NewFromInt(500)))
	require.NoError(t, err)

	listed, err := client.ListServices(ctx, auth.AccessToken, auth.UserID)
	require.NoError(t, err)

	details, err := client.GetService(ctx, auth.AccessToken, created.ID)
	require.NoError(t, err)

	// assert
	userID, _ := bank.UserID("jane")
	assert.Equal(t, userID, auth.UserID)
	assert.NotEmpty(t, auth.RefreshToken)
	assert.Empty(t, none)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)
	assert.Equal(t, bankapi.ServiceTypeChequing, listed[0].Type)
	assert.True(t, details.InitBalance.Decimal.Equal(decimal.NewFromInt(500)))
	assert.True(t, details.Balance.Decimal.IsZero())
	assert.True(t, details.Total().Equal(decimal.NewFromInt(500)))
}

func Test_Client_ShouldSubmitTransactions(t *testing.T) {
	// setup
	ctx := context.Background()
	bank, server := fakebank.StartTestServer(t)
	client := newClient(t, server)

	// arrange
	janeID, err := bank.AddUser("Jane Doe", "jane", "pw")
	require.NoError(t, err)
	source, err := bank.AddService(janeID, decimal.NewFromInt(100))
	require.NoError(t, err)
	destination, err := bank.AddService(janeID, decimal.NewFromInt(1))
	require.NoError(t, err)
	auth, err := client.Authenticate(ctx, bankapi.AuthRequest{Username: "jane", Password: "pw"})
	require.NoError(t, err)

	// act
	err = client.CreateTransaction(ctx, auth.AccessToken,
		bankapi.NewTransactionRequest(decimal.RequireFromString("12.5"), source, destination))

	// assert
	require.NoError(t, err)
	transactions := bank.Transactions()
	require.Len(t, transactions, 1)
	assert.Equal(t, "12.5", transactions[0].Amount.String())
	assert.Equal(t, "USD", transactions[0].Currency)
}

func Test_Client_ShouldReturnStatusError_OnNonOKReply(t *testing.T) {
	// setup
	ctx := context.Background()
	_, server := fakebank.StartTestServer(t)
	client := newClient(t, server)

	// act
	_, err := client.Authenticate(ctx, bankapi.AuthRequest{Username: "ghost", Password: "pw"})

	// assert
	assert.ErrorIs(t, err, bankapi.ErrUnexpectedStatus)
	assert.Equal(t, http.StatusUnauthorized, bankapi.StatusCode(err))

	var statusErr *bankapi.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, "authenticate", statusErr.Op)
}

func Test_Client_ShouldRejectIncompleteReplies(t *testing.T) {
	testCases := []struct {
		name string
		body string
		call func(ctx context.Context, client *bankapi.Client) error
	}{
		{
			name: "auth without access token",
			body: `{"refresh_token":"r","id":"u1"}`,
			call: func(ctx context.Context, client *bankapi.Client) error {
				_, err := client.Authenticate(ctx, bankapi.AuthRequest{Username: "a", Password: "b"})
				return err
			},
		},
		{
			name: "service without balance",
			body: `{"id":"S1","init_balance":"10.00"}`,
			call: func(ctx context.Context, client *bankapi.Client) error {
				_, err := client.GetService(ctx, "token", "S1")
				return err
			},
		},
		{
			name: "ndjson line without id",
			body: "{\"id\":\"S1\"}\n{\"type\":\"CHQ\"}\n",
			call: func(ctx context.Context, client *bankapi.Client) error {
				_, err := client.ListServices(ctx, "token", "u1")
				return err
			},
		},
		{
			name: "malformed json",
			body: `{"id":`,
			call: func(ctx context.Context, client *bankapi.Client) error {
				_, err := client.CreateService(ctx, "token", "u1", bankapi.NewCreateServiceRequest(decimal.NewFromInt(1)))
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// setup
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)
			client := newClient(t, server)

			// act
			err := tc.call(context.Background(), client)

			// assert
			assert.ErrorIs(t, err, bankapi.ErrDecodingResponseFailed)
		})
	}
}

func Test_ListServices_ShouldSkipBlankLines_AndAcceptNumericBalances(t *testing.T) {
	// setup
	ctx := context.Background()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/services/S1" {
			_, _ = w.Write([]byte(`{"balance":-2.5,"init_balance":"10.00"}`))
			return
		}

		_, _ = w.Write([]byte("{\"id\":\"S1\"}\n\n   \n{\"id\":\"S2\"}"))
	}))
	t.Cleanup(server.Close)
	client := newClient(t, server)

	// act
	services, listErr := client.ListServices(ctx, "token", "u1")
	details, getErr := client.GetService(ctx, "token", "S1")

	// assert
	require.NoError(t, listErr)
	require.NoError(t, getErr)
	assert.Equal(t, []bankapi.ServiceSummary{{ID: "S1"}, {ID: "S2"}}, services)
	assert.Equal(t, "7.5", details.Total().String())
}

func Test_Client_ShouldSendRequestIDAndBearerToken(t *testing.T) {
	// setup
	var seenRequestID, seenAuthorization, seenContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenRequestID = r.Header.Get("X-Request-ID")
		seenAuthorization = r.Header.Get("Authorization")
		seenContentType = r.Header.Get("Content-Type")
	}))
	t.Cleanup(server.Close)
	client := newClient(t, server)

	// act
	err := client.CreateTransaction(context.Background(), "tok",
		bankapi.NewTransactionRequest(decimal.NewFromInt(1), "S1", "S2"))

	// assert
	require.NoError(t, err)
	assert.Len(t, seenRequestID, 36)
	assert.Equal(t, "Bearer tok", seenAuthorization)
	assert.Equal(t, "application/json", seenContentType)
}

func Test_Client_ShouldReturnErrRequestFailed_WhenContextIsCanceled(t *testing.T) {
	// setup
	_, server := fakebank.StartTestServer(t)
	client := newClient(t, server)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// act
	err := client.Register(ctx, bankapi.RegisterRequest{Username: "jane", Password: "pw"})

	// assert
	assert.ErrorIs(t, err, bankapi.ErrRequestFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Client_ShouldRespectTimeout(t *testing.T) {
	// setup
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(server.Close)
	client := newClient(t, server, bankapi.WithTimeout(50*time.Millisecond))

	// act
	err := client.Register(context.Background(), bankapi.RegisterRequest{Username: "jane", Password: "pw"})

	// assert
	assert.ErrorIs(t, err, bankapi.ErrRequestFailed)
}

func Test_Client_ShouldRecordMetricsSpansAndLogs(t *testing.T) {
	// setup
	ctx := context.Background()
	_, server := fakebank.StartTestServer(t)
	metrics := NewMetricsCollectorSpy(true)
	tracing := NewTracingCollectorSpy(true)
	logHandler := NewLogHandlerSpy(false)
	client := newClient(t, server,
		bankapi.WithMetrics(metrics),
		bankapi.WithTracing(tracing),
		bankapi.WithLogger(slog.New(logHandler)),
	)

	// act
	registerErr := client.Register(ctx, bankapi.RegisterRequest{Username: "jane", Password: "pw", FullName: "Jane Doe"})
	_, authErr := client.Authenticate(ctx, bankapi.AuthRequest{Username: "jane", Password: "wrong"})

	// assert
	require.NoError(t, registerErr)
	require.Error(t, authErr)

	assert.True(t, metrics.HasDurationRecordForMetric(bankapi.MetricRequestDuration).
		WithOperation("register").
		WithStatus(loadtest.StatusSuccess).
		WithLabel("status_code", "200").
		Assert())
	assert.True(t, metrics.HasCounterRecordForMetric(bankapi.MetricRequestsTotal).
		WithOperation("authenticate").
		WithStatus(loadtest.StatusError).
		WithLabel("status_code", "401").
		Assert())

	assert.True(t, tracing.HasSpanRecordForName("bankapi.authenticate").
		WithStatus(loadtest.StatusError).
		WithStartAttribute("http.path", "/auth").
		Assert())

	assert.True(t, logHandler.HasDebugLogWithMessage("bank api request completed").WithDurationMS().Assert())
	assert.True(t, logHandler.HasLog(slog.LevelWarn, "bank api replied with unexpected status"))
}
