package bankapi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/cardboard-bank/bankload/loadtest"
)

const (
	operationRegister          = "register"
	operationAuthenticate      = "authenticate"
	operationListServices      = "list_services"
	operationCreateService     = "create_service"
	operationGetService        = "get_service"
	operationCreateTransaction = "create_transaction"

	headerRequestID     = "X-Request-ID"
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	contentTypeJSON     = "application/json"

	maxNDJSONLineBytes = 1 << 20
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client calls the banking API. It is safe for concurrent use; session credentials are passed per call.
type Client struct {
	baseURL          *url.URL
	httpClient       *http.Client
	timeout          time.Duration
	logger           loadtest.Logger
	contextualLogger loadtest.ContextualLogger
	metricsCollector loadtest.MetricsCollector
	tracingCollector loadtest.TracingCollector
}

// NewClient creates a new Client for the API rooted at baseURL with optional configuration.
func NewClient(baseURL string, options ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: http.DefaultClient,
	}

	for _, option := range options {
		if optErr := option(c); optErr != nil {
			return nil, optErr
		}
	}

	if c.timeout > 0 {
		bounded := *c.httpClient
		bounded.Timeout = c.timeout
		c.httpClient = &bounded
	}

	return c, nil
}

// Register creates a user. Any reply other than 200 is a *StatusError.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.execute(ctx, call{
		operation: operationRegister,
		method:    http.MethodPost,
		path:      "/users",
		body:      req,
	}, discardBody)
}

// Authenticate exchanges credentials for tokens and the user id.
func (c *Client) Authenticate(ctx context.Context, req AuthRequest) (AuthResponse, error) {
	var resp AuthResponse

	err := c.execute(ctx, call{
		operation: operationAuthenticate,
		method:    http.MethodPost,
		path:      "/auth",
		body:      req,
	}, decodeJSON(&resp, func() error { return resp.validate() }))

	return resp, err
}

// ListServices returns the accounts owned by userID, read from an NDJSON stream.
// Blank lines are skipped; every other line must carry an id.
func (c *Client) ListServices(ctx context.Context, accessToken, userID string) ([]ServiceSummary, error) {
	services := make([]ServiceSummary, 0)

	err := c.execute(ctx, call{
		operation: operationListServices,
		method:    http.MethodGet,
		path:      "/users/" + url.PathEscape(userID) + "/services",
		token:     accessToken,
	}, func(body io.Reader) error {
		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 4096), maxNDJSONLineBytes)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var summary ServiceSummary
			if err := json.Unmarshal(line, &summary); err != nil {
				return err
			}

			if err := summary.validate(); err != nil {
				return err
			}

			services = append(services, summary)
		}

		return scanner.Err()
	})

	return services, err
}

// CreateService opens an account for userID.
func (c *Client) CreateService(
	ctx context.Context,
	accessToken, userID string,
	req CreateServiceRequest,
) (CreateServiceResponse, error) {

	var resp CreateServiceResponse

	err := c.execute(ctx, call{
		operation: operationCreateService,
		method:    http.MethodPost,
		path:      "/users/" + url.PathEscape(userID) + "/services",
		token:     accessToken,
		body:      req,
	}, decodeJSON(&resp, func() error { return resp.validate() }))

	return resp, err
}

// GetService reads one account including its balances.
func (c *Client) GetService(ctx context.Context, accessToken, serviceID string) (ServiceDetails, error) {
	var resp ServiceDetails

	err := c.execute(ctx, call{
		operation: operationGetService,
		method:    http.MethodGet,
		path:      "/services/" + url.PathEscape(serviceID),
		token:     accessToken,
	}, decodeJSON(&resp, func() error { return resp.validate() }))

	return resp, err
}

// CreateTransaction submits a transfer. The reply body is ignored, only the status matters.
func (c *Client) CreateTransaction(ctx context.Context, accessToken string, req TransactionRequest) error {
	return c.execute(ctx, call{
		operation: operationCreateTransaction,
		method:    http.MethodPost,
		path:      "/transactions",
		token:     accessToken,
		body:      req,
	}, discardBody)
}

type call struct {
	operation string
	method    string
	path      string
	token     string
	body      any
}

func (c *Client) execute(ctx context.Context, call call, decode func(body io.Reader) error) error {
	ctx, span := c.startSpan(ctx, call)
	start := time.Now()

	statusCode, err := c.roundTrip(ctx, call, decode)

	c.observe(ctx, span, call, statusCode, time.Since(start), err)

	return err
}

func (c *Client) roundTrip(ctx context.Context, call call, decode func(body io.Reader) error) (int, error) {
	req, err := c.newRequest(ctx, call)
	if err != nil {
		return 0, errors.Join(ErrRequestFailed, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Join(ErrRequestFailed, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, &StatusError{Op: call.operation, StatusCode: resp.StatusCode}
	}

	if decodeErr := decode(resp.Body); decodeErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp.StatusCode, errors.Join(ErrRequestFailed, ctxErr)
		}

		return resp.StatusCode, errors.Join(ErrDecodingResponseFailed, decodeErr)
	}

	return resp.StatusCode, nil
}

func (c *Client) newRequest(ctx context.Context, call call) (*http.Request, error) {
	var body io.Reader
	if call.body != nil {
		payload, err := json.Marshal(call.body)
		if err != nil {
			return nil, err
		}

		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, call.method, c.baseURL.String()+call.path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set(headerRequestID, uuid.NewString())
	req.Header.Set(headerAccept, contentTypeJSON)

	if call.body != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}

	if call.token != "" {
		req.Header.Set(headerAuthorization, "Bearer "+call.token)
	}

	return req, nil
}

func decodeJSON(target any, validate func() error) func(body io.Reader) error {
	return func(body io.Reader) error {
		if err := json.NewDecoder(body).Decode(target); err != nil {
			return err
		}

		return validate()
	}
}

func discardBody(io.Reader) error {
	return nil
}
