package delegation_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Males-For-Females-llc/dapps/internal/api"
	"github.com/Males-For-Females-llc/dapps/internal/api/router"
	"github.com/Males-For-Females-llc/dapps/internal/auth"
	"github.com/Males-For-Females-llc/dapps/internal/config"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/display"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/keystore"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/session"
	"github.com/Males-For-Females-llc/dapps/internal/delegate/signless"
	"github.com/Males-For-Females-llc/dapps/internal/metrics"
)

const (
	testProgram = "0x9d76a6b7e96449a3d73ec9f01c18ec53a7b6d83b2f87f0a6d2b0e94e75f0e1aa"
	testOwner   = "0x1f1b36b1a1e6889e4dd0d6a4f6c28e2b9c7c3e1d2a5b8c9d0e1f2a3b4c5d6e7f"
)

func newTestServer(t *testing.T) (*api.Server, *chain.MockClient) {
	t.Helper()

	cfg := config.Server{
		Echo: config.EchoServer{ListenAddress: ":0"},
		Auth: config.AuthServer{
			JWTSecret:     "test-secret",
			JWTIssuer:     "dapps-test",
			TokenDuration: time.Hour,
		},
		Delegate: config.Delegate{
			Mode:            "signless",
			TargetProgram:   testProgram,
			AllowedActions:  []string{"increment", "decrement"},
			SessionDuration: time.Hour,
			RenewPolicy:     "reuse",
			BalanceDecimals: 12,
			BalanceUnit:     "VARA",
		},
	}

	rpc := new(chain.MockClient)

	keys, err := keystore.NewService(keystore.NewMemoryStorage(), "test-passphrase")
	require.NoError(t, err)

	backend, err := signless.NewService(signless.Config{
		TargetProgram: testProgram,
		Vocabulary:    cfg.Delegate.AllowedActions,
	}, keys, rpc)
	require.NoError(t, err)

	clock := api.NewClock(t)
	sessions, err := session.NewManager(session.ManagerConfig{
		Program:         testProgram,
		RenewPolicy:     session.RenewPolicyReuse,
		DefaultDuration: time.Hour,
	}, backend, keys, rpc, clock, nil)
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	formatter, err := display.NewBalanceFormatter(cfg.Delegate.BalanceDecimals, cfg.Delegate.BalanceUnit)
	require.NoError(t, err)

	s := &api.Server{
		Config:    cfg,
		Clock:     clock,
		Metrics:   metrics.New(),
		JWT:       auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenDuration),
		Keys:      keys,
		Chain:     rpc,
		Backend:   backend,
		Sessions:  sessions,
		Formatter: formatter,
	}
	router.Init(s)

	return s, rpc
}

func doRequest(s *api.Server, method, path, body, token string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func bearerToken(t *testing.T, s *api.Server) string {
	t.Helper()

	token, err := s.JWT.Generate(testOwner)
	require.NoError(t, err)
	return token
}

func TestSessionEndpointsRequireAuth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/api/v1/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/session", `{}`, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPostCreateSession(t *testing.T) {
	s, rpc := newTestServer(t)
	token := bearerToken(t, s)

	var delegated string
	rpc.On("SubmitAuthorization", mock.Anything, mock.MatchedBy(func(req *chain.AuthorizationRequest) bool {
		delegated = req.DelegatedAddress
		return req.Mode == chain.ModeSession && req.Owner == testOwner
	})).Return(&chain.TxReceipt{TxHash: "0xabc"}, nil)

	rpc.On("QueryAuthorization", mock.Anything, testOwner, testProgram).Return(&chain.AuthorizationRecord{
		ID:             "auth-1",
		Owner:          testOwner,
		Program:        testProgram,
		AllowedActions: []string{"increment"},
		ExpiresAt:      time.Now().Add(time.Hour),
	}, nil)

	rec := doRequest(s, http.MethodPost, "/api/v1/session",
		`{"allowed_actions":["increment"],"duration_seconds":3600}`, token)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"state":"active"`)
	assert.NotEmpty(t, delegated)
}

func TestPostCreateSessionRejectsUnknownAction(t *testing.T) {
	s, rpc := newTestServer(t)
	token := bearerToken(t, s)

	rec := doRequest(s, http.MethodPost, "/api/v1/session",
		`{"allowed_actions":["drain"],"duration_seconds":3600}`, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rpc.AssertNotCalled(t, "SubmitAuthorization", mock.Anything, mock.Anything)
}

func TestGetSessionAbsent(t *testing.T) {
	s, rpc := newTestServer(t)
	token := bearerToken(t, s)

	rpc.On("QueryAuthorization", mock.Anything, testOwner, testProgram).Return(nil, nil)
	rpc.On("ChainTime", mock.Anything).Return(time.Now().UTC(), nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/session", "", token)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"state":"absent"`)
}

func TestPostActionOnAbsentSession(t *testing.T) {
	s, rpc := newTestServer(t)
	token := bearerToken(t, s)

	rpc.On("QueryAuthorization", mock.Anything, testOwner, testProgram).Return(nil, nil)
	rpc.On("ChainTime", mock.Anything).Return(time.Now().UTC(), nil)

	rec := doRequest(s, http.MethodPost, "/api/v1/session/actions",
		`{"action":"increment","payload":"{}"}`, token)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rpc.AssertNotCalled(t, "SubmitTransaction", mock.Anything, mock.Anything)
}

func TestGetBalance(t *testing.T) {
	s, rpc := newTestServer(t)
	token := bearerToken(t, s)

	rpc.On("QueryVoucherBalance", mock.Anything, testOwner, testProgram).Return(&chain.VoucherRecord{
		ID:               "v-1",
		RemainingBalance: 18_500_000_000_000,
		ExpiresAt:        time.Now().Add(time.Hour),
	}, nil)

	rec := doRequest(s, http.MethodGet, "/api/v1/session/balance", "", token)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"formatted":"18.5 VARA"`)
	assert.Contains(t, rec.Body.String(), `"raw":"18500000000000"`)
}

func TestDeleteSessionWithoutKey(t *testing.T) {
	s, rpc := newTestServer(t)
	token := bearerToken(t, s)

	rpc.On("QueryAuthorization", mock.Anything, testOwner, testProgram).Return(nil, nil)
	rpc.On("ChainTime", mock.Anything).Return(time.Now().UTC(), nil)

	rec := doRequest(s, http.MethodDelete, "/api/v1/session", "", token)

	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "key_lost")
}
