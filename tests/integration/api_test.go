package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"merchant-ledger/config"
	httpHandler "merchant-ledger/internal/adapter/http/handler"
	redisStorage "merchant-ledger/internal/adapter/storage/redis"
	"merchant-ledger/internal/service"
	"merchant-ledger/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack on in-memory storage: miniredis
// backs the distributed locks, and the repositories reproduce the SQL
// constraint behavior. The real HTTP layer, middleware, handlers, and
// services run end-to-end.

type testApp struct {
	server *httptest.Server
	redis  *miniredis.Miniredis
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	log := logger.New("error", false)

	lockManager := redisStorage.NewLockManager(rdb, config.LockConfig{
		AcquireTimeout: 10 * time.Second,
		TTL:            30 * time.Second,
		RetryInterval:  2 * time.Millisecond,
	}, log)

	merchantRepo := newInMemoryMerchantRepo()
	balanceRepo := newInMemoryBalanceRepo()
	transferRepo := newInMemoryTransferRepo()
	transactor := newInMemoryTransactor()

	merchantSvc := service.NewMerchantService(merchantRepo, log)
	balanceSvc := service.NewBalanceService(merchantRepo, balanceRepo, log)
	transferSvc := service.NewTransferService(
		merchantRepo, balanceRepo, transferRepo,
		transactor, lockManager, 10*time.Second, log,
	)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		MerchantSvc: merchantSvc,
		BalanceSvc:  balanceSvc,
		TransferSvc: transferSvc,
		Logger:      log,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testApp{server: server, redis: mr}
}

type envelope struct {
	Status    int             `json:"status"`
	Result    json.RawMessage `json:"result"`
	ErrorCode string          `json:"error_code"`
	Error     string          `json:"error"`
}

func (a *testApp) do(t *testing.T, method, path string, body any, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (a *testApp) createMerchant(t *testing.T, name, fee string) string {
	t.Helper()
	code, env := a.do(t, http.MethodPost, "/api/v1/merchants", map[string]string{
		"name":        name,
		"percent_fee": fee,
	}, nil)
	require.Equal(t, http.StatusCreated, code)

	var m struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &m))
	return m.ID
}

func (a *testApp) createBalance(t *testing.T, merchantID, currency, amount string) {
	t.Helper()
	code, _ := a.do(t, http.MethodPost, "/api/v1/merchants/balance", map[string]string{
		"merchant_id":    merchantID,
		"currency":       currency,
		"initial_amount": amount,
	}, nil)
	require.Equal(t, http.StatusCreated, code)
}

func (a *testApp) getBalances(t *testing.T, merchantName string) map[string]string {
	t.Helper()
	code, env := a.do(t, http.MethodGet, "/api/v1/merchants/"+merchantName+"/balances", nil, nil)
	require.Equal(t, http.StatusOK, code)

	var balances []struct {
		Currency string `json:"currency"`
		Amount   string `json:"amount"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &balances))

	out := make(map[string]string, len(balances))
	for _, b := range balances {
		out[b.Currency] = b.Amount
	}
	return out
}

func (a *testApp) transfer(t *testing.T, key, from, to, amount, currency string) (int, envelope) {
	t.Helper()
	return a.do(t, http.MethodPost, "/api/v1/transfers", map[string]string{
		"from_merchant": from,
		"to_merchant":   to,
		"amount":        amount,
		"currency":      currency,
	}, map[string]string{"Idempotency-Key": key})
}

// --- Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_MerchantLifecycle(t *testing.T) {
	app := newTestApp(t)

	id := app.createMerchant(t, "alice", "2")
	require.NotEmpty(t, id)

	// Duplicate name is rejected.
	code, env := app.do(t, http.MethodPost, "/api/v1/merchants", map[string]string{
		"name":        "alice",
		"percent_fee": "5",
	}, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "MER_002", env.ErrorCode)

	app.createBalance(t, id, "BTC", "1")

	// Duplicate (merchant, currency) pair is rejected.
	code, env = app.do(t, http.MethodPost, "/api/v1/merchants/balance", map[string]string{
		"merchant_id":    id,
		"currency":       "BTC",
		"initial_amount": "0",
	}, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "BAL_002", env.ErrorCode)

	balances := app.getBalances(t, "alice")
	assert.Equal(t, "1.00000000", balances["BTC"])
}

func TestIntegration_TransferWithFee(t *testing.T) {
	app := newTestApp(t)

	aliceID := app.createMerchant(t, "alice", "2")
	app.createMerchant(t, "bob", "1")
	app.createBalance(t, aliceID, "BTC", "1")

	code, env := app.transfer(t, "k1", "alice", "bob", "0.1", "BTC")
	require.Equal(t, http.StatusCreated, code, "body: %s", env.Error)

	var tr struct {
		Amount     string `json:"amount"`
		PercentFee string `json:"percent_fee"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &tr))
	assert.Equal(t, "0.10000000", tr.Amount)
	assert.Equal(t, "2.00000000", tr.PercentFee)

	// Sender pays 0.1 plus 2% fee; recipient balance is created on demand.
	assert.Equal(t, "0.89800000", app.getBalances(t, "alice")["BTC"])
	assert.Equal(t, "0.10000000", app.getBalances(t, "bob")["BTC"])
}

func TestIntegration_TransferIdempotentReplay(t *testing.T) {
	app := newTestApp(t)

	aliceID := app.createMerchant(t, "alice", "2")
	app.createMerchant(t, "bob", "1")
	app.createBalance(t, aliceID, "BTC", "1")

	var firstID string
	for i := 0; i < 3; i++ {
		code, env := app.transfer(t, "replay-key", "alice", "bob", "0.1", "BTC")
		require.Equal(t, http.StatusCreated, code)

		var tr struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Result, &tr))
		if firstID == "" {
			firstID = tr.ID
		}
		assert.Equal(t, firstID, tr.ID, "replay must return the original transfer")
	}

	// Applied exactly once.
	assert.Equal(t, "0.89800000", app.getBalances(t, "alice")["BTC"])
	assert.Equal(t, "0.10000000", app.getBalances(t, "bob")["BTC"])
}

func TestIntegration_TransferErrors(t *testing.T) {
	app := newTestApp(t)

	aliceID := app.createMerchant(t, "alice", "2")
	app.createMerchant(t, "bob", "1")
	app.createBalance(t, aliceID, "USD", "100")

	tests := []struct {
		name     string
		key      string
		from, to string
		amount   string
		currency string
		wantCode int
		wantErr  string
	}{
		{"insufficient funds", "e1", "alice", "bob", "100", "USD", http.StatusBadRequest, "TRF_001"},
		{"self transfer", "e2", "alice", "alice", "1", "USD", http.StatusUnprocessableEntity, "TRF_003"},
		{"unknown sender", "e3", "ghost", "bob", "1", "USD", http.StatusNotFound, "MER_001"},
		{"unknown recipient", "e4", "alice", "ghost", "1", "USD", http.StatusNotFound, "MER_001"},
		{"no balance in currency", "e5", "bob", "alice", "1", "USD", http.StatusNotFound, "BAL_001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := app.transfer(t, tt.key, tt.from, tt.to, tt.amount, tt.currency)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantErr, env.ErrorCode)
		})
	}

	// Failed attempts must not consume the idempotency key or move funds.
	assert.Equal(t, "100.00000000", app.getBalances(t, "alice")["USD"])
}

func TestIntegration_TransferMissingIdempotencyKey(t *testing.T) {
	app := newTestApp(t)

	code, env := app.do(t, http.MethodPost, "/api/v1/transfers", map[string]string{
		"from_merchant": "alice",
		"to_merchant":   "bob",
		"amount":        "1",
		"currency":      "USD",
	}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VAL_001", env.ErrorCode)
}

func TestIntegration_ListTransfers(t *testing.T) {
	app := newTestApp(t)

	aliceID := app.createMerchant(t, "alice", "1")
	bobID := app.createMerchant(t, "bob", "1")
	app.createBalance(t, aliceID, "USD", "100")
	app.createBalance(t, bobID, "EUR", "100")

	for i := 0; i < 3; i++ {
		code, _ := app.transfer(t, fmt.Sprintf("usd-%d", i), "alice", "bob", "1", "USD")
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := app.transfer(t, "eur-0", "bob", "alice", "2", "EUR")
	require.Equal(t, http.StatusCreated, code)

	count := func(query string) int {
		code, env := app.do(t, http.MethodGet, "/api/v1/transfers"+query, nil, nil)
		require.Equal(t, http.StatusOK, code)
		var transfers []json.RawMessage
		require.NoError(t, json.Unmarshal(env.Result, &transfers))
		return len(transfers)
	}

	assert.Equal(t, 4, count(""))
	assert.Equal(t, 3, count("?from_merchant=alice"))
	assert.Equal(t, 3, count("?currency=USD"))
	assert.Equal(t, 1, count("?from_merchant=bob&to_merchant=alice"))
	assert.Equal(t, 0, count("?from_merchant=alice&currency=EUR"))

	code, env := app.do(t, http.MethodGet, "/api/v1/transfers?from_merchant=ghost", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "MER_001", env.ErrorCode)
}
