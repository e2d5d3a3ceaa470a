package rpc

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/gateway/middleware"
	"github.com/cemleme/GRB-contracts/native/ships"
)

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
	require.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
}

func TestRejectsMalformedRequests(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(nil)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewBufferString("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid JSON payload")

	code, resp := env.call(t, "", "game_doesNotExist", nil)
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	code, resp = env.call(t, "", "game_balance", map[string]string{"user": "nope"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	code, resp = env.call(t, "", "game_balance", map[string]string{"user": testPlayer.Hex(), "bogus": "x"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestOnboardingAndRefineryFlow(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	user := map[string]string{"user": testPlayer.Hex()}

	_, resp := env.call(t, "", "game_initializeUser", user)
	var ship ships.Ship
	decodeResult(t, resp, &ship)
	require.True(t, ship.InFleet)
	require.Equal(t, testPlayer, ship.Owner)

	code, resp := env.call(t, "", "game_initializeUser", user)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, codeInvalidState, resp.Error.Code)

	_, resp = env.call(t, "", "game_balance", map[string]string{"user": testPlayer.Hex(), "kind": "mineral"})
	var balance balanceResult
	decodeResult(t, resp, &balance)
	require.Equal(t, "5000000000000000000", balance.Amount)

	_, resp = env.call(t, "", "game_fleet", user)
	var fleet fleetResult
	decodeResult(t, resp, &fleet)
	require.Equal(t, []uint64{ship.ID}, fleet.ShipIDs)

	_, resp = env.call(t, "", "game_calculateRefinery", user)
	var settlement settlementResult
	decodeResult(t, resp, &settlement)
	require.Equal(t, "0", settlement.MineralSpent)

	_, resp = env.call(t, "", "game_refinery", user)
	var ref refineryResult
	decodeResult(t, resp, &ref)
	require.NotNil(t, ref.Refinery)
	require.NotEqual(t, "0", ref.UpgradeCost)
}

func TestEngineErrorsMapToCodes(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})

	code, resp := env.call(t, "", "game_completeExploration", map[string]string{"user": testPlayer.Hex()})
	require.NotEqual(t, http.StatusOK, code)
	require.NotNil(t, resp.Error)

	code, resp = env.call(t, "", "game_ship", map[string]uint64{"shipId": 999})
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, codeNotFound, resp.Error.Code)

	_, _ = env.call(t, "", "game_initializeUser", map[string]string{"user": testPlayer.Hex()})
	code, resp = env.call(t, "", "game_buyFuel", map[string]interface{}{"user": testPlayer.Hex(), "quantity": 1_000_000})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, codeInsufficientBalance, resp.Error.Code)
}

func TestEventsQueryReadsJournal(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	_, _ = env.call(t, "", "game_initializeUser", map[string]string{"user": testPlayer.Hex()})
	_, _ = env.call(t, "", "game_initializeUser", map[string]string{"user": testOther.Hex()})

	_, resp := env.call(t, "", "game_events", map[string]string{"user": testPlayer.Hex()})
	var result eventsResult
	decodeResult(t, resp, &result)
	require.NotEmpty(t, result.Events)
	for _, record := range result.Events {
		require.Equal(t, strings.ToLower(testPlayer.Hex()), record.User)
	}
	count, err := env.journal.Count(context.Background())
	require.NoError(t, err)
	require.Greater(t, count, int64(len(result.Events)))
}

func TestAuthBindsSubjectToUser(t *testing.T) {
	env := newTestEnv(t, ServerConfig{
		Auth: middleware.AuthConfig{Enabled: true, HMACSecret: testJWTSecret, Issuer: "rpc-tests"},
	})
	playerToken := signTestToken(t, testPlayer.Hex(), "game:play")
	adminToken := signTestToken(t, "ops", "game:admin")

	code, _ := env.call(t, "", "game_balance", map[string]string{"user": testPlayer.Hex()})
	require.Equal(t, http.StatusUnauthorized, code)

	code, resp := env.call(t, playerToken, "game_initializeUser", map[string]string{"user": testPlayer.Hex()})
	require.Equal(t, http.StatusOK, code)
	require.Nil(t, resp.Error)

	code, resp = env.call(t, playerToken, "game_initializeUser", map[string]string{"user": testOther.Hex()})
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	credit := map[string]string{"user": testPlayer.Hex(), "kind": "grb", "amount": "1000"}
	code, resp = env.call(t, playerToken, "game_credit", credit)
	require.Equal(t, http.StatusForbidden, code)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	code, resp = env.call(t, adminToken, "game_credit", credit)
	require.Equal(t, http.StatusOK, code)
	var balance balanceResult
	decodeResult(t, resp, &balance)
	require.Equal(t, "1000", balance.Amount)
}

func TestCreditRejectsShips(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	code, resp := env.call(t, "", "game_credit", map[string]string{"user": testPlayer.Hex(), "kind": "1000", "amount": "1"})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, ServerConfig{})
	_, _ = env.call(t, "", "game_initializeUser", map[string]string{"user": testPlayer.Hex()})
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "spaced_http_requests_total")
	require.Contains(t, rec.Body.String(), "game_calls_total")
}
