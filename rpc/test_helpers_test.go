package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/config"
	"github.com/cemleme/GRB-contracts/core"
	"github.com/cemleme/GRB-contracts/core/events"
	"github.com/cemleme/GRB-contracts/native/randomness"
	"github.com/cemleme/GRB-contracts/storage"
	"github.com/cemleme/GRB-contracts/storage/journal"
)

const testJWTSecret = "rpc-test-secret"

var (
	testPlayer   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testOther    = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	testTreasury = common.HexToAddress("0x00000000000000000000000000000000000000fe")
)

type testEnv struct {
	server  *Server
	handler http.Handler
	journal *journal.Journal
	bus     *events.Bus
}

func newTestEnv(t testing.TB, cfg ServerConfig) *testEnv {
	t.Helper()
	game, err := core.NewGame(storage.NewMemDB(), config.DefaultEconomy())
	require.NoError(t, err)
	game.SetRandomness(randomness.NewHashChain([]byte("rpc-test")))
	game.SetTreasury(testTreasury)
	game.SetAllowTestMints(true)
	clock := int64(1_700_000_000)
	game.SetNowFunc(func() int64 { return clock })

	j, err := journal.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	bus := events.NewBus()
	game.SetEmitter(events.Multi{bus, j})

	srv := NewServer(game, j, bus, cfg, nil)
	return &testEnv{server: srv, handler: srv.Router(), journal: j, bus: bus}
}

func signTestToken(t testing.TB, subject string, scopes string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"iss": "rpc-tests",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if scopes != "" {
		claims["scope"] = scopes
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return signed
}

func (e *testEnv) call(t testing.TB, token string, method string, params interface{}) (int, RPCResponse) {
	t.Helper()
	req := RPCRequest{JSONRPC: jsonRPCVersion, Method: method, ID: 1}
	if params != nil {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		req.Params = []json.RawMessage{raw}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	httpReq := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, httpReq)
	var resp RPCResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func decodeResult(t testing.TB, resp RPCResponse, dst interface{}) {
	t.Helper()
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}
