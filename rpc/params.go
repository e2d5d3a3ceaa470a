package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/gateway/middleware"
	"github.com/cemleme/GRB-contracts/native/assets"
)

type userParams struct {
	User string `json:"user"`
}

func decodeParams(req *RPCRequest, dst interface{}) error {
	if len(req.Params) != 1 {
		return invalidParams("exactly one parameter object expected", nil)
	}
	decoder := json.NewDecoder(strings.NewReader(string(req.Params[0])))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return invalidParams("invalid parameter object", err.Error())
	}
	return nil
}

func parseAddress(field, raw string) (common.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, invalidParams(fmt.Sprintf("invalid %s address", field), raw)
	}
	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return common.Address{}, invalidParams(fmt.Sprintf("%s address must not be zero", field), nil)
	}
	return addr, nil
}

func parseAmount(field, amount string) (*big.Int, error) {
	trimmed := strings.TrimSpace(amount)
	if trimmed == "" {
		return nil, invalidParams(fmt.Sprintf("%s is required", field), nil)
	}
	value, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, invalidParams(fmt.Sprintf("invalid %s", field), amount)
	}
	if value.Sign() <= 0 {
		return nil, invalidParams(fmt.Sprintf("%s must be positive", field), nil)
	}
	return value, nil
}

func parseKind(raw string) (assets.Kind, error) {
	kind, err := assets.ParseKind(raw)
	if err != nil {
		return 0, invalidParams("invalid kind", err.Error())
	}
	return kind, nil
}

// callerFor resolves the user a call acts for. With auth enabled the token
// subject must match unless the caller holds the admin scope.
func (s *Server) callerFor(ctx context.Context, raw string) (common.Address, error) {
	user, err := parseAddress("user", raw)
	if err != nil {
		return common.Address{}, err
	}
	if !s.auth.Enabled() {
		return user, nil
	}
	principal, ok := middleware.PrincipalFrom(ctx)
	if !ok {
		return common.Address{}, unauthorized("authentication required")
	}
	if principal.HasScope(s.cfg.AdminScope) {
		return user, nil
	}
	if !common.IsHexAddress(principal.Subject) || common.HexToAddress(principal.Subject) != user {
		return common.Address{}, unauthorized("token subject does not match user")
	}
	return user, nil
}

func (s *Server) requireAdmin(ctx context.Context) error {
	if !s.auth.Enabled() {
		return nil
	}
	principal, ok := middleware.PrincipalFrom(ctx)
	if !ok || !principal.HasScope(s.cfg.AdminScope) {
		return unauthorized("admin scope required")
	}
	return nil
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
