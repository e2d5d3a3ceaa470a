package rpc

import (
	"errors"
	"net/http"

	nativecommon "github.com/cemleme/GRB-contracts/native/common"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001

	codeInsufficientBalance = -32010
	codeNotOwner            = -32011
	codeInvalidState        = -32012
	codePriceMismatch       = -32013
	codeProviderUnavailable = -32014
	codeNotFound            = -32015
	codeModulePaused        = -32016
	codeQuotaExceeded       = -32020
)

type errorMapping struct {
	kind   error
	code   int
	status int
}

var errorMappings = []errorMapping{
	{nativecommon.ErrInsufficientBalance, codeInsufficientBalance, http.StatusBadRequest},
	{nativecommon.ErrNotOwner, codeNotOwner, http.StatusForbidden},
	{nativecommon.ErrInvalidState, codeInvalidState, http.StatusConflict},
	{nativecommon.ErrPriceMismatch, codePriceMismatch, http.StatusBadRequest},
	{nativecommon.ErrProviderUnavailable, codeProviderUnavailable, http.StatusServiceUnavailable},
	{nativecommon.ErrNotFound, codeNotFound, http.StatusNotFound},
	{nativecommon.ErrModulePaused, codeModulePaused, http.StatusServiceUnavailable},
	{nativecommon.ErrQuotaActionsExceeded, codeQuotaExceeded, http.StatusTooManyRequests},
	{nativecommon.ErrQuotaSpendExceeded, codeQuotaExceeded, http.StatusTooManyRequests},
	{nativecommon.ErrInvalidArgument, codeInvalidParams, http.StatusBadRequest},
}

func invalidParams(message string, data interface{}) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: message, Data: data, status: http.StatusBadRequest}
}

func unauthorized(message string) *RPCError {
	return &RPCError{Code: codeUnauthorized, Message: message, status: http.StatusForbidden}
}

func unavailable(message string) *RPCError {
	return &RPCError{Code: codeServerError, Message: message, status: http.StatusServiceUnavailable}
}

// toRPCError maps an engine error onto its JSON-RPC code.
func toRPCError(err error) *RPCError {
	if err == nil {
		return nil
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		if rpcErr.status == 0 {
			rpcErr.status = http.StatusBadRequest
		}
		return rpcErr
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.kind) {
			return &RPCError{Code: m.code, Message: err.Error(), status: m.status}
		}
	}
	return &RPCError{Code: codeServerError, Message: "internal error", status: http.StatusInternalServerError}
}
