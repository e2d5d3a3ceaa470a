package rpc

import (
	"context"
	"strings"

	"github.com/cemleme/GRB-contracts/native/assets"
	"github.com/cemleme/GRB-contracts/native/ships"
	"github.com/cemleme/GRB-contracts/storage/journal"
)

const (
	payWithResource = "resource"
	payWithPayment  = "payment"
)

type buyCurrencyParams struct {
	User    string `json:"user"`
	Amount  string `json:"amount"`
	Payment string `json:"payment"`
}

type quantityParams struct {
	User     string `json:"user"`
	Quantity uint64 `json:"quantity"`
}

type buyBoosterParams struct {
	User    string `json:"user"`
	PayWith string `json:"payWith"`
	Payment string `json:"payment,omitempty"`
}

type stakeParams struct {
	User       string `json:"user"`
	Amount     string `json:"amount"`
	LockPeriod uint64 `json:"lockPeriod"`
}

type testCardParams struct {
	User     string `json:"user"`
	Kind     string `json:"kind"`
	Quantity uint64 `json:"quantity"`
}

type eventsParams struct {
	User     string `json:"user,omitempty"`
	Type     string `json:"type,omitempty"`
	AfterSeq uint64 `json:"afterSeq,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type boosterQuoteResult struct {
	ResourcePrice string `json:"resourcePrice"`
	DiscountBps   uint64 `json:"discountBps"`
	PaymentPrice  string `json:"paymentPrice"`
}

type boosterContentsResult struct {
	Card    string      `json:"card"`
	Mineral string      `json:"mineral"`
	Ship    *ships.Ship `json:"ship,omitempty"`
}

type mintResult struct {
	User     string `json:"user"`
	Kind     string `json:"kind"`
	Quantity uint64 `json:"quantity"`
}

type eventsResult struct {
	Events []journal.EventRecord `json:"events"`
}

func (s *Server) handleBuyCurrency(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params buyCurrencyParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	payment, err := parseAmount("payment", params.Payment)
	if err != nil {
		return nil, err
	}
	if err := s.game.BuyCurrency(ctx, user, amount, payment); err != nil {
		return nil, err
	}
	return amountResult{Amount: amount.String()}, nil
}

func (s *Server) handleBuyFuel(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params quantityParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	if params.Quantity == 0 {
		return nil, invalidParams("quantity must be positive", nil)
	}
	cost, err := s.game.BuyFuel(ctx, user, params.Quantity)
	if err != nil {
		return nil, err
	}
	return amountResult{Amount: amountString(cost)}, nil
}

func (s *Server) handleBoosterPackPrice(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	quote, err := s.game.BoosterPackPrice(user)
	if err != nil {
		return nil, err
	}
	return boosterQuoteResult{
		ResourcePrice: amountString(quote.ResourcePrice),
		DiscountBps:   quote.DiscountBps,
		PaymentPrice:  amountString(quote.PaymentPrice),
	}, nil
}

func (s *Server) handleBuyBoosterPack(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params buyBoosterParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(params.PayWith)) {
	case "", payWithResource:
		price, err := s.game.BuyBoosterPackWithResource(ctx, user)
		if err != nil {
			return nil, err
		}
		return amountResult{Amount: amountString(price)}, nil
	case payWithPayment:
		payment, err := parseAmount("payment", params.Payment)
		if err != nil {
			return nil, err
		}
		if err := s.game.BuyBoosterPackWithPayment(ctx, user, payment); err != nil {
			return nil, err
		}
		return amountResult{Amount: payment.String()}, nil
	default:
		return nil, invalidParams("payWith must be resource or payment", params.PayWith)
	}
}

func (s *Server) handleUseBoosterPack(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	contents, err := s.game.UseBoosterPack(ctx, user)
	if err != nil {
		return nil, err
	}
	return boosterContentsResult{
		Card:    contents.Card.String(),
		Mineral: amountString(contents.Mineral),
		Ship:    contents.Ship,
	}, nil
}

func (s *Server) handleStake(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params stakeParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	return s.game.Stake(ctx, user, amount, params.LockPeriod)
}

func (s *Server) handleUnstake(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	amount, err := s.game.Unstake(ctx, user)
	if err != nil {
		return nil, err
	}
	return amountResult{Amount: amountString(amount)}, nil
}

func (s *Server) handleStakeInfo(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.game.StakeInfo(user)
}

func (s *Server) handleEvents(ctx context.Context, req *RPCRequest) (interface{}, error) {
	if s.journal == nil {
		return nil, unavailable("event journal disabled")
	}
	var params eventsParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	filter := journal.Filter{Type: params.Type, AfterSeq: params.AfterSeq, Limit: params.Limit}
	if params.User != "" {
		user, err := s.callerFor(ctx, params.User)
		if err != nil {
			return nil, err
		}
		filter.User = user.Hex()
	} else if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	records, err := s.journal.Query(ctx, filter)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []journal.EventRecord{}
	}
	return eventsResult{Events: records}, nil
}

func (s *Server) handleCreateTestShip(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.game.CreateTestShip(ctx, user)
}

func (s *Server) handleCreateTestUpgradeCard(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params testCardParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	qty := params.Quantity
	if qty == 0 {
		qty = 1
	}
	if err := s.game.CreateTestUpgradeCard(ctx, user, kind, qty); err != nil {
		return nil, err
	}
	return mintResult{User: user.Hex(), Kind: kind.String(), Quantity: qty}, nil
}

func (s *Server) handleCreateTestBoosterPack(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params quantityParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	qty := params.Quantity
	if qty == 0 {
		qty = 1
	}
	if err := s.game.CreateTestBoosterPack(ctx, user, qty); err != nil {
		return nil, err
	}
	return mintResult{User: user.Hex(), Kind: assets.BoosterPack.String(), Quantity: qty}, nil
}
