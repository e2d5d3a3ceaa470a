package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/cemleme/GRB-contracts/core"
	nativecommon "github.com/cemleme/GRB-contracts/native/common"
	"github.com/cemleme/GRB-contracts/native/refinery"
	"github.com/cemleme/GRB-contracts/native/ships"
)

type balanceParams struct {
	User string `json:"user"`
	Kind string `json:"kind,omitempty"`
}

type creditParams struct {
	User   string `json:"user"`
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

type levelsParams struct {
	User   string `json:"user"`
	Levels uint64 `json:"levels"`
}

type shipParams struct {
	User   string `json:"user,omitempty"`
	ShipID uint64 `json:"shipId"`
}

type exploreParams struct {
	User     string `json:"user"`
	Distance uint64 `json:"distance"`
}

type upgradeShipParams struct {
	User        string `json:"user"`
	ShipID      uint64 `json:"shipId"`
	HP          uint64 `json:"hp"`
	Attack      uint64 `json:"attack"`
	MiningSpeed uint64 `json:"miningSpeed"`
	TravelSpeed uint64 `json:"travelSpeed"`
}

type useCardParams struct {
	User   string `json:"user"`
	Kind   string `json:"kind"`
	ShipID uint64 `json:"shipId"`
}

type balanceResult struct {
	User     string            `json:"user"`
	Kind     string            `json:"kind,omitempty"`
	Amount   string            `json:"amount,omitempty"`
	Balances map[string]string `json:"balances,omitempty"`
}

type settlementResult struct {
	MineralSpent    string `json:"mineralSpent"`
	CrystalProduced string `json:"crystalProduced"`
}

type refineryResult struct {
	Refinery    *refinery.Refinery `json:"refinery"`
	UpgradeCost string             `json:"nextLevelCost"`
}

type fleetResult struct {
	User    string   `json:"user"`
	ShipIDs []uint64 `json:"shipIds"`
}

type onFleetResult struct {
	ShipID  uint64 `json:"shipId"`
	OnFleet bool   `json:"onFleet"`
}

type amountResult struct {
	Amount string `json:"amount"`
}

func (s *Server) registerMethods() map[string]method {
	return map[string]method{
		"game_initializeUser":        {module: core.ModuleUser, fn: s.handleInitializeUser},
		"game_balance":               {module: core.ModuleUser, fn: s.handleBalance},
		"game_credit":                {module: core.ModuleUser, admin: true, fn: s.handleCredit},
		"game_calculateRefinery":     {module: nativecommon.ModuleRefinery, fn: s.handleCalculateRefinery},
		"game_claimRefinery":         {module: nativecommon.ModuleRefinery, fn: s.handleClaimRefinery},
		"game_upgradeRefinery":       {module: nativecommon.ModuleRefinery, fn: s.handleUpgradeRefinery},
		"game_refinery":              {module: nativecommon.ModuleRefinery, fn: s.handleRefinery},
		"game_addShipToFleet":        {module: nativecommon.ModuleFleet, fn: s.handleAddShipToFleet},
		"game_removeShipFromFleet":   {module: nativecommon.ModuleFleet, fn: s.handleRemoveShipFromFleet},
		"game_explore":               {module: nativecommon.ModuleFleet, fn: s.handleExplore},
		"game_completeExploration":   {module: nativecommon.ModuleFleet, fn: s.handleCompleteExploration},
		"game_fleet":                 {module: nativecommon.ModuleFleet, fn: s.handleFleet},
		"game_exploration":           {module: nativecommon.ModuleFleet, fn: s.handleExploration},
		"game_shipIsOnFleet":         {module: nativecommon.ModuleFleet, fn: s.handleShipIsOnFleet},
		"game_ship":                  {module: nativecommon.ModuleFleet, fn: s.handleShip},
		"game_ships":                 {module: nativecommon.ModuleFleet, fn: s.handleShips},
		"game_upgradeShip":           {module: nativecommon.ModuleUpgrade, fn: s.handleUpgradeShip},
		"game_useUpgradeCard":        {module: nativecommon.ModuleUpgrade, fn: s.handleUseUpgradeCard},
		"game_buyCurrency":           {module: nativecommon.ModuleMarket, fn: s.handleBuyCurrency},
		"game_buyFuel":               {module: nativecommon.ModuleMarket, fn: s.handleBuyFuel},
		"game_boosterPackPrice":      {module: nativecommon.ModuleMarket, fn: s.handleBoosterPackPrice},
		"game_buyBoosterPack":        {module: nativecommon.ModuleMarket, fn: s.handleBuyBoosterPack},
		"game_useBoosterPack":        {module: nativecommon.ModuleMarket, fn: s.handleUseBoosterPack},
		"game_stake":                 {module: nativecommon.ModuleStaking, fn: s.handleStake},
		"game_unstake":               {module: nativecommon.ModuleStaking, fn: s.handleUnstake},
		"game_stakeInfo":             {module: nativecommon.ModuleStaking, fn: s.handleStakeInfo},
		"game_events":                {module: "journal", fn: s.handleEvents},
		"game_createTestShip":        {module: nativecommon.ModuleMarket, fn: s.handleCreateTestShip},
		"game_createTestUpgradeCard": {module: nativecommon.ModuleMarket, fn: s.handleCreateTestUpgradeCard},
		"game_createTestBoosterPack": {module: nativecommon.ModuleMarket, fn: s.handleCreateTestBoosterPack},
	}
}

func (s *Server) userFrom(ctx context.Context, req *RPCRequest) (common.Address, error) {
	var params userParams
	if err := decodeParams(req, &params); err != nil {
		return common.Address{}, err
	}
	return s.callerFor(ctx, params.User)
}

func (s *Server) handleInitializeUser(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.game.InitializeUser(ctx, user)
}

func (s *Server) handleBalance(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params balanceParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	if params.Kind == "" {
		balances, err := s.game.Balances(user)
		if err != nil {
			return nil, err
		}
		out := make(map[string]string, len(balances))
		for kind, amount := range balances {
			out[kind] = amountString(amount)
		}
		return balanceResult{User: user.Hex(), Balances: out}, nil
	}
	kind, err := parseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	amount, err := s.game.Balance(user, kind)
	if err != nil {
		return nil, err
	}
	return balanceResult{User: user.Hex(), Kind: kind.String(), Amount: amountString(amount)}, nil
}

func (s *Server) handleCredit(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params creditParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := parseAddress("user", params.User)
	if err != nil {
		return nil, err
	}
	kind, err := parseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.game.Credit(ctx, user, kind, amount); err != nil {
		return nil, err
	}
	balance, err := s.game.Balance(user, kind)
	if err != nil {
		return nil, err
	}
	return balanceResult{User: user.Hex(), Kind: kind.String(), Amount: amountString(balance)}, nil
}

func settlementFrom(settlement refinery.Settlement) settlementResult {
	return settlementResult{
		MineralSpent:    amountString(settlement.MineralSpent),
		CrystalProduced: amountString(settlement.CrystalProduced),
	}
}

func (s *Server) handleCalculateRefinery(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	settlement, err := s.game.CalculateRefinery(user)
	if err != nil {
		return nil, err
	}
	return settlementFrom(settlement), nil
}

func (s *Server) handleClaimRefinery(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	settlement, err := s.game.ClaimRefinery(ctx, user)
	if err != nil {
		return nil, err
	}
	return settlementFrom(settlement), nil
}

func (s *Server) handleUpgradeRefinery(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params levelsParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	if params.Levels == 0 {
		return nil, invalidParams("levels must be positive", nil)
	}
	return s.game.UpgradeRefinery(ctx, user, params.Levels)
}

func (s *Server) handleRefinery(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	ref, err := s.game.Refinery(user)
	if err != nil {
		return nil, err
	}
	cost, err := s.game.RefineryUpgradeCost(user, 1)
	if err != nil {
		return nil, err
	}
	return refineryResult{Refinery: ref, UpgradeCost: amountString(cost)}, nil
}

func (s *Server) handleAddShipToFleet(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params shipParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	if err := s.game.AddShipToFleet(ctx, user, params.ShipID); err != nil {
		return nil, err
	}
	return s.fleetOf(user)
}

func (s *Server) handleRemoveShipFromFleet(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params shipParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	if err := s.game.RemoveShipFromFleet(ctx, user, params.ShipID); err != nil {
		return nil, err
	}
	return s.fleetOf(user)
}

func (s *Server) fleetOf(user common.Address) (fleetResult, error) {
	ids, err := s.game.Fleet(user)
	if err != nil {
		return fleetResult{}, err
	}
	if ids == nil {
		ids = []uint64{}
	}
	return fleetResult{User: user.Hex(), ShipIDs: ids}, nil
}

func (s *Server) handleExplore(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params exploreParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	return s.game.Explore(ctx, user, params.Distance)
}

func (s *Server) handleCompleteExploration(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	reward, err := s.game.CompleteExploration(ctx, user)
	if err != nil {
		return nil, err
	}
	return amountResult{Amount: amountString(reward)}, nil
}

func (s *Server) handleFleet(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.fleetOf(user)
}

func (s *Server) handleExploration(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.game.Exploration(user)
}

func (s *Server) handleShipIsOnFleet(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params shipParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	onFleet, err := s.game.IsOnFleet(params.ShipID)
	if err != nil {
		return nil, err
	}
	return onFleetResult{ShipID: params.ShipID, OnFleet: onFleet}, nil
}

func (s *Server) handleShip(_ context.Context, req *RPCRequest) (interface{}, error) {
	var params shipParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	return s.game.Ship(params.ShipID)
}

func (s *Server) handleShips(ctx context.Context, req *RPCRequest) (interface{}, error) {
	user, err := s.userFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	owned, err := s.game.ShipsOf(user)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		owned = []*ships.Ship{}
	}
	return owned, nil
}

func (s *Server) handleUpgradeShip(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params upgradeShipParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	user, err := s.callerFor(ctx, params.User)
	if err != nil {
		return nil, err
	}
	delta := ships.Stats{
		HP:          params.HP,
		Attack:      params.Attack,
		MiningSpeed: params.MiningSpeed,
		TravelSpeed: params.TravelSpeed,
	}
	return s.game.UpgradeShip(ctx, user, params.ShipID, delta)
}

func (s *Server) handleUseUpgradeCard(ctx context.Context, req *RPCRequest) (interface{}, error) {
	var params useCardParams
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
	return s.game.UseUpgradeCard(ctx, user, kind, params.ShipID)
}
