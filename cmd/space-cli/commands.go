package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

type command struct {
	usage string
	build func(args []string) (string, interface{}, error)
}

// userCommand builds a command whose only parameter is the user address.
func userCommand(method string) command {
	return command{
		usage: "<user>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 1 {
				return "", nil, fmt.Errorf("expected 1 argument")
			}
			return method, map[string]interface{}{"user": args[0]}, nil
		},
	}
}

func parseUint(field, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, raw)
	}
	return v, nil
}

var commands = map[string]command{
	"init":          userCommand("game_initializeUser"),
	"refinery":      userCommand("game_refinery"),
	"claim":         userCommand("game_claimRefinery"),
	"pending":       userCommand("game_calculateRefinery"),
	"fleet":         userCommand("game_fleet"),
	"ships":         userCommand("game_ships"),
	"exploration":   userCommand("game_exploration"),
	"complete":      userCommand("game_completeExploration"),
	"booster-price": userCommand("game_boosterPackPrice"),
	"open-booster":  userCommand("game_useBoosterPack"),
	"unstake":       userCommand("game_unstake"),
	"stake-info":    userCommand("game_stakeInfo"),
	"test-ship":     userCommand("game_createTestShip"),
	"balance": {
		usage: "<user> [kind]",
		build: func(args []string) (string, interface{}, error) {
			if len(args) < 1 || len(args) > 2 {
				return "", nil, fmt.Errorf("expected 1 or 2 arguments")
			}
			params := map[string]interface{}{"user": args[0]}
			if len(args) == 2 {
				params["kind"] = args[1]
			}
			return "game_balance", params, nil
		},
	},
	"credit": {
		usage: "<user> <kind> <amount>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 3 {
				return "", nil, fmt.Errorf("expected 3 arguments")
			}
			return "game_credit", map[string]interface{}{"user": args[0], "kind": args[1], "amount": args[2]}, nil
		},
	},
	"upgrade-refinery": {
		usage: "<user> <levels>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 2 {
				return "", nil, fmt.Errorf("expected 2 arguments")
			}
			levels, err := parseUint("levels", args[1])
			if err != nil {
				return "", nil, err
			}
			return "game_upgradeRefinery", map[string]interface{}{"user": args[0], "levels": levels}, nil
		},
	},
	"add-ship":    shipCommand("game_addShipToFleet"),
	"remove-ship": shipCommand("game_removeShipFromFleet"),
	"ship": {
		usage: "<shipId>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 1 {
				return "", nil, fmt.Errorf("expected 1 argument")
			}
			id, err := parseUint("shipId", args[0])
			if err != nil {
				return "", nil, err
			}
			return "game_ship", map[string]interface{}{"shipId": id}, nil
		},
	},
	"explore": {
		usage: "<user> <distance>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 2 {
				return "", nil, fmt.Errorf("expected 2 arguments")
			}
			distance, err := parseUint("distance", args[1])
			if err != nil {
				return "", nil, err
			}
			return "game_explore", map[string]interface{}{"user": args[0], "distance": distance}, nil
		},
	},
	"use-card": {
		usage: "<user> <kind> <shipId>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 3 {
				return "", nil, fmt.Errorf("expected 3 arguments")
			}
			id, err := parseUint("shipId", args[2])
			if err != nil {
				return "", nil, err
			}
			return "game_useUpgradeCard", map[string]interface{}{"user": args[0], "kind": args[1], "shipId": id}, nil
		},
	},
	"buy-fuel": {
		usage: "<user> <quantity>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 2 {
				return "", nil, fmt.Errorf("expected 2 arguments")
			}
			qty, err := parseUint("quantity", args[1])
			if err != nil {
				return "", nil, err
			}
			return "game_buyFuel", map[string]interface{}{"user": args[0], "quantity": qty}, nil
		},
	},
	"buy-currency": {
		usage: "<user> <amount> <payment>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 3 {
				return "", nil, fmt.Errorf("expected 3 arguments")
			}
			return "game_buyCurrency", map[string]interface{}{"user": args[0], "amount": args[1], "payment": args[2]}, nil
		},
	},
	"buy-booster": {
		usage: "<user> [payment]",
		build: func(args []string) (string, interface{}, error) {
			switch len(args) {
			case 1:
				return "game_buyBoosterPack", map[string]interface{}{"user": args[0], "payWith": "resource"}, nil
			case 2:
				return "game_buyBoosterPack", map[string]interface{}{"user": args[0], "payWith": "payment", "payment": args[1]}, nil
			default:
				return "", nil, fmt.Errorf("expected 1 or 2 arguments")
			}
		},
	},
	"stake": {
		usage: "<user> <amount> <lockPeriod>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 3 {
				return "", nil, fmt.Errorf("expected 3 arguments")
			}
			period, err := parseUint("lockPeriod", args[2])
			if err != nil {
				return "", nil, err
			}
			return "game_stake", map[string]interface{}{"user": args[0], "amount": args[1], "lockPeriod": period}, nil
		},
	},
	"events": {
		usage: "<user> [limit]",
		build: func(args []string) (string, interface{}, error) {
			if len(args) < 1 || len(args) > 2 {
				return "", nil, fmt.Errorf("expected 1 or 2 arguments")
			}
			params := map[string]interface{}{"user": args[0]}
			if len(args) == 2 {
				limit, err := strconv.Atoi(args[1])
				if err != nil || limit <= 0 {
					return "", nil, fmt.Errorf("invalid limit %q", args[1])
				}
				params["limit"] = limit
			}
			return "game_events", params, nil
		},
	},
	"call": {
		usage: "<method> [params-json]",
		build: func(args []string) (string, interface{}, error) {
			if len(args) < 1 || len(args) > 2 {
				return "", nil, fmt.Errorf("expected 1 or 2 arguments")
			}
			if len(args) == 1 {
				return args[0], nil, nil
			}
			var params json.RawMessage
			if err := json.Unmarshal([]byte(args[1]), &params); err != nil {
				return "", nil, fmt.Errorf("params must be JSON: %w", err)
			}
			return args[0], params, nil
		},
	},
}

func shipCommand(method string) command {
	return command{
		usage: "<user> <shipId>",
		build: func(args []string) (string, interface{}, error) {
			if len(args) != 2 {
				return "", nil, fmt.Errorf("expected 2 arguments")
			}
			id, err := parseUint("shipId", args[1])
			if err != nil {
				return "", nil, err
			}
			return method, map[string]interface{}{"user": args[0], "shipId": id}, nil
		},
	}
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
