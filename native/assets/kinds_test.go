package assets

import (
	"errors"
	"testing"

	"github.com/cemleme/GRB-contracts/native/common"
)

func TestCardStatBands(t *testing.T) {
	cases := []struct {
		kind Kind
		stat Stat
		tier uint64
	}{
		{22, StatHP, 0},
		{24, StatHP, 2},
		{25, StatAttack, 0},
		{27, StatAttack, 2},
		{28, StatMiningSpeed, 0},
		{30, StatMiningSpeed, 2},
		{31, StatTravelSpeed, 0},
		{33, StatTravelSpeed, 2},
	}
	for _, tc := range cases {
		stat, tier, err := CardStat(tc.kind)
		if err != nil {
			t.Fatalf("card %d: %v", tc.kind, err)
		}
		if stat != tc.stat || tier != tc.tier {
			t.Fatalf("card %d: got %s/%d want %s/%d", tc.kind, stat, tier, tc.stat, tc.tier)
		}
		back, err := CardKind(stat, tier)
		if err != nil || back != tc.kind {
			t.Fatalf("card kind round trip for %d: got %d (%v)", tc.kind, back, err)
		}
	}
}

func TestCardStatRejectsNonCards(t *testing.T) {
	for _, kind := range []Kind{Mineral, BoosterPack, 21, 34, GRB} {
		if _, _, err := CardStat(kind); !errors.Is(err, common.ErrInvalidArgument) {
			t.Fatalf("kind %d: expected invalid argument, got %v", kind, err)
		}
	}
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind(" Crystal ")
	if err != nil || kind != Crystal {
		t.Fatalf("parse crystal: %v %v", kind, err)
	}
	kind, err = ParseKind("25")
	if err != nil || kind != 25 {
		t.Fatalf("parse card id: %v %v", kind, err)
	}
	if _, err := ParseKind("34"); err == nil {
		t.Fatalf("ship ids are not fungible kinds")
	}
	if _, err := ParseKind("gold"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}

func TestKindString(t *testing.T) {
	if got := Kind(26).String(); got != "card:attack:1" {
		t.Fatalf("unexpected card name: %s", got)
	}
	if got := Native.String(); got != "native" {
		t.Fatalf("unexpected native name: %s", got)
	}
}
