package journal

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/cemleme/GRB-contracts/core/events"
)

func openTemp(t *testing.T) (*Journal, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	j, err := Open(path, nil)
	require.NoError(t, err)
	return j, path
}

func TestAppendAndQueryByUser(t *testing.T) {
	j, _ := openTemp(t)
	defer j.Close()
	alice := common.HexToAddress("0x00000000000000000000000000000000000000A1")
	bob := common.HexToAddress("0x00000000000000000000000000000000000000B2")

	require.NoError(t, j.Append(context.Background(),
		events.FleetShipAdded{User: alice, ShipID: 34},
		events.MarketFuelBought{User: bob, Quantity: 2, Cost: big.NewInt(6)},
		events.FleetShipRemoved{User: alice, ShipID: 34},
	))

	recs, err := j.Query(context.Background(), Filter{User: alice.Hex()})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, events.TypeFleetShipAdded, recs[0].Type)
	require.Equal(t, events.TypeFleetShipRemoved, recs[1].Type)
	require.Less(t, recs[0].Seq, recs[1].Seq)
	require.Equal(t, "34", recs[0].Attributes["shipId"])

	recs, err = j.Query(context.Background(), Filter{Type: events.TypeMarketFuelBought})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	recs, err = j.Query(context.Background(), Filter{AfterSeq: 2})
	require.NoError(t, err)
	require.Len(t, recs, 1)

	n, err := j.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestSequenceSurvivesReopen(t *testing.T) {
	j, path := openTemp(t)
	user := common.HexToAddress("0x01")
	j.Emit(events.FleetShipAdded{User: user, ShipID: 40})
	require.NoError(t, j.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	reopened.Emit(events.FleetShipAdded{User: user, ShipID: 41})

	recs, err := reopened.Query(context.Background(), Filter{User: user.Hex(), Limit: 10})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, uint64(1), recs[0].Seq)
	require.Equal(t, uint64(2), recs[1].Seq)
}
