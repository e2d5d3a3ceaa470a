package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestBufferFlushesInOrder(t *testing.T) {
	var buf Buffer
	user := common.HexToAddress("0x01")
	buf.Emit(FleetShipAdded{User: user, ShipID: 34})
	buf.Emit(FleetShipRemoved{User: user, ShipID: 34})
	buf.Emit(nil)
	require.Equal(t, 2, buf.Len())

	var sink Buffer
	buf.Flush(&sink)
	require.Zero(t, buf.Len())
	got := sink.Events()
	require.Len(t, got, 2)
	require.Equal(t, TypeFleetShipAdded, got[0].EventType())
	require.Equal(t, TypeFleetShipRemoved, got[1].EventType())
}

func TestBusDeliversAndCancels(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(4)
	require.Equal(t, 1, bus.Subscribers())

	user := common.HexToAddress("0x02")
	Multi{bus, NoopEmitter{}}.Emit(RefineryClaimed{User: user, MineralSpent: big.NewInt(5), CrystalProduced: big.NewInt(5)})

	evt := <-ch
	require.Equal(t, TypeRefineryClaimed, evt.EventType())
	require.Equal(t, user.Hex(), UserOf(evt))

	cancel()
	cancel()
	require.Zero(t, bus.Subscribers())
	_, open := <-ch
	require.False(t, open)
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Subscribe(1)
	defer cancel()
	bus.Emit(FleetShipAdded{ShipID: 1})
	bus.Emit(FleetShipAdded{ShipID: 2})
	first := <-ch
	require.Equal(t, "1", first.(Typed).Event().Attributes["shipId"])
	select {
	case evt := <-ch:
		t.Fatalf("unexpected second event %v", evt)
	default:
	}
}

func TestEventAttributes(t *testing.T) {
	evt := ShipCreated{Owner: common.HexToAddress("0x03"), ShipID: 35, HP: 60, MiningSpeed: 2, InFleet: true}.Event()
	require.Equal(t, TypeShipCreated, evt.Type)
	require.Equal(t, "35", evt.Attributes["shipId"])
	require.Equal(t, "true", evt.Attributes["inFleet"])
	require.Equal(t, "0", RefineryClaimed{}.Event().Attributes["mineralSpent"])
}
