package state

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	balancePrefix       = []byte("game:balance:")
	shipPrefix          = []byte("game:ship:")
	shipOwnerPrefix     = []byte("game:ship-owner:")
	shipsOwnedPrefix    = []byte("game:ships-owned:")
	shipsReceivedPrefix = []byte("game:ships-received:")
	fleetPrefix         = []byte("game:fleet:")
	explorationPrefix   = []byte("game:explore:")
	refineryPrefix      = []byte("game:refinery:")
	stakePrefix         = []byte("game:stake:")
	quotaPrefix         = []byte("game:quota:")

	shipNextIDKey         = ethcrypto.Keccak256([]byte("game:ship-next-id"))
	randomnessPositionKey = ethcrypto.Keccak256([]byte("game:randomness-position"))
)

func hashKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += len(part) + 1
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func u64(v uint64) []byte {
	var out [8]byte
	binary.BigEndian.PutUint64(out[:], v)
	return out[:]
}

func balanceKey(owner common.Address, kind uint64) []byte {
	return hashKey(balancePrefix, u64(kind), owner.Bytes())
}

func shipKey(id uint64) []byte { return hashKey(shipPrefix, u64(id)) }

func shipOwnerKey(id uint64) []byte { return hashKey(shipOwnerPrefix, u64(id)) }

func shipsOwnedKey(owner common.Address) []byte { return hashKey(shipsOwnedPrefix, owner.Bytes()) }

func shipsReceivedKey(owner common.Address) []byte {
	return hashKey(shipsReceivedPrefix, owner.Bytes())
}

func fleetKey(owner common.Address) []byte { return hashKey(fleetPrefix, owner.Bytes()) }

func explorationKey(owner common.Address) []byte { return hashKey(explorationPrefix, owner.Bytes()) }

func refineryKey(owner common.Address) []byte { return hashKey(refineryPrefix, owner.Bytes()) }

func stakeKey(owner common.Address) []byte { return hashKey(stakePrefix, owner.Bytes()) }

func quotaKey(module string, owner common.Address) []byte {
	return hashKey(quotaPrefix, []byte(module), owner.Bytes())
}
