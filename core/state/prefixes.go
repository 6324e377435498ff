package state

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	forumPrefix          = []byte("economy/forum/")
	userPrefix           = []byte("economy/user/")
	postPrefix           = []byte("economy/post/")
	operatorPoolKeyBytes = []byte("economy/operator-pool")
	operatorPrefix       = []byte("economy/operator/")
	sessionPrefix        = []byte("economy/session/")
	rewardRecordPrefix   = []byte("economy/reward/")
	rewardCountPrefix    = []byte("economy/reward-count/")
	rewardIndexPrefix    = []byte("economy/reward-index/")
	assetPrefix          = []byte("identity/asset/")
	balancePrefix        = []byte("bank/balance/")
	supplyPrefix         = []byte("bank/supply/")
	stateVersionKeyBytes = []byte("state/version")
)

// recordKey hashes the prefix and the length-delimited parts into a fixed
// 32-byte storage key.
func recordKey(prefix []byte, parts ...[]byte) []byte {
	size := len(prefix)
	for _, part := range parts {
		size += 4 + len(part)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, prefix...)
	for _, part := range parts {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(part)))
		buf = append(buf, part...)
	}
	return ethcrypto.Keccak256(buf)
}

func uint64Bytes(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}
