package types

import (
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// ChainEvent is one observed log entry from the main chain. Every event
// handed to the relay core must come from a mined transaction, so TxHash
// is never the zero hash past the scanner boundary.
type ChainEvent struct {
	TxHash      common.Hash
	BlockNumber uint64
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
}

// EventFromLog converts a go-ethereum log into a ChainEvent.
func EventFromLog(l ethtypes.Log) ChainEvent {
	return ChainEvent{
		TxHash:      l.TxHash,
		BlockNumber: l.BlockNumber,
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
	}
}

// RelayRecord is a single relay operation (one main-chain deposit and its
// side-chain confirmation transaction) having a status.
type RelayRecord struct {
	ID           string
	Status       string
	TsFound      int64
	BlockNumber  uint64
	SourceTxHash string // main-chain deposit transaction
	SideTxHash   string // side-chain confirmation transaction, filled on submit
	Recipient    string
	Value        string // value in WEI (1e18)
	Message      string // messsages that help to track processing/errors
}
