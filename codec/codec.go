package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"gobridgerelay/types"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// interface fragments of the two bridge contracts; the side payload layout
// must round-trip through the same ABI the side contract was compiled with
const mainBridgeJSON = `[
	{"anonymous":false,"inputs":[{"indexed":false,"name":"recipient","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Deposit","type":"event"}
]`

const sideBridgeJSON = `[
	{"constant":false,"inputs":[{"name":"recipient","type":"address"},{"name":"value","type":"uint256"},{"name":"transactionHash","type":"bytes32"}],"name":"deposit","outputs":[],"type":"function"},
	{"constant":true,"inputs":[{"name":"authority","type":"address"},{"name":"transactionHash","type":"bytes32"}],"name":"hasAuthoritySignedMainToSide","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

var (
	mainBridgeABI abi.ABI
	sideBridgeABI abi.ABI

	// DepositTopic is keccak("Deposit(address,uint256)")
	DepositTopic common.Hash
)

func init() {
	var err error
	mainBridgeABI, err = abi.JSON(strings.NewReader(mainBridgeJSON))
	if err != nil {
		panic(fmt.Sprintf("cannot parse main bridge ABI: %s", err))
	}
	sideBridgeABI, err = abi.JSON(strings.NewReader(sideBridgeJSON))
	if err != nil {
		panic(fmt.Sprintf("cannot parse side bridge ABI: %s", err))
	}
	DepositTopic = mainBridgeABI.Events["Deposit"].ID
}

var (
	ErrMissingTxHash = errors.New("event log has no transaction hash, log is not mined")
	ErrWrongTopic    = errors.New("event log topic is not a Deposit event")
)

// Deposit is the decoded Deposit log paired with the main-chain transaction
// that produced it.
type Deposit struct {
	Recipient  common.Address
	Value      *big.Int
	MainTxHash common.Hash
}

// DecodeDeposit validates and decodes a main-chain Deposit log. Anything
// that does not match the Deposit signature is rejected here, before a
// relay is ever started.
func DecodeDeposit(ev types.ChainEvent) (*Deposit, error) {
	if ev.TxHash == (common.Hash{}) {
		return nil, ErrMissingTxHash
	}
	if len(ev.Topics) != 1 || ev.Topics[0] != DepositTopic {
		return nil, ErrWrongTopic
	}

	vals, err := mainBridgeABI.Unpack("Deposit", ev.Data)
	if err != nil {
		return nil, fmt.Errorf("cannot unpack Deposit log data: %s", err)
	}
	recipient, ok := vals[0].(common.Address)
	if !ok {
		return nil, errors.New("Deposit log recipient is not an address")
	}
	value, ok := vals[1].(*big.Int)
	if !ok {
		return nil, errors.New("Deposit log value is not an uint256")
	}

	return &Deposit{
		Recipient:  recipient,
		Value:      value,
		MainTxHash: ev.TxHash,
	}, nil
}

// SideCallData builds the call payload for SideBridge.deposit(). Encoding is
// pure: the same deposit always yields byte-identical payload, which is what
// lets the side contract key relayed status by main transaction hash.
func (d *Deposit) SideCallData() ([]byte, error) {
	return sideBridgeABI.Pack("deposit", d.Recipient, d.Value, [32]byte(d.MainTxHash))
}

// DepositEventData packs (recipient, value) the way the main contract emits
// them in a Deposit log. Used to rebuild events from persisted relay records.
func DepositEventData(recipient common.Address, value *big.Int) ([]byte, error) {
	return mainBridgeABI.Events["Deposit"].Inputs.Pack(recipient, value)
}

// PackHasAuthoritySigned builds the eth_call payload for the side contract's
// relayed-status query.
func PackHasAuthoritySigned(authority common.Address, mainTxHash common.Hash) ([]byte, error) {
	return sideBridgeABI.Pack("hasAuthoritySignedMainToSide", authority, [32]byte(mainTxHash))
}

// UnpackHasAuthoritySigned decodes the boolean returned by the relayed-status
// query.
func UnpackHasAuthoritySigned(data []byte) (bool, error) {
	vals, err := sideBridgeABI.Unpack("hasAuthoritySignedMainToSide", data)
	if err != nil {
		return false, fmt.Errorf("cannot unpack hasAuthoritySignedMainToSide result: %s", err)
	}
	signed, ok := vals[0].(bool)
	if !ok {
		return false, errors.New("hasAuthoritySignedMainToSide result is not a bool")
	}
	return signed, nil
}
