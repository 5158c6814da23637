package codec

import (
	"math/big"
	"testing"

	"gobridgerelay/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDepositTopic = "0xe1fffcc4923d04b559f4d29a8bfc6cda04eb5b0d3c460751c2402c5c5cc9109c"
	testLogData      = "0x000000000000000000000000aff3454fce5edbc8cca8697c15331677e6ebcccc00000000000000000000000000000000000000000000000000000000000000f0"
	testMainTxHash   = "0x884edad9ce6fa2440d8a54cc123490eb96d2768479d49ff9c7366125a9424364"
	// selector of deposit(address,uint256,bytes32) followed by the log
	// fields and the source transaction hash
	testSidePayload = "0x26b3293f000000000000000000000000aff3454fce5edbc8cca8697c15331677e6ebcccc00000000000000000000000000000000000000000000000000000000000000f0884edad9ce6fa2440d8a54cc123490eb96d2768479d49ff9c7366125a9424364"
)

func depositEvent(t *testing.T) types.ChainEvent {
	t.Helper()
	return types.ChainEvent{
		TxHash: common.HexToHash(testMainTxHash),
		Topics: []common.Hash{common.HexToHash(testDepositTopic)},
		Data:   hexutil.MustDecode(testLogData),
	}
}

func TestDepositTopicMatchesContract(t *testing.T) {
	assert.Equal(t, common.HexToHash(testDepositTopic), DepositTopic)
}

func TestDecodeDeposit(t *testing.T) {
	deposit, err := DecodeDeposit(depositEvent(t))
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0xaff3454fce5edbc8cca8697c15331677e6ebcccc"), deposit.Recipient)
	assert.Equal(t, big.NewInt(0xf0), deposit.Value)
	assert.Equal(t, common.HexToHash(testMainTxHash), deposit.MainTxHash)
}

func TestSideCallDataVector(t *testing.T) {
	deposit, err := DecodeDeposit(depositEvent(t))
	require.NoError(t, err)

	payload, err := deposit.SideCallData()
	require.NoError(t, err)
	assert.Equal(t, hexutil.MustDecode(testSidePayload), payload)
}

func TestSideCallDataDeterministic(t *testing.T) {
	deposit := &Deposit{
		Recipient:  common.HexToAddress("0xaff3454fce5edbc8cca8697c15331677e6ebcccc"),
		Value:      big.NewInt(1000),
		MainTxHash: common.HexToHash(testMainTxHash),
	}

	first, err := deposit.SideCallData()
	require.NoError(t, err)
	second, err := deposit.SideCallData()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDecodeRejectsMissingTxHash(t *testing.T) {
	ev := depositEvent(t)
	ev.TxHash = common.Hash{}

	_, err := DecodeDeposit(ev)
	assert.ErrorIs(t, err, ErrMissingTxHash)
}

func TestDecodeRejectsWrongTopic(t *testing.T) {
	ev := depositEvent(t)
	ev.Topics = []common.Hash{common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")}

	_, err := DecodeDeposit(ev)
	assert.ErrorIs(t, err, ErrWrongTopic)
}

func TestDecodeRejectsTruncatedData(t *testing.T) {
	ev := depositEvent(t)
	ev.Data = ev.Data[:32]

	_, err := DecodeDeposit(ev)
	assert.Error(t, err)
}

func TestDepositEventDataRoundTrip(t *testing.T) {
	recipient := common.HexToAddress("0xaff3454fce5edbc8cca8697c15331677e6ebcccc")
	value := big.NewInt(1000)

	data, err := DepositEventData(recipient, value)
	require.NoError(t, err)

	deposit, err := DecodeDeposit(types.ChainEvent{
		TxHash: common.HexToHash(testMainTxHash),
		Topics: []common.Hash{DepositTopic},
		Data:   data,
	})
	require.NoError(t, err)
	assert.Equal(t, recipient, deposit.Recipient)
	assert.Equal(t, value, deposit.Value)
}

func TestHasAuthoritySignedRoundTrip(t *testing.T) {
	authority := common.HexToAddress("0x0000000000000000000000000000000000000001")

	payload, err := PackHasAuthoritySigned(authority, common.HexToHash(testMainTxHash))
	require.NoError(t, err)
	// selector + two words
	assert.Len(t, payload, 4+32+32)

	signed, err := UnpackHasAuthoritySigned(common.LeftPadBytes([]byte{1}, 32))
	require.NoError(t, err)
	assert.True(t, signed)

	signed, err = UnpackHasAuthoritySigned(make([]byte, 32))
	require.NoError(t, err)
	assert.False(t, signed)
}
