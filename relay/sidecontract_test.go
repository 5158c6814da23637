package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallTimeoutEnforced(t *testing.T) {
	backend := &fakeBackend{callHang: time.Minute}
	side := testSide(t, backend)
	side.CallTimeout = 30 * time.Millisecond

	start := time.Now()
	_, err := side.IsAlreadyRelayed(context.Background(), common.HexToHash(testMainTxHash))
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, time.Second)
}

func TestIsAlreadyRelayedDecodesContractAnswer(t *testing.T) {
	backend := &fakeBackend{relayed: true}
	side := testSide(t, backend)

	relayed, err := side.IsAlreadyRelayed(context.Background(), common.HexToHash(testMainTxHash))
	require.NoError(t, err)
	assert.True(t, relayed)

	backend.mu.Lock()
	backend.relayed = false
	backend.mu.Unlock()

	relayed, err = side.IsAlreadyRelayed(context.Background(), common.HexToHash(testMainTxHash))
	require.NoError(t, err)
	assert.False(t, relayed)
}

func TestTransactionReceiptNotMinedIsNotAnError(t *testing.T) {
	backend := &fakeBackend{receiptAfter: 1}
	side := testSide(t, backend)

	receipt, err := side.TransactionReceipt(context.Background(), common.HexToHash(testMainTxHash))
	require.NoError(t, err)
	assert.Nil(t, receipt)

	receipt, err = side.TransactionReceipt(context.Background(), common.HexToHash(testMainTxHash))
	require.NoError(t, err)
	require.NotNil(t, receipt)
}

func TestTransactionReceiptTransportFailure(t *testing.T) {
	backend := &fakeBackend{receiptErr: errors.New("502 bad gateway")}
	side := testSide(t, backend)

	_, err := side.TransactionReceipt(context.Background(), common.HexToHash(testMainTxHash))
	require.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded)
}
