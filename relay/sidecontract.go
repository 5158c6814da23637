package relay

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"time"

	"gobridgerelay/codec"
	"gobridgerelay/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Backend is the side-chain RPC surface the facade needs. *ethclient.Client
// satisfies it; tests substitute a scripted fake. The underlying connection
// must tolerate concurrent calls, which go-ethereum's client does.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// SideContract binds one destination chain/contract/authority triple and
// wraps every call in the configured timeout. Immutable after construction,
// shared read-only by every relay task against the same side chain.
type SideContract struct {
	backend Backend

	Authority       common.Address
	ContractAddress common.Address
	ChainID         *big.Int
	GasLimit        uint64

	CallTimeout    time.Duration
	ReceiptTimeout time.Duration
	PollInterval   time.Duration

	privateKey *ecdsa.PrivateKey
}

// NewSideContract builds the facade from the side chain config and the
// authority credentials.
func NewSideContract(backend Backend, chainCfg config.ChainConfig, authorityAddress, authorityKeyHex string) (*SideContract, error) {
	privateKey, err := crypto.HexToECDSA(authorityKeyHex)
	if err != nil {
		return nil, fmt.Errorf("error instantiating private key: %s", err)
	}

	return &SideContract{
		backend:         backend,
		Authority:       common.HexToAddress(authorityAddress),
		ContractAddress: common.HexToAddress(chainCfg.ContractAddress),
		ChainID:         big.NewInt(int64(chainCfg.ChainID)),
		GasLimit:        chainCfg.GasLimit,
		CallTimeout:     config.CallTimeout(),
		ReceiptTimeout:  config.ReceiptTimeout(),
		PollInterval:    config.PollInterval(),
		privateKey:      privateKey,
	}, nil
}

// IsAlreadyRelayed asks the side contract whether the authority has already
// signed a relay of mainTxHash. Pure read, safe to call arbitrarily often.
func (s *SideContract) IsAlreadyRelayed(ctx context.Context, mainTxHash common.Hash) (bool, error) {
	data, err := codec.PackHasAuthoritySigned(s.Authority, mainTxHash)
	if err != nil {
		return false, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.CallTimeout)
	defer cancel()

	out, err := s.backend.CallContract(cctx, ethereum.CallMsg{
		From: s.Authority,
		To:   &s.ContractAddress,
		Data: data,
	}, nil)
	if err != nil {
		return false, callError("eth_call hasAuthoritySignedMainToSide", cctx, err)
	}

	return codec.UnpackHasAuthoritySigned(out)
}

// SignAndSubmit builds the side deposit() payload, signs it with the
// authority key and submits it. Returns the side transaction hash without
// waiting for mining.
func (s *SideContract) SignAndSubmit(ctx context.Context, recipient common.Address, value *big.Int, mainTxHash common.Hash) (common.Hash, error) {
	deposit := &codec.Deposit{Recipient: recipient, Value: value, MainTxHash: mainTxHash}
	payload, err := deposit.SideCallData()
	if err != nil {
		return common.Hash{}, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.CallTimeout)
	defer cancel()

	nonce, err := s.backend.PendingNonceAt(cctx, s.Authority)
	if err != nil {
		return common.Hash{}, callError("error getting nonce for authority wallet", cctx, err)
	}

	gasPrice, err := s.backend.SuggestGasPrice(cctx)
	if err != nil {
		return common.Hash{}, callError("error getting suggested gas price", cctx, err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &s.ContractAddress,
		Value:    big.NewInt(0),
		Gas:      s.GasLimit,
		GasPrice: gasPrice,
		Data:     payload,
	})

	signedTx, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(s.ChainID), s.privateKey)
	if err != nil {
		return common.Hash{}, fmt.Errorf("error signing side deposit transaction: %s", err)
	}

	if err := s.backend.SendTransaction(cctx, signedTx); err != nil {
		return common.Hash{}, callError("error submitting side deposit transaction", cctx, err)
	}

	return signedTx.Hash(), nil
}

// TransactionReceipt polls once for the side transaction's receipt.
// Returns (nil, nil) while the transaction is not yet mined; that is not
// an error.
func (s *SideContract) TransactionReceipt(ctx context.Context, sideTxHash common.Hash) (*ethtypes.Receipt, error) {
	cctx, cancel := context.WithTimeout(ctx, s.CallTimeout)
	defer cancel()

	receipt, err := s.backend.TransactionReceipt(cctx, sideTxHash)
	if errors.Is(err, ethereum.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, callError("eth_getTransactionReceipt", cctx, err)
	}
	return receipt, nil
}

// callError keeps the deadline classification visible through wrapping: a
// call that died because its timeout fired must surface
// context.DeadlineExceeded to the caller.
func callError(what string, ctx context.Context, err error) error {
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return fmt.Errorf("%s: %w", what, err)
}
