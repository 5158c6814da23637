package relay

import (
	"context"
	"log"
	"time"

	"gobridgerelay/codec"
	"gobridgerelay/types"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

// relay protocol states; strictly sequential, re-entered only via a full
// restart from stateCheckingAlreadyRelayed by the driver
type state int

const (
	stateCheckingAlreadyRelayed state = iota
	stateSubmittingTransaction
	stateAwaitingReceipt
	stateAlreadyRelayed
	stateDone
)

// Outcome is the terminal result of one relay task.
type Outcome struct {
	// AlreadyRelayed is true when the authority had signed this deposit
	// before and no new side transaction was submitted.
	AlreadyRelayed bool
	SideTxHash     common.Hash
	Receipt        *ethtypes.Receipt
}

// Machine drives exactly one main-chain deposit from observed to confirmed
// on the side chain. It never re-signs a deposit the authority has already
// relayed; the side contract's relayed-status mapping is the authority for
// that, so blindly restarting the machine on transient failure is safe.
type Machine struct {
	deposit *codec.Deposit
	side    *SideContract

	state           state
	sideTxHash      common.Hash
	receipt         *ethtypes.Receipt
	receiptDeadline time.Time
}

// NewMachine decodes the event and positions a fresh machine at the
// already-relayed check. A log that does not decode never becomes a task.
func NewMachine(ev types.ChainEvent, side *SideContract) (*Machine, error) {
	deposit, err := codec.DecodeDeposit(ev)
	if err != nil {
		return nil, malformedError(ev.TxHash, err)
	}

	log.Printf("%s - step 1/3 - about to check whether it is already relayed", deposit.MainTxHash.Hex())
	return &Machine{deposit: deposit, side: side}, nil
}

// Step advances the machine by one state. done is true once a terminal
// state is reached; a non-nil error is always a classified *Error and
// leaves the machine unusable (the driver restarts with a fresh one).
func (m *Machine) Step(ctx context.Context) (done bool, err error) {
	switch m.state {
	case stateCheckingAlreadyRelayed:
		relayed, err := m.side.IsAlreadyRelayed(ctx, m.deposit.MainTxHash)
		if err != nil {
			return false, transportError(m.deposit.MainTxHash, err)
		}
		if relayed {
			log.Printf("%s - DONE - already relayed by authority %s", m.deposit.MainTxHash.Hex(), m.side.Authority.Hex())
			m.state = stateAlreadyRelayed
			return true, nil
		}
		m.state = stateSubmittingTransaction
		return false, nil

	case stateSubmittingTransaction:
		log.Printf("%s - step 2/3 - submitting side deposit transaction", m.deposit.MainTxHash.Hex())
		sideTxHash, err := m.side.SignAndSubmit(ctx, m.deposit.Recipient, m.deposit.Value, m.deposit.MainTxHash)
		if err != nil {
			return false, transportError(m.deposit.MainTxHash, err)
		}
		m.sideTxHash = sideTxHash
		// receipt wait is bounded from entry into the state, not per poll
		m.receiptDeadline = time.Now().Add(m.side.ReceiptTimeout)
		m.state = stateAwaitingReceipt
		return false, nil

	case stateAwaitingReceipt:
		receipt, err := m.side.TransactionReceipt(ctx, m.sideTxHash)
		if err != nil {
			return false, transportError(m.deposit.MainTxHash, err)
		}
		if receipt != nil {
			log.Printf("%s - step 3/3 - DONE - side transaction %s mined in block %d",
				m.deposit.MainTxHash.Hex(), receipt.TxHash.Hex(), receipt.BlockNumber)
			m.receipt = receipt
			m.state = stateDone
			return true, nil
		}
		if time.Now().After(m.receiptDeadline) {
			return false, &Error{
				Kind:       TransportTimeout,
				MainTxHash: m.deposit.MainTxHash,
				Err:        context.DeadlineExceeded,
			}
		}
		// not yet mined, wait out a poll interval
		select {
		case <-ctx.Done():
			return false, transportError(m.deposit.MainTxHash, ctx.Err())
		case <-time.After(m.side.PollInterval):
		}
		return false, nil
	}

	// stateAlreadyRelayed / stateDone
	return true, nil
}

// Run advances the machine to a terminal state or the first error.
func (m *Machine) Run(ctx context.Context) (*Outcome, error) {
	for {
		done, err := m.Step(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return m.outcome(), nil
		}
	}
}

// Deposit exposes the decoded fields the reporter needs.
func (m *Machine) Deposit() *codec.Deposit {
	return m.deposit
}

func (m *Machine) outcome() *Outcome {
	return &Outcome{
		AlreadyRelayed: m.state == stateAlreadyRelayed,
		SideTxHash:     m.sideTxHash,
		Receipt:        m.receipt,
	}
}
