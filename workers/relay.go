package workers

import (
	"context"
	"log"
	"math/big"

	"gobridgerelay/EVMRPC"
	"gobridgerelay/codec"
	"gobridgerelay/config"
	"gobridgerelay/metrics"
	"gobridgerelay/redis"
	"gobridgerelay/relay"
	"gobridgerelay/types"

	"github.com/ethereum/go-ethereum/common"
)

// Worker_relay owns the relay driver: it resumes unfinished relay records
// left over from a previous run, then keeps feeding freshly scanned events
// into the driver until shutdown.
func Worker_relay(ctx context.Context, events <-chan types.ChainEvent) {
	client, err := EVMRPC.Dial(config.CHAINKEY_SIDE)
	if err != nil {
		// cannot relay anything without a side chain connection
		log.Fatalf("Error connecting to side chain: %s", err.Error())
	}
	defer client.Close()

	side, err := relay.NewSideContract(
		client,
		config.Chains[config.CHAINKEY_SIDE],
		config.Config.Authority.PublicAddress,
		config.Config.Authority.PrivateKey,
	)
	if err != nil {
		log.Fatalf("Error setting up side contract: %s", err.Error())
	}

	driver := relay.NewDriver(
		&relay.DepositRelays{Side: side},
		&redisReporter{},
		uint(config.Config.Relay.RetryAttempts),
		config.RetryDelay(),
	)

	// mark records as relaying as events pass into the driver; buffered so
	// resume can preload before the driver spins up
	marked := make(chan types.ChainEvent, 64)
	go func() {
		defer close(marked)

		resumeUnfinished(marked)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				markRelaying(ev)
				marked <- ev
			}
		}
	}()

	driver.Run(ctx, marked)
	log.Print("Relay driver stopped")
}

// resumeUnfinished re-enqueues records that never reached a terminal status.
// Replaying them is safe: the relayed-status check on the side contract is
// what prevents a double submission, not this process's memory.
func resumeUnfinished(events chan<- types.ChainEvent) {
	for _, status := range []string{"relaying", "pending"} {
		recs, err := redis.FindAllRelayRecordsByStatus(status)
		if err != nil {
			log.Printf("Error loading %s relay records for resume: %s", status, err.Error())
			continue
		}
		for _, rec := range recs {
			ev, err := eventFromRecord(rec)
			if err != nil {
				log.Printf("Cannot rebuild event for relay record %s: %s", rec.ID, err.Error())
				continue
			}
			log.Printf("%s - resuming unfinished relay (was %s)", rec.SourceTxHash, status)
			events <- ev
		}
	}
}

// eventFromRecord reconstructs the Deposit log from the persisted fields.
func eventFromRecord(rec *types.RelayRecord) (types.ChainEvent, error) {
	value, ok := big.NewInt(0).SetString(rec.Value, 10)
	if !ok {
		value = big.NewInt(0)
	}
	data, err := codec.DepositEventData(common.HexToAddress(rec.Recipient), value)
	if err != nil {
		return types.ChainEvent{}, err
	}
	return types.ChainEvent{
		TxHash:      common.HexToHash(rec.SourceTxHash),
		BlockNumber: rec.BlockNumber,
		Topics:      []common.Hash{codec.DepositTopic},
		Data:        data,
	}, nil
}

func markRelaying(ev types.ChainEvent) {
	rec, err := redis.FindRelayRecordSourceTxHash(ev.TxHash.Hex())
	if err != nil || rec == nil {
		log.Printf("%s - no relay record found to mark relaying (err: %v)", ev.TxHash.Hex(), err)
		return
	}
	if rec.Status != "pending" {
		return
	}
	rec.Status = "relaying"
	if err := redis.ChangeRelayRecordStatus(rec, "pending"); err != nil {
		log.Printf("Cannot update relay record status, Redis error: %s", err.Error())
	}
}

// redisReporter persists terminal relay outcomes and counts them.
type redisReporter struct{}

func (r *redisReporter) RelaySucceeded(ev types.ChainEvent, out *relay.Outcome) {
	rec, err := redis.FindRelayRecordSourceTxHash(ev.TxHash.Hex())
	if err != nil || rec == nil {
		log.Printf("%s - relay succeeded but no record found (err: %v)", ev.TxHash.Hex(), err)
		return
	}

	prevStatus := rec.Status
	if out.AlreadyRelayed {
		metrics.RelaysDuplicate.Inc()
		rec.Status = "duplicate"
	} else {
		metrics.RelaysSucceeded.Inc()
		rec.Status = "success"
		rec.SideTxHash = out.Receipt.TxHash.Hex()
	}

	if err := redis.ChangeRelayRecordStatus(rec, prevStatus); err != nil {
		log.Printf("Cannot update relay record status, Redis error: %s", err.Error())
	}
}

func (r *redisReporter) RelayFailed(ev types.ChainEvent, relayErr error) {
	metrics.RelaysFailed.Inc()
	log.Printf("Relay failed permanently: %s", relayErr.Error())

	rec, err := redis.FindRelayRecordSourceTxHash(ev.TxHash.Hex())
	if err != nil || rec == nil {
		log.Printf("%s - relay failed but no record found (err: %v)", ev.TxHash.Hex(), err)
		return
	}

	prevStatus := rec.Status
	rec.Status = "failed"
	if rec.Message == "" {
		rec.Message = relayErr.Error()
	} else {
		rec.Message += "; " + relayErr.Error()
	}

	if err := redis.ChangeRelayRecordStatus(rec, prevStatus); err != nil {
		log.Printf("Cannot update relay record status, Redis error: %s", err.Error())
	}
}
