package workers

import (
	"context"
	"log"
	"math/big"
	"time"

	"gobridgerelay/EVMRPC"
	"gobridgerelay/codec"
	"gobridgerelay/config"
	"gobridgerelay/redis"
	"gobridgerelay/types"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
)

// Worker_scanMain follows the main chain, picks up Deposit logs on the
// bridge contract and admits each as a relay event exactly once (keyed by
// source transaction hash).
func Worker_scanMain(events chan<- types.ChainEvent) {
	chainCfg := config.Chains[config.CHAINKEY_MAIN]

	for !WorkerShutdown {
		// latency of <30 sec should be ok for EVM chains
		time.Sleep(10 * time.Second)

		scannedBlockNum, err := redis.GetMainScannedBlock()
		if err != nil {
			log.Printf("Error getting last scanned main block: %s", err.Error())
			continue
		}

		lastScannedBlock := scannedBlockNum

		latestBlock, err := EVMRPC.WithClient(
			config.CHAINKEY_MAIN, func(client *ethclient.Client) (uint64, error) {
				return client.BlockNumber(context.Background())
			},
		)
		if err != nil {
			log.Printf("Error getting last main block eth_blockNumber: %s", err.Error())
			continue
		}

		// only consider blocks old enough to be safe from shallow reorgs
		confirmedHead := int(latestBlock) - chainCfg.MinConfirmations

		if scannedBlockNum == -1 {
			scannedBlockNum = confirmedHead - chainCfg.SafetyWindow
		} else {
			scannedBlockNum = scannedBlockNum - chainCfg.SafetyWindow
		}

		for blockNum := scannedBlockNum + 1; blockNum < confirmedHead; blockNum = blockNum + chainCfg.BlockBatch {
			fromBlock := int64(blockNum)
			toBlock := int64(blockNum + chainCfg.BlockBatch - 1)
			if toBlock > int64(confirmedHead) {
				toBlock = int64(confirmedHead)
				log.Printf("Scanning main blocks from %v to %v (confirmed head)...\n", blockNum, toBlock)
			} else {
				log.Printf("Scanning main blocks from %v to %v...\n", blockNum, toBlock)
			}

			logs, err := EVMRPC.WithClient(
				config.CHAINKEY_MAIN, func(client *ethclient.Client) ([]ethtypes.Log, error) {
					return client.FilterLogs(
						context.Background(), ethereum.FilterQuery{
							FromBlock: big.NewInt(fromBlock),
							ToBlock:   big.NewInt(toBlock),
							Addresses: []common.Address{common.HexToAddress(chainCfg.ContractAddress)},
							Topics:    [][]common.Hash{{codec.DepositTopic}},
						},
					)
				},
			)
			if err != nil {
				log.Printf("Error querying main RPC: %s\n", err.Error())
				break
			}

			interrupted := false
			for _, l := range logs {
				if l.Removed {
					continue
				}
				// a log without a mined transaction hash never crosses
				// into the relay core
				if l.TxHash == (common.Hash{}) {
					log.Printf("Rejecting Deposit log without transaction hash in block %d", l.BlockNumber)
					continue
				}

				if !admitDeposit(types.EventFromLog(l), events) {
					// don't consider this block as processed
					interrupted = true
					break
				}
			}
			if interrupted {
				break
			}

			lastScannedBlock = int(toBlock)
			time.Sleep(50 * time.Millisecond)

			redis.SetMainScannedBlock(lastScannedBlock)
		}
	}
}

// admitDeposit records a freshly observed deposit and hands it to the relay
// driver. Returns false when redis failed and the block must be rescanned.
func admitDeposit(ev types.ChainEvent, events chan<- types.ChainEvent) bool {
	txHash := ev.TxHash.Hex()

	// never add a record if one is present with same source tx hash,
	// otherwise could be double send
	existingRec, err := redis.FindRelayRecordSourceTxHash(txHash)
	if err != nil {
		log.Printf("Error searching Redis: %s", err.Error())
		return false
	}
	if existingRec != nil {
		log.Printf("Found existing relay record with same source tx hash: %+v", existingRec)
		return true
	}

	rec := &types.RelayRecord{
		ID:           uuid.New().String(),
		Status:       "pending",
		TsFound:      time.Now().Unix(),
		BlockNumber:  ev.BlockNumber,
		SourceTxHash: txHash,
	}

	deposit, err := codec.DecodeDeposit(ev)
	if err != nil {
		// malformed logs are recorded and rejected here, they never
		// reach the state machine
		log.Printf("Rejecting malformed Deposit log %s: %s", txHash, err.Error())
		rec.Status = "failed"
		rec.Message = err.Error()
		if err := redis.UpsertRelayRecord(rec); err != nil {
			log.Printf("Cannot create failed relay record, Redis error: %s", err.Error())
			return false
		}
		return true
	}

	rec.Recipient = deposit.Recipient.Hex()
	rec.Value = deposit.Value.String()

	log.Printf(
		"Found new deposit %s: recipient: %s, value: %v. Saving incoming relay op.",
		txHash, rec.Recipient, rec.Value,
	)

	if err := redis.UpsertRelayRecord(rec); err != nil {
		// don't consider this block as processed
		log.Printf("Cannot create pending relay record, Redis error: %s", err.Error())
		return false
	}

	events <- ev
	return true
}
