package handlers

import (
	"encoding/json"
	"io"
	"log"
	"math/big"
	"net/http"
	"time"

	"gobridgerelay/codec"
	"gobridgerelay/redis"
	"gobridgerelay/types"

	ethav "github.com/KOREAN139/ethereum-address-validator"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// RelayQueue is wired by the HTTP worker to the same event channel the
// scanner feeds, so manual submissions go through the exact relay path.
var RelayQueue chan<- types.ChainEvent

type ManualRelayRequest struct {
	MainTxHash string `json:"mainTxHash"`
	Recipient  string `json:"recipient"`
	Value      string `json:"value"`
}

// SubmitRelay admits a deposit by hand, for deposits the scanner missed
// (e.g. observed before the bridge contract address changed). The side
// contract's relayed-status check still guards against double submission.
func SubmitRelay(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("Error reading request body: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error reading request body",
		}, http.StatusBadRequest)
		return
	}

	var req ManualRelayRequest
	err = json.Unmarshal(body, &req)
	if err != nil {
		log.Printf("Error unmarshalling request body: %s\n", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Cannot unmarshal input JSON",
		}, http.StatusBadRequest)
		return
	}

	if err := ethav.Validate(common.HexToAddress(req.Recipient).Hex()); err != nil {
		log.Printf("Error validating recipient address '%s': %s\n", req.Recipient, err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "recipient",
			Message: "No recipient address or invalid address provided",
		}, http.StatusBadRequest)
		return
	}

	txHashBytes, err := hexutil.Decode(req.MainTxHash)
	if err != nil || len(txHashBytes) != common.HashLength {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "mainTxHash",
			Message: "No main transaction hash or malformed hash provided",
		}, http.StatusBadRequest)
		return
	}
	mainTxHash := common.BytesToHash(txHashBytes)

	value, ok := big.NewInt(0).SetString(req.Value, 10)
	if !ok || value.Sign() <= 0 {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "value",
			Message: "Value is not a positive decimal integer",
		}, http.StatusBadRequest)
		return
	}

	// never admit twice for the same source transaction
	existingRec, err := redis.FindRelayRecordSourceTxHash(mainTxHash.Hex())
	if err != nil {
		log.Printf("Error searching Redis: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error checking for existing relay",
		}, http.StatusInternalServerError)
		return
	}
	if existingRec != nil {
		responseJSON(w, &APIResponse{
			Status:  "error",
			Field:   "mainTxHash",
			Message: "Relay record already exists for this transaction",
		}, http.StatusConflict)
		return
	}

	recipient := common.HexToAddress(req.Recipient)
	data, err := codec.DepositEventData(recipient, value)
	if err != nil {
		log.Printf("Error encoding deposit event data: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error encoding deposit",
		}, http.StatusInternalServerError)
		return
	}

	rec := &types.RelayRecord{
		ID:           uuid.New().String(),
		Status:       "pending",
		TsFound:      time.Now().Unix(),
		SourceTxHash: mainTxHash.Hex(),
		Recipient:    recipient.Hex(),
		Value:        value.String(),
		Message:      "manual submission",
	}
	if err := redis.UpsertRelayRecord(rec); err != nil {
		log.Printf("Cannot create pending relay record, Redis error: %s", err.Error())
		responseJSON(w, &APIResponse{
			Status:  "error",
			Message: "Error storing relay record",
		}, http.StatusInternalServerError)
		return
	}

	RelayQueue <- types.ChainEvent{
		TxHash: mainTxHash,
		Topics: []common.Hash{codec.DepositTopic},
		Data:   data,
	}

	log.Printf("Admitted manual relay %s: recipient: %s, value: %s", rec.SourceTxHash, rec.Recipient, rec.Value)

	responseJSON(w, &APISubmitRelayResponse{
		Status:       "ok",
		ID:           rec.ID,
		SourceTxHash: rec.SourceTxHash,
	}, http.StatusOK)
}
