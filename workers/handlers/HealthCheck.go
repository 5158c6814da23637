package handlers

import (
	"log"
	"net/http"

	"gobridgerelay/config"
	"gobridgerelay/noderpc"
)

// HealthCheck probes both chain nodes over raw JSON-RPC; the bridge is only
// healthy when it can see both chain heads.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	mainBlock, err := noderpc.GetClient(config.CHAINKEY_MAIN).BlockNumber()
	if err != nil {
		log.Printf("Health check: main chain unreachable: %s", err.Error())
		responseJSON(w, &APIHealthResponse{
			Status:  "error",
			Message: "main chain unreachable",
		}, http.StatusServiceUnavailable)
		return
	}

	sideBlock, err := noderpc.GetClient(config.CHAINKEY_SIDE).BlockNumber()
	if err != nil {
		log.Printf("Health check: side chain unreachable: %s", err.Error())
		responseJSON(w, &APIHealthResponse{
			Status:    "error",
			MainBlock: mainBlock,
			Message:   "side chain unreachable",
		}, http.StatusServiceUnavailable)
		return
	}

	responseJSON(w, &APIHealthResponse{
		Status:    "ok",
		MainBlock: mainBlock,
		SideBlock: sideBlock,
	}, http.StatusOK)
}
