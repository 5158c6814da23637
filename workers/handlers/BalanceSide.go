package handlers

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"net/http"

	"gobridgerelay/EVMRPC"
	"gobridgerelay/config"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BalanceSide returns the authority's gas balance on the side chain, the
// thing that runs out first in practice.
func BalanceSide(w http.ResponseWriter, r *http.Request) {
	balanceBI, err := EVMRPC.WithClient(
		config.CHAINKEY_SIDE, func(client *ethclient.Client) (*big.Int, error) {
			return client.BalanceAt(context.Background(), common.HexToAddress(config.Config.Authority.PublicAddress), nil)
		},
	)
	if err != nil {
		log.Println(fmt.Sprintf("Error getting authority side balance: %s", err))
		responsePlain(w, []byte("error"), http.StatusInternalServerError)
		return
	}

	responsePlain(w, []byte(balanceBI.String()), 200)
}
