package EVMRPC

import (
	"fmt"
	"log"

	"gobridgerelay/config"

	"github.com/ethereum/go-ethereum/ethclient"
)

// WithClient runs f against the first RPC endpoint of the chain that both
// connects and serves the call, failing over down the configured list.
func WithClient[T any](chainKey string, f func(client *ethclient.Client) (T, error)) (res T, err error) {
	var client *ethclient.Client
	for _, url := range config.Chains[chainKey].RPCList {
		client, err = ethclient.Dial(url)
		if err != nil {
			log.Println(fmt.Sprintf("Error connecting to %s: %s", url, err.Error()))
			continue
		}

		res, err = f(client)
		client.Close()
		if err == nil {
			return
		}
	}
	return
}

// Dial returns a long-lived client for the chain, trying the configured
// endpoints in order. The caller owns closing it.
func Dial(chainKey string) (*ethclient.Client, error) {
	var lastErr error
	for _, url := range config.Chains[chainKey].RPCList {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Println(fmt.Sprintf("Error connecting to %s: %s", url, err.Error()))
			lastErr = err
			continue
		}
		return client, nil
	}
	return nil, fmt.Errorf("no reachable RPC endpoint for chain %s: %s", chainKey, lastErr)
}
