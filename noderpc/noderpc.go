package noderpc

import (
	"fmt"
	"sync"

	"gobridgerelay/config"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ybbus/jsonrpc"
)

// thin raw JSON-RPC probe, used by the health endpoint so a node that
// answers transport but serves garbage still shows up as unhealthy
type Client struct {
	rpc jsonrpc.RPCClient
	url string
}

var (
	clientsMu sync.Mutex
	clients   = map[string]*Client{}
)

func GetClient(chainKey string) *Client {
	clientsMu.Lock()
	defer clientsMu.Unlock()

	if c, ok := clients[chainKey]; ok {
		return c
	}
	url := config.Chains[chainKey].RPCList[0]
	c := &Client{rpc: jsonrpc.NewClient(url), url: url}
	clients[chainKey] = c
	return c
}

// BlockNumber fetches the chain head height via eth_blockNumber.
func (c *Client) BlockNumber() (uint64, error) {
	resp, err := c.rpc.Call("eth_blockNumber")
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber call to %s failed: %s", c.url, err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("eth_blockNumber rejected by %s: %s", c.url, resp.Error.Message)
	}

	hexNum, err := resp.GetString()
	if err != nil {
		return 0, fmt.Errorf("eth_blockNumber returned non-string result: %s", err)
	}
	return hexutil.DecodeUint64(hexNum)
}
