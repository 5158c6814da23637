package config

type Configuration struct {
	// Server config
	Server struct {
		UseSSL    bool   `yaml:"ssl"`
		Port      int    `yaml:"port"`
		RedisPort int    `yaml:"redis_port"`
		RedisHost string `yaml:"redis_host"`
	} `yaml:"server"`
	// Authority that signs relay transactions on the side chain
	Authority struct {
		PublicAddress string `yaml:"address"`
		PrivateKey    string `yaml:"private_key"`
	} `yaml:"authority"`
	// Relay discipline
	Relay struct {
		CallTimeoutSec    int `yaml:"call_timeout_sec"`    // per RPC call
		ReceiptTimeoutSec int `yaml:"receipt_timeout_sec"` // whole receipt wait
		PollIntervalMs    int `yaml:"poll_interval_ms"`    // receipt poll period
		RetryAttempts     int `yaml:"retry_attempts"`      // full restarts per event
		RetryDelayMs      int `yaml:"retry_delay_ms"`
	} `yaml:"relay"`
}

var Config Configuration

// Deposit(address,uint256) log topic to look for on the main bridge contract
const MAIN_DEPOSIT_TOPIC = "0xe1fffcc4923d04b559f4d29a8bfc6cda04eb5b0d3c460751c2402c5c5cc9109c"

// chain keys into Chains
const CHAINKEY_MAIN = "main"
const CHAINKEY_SIDE = "side"

// per-chain configs
type ChainConfig struct {
	Name             string
	ChainID          int
	RPCList          []string
	ContractAddress  string // bridge contract address on that chain
	MinConfirmations int
	BlockBatch       int
	SafetyWindow     int // reorg room, also picks up txs sent by the bridge itself
	GasLimit         uint64
}

var Chains = map[string]ChainConfig{
	CHAINKEY_MAIN: {
		Name:             "Main",
		ChainID:          1,
		RPCList:          []string{"https://eth.drpc.org", "https://eth.llamarpc.com"},
		ContractAddress:  "0x8f5b2b7608e3E3a3Dc0426C3396420FbF1849454",
		MinConfirmations: 3,
		BlockBatch:       512,
		SafetyWindow:     10,
		GasLimit:         200000,
	},
	CHAINKEY_SIDE: {
		Name:             "Side",
		ChainID:          77,
		RPCList:          []string{"https://sokol.poa.network", "https://sokol-archive.blockscout.com"},
		ContractAddress:  "0x867305D19606aadBa405Ce534e303D0e225f9556",
		MinConfirmations: 1,
		BlockBatch:       512,
		SafetyWindow:     10,
		GasLimit:         200000,
	},
}

var RedisStatusSets = map[string]string{
	"pending":   "relayops:pending",   // source deposit was scanned
	"relaying":  "relayops:relaying",  // picked up by the relay driver
	"success":   "relayops:success",   // side transaction mined and receipt stored
	"duplicate": "relayops:duplicate", // authority had already relayed this deposit
	"failed":    "relayops:failed",    // retry budget exhausted or event malformed
}
