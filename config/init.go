package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// reading config error is fatal, and exists main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func readFile(cfg *Configuration) {
	f, err := os.Open("config.yml")
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		processError(err)
	}
}

func readEnv(cfg *Configuration) {
	err := envconfig.Process("", cfg)
	if err != nil {
		processError(err)
	}
}

func applyDefaults(cfg *Configuration) {
	if cfg.Relay.CallTimeoutSec == 0 {
		cfg.Relay.CallTimeoutSec = 10
	}
	if cfg.Relay.ReceiptTimeoutSec == 0 {
		cfg.Relay.ReceiptTimeoutSec = 180
	}
	if cfg.Relay.PollIntervalMs == 0 {
		cfg.Relay.PollIntervalMs = 3000
	}
	if cfg.Relay.RetryAttempts == 0 {
		cfg.Relay.RetryAttempts = 5
	}
	if cfg.Relay.RetryDelayMs == 0 {
		cfg.Relay.RetryDelayMs = 5000
	}
}

func Init() {
	readFile(&Config)
	readEnv(&Config)
	applyDefaults(&Config)
}

// duration accessors to avoid unit slips at call sites

func CallTimeout() time.Duration {
	return time.Duration(Config.Relay.CallTimeoutSec) * time.Second
}

func ReceiptTimeout() time.Duration {
	return time.Duration(Config.Relay.ReceiptTimeoutSec) * time.Second
}

func PollInterval() time.Duration {
	return time.Duration(Config.Relay.PollIntervalMs) * time.Millisecond
}

func RetryDelay() time.Duration {
	return time.Duration(Config.Relay.RetryDelayMs) * time.Millisecond
}
