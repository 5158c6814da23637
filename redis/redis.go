package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gobridgerelay/config"
	"gobridgerelay/types"

	"github.com/gomodule/redigo/redis"
	"github.com/google/uuid"
)

var pool *redis.Pool

func timeoutDialOptions() []redis.DialOption {
	return []redis.DialOption{
		redis.DialConnectTimeout(5 * time.Second),
		redis.DialReadTimeout(5 * time.Second),
		redis.DialWriteTimeout(5 * time.Second),
	}
}

func Init() {
	redisAddr := fmt.Sprintf("%s:%d", config.Config.Server.RedisHost, config.Config.Server.RedisPort)
	pool = &redis.Pool{
		MaxIdle: 5,
		Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", redisAddr, timeoutDialOptions()...) },
	}
}

func GetMainScannedBlock() (int, error) {
	conn := pool.Get()
	defer conn.Close()

	blockHeight, err := redis.Int(conn.Do("GET", "mainBlockScanned"))
	if err == nil {
		return blockHeight, nil
	}

	if errors.Is(err, redis.ErrNil) {
		return -1, nil
	}

	log.Printf("error Redis get: %s", err.Error())
	return -1, err
}

func SetMainScannedBlock(blockHeight int) error {
	conn := pool.Get()
	defer conn.Close()

	_, err := conn.Do("SET", "mainBlockScanned", blockHeight)
	if err != nil {
		log.Printf("error Redis set: %s", err.Error())
		return err
	}

	return nil
}

// note that multiple sets should not contain one record
func UpsertRelayRecord(rec *types.RelayRecord) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null object to store")
	}

	if rec.Status == "" {
		return errors.New("relay record cannot have empty status")
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	recordKey := fmt.Sprintf("relayop:%s:%s", rec.Status, rec.ID)

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal relay record to JSON: %s", err.Error())
	}

	_, err = conn.Do("SET", recordKey, recJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	// also add the key to the corresponding SET
	_, err = conn.Do("SADD", config.RedisStatusSets[rec.Status], recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

func ChangeRelayRecordStatus(rec *types.RelayRecord, prevStatus string) error {
	conn := pool.Get()
	defer conn.Close()

	if rec == nil {
		return errors.New("null object to store")
	}

	if rec.Status == "" {
		return errors.New("relay record cannot have empty status")
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	prevRecordKey := fmt.Sprintf("relayop:%s:%s", prevStatus, rec.ID)
	recordKey := fmt.Sprintf("relayop:%s:%s", rec.Status, rec.ID)

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot marshal relay record to JSON: %s", err.Error())
	}

	_, err = conn.Do("SREM", config.RedisStatusSets[prevStatus], prevRecordKey)
	if err != nil {
		log.Printf("error Redis SREM: %s", err.Error())
		return err
	}

	_, err = conn.Do("DEL", prevRecordKey)
	if err != nil {
		log.Printf("error Redis DEL: %s", err.Error())
		return err
	}

	_, err = conn.Do("SET", recordKey, recJSON)
	if err != nil {
		log.Printf("error Redis SET: %s", err.Error())
		return err
	}

	_, err = conn.Do("SADD", config.RedisStatusSets[rec.Status], recordKey)
	if err != nil {
		log.Printf("error Redis SADD: %s", err.Error())
		return err
	}

	return nil
}

// Attention, this operation scans everything that is present
// Older/processed should be moved to another place otherwise performance will degrade (athough O(n) still)
func FindRelayRecordSourceTxHash(txHash string) (*types.RelayRecord, error) {
	for status := range config.RedisStatusSets {
		rec, err := findRelayRecordByFieldStringValue("SourceTxHash", txHash, status)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			return rec, nil
		}
	}
	return nil, nil
}

func findRelayRecordByFieldStringValue(field, value string, status string) (*types.RelayRecord, error) {
	conn := pool.Get()
	defer conn.Close()

	if field == "" || value == "" {
		return nil, errors.New("empty search field name or value")
	}

	// scan every record present in Redis
	var cursor int64

	for {
		values, err := redis.Values(conn.Do("SSCAN", config.RedisStatusSets[status], cursor))
		if err != nil {
			return nil, err
		}

		var recKeys []string
		values, err = redis.Scan(values, &cursor, &recKeys)
		if err != nil {
			return nil, err
		}

		for _, key := range recKeys {
			rec, err := redis.Bytes(conn.Do("GET", key))
			if err != nil && !errors.Is(err, redis.ErrNil) {
				log.Printf("error Redis GET: %s", err.Error())
				return nil, err
			}

			var recStruct types.RelayRecord
			err = json.Unmarshal(rec, &recStruct)
			if err != nil {
				return nil, err
			}
			if field == "SourceTxHash" && recStruct.SourceTxHash == value {
				return &recStruct, nil
			}
			if field == "SideTxHash" && recStruct.SideTxHash == value {
				return &recStruct, nil
			}
		}

		if cursor == 0 {
			break
		}
	}

	return nil, nil
}

func FindAllRelayRecordsByStatus(status string) ([]*types.RelayRecord, error) {
	conn := pool.Get()
	defer conn.Close()

	if _, ok := config.RedisStatusSets[status]; !ok {
		return nil, errors.New("redis key not found for status")
	}

	recs := make([]*types.RelayRecord, 0)

	// scan every record present in Redis
	var cursor int64

	for {
		values, err := redis.Values(conn.Do("SSCAN", config.RedisStatusSets[status], cursor))
		if err != nil {
			return nil, err
		}

		var recKeys []string
		values, err = redis.Scan(values, &cursor, &recKeys)
		if err != nil {
			return nil, err
		}

		for _, key := range recKeys {
			rec, err := redis.Bytes(conn.Do("GET", key))
			if err != nil && !errors.Is(err, redis.ErrNil) {
				log.Printf("error Redis GET: %s", err.Error())
				return nil, err
			}

			var recStruct types.RelayRecord
			err = json.Unmarshal(rec, &recStruct)
			if err != nil {
				return nil, err
			}
			if recStruct.Status == status {
				recs = append(recs, &recStruct)
			}
		}

		if cursor == 0 {
			break
		}
	}

	return recs, nil
}
