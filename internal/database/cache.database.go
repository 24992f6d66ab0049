package database

import (
	"context"
	"fmt"
	"time"
	"washfamily/config"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/valkey-io/valkey-go"
)

// Valkey database indexes
const (
	// GENERAL_CACHE_INDEX (DB 0) - scheduler bookkeeping and anything uncategorised
	GENERAL_CACHE_INDEX = iota

	// SESSION_CACHE_INDEX (DB 1) - gateway sessions holding upstream tokens
	SESSION_CACHE_INDEX

	// USER_CACHE_INDEX (DB 2) - per-user working state such as availability drafts
	USER_CACHE_INDEX

	// EVENTS_CACHE_INDEX (DB 3) - pub/sub for order and availability events
	EVENTS_CACHE_INDEX

	// CLIENT_API_CACHE_INDEX (DB 4) - cached upstream and geocoding responses
	CLIENT_API_CACHE_INDEX
)

func (s *DB) initializeCacheDB(config config.Config) error {
	log := s.log.Function("initializeCacheDB")
	log.Info("initializing cache database")

	address := config.DatabaseCacheAddress
	port := config.DatabaseCachePort
	if address == "" || port == 0 {
		return log.Errorf("failed to initialize cache database", "address or port is empty")
	}

	newClient := func(index int, name string) (CacheClient, error) {
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{fmt.Sprintf("%s:%d", address, port)},
			SelectDB:    index,
		})
		if err != nil {
			return nil, log.Err("failed to create valkey client", err, "cache", name)
		}
		return client, nil
	}

	var cacheDB Cache
	var err error

	if cacheDB.General, err = newClient(GENERAL_CACHE_INDEX, "General"); err != nil {
		return err
	}
	if cacheDB.Session, err = newClient(SESSION_CACHE_INDEX, "Session"); err != nil {
		return err
	}
	if cacheDB.User, err = newClient(USER_CACHE_INDEX, "User"); err != nil {
		return err
	}
	if cacheDB.Events, err = newClient(EVENTS_CACHE_INDEX, "Events"); err != nil {
		return err
	}
	if cacheDB.ClientAPI, err = newClient(CLIENT_API_CACHE_INDEX, "ClientAPI"); err != nil {
		return err
	}

	s.Cache = cacheDB

	if config.DatabaseCacheReset != -1 {
		go clearCacheDB(config.DatabaseCacheReset, cacheDB)
	}

	return nil
}

func clearCacheDB(index int, cacheDB Cache) {
	log := logger.New("database").File("cache.database").Function("clearCacheDB")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clients := map[int]namedCache{
		GENERAL_CACHE_INDEX:    {cacheDB.General, "General"},
		SESSION_CACHE_INDEX:    {cacheDB.Session, "Session"},
		USER_CACHE_INDEX:       {cacheDB.User, "User"},
		EVENTS_CACHE_INDEX:     {cacheDB.Events, "Events"},
		CLIENT_API_CACHE_INDEX: {cacheDB.ClientAPI, "ClientAPI"},
	}

	target, ok := clients[index]
	if !ok || target.client == nil {
		log.Warn("Invalid cache database index", "index", index)
		return
	}

	if err := target.client.Do(ctx, target.client.B().Flushdb().Build()).Error(); err != nil {
		log.Er("Failed to clear cache database", err, "index", index, "dbName", target.name)
		return
	}

	log.Info("Successfully cleared cache database", "index", index, "dbName", target.name)
}
