package storage

import (
	"crypto/tls"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// FromEnv assembles a DocumentStore from the environment.
//
//	DOCSTORE_DRIVER            "aztables" (default) or "redis"
//	STORAGE_CONNECTION_STRING  table storage connection string
//	BOARDS_TABLE               table name, default "boards"
//	REDIS_CONNECTION_STRING    redis URL or "host:port,password=..,ssl=true"
//	CACHE_TTL                  cache duration for reads, default 5m, "0" disables
//
// With the aztables driver a configured redis connection adds the read
// cache; with the redis driver redis is the store itself.
func FromEnv(logger *log.Logger) (DocumentStore, error) {
	driver := os.Getenv("DOCSTORE_DRIVER")
	if driver == "" {
		driver = "aztables"
	}

	var redisClient *redis.Client
	if conn := os.Getenv("REDIS_CONNECTION_STRING"); conn != "" {
		redisClient = redis.NewClient(parseRedisConn(conn))
	}

	switch driver {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("storage: redis driver needs REDIS_CONNECTION_STRING")
		}
		logger.Info("using redis document store")
		return NewRedis(redisClient), nil
	case "aztables":
		connStr := os.Getenv("STORAGE_CONNECTION_STRING")
		if connStr == "" {
			return nil, fmt.Errorf("storage: missing STORAGE_CONNECTION_STRING")
		}
		table := os.Getenv("BOARDS_TABLE")
		if table == "" {
			table = "boards"
		}
		store, err := NewTables(connStr, table)
		if err != nil {
			return nil, err
		}
		if redisClient == nil {
			logger.Info("using table document store")
			return store, nil
		}
		ttl, err := cacheTTL()
		if err != nil {
			return nil, err
		}
		logger.WithField("ttl", ttl).Info("using table document store with redis cache")
		return NewCache(store, redisClient, ttl), nil
	default:
		return nil, fmt.Errorf("storage: unknown DOCSTORE_DRIVER %q", driver)
	}
}

func cacheTTL() (time.Duration, error) {
	v := os.Getenv("CACHE_TTL")
	if v == "" {
		return 5 * time.Minute, nil
	}
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("storage: invalid CACHE_TTL %q", v)
	}
	return d, nil
}

// parseRedisConn accepts a redis URL, falling back to the
// "host:port,key=value" form some managed caches hand out.
func parseRedisConn(conn string) *redis.Options {
	opts, err := redis.ParseURL(conn)
	if err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
