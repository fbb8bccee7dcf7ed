package kv

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/nutritrack-backend/pkg/config"
	"github.com/angelmondragon/nutritrack-backend/pkg/redis"
)

// Open builds the store named by cfg.Backend. Backends whose client is nil are rejected.
func Open(cfg config.NotificationsConfig, db *gorm.DB, redisClient *redis.Client) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("kv backend %q requires redis to be configured", cfg.Backend)
		}
		return NewRedis(redisClient)
	case config.BackendSQL:
		return NewSQL(db)
	case config.BackendFile:
		return NewFile(cfg.FileDir)
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Backend)
	}
}
