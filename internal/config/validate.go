package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	switch strings.ToLower(c.Store.Driver) {
	case StoreDriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres store driver")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("store.driver must be %q or %q (got %q)", StoreDriverPostgres, StoreDriverMemory, c.Store.Driver)
	}

	if err := c.CRM.validate(); err != nil {
		return fmt.Errorf("crm: %w", err)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (c *CRMConfig) validate() error {
	if c.DuplicateWindow <= 0 || c.DuplicateWindow > 24*time.Hour {
		return fmt.Errorf("duplicate_window must be in (0, 24h] (got %v)", c.DuplicateWindow)
	}
	if c.BulkMaxRecords < 1 || c.BulkMaxRecords > 1000 {
		return fmt.Errorf("bulk_max_records must be in [1, 1000] (got %d)", c.BulkMaxRecords)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("history_limit must be > 0 (got %d)", c.HistoryLimit)
	}
	if c.FeedLimit < 1 {
		return fmt.Errorf("feed_limit must be > 0 (got %d)", c.FeedLimit)
	}
	return nil
}
