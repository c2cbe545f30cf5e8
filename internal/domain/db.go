package domain

import "context"

// Database defines lifecycle operations for the relational store backing
// users and product aggregates. Each implementation owns its own migration
// files and strategy, keeping the storage engine swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}
