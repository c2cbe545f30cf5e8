package service

import (
	"context"
	"fmt"
	"log/slog"
)

// SeedDemoUsers creates a small set of demo accounts for local development.
// It runs only against an empty user table, so restarts are harmless.
func (s *AuthService) SeedDemoUsers(ctx context.Context) error {
	count, err := s.users.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	demo := []struct {
		email    string
		nickname string
	}{
		{"alice@example.com", "alice"},
		{"bob@example.com", "bob"},
		{"charlie@example.com", "charlie"},
	}
	for _, d := range demo {
		if _, err := s.Signup(ctx, d.email, "password123", d.nickname); err != nil {
			return fmt.Errorf("seed user %s: %w", d.email, err)
		}
	}
	slog.Info("demo users seeded", "count", len(demo))
	return nil
}
