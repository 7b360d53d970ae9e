// README: Creates the Postgres tables for chat state, analytics and pharmacies.
package main

import (
	"context"
	"log"

	"goshop/internal/config"
	"goshop/internal/infra"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS chat_state (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		context JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_state_user ON chat_state (user_id, id DESC)`,

	`CREATE TABLE IF NOT EXISTS user_sessions (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_start TIMESTAMPTZ NOT NULL,
		session_end TIMESTAMPTZ,
		completed_journey BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_user ON user_sessions (user_id)`,

	`CREATE TABLE IF NOT EXISTS user_goals (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id BIGINT REFERENCES user_sessions(id),
		health_goal TEXT,
		medical_condition TEXT,
		supplement_preference TEXT,
		pueblo TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS product_interactions (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		session_id BIGINT REFERENCES user_sessions(id),
		product_name TEXT NOT NULL,
		product_category TEXT,
		interaction_type TEXT NOT NULL,
		stage TEXT,
		user_goal TEXT,
		user_preference TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_interactions_name ON product_interactions (product_name)`,

	`CREATE TABLE IF NOT EXISTS location_analytics (
		pueblo TEXT PRIMARY KEY,
		total_searches INT NOT NULL DEFAULT 0,
		successful_matches INT NOT NULL DEFAULT 0,
		last_searched TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS pharmacies (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		pueblo TEXT NOT NULL,
		maps_link TEXT NOT NULL DEFAULT '',
		UNIQUE (name, pueblo)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pharmacies_pueblo ON pharmacies (lower(pueblo))`,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("ddl: %v", err)
		}
	}
	log.Println("schema ready")
}
