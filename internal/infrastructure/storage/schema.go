package storage

// Timestamps are stored as unix seconds so the same queries (minute grouping
// via integer division included) run unchanged on both dialects.

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS rank_observations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT NOT NULL,
	rank INTEGER NOT NULL,
	product_name TEXT NOT NULL,
	product_link TEXT NOT NULL,
	out_rank INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	message_date INTEGER NOT NULL,
	update_session_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_observations_link ON rank_observations (product_link, id);
CREATE INDEX IF NOT EXISTS idx_observations_session ON rank_observations (update_session_id, category);
CREATE INDEX IF NOT EXISTS idx_observations_category ON rank_observations (category, created_at);

CREATE TABLE IF NOT EXISTS update_sessions (
	session_id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	completed_at INTEGER,
	status TEXT NOT NULL,
	message_date INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ingested_messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT NOT NULL UNIQUE,
	message_text TEXT NOT NULL,
	parsed_count INTEGER NOT NULL,
	message_date INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS rank_observations (
	id BIGSERIAL PRIMARY KEY,
	category TEXT NOT NULL,
	rank INTEGER NOT NULL,
	product_name TEXT NOT NULL,
	product_link TEXT NOT NULL,
	out_rank INTEGER NOT NULL DEFAULT 0,
	created_at BIGINT NOT NULL,
	message_date BIGINT NOT NULL,
	update_session_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_observations_link ON rank_observations (product_link, id);
CREATE INDEX IF NOT EXISTS idx_observations_session ON rank_observations (update_session_id, category);
CREATE INDEX IF NOT EXISTS idx_observations_category ON rank_observations (category, created_at);

CREATE TABLE IF NOT EXISTS update_sessions (
	session_id TEXT PRIMARY KEY,
	started_at BIGINT NOT NULL,
	completed_at BIGINT,
	status TEXT NOT NULL,
	message_date BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS ingested_messages (
	id BIGSERIAL PRIMARY KEY,
	message_id TEXT NOT NULL UNIQUE,
	message_text TEXT NOT NULL,
	parsed_count INTEGER NOT NULL,
	message_date BIGINT NOT NULL
);
`
