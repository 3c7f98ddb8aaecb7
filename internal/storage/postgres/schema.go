package postgres

const schema = `
CREATE TABLE IF NOT EXISTS instruction_journal (
	seq          BIGINT PRIMARY KEY,
	program      TEXT NOT NULL,
	program_id   TEXT NOT NULL,
	instruction  TEXT NOT NULL,
	accounts     JSONB NOT NULL,
	data         TEXT NOT NULL,
	status       TEXT NOT NULL,
	codespace    TEXT NOT NULL DEFAULT '',
	code         BIGINT NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	pool_address TEXT,
	settlement   JSONB,
	ts           BIGINT NOT NULL,
	executed_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS instruction_journal_pool_idx ON instruction_journal (pool_address, seq);

CREATE TABLE IF NOT EXISTS pools (
	pool_address   TEXT PRIMARY KEY,
	seed           BIGINT NOT NULL,
	authority      TEXT NOT NULL DEFAULT '',
	mint_x         TEXT NOT NULL,
	mint_y         TEXT NOT NULL,
	lp_mint        TEXT NOT NULL,
	vault_x        TEXT NOT NULL,
	vault_y        TEXT NOT NULL,
	fee_bps        INTEGER NOT NULL,
	first_seen_seq BIGINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pool_window_metrics (
	pool_address        TEXT NOT NULL,
	window_size_seconds BIGINT NOT NULL,
	window_start_ts     TIMESTAMPTZ NOT NULL,
	window_end_ts       TIMESTAMPTZ NOT NULL,
	swap_count          BIGINT NOT NULL,
	deposit_count       BIGINT NOT NULL,
	withdraw_count      BIGINT NOT NULL,
	failed_count        BIGINT NOT NULL,
	volume_x            NUMERIC NOT NULL,
	volume_y            NUMERIC NOT NULL,
	fee_x               NUMERIC NOT NULL,
	fee_y               NUMERIC NOT NULL,
	fee_rate_x          NUMERIC,
	fee_rate_y          NUMERIC,
	reserve_x           NUMERIC,
	reserve_y           NUMERIC,
	lp_supply           BIGINT NOT NULL,
	apr                 NUMERIC,
	fee_method          TEXT NOT NULL,
	tvl_method          TEXT NOT NULL,
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
);

CREATE TABLE IF NOT EXISTS progress_state (
	name           TEXT PRIMARY KEY,
	last_processed BIGINT NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
`
