package storage

// pragmaSQL is applied on every open; the pool holds one connection so the
// settings stay in effect
const pragmaSQL = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 30000;
PRAGMA temp_store = MEMORY;
PRAGMA cache_size = -64000;
`

// frontierSQL holds one row per URL ever enqueued. A row is queued, then
// processing once claimed, then completed or error.
const frontierSQL = `
CREATE TABLE IF NOT EXISTS pages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    state TEXT NOT NULL DEFAULT 'queued'
        CHECK (state IN ('queued', 'processing', 'completed', 'error')),
    discovered_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    claimed_at DATETIME,

    status_code INTEGER,
    title TEXT,
    content_hash TEXT,
    word_count INTEGER,
    accepted BOOLEAN,
    links_found INTEGER,
    content_type TEXT,
    response_bytes INTEGER,
    ttfb_ms INTEGER,
    download_ms INTEGER,
    crawled_at DATETIME,

    attempts INTEGER NOT NULL DEFAULT 0,
    error_type TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_pages_state ON pages(state, id);
CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(content_hash) WHERE content_hash IS NOT NULL;

CREATE VIEW IF NOT EXISTS queue_status AS
SELECT state, COUNT(*) AS total, MIN(discovered_at) AS oldest
FROM pages
GROUP BY state;
`

// checkpointSQL holds the accumulator state; SaveState rewrites it whole
const checkpointSQL = `
CREATE TABLE IF NOT EXISTS visited (url TEXT PRIMARY KEY);
CREATE TABLE IF NOT EXISTS accepted (url TEXT PRIMARY KEY);
CREATE TABLE IF NOT EXISTS word_counts (word TEXT PRIMARY KEY, count INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS subdomain_counts (host TEXT PRIMARY KEY, count INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS crawl_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);
`
