package database

// initialSchema creates the two persistent tables: leads, keyed
// uniquely on (platform, user_id), and the append-only conversations
// log indexed for recent-history scans.
const initialSchema = `
CREATE TABLE IF NOT EXISTS leads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    platform TEXT NOT NULL,
    user_id TEXT NOT NULL,
    user_name TEXT,
    phone TEXT,
    status TEXT NOT NULL DEFAULT 'new',
    notes TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(platform, user_id)
);

CREATE TABLE IF NOT EXISTS conversations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    platform TEXT NOT NULL,
    user_id TEXT NOT NULL,
    message_text TEXT NOT NULL,
    response_text TEXT NOT NULL,
    transferred_to_human BOOLEAN NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_leads_platform_user ON leads(platform, user_id);
CREATE INDEX IF NOT EXISTS idx_user_conversations ON conversations(platform, user_id, created_at);
`
