package storage

const schemaV1 = `
CREATE TABLE IF NOT EXISTS releases (
    release_id      INTEGER PRIMARY KEY AUTOINCREMENT,
    release_uuid    TEXT UNIQUE NOT NULL,
    commit_id       TEXT NOT NULL,
    image           TEXT NOT NULL,
    local_ref       TEXT,
    remote_ref      TEXT,
    registry        TEXT,
    status          TEXT NOT NULL,
    failed_step     TEXT,
    error_message   TEXT,
    dry_run         INTEGER DEFAULT 0,
    duration_ms     INTEGER DEFAULT 0,
    manifest_uri    TEXT,
    cli_version     TEXT,
    started_at      TEXT NOT NULL,
    created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_releases_image_started
    ON releases(image, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_releases_commit
    ON releases(commit_id);

CREATE TABLE IF NOT EXISTS release_tags (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    release_id  INTEGER NOT NULL,
    ref         TEXT NOT NULL,
    FOREIGN KEY (release_id) REFERENCES releases(release_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_release_tags_release ON release_tags(release_id);
`
