package sqlstore

// Both schemas keep comments exclusive to one parent and cascade parent deletes.
// The store also cascades explicitly, since sqlite only enforces foreign keys
// when the pragma is on for the connection.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS pictures (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		asset_path TEXT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		uploaded_at DATETIME NOT NULL,
		owner TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL,
		owner TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		picture_id INTEGER REFERENCES pictures(id) ON DELETE CASCADE,
		note_id INTEGER REFERENCES notes(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		commented_at DATETIME NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		CHECK ((picture_id IS NULL) <> (note_id IS NULL))
	);`,
	`CREATE INDEX IF NOT EXISTS comments_picture_id ON comments (picture_id);`,
	`CREATE INDEX IF NOT EXISTS comments_note_id ON comments (note_id);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS pictures (
		id BIGSERIAL PRIMARY KEY,
		asset_path TEXT,
		title VARCHAR(200) NOT NULL,
		description VARCHAR(500) NOT NULL DEFAULT '',
		uploaded_at TIMESTAMPTZ NOT NULL,
		owner VARCHAR(100) NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS notes (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		content VARCHAR(2000) NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL,
		owner VARCHAR(100) NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGSERIAL PRIMARY KEY,
		picture_id BIGINT REFERENCES pictures(id) ON DELETE CASCADE,
		note_id BIGINT REFERENCES notes(id) ON DELETE CASCADE,
		description VARCHAR(500) NOT NULL,
		commented_at TIMESTAMPTZ NOT NULL,
		owner VARCHAR(100) NOT NULL DEFAULT '',
		CHECK ((picture_id IS NULL) <> (note_id IS NULL))
	);`,
	`CREATE INDEX IF NOT EXISTS comments_picture_id ON comments (picture_id);`,
	`CREATE INDEX IF NOT EXISTS comments_note_id ON comments (note_id);`,
}
