package store

// SchemaVersion is written to the metadata table of every build.
const SchemaVersion = "1"

// Metadata keys.
const (
	MetaSchemaVersion = "schema_version"
	MetaBuiltAt       = "built_at"
	MetaBuildID       = "build_id"
	MetaBookCount     = "book_count"
	MetaChapterCount  = "chapter_count"
	MetaVerseCount    = "verse_count"
	MetaFootnoteCount = "footnote_count"
	MetaVersions      = "versions"
	MetaChecksum      = "checksum"
)

var schema = []string{
	`CREATE TABLE bible_versions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		full_name TEXT NOT NULL,
		language TEXT NOT NULL,
		description TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL,
		version_id TEXT NOT NULL,
		name TEXT NOT NULL,
		abbreviation TEXT NOT NULL,
		short_name TEXT NOT NULL,
		long_name TEXT NOT NULL,
		alt_name TEXT,
		chapter_count INTEGER NOT NULL DEFAULT 0,
		testament TEXT NOT NULL CHECK (testament IN ('OT', 'NT')),
		book_order INTEGER NOT NULL,
		FOREIGN KEY (version_id) REFERENCES bible_versions(id),
		UNIQUE (code, version_id)
	)`,
	`CREATE TABLE chapters (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL,
		chapter_number INTEGER NOT NULL,
		verse_count INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (book_id) REFERENCES books(id),
		UNIQUE (book_id, chapter_number)
	)`,
	`CREATE TABLE verses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL,
		chapter_number INTEGER NOT NULL,
		verse_number INTEGER NOT NULL,
		text TEXT NOT NULL CHECK (length(text) > 0),
		version_id TEXT NOT NULL,
		FOREIGN KEY (book_id) REFERENCES books(id),
		FOREIGN KEY (version_id) REFERENCES bible_versions(id),
		UNIQUE (book_id, chapter_number, verse_number, version_id)
	)`,
	`CREATE TABLE footnotes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL,
		chapter_number INTEGER NOT NULL,
		verse_number INTEGER NOT NULL,
		version_id TEXT NOT NULL,
		footnote_type TEXT NOT NULL CHECK (footnote_type IN ('footnote', 'cross_reference')),
		caller TEXT,
		content TEXT NOT NULL,
		reference TEXT,
		keyword TEXT,
		quotation TEXT,
		FOREIGN KEY (book_id) REFERENCES books(id),
		FOREIGN KEY (version_id) REFERENCES bible_versions(id)
	)`,
	`CREATE TABLE metadata (
		key TEXT PRIMARY KEY,
		value TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX idx_verses_book_chapter ON verses(book_id, chapter_number)`,
	`CREATE INDEX idx_verses_version ON verses(version_id)`,
	`CREATE INDEX idx_chapters_book ON chapters(book_id)`,
	`CREATE INDEX idx_footnotes_verse ON footnotes(book_id, chapter_number, verse_number)`,
	`CREATE INDEX idx_footnotes_type ON footnotes(footnote_type)`,
	`CREATE INDEX idx_books_testament ON books(testament)`,
	`CREATE INDEX idx_books_order ON books(book_order)`,
	`CREATE INDEX idx_books_code ON books(code)`,
	`CREATE INDEX idx_books_version ON books(version_id)`,
}

// verses_fts is an external content table over verses; only text is
// tokenized.
const ftsSchema = `CREATE VIRTUAL TABLE verses_fts USING fts5(
	book_id UNINDEXED,
	chapter_number UNINDEXED,
	verse_number UNINDEXED,
	text,
	version_id UNINDEXED,
	content='verses',
	content_rowid='id'
)`

const ftsPopulate = `INSERT INTO verses_fts(rowid, book_id, chapter_number, verse_number, text, version_id)
	SELECT id, book_id, chapter_number, verse_number, text, version_id FROM verses`

var ftsTriggers = []string{
	`CREATE TRIGGER verses_fts_insert AFTER INSERT ON verses BEGIN
		INSERT INTO verses_fts(rowid, book_id, chapter_number, verse_number, text, version_id)
		VALUES (new.id, new.book_id, new.chapter_number, new.verse_number, new.text, new.version_id);
	END`,
	`CREATE TRIGGER verses_fts_delete AFTER DELETE ON verses BEGIN
		INSERT INTO verses_fts(verses_fts, rowid, book_id, chapter_number, verse_number, text, version_id)
		VALUES ('delete', old.id, old.book_id, old.chapter_number, old.verse_number, old.text, old.version_id);
	END`,
	`CREATE TRIGGER verses_fts_update AFTER UPDATE ON verses BEGIN
		INSERT INTO verses_fts(verses_fts, rowid, book_id, chapter_number, verse_number, text, version_id)
		VALUES ('delete', old.id, old.book_id, old.chapter_number, old.verse_number, old.text, old.version_id);
		INSERT INTO verses_fts(rowid, book_id, chapter_number, verse_number, text, version_id)
		VALUES (new.id, new.book_id, new.chapter_number, new.verse_number, new.text, new.version_id);
	END`,
}
