// Package storage содержит миграции SQLite базы данных.
package storage

// migrations содержит SQL-миграции в порядке выполнения.
var migrations = []string{
	// Миграция 1: Таблица сводок изображений
	`CREATE TABLE IF NOT EXISTS summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		file_size INTEGER NOT NULL,
		file_mtime INTEGER NOT NULL,
		status TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		file_sha256 TEXT,
		pixel_sha256 TEXT,
		grid BLOB,
		metadata TEXT,
		updated_at INTEGER NOT NULL
	);`,

	// Миграция 2: Одна сводка на путь; устаревшая заменяется при сохранении
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_summaries_path ON summaries (path);`,

	// Миграция 3: Поиск точных копий по содержимому
	`CREATE INDEX IF NOT EXISTS ix_summaries_file_sha256 ON summaries (file_sha256);`,

	// Миграция 4: Индекс для статистики по статусу
	`CREATE INDEX IF NOT EXISTS ix_summaries_status ON summaries (status);`,

	// Миграция 5: Таблица метаданных для версионирования схемы
	`CREATE TABLE IF NOT EXISTS schema_info (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,

	// Миграция 6: Запись версии схемы
	`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', '1');`,
}

// GetMigrations возвращает список SQL-миграций.
func GetMigrations() []string {
	return migrations
}
