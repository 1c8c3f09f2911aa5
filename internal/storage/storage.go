// Package storage содержит логику работы с SQLite базой сводок изображений.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artemshloyda/photodupes/internal/photo"
)

// ErrLocked возвращается, если база уже открыта другим процессом.
var ErrLocked = errors.New("база сводок используется другим процессом")

// Storage хранит сводки изображений между запусками,
// чтобы не декодировать неизменившиеся файлы повторно.
type Storage struct {
	db   *sql.DB
	lock *flock.Flock
}

// New создаёт новое подключение к SQLite и выполняет миграции.
// Рядом с базой берётся файловая блокировка <dbPath>.lock.
func New(dbPath string) (*Storage, error) {
	// Создаём директорию для БД, если не существует
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию для БД: %w", err)
	}

	lock := flock.New(dbPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("не удалось заблокировать БД: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	// Открываем/создаём БД с параметрами для concurrent доступа
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("не удалось открыть БД: %w", err)
	}

	// Проверяем подключение
	if err := db.Ping(); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	// Настраиваем пул соединений
	db.SetMaxOpenConns(1) // SQLite не поддерживает concurrent writes
	db.SetMaxIdleConns(1)

	s := &Storage{db: db, lock: lock}

	// Выполняем миграции
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("не удалось выполнить миграции: %w", err)
	}

	return s, nil
}

// migrate выполняет все SQL-миграции.
func (s *Storage) migrate() error {
	for i, m := range GetMigrations() {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("миграция %d: %w", i+1, err)
		}
	}
	return nil
}

// Close закрывает подключение к БД и снимает блокировку.
func (s *Storage) Close() error {
	err := s.db.Close()
	if unlockErr := s.lock.Unlock(); err == nil && unlockErr != nil {
		err = fmt.Errorf("не удалось снять блокировку: %w", unlockErr)
	}
	return err
}

// LoadSummary возвращает сохранённую сводку файла, если его размер
// и время модификации не изменились с момента сохранения.
func (s *Storage) LoadSummary(path string, size int64, mtime time.Time) (photo.Summary, bool, error) {
	var row summaryRow
	query := `
		SELECT path, file_size, file_mtime, status, width, height,
		       file_sha256, pixel_sha256, grid, metadata
		FROM summaries
		WHERE path = ? AND file_size = ? AND file_mtime = ?
		LIMIT 1
	`
	err := s.db.QueryRow(query, path, size, mtime.UnixNano()).Scan(
		&row.Path, &row.FileSize, &row.FileMtime, &row.Status, &row.Width, &row.Height,
		&row.FileSHA256, &row.PixelSHA256, &row.Grid, &row.Metadata,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return photo.Summary{}, false, nil
	}
	if err != nil {
		return photo.Summary{}, false, fmt.Errorf("не удалось прочитать сводку %s: %w", path, err)
	}

	summary, err := row.summary()
	if err != nil {
		return photo.Summary{}, false, fmt.Errorf("повреждённая сводка %s: %w", path, err)
	}
	return summary, true, nil
}

// SaveSummary сохраняет сводку, заменяя прежнюю для того же пути.
func (s *Storage) SaveSummary(summary photo.Summary) error {
	row, err := newSummaryRow(summary)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO summaries (path, file_size, file_mtime, status, width, height,
		                       file_sha256, pixel_sha256, grid, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (path) DO UPDATE SET
			file_size = excluded.file_size,
			file_mtime = excluded.file_mtime,
			status = excluded.status,
			width = excluded.width,
			height = excluded.height,
			file_sha256 = excluded.file_sha256,
			pixel_sha256 = excluded.pixel_sha256,
			grid = excluded.grid,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`
	_, err = s.db.Exec(query,
		row.Path, row.FileSize, row.FileMtime, row.Status, row.Width, row.Height,
		row.FileSHA256, row.PixelSHA256, row.Grid, row.Metadata, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("не удалось сохранить сводку %s: %w", summary.Path, err)
	}
	return nil
}

// Forget удаляет сводку файла.
func (s *Storage) Forget(path string) error {
	if _, err := s.db.Exec("DELETE FROM summaries WHERE path = ?", path); err != nil {
		return fmt.Errorf("не удалось удалить сводку %s: %w", path, err)
	}
	return nil
}

// PruneMissing удаляет сводки файлов, которых больше нет на диске.
// Возвращает количество удалённых записей.
func (s *Storage) PruneMissing() (int64, error) {
	rows, err := s.db.Query("SELECT path FROM summaries")
	if err != nil {
		return 0, fmt.Errorf("не удалось получить список сводок: %w", err)
	}

	var missing []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			_ = rows.Close()
			return 0, fmt.Errorf("не удалось прочитать путь: %w", err)
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, path)
		}
	}
	if err := rows.Close(); err != nil {
		return 0, err
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var removed int64
	for _, path := range missing {
		if err := s.Forget(path); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// GetStats возвращает статистику по сохранённым сводкам.
func (s *Storage) GetStats() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM summaries").Scan(&st.Total); err != nil {
		return st, fmt.Errorf("не удалось получить статистику: %w", err)
	}
	_ = s.db.QueryRow("SELECT COUNT(*) FROM summaries WHERE status = ?", photo.StatusOK).Scan(&st.OK)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM summaries WHERE status = ?", photo.StatusOpenFailed).Scan(&st.OpenFailed)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM summaries WHERE status = ?", photo.StatusDecodeFailed).Scan(&st.DecodeFailed)
	_ = s.db.QueryRow("SELECT COUNT(DISTINCT file_sha256) FROM summaries WHERE file_sha256 IS NOT NULL").Scan(&st.UniqueContent)
	return st, nil
}

/*
Возможные расширения:
- Добавить экспорт найденных групп дубликатов в JSON
- Хранить версию алгоритма сетки для инвалидации сводок
*/
