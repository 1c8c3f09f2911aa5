// Package watcher предоставляет функциональность слежения за директорией.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/artemshloyda/photodupes/internal/config"
	"github.com/artemshloyda/photodupes/internal/scanner"
)

// Change - пачка изменений, накопленных за период затишья.
type Change struct {
	// Updated - созданные или изменённые файлы.
	Updated []string

	// Removed - удалённые или переименованные файлы.
	Removed []string
}

// Watcher следит за директорией и сообщает о пачках изменений.
type Watcher struct {
	// cfg - конфигурация.
	cfg *config.Config

	// filter - отбор файлов по расширению.
	filter *scanner.Scanner

	// watcher - fsnotify watcher.
	watcher *fsnotify.Watcher

	// debounceTime - время затишья перед отправкой пачки.
	// Нужно для того, чтобы файлы успели полностью записаться.
	debounceTime time.Duration

	// Logf выводит ошибки fsnotify. По умолчанию молчит.
	Logf func(format string, args ...any)
}

// New создаёт новый Watcher.
func New(cfg *config.Config) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("не удалось создать watcher: %w", err)
	}

	return &Watcher{
		cfg:          cfg,
		filter:       scanner.New(cfg),
		watcher:      w,
		debounceTime: 500 * time.Millisecond,
		Logf:         func(string, ...any) {},
	}, nil
}

// SetDebounceTime устанавливает время debounce.
func (w *Watcher) SetDebounceTime(d time.Duration) {
	w.debounceTime = d
}

// Watch запускает слежение за директорией и возвращает канал пачек изменений.
// Канал закрывается при отмене ctx.
func (w *Watcher) Watch(ctx context.Context) (<-chan Change, error) {
	// Добавляем директорию и все поддиректории
	if err := w.addRecursive(w.cfg.InputDir); err != nil {
		_ = w.watcher.Close()
		return nil, err
	}

	changes := make(chan Change)
	go w.run(ctx, changes)
	return changes, nil
}

// hidden возвращает true для скрытых файлов и директорий (в том числе .photodupes с базой).
func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// addRecursive добавляет директорию и все нескрытые поддиректории в watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && hidden(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("не удалось добавить директорию %s: %w", path, err)
		}
		return nil
	})
}

// run копит события и отправляет пачку после debounceTime без новых событий.
func (w *Watcher) run(ctx context.Context, changes chan<- Change) {
	defer close(changes)
	defer func() { _ = w.watcher.Close() }()

	updated := make(map[string]struct{})
	removed := make(map[string]struct{})

	timer := time.NewTimer(w.debounceTime)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handle(event, updated, removed) {
				timer.Reset(w.debounceTime)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.Logf("Ошибка watcher: %v\n", err)

		case <-timer.C:
			if len(updated) == 0 && len(removed) == 0 {
				continue
			}
			change := Change{Updated: sortedKeys(updated), Removed: sortedKeys(removed)}
			clear(updated)
			clear(removed)

			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
	}
}

// handle учитывает событие. Возвращает true, если событие относится к изображениям.
func (w *Watcher) handle(event fsnotify.Event, updated, removed map[string]struct{}) bool {
	if hidden(event.Name) {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Новая директория - добавляем в watcher вместе с содержимым
			if err := w.addRecursive(event.Name); err != nil {
				w.Logf("Ошибка watcher: %v\n", err)
			}
			return false
		}
	}

	if !w.filter.Accept(event.Name) {
		return false
	}

	path, err := filepath.Abs(event.Name)
	if err != nil {
		path = event.Name
	}

	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		updated[path] = struct{}{}
		delete(removed, path)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		removed[path] = struct{}{}
		delete(updated, path)
	default:
		return false
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Close закрывает watcher. Нужен, только если Watch не был вызван.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

/*
Возможные расширения:
- Добавить фильтрацию по паттерну (glob)
- Сравнивать только изменённые файлы с остальными вместо полного перезапуска
*/
