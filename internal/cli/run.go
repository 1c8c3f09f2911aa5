package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/artemshloyda/photodupes/internal/photo"
	"github.com/artemshloyda/photodupes/internal/preview"
	"github.com/artemshloyda/photodupes/internal/progress"
	"github.com/artemshloyda/photodupes/internal/scanner"
	"github.com/artemshloyda/photodupes/internal/storage"
	"github.com/artemshloyda/photodupes/internal/watcher"
	"github.com/artemshloyda/photodupes/internal/worker"
)

// runOnce сканирует директорию, сравнивает все пары и выполняет действия над результатом.
func (a *app) runOnce(ctx context.Context, store *storage.Storage) (*worker.Result, error) {
	startTime := time.Now()

	scan := scanner.New(a.cfg)
	scan.Warnings = a.errOut

	files, err := scan.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка сканирования: %w", err)
	}
	paths := scanner.Paths(files)

	// Выводим параметры
	fmt.Fprintf(a.out, "🚀 Поиск дубликатов:\n")
	fmt.Fprintf(a.out, "   Директория: %s\n", a.cfg.InputDir)
	fmt.Fprintf(a.out, "   Файлов: %d (пар: %s)\n", len(paths), humanize.Comma(int64(len(paths)*(len(paths)+1)/2)))
	fmt.Fprintf(a.out, "   Режим: %s", a.cfg.Mode)
	if a.cfg.Preset != "" {
		fmt.Fprintf(a.out, " (пресет %s)", a.cfg.Preset)
	}
	fmt.Fprintf(a.out, ", порог: %g\n", a.cfg.MaxDistance)
	fmt.Fprintf(a.out, "   Воркеров: %d\n", a.cfg.Workers)
	if a.cfg.DryRun {
		fmt.Fprintln(a.out, "   ⚠️  Dry-run режим (файлы не удаляются)")
	}
	fmt.Fprintln(a.out)

	bar := progress.New(progress.Options{
		Total:    int64(len(paths) * (len(paths) + 1) / 2),
		Disabled: a.cfg.NoProgress,
		Writer:   a.errOut,
	})

	pool := worker.New(a.cfg, store)
	pool.SetProgressBar(bar)
	pool.Logf = bar.WriteMessage

	result, err := pool.Run(ctx, paths)
	if err != nil {
		return result, err
	}

	a.printReport(result, time.Since(startTime))

	if a.cfg.PreviewDir != "" {
		a.writePreviews(result.Matches)
	}
	if a.cfg.DeleteExact {
		a.deleteExact(result.Matches)
	}
	if a.opts.reveal && len(result.Matches) > 0 {
		if err := result.Matches[0].B.OpenFolder(); err != nil {
			fmt.Fprintf(a.errOut, "⚠️  %v\n", err)
		}
	}

	return result, nil
}

// watch повторяет поиск после каждой пачки изменений в директории.
func (a *app) watch(ctx context.Context, store *storage.Storage) error {
	w, err := watcher.New(a.cfg)
	if err != nil {
		return err
	}
	w.Logf = func(format string, args ...any) {
		fmt.Fprintf(a.errOut, format, args...)
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}

	if _, err := a.runOnce(ctx, store); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	fmt.Fprintf(a.out, "\n👀 Слежение за %s (Ctrl+C для выхода)\n", a.cfg.InputDir)
	for change := range changes {
		fmt.Fprintf(a.out, "\n🔄 Изменения: новых/изменённых %d, удалённых %d\n", len(change.Updated), len(change.Removed))

		if store != nil {
			for _, path := range change.Removed {
				if err := store.Forget(path); err != nil {
					fmt.Fprintf(a.errOut, "⚠️  %v\n", err)
				}
			}
		}

		if _, err := a.runOnce(ctx, store); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(a.errOut, "❌ %v\n", err)
		}
	}
	return nil
}

// writePreviews сохраняет PNG-превью каждой найденной пары.
func (a *app) writePreviews(matches []worker.Match) {
	sheet := preview.NewSheet(a.cfg.PreviewHeight, a.bitmaps)

	written := 0
	for i, m := range matches {
		path := filepath.Join(a.cfg.PreviewDir, fmt.Sprintf("%04d_%s.png", i+1, m.Kind))
		if err := sheet.WritePair(path, m.A, m.B); err != nil {
			fmt.Fprintf(a.errOut, "⚠️  Превью %s: %v\n", path, err)
			continue
		}
		written++
	}
	fmt.Fprintf(a.out, "🖼️  Превью: %d в %s\n", written, a.cfg.PreviewDir)
}

// planExactDeletions выбирает файлы для удаления среди точных копий.
// В каждой группе остаётся файл, идущий первым в порядке сравнения.
func planExactDeletions(matches []worker.Match) []*photo.Image {
	drop := make(map[*photo.Image]bool)
	var plan []*photo.Image

	for _, m := range matches {
		if m.Kind != worker.MatchExact {
			continue
		}
		// Копия копии: оставленный файл группы уже сопоставлен с B напрямую
		if drop[m.A] || drop[m.B] || !m.B.IsDeletable() {
			continue
		}
		drop[m.B] = true
		plan = append(plan, m.B)
	}
	return plan
}

// deleteExact удаляет точные копии (или только перечисляет их в dry-run).
func (a *app) deleteExact(matches []worker.Match) {
	plan := planExactDeletions(matches)
	if len(plan) == 0 {
		return
	}

	var freed int64
	deleted := 0
	for _, img := range plan {
		if a.cfg.DryRun {
			fmt.Fprintf(a.out, "🗑️  [dry-run] %s\n", a.rel(img.Path()))
			freed += img.FileSize()
			deleted++
			continue
		}
		if err := img.DeleteFile(); err != nil {
			fmt.Fprintf(a.errOut, "❌ %v\n", err)
			continue
		}
		if a.cfg.Verbose {
			fmt.Fprintf(a.out, "🗑️  %s\n", a.rel(img.Path()))
		}
		freed += img.FileSize()
		deleted++
	}

	verb := "Удалено"
	if a.cfg.DryRun {
		verb = "Было бы удалено"
	}
	fmt.Fprintf(a.out, "🧹 %s копий: %d (%s)\n", verb, deleted, humanize.Bytes(uint64(freed)))
}

// rel возвращает путь относительно входной директории.
func (a *app) rel(path string) string {
	if abs, err := filepath.Abs(a.cfg.InputDir); err == nil {
		if r, err := filepath.Rel(abs, path); err == nil {
			return r
		}
	}
	return path
}
