// Package progress показывает ход перебора пар изображений.
//
// Бар рисуется только в терминале. В остальных случаях (файл, буфер, pipe)
// ведутся лишь счётчики, а сообщения пишутся в вывод как есть.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// redrawInterval - не чаще одной перерисовки за интервал.
const redrawInterval = 65 * time.Millisecond

// Options - параметры бара.
type Options struct {
	// Total - число пар, включая пары изображения с самим собой.
	Total int64

	// Disabled отключает бар даже в терминале.
	Disabled bool

	// Writer по умолчанию os.Stderr.
	Writer io.Writer
}

// Bar считает пары и найденные дубликаты.
// Описание бара показывает число дубликатов и ошибок загрузки.
type Bar struct {
	mu  sync.Mutex
	out io.Writer

	// bar равен nil, если рисовать нечего.
	bar *progressbar.ProgressBar

	compared, matched, failed int64
}

// IsTerminal проверяет, что w - интерактивный терминал.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// New создаёт бар. Счётчики ведутся и без отрисовки.
func New(opts Options) *Bar {
	out := opts.Writer
	if out == nil {
		out = os.Stderr
	}

	b := &Bar{out: out}
	if opts.Disabled || !IsTerminal(out) || opts.Total <= 0 {
		return b
	}

	b.bar = progressbar.NewOptions64(
		opts.Total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("пар"),
		progressbar.OptionSetDescription(describe(0, 0)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[cyan]=[reset]",
			SaucerHead:    "[cyan]>[reset]",
			SaucerPadding: " ",
			BarStart:      "|",
			BarEnd:        "|",
		}),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(redrawInterval),
		progressbar.OptionFullWidth(),
	)
	return b
}

func describe(matched, failed int64) string {
	if failed == 0 {
		return fmt.Sprintf("🔍 дубликатов: %d", matched)
	}
	return fmt.Sprintf("🔍 дубликатов: %d, ошибок: %d", matched, failed)
}

// Compared отмечает обработанную пару.
func (b *Bar) Compared(matched bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.compared++
	if matched {
		b.matched++
		b.redescribe()
	}
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

// Failed отмечает файл, который не удалось загрузить.
// Позицию бара не двигает: его пара с самим собой учитывается в Compared.
func (b *Bar) Failed() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failed++
	b.redescribe()
}

func (b *Bar) redescribe() {
	if b.bar != nil {
		b.bar.Describe(describe(b.matched, b.failed))
	}
}

// SetTotal меняет число пар.
func (b *Bar) SetTotal(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		b.bar.ChangeMax64(total)
	}
}

// Finish дорисовывает бар до конца.
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Stats возвращает счётчики.
func (b *Bar) Stats() (compared, matched, failed int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.compared, b.matched, b.failed
}

// IsDisabled возвращает true, если бар не рисуется.
func (b *Bar) IsDisabled() bool {
	return b.bar == nil
}

// WriteMessage печатает строку над баром.
// Подходит как Logf для worker.Pool и watcher.Watcher.
func (b *Bar) WriteMessage(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bar != nil {
		_ = b.bar.Clear()
	}
	fmt.Fprintf(b.out, format, args...)
	if b.bar != nil {
		_ = b.bar.RenderBlank()
	}
}
