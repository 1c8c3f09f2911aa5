// Package worker содержит пул воркеров для параллельного сравнения изображений.
package worker

import (
	"cmp"
	"context"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/artemshloyda/photodupes/internal/config"
	"github.com/artemshloyda/photodupes/internal/job"
	"github.com/artemshloyda/photodupes/internal/photo"
	"github.com/artemshloyda/photodupes/internal/progress"
	"github.com/artemshloyda/photodupes/internal/storage"
)

// MatchKind определяет, почему пара признана дубликатом.
type MatchKind string

const (
	// MatchExact - одинаковые байты файлов.
	MatchExact MatchKind = "exact"
	// MatchPixels - разные файлы, одинаковые декодированные пиксели.
	MatchPixels MatchKind = "pixels"
	// MatchSimilar - расстояние сеток ниже порога.
	MatchSimilar MatchKind = "similar"
)

// Match - найденная пара дубликатов. A идёт раньше B в порядке сравнения.
type Match struct {
	A        *photo.Image
	B        *photo.Image
	Kind     MatchKind
	Distance float32
}

// Stats содержит статистику сравнения.
type Stats struct {
	// Files - количество файлов.
	Files int64

	// Pairs - общее количество пар, включая пары изображения с самим собой.
	Pairs int64

	// Compared - обработанных пар.
	Compared int64

	// Loaded - изображений, загруженных с диска.
	Loaded int64

	// Cached - изображений, восстановленных из базы сводок.
	Cached int64

	// Failed - файлов, которые не удалось открыть или декодировать.
	Failed int64

	// LoadedBytes - суммарный размер загруженных с диска файлов.
	LoadedBytes int64
}

// Result - итог сравнения набора файлов.
type Result struct {
	// Images - изображения в порядке сравнения.
	Images []*photo.Image

	// Matches - найденные пары, упорядоченные по позициям A и B.
	Matches []Match

	// Failures - изображения со статусом, отличным от ok.
	Failures []*photo.Image

	Stats Stats
}

// Pool раздаёт пары из job.Job воркерам и классифицирует их.
type Pool struct {
	cfg           *config.Config
	storage       *storage.Storage
	decoder       photo.Decoder
	progress      *progress.Bar
	memoryLimiter *MemoryLimiter

	// Logf выводит предупреждения и подробные сообщения. По умолчанию молчит.
	Logf func(format string, args ...any)

	stats Stats

	mu       sync.Mutex
	matches  []Match
	failures []*photo.Image
	images   []*photo.Image
}

// New создаёт новый пул. st может быть nil - тогда сводки не кэшируются.
func New(cfg *config.Config, st *storage.Storage) *Pool {
	return &Pool{
		cfg:           cfg,
		storage:       st,
		decoder:       photo.FileDecoder{},
		memoryLimiter: NewMemoryLimiter(cfg.MaxMemoryMB),
		Logf:          func(string, ...any) {},
	}
}

// SetDecoder заменяет декодер (используется в тестах).
func (p *Pool) SetDecoder(dec photo.Decoder) {
	p.decoder = dec
}

// Decoder возвращает декодер, которым загружаются изображения.
func (p *Pool) Decoder() photo.Decoder {
	return p.decoder
}

// SetProgressBar устанавливает прогресс-бар для отображения прогресса.
func (p *Pool) SetProgressBar(bar *progress.Bar) {
	p.progress = bar
}

// Run сравнивает все пары файлов из paths.
// Порядок paths определяет порядок внутри найденных пар.
// При отмене ctx воркеры дорабатывают текущую пару и возвращают ctx.Err().
func (p *Pool) Run(ctx context.Context, paths []string) (*Result, error) {
	p.stats = Stats{Files: int64(len(paths))}
	p.matches, p.failures, p.images = nil, nil, nil

	j := job.New(paths, p.load(ctx))
	p.stats.Pairs = int64(j.Total())
	if p.progress != nil {
		p.progress.SetTotal(p.stats.Pairs)
	}

	g, gctx := errgroup.WithContext(ctx)
	for range max(p.cfg.Workers, 1) {
		g.Go(func() error {
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				pair, ok := j.NextPair()
				if !ok {
					return nil
				}
				p.compare(pair)
			}
		})
	}
	err := g.Wait()

	result := p.collect(paths)
	if p.progress != nil {
		p.progress.Finish()
	}
	return result, err
}

// collect упорядочивает результаты по позициям путей.
func (p *Pool) collect(paths []string) *Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	index := make(map[string]int, len(paths))
	for i, path := range paths {
		if _, seen := index[path]; !seen {
			index[path] = i
		}
	}
	pos := func(img *photo.Image) int { return index[img.Path()] }

	slices.SortFunc(p.images, func(a, b *photo.Image) int { return cmp.Compare(pos(a), pos(b)) })
	slices.SortFunc(p.failures, func(a, b *photo.Image) int { return cmp.Compare(pos(a), pos(b)) })
	slices.SortFunc(p.matches, func(a, b Match) int {
		return cmp.Or(cmp.Compare(pos(a.A), pos(b.A)), cmp.Compare(pos(a.B), pos(b.B)))
	})

	return &Result{
		Images:   p.images,
		Matches:  p.matches,
		Failures: p.failures,
		Stats:    p.GetStats(),
	}
}

// load возвращает загрузчик для job.Job: сводка из базы, если файл не менялся,
// иначе декодирование с ограничением памяти и сохранение новой сводки.
func (p *Pool) load(ctx context.Context) job.Loader {
	return func(path string) *photo.Image {
		info, statErr := os.Stat(path)

		if statErr == nil && p.storage != nil && p.cfg.CacheEnabled {
			summary, ok, err := p.storage.LoadSummary(path, info.Size(), info.ModTime())
			if err != nil {
				p.Logf("⚠️  %s: %v\n", path, err)
			}
			if ok {
				atomic.AddInt64(&p.stats.Cached, 1)
				return photo.Restore(summary, p.decoder)
			}
		}

		var size int64
		if statErr == nil {
			size = info.Size()
		}

		// Загрузку нельзя бросить: Job ждёт изображение в этом слоте.
		// Поэтому и после отмены ждём резерв, а воркер остановится на следующей паре
		release, err := p.memoryLimiter.Acquire(context.WithoutCancel(ctx), size)
		if err != nil {
			p.Logf("⚠️  %s: %v\n", path, err)
		} else {
			defer release()
		}

		img := photo.Load(path, p.decoder)
		atomic.AddInt64(&p.stats.Loaded, 1)
		atomic.AddInt64(&p.stats.LoadedBytes, img.FileSize())

		if p.storage != nil && img.Status() != photo.StatusOpenFailed {
			if err := p.storage.SaveSummary(img.Summary()); err != nil {
				p.Logf("⚠️  %v\n", err)
			}
		}
		return img
	}
}

// compare классифицирует пару. Пара изображения с самим собой регистрирует его.
func (p *Pool) compare(pair job.Pair) {
	atomic.AddInt64(&p.stats.Compared, 1)

	if pair.IsSelf() {
		p.register(pair.A)
		if p.progress != nil {
			p.progress.Compared(false)
		}
		return
	}

	match, ok := p.classify(pair.A, pair.B)
	if ok {
		p.mu.Lock()
		p.matches = append(p.matches, match)
		p.mu.Unlock()

		if p.cfg.Verbose {
			p.Logf("🔍 %s ~ %s (%s, %.0f)\n", match.A.Path(), match.B.Path(), match.Kind, match.Distance)
		}
	}
	if p.progress != nil {
		p.progress.Compared(ok)
	}
}

// register учитывает изображение в результате.
func (p *Pool) register(img *photo.Image) {
	p.mu.Lock()
	p.images = append(p.images, img)
	failed := img.Status() != photo.StatusOK
	if failed {
		p.failures = append(p.failures, img)
	}
	p.mu.Unlock()

	if !failed {
		return
	}
	atomic.AddInt64(&p.stats.Failed, 1)
	if p.progress != nil {
		p.progress.Failed()
	}
	p.Logf("❌ %s: %s\n", img.Path(), img.Status())
}

// classify решает, являются ли два разных изображения дубликатами.
func (p *Pool) classify(a, b *photo.Image) (Match, bool) {
	if ha, ok := a.FileHash(); ok {
		if hb, ok := b.FileHash(); ok && ha == hb {
			return Match{A: a, B: b, Kind: MatchExact}, true
		}
	}

	// Сетки неудачно загруженных изображений нулевые и сравнивать их бессмысленно
	if a.Status() != photo.StatusOK || b.Status() != photo.StatusOK {
		return Match{}, false
	}

	if ha, ok := a.PixelHash(); ok {
		if hb, ok := b.PixelHash(); ok && ha == hb {
			return Match{A: a, B: b, Kind: MatchPixels}, true
		}
	}

	if p.cfg.Mode != config.ModeSimilar {
		return Match{}, false
	}

	maxDistance := float32(p.cfg.MaxDistance)
	if d := a.Distance(b, maxDistance); d < maxDistance {
		return Match{A: a, B: b, Kind: MatchSimilar, Distance: d}, true
	}
	return Match{}, false
}

// GetStats возвращает текущую статистику.
func (p *Pool) GetStats() Stats {
	return Stats{
		Files:       atomic.LoadInt64(&p.stats.Files),
		Pairs:       atomic.LoadInt64(&p.stats.Pairs),
		Compared:    atomic.LoadInt64(&p.stats.Compared),
		Loaded:      atomic.LoadInt64(&p.stats.Loaded),
		Cached:      atomic.LoadInt64(&p.stats.Cached),
		Failed:      atomic.LoadInt64(&p.stats.Failed),
		LoadedBytes: atomic.LoadInt64(&p.stats.LoadedBytes),
	}
}

/*
Возможные расширения:
- Группировать пары в кластеры дубликатов
- Сохранять найденные пары между запусками
*/
