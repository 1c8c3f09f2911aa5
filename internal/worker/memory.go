// Package worker содержит пул воркеров для параллельного сравнения изображений.
package worker

import (
	"context"
	"sync"
)

// decodeFactor - во сколько раз декодирование дороже размера файла:
// сжатые JPEG разворачиваются в NRGBA с запасом.
const decodeFactor = 8

// MemoryLimiter ограничивает суммарный объём одновременно декодируемых файлов.
type MemoryLimiter struct {
	// maxMemoryBytes - максимальное использование памяти в байтах.
	maxMemoryBytes uint64

	// mu защищает доступ к текущему использованию.
	mu sync.Mutex

	// currentUsage - текущее зарезервированное использование памяти.
	currentUsage uint64

	// released закрывается при каждом освобождении памяти.
	released chan struct{}

	// enabled - включено ли ограничение.
	enabled bool
}

// NewMemoryLimiter создаёт новый MemoryLimiter.
// maxMemoryMB - ограничение в мегабайтах (0 = без ограничения).
func NewMemoryLimiter(maxMemoryMB int) *MemoryLimiter {
	if maxMemoryMB <= 0 {
		return &MemoryLimiter{enabled: false}
	}

	return &MemoryLimiter{
		maxMemoryBytes: uint64(maxMemoryMB) * 1024 * 1024,
		released:       make(chan struct{}),
		enabled:        true,
	}
}

// Estimate оценивает потребление памяти при декодировании файла.
func Estimate(fileSize int64) uint64 {
	if fileSize <= 0 {
		return 0
	}
	return uint64(fileSize) * decodeFactor
}

// Acquire резервирует память для декодирования файла.
// Блокирует выполнение, пока не будет достаточно памяти.
// Файл больше всего лимита допускается, когда ничего другого не декодируется.
// Возвращает функцию для освобождения памяти.
func (ml *MemoryLimiter) Acquire(ctx context.Context, fileSize int64) (release func(), err error) {
	if !ml.enabled {
		return func() {}, nil
	}

	estimatedUsage := Estimate(fileSize)

	for {
		ml.mu.Lock()
		if ml.currentUsage == 0 || ml.currentUsage+estimatedUsage <= ml.maxMemoryBytes {
			ml.currentUsage += estimatedUsage
			ml.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() { ml.release(estimatedUsage) })
			}, nil
		}
		wait := ml.released
		ml.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

// release возвращает память и будит ожидающих.
func (ml *MemoryLimiter) release(size uint64) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.currentUsage -= size
	close(ml.released)
	ml.released = make(chan struct{})
}

// IsEnabled возвращает true если ограничение включено.
func (ml *MemoryLimiter) IsEnabled() bool {
	return ml.enabled
}

// CurrentUsage возвращает текущее зарезервированное использование памяти.
func (ml *MemoryLimiter) CurrentUsage() uint64 {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return ml.currentUsage
}

// MaxMemory возвращает максимальное ограничение памяти.
func (ml *MemoryLimiter) MaxMemory() uint64 {
	return ml.maxMemoryBytes
}
