// Package cache реализует реестр подготовленных для отрисовки представлений изображений.
package cache

import (
	"sync"
	"weak"
)

// entry - запись реестра: слабая ссылка на изображение и готовое представление.
type entry[T any, H any] struct {
	// item - слабая ссылка, не продлевает жизнь изображения.
	item weak.Pointer[T]

	// handle - представление, созданное для конкретной цели отрисовки.
	handle H
}

// Registry хранит представления изображений отдельно для каждой цели отрисовки.
//
// Реестр не владеет изображениями: когда изображение собрано сборщиком мусора,
// его записи удаляются при следующем обращении к той же цели.
type Registry[K comparable, T any, H any] struct {
	// mu защищает entries.
	mu sync.Mutex

	// entries - записи, сгруппированные по цели отрисовки.
	entries map[K][]entry[T, H]
}

// New создаёт пустой Registry.
func New[K comparable, T any, H any]() *Registry[K, T, H] {
	return &Registry[K, T, H]{
		entries: make(map[K][]entry[T, H]),
	}
}

// GetOrCreate возвращает представление item для target.
// Если записи нет, вызывает create и запоминает результат.
// create выполняется без блокировки реестра; если за это время другой вызов
// успел добавить запись, возвращается она. Ошибка create не кэшируется.
func (r *Registry[K, T, H]) GetOrCreate(target K, item *T, create func() (H, error)) (H, error) {
	ref := weak.Make(item)

	if handle, ok := r.lookup(target, ref); ok {
		return handle, nil
	}

	handle, err := create()
	if err != nil {
		var zero H
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if found, ok := r.scan(target, ref); ok {
		return found, nil
	}
	r.entries[target] = append(r.entries[target], entry[T, H]{item: ref, handle: handle})
	return handle, nil
}

// lookup ищет запись под блокировкой.
func (r *Registry[K, T, H]) lookup(target K, ref weak.Pointer[T]) (H, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scan(target, ref)
}

// scan ищет запись ref, попутно отбрасывая мёртвые. Вызывается под r.mu.
func (r *Registry[K, T, H]) scan(target K, ref weak.Pointer[T]) (H, bool) {
	list := r.entries[target]

	live := list[:0]
	var (
		found  H
		hasHit bool
	)
	for _, e := range list {
		if e.item.Value() == nil {
			continue
		}
		if e.item == ref {
			found = e.handle
			hasHit = true
		}
		live = append(live, e)
	}
	clear(list[len(live):])

	r.store(target, live)
	return found, hasHit
}

// store сохраняет список записей цели, удаляя пустые списки.
func (r *Registry[K, T, H]) store(target K, list []entry[T, H]) {
	if len(list) == 0 {
		delete(r.entries, target)
		return
	}
	r.entries[target] = list
}

// Remove забывает все записи цели отрисовки.
// Вызывается, когда цель уничтожена.
func (r *Registry[K, T, H]) Remove(target K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, target)
}

// Clear очищает весь реестр.
func (r *Registry[K, T, H]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
}

// Len возвращает общее количество записей, включая ещё не удалённые мёртвые.
func (r *Registry[K, T, H]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, list := range r.entries {
		n += len(list)
	}
	return n
}

/*
Возможные расширения:
- Добавить ограничение на количество записей для одной цели
- Добавить фоновую очистку мёртвых записей
*/
