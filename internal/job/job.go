// Package job раздаёт пары изображений для сравнения.
//
// Пары перечисляются по треугольной схеме: для major от 0 до n-1 выдаются
// (0, major), (1, major), ..., (major-1, major) и в конце (major, major).
// Всего n(n+1)/2 пар, каждая неупорядоченная пара различных индексов ровно
// один раз. Изображения создаются лениво, ровно один раз на путь; создание
// выполняется вне блокировки, поэтому разные изображения могут загружаться
// параллельно.
package job

import (
	"sync"

	"github.com/artemshloyda/photodupes/internal/photo"
)

// Loader создаёт изображение по пути. Ошибки отражаются в photo.Status.
type Loader func(path string) *photo.Image

// Pair - пара изображений для сравнения.
// В последней паре каждого блока A и B - одно и то же изображение.
type Pair struct {
	A *photo.Image
	B *photo.Image
}

// IsSelf возвращает true для пары изображения с самим собой.
func (p Pair) IsSelf() bool {
	return p.A == p.B
}

// Job - планировщик пар. Безопасен для одновременного использования.
type Job struct {
	paths []string
	load  Loader

	// mu защищает images и курсоры.
	mu sync.Mutex

	// installed сигнализирует об установке очередного изображения.
	installed *sync.Cond

	// images - слоты изображений, каждый заполняется не более одного раза.
	images []*photo.Image

	// nextToCreate - индекс следующего пути для загрузки.
	nextToCreate int

	// major, minor - текущая позиция в треугольной схеме.
	major int
	minor int

	// waiters - вызовы, ждущие чужой загрузки.
	waiters int
}

// New создаёт Job для путей paths.
func New(paths []string, load Loader) *Job {
	j := &Job{
		paths:  paths,
		load:   load,
		images: make([]*photo.Image, len(paths)),
	}
	j.installed = sync.NewCond(&j.mu)
	return j
}

// NextPair возвращает следующую пару.
// Второе значение false, когда все пары уже выданы.
//
// Вызов может блокироваться: на время загрузки изображения, которое взял
// на себя этот вызов, или до установки изображения, загружаемого другим вызовом.
func (j *Job) NextPair() (Pair, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	// Пока вызов ждал загрузку, другие вызовы могли выбрать все пары
	for j.progressCurrent() < j.progressTotal() && j.images[j.major] == nil {
		if j.nextToCreate < len(j.images) {
			i := j.nextToCreate
			j.nextToCreate++
			j.images[i] = j.build(i)
			j.installed.Broadcast()
		} else {
			// Все изображения разобраны, ждём окончания чужой загрузки
			j.waiters++
			j.installed.Wait()
			j.waiters--
		}
	}
	if j.progressCurrent() == j.progressTotal() {
		return Pair{}, false
	}

	minor, major := j.minor, j.major

	if j.minor == j.major {
		j.major++
		j.minor = 0
	} else {
		j.minor++
	}

	return Pair{A: j.images[minor], B: j.images[major]}, true
}

// build загружает изображение i без удержания блокировки.
func (j *Job) build(i int) *photo.Image {
	j.mu.Unlock()
	defer j.mu.Lock()
	return j.load(j.paths[i])
}

// Progress возвращает долю выданных пар от 0 до 1.
func (j *Job) Progress() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()

	total := j.progressTotal()
	if total == 0 {
		return 1
	}
	return float64(j.progressCurrent()) / float64(total)
}

// IsCompleted возвращает true, когда все пары выданы.
func (j *Job) IsCompleted() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progressCurrent() == j.progressTotal()
}

// Len возвращает количество путей.
func (j *Job) Len() int {
	return len(j.paths)
}

// Total возвращает общее количество пар, включая пары изображения с собой.
func (j *Job) Total() int {
	return j.progressTotal()
}

func (j *Job) progressCurrent() int {
	return j.major*(j.major+1)/2 + j.minor
}

func (j *Job) progressTotal() int {
	n := len(j.paths)
	return n * (n + 1) / 2
}
