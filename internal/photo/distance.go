package photo

// gridSize - количество блоков сетки по каждой оси.
const gridSize = 8

// Colour - средний цвет блока, каналы в диапазоне 0..255.
type Colour struct {
	R float32
	G float32
	B float32
}

// grid - сетка средних цветов, grid[y][x].
type grid [gridSize][gridSize]Colour

// transform - одно из восьми преобразований симметрии квадрата.
type transform int

const (
	transformNone transform = iota
	transformRotate90
	transformRotate180
	transformRotate270
	transformFlipH
	transformFlipV
	transformFlipNWSE
	transformFlipSWNE
)

// transforms перечисляет все преобразования в порядке перебора.
var transforms = [...]transform{
	transformNone,
	transformRotate90,
	transformRotate180,
	transformRotate270,
	transformFlipH,
	transformFlipV,
	transformFlipNWSE,
	transformFlipSWNE,
}

// intensity возвращает цвет блока (x, y) сетки после преобразования t.
func (g *grid) intensity(x, y int, t transform) Colour {
	const n = gridSize - 1
	switch t {
	case transformRotate90:
		x, y = y, n-x
	case transformRotate180:
		x, y = n-x, n-y
	case transformRotate270:
		x, y = n-y, x
	case transformFlipH:
		x = n - x
	case transformFlipV:
		y = n - y
	case transformFlipNWSE:
		x, y = y, x
	case transformFlipSWNE:
		x, y = n-y, n-x
	}
	return g[y][x]
}

// diff возвращает сумму квадратов разностей каналов.
func (c Colour) diff(o Colour) float32 {
	r := c.R - o.R
	g := c.G - o.G
	b := c.B - o.B
	return r*r + g*g + b*b
}

// Distance возвращает визуальное различие двух изображений,
// не зависящее от поворотов на 90° и отражений.
//
// Для каждого из восьми преобразований суммируются квадраты разностей цветов
// блоков; результат - минимум по преобразованиям. Суммирование прекращается,
// как только частичная сумма достигает лучшего найденного значения, поэтому
// результат точен только если он меньше maxDistance. Иначе возвращается
// maxDistance.
//
// Сетки неудачно загруженных изображений нулевые, поэтому перед выводами
// о похожести нужно проверять Status.
func (i *Image) Distance(other *Image, maxDistance float32) float32 {
	best := maxDistance
	for _, t := range transforms {
		var sum float32
		for y := 0; y < gridSize && sum < best; y++ {
			for x := 0; x < gridSize; x++ {
				sum += i.intensities.intensity(x, y, t).diff(other.intensities[y][x])
			}
		}
		if sum < best {
			best = sum
		}
	}
	return best
}
