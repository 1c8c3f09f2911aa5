// Package digest содержит тип хэша содержимого для точного сравнения файлов.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
)

// Size - размер хэша в байтах.
const Size = sha256.Size

// Digest - sha256 хэш содержимого.
// Нулевое значение означает, что хэш не вычислен.
type Digest [Size]byte

// New возвращает хэшер, совместимый с FromHash.
func New() hash.Hash {
	return sha256.New()
}

// Sum вычисляет хэш среза байт.
func Sum(data []byte) Digest {
	return Digest(sha256.Sum256(data))
}

// SumReader вычисляет хэш всего содержимого r.
func SumReader(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, fmt.Errorf("не удалось прочитать данные: %w", err)
	}
	return FromHash(h), nil
}

// SumFile вычисляет хэш файла.
func SumFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("не удалось открыть файл: %w", err)
	}
	defer func() { _ = f.Close() }()

	return SumReader(f)
}

// FromHash забирает результат из sha256 хэшера.
func FromHash(h hash.Hash) Digest {
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Parse разбирает hex-представление хэша.
func Parse(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("некорректный хэш %q: %w", s, err)
	}
	if len(b) != Size {
		return d, fmt.Errorf("некорректная длина хэша: %d, ожидалось %d", len(b), Size)
	}
	copy(d[:], b)
	return d, nil
}

// IsZero возвращает true, если хэш не вычислен.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// String возвращает hex-представление хэша.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short возвращает первые 12 символов hex-представления (для вывода).
func (d Digest) Short() string {
	return d.String()[:12]
}
