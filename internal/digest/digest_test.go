package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	c := Sum([]byte("hello!"))

	if a != b {
		t.Error("одинаковые данные должны давать одинаковый хэш")
	}
	if a == c {
		t.Error("разные данные должны давать разный хэш")
	}
	if a.IsZero() {
		t.Error("вычисленный хэш не должен быть нулевым")
	}

	// sha256("hello")
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got := a.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
	if got := a.Short(); got != want[:12] {
		t.Errorf("Short() = %s, want %s", got, want[:12])
	}
}

func TestSumReaderAndFile(t *testing.T) {
	data := "some file content"
	path := filepath.Join(t.TempDir(), "f.bin")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	fromReader, err := SumReader(strings.NewReader(data))
	if err != nil {
		t.Fatalf("SumReader() error = %v", err)
	}
	fromFile, err := SumFile(path)
	if err != nil {
		t.Fatalf("SumFile() error = %v", err)
	}

	if fromReader != Sum([]byte(data)) || fromFile != fromReader {
		t.Error("SumReader, SumFile и Sum должны совпадать")
	}

	if _, err := SumFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("SumFile() для несуществующего файла должен вернуть ошибку")
	}
}

func TestParse(t *testing.T) {
	d := Sum([]byte("x"))

	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", d.String(), false},
		{"not hex", "zz", true},
		{"short", "abcd", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != d {
				t.Errorf("Parse() = %s, want %s", got, d)
			}
		})
	}
}

func TestZero(t *testing.T) {
	var d Digest
	if !d.IsZero() {
		t.Error("нулевое значение должно считаться невычисленным")
	}
}
