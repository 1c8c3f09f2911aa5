package cache

import (
	"errors"
	"runtime"
	"testing"
	"time"
)

type testItem struct {
	name string
	data []byte
}

type testTarget struct {
	id int
}

func newItem(name string) *testItem {
	return &testItem{name: name, data: make([]byte, 64)}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := New[*testTarget, testItem, string]()
	target := &testTarget{id: 1}
	item := newItem("a")

	calls := 0
	create := func() (string, error) {
		calls++
		return "bitmap-a", nil
	}

	for i := 0; i < 3; i++ {
		got, err := r.GetOrCreate(target, item, create)
		if err != nil {
			t.Fatalf("GetOrCreate() error = %v", err)
		}
		if got != "bitmap-a" {
			t.Errorf("GetOrCreate() = %q, want %q", got, "bitmap-a")
		}
	}

	if calls != 1 {
		t.Errorf("create вызван %d раз, want 1", calls)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
	runtime.KeepAlive(item)
}

func TestRegistry_PerTarget(t *testing.T) {
	r := New[*testTarget, testItem, int]()
	t1 := &testTarget{id: 1}
	t2 := &testTarget{id: 2}
	item := newItem("a")

	h1, _ := r.GetOrCreate(t1, item, func() (int, error) { return 1, nil })
	h2, _ := r.GetOrCreate(t2, item, func() (int, error) { return 2, nil })

	if h1 != 1 || h2 != 2 {
		t.Errorf("разные цели должны получать свои представления: %d, %d", h1, h2)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}

	r.Remove(t1)
	if r.Len() != 1 {
		t.Errorf("после Remove Len() = %d, want 1", r.Len())
	}

	r.Clear()
	if r.Len() != 0 {
		t.Errorf("после Clear Len() = %d, want 0", r.Len())
	}
	runtime.KeepAlive(item)
}

func TestRegistry_ErrorNotCached(t *testing.T) {
	r := New[*testTarget, testItem, string]()
	target := &testTarget{}
	item := newItem("a")

	_, err := r.GetOrCreate(target, item, func() (string, error) {
		return "", errors.New("boom")
	})
	if err == nil {
		t.Fatal("ожидалась ошибка")
	}
	if r.Len() != 0 {
		t.Errorf("ошибка не должна кэшироваться, Len() = %d", r.Len())
	}

	got, err := r.GetOrCreate(target, item, func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Errorf("GetOrCreate() = %q, %v", got, err)
	}
	runtime.KeepAlive(item)
}

func TestRegistry_EvictsDeadItems(t *testing.T) {
	r := New[*testTarget, testItem, string]()
	target := &testTarget{}

	func() {
		dead := newItem("dead")
		_, _ = r.GetOrCreate(target, dead, func() (string, error) { return "dead", nil })
	}()

	runtime.GC()
	runtime.GC()

	alive := newItem("alive")
	_, _ = r.GetOrCreate(target, alive, func() (string, error) { return "alive", nil })

	if r.Len() != 1 {
		t.Errorf("мёртвая запись должна быть удалена при обращении, Len() = %d", r.Len())
	}
	runtime.KeepAlive(alive)
}

func TestRegistry_CreateDoesNotBlockOthers(t *testing.T) {
	r := New[*testTarget, testItem, string]()
	target := &testTarget{}
	slow, fast := newItem("slow"), newItem("fast")

	started := make(chan struct{})
	unblock := make(chan struct{})
	slowDone := make(chan string, 1)
	go func() {
		h, _ := r.GetOrCreate(target, slow, func() (string, error) {
			close(started)
			<-unblock
			return "slow", nil
		})
		slowDone <- h
	}()
	<-started

	fastDone := make(chan string, 1)
	go func() {
		h, _ := r.GetOrCreate(target, fast, func() (string, error) { return "fast", nil })
		fastDone <- h
	}()

	select {
	case h := <-fastDone:
		if h != "fast" {
			t.Errorf("GetOrCreate(fast) = %q", h)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("GetOrCreate(fast) ждёт чужого create")
	}

	// Пока slow создаётся, другой вызов успевает добавить свою запись
	h, _ := r.GetOrCreate(target, slow, func() (string, error) { return "slow-other", nil })
	if h != "slow-other" {
		t.Errorf("GetOrCreate(slow) = %q, want slow-other", h)
	}

	close(unblock)
	if h := <-slowDone; h != "slow-other" {
		t.Errorf("опоздавший create должен получить существующую запись, got %q", h)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	runtime.KeepAlive(slow)
	runtime.KeepAlive(fast)
}
