// Package keylock предоставляет мьютексы по ключу с подсчетом ссылок.
//
// Ключи, которые никто не держит и не ждет, удаляются из карты,
// поэтому память не растет с количеством когда-либо заблокированных ключей.
package keylock

import (
	"cmp"
	"slices"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// KeyLock набор мьютексов, индексированных ключом
type KeyLock[K cmp.Ordered] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// New создает пустой KeyLock
func New[K cmp.Ordered]() *KeyLock[K] {
	return &KeyLock[K]{entries: make(map[K]*entry)}
}

// Lock блокирует ключ и возвращает функцию разблокировки
func (l *KeyLock[K]) Lock(key K) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()

			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

// LockMany блокирует несколько ключей в порядке возрастания (без дублей).
// Единый порядок захвата исключает взаимную блокировку.
func (l *KeyLock[K]) LockMany(keys []K) (unlock func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	unlocks := make([]func(), 0, len(sorted))
	for _, k := range sorted {
		unlocks = append(unlocks, l.Lock(k))
	}

	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// Len возвращает количество ключей, которые сейчас удерживаются или ожидаются
func (l *KeyLock[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
