package cache

import (
	"container/list"
	"sync"
	"time"
)

// Default configuration values.
const (
	defaultCapacity = 128
	defaultTTL      = 10 * time.Minute
)

// Store — потокобезопасный кэш с TTL и ограничением ёмкости.
type Store struct {
	capacity int
	ttl      time.Duration

	// now подменяется в тестах.
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // recency-порядок: фронт — самая свежая
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
}

// Config — конфигурация Store.
type Config struct {
	// Capacity — максимум записей (default: 128).
	Capacity int

	// TTL — время жизни записи (default: 10m).
	TTL time.Duration
}

// New создаёт новый Store.
func New(cfg Config) *Store {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Store{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get возвращает значение по ключу. Просроченная запись удаляется
// и не выдаётся.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return nil, false
	}

	e := el.Value.(*entry)
	if s.now().After(e.expiresAt) {
		s.remove(el)
		return nil, false
	}

	s.order.MoveToFront(el)
	return e.value, true
}

// Set сохраняет значение по ключу, вытесняя самую давнюю запись
// при переполнении.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.now().Add(s.ttl)

	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		s.order.MoveToFront(el)
		return
	}

	el := s.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	s.entries[key] = el

	if s.order.Len() > s.capacity {
		if oldest := s.order.Back(); oldest != nil {
			s.remove(oldest)
		}
	}
}

// GetOrCompute возвращает значение по ключу, вычисляя и сохраняя его
// при отсутствии. Ошибка вычисления не кэшируется.
func (s *Store) GetOrCompute(key string, compute func() (any, error)) (any, error) {
	if value, ok := s.Get(key); ok {
		return value, nil
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}

	s.Set(key, value)
	return value, nil
}

// Delete удаляет запись по ключу.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		s.remove(el)
	}
}

// Len возвращает количество записей, включая ещё не вытесненные просроченные.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// remove удаляет элемент; вызывается под мьютексом.
func (s *Store) remove(el *list.Element) {
	e := el.Value.(*entry)
	delete(s.entries, e.key)
	s.order.Remove(el)
}
