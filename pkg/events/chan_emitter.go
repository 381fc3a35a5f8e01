package events

import (
	"context"
	"sync"
)

// ChanEmitter — стандартная реализация Emitter через канал.
//
// Thread-safe.
// Используется как дефолтная реализация в pkg/chain и pkg/agent.
type ChanEmitter struct {
	mu      sync.RWMutex
	ch      chan Event
	done    chan struct{}
	closed  bool
	sending sync.WaitGroup // Emit-ы между проверкой closed и отправкой
}

// NewChanEmitter создаёт новый ChanEmitter с буферизованным каналом.
//
// buffer определяет размер буфера канала.
// Если buffer = 0, канал будет небуферизованным (blocking).
func NewChanEmitter(buffer int) *ChanEmitter {
	return &ChanEmitter{
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
}

// Emit отправляет событие в канал.
//
// Thread-safe. Если emitter закрыт или context отменён — событие теряется.
// Конкурентный Close разблокирует висящий Emit через done-канал.
func (e *ChanEmitter) Emit(ctx context.Context, event Event) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return
	}
	e.sending.Add(1)
	e.mu.RUnlock()
	defer e.sending.Done()

	select {
	case e.ch <- event:
	case <-ctx.Done():
	case <-e.done:
	}
}

// Subscribe возвращает Subscriber для чтения событий.
//
// Можно вызвать несколько раз для создания нескольких подписчиков,
// но каждое событие получит только один из них (чтение из общего канала).
func (e *ChanEmitter) Subscribe() Subscriber {
	return &chanSubscriber{
		emitter: e,
		once:    &sync.Once{},
	}
}

// Close закрывает канал событий.
//
// После Close все вызовы Emit игнорируются. Канал событий закрывается
// только после завершения всех Emit, уже находящихся в отправке —
// иначе возможна паника "send on closed channel".
func (e *ChanEmitter) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.done)
	e.mu.Unlock()

	e.sending.Wait()
	close(e.ch)
}

// chanSubscriber — подписчик на события ChanEmitter.
type chanSubscriber struct {
	emitter *ChanEmitter
	once    *sync.Once
}

// Events возвращает read-only канал событий.
func (s *chanSubscriber) Events() <-chan Event {
	return s.emitter.ch
}

// Close закрывает источник событий.
func (s *chanSubscriber) Close() {
	s.once.Do(func() {
		s.emitter.Close()
	})
}
