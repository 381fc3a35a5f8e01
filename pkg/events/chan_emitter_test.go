package events

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestChanEmitterEmitAndReceive(t *testing.T) {
	emitter := NewChanEmitter(4)
	sub := emitter.Subscribe()
	defer sub.Close()

	sent := New(EventMessage, MessageData{Content: "hello"})
	emitter.Emit(context.Background(), sent)

	select {
	case got := <-sub.Events():
		if got.Type != EventMessage {
			t.Errorf("Type = %v, want %v", got.Type, EventMessage)
		}
		data, ok := got.Data.(MessageData)
		if !ok {
			t.Fatalf("Data type = %T, want MessageData", got.Data)
		}
		if data.Content != "hello" {
			t.Errorf("Content = %q, want %q", data.Content, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestChanEmitterEmitAfterClose(t *testing.T) {
	emitter := NewChanEmitter(1)
	emitter.Close()

	// Не должно паниковать на закрытом канале
	emitter.Emit(context.Background(), New(EventDone, MessageData{}))
}

func TestChanEmitterRespectsContext(t *testing.T) {
	// Небуферизованный канал без читателя: Emit должен выйти по отмене контекста
	emitter := NewChanEmitter(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		emitter.Emit(ctx, New(EventMessage, MessageData{Content: "dropped"}))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not return on cancelled context")
	}
}

func TestChanEmitterCloseUnblocksEmit(t *testing.T) {
	// Небуферизованный канал без читателя: висящий Emit должен
	// разблокироваться по Close, а не паниковать на закрытом канале
	emitter := NewChanEmitter(0)

	done := make(chan struct{})
	go func() {
		emitter.Emit(context.Background(), New(EventMessage, MessageData{Content: "stuck"}))
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	emitter.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit did not return after Close")
	}
}

func TestChanEmitterConcurrentEmitClose(t *testing.T) {
	emitter := NewChanEmitter(1)
	sub := emitter.Subscribe()

	// Читатель выгребает события до закрытия канала
	drained := make(chan struct{})
	go func() {
		for range sub.Events() {
		}
		close(drained)
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				emitter.Emit(context.Background(), New(EventStepStart, StepData{StepName: "step"}))
			}
		}()
	}

	emitter.Close()
	wg.Wait()

	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("events channel was not closed")
	}
}

func TestChanEmitterCloseIdempotent(t *testing.T) {
	emitter := NewChanEmitter(1)
	sub := emitter.Subscribe()

	sub.Close()
	sub.Close()
	emitter.Close()

	if _, ok := <-sub.Events(); ok {
		t.Error("expected closed events channel")
	}
}
