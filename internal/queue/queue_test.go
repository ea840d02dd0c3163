package queue

import (
	"context"
	"testing"
	"time"
)

func TestQueuePushPopFIFO(t *testing.T) {
	t.Parallel()

	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	ctx := context.Background()
	for _, want := range []int{1, 2, 3} {
		got, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		if got != want {
			t.Errorf("Pop() = %d, want %d", got, want)
		}
	}
}

func TestQueuePushReturnsDepth(t *testing.T) {
	t.Parallel()

	q := New[string]()
	if d := q.Push("a"); d != 1 {
		t.Errorf("Push() depth = %d, want 1", d)
	}
	if d := q.Push("b"); d != 2 {
		t.Errorf("Push() depth = %d, want 2", d)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	t.Parallel()

	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan int, 1)
	go func() {
		v, err := q.Pop(ctx)
		if err != nil {
			return
		}
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case v := <-done:
		if v != 42 {
			t.Errorf("Pop() = %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop() did not return after Push")
	}
}

func TestQueuePopRespectsCancellation(t *testing.T) {
	t.Parallel()

	q := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := q.Pop(ctx); err == nil {
		t.Error("Pop() with cancelled context = nil error, want error")
	}
}
