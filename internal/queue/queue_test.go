// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package queue

import (
	"context"
	"testing"
	"time"
)

func TestSendReceiveFIFO(t *testing.T) {
	q := New[int](4)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := q.Send(ctx, i, Forever); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}
	for i := 0; i < 3; i++ {
		got, err := q.Receive(ctx, Forever)
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}
		if got != i {
			t.Fatalf("Receive() = %d, want %d", got, i)
		}
	}
}

func TestSendFrontBreaksFIFO(t *testing.T) {
	q := New[string](4)
	ctx := context.Background()

	_ = q.Send(ctx, "a", Forever)
	_ = q.Send(ctx, "b", Forever)
	_ = q.SendFront(ctx, "priority", Forever)

	got, _ := q.Receive(ctx, Forever)
	if got != "priority" {
		t.Fatalf("Receive() = %q, want %q", got, "priority")
	}
	got, _ = q.Receive(ctx, Forever)
	if got != "a" {
		t.Fatalf("Receive() = %q, want %q", got, "a")
	}
}

func TestSendFromISRFailsSilentlyWhenFull(t *testing.T) {
	q := New[int](1)
	if err := q.SendFromISR(1); err != nil {
		t.Fatalf("first SendFromISR: %v", err)
	}
	if err := q.SendFromISR(2); err != ErrFull {
		t.Fatalf("second SendFromISR: err = %v, want ErrFull", err)
	}
}

func TestReceiveTimesOutWhenEmpty(t *testing.T) {
	q := New[int](1)
	_, err := q.Receive(context.Background(), 10*time.Millisecond)
	if err != ErrEmpty {
		t.Fatalf("Receive() err = %v, want ErrEmpty", err)
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := New[int](2)
	ctx := context.Background()
	_ = q.Send(ctx, 42, Forever)

	v, err := q.Peek(ctx, Forever)
	if err != nil || v != 42 {
		t.Fatalf("Peek() = (%d, %v), want (42, nil)", v, err)
	}
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 after Peek", q.Len())
	}
	v, err = q.Receive(ctx, Forever)
	if err != nil || v != 42 {
		t.Fatalf("Receive() = (%d, %v), want (42, nil)", v, err)
	}
}

func TestSendBlocksUntilRoomThenSucceeds(t *testing.T) {
	q := New[int](1)
	ctx := context.Background()
	_ = q.Send(ctx, 1, Forever)

	done := make(chan error, 1)
	go func() {
		done <- q.Send(ctx, 2, time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	if _, err := q.Receive(ctx, Forever); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("blocked Send() err = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Send() never unblocked")
	}
}

func TestSendFailsWhenWaitElapsesFull(t *testing.T) {
	q := New[int](1)
	ctx := context.Background()
	_ = q.Send(ctx, 1, Forever)

	err := q.Send(ctx, 2, 20*time.Millisecond)
	if err != ErrFull {
		t.Fatalf("Send() err = %v, want ErrFull", err)
	}
}
