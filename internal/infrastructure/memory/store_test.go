package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openlistings/claimsvc/internal/infrastructure/memory"
)

func TestPutConsume_RoundTrip(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	if err := s.Put(ctx, "c1", "owner@biz.com", "123456", time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}

	ok, err := s.Consume(ctx, "c1", "owner@biz.com", "123456")
	if err != nil || !ok {
		t.Fatalf("consume = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestConsume_SingleUse(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Put(ctx, "c1", "owner@biz.com", "123456", time.Minute)

	if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "123456"); !ok {
		t.Fatal("first consume should succeed")
	}
	if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "123456"); ok {
		t.Fatal("second consume of the same code should fail")
	}
}

func TestConsume_WrongCode_LeavesEntry(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Put(ctx, "c1", "owner@biz.com", "123456", time.Minute)

	if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "654321"); ok {
		t.Fatal("wrong code should not consume")
	}
	// The right code must still work afterwards.
	if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "123456"); !ok {
		t.Fatal("correct code should still be live after a wrong attempt")
	}
}

func TestConsume_Expired(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Put(ctx, "c1", "owner@biz.com", "123456", -time.Second)

	if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "123456"); ok {
		t.Fatal("expired code should not consume")
	}
	if s.Live("c1", "owner@biz.com") {
		t.Fatal("expired entry should not be live")
	}
}

func TestPut_SupersedesPreviousCode(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Put(ctx, "c1", "owner@biz.com", "111111", time.Minute)
	_ = s.Put(ctx, "c1", "owner@biz.com", "222222", time.Minute)

	if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "111111"); ok {
		t.Fatal("superseded code should no longer verify")
	}
	if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "222222"); !ok {
		t.Fatal("latest code should verify")
	}
}

func TestConsume_PairScoped(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Put(ctx, "c1", "a@biz.com", "123456", time.Minute)

	if ok, _ := s.Consume(ctx, "c2", "a@biz.com", "123456"); ok {
		t.Fatal("code issued for c1 must not verify for c2")
	}
	if ok, _ := s.Consume(ctx, "c1", "b@biz.com", "123456"); ok {
		t.Fatal("code issued for a@ must not verify for b@")
	}
}

func TestConsume_ConcurrentExactlyOneWinner(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Put(ctx, "c1", "owner@biz.com", "123456", time.Minute)

	const attempts = 50
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if ok, _ := s.Consume(ctx, "c1", "owner@biz.com", "123456"); ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("%d concurrent consumes succeeded, want exactly 1", wins.Load())
	}
}

func TestDeleteExpired(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()

	_ = s.Put(ctx, "c1", "a@biz.com", "111111", -time.Minute)
	_ = s.Put(ctx, "c2", "b@biz.com", "222222", time.Minute)

	n, err := s.DeleteExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if n != 1 {
		t.Fatalf("reaped %d entries, want 1", n)
	}
	if ok, _ := s.Consume(ctx, "c2", "b@biz.com", "222222"); !ok {
		t.Fatal("live entry should survive the reap")
	}
}
