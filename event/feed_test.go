package event

import (
	"testing"
	"time"
)

func TestFeedSendAndUnsubscribe(t *testing.T) {
	var feed Feed[int]
	ch1 := make(chan int, 1)
	ch2 := make(chan int, 1)
	sub1 := feed.Subscribe(ch1)
	sub2 := feed.Subscribe(ch2)

	if n := feed.Send(1); n != 2 {
		t.Fatalf("Send returned %d, want 2", n)
	}
	if got := <-ch1; got != 1 {
		t.Errorf("ch1 got %d, want 1", got)
	}
	if got := <-ch2; got != 1 {
		t.Errorf("ch2 got %d, want 1", got)
	}

	sub1.Unsubscribe()
	if n := feed.Send(2); n != 1 {
		t.Fatalf("Send after unsubscribe returned %d, want 1", n)
	}
	if got := <-ch2; got != 2 {
		t.Errorf("ch2 got %d, want 2", got)
	}

	sub2.Unsubscribe()
	if n := feed.Send(3); n != 0 {
		t.Fatalf("Send with no subscribers returned %d, want 0", n)
	}
}

func TestFeedUnsubscribeIsIdempotent(t *testing.T) {
	var feed Feed[int]
	ch := make(chan int, 1)
	sub := feed.Subscribe(ch)
	sub.Unsubscribe()
	sub.Unsubscribe() // must not panic or block
}

func TestFeedCloseRejectsFurtherSubscribe(t *testing.T) {
	var feed Feed[int]
	feed.Close()

	ch := make(chan int, 1)
	sub := feed.Subscribe(ch)
	select {
	case <-sub.Err():
	case <-time.After(time.Second):
		t.Fatal("subscription created after Close should already be closed")
	}
}
