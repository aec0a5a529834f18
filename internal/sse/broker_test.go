package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/wordvault/internal/handoff"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeCardSaved, Data: map[string]string{"word": "a"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: card.saved") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"word":"a"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishVaultEvent_UpdateThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger vault.updated.
	b.PublishVaultEvent(KindSaved, map[string]string{"word": "a"})
	// Second event immediately should NOT trigger another vault.updated.
	b.PublishVaultEvent(KindCleared, nil)
	// Unknown kinds are dropped entirely.
	b.PublishVaultEvent("renamed", nil)

	time.Sleep(50 * time.Millisecond)
	updateCount := 0
	var types []string
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: "+TypeVaultUpdated) {
				updateCount++
				continue
			}
			types = append(types, strings.TrimPrefix(strings.SplitN(s, "\n", 2)[0], "event: "))
		default:
			break loop
		}
	}

	if len(types) != 2 || types[0] != TypeCardSaved || types[1] != TypeVaultCleared {
		t.Errorf("vault events = %v, want [%s %s]", types, TypeCardSaved, TypeVaultCleared)
	}
	if updateCount != 1 {
		t.Errorf("vault.updated events = %d, want 1 (throttled)", updateCount)
	}
}

func TestOpenPublishesCaptureWindow(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	if err := b.Open(context.Background(), handoff.Window{URL: "/form", Width: 360, Height: 500}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: capture.window") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"width":360`) {
			t.Errorf("missing window size in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: TypeVaultCleared, Data: map[string]string{}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: vault.cleared") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: TypeVaultCleared, Data: map[string]string{}})
	b.PublishVaultEvent(KindSaved, nil)
	_ = b.Open(context.Background(), handoff.Window{})
}
