package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinWindow(t *testing.T) {
	l := New(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("a") {
		t.Error("fourth request in window must be rejected")
	}
	// Other keys have their own buckets.
	if !l.Allow("b") {
		t.Error("separate key should have its own budget")
	}
}

func TestWindowReset(t *testing.T) {
	l := New(1, 10*time.Millisecond)

	if !l.Allow("a") {
		t.Fatal("first request should pass")
	}
	if l.Allow("a") {
		t.Fatal("second request should be rejected")
	}
	time.Sleep(20 * time.Millisecond)
	if !l.Allow("a") {
		t.Error("request after window expiry should pass")
	}
}

func TestForget(t *testing.T) {
	l := New(1, time.Hour)
	l.Allow("a")
	l.Forget("a")
	if !l.Allow("a") {
		t.Error("forgotten key should start a fresh bucket")
	}
}
