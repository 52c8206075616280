package asr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

// scriptedClient returns the queued errors in order, then succeeds.
type scriptedClient struct {
	errs  []error
	calls int
}

func (c *scriptedClient) Transcribe(ctx context.Context, audioPath string, opts Options) (*Transcription, error) {
	c.calls++
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return nil, err
	}
	return &Transcription{Text: "ok"}, nil
}

func TestRetryClient_RetriesServerErrors(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		fmt.Errorf("API error: status 503: overloaded"),
		fmt.Errorf("API error: status 502: bad gateway"),
	}}
	c := NewRetryClient(inner, WithBaseDelay(time.Millisecond))

	got, err := c.Transcribe(context.Background(), "audio.wav", Options{})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if got.Text != "ok" {
		t.Errorf("unexpected result: %+v", got)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestRetryClient_ClientErrorNotRetried(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		fmt.Errorf("API error: status 400: bad request"),
	}}
	c := NewRetryClient(inner, WithBaseDelay(time.Millisecond))

	_, err := c.Transcribe(context.Background(), "audio.wav", Options{})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 attempt for client error, got %d", inner.calls)
	}
}

func TestRetryClient_ConnectionRefusedRetried(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		errors.New("send request: dial tcp 127.0.0.1:9000: connect: connection refused"),
	}}
	c := NewRetryClient(inner, WithBaseDelay(time.Millisecond))

	if _, err := c.Transcribe(context.Background(), "audio.wav", Options{}); err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected retry after connection error, got %d attempts", inner.calls)
	}
}

func TestRetryClient_ExhaustsRetries(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		fmt.Errorf("API error: status 500: a"),
		fmt.Errorf("API error: status 500: b"),
		fmt.Errorf("API error: status 500: c"),
	}}
	c := NewRetryClient(inner, WithRetryCount(2), WithBaseDelay(time.Millisecond))

	_, err := c.Transcribe(context.Background(), "audio.wav", Options{})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "transcription failed after 2 retries") {
		t.Errorf("unexpected error: %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", inner.calls)
	}
}

func TestRetryClient_ContextCancelStopsRetries(t *testing.T) {
	inner := &scriptedClient{errs: []error{
		fmt.Errorf("API error: status 500: first"),
	}}
	c := NewRetryClient(inner, WithBaseDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Transcribe(ctx, "audio.wav", Options{})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Transcribe did not return after cancel")
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 attempt before cancel, got %d", inner.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"server error", errors.New("API error: status 503: busy"), true},
		{"client error", errors.New("API error: status 404: not found"), false},
		{"connection refused", errors.New("connection refused"), true},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"dns failure", errors.New("lookup asr.local: no such host"), true},
		{"unrelated", errors.New("open audio file: permission denied"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := isRetryable(c.err); got != c.want {
				t.Errorf("isRetryable(%v) = %v, want %v", c.err, got, c.want)
			}
		})
	}
}
