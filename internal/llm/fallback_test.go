package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

type stubProvider struct {
	name  string
	err   error
	calls int
}

func (s *stubProvider) Complete(context.Context, *Request) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Content: s.name}, nil
}

func (s *stubProvider) Name() string { return s.name }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallbackProviderPrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "primary"}
	secondary := &stubProvider{name: "secondary"}
	f := NewFallbackProvider([]Provider{primary, secondary}, discardLogger())

	resp, err := f.Complete(context.Background(), &Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "primary" {
		t.Errorf("content = %q", resp.Content)
	}
	if secondary.calls != 0 {
		t.Error("secondary should not be called when primary succeeds")
	}
}

func TestFallbackProviderFallsThrough(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("down")}
	secondary := &stubProvider{name: "secondary"}
	f := NewFallbackProvider([]Provider{primary, secondary}, discardLogger())

	resp, err := f.Complete(context.Background(), &Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "secondary" {
		t.Errorf("content = %q", resp.Content)
	}
}

func TestFallbackProviderAllFail(t *testing.T) {
	sentinel := errors.New("last")
	f := NewFallbackProvider([]Provider{
		&stubProvider{name: "a", err: errors.New("first")},
		&stubProvider{name: "b", err: sentinel},
	}, discardLogger())

	_, err := f.Complete(context.Background(), &Request{Prompt: "hi"})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped last error, got %v", err)
	}
}

func TestFallbackProviderName(t *testing.T) {
	f := NewFallbackProvider([]Provider{&stubProvider{name: "groq"}}, discardLogger())
	if f.Name() != "groq+fallback" {
		t.Errorf("name = %q", f.Name())
	}
}
