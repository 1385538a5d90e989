package render

import (
	"context"
	"testing"
	"time"
)

func TestNormalizeSpace(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  plain  ", "plain"},
		{"line\none\n\ttwo  three", "line one two three"},
		{"already clean", "already clean"},
	}
	for _, tc := range cases {
		if got := normalizeSpace(tc.in); got != tc.want {
			t.Fatalf("normalizeSpace(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestForwardCancelPropagates(t *testing.T) {
	t.Parallel()

	parent, cancelParent := context.WithCancel(context.Background())
	child, cancelChild := context.WithCancel(context.Background())
	defer cancelChild()

	stop := forwardCancel(parent, cancelChild)
	defer stop()

	cancelParent()
	select {
	case <-child.Done():
	case <-time.After(time.Second):
		t.Fatal("child context was not canceled when parent finished")
	}
}

func TestForwardCancelStopReleasesGoroutine(t *testing.T) {
	t.Parallel()

	child, cancelChild := context.WithCancel(context.Background())
	defer cancelChild()

	stop := forwardCancel(context.Background(), cancelChild)
	stop()

	select {
	case <-child.Done():
		t.Fatal("child must stay live after stop without parent cancel")
	default:
	}
}
