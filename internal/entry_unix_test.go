//go:build unix

package internal

import (
	"context"
	"syscall"
	"testing"
)

func TestRun_ReturnsOnInterrupt(t *testing.T) {
	done := startRun(t, context.Background(), runConfig(t))
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGINT); err != nil {
		t.Fatalf("kill: %v", err)
	}
	waitReturn(t, done)
}
