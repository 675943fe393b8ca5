package main

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	return screen
}

func TestPollEvents_ForwardsEvents(t *testing.T) {
	screen := newTestScreen(t)
	screen.InjectKey(tcell.KeyRune, 's', tcell.ModNone)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan tcell.Event, 4)
	go pollEvents(ctx, screen, events)

	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if key, ok := ev.(*tcell.EventKey); ok {
				assert.Equal(t, 's', key.Rune())
				return
			}
		case <-deadline:
			t.Fatal("key event was not forwarded")
		}
	}
}

func TestPollEvents_StopsWhenNobodyReads(t *testing.T) {
	screen := newTestScreen(t)
	screen.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Unbuffered and never read: the send can only give way to ctx.
	events := make(chan tcell.Event)
	done := make(chan struct{})
	go func() {
		pollEvents(ctx, screen, events)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pollEvents blocked on a full channel after cancellation")
	}
}

func TestPollEvents_StopsAfterFini(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())

	done := make(chan struct{})
	go func() {
		pollEvents(context.Background(), screen, make(chan tcell.Event, 64))
		close(done)
	}()
	screen.Fini()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pollEvents kept running after Fini")
	}
}
