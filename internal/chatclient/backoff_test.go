package chatclient

import (
	"testing"
	"time"
)

// newTestTimer crea un timer con reloj falso y ticker dormido para poder
// invocar tick() de forma determinística.
func newTestTimer(onTick func(int)) (*BackoffTimer, *time.Time) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	timer := NewBackoffTimer(onTick)
	timer.now = func() time.Time { return now }
	timer.interval = time.Hour
	return timer, &now
}

func TestBackoffTimerStartsDisarmed(t *testing.T) {
	timer, _ := newTestTimer(nil)
	if timer.IsActive() {
		t.Fatalf("new timer must be disarmed")
	}
	if timer.SecondsRemaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", timer.SecondsRemaining())
	}
}

func TestBackoffTimerArmComputesRemainingImmediately(t *testing.T) {
	var got []int
	timer, now := newTestTimer(func(secs int) { got = append(got, secs) })

	timer.Arm(now.Add(30 * time.Second))

	if !timer.IsActive() {
		t.Fatalf("expected timer active after arm")
	}
	if timer.SecondsRemaining() != 30 {
		t.Fatalf("expected 30 seconds remaining, got %d", timer.SecondsRemaining())
	}
	if len(got) == 0 || got[0] != 30 {
		t.Fatalf("expected immediate tick with 30, got %v", got)
	}
}

func TestBackoffTimerRoundsUpPartialSeconds(t *testing.T) {
	timer, now := newTestTimer(nil)
	timer.Arm(now.Add(1500 * time.Millisecond))
	if timer.SecondsRemaining() != 2 {
		t.Fatalf("expected ceil to 2 seconds, got %d", timer.SecondsRemaining())
	}
}

func TestBackoffTimerCountsDownToZeroAndDisarms(t *testing.T) {
	var ticks []int
	timer, now := newTestTimer(func(secs int) { ticks = append(ticks, secs) })

	timer.Arm(now.Add(3 * time.Second))

	for i := 0; i < 3; i++ {
		*now = now.Add(time.Second)
		done := timer.tick()
		if i < 2 && done {
			t.Fatalf("tick %d: timer disarmed early", i)
		}
		if i == 2 && !done {
			t.Fatalf("expected timer disarmed at zero")
		}
	}

	if timer.IsActive() {
		t.Fatalf("expected timer inactive after countdown")
	}
	if timer.SecondsRemaining() != 0 {
		t.Fatalf("expected 0 remaining after countdown, got %d", timer.SecondsRemaining())
	}
	want := []int{3, 2, 1, 0}
	if len(ticks) != len(want) {
		t.Fatalf("expected ticks %v, got %v", want, ticks)
	}
	for i := range want {
		if ticks[i] != want[i] {
			t.Fatalf("expected ticks %v, got %v", want, ticks)
		}
	}
}

func TestBackoffTimerStop(t *testing.T) {
	timer, now := newTestTimer(nil)
	timer.Arm(now.Add(time.Minute))

	timer.Stop()

	if timer.IsActive() {
		t.Fatalf("expected timer inactive after stop")
	}
	if !timer.tick() {
		t.Fatalf("expected tick loop to exit after stop")
	}
}

func TestBackoffTimerRearmMovesDeadline(t *testing.T) {
	timer, now := newTestTimer(nil)
	timer.Arm(now.Add(10 * time.Second))
	timer.Arm(now.Add(45 * time.Second))
	if timer.SecondsRemaining() != 45 {
		t.Fatalf("expected rearm to move deadline to 45, got %d", timer.SecondsRemaining())
	}
}
