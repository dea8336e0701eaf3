package chatclient

import (
	"sync"
	"time"
)

// BackoffTimer lleva la cuenta regresiva de un rate-limit: se arma con un
// instante "no reintentar antes de" y se desarma solo al llegar a cero.
// Mientras está activo, el caller debe bloquear el envío.
type BackoffTimer struct {
	mu       sync.Mutex
	deadline time.Time
	ticking  bool
	now      func() time.Time
	interval time.Duration
	onTick   func(secondsRemaining int)
}

// NewBackoffTimer crea un timer desarmado. onTick (opcional) se invoca con
// los segundos restantes en cada tick de 1s y con 0 al desarmarse.
func NewBackoffTimer(onTick func(secondsRemaining int)) *BackoffTimer {
	return &BackoffTimer{
		now:      time.Now,
		interval: time.Second,
		onTick:   onTick,
	}
}

// Arm fija el deadline y arranca la cuenta regresiva. Rearmar con el timer
// activo solo mueve el deadline.
func (t *BackoffTimer) Arm(deadline time.Time) {
	t.mu.Lock()
	t.deadline = deadline
	remaining := t.secondsRemainingLocked()
	start := !t.ticking && remaining > 0
	if start {
		t.ticking = true
	}
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(remaining)
	}
	if start {
		go t.run()
	}
}

// IsActive informa si hay un deadline vigente.
func (t *BackoffTimer) IsActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.deadline.IsZero() && t.now().Before(t.deadline)
}

// SecondsRemaining devuelve max(0, ceil(deadline-now)).
func (t *BackoffTimer) SecondsRemaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.secondsRemainingLocked()
}

// Stop desarma el timer y termina el loop de ticks (teardown del widget).
func (t *BackoffTimer) Stop() {
	t.mu.Lock()
	t.deadline = time.Time{}
	t.ticking = false
	t.mu.Unlock()
}

func (t *BackoffTimer) secondsRemainingLocked() int {
	if t.deadline.IsZero() {
		return 0
	}
	remaining := t.deadline.Sub(t.now())
	if remaining <= 0 {
		return 0
	}
	secs := int(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	return secs
}

func (t *BackoffTimer) run() {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for range ticker.C {
		if t.tick() {
			return
		}
	}
}

// tick recomputa los segundos restantes; al llegar a cero limpia el deadline
// y corta el loop. Devuelve true cuando el timer quedó desarmado.
func (t *BackoffTimer) tick() bool {
	t.mu.Lock()
	if !t.ticking {
		t.mu.Unlock()
		return true
	}
	remaining := t.secondsRemainingLocked()
	if remaining == 0 {
		t.deadline = time.Time{}
		t.ticking = false
	}
	t.mu.Unlock()

	if t.onTick != nil {
		t.onTick(remaining)
	}
	return remaining == 0
}
