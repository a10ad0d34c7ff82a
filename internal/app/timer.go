package app

import (
	"context"
	"sync"
	"time"

	"carecompanion/internal/api"
)

// timerAPI is the slice of the REST client the timer controller needs.
// Injected so tests can drive the controller without a server.
type timerAPI interface {
	StartSessionTimer(ctx context.Context, sessionID string) (*api.SessionTimer, error)
	StopSessionTimer(ctx context.Context, sessionID string) error
	GetSessionTimer(ctx context.Context, sessionID string) (*api.SessionTimer, error)
	GetDailyTotal(ctx context.Context) (*api.DailyTotal, error)
}

type TimerState int

const (
	TimerStopped TimerState = iota
	TimerRunning
)

// TimerController tracks elapsed wall-clock seconds for the open session
// and a running daily total, reconciled against the server-authoritative
// timer record. The server owns the truth; the controller holds a shadow.
//
// Ticking requires server acknowledgement: if the start call fails, the
// controller stays Stopped rather than diverging from server state.
//
// Network methods block and are run from UI commands; a mutex guards the
// shadow state so ticks and the render path can read while a load is in
// flight.
type TimerController struct {
	api    timerAPI
	store  *LocalStore // optional fallback cache, never authoritative
	logger *Logger
	now    func() time.Time

	mu        sync.Mutex
	state     TimerState
	sessionID string
	elapsed   int

	daily       int
	dailyDate   string
	dailyLoaded bool
}

func NewTimerController(apiClient timerAPI, store *LocalStore, logger *Logger) *TimerController {
	return &TimerController{
		api:    apiClient,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (t *TimerController) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == TimerRunning
}

func (t *TimerController) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

func (t *TimerController) DailySeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.daily
}

func (t *TimerController) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// runningOther reports the session a running timer belongs to, if it is
// not sessionID. Used to stop the old timer before starting a new one.
func (t *TimerController) runningOther(sessionID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TimerRunning && t.sessionID != sessionID {
		return t.sessionID, true
	}
	return "", false
}

// Start activates the server timer for sessionID and begins ticking from
// zero. A running timer for another session is stopped first, so at most
// one timer runs at a time.
func (t *TimerController) Start(ctx context.Context, sessionID string) error {
	if prev, ok := t.runningOther(sessionID); ok {
		t.Stop(ctx, prev)
	}
	if _, err := t.api.StartSessionTimer(ctx, sessionID); err != nil {
		t.logger.Error("timer start failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		t.mu.Lock()
		t.state = TimerStopped
		t.mu.Unlock()
		return err
	}
	t.mu.Lock()
	t.sessionID = sessionID
	t.elapsed = 0
	t.state = TimerRunning
	t.mu.Unlock()
	return nil
}

// Stop deactivates the server timer and clears the shadow record. The
// elapsed display is kept until the next session load.
func (t *TimerController) Stop(ctx context.Context, sessionID string) {
	if err := t.api.StopSessionTimer(ctx, sessionID); err != nil {
		t.logger.Error("timer stop failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
	t.mu.Lock()
	if t.sessionID == sessionID {
		t.state = TimerStopped
		t.sessionID = ""
	}
	t.mu.Unlock()
}

// Tick advances the elapsed counter by one second. Every 60th second it
// folds one minute into the daily total and mirrors the new total to the
// local cache, exactly once per minute boundary.
func (t *TimerController) Tick() {
	t.mu.Lock()
	if t.state != TimerRunning {
		t.mu.Unlock()
		return
	}
	t.elapsed++
	if t.elapsed%60 != 0 {
		t.mu.Unlock()
		return
	}

	today := DateKey(t.now())
	if t.dailyDate != today {
		// Calendar rollover: the non-regression rule is per-day.
		t.daily = 0
		t.dailyDate = today
	}
	t.daily += 60
	daily := t.daily
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.SetDailyTotal(today, daily); err != nil {
			t.logger.Warn("daily total cache write failed", map[string]any{"error": err.Error()})
		}
	}
}

// LoadExisting reconciles with the server record on session switch/load.
// An active record adopts the server's elapsed value and resumes ticking;
// no active record starts a fresh timer. A failed load leaves the elapsed
// counter at zero: the per-session figure has no local fallback.
func (t *TimerController) LoadExisting(ctx context.Context, sessionID string) {
	if prev, ok := t.runningOther(sessionID); ok {
		t.Stop(ctx, prev)
	}

	timer, err := t.api.GetSessionTimer(ctx, sessionID)
	if err != nil {
		t.logger.Error("timer load failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		t.mu.Lock()
		t.state = TimerStopped
		t.sessionID = sessionID
		t.elapsed = 0
		t.mu.Unlock()
		return
	}
	if timer != nil && timer.IsActive {
		t.mu.Lock()
		t.sessionID = sessionID
		t.elapsed = timer.ElapsedSeconds
		t.state = TimerRunning
		t.mu.Unlock()
		return
	}
	if err := t.Start(ctx, sessionID); err != nil {
		t.mu.Lock()
		t.elapsed = 0
		t.mu.Unlock()
	}
}

// LoadDailyTotal fetches the authoritative daily aggregate. The server
// always wins on success. The local cache is consulted only when the call
// fails and the in-memory total is still at its initial zero, i.e. the
// first load of the day in this run.
func (t *TimerController) LoadDailyTotal(ctx context.Context) {
	today := DateKey(t.now())
	total, err := t.api.GetDailyTotal(ctx)
	if err == nil {
		t.mu.Lock()
		t.daily = total.TotalSeconds
		t.dailyDate = today
		t.dailyLoaded = true
		daily := t.daily
		t.mu.Unlock()
		if t.store != nil {
			if cacheErr := t.store.SetDailyTotal(today, daily); cacheErr != nil {
				t.logger.Warn("daily total cache write failed", map[string]any{"error": cacheErr.Error()})
			}
		}
		return
	}

	t.logger.Error("daily total load failed", map[string]any{"error": err.Error()})
	t.mu.Lock()
	skip := t.dailyLoaded || t.daily != 0 || t.store == nil
	t.mu.Unlock()
	if skip {
		return
	}
	cached, ok, cacheErr := t.store.DailyTotal(today)
	if cacheErr != nil {
		t.logger.Warn("daily total cache read failed", map[string]any{"error": cacheErr.Error()})
		return
	}
	if ok {
		t.mu.Lock()
		// Re-check: a concurrent server load may have landed meanwhile.
		if !t.dailyLoaded && t.daily == 0 {
			t.daily = cached
			t.dailyDate = today
		}
		t.mu.Unlock()
	}
}
