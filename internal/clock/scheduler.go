package clock

import (
	"context"
	"errors"
	"log"
	"time"

	"poker-club/backend/internal/engine"
	"poker-club/backend/internal/locks"
	"poker-club/backend/internal/models"

	"gorm.io/gorm"
)

const (
	// schedulerLockKey is the leader lock: only one instance runs clocks.
	schedulerLockKey = "clock_scheduler"
	lockTTL          = 30 * time.Second
	lockRetryDelay   = 10 * time.Second
	lockExtendEvery  = 10

	// DefaultTickInterval is how often running clocks are advanced.
	DefaultTickInterval = time.Second
	// DefaultCheckpointEvery is how many ticks pass between persisted
	// countdown checkpoints. Level advances and pauses persist
	// immediately regardless.
	DefaultCheckpointEvery = 30
)

// Scheduler drives the blind clock of every running tournament. One tick
// recomputes each clock from wall time, advances at most one blind level,
// and pauses the tournament when the final level runs out.
type Scheduler struct {
	db              *gorm.DB
	locks           *locks.Manager
	events          engine.EventPublisher
	TickInterval    time.Duration
	CheckpointEvery int

	ticksSinceWrite map[string]int
}

// NewScheduler creates a clock scheduler. The lock manager may be nil for
// single-instance deployments and tests.
func NewScheduler(db *gorm.DB, lockMgr *locks.Manager) *Scheduler {
	return &Scheduler{
		db:              db,
		locks:           lockMgr,
		TickInterval:    DefaultTickInterval,
		CheckpointEvery: DefaultCheckpointEvery,
		ticksSinceWrite: make(map[string]int),
	}
}

// SetEventPublisher sets the publisher for clock events.
func (s *Scheduler) SetEventPublisher(p engine.EventPublisher) {
	s.events = p
}

func (s *Scheduler) publish(eventType, tournamentID string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.Publish(eventType, tournamentID, payload)
}

// Run ticks the clocks until the context is canceled. With a lock manager
// configured it first wins the leader lock, so concurrent instances never
// double-tick a tournament.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		var lock *locks.Lock
		if s.locks != nil {
			var err error
			lock, err = s.locks.TryAcquire(ctx, schedulerLockKey, lockTTL)
			if err != nil {
				if !errors.Is(err, locks.ErrLockAlreadyHeld) {
					log.Printf("[CLOCK] Leader lock error: %v", err)
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(lockRetryDelay):
				}
				continue
			}
		}

		log.Printf("[CLOCK] Scheduler running (interval %v)", s.TickInterval)
		lost := s.tickLoop(ctx, lock)
		if lock != nil {
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, locks.ErrLockNotHeld) {
				log.Printf("[CLOCK] Lock release failed: %v", err)
			}
		}
		if !lost {
			return
		}
		log.Printf("[CLOCK] Lost leader lock, rejoining election")
	}
}

// tickLoop runs ticks until the context ends (returns false) or leadership
// is lost (returns true).
func (s *Scheduler) tickLoop(ctx context.Context, lock *locks.Lock) bool {
	ticker := time.NewTicker(s.TickInterval)
	defer ticker.Stop()

	ticks := 0
	for {
		select {
		case <-ctx.Done():
			return false
		case now := <-ticker.C:
			s.Tick(now)
			ticks++
			if lock != nil && ticks%lockExtendEvery == 0 {
				if err := lock.Extend(ctx, lockTTL); err != nil {
					return errors.Is(err, locks.ErrLockNotHeld)
				}
			}
		}
	}
}

// Tick advances every unpaused running tournament to the given wall time.
func (s *Scheduler) Tick(now time.Time) {
	var tournaments []models.Tournament
	err := s.db.Where("status = ? AND clock_paused = ?", models.TournamentRunning, false).
		Find(&tournaments).Error
	if err != nil {
		log.Printf("[CLOCK] Failed to load running tournaments: %v", err)
		return
	}

	seen := make(map[string]bool, len(tournaments))
	for i := range tournaments {
		seen[tournaments[i].ID] = true
		s.tickTournament(&tournaments[i], now)
	}
	for id := range s.ticksSinceWrite {
		if !seen[id] {
			delete(s.ticksSinceWrite, id)
		}
	}
}

func (s *Scheduler) tickTournament(t *models.Tournament, now time.Time) {
	if t.ClockUpdatedAt == nil {
		// First tick after an anchorless start: anchor now, count from
		// the full level duration.
		t.ClockUpdatedAt = &now
		s.save(t)
		return
	}

	elapsed := now.Sub(*t.ClockUpdatedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := t.SecondsRemaining - elapsed

	if remaining > 0 {
		s.ticksSinceWrite[t.ID]++
		if s.ticksSinceWrite[t.ID] < s.CheckpointEvery {
			return
		}
		t.SecondsRemaining = remaining
		t.ClockUpdatedAt = &now
		if s.save(t) {
			s.publish("timer_sync", t.ID, map[string]interface{}{
				"level":             t.CurrentLevel,
				"seconds_remaining": remaining,
			})
		}
		return
	}

	// Level exhausted. Advance at most one level per tick; the next level
	// always starts from its full configured duration.
	next := t.Level(t.CurrentLevel + 1)
	if next == nil {
		t.SecondsRemaining = 0
		t.ClockUpdatedAt = &now
		t.ClockPaused = true
		t.Status = models.TournamentPaused
		t.LateRegOpen = false
		if !s.save(t) {
			return
		}
		log.Printf("[CLOCK] Tournament %s exhausted its blind structure, pausing", t.ID)
		s.publish("blinds_exhausted", t.ID, map[string]interface{}{
			"level": t.CurrentLevel,
		})
		return
	}

	t.CurrentLevel = next.Level
	t.SecondsRemaining = float64(next.DurationSecs)
	t.ClockUpdatedAt = &now
	if t.LateRegOpen && t.LateRegUntilLevel > 0 && t.CurrentLevel > t.LateRegUntilLevel {
		t.LateRegOpen = false
		log.Printf("[CLOCK] Late registration closed for %s at level %d", t.ID, t.CurrentLevel)
	}
	if !s.save(t) {
		return
	}

	log.Printf("[CLOCK] Tournament %s advanced to level %d (%d/%d ante %d)",
		t.ID, next.Level, next.SmallBlind, next.BigBlind, next.Ante)
	s.publish("level_advanced", t.ID, map[string]interface{}{
		"level":       next.Level,
		"small_blind": next.SmallBlind,
		"big_blind":   next.BigBlind,
		"ante":        next.Ante,
		"is_break":    next.IsBreak,
	})
}

// save persists the clock state with a revision check. A conflict means
// another writer touched the tournament since this tick loaded it; the
// tick is dropped and the next one starts from the fresh row.
func (s *Scheduler) save(t *models.Tournament) bool {
	if err := engine.SaveTournament(s.db, t); err != nil {
		if errors.Is(err, engine.ErrRevisionConflict) {
			log.Printf("[CLOCK] Skipping tick for %s: concurrent update", t.ID)
		} else {
			log.Printf("[CLOCK] Failed to persist clock for %s: %v", t.ID, err)
		}
		return false
	}
	s.ticksSinceWrite[t.ID] = 0
	return true
}
