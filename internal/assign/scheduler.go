package assign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"maitred/internal/conflict"
	"maitred/internal/events"
	"maitred/internal/models"
)

// SchedulerConfig holds configuration for the assignment scheduler.
type SchedulerConfig struct {
	// CheckInterval is how often a new assignment cycle fires.
	CheckInterval time.Duration
	// AssignmentThreshold is the lookahead window: only bookings starting
	// within this duration are eligible for automatic assignment.
	AssignmentThreshold time.Duration
	// ConflictBuffer is the turnover time around existing seatings.
	ConflictBuffer time.Duration
	// DefaultDuration is assumed for bookings without an explicit end time.
	DefaultDuration time.Duration
}

// DefaultSchedulerConfig returns the default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CheckInterval:       5 * time.Minute,
		AssignmentThreshold: 120 * time.Minute,
		ConflictBuffer:      conflict.DefaultBuffer,
		DefaultDuration:     conflict.DefaultDuration,
	}
}

// Scheduler autonomously assigns tables to near-term confirmed bookings.
// Each cycle scans unassigned bookings inside the lookahead threshold, picks
// a best-fit table, and when every candidate conflicts tries to relocate an
// existing booking to make room.
type Scheduler struct {
	config   SchedulerConfig
	store    Store
	detector *conflict.Detector
	bus      *events.Bus
	metrics  *Metrics
	logger   *zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	running bool
	inRun   bool
	stopCh  chan struct{}
}

// NewScheduler creates a new assignment scheduler. bus and metrics may be
// nil when event publication or instrumentation is not wanted.
func NewScheduler(
	config SchedulerConfig,
	store Store,
	bus *events.Bus,
	metrics *Metrics,
	logger *zerolog.Logger,
) *Scheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = 5 * time.Minute
	}
	if config.AssignmentThreshold <= 0 {
		config.AssignmentThreshold = 120 * time.Minute
	}

	return &Scheduler{
		config:   config,
		store:    store,
		detector: conflict.NewDetector(config.ConflictBuffer, config.DefaultDuration),
		bus:      bus,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the scheduler loop. One cycle runs immediately, then cycles
// fire every CheckInterval until Stop or context cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().
		Dur("check_interval", s.config.CheckInterval).
		Dur("assignment_threshold", s.config.AssignmentThreshold).
		Msg("assignment scheduler started")

	s.runCycle(ctx)

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("assignment scheduler stopped by context")
			return
		case <-s.stopCh:
			s.logger.Info().Msg("assignment scheduler stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

// Stop stops the scheduler. A cycle in progress is allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()
}

// IsRunning returns whether the scheduler loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunCheckNow forces an immediate assignment cycle outside the timer
// cadence, for manual or test-triggered execution.
func (s *Scheduler) RunCheckNow(ctx context.Context) {
	s.logger.Info().Msg("manual assignment cycle triggered")
	s.runCycle(ctx)
}

// runCycle executes one scan over unassigned confirmed bookings. A tick that
// arrives while a cycle is still executing is skipped, not queued.
func (s *Scheduler) runCycle(ctx context.Context) {
	s.mu.Lock()
	if s.inRun {
		s.mu.Unlock()
		s.logger.Warn().Msg("previous assignment cycle still running, skipping tick")
		if s.metrics != nil {
			s.metrics.CyclesSkipped.Inc()
		}
		return
	}
	s.inRun = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inRun = false
		s.mu.Unlock()
	}()

	start := time.Now()
	runID := uuid.NewString()
	stats := struct {
		scanned    int
		deferred   int
		assigned   int
		resolved   int
		unresolved int
		failed     int
	}{}

	bookings, err := s.store.GetUnassignedConfirmedBookings(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Msg("failed to fetch unassigned bookings")
		if s.metrics != nil {
			s.metrics.StorageErrors.Inc()
		}
		return
	}

	stats.scanned = len(bookings)
	if s.metrics != nil {
		s.metrics.UnassignedBookings.Set(float64(stats.scanned))
	}

	now := s.now()
	for i := range bookings {
		select {
		case <-ctx.Done():
			s.logger.Info().Str("run_id", runID).
				Int("processed", i).
				Int("remaining", stats.scanned-i).
				Msg("assignment cycle interrupted")
			return
		default:
		}

		b := &bookings[i]
		minutes := b.MinutesUntil(now)
		if minutes <= 0 || time.Duration(minutes)*time.Minute > s.config.AssignmentThreshold {
			stats.deferred++
			continue
		}

		// Failures are isolated per booking; the scan continues.
		switch outcome := s.processBooking(ctx, runID, b, now); outcome {
		case outcomeAssigned:
			stats.assigned++
		case outcomeResolved:
			stats.resolved++
		case outcomeUnresolved:
			stats.unresolved++
		default:
			stats.failed++
		}
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.CyclesTotal.Inc()
		s.metrics.CycleDuration.Observe(duration.Seconds())
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("scanned", stats.scanned).
		Int("deferred", stats.deferred).
		Int("assigned", stats.assigned).
		Int("resolved", stats.resolved).
		Int("unresolved", stats.unresolved).
		Int("failed", stats.failed).
		Dur("duration", duration).
		Msg("assignment cycle finished")
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeAssigned
	outcomeResolved
	outcomeUnresolved
)

// processBooking attempts to bind a table to one booking: best-fit first,
// conflict resolution when every fitting table is occupied.
func (s *Scheduler) processBooking(ctx context.Context, runID string, b *models.Booking, now time.Time) outcome {
	tables, err := s.store.GetTables(ctx, b.RestaurantID)
	if err != nil {
		s.logStorageError(runID, b.ID, "fetch tables", err)
		return outcomeFailed
	}

	dayBookings, err := s.store.GetBookingsForDate(ctx, b.RestaurantID, b.Date)
	if err != nil {
		s.logStorageError(runID, b.ID, "fetch bookings for date", err)
		return outcomeFailed
	}
	byTable := groupByTable(dayBookings)

	table, err := s.detector.FindBestAvailableTable(b, tables, byTable)
	switch {
	case err == nil:
		if err := s.assign(ctx, runID, b, table, models.AssignAuto, events.KindAssigned, now); err != nil {
			return outcomeFailed
		}
		return outcomeAssigned

	case errors.Is(err, conflict.ErrNoCapacity):
		// Nothing seats this party today; new tables or cancellations may
		// appear, so the booking is retried next cycle.
		s.logger.Warn().Str("run_id", runID).
			Int64("booking_id", b.ID).
			Int("party_size", b.PartySize).
			Msg("no table with sufficient capacity")
		s.publishUnresolved(runID, b, now)
		return outcomeUnresolved

	case errors.Is(err, conflict.ErrAllConflicted):
		return s.resolveConflict(ctx, runID, b, tables, byTable, now)

	default:
		s.logger.Error().Err(err).Str("run_id", runID).Int64("booking_id", b.ID).Msg("table selection failed")
		return outcomeFailed
	}
}

// resolveConflict tries to free a fitting table by relocating one of its
// conflicting bookings elsewhere. The first successful relocation wins.
func (s *Scheduler) resolveConflict(ctx context.Context, runID string, b *models.Booking, tables []models.Table, byTable map[int64][]models.Booking, now time.Time) outcome {
	for _, t := range s.detector.ConflictingTables(b, tables, byTable) {
		relocated := 0
		for _, existing := range s.detector.ConflictingBookings(s.detector.WindowOf(b), byTable[t.ID], b.ID) {
			alt, err := s.detector.FindBestAvailableTable(&existing, tablesExcept(tables, t.ID), byTable)
			if err != nil {
				continue
			}

			if err := s.assign(ctx, runID, &existing, alt, models.AssignAutoReassign, events.KindRelocated, now); err != nil {
				continue
			}

			// Reflect the relocation so the freed table tests clean.
			moveBooking(byTable, existing.ID, t.ID, alt.ID)
			relocated++

			// A table can hold more than one conflicting seating; assign
			// only once the whole window is clear.
			if s.detector.HasConflict(s.detector.WindowOf(b), byTable[t.ID], b.ID) {
				continue
			}

			if err := s.assign(ctx, runID, b, &t, models.AssignConflictResolved, events.KindAssigned, now); err != nil {
				return outcomeFailed
			}

			s.logger.Info().Str("run_id", runID).
				Int64("booking_id", b.ID).
				Int64("table_id", t.ID).
				Int("relocations", relocated).
				Msg("conflict resolved by relocation")
			return outcomeResolved
		}
	}

	s.logger.Warn().Str("run_id", runID).
		Int64("booking_id", b.ID).
		Msg("no relocation possible, booking left unassigned")
	if s.metrics != nil {
		s.metrics.UnresolvedConflicts.Inc()
	}
	s.publishUnresolved(runID, b, now)
	return outcomeUnresolved
}

// assign writes the table reference and assignment metadata, then publishes
// the decision. The write is a compare-and-set on the booking's version; a
// concurrent manual assignment surfaces as an error here and the booking is
// retried next cycle.
func (s *Scheduler) assign(ctx context.Context, runID string, b *models.Booking, table *models.Table, assignType, kind string, now time.Time) error {
	updated, err := s.store.UpdateBookingAssignment(ctx, b.ID, b.Version, table.ID, assignType, now)
	if err != nil {
		s.logStorageError(runID, b.ID, fmt.Sprintf("write %s assignment", assignType), err)
		return err
	}
	b.Version = updated.Version

	if s.metrics != nil {
		s.metrics.AssignmentsTotal.WithLabelValues(assignType).Inc()
	}

	s.logger.Info().Str("run_id", runID).
		Int64("booking_id", b.ID).
		Int64("table_id", table.ID).
		Str("assignment_type", assignType).
		Msg("table assigned")

	if s.bus != nil {
		s.bus.Publish(events.Event{
			Kind:           kind,
			RunID:          runID,
			BookingID:      b.ID,
			RestaurantID:   b.RestaurantID,
			TableID:        table.ID,
			AssignmentType: assignType,
			At:             now,
		})
	}
	return nil
}

func (s *Scheduler) publishUnresolved(runID string, b *models.Booking, now time.Time) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Kind:         events.KindUnresolved,
		RunID:        runID,
		BookingID:    b.ID,
		RestaurantID: b.RestaurantID,
		At:           now,
	})
}

func (s *Scheduler) logStorageError(runID string, bookingID int64, op string, err error) {
	s.logger.Error().Err(err).
		Str("run_id", runID).
		Int64("booking_id", bookingID).
		Msgf("storage error: %s", op)
	if s.metrics != nil {
		s.metrics.StorageErrors.Inc()
	}
}

// groupByTable indexes a day's bookings by their assigned table. Unassigned
// bookings carry no table and are skipped.
func groupByTable(bookings []models.Booking) map[int64][]models.Booking {
	byTable := make(map[int64][]models.Booking)
	for _, b := range bookings {
		if b.TableID == nil {
			continue
		}
		byTable[*b.TableID] = append(byTable[*b.TableID], b)
	}
	return byTable
}

func tablesExcept(tables []models.Table, excludeID int64) []models.Table {
	out := make([]models.Table, 0, len(tables))
	for _, t := range tables {
		if t.ID != excludeID {
			out = append(out, t)
		}
	}
	return out
}

// moveBooking updates the in-memory index after a relocation.
func moveBooking(byTable map[int64][]models.Booking, bookingID, fromTableID, toTableID int64) {
	src := byTable[fromTableID]
	for i := range src {
		if src[i].ID != bookingID {
			continue
		}
		moved := src[i]
		tid := toTableID
		moved.TableID = &tid
		byTable[fromTableID] = append(src[:i:i], src[i+1:]...)
		byTable[toTableID] = append(byTable[toTableID], moved)
		return
	}
}
