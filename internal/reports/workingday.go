package reports

import (
	"errors"
	"time"

	"poker-club/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDayNotFound       = errors.New("working day not found")
	ErrDayAlreadyOpen    = errors.New("a working day is already open for this date")
	ErrDayClosed         = errors.New("working day is already closed")
	ErrSessionsStillOpen = errors.New("cannot close day with open cash sessions")
	ErrTournamentsLive   = errors.New("cannot close day with unfinished tournaments")
	ErrSessionNotFound   = errors.New("cash session not found")
	ErrSessionClosed     = errors.New("cash session is already closed")
)

// Service aggregates working days, cash sessions and daily reports.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// OpenDay opens the working day for a date (YYYY-MM-DD). A date can only
// be opened once; reopening a closed day is not supported and corrections
// go through the ledger instead.
func (s *Service) OpenDay(date string) (*models.WorkingDay, error) {
	var existing models.WorkingDay
	err := s.db.First(&existing, "date = ?", date).Error
	if err == nil {
		return nil, ErrDayAlreadyOpen
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	day := &models.WorkingDay{
		ID:       uuid.New().String(),
		Date:     date,
		OpenedAt: time.Now(),
	}
	if err := s.db.Create(day).Error; err != nil {
		return nil, err
	}
	return day, nil
}

// CloseDay closes a working day. Every cash session must be closed and
// every tournament of the day finished or canceled first.
func (s *Service) CloseDay(dayID string) (*models.WorkingDay, error) {
	var day models.WorkingDay
	if err := s.db.First(&day, "id = ?", dayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	if day.ClosedAt != nil {
		return nil, ErrDayClosed
	}

	var openSessions int64
	if err := s.db.Model(&models.CashSession{}).
		Where("working_day_id = ? AND status = ?", dayID, models.CashSessionOpen).
		Count(&openSessions).Error; err != nil {
		return nil, err
	}
	if openSessions > 0 {
		return nil, ErrSessionsStillOpen
	}

	var live int64
	if err := s.db.Model(&models.Tournament{}).
		Where("working_day_id = ? AND status NOT IN ?", dayID,
			[]models.TournamentStatus{models.TournamentFinished, models.TournamentCanceled}).
		Count(&live).Error; err != nil {
		return nil, err
	}
	if live > 0 {
		return nil, ErrTournamentsLive
	}

	now := time.Now()
	if err := s.db.Model(&day).Update("closed_at", now).Error; err != nil {
		return nil, err
	}
	day.ClosedAt = &now
	return &day, nil
}

// GetDay loads a working day by ID.
func (s *Service) GetDay(dayID string) (*models.WorkingDay, error) {
	var day models.WorkingDay
	if err := s.db.First(&day, "id = ?", dayID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	return &day, nil
}

// OpenSession opens a cash session on a table inside a working day.
func (s *Service) OpenSession(dayID string, tableNumber int) (*models.CashSession, error) {
	day, err := s.GetDay(dayID)
	if err != nil {
		return nil, err
	}
	if day.ClosedAt != nil {
		return nil, ErrDayClosed
	}

	session := &models.CashSession{
		ID:           uuid.New().String(),
		WorkingDayID: dayID,
		TableNumber:  tableNumber,
		Status:       models.CashSessionOpen,
		OpenedAt:     time.Now(),
	}
	if err := s.db.Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// CloseSession closes a cash session. Its ledger entries stay attached for
// reporting.
func (s *Service) CloseSession(sessionID string) (*models.CashSession, error) {
	var session models.CashSession
	if err := s.db.First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if session.Status == models.CashSessionClosed {
		return nil, ErrSessionClosed
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":    models.CashSessionClosed,
		"closed_at": now,
	}
	if err := s.db.Model(&session).Updates(updates).Error; err != nil {
		return nil, err
	}
	session.Status = models.CashSessionClosed
	session.ClosedAt = &now
	return &session, nil
}
