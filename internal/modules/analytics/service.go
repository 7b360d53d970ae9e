// README: Fire-and-forget analytics event service; implements the engine's sink contract.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"goshop/internal/modules/chat"
	"goshop/internal/search"
)

// writeTimeout bounds each detached analytics write.
const writeTimeout = 5 * time.Second

// Service records conversation events without ever blocking or failing the
// response path: every write runs on a detached goroutine with its own
// deadline and failures are only logged.
type Service struct {
	store *Store
	log   *logrus.Logger

	mu       sync.Mutex
	sessions map[string]int64 // open session id per user
}

func NewService(store *Store, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{store: store, log: log, sessions: make(map[string]int64)}
}

func (s *Service) SessionStarted(userID string, at time.Time) {
	s.async("session start", func(ctx context.Context) error {
		id, err := s.store.CreateSession(ctx, userID, at)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.sessions[userID] = id
		s.mu.Unlock()
		return nil
	})
}

func (s *Service) SessionEnded(userID string, at time.Time) {
	id := s.takeSession(userID)
	if id == 0 {
		return
	}
	s.async("session end", func(ctx context.Context) error {
		return s.store.CloseSession(ctx, id, at)
	})
}

func (s *Service) GoalsCaptured(userID string, g chat.Goals) {
	id := s.sessionID(userID)
	s.async("goals", func(ctx context.Context) error {
		return s.store.SaveGoals(ctx, userID, id, g.HealthGoal, g.MedicalCondition, g.Preference, g.Pueblo)
	})
}

func (s *Service) ProductsShown(userID string, stage string, products []search.Product, g chat.Goals) {
	if len(products) == 0 {
		return
	}
	id := s.sessionID(userID)
	shown := append([]search.Product(nil), products...)
	s.async("products shown", func(ctx context.Context) error {
		for _, p := range shown {
			if err := s.store.SaveProductInteraction(ctx, userID, id, p.Name, p.Category, "shown", stage, g.HealthGoal, g.Preference); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) LocationSearched(pueblo string, found bool) {
	if pueblo == "" {
		return
	}
	s.async("location search", func(ctx context.Context) error {
		return s.store.SaveLocationSearch(ctx, pueblo, found)
	})
}

func (s *Service) sessionID(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[userID]
}

func (s *Service) takeSession(userID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.sessions[userID]
	delete(s.sessions, userID)
	return id
}

func (s *Service) async(event string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.WithError(err).WithField("event", event).Warn("analytics write failed")
		}
	}()
}

// Dashboard queries are pass-throughs; they run synchronously on the caller's
// context because they back the HTTP reporting endpoints.

func (s *Service) Engagement(ctx context.Context, startDate, endDate string) (EngagementMetrics, error) {
	return s.store.Engagement(ctx, startDate, endDate)
}

func (s *Service) TopHealthGoals(ctx context.Context, limit int) ([]GoalFrequency, error) {
	return s.store.TopHealthGoals(ctx, limit)
}

func (s *Service) ProductStats(ctx context.Context) ([]ProductStats, error) {
	return s.store.ProductStats(ctx)
}

func (s *Service) LocationStats(ctx context.Context) ([]LocationStats, error) {
	return s.store.LocationStats(ctx)
}

func (s *Service) Daily(ctx context.Context, days int) ([]DailyMetrics, error) {
	return s.store.Daily(ctx, days)
}
