// README: Analytics event tables and dashboard queries backed by PostgreSQL.
package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CreateSession opens a session row and returns its id.
func (s *Store) CreateSession(ctx context.Context, userID string, start time.Time) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO user_sessions (user_id, session_start)
		VALUES ($1, $2)
		RETURNING id`, userID, start).Scan(&id)
	return id, err
}

// CloseSession stamps the end time and marks the journey completed.
func (s *Store) CloseSession(ctx context.Context, sessionID int64, end time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE user_sessions
		SET session_end = $1, completed_journey = TRUE
		WHERE id = $2`, end, sessionID)
	return err
}

// SaveGoals records the captured health goals and preferences.
func (s *Store) SaveGoals(ctx context.Context, userID string, sessionID int64, healthGoal, medical, preference, pueblo string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_goals (
			user_id, session_id, health_goal, medical_condition,
			supplement_preference, pueblo
		) VALUES ($1, NULLIF($2, 0), $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''))`,
		userID, sessionID, healthGoal, medical, preference, pueblo)
	return err
}

// SaveProductInteraction records one shown/clicked product event.
func (s *Store) SaveProductInteraction(ctx context.Context, userID string, sessionID int64, productName, productCategory, interactionType, stage, goal, preference string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO product_interactions (
			user_id, session_id, product_name, product_category,
			interaction_type, stage, user_goal, user_preference
		) VALUES ($1, NULLIF($2, 0), $3, $4, $5, $6, NULLIF($7, ''), NULLIF($8, ''))`,
		userID, sessionID, productName, productCategory, interactionType, stage, goal, preference)
	return err
}

// SaveLocationSearch upserts the per-town search counters.
func (s *Store) SaveLocationSearch(ctx context.Context, pueblo string, successful bool) error {
	match := 0
	if successful {
		match = 1
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO location_analytics (pueblo, total_searches, successful_matches, last_searched)
		VALUES ($1, 1, $2, now())
		ON CONFLICT (pueblo) DO UPDATE SET
			total_searches = location_analytics.total_searches + 1,
			successful_matches = location_analytics.successful_matches + $2,
			last_searched = EXCLUDED.last_searched`,
		pueblo, match)
	return err
}

func (s *Store) Engagement(ctx context.Context, startDate, endDate string) (EngagementMetrics, error) {
	var m EngagementMetrics
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(DISTINCT user_id),
			COALESCE(AVG(EXTRACT(EPOCH FROM (session_end - session_start))), 0),
			COALESCE(ROUND(COUNT(CASE WHEN completed_journey THEN 1 END) * 100.0 / NULLIF(COUNT(*), 0), 2), 0),
			COUNT(*)
		FROM user_sessions
		WHERE session_start::DATE BETWEEN $1 AND $2`,
		startDate, endDate,
	).Scan(&m.TotalUsers, &m.AvgSessionSecs, &m.CompletionRate, &m.TotalSessions)
	return m, err
}

func (s *Store) TopHealthGoals(ctx context.Context, limit int) ([]GoalFrequency, error) {
	rows, err := s.db.Query(ctx, `
		SELECT health_goal, COUNT(*) AS frequency
		FROM user_goals
		WHERE health_goal IS NOT NULL
		GROUP BY health_goal
		ORDER BY frequency DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GoalFrequency
	for rows.Next() {
		var g GoalFrequency
		if err := rows.Scan(&g.Goal, &g.Frequency); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) ProductStats(ctx context.Context) ([]ProductStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			product_name,
			product_category,
			COUNT(*) AS total_recommendations,
			COUNT(CASE WHEN interaction_type = 'clicked' THEN 1 END) AS clicks,
			ROUND(COUNT(CASE WHEN interaction_type = 'clicked' THEN 1 END) * 100.0 / COUNT(*), 2) AS click_rate
		FROM product_interactions
		GROUP BY product_name, product_category
		ORDER BY total_recommendations DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductStats
	for rows.Next() {
		var p ProductStats
		if err := rows.Scan(&p.ProductName, &p.Category, &p.TotalRecommendations, &p.Clicks, &p.ClickRate); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) LocationStats(ctx context.Context) ([]LocationStats, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			pueblo,
			total_searches,
			successful_matches,
			ROUND(successful_matches * 100.0 / NULLIF(total_searches, 0), 2) AS success_rate
		FROM location_analytics
		ORDER BY total_searches DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LocationStats
	for rows.Next() {
		var l LocationStats
		if err := rows.Scan(&l.Pueblo, &l.TotalSearches, &l.SuccessfulMatches, &l.SuccessRate); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) Daily(ctx context.Context, days int) ([]DailyMetrics, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			DATE(session_start)::TEXT AS date,
			COUNT(DISTINCT user_id) AS unique_users,
			COUNT(*) AS total_sessions,
			COALESCE(ROUND(COUNT(CASE WHEN completed_journey THEN 1 END) * 100.0 / COUNT(*), 2), 0) AS completion_rate
		FROM user_sessions
		WHERE session_start >= now() - make_interval(days => $1)
		GROUP BY DATE(session_start)
		ORDER BY date DESC`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyMetrics
	for rows.Next() {
		var d DailyMetrics
		if err := rows.Scan(&d.Date, &d.UniqueUsers, &d.TotalSessions, &d.CompletionRate); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
