// README: Append-only conversation state store backed by PostgreSQL.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists (stage, context) snapshots. Every write is an insert; the
// latest snapshot wins on read. The insert-only design keeps the full
// history for analytics and sidesteps lost-update races between overlapping
// requests for the same user: ordering authority is the bigserial id
// (insertion order), not wall-clock time.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Get returns the most recently inserted state for the user, or (nil, nil)
// when the user has never been seen. Absence is a valid initial condition.
func (s *Store) Get(ctx context.Context, userID string) (*State, error) {
	row := s.db.QueryRow(ctx, `
		SELECT stage, context FROM chat_state
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT 1`, userID)

	var stage string
	var rawContext []byte
	err := row.Scan(&stage, &rawContext)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	st := &State{UserID: userID, Stage: Stage(stage), Context: Context{}}
	if len(rawContext) > 0 {
		if err := json.Unmarshal(rawContext, &st.Context); err != nil {
			return nil, fmt.Errorf("decode context: %w", err)
		}
	}
	return st, nil
}

// Put appends a new immutable snapshot. There is deliberately no update
// path; "reset" is just the next insert.
func (s *Store) Put(ctx context.Context, userID string, st State) error {
	rawContext, err := json.Marshal(st.Context)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO chat_state (user_id, stage, context, created_at)
		VALUES ($1, $2, $3, now())`,
		userID, string(st.Stage), rawContext)
	return err
}
