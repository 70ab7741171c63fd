package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles agent_turns and food_scans PostgreSQL operations.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertTurn persists a turn. Redelivered events carry the same ID and are
// ignored.
func (r *Repository) InsertTurn(ctx context.Context, t *TurnRecord) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO agent_turns (id, request_id, endpoint, agent_type, source, status, provider, model,
		     tokens_used, conversation_size, detected_objective, error, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (id) DO NOTHING`,
		t.ID, t.RequestID, t.Endpoint, t.AgentType, t.Source, t.Status, t.Provider, t.Model,
		t.TokensUsed, t.ConversationSize, t.DetectedObjective, t.Error, t.DurationMS, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting agent turn: %w", err)
	}
	return nil
}

func (r *Repository) InsertScan(ctx context.Context, s *ScanRecord) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO food_scans (id, request_id, endpoint, provider, status, verdict, error, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.RequestID, s.Endpoint, s.Provider, s.Status, s.Verdict, s.Error, s.DurationMS, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting food scan: %w", err)
	}
	return nil
}

// ListTurns returns paginated turns, newest first.
func (r *Repository) ListTurns(ctx context.Context, params ListParams) ([]TurnRecord, int64, error) {
	params.normalize()
	where, args := buildFilter(params, true)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM agent_turns"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting agent turns: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, request_id, endpoint, agent_type, source, status, provider, model,
		        tokens_used, conversation_size, detected_objective, error, duration_ms, created_at
		 FROM agent_turns%s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, params.offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying agent turns: %w", err)
	}
	turns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (TurnRecord, error) {
		var t TurnRecord
		err := row.Scan(&t.ID, &t.RequestID, &t.Endpoint, &t.AgentType, &t.Source, &t.Status,
			&t.Provider, &t.Model, &t.TokensUsed, &t.ConversationSize, &t.DetectedObjective,
			&t.Error, &t.DurationMS, &t.CreatedAt)
		return t, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scanning agent turns: %w", err)
	}
	return turns, total, nil
}

// ListScans returns paginated scans, newest first.
func (r *Repository) ListScans(ctx context.Context, params ListParams) ([]ScanRecord, int64, error) {
	params.normalize()
	where, args := buildFilter(params, false)

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM food_scans"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting food scans: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT id, request_id, endpoint, provider, status, verdict, error, duration_ms, created_at
		 FROM food_scans%s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, params.offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("querying food scans: %w", err)
	}
	scans, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ScanRecord, error) {
		var s ScanRecord
		err := row.Scan(&s.ID, &s.RequestID, &s.Endpoint, &s.Provider, &s.Status, &s.Verdict,
			&s.Error, &s.DurationMS, &s.CreatedAt)
		return s, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scanning food scans: %w", err)
	}
	return scans, total, nil
}

// buildFilter renders the WHERE clause for params with positional
// arguments starting at $1. It returns "" when nothing is filtered.
func buildFilter(params ListParams, withAgent bool) (string, []any) {
	var conditions []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if withAgent && params.AgentType != "" {
		add("agent_type = $%d", params.AgentType)
	}
	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.Endpoint != "" {
		add("endpoint = $%d", params.Endpoint)
	}
	if params.From != nil {
		add("created_at >= $%d", *params.From)
	}
	if params.To != nil {
		add("created_at <= $%d", *params.To)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
