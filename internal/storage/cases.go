package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/homologa-digital/homologa/internal/common"
	"github.com/homologa-digital/homologa/internal/model"
)

// SaveCase persists a case state as its JSON wire record. The caller must
// serialize writes per case id; the store performs a whole-record replace.
func (s *SQLiteStorage) SaveCase(ctx context.Context, state *model.CaseState) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: state", ErrNilParameter)
	}
	if err := state.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid case state: %w", err)
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal case state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cases (id, step, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			step = excluded.step,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		state.CaseID, state.Step, string(payload), state.CreatedAt, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save case %s: %w", state.CaseID, err)
	}

	return nil
}

// GetCase loads one case state from its JSON record.
func (s *SQLiteStorage) GetCase(ctx context.Context, caseID string) (*model.CaseState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(caseID, "caseID"); err != nil {
		return nil, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT state FROM cases WHERE id = ?", caseID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewNotFoundError("case", caseID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get case %s: %w", caseID, err)
	}

	var state model.CaseState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case %s: %w", caseID, err)
	}

	return &state, nil
}

// ListCases returns case states, optionally filtered by step.
func (s *SQLiteStorage) ListCases(ctx context.Context, step *model.Step) ([]model.CaseState, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := "SELECT state FROM cases ORDER BY updated_at DESC"
	var args []any
	if step != nil {
		query = "SELECT state FROM cases WHERE step = ? ORDER BY updated_at DESC"
		args = append(args, *step)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer closeRows(rows)

	var cases []model.CaseState
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan case: %w", err)
		}

		var state model.CaseState
		if err := json.Unmarshal([]byte(payload), &state); err != nil {
			return nil, fmt.Errorf("failed to unmarshal case: %w", err)
		}
		cases = append(cases, state)
	}

	return cases, rows.Err()
}

// DeleteCase removes a case state.
func (s *SQLiteStorage) DeleteCase(ctx context.Context, caseID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(caseID, "caseID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM cases WHERE id = ?", caseID)
	if err != nil {
		return fmt.Errorf("failed to delete case %s: %w", caseID, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return common.NewNotFoundError("case", caseID, nil)
	}

	return nil
}
