package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/lib/pq"
)

var ErrParticipantTeamInvalid = fmt.Errorf("participant references an unknown team")

type ParticipantRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, participants []*models.Participant) error
	ListByTeamID(ctx context.Context, teamID int) ([]models.Participant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

// CreateBatch inserts every participant of a team. When exec is a transaction
// the statement is prepared once and reused for each row.
func (r *postgresParticipantRepository) CreateBatch(ctx context.Context, exec SQLExecutor, participants []*models.Participant) error {
	if len(participants) == 0 {
		return nil
	}

	executor := exec
	if executor == nil {
		executor = r.db
	}

	query := `
		INSERT INTO participants (team_id, name, roll_number, department, year, gender, phone_number, id_card_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	if tx, ok := executor.(*sql.Tx); ok {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare participant insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range participants {
			if err := scanParticipantInsert(stmt.QueryRowContext(ctx,
				p.TeamID, p.Name, p.RollNumber, p.Department, p.Year, p.Gender, p.PhoneNumber, p.IDCardURL,
			), p); err != nil {
				return err
			}
		}
		return nil
	}

	for _, p := range participants {
		if err := scanParticipantInsert(executor.QueryRowContext(ctx, query,
			p.TeamID, p.Name, p.RollNumber, p.Department, p.Year, p.Gender, p.PhoneNumber, p.IDCardURL,
		), p); err != nil {
			return err
		}
	}
	return nil
}

func scanParticipantInsert(row *sql.Row, p *models.Participant) error {
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "participants_team_id_fkey" {
				return ErrParticipantTeamInvalid
			}
		}
		return fmt.Errorf("failed to insert participant %q: %w", p.Name, err)
	}
	return nil
}

// ListByTeamID returns a team's roster ordered by insertion.
func (r *postgresParticipantRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.Participant, error) {
	query := `
		SELECT id, team_id, name, roll_number, department, year, gender, phone_number, id_card_url, created_at
		FROM participants
		WHERE team_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for team %d: %w", teamID, err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.ID,
			&p.TeamID,
			&p.Name,
			&p.RollNumber,
			&p.Department,
			&p.Year,
			&p.Gender,
			&p.PhoneNumber,
			&p.IDCardURL,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
