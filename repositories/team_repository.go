package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound = errors.New("team not found")

	// ErrRegistrationIDConflict surfaces when a concurrent registration won the
	// race for the same identifier; the unique constraint on registration_id
	// turns the duplicate insert into a rollback for the loser.
	ErrRegistrationIDConflict = errors.New("registration id already assigned")
)

type TeamRepository interface {
	NameExists(ctx context.Context, exec SQLExecutor, name string) (bool, error)
	ListRegistrationIDs(ctx context.Context, exec SQLExecutor) ([]string, error)
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByRegistrationID(ctx context.Context, registrationID string) (*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// NameExists reports whether a team with the given name is already registered.
// The comparison is case-insensitive.
func (r *postgresTeamRepository) NameExists(ctx context.Context, exec SQLExecutor, name string) (bool, error) {
	executor := r.getExecutor(exec)
	query := `SELECT 1 FROM teams WHERE lower(team_name) = lower($1)`

	var one int
	err := executor.QueryRowContext(ctx, query, name).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check team name %q: %w", name, err)
	}
	return true, nil
}

// ListRegistrationIDs returns the registration identifiers of every team.
func (r *postgresTeamRepository) ListRegistrationIDs(ctx context.Context, exec SQLExecutor) ([]string, error) {
	executor := r.getExecutor(exec)
	query := `SELECT registration_id FROM teams`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list registration ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan registration id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (team_name, registration_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query, team.TeamName, team.RegistrationID).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_registration_id_key" {
				return ErrRegistrationIDConflict
			}
		}
		return fmt.Errorf("failed to create team %q: %w", team.TeamName, err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByRegistrationID(ctx context.Context, registrationID string) (*models.Team, error) {
	query := `
		SELECT id, team_name, registration_id, created_at
		FROM teams
		WHERE registration_id = $1`

	var team models.Team
	err := r.db.QueryRowContext(ctx, query, registrationID).Scan(
		&team.ID,
		&team.TeamName,
		&team.RegistrationID,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team by registration id %q: %w", registrationID, err)
	}
	return &team, nil
}
