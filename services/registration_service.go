package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/repositories"
	"github.com/Dosada05/hackathon-registration/storage"
)

// TeamSize is the required number of participants per team.
const TeamSize = 6

// idCardFolder is the object-storage prefix for uploaded identity documents.
const idCardFolder = "mvlu-hackathon-ids"

// ParticipantInput is one roster entry as submitted by the registration form.
type ParticipantInput struct {
	Name        string            `json:"name" validate:"required"`
	RollNumber  string            `json:"rollNumber" validate:"required"`
	Department  models.Department `json:"department" validate:"required"`
	Year        models.Year       `json:"year" validate:"required"`
	Gender      models.Gender     `json:"gender" validate:"required"`
	PhoneNumber string            `json:"phoneNumber" validate:"required,min=7,max=15"`
}

func (p ParticipantInput) toModel(teamID int, idCardURL string) *models.Participant {
	return &models.Participant{
		TeamID:      teamID,
		Name:        p.Name,
		RollNumber:  p.RollNumber,
		Department:  p.Department,
		Year:        p.Year,
		Gender:      p.Gender,
		PhoneNumber: p.PhoneNumber,
		IDCardURL:   idCardURL,
	}
}

// IDCardFile is an identity-document image, order-correlated with the
// participant at the same index.
type IDCardFile struct {
	Reader      io.Reader
	ContentType string
	Filename    string
}

// registrationTx is the slice of *sql.Tx the registration workflow uses.
type registrationTx interface {
	repositories.SQLExecutor
	Commit() error
	Rollback() error
}

// txBeginner opens the transaction the scan-then-insert sequence runs in.
type txBeginner interface {
	beginTx(ctx context.Context) (registrationTx, error)
}

type sqlTxBeginner struct {
	db *sql.DB
}

func (b sqlTxBeginner) beginTx(ctx context.Context) (registrationTx, error) {
	return b.db.BeginTx(ctx, nil)
}

// RegistrationService owns the registration workflow: validation, id-card
// uploads, and the transactional team + roster insert.
type RegistrationService struct {
	txs          txBeginner
	teams        repositories.TeamRepository
	participants repositories.ParticipantRepository
	uploader     storage.FileUploader
	validate     *validator.Validate
	logger       *slog.Logger
	prefix       string
}

func NewRegistrationService(
	db *sql.DB,
	teams repositories.TeamRepository,
	participants repositories.ParticipantRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
	prefix string,
) *RegistrationService {
	return &RegistrationService{
		txs:          sqlTxBeginner{db: db},
		teams:        teams,
		participants: participants,
		uploader:     uploader,
		validate:     validator.New(),
		logger:       logger,
		prefix:       prefix,
	}
}

// CheckNameAvailable reports whether no existing team uses the given name,
// case-insensitively. The result is advisory: it can be invalidated by a
// concurrent registration and is re-checked inside the registration
// transaction.
func (s *RegistrationService) CheckNameAvailable(ctx context.Context, name string) (bool, error) {
	exists, err := s.teams.NameExists(ctx, nil, name)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Register validates the submission, uploads the id cards, and atomically
// persists the team with its roster. It returns the assigned registration
// identifier. Any failure leaves the store untouched; objects already
// uploaded are deleted best-effort.
func (s *RegistrationService) Register(ctx context.Context, teamName string, participants []ParticipantInput, files []IDCardFile) (string, error) {
	if err := s.validateInput(teamName, participants, files); err != nil {
		return "", err
	}

	urls, keys, err := s.uploadIDCards(ctx, files)
	if err != nil {
		s.cleanupObjects(keys)
		return "", err
	}

	regID, err := s.persist(ctx, teamName, participants, urls)
	if err != nil {
		s.cleanupObjects(keys)
		return "", err
	}

	s.logger.Info("team registered",
		slog.String("team_name", teamName),
		slog.String("registration_id", regID),
	)
	return regID, nil
}

// GetRegistration returns a registered team with its full roster.
func (s *RegistrationService) GetRegistration(ctx context.Context, registrationID string) (*models.Team, error) {
	team, err := s.teams.GetByRegistrationID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}

	roster, err := s.participants.ListByTeamID(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	team.Participants = roster
	return team, nil
}

func (s *RegistrationService) validateInput(teamName string, participants []ParticipantInput, files []IDCardFile) error {
	if strings.TrimSpace(teamName) == "" {
		return ErrTeamNameRequired
	}
	if len(participants) != TeamSize {
		return fmt.Errorf("%w: got %d", ErrParticipantCount, len(participants))
	}

	hasFemale := false
	for i, p := range participants {
		if err := s.validate.Struct(p); err != nil {
			return fmt.Errorf("%w: participant %d: %v", ErrParticipantInvalid, i+1, err)
		}
		// Enum membership lives on the model types, not in struct tags.
		if !p.Department.Valid() {
			return fmt.Errorf("%w: participant %d: unknown department %q", ErrParticipantInvalid, i+1, p.Department)
		}
		if !p.Year.Valid() {
			return fmt.Errorf("%w: participant %d: unknown year %q", ErrParticipantInvalid, i+1, p.Year)
		}
		if !p.Gender.Valid() {
			return fmt.Errorf("%w: participant %d: unknown gender %q", ErrParticipantInvalid, i+1, p.Gender)
		}
		if p.Gender == models.GenderFemale {
			hasFemale = true
		}
	}
	if !hasFemale {
		return ErrNoFemaleParticipant
	}

	if len(files) != len(participants) {
		return fmt.Errorf("%w: expected %d id cards, got %d", ErrIDCardMissing, len(participants), len(files))
	}
	for i, f := range files {
		if f.Reader == nil {
			return fmt.Errorf("%w: participant %d (%s)", ErrIDCardMissing, i+1, participants[i].Name)
		}
		if _, err := extensionForContentType(f.ContentType); err != nil {
			return fmt.Errorf("%w: participant %d: got %q", ErrIDCardUnsupported, i+1, f.ContentType)
		}
	}
	return nil
}

// uploadIDCards pushes every id card to object storage concurrently. It
// returns the public URLs and the object keys, index-correlated with files.
func (s *RegistrationService) uploadIDCards(ctx context.Context, files []IDCardFile) ([]string, []string, error) {
	urls := make([]string, len(files))
	keys := make([]string, len(files))

	// Keys are minted up front so an unsupported content type fails the
	// submission before any goroutine starts uploading.
	for i, f := range files {
		ext, err := extensionForContentType(f.ContentType)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrIDCardUnsupported, f.Filename, err)
		}
		keys[i] = fmt.Sprintf("%s/%s%s", idCardFolder, uuid.NewString(), ext)
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		key := keys[i]
		g.Go(func() error {
			result, err := s.uploader.Upload(gCtx, key, f.ContentType, f.Reader)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrUploadFailed, f.Filename, err)
			}
			urls[i] = result.Location
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, keys, err
	}
	return urls, keys, nil
}

// persist runs the transactional part of the workflow: authoritative name
// check, gap-filling identifier assignment, and the team + roster insert.
// The scan and the insert share one transaction so two concurrent
// registrations cannot both claim the same identifier; the unique constraint
// on registration_id backs this up at the store level.
func (s *RegistrationService) persist(ctx context.Context, teamName string, participants []ParticipantInput, urls []string) (regID string, txErr error) {
	tx, err := s.txs.beginTx(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("registration rollback failed",
					slog.Any("error", rbErr),
					slog.Any("cause", txErr),
				)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit registration: %w", cErr)
		}
	}()

	taken, err := s.teams.NameExists(ctx, tx, teamName)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrTeamNameTaken
	}

	ids, err := s.teams.ListRegistrationIDs(ctx, tx)
	if err != nil {
		return "", err
	}
	next := NextRegistrationNumber(ParseRegistrationNumbers(s.prefix, ids))

	team := &models.Team{
		TeamName:       teamName,
		RegistrationID: FormatRegistrationID(s.prefix, next),
	}
	if err := s.teams.Create(ctx, tx, team); err != nil {
		return "", err
	}

	roster := make([]*models.Participant, len(participants))
	for i, p := range participants {
		roster[i] = p.toModel(team.ID, urls[i])
	}
	if err := s.participants.CreateBatch(ctx, tx, roster); err != nil {
		return "", err
	}

	return team.RegistrationID, nil
}

// cleanupObjects deletes uploaded id cards after a failed registration.
// Deleting a key that was never written is a no-op for S3-compatible stores,
// so the whole batch is attempted regardless of which uploads completed.
func (s *RegistrationService) cleanupObjects(keys []string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.uploader.Delete(context.Background(), key); err != nil {
			s.logger.Warn("failed to delete orphaned id card",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	default:
		return "", fmt.Errorf("unsupported id card content type: %q", contentType)
	}
}
