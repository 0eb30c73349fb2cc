package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/hackathon-registration/models"
	"github.com/Dosada05/hackathon-registration/repositories"
	"github.com/Dosada05/hackathon-registration/storage"
)

// fakeTeamRepo is an in-memory stand-in for the Postgres repository. Name
// lookups are case-insensitive, mirroring the lower() comparison in SQL.
type fakeTeamRepo struct {
	mu        sync.Mutex
	teams     []*models.Team
	createErr error
}

func (f *fakeTeamRepo) NameExists(ctx context.Context, exec repositories.SQLExecutor, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if strings.EqualFold(t.TeamName, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTeamRepo) ListRegistrationIDs(ctx context.Context, exec repositories.SQLExecutor) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.teams))
	for _, t := range f.teams {
		ids = append(ids, t.RegistrationID)
	}
	return ids, nil
}

func (f *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	team.ID = len(f.teams) + 1
	f.teams = append(f.teams, team)
	return nil
}

func (f *fakeTeamRepo) GetByRegistrationID(ctx context.Context, registrationID string) (*models.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.teams {
		if t.RegistrationID == registrationID {
			return t, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

type fakeParticipantRepo struct {
	roster    []models.Participant
	createErr error
}

func (f *fakeParticipantRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, participants []*models.Participant) error {
	return f.createErr
}

func (f *fakeParticipantRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.Participant, error) {
	return f.roster, nil
}

// fakeTx records transaction outcomes so tests can assert that every
// registration attempt either commits or rolls back, never both.
type fakeTx struct {
	commits   int
	rollbacks int
}

func (t *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}

func (t *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (t *fakeTx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

func (t *fakeTx) Commit() error {
	t.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rollbacks++
	return nil
}

type fakeTxBeginner struct {
	txs []*fakeTx
}

func (b *fakeTxBeginner) beginTx(ctx context.Context) (registrationTx, error) {
	tx := &fakeTx{}
	b.txs = append(b.txs, tx)
	return tx, nil
}

type fakeUploader struct {
	mu       sync.Mutex
	uploaded []string
	deleted  []string
	failName string // Upload fails when the reader yields this content
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if f.failName != "" && string(body) == f.failName {
		return nil, io.ErrUnexpectedEOF
	}
	f.mu.Lock()
	f.uploaded = append(f.uploaded, key)
	f.mu.Unlock()
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, key)
	f.mu.Unlock()
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(teams *fakeTeamRepo, participants *fakeParticipantRepo, uploader *fakeUploader) (*RegistrationService, *fakeTxBeginner) {
	txs := &fakeTxBeginner{}
	svc := NewRegistrationService(nil, teams, participants, uploader, testLogger(), "MVLUHACK")
	svc.txs = txs
	return svc, txs
}

func validParticipants() []ParticipantInput {
	participants := make([]ParticipantInput, TeamSize)
	for i := range participants {
		participants[i] = ParticipantInput{
			Name:        "Member",
			RollNumber:  "2301",
			Department:  models.DepartmentCS,
			Year:        models.YearTY,
			Gender:      models.GenderMale,
			PhoneNumber: "9876543210",
		}
	}
	participants[2].Gender = models.GenderFemale
	return participants
}

func validFiles() []IDCardFile {
	files := make([]IDCardFile, TeamSize)
	for i := range files {
		files[i] = IDCardFile{
			Reader:      strings.NewReader("image-bytes"),
			ContentType: "image/jpeg",
			Filename:    "id.jpg",
		}
	}
	return files
}

func TestRegisterAssignsSequentialIdentifiers(t *testing.T) {
	teams := &fakeTeamRepo{}
	svc, txs := newTestService(teams, &fakeParticipantRepo{}, &fakeUploader{})

	regID, err := svc.Register(context.Background(), "Alpha", validParticipants(), validFiles())
	require.NoError(t, err)
	assert.Equal(t, "MVLUHACK01", regID)

	regID, err = svc.Register(context.Background(), "Beta", validParticipants(), validFiles())
	require.NoError(t, err)
	assert.Equal(t, "MVLUHACK02", regID)

	require.Len(t, txs.txs, 2)
	for _, tx := range txs.txs {
		assert.Equal(t, 1, tx.commits)
		assert.Equal(t, 0, tx.rollbacks)
	}
	require.Len(t, teams.teams, 2)
	assert.Equal(t, "MVLUHACK01", teams.teams[0].RegistrationID)
	assert.Equal(t, "MVLUHACK02", teams.teams[1].RegistrationID)
}

func TestRegisterFillsIdentifierGap(t *testing.T) {
	teams := &fakeTeamRepo{teams: []*models.Team{
		{ID: 1, TeamName: "Alpha", RegistrationID: "MVLUHACK01"},
		{ID: 2, TeamName: "Beta", RegistrationID: "MVLUHACK02"},
		{ID: 3, TeamName: "Delta", RegistrationID: "MVLUHACK04"},
	}}
	svc, _ := newTestService(teams, &fakeParticipantRepo{}, &fakeUploader{})

	regID, err := svc.Register(context.Background(), "Gamma", validParticipants(), validFiles())
	require.NoError(t, err)
	assert.Equal(t, "MVLUHACK03", regID)
}

func TestRegisterRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	teams := &fakeTeamRepo{teams: []*models.Team{
		{ID: 1, TeamName: "Alpha", RegistrationID: "MVLUHACK01"},
	}}
	uploader := &fakeUploader{}
	svc, txs := newTestService(teams, &fakeParticipantRepo{}, uploader)

	_, err := svc.Register(context.Background(), "ALPHA", validParticipants(), validFiles())
	assert.ErrorIs(t, err, ErrTeamNameTaken)

	require.Len(t, txs.txs, 1)
	assert.Equal(t, 0, txs.txs[0].commits)
	assert.Equal(t, 1, txs.txs[0].rollbacks)

	// No second team, and the uploaded id cards are removed again.
	assert.Len(t, teams.teams, 1)
	assert.Len(t, uploader.deleted, TeamSize)
}

func TestRegisterRollsBackWhenRosterInsertFails(t *testing.T) {
	teams := &fakeTeamRepo{}
	uploader := &fakeUploader{}
	svc, txs := newTestService(teams, &fakeParticipantRepo{createErr: errors.New("insert failed")}, uploader)

	_, err := svc.Register(context.Background(), "Alpha", validParticipants(), validFiles())
	require.Error(t, err)

	require.Len(t, txs.txs, 1)
	assert.Equal(t, 0, txs.txs[0].commits)
	assert.Equal(t, 1, txs.txs[0].rollbacks)

	for _, key := range uploader.uploaded {
		assert.Contains(t, uploader.deleted, key)
	}
}

func TestRegisterRejectsEmptyTeamName(t *testing.T) {
	svc, txs := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

	_, err := svc.Register(context.Background(), "   ", validParticipants(), validFiles())
	assert.ErrorIs(t, err, ErrTeamNameRequired)
	assert.Empty(t, txs.txs, "no transaction may start for a rejected submission")
}

func TestRegisterRejectsWrongParticipantCount(t *testing.T) {
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

	_, err := svc.Register(context.Background(), "Alpha", validParticipants()[:4], validFiles())
	assert.ErrorIs(t, err, ErrParticipantCount)
}

func TestRegisterRejectsAllMaleTeam(t *testing.T) {
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

	participants := validParticipants()
	participants[2].Gender = models.GenderMale

	_, err := svc.Register(context.Background(), "Alpha", participants, validFiles())
	assert.ErrorIs(t, err, ErrNoFemaleParticipant)
}

func TestRegisterRejectsIncompleteParticipant(t *testing.T) {
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

	participants := validParticipants()
	participants[4].RollNumber = ""

	_, err := svc.Register(context.Background(), "Alpha", participants, validFiles())
	assert.ErrorIs(t, err, ErrParticipantInvalid)
}

func TestRegisterRejectsUnknownEnumValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *ParticipantInput)
	}{
		{name: "department", mutate: func(p *ParticipantInput) { p.Department = "EE" }},
		{name: "year", mutate: func(p *ParticipantInput) { p.Year = "PhD" }},
		{name: "gender", mutate: func(p *ParticipantInput) { p.Gender = "Unknown" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

			participants := validParticipants()
			tt.mutate(&participants[0])

			_, err := svc.Register(context.Background(), "Alpha", participants, validFiles())
			assert.ErrorIs(t, err, ErrParticipantInvalid)
		})
	}
}

func TestRegisterRejectsMissingFile(t *testing.T) {
	uploader := &fakeUploader{}
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, uploader)

	_, err := svc.Register(context.Background(), "Alpha", validParticipants(), validFiles()[:5])
	assert.ErrorIs(t, err, ErrIDCardMissing)
	assert.Empty(t, uploader.uploaded, "nothing may be uploaded for a rejected submission")
}

func TestRegisterRejectsNilFileForIndex(t *testing.T) {
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

	files := validFiles()
	files[3].Reader = nil

	_, err := svc.Register(context.Background(), "Alpha", validParticipants(), files)
	assert.ErrorIs(t, err, ErrIDCardMissing)
	assert.Contains(t, err.Error(), "participant 4")
}

func TestRegisterRejectsNonImageFile(t *testing.T) {
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

	files := validFiles()
	files[0].ContentType = "application/pdf"

	_, err := svc.Register(context.Background(), "Alpha", validParticipants(), files)
	assert.ErrorIs(t, err, ErrIDCardUnsupported)
}

func TestUploadIDCardsRejectsUnsupportedTypeBeforeUploading(t *testing.T) {
	uploader := &fakeUploader{}
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, uploader)

	files := validFiles()
	files[5].ContentType = "application/zip"

	_, _, err := svc.uploadIDCards(context.Background(), files)
	assert.ErrorIs(t, err, ErrIDCardUnsupported)
	assert.Empty(t, uploader.uploaded, "key minting must fail the batch before any upload starts")
}

func TestRegisterCleansUpObjectsWhenUploadFails(t *testing.T) {
	uploader := &fakeUploader{failName: "broken-image"}
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, uploader)

	files := validFiles()
	files[4].Reader = strings.NewReader("broken-image")

	_, err := svc.Register(context.Background(), "Alpha", validParticipants(), files)
	require.ErrorIs(t, err, ErrUploadFailed)

	// Cleanup attempts the whole key batch regardless of which uploads made it.
	assert.Len(t, uploader.deleted, TeamSize)
	for _, key := range uploader.uploaded {
		assert.Contains(t, uploader.deleted, key)
	}
}

func TestCheckNameAvailable(t *testing.T) {
	teams := &fakeTeamRepo{teams: []*models.Team{
		{ID: 1, TeamName: "Alpha", RegistrationID: "MVLUHACK01"},
	}}
	svc, _ := newTestService(teams, &fakeParticipantRepo{}, &fakeUploader{})

	available, err := svc.CheckNameAvailable(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.False(t, available)

	// Case only differs: still taken.
	available, err = svc.CheckNameAvailable(context.Background(), "aLpHa")
	require.NoError(t, err)
	assert.False(t, available)

	available, err = svc.CheckNameAvailable(context.Background(), "Beta")
	require.NoError(t, err)
	assert.True(t, available)
}

func TestGetRegistrationMapsNotFound(t *testing.T) {
	svc, _ := newTestService(&fakeTeamRepo{}, &fakeParticipantRepo{}, &fakeUploader{})

	_, err := svc.GetRegistration(context.Background(), "MVLUHACK99")
	assert.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestGetRegistrationAttachesRoster(t *testing.T) {
	teams := &fakeTeamRepo{teams: []*models.Team{
		{ID: 7, TeamName: "Alpha", RegistrationID: "MVLUHACK01"},
	}}
	roster := []models.Participant{{ID: 1, TeamID: 7, Name: "Member"}}
	svc, _ := newTestService(teams, &fakeParticipantRepo{roster: roster}, &fakeUploader{})

	team, err := svc.GetRegistration(context.Background(), "MVLUHACK01")
	require.NoError(t, err)
	assert.Equal(t, roster, team.Participants)
}
