package services

import (
	"context"
	"io"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/courtside/community-league/storage"
)

// Фейки репозиториев на функциональных полях: тест задаёт только то, что
// нужно сценарию, остальные вызовы падают с паникой как незапланированные.

type fakeTxRunner struct {
	calls int
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, fn func(q repositories.Queryer) error) error {
	f.calls++
	return fn(nil)
}

// fakeTaskQueue выполняет задачи синхронно и запоминает их имена, чтобы
// проверять, что именно было поставлено в очередь.
type fakeTaskQueue struct {
	submitted []string
	delays    []time.Duration
	run       bool
	errs      []error
}

func (f *fakeTaskQueue) Submit(name string, fn func(ctx context.Context) error) {
	f.submitted = append(f.submitted, name)
	if f.run {
		f.errs = append(f.errs, fn(context.Background()))
	}
}

func (f *fakeTaskQueue) SubmitAfter(delay time.Duration, name string, fn func(ctx context.Context) error) {
	f.delays = append(f.delays, delay)
	f.Submit(name, fn)
}

func (f *fakeTaskQueue) SubmitWithRetry(name string, attempts int, backoff time.Duration, fn func(ctx context.Context) error) {
	f.Submit(name, fn)
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, recipient, subject, content string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipient)
	return nil
}

// fakeUploader запоминает загруженные и удалённые ключи.
type fakeUploader struct {
	uploaded  []string
	deleted   []string
	uploadErr error
}

func (f *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploaded = append(f.uploaded, key)
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (f *fakeUploader) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeBroadcaster struct {
	rooms  []string
	events []string
}

func (f *fakeBroadcaster) BroadcastToRoom(roomID, eventType string, payload interface{}) {
	f.rooms = append(f.rooms, roomID)
	f.events = append(f.events, eventType)
}

type fakeUserRepo struct {
	getByID        func(ctx context.Context, id int) (*models.User, error)
	getByEmail     func(ctx context.Context, email string) (*models.User, error)
	create         func(ctx context.Context, user *models.User) error
	update         func(ctx context.Context, user *models.User) error
	updatePhotoKey func(ctx context.Context, id int, key *string) error
	addCoins       func(ctx context.Context, id, amount int) (int, error)
	debitCoins     func(ctx context.Context, q repositories.Queryer, id, amount int) error
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	return f.create(ctx, user)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	return f.getByID(ctx, id)
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.getByEmail(ctx, email)
}

func (f *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	return f.update(ctx, user)
}

func (f *fakeUserRepo) UpdatePhotoKey(ctx context.Context, id int, key *string) error {
	return f.updatePhotoKey(ctx, id, key)
}

func (f *fakeUserRepo) AddCoins(ctx context.Context, id, amount int) (int, error) {
	return f.addCoins(ctx, id, amount)
}

func (f *fakeUserRepo) DebitCoins(ctx context.Context, q repositories.Queryer, id, amount int) error {
	return f.debitCoins(ctx, q, id, amount)
}

type fakeCenterRepo struct {
	create           func(ctx context.Context, center *models.CommunityCenter) error
	getByID          func(ctx context.Context, id int) (*models.CommunityCenter, error)
	getByIDForUpdate func(ctx context.Context, q repositories.Queryer, id int) (*models.CommunityCenter, error)
	list             func(ctx context.Context, limit, offset int) ([]*models.CommunityCenter, error)
	saveSchedule     func(ctx context.Context, q repositories.Queryer, centerID int, schedule []models.CommunityTimeSlot) error
	updatePhotoKey   func(ctx context.Context, id int, key *string) error
}

func (f *fakeCenterRepo) Create(ctx context.Context, center *models.CommunityCenter) error {
	return f.create(ctx, center)
}

func (f *fakeCenterRepo) GetByID(ctx context.Context, id int) (*models.CommunityCenter, error) {
	return f.getByID(ctx, id)
}

func (f *fakeCenterRepo) GetByIDForUpdate(ctx context.Context, q repositories.Queryer, id int) (*models.CommunityCenter, error) {
	return f.getByIDForUpdate(ctx, q, id)
}

func (f *fakeCenterRepo) List(ctx context.Context, limit, offset int) ([]*models.CommunityCenter, error) {
	return f.list(ctx, limit, offset)
}

func (f *fakeCenterRepo) SaveSchedule(ctx context.Context, q repositories.Queryer, centerID int, schedule []models.CommunityTimeSlot) error {
	return f.saveSchedule(ctx, q, centerID, schedule)
}

func (f *fakeCenterRepo) UpdatePhotoKey(ctx context.Context, id int, key *string) error {
	return f.updatePhotoKey(ctx, id, key)
}

type fakeMatchRepo struct {
	create           func(ctx context.Context, match *models.Match) error
	getByID          func(ctx context.Context, id int) (*models.Match, error)
	getByIDForUpdate func(ctx context.Context, q repositories.Queryer, id int) (*models.Match, error)
	list             func(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error)
	updateStatus     func(ctx context.Context, id int, status models.MatchStatus) error
	updateResult     func(ctx context.Context, q repositories.Queryer, match *models.Match) error
}

func (f *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	return f.create(ctx, match)
}

func (f *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	return f.getByID(ctx, id)
}

func (f *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, q repositories.Queryer, id int) (*models.Match, error) {
	return f.getByIDForUpdate(ctx, q, id)
}

func (f *fakeMatchRepo) List(ctx context.Context, status *models.MatchStatus, limit, offset int) ([]*models.Match, error) {
	return f.list(ctx, status, limit, offset)
}

func (f *fakeMatchRepo) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error {
	return f.updateStatus(ctx, id, status)
}

func (f *fakeMatchRepo) UpdateResult(ctx context.Context, q repositories.Queryer, match *models.Match) error {
	return f.updateResult(ctx, q, match)
}

type fakeStatRepo struct {
	upsertMatchStat           func(ctx context.Context, stat *models.PlayerMatchStat) error
	listByMatch               func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error)
	upsertTournamentMatchStat func(ctx context.Context, stat *models.PlayerMatchStat) error
	listByTournamentMatch     func(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error)
}

func (f *fakeStatRepo) UpsertMatchStat(ctx context.Context, stat *models.PlayerMatchStat) error {
	return f.upsertMatchStat(ctx, stat)
}

func (f *fakeStatRepo) ListByMatch(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
	return f.listByMatch(ctx, q, matchID)
}

func (f *fakeStatRepo) UpsertTournamentMatchStat(ctx context.Context, stat *models.PlayerMatchStat) error {
	return f.upsertTournamentMatchStat(ctx, stat)
}

func (f *fakeStatRepo) ListByTournamentMatch(ctx context.Context, q repositories.Queryer, matchID int) ([]*models.PlayerMatchStat, error) {
	return f.listByTournamentMatch(ctx, q, matchID)
}

type fakeTeamRepo struct {
	create           func(ctx context.Context, team *models.Team) error
	getByID          func(ctx context.Context, q repositories.Queryer, id int) (*models.Team, error)
	listByTournament func(ctx context.Context, tournamentID int) ([]*models.Team, error)
	updateScore      func(ctx context.Context, q repositories.Queryer, teamID, score int, winner bool) error
}

func (f *fakeTeamRepo) Create(ctx context.Context, team *models.Team) error {
	return f.create(ctx, team)
}

func (f *fakeTeamRepo) GetByID(ctx context.Context, q repositories.Queryer, id int) (*models.Team, error) {
	return f.getByID(ctx, q, id)
}

func (f *fakeTeamRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Team, error) {
	return f.listByTournament(ctx, tournamentID)
}

func (f *fakeTeamRepo) UpdateScore(ctx context.Context, q repositories.Queryer, teamID, score int, winner bool) error {
	return f.updateScore(ctx, q, teamID, score, winner)
}

type fakeTournamentRepo struct {
	create              func(ctx context.Context, tournament *models.Tournament) error
	getByID             func(ctx context.Context, id int) (*models.Tournament, error)
	list                func(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	updateStatus        func(ctx context.Context, id int, status models.TournamentStatus) error
	autoAdvanceStatuses func(ctx context.Context, now time.Time) (int64, error)
}

func (f *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	return f.create(ctx, tournament)
}

func (f *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	return f.getByID(ctx, id)
}

func (f *fakeTournamentRepo) List(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	return f.list(ctx, limit, offset)
}

func (f *fakeTournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	return f.updateStatus(ctx, id, status)
}

func (f *fakeTournamentRepo) AutoAdvanceStatuses(ctx context.Context, now time.Time) (int64, error) {
	return f.autoAdvanceStatuses(ctx, now)
}

type fakeTournamentBookingRepo struct {
	create                  func(ctx context.Context, q repositories.Queryer, booking *models.TournamentBooking) error
	findByUserAndTournament func(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error)
	countByTournament       func(ctx context.Context, tournamentID int) (int, error)
	listByTournament        func(ctx context.Context, tournamentID int) ([]*models.TournamentBooking, error)
}

func (f *fakeTournamentBookingRepo) Create(ctx context.Context, q repositories.Queryer, booking *models.TournamentBooking) error {
	return f.create(ctx, q, booking)
}

func (f *fakeTournamentBookingRepo) FindByUserAndTournament(ctx context.Context, userID, tournamentID int) (*models.TournamentBooking, error) {
	return f.findByUserAndTournament(ctx, userID, tournamentID)
}

func (f *fakeTournamentBookingRepo) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	return f.countByTournament(ctx, tournamentID)
}

func (f *fakeTournamentBookingRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentBooking, error) {
	return f.listByTournament(ctx, tournamentID)
}

type fakeTournamentMatchRepo struct {
	create           func(ctx context.Context, match *models.TournamentMatch) error
	getByID          func(ctx context.Context, id int) (*models.TournamentMatch, error)
	getByIDForUpdate func(ctx context.Context, q repositories.Queryer, id int) (*models.TournamentMatch, error)
	listByTournament func(ctx context.Context, tournamentID int) ([]*models.TournamentMatch, error)
	updateStatus     func(ctx context.Context, id int, status models.MatchStatus) error
	updateResult     func(ctx context.Context, q repositories.Queryer, match *models.TournamentMatch) error
}

func (f *fakeTournamentMatchRepo) Create(ctx context.Context, match *models.TournamentMatch) error {
	return f.create(ctx, match)
}

func (f *fakeTournamentMatchRepo) GetByID(ctx context.Context, id int) (*models.TournamentMatch, error) {
	return f.getByID(ctx, id)
}

func (f *fakeTournamentMatchRepo) GetByIDForUpdate(ctx context.Context, q repositories.Queryer, id int) (*models.TournamentMatch, error) {
	return f.getByIDForUpdate(ctx, q, id)
}

func (f *fakeTournamentMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.TournamentMatch, error) {
	return f.listByTournament(ctx, tournamentID)
}

func (f *fakeTournamentMatchRepo) UpdateStatus(ctx context.Context, id int, status models.MatchStatus) error {
	return f.updateStatus(ctx, id, status)
}

func (f *fakeTournamentMatchRepo) UpdateResult(ctx context.Context, q repositories.Queryer, match *models.TournamentMatch) error {
	return f.updateResult(ctx, q, match)
}

type fakePromoRepo struct {
	create            func(ctx context.Context, promo *models.PromoCode) error
	getByCode         func(ctx context.Context, code string) (*models.PromoCode, error)
	redeem            func(ctx context.Context, code string, now time.Time) (*models.PromoCode, error)
	deactivateExpired func(ctx context.Context, now time.Time) (int64, error)
}

func (f *fakePromoRepo) Create(ctx context.Context, promo *models.PromoCode) error {
	return f.create(ctx, promo)
}

func (f *fakePromoRepo) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	return f.getByCode(ctx, code)
}

func (f *fakePromoRepo) Redeem(ctx context.Context, code string, now time.Time) (*models.PromoCode, error) {
	return f.redeem(ctx, code, now)
}

func (f *fakePromoRepo) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	return f.deactivateExpired(ctx, now)
}
