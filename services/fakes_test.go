package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/repositories"
)

// In-memory фейки репозиториев. Транзакционная семантика не эмулируется:
// fakeTxManager просто вызывает fn и возвращает его ошибку.

type fakeTxManager struct {
	calls int
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.calls++
	return fn(nil)
}

// revertingTxManager снимает копию состояния фейков перед fn и восстанавливает
// её при ошибке, имитируя rollback настоящей транзакции.
type revertingTxManager struct {
	calls    int
	snapshot func() (restore func())
}

func (m *revertingTxManager) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.calls++
	restore := m.snapshot()
	if err := fn(nil); err != nil {
		restore()
		return err
	}
	return nil
}

type fakeUserRepo struct {
	nextID int
	users  map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.nextID
	r.nextID++
	user.CreatedAt = time.Now()
	saved := *user
	r.users[user.ID] = &saved
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

type fakeTeamRepo struct {
	nextID int
	teams  map[int]*models.Team

	// Команды, зарегистрированные на турниры с подходящим названием.
	// Подставляется тестом для проверки fallback-ветки рейтинга.
	byTournamentName map[string][]models.Team

	createErr error
	updateErr error
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		nextID:           1,
		teams:            make(map[int]*models.Team),
		byTournamentName: make(map[string][]models.Team),
	}
}

func (r *fakeTeamRepo) add(team models.Team) models.Team {
	if team.ID == 0 {
		team.ID = r.nextID
		r.nextID++
	} else if team.ID >= r.nextID {
		r.nextID = team.ID + 1
	}
	saved := team
	r.teams[team.ID] = &saved
	return team
}

func (r *fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.teams {
		if strings.EqualFold(existing.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	team.ID = r.nextID
	r.nextID++
	team.CreatedAt = time.Now()
	saved := *team
	r.teams[team.ID] = &saved
	return nil
}

func (r *fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	copied := *team
	return &copied, nil
}

func (r *fakeTeamRepo) GetByCaptainID(ctx context.Context, captainID int) (*models.Team, error) {
	for _, team := range r.sorted() {
		if team.CaptainID == captainID {
			copied := team
			return &copied, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r *fakeTeamRepo) Update(ctx context.Context, team *models.Team) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.teams[team.ID]; !ok {
		return repositories.ErrTeamNotFound
	}
	for _, existing := range r.teams {
		if existing.ID != team.ID && strings.EqualFold(existing.Name, team.Name) {
			return repositories.ErrTeamNameConflict
		}
	}
	saved := *team
	r.teams[team.ID] = &saved
	return nil
}

func (r *fakeTeamRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.teams[id]; !ok {
		return repositories.ErrTeamNotFound
	}
	delete(r.teams, id)
	return nil
}

func (r *fakeTeamRepo) UpdateLogoKey(ctx context.Context, teamID int, logoKey *string) error {
	team, ok := r.teams[teamID]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	team.LogoKey = logoKey
	return nil
}

func (r *fakeTeamRepo) ListByGameName(ctx context.Context, gameName string) ([]models.Team, error) {
	var result []models.Team
	for _, team := range r.sorted() {
		if strings.Contains(strings.ToLower(team.GameName), strings.ToLower(gameName)) {
			result = append(result, team)
		}
	}
	return result, nil
}

func (r *fakeTeamRepo) ListByTournamentName(ctx context.Context, tournamentName string) ([]models.Team, error) {
	return r.byTournamentName[tournamentName], nil
}

func (r *fakeTeamRepo) ListAll(ctx context.Context) ([]models.Team, error) {
	return r.sorted(), nil
}

func (r *fakeTeamRepo) sorted() []models.Team {
	ids := make([]int, 0, len(r.teams))
	for id := range r.teams {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result := make([]models.Team, 0, len(ids))
	for _, id := range ids {
		result = append(result, *r.teams[id])
	}
	return result
}

type fakePlayerRepo struct {
	nextID    int
	players   map[int]*models.Player
	createErr error
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{nextID: 1, players: make(map[int]*models.Player)}
}

func (r *fakePlayerRepo) Create(ctx context.Context, exec repositories.SQLExecutor, player *models.Player) error {
	if r.createErr != nil {
		return r.createErr
	}
	player.ID = r.nextID
	r.nextID++
	saved := *player
	r.players[player.ID] = &saved
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *player
	return &copied, nil
}

func (r *fakePlayerRepo) UpdateName(ctx context.Context, id int, name string) error {
	player, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	player.Name = name
	return nil
}

func (r *fakePlayerRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.players[id]; !ok {
		return repositories.ErrPlayerNotFound
	}
	delete(r.players, id)
	return nil
}

func (r *fakePlayerRepo) ListByTeamID(ctx context.Context, teamID int) ([]models.Player, error) {
	var result []models.Player
	ids := make([]int, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if r.players[id].TeamID == teamID {
			result = append(result, *r.players[id])
		}
	}
	return result, nil
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{nextID: 1, tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) add(t models.Tournament) models.Tournament {
	if t.ID == 0 {
		t.ID = r.nextID
		r.nextID++
	} else if t.ID >= r.nextID {
		r.nextID = t.ID + 1
	}
	saved := t
	r.tournaments[t.ID] = &saved
	return t
}

func (r *fakeTournamentRepo) Create(ctx context.Context, tournament *models.Tournament) error {
	tournament.ID = r.nextID
	r.nextID++
	tournament.CreatedAt = time.Now()
	saved := *tournament
	r.tournaments[tournament.ID] = &saved
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	var result []models.Tournament
	for _, t := range r.sorted() {
		if !filter.IncludeArchived && t.Archived {
			continue
		}
		if !filter.IncludeHidden && t.Hidden {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (r *fakeTournamentRepo) ListUpcoming(ctx context.Context, now time.Time) ([]models.Tournament, error) {
	var result []models.Tournament
	for _, t := range r.sorted() {
		if !t.Archived && !t.Hidden && !t.Date.Before(now) {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, tournament *models.Tournament) error {
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	saved := *tournament
	r.tournaments[tournament.ID] = &saved
	return nil
}

func (r *fakeTournamentRepo) SetHidden(ctx context.Context, id int, hidden bool) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Hidden = hidden
	return nil
}

func (r *fakeTournamentRepo) FindOpenByLocation(ctx context.Context, location string, now time.Time) (*models.Tournament, error) {
	var found *models.Tournament
	for _, t := range r.sorted() {
		if t.Location != location || !t.IsOpen(now) {
			continue
		}
		copied := t
		if found == nil || copied.Date.After(found.Date) {
			found = &copied
		}
	}
	if found == nil {
		return nil, repositories.ErrTournamentNotFound
	}
	return found, nil
}

func (r *fakeTournamentRepo) ListExpired(ctx context.Context, exec repositories.SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	var result []*models.Tournament
	for _, t := range r.sorted() {
		if !t.Archived && t.Date.Before(now) {
			copied := t
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (r *fakeTournamentRepo) MarkArchived(ctx context.Context, exec repositories.SQLExecutor, id int) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Archived = true
	t.Hidden = true
	return nil
}

func (r *fakeTournamentRepo) ListGameNames(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var names []string
	for _, t := range r.sorted() {
		if !seen[t.GameName] {
			seen[t.GameName] = true
			names = append(names, t.GameName)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *fakeTournamentRepo) sorted() []models.Tournament {
	ids := make([]int, 0, len(r.tournaments))
	for id := range r.tournaments {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	result := make([]models.Tournament, 0, len(ids))
	for _, id := range ids {
		result = append(result, *r.tournaments[id])
	}
	return result
}

type fakeRegistrationRepo struct {
	nextID        int
	registrations map[int]*models.Registration
	tournaments   *fakeTournamentRepo
	teams         *fakeTeamRepo

	updateStatusErr error
}

func newFakeRegistrationRepo(tournaments *fakeTournamentRepo, teams *fakeTeamRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		nextID:        1,
		registrations: make(map[int]*models.Registration),
		tournaments:   tournaments,
		teams:         teams,
	}
}

func (r *fakeRegistrationRepo) add(reg models.Registration) models.Registration {
	if reg.ID == 0 {
		reg.ID = r.nextID
		r.nextID++
	} else if reg.ID >= r.nextID {
		r.nextID = reg.ID + 1
	}
	saved := reg
	r.registrations[reg.ID] = &saved
	return reg
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	for _, existing := range r.registrations {
		if existing.TeamID == reg.TeamID && existing.TournamentID == reg.TournamentID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = r.nextID
	r.nextID++
	reg.CreatedAt = time.Now()
	saved := *reg
	r.registrations[reg.ID] = &saved
	return nil
}

func (r *fakeRegistrationRepo) GetByID(ctx context.Context, id int) (*models.Registration, error) {
	reg, ok := r.registrations[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) GetWithDetails(ctx context.Context, id int) (*models.Registration, error) {
	reg, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if team, ok := r.teams.teams[reg.TeamID]; ok {
		copied := *team
		reg.Team = &copied
	}
	if tournament, ok := r.tournaments.tournaments[reg.TournamentID]; ok {
		copied := *tournament
		reg.Tournament = &copied
	}
	return reg, nil
}

func (r *fakeRegistrationRepo) ExistsByTeamAndTournament(ctx context.Context, teamID, tournamentID int) (bool, error) {
	for _, reg := range r.registrations {
		if reg.TeamID == teamID && reg.TournamentID == tournamentID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistrationRepo) HasApprovedOnOpenTournament(ctx context.Context, teamID, excludeTournamentID int, now time.Time) (bool, error) {
	for _, reg := range r.registrations {
		if reg.TeamID != teamID || reg.TournamentID == excludeTournamentID || reg.Status != models.RegistrationApproved {
			continue
		}
		if t, ok := r.tournaments.tournaments[reg.TournamentID]; ok && t.IsOpen(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.RegistrationStatus) error {
	if r.updateStatusErr != nil {
		return r.updateStatusErr
	}
	reg, ok := r.registrations[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

func (r *fakeRegistrationRepo) ArchiveApprovedByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int64, error) {
	var affected int64
	for _, reg := range r.registrations {
		if reg.TournamentID == tournamentID && reg.Status == models.RegistrationApproved {
			reg.Status = models.RegistrationArchived
			affected++
		}
	}
	return affected, nil
}

func (r *fakeRegistrationRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.Registration, error) {
	var result []models.Registration
	ids := make([]int, 0, len(r.registrations))
	for id := range r.registrations {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if r.registrations[id].TournamentID == tournamentID {
			result = append(result, *r.registrations[id])
		}
	}
	return result, nil
}

type fakeAuditRepo struct {
	nextID    int
	entries   []models.AuditLog
	createErr error
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{nextID: 1}
}

func (r *fakeAuditRepo) Create(ctx context.Context, exec repositories.SQLExecutor, entry *models.AuditLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	entry.ID = r.nextID
	r.nextID++
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error) {
	total := len(r.entries)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return nil, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	page := make([]models.AuditLog, end-start)
	copy(page, r.entries[start:end])
	return page, total, nil
}

func (r *fakeAuditRepo) ListAll(ctx context.Context) ([]models.AuditLog, error) {
	result := make([]models.AuditLog, len(r.entries))
	copy(result, r.entries)
	return result, nil
}

func (r *fakeAuditRepo) byAction(action string) []models.AuditLog {
	var result []models.AuditLog
	for _, entry := range r.entries {
		if entry.Action == action {
			result = append(result, entry)
		}
	}
	return result
}

type fakeSnapshotRepo struct {
	saved   map[string]*models.RankSnapshot
	saveErr error
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{saved: make(map[string]*models.RankSnapshot)}
}

func (r *fakeSnapshotRepo) Save(ctx context.Context, exec repositories.SQLExecutor, scope string, computedAt time.Time, entries []models.TeamRank) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := make([]models.TeamRank, len(entries))
	copy(copied, entries)
	r.saved[scope] = &models.RankSnapshot{Scope: scope, ComputedAt: computedAt, Entries: copied}
	return nil
}

func (r *fakeSnapshotRepo) GetLatest(ctx context.Context, scope string) (*models.RankSnapshot, error) {
	snapshot, ok := r.saved[scope]
	if !ok {
		return &models.RankSnapshot{Scope: scope, Entries: make([]models.TeamRank, 0)}, nil
	}
	return snapshot, nil
}
