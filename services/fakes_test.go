package services

import (
	"context"
	"sort"

	"github.com/tilewise/scrabble-director/models"
	"github.com/tilewise/scrabble-director/repositories"
)

// In-memory repository fakes shared by the service tests.

type fakeTournamentRepo struct {
	tournaments map[int]*models.Tournament
	nextID      int
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: map[int]*models.Tournament{}, nextID: 1}
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	t.ID = r.nextID
	r.nextID++
	clone := *t
	r.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTournamentRepo) List(ctx context.Context, status *models.TournamentStatus) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if status != nil && t.Status != *status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	if _, ok := r.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	clone := *t
	r.tournaments[t.ID] = &clone
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, id int, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakePlayerRepo struct {
	players map[int]*models.Player
	nextID  int
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: map[int]*models.Player{}, nextID: 1}
}

func (r *fakePlayerRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Player) error {
	p.ID = r.nextID
	r.nextID++
	clone := *p
	r.players[p.ID] = &clone
	return nil
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, id int) (*models.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakePlayerRepo) ListByTournament(ctx context.Context, tournamentID int, status *models.PlayerStatus) ([]*models.Player, error) {
	var out []*models.Player
	for _, p := range r.players {
		if p.TournamentID != tournamentID {
			continue
		}
		if status != nil && p.Status != *status {
			continue
		}
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	return out, nil
}

func (r *fakePlayerRepo) Update(ctx context.Context, p *models.Player) error {
	if _, ok := r.players[p.ID]; !ok {
		return repositories.ErrPlayerNotFound
	}
	clone := *p
	r.players[p.ID] = &clone
	return nil
}

func (r *fakePlayerRepo) UpdateStatus(ctx context.Context, id int, status models.PlayerStatus) error {
	p, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Status = status
	return nil
}

func (r *fakePlayerRepo) AppendByeRound(ctx context.Context, exec repositories.SQLExecutor, id, round int) error {
	p, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.ByeRounds = append(p.ByeRounds, round)
	return nil
}

type fakeMatchRepo struct {
	matches map[int]*models.Match
	nextID  int
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: map[int]*models.Match{}, nextID: 1}
}

func (r *fakeMatchRepo) Create(ctx context.Context, exec repositories.SQLExecutor, m *models.Match) error {
	m.ID = r.nextID
	r.nextID++
	clone := *m
	r.matches[m.ID] = &clone
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	clone := *m
	return &clone, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int, status *models.MatchStatus) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		clone := *m
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) CountPending(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) (int, error) {
	count := 0
	for _, m := range r.matches {
		if m.TournamentID == tournamentID && m.Round == round && m.Status == models.MatchPending {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) UpdateScore(ctx context.Context, m *models.Match) error {
	if _, ok := r.matches[m.ID]; !ok {
		return repositories.ErrMatchNotFound
	}
	clone := *m
	r.matches[m.ID] = &clone
	return nil
}

type fakeSnapshotRepo struct {
	snapshots map[int]map[int]*models.StandingsSnapshot // tournament -> round
}

func newFakeSnapshotRepo() *fakeSnapshotRepo {
	return &fakeSnapshotRepo{snapshots: map[int]map[int]*models.StandingsSnapshot{}}
}

func (r *fakeSnapshotRepo) Upsert(ctx context.Context, exec repositories.SQLExecutor, s *models.StandingsSnapshot) error {
	if r.snapshots[s.TournamentID] == nil {
		r.snapshots[s.TournamentID] = map[int]*models.StandingsSnapshot{}
	}
	clone := *s
	r.snapshots[s.TournamentID][s.Round] = &clone
	return nil
}

func (r *fakeSnapshotRepo) GetByRound(ctx context.Context, tournamentID, round int) (*models.StandingsSnapshot, error) {
	s, ok := r.snapshots[tournamentID][round]
	if !ok {
		return nil, repositories.ErrSnapshotNotFound
	}
	clone := *s
	return &clone, nil
}

type fakeUserRepo struct {
	users  map[int]*models.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}, nextID: 1}
}

func (r *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	u.ID = r.nextID
	r.nextID++
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, u *models.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id int) error {
	delete(r.users, id)
	return nil
}
