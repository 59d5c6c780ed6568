package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("tournament not found")

// Store persists tournaments through gorm. Presence counters are never
// written; every player loads offline.
type Store struct {
	db *gorm.DB
}

// Open connects with the given dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db)
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&TournamentRecord{}, &TeamRecord{}, &PlayerRecord{}, &MatchRecord{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveTournament replaces everything stored for the tournament.
func (s *Store) SaveTournament(ctx context.Context, t *bracket.Tournament) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(tournamentRecord(t)).Error; err != nil {
			return fmt.Errorf("save tournament: %w", err)
		}
		for _, model := range []any{&MatchRecord{}, &PlayerRecord{}, &TeamRecord{}} {
			if err := tx.Where("tournament_id = ?", t.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		for _, team := range t.Teams() {
			if err := saveTeam(tx, t, team); err != nil {
				return err
			}
		}
		for _, m := range t.Matches() {
			if err := tx.Create(matchRecord(t.ID, m)).Error; err != nil {
				return fmt.Errorf("save match %d: %w", m.Number, err)
			}
		}
		return nil
	})
}

// SaveMatches writes the given matches along with the teams and players
// that sit in them.
func (s *Store) SaveMatches(ctx context.Context, t *bracket.Tournament, ids []uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			m := t.Match(id)
			if m == nil {
				return fmt.Errorf("%w: %s", bracket.ErrUnknownMatch, id)
			}
			if err := tx.Save(matchRecord(t.ID, m)).Error; err != nil {
				return fmt.Errorf("save match %d: %w", m.Number, err)
			}
			for _, team := range t.MatchTeams(m) {
				if team == nil {
					continue
				}
				if err := saveTeam(tx, t, team); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func saveTeam(tx *gorm.DB, t *bracket.Tournament, team *bracket.Team) error {
	if err := tx.Save(teamRecord(t.ID, team)).Error; err != nil {
		return fmt.Errorf("save team %s: %w", team, err)
	}
	for i, p := range t.TeamPlayers(team) {
		if err := tx.Save(playerRecord(t.ID, i, p)).Error; err != nil {
			return fmt.Errorf("save player %s: %w", p.User.Name, err)
		}
	}
	return nil
}

// Load rebuilds a tournament by short name and checks it before handing
// it back.
func (s *Store) Load(ctx context.Context, shortName string) (*bracket.Tournament, error) {
	db := s.db.WithContext(ctx)

	var rec TournamentRecord
	if err := db.First(&rec, "short_name = ?", shortName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, shortName)
		}
		return nil, fmt.Errorf("load tournament: %w", err)
	}

	var teamRecs []TeamRecord
	if err := db.Where("tournament_id = ?", rec.ID).Order("seed").Find(&teamRecs).Error; err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	var playerRecs []PlayerRecord
	if err := db.Where("tournament_id = ?", rec.ID).Order("team_id, position").Find(&playerRecs).Error; err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	var matchRecs []MatchRecord
	if err := db.Where("tournament_id = ?", rec.ID).Order("number").Find(&matchRecs).Error; err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}

	t := bracket.NewTournament(rec.ShortName, rec.Name)
	t.ID = rec.ID
	t.Description = rec.Description
	t.Style = bracket.Style(rec.Style)
	t.StartTime = rec.StartTime
	t.CheckInTime = rec.CheckInTime
	t.Admins = rec.Admins
	t.BestOf = rec.BestOf
	t.FinalBestOf = rec.FinalBestOf
	t.Ruleset = rec.Ruleset
	t.RealmPool = rec.RealmPool
	t.Legends = rec.Legends

	teams := make([]*bracket.Team, 0, len(teamRecs))
	for _, r := range teamRecs {
		teams = append(teams, &bracket.Team{
			ID:         r.ID,
			Seed:       r.Seed,
			Name:       r.Name,
			Eliminated: r.Eliminated,
			CheckedIn:  r.CheckedIn,
		})
	}
	players := make([]*bracket.Player, 0, len(playerRecs))
	for _, r := range playerRecs {
		players = append(players, &bracket.Player{
			ID:            r.ID,
			TeamID:        r.TeamID,
			User:          bracket.User{ID: r.UserID, Name: r.UserName, Avatar: r.Avatar},
			CurrentLegend: r.CurrentLegend,
			AdminChatID:   r.AdminChatID,
		})
	}
	matches := make([]*bracket.Match, 0, len(matchRecs))
	for i := range matchRecs {
		matches = append(matches, matchRecs[i].match())
	}

	if err := bracket.Restore(t, teams, players, matches); err != nil {
		return nil, fmt.Errorf("restore %s: %w", shortName, err)
	}
	if t.Root != rec.Root {
		return nil, fmt.Errorf("restore %s: %w: stored root %s, derived %s", shortName, bracket.ErrMalformedTree, rec.Root, t.Root)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("restore %s: %w", shortName, err)
	}
	return t, nil
}

// DeleteTournament removes the tournament and everything stored under it.
func (s *Store) DeleteTournament(ctx context.Context, shortName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec TournamentRecord
		if err := tx.First(&rec, "short_name = ?", shortName).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, shortName)
			}
			return fmt.Errorf("find tournament: %w", err)
		}
		for _, model := range []any{&MatchRecord{}, &PlayerRecord{}, &TeamRecord{}} {
			if err := tx.Where("tournament_id = ?", rec.ID).Delete(model).Error; err != nil {
				return fmt.Errorf("delete %T: %w", model, err)
			}
		}
		return tx.Delete(&rec).Error
	})
}

func (s *Store) ShortNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&TournamentRecord{}).Order("short_name").Pluck("short_name", &names).Error
	return names, err
}
