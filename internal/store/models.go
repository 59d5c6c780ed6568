package store

import (
	"time"

	"github.com/DoyleJ11/brawlbracket-backend/internal/bracket"
	"github.com/google/uuid"
)

type TournamentRecord struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShortName   string    `gorm:"size:64;uniqueIndex;not null"`
	Name        string    `gorm:"not null"`
	Description string
	Style       string `gorm:"size:32"`
	StartTime   *time.Time
	CheckInTime *time.Time
	Admins      []uuid.UUID `gorm:"serializer:json"`
	BestOf      int
	FinalBestOf int
	Ruleset     string    `gorm:"size:32"`
	RealmPool   []string  `gorm:"serializer:json"`
	Legends     []string  `gorm:"serializer:json"`
	Root        uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (TournamentRecord) TableName() string { return "tournaments" }

type TeamRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	TournamentID uuid.UUID `gorm:"type:uuid;index;not null"`
	Seed         int
	Name         string
	Eliminated   bool
	CheckedIn    bool
}

func (TeamRecord) TableName() string { return "teams" }

type PlayerRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TournamentID  uuid.UUID `gorm:"type:uuid;index;not null"`
	TeamID        uuid.UUID `gorm:"type:uuid;index;not null"`
	Position      int       // order within the team
	UserID        uuid.UUID `gorm:"type:uuid;index"`
	UserName      string
	Avatar        string
	CurrentLegend string     `gorm:"size:32"`
	AdminChatID   *uuid.UUID `gorm:"type:uuid"`
}

func (PlayerRecord) TableName() string { return "players" }

type MatchRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	TournamentID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Round          int
	Number         int
	Prereqs        [2]uuid.UUID `gorm:"serializer:json"`
	Teams          [2]uuid.UUID `gorm:"serializer:json"`
	Score          [2]int       `gorm:"serializer:json"`
	BestOf         int
	Winner         uuid.UUID     `gorm:"type:uuid"`
	State          bracket.State `gorm:"serializer:json"`
	RealmBans      []string      `gorm:"serializer:json"`
	CurrentRealm   string        `gorm:"size:32"`
	RoomNumber     *int
	StartTime      *time.Time
	ChatID         uuid.UUID `gorm:"type:uuid"`
	Ruleset        string    `gorm:"size:32"`
	SettledGames   int
	LastGameWinner int
	UpdatedAt      time.Time
}

func (MatchRecord) TableName() string { return "matches" }

func tournamentRecord(t *bracket.Tournament) *TournamentRecord {
	return &TournamentRecord{
		ID:          t.ID,
		ShortName:   t.ShortName,
		Name:        t.Name,
		Description: t.Description,
		Style:       string(t.Style),
		StartTime:   t.StartTime,
		CheckInTime: t.CheckInTime,
		Admins:      t.Admins,
		BestOf:      t.BestOf,
		FinalBestOf: t.FinalBestOf,
		Ruleset:     t.Ruleset,
		RealmPool:   t.RealmPool,
		Legends:     t.Legends,
		Root:        t.Root,
	}
}

func teamRecord(tournamentID uuid.UUID, team *bracket.Team) *TeamRecord {
	return &TeamRecord{
		ID:           team.ID,
		TournamentID: tournamentID,
		Seed:         team.Seed,
		Name:         team.Name,
		Eliminated:   team.Eliminated,
		CheckedIn:    team.CheckedIn,
	}
}

func playerRecord(tournamentID uuid.UUID, position int, p *bracket.Player) *PlayerRecord {
	return &PlayerRecord{
		ID:            p.ID,
		TournamentID:  tournamentID,
		TeamID:        p.TeamID,
		Position:      position,
		UserID:        p.User.ID,
		UserName:      p.User.Name,
		Avatar:        p.User.Avatar,
		CurrentLegend: p.CurrentLegend,
		AdminChatID:   p.AdminChatID,
	}
}

func matchRecord(tournamentID uuid.UUID, m *bracket.Match) *MatchRecord {
	return &MatchRecord{
		ID:             m.ID,
		TournamentID:   tournamentID,
		Round:          m.Round,
		Number:         m.Number,
		Prereqs:        m.Prereqs,
		Teams:          m.Teams,
		Score:          m.Score,
		BestOf:         m.BestOf,
		Winner:         m.Winner,
		State:          m.State,
		RealmBans:      m.RealmBans,
		CurrentRealm:   m.CurrentRealm,
		RoomNumber:     m.RoomNumber,
		StartTime:      m.StartTime,
		ChatID:         m.ChatID,
		Ruleset:        m.Ruleset,
		SettledGames:   m.SettledGames,
		LastGameWinner: m.LastGameWinner,
	}
}

func (r *MatchRecord) match() *bracket.Match {
	bans := r.RealmBans
	if bans == nil {
		bans = []string{}
	}
	return &bracket.Match{
		ID:             r.ID,
		Round:          r.Round,
		Number:         r.Number,
		Prereqs:        r.Prereqs,
		Teams:          r.Teams,
		Score:          r.Score,
		BestOf:         r.BestOf,
		Winner:         r.Winner,
		State:          r.State,
		RealmBans:      bans,
		CurrentRealm:   r.CurrentRealm,
		RoomNumber:     r.RoomNumber,
		StartTime:      r.StartTime,
		ChatID:         r.ChatID,
		Ruleset:        r.Ruleset,
		SettledGames:   r.SettledGames,
		LastGameWinner: r.LastGameWinner,
	}
}
