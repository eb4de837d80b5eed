package models

import "time"

// Tournament представляет турнир на фиксированной площадке (location).
// Архивный турнир исключён из регистрации и из списка предстоящих;
// hidden дополнительно убирает турнир из публичной выдачи без архивации.
type Tournament struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	GameName  string    `json:"game_name" db:"game_name"`
	Location  string    `json:"location" db:"location"`
	Date      time.Time `json:"date" db:"date"`
	MaxTeams  int       `json:"max_teams" db:"max_teams"`
	Archived  bool      `json:"archived" db:"archived"`
	Hidden    bool      `json:"hidden" db:"hidden"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Registrations []Registration `json:"registrations,omitempty" db:"-"`
}

// IsOpen сообщает, открыт ли турнир для регистрации на момент now.
func (t Tournament) IsOpen(now time.Time) bool {
	return !t.Archived && !t.Hidden && t.Date.After(now)
}
