package models

import "time"

type Team struct {
	ID           int       `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	GameName     string    `json:"game_name" db:"game_name"`
	CaptainID    int       `json:"captain_id" db:"captain_id"`
	CaptainPhone *string   `json:"captain_phone,omitempty" db:"captain_phone"`
	Points       int       `json:"points" db:"points"`
	Wins         int       `json:"wins" db:"wins"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`

	// Rank живёт только в памяти: это результат последнего ComputeRankings
	// для конкретного scope, в таблице teams такой колонки нет.
	Rank *int `json:"rank,omitempty" db:"-"`

	Captain       *User          `json:"captain,omitempty" db:"-"`
	Players       []Player       `json:"players,omitempty" db:"-"`
	Registrations []Registration `json:"registrations,omitempty" db:"-"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`
}
