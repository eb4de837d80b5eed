package models

import "time"

// Player не существует вне команды: удаление команды каскадно удаляет игроков.
type Player struct {
	ID       int       `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	TeamID   int       `json:"team_id" db:"team_id"`
	JoinDate time.Time `json:"join_date" db:"join_date"`
}
