package models

import (
	"encoding/json"
	"time"
)

// Действия, попадающие в журнал аудита.
const (
	AuditActionApproveRegistration = "approve_registration"
	AuditActionRejectRegistration  = "reject_registration"
	AuditActionArchiveTournament   = "archive_tournament"
	AuditActionAutoArchive         = "auto_archive_tournament"
	AuditActionSaveRankSnapshot    = "save_rank_snapshot"
)

// AuditLog — неизменяемая запись о действии администратора или планировщика.
// UserID == nil означает автоматическое действие. Details хранит денормализованный
// снимок (имена команды/турнира на момент действия), а не ссылки: сущности могут
// быть позже переименованы или заархивированы.
type AuditLog struct {
	ID         int             `json:"id" db:"id"`
	UserID     *int            `json:"user_id,omitempty" db:"user_id"`
	Action     string          `json:"action" db:"action"`
	TargetType string          `json:"target_type" db:"target_type"`
	TargetID   int             `json:"target_id" db:"target_id"`
	Details    json.RawMessage `json:"details,omitempty" db:"details"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// RegistrationSnapshot — содержимое Details для approve/reject.
type RegistrationSnapshot struct {
	TeamName       string `json:"team_name"`
	TournamentName string `json:"tournament_name"`
}

// TournamentSnapshot — содержимое Details для архивации.
type TournamentSnapshot struct {
	TournamentName string    `json:"tournament_name"`
	Location       string    `json:"location"`
	Date           time.Time `json:"date"`
}

type AuditFilter struct {
	Page  int
	Limit int
}

type AuditListResponse struct {
	Entries    []AuditLog `json:"entries"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
}
