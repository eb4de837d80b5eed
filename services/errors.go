package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed          = errors.New("validation failed")
	ErrPasswordTooShort          = errors.New("password must be at least 7 characters")
	ErrEmailTooShort             = errors.New("email must be greater than 3 characters")
	ErrNameTooShort              = errors.New("first name must be greater than 1 character")
	ErrTeamNameRequired          = errors.New("team name is required")
	ErrTeamGameRequired          = errors.New("team game is required")
	ErrPlayerNameRequired        = errors.New("player name is required")
	ErrTournamentNameRequired    = errors.New("tournament name is required")
	ErrTournamentDateInvalid     = errors.New("tournament date is invalid or not in the future")
	ErrTournamentInvalidCapacity = errors.New("tournament max teams must be positive")

	// Ошибки регистрации на турнир (порядок проверок: существование →
	// совпадение игры → конфликт с другим турниром → дубликат)
	ErrGameMismatch             = errors.New("team game does not match tournament game")
	ErrAlreadyApprovedElsewhere = errors.New("team already holds an approved registration for another open tournament")
	ErrDuplicateRegistration    = errors.New("team is already registered for this tournament")

	// Ошибки конфликтов
	ErrUserEmailConflict = errors.New("email address is already in use")
	ErrTeamNameConflict  = errors.New("team name is already in use")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrCaptainOnly        = errors.New("only the team captain can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound         = errors.New("user not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrPlayerNotFound       = errors.New("player not found")
	ErrTournamentNotFound   = errors.New("no open tournament found for this location")
	ErrRegistrationNotFound = errors.New("registration not found")

	// Загрузка файлов
	ErrUploaderUnavailable = errors.New("file storage is not configured")
)
