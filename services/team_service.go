package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/esportshub/esports-hub/models"
	"github.com/esportshub/esports-hub/repositories"
	"github.com/esportshub/esports-hub/storage"
	"github.com/google/uuid"
)

type CreateTeamInput struct {
	Name         string   `json:"name"`
	GameName     string   `json:"game_name"`
	CaptainPhone *string  `json:"captain_phone,omitempty"`
	Players      []string `json:"players"`
}

type UpdateTeamInput struct {
	Name         string  `json:"name"`
	GameName     string  `json:"game_name"`
	CaptainPhone *string `json:"captain_phone,omitempty"`
}

type TeamService interface {
	CreateTeam(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, teamID int) (*models.Team, error)
	GetTeamByCaptain(ctx context.Context, captainID int) (*models.Team, error)
	UpdateTeam(ctx context.Context, teamID, actorID int, input UpdateTeamInput) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID, actorID int) error
	AddPlayer(ctx context.Context, teamID, actorID int, name string) (*models.Player, error)
	RenamePlayer(ctx context.Context, playerID, actorID int, name string) error
	RemovePlayer(ctx context.Context, playerID, actorID int) error
	UploadLogo(ctx context.Context, teamID, actorID int, contentType string, reader io.Reader) (*models.Team, error)
}

type teamService struct {
	txManager  repositories.TxManager
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
}

func NewTeamService(
	txManager repositories.TxManager,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	uploader storage.FileUploader,
) TeamService {
	return &teamService{
		txManager:  txManager,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		uploader:   uploader,
	}
}

// CreateTeam создаёт команду вместе с полным составом в одной транзакции.
// Уникальность имени регистронезависимая и гарантируется индексом по lower(name).
func (s *teamService) CreateTeam(ctx context.Context, captainID int, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	game := strings.TrimSpace(input.GameName)
	if game == "" {
		return nil, ErrTeamGameRequired
	}
	for _, playerName := range input.Players {
		if strings.TrimSpace(playerName) == "" {
			return nil, ErrPlayerNameRequired
		}
	}

	team := &models.Team{
		Name:         name,
		GameName:     game,
		CaptainID:    captainID,
		CaptainPhone: input.CaptainPhone,
	}

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			return err
		}
		for _, playerName := range input.Players {
			player := &models.Player{
				Name:   strings.TrimSpace(playerName),
				TeamID: team.ID,
			}
			if err := s.playerRepo.Create(ctx, exec, player); err != nil {
				return err
			}
			team.Players = append(team.Players, *player)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	players, err := s.playerRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team roster: %w", err)
	}
	team.Players = players

	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) GetTeamByCaptain(ctx context.Context, captainID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByCaptainID(ctx, captainID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return s.GetTeam(ctx, team.ID)
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID, actorID int, input UpdateTeamInput) (*models.Team, error) {
	team, err := s.requireCaptain(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	game := strings.TrimSpace(input.GameName)
	if game == "" {
		return nil, ErrTeamGameRequired
	}

	team.Name = name
	team.GameName = game
	team.CaptainPhone = input.CaptainPhone

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, err
	}
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, teamID, actorID int) error {
	team, err := s.requireCaptain(ctx, teamID, actorID)
	if err != nil {
		return err
	}

	if err := s.teamRepo.Delete(ctx, team.ID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return err
	}

	if team.LogoKey != nil && s.uploader != nil {
		// Потеря логотипа в хранилище не критична, команду уже удалили.
		_ = s.uploader.Delete(ctx, *team.LogoKey)
	}
	return nil
}

func (s *teamService) AddPlayer(ctx context.Context, teamID, actorID int, name string) (*models.Player, error) {
	if _, err := s.requireCaptain(ctx, teamID, actorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}

	player := &models.Player{Name: name, TeamID: teamID}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (s *teamService) RenamePlayer(ctx context.Context, playerID, actorID int, name string) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if _, err := s.requireCaptain(ctx, player.TeamID, actorID); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return ErrPlayerNameRequired
	}
	return s.playerRepo.UpdateName(ctx, playerID, name)
}

func (s *teamService) RemovePlayer(ctx context.Context, playerID, actorID int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	if _, err := s.requireCaptain(ctx, player.TeamID, actorID); err != nil {
		return err
	}
	return s.playerRepo.Delete(ctx, playerID)
}

func (s *teamService) UploadLogo(ctx context.Context, teamID, actorID int, contentType string, reader io.Reader) (*models.Team, error) {
	team, err := s.requireCaptain(ctx, teamID, actorID)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrUploaderUnavailable
	}

	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	oldKey := team.LogoKey
	key := fmt.Sprintf("teams/%d/logo_%s%s", team.ID, uuid.NewString(), ext)

	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload team logo: %w", err)
	}

	if err := s.teamRepo.UpdateLogoKey(ctx, team.ID, &result.Key); err != nil {
		_ = s.uploader.Delete(ctx, result.Key)
		return nil, err
	}

	if oldKey != nil && *oldKey != result.Key {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	team.LogoKey = &result.Key
	populateTeamLogoURL(team, s.uploader)
	return team, nil
}

func (s *teamService) requireCaptain(ctx context.Context, teamID, actorID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if team.CaptainID != actorID {
		return nil, ErrCaptainOnly
	}
	return team, nil
}
