package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/esportshub/esports-hub/models"
)

func newRegistrationFixture() (*fakeTeamRepo, *fakeTournamentRepo, *fakeRegistrationRepo, *fakeAuditRepo, RegistrationService) {
	teamRepo := newFakeTeamRepo()
	tournamentRepo := newFakeTournamentRepo()
	regRepo := newFakeRegistrationRepo(tournamentRepo, teamRepo)
	auditRepo := newFakeAuditRepo()
	svc := NewRegistrationService(&fakeTxManager{}, regRepo, teamRepo, tournamentRepo, auditRepo)
	return teamRepo, tournamentRepo, regRepo, auditRepo, svc
}

func TestRegisterTeamForTournament(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending registration", func(t *testing.T) {
		teamRepo, tournamentRepo, regRepo, _, svc := newRegistrationFixture()
		team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
		tournament := tournamentRepo.add(models.Tournament{
			Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
		})

		reg, err := svc.RegisterTeamForTournament(ctx, team.ID, "Berlin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reg.Status != models.RegistrationPending {
			t.Errorf("status = %q, want %q", reg.Status, models.RegistrationPending)
		}
		if reg.TournamentID != tournament.ID {
			t.Errorf("tournament_id = %d, want %d", reg.TournamentID, tournament.ID)
		}
		if len(regRepo.registrations) != 1 {
			t.Errorf("stored registrations = %d, want 1", len(regRepo.registrations))
		}
	})

	t.Run("picks latest open tournament at the venue", func(t *testing.T) {
		teamRepo, tournamentRepo, _, _, svc := newRegistrationFixture()
		team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
		tournamentRepo.add(models.Tournament{
			Name: "Berlin Open", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(24 * time.Hour), MaxTeams: 16,
		})
		latest := tournamentRepo.add(models.Tournament{
			Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(72 * time.Hour), MaxTeams: 16,
		})

		reg, err := svc.RegisterTeamForTournament(ctx, team.ID, "Berlin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reg.TournamentID != latest.ID {
			t.Errorf("tournament_id = %d, want latest %d", reg.TournamentID, latest.ID)
		}
	})

	t.Run("no open tournament at venue", func(t *testing.T) {
		teamRepo, tournamentRepo, _, _, svc := newRegistrationFixture()
		team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
		// Прошедший и скрытый турниры не считаются открытыми.
		tournamentRepo.add(models.Tournament{
			Name: "Old Major", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(-24 * time.Hour), MaxTeams: 16,
		})
		tournamentRepo.add(models.Tournament{
			Name: "Secret Cup", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(24 * time.Hour), MaxTeams: 16, Hidden: true,
		})

		_, err := svc.RegisterTeamForTournament(ctx, team.ID, "Berlin")
		if !errors.Is(err, ErrTournamentNotFound) {
			t.Fatalf("error = %v, want ErrTournamentNotFound", err)
		}
	})

	t.Run("game mismatch", func(t *testing.T) {
		teamRepo, tournamentRepo, _, _, svc := newRegistrationFixture()
		team := teamRepo.add(models.Team{Name: "Navi", GameName: "Dota 2", CaptainID: 1})
		tournamentRepo.add(models.Tournament{
			Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
		})

		_, err := svc.RegisterTeamForTournament(ctx, team.ID, "Berlin")
		if !errors.Is(err, ErrGameMismatch) {
			t.Fatalf("error = %v, want ErrGameMismatch", err)
		}
	})

	t.Run("approved on another open tournament", func(t *testing.T) {
		teamRepo, tournamentRepo, regRepo, _, svc := newRegistrationFixture()
		team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
		other := tournamentRepo.add(models.Tournament{
			Name: "Cologne Cup", GameName: "CS2", Location: "Cologne",
			Date: time.Now().Add(24 * time.Hour), MaxTeams: 16,
		})
		tournamentRepo.add(models.Tournament{
			Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
		})
		regRepo.add(models.Registration{
			TournamentID: other.ID, TeamID: team.ID, Status: models.RegistrationApproved,
		})

		_, err := svc.RegisterTeamForTournament(ctx, team.ID, "Berlin")
		if !errors.Is(err, ErrAlreadyApprovedElsewhere) {
			t.Fatalf("error = %v, want ErrAlreadyApprovedElsewhere", err)
		}
	})

	t.Run("approved on archived tournament does not block", func(t *testing.T) {
		teamRepo, tournamentRepo, regRepo, _, svc := newRegistrationFixture()
		team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
		closed := tournamentRepo.add(models.Tournament{
			Name: "Cologne Cup", GameName: "CS2", Location: "Cologne",
			Date: time.Now().Add(-24 * time.Hour), MaxTeams: 16, Archived: true,
		})
		tournamentRepo.add(models.Tournament{
			Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
		})
		regRepo.add(models.Registration{
			TournamentID: closed.ID, TeamID: team.ID, Status: models.RegistrationArchived,
		})

		if _, err := svc.RegisterTeamForTournament(ctx, team.ID, "Berlin"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("duplicate registration", func(t *testing.T) {
		teamRepo, tournamentRepo, regRepo, _, svc := newRegistrationFixture()
		team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
		tournament := tournamentRepo.add(models.Tournament{
			Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
			Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
		})
		regRepo.add(models.Registration{
			TournamentID: tournament.ID, TeamID: team.ID, Status: models.RegistrationPending,
		})

		_, err := svc.RegisterTeamForTournament(ctx, team.ID, "Berlin")
		if !errors.Is(err, ErrDuplicateRegistration) {
			t.Fatalf("error = %v, want ErrDuplicateRegistration", err)
		}
	})

	t.Run("unknown team", func(t *testing.T) {
		_, _, _, _, svc := newRegistrationFixture()
		_, err := svc.RegisterTeamForTournament(ctx, 99, "Berlin")
		if !errors.Is(err, ErrTeamNotFound) {
			t.Fatalf("error = %v, want ErrTeamNotFound", err)
		}
	})
}

func TestApproveRegistrationWritesAudit(t *testing.T) {
	ctx := context.Background()
	teamRepo, tournamentRepo, regRepo, auditRepo, svc := newRegistrationFixture()

	team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
	tournament := tournamentRepo.add(models.Tournament{
		Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
		Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
	})
	reg := regRepo.add(models.Registration{
		TournamentID: tournament.ID, TeamID: team.ID, Status: models.RegistrationPending,
	})

	updated, err := svc.ApproveRegistration(ctx, reg.ID, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.RegistrationApproved {
		t.Errorf("status = %q, want approved", updated.Status)
	}

	entries := auditRepo.byAction(models.AuditActionApproveRegistration)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	entry := entries[0]
	if entry.UserID == nil || *entry.UserID != 7 {
		t.Errorf("audit user_id = %v, want 7", entry.UserID)
	}
	if entry.TargetID != reg.ID {
		t.Errorf("audit target_id = %d, want %d", entry.TargetID, reg.ID)
	}

	var snapshot models.RegistrationSnapshot
	if err := json.Unmarshal(entry.Details, &snapshot); err != nil {
		t.Fatalf("failed to decode details: %v", err)
	}
	if snapshot.TeamName != "Navi" || snapshot.TournamentName != "Berlin Major" {
		t.Errorf("snapshot = %+v, want denormalized names", snapshot)
	}
}

func TestApproveRegistrationKeepsStatusWhenAuditFails(t *testing.T) {
	ctx := context.Background()
	teamRepo := newFakeTeamRepo()
	tournamentRepo := newFakeTournamentRepo()
	regRepo := newFakeRegistrationRepo(tournamentRepo, teamRepo)
	auditRepo := newFakeAuditRepo()
	auditRepo.createErr = errors.New("audit insert failed")

	txManager := &revertingTxManager{snapshot: func() func() {
		before := make(map[int]models.Registration, len(regRepo.registrations))
		for id, reg := range regRepo.registrations {
			before[id] = *reg
		}
		return func() {
			regRepo.registrations = make(map[int]*models.Registration, len(before))
			for id, reg := range before {
				saved := reg
				regRepo.registrations[id] = &saved
			}
		}
	}}
	svc := NewRegistrationService(txManager, regRepo, teamRepo, tournamentRepo, auditRepo)

	team := teamRepo.add(models.Team{Name: "Navi", GameName: "CS2", CaptainID: 1})
	tournament := tournamentRepo.add(models.Tournament{
		Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
		Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
	})
	reg := regRepo.add(models.Registration{
		TournamentID: tournament.ID, TeamID: team.ID, Status: models.RegistrationPending,
	})

	if _, err := svc.ApproveRegistration(ctx, reg.ID, 7); err == nil {
		t.Fatal("expected error when audit write fails")
	}
	if txManager.calls != 1 {
		t.Errorf("tx manager calls = %d, want 1", txManager.calls)
	}
	stored := regRepo.registrations[reg.ID]
	if stored.Status != models.RegistrationPending {
		t.Errorf("status = %q, want pending after rolled back approval", stored.Status)
	}
	if len(auditRepo.entries) != 0 {
		t.Errorf("audit entries = %d, want 0", len(auditRepo.entries))
	}
}

func TestRejectRegistrationNotFound(t *testing.T) {
	_, _, _, _, svc := newRegistrationFixture()
	_, err := svc.RejectRegistration(context.Background(), 404, 1)
	if !errors.Is(err, ErrRegistrationNotFound) {
		t.Fatalf("error = %v, want ErrRegistrationNotFound", err)
	}
}
