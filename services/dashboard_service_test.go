package services

import (
	"context"
	"testing"
	"time"

	"github.com/esportshub/esports-hub/models"
)

func TestDashboardHome(t *testing.T) {
	ctx := context.Background()

	teamRepo := newFakeTeamRepo()
	tournamentRepo := newFakeTournamentRepo()
	regRepo := newFakeRegistrationRepo(tournamentRepo, teamRepo)
	auditRepo := newFakeAuditRepo()

	rankingService := NewRankingService(&fakeTxManager{}, teamRepo, newFakeSnapshotRepo(), auditRepo)
	tournamentService := NewTournamentService(&fakeTxManager{}, tournamentRepo, regRepo, auditRepo)
	svc := NewDashboardService(rankingService, tournamentService)

	teamRepo.add(models.Team{ID: 1, Name: "Alpha", GameName: "CS2", Points: 10})
	teamRepo.add(models.Team{ID: 2, Name: "Bravo", GameName: "Dota 2", Points: 20})
	tournamentRepo.add(models.Tournament{
		Name: "Berlin Major", GameName: "CS2", Location: "Berlin",
		Date: time.Now().Add(48 * time.Hour), MaxTeams: 16,
	})
	tournamentRepo.add(models.Tournament{
		Name: "The International", GameName: "Dota 2", Location: "Seattle",
		Date: time.Now().Add(96 * time.Hour), MaxTeams: 16,
	})

	t.Run("global scope", func(t *testing.T) {
		view, err := svc.Home(ctx, models.GlobalScope())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(view.Rankings) != 2 {
			t.Errorf("rankings = %d, want 2", len(view.Rankings))
		}
		if view.Rankings[0].Team.Name != "Bravo" {
			t.Errorf("leader = %q, want Bravo", view.Rankings[0].Team.Name)
		}
		if len(view.Tournaments) != 2 {
			t.Errorf("tournaments = %d, want 2", len(view.Tournaments))
		}
		if len(view.Categories) != 2 {
			t.Errorf("categories = %d, want 2", len(view.Categories))
		}
	})

	t.Run("category scope", func(t *testing.T) {
		view, err := svc.Home(ctx, models.CategoryScope("CS2"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(view.Rankings) != 1 || view.Rankings[0].Team.Name != "Alpha" {
			t.Errorf("rankings = %+v, want only Alpha", view.Rankings)
		}
	})
}
