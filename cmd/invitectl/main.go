package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/YotaroKono/sato-api/internal/config"
	"github.com/YotaroKono/sato-api/internal/database"
	"github.com/YotaroKono/sato-api/internal/invite"
	"github.com/YotaroKono/sato-api/internal/services"
	"github.com/google/uuid"
)

// invitectl prints the current invitation link for a group, minting a
// fresh one if none is active. Useful when a household lost its link and
// nobody can open the app to re-share it.
func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: invitectl <group-id>")
		os.Exit(1)
	}

	groupID, err := uuid.Parse(os.Args[1])
	if err != nil {
		log.Fatalf("Invalid group id: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	groupService := services.NewGroupService(db)
	linker := invite.NewLinker(cfg.InviteDomain, cfg.AppScheme)
	invitationService := services.NewInvitationService(db, groupService, linker)

	group, err := groupService.GetByID(ctx, groupID)
	if err != nil {
		log.Fatalf("Failed to load group: %v", err)
	}

	issue, err := invitationService.GetOrCreateInvitation(ctx, groupID)
	if err != nil {
		log.Fatalf("Failed to issue invitation: %v", err)
	}

	fmt.Printf("Group:      %s (%s)\n", group.Name, group.ID)
	fmt.Printf("Link:       %s\n", issue.Link)
	fmt.Printf("App link:   %s\n", issue.SchemeLink)
	fmt.Printf("Expires at: %s\n", issue.Invitation.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
}
