package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"docvault-be/internal/entity"
	"docvault-be/internal/repository/specification"
	"docvault-be/internal/repository/unitofwork"
	"docvault-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.OrganizationRepository())
	assert.NotNil(t, uow.DocumentRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Document Repository", func(t *testing.T) {
		count, err := uow.DocumentRepository().Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", count)
	})

	t.Run("Check Membership Round Trip", func(t *testing.T) {
		org := &entity.Organization{
			Name:   "Integration Org " + uuid.New().String(),
			Active: true,
		}
		err := uow.OrganizationRepository().Create(context.Background(), org)
		assert.NoError(t, err)

		party := &entity.Party{
			DisplayName: "Integration Party",
			ExternalRef: "it:" + uuid.New().String(),
			Role:        "user",
			Active:      true,
		}
		err = uow.PartyRepository().Create(context.Background(), party)
		assert.NoError(t, err)

		member := &entity.OrganizationMember{
			PartyId:        party.Id,
			OrganizationId: org.Id,
			Role:           "member",
		}
		err = uow.MemberRepository().Create(context.Background(), member)
		assert.NoError(t, err)

		memberships, err := uow.MemberRepository().FindMemberships(context.Background(), party.Id)
		assert.NoError(t, err)
		assert.Len(t, memberships, 1)
		if assert.NotNil(t, memberships[0].Organization) {
			assert.Equal(t, org.Name, memberships[0].Organization.Name)
		}

		// Cleanup
		_ = uow.MemberRepository().Delete(context.Background(), member.Id)
		_ = uow.OrganizationRepository().Delete(context.Background(), org.Id)
	})

	t.Run("Check Session Upsert", func(t *testing.T) {
		party := &entity.Party{
			DisplayName: "Session Party",
			ExternalRef: "it-session:" + uuid.New().String(),
			Role:        "user",
			Active:      true,
		}
		err := uow.PartyRepository().Create(context.Background(), party)
		assert.NoError(t, err)

		conversationID := "it-conv-" + uuid.New().String()
		s := &entity.DialogueSession{
			ConversationId: conversationID,
			PartyId:        party.Id,
			Intent:         "retrieve",
			State:          "collecting",
			ExpiresAt:      time.Now().Add(time.Hour),
		}
		err = uow.DialogueSessionRepository().Create(context.Background(), s)
		assert.NoError(t, err)

		found, err := uow.DialogueSessionRepository().FindOne(context.Background(),
			specification.ByConversationID{ConversationID: conversationID},
		)
		assert.NoError(t, err)
		if assert.NotNil(t, found) {
			assert.Equal(t, "retrieve", found.Intent)
		}

		// Cleanup
		err = uow.DialogueSessionRepository().DeleteByConversationId(context.Background(), conversationID)
		assert.NoError(t, err)
	})
}
