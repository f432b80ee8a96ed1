package bootstrap

import (
	"context"
	"log"

	"docvault-be/internal/config"
	"docvault-be/internal/controller"
	"docvault-be/internal/pkg/logger"
	"docvault-be/internal/repository/implementation"
	"docvault-be/internal/repository/unitofwork"
	"docvault-be/internal/service"
	"docvault-be/pkg/dialogue/engine"
	"docvault-be/pkg/dialogue/extract"
	"docvault-be/pkg/dialogue/period"
	"docvault-be/pkg/dialogue/scope"
	"docvault-be/pkg/dialogue/session"
	"docvault-be/pkg/lock"
	"docvault-be/pkg/llm/factory"
	"docvault-be/pkg/storage"

	pktNats "docvault-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// topicTurnCompleted is the in-process topic the conversation log consumer
// drains.
const topicTurnCompleted = "dialogue.turn.completed"

type Container struct {
	// Controllers
	DialogueController controller.IDialogueController
	DocumentController controller.IDocumentController
	AdminController    controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	AuditService    service.IAuditService

	// Engine is exposed for the session sweeper.
	Engine *engine.Engine

	// Signer is exposed for the /files token check.
	Signer *storage.URLSigner

	// NATS connections, closed on shutdown.
	NatsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	sysLogger.Info("bootstrap", "Container wiring started", nil)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		// Turns degrade to guided menus without the oracle, so boot anyway.
		log.Printf("[WARN] Failed to initialize LLM Provider: %v (guided mode only)", err)
		llmProvider = nil
	} else {
		log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	}

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		natsPub = nil
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		natsSub = nil
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)

	var locker lock.Locker
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Using in-process lock", err)
		locker = lock.NewLocalLocker()
	} else {
		locker = lock.NewRedisLocker(rdb, "dialogue")
	}

	// 3. Dialogue Core
	stdLogger := log.Default()

	sessionRepo := implementation.NewDialogueSessionRepository(db)
	sessionManager := session.NewManager(sessionRepo, locker, cfg.Dialogue.SessionTTL, stdLogger)

	extractor := extract.NewExtractor(llmProvider, stdLogger)
	periodResolver := period.NewResolver(llmProvider, stdLogger)

	accessChecker := service.NewAccessChecker(uowFactory)
	scopeResolver := scope.NewResolver(accessChecker, stdLogger)

	documentStore := service.NewDocumentStore(uowFactory)
	signer := storage.NewURLSigner(
		cfg.Storage.PublicBaseURL,
		cfg.Storage.SignedURLSecret,
		cfg.Storage.SignedURLTTL,
	)

	publisherService := service.NewPublisherService(topicTurnCompleted, pubSub)
	eventSink := service.NewEventSink(publisherService, natsPub)

	dialogueEngine := engine.New(
		sessionManager,
		extractor,
		periodResolver,
		scopeResolver,
		documentStore,
		signer,
		eventSink,
		engine.Config{
			ConfidenceThreshold: cfg.Dialogue.ConfidenceThreshold,
			MaxResults:          cfg.Dialogue.MaxResults,
			AskOrganizationLast: cfg.Dialogue.AskOrganizationLast,
			HistoryDepth:        cfg.Dialogue.HistoryDepth,
		},
		stdLogger,
	)

	// 4. Services
	consumerService := service.NewConsumerService(pubSub, topicTurnCompleted, uowFactory)
	dialogueService := service.NewDialogueService(dialogueEngine)
	documentService := service.NewDocumentService(uowFactory, scopeResolver, signer)
	adminService := service.NewAdminService(uowFactory)

	var auditService service.IAuditService
	if natsSub != nil {
		auditService = service.NewAuditService(natsSub, sysLogger)
	}

	// 5. Controllers
	return &Container{
		DialogueController: controller.NewDialogueController(dialogueService),
		DocumentController: controller.NewDocumentController(documentService),
		AdminController:    controller.NewAdminController(adminService),
		ConsumerService:    consumerService,
		AuditService:       auditService,
		Engine:             dialogueEngine,
		Signer:             signer,
		NatsPublisher:      natsPub,
	}
}
