package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/infra/cache"
	"storefront/internal/infra/db"
	"storefront/internal/infra/events"
	infraFS "storefront/internal/infra/firestore"
	"storefront/internal/infra/logger"
	"storefront/internal/infra/mail"
	"storefront/internal/infra/payment"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/infra/secrets"
	"storefront/internal/middleware"
	repo "storefront/internal/repository"
	"storefront/internal/server"
	"storefront/internal/usecase"
	"storefront/internal/validator"
	"storefront/internal/worker"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now().UTC()
}

type eventPublisher interface {
	usecase.EventPublisher
	Close() error
}

func main() {
	//.env は任意
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic(err)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.GoEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	//シークレット（Secret Manager）
	if cfg.GCPSecretsProject != "" {
		src, err := secrets.NewSecretManagerSource(ctx, cfg.GCPSecretsProject)
		if err != nil {
			return err
		}
		err = cfg.ResolveSecrets(ctx, src)
		_ = src.Close()
		if err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	//DB接続
	gormDB, err := db.Connect(cfg.DSN(), cfg.GoEnv)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}

	//Repository生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//注文ストア
	var orderRepo repo.OrderRepository = infraRepo.NewOrderGormRepository(gormDB)
	if cfg.OrderStore == config.OrderStoreFirestore {
		fsClient, err := gcpfirestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return err
		}
		defer fsClient.Close()
		orderRepo = infraFS.NewOrderRepositoryFS(fsClient)
	}

	//カート保存先
	var cartStorage cart.Storage = cart.NewMemoryStorage()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, using memory cart storage", zap.Error(err))
		} else {
			cartStorage = cache.NewRedisCartStorage(rdb)
		}
	}

	//注文イベント
	var publisher eventPublisher = events.NopPublisher{}
	if cfg.KafkaBrokers != "" {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderEventsTopic)
	}
	defer publisher.Close()

	//領収メール
	var notifier usecase.ReceiptNotifier = mail.NopNotifier{}
	if cfg.SendGridAPIKey != "" {
		notifier = mail.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFrom)
	}

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.Currency,
		PublicBaseURL: cfg.PublicBaseURL,
	})

	//usecaseに渡す部品
	idGen := &uuidGenerator{}
	clock := &realClock{}
	inputValidator := validator.NewInputValidator()

	//Usecase生成
	builder := usecase.NewOrderDraftBuilder(cfg.ShippingFlatCents, cfg.Currency, inputValidator, idGen, clock)
	productUC := usecase.NewProductUsecase(productRepo)
	cartUC := usecase.NewCartUsecase(cartStorage, productRepo, log, cfg.ExternalCallTimeout)
	checkoutUC := usecase.NewCheckoutUsecase(productRepo, orderRepo, gateway, builder, log, cfg.ExternalCallTimeout)
	orderUC := usecase.NewOrderUsecase(orderRepo, cfg.ExternalCallTimeout)
	inventoryUC := usecase.NewInventoryUsecase(inventoryRepo, auditRepo, clock, log)
	webhookUC := usecase.NewWebhookUsecase(gateway, orderRepo, inventoryUC, publisher, notifier, clock, log, cfg.ExternalCallTimeout)
	adminOrderUC := usecase.NewAdminOrderUsecase(orderRepo, auditRepo, publisher, clock, log)
	retentionUC := usecase.NewRetentionUsecase(orderRepo, auditRepo, clock, log)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo, auditRepo, inputValidator, clock)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)

	//Handler生成
	srv := server.New(log)
	srv.RegisterRoutes(server.Handlers{
		Product:        handler.NewProductHandler(productUC, reviewUC),
		Cart:           handler.NewCartHandler(cartUC),
		Checkout:       handler.NewCheckoutHandler(checkoutUC, orderUC, webhookUC, cartUC),
		AdminOrder:     handler.NewAdminOrderHandler(adminOrderUC, retentionUC),
		AdminInventory: handler.NewAdminInventoryHandler(inventoryUC, reviewUC, auditUC),
	}, middleware.CartSession(cfg.CartTokenSecret, cfg.GoEnv == "prod", clock.Now), cfg.AdminSecretHash)

	//保持期間ワーカー
	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()
	go worker.NewRetentionWorker(retentionUC, cfg.RetentionSweepInterval, log).Run(workerCtx)

	//Server起動
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Addr()) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	cancelWorker()
	return srv.Shutdown(15 * time.Second)
}
