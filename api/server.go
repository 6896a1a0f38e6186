package api

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/TechTeamScibotix/iqautodeals-website-sub003/adapters/notify"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/deals"
	"github.com/TechTeamScibotix/iqautodeals-website-sub003/models"
)

type ServerImpl struct {
	db          *gorm.DB
	redisClient *redis.Client
	dispatcher  notify.IDispatcher
	worker      *notify.DeliveryWorker
	service     *deals.Service

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化資料庫連線
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: config.DB.Schema + ".",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
	}

	// 初始化通知派送
	// 有設定Redis時事件走stream由worker遞送，多實例共用一個consumer group；
	// 沒有設定時退回單機的channel dispatcher
	var (
		redisClient *redis.Client
		dispatcher  notify.IDispatcher
		worker      *notify.DeliveryWorker
	)
	deliverer := &notify.LogDeliverer{Logger: slog.Default()}
	if config.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		dispatcher, err = notify.NewStreamDispatcher(
			redisClient,
			config.Redis.StreamKeys.Notifications,
			notify.WithStreamDispatcherLogger(slog.Default()),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create stream dispatcher, err=%w", op, err)
		}
		worker, err = notify.NewDeliveryWorker(
			redisClient,
			config.Redis.StreamKeys.Notifications,
			config.Redis.ConsumerGroup,
			config.ID,
			deliverer,
			notify.WithDeliveryWorkerLogger(slog.Default()),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create delivery worker, err=%w", op, err)
		}
	} else {
		dispatcher, err = notify.NewChannelDispatcher(deliverer, notify.WithChannelDispatcherLogger(slog.Default()))
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create channel dispatcher, err=%w", op, err)
		}
	}

	// 初始化核心服務
	service, err := deals.NewService(db, deals.NewCatalog(db), dispatcher, deals.WithServiceLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create deal service, err=%w", op, err)
	}

	return &ServerImpl{
		db:          db,
		redisClient: redisClient,
		dispatcher:  dispatcher,
		worker:      worker,
		service:     service,
		config:      config,
	}, nil
}

func (impl *ServerImpl) Start() error {
	const op = "Start"
	// 啟動dispatcher
	impl.dispatcher.Start()
	// 啟動delivery worker
	if impl.worker != nil {
		if err := impl.worker.Start(); err != nil {
			return fmt.Errorf("[%s] Fail to start delivery worker, err=%w", op, err)
		}
	}
	return nil
}

func (impl *ServerImpl) Close() {
	// 關閉dispatcher，殘留事件會在這裡排空
	impl.dispatcher.Close()
	// 關閉delivery worker
	if impl.worker != nil {
		if err := impl.worker.Close(); err != nil {
			slog.Error("Fail to close delivery worker", slog.Any("error", err))
		}
	}
	// 關閉Redis連線
	if impl.redisClient != nil {
		if err := impl.redisClient.Close(); err != nil {
			slog.Error("Fail to close redis client", slog.Any("error", err))
		}
	}
}

// RegisterRoutes 掛上所有HTTP路由
// 身份驗證由外部系統處理，這裡只從請求取出操作者的識別
func (impl *ServerImpl) RegisterRoutes(router gin.IRouter) {
	customer := router.Group("/api/customer")
	{
		customer.POST("/deal-request", impl.PostDealRequest)
		customer.GET("/deal-request", impl.GetCustomerDeals)
		customer.GET("/deal-status", impl.GetDealStatus)
		customer.GET("/accepted-deals", impl.GetCustomerAcceptedDeals)
		customer.POST("/cancel-deal", impl.PostCustomerCancelDeal)
		customer.POST("/decline-offer", impl.PostDeclineOffer)
		customer.POST("/accept-offer", impl.PostAcceptOffer)
		customer.POST("/schedule-test-drive", impl.PostScheduleTestDrive)
		customer.POST("/cancel-accepted-deal", impl.PostCancelAcceptedDeal)
		customer.POST("/cancel-test-drive", impl.PostCustomerCancelTestDrive)
	}

	dealer := router.Group("/api/dealer")
	{
		dealer.POST("/submit-offer", impl.PostSubmitOffer)
		dealer.GET("/deal-requests", impl.GetDealerDeals)
		dealer.GET("/accepted-deals", impl.GetDealerAcceptedDeals)
		dealer.GET("/availability-requests", impl.GetAvailabilityRequests)
		dealer.POST("/cancel-deal", impl.PostDealerCancelDeal)
		dealer.POST("/mark-as-sold", impl.PostMarkAsSold)
		dealer.POST("/dead-deal", impl.PostDeadDeal)
		dealer.POST("/update-test-drive", impl.PostUpdateTestDrive)
		dealer.POST("/cancel-test-drive", impl.PostDealerCancelTestDrive)
	}

	router.POST("/api/availability-request", impl.PostAvailabilityRequest)

	admin := router.Group("/api/admin", impl.RequireAdmin)
	{
		admin.GET("/deal-requests", impl.GetAdminDeals)
	}
}
