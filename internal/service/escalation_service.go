package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"caretrace-escalation/internal/config"
	"caretrace-escalation/internal/consumer"
	"caretrace-escalation/internal/escalation"
	"caretrace-escalation/internal/httpapi"
	"caretrace-escalation/internal/notify"
	"caretrace-escalation/internal/repository"
	"caretrace-escalation/internal/trend"
	"caretrace-escalation/pkg/database"
	"caretrace-escalation/pkg/mqtt"
	"caretrace-escalation/pkg/redisutil"
)

// EscalationService 升级报警服务（整合各层）
type EscalationService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqtt.Client
	logger      *zap.Logger

	// 各层组件
	subjectsRepo *repository.SubjectsRepository
	checkinsRepo *repository.CheckinsRepository
	eventsRepo   *repository.EscalationEventsRepository
	computer     *trend.Computer
	trendCache   *trend.Cache
	detector     *escalation.Detector
	throttle     *escalation.Throttle
	dispatcher   notify.Dispatcher
	consumer     *consumer.CheckinConsumer
	httpServer   *http.Server
}

// NewEscalationService 创建升级报警服务
func NewEscalationService(cfg *config.Config, logger *zap.Logger) (*EscalationService, error) {
	// 1. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redisutil.NewRedisClient(&cfg.Redis)
	if err := redisutil.Ping(context.Background(), redisClient); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 创建 Repository 层
	subjectsRepo := repository.NewSubjectsRepository(db, logger)
	checkinsRepo := repository.NewCheckinsRepository(db, logger)
	eventsRepo := repository.NewEscalationEventsRepository(db, logger)

	// 4. 趋势层
	kv := redisutil.NewRedisKV(redisClient)
	computer := trend.NewComputer(
		checkinsRepo,
		trend.NewKeywordCategorizer(),
		cfg.Trend.TopCategories,
		time.Local,
		logger,
	)
	trendCache := trend.NewCache(
		kv,
		cfg.Trend.CacheKeyPrefix,
		cfg.Trend.CacheKeySuffix,
		time.Duration(cfg.Trend.CacheTTL)*time.Second,
		logger,
	)

	// 5. 检测与节流层
	detector := escalation.NewDetector(cfg, logger)
	throttle := escalation.NewThrottle(
		kv,
		cfg.Escalation.CooldownKeyPrefix,
		cfg.Escalation.NotificationCooldownHours,
		logger,
	)

	// 6. 推送通道（MQTT 优先，其次 Webhook，都未配置则空实现）
	var mqttClient *mqtt.Client
	var dispatcher notify.Dispatcher
	switch {
	case cfg.Notify.MQTTEnabled:
		mqttClient, err = mqtt.NewClient(&cfg.MQTT)
		if err != nil {
			db.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to connect mqtt broker: %w", err)
		}
		dispatcher = notify.NewMQTTDispatcher(mqttClient, cfg.Notify.MQTTTopic, cfg.MQTT.QoS, logger)
	case cfg.Notify.WebhookURL != "":
		dispatcher = notify.NewWebhookDispatcher(cfg.Notify.WebhookURL, logger)
	default:
		logger.Warn("No notification channel configured, alerts will be logged only")
		dispatcher = notify.NewNopDispatcher()
	}

	// 7. 消费者
	checkinConsumer := consumer.NewCheckinConsumer(
		cfg,
		redisClient,
		subjectsRepo,
		checkinsRepo,
		detector,
		throttle,
		eventsRepo,
		dispatcher,
		logger,
	)

	// 8. HTTP 查询 API
	router := httpapi.NewRouter(logger)
	router.RegisterTrendRoutes(httpapi.NewTrendHandler(cfg, computer, trendCache, eventsRepo, logger))
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return &EscalationService{
		config:       cfg,
		db:           db,
		redisClient:  redisClient,
		mqttClient:   mqttClient,
		logger:       logger,
		subjectsRepo: subjectsRepo,
		checkinsRepo: checkinsRepo,
		eventsRepo:   eventsRepo,
		computer:     computer,
		trendCache:   trendCache,
		detector:     detector,
		throttle:     throttle,
		dispatcher:   dispatcher,
		consumer:     checkinConsumer,
		httpServer:   httpServer,
	}, nil
}

// Start 启动服务（阻塞直到 ctx 取消或组件出错）
func (s *EscalationService) Start(ctx context.Context) error {
	s.logger.Info("Starting escalation service",
		zap.String("http_addr", s.config.HTTP.Addr),
		zap.String("stream", s.config.Consumer.Stream),
	)

	errChan := make(chan error, 2)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	go func() {
		if err := s.consumer.Start(ctx); err != nil {
			errChan <- fmt.Errorf("checkin consumer error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop 停止服务
func (s *EscalationService) Stop() error {
	s.logger.Info("Stopping escalation service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Failed to shutdown http server",
			zap.Error(err),
		)
	}

	if s.mqttClient != nil {
		s.mqttClient.Close()
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}
