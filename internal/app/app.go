package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"pulse_backend/internal/config"
	"pulse_backend/internal/controller"
	"pulse_backend/internal/repository"
	"pulse_backend/internal/service"
	"pulse_backend/pkg/database"
	"pulse_backend/pkg/logger"
	"pulse_backend/pkg/monitoring"
	"pulse_backend/pkg/security"
	"pulse_backend/pkg/stt"
	"pulse_backend/pkg/tracing"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	video  *repository.VideoRepository
	status repository.StatusStore
}

type services struct {
	ai        *service.AIService
	speech    *service.SpeechService
	chat      *service.ChatService
	training  *service.TrainingService
	player    *service.PlayerService
	dictation *service.DictationService
	auth      *service.AuthService
}

type controllers struct {
	auth      *controller.AuthController
	training  *controller.TrainingController
	chat      *controller.ChatController
	tts       *controller.TTSController
	player    *controller.PlayerController
	dictation *controller.DictationController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 把热更新后的配置广播给所有订阅方
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, callback := range a.configCallbacks {
		callback(cfg)
	}
}

func (a *App) initRepositories(cfg *config.Config, rdb *redis.Client) (*repositories, error) {
	videoRepo, err := repository.NewVideoRepository(cfg.Dataset.VideosPath)
	if err != nil {
		return nil, err
	}

	var statuses repository.StatusStore
	if rdb != nil {
		statuses = repository.NewRedisStatusStore(rdb)
	} else {
		statuses = repository.NewMemoryStatusStore()
	}

	return &repositories{video: videoRepo, status: statuses}, nil
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.ai = service.NewAIService(cfg.AI)
	s.speech = service.NewSpeechService(cfg.TTS)

	// 产品问答文档缺失时降级为空文档，仅记录告警
	document := ""
	if cfg.Dataset.DocumentPath != "" {
		data, err := os.ReadFile(cfg.Dataset.DocumentPath)
		if err != nil {
			logger.Log.Warn("product document not loaded", zap.String("path", cfg.Dataset.DocumentPath), zap.Error(err))
		} else {
			document = string(data)
		}
	}
	s.chat = service.NewChatService(s.ai, s.speech, document)

	s.training = service.NewTrainingService(repos.video, repos.status)
	s.player = service.NewPlayerService(repos.video, s.training)

	var recognizer stt.Recognizer
	if cfg.STT.APIKey != "" {
		recognizer = stt.NewDeepgramRecognizer(cfg.STT.APIKey, cfg.STT.Model)
	}
	s.dictation = service.NewDictationService(recognizer, cfg.STT.Language)

	s.auth = service.NewAuthService(cfg.Auth, cfg.JWT, cfg.Server)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, a.Config),
		training:  controller.NewTrainingController(s.training),
		chat:      controller.NewChatController(s.chat),
		tts:       controller.NewTTSController(s.speech),
		player:    controller.NewPlayerController(s.player),
		dictation: controller.NewDictationController(s.dictation),
		health:    controller.NewHealthController(rdb, repos.video),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, training status falls back to memory", zap.Error(err))
		rdb = nil
	}

	app := &App{
		Config: cfg,
		Redis:  rdb,
	}

	repos, err := app.initRepositories(cfg, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to load training video dataset", zap.Error(err))
		log.Fatalf("Failed to load training video dataset: %v", err)
	}

	services := app.initServices(repos, cfg)
	app.services = services
	controllers := app.initControllers(services, repos, rdb)

	// 监控初始化
	monitoring.Init()

	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("pulse-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.Redis != nil {
		a.Redis.Close()
	}
	logger.Log.Sync()

	log.Println("Server exiting")
}
