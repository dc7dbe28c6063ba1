// @title Pulse 培训后端 API
// @version 1.0
// @description 培训视频、视频弹题、AI 助手与语音能力的后端服务器。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"log"
	"pulse_backend/internal/app"
	"pulse_backend/internal/config"
	"pulse_backend/pkg/configwatcher"
	"pulse_backend/pkg/logger"
)

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 配置热更新：CORS、限流等运行时参数变化时通知订阅方
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(updated interface{}) {
		if c, ok := updated.(*config.Config); ok {
			application.ApplyConfig(c)
		}
	})

	application.Run()
}
