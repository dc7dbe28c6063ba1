package controller

import (
	"net/http"
	"pulse_backend/internal/repository"
	"pulse_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type HealthController struct {
	Redis     *redis.Client
	VideoRepo *repository.VideoRepository
}

func NewHealthController(rdb *redis.Client, videoRepo *repository.VideoRepository) *HealthController {
	return &HealthController{Redis: rdb, VideoRepo: videoRepo}
}

// HealthCheck godoc
// @Summary 健康检查
// @Description 检查 Redis 连接与视频数据集加载状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{
		"videos": gin.H{"status": "up", "count": c.VideoRepo.Count()},
	}

	healthy := true
	if c.Redis != nil {
		if err := c.Redis.Ping(ctx.Request.Context()).Err(); err != nil {
			components["redis"] = gin.H{"status": "down", "error": err.Error()}
			healthy = false
		} else {
			components["redis"] = gin.H{"status": "up"}
		}
	} else {
		components["redis"] = gin.H{"status": "disabled"}
	}

	if !healthy {
		util.Error(ctx, http.StatusServiceUnavailable, "degraded")
		return
	}
	util.Success(ctx, gin.H{"status": "ok", "components": components})
}
