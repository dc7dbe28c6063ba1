package service

import (
	"context"
	"pulse_backend/internal/model"
	"pulse_backend/internal/repository"
	"pulse_backend/pkg/logger"

	"go.uber.org/zap"
)

// TrainingService 目录查询与观看状态。状态的读-改-写没有跨实例
// 锁，并发写可能互相覆盖（接受的限制）。
type TrainingService struct {
	VideoRepo *repository.VideoRepository
	Statuses  repository.StatusStore
}

func NewTrainingService(videoRepo *repository.VideoRepository, statuses repository.StatusStore) *TrainingService {
	return &TrainingService{VideoRepo: videoRepo, Statuses: statuses}
}

type VideoWithStatus struct {
	model.TrainingVideo
	Status model.VideoStatus `json:"status"`
}

// ListVideos 按语言和状态页签过滤目录。tab 为 All/Pending/Started/
// Completed；没有记录的视频视为 Pending。
func (s *TrainingService) ListVideos(ctx context.Context, language, tab string) ([]VideoWithStatus, error) {
	statuses, err := s.Statuses.Load(ctx)
	if err != nil {
		// 状态存储不可用时退化为全部 Pending，目录本身照常返回
		logger.Log.Warn("status store unavailable, defaulting to Pending", zap.Error(err))
		statuses = map[string]model.VideoStatus{}
	}

	videos := s.VideoRepo.FindByLanguage(language)
	out := make([]VideoWithStatus, 0, len(videos))
	for _, v := range videos {
		status, ok := statuses[v.ID]
		if !ok {
			status = model.StatusPending
		}
		if tab != "" && tab != "All" && string(status) != tab {
			continue
		}
		out = append(out, VideoWithStatus{TrainingVideo: v, Status: status})
	}
	return out, nil
}

func (s *TrainingService) GetVideo(id string) (*model.TrainingVideo, error) {
	return s.VideoRepo.FindByID(id)
}

// MarkStarted 首次观看时写入 Started；已有任何状态则不动
func (s *TrainingService) MarkStarted(ctx context.Context, id string) error {
	if _, err := s.VideoRepo.FindByID(id); err != nil {
		return err
	}

	statuses, err := s.Statuses.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := statuses[id]; exists {
		return nil
	}
	statuses[id] = model.StatusStarted
	return s.Statuses.Save(ctx, statuses)
}

// MarkCompleted 播放到结尾时升级状态
func (s *TrainingService) MarkCompleted(ctx context.Context, id string) error {
	if _, err := s.VideoRepo.FindByID(id); err != nil {
		return err
	}

	statuses, err := s.Statuses.Load(ctx)
	if err != nil {
		return err
	}
	statuses[id] = model.StatusCompleted
	return s.Statuses.Save(ctx, statuses)
}
