package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"pulse_backend/internal/model"
	"pulse_backend/internal/util"
)

// VideoRepository 内置训练视频数据集。数据随服务打包、启动时一次性
// 加载并校验，运行期只读，没有任何写接口。
type VideoRepository struct {
	videos []model.TrainingVideo
	byID   map[string]*model.TrainingVideo
}

func NewVideoRepository(path string) (*VideoRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return NewVideoRepositoryFromData(data)
}

func NewVideoRepositoryFromData(data []byte) (*VideoRepository, error) {
	var videos []model.TrainingVideo
	if err := json.Unmarshal(data, &videos); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidDataset, err)
	}

	byID := make(map[string]*model.TrainingVideo, len(videos))
	for i := range videos {
		if err := videos[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", util.ErrInvalidDataset, err)
		}
		if _, dup := byID[videos[i].ID]; dup {
			return nil, fmt.Errorf("%w: duplicate video id %s", util.ErrInvalidDataset, videos[i].ID)
		}
		byID[videos[i].ID] = &videos[i]
	}

	return &VideoRepository{videos: videos, byID: byID}, nil
}

func (r *VideoRepository) FindAll() []model.TrainingVideo {
	return r.videos
}

func (r *VideoRepository) FindByLanguage(language string) []model.TrainingVideo {
	if language == "" || language == "All" {
		return r.videos
	}
	var out []model.TrainingVideo
	for _, v := range r.videos {
		if v.Language == language {
			out = append(out, v)
		}
	}
	return out
}

func (r *VideoRepository) FindByID(id string) (*model.TrainingVideo, error) {
	v, ok := r.byID[id]
	if !ok {
		return nil, util.ErrVideoNotFound
	}
	return v, nil
}

func (r *VideoRepository) Count() int {
	return len(r.videos)
}
