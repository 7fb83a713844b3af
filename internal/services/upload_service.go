package services

import (
	"context"
	"mime/multipart"

	"campusmart/internal/apperr"
	applog "campusmart/internal/log"
	"campusmart/internal/storage"
)

const maxUploadFiles = 5

type UploadService struct {
	Store    storage.Store
	MaxBytes int64
}

func NewUploadService(store storage.Store, maxMB int) *UploadService {
	return &UploadService{Store: store, MaxBytes: int64(maxMB) << 20}
}

// Save stores every file and returns their URLs in order. The first bad file
// stops the batch.
func (s *UploadService) Save(ctx context.Context, userID string, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, apperr.BadRequest("files is required")
	}
	if len(files) > maxUploadFiles {
		return nil, apperr.BadRequest("at most 5 files per upload")
	}
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := s.saveOne(ctx, fh)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	applog.Logger().Info("upload.saved", "user_id", userID, "count", len(urls))
	return urls, nil
}

func (s *UploadService) saveOne(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	r, ct, err := storage.Open(fh, s.MaxBytes)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return s.Store.Save(ctx, ct, r)
}
