package services

import (
	"context"

	"goclean/internal/models"
	"goclean/internal/utils"
	"goclean/pkg/logger"
	"goclean/pkg/metrics"
	"goclean/pkg/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UploadedFile struct {
	Filename string
	Data     []byte
}

// DocumentUploads holds the optional files sent with profile completion.
type DocumentUploads struct {
	ProfilePicture *UploadedFile
	NIDFront       *UploadedFile
	NIDBack        *UploadedFile
	SelfieWithNID  *UploadedFile
}

type DocumentService interface {
	// UploadDocuments stores every provided file. A file that cannot be
	// stored leaves its URL empty.
	UploadDocuments(ctx context.Context, userID primitive.ObjectID, uploads *DocumentUploads) models.DocumentURLs
}

type documentService struct {
	storage      storage.StorageProvider
	maxDimension uint
	logger       *logger.Logger
}

func NewDocumentService(storageProvider storage.StorageProvider, maxDimension uint, log *logger.Logger) DocumentService {
	return &documentService{
		storage:      storageProvider,
		maxDimension: maxDimension,
		logger:       log,
	}
}

func (s *documentService) UploadDocuments(ctx context.Context, userID primitive.ObjectID, uploads *DocumentUploads) models.DocumentURLs {
	if uploads == nil {
		return models.DocumentURLs{}
	}

	return models.DocumentURLs{
		ProfilePicture: s.upload(ctx, userID, utils.FolderProfilePictures, uploads.ProfilePicture, true),
		NIDFront:       s.upload(ctx, userID, utils.FolderNIDDocuments, uploads.NIDFront, false),
		NIDBack:        s.upload(ctx, userID, utils.FolderNIDDocuments, uploads.NIDBack, false),
		SelfieWithNID:  s.upload(ctx, userID, utils.FolderSelfies, uploads.SelfieWithNID, false),
	}
}

func (s *documentService) upload(ctx context.Context, userID primitive.ObjectID, folder string, file *UploadedFile, resize bool) string {
	if file == nil || len(file.Data) == 0 {
		return ""
	}

	log := s.logger.WithContext(ctx).WithUserID(userID).WithFields(map[string]interface{}{
		"folder":   folder,
		"filename": file.Filename,
	})

	if !utils.IsImageFile(file.Filename) {
		log.Warn("Skipping upload with unsupported file type")
		return ""
	}
	if s.storage == nil {
		log.Warn("No storage provider configured, skipping upload")
		return ""
	}

	data := file.Data
	if resize && s.maxDimension > 0 {
		resized, err := utils.ResizeImageBytes(data, file.Filename, s.maxDimension)
		if err != nil {
			log.WithError(err).Warn("Failed to resize image, uploading original")
		} else {
			data = resized
		}
	}

	resp, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          utils.GenerateObjectKey(folder+"/"+userID.Hex(), file.Filename),
		Data:         data,
		ContentType:  utils.GetContentType(file.Filename),
		CacheControl: "private, max-age=86400",
	})
	if err != nil {
		metrics.SideEffectFailuresTotal.WithLabelValues("upload").Inc()
		log.WithError(err).Error("Failed to upload document")
		return ""
	}

	return resp.URL
}
