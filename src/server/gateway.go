package server

import (
	"context"
	"net/http"

	app "csvgate/src/app"
	cfg "csvgate/src/configuration"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewGatewayRouter serves the file gateway API the BFF forwards to.
func NewGatewayRouter(handler *S3Handler) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())

	router.GET("/health", GetHealth)

	files := router.Group("/files", handler.Authorize())
	files.GET("", handler.ListFiles)
	files.POST("", handler.UploadFile)
	files.GET("/:fileName", handler.GetFile)
	files.GET("/:fileName/download", handler.DownloadFile)
	files.POST("/:fileName/delete", handler.DeleteFile)

	router.NoRoute(func(ctx *gin.Context) { ctx.JSON(http.StatusNotFound, gin.H{"message": "Not Found"}) })
	return router
}

// RunGateway serves the reference gateway backed by MinIO until ctx is cancelled.
func RunGateway(ctx context.Context, config *cfg.Properties) error {
	store, err := app.NewMinioS3Client(config.S3)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}
	verifier := app.NewIDTokenVerifier(ctx, config.Auth)

	logrus.WithFields(logrus.Fields{
		"s3":     config.S3.Host,
		"bucket": config.S3.Bucket,
	}).Info("file gateway configured")
	return serve(ctx, config.Server, NewGatewayRouter(NewS3Handler(store, verifier)))
}
