package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	app "csvgate/src/app"

	"github.com/gin-gonic/gin"
)

type (
	// ObjectStore keeps each owner's files apart.
	ObjectStore interface {
		ListFiles(ctx context.Context, owner string) ([]app.FileMetadata, error)
		StatFile(ctx context.Context, owner, fileName string) (*app.FileMetadata, error)
		ReadFile(ctx context.Context, owner, fileName string) ([]byte, error)
		UploadFile(ctx context.Context, owner, fileName string, content []byte) error
		DeleteFile(ctx context.Context, owner, fileName string) error
	}

	// S3Handler serves the file gateway API over an object store. Every route
	// is scoped to the subject of the presented identity token.
	S3Handler struct {
		store    ObjectStore
		verifier Verifier
	}
)

const (
	ownerContextKey = "owner"
	bearerPrefix    = "Bearer "
)

func NewS3Handler(store ObjectStore, verifier Verifier) *S3Handler {
	return &S3Handler{
		store:    store,
		verifier: verifier,
	}
}

// Authorize accepts the identity token either bare or with a Bearer scheme.
func (a *S3Handler) Authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
			raw = strings.TrimSpace(raw[len(bearerPrefix):])
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		identity, err := a.verifier.Verify(c.Request.Context(), raw)
		if err != nil {
			logger(c).WithError(err).Info("token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set(ownerContextKey, identity.Subject)
		c.Next()
	}
}

// ListFiles answers with an envelope whose body is the JSON file list.
func (a *S3Handler) ListFiles(c *gin.Context) {
	files, err := a.store.ListFiles(c.Request.Context(), c.GetString(ownerContextKey))
	if err != nil {
		logger(c).WithError(err).Error("can not list files")
		c.JSON(http.StatusOK, app.Envelope{StatusCode: http.StatusInternalServerError, Body: "can not list files"})
		return
	}
	body, err := json.Marshal(files)
	if err != nil {
		logger(c).WithError(err).Error("can not marshal file list")
		c.JSON(http.StatusOK, app.Envelope{StatusCode: http.StatusInternalServerError, Body: "can not list files"})
		return
	}
	c.JSON(http.StatusOK, app.Envelope{StatusCode: http.StatusOK, Body: string(body)})
}

func (a *S3Handler) GetFile(c *gin.Context) {
	fileName := c.Param(fileNameParam)
	metadata, err := a.store.StatFile(c.Request.Context(), c.GetString(ownerContextKey), fileName)
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, metadata)
}

func (a *S3Handler) DownloadFile(c *gin.Context) {
	fileName := c.Param(fileNameParam)
	content, err := a.store.ReadFile(c.Request.Context(), c.GetString(ownerContextKey), fileName)
	if err != nil {
		a.storeError(c, err)
		return
	}
	c.Data(http.StatusOK, contentTypeCSV, content)
}

func (a *S3Handler) DeleteFile(c *gin.Context) {
	fileName := c.Param(fileNameParam)
	if err := a.store.DeleteFile(c.Request.Context(), c.GetString(ownerContextKey), fileName); err != nil {
		a.storeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// UploadFile takes either a multipart "file" part or the base64 JSON payload.
func (a *S3Handler) UploadFile(c *gin.Context) {
	var (
		upload *app.Upload
		err    error
	)
	if c.ContentType() == gin.MIMEJSON {
		upload, err = readJSONUpload(c)
	} else {
		upload, err = readUpload(c)
	}
	if err != nil {
		badRequest(c, err)
		return
	}
	if upload.FileName == "" || strings.ContainsAny(upload.FileName, `/\`) {
		badRequest(c, fmt.Errorf("invalid file name %q", upload.FileName))
		return
	}

	if err := a.store.UploadFile(c.Request.Context(), c.GetString(ownerContextKey), upload.FileName, upload.Content); err != nil {
		a.storeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (a *S3Handler) storeError(c *gin.Context, err error) {
	if app.KindOf(err) == app.NotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": app.MessageOf(err)})
		return
	}
	logger(c).WithError(err).Error("object store failure")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "error", "error": "object store failure"})
}

func readJSONUpload(c *gin.Context) (*app.Upload, error) {
	var payload app.UploadJSON
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, fmt.Errorf("can not parse upload: %w", err)
	}
	content, err := base64.StdEncoding.DecodeString(payload.FileContent)
	if err != nil {
		return nil, fmt.Errorf("file content is not base64: %w", err)
	}
	return &app.Upload{FileName: payload.FileName, Content: content}, nil
}
