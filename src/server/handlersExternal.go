package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	app "csvgate/src/app"

	"github.com/gin-gonic/gin"
)

type (
	// FileGateway is the remote file service the /files routes forward to.
	FileGateway interface {
		ListFiles(ctx context.Context, token string) (*app.Envelope, error)
		GetFile(ctx context.Context, token, fileName string) (int, json.RawMessage, error)
		DownloadFile(ctx context.Context, token, fileName string) ([]byte, error)
		DeleteFile(ctx context.Context, token, fileName string) (int, error)
		UploadFile(ctx context.Context, token string, upload *app.Upload) (int, error)
	}

	ExternalHandler struct {
		gateway FileGateway
	}
)

const (
	fileNameParam   = "fileName"
	uploadFormField = "file"
	contentTypeCSV  = "text/csv"
)

func NewExternalHandler(gateway FileGateway) *ExternalHandler {
	return &ExternalHandler{gateway: gateway}
}

// ListFiles relays the gateway envelope: its statusCode becomes the response
// status and its body is written verbatim.
func (e *ExternalHandler) ListFiles(c *gin.Context) {
	envelope, err := e.gateway.ListFiles(c.Request.Context(), bearer(c))
	if err != nil {
		problem(c, err)
		return
	}
	c.String(envelope.StatusCode, envelope.Body)
}

func (e *ExternalHandler) GetFile(c *gin.Context) {
	status, metadata, err := e.gateway.GetFile(c.Request.Context(), bearer(c), c.Param(fileNameParam))
	if err != nil {
		problem(c, err)
		return
	}
	if metadata == nil {
		c.Status(status)
		return
	}
	c.Data(status, gin.MIMEJSON+"; charset=utf-8", metadata)
}

func (e *ExternalHandler) DownloadFile(c *gin.Context) {
	fileName := c.Param(fileNameParam)
	content, err := e.gateway.DownloadFile(c.Request.Context(), bearer(c), fileName)
	if err != nil {
		if app.KindOf(err) == app.NotFound {
			logger(c).WithError(err).Info("download refused by gateway")
			c.Status(http.StatusNotFound)
			return
		}
		problem(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	c.Data(http.StatusOK, contentTypeCSV, content)
}

func (e *ExternalHandler) DeleteFile(c *gin.Context) {
	status, err := e.gateway.DeleteFile(c.Request.Context(), bearer(c), c.Param(fileNameParam))
	if err != nil {
		problem(c, err)
		return
	}
	c.Status(status)
}

func (e *ExternalHandler) UploadFile(c *gin.Context) {
	upload, err := readUpload(c)
	if err != nil {
		problem(c, err)
		return
	}

	status, err := e.gateway.UploadFile(c.Request.Context(), bearer(c), upload)
	if err != nil {
		problem(c, err)
		return
	}
	c.Status(status)
}

// readUpload buffers the multipart "file" part in memory.
func readUpload(c *gin.Context) (*app.Upload, error) {
	header, err := c.FormFile(uploadFormField)
	if err != nil {
		return nil, fmt.Errorf("can not find file in request: %w", err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("can not open uploaded file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("can not read uploaded file: %w", err)
	}
	return &app.Upload{
		FieldName: uploadFormField,
		FileName:  header.Filename,
		Content:   content,
	}, nil
}
