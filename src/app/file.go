package app

import (
	"net/http"
	"time"
)

type (
	// Envelope is the gateway's wrapper around list responses.
	Envelope struct {
		StatusCode int    `json:"statusCode"`
		Body       string `json:"body"`
	}

	// FileMetadata describes a single file held by the gateway.
	FileMetadata struct {
		FileName     string    `json:"fileName"`
		Size         int64     `json:"size"`
		LastModified time.Time `json:"lastModified"`
		ContentType  string    `json:"contentType,omitempty"`
	}

	// Upload is a file received from the caller, held in memory while it is forwarded.
	Upload struct {
		FieldName string
		FileName  string
		Content   []byte
	}

	// UploadJSON is the JSON upload payload.
	UploadJSON struct {
		FileName    string `json:"FileName"`
		FileContent string `json:"FileContent"`
	}
)

// emptyEnvelope is what a list call relays when the gateway answer cannot be read.
func emptyEnvelope() *Envelope {
	return &Envelope{StatusCode: http.StatusInternalServerError}
}
