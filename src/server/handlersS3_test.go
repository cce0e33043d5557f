package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	app "csvgate/src/app"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway() (*gin.Engine, *memoryStore) {
	store := newMemoryStore()
	verifier := fakeVerifier{
		"alice-token": {Subject: "sub-alice"},
		"bob-token":   {Subject: "sub-bob"},
	}
	return NewGatewayRouter(NewS3Handler(store, verifier)), store
}

func gatewayRequest(router *gin.Engine, request *http.Request, authorization string) *httptest.ResponseRecorder {
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestGatewayAuthorize(t *testing.T) {
	router, _ := newTestGateway()

	recorder := gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files", nil), "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files", nil), "forged")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files", nil), "Bearer alice-token")
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestGatewayListFilesEnvelope(t *testing.T) {
	router, store := newTestGateway()
	require.NoError(t, store.UploadFile(context.Background(), "sub-alice", "b.csv", []byte("1")))
	require.NoError(t, store.UploadFile(context.Background(), "sub-alice", "a.csv", []byte("12")))
	require.NoError(t, store.UploadFile(context.Background(), "sub-bob", "secret.csv", []byte("x")))

	recorder := gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files", nil), "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope app.Envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, http.StatusOK, envelope.StatusCode)

	var files []app.FileMetadata
	require.NoError(t, json.Unmarshal([]byte(envelope.Body), &files))
	require.Len(t, files, 2)
	assert.Equal(t, "a.csv", files[0].FileName)
	assert.Equal(t, int64(2), files[0].Size)
	assert.Equal(t, "b.csv", files[1].FileName)
}

func TestGatewayOwnersAreIsolated(t *testing.T) {
	router, store := newTestGateway()
	require.NoError(t, store.UploadFile(context.Background(), "sub-bob", "secret.csv", []byte("x")))

	recorder := gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files/secret.csv", nil), "alice-token")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files/secret.csv/download", nil), "alice-token")
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files/secret.csv/download", nil), "bob-token")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "x", recorder.Body.String())
}

func TestGatewayUploadJSON(t *testing.T) {
	router, store := newTestGateway()

	recorder := gatewayRequest(router,
		jsonRequest(http.MethodPost, "/files", `{"FileName":"a.csv","FileContent":"YSxiCjEsMgo="}`),
		"alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []byte("a,b\n1,2\n"), store.files["sub-alice"]["a.csv"])

	recorder = gatewayRequest(router,
		jsonRequest(http.MethodPost, "/files", `{"FileName":"a.csv","FileContent":"%%%"}`),
		"alice-token")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = gatewayRequest(router,
		jsonRequest(http.MethodPost, "/files", `{"FileName":"../a.csv","FileContent":""}`),
		"alice-token")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGatewayUploadMultipartAndDelete(t *testing.T) {
	router, store := newTestGateway()

	recorder := gatewayRequest(router, uploadRequest(t, "a.csv", []byte("1,2")), "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = gatewayRequest(router, httptest.NewRequest(http.MethodGet, "/files/a.csv", nil), "alice-token")
	require.Equal(t, http.StatusOK, recorder.Code)
	var metadata app.FileMetadata
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &metadata))
	assert.Equal(t, int64(3), metadata.Size)

	recorder = gatewayRequest(router, httptest.NewRequest(http.MethodPost, "/files/a.csv/delete", nil), "alice-token")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, store.files["sub-alice"])
}
