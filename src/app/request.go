package app

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// bodyParser turns call parameters into an outbound body and its content type.
type bodyParser func(params any) (io.Reader, string, error)

func prepareEmptyBody(any) (io.Reader, string, error) {
	return strings.NewReader(""), "text/plain; charset=utf-8", nil
}

func prepareJSONBody(params any) (io.Reader, string, error) {
	upload, ok := params.(*Upload)
	if !ok {
		return nil, "", fmt.Errorf("unexpected upload parameters %T", params)
	}
	payload, err := json.Marshal(UploadJSON{
		FileName:    upload.FileName,
		FileContent: base64.StdEncoding.EncodeToString(upload.Content),
	})
	if err != nil {
		return nil, "", fmt.Errorf("can not marshal upload: %w", err)
	}
	return bytes.NewReader(payload), "application/json; charset=utf-8", nil
}

func prepareMultipartFile(params any) (io.Reader, string, error) {
	upload, ok := params.(*Upload)
	if !ok {
		return nil, "", fmt.Errorf("unexpected upload parameters %T", params)
	}
	fieldName := upload.FieldName
	if fieldName == "" {
		fieldName = "file"
	}

	bodyReader := new(bytes.Buffer)
	writer := multipart.NewWriter(bodyReader)
	part, err := writer.CreateFormFile(fieldName, upload.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("can not create form file: %w", err)
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", fmt.Errorf("can not write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("can not close multipart body: %w", err)
	}
	return bodyReader, writer.FormDataContentType(), nil
}

// AuthorizationValue checks that token can be sent as an Authorization header,
// either a bare credential or "scheme credential". An empty token yields no header.
func AuthorizationValue(token string) (string, error) {
	parts := strings.Fields(token)
	if len(parts) == 0 {
		return "", nil
	}
	if len(parts) > 2 {
		return "", fmt.Errorf("authorization value has %d parts", len(parts))
	}
	if !httpguts.ValidHeaderFieldName(parts[0]) {
		return "", fmt.Errorf("invalid authorization scheme")
	}
	value := strings.Join(parts, " ")
	if !httpguts.ValidHeaderFieldValue(value) {
		return "", fmt.Errorf("invalid authorization value")
	}
	return value, nil
}
