package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	cfg "csvgate/src/configuration"
)

// GatewayClient forwards file operations to the remote file gateway, presenting
// the caller's identity token as the Authorization value.
type GatewayClient struct {
	baseURL string
	client  *http.Client
	upload  bodyParser
}

func NewGatewayClient(config cfg.GatewayProperties) *GatewayClient {
	client := &http.Client{
		Transport: &http.Transport{
			Proxy:              http.ProxyFromEnvironment,
			MaxIdleConns:       10,
			IdleConnTimeout:    90 * time.Second,
			DisableCompression: true,
		},
		Timeout: config.Timeout,
	}
	return NewGatewayClientWithHTTP(config.URL, config.UploadEncoding, client)
}

func NewGatewayClientWithHTTP(baseURL, uploadEncoding string, client *http.Client) *GatewayClient {
	upload := prepareMultipartFile
	if uploadEncoding == cfg.UploadJSON {
		upload = prepareJSONBody
	}
	return &GatewayClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		upload:  upload,
	}
}

// ListFiles relays the gateway envelope. An envelope that can not be read
// becomes (500, "").
func (g *GatewayClient) ListFiles(ctx context.Context, token string) (*Envelope, error) {
	resp, err := g.do(ctx, http.MethodGet, g.baseURL, token, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serviceErr("can not read list response", err)
	}
	envelope := emptyEnvelope()
	if err := json.Unmarshal(body, envelope); err != nil {
		return emptyEnvelope(), nil
	}
	// 1xx would go out as an informational header, not as the answer.
	if envelope.StatusCode < 200 || envelope.StatusCode > 599 {
		return emptyEnvelope(), nil
	}
	return envelope, nil
}

// GetFile relays the remote status with the metadata body as the gateway sent
// it. An empty body yields no metadata; only a body that is not JSON is an error.
func (g *GatewayClient) GetFile(ctx context.Context, token, fileName string) (int, json.RawMessage, error) {
	resp, err := g.do(ctx, http.MethodGet, g.fileURL(fileName), token, nil, nil)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, serviceErr("can not read file response", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return resp.StatusCode, nil, nil
	}
	if !json.Valid(body) {
		return 0, nil, serviceErr("file metadata is not json", nil)
	}
	return resp.StatusCode, json.RawMessage(body), nil
}

// DownloadFile returns the file content. Every remote status but 200 is
// reported as NotFound.
func (g *GatewayClient) DownloadFile(ctx context.Context, token, fileName string) ([]byte, error) {
	resp, err := g.do(ctx, http.MethodGet, g.fileURL(fileName)+"/download", token, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newErr(NotFound, fmt.Sprintf("gateway answered %d", resp.StatusCode), nil)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, serviceErr("can not read download", err)
	}
	return content, nil
}

func (g *GatewayClient) DeleteFile(ctx context.Context, token, fileName string) (int, error) {
	resp, err := g.do(ctx, http.MethodPost, g.fileURL(fileName)+"/delete", token, prepareEmptyBody, nil)
	if err != nil {
		return 0, err
	}
	defer drain(resp)
	return resp.StatusCode, nil
}

func (g *GatewayClient) UploadFile(ctx context.Context, token string, upload *Upload) (int, error) {
	resp, err := g.do(ctx, http.MethodPost, g.baseURL, token, g.upload, upload)
	if err != nil {
		return 0, err
	}
	defer drain(resp)
	return resp.StatusCode, nil
}

func (g *GatewayClient) fileURL(fileName string) string {
	return fmt.Sprintf("%s/%s", g.baseURL, url.PathEscape(fileName))
}

func (g *GatewayClient) do(
	ctx context.Context,
	method string,
	target string,
	token string,
	parser bodyParser,
	params any) (*http.Response, error) {
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if parser != nil {
		body, contentType, err = parser(params)
		if err != nil {
			return nil, serviceErr("can not prepare request body", err)
		}
	}

	authorization, err := AuthorizationValue(token)
	if err != nil {
		return nil, serviceErr("can not parse authorization", err)
	}

	request, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, serviceErr("can not prepare request", err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}

	resp, err := g.client.Do(request)
	if err != nil {
		return nil, serviceErr(fmt.Sprintf("can not send %s %s", method, target), err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
