package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	app "csvgate/src/app"
	cfg "csvgate/src/configuration"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	loginToken *oauth2.Token
	loginErr   error
	signupText string
	signupErr  error
	confirmErr error

	lastUsername string
	lastPassword string
	lastSignup   app.SignupRequest
	lastConfirm  app.ConfirmRequest
}

func (f *fakeAuthenticator) Login(_ context.Context, username, password string) (*oauth2.Token, error) {
	f.lastUsername, f.lastPassword = username, password
	return f.loginToken, f.loginErr
}

func (f *fakeAuthenticator) Signup(_ context.Context, request app.SignupRequest) (string, error) {
	f.lastSignup = request
	return f.signupText, f.signupErr
}

func (f *fakeAuthenticator) Confirm(_ context.Context, request app.ConfirmRequest) error {
	f.lastConfirm = request
	return f.confirmErr
}

// fakeVerifier accepts exactly the tokens it holds.
type fakeVerifier map[string]*app.Identity

func (f fakeVerifier) Verify(_ context.Context, rawIDToken string) (*app.Identity, error) {
	identity, ok := f[rawIDToken]
	if !ok {
		return nil, &app.Error{Kind: app.AuthenticationFailed, Message: "invalid token"}
	}
	return identity, nil
}

type memoryStore struct {
	mu    sync.Mutex
	files map[string]map[string][]byte
	now   time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		files: map[string]map[string][]byte{},
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memoryStore) ListFiles(_ context.Context, owner string) ([]app.FileMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]app.FileMetadata, 0, len(m.files[owner]))
	for name, content := range m.files[owner] {
		result = append(result, m.metadata(name, content))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileName < result[j].FileName })
	return result, nil
}

func (m *memoryStore) StatFile(_ context.Context, owner, fileName string) (*app.FileMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[owner][fileName]
	if !ok {
		return nil, notFound(fileName)
	}
	metadata := m.metadata(fileName, content)
	return &metadata, nil
}

func (m *memoryStore) ReadFile(_ context.Context, owner, fileName string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[owner][fileName]
	if !ok {
		return nil, notFound(fileName)
	}
	return content, nil
}

func (m *memoryStore) UploadFile(_ context.Context, owner, fileName string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files[owner] == nil {
		m.files[owner] = map[string][]byte{}
	}
	m.files[owner][fileName] = append([]byte(nil), content...)
	return nil
}

func (m *memoryStore) DeleteFile(_ context.Context, owner, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files[owner], fileName)
	return nil
}

func (m *memoryStore) metadata(name string, content []byte) app.FileMetadata {
	return app.FileMetadata{FileName: name, Size: int64(len(content)), LastModified: m.now, ContentType: contentTypeCSV}
}

func notFound(fileName string) error {
	return &app.Error{Kind: app.NotFound, Message: fmt.Sprintf("%s not found", fileName)}
}

func testProperties() *cfg.Properties {
	return &cfg.Properties{
		Session: cfg.SessionProperties{
			CookieName: "csvgate_session",
			Secret:     "test-secret",
			TTL:        time.Hour,
		},
		Gateway: cfg.GatewayProperties{UploadEncoding: cfg.UploadMultipart},
		Server: cfg.HttpServerProperties{
			Name:           "csvgate",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
	}
}

type bff struct {
	router   *gin.Engine
	sessions *SessionManager
}

func newBFF(identity Authenticator, verifier Verifier, gateway FileGateway) *bff {
	config := testProperties()
	sessions := NewSessionManager(config.Session)
	router := NewRouter(config,
		NewAuthHandler(identity, verifier, sessions),
		NewExternalHandler(gateway),
		sessions)
	return &bff{router: router, sessions: sessions}
}

func (b *bff) serve(request *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	b.router.ServeHTTP(recorder, request)
	return recorder
}

// sessionCookie issues a cookie the way a successful login does.
func sessionCookie(t *testing.T, sessions *SessionManager, subject, token string) *http.Cookie {
	t.Helper()
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	require.NoError(t, sessions.Issue(c, subject, token, time.Time{}))
	return responseCookie(t, recorder, sessions.cookieName)
}

func responseCookie(t *testing.T, recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	require.FailNow(t, "no cookie set", name)
	return nil
}

func loginToken(idToken string) *oauth2.Token {
	token := &oauth2.Token{AccessToken: "access", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}
	return token.WithExtra(map[string]interface{}{"id_token": idToken})
}
