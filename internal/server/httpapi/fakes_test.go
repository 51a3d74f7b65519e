package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	UserService

	byID    map[int64]*models.User
	byIDErr error

	registerFn     func(in services.RegisterInput) (*models.User, error)
	authenticateFn func(email, password string) (*models.User, error)
	updateFn       func(identity *models.User, in services.ProfileInput) (*models.User, error)
	pictureFn      func(identity *models.User, body, filename string) (*models.User, error)
	openPictureFn  func(identity *models.User) (io.ReadCloser, error)
	requestResetFn func(email string) error
	resetFn        func(token, password string) error
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsers) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return f.registerFn(in)
}

func (f *fakeUsers) Authenticate(_ context.Context, email, password string) (*models.User, error) {
	return f.authenticateFn(email, password)
}

func (f *fakeUsers) UpdateProfile(_ context.Context, identity *models.User, in services.ProfileInput) (*models.User, error) {
	return f.updateFn(identity, in)
}

func (f *fakeUsers) UpdateProfilePicture(_ context.Context, identity *models.User, r io.Reader, filename string) (*models.User, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return f.pictureFn(identity, string(b), filename)
}

func (f *fakeUsers) OpenProfilePicture(_ context.Context, identity *models.User) (io.ReadCloser, error) {
	return f.openPictureFn(identity)
}

func (f *fakeUsers) RequestPasswordReset(_ context.Context, email string) error {
	return f.requestResetFn(email)
}

func (f *fakeUsers) ResetPassword(_ context.Context, token, password string) error {
	return f.resetFn(token, password)
}

type fakeTree struct {
	TreeService

	listFn   func(identity *models.User, parentPath string) ([]*models.Node, error)
	folderFn func(identity *models.User, parentPath, name string) (*models.Node, error)
	uploadFn func(identity *models.User, parentPath, name, body string) (*models.Node, error)
	openFn   func(identity *models.User, id int64) (*models.Node, io.ReadCloser, error)
	deleteFn func(identity *models.User, id int64) (*models.Node, error)
}

func (f *fakeTree) ListChildren(_ context.Context, identity *models.User, parentPath string) ([]*models.Node, error) {
	return f.listFn(identity, parentPath)
}

func (f *fakeTree) InsertFolder(_ context.Context, identity *models.User, parentPath, name string) (*models.Node, error) {
	return f.folderFn(identity, parentPath, name)
}

func (f *fakeTree) Upload(_ context.Context, identity *models.User, parentPath, name string, r io.Reader) (*models.Node, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return f.uploadFn(identity, parentPath, name, string(b))
}

func (f *fakeTree) Open(_ context.Context, identity *models.User, id int64) (*models.Node, io.ReadCloser, error) {
	return f.openFn(identity, id)
}

func (f *fakeTree) SoftDelete(_ context.Context, identity *models.User, id int64) (*models.Node, error) {
	return f.deleteFn(identity, id)
}

type testAPI struct {
	router http.Handler
	logs   *bytes.Buffer
	users  *fakeUsers
	tree   *fakeTree
	tokens *auth.TokenService
	alice  *models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	alice := &models.User{
		ID:          1,
		UserName:    "alice_01",
		Email:       "alice@example.com",
		DateOfBirth: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		PhoneNumber: "5551234567",
		ImageFile:   common.DefaultImageFile,
	}

	users := &fakeUsers{byID: map[int64]*models.User{alice.ID: alice}}
	tree := &fakeTree{}
	tokens := auth.NewTokenService([]byte("test-secret"))
	var logs bytes.Buffer
	log := logging.New(&logs, "debug", "text")
	sessions := NewSessionManager(tokens, users, SessionOptions{
		CookieName:  "sid",
		TTL:         time.Hour,
		RememberTTL: 24 * time.Hour,
	}, log)

	h := NewHandler(users, tree, sessions, log)
	return &testAPI{
		router: NewRouter(h, sessions, log, []string{"http://localhost:8080"}),
		logs:   &logs,
		users:  users,
		tree:   tree,
		tokens: tokens,
		alice:  alice,
	}
}

// do sends a request, logged in as user when user is non-nil.
func (a *testAPI) do(t *testing.T, req *http.Request, user *models.User) *httptest.ResponseRecorder {
	t.Helper()
	if user != nil {
		token, err := a.tokens.Issue(user.ID, auth.PurposeSession, time.Hour)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "sid", Value: token})
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func formRequest(method, target string, form map[string]string) *http.Request {
	vals := make([]string, 0, len(form))
	for k, v := range form {
		vals = append(vals, k+"="+url.QueryEscape(v))
	}
	req := httptest.NewRequest(method, target, strings.NewReader(strings.Join(vals, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
