package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/cryptox"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/dmitrijs2005/clouddrive/internal/server/blob"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
	"github.com/dmitrijs2005/clouddrive/internal/server/mailer"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/nodes"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/users"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	cryptox.HashCost = bcrypt.MinCost
}

// memUsers is an in-memory users.Repository that enforces the same unique
// constraints as the schema.
type memUsers struct {
	mu     sync.Mutex
	rows   map[int64]models.User
	nextID int64
	err    error
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[int64]models.User{}}
}

func (m *memUsers) conflict(u *models.User) error {
	for id, row := range m.rows {
		if id == u.ID {
			continue
		}
		if row.UserName == u.UserName {
			return common.ErrDuplicateUsername
		}
		if row.Email == u.Email {
			return common.ErrDuplicateEmail
		}
	}
	return nil
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if err := m.conflict(u); err != nil {
		return nil, err
	}
	m.nextID++
	u.ID = m.nextID
	m.rows[u.ID] = *u
	return u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &row, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, row := range m.rows {
		if row.Email == email {
			return &row, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) ExistsUsername(ctx context.Context, username string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if id != excludeID && row.UserName == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) ExistsEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, row := range m.rows {
		if id != excludeID && row.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) Update(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if err := m.conflict(u); err != nil {
		return err
	}
	row.UserName, row.Email, row.DateOfBirth, row.PhoneNumber = u.UserName, u.Email, u.DateOfBirth, u.PhoneNumber
	m.rows[u.ID] = row
	return nil
}

func (m *memUsers) UpdatePassword(ctx context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.PasswordHash = hash
	m.rows[id] = row
	return nil
}

func (m *memUsers) UpdateImage(ctx context.Context, id int64, imageFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	row.ImageFile = imageFile
	m.rows[id] = row
	return nil
}

// memNodes is an in-memory nodes.Repository.
type memNodes struct {
	mu     sync.Mutex
	rows   map[int64]models.Node
	nextID int64
}

func newMemNodes() *memNodes {
	return &memNodes{rows: map[int64]models.Node{}}
}

func (m *memNodes) Create(ctx context.Context, n *models.Node) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	n.ID = m.nextID
	m.rows[n.ID] = *n
	return n, nil
}

func (m *memNodes) GetByID(ctx context.Context, id int64) (*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &row, nil
}

func (m *memNodes) ListChildren(ctx context.Context, userID int64, parentPath string) ([]*models.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Node{}
	for _, row := range m.rows {
		if row.UserID == userID && row.ParentPath == parentPath && row.DeletedAt == nil {
			r := row
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memNodes) MarkDeleted(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.DeletedAt != nil {
		return common.ErrorNotFound
	}
	row.DeletedAt = &at
	m.rows[id] = row
	return nil
}

func (m *memNodes) MarkDescendantsDeleted(ctx context.Context, userID int64, prefix string, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, row := range m.rows {
		if row.UserID == userID && row.DeletedAt == nil && strings.HasPrefix(row.ParentPath, prefix) {
			row.DeletedAt = &at
			m.rows[id] = row
			n++
		}
	}
	return n, nil
}

type fakeRepoManager struct {
	users *memUsers
	nodes *memNodes
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return f.users }
func (f *fakeRepoManager) Nodes(dbx.DBTX) nodes.Repository            { return f.nodes }

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	db     *sql.DB
	mock   sqlmock.Sqlmock
	repos  *fakeRepoManager
	mail   *fakeMailer
	fs     afero.Fs
	tokens *auth.TokenService
	users  *UserService
	tree   *TreeService
	now    time.Time
}

func (e *testEnv) clock() time.Time { return e.now }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := &testEnv{
		db:    db,
		mock:  mock,
		repos: &fakeRepoManager{users: newMemUsers(), nodes: newMemNodes()},
		mail:  &fakeMailer{},
		fs:    afero.NewMemMapFs(),
		now:   testNow,
	}
	cfg := &config.Config{ResetTokenValidityDuration: 900 * time.Second, BaseURL: "http://localhost:8080/"}
	log := logging.Discard()
	store := blob.NewLocalStore(e.fs, e.clock)

	e.tokens = auth.NewTokenService([]byte("secret"), auth.WithClock(e.clock))
	e.users = NewUserService(db, e.repos, e.tokens, e.mail, store, cfg, log)
	e.users.now = e.clock
	e.tree = NewTreeService(db, e.repos, store, log)
	e.tree.now = e.clock
	return e
}

func validRegistration(username, email string) RegisterInput {
	return RegisterInput{
		UserName:    username,
		Email:       email,
		DateOfBirth: time.Date(1995, 4, 12, 0, 0, 0, 0, time.UTC),
		PhoneNumber: "5551234567",
		Password:    "s3cretpass",
	}
}

func (e *testEnv) register(t *testing.T, username, email string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), validRegistration(username, email))
	if err != nil {
		t.Fatalf("Register(%s) error: %v", username, err)
	}
	return u
}
