// Package httpapi is the web layer: routing, sessions and the handlers that
// turn form posts into service calls.
package httpapi

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/services"
	"github.com/dmitrijs2005/clouddrive/internal/validation"
	"github.com/go-chi/chi/v5"
)

const (
	dateLayout = "2006-01-02"
	// maxMemory is how much of a multipart body is kept in memory; the
	// rest spills to temporary files.
	maxMemory = 32 << 20

	// body limits applied by LimitBody on the routes that take files
	maxUploadBytes  = 1 << 30
	maxPictureBytes = 16 << 20

	homeURL = "/data/home/"
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, identity *models.User, in services.ProfileInput) (*models.User, error)
	UpdateProfilePicture(ctx context.Context, identity *models.User, r io.Reader, filename string) (*models.User, error)
	OpenProfilePicture(ctx context.Context, identity *models.User) (io.ReadCloser, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type TreeService interface {
	ListChildren(ctx context.Context, identity *models.User, parentPath string) ([]*models.Node, error)
	InsertFolder(ctx context.Context, identity *models.User, parentPath, folderName string) (*models.Node, error)
	Upload(ctx context.Context, identity *models.User, parentPath, displayName string, r io.Reader) (*models.Node, error)
	Open(ctx context.Context, identity *models.User, nodeID int64) (*models.Node, io.ReadCloser, error)
	SoftDelete(ctx context.Context, identity *models.User, nodeID int64) (*models.Node, error)
}

type Handler struct {
	users    UserService
	tree     TreeService
	sessions *SessionManager
	log      logging.Logger
}

func NewHandler(users UserService, tree TreeService, sessions *SessionManager, log logging.Logger) *Handler {
	return &Handler{users: users, tree: tree, sessions: sessions, log: log}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body, ok := errorStatus(err)
	if !ok {
		h.log.Error(r.Context(), "request failed", "path", sanitizePath(r.URL.Path), "error", err)
	}
	writeJSON(w, status, body)
}

// parseForm reads a urlencoded or multipart body. It writes the error
// response itself and reports whether the handler may continue.
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	err := r.ParseMultipartForm(maxMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body is too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "malformed form body")
	return false
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "1", "on", "true", "yes", "y":
		return true
	}
	return false
}

// safeNext accepts only local absolute paths as post-login targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return homeURL
	}
	return next
}

func dataURL(p string) string {
	return "/data" + models.NormalizePath(p)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()) != nil {
		http.Redirect(w, r, homeURL, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ve := common.NewValidationError()

	dob, err := time.Parse(dateLayout, r.FormValue("dob"))
	if err != nil {
		ve.Add("dob", "date of birth must be formatted as YYYY-MM-DD")
	}
	if err := validation.ValidateConfirmation(r.FormValue("password"), r.FormValue("confirm_password")); err != nil {
		ve.Add("confirm_password", err.Error())
	}
	if !ve.Empty() {
		h.fail(w, r, ve)
		return
	}

	user, err := h.users.Register(r.Context(), services.RegisterInput{
		UserName:    r.FormValue("username"),
		Email:       r.FormValue("email"),
		DateOfBirth: dob,
		PhoneNumber: r.FormValue("phone_number"),
		Password:    r.FormValue("password"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserView(user))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()) != nil {
		http.Redirect(w, r, homeURL, http.StatusSeeOther)
		return
	}

	user, err := h.users.Authenticate(r.Context(), r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Login Unsuccessful. Please check email and password")
			return
		}
		h.fail(w, r, err)
		return
	}

	if err := h.sessions.Set(w, user, checkbox(r.FormValue("remember"))); err != nil {
		h.fail(w, r, err)
		return
	}

	next := r.URL.Query().Get("next")
	if next == "" {
		next = r.FormValue("next")
	}
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}

func (h *Handler) listData(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")

	nodes, err := h.tree.ListChildren(r.Context(), IdentityFrom(r.Context()), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	views := make([]nodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, newNodeView(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":  models.NormalizePath(p),
		"nodes": views,
	})
}

func (h *Handler) createFolder(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")
	parent := r.FormValue("parent_path")
	if parent == "" {
		parent = p
	}

	if _, err := h.tree.InsertFolder(r.Context(), IdentityFrom(r.Context()), parent, r.FormValue("folder")); err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, dataURL(p), http.StatusSeeOther)
}

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	p := chi.URLParam(r, "*")

	if !parseForm(w, r) {
		return
	}
	defer cleanupForm(r)

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeFields(w, http.StatusUnprocessableEntity, common.ErrValidationFailed.Error(), map[string]string{"file": "no file selected"})
		return
	}
	defer file.Close()

	parent := r.FormValue("parent_path")
	if parent == "" {
		parent = p
	}

	if _, err := h.tree.Upload(r.Context(), IdentityFrom(r.Context()), parent, hdr.Filename, file); err != nil {
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, dataURL(p), http.StatusSeeOther)
}

// gated reports whether err means the caller may not see the node. Those
// requests are sent to the login page without revealing which case applied.
func gated(err error) bool {
	return errors.Is(err, common.ErrorForbidden) || errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorUnauthorized)
}

func (h *Handler) getFile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	id, ok := parseID(r)
	if identity == nil || !ok {
		redirectToLogin(w, r)
		return
	}

	node, rc, err := h.tree.Open(r.Context(), identity, id)
	if err != nil {
		if gated(err) {
			redirectToLogin(w, r)
			return
		}
		h.fail(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": node.FileName}))
	if node.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(node.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		h.log.Warn(r.Context(), "download interrupted", "node_id", node.ID, "error", err)
	}
}

func (h *Handler) deleteNode(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	id, ok := parseID(r)
	if identity == nil || !ok {
		redirectToLogin(w, r)
		return
	}

	if _, err := h.tree.SoftDelete(r.Context(), identity, id); err != nil {
		if gated(err) {
			redirectToLogin(w, r)
			return
		}
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, homeURL, http.StatusSeeOther)
}

func (h *Handler) account(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserView(IdentityFrom(r.Context())))
}

func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())
	if !parseForm(w, r) {
		return
	}
	defer cleanupForm(r)

	dob, err := time.Parse(dateLayout, r.FormValue("dob"))
	if err != nil {
		ve := common.NewValidationError()
		ve.Add("dob", "date of birth must be formatted as YYYY-MM-DD")
		h.fail(w, r, ve)
		return
	}

	in := services.ProfileInput{
		UserName:    r.FormValue("username"),
		Email:       r.FormValue("email"),
		DateOfBirth: dob,
		PhoneNumber: r.FormValue("phone_number"),
	}
	if file, hdr, err := r.FormFile("picture"); err == nil {
		defer file.Close()
		in.Picture, in.PictureName = file, hdr.Filename
	}

	updated, err := h.users.UpdateProfile(r.Context(), identity, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserView(updated))
}

func (h *Handler) updateAccountPicture(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}
	defer cleanupForm(r)

	file, hdr, err := r.FormFile("picture")
	if err != nil {
		writeFields(w, http.StatusUnprocessableEntity, common.ErrValidationFailed.Error(), map[string]string{"picture": "no file selected"})
		return
	}
	defer file.Close()

	updated, err := h.users.UpdateProfilePicture(r.Context(), IdentityFrom(r.Context()), file, hdr.Filename)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newUserView(updated))
}

func (h *Handler) accountPicture(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFrom(r.Context())

	rc, err := h.users.OpenProfilePicture(r.Context(), identity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer rc.Close()

	ct := mime.TypeByExtension(path.Ext(identity.ImageFile))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func (h *Handler) requestReset(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()) != nil {
		http.Redirect(w, r, homeURL, http.StatusSeeOther)
		return
	}

	email := r.FormValue("email")
	if err := validation.ValidateEmail(email); err != nil {
		writeFields(w, http.StatusUnprocessableEntity, common.ErrValidationFailed.Error(), map[string]string{"email": err.Error()})
		return
	}

	if err := h.users.RequestPasswordReset(r.Context(), email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeFields(w, http.StatusUnprocessableEntity, common.ErrValidationFailed.Error(),
				map[string]string{"email": "There is no account created for this email."})
			return
		}
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	if IdentityFrom(r.Context()) != nil {
		http.Redirect(w, r, homeURL, http.StatusSeeOther)
		return
	}

	password := r.FormValue("password")
	if err := validation.ValidateConfirmation(password, r.FormValue("confirm_password")); err != nil {
		writeFields(w, http.StatusUnprocessableEntity, common.ErrValidationFailed.Error(), map[string]string{"confirm_password": err.Error()})
		return
	}

	if err := h.users.ResetPassword(r.Context(), chi.URLParam(r, "token"), password); err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			http.Redirect(w, r, "/reset_password", http.StatusSeeOther)
			return
		}
		h.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
