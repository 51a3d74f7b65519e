package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeFields(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	writeJSON(w, status, errorBody{Error: msg, Fields: fields})
}

// errorStatus maps service errors to a response. ok is false for errors
// that are not part of the service contract.
func errorStatus(err error) (status int, body errorBody, ok bool) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorBody{Error: common.ErrValidationFailed.Error(), Fields: ve.Fields}, true
	case errors.Is(err, common.ErrDuplicateUsername):
		return http.StatusConflict, errorBody{Error: err.Error(), Fields: map[string]string{"username": "That username is taken. Please choose a different one."}}, true
	case errors.Is(err, common.ErrDuplicateEmail):
		return http.StatusConflict, errorBody{Error: err.Error(), Fields: map[string]string{"email": "That email is taken. Please choose a different one."}}, true
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}, true
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, errorBody{Error: "forbidden"}, true
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, errorBody{Error: "not found"}, true
	}
	return http.StatusInternalServerError, errorBody{Error: "internal error"}, false
}

type userView struct {
	ID          int64  `json:"id"`
	UserName    string `json:"username"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dob"`
	PhoneNumber string `json:"phone_number"`
	ImageFile   string `json:"image_file"`
	ImageURL    string `json:"image_url,omitempty"`
}

func newUserView(u *models.User) userView {
	var image string
	if u.ImageFile != "" && u.ImageFile != common.DefaultImageFile {
		image = "/account/picture"
	}
	return userView{
		ID:          u.ID,
		UserName:    u.UserName,
		Email:       u.Email,
		DateOfBirth: u.DateOfBirth.Format(dateLayout),
		PhoneNumber: u.PhoneNumber,
		ImageFile:   u.ImageFile,
		ImageURL:    image,
	}
}

type nodeView struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	ParentPath string    `json:"parent_path"`
	Type       string    `json:"type"`
	Size       int64     `json:"size"`
	IsFolder   bool      `json:"is_folder"`
	Link       string    `json:"link"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// newNodeView links folders to their listing and files to their download.
func newNodeView(n *models.Node) nodeView {
	link := "/getfile/" + formatID(n.ID)
	if n.IsFolder() {
		link = "/data" + models.FolderPath(n)
	}
	return nodeView{
		ID:         n.ID,
		Name:       n.FileName,
		ParentPath: n.ParentPath,
		Type:       n.Type,
		Size:       n.Size,
		IsFolder:   n.IsFolder(),
		Link:       link,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}
