// Package services contains server-side business logic. UserService owns
// identities: registration, login, profile edits and password resets.
// TreeService owns each user's virtual filesystem.
package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/clouddrive/internal/common"
	"github.com/dmitrijs2005/clouddrive/internal/cryptox"
	"github.com/dmitrijs2005/clouddrive/internal/dbx"
	"github.com/dmitrijs2005/clouddrive/internal/logging"
	"github.com/dmitrijs2005/clouddrive/internal/server/auth"
	"github.com/dmitrijs2005/clouddrive/internal/server/blob"
	"github.com/dmitrijs2005/clouddrive/internal/server/config"
	"github.com/dmitrijs2005/clouddrive/internal/server/mailer"
	"github.com/dmitrijs2005/clouddrive/internal/server/models"
	"github.com/dmitrijs2005/clouddrive/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clouddrive/internal/timex"
	"github.com/dmitrijs2005/clouddrive/internal/validation"
)

type RegisterInput struct {
	UserName    string
	Email       string
	DateOfBirth time.Time
	PhoneNumber string
	Password    string
}

type ProfileInput struct {
	UserName    string
	Email       string
	DateOfBirth time.Time
	PhoneNumber string

	// Picture, when set, replaces the profile picture in the same update.
	Picture     io.Reader
	PictureName string
}

// pictureExtensions are the upload types accepted for profile pictures.
var pictureExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	mailer      mailer.Mailer
	blobs       blob.Store
	resetTTL    time.Duration
	baseURL     string
	now         timex.Clock
	log         logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService,
	mail mailer.Mailer, blobs blob.Store, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		mailer:      mail,
		blobs:       blobs,
		resetTTL:    cfg.ResetTokenValidityDuration,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		now:         time.Now,
		log:         log.With("module", "users"),
	}
}

func (s *UserService) validateProfile(ve *common.ValidationError, in ProfileInput) {
	if err := validation.ValidateUsername(in.UserName); err != nil {
		ve.Add("username", err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		ve.Add("email", err.Error())
	}
	if err := validation.ValidateDateOfBirth(in.DateOfBirth, s.now()); err != nil {
		ve.Add("dob", err.Error())
	}
	if err := validation.ValidatePhoneNumber(in.PhoneNumber); err != nil {
		ve.Add("phone_number", err.Error())
	}
}

// Register validates the input, rejects taken usernames and emails and
// stores a new identity with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	ve := common.NewValidationError()
	s.validateProfile(ve, ProfileInput{
		UserName: in.UserName, Email: in.Email, DateOfBirth: in.DateOfBirth, PhoneNumber: in.PhoneNumber,
	})
	if err := validation.ValidatePassword(in.Password); err != nil {
		ve.Add("password", err.Error())
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	taken, err := repo.ExistsUsername(ctx, in.UserName, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.ErrDuplicateUsername
	}
	taken, err = repo.ExistsEmail(ctx, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.ErrDuplicateEmail
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := repo.Create(ctx, &models.User{
		UserName:     in.UserName,
		Email:        in.Email,
		DateOfBirth:  in.DateOfBirth,
		PhoneNumber:  in.PhoneNumber,
		ImageFile:    common.DefaultImageFile,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Authenticate returns the identity for email when password matches.
// Unknown emails and wrong passwords both yield common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	ok, err := cryptox.CheckPassword(user.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "stored password hash unusable", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, id)
}

// UpdateProfile rewrites the editable fields of identity and, when
// in.Picture is set, its profile picture. Username and email are checked for
// uniqueness only when they change. Nothing is saved unless every field,
// the picture included, is valid.
func (s *UserService) UpdateProfile(ctx context.Context, identity *models.User, in ProfileInput) (*models.User, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}

	ve := common.NewValidationError()
	s.validateProfile(ve, in)

	var thumb []byte
	if in.Picture != nil {
		var msg string
		thumb, msg = preparePicture(in.Picture, in.PictureName)
		if msg != "" {
			ve.Add("picture", msg)
		}
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	updated := *identity
	updated.UserName = in.UserName
	updated.Email = in.Email
	updated.DateOfBirth = in.DateOfBirth
	updated.PhoneNumber = in.PhoneNumber

	if thumb != nil {
		key, _, err := s.blobs.Put(ctx, bytes.NewReader(thumb), in.PictureName)
		if err != nil {
			return nil, err
		}
		updated.ImageFile = key
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if in.UserName != identity.UserName {
			taken, err := repo.ExistsUsername(ctx, in.UserName, identity.ID)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrDuplicateUsername
			}
		}
		if in.Email != identity.Email {
			taken, err := repo.ExistsEmail(ctx, in.Email, identity.ID)
			if err != nil {
				return err
			}
			if taken {
				return common.ErrDuplicateEmail
			}
		}

		if err := repo.Update(ctx, &updated); err != nil {
			return err
		}
		if thumb != nil {
			return repo.UpdateImage(ctx, identity.ID, updated.ImageFile)
		}
		return nil
	})
	if err != nil {
		if thumb != nil {
			s.log.Warn(ctx, "profile picture stored without an update", "storage_key", updated.ImageFile, "error", err)
		}
		return nil, err
	}

	return &updated, nil
}

// preparePicture checks the upload type and shrinks it to the profile
// picture size. A non-empty message means the picture was rejected.
func preparePicture(r io.Reader, filename string) ([]byte, string) {
	if !pictureExtensions[models.FileType(filename)] {
		return nil, "only jpg, jpeg and png images are allowed"
	}

	thumb, _, err := blob.Thumbnail(r, blob.ProfilePictureSize)
	if err != nil {
		if errors.Is(err, blob.ErrImageTooLarge) {
			return nil, "image dimensions are too large"
		}
		return nil, "file is not a readable image"
	}
	return thumb, ""
}

// UpdateProfilePicture shrinks a jpg or png upload to the profile picture
// size, stores it and points identity at it.
func (s *UserService) UpdateProfilePicture(ctx context.Context, identity *models.User, r io.Reader, filename string) (*models.User, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}

	thumb, msg := preparePicture(r, filename)
	if msg != "" {
		ve := common.NewValidationError()
		ve.Add("picture", msg)
		return nil, ve
	}

	key, _, err := s.blobs.Put(ctx, bytes.NewReader(thumb), filename)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.Users(s.db).UpdateImage(ctx, identity.ID, key); err != nil {
		return nil, err
	}

	updated := *identity
	updated.ImageFile = key
	return &updated, nil
}

// OpenProfilePicture returns the stored picture of identity. Identities
// still on the default picture get common.ErrorNotFound.
func (s *UserService) OpenProfilePicture(ctx context.Context, identity *models.User) (io.ReadCloser, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	if identity.ImageFile == "" || identity.ImageFile == common.DefaultImageFile {
		return nil, common.ErrorNotFound
	}
	return s.blobs.Open(ctx, identity.ImageFile)
}

// ResetLink issues a password reset token for user and returns the link
// that redeems it.
func (s *UserService) ResetLink(user *models.User) (string, error) {
	token, err := s.tokens.Issue(user.ID, auth.PurposePasswordReset, s.resetTTL)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/reset_password/" + token, nil
}

// ResetLinkByEmail returns a reset link for the owner of email without
// sending it anywhere. Used by operator tooling.
func (s *UserService) ResetLinkByEmail(ctx context.Context, email string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.ResetLink(user)
}

// RequestPasswordReset mails a reset link to the owner of email.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	link, err := s.ResetLink(user)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("To reset the password click on the link below.\n%s\n"+
		"If you did not request this change please ignore this email and no changes will be made.\n", link)

	if err := s.mailer.Send(ctx, mailer.Message{To: user.Email, Subject: "Password Reset Request", Body: body}); err != nil {
		return err
	}

	s.log.Info(ctx, "password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword redeems a reset token and replaces the password of the
// identity it was issued for.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, err := s.tokens.Verify(token, auth.PurposePasswordReset)
	if err != nil {
		return err
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		ve := common.NewValidationError()
		ve.Add("password", err.Error())
		return ve
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return err
	}

	s.log.Info(ctx, "password reset", "user_id", userID)
	return nil
}
