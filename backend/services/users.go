package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"learnpath/backend/gamification"
	"learnpath/backend/models"
)

// Accounts up to this id earn the pioneer achievement.
const pioneerLimit = 100

type Users struct {
	env      *Env
	progress *Progress
}

type RegisterInput struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (u *Users) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	user := models.User{
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hashed),
		DisplayName:  in.Username,
		SelectedSkin: models.DefaultSkin,
	}

	err = u.env.transact(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).
			Where("username_lower = ? OR email = ?", strings.ToLower(in.Username), user.Email).
			Count(&n).Error; err != nil {
			return errors.Wrap(err, "check username")
		}
		if n > 0 {
			return errors.Wrap(ErrConflict, "username or email already taken")
		}
		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Lost a race with a concurrent registration, or the
				// name belongs to a removed account.
				return errors.Wrap(ErrConflict, "username or email already taken")
			}
			return errors.Wrap(err, "create user")
		}
		if user.ID <= pioneerLimit {
			_, err := u.progress.apply(tx, user.ID, gamification.Event{Kind: gamification.KindPioneer})
			return err
		}
		_, _, err := u.progress.load(tx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login accepts either the username or the email as identifier and
// counts as the day's check-in.
func (u *Users) Login(ctx context.Context, identifier, password string) (*models.User, gamification.Outcome, error) {
	var user models.User
	ident := strings.ToLower(strings.TrimSpace(identifier))
	err := u.env.DB.WithContext(ctx).
		Where("username_lower = ? OR email = ?", ident, ident).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gamification.Outcome{}, errors.Wrap(ErrAuth, "invalid credentials")
		}
		return nil, gamification.Outcome{}, errors.Wrap(err, "load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, gamification.Outcome{}, errors.Wrap(ErrAuth, "invalid credentials")
	}

	var out gamification.Outcome
	err = u.env.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.LoginHistory{UserID: user.ID, LoginTime: u.env.now()}).Error; err != nil {
			return errors.Wrap(err, "record login")
		}
		var err error
		out, err = u.progress.apply(tx, user.ID, gamification.Event{Kind: gamification.KindDailyCheckIn})
		return err
	})
	if err != nil {
		return nil, out, err
	}
	return &user, out, nil
}

func (u *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.env.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (u *Users) ByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := u.env.DB.WithContext(ctx).
		Where("username_lower = ?", strings.ToLower(username)).
		First(&user).Error
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// UsernameAvailable reports whether name is well formed and unused,
// ignoring case.
func (u *Users) UsernameAvailable(ctx context.Context, name string) (bool, error) {
	var n int64
	err := u.env.DB.WithContext(ctx).Model(&models.User{}).
		Where("username_lower = ?", strings.ToLower(name)).
		Count(&n).Error
	if err != nil {
		return false, errors.Wrap(err, "check username")
	}
	return n == 0, nil
}

type ProfileInput struct {
	Username     *string `json:"username" validate:"omitempty,username"`
	DisplayName  *string `json:"display_name" validate:"omitempty,max=50"`
	Bio          *string `json:"bio" validate:"omitempty,max=300"`
	Website      *string `json:"website" validate:"omitempty,url"`
	Location     *string `json:"location" validate:"omitempty,max=100"`
	PhotoURL     *string `json:"photo_url" validate:"omitempty,url"`
	IsPrivate    *bool   `json:"is_private"`
	SelectedSkin *string `json:"selected_skin" validate:"omitempty,skin"`
}

func (u *Users) UpdateProfile(ctx context.Context, id uint, in ProfileInput) (*models.User, error) {
	var user models.User
	err := u.env.transact(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFound(err, "user")
		}
		if in.Username != nil && !strings.EqualFold(*in.Username, user.Username) {
			var n int64
			if err := tx.Model(&models.User{}).
				Where("username_lower = ? AND id <> ?", strings.ToLower(*in.Username), id).
				Count(&n).Error; err != nil {
				return errors.Wrap(err, "check username")
			}
			if n > 0 {
				return errors.Wrap(ErrConflict, "username already taken")
			}
		}
		if in.Username != nil {
			user.Username = *in.Username
		}
		setIf(&user.DisplayName, in.DisplayName)
		setIf(&user.Bio, in.Bio)
		setIf(&user.Website, in.Website)
		setIf(&user.Location, in.Location)
		setIf(&user.PhotoURL, in.PhotoURL)
		setIf(&user.SelectedSkin, in.SelectedSkin)
		if in.IsPrivate != nil {
			user.IsPrivate = *in.IsPrivate
		}
		if err := tx.Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errors.Wrap(ErrConflict, "username already taken")
			}
			return errors.Wrap(err, "save profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Search matches usernames and display names by prefix.
func (u *Users) Search(ctx context.Context, q string, page Page) ([]models.User, error) {
	page = page.normalize()
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return []models.User{}, nil
	}
	var users []models.User
	err := u.env.DB.WithContext(ctx).
		Where("username_lower LIKE ? OR lower(display_name) LIKE ?", q+"%", q+"%").
		Order("followers_count desc, id").
		Limit(page.Limit).Offset(page.Offset).
		Find(&users).Error
	return users, errors.Wrap(err, "search users")
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
