package seed

import (
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
)

const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "admin123" // change after first login
)

// Admin names the first ADMIN account. Empty fields fall back to the defaults.
type Admin struct {
	Email    string
	Password string
}

// FirstSetup ensures the default ministry and an ADMIN account exist. It is idempotent;
// an existing admin keeps its password.
func FirstSetup(db *gorm.DB, admin Admin) error {
	if admin.Email == "" {
		admin.Email = DefaultAdminEmail
	}
	if admin.Password == "" {
		admin.Password = DefaultAdminPassword
	}
	admin.Email = strings.ToLower(strings.TrimSpace(admin.Email))

	ministry := models.Ministry{Name: "Default Ministry", Slug: "default"}
	if err := db.Where("slug = ?", ministry.Slug).FirstOrCreate(&ministry).Error; err != nil {
		return err
	}

	var user models.User
	err := db.Where("email = ?", admin.Email).First(&user).Error
	switch {
	case err == nil:
		if user.Role != string(authz.RoleAdmin) {
			return errors.New("seed: " + admin.Email + " exists without ADMIN role")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, herr := auth.HashPassword(admin.Password)
		if herr != nil {
			return herr
		}
		user = models.User{
			Email:        admin.Email,
			Name:         "Admin User",
			Role:         string(authz.RoleAdmin),
			Status:       models.UserActive,
			PasswordHash: hash,
		}
		user.SetMinistry(ministry.ID)
		if err := db.Create(&user).Error; err != nil {
			return err
		}
	default:
		return err
	}

	slog.Info("seed ok", "admin", admin.Email, "ministry", ministry.Slug)
	return nil
}
