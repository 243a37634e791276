package services

import (
	"errors"
	"time"

	"github.com/carewise/carehub/internal/config"
	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/utils"
	"github.com/carewise/carehub/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserDisabled       = errors.New("user account is disabled")
)

type AuthService struct {
	db   *gorm.DB
	ldap *LDAPService
	cfg  *config.Config
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		db:   db,
		ldap: NewLDAPService(&cfg.LDAP),
		cfg:  cfg,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	ExpireAt time.Time    `json:"expire_at"`
}

// Login authenticates a user locally or via LDAP depending on the
// account's auth type, and issues a JWT on success.
func (s *AuthService) Login(req *LoginRequest) (*LoginResponse, error) {
	var user models.User
	err := s.db.Where("username = ?", req.Username).First(&user).Error

	switch {
	case err == nil && user.AuthType == models.AuthTypeLDAP:
		if err := s.ldapAuth(&user, req.Password); err != nil {
			return nil, err
		}
	case err == nil:
		if err := s.localAuth(&user, req.Password); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound) && s.cfg.LDAP.Enabled:
		// Unknown users may still exist in the directory; provision
		// them on first successful LDAP login.
		provisioned, perr := s.ldapProvision(req.Username, req.Password)
		if perr != nil {
			return nil, perr
		}
		user = *provisioned
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrInvalidCredentials
	default:
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrUserDisabled
	}

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, s.cfg.JWT.ExpireHour)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user.LastLogin = &now
	if err := s.db.Model(&user).Update("last_login", now).Error; err != nil {
		logger.Warnf("failed to record last login for %s: %v", user.Username, err)
	}

	return &LoginResponse{
		Token:    token,
		User:     &user,
		ExpireAt: now.Add(time.Duration(s.cfg.JWT.ExpireHour) * time.Hour),
	}, nil
}

func (s *AuthService) localAuth(user *models.User, password string) error {
	if user.Password == "" || !utils.CheckPassword(password, user.Password) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *AuthService) ldapAuth(user *models.User, password string) error {
	ldapUser, err := s.ldap.Authenticate(user.Username, password)
	if err != nil {
		logger.Warnf("LDAP authentication failed for %s: %v", user.Username, err)
		return ErrInvalidCredentials
	}
	// Keep directory attributes in sync on each login.
	updates := map[string]interface{}{}
	if ldapUser.Email != "" && ldapUser.Email != user.Email {
		updates["email"] = ldapUser.Email
		user.Email = ldapUser.Email
	}
	if ldapUser.Nickname != "" && ldapUser.Nickname != user.Nickname {
		updates["nickname"] = ldapUser.Nickname
		user.Nickname = ldapUser.Nickname
	}
	if len(updates) > 0 {
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			logger.Warnf("failed to sync LDAP attributes for %s: %v", user.Username, err)
		}
	}
	return nil
}

func (s *AuthService) ldapProvision(username, password string) (*models.User, error) {
	ldapUser, err := s.ldap.Authenticate(username, password)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user := models.User{
		Username: username,
		Email:    ldapUser.Email,
		Nickname: ldapUser.Nickname,
		Role:     models.RoleAgent,
		AuthType: models.AuthTypeLDAP,
		IsActive: true,
	}
	if user.Nickname == "" {
		user.Nickname = username
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	logger.Infof("provisioned LDAP user %s", username)
	return &user, nil
}

// ChangePassword updates a local account's password after verifying
// the old one. LDAP accounts manage passwords in the directory.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return err
	}
	if user.AuthType != models.AuthTypeLocal {
		return errors.New("password is managed by the directory")
	}
	if !utils.CheckPassword(oldPassword, user.Password) {
		return ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.Model(&user).Update("password", hash).Error
}
