package services

import (
	"context"
	"errors"

	"github.com/carewise/carehub/internal/models"
	"github.com/carewise/carehub/internal/utils"
	"gorm.io/gorm"
)

var ErrDuplicateUsername = errors.New("username already exists")

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type UserListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	Role     string `form:"role"`
	Keyword  string `form:"keyword"`
}

type UserListResponse struct {
	Total int64         `json:"total"`
	Users []models.User `json:"users"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
	AuthType string `json:"auth_type"`
}

func (s *UserService) List(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	query := s.db.WithContext(ctx).Model(&models.User{})

	if req.Role != "" {
		query = query.Where("role = ?", req.Role)
	}
	if req.Keyword != "" {
		like := "%" + req.Keyword + "%"
		query = query.Where("username LIKE ? OR nickname LIKE ? OR email LIKE ?", like, like, like)
	}

	var resp UserListResponse
	if err := query.Count(&resp.Total).Error; err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	err := query.Order("username ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&resp.Users).Error
	return &resp, err
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	var count int64
	s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		return nil, ErrDuplicateUsername
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Nickname: req.Nickname,
		Role:     req.Role,
		AuthType: req.AuthType,
		IsActive: true,
	}
	if user.Role == "" {
		user.Role = models.RoleAgent
	}
	if user.AuthType == "" {
		user.AuthType = models.AuthTypeLocal
	}
	if user.Nickname == "" {
		user.Nickname = req.Username
	}

	if user.AuthType == models.AuthTypeLocal {
		if req.Password == "" {
			return nil, errors.New("password is required for local accounts")
		}
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}

	// Password changes go through AuthService.ChangePassword.
	delete(updates, "password")
	delete(updates, "username")

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.User{}, id).Error
}

// EnsureDefaultAdmin creates the admin account on first boot. The
// password must be changed after initial login.
func (s *UserService) EnsureDefaultAdmin() error {
	var count int64
	s.db.Model(&models.User{}).Where("username = ?", "admin").Count(&count)
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return err
	}
	admin := models.User{
		Username: "admin",
		Password: hash,
		Nickname: "Administrator",
		Role:     models.RoleAdmin,
		AuthType: models.AuthTypeLocal,
		IsActive: true,
	}
	return s.db.Create(&admin).Error
}
