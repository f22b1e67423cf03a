package service

import (
	"context"
	"errors"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/apperrors"
	"go-armory-ledger/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUsernameExists = errors.New("username already exists")
)

type UserService interface {
	CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error)
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=100"`
	Password string     `json:"password" validate:"required,min=8"`
	FullName string     `json:"full_name" validate:"required"`
	RoleID   uint       `json:"role_id" validate:"required"`
	BaseID   *uuid.UUID `json:"base_id"` // required for every role but admin
}

type UpdateUserRequest struct {
	Password *string    `json:"password,omitempty" validate:"omitempty,min=8"`
	FullName string     `json:"full_name" validate:"required"`
	RoleID   uint       `json:"role_id" validate:"required"`
	BaseID   *uuid.UUID `json:"base_id"`
	IsActive *bool      `json:"is_active"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	baseRepo repository.BaseRepository
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, baseRepo repository.BaseRepository) UserService {
	return &userService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		baseRepo: baseRepo,
	}
}

// checkPosting verifies a role and base combination. Admins are global,
// everyone else belongs to exactly one base.
func (s *userService) checkPosting(roleID uint, baseID *uuid.UUID) (*model.Role, error) {
	role, err := s.roleRepo.FindByID(roleID)
	if err != nil {
		return nil, notFoundOr(err, "role", roleID)
	}
	if role.Code == model.RoleAdmin {
		return role, nil
	}
	if baseID == nil {
		return nil, apperrors.NewValidationError("role %s requires a base", role.Code)
	}
	if _, err := s.baseRepo.FindByID(context.Background(), *baseID); err != nil {
		return nil, notFoundOr(err, "base", *baseID)
	}
	return role, nil
}

func (s *userService) CreateUser(req *CreateUserRequest, creatorID string) (*model.User, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByUsername(req.Username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role, err := s.checkPosting(req.RoleID, req.BaseID)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		FullName: req.FullName,
		RoleID:   &role.ID,
		IsActive: true,
	}
	if role.Code != model.RoleAdmin {
		user.BaseID = req.BaseID
	}
	user.CreatedBy = creatorID
	user.UpdatedBy = creatorID

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(user.ID)
}

func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, updaterID string) (*model.User, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	role, err := s.checkPosting(req.RoleID, req.BaseID)
	if err != nil {
		return nil, err
	}

	user.FullName = req.FullName
	user.RoleID = &role.ID
	user.BaseID = nil
	if role.Code != model.RoleAdmin {
		user.BaseID = req.BaseID
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = updaterID

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(userID)
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}
