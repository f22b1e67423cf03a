package repository

import (
	"errors"

	"go-armory-ledger/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	Create(role *model.Role) error
	SeedDefaults() error
	// GrantDefaultPrivileges attaches the seeded privilege set to roles that
	// have none yet.
	GrantDefaultPrivileges(all []model.Privilege) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").First(&role, id).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) Create(role *model.Role) error {
	return r.db.Create(role).Error
}

func (r *roleRepo) SeedDefaults() error {
	for _, defaultRole := range model.DefaultRoles {
		var existingRole model.Role
		err := r.db.Where("code = ?", defaultRole.Code).First(&existingRole).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role := defaultRole
			if err := r.db.Create(&role).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *roleRepo) GrantDefaultPrivileges(all []model.Privilege) error {
	byCode := make(map[string]model.Privilege, len(all))
	for _, p := range all {
		byCode[p.Code] = p
	}

	for _, defaultRole := range model.DefaultRoles {
		role, err := r.FindByCode(defaultRole.Code)
		if err != nil {
			return err
		}
		if len(role.Privileges) > 0 {
			continue
		}

		granted := all
		if defaultRole.Code != model.RoleAdmin {
			granted = nil
			for _, code := range model.DefaultRolePrivileges[defaultRole.Code] {
				if p, ok := byCode[code]; ok {
					granted = append(granted, p)
				}
			}
		}
		if err := r.db.Model(role).Association("Privileges").Replace(granted); err != nil {
			return err
		}
	}
	return nil
}
