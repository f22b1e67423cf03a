package main

import (
	"errors"

	"go-armory-ledger/internal/model"
	"go-armory-ledger/internal/repository"
	"go-armory-ledger/pkg/config"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// seedPrivilegesRolesAndAdmin creates default privileges, roles, and admin user if they don't exist
func seedPrivilegesRolesAndAdmin(db *gorm.DB, admin config.AdminConfig, log *zap.Logger) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Warn("failed to seed privileges", zap.Error(err))
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Warn("failed to seed roles", zap.Error(err))
	}

	allPrivileges, err := privilegeRepo.FindAll()
	if err != nil {
		log.Warn("failed to load privileges", zap.Error(err))
		return
	}
	if err := roleRepo.GrantDefaultPrivileges(allPrivileges); err != nil {
		log.Warn("failed to grant role privileges", zap.Error(err))
	}

	if _, err := userRepo.FindByUsername(admin.Username); err == nil {
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("failed to look up admin user", zap.Error(err))
		return
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		log.Warn("admin role missing", zap.Error(err))
		return
	}
	user := &model.User{
		Username: admin.Username,
		FullName: "Administrator",
		RoleID:   &adminRole.ID,
		IsActive: true,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		log.Warn("failed to hash admin password", zap.Error(err))
		return
	}
	if err := userRepo.Create(user); err != nil {
		log.Warn("failed to create admin user", zap.Error(err))
		return
	}
	log.Info("admin user created", zap.String("username", admin.Username))
}
