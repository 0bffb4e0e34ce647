// Package seed migrates the schema and creates the default privileges, roles
// and master admin.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockpilot/internal/config"
	"stockpilot/internal/model"
	"stockpilot/internal/repository"
	"stockpilot/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Run is idempotent: roles that already have privileges and an existing admin are left alone
func Run(ctx context.Context, db *gorm.DB, cfg config.SeedConfig, log logger.Logger) error {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	if err := roleRepo.SeedDefaults(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	allPrivileges, err := privilegeRepo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load privileges: %w", err)
	}

	// MASTER_ADMIN gets every privilege
	masterRole, err := roleRepo.FindByCode(ctx, model.RoleMasterAdmin)
	if err != nil {
		return fmt.Errorf("load %s role: %w", model.RoleMasterAdmin, err)
	}
	if len(masterRole.Privileges) == 0 {
		if err := roleRepo.AssignPrivileges(ctx, masterRole, allPrivileges); err != nil {
			return fmt.Errorf("assign %s privileges: %w", model.RoleMasterAdmin, err)
		}
		masterRole.Privileges = allPrivileges
		log.Info("role assigned all privileges", zap.String("role", model.RoleMasterAdmin))
	}

	// ADMIN gets everything except user management
	adminRole, err := roleRepo.FindByCode(ctx, model.RoleAdmin)
	if err != nil {
		return fmt.Errorf("load %s role: %w", model.RoleAdmin, err)
	}
	if len(adminRole.Privileges) == 0 {
		limited := make([]model.Privilege, 0, len(allPrivileges))
		for _, p := range allPrivileges {
			if !model.IsUserAdminPrivilege(p.Code) {
				limited = append(limited, p)
			}
		}
		if err := roleRepo.AssignPrivileges(ctx, adminRole, limited); err != nil {
			return fmt.Errorf("assign %s privileges: %w", model.RoleAdmin, err)
		}
		log.Info("role assigned limited privileges", zap.String("role", model.RoleAdmin))
	}

	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return nil
	}
	_, err = userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	admin := &model.User{
		Email:      email,
		FullName:   "Master Administrator",
		RoleID:     &masterRole.ID,
		IsActive:   true,
		Privileges: masterRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"
	if err := admin.SetPassword(cfg.AdminPassword); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	log.Info("admin user created", zap.String("email", email), zap.String("role", model.RoleMasterAdmin))
	return nil
}
