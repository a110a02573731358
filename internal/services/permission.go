package services

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"mtrbac/internal/models"
	apperrors "mtrbac/pkg/errors"
	"mtrbac/pkg/metrics"

	"gorm.io/gorm"
)

// ActionForMethod HTTP 方法到权限动作的映射
func ActionForMethod(method string) (string, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return models.AccessView, nil
	case http.MethodPost:
		return models.AccessAdd, nil
	case http.MethodPut, http.MethodPatch:
		return models.AccessEdit, nil
	case http.MethodDelete:
		return models.AccessDelete, nil
	default:
		return "", apperrors.ErrUnknownAction
	}
}

var verbPrefixes = []string{"get-", "create-", "update-", "delete-", "list-"}

// ModuleFromPath 路由未声明模块时从路径推断：
// /api/tenant/<key>/get-roles -> ROLES，/api/modules/... -> MODULES
func ModuleFromPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) > 0 && segs[0] == "api" {
		segs = segs[1:]
	}
	if len(segs) >= 2 && segs[0] == "tenant" {
		segs = segs[2:]
	}
	if len(segs) == 0 || segs[0] == "" {
		return ""
	}

	name := segs[0]
	for _, p := range verbPrefixes {
		if strings.HasPrefix(name, p) {
			name = strings.TrimPrefix(name, p)
			break
		}
	}
	if !strings.HasSuffix(name, "s") {
		name += "s"
	}
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// Allows 先看 ALL_MODULE 全局授权，再找目标模块上动作匹配或为 all 的授权；没有显式拒绝
func Allows(perms []models.Permission, modules []string, action string) bool {
	for _, p := range perms {
		if p.ModuleID == models.AllModule && p.AccessType == models.AccessAll && p.Granted() {
			return true
		}
	}
	for _, p := range perms {
		if !p.Granted() {
			continue
		}
		if p.AccessType != action && p.AccessType != models.AccessAll {
			continue
		}
		for _, m := range modules {
			if strings.EqualFold(p.ModuleID, m) {
				return true
			}
		}
	}
	return false
}

// Evaluator 权限判定
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Authorize 在调用者所属的库中查角色并判定；db 由调用方按令牌中的租户选定
func (e *Evaluator) Authorize(ctx context.Context, db *gorm.DB, roleID string, modules []string, method string) error {
	err := e.authorize(ctx, db, roleID, modules, method)
	switch {
	case err == nil:
		metrics.IncAuthzDecision("allow")
	case apperrors.KindOf(err) == apperrors.KindForbidden:
		metrics.IncAuthzDecision("deny")
	default:
		metrics.IncAuthzDecision("error")
	}
	return err
}

func (e *Evaluator) authorize(ctx context.Context, db *gorm.DB, roleID string, modules []string, method string) error {
	action, err := ActionForMethod(method)
	if err != nil {
		return err
	}
	if roleID == "" {
		return apperrors.ErrInvalidRole
	}

	var role models.Role
	err = db.WithContext(ctx).
		Where("role_id = ? AND status = ?", roleID, models.StatusActive).
		First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrInvalidRole
	}
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, err, "load role")
	}

	if !Allows(role.Permissions, modules, action) {
		return apperrors.ErrPermissionDenied
	}
	return nil
}
