package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/KilloQ/StudentsClubs/internal/repository"
	"github.com/KilloQ/StudentsClubs/pkg/jwt"
	"github.com/KilloQ/StudentsClubs/pkg/metrics"
)

// TokenBlacklist revokes session tokens by jti. pkg/redis.Client satisfies it.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Service aggregates every domain service.
type Service struct {
	Auth       AuthService
	Catalog    CatalogService
	Membership MembershipService
	Attendance AttendanceService
	Profile    ProfileService
	Export     ExportService
}

// NewService wires the services. blacklist may be nil when Redis is unavailable;
// logout then cannot revoke tokens.
func NewService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(repo, jwtMgr, blacklist, m, logger),
		Catalog:    NewCatalogService(repo, logger),
		Membership: NewMembershipService(repo, m, logger),
		Attendance: NewAttendanceService(repo, m, logger),
		Profile:    NewProfileService(repo, logger),
		Export:     NewExportService(repo, logger),
	}
}

// ── shared helpers ──

// percentage is 100*part/total rounded to one decimal, 0 when total is 0.
func percentage(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	v := float64(part) * 100 / float64(total)
	return float64(int64(v*10+0.5)) / 10
}
