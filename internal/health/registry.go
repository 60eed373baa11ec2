package health

import (
	"context"

	apperrors "github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/registry"
)

// RegistryChecker checks the session presence registry. List exercises
// the same round trip the heartbeat uses. Losing the registry never
// stops mirroring, so failures report as degraded.
type RegistryChecker struct {
	reg registry.Registry
}

// NewRegistryChecker creates a new registry health checker.
func NewRegistryChecker(reg registry.Registry) *RegistryChecker {
	return &RegistryChecker{reg: reg}
}

// Name returns the name of the checker.
func (r *RegistryChecker) Name() string {
	return "registry"
}

// Check performs the registry health check.
func (r *RegistryChecker) Check(ctx context.Context) error {
	if _, err := r.reg.List(ctx); err != nil {
		return apperrors.WrapDegraded(err, "registry", "registry list failed")
	}
	return nil
}
