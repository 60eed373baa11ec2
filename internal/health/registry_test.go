package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/zsiec/viewport/internal/errors"
	"github.com/zsiec/viewport/internal/registry"
)

func TestRegistryChecker_Name(t *testing.T) {
	checker := NewRegistryChecker(registry.NewMockRegistry())
	assert.Equal(t, "registry", checker.Name())
}

func TestRegistryChecker_Reachable(t *testing.T) {
	reg := registry.NewMockRegistry()
	checker := NewRegistryChecker(reg)

	assert.NoError(t, checker.Check(context.Background()))
}

func TestRegistryChecker_ClosedRegistry(t *testing.T) {
	reg := registry.NewMockRegistry()
	require.NoError(t, reg.Close())

	checker := NewRegistryChecker(reg)

	err := checker.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.SeverityDegraded, apperrors.SeverityOf(err))
}
