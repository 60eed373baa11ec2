package health

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/zsiec/viewport/internal/errors"
)

// ExportDirChecker verifies that an export destination directory exists
// and accepts writes. Export failures degrade the session rather than
// stop it, and the checker reports the same way.
type ExportDirChecker struct {
	name string
	dir  string
}

// NewExportDirChecker creates a checker probing the given directory. The
// name distinguishes multiple export destinations in the results.
func NewExportDirChecker(name, dir string) *ExportDirChecker {
	return &ExportDirChecker{
		name: name,
		dir:  dir,
	}
}

// Name returns the name of the checker.
func (e *ExportDirChecker) Name() string {
	return e.name
}

// Check stats the directory and writes a short-lived probe file into it.
func (e *ExportDirChecker) Check(ctx context.Context) error {
	info, err := os.Stat(e.dir)
	if err != nil {
		return apperrors.WrapDegraded(err, "export", fmt.Sprintf("export directory %s is not accessible", e.dir))
	}
	if !info.IsDir() {
		return apperrors.Degraded("export", fmt.Sprintf("export path %s is not a directory", e.dir))
	}

	probe, err := os.CreateTemp(e.dir, ".viewport-health-*")
	if err != nil {
		return apperrors.WrapDegraded(err, "export", fmt.Sprintf("export directory %s is not writable", e.dir))
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}
