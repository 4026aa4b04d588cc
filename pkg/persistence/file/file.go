// Package file provides a file-based workflow store: one JSON document per
// workflow holding its steps, connections and roles.
package file

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dukex/stepflow/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	store          *store
	workflowRepo   *WorkflowRepository
	stepRepo       *StepRepository
	connectionRepo *ConnectionRepository
	roleRepo       *RoleRepository
}

// NewPersistence creates a new instance of Persistence with the specified root
// directory. A file:// prefix is accepted.
func NewPersistence(root string) *Persistence {
	s := &store{root: strings.Replace(root, "file://", "", 1)}

	return &Persistence{
		store:          s,
		workflowRepo:   &WorkflowRepository{store: s},
		stepRepo:       &StepRepository{store: s},
		connectionRepo: &ConnectionRepository{store: s},
		roleRepo:       &RoleRepository{store: s},
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists and is a directory.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fp.store.root)
	if err != nil {
		return fmt.Errorf("file store unavailable: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("file store root %s is not a directory", fp.store.root)
	}

	return nil
}

func (fp *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return fp.workflowRepo
}

func (fp *Persistence) StepRepository() persistence.StepRepository {
	return fp.stepRepo
}

func (fp *Persistence) ConnectionRepository() persistence.ConnectionRepository {
	return fp.connectionRepo
}

func (fp *Persistence) RoleRepository() persistence.RoleRepository {
	return fp.roleRepo
}
