package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/dukex/stepflow/pkg/ordering"
	"github.com/google/uuid"
)

// document is the on-disk aggregate of one workflow: workflows/<id>.json.
type document struct {
	Workflow    *models.Workflow     `json:"workflow"`
	Steps       []*models.Step       `json:"steps"`
	Connections []*models.Connection `json:"connections"`
	Roles       []*models.Role       `json:"roles"`
}

func (d *document) step(id string) *models.Step {
	for _, step := range d.Steps {
		if step.ID == id {
			return step
		}
	}

	return nil
}

func (d *document) connection(id string) *models.Connection {
	for _, connection := range d.Connections {
		if connection.ID == id {
			return connection
		}
	}

	return nil
}

func (d *document) role(id string) *models.Role {
	for _, role := range d.Roles {
		if role.ID == id {
			return role
		}
	}

	return nil
}

// storedOrdering returns the stored order_index of every step.
func (d *document) storedOrdering() map[string]int {
	stored := make(map[string]int, len(d.Steps))
	for _, step := range d.Steps {
		stored[step.ID] = step.OrderIndex
	}

	return stored
}

func (d *document) applyOrdering(changes ordering.Changes) {
	for _, step := range d.Steps {
		if orderIndex, ok := changes[step.ID]; ok {
			step.OrderIndex = orderIndex
		}
	}
}

// store serialises every read-modify-write over the workflow documents.
type store struct {
	mu   sync.RWMutex
	root string
}

func (s *store) dir() string {
	return filepath.Join(s.root, "workflows")
}

// validID guards document paths: only UUIDs ever name a file.
func validID(id string) bool {
	_, err := uuid.Parse(id)

	return err == nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}

	return id.String(), nil
}

// load returns nil, nil when the document does not exist.
func (s *store) load(workflowID string) (*document, error) {
	if !validID(workflowID) {
		return nil, nil
	}

	body, err := os.ReadFile(filepath.Join(s.dir(), workflowID+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", workflowID, err)
	}

	var doc document

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &doc, nil
}

// save writes the document through a temporary file and a rename.
func (s *store) save(doc *document) error {
	err := os.MkdirAll(s.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", doc.Workflow.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir(), doc.Workflow.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Close()
	} else {
		_ = tmp.Close()
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write workflow %s: %w", doc.Workflow.ID, err)
	}

	err = os.Rename(tmp.Name(), filepath.Join(s.dir(), doc.Workflow.ID+".json"))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace workflow %s: %w", doc.Workflow.ID, err)
	}

	return nil
}

// remove reports whether a document existed.
func (s *store) remove(workflowID string) (bool, error) {
	if !validID(workflowID) {
		return false, nil
	}

	err := os.Remove(filepath.Join(s.dir(), workflowID+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to delete workflow %s: %w", workflowID, err)
	}

	return true, nil
}

func (s *store) all() ([]*document, error) {
	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make([]*document, 0), nil
		}

		return nil, fmt.Errorf("failed to list workflow files: %w", err)
	}

	docs := make([]*document, 0, len(entries))

	for _, entry := range entries {
		workflowID, ok := strings.CutSuffix(entry.Name(), ".json")
		if entry.IsDir() || !ok {
			continue
		}

		doc, err := s.load(workflowID)
		if err != nil {
			return nil, err
		}

		if doc != nil {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// find returns the first document for which match is true.
func (s *store) find(match func(*document) bool) (*document, error) {
	docs, err := s.all()
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if match(doc) {
			return doc, nil
		}
	}

	return nil, nil
}

func (s *store) findStep(stepID string) (*document, *models.Step, error) {
	if !validID(stepID) {
		return nil, nil, nil
	}

	doc, err := s.find(func(d *document) bool { return d.step(stepID) != nil })
	if err != nil || doc == nil {
		return nil, nil, err
	}

	return doc, doc.step(stepID), nil
}
