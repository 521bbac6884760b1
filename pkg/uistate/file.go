package uistate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/models"
)

// FileStore keeps one JSON document per session under root/ui_state/.
type FileStore struct {
	dir string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{dir: filepath.Join(strings.TrimPrefix(root, "file://"), "ui_state")}
}

func (s *FileStore) path(session string) string {
	return filepath.Join(s.dir, session+".json")
}

func (s *FileStore) Get(_ context.Context, session string) (*models.UIState, error) {
	data, err := os.ReadFile(s.path(session))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}

		return nil, err
	}

	var state models.UIState

	err = json.Unmarshal(data, &state)
	if err != nil {
		return nil, fmt.Errorf("corrupt ui state for session %s: %w", session, err)
	}

	return &state, nil
}

func (s *FileStore) Put(_ context.Context, session string, state *models.UIState) error {
	err := os.MkdirAll(s.dir, 0750)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), s.path(session))
}

func (s *FileStore) Close() error {
	return nil
}
