package session

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/anima/internal/models"
	"github.com/desertthunder/anima/internal/store"
)

// LoadPending reads the deferred playlist save, if any. An unparseable
// record is reported as an error so the caller can decide whether to keep it.
func LoadPending(s store.Store) (*models.PendingPlaylistSave, error) {
	raw, ok := s.Get(store.KeyPending)
	if !ok || raw == "" {
		return nil, nil
	}

	var pending models.PendingPlaylistSave
	if err := json.Unmarshal([]byte(raw), &pending); err != nil {
		return nil, fmt.Errorf("failed to parse pending playlist save: %w", err)
	}
	return &pending, nil
}

// StorePending records a playlist save to be completed after linking.
func StorePending(s store.Store, pending *models.PendingPlaylistSave) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending playlist save: %w", err)
	}
	return s.Set(store.KeyPending, string(data))
}

// DeletePending removes the deferred save record.
func DeletePending(s store.Store) error {
	return s.Delete(store.KeyPending)
}
