package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/storage/archive"
)

// ArchiveStore keeps one JSON blob per session in archive storage, under
// sessions/<id>/user.json.
type ArchiveStore struct {
	storage archive.Storage
}

// NewArchiveStore wraps an archive backend.
func NewArchiveStore(storage archive.Storage) *ArchiveStore {
	return &ArchiveStore{storage: storage}
}

// archiveKey only accepts ids minted by the manager so a forged cookie
// cannot address arbitrary keys.
func archiveKey(id string) (string, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return "sessions/" + id + "/user.json", true
}

func (a *ArchiveStore) Load(ctx context.Context, id string) (Session, error) {
	key, ok := archiveKey(id)
	if !ok {
		return Session{}, notFound(id)
	}

	data, err := a.storage.Read(ctx, key)
	if errors.Is(err, archive.ErrNotFound) {
		return Session{}, notFound(id)
	}
	if err != nil {
		return Session{}, core.WrapError(core.ErrSessionStore, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, core.WrapError(core.ErrSessionStore, err)
	}
	return s, nil
}

func (a *ArchiveStore) Save(ctx context.Context, id string, s Session) error {
	key, ok := archiveKey(id)
	if !ok {
		return core.WrapError(core.ErrSessionStore, errors.New("invalid session id"))
	}

	data, err := json.Marshal(s)
	if err != nil {
		return core.WrapError(core.ErrSessionStore, err)
	}
	if err := a.storage.Write(ctx, key, data); err != nil {
		return core.WrapError(core.ErrSessionStore, err)
	}
	return nil
}

func (a *ArchiveStore) Delete(ctx context.Context, id string) error {
	key, ok := archiveKey(id)
	if !ok {
		return nil
	}
	if err := a.storage.Delete(ctx, key); err != nil {
		return core.WrapError(core.ErrSessionStore, err)
	}
	return nil
}
