package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound        = errors.New("content not found")
	ErrContentMismatch = errors.New("content does not match its id")
	ErrInvalidID       = errors.New("invalid content id")
)

// Publisher stores snapshot artifacts under an id derived from their bytes.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) (string, error)
	Fetch(ctx context.Context, contentID string) ([]byte, error)
}

// ContentID is the keccak256 of the payload, 0x-prefixed hex.
func ContentID(payload []byte) string {
	return crypto.Keccak256Hash(payload).Hex()
}

// FileStore is a content-addressed directory. Files are written with an
// atomic rename, so readers never observe a partial artifact.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create publisher dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(contentID string) string {
	return filepath.Join(s.dir, contentID+".json")
}

func (s *FileStore) Publish(ctx context.Context, payload []byte) (string, error) {
	cid := ContentID(payload)
	path := s.path(cid)

	if _, err := os.Stat(path); err == nil {
		log.Ctx(ctx).Debug().Str("content_id", cid).Msg("Artifact already published")
		return cid, nil
	}

	if err := atomic.WriteFile(path, bytes.NewReader(payload)); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", cid, err)
	}

	log.Ctx(ctx).Info().Str("content_id", cid).Int("bytes", len(payload)).Msg("Artifact published")
	return cid, nil
}

func (s *FileStore) Fetch(_ context.Context, contentID string) ([]byte, error) {
	if !strings.HasPrefix(contentID, "0x") || len(contentID) != 2+2*common.HashLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, contentID)
	}

	payload, err := os.ReadFile(s.path(contentID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, contentID)
		}
		return nil, err
	}

	if ContentID(payload) != contentID {
		return nil, fmt.Errorf("%w: %s", ErrContentMismatch, contentID)
	}
	return payload, nil
}
