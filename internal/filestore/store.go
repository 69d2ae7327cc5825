package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/griffin/internal/config"
	appErr "github.com/xxxsen/griffin/internal/pkg/errors"
)

// Store keeps media blobs under flat keys. Open returns errors.ErrNotFound
// from internal/pkg/errors when the key does not exist.
type Store interface {
	Type() string
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type Factory func(args interface{}) (Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

// New builds the configured backend. Keys are validated once here, so
// backends may assume a flat, safe key.
func New(cfg config.FileStoreConfig) (Store, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Type))
	if name == "" {
		return nil, fmt.Errorf("file_store.type is required")
	}
	registryMu.RLock()
	factory := registry[name]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported file store type: %s", cfg.Type)
	}
	backend, err := factory(cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("init %s store: %w", name, err)
	}
	return &checkedStore{next: backend}, nil
}

// ValidKey rejects keys that could escape the store root.
func ValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}
	return !strings.ContainsAny(key, "/\\")
}

func invalidKey(key string) error {
	return fmt.Errorf("invalid file key %q: %w", key, appErr.ErrInvalid)
}

type checkedStore struct {
	next Store
}

func (s *checkedStore) Type() string {
	return s.next.Type()
}

func (s *checkedStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !ValidKey(key) {
		return invalidKey(key)
	}
	start := time.Now()
	err := s.next.Save(ctx, key, r, size, contentType)
	s.log(ctx, "save", key, start, err, zap.Int64("size", size), zap.String("content_type", contentType))
	return err
}

func (s *checkedStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if !ValidKey(key) {
		return nil, invalidKey(key)
	}
	return s.next.Open(ctx, key)
}

func (s *checkedStore) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return invalidKey(key)
	}
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.log(ctx, "delete", key, start, err)
	return err
}

func (s *checkedStore) log(ctx context.Context, op, key string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("store", s.next.Type()),
		zap.String("op", op),
		zap.String("key", key),
		zap.Duration("cost", time.Since(start)),
	)
	if err != nil {
		logutil.GetLogger(ctx).Error("file store op failed", append(fields, zap.Error(err))...)
		return
	}
	logutil.GetLogger(ctx).Debug("file store op", fields...)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("store config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode store config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode store config: %w", err)
	}
	return nil
}
