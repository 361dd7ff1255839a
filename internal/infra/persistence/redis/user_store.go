package redis

import (
	"context"
	"log/slog"
	"sync/atomic"

	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/errors"

	goredis "github.com/redis/go-redis/v9"
)

// ErrStoreClosed is the cause of every call made before Connect or after Disconnect.
var ErrStoreClosed = errors.New("user store is not connected")

const (
	stateIdle int32 = iota
	stateConnected
	stateClosed
)

// RecordStore is the set of key-value primitives the user repository is built on.
type RecordStore interface {
	ClaimAndWrite(ctx context.Context, indexKey, ownerID, recordKey string, fields map[string]string) (bool, error)
	ReadRecord(ctx context.Context, recordKey string, fields ...string) (map[string]string, bool, error)
	ReadIndex(ctx context.Context, indexKey string) (string, bool, error)
	IndexExists(ctx context.Context, indexKey string) (bool, error)
	DeleteRecord(ctx context.Context, recordKey string) error
}

// UserStore adapts a go-redis client to the primitives the repository needs.
// Every transport failure surfaces as a *domainerrors.StoreFaultError; nothing is retried.
type UserStore struct {
	client *goredis.Client
	logger *slog.Logger
	state  atomic.Int32
}

// NewUserStore wraps client. The store is unusable until Connect succeeds.
func NewUserStore(client *goredis.Client, logger *slog.Logger) *UserStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &UserStore{client: client, logger: logger}
}

// Connect verifies the server is reachable. Calling it on a connected store is a no-op.
func (s *UserStore) Connect(ctx context.Context) error {
	switch s.state.Load() {
	case stateConnected:
		return nil
	case stateClosed:
		return domainerrors.NewStoreFaultError("connect", ErrStoreClosed)
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return domainerrors.NewStoreFaultError("connect", err)
	}

	s.state.CompareAndSwap(stateIdle, stateConnected)

	return nil
}

// Disconnect closes the client. Later calls return nil.
func (s *UserStore) Disconnect() error {
	if s.state.Swap(stateClosed) == stateClosed {
		return nil
	}

	if err := s.client.Close(); err != nil {
		return domainerrors.NewStoreFaultError("disconnect", err)
	}

	return nil
}

// Shutdown asks the server to end the session before closing, falling back to a plain close.
// It is safe to call repeatedly and never fails.
func (s *UserStore) Shutdown(ctx context.Context) {
	prev := s.state.Swap(stateClosed)
	if prev == stateClosed {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered while shutting down user store", slog.Any("panic", r))
		}
	}()

	if prev == stateConnected {
		if err := s.client.Do(ctx, "QUIT").Err(); err != nil {
			s.logger.Warn("Clean store shutdown failed, forcing close", slog.Any("error", err))
		}
	}

	if err := s.client.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		s.logger.Warn("Closing store client failed", slog.Any("error", err))
	}
}

// Ping reports whether the store currently answers.
func (s *UserStore) Ping(ctx context.Context) error {
	if err := s.ensureConnected("ping"); err != nil {
		return err
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return domainerrors.NewStoreFaultError("ping", err)
	}

	return nil
}

// ClaimAndWrite sets indexKey to ownerID only if it is unset and writes the record fields, in one
// MULTI/EXEC transaction. The record write happens either way; claimed reports whether the index
// now belongs to ownerID.
func (s *UserStore) ClaimAndWrite(ctx context.Context, indexKey, ownerID, recordKey string, fields map[string]string) (bool, error) {
	if err := s.ensureConnected("claim"); err != nil {
		return false, err
	}

	values := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		values = append(values, field, value)
	}

	var claim *goredis.BoolCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		claim = pipe.SetNX(ctx, indexKey, ownerID, 0)
		pipe.HSet(ctx, recordKey, values...)

		return nil
	})
	if err != nil {
		return false, domainerrors.NewStoreFaultError("claim", err)
	}

	return claim.Val(), nil
}

// ReadRecord fetches the requested fields of a record. found is false when the record does not exist.
func (s *UserStore) ReadRecord(ctx context.Context, recordKey string, fields ...string) (map[string]string, bool, error) {
	if err := s.ensureConnected("read record"); err != nil {
		return nil, false, err
	}

	values, err := s.client.HMGet(ctx, recordKey, fields...).Result()
	if err != nil {
		return nil, false, domainerrors.NewStoreFaultError("read record", err)
	}

	record := make(map[string]string, len(fields))
	for i, value := range values {
		if str, ok := value.(string); ok {
			record[fields[i]] = str
		}
	}

	if len(record) == 0 {
		return nil, false, nil
	}

	return record, true, nil
}

// ReadIndex resolves an index key to the identifier it points at.
func (s *UserStore) ReadIndex(ctx context.Context, indexKey string) (string, bool, error) {
	if err := s.ensureConnected("read index"); err != nil {
		return "", false, err
	}

	ownerID, err := s.client.Get(ctx, indexKey).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, domainerrors.NewStoreFaultError("read index", err)
	}

	return ownerID, true, nil
}

// IndexExists reports whether an index key is set.
func (s *UserStore) IndexExists(ctx context.Context, indexKey string) (bool, error) {
	if err := s.ensureConnected("index exists"); err != nil {
		return false, err
	}

	n, err := s.client.Exists(ctx, indexKey).Result()
	if err != nil {
		return false, domainerrors.NewStoreFaultError("index exists", err)
	}

	return n > 0, nil
}

// DeleteRecord removes a record. Deleting a missing record is not an error.
func (s *UserStore) DeleteRecord(ctx context.Context, recordKey string) error {
	if err := s.ensureConnected("delete record"); err != nil {
		return err
	}

	if err := s.client.Del(ctx, recordKey).Err(); err != nil {
		return domainerrors.NewStoreFaultError("delete record", err)
	}

	return nil
}

func (s *UserStore) ensureConnected(op string) error {
	if s.state.Load() != stateConnected {
		return domainerrors.NewStoreFaultError(op, ErrStoreClosed)
	}

	return nil
}
