package redis

import (
	"context"
	"log/slog"

	"keyauth/config"
	"keyauth/internal/domain/entity"
	domainerrors "keyauth/internal/domain/errors"
	"keyauth/internal/domain/repository"
	"keyauth/internal/errors"
	"keyauth/internal/infra/persistence/model"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// keyspace builds the store keys, honoring the optional prefix for shared instances.
type keyspace struct {
	prefix string
}

func (k keyspace) user(id string) string {
	return k.prefix + "user:" + id
}

func (k keyspace) username(username string) string {
	return k.prefix + "username:" + username
}

// UserRepositoryParams defines the parameters required by the user repository
type UserRepositoryParams struct {
	fx.In

	Store  RecordStore
	Config *config.Config
	Logger *slog.Logger
}

// userRepository implements repository.UserRepository on top of a RecordStore.
type userRepository struct {
	store  RecordStore
	keys   keyspace
	logger *slog.Logger
}

// NewUserRepository is the constructor for userRepository.
// It returns the repository as a repository.UserRepository interface.
func NewUserRepository(params UserRepositoryParams) repository.UserRepository {
	var prefix string
	if params.Config != nil && params.Config.Redis != nil {
		prefix = params.Config.Redis.KeyPrefix
	}

	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &userRepository{
		store:  params.Store,
		keys:   keyspace{prefix: prefix},
		logger: logger,
	}
}

// Create claims the username and writes the user record in one transaction.
// A losing claimant removes the record it wrote so that exactly one record exists per username.
func (repo *userRepository) Create(ctx context.Context, username, passwordHash string) (*entity.User, error) {
	if username == "" || passwordHash == "" {
		return nil, errors.New("username and password hash are required")
	}

	user := entity.NewUser(username, passwordHash)
	record := model.FromEntity(user)
	recordKey := repo.keys.user(record.ID)

	claimed, err := repo.store.ClaimAndWrite(ctx, repo.keys.username(username), record.ID, recordKey, record.Fields())
	if err != nil {
		return nil, err
	}

	if !claimed {
		if err := repo.store.DeleteRecord(ctx, recordKey); err != nil {
			repo.logger.WarnContext(ctx, "Failed to discard losing user record",
				slog.String("key", recordKey),
				slog.Any("error", err),
			)
		}

		return nil, repository.ErrDuplicateUsername
	}

	return user, nil
}

// FindByUsername resolves the username index and loads the record it points at.
// An index whose record is missing is treated as absent.
func (repo *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	id, found, err := repo.store.ReadIndex(ctx, repo.keys.username(username))
	if err != nil || !found {
		return nil, err
	}

	return repo.findByKey(ctx, repo.keys.user(id))
}

// FindByID loads a record directly by identifier.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findByKey(ctx, repo.keys.user(id.String()))
}

// UsernameExists checks the index only.
func (repo *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return repo.store.IndexExists(ctx, repo.keys.username(username))
}

func (repo *userRepository) findByKey(ctx context.Context, recordKey string) (*entity.User, error) {
	fields, found, err := repo.store.ReadRecord(ctx, recordKey, model.UserFields...)
	if err != nil || !found {
		return nil, err
	}

	user, err := model.FromFields(fields).ToEntity()
	if err != nil {
		return nil, domainerrors.NewStoreFaultError("decode record", err)
	}

	return user, nil
}
