package session

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/sandercoin/internal/client/models"
	"github.com/dmitrijs2005/sandercoin/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sandercoin/internal/common"
	"github.com/dmitrijs2005/sandercoin/internal/dbx"
)

// CredentialStore persists the credential that lets a later run restore the
// session.
type CredentialStore interface {
	// Load returns an empty Credential when nothing is stored.
	Load(ctx context.Context) (models.Credential, error)
	Save(ctx context.Context, c models.Credential) error
	Clear(ctx context.Context) error
}

// SQLCredentialStore keeps the credential in the local metadata table.
type SQLCredentialStore struct {
	db *sql.DB
}

func NewSQLCredentialStore(db *sql.DB) *SQLCredentialStore {
	return &SQLCredentialStore{db: db}
}

func (s *SQLCredentialStore) Load(ctx context.Context) (models.Credential, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	userID, err := repo.Get(ctx, common.MetadataKeyUserID)
	if err != nil {
		return models.Credential{}, err
	}
	token, err := repo.Get(ctx, common.MetadataKeyAuthToken)
	if err != nil {
		return models.Credential{}, err
	}

	return models.Credential{UserID: string(userID), AuthToken: string(token)}, nil
}

// Save writes both parts of the credential in a single transaction.
func (s *SQLCredentialStore) Save(ctx context.Context, c models.Credential) error {
	if c.Empty() {
		return fmt.Errorf("save credential: %w", common.ErrInvalidToken)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.MetadataKeyUserID, []byte(c.UserID)); err != nil {
			return err
		}
		return repo.Set(ctx, common.MetadataKeyAuthToken, []byte(c.AuthToken))
	})
}

func (s *SQLCredentialStore) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, common.MetadataKeyUserID, common.MetadataKeyAuthToken)
}
