package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cxls/internal/config"
	"cxls/internal/domain"
)

// Postgres keeps the snapshot as a single JSONB row, upserted on every
// commit. The single-row layout matches the single-writer model: there
// is exactly one authoritative document, and the upsert replaces it in
// one statement.
type Postgres struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

func OpenPostgres(cfg *config.StoreConfig) (*Postgres, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, cfg.SSLMode,
	)
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	const ddl = `
		CREATE TABLE IF NOT EXISTS ledger_snapshots (
			id         SMALLINT PRIMARY KEY,
			doc        JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if err := db.Exec(ddl).Error; err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &Postgres{db: db, sqlDB: sqlDB}, nil
}

func (s *Postgres) Load() (*domain.Snapshot, error) {
	var raw string
	err := s.db.Raw(`SELECT doc::text FROM ledger_snapshots WHERE id = 1`).Scan(&raw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || raw == "" {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	snap := &domain.Snapshot{}
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Postgres) Replace(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	const sqlUpsert = `
		INSERT INTO ledger_snapshots (id, doc, updated_at)
		VALUES (1, ?::jsonb, NOW())
		ON CONFLICT (id)
		DO UPDATE SET
			doc        = EXCLUDED.doc,
			updated_at = NOW()
	`
	return s.db.WithContext(ctx).Exec(sqlUpsert, string(data)).Error
}

func (s *Postgres) Close() error { return s.sqlDB.Close() }
