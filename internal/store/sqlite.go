package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"go.uber.org/multierr"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore persists state records in SQLite. Compare-and-swap is an
// UPDATE guarded by the expected version.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies pending
// migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of the CAS path.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullTurn(t *int) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*t), Valid: true}
}

func (s *SQLiteStore) Create(ctx context.Context, rec *Record) error {
	rec.Version = 1
	rec.SchemaVersion = SchemaVersion
	rec.Fingerprint = Fingerprint(rec.GameData)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO state_records
			(room_id, schema_version, game_id, version, current_turn, game_over,
			 game_data, fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(room_id) DO NOTHING`,
		rec.RoomID, rec.SchemaVersion, rec.GameID, rec.Version, nullTurn(rec.CurrentTurn),
		rec.GameOver, rec.GameData, rec.Fingerprint,
		rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrExists
	}
	return nil
}

const selectRecord = `
	SELECT room_id, schema_version, game_id, version, current_turn, game_over,
	       game_data, fingerprint, created_at, updated_at
	FROM state_records`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec              Record
		turn             sql.NullInt64
		created, updated int64
	)
	err := row.Scan(&rec.RoomID, &rec.SchemaVersion, &rec.GameID, &rec.Version, &turn,
		&rec.GameOver, &rec.GameData, &rec.Fingerprint, &created, &updated)
	if err != nil {
		return nil, err
	}
	if turn.Valid {
		t := int(turn.Int64)
		rec.CurrentTurn = &t
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	rec.UpdatedAt = time.Unix(0, updated).UTC()
	return &rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, roomID string) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE room_id = ?`, roomID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", roomID, err)
	}
	return rec, nil
}

// SaveIfVersion writes rec only if the stored version still equals
// expected. A missing row and a stale version are told apart with a
// follow-up read.
func (s *SQLiteStore) SaveIfVersion(ctx context.Context, rec *Record, expected int64) error {
	fp := Fingerprint(rec.GameData)
	res, err := s.db.ExecContext(ctx, `
		UPDATE state_records
		SET schema_version = ?, game_id = ?, version = ?, current_turn = ?, game_over = ?,
		    game_data = ?, fingerprint = ?, updated_at = ?
		WHERE room_id = ? AND version = ?`,
		SchemaVersion, rec.GameID, expected+1, nullTurn(rec.CurrentTurn), rec.GameOver,
		rec.GameData, fp, rec.UpdatedAt.UnixNano(),
		rec.RoomID, expected)
	if err != nil {
		return fmt.Errorf("update record %s: %w", rec.RoomID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.Get(ctx, rec.RoomID); err != nil {
			return err
		}
		return ErrVersionConflict
	}
	rec.Version = expected + 1
	rec.SchemaVersion = SchemaVersion
	rec.Fingerprint = fp
	return nil
}

// ReplaceFinished overwrites a finished game's row with rec at version 1 in
// one guarded UPDATE. With no row at all it falls back to Create.
func (s *SQLiteStore) ReplaceFinished(ctx context.Context, rec *Record) error {
	fp := Fingerprint(rec.GameData)
	res, err := s.db.ExecContext(ctx, `
		UPDATE state_records
		SET schema_version = ?, game_id = ?, version = 1, current_turn = ?, game_over = ?,
		    game_data = ?, fingerprint = ?, created_at = ?, updated_at = ?
		WHERE room_id = ? AND game_over = 1`,
		SchemaVersion, rec.GameID, nullTurn(rec.CurrentTurn), rec.GameOver,
		rec.GameData, fp, rec.CreatedAt.UnixNano(), rec.UpdatedAt.UnixNano(),
		rec.RoomID)
	if err != nil {
		return fmt.Errorf("replace record %s: %w", rec.RoomID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err := s.Create(ctx, rec)
		if errors.Is(err, ErrExists) {
			return ErrInProgress
		}
		return err
	}
	rec.Version = 1
	rec.SchemaVersion = SchemaVersion
	rec.Fingerprint = fp
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, roomID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM state_records WHERE room_id = ?`, roomID)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", roomID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListIdle(ctx context.Context, before time.Time) (out []*Record, err error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+`
		WHERE game_over = 0 AND updated_at < ?
		ORDER BY room_id`, before.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list idle: %w", err)
	}
	defer func() { err = multierr.Append(err, rows.Close()) }()
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
