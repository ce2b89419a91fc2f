package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/mamadbah2/assettracker/internal/domain/models"
	"github.com/mamadbah2/assettracker/internal/tagseq"
)

const dsnOptions = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id TEXT NOT NULL DEFAULT '',
	asset_tag TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	serial_no TEXT NOT NULL DEFAULT '',
	vendor TEXT NOT NULL DEFAULT '',
	purchase_date TEXT NOT NULL DEFAULT '',
	warranty_expiry TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	branch TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	assigned_to TEXT NOT NULL DEFAULT '',
	installed_date TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	last_update TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_assets_branch ON assets(branch);

CREATE TABLE IF NOT EXISTS asset_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	ts TEXT NOT NULL,
	user TEXT NOT NULL,
	action TEXT NOT NULL,
	asset_tag TEXT NOT NULL,
	branch TEXT NOT NULL DEFAULT '',
	note TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_history_tag ON asset_history(asset_tag);

CREATE TABLE IF NOT EXISTS tag_counters (
	prefix TEXT PRIMARY KEY,
	last_seq INTEGER NOT NULL,
	updated_at TEXT NOT NULL
);
`

const assetColumns = `id, asset_tag, name, category, serial_no, vendor, purchase_date,
	warranty_expiry, status, branch, location, assigned_to, installed_date, notes, last_update`

// Store keeps assets, history and per-prefix tag counters in an embedded SQLite file.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// New opens (and migrates) the database at path.
func New(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps reservations strictly ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListAssets returns every asset in insertion order.
func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]models.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// GetAsset finds an asset by exact tag.
func (s *Store) GetAsset(ctx context.Context, tag string) (models.Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE asset_tag = ?`, tag)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Asset{}, fmt.Errorf("%w: %s", models.ErrAssetNotFound, tag)
	}
	return a, err
}

// InsertAsset adds a new asset; the primary key rejects reused tags.
func (s *Store) InsertAsset(ctx context.Context, a models.Asset) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO assets (`+assetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(asset_tag) DO NOTHING`, assetArgs(a)...)
	if err != nil {
		return fmt.Errorf("insert asset %s: %w", a.AssetTag, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", models.ErrDuplicateTag, a.AssetTag)
	}
	return nil
}

// UpdateAsset replaces every column of the asset identified by its tag.
func (s *Store) UpdateAsset(ctx context.Context, a models.Asset) error {
	res, err := s.db.ExecContext(ctx, `UPDATE assets SET
		id = ?, name = ?, category = ?, serial_no = ?, vendor = ?, purchase_date = ?,
		warranty_expiry = ?, status = ?, branch = ?, location = ?, assigned_to = ?,
		installed_date = ?, notes = ?, last_update = ?
		WHERE asset_tag = ?`,
		a.ID, a.Name, a.Category, a.SerialNo, a.Vendor, a.PurchaseDate,
		a.WarrantyExpiry, string(a.Status), a.Branch, a.Location, a.AssignedTo,
		a.InstalledDate, a.Notes, a.LastUpdate, a.AssetTag)
	if err != nil {
		return fmt.Errorf("update asset %s: %w", a.AssetTag, err)
	}
	return requireAffected(res, a.AssetTag)
}

// DeleteAsset removes the asset; history rows are kept.
func (s *Store) DeleteAsset(ctx context.Context, tag string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE asset_tag = ?`, tag)
	if err != nil {
		return fmt.Errorf("delete asset %s: %w", tag, err)
	}
	return requireAffected(res, tag)
}

// TagsWithPrefix lists issued tags starting with prefix.
func (s *Store) TagsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	return queryTags(ctx, s.db, prefix)
}

// AppendHistory writes one append-only history row.
func (s *Store) AppendHistory(ctx context.Context, e models.HistoryEntry) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO asset_history (ts, user, action, asset_tag, branch, note)
		VALUES (?, ?, ?, ?, ?, ?)`, e.TS, e.User, string(e.Action), e.AssetTag, e.Branch, e.Note)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListHistory returns the log oldest first.
func (s *Store) ListHistory(ctx context.Context) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ts, user, action, asset_tag, branch, note FROM asset_history ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var e models.HistoryEntry
		var action string
		if err := rows.Scan(&e.TS, &e.User, &action, &e.AssetTag, &e.Branch, &e.Note); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Action = models.HistoryAction(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ReserveSequence atomically bumps the counter for prefix and returns the new value.
// The counter never falls behind the highest tag already issued, so tags
// entered by hand are skipped over.
func (s *Store) ReserveSequence(ctx context.Context, prefix string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reservation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var counter int
	err = tx.QueryRowContext(ctx, `SELECT last_seq FROM tag_counters WHERE prefix = ?`, prefix).Scan(&counter)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read tag counter %s: %w", prefix, err)
	}

	tags, err := queryTags(ctx, tx, prefix)
	if err != nil {
		return 0, err
	}
	last := max(counter, tagseq.LastSequence(prefix, tags))
	if last != counter {
		s.logger.Debug("tag counter advanced to issued tags", zap.String("prefix", prefix), zap.Int("counter", counter), zap.Int("last", last))
	}

	next := last + 1
	if _, err := tx.ExecContext(ctx, `INSERT INTO tag_counters (prefix, last_seq, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(prefix) DO UPDATE SET last_seq = excluded.last_seq, updated_at = excluded.updated_at`,
		prefix, next, s.now().UTC().Format(time.RFC3339)); err != nil {
		return 0, fmt.Errorf("write tag counter %s: %w", prefix, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reservation: %w", err)
	}
	return next, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryTags(ctx context.Context, q queryer, prefix string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT asset_tag FROM assets WHERE substr(asset_tag, 1, length(?)) = ? ORDER BY rowid`, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list tags for %s: %w", prefix, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (models.Asset, error) {
	var a models.Asset
	var status string
	err := row.Scan(&a.ID, &a.AssetTag, &a.Name, &a.Category, &a.SerialNo, &a.Vendor, &a.PurchaseDate,
		&a.WarrantyExpiry, &status, &a.Branch, &a.Location, &a.AssignedTo, &a.InstalledDate, &a.Notes, &a.LastUpdate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("scan asset: %w", err)
	}
	a.Status = models.Status(status)
	return a, nil
}

func assetArgs(a models.Asset) []any {
	values := a.Values()
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func requireAffected(res sql.Result, tag string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrAssetNotFound, tag)
	}
	return nil
}
