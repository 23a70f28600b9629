package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"finmodeling/pkg/core/applog"
	"finmodeling/pkg/core/calc"
	"finmodeling/pkg/core/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// DBTX is the part of *pgxpool.Pool the cache uses.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ClassificationCache is a hybrid cache: Postgres (primary) plus JSON files
// (fallback/local). Either side may be absent.
type ClassificationCache struct {
	db      DBTX
	fileDir string
}

// NewClassificationCache creates a cache. If db is nil and dir is empty the
// file cache defaults to .cache/classifications.
func NewClassificationCache(db DBTX, dir string) *ClassificationCache {
	if db == nil && dir == "" {
		dir = filepath.Join(".cache", "classifications")
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			applog.L().Warn().Err(err).Str("dir", dir).Msg("[store] cannot create cache dir")
		}
	}
	return &ClassificationCache{db: db, fileDir: dir}
}

// Load reads from the database first and falls back to the file cache on a
// database miss or failure.
func (c *ClassificationCache) Load(ctx context.Context, key string) ([]calc.RowType, bool, error) {
	if c.db != nil {
		cats, ok, err := c.loadFromDB(ctx, key)
		if err == nil && ok {
			return cats, true, nil
		}
		if err != nil {
			if c.fileDir == "" {
				return nil, false, err
			}
			applog.L().Warn().Err(err).Str("key", key).Msg("[store] db lookup failed, trying file cache")
		}
	}

	if c.fileDir != "" {
		return c.loadFromFile(key)
	}
	return nil, false, nil
}

// Save writes the whole entry to every configured backend.
func (c *ClassificationCache) Save(ctx context.Context, key string, categories []calc.RowType) error {
	entry := NewEntry(key, categories)

	var dbErr error
	if c.db != nil {
		dbErr = c.saveToDB(ctx, entry)
	}
	if c.fileDir != "" {
		if err := c.saveToFile(entry); err != nil {
			return err
		}
	}
	return dbErr
}

func (c *ClassificationCache) loadFromDB(ctx context.Context, key string) ([]calc.RowType, bool, error) {
	query := `SELECT categories FROM row_classifications WHERE cache_key = $1`

	var data []byte
	err := c.db.QueryRow(ctx, query, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "failed to load classification %s", key)
	}

	var cats []calc.RowType
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, false, eris.Wrap(err, "failed to unmarshal db cached categories")
	}
	return cats, true, nil
}

func (c *ClassificationCache) saveToDB(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e.Categories)
	if err != nil {
		return eris.Wrap(err, "failed to marshal categories")
	}

	query := `
		INSERT INTO row_classifications (cache_key, entry_id, kind, fingerprint, categories, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (cache_key)
		DO UPDATE SET
			entry_id = EXCLUDED.entry_id,
			categories = EXCLUDED.categories,
			saved_at = EXCLUDED.saved_at
	`
	if _, err := c.db.Exec(ctx, query, e.Key, e.ID, e.Kind, e.Fingerprint, data, e.SavedAt); err != nil {
		return eris.Wrap(err, "failed to save to db cache")
	}
	return nil
}

func (c *ClassificationCache) path(key string) string {
	return filepath.Join(c.fileDir, strings.ReplaceAll(key, ":", "_")+".json")
}

func (c *ClassificationCache) loadFromFile(key string) ([]calc.RowType, bool, error) {
	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "failed to read cache file for %s", key)
	}

	var entry Entry
	if err := utils.SmartDecode(data, &entry); err != nil {
		return nil, false, eris.Wrapf(err, "corrupt cache file for %s", key)
	}
	if entry.Key != key {
		return nil, false, nil
	}
	return entry.Categories, true, nil
}

// saveToFile writes a temp file and renames it over the target, so readers
// see either the old entry or the new one.
func (c *ClassificationCache) saveToFile(e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return eris.Wrap(err, "failed to marshal entry")
	}

	tmp, err := os.CreateTemp(c.fileDir, ".entry-*")
	if err != nil {
		return eris.Wrap(err, "failed to create temp cache file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrap(err, "failed to write temp cache file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "failed to close temp cache file")
	}
	if err := os.Rename(tmp.Name(), c.path(e.Key)); err != nil {
		return eris.Wrap(err, "failed to save to file cache")
	}
	return nil
}
