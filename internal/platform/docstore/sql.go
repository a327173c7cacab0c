package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/tutorstudio-backend/internal/platform/logger"
)

// document is the single table backing every collection on SQL databases.
type document struct {
	ID         uint           `gorm:"primaryKey;autoIncrement"`
	Collection string         `gorm:"column:collection_name;type:varchar(64);index;not null"`
	Data       datatypes.JSON `gorm:"column:data;not null"`
	// Version guards writes: a save only lands on the version it read.
	Version   int64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (document) TableName() string { return "documents" }

type sqlStore struct {
	db  *gorm.DB
	log *logger.Logger
	// postgres compares extracted JSON as text
	textCompare bool
}

// NewSQLStore keeps documents as JSON rows in a "documents" table, which
// it migrates on construction.
func NewSQLStore(db *gorm.DB, log *logger.Logger) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db required")
	}
	slog := log.With("store", "SQLStore", "dialect", db.Dialector.Name())
	if err := db.AutoMigrate(&document{}); err != nil {
		slog.Error("Auto migration failed for documents table", "error", err)
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &sqlStore{
		db:          db,
		log:         slog,
		textCompare: db.Dialector.Name() == "postgres",
	}, nil
}

func (s *sqlStore) scope(ctx context.Context, tx *gorm.DB, collection string, f Filter) *gorm.DB {
	q := tx.WithContext(ctx).Model(&document{}).Where("collection_name = ?", collection)
	for _, k := range f.keys() {
		v := f[k]
		if v == nil {
			continue
		}
		if s.textCompare {
			v = fmt.Sprint(v)
		}
		q = q.Where(datatypes.JSONQuery("data").Equals(v, k))
	}
	return q.Order("id ASC")
}

// load returns matching rows. The SQL predicate narrows the scan; the
// in-process match keeps null and numeric semantics identical to the other
// backends.
func (s *sqlStore) load(ctx context.Context, tx *gorm.DB, collection string, f Filter, limit int) ([]document, []map[string]any, error) {
	var rows []document
	q := s.scope(ctx, tx, collection, f)
	if err := q.Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("sql find %s: %w", collection, err)
	}
	keptRows := make([]document, 0, len(rows))
	docs := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		var m map[string]any
		if err := json.Unmarshal(r.Data, &m); err != nil {
			return nil, nil, fmt.Errorf("sql decode %s/%d: %w", collection, r.ID, err)
		}
		if !matches(m, f) {
			continue
		}
		keptRows = append(keptRows, r)
		docs = append(docs, m)
		if limit > 0 && len(docs) == limit {
			break
		}
	}
	return keptRows, docs, nil
}

func (s *sqlStore) Find(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) error {
	if err := checkSlicePtr(out); err != nil {
		return err
	}
	o := applyFindOptions(opts)
	_, docs, err := s.load(ctx, s.db, collection, filter.normalize(), 0)
	if err != nil {
		return err
	}
	for i := range docs {
		docs[i] = project(docs[i], o.Fields)
	}
	return decodeInto(docs, out)
}

func (s *sqlStore) FindOne(ctx context.Context, collection string, filter Filter, out any, opts ...FindOption) (bool, error) {
	o := applyFindOptions(opts)
	_, docs, err := s.load(ctx, s.db, collection, filter.normalize(), 1)
	if err != nil {
		return false, err
	}
	if len(docs) == 0 {
		return false, nil
	}
	return true, decodeOne(project(docs[0], o.Fields), out)
}

func (s *sqlStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	_, docs, err := s.load(ctx, s.db, collection, filter.normalize(), 0)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (s *sqlStore) InsertOne(ctx context.Context, collection string, doc any) error {
	m, err := toMap(doc)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("sql encode %s: %w", collection, err)
	}
	row := document{Collection: collection, Data: datatypes.JSON(raw)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("sql insert %s: %w", collection, err)
	}
	return nil
}

// saveAttempts bounds how often an upsert is retried after losing a
// version race to a concurrent writer.
const saveAttempts = 3

func (s *sqlStore) UpsertOne(ctx context.Context, collection string, filter Filter, doc any) (bool, error) {
	set, err := toMap(doc)
	if err != nil {
		return false, err
	}
	f := filter.normalize()
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		inserted, saved := false, false
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			rows, docs, err := s.load(ctx, tx, collection, f, 1)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fresh, err := toMap(map[string]any(f))
				if err != nil {
					return err
				}
				mergeInto(fresh, set)
				raw, err := json.Marshal(fresh)
				if err != nil {
					return err
				}
				inserted, saved = true, true
				return tx.Create(&document{Collection: collection, Data: datatypes.JSON(raw)}).Error
			}
			mergeInto(docs[0], set)
			saved, err = s.save(tx, rows[0], docs[0])
			return err
		})
		if err != nil {
			return false, fmt.Errorf("sql upsert %s: %w", collection, err)
		}
		if saved {
			return inserted, nil
		}
		s.log.Debug("Upsert lost a concurrent write, retrying", "collection", collection, "attempt", attempt)
	}
	return false, fmt.Errorf("sql upsert %s: document kept changing", collection)
}

// UpdateOne reports false when the matched row changed before the write;
// callers that filter on a field they read treat that as a miss.
func (s *sqlStore) UpdateOne(ctx context.Context, collection string, filter Filter, set map[string]any) (bool, error) {
	fields, err := toMap(set)
	if err != nil {
		return false, err
	}
	f := filter.normalize()
	matched := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, docs, err := s.load(ctx, tx, collection, f, 1)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		mergeInto(docs[0], fields)
		matched, err = s.save(tx, rows[0], docs[0])
		return err
	})
	if err != nil {
		return false, fmt.Errorf("sql update %s: %w", collection, err)
	}
	return matched, nil
}

func (s *sqlStore) save(tx *gorm.DB, row document, data map[string]any) (bool, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return false, err
	}
	res := tx.Model(&document{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"data":       datatypes.JSON(raw),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *sqlStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
