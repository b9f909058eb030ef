package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"marketpulse/internal/domain"
)

var ErrNotFound = errors.New("task not found")

// EnsureSchema creates tables if they don't exist.
func EnsureSchema(db *sql.DB) error {
	schema := `
PRAGMA journal_mode=WAL;
PRAGMA foreign_keys=ON;
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  status TEXT NOT NULL CHECK(status IN ('pending','in_progress','completed','failed')) DEFAULT 'pending',
  filter_params TEXT NOT NULL DEFAULT '{}',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS data_records (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
  source TEXT NOT NULL,
  category TEXT NOT NULL,
  brand TEXT NOT NULL,
  price REAL NOT NULL,
  purchase_date DATETIME,
  quantity INTEGER NOT NULL DEFAULT 1,
  rating REAL,
  platform TEXT NOT NULL,
  location TEXT,
  payment_method TEXT,
  product_id TEXT,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_data_records_task ON data_records(task_id);
`
	_, err := db.Exec(schema)
	return err
}

// RecordFilter narrows a task's persisted records on read.
type RecordFilter struct {
	Brand    string
	Category string
	Source   string
	YearFrom int
	YearTo   int
}

type Store interface {
	CreateTask(ctx context.Context, name string, params domain.FilterParams) (domain.Task, error)
	GetTask(ctx context.Context, id string) (domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error
	AppendRecords(ctx context.Context, taskID string, records []domain.DataRecord) error
	ListRecords(ctx context.Context, taskID string, f RecordFilter) ([]domain.DataRecord, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type sqliteStore struct{ db *sql.DB }

func NewSQLiteStore(db *sql.DB) Store { return &sqliteStore{db: db} }

func (s *sqliteStore) CreateTask(ctx context.Context, name string, params domain.FilterParams) (domain.Task, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return domain.Task{}, fmt.Errorf("marshal filter params: %w", err)
	}
	t := domain.Task{
		ID:           "tsk_" + uuid.NewString(),
		Name:         name,
		Status:       domain.StatusPending,
		FilterParams: params,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO tasks (id,name,status,filter_params,created_at,updated_at)
VALUES (?,?,?,?,?,?)
`, t.ID, t.Name, t.Status, string(raw), t.CreatedAt, t.UpdatedAt)
	return t, err
}

func (s *sqliteStore) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id,name,status,filter_params,created_at,updated_at FROM tasks WHERE id=?`, id)
	return scanTask(row)
}

func (s *sqliteStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id,name,status,filter_params,created_at,updated_at FROM tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *sqliteStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE tasks SET status=?, updated_at=? WHERE id=?`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) AppendRecords(ctx context.Context, taskID string, records []domain.DataRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO data_records (id,task_id,source,category,brand,price,purchase_date,quantity,rating,platform,location,payment_method,product_id,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		id := r.ID
		if id == "" {
			id = "rec_" + uuid.NewString()
		}
		_, err = stmt.ExecContext(ctx, id, taskID, r.Source, r.Category, r.Brand, r.Price,
			r.PurchaseDate, r.Quantity, r.Rating, r.Platform, r.Location, r.PaymentMethod, r.ProductID, now)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListRecords(ctx context.Context, taskID string, f RecordFilter) ([]domain.DataRecord, error) {
	q := `
SELECT id,task_id,source,category,brand,price,purchase_date,quantity,rating,platform,location,payment_method,product_id,created_at
FROM data_records WHERE task_id=?`
	args := []any{taskID}
	if f.Brand != "" {
		q += " AND brand=?"
		args = append(args, f.Brand)
	}
	if f.Category != "" {
		q += " AND category=?"
		args = append(args, f.Category)
	}
	if f.Source != "" {
		q += " AND source=?"
		args = append(args, f.Source)
	}
	if f.YearFrom != 0 {
		q += " AND purchase_date >= ?"
		args = append(args, time.Date(f.YearFrom, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	if f.YearTo != 0 {
		q += " AND purchase_date < ?"
		args = append(args, time.Date(f.YearTo+1, 1, 1, 0, 0, 0, 0, time.UTC))
	}
	q += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.DataRecord
	for rows.Next() {
		var r domain.DataRecord
		var purchase sql.NullTime
		var rating sql.NullFloat64
		var location sql.NullString
		if err := rows.Scan(&r.ID, &r.TaskID, &r.Source, &r.Category, &r.Brand, &r.Price,
			&purchase, &r.Quantity, &rating, &r.Platform, &location, &r.PaymentMethod, &r.ProductID, &r.CreatedAt); err != nil {
			return nil, err
		}
		if purchase.Valid {
			r.PurchaseDate = purchase.Time
		}
		if rating.Valid {
			v := rating.Float64
			r.Rating = &v
		}
		if location.Valid {
			l := location.String
			r.Location = &l
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *sqliteStore) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM tasks WHERE status IN ('completed','failed') AND updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (domain.Task, error) {
	var t domain.Task
	var raw string
	err := row.Scan(&t.ID, &t.Name, &t.Status, &raw, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return domain.Task{}, ErrNotFound
	}
	if err != nil {
		return domain.Task{}, err
	}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &t.FilterParams); err != nil {
			return domain.Task{}, fmt.Errorf("parse filter params of %s: %w", t.ID, err)
		}
	}
	return t, nil
}
