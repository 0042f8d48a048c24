package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration

	"wall-inspector/internal/domain/entity"
	"wall-inspector/internal/domain/port"
)

// SQLiteJournal журнал проверок в SQLite. Хранит только сводки, не изображения и не детекции.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal открывает базу и создаёт таблицу при необходимости
func NewSQLiteJournal(dataSourceName string) (*SQLiteJournal, error) {
	// Путь к файлу без параметров запроса
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	if dbDir := filepath.Dir(dbPath); dbDir != "." && dbDir != "" && !strings.HasPrefix(dbPath, ":memory:") {
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating journal directory: %w", err)
		}
	}

	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000"
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %w", err)
	}
	// одно соединение: in-memory база живёт в рамках соединения
	db.SetMaxOpenConns(1)

	if err := createJournalTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

func createJournalTable(db *sql.DB) error {
	const createInspectionsTable = `
    CREATE TABLE IF NOT EXISTS inspections (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        created_at DATETIME NOT NULL,
        outcome TEXT NOT NULL,
        total INTEGER NOT NULL DEFAULT 0,
        counts TEXT NOT NULL,
        unknown_labels TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_inspections_session ON inspections(session_id, created_at);
    `
	_, err := db.Exec(createInspectionsTable)
	return err
}

// Record добавляет запись и проставляет ей ID
func (j *SQLiteJournal) Record(ctx context.Context, record *entity.InspectionRecord) error {
	counts, err := json.Marshal(record.Counts)
	if err != nil {
		return fmt.Errorf("error marshaling counts: %w", err)
	}
	unknown, err := json.Marshal(record.UnknownLabels)
	if err != nil {
		return fmt.Errorf("error marshaling unknown labels: %w", err)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO inspections (session_id, created_at, outcome, total, counts, unknown_labels) VALUES (?, ?, ?, ?, ?, ?)`,
		record.SessionID, record.CreatedAt, string(record.Outcome), record.Total, string(counts), string(unknown),
	)
	if err != nil {
		return fmt.Errorf("error inserting inspection: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading inspection id: %w", err)
	}
	record.ID = id
	return nil
}

// Recent возвращает последние записи, новые первыми
func (j *SQLiteJournal) Recent(ctx context.Context, sessionID string, limit int) ([]entity.InspectionRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `SELECT id, session_id, created_at, outcome, total, counts, unknown_labels FROM inspections`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying inspections: %w", err)
	}
	defer rows.Close()

	var records []entity.InspectionRecord
	for rows.Next() {
		var (
			rec     entity.InspectionRecord
			outcome string
			counts  string
			unknown sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.CreatedAt, &outcome, &rec.Total, &counts, &unknown); err != nil {
			return nil, fmt.Errorf("error scanning inspection: %w", err)
		}
		rec.Outcome = entity.Outcome(outcome)
		if err := json.Unmarshal([]byte(counts), &rec.Counts); err != nil {
			return nil, fmt.Errorf("error unmarshaling counts: %w", err)
		}
		if unknown.Valid && unknown.String != "" && unknown.String != "null" {
			if err := json.Unmarshal([]byte(unknown.String), &rec.UnknownLabels); err != nil {
				return nil, fmt.Errorf("error unmarshaling unknown labels: %w", err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

var _ port.InspectionJournal = (*SQLiteJournal)(nil)
