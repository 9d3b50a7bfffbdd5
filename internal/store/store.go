package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/referralab/urgentia/internal/model"
)

// Store persists referral records, patients and the query audit log in
// a local SQLite database
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS patients (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id TEXT NOT NULL UNIQUE,
		name       TEXT DEFAULT '',
		age        INTEGER DEFAULT 0,
		sex        TEXT DEFAULT '',
		address    TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS referrals (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id         TEXT DEFAULT '',
		patient_name       TEXT DEFAULT '',
		referring_location TEXT DEFAULT '',
		staff_name         TEXT DEFAULT '',
		case_text          TEXT NOT NULL,
		response           TEXT DEFAULT '',
		context_data       TEXT DEFAULT '',
		priority           TEXT DEFAULT 'Routine',
		specialty          TEXT DEFAULT 'general',
		status             TEXT DEFAULT 'processed',
		created_at         DATETIME NOT NULL,
		updated_at         DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_referrals_patient_id ON referrals(patient_id);
	CREATE INDEX IF NOT EXISTS idx_referrals_created_at ON referrals(created_at);

	CREATE TABLE IF NOT EXISTS query_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id  INTEGER DEFAULT 0,
		mode       TEXT NOT NULL,
		query_text TEXT NOT NULL,
		response   TEXT DEFAULT '',
		provider   TEXT DEFAULT '',
		latency_ms REAL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_query_log_created_at ON query_log(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Migration: databases created before provider tracking lack the
	// provider/model columns.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('referrals') WHERE name = 'provider'`).Scan(&colCount)
	if colCount == 0 {
		if _, err := db.Exec(`ALTER TABLE referrals ADD COLUMN provider TEXT DEFAULT ''`); err != nil {
			_ = db.Close()
			return nil, err
		}
		if _, err := db.Exec(`ALTER TABLE referrals ADD COLUMN model TEXT DEFAULT ''`); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

const recordColumns = `id, patient_id, patient_name, referring_location, staff_name,
	case_text, response, context_data, priority, specialty, status, provider, model,
	created_at, updated_at`

// CreateRecord inserts one referral and returns its id. A patient row is
// created on first sight of a new patient identifier.
func (s *Store) CreateRecord(rec *model.CaseRecord) (int64, error) {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = model.StatusProcessed
	}
	if rec.Priority == "" {
		rec.Priority = model.PriorityRoutine
	}
	if rec.Specialty == "" {
		rec.Specialty = "general"
	}

	if rec.PatientID != "" {
		if _, err := s.EnsurePatient(&model.Patient{PatientID: rec.PatientID, Name: rec.PatientName}); err != nil {
			return 0, fmt.Errorf("ensure patient: %w", err)
		}
	}

	res, err := s.db.Exec(
		`INSERT INTO referrals (patient_id, patient_name, referring_location, staff_name,
		   case_text, response, context_data, priority, specialty, status, provider, model,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.PatientID, rec.PatientName, rec.ReferringLocation, rec.StaffName,
		rec.CaseText, rec.Response, rec.ContextData, string(rec.Priority), rec.Specialty,
		rec.Status, rec.Provider, rec.Model, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	rec.ID = id
	return id, nil
}

// GetRecord loads one referral by id
func (s *Store) GetRecord(id int64) (model.CaseRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(
		`SELECT `+recordColumns+` FROM referrals WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("referral %d not found", id)
	}
	return rec, err
}

// ListRecords returns up to limit referrals ordered most urgent first,
// newest first within a tier
func (s *Store) ListRecords(limit int) ([]model.CaseRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT `+recordColumns+` FROM referrals
		 ORDER BY CASE priority
		     WHEN 'Emergent' THEN 1
		     WHEN 'Urgent' THEN 2
		     WHEN 'Routine' THEN 3
		     ELSE 4
		   END,
		   created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows)
}

// SearchRecords matches the term against patient identifiers, names,
// staff, referring location and the submitted case text
func (s *Store) SearchRecords(term string, limit int) ([]model.CaseRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	pattern := "%" + term + "%"
	rows, err := s.db.Query(
		`SELECT `+recordColumns+` FROM referrals
		 WHERE patient_id LIKE ? OR patient_name LIKE ? OR staff_name LIKE ?
		    OR referring_location LIKE ? OR case_text LIKE ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		pattern, pattern, pattern, pattern, pattern, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows)
}

// UpdateStatus transitions a record through the manual workflow set
func (s *Store) UpdateStatus(id int64, status string) error {
	if !model.IsWorkflowStatus(status) {
		return fmt.Errorf("invalid status %q (valid: %s)", status, strings.Join(model.WorkflowStatuses, ", "))
	}

	res, err := s.db.Exec(
		`UPDATE referrals SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("referral %d not found", id)
	}
	return nil
}

// LatestContext returns the most recent stored context block, or empty
// when no referral carried one
func (s *Store) LatestContext() (string, error) {
	var ctx string
	err := s.db.QueryRow(
		`SELECT context_data FROM referrals WHERE context_data <> ''
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
	).Scan(&ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return ctx, err
}

// PriorityCounts returns the number of referrals per priority tier
func (s *Store) PriorityCounts() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT priority, COUNT(*) FROM referrals GROUP BY priority`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var priority string
		var n int
		if err := rows.Scan(&priority, &n); err != nil {
			return nil, err
		}
		counts[priority] = n
	}
	return counts, rows.Err()
}

// EnsurePatient returns the id of the patient row for p.PatientID,
// creating it if absent. Existing rows are not modified. A blank
// identifier is a no-op.
func (s *Store) EnsurePatient(p *model.Patient) (int64, error) {
	if p.PatientID == "" {
		return 0, nil
	}

	var id int64
	err := s.db.QueryRow(`SELECT id FROM patients WHERE patient_id = ?`, p.PatientID).Scan(&id)
	if err == nil {
		p.ID = id
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	res, err := s.db.Exec(
		`INSERT INTO patients (patient_id, name, age, sex, address) VALUES (?, ?, ?, ?, ?)`,
		p.PatientID, p.Name, p.Age, p.Sex, p.Address,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// GetPatient loads a patient by external identifier
func (s *Store) GetPatient(patientID string) (model.Patient, error) {
	var p model.Patient
	err := s.db.QueryRow(
		`SELECT id, patient_id, name, age, sex, address, created_at FROM patients WHERE patient_id = ?`,
		patientID,
	).Scan(&p.ID, &p.PatientID, &p.Name, &p.Age, &p.Sex, &p.Address, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("patient %s not found", patientID)
	}
	return p, err
}

// LogQuery appends one audit row
func (s *Store) LogQuery(q *model.QueryLog) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(
		`INSERT INTO query_log (record_id, mode, query_text, response, provider, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.RecordID, string(q.Mode), q.QueryText, q.Response, q.Provider, q.LatencyMS, q.CreatedAt,
	)
	if err != nil {
		return err
	}
	q.ID, _ = res.LastInsertId()
	return nil
}

// RecentQueries returns the newest audit rows, most recent first
func (s *Store) RecentQueries(limit int) ([]model.QueryLog, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, record_id, mode, query_text, response, provider, latency_ms, created_at
		 FROM query_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.QueryLog
	for rows.Next() {
		var q model.QueryLog
		var mode string
		if err := rows.Scan(&q.ID, &q.RecordID, &mode, &q.QueryText, &q.Response, &q.Provider, &q.LatencyMS, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Mode = model.Mode(mode)
		logs = append(logs, q)
	}
	return logs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (model.CaseRecord, error) {
	var rec model.CaseRecord
	var priority string
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.PatientName, &rec.ReferringLocation, &rec.StaffName,
		&rec.CaseText, &rec.Response, &rec.ContextData, &priority, &rec.Specialty,
		&rec.Status, &rec.Provider, &rec.Model, &rec.CreatedAt, &rec.UpdatedAt,
	)
	rec.Priority = model.Priority(priority)
	return rec, err
}

func collectRecords(rows *sql.Rows) ([]model.CaseRecord, error) {
	var records []model.CaseRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
