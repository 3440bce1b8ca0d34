package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
)

// ErrNotFound no archived report has the requested id
var ErrNotFound = errors.New("report not found")

// Report status values
const (
	StatusGenerated = "generated"
	StatusSent      = "sent"
	StatusPartial   = "partial"
	StatusFailed    = "failed"
)

// Recipient kinds
const (
	KindGroup      = "group"
	KindIndividual = "individual"
)

// Report one archived generation run
type Report struct {
	ID                   string     `db:"id" json:"id"`
	ResponseID           string     `db:"response_id" json:"response_id,omitempty"`
	Company              string     `db:"company" json:"company"`
	VisitDate            *time.Time `db:"visit_date" json:"visit_date,omitempty"`
	FilePath             string     `db:"file_path" json:"file_path"`
	Substitutions        int        `db:"substitutions" json:"substitutions"`
	Images               int        `db:"images" json:"images"`
	GroupRecipients      int        `db:"group_recipients" json:"group_recipients"`
	IndividualRecipients int        `db:"individual_recipients" json:"individual_recipients"`
	Status               string     `db:"status" json:"status"`
	Error                string     `db:"error" json:"error,omitempty"`
	Digest               string     `db:"digest" json:"digest,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`

	Recipients []Recipient `db:"-" json:"recipients,omitempty"`
}

// Recipient one address a report was addressed to
type Recipient struct {
	ReportID  string `db:"report_id" json:"-"`
	Address   string `db:"address" json:"address"`
	Kind      string `db:"kind" json:"kind"`
	Delivered bool   `db:"delivered" json:"delivered"`
}

// Store report archive over postgres or sqlite3
type Store struct {
	db *sqlx.DB
}

// Open connects to the configured database and migrates the schema
func Open(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite3"
	}
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		if driver != "sqlite3" {
			return nil, errors.New("db source required")
		}
		source = "visit_report.db"
	}
	if driver == "sqlite3" && !strings.HasPrefix(source, "file:") && source != ":memory:" {
		if dir := filepath.Dir(source); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	}

	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database resources
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		response_id TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL,
		visit_date TIMESTAMP NULL,
		file_path TEXT NOT NULL DEFAULT '',
		substitutions INTEGER NOT NULL DEFAULT 0,
		images INTEGER NOT NULL DEFAULT 0,
		group_recipients INTEGER NOT NULL DEFAULT 0,
		individual_recipients INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		digest TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_recipients (
		report_id TEXT NOT NULL REFERENCES reports(id) ON DELETE CASCADE,
		address TEXT NOT NULL,
		kind TEXT NOT NULL,
		delivered BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (report_id, address)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at)`,
}

// SaveReport stores rep and its recipients in one transaction, assigning an
// id and creation time when missing
func (s *Store) SaveReport(ctx context.Context, rep *Report) error {
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.NamedExecContext(ctx, `INSERT INTO reports
		(id, response_id, company, visit_date, file_path, substitutions, images,
		 group_recipients, individual_recipients, status, error, digest, created_at)
		VALUES (:id, :response_id, :company, :visit_date, :file_path, :substitutions, :images,
		 :group_recipients, :individual_recipients, :status, :error, :digest, :created_at)`, rep)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: %v", err, rerr)
		}
		return fmt.Errorf("insert report: %w", err)
	}

	for i := range rep.Recipients {
		rep.Recipients[i].ReportID = rep.ID
		_, err = tx.NamedExecContext(ctx, `INSERT INTO report_recipients (report_id, address, kind, delivered)
			VALUES (:report_id, :address, :kind, :delivered)`, rep.Recipients[i])
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				err = fmt.Errorf("%w: %v", err, rerr)
			}
			return fmt.Errorf("insert recipient %s: %w", rep.Recipients[i].Address, err)
		}
	}
	return tx.Commit()
}

// ListReports newest first, without recipients
func (s *Store) ListReports(ctx context.Context, limit, offset int) ([]Report, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var out []Report
	query := s.db.Rebind(`SELECT id, response_id, company, visit_date, file_path, substitutions, images,
		group_recipients, individual_recipients, status, error, digest, created_at
		FROM reports ORDER BY created_at DESC, id LIMIT ? OFFSET ?`)
	if err := s.db.SelectContext(ctx, &out, query, limit, offset); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return out, nil
}

// GetReport one report with its recipients
func (s *Store) GetReport(ctx context.Context, id string) (*Report, error) {
	var rep Report
	query := s.db.Rebind(`SELECT id, response_id, company, visit_date, file_path, substitutions, images,
		group_recipients, individual_recipients, status, error, digest, created_at
		FROM reports WHERE id = ?`)
	if err := s.db.GetContext(ctx, &rep, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	query = s.db.Rebind(`SELECT report_id, address, kind, delivered FROM report_recipients
		WHERE report_id = ? ORDER BY kind, address`)
	if err := s.db.SelectContext(ctx, &rep.Recipients, query, id); err != nil {
		return nil, fmt.Errorf("get recipients: %w", err)
	}
	return &rep, nil
}
