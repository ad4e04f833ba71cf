package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"sync"
	"time"
)

type auditEntry struct {
	Time       time.Time `json:"time"`
	User       string    `json:"user"`
	Role       string    `json:"role"`
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	Status     int       `json:"status"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
}

// AuditSink receives request trail entries. Sinks are constructed by this
// package; external callers pick one of the New*AuditSink constructors.
type AuditSink interface {
	Write(entry auditEntry) error
}

// auditLog keeps the most recent API requests in memory and mirrors them to
// an optional sink.
type auditLog struct {
	mu      sync.Mutex
	entries []auditEntry
	max     int
	sink    AuditSink
}

func newAuditLog(max int, sink AuditSink) *auditLog {
	if max <= 0 {
		max = 200
	}
	return &auditLog{max: max, sink: sink}
}

func (l *auditLog) add(entry auditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
	if l.sink != nil {
		// Best-effort persistence; ignore errors to avoid impacting request flow.
		_ = l.sink.Write(entry)
	}
}

func (l *auditLog) list() []auditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]auditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *auditLog) listLimit(limit int) []auditEntry {
	if limit <= 0 || limit > l.max {
		limit = l.max
	}
	all := l.list()
	if len(all) <= limit {
		return all
	}
	return all[len(all)-limit:]
}

// fileAuditSink appends audit entries as JSONL.
type fileAuditSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileAuditSink appends entries to a JSONL file. An empty path yields a
// nil sink.
func NewFileAuditSink(path string) (AuditSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	return &fileAuditSink{file: f}, nil
}

func (s *fileAuditSink) Write(entry auditEntry) error {
	if s == nil || s.file == nil {
		return nil
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.file.Write(append(b, '\n'))
	return err
}

// postgresAuditSink inserts entries into api_audit_log.
type postgresAuditSink struct {
	db *sql.DB
}

// NewPostgresAuditSink inserts entries into the api_audit_log table.
func NewPostgresAuditSink(db *sql.DB) AuditSink {
	if db == nil {
		return nil
	}
	return &postgresAuditSink{db: db}
}

func (s *postgresAuditSink) Write(entry auditEntry) error {
	if s == nil || s.db == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO api_audit_log (time, username, role, path, method, status, remote_addr, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, entry.Time, entry.User, entry.Role, entry.Path, entry.Method, entry.Status, entry.RemoteAddr, entry.UserAgent)
	return err
}

// CombineAuditSinks fans entries out to every non-nil sink.
func CombineAuditSinks(sinks ...AuditSink) AuditSink {
	var kept []AuditSink
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return multiAuditSink(kept)
}

type multiAuditSink []AuditSink

func (m multiAuditSink) Write(entry auditEntry) error {
	var firstErr error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Write(entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
