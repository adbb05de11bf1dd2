package store

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    _ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct{ DB *sql.DB }

func Open(dsn string) (*Store, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil { return nil, err }
    db.SetMaxOpenConns(10)
    db.SetMaxIdleConns(5)
    db.SetConnMaxLifetime(30 * time.Minute)
    return &Store{DB: db}, nil
}

func (s *Store) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *Store) Migrate(ctx context.Context) error {
    stmts := []string{
        `CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
        `CREATE TABLE IF NOT EXISTS submissions (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            entity_type_id  TEXT NOT NULL,
            item_id         TEXT NOT NULL,
            reference       TEXT,
            emirate         TEXT,
            payload         JSONB NOT NULL,
            success         BOOLEAN NOT NULL,
            response        JSONB,
            created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
        );`,
        `CREATE INDEX IF NOT EXISTS idx_submissions_item ON submissions(entity_type_id, item_id);`,
        `CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at DESC);`,
    }
    for _, q := range stmts {
        if _, err := s.DB.ExecContext(ctx, q); err != nil { return err }
    }
    return nil
}

type SubmissionInput struct {
    EntityTypeID string
    ItemID       string
    Reference    string
    Emirate      string
    PayloadJSON  []byte
    Success      bool
    ResponseJSON []byte
}

func (s *Store) RecordSubmission(ctx context.Context, in SubmissionInput) error {
    payload := string(in.PayloadJSON)
    if payload == "" { payload = "null" }
    var resp any
    if len(in.ResponseJSON) > 0 {
        resp = string(in.ResponseJSON)
    }
    _, err := s.DB.ExecContext(ctx, `
        INSERT INTO submissions (entity_type_id, item_id, reference, emirate, payload, success, response)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`,
        in.EntityTypeID, in.ItemID, nullStr(in.Reference), nullStr(in.Emirate),
        payload, in.Success, resp,
    )
    return err
}

type SubmissionRecord struct {
    ID           string          `json:"id"`
    EntityTypeID string          `json:"entity_type_id"`
    ItemID       string          `json:"item_id"`
    Reference    string          `json:"reference,omitempty"`
    Emirate      string          `json:"emirate,omitempty"`
    Success      bool            `json:"success"`
    Payload      json.RawMessage `json:"payload,omitempty"`
    CreatedAt    time.Time       `json:"created_at"`
}

func (s *Store) RecentSubmissions(ctx context.Context, limit int) ([]SubmissionRecord, error) {
    if limit <= 0 { limit = 20 }
    rows, err := s.DB.QueryContext(ctx, `
        SELECT id, entity_type_id, item_id, COALESCE(reference,''), COALESCE(emirate,''), success, payload, created_at
        FROM submissions ORDER BY created_at DESC LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()

    var out []SubmissionRecord
    for rows.Next() {
        var rec SubmissionRecord
        var payload []byte
        if err := rows.Scan(&rec.ID, &rec.EntityTypeID, &rec.ItemID, &rec.Reference, &rec.Emirate, &rec.Success, &payload, &rec.CreatedAt); err != nil {
            return nil, err
        }
        rec.Payload = payload
        out = append(out, rec)
    }
    return out, rows.Err()
}

func nullStr(s string) sql.NullString {
    if s == "" { return sql.NullString{} }
    return sql.NullString{String: s, Valid: true}
}
