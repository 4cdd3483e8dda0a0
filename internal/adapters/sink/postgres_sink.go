package sink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shubhamavl/axleweigh/internal/domain"
	"github.com/shubhamavl/axleweigh/internal/ports"
)

// PostgresSink stores finalized records in a Postgres/Timescale table.
// Inserts are idempotent on the record ID so journal replays are harmless.
type PostgresSink struct {
	db        *sql.DB
	tableName string
}

func NewPostgresSink(db *sql.DB, table string) *PostgresSink {
	return &PostgresSink{db: db, tableName: table}
}

func (p *PostgresSink) Name() string { return "postgres" }

func (p *PostgresSink) WriteRecord(ctx context.Context, rec *domain.TestRecord) error {
	if rec == nil {
		return nil
	}
	query := "INSERT INTO " + p.tableName +
		" (id, axle_number, start_time, end_time, left_weight, right_weight, sample_count, min_weight, max_weight, left_validation, right_validation, balance_status)" +
		" VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12) ON CONFLICT (id) DO NOTHING"

	var end any
	if rec.EndTime != nil {
		end = *rec.EndTime
	}
	_, err := p.db.ExecContext(ctx, query,
		rec.ID.String(),
		int64(rec.AxleNumber),
		rec.StartTime,
		end,
		rec.LeftWeight,
		rec.RightWeight,
		int64(rec.SampleCount),
		rec.MinWeight,
		rec.MaxWeight,
		rec.LeftValidation.String(),
		rec.RightValidation.String(),
		rec.BalanceStatus.String(),
	)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

// EnsureSchema creates the record table when it does not exist.
func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+p.tableName+` (
	id UUID PRIMARY KEY,
	axle_number SMALLINT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	left_weight DOUBLE PRECISION NOT NULL,
	right_weight DOUBLE PRECISION NOT NULL,
	sample_count BIGINT NOT NULL,
	min_weight DOUBLE PRECISION NOT NULL,
	max_weight DOUBLE PRECISION NOT NULL,
	left_validation TEXT NOT NULL,
	right_validation TEXT NOT NULL,
	balance_status TEXT NOT NULL
)`)
	if err != nil {
		return fmt.Errorf("create table %s: %w", p.tableName, err)
	}
	return nil
}

var _ ports.RecordSink = (*PostgresSink)(nil)
