package infrastructure

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/cockroachdb/errors"

	"jobboard/config"
	"jobboard/domain"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouseSink stores lifecycle events for reporting.
type ClickHouseSink struct {
	conn  driver.Conn
	table string
}

func NewClickHouseSink(cfg config.ClickHouseConfig) (*ClickHouseSink, error) {
	if !tableName.MatchString(cfg.Table) {
		return nil, errors.Newf("invalid clickhouse table name %q", cfg.Table)
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to ClickHouse")
	}
	return &ClickHouseSink{conn: conn, table: cfg.Table}, nil
}

func (s *ClickHouseSink) CreateTable(ctx context.Context) error {
	err := s.conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			type String,
			job_id UInt64,
			application_id UInt64,
			actor_id UInt64,
			status String,
			title String,
			company_name String,
			occurred_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (occurred_at, job_id)
	`, s.table))
	if err != nil {
		return errors.Wrapf(err, "create table %s", s.table)
	}
	return nil
}

// WriteEvents inserts events as one batch.
func (s *ClickHouseSink) WriteEvents(ctx context.Context, events []domain.Event) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table)
	if err != nil {
		return errors.Wrap(err, "prepare batch")
	}
	for _, e := range events {
		err := batch.Append(
			string(e.Type),
			uint64(e.JobID),
			uint64(e.ApplicationID),
			uint64(e.ActorID),
			e.Status,
			e.Title,
			e.CompanyName,
			e.OccurredAt,
		)
		if err != nil {
			_ = batch.Abort()
			return errors.Wrap(err, "append event")
		}
	}
	if err := batch.Send(); err != nil {
		return errors.Wrapf(err, "send %d events", len(events))
	}
	return nil
}

func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}
