package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/reflection"
)

func (d *Database) SaveReflection(
	ctx context.Context,
	userID int64,
	record reflection.Record,
) error {
	dateKey := strings.TrimSpace(record.Date)
	if dateKey == "" {
		return errors.New("date key is empty")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	query := `insert into reflections (user_id, date_key, payload, updated_at)
	values (?, ?, ?, current_timestamp)
	on conflict (user_id, date_key) do update
	set payload = excluded.payload,
	updated_at = excluded.updated_at`

	_, err = d.db.ExecContext(ctx, query, userID, dateKey, string(payload))

	return err
}

// GetReflection returns nil when nothing is stored under dateKey.
func (d *Database) GetReflection(
	ctx context.Context,
	userID int64,
	dateKey string,
) (*reflection.Record, error) {
	query := "select payload from reflections where user_id = ? and date_key = ?"

	rows, err := d.db.QueryContext(ctx, query, userID, strings.TrimSpace(dateKey))
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"dateKey", dateKey,
				"operation", "GetReflection")
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate rows: %w", err)
		}

		return nil, nil
	}

	var payload string
	if err = rows.Scan(&payload); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	var record reflection.Record
	if err = json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	return &record, nil
}

func (d *Database) ListReflections(
	ctx context.Context,
	userID int64,
	limit int,
) ([]reflection.Record, error) {
	query := `select date_key, payload
	from reflections
	where user_id = ?
	order by date_key desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "ListReflections")
		}
	}()

	var records []reflection.Record
	for rows.Next() {
		var dateKey, payload string
		if err = rows.Scan(&dateKey, &payload); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		var record reflection.Record
		if err = json.Unmarshal([]byte(payload), &record); err != nil {
			d.log.WarnContext(ctx, "Skipping unreadable reflection",
				"error", err,
				"userID", userID,
				"dateKey", dateKey)

			continue
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}

// GetSession returns nil when the user has no stored credentials.
func (d *Database) GetSession(ctx context.Context, userID int64) (*domain.Credentials, error) {
	query := "select email, token from sessions where user_id = ?"

	rows, err := d.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "GetSession")
		}
	}()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate rows: %w", err)
		}

		return nil, nil
	}

	var creds domain.Credentials
	if err = rows.Scan(&creds.Email, &creds.Token); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	return &creds, nil
}

func (d *Database) UpsertSession(ctx context.Context, userID int64, creds domain.Credentials) error {
	token := strings.TrimSpace(creds.Token)
	if token == "" {
		return errors.New("token is empty")
	}

	query := `insert into sessions (user_id, email, token, updated_at)
	values (?, ?, ?, current_timestamp)
	on conflict (user_id) do update
	set email = excluded.email,
	token = excluded.token,
	updated_at = excluded.updated_at`

	_, err := d.db.ExecContext(ctx, query, userID, strings.TrimSpace(creds.Email), token)

	return err
}

func (d *Database) DeleteSession(ctx context.Context, userID int64) error {
	query := "delete from sessions where user_id = ?"

	_, err := d.db.ExecContext(ctx, query, userID)

	return err
}

// ListSessions maps user IDs to their stored credentials.
func (d *Database) ListSessions(ctx context.Context) (map[int64]domain.Credentials, error) {
	query := "select user_id, email, token from sessions"

	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "ListSessions")
		}
	}()

	sessions := make(map[int64]domain.Credentials)
	for rows.Next() {
		var userID int64
		var creds domain.Credentials
		if err = rows.Scan(&userID, &creds.Email, &creds.Token); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		sessions[userID] = creds
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return sessions, nil
}

func (d *Database) AddPeriodSummary(ctx context.Context, summary *domain.PeriodSummary) error {
	themes, err := json.Marshal(summary.Themes)
	if err != nil {
		return fmt.Errorf("marshal themes: %w", err)
	}

	query := `insert into period_summaries
	(user_id, period, summary_text, themes, start_date, end_date)
	values (?, ?, ?, ?, ?, ?)`

	result, err := d.db.ExecContext(
		ctx,
		query,
		summary.UserID,
		string(summary.Period),
		summary.SummaryText,
		string(themes),
		summary.StartDate.Format(time.DateOnly),
		summary.EndDate.Format(time.DateOnly),
	)
	if err != nil {
		return fmt.Errorf("execute query: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert ID: %w", err)
	}

	summary.ID = id

	return nil
}

func (d *Database) ListPeriodSummaries(
	ctx context.Context,
	userID int64,
	limit int,
) ([]domain.PeriodSummary, error) {
	query := `select id, period, summary_text, themes, start_date, end_date, created_at
	from period_summaries
	where user_id = ?
	order by end_date desc, id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "ListPeriodSummaries")
		}
	}()

	var summaries []domain.PeriodSummary
	for rows.Next() {
		var (
			s                  domain.PeriodSummary
			period, themes     string
			startDate, endDate string
		)

		if err = rows.Scan(&s.ID, &period, &s.SummaryText, &themes, &startDate, &endDate, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		s.UserID = userID
		s.Period = domain.Period(period)

		if err = json.Unmarshal([]byte(themes), &s.Themes); err != nil {
			return nil, fmt.Errorf("unmarshal themes: %w", err)
		}

		if s.StartDate, err = time.Parse(time.DateOnly, startDate); err != nil {
			return nil, fmt.Errorf("parse start date: %w", err)
		}

		if s.EndDate, err = time.Parse(time.DateOnly, endDate); err != nil {
			return nil, fmt.Errorf("parse end date: %w", err)
		}

		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return summaries, nil
}
