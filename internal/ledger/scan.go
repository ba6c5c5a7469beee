package ledger

import (
	"database/sql"
	"errors"
	"time"
)

// timeLayout keeps a fixed-width fraction so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, command, status, error_message, started_at, finished_at"

const itemColumns = "id, run_id, stage, input_path, output_path, status, error_message, started_at, updated_at"

type scanner interface{ Scan(dest ...any) error }

func scanRun(row scanner) (*Run, error) {
	var (
		id          string
		command     string
		status      string
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := row.Scan(&id, &command, &status, &errorMsg, &startedRaw, &finishedRaw); err != nil {
		return nil, err
	}
	run := &Run{
		ID:      id,
		Command: command,
		Status:  Status(status),
		Error:   errorMsg.String,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return run, nil
}

func scanItem(row scanner) (*Item, error) {
	var (
		item       Item
		status     string
		output     sql.NullString
		errorMsg   sql.NullString
		startedRaw string
		updatedRaw string
	)
	if err := row.Scan(
		&item.ID,
		&item.RunID,
		&item.Stage,
		&item.Input,
		&output,
		&status,
		&errorMsg,
		&startedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	item.Status = Status(status)
	item.Output = output.String
	item.Error = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		item.StartedAt = started
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return &item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
