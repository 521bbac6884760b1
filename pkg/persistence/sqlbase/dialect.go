package sqlbase

import (
	"database/sql/driver"
	"fmt"
	"regexp"
	"time"
)

// Dialect hides the differences between the SQL engines behind the shared repositories.
// Queries are written with PostgreSQL style $N placeholders.
type Dialect interface {
	Name() string
	Rebind(query string) string
	IsUniqueViolation(err error) bool
	// RowLock is appended to a SELECT to lock the matched rows until commit.
	RowLock() string
	// Time converts a timestamp into the value stored by the engine.
	Time(t time.Time) driver.Value
}

var numberedPlaceholder = regexp.MustCompile(`\$(\d+)`)

// QuestionPlaceholders rewrites $N placeholders into ?N.
func QuestionPlaceholders(query string) string {
	return numberedPlaceholder.ReplaceAllString(query, "?$1")
}

// TimestampLayout is a fixed width UTC layout, so text timestamps sort chronologically.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// timeColumn scans timestamps stored natively or as TimestampLayout text.
type timeColumn struct {
	dest *time.Time
}

func (c timeColumn) Scan(src any) error {
	parsed, err := parseTimestamp(src)
	if err != nil {
		return err
	}

	*c.dest = parsed

	return nil
}

// nullTimeColumn is timeColumn for nullable columns.
type nullTimeColumn struct {
	dest **time.Time
}

func (c nullTimeColumn) Scan(src any) error {
	if src == nil {
		*c.dest = nil

		return nil
	}

	parsed, err := parseTimestamp(src)
	if err != nil {
		return err
	}

	*c.dest = &parsed

	return nil
}

func parseTimestamp(src any) (time.Time, error) {
	switch value := src.(type) {
	case time.Time:
		return value.UTC(), nil
	case string:
		return parseTimestampText(value)
	case []byte:
		return parseTimestampText(string(value))
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp value %T", src)
	}
}

func parseTimestampText(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}

	return parsed.UTC(), nil
}
