// Package query composes read queries over the event collection from
// optional filter and time-range parameters. All caller-supplied values are
// emitted as bound parameters; the one caller-supplied identifier (the
// projection field name) is allow-list checked and still bound, never
// spliced into SQL text.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/iotcloud/device-events-service/internal/docstore"
	"github.com/iotcloud/device-events-service/internal/timefmt"
)

var (
	// ErrDeviceIDRequired reports a range or projection query without a
	// device identifier. Range queries are always partition-scoped.
	ErrDeviceIDRequired = errors.New("query: deviceId is required")

	// ErrInvalidRange reports an explicitly supplied time boundary that
	// does not parse. An explicit-but-malformed boundary is never
	// silently replaced with a default.
	ErrInvalidRange = errors.New("query: invalid startDate or endDate")

	// ErrUnsafeFieldName reports a projection field name outside the
	// safe identifier set.
	ErrUnsafeFieldName = errors.New("query: field name must be alphanumeric or underscore")
)

// safeFieldName constrains dynamic projection field names.
var safeFieldName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// defaultWindow is the range used when either boundary is absent.
const defaultWindow = time.Hour

// Builder constructs event-collection queries. The clock is injectable so
// tests can pin the default-window boundaries.
type Builder struct {
	table string
	now   func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithNow replaces the wall clock, for tests.
func WithNow(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// NewBuilder returns a Builder over the given collection table.
func NewBuilder(table string, opts ...Option) *Builder {
	b := &Builder{table: table, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AttributeFilter builds the equality-filter query. Filters are ANDed onto
// a base always-true predicate in fixed order: device, user, event name.
// Empty values mean "absent". With no filters at all it falls back to a
// count aggregate over the whole collection, whose result set is [count].
func (b *Builder) AttributeFilter(deviceID, userID, eventName string) docstore.Query {
	if deviceID == "" && userID == "" && eventName == "" {
		return docstore.Query{SQL: fmt.Sprintf(`SELECT to_jsonb(count(*)) FROM %s`, b.table)}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT jsonb_build_object('deviceId', doc->>'deviceId') FROM %s WHERE 1=1`, b.table)

	var args []any
	for _, f := range []struct{ attr, value string }{
		{"deviceId", deviceID},
		{"userid", userID},
		{"Event", eventName},
	} {
		if f.value == "" {
			continue
		}
		args = append(args, f.value)
		fmt.Fprintf(&sb, ` AND doc->>'%s' = $%d`, f.attr, len(args))
	}

	return docstore.Query{SQL: sb.String(), Args: args}
}

// TimeRange builds the query for full event documents of one device whose
// PublishedAt lies within the resolved range, inclusive.
func (b *Builder) TimeRange(deviceID, startRaw, endRaw string) (docstore.Query, error) {
	if deviceID == "" {
		return docstore.Query{}, ErrDeviceIDRequired
	}

	start, end, err := b.resolveRange(startRaw, endRaw)
	if err != nil {
		return docstore.Query{}, err
	}

	sql := fmt.Sprintf(
		`SELECT doc FROM %s WHERE partition_key = $1 AND (doc->>'PublishedAt')::timestamptz BETWEEN $2 AND $3`,
		b.table)
	return docstore.Query{SQL: sql, Args: []any{deviceID, start, end}}, nil
}

// FieldProjection builds the epoch-time query: it projects one caller-named
// field from Data alongside its ts value, for documents of one device whose
// Data.ts (epoch seconds) lies within the resolved range, inclusive. Range
// boundaries are converted from ISO-8601 input to epoch seconds.
func (b *Builder) FieldProjection(deviceID, field, startRaw, endRaw string) (docstore.Query, error) {
	if deviceID == "" {
		return docstore.Query{}, ErrDeviceIDRequired
	}
	if !safeFieldName.MatchString(field) {
		return docstore.Query{}, ErrUnsafeFieldName
	}

	start, end, err := b.resolveRange(startRaw, endRaw)
	if err != nil {
		return docstore.Query{}, err
	}

	sql := fmt.Sprintf(
		`SELECT jsonb_build_object($2::text, doc->'Data'->($2::text), 'ts', doc->'Data'->'ts') `+
			`FROM %s WHERE partition_key = $1 AND (doc->'Data'->>'ts')::bigint BETWEEN $3 AND $4`,
		b.table)
	return docstore.Query{SQL: sql, Args: []any{deviceID, field, start.Unix(), end.Unix()}}, nil
}

// resolveRange applies the range policy: both boundaries supplied and
// parseable → verbatim; either missing → [now-1h, now] UTC; supplied but
// malformed → ErrInvalidRange.
func (b *Builder) resolveRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	var start, end time.Time

	if startRaw != "" {
		t, err := timefmt.Parse(startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidRange
		}
		start = t
	}
	if endRaw != "" {
		t, err := timefmt.Parse(endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidRange
		}
		end = t
	}

	if startRaw == "" || endRaw == "" {
		now := b.now().UTC()
		return now.Add(-defaultWindow), now, nil
	}
	return start, end, nil
}
