package adcp

import (
	"encoding/json"
	"strings"
	"time"
)

// dateOnly is the layout accepted by the legacy start_date/end_date fields.
const dateOnly = "2006-01-02"

// naiveLayouts are timestamp shapes that parse but carry no timezone.
// They are recognized only so validation can name the problem precisely.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseWireTime parses an RFC-3339 timestamp, rejecting values without an
// explicit timezone.
func parseWireTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if _, naiveErr := time.Parse(layout, raw); naiveErr == nil {
			return time.Time{}, errNaiveDatetime
		}
	}
	return time.Time{}, err
}

type timeParseError string

func (e timeParseError) Error() string { return string(e) }

const errNaiveDatetime = timeParseError("datetime is missing an explicit timezone")

// Timestamp is an RFC-3339 wall-clock value that must carry an explicit
// timezone. Parse failures are latched rather than returned so that
// Validate can report them against the owning field name.
type Timestamp struct {
	raw string
	t   time.Time
	ok  bool
}

// NewTimestamp wraps an already-parsed time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{raw: t.Format(time.RFC3339), t: t, ok: true}
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	ts.raw = s
	if t, err := parseWireTime(s); err == nil {
		ts.t = t
		ts.ok = true
	}
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.ok {
		return json.Marshal(ts.raw)
	}
	return json.Marshal(ts.t.Format(time.RFC3339))
}

// IsZero reports whether the field was absent from the request.
func (ts Timestamp) IsZero() bool { return ts.raw == "" && !ts.ok }

// Time returns the parsed value; only meaningful after Validate passes.
func (ts Timestamp) Time() time.Time { return ts.t }

// Validate returns a field-scoped error when the value failed to parse.
func (ts Timestamp) Validate(field string) *Error {
	if ts.IsZero() || ts.ok {
		return nil
	}
	e := ValidationError(field, "invalid datetime %q: %s", ts.raw, timeProblem(ts.raw))
	return &e
}

// TimeOrASAP is a start-time value: either a timezone-aware timestamp or
// the literal string "asap", which the create and update media-buy
// operations accept to mean "as soon as the buy is approved".
type TimeOrASAP struct {
	raw  string
	asap bool
	t    time.Time
	ok   bool
}

// ASAPTime builds the literal "asap" value.
func ASAPTime() TimeOrASAP { return TimeOrASAP{raw: "asap", asap: true, ok: true} }

// NewTimeOrASAP wraps an already-parsed time.
func NewTimeOrASAP(t time.Time) TimeOrASAP {
	return TimeOrASAP{raw: t.Format(time.RFC3339), t: t, ok: true}
}

func (v *TimeOrASAP) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v.raw = s
	if strings.EqualFold(s, "asap") {
		v.asap = true
		v.ok = true
		return nil
	}
	if t, err := parseWireTime(s); err == nil {
		v.t = t
		v.ok = true
	}
	return nil
}

func (v TimeOrASAP) MarshalJSON() ([]byte, error) {
	switch {
	case v.asap:
		return json.Marshal("asap")
	case v.ok:
		return json.Marshal(v.t.Format(time.RFC3339))
	default:
		return json.Marshal(v.raw)
	}
}

// IsZero reports whether the field was absent from the request.
func (v TimeOrASAP) IsZero() bool { return v.raw == "" && !v.ok }

// IsASAP reports whether the buyer asked for an immediate start.
func (v TimeOrASAP) IsASAP() bool { return v.asap }

// Time returns the parsed value; zero when IsASAP or invalid.
func (v TimeOrASAP) Time() time.Time { return v.t }

// Validate returns a field-scoped error when the value is neither "asap"
// nor a timezone-aware timestamp.
func (v TimeOrASAP) Validate(field string) *Error {
	if v.IsZero() || v.ok {
		return nil
	}
	e := ValidationError(field, "invalid datetime %q: %s (or use \"asap\")", v.raw, timeProblem(v.raw))
	return &e
}

func timeProblem(raw string) string {
	if _, err := parseWireTime(raw); err == errNaiveDatetime {
		return errNaiveDatetime.Error()
	}
	return "must be RFC 3339 with timezone"
}

// promoteDate converts a legacy date-only string into a UTC timestamp.
// Start dates map to midnight, end dates to the last second of the day.
func promoteDate(raw string, endOfDay bool) (time.Time, bool) {
	d, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		d = d.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return d.UTC(), true
}
