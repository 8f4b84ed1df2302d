package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hpowernl/logscope/pkg/models"
)

// Combined log shape: 127.0.0.1 - - [07/Dec/2024:10:15:30 +0000] "GET /users/123 HTTP/1.1" 200 1234 ...
// The bytes field may be absent or "-"; trailing fields (referer,
// user agent) are ignored.
var combinedLineRegex = regexp.MustCompile(
	`^(\S+) \S+ \S+ \[([^\]]+)\] "(\S+) (\S+)(?: ([^"]*))?" (\S+)(?: (\S+))?`)

const apacheTimeLayout = "02/Jan/2006:15:04:05 -0700"

// LineParser turns raw combined-format lines into request records.
// It holds no state and is safe for concurrent use.
type LineParser struct{}

// NewLineParser creates a new line parser instance.
func NewLineParser() *LineParser {
	return &LineParser{}
}

// ParseLine parses a single raw line. Exactly one of the results is
// non-nil: a complete record, or a failure with the reason the line
// was rejected. A bad line never aborts the run and never yields a
// partially filled record.
func (p *LineParser) ParseLine(raw string) (*models.RequestRecord, *models.ParseFailure) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return nil, &models.ParseFailure{Line: raw, Reason: models.FailureMalformed}
	}

	matches := combinedLineRegex.FindStringSubmatch(line)
	if matches == nil {
		return nil, &models.ParseFailure{Line: raw, Reason: models.FailureUnsupportedFormat}
	}

	// matches[1] = IP
	// matches[2] = timestamp
	// matches[3] = method
	// matches[4] = path
	// matches[5] = protocol (optional)
	// matches[6] = status
	// matches[7] = bytes (optional)

	status, err := strconv.Atoi(matches[6])
	if err != nil || status < 100 || status > 599 {
		return nil, &models.ParseFailure{Line: raw, Reason: models.FailureMalformed}
	}

	record := &models.RequestRecord{
		ClientIP:     matches[1],
		TimestampRaw: matches[2],
		Method:       matches[3],
		Path:         matches[4],
		Status:       status,
		BytesSent:    parseBytes(matches[7]),
	}

	// The raw timestamp string is authoritative; the parsed value is
	// best effort and stays zero when the format is ambiguous.
	if ts, err := time.Parse(apacheTimeLayout, matches[2]); err == nil {
		record.Timestamp = ts
	}

	return record, nil
}

// parseBytes converts the bytes-sent field. Absent, "-", or
// unparseable values count as zero, never negative.
func parseBytes(field string) int64 {
	if field == "" || field == "-" {
		return 0
	}
	n, err := strconv.ParseInt(field, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// StatusClass returns the status-class label for a code, e.g. "4xx".
func StatusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// IsErrorStatus checks if a status code counts toward the error rate.
func IsErrorStatus(status int) bool {
	return status >= 400 && status <= 599
}
