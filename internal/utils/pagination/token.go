// Package pagination implements the opaque keyset cursors used by statement
// endpoints. Tokens are base64 so callers treat them as meaningless strings
// and cannot construct offsets themselves.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EncodeCursor packs the last returned row's position into a token.
// Statement pages are ordered by (posted_at DESC, line_id DESC), so the
// cursor carries both fields to break ties between lines posted in the same
// instant.
func EncodeCursor(postedAt time.Time, lineID string) string {
	tokenStr := fmt.Sprintf("%s|%s", postedAt.Format(timeFormat), lineID)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeCursor unpacks a token produced by EncodeCursor.
func DecodeCursor(token string) (time.Time, string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token (base64 decode): %w", err)
	}

	parts := strings.SplitN(string(decodedBytes), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("invalid pagination token (missing fields)")
	}

	postedAt, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token (posted_at parse): %w", err)
	}

	return postedAt, parts[1], nil
}
