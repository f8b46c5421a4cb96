package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cursor is the canonical, opaque pagination token (pre-encoding) with short
// field names to minimize payload size. It is serialized to minified JSON and
// encoded with URL-safe base64.
//
// Fields:
//   - v:   version of the cursor schema
//   - db:  database name
//   - c:   collection name
//   - off: document offset from the start of the ordered result set
//   - ps:  page size in documents
//   - iat: issued-at timestamp (unix seconds)
//   - fh:  hash of the coerced filter so a cursor cannot be replayed
//     against a different query
type Cursor struct {
	V   int    `json:"v"`
	Db  string `json:"db"`
	C   string `json:"c"`
	Off int64  `json:"off"`
	Ps  int64  `json:"ps"`
	Iat int64  `json:"iat"`
	Fh  string `json:"fh,omitempty"`
}

// FilterHash derives the short fingerprint stored in a cursor from the
// canonical Extended JSON rendering of a filter.
func FilterHash(filterJSON string) string {
	sum := sha256.Sum256([]byte(filterJSON))
	return hex.EncodeToString(sum[:8])
}

// EncodeCursor serializes and encodes the cursor as URL-safe base64 (without padding).
func EncodeCursor(c Cursor) (string, error) {
	if err := validate(&c); err != nil {
		return "", err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor decodes a URL-safe base64 token and parses the JSON cursor.
func DecodeCursor(token string) (*Cursor, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, errors.New("cursor: empty token")
	}
	data, err := base64.RawURLEncoding.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("cursor: invalid base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cursor: invalid json: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate performs structural checks and defaulting.
func validate(c *Cursor) error {
	if c.V <= 0 {
		c.V = 1
	}
	if c.Iat == 0 {
		c.Iat = time.Now().Unix()
	}
	if strings.TrimSpace(c.Db) == "" {
		return errors.New("cursor: db (database) required")
	}
	if strings.TrimSpace(c.C) == "" {
		return errors.New("cursor: c (collection) required")
	}
	if c.Off < 0 {
		return errors.New("cursor: off must be >= 0")
	}
	if c.Ps <= 0 {
		return errors.New("cursor: ps must be > 0")
	}
	return nil
}

// Matches reports whether the cursor was issued for the given collection and
// filter fingerprint.
func (c *Cursor) Matches(db, collection, filterHash string) bool {
	return c.Db == db && c.C == collection && c.Fh == filterHash
}

// NextOffset computes the next offset after returning n documents.
func NextOffset(curr, n int64) int64 {
	if curr < 0 {
		curr = 0
	}
	if n <= 0 {
		return curr
	}
	return curr + n
}
