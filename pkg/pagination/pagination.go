package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params are the page inputs accepted by list endpoints. Cursor is opaque to
// clients and comes from the previous page's next_cursor.
type Params struct {
	Limit  int
	Cursor string
}

// Size is Limit clamped to [1, MaxLimit], with DefaultLimit for zero.
func (p Params) Size() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

// Cursor marks the last row of a page in (created, id) descending order.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

func (c Cursor) Encode() string {
	raw, _ := json.Marshal(Cursor{CreatedAt: c.CreatedAt.UTC(), ID: c.ID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode returns nil for a blank value.
func Decode(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, invalidCursor(err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, invalidCursor(err)
	}
	if c.ID == uuid.Nil || c.CreatedAt.IsZero() {
		return nil, invalidCursor(fmt.Errorf("incomplete cursor %q", raw))
	}
	return &c, nil
}

func invalidCursor(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").WithDetail("field", "cursor")
}

// Keyset returns a gorm scope that orders by column then id, newest first,
// resumes after the decoded cursor and fetches one look-ahead row.
func Keyset(params Params, column string) (func(*gorm.DB) *gorm.DB, error) {
	cursor, err := Decode(params.Cursor)
	if err != nil {
		return nil, err
	}
	return func(db *gorm.DB) *gorm.DB {
		if cursor != nil {
			db = db.Where(
				fmt.Sprintf("(%[1]s < ?) OR (%[1]s = ? AND id < ?)", column),
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
		return db.Order(column + " DESC").Order("id DESC").Limit(params.Size() + 1)
	}, nil
}

// Trim drops the look-ahead row and returns the next cursor, or "" on the
// last page.
func Trim[T any](rows []T, params Params, cursorOf func(T) Cursor) ([]T, string) {
	size := params.Size()
	if len(rows) <= size {
		return rows, ""
	}
	rows = rows[:size]
	return rows, cursorOf(rows[size-1]).Encode()
}
