package pagination

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

func TestParamsSize(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -4: DefaultLimit, 10: 10, MaxLimit: MaxLimit, 500: MaxLimit}
	for in, want := range cases {
		assert.Equal(t, want, Params{Limit: in}.Size(), "limit %d", in)
	}
}

func TestCursorEncodeDecode(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 5, time.UTC), ID: uuid.New()}
	got, err := Decode(c.Encode())
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(c.CreatedAt))
	assert.Equal(t, c.ID, got.ID)

	blank, err := Decode("  ")
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, value := range []string{"not-base64!", "e30", "bm9wZQ"} {
		_, err := Decode(value)
		require.Error(t, err, value)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), value)
	}
}

func TestTrim(t *testing.T) {
	now := time.Now().UTC()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	cursorOf := func(id uuid.UUID) Cursor { return Cursor{CreatedAt: now, ID: id} }

	page, next := Trim(ids, Params{Limit: 2}, cursorOf)
	require.Len(t, page, 2)
	decoded, err := Decode(next)
	require.NoError(t, err)
	assert.Equal(t, ids[1], decoded.ID)

	page, next = Trim(ids[:2], Params{Limit: 2}, cursorOf)
	assert.Len(t, page, 2)
	assert.Empty(t, next)
}

type pageRow struct {
	ID        uuid.UUID `gorm:"type:text;primaryKey"`
	CreatedAt time.Time
}

func TestKeysetWalksAllRows(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&pageRow{}))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		created := base.Add(time.Duration(i/2) * time.Hour)
		require.NoError(t, db.Create(&pageRow{ID: uuid.New(), CreatedAt: created}).Error)
	}

	seen := map[uuid.UUID]bool{}
	params := Params{Limit: 2}
	for pages := 0; pages < 5; pages++ {
		scope, err := Keyset(params, "created_at")
		require.NoError(t, err)
		var rows []pageRow
		require.NoError(t, db.Scopes(scope).Find(&rows).Error)

		page, next := Trim(rows, params, func(r pageRow) Cursor { return Cursor{CreatedAt: r.CreatedAt, ID: r.ID} })
		for _, row := range page {
			assert.False(t, seen[row.ID], "row returned twice")
			seen[row.ID] = true
		}
		if next == "" {
			break
		}
		params.Cursor = next
	}
	assert.Len(t, seen, 5)
}

func TestKeysetRejectsBadCursor(t *testing.T) {
	_, err := Keyset(Params{Cursor: "%%%"}, "created_at")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
