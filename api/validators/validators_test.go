package validators

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

type productEdit struct {
	ProductID uuid.UUID        `json:"product_id" validate:"required"`
	Name      *string          `json:"name,omitempty" validate:"omitempty,notblank"`
	Price     *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gt=0"`
}

type editBatch struct {
	Edits []productEdit `json:"edits" validate:"required,min=1,dive"`
}

func postJSON(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
}

func detailsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, _ := typed.Details().(map[string]string)
	return details
}

func TestDecodeJSONBodyAcceptsValidBatch(t *testing.T) {
	id := uuid.New()
	var batch editBatch
	err := DecodeJSONBody(postJSON(`{"edits":[{"product_id":"`+id.String()+`","price":"24.99"}]}`), &batch)
	require.NoError(t, err)
	require.Len(t, batch.Edits, 1)
	assert.Equal(t, id, batch.Edits[0].ProductID)
	assert.True(t, batch.Edits[0].Price.Equal(decimal.RequireFromString("24.99")))
}

func TestDecodeJSONBodyReportsNestedFieldPaths(t *testing.T) {
	var batch editBatch
	err := DecodeJSONBody(postJSON(`{"edits":[{"product_id":"00000000-0000-0000-0000-000000000000","name":"  ","price":"0"}]}`), &batch)
	details := detailsOf(t, err)
	assert.Equal(t, "is required", details["edits[0].product_id"])
	assert.Equal(t, "must not be blank", details["edits[0].name"])
}

func TestDecodeJSONBodyRejectsNegativePrice(t *testing.T) {
	var batch editBatch
	err := DecodeJSONBody(postJSON(`{"edits":[{"product_id":"`+uuid.NewString()+`","price":"-1"}]}`), &batch)
	assert.Equal(t, "must be greater than 0", detailsOf(t, err)["edits[0].price"])
}

func TestDecodeJSONBodyRejectsEmptyBatch(t *testing.T) {
	var batch editBatch
	err := DecodeJSONBody(postJSON(`{"edits":[]}`), &batch)
	assert.Equal(t, "must contain at least 1 item(s)", detailsOf(t, err)["edits"])
}

func TestDecodeJSONBodyRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"empty":    "",
		"unknown":  `{"edits":[],"extra":true}`,
		"trailing": `{"edits":[]} {}`,
		"syntax":   `{"edits":`,
	}
	for name, body := range cases {
		var batch editBatch
		err := DecodeJSONBody(postJSON(body), &batch)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}
}

func TestDecodeJSONBodyEnforcesSizeLimit(t *testing.T) {
	huge := `{"edits":[{"product_id":"` + strings.Repeat("a", MaxBodyBytes) + `"}]}`
	var batch editBatch
	err := DecodeJSONBody(postJSON(huge), &batch)
	require.Error(t, err)
	assert.Contains(t, pkgerrors.As(err).Message(), "exceeds")
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=25&bad=x&big=900", nil)

	v, err := ParseQueryInt(req, "limit", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	v, err = ParseQueryInt(req, "missing", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = ParseQueryInt(req, "bad", 10, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseQueryInt(req, "big", 10, 1, 500)
	assert.EqualError(t, err, "VALIDATION_ERROR: big must be between 1 and 500")
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "mango ice", SanitizeString("  mango \t\n ice\x00 ", 0))
	assert.Equal(t, "blue", SanitizeString("blue razz", 5))
	assert.Equal(t, "ñandú", SanitizeString("ñandú-grape", 5))
}
