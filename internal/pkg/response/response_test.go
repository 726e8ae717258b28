package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
)

func TestOK(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]string{"moloch": "0x23c3"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"moloch":"0x23c3"}}`, rr.Body.String())
}

func TestJSONWithMeta(t *testing.T) {
	rr := httptest.NewRecorder()
	JSONWithMeta(rr, http.StatusOK, []int{1, 2}, &Meta{Total: 2, FromBlock: 10, Source: "index"})
	assert.JSONEq(t, `{"data":[1,2],"meta":{"total":2,"from_block":10,"source":"index"}}`, rr.Body.String())
}

func TestError(t *testing.T) {
	t.Run("api error keeps its status", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Error(rr, apierrors.NewUpstreamError("call", errors.New("timeout")))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		var body struct {
			Error apierrors.APIError `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "upstream_error", body.Error.Code)
		assert.Equal(t, "call: timeout", body.Error.Message)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		rr := httptest.NewRecorder()
		Error(rr, errors.New("secret detail"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret detail")
	})

	t.Run("validation error", func(t *testing.T) {
		rr := httptest.NewRecorder()
		ValidationError(rr, "custom_salt", "invalid hash length: 2")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"field":"custom_salt"`)
	})
}
