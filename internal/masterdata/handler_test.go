package masterdata

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() http.Handler {
	svc, _, _, _ := newTestService()
	r := chi.NewRouter()
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerProductRoutes(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPost, "/products", `{"name":"Tea","price":"4.5","stock":3}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID    string `json:"id"`
		Price string `json:"price"`
		Stock int    `json:"stock"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "4.5", created.Price)
	assert.Equal(t, 3, created.Stock)

	rec = do(t, h, http.MethodPost, "/products/bulk-prices", `{"mode":"fixed","amount":"0.5","direction":"increase"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":"5"`)

	rec = do(t, h, http.MethodDelete, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/products/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerRejectsInvalidInput(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPost, "/customers", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/products/bulk-prices", `{"mode":"percent","amount":"5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/suppliers", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerDuplicateSupplierConflicts(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPost, "/suppliers", `{"name":"Acme"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/suppliers", `{"name":"Acme"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/suppliers?search=acm", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 1)
}
