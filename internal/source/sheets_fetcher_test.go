package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"prodtrack/internal/config"
	apperrors "prodtrack/internal/errors"
	"prodtrack/internal/shared/testutil"
)

func newSheetsServer(t *testing.T, status int, payload interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/sheet-1/values/"), r.URL.Path)
		assert.Equal(t, "FORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
}

func newTestSheetsFetcher(t *testing.T, server *httptest.Server) *SheetsFetcher {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	f, err := NewSheetsFetcher(context.Background(), config.SourceConfig{
		Kind:       config.SourceSheets,
		SheetID:    "sheet-1",
		SheetRange: "Produccion!A:D",
		APIKey:     "test-key",
	}, logger,
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return f
}

func TestSheetsFetcher_Fetch(t *testing.T) {
	server := newSheetsServer(t, http.StatusOK, map[string]interface{}{
		"range":          "Produccion!A1:D4",
		"majorDimension": "ROWS",
		"values": [][]interface{}{
			{"ORDEN DE COMPRA", "TOTAL PATINES", "PENDIENTES"},
			{"A", "10", "0"},
			{"B", "7"},
		},
	})
	defer server.Close()

	fetcher := newTestSheetsFetcher(t, server)
	raw, err := fetcher.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sheets:sheet-1!Produccion!A:D", fetcher.Describe())
	require.Equal(t, 2, raw.Len())
	assert.Equal(t, []string{"B", "7", ""}, raw.Records[1])
}

func TestSheetsFetcher_EmptyRange(t *testing.T) {
	server := newSheetsServer(t, http.StatusOK, map[string]interface{}{"range": "A:Z"})
	defer server.Close()

	_, err := newTestSheetsFetcher(t, server).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsMalformedData(err))
}

func TestSheetsFetcher_APIError(t *testing.T) {
	server := newSheetsServer(t, http.StatusForbidden, map[string]interface{}{
		"error": map[string]interface{}{"code": 403, "message": "The caller does not have permission"},
	})
	defer server.Close()

	_, err := newTestSheetsFetcher(t, server).Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsConnectionError(err))
}

func TestNewSheetsFetcher_RequiresCredentials(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := NewSheetsFetcher(context.Background(), config.SourceConfig{SheetID: "x"}, logger)
	assert.Error(t, err)

	_, err = NewSheetsFetcher(context.Background(), config.SourceConfig{APIKey: "k"}, logger)
	assert.Error(t, err)
}
