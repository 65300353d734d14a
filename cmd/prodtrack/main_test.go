package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "prodtrack/internal/errors"
)

const exportCSV = "ORDEN DE COMPRA,TOTAL PATINES,PENDIENTES\n" +
	"OC-1,10,4\n" +
	"OC-1,5,0\n" +
	"OC-2,8,8\n"

func newExportServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, exportCSV)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRun_JSONView(t *testing.T) {
	url := newExportServer(t)
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"-source", url, "-oc", "OC-1"}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	var view struct {
		Selection string `json:"selection"`
		RowCount  int    `json:"row_count"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &view))
	assert.Equal(t, "OC-1", view.Selection)
	assert.Equal(t, 2, view.RowCount)
}

func TestRun_CSVExport(t *testing.T) {
	url := newExportServer(t)
	out := filepath.Join(t.TempDir(), "produccion.csv")
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"-source", url, "-oc", "OC-2", "-out", out}, &stdout, &stderr))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\ufeff")))
	assert.Contains(t, string(data), "OC-2")
	assert.NotContains(t, string(data), "OC-1")
	assert.Empty(t, stdout.String())
}

func TestRun_XLSXExport(t *testing.T) {
	url := newExportServer(t)
	out := filepath.Join(t.TempDir(), "produccion.xlsx")
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"-source", url, "-out", out}, &stdout, &stderr))

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "ORDEN DE COMPRA", rows[0][0])
}

func TestRun_UnsupportedExtension(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", "http://127.0.0.1:1/x", "-out", "report.pdf"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported export extension")
}

func TestRun_SourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", srv.URL}, &stdout, &stderr)
	require.Error(t, err)
	assert.True(t, apperrors.IsConnectionError(err), err.Error())
	assert.Empty(t, stdout.String())
}

func TestRun_SourceFlagWithoutConfig(t *testing.T) {
	t.Setenv("PRODTRACK_SOURCE_URL", "")
	t.Setenv("PRODTRACK_CONFIG_FILE", "")
	url := newExportServer(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-source", url}, &stdout, &stderr), stderr.String())
	assert.Contains(t, stdout.String(), `"selection": "all"`)
}

func TestRun_MissingSource(t *testing.T) {
	t.Setenv("PRODTRACK_SOURCE_URL", "")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), nil, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.url is required")
}
