package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/api"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/internal/engine"
	"github.com/Adithya-Monish-Kumar-K/retrieval-lab/pkg/health"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestParseCSVWithHeader(t *testing.T) {
	rows, err := parseCSV(strings.NewReader("\ufeffkategori,Text,Category\nx,kucing makan ikan,Hewan\ny,\"anjing, besar\",\n"))
	require.NoError(t, err)
	assert.Equal(t, []corpus.Row{
		{Text: "kucing makan ikan", Category: "Hewan"},
		{Text: "anjing, besar"},
	}, rows)
}

func TestParseCSVWithoutHeader(t *testing.T) {
	rows, err := parseCSV(strings.NewReader("kucing makan ikan,Hewan\nburung terbang\n"))
	require.NoError(t, err)
	assert.Equal(t, []corpus.Row{
		{Text: "kucing makan ikan", Category: "Hewan"},
		{Text: "burung terbang"},
	}, rows)

	_, err = parseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestSearchCommand(t *testing.T) {
	path := writeFile(t, "corpus.csv", "text,category\nkucing makan ikan,Hewan\nanjing makan daging,Hewan\n")

	out, err := execute(t, "search", "boolean", "kucing", "AND", "ikan", "--corpus", path, "--json")
	require.NoError(t, err)

	var resp engine.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, int64(1), resp.Results[0].ID)

	out, err = execute(t, "search", "vsm", "kucinq", "--corpus", path)
	require.NoError(t, err)
	assert.Contains(t, out, "did you mean: kucing")

	_, err = execute(t, "search", "bm25", "kucing", "--corpus", path)
	assert.Error(t, err)
}

func TestClusterAndAnalyzeCommands(t *testing.T) {
	path := writeFile(t, "corpus.json", `[{"text":"kucing makan ikan"},{"text":"anjing makan daging"},{"text":"ikan berenang"}]`)

	out, err := execute(t, "cluster", "--k", "2", "--corpus", path, "--json")
	require.NoError(t, err)
	var assignments []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &assignments))
	assert.Len(t, assignments, 3)

	out, err = execute(t, "analyze", "--doc", "1", "--method", "vsm", "--query", "ikan", "--corpus", path)
	require.NoError(t, err)
	assert.Contains(t, out, "document 1: kucing makan ikan")
	assert.Contains(t, out, "ikan")

	_, err = execute(t, "analyze", "--corpus", path)
	assert.Error(t, err)
}

func TestUploadCommand(t *testing.T) {
	eng, err := engine.New(engine.Config{MaxBulkRows: 10, ClusterTimeout: time.Second}, engine.Deps{})
	require.NoError(t, err)
	srv := httptest.NewServer(api.NewRouter(api.New(eng, nil, 0), nil, health.NewChecker(), api.RouterOptions{}))
	defer srv.Close()

	path := writeFile(t, "upload.csv", "text,category\nkucing makan ikan,Hewan\n,Kosong\nanjing makan daging,\n")
	out, err := execute(t, "upload", path, "--server", srv.URL, "--batch", "2")
	require.NoError(t, err)
	assert.Equal(t, "2 documents added, 1 failed, 3 total\n", out)

	docs := eng.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "Hewan", docs[0].Category)
	assert.Equal(t, "Umum", docs[1].Category)
}
