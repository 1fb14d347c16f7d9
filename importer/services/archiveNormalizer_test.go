package services

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestNormalizeSessionDirIndexesLooseFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "produto.dbf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GRUPO.DBF"), []byte("x"), 0o644))

	index, err := NormalizeSessionDir(dir)
	require.NoError(t, err)

	assert.Contains(t, index, "PRODUTO.DBF")
	assert.Contains(t, index, "GRUPO.DBF")
}

func TestNormalizeSessionDirExtractsNestedArchives(t *testing.T) {
	dir := t.TempDir()

	// Inner zip holding one table, wrapped in an outer zip with a loose file
	var inner bytes.Buffer
	iw := zip.NewWriter(&inner)
	f, err := iw.Create("VENDAS.DBF")
	require.NoError(t, err)
	_, err = f.Write([]byte("sales"))
	require.NoError(t, err)
	require.NoError(t, iw.Close())

	writeZip(t, filepath.Join(dir, "backup.zip"), map[string][]byte{
		"dados/CLIENTES.DBF": []byte("customers"),
		"historico.zip":      inner.Bytes(),
	})

	index, err := NormalizeSessionDir(dir)
	require.NoError(t, err)

	assert.Contains(t, index, "CLIENTES.DBF")
	assert.Contains(t, index, "VENDAS.DBF")

	// Archives are deleted after extraction
	_, err = os.Stat(filepath.Join(dir, "backup.zip"))
	assert.True(t, os.IsNotExist(err))
	assert.NotContains(t, index, "BACKUP.ZIP")
	assert.NotContains(t, index, "HISTORICO.ZIP")
}

func TestMissingRequiredFiles(t *testing.T) {
	index := map[string]string{
		"GRUPO.DBF":    "/x/GRUPO.DBF",
		"PRODUTO.DBF":  "/x/PRODUTO.DBF",
		"CLIENTES.DBF": "/x/CLIENTES.DBF",
		"VENDEDOR.DBF": "/x/VENDEDOR.DBF",
		"VENDAS.DBF":   "/x/VENDAS.DBF",
	}
	assert.Empty(t, MissingRequiredFiles(index))

	delete(index, "VENDAS.DBF")
	assert.Equal(t, []string{"VENDAS.DBF"}, MissingRequiredFiles(index))
}
