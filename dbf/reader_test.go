package dbf

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testField struct {
	name     string
	typ      byte
	length   int
	decimals int
}

// writeTestTable builds a minimal legacy table file: 32-byte header,
// 32-byte field descriptors, 0x0D terminator, fixed-width records.
func writeTestTable(t *testing.T, path string, fields []testField, records [][]byte) {
	t.Helper()

	recordSize := 1
	for _, f := range fields {
		recordSize += f.length
	}
	headerSize := 32 + 32*len(fields) + 1

	buf := make([]byte, 0, headerSize+recordSize*len(records)+1)

	header := make([]byte, 32)
	header[0] = 0x03
	header[1], header[2], header[3] = 24, 1, 15 // last update YMD
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(records)))
	binary.LittleEndian.PutUint16(header[8:10], uint16(headerSize))
	binary.LittleEndian.PutUint16(header[10:12], uint16(recordSize))
	header[29] = 0x02 // CP850
	buf = append(buf, header...)

	for _, f := range fields {
		desc := make([]byte, 32)
		copy(desc[0:11], f.name)
		desc[11] = f.typ
		desc[16] = byte(f.length)
		desc[17] = byte(f.decimals)
		buf = append(buf, desc...)
	}
	buf = append(buf, 0x0D)

	for _, rec := range records {
		require.Len(t, rec, recordSize, "test record width")
		buf = append(buf, rec...)
	}
	buf = append(buf, 0x1A) // EOF marker

	require.NoError(t, os.WriteFile(path, buf, 0o644))
}

func record(deleted bool, fields ...string) []byte {
	rec := []byte{' '}
	if deleted {
		rec[0] = '*'
	}
	for _, f := range fields {
		rec = append(rec, []byte(f)...)
	}
	return rec
}

func pad(s string, width int) string {
	for len(s) < width {
		s += " "
	}
	return s
}

func TestOpenReadsHeaderAndFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GRUPO.DBF")
	writeTestTable(t, path,
		[]testField{
			{name: "CODIGO", typ: 'C', length: 6},
			{name: "DESCRICAO", typ: 'C', length: 20},
		},
		[][]byte{
			record(false, pad("01", 6), pad("BEBIDAS", 20)),
		},
	)

	tbl, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"CODIGO", "DESCRICAO"}, tbl.FieldNames())
	assert.Equal(t, uint32(1), tbl.RecordCount())
}

func TestOpenRejectsCorruptHeader(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "SHORT.DBF")
	require.NoError(t, os.WriteFile(short, []byte{0x03, 0x01}, 0o644))
	_, err := Open(short)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)

	// Record size that disagrees with the field widths
	bad := filepath.Join(dir, "BAD.DBF")
	writeTestTable(t, bad,
		[]testField{{name: "CODIGO", typ: 'C', length: 6}},
		nil,
	)
	raw, err := os.ReadFile(bad)
	require.NoError(t, err)
	binary.LittleEndian.PutUint16(raw[10:12], 99)
	require.NoError(t, os.WriteFile(bad, raw, 0o644))

	_, err = Open(bad)
	require.ErrorAs(t, err, &decodeErr)
}

func TestReadBatchesDecodesTypesAndSkipsDeleted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "PRODUTO.DBF")
	writeTestTable(t, path,
		[]testField{
			{name: "CODIGO", typ: 'C', length: 6},
			{name: "PRECO", typ: 'N', length: 10, decimals: 2},
			{name: "DATACAD", typ: 'D', length: 8},
			{name: "ATIVO", typ: 'L', length: 1},
		},
		[][]byte{
			record(false, pad("100", 6), pad("    123.45", 10), "20240115", "T"),
			record(true, pad("101", 6), pad("      9.99", 10), "20240116", "T"),
			record(false, pad("102", 6), pad("", 10), pad("", 8), "?"),
		},
	)

	tbl, err := Open(path)
	require.NoError(t, err)

	var rows []Row
	err = tbl.ReadBatches(500, func(batch []Row) error {
		rows = append(rows, batch...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2, "deleted record must be skipped")

	first := rows[0]
	assert.Equal(t, "100", first["CODIGO"].Text)
	assert.Equal(t, KindNumber, first["PRECO"].Kind)
	assert.InDelta(t, 123.45, first["PRECO"].Number, 0.0001)
	assert.Equal(t, KindDate, first["DATACAD"].Kind)
	assert.Equal(t, "2024-01-15", *first["DATACAD"].StagingText())
	assert.True(t, first["ATIVO"].Bool)

	second := rows[1]
	assert.True(t, second["PRECO"].IsNull())
	assert.True(t, second["DATACAD"].IsNull())
	assert.True(t, second["ATIVO"].IsNull())
	assert.Nil(t, second["PRECO"].StagingText())
}

func TestReadBatchesHonorsBatchSizeAndRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "CLIENTES.DBF")

	var records [][]byte
	for i := 0; i < 7; i++ {
		records = append(records, record(false, pad("C", 4)))
	}
	writeTestTable(t, path,
		[]testField{{name: "CODIGO", typ: 'C', length: 4}},
		records,
	)

	tbl, err := Open(path)
	require.NoError(t, err)

	var sizes []int
	err = tbl.ReadBatches(3, func(batch []Row) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)

	// A second scan starts over from the first record
	total := 0
	err = tbl.ReadBatches(3, func(batch []Row) error {
		total += len(batch)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}

func TestReadBatchesDecodesCodePage850(t *testing.T) {
	path := filepath.Join(t.TempDir(), "GRUPO.DBF")

	// "AÇÚCAR" in CP850: Ç=0x80, Ú=0xE9
	name := append([]byte{'A', 0x80, 0xE9}, []byte("CAR")...)
	rec := []byte{' '}
	rec = append(rec, []byte(pad("01", 4))...)
	rec = append(rec, name...)
	for len(rec) < 1+4+10 {
		rec = append(rec, ' ')
	}

	writeTestTable(t, path,
		[]testField{
			{name: "CODIGO", typ: 'C', length: 4},
			{name: "DESCRICAO", typ: 'C', length: 10},
		},
		[][]byte{rec},
	)

	tbl, err := Open(path)
	require.NoError(t, err)

	var rows []Row
	require.NoError(t, tbl.ReadBatches(10, func(batch []Row) error {
		rows = append(rows, batch...)
		return nil
	}))
	require.Len(t, rows, 1)
	assert.Equal(t, "AÇÚCAR", rows[0]["DESCRICAO"].Text)
}
