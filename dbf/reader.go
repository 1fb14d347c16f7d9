package dbf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DecodeError means the file header is corrupt or unreadable. It aborts the
// whole import job, unlike row-level oddities which are tolerated.
type DecodeError struct {
	Path   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode table %s: %s", e.Path, e.Reason)
}

// Field describes one column of the fixed-record layout
type Field struct {
	Name     string
	Type     byte // C, N, F, D, L, M
	Length   int
	Decimals int
}

const (
	headerBlockSize    = 32
	fieldDescriptorLen = 32
	fieldTerminator    = 0x0D
	deletedFlag        = '*'
)

// Table reads a legacy fixed-record binary table file. Records are streamed
// from disk in caller-sized batches; reading again starts over from the
// first record.
type Table struct {
	path        string
	fields      []Field
	recordCount uint32
	headerSize  uint16
	recordSize  uint16
	cm          *charmap.Charmap
}

// CharmapByName resolves a configured encoding name, defaulting to CP850
// (the usual code page of Portuguese DOS-era exports).
func CharmapByName(name string) *charmap.Charmap {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cp437":
		return charmap.CodePage437
	case "cp1252", "windows-1252":
		return charmap.Windows1252
	default:
		return charmap.CodePage850
	}
}

// Open reads and validates the table header. The record data itself is not
// touched until ReadBatches is called.
func Open(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	header := make([]byte, headerBlockSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, &DecodeError{Path: path, Reason: "file too short for header"}
	}

	t := &Table{
		path:        path,
		recordCount: binary.LittleEndian.Uint32(header[4:8]),
		headerSize:  binary.LittleEndian.Uint16(header[8:10]),
		recordSize:  binary.LittleEndian.Uint16(header[10:12]),
		cm:          charmapFromLanguageDriver(header[29]),
	}

	if t.headerSize < headerBlockSize+1 || t.recordSize < 1 {
		return nil, &DecodeError{Path: path, Reason: "invalid header or record size"}
	}

	descriptors := make([]byte, int(t.headerSize)-headerBlockSize)
	if _, err := io.ReadFull(f, descriptors); err != nil {
		return nil, &DecodeError{Path: path, Reason: "file too short for field descriptors"}
	}

	rowWidth := 1 // deletion flag
	for off := 0; off+fieldDescriptorLen <= len(descriptors); off += fieldDescriptorLen {
		if descriptors[off] == fieldTerminator {
			break
		}
		d := descriptors[off : off+fieldDescriptorLen]
		name := strings.TrimRight(string(d[0:11]), "\x00 ")
		if name == "" {
			return nil, &DecodeError{Path: path, Reason: "field descriptor with empty name"}
		}
		field := Field{
			Name:     strings.ToUpper(name),
			Type:     d[11],
			Length:   int(d[16]),
			Decimals: int(d[17]),
		}
		rowWidth += field.Length
		t.fields = append(t.fields, field)
	}

	if len(t.fields) == 0 {
		return nil, &DecodeError{Path: path, Reason: "no field descriptors"}
	}
	if rowWidth != int(t.recordSize) {
		return nil, &DecodeError{
			Path:   path,
			Reason: fmt.Sprintf("field widths sum to %d but record size is %d", rowWidth, t.recordSize),
		}
	}

	return t, nil
}

// SetCharmap overrides the code page inferred from the header
func (t *Table) SetCharmap(cm *charmap.Charmap) {
	if cm != nil {
		t.cm = cm
	}
}

// Fields returns the column layout in source order
func (t *Table) Fields() []Field {
	return t.fields
}

// FieldNames returns the upper-cased column names in source order
func (t *Table) FieldNames() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// RecordCount returns the record count declared by the header, including
// records flagged as deleted.
func (t *Table) RecordCount() uint32 {
	return t.recordCount
}

// ReadBatches streams the records from the start of the file, invoking fn
// with at most batchSize decoded rows at a time. Records flagged as deleted
// are skipped. Returning an error from fn stops the scan.
func (t *Table) ReadBatches(batchSize int, fn func(rows []Row) error) error {
	if batchSize <= 0 {
		batchSize = 500
	}

	f, err := os.Open(t.path)
	if err != nil {
		return &DecodeError{Path: t.path, Reason: err.Error()}
	}
	defer f.Close()

	if _, err := f.Seek(int64(t.headerSize), io.SeekStart); err != nil {
		return &DecodeError{Path: t.path, Reason: err.Error()}
	}

	decoder := t.cm.NewDecoder()
	record := make([]byte, t.recordSize)
	batch := make([]Row, 0, batchSize)

	for i := uint32(0); i < t.recordCount; i++ {
		if _, err := io.ReadFull(f, record); err != nil {
			// Some exporters truncate the trailing EOF marker record
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return &DecodeError{Path: t.path, Reason: err.Error()}
		}
		if record[0] == deletedFlag {
			continue
		}

		row := make(Row, len(t.fields))
		off := 1
		for _, field := range t.fields {
			raw := record[off : off+field.Length]
			off += field.Length
			value, err := decodeFieldValue(field, raw, decoder)
			if err != nil {
				return &DecodeError{Path: t.path, Reason: err.Error()}
			}
			row[field.Name] = value
		}

		batch = append(batch, row)
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		return fn(batch)
	}
	return nil
}

func decodeFieldValue(field Field, raw []byte, decoder *encoding.Decoder) (Value, error) {
	switch field.Type {
	case 'N', 'F':
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return Value{Kind: KindNull}, nil
		}
		// Legacy numerics are dot-separated; junk falls back to plain text
		if num, err := strconv.ParseFloat(text, 64); err == nil {
			return Value{Kind: KindNumber, Text: text, Number: num}, nil
		}
		return Value{Kind: KindText, Text: text}, nil

	case 'D':
		text := strings.TrimSpace(string(raw))
		if text == "" {
			return Value{Kind: KindNull}, nil
		}
		date, err := time.Parse("20060102", text)
		if err != nil {
			// Tolerate junk dates in individual records
			return Value{Kind: KindNull}, nil
		}
		return Value{Kind: KindDate, Date: date}, nil

	case 'L':
		switch raw[0] {
		case 'T', 't', 'Y', 'y':
			return Value{Kind: KindLogical, Bool: true}, nil
		case 'F', 'f', 'N', 'n':
			return Value{Kind: KindLogical, Bool: false}, nil
		default:
			return Value{Kind: KindNull}, nil
		}

	default: // C, M and anything exotic decode as text
		decoded, err := decoder.Bytes(raw)
		if err != nil {
			return Value{}, fmt.Errorf("decode field %s: %w", field.Name, err)
		}
		text := strings.TrimRight(string(decoded), "\x00 ")
		text = strings.TrimSpace(text)
		return Value{Kind: KindText, Text: text}, nil
	}
}

func charmapFromLanguageDriver(b byte) *charmap.Charmap {
	switch b {
	case 0x01:
		return charmap.CodePage437
	case 0x03, 0x57:
		return charmap.Windows1252
	default:
		return charmap.CodePage850
	}
}
