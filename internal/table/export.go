package table

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Field is one named value of an exported record.
type Field struct {
	Name  string
	Value any
}

// Record is a row that can be written as delimited text.
type Record interface {
	Fields() []Field
}

// WriteCSV writes a header of the first record's field names followed by one
// line per record. Strings are always double-quoted and numbers use their
// shortest form. Lines are separated by "\n" with no trailing newline. No
// records produce no output.
func WriteCSV[T Record](w io.Writer, rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	bw := bufio.NewWriter(w)
	header := rows[0].Fields()
	names := make([]string, len(header))
	for i, f := range header {
		names[i] = f.Name
	}
	bw.WriteString(strings.Join(names, ","))

	for _, row := range rows {
		fields := row.Fields()
		cells := make([]string, len(fields))
		for i, f := range fields {
			cells[i] = formatCell(f.Value)
		}
		bw.WriteByte('\n')
		bw.WriteString(strings.Join(cells, ","))
	}

	return bw.Flush()
}

func formatCell(v any) string {
	switch x := v.(type) {
	case string:
		return `"` + strings.ReplaceAll(x, `"`, `""`) + `"`
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// WriteParquet writes rows as a single Parquet file. The schema comes from
// T's parquet struct tags.
func WriteParquet[T any](w io.Writer, rows []T) error {
	if err := parquet.Write(w, rows); err != nil {
		return fmt.Errorf("writing parquet: %w", err)
	}
	return nil
}
