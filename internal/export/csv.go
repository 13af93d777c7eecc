package export

import (
	"bytes"
	"strings"
)

const bom = "\ufeff"

// CSV renders rows for spreadsheet applications: BOM prefix, CRLF line ends,
// content quoted unless it is a bare number, embedded quotes doubled.
// Labels are never quoted.
func CSV(rows []Row) []byte {
	var buf bytes.Buffer
	buf.WriteString(bom)

	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(csvField(cell))
		}
		buf.WriteString("\r\n")
	}

	return buf.Bytes()
}

func csvField(c Cell) string {
	if c.Label || c.Numeric() {
		return c.Value
	}
	return `"` + strings.ReplaceAll(c.Value, `"`, `""`) + `"`
}
