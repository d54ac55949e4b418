package pcd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// RGBField is the only field encoded as an unsigned integer.
const RGBField = "rgb"

// ErrFieldLength reports fields of unequal length.
var ErrFieldLength = errors.New("pcd fields have unequal lengths")

// Field is one named column of a point cloud.
type Field struct {
	Name   string
	Values []float32
}

// FieldType returns the PCD TYPE letter for a field name.
func FieldType(name string) string {
	if name == RGBField {
		return "U"
	}
	return "F"
}

// Encode writes fields, in order, as an ascii PCD file. The point count is
// the length of the first field and every other field must match it.
func Encode(w io.Writer, fields []Field) error {
	n := 0
	if len(fields) > 0 {
		n = len(fields[0].Values)
	}
	for _, f := range fields {
		if len(f.Values) != n {
			return fmt.Errorf("%w: %s has %d values, expected %d", ErrFieldLength, f.Name, len(f.Values), n)
		}
	}

	bw := bufio.NewWriter(w)
	writeHeader(bw, fields, n)

	buf := make([]byte, 0, 32)
	for i := 0; i < n; i++ {
		for _, f := range fields {
			buf = formatValue(buf[:0], f.Name, f.Values[i])
			buf = append(buf, ' ')
			bw.Write(buf)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func writeHeader(w *bufio.Writer, fields []Field, n int) {
	fmt.Fprintln(w, "# .PCD v.7 - Point Cloud Data file format")
	fmt.Fprintln(w, "VERSION .7")

	line := func(key string, value func(Field) string) {
		w.WriteString(key)
		for _, f := range fields {
			w.WriteByte(' ')
			w.WriteString(value(f))
		}
		w.WriteByte('\n')
	}
	line("FIELDS", func(f Field) string { return f.Name })
	line("SIZE", func(Field) string { return "4" })
	line("TYPE", func(f Field) string { return FieldType(f.Name) })
	line("COUNT", func(Field) string { return "1" })

	fmt.Fprintf(w, "WIDTH %d\n", n)
	fmt.Fprintln(w, "HEIGHT 1")
	fmt.Fprintln(w, "VIEWPOINT 0 0 0 1 0 0 0")
	fmt.Fprintf(w, "POINTS %d\n", n)
	fmt.Fprintln(w, "DATA ascii")
}

func formatValue(buf []byte, name string, v float32) []byte {
	if name == RGBField {
		return strconv.AppendUint(buf, uint64(uint32(v)), 10)
	}
	return strconv.AppendFloat(buf, float64(v), 'g', -1, 32)
}
