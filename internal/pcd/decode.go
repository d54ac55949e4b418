package pcd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrFormat reports input that is not an ascii PCD file this package reads.
var ErrFormat = errors.New("malformed pcd")

// Table is a decoded PCD file: fields in file order with their values.
type Table struct {
	Fields []Field
	Types  []string
	Width  int
	Height int
}

// Points returns the number of points.
func (t *Table) Points() int {
	if len(t.Fields) == 0 {
		return 0
	}
	return len(t.Fields[0].Values)
}

// Names returns the field names in file order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the values of the named field.
func (t *Table) Field(name string) ([]float32, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Values, true
		}
	}
	return nil, false
}

// Decode reads an ascii PCD file. Only scalar fields (COUNT 1) are
// supported; binary data is rejected.
func Decode(r io.Reader) (*Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	t := &Table{Height: 1}
	points := -1
	lineNo := 0

	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, rest, _ := strings.Cut(line, " ")
		args := strings.Fields(rest)

		switch key {
		case "VERSION", "SIZE", "VIEWPOINT":
		case "FIELDS":
			t.Fields = make([]Field, len(args))
			for i, name := range args {
				t.Fields[i].Name = name
			}
		case "TYPE":
			t.Types = args
		case "COUNT":
			for _, c := range args {
				if c != "1" {
					return nil, fmt.Errorf("%w: line %d: COUNT %s not supported", ErrFormat, lineNo, c)
				}
			}
		case "WIDTH", "HEIGHT", "POINTS":
			v, err := headerInt(args)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %s: %v", ErrFormat, lineNo, key, err)
			}
			switch key {
			case "WIDTH":
				t.Width = v
			case "HEIGHT":
				t.Height = v
			default:
				points = v
			}
		case "DATA":
			if len(args) != 1 || args[0] != "ascii" {
				return nil, fmt.Errorf("%w: line %d: DATA %s not supported", ErrFormat, lineNo, rest)
			}
			if len(t.Fields) == 0 {
				return nil, fmt.Errorf("%w: no FIELDS before DATA", ErrFormat)
			}
			if points < 0 {
				if t.Height > 0 && t.Width > math.MaxInt/t.Height {
					return nil, fmt.Errorf("%w: line %d: WIDTH %d x HEIGHT %d overflows", ErrFormat, lineNo, t.Width, t.Height)
				}
				points = t.Width * t.Height
			}
			if err := t.readData(sc, points, &lineNo); err != nil {
				return nil, err
			}
			return t, nil
		default:
			return nil, fmt.Errorf("%w: line %d: unknown header %q", ErrFormat, lineNo, key)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: missing DATA line", ErrFormat)
}

// maxPrealloc bounds the per-field capacity reserved from the header.
const maxPrealloc = 1 << 16

func (t *Table) readData(sc *bufio.Scanner, points int, lineNo *int) error {
	// POINTS is untrusted; let append grow past the first chunk.
	for i := range t.Fields {
		t.Fields[i].Values = make([]float32, 0, min(points, maxPrealloc))
	}

	for n := 0; n < points; n++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return err
			}
			return fmt.Errorf("%w: expected %d points, got %d", ErrFormat, points, n)
		}
		*lineNo++
		values := strings.Fields(sc.Text())
		if len(values) != len(t.Fields) {
			return fmt.Errorf("%w: line %d: %d values for %d fields", ErrFormat, *lineNo, len(values), len(t.Fields))
		}
		for i, s := range values {
			v, err := parseValue(t.Fields[i].Name, t.fieldType(i), s)
			if err != nil {
				return fmt.Errorf("%w: line %d: %s: %v", ErrFormat, *lineNo, t.Fields[i].Name, err)
			}
			t.Fields[i].Values = append(t.Fields[i].Values, v)
		}
	}
	return nil
}

func headerInt(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("want one value, got %d", len(args))
	}
	v, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative value %d", v)
	}
	return v, nil
}

// fieldType returns the declared TYPE of field i, or the type the encoder
// would use when the TYPE line is missing or short.
func (t *Table) fieldType(i int) string {
	if i < len(t.Types) {
		return t.Types[i]
	}
	return FieldType(t.Fields[i].Name)
}

func parseValue(name, typ, s string) (float32, error) {
	switch typ {
	case "U":
		u, err := strconv.ParseUint(s, 10, 32)
		return float32(u), err
	case "I":
		v, err := strconv.ParseInt(s, 10, 32)
		return float32(v), err
	}

	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, err
	}
	if name == RGBField {
		return unpackFloatRGB(float32(f)), nil
	}
	return float32(f), nil
}

// unpackFloatRGB converts an rgb stored as TYPE F. Writers such as PCL store
// the packed bytes bit-cast into a float; a value that is already a whole
// number in the 24-bit range is taken as written.
func unpackFloatRGB(f float32) float32 {
	if f >= 0 && f <= 0xFFFFFF && f == float32(math.Trunc(float64(f))) {
		return f
	}
	return float32(math.Float32bits(f) & 0xFFFFFF)
}
