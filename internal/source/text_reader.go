package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ecopia-map/pointcloud_atlas/internal/data"
	"github.com/golang/glog"
)

var errMalformed = errors.New("malformed record")

const (
	defaultMaxLineLength = 1024 * 1024
	layoutSampleLines    = 64
)

// Reads whitespace, comma or semicolon separated point files. Lines starting with # are comments and a
// first line that does not start with a number is treated as a header. The column layout is the one most
// lines parse with among the first data lines, lines with another column count are skipped.
type TextReader struct {
	// Maximum number of skipped lines reported individually in the log
	MaxReportedSkips int

	// Longer lines are skipped
	MaxLineLength int
}

func NewTextReader() PointReader {
	return &TextReader{MaxReportedSkips: 10, MaxLineLength: defaultMaxLineLength}
}

type textLine struct {
	number int
	fields []string
}

func (r *TextReader) Read(filePath string) (*ReadResult, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result, err := r.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filePath, err)
	}
	return result, nil
}

func (r *TextReader) ReadFrom(in io.Reader) (*ReadResult, error) {
	reader := bufio.NewReaderSize(in, 64*1024)
	maxLineLength := r.MaxLineLength
	if maxLineLength <= 0 {
		maxLineLength = defaultMaxLineLength
	}

	result := &ReadResult{}
	var sample []textLine
	lineNumber := 0
	firstContentLine := true

	for {
		raw, overlong, err := readLine(reader, maxLineLength)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		lineNumber++
		if overlong {
			r.skip(result, lineNumber, fmt.Errorf("%w: longer than %d bytes", errMalformed, maxLineLength))
			continue
		}

		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := splitFields(line)
		if firstContentLine {
			firstContentLine = false
			if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
				glog.V(1).Infof("skipping header line %q", line)
				continue
			}
		}

		if result.Layout != LayoutUnknown {
			r.addPoint(result, textLine{number: lineNumber, fields: fields})
			continue
		}
		sample = append(sample, textLine{number: lineNumber, fields: fields})
		if len(sample) == layoutSampleLines {
			if err := r.settleLayout(result, sample); err != nil {
				return nil, err
			}
			sample = nil
		}
	}

	if len(sample) > 0 {
		if err := r.settleLayout(result, sample); err != nil {
			return nil, err
		}
	}
	if result.Skipped > r.MaxReportedSkips {
		glog.Warningf("%d malformed lines skipped in total", result.Skipped)
	}
	return result, nil
}

// Picks the layout most sampled lines parse with, ties going to the layout seen first, then parses the
// sample with it.
func (r *TextReader) settleLayout(result *ReadResult, sample []textLine) error {
	votes := make(map[Layout]int)
	var order []Layout
	for _, l := range sample {
		layout, err := ParseLayout(len(l.fields))
		if err != nil {
			continue
		}
		if _, err := parsePoint(l.fields, layout); err != nil {
			continue
		}
		if votes[layout] == 0 {
			order = append(order, layout)
		}
		votes[layout]++
	}
	if len(order) == 0 {
		_, err := ParseLayout(len(sample[0].fields))
		if err == nil {
			err = errMalformed
		}
		return fmt.Errorf("no usable line among the first %d, line %d: %w", len(sample), sample[0].number, err)
	}

	best := order[0]
	for _, layout := range order[1:] {
		if votes[layout] > votes[best] {
			best = layout
		}
	}
	result.Layout = best
	glog.V(1).Infof("column layout %q, %d of %d sampled lines", best, votes[best], len(sample))

	for _, l := range sample {
		r.addPoint(result, l)
	}
	return nil
}

func (r *TextReader) addPoint(result *ReadResult, l textLine) {
	point, err := parsePoint(l.fields, result.Layout)
	if err != nil {
		r.skip(result, l.number, err)
		return
	}
	result.Points = append(result.Points, point)
}

func (r *TextReader) skip(result *ReadResult, lineNumber int, err error) {
	result.Skipped++
	if result.Skipped <= r.MaxReportedSkips {
		glog.Warningf("skipping line %d: %v", lineNumber, err)
	}
}

// Reads the next line, without its contents when it is longer than limit
func readLine(r *bufio.Reader, limit int) (string, bool, error) {
	var buf []byte
	overlong := false
	for {
		chunk, err := r.ReadSlice('\n')
		if !overlong {
			if len(buf)+len(chunk) > limit {
				overlong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch err {
		case nil:
			return string(buf), overlong, nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(buf) > 0 || overlong {
				return string(buf), overlong, nil
			}
			return "", false, io.EOF
		default:
			return "", false, err
		}
	}
}

func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(c rune) bool {
		return c == ' ' || c == '\t' || c == ',' || c == ';'
	})
}

func parsePoint(fields []string, layout Layout) (*data.Point, error) {
	if len(fields) != int(layout) {
		return nil, fmt.Errorf("%w: expected %d columns, got %d", errMalformed, layout, len(fields))
	}

	var xyz [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: bad coordinate %q", errMalformed, fields[i])
		}
		xyz[i] = v
	}

	next := 3
	var rgb [3]uint8
	if layout.HasColour() {
		for i := 0; i < 3; i++ {
			c, err := parseColour(fields[next+i])
			if err != nil {
				return nil, err
			}
			rgb[i] = c
		}
		next += 3
	}

	class, err := strconv.ParseUint(fields[next], 10, 8)
	if err != nil {
		return nil, fmt.Errorf("%w: bad classification %q", errMalformed, fields[next])
	}
	next++

	var object uint64
	if layout.HasObject() {
		object, err = strconv.ParseUint(fields[next], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad object id %q", errMalformed, fields[next])
		}
	}

	return data.NewPoint(xyz[0], xyz[1], xyz[2], rgb[0], rgb[1], rgb[2], layout.HasColour(), uint8(class), uint32(object)), nil
}

// Colour components above 255 are taken as 16 bit values
func parseColour(field string) (uint8, error) {
	c, err := strconv.ParseUint(field, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: bad colour component %q", errMalformed, field)
	}
	if c > 255 {
		c >>= 8
	}
	return uint8(c), nil
}
