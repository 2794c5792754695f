package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrEmptyVector is returned when a vector file holds no values.
var ErrEmptyVector = errors.New("empty vector")

// ParseVector reads real numbers separated by whitespace or commas.
// Text after '#' on a line is ignored.
func ParseVector(r io.Reader) ([]float64, error) {
	var values []float64

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r' || r == ';'
		})
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing %q: %w", line, field, err)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading vector: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrEmptyVector
	}

	return values, nil
}

// ParseVectorFile parses a vector file from disk.
func ParseVectorFile(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vector file: %w", err)
	}
	defer f.Close()

	v, err := ParseVector(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// ParsePoints reads 2D points, two values per point, in the same text format
// as ParseVector.
func ParsePoints(r io.Reader) ([][2]float64, error) {
	values, err := ParseVector(r)
	if err != nil {
		return nil, err
	}
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("odd number of coordinates: %d", len(values))
	}

	points := make([][2]float64, len(values)/2)
	for i := range points {
		points[i] = [2]float64{values[2*i], values[2*i+1]}
	}
	return points, nil
}

// ParsePointsFile parses a point file from disk.
func ParsePointsFile(path string) ([][2]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening points file: %w", err)
	}
	defer f.Close()
	return ParsePoints(f)
}
