package classifier

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrLabelTable is returned for a missing, empty or short label file.
var ErrLabelTable = errors.New("label table")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Labels maps class indices to display names.
type Labels []string

// LoadLabels reads one label per CSV row. A row of the form "3,Pointer"
// (leading integer index) uses its second column; otherwise the first
// column is the name. A UTF-8 byte order mark is ignored.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLabelTable, err)
	}

	labels, err := ParseLabels(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLabelTable, path, err)
	}
	return labels, nil
}

// ParseLabels reads a label table from r.
func ParseLabels(r io.Reader) (Labels, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var labels Labels
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(rec) == 0 {
			continue
		}

		name := rec[0]
		if len(rec) > 1 {
			if _, err := strconv.Atoi(strings.TrimSpace(rec[0])); err == nil {
				name = rec[1]
			}
		}
		labels = append(labels, strings.TrimSpace(name))
	}

	if len(labels) == 0 {
		return nil, errors.New("no labels")
	}
	return labels, nil
}

// Covers fails unless every class index below numClasses has a name.
func (l Labels) Covers(numClasses int) error {
	if len(l) < numClasses {
		return fmt.Errorf("%w: %d labels for %d classes", ErrLabelTable, len(l), numClasses)
	}
	return nil
}

// Name returns the label for index, or an ErrLabelTable error when out of range.
func (l Labels) Name(index int) (string, error) {
	if index < 0 || index >= len(l) {
		return "", fmt.Errorf("%w: index %d out of range [0, %d)", ErrLabelTable, index, len(l))
	}
	return l[index], nil
}
