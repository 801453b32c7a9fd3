package datastore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/penshort/usermcp/internal/model"
)

// Column names expected in the CSV header.
const (
	colID        = "id"
	colFirstName = "first_name"
	colLastName  = "last_name"
	colEmail     = "email"
	colGender    = "gender"
	colIPAddress = "ip_address"
)

var requiredColumns = []string{colID, colFirstName, colLastName, colEmail, colGender, colIPAddress}

// Loader errors.
var (
	ErrEmptySource   = errors.New("source has no header row")
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidID     = errors.New("invalid id value")
)

// LoadCSV parses a header-first CSV stream into user rows in file order.
// Columns are matched by trimmed, case-insensitive name; unknown columns are ignored.
func LoadCSV(r io.Reader) ([]model.User, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptySource
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, 256)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if isBlank(record) {
			continue
		}

		field := func(name string) string {
			i := index[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id, err := strconv.ParseInt(field(colID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w %q", line, ErrInvalidID, field(colID))
		}

		users = append(users, model.User{
			ID:        id,
			FirstName: field(colFirstName),
			LastName:  field(colLastName),
			Email:     field(colEmail),
			Gender:    field(colGender),
			IPAddress: field(colIPAddress),
		})
	}

	return users, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return index, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
