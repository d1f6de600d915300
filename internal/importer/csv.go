// Package importer loads user accounts from CSV exports. Directory exports
// are often UTF-16 with a BOM, so the reader sniffs the encoding before
// parsing.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"room-reservation/internal/storage"
)

// Expected header columns, matched case-insensitively.
const (
	colEmail    = "email"
	colFullName = "full_name"
	colGroup    = "group"
)

type Record struct {
	Email    string
	FullName string
	Group    string // empty means no group
}

// openCSV wraps the file in a UTF-16 decoder when a BOM is present,
// otherwise assumes UTF-8.
func openCSV(f *os.File) (*csv.Reader, error) {
	bom := make([]byte, 2)
	n, err := f.Read(bom)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read BOM: %w", err)
	}

	if n == 2 && (bom[0] == 0xFE && bom[1] == 0xFF || bom[0] == 0xFF && bom[1] == 0xFE) {
		utf16bom := unicode.BOMOverride(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder())
		utf16Reader := transform.NewReader(io.MultiReader(
			// Prepend BOM bytes back to stream
			strings.NewReader(string(bom[:n])),
			f,
		), utf16bom)
		return csv.NewReader(utf16Reader), nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek file: %w", err)
	}
	return csv.NewReader(f), nil
}

// ReadFile parses user records from the CSV at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader, err := openCSV(f)
	if err != nil {
		return nil, err
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = 0

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idxEmail, idxName, idxGroup := -1, -1, -1
	for i, h := range headers {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case colEmail:
			idxEmail = i
		case colFullName:
			idxName = i
		case colGroup:
			idxGroup = i
		}
	}
	if idxEmail == -1 || idxName == -1 {
		return nil, fmt.Errorf("CSV header must contain %q and %q columns", colEmail, colFullName)
	}

	var records []Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}

		record := Record{
			Email:    strings.TrimSpace(row[idxEmail]),
			FullName: strings.TrimSpace(row[idxName]),
		}
		if idxGroup != -1 {
			record.Group = strings.TrimSpace(row[idxGroup])
		}
		if record.Email == "" {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// Import creates the users from the file, resolving group names against
// the directory. Existing accounts are left untouched. Returns the number
// of created users.
func Import(ctx context.Context, store storage.DirectoryStore, records []Record) (int, error) {
	logger := slog.With("component", "importer")
	created := 0

	for _, record := range records {
		if _, err := store.GetUserByEmail(ctx, record.Email); err == nil {
			logger.Debug("User already exists, skipping", "email", record.Email)
			continue
		} else if !errors.Is(err, storage.ErrNotFound) {
			return created, fmt.Errorf("check user %q: %w", record.Email, err)
		}

		user := &storage.User{
			Email:    record.Email,
			FullName: record.FullName,
		}

		if record.Group != "" {
			group, err := store.GetGroupByName(ctx, record.Group)
			if errors.Is(err, storage.ErrNotFound) {
				return created, fmt.Errorf("unknown group %q for user %q", record.Group, record.Email)
			}
			if err != nil {
				return created, fmt.Errorf("resolve group %q: %w", record.Group, err)
			}
			user.GroupID = &group.ID
		}

		if err := store.CreateUser(ctx, user); err != nil {
			return created, fmt.Errorf("create user %q: %w", record.Email, err)
		}
		logger.Info("Imported user", "email", user.Email, "group", record.Group)
		created++
	}
	return created, nil
}
