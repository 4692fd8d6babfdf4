package storage

import (
	"fmt"
	"path"
	"regexp"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildExportPath returns the object key of a table's parquet export.
func BuildExportPath(tableName string) (string, error) {
	if err := validatePathComponent(tableName, "table name"); err != nil {
		return "", err
	}
	return path.Join("exports", tableName+".parquet"), nil
}

// BuildSnapshotPath returns the object key of a database snapshot file.
func BuildSnapshotPath(fileName string) (string, error) {
	if err := validatePathComponent(fileName, "snapshot name"); err != nil {
		return "", err
	}
	return path.Join("snapshots", fileName), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
