package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// requireInputFile checks if input file is specified
func requireInputFile(path string) error {
	if path == "" {
		return fmt.Errorf("input file is required, use -f flag")
	}
	return nil
}

// ensureDir creates the parent directory of path when needed
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}

// outputJSON prints v as indented JSON, or saves it when path is set
func outputJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if path == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	printInfo("Result written to %s", path)
	return nil
}

// printInfo prints an info message to stderr so stdout stays machine readable
func printInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
