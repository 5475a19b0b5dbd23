package certgen

import (
	"os"
	"strings"
)

const (
	msgInvalidTemplate    = "Please select a valid .docx template file."
	msgInvalidSpreadsheet = "Please select a valid .xlsx file."
	msgInvalidOutput      = "Please select a valid output folder."
)

// NormalizeRequest trims surrounding whitespace from every path.
func NormalizeRequest(req Request) Request {
	return Request{
		TemplatePath:    strings.TrimSpace(req.TemplatePath),
		SpreadsheetPath: strings.TrimSpace(req.SpreadsheetPath),
		OutputDir:       strings.TrimSpace(req.OutputDir),
	}
}

// ValidateRequest checks that the template and spreadsheet are regular files
// and the output path is a directory. It performs no writes.
func ValidateRequest(req Request) error {
	if !isFile(req.TemplatePath) {
		return NewError(KindValidation, msgInvalidTemplate, nil)
	}
	if !isFile(req.SpreadsheetPath) {
		return NewError(KindValidation, msgInvalidSpreadsheet, nil)
	}
	if !isDir(req.OutputDir) {
		return NewError(KindValidation, msgInvalidOutput, nil)
	}
	return nil
}

func isFile(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
