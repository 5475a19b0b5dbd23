package formgen

import (
	"strings"
)

// Browse modes for path fields.
const (
	BrowseFile = "file"
	BrowseDir  = "dir"
)

// Field defines a path input with a picker.
type Field struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Type        string `json:"type"`
	Browse      string `json:"browse,omitempty"`
	Ext         string `json:"ext,omitempty"`
	PickerTitle string `json:"picker_title,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

// Form defines the batch request form widget.
type Form struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Action      string  `json:"action"`
	Method      string  `json:"method"`
	SubmitLabel string  `json:"submit_label"`
	Fields      []Field `json:"fields"`
}

// FieldNames returns the JSON keys the form submits.
func (f Form) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		names = append(names, field.Name)
	}
	return names
}

// TableColumn defines a column in the history table.
type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Table defines a history widget.
type Table struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	DataURL string        `json:"data_url"`
	Columns []TableColumn `json:"columns"`
}

// Theme captures CSS tokens for the form page.
type Theme struct {
	Name   string            `json:"name"`
	Tokens map[string]string `json:"tokens"`
}

// UI bundles the widgets of the certificate page.
type UI struct {
	RequestForm Form  `json:"request_form"`
	History     Table `json:"history"`
	Theme       Theme `json:"theme"`
}

// DefaultUI returns the certificate form contract mounted at basePath.
func DefaultUI(basePath string) UI {
	basePath = strings.TrimRight(basePath, "/")
	return UI{
		RequestForm: CertificateForm(basePath),
		History:     RunHistoryTable(basePath),
		Theme:       DefaultTheme(),
	}
}

// CertificateForm builds the three path inputs of a batch.
func CertificateForm(basePath string) Form {
	return Form{
		ID:          "certificate-batch",
		Title:       "Certificate Maker",
		Action:      basePath + "/api/generate",
		Method:      "POST",
		SubmitLabel: "Generate PDFs",
		Fields: []Field{
			{Name: "template", Label: "Template (.docx)", Type: "path", Browse: BrowseFile, Ext: ".docx", PickerTitle: "Select template"},
			{Name: "spreadsheet", Label: "Excel (.xlsx)", Type: "path", Browse: BrowseFile, Ext: ".xlsx", PickerTitle: "Select excel"},
			{Name: "output", Label: "Output Folder", Type: "path", Browse: BrowseDir, PickerTitle: "Select output folder"},
		},
	}
}

// RunHistoryTable builds the recent runs table.
func RunHistoryTable(basePath string) Table {
	return Table{
		ID:      "run-history",
		Title:   "Recent runs",
		DataURL: basePath + "/api/runs",
		Columns: []TableColumn{
			{Key: "started_at", Label: "Started"},
			{Key: "state", Label: "Status"},
			{Key: "count", Label: "Certificates"},
			{Key: "output", Label: "Output"},
			{Key: "error", Label: "Error"},
		},
	}
}

// DefaultTheme provides the page colors.
func DefaultTheme() Theme {
	return Theme{
		Name: "certgen",
		Tokens: map[string]string{
			"primary": "#2563eb",
			"surface": "#ffffff",
			"text":    "#1f2328",
			"muted":   "#6b7280",
			"border":  "#d0d7de",
			"danger":  "#cf222e",
			"warning": "#9a6700",
			"success": "#1a7f37",
		},
	}
}
