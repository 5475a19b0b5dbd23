// Package docxtemplate edits .docx certificate templates.
//
// A template is loaded fully into memory and every archive part is written
// back unchanged except word/document.xml. Edits to the name placeholder (the
// first run of the first body paragraph) are spliced into the original XML
// bytes, so namespaces, unknown markup and formatting outside the run survive
// untouched.
//
// The package also flattens body paragraphs into a small text model used by
// renderers that cannot read Office documents directly.
package docxtemplate
