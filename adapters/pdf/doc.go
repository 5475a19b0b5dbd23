// Package certpdf converts rendered certificate documents to PDF.
//
// OfficeEngine shells out to a headless LibreOffice (soffice) and reads the
// converted file back. ChromiumEngine is for hosts without an office suite:
// it flattens the document's paragraphs to HTML and prints it with a shared
// headless Chromium instance. Both return the PDF bytes so the caller decides
// where they are stored.
package certpdf
