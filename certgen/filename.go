package certgen

// OutputFilename returns the artifact key for a sanitized stem. The extension
// is always appended, so a stem that already ends in ".pdf" keeps it.
func OutputFilename(stem string, format Format) string {
	return stem + "." + string(format)
}
