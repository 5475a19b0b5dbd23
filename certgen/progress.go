package certgen

import "fmt"

// Log lines shared by every surface that reports a batch.
const StartMessage = "Starting generation..."

// CompletedMessage reports a finished batch.
func CompletedMessage(count int) string {
	return fmt.Sprintf("Completed. Generated %d certificates.", count)
}

// ErrorMessage reports a failed batch.
func ErrorMessage(err error) string {
	if err == nil {
		return "Error: unknown error"
	}
	return "Error: " + err.Error()
}

// ProgressMessage reports the row being processed.
func ProgressMessage(id, name any) string {
	return fmt.Sprintf("Processing: %s -> %s", Stringify(id), Stringify(name))
}
