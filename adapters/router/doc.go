// Package formrouter serves the certificate form through go-router.
package formrouter
