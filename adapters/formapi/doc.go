// Package formapi serves the certificate form and its JSON API independent of
// the HTTP transport.
package formapi
