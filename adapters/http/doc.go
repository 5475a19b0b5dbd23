// Package formhttp serves the certificate form over net/http.
package formhttp
