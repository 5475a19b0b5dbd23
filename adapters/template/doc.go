// Package pagetemplate renders HTML pages with pongo2 (Django-style syntax).
//
// Templates are parsed once from an fs.FS, usually an embed.FS owned by the
// caller, and executed by name. Renderer adds a default template name and an
// optional output size bound for callers that buffer the page in memory.
// A to_json filter is registered for embedding values into scripts.
package pagetemplate
