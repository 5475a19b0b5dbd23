// Package sheetxlsx reads certificate rows from .xlsx workbooks.
//
// Rows are read from the active sheet (or a named sheet) in storage order.
// Column A holds the identifier and column B the participant name. Cell values
// are typed: numbers become float64, booleans bool, text string and empty
// cells nil, so callers can apply their own blank rules.
package sheetxlsx
