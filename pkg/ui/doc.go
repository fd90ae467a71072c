// Package ui holds terminal output helpers: styled status lines, a single
// line upload progress display, file tables and desktop notifications.
package ui
