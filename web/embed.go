package web

import "embed"

// TemplatesFS holds the page templates rendered by the HTTP server.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and page script served under /static/.
//go:embed static/*
var StaticFS embed.FS
