package web

import "embed"

// Templates holds the page templates (layouts, partials, pages) and the print
// templates under reports/ used for PDF exports.
//
//go:embed templates/layouts templates/partials templates/pages templates/reports
var Templates embed.FS

// Static holds the assets served under /static.
//
//go:embed static
var Static embed.FS
