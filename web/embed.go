// Package web carries the embedded single-page front-end.
package web

import _ "embed"

// IndexHTML is the control panel page. The "{tv_ip}" placeholder is
// substituted with the live device host before serving.
//
//go:embed index.html
var IndexHTML string
