// Package template binds request parameters into named layer documents
// and produces the intermediate render tree consumed by the encoder.
//
// A template is a YAML document describing a canvas (width, height,
// background) and an ordered list of layers (text runs, filled rects,
// image references). String fields may contain text/template placeholders
// that are expanded against the request's parameter map:
//
//	layers:
//	  - type: text
//	    text: '{{ .Title }}'
//	    color: '{{ or .Foreground "#f8fafc" }}'
//
// The document is parsed before any placeholder is expanded, so parameter
// values can never change the document's structure. Two builtin templates
// ship embedded: "simple" and "banner". Additional templates come from
// any fs.FS via [WithSource].
package template
