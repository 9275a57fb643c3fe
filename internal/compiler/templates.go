package compiler

import (
	_ "embed"
	"text/template"
)

//go:embed templates/go.tmpl
var goSource string

//go:embed templates/puppeteer.tmpl
var jsSource string

var (
	goTemplates = template.Must(template.New("go").
			Funcs(template.FuncMap{"lit": goLiteral, "comment": comment}).
			Parse(goSource))

	jsTemplates = template.Must(template.New("puppeteer").
			Funcs(template.FuncMap{"lit": jsLiteral, "comment": comment}).
			Parse(jsSource))
)
