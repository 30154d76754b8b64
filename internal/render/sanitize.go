// Package render turns untrusted layout markup into something safe to show:
// sanitized HTML for browsers, a cell layout with hit regions for the
// terminal canvas, and Markdown for export.
package render

import (
	"strings"
	"sync"

	htmltomd "github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
)

// IgnoreAttr marks an element whose clicks must never create a pin.
const IgnoreAttr = "data-feedback-pin-ignore"

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy

	mdOnce sync.Once
	md     *htmltomd.Converter
)

// Policy is the sanitization policy applied to model output: user generated
// content rules plus the form controls a layout mock-up needs. Scripts, event
// handler attributes and styles never pass.
func Policy() *bluemonday.Policy {
	policyOnce.Do(func() {
		p := bluemonday.UGCPolicy()
		// layout containers and controls are kept even when they carry no attributes
		p.AllowNoAttrs().OnElements("header", "footer", "nav", "main", "section", "article", "aside",
			"form", "label", "button", "input", "textarea", "select", "option", "fieldset", "legend")
		p.AllowAttrs("type").OnElements("button", "input")
		p.AllowAttrs("placeholder", "name", "value").OnElements("input", "textarea", "select", "option", "button")
		p.AllowAttrs("for").OnElements("label")
		p.AllowAttrs(IgnoreAttr).Globally()
		p.AllowAttrs("class", "id").Globally()
		policy = p
	})
	return policy
}

// Sanitize returns markup with everything outside Policy removed.
func Sanitize(markup string) string {
	return Policy().Sanitize(markup)
}

func converter() *htmltomd.Converter {
	mdOnce.Do(func() {
		md = htmltomd.NewConverter(
			htmltomd.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	})
	return md
}

// Markdown converts sanitized markup to Markdown.
func Markdown(markup string) (string, error) {
	out, err := converter().ConvertString(Sanitize(markup))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
