package report

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"browserdb/internal/browser"
	"browserdb/internal/csvio"
)

type Kind string

const (
	KindText Kind = "text"
	KindHTML Kind = "html"
	KindCSV  Kind = "csv"
)

var Kinds = []Kind{KindText, KindHTML, KindCSV}

var ErrUnknownFormat = errors.New("unknown report format")

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// Ext is the file extension used when saving a report of kind k.
func (k Kind) Ext() string {
	switch k {
	case KindHTML:
		return ".html"
	case KindCSV:
		return ".csv"
	}
	return ".txt"
}

type Options struct {
	// TrustedHTML embeds the body without escaping. Only for bodies whose
	// record values are known not to contain markup.
	TrustedHTML bool
	Title       string
}

// Format renders a report body. The csv kind ignores body and tabulates
// records instead.
func Format(body []string, kind Kind, records []browser.Record, opts Options) (string, error) {
	switch kind {
	case KindText:
		return strings.Join(body, "\n"), nil
	case KindHTML:
		return formatHTML(body, opts)
	case KindCSV:
		var buf bytes.Buffer
		if err := csvio.Write(&buf, records); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, kind)
}

// FormatReport is Format applied to a generated report and its filtered records.
func FormatReport(rep *Report, kind Kind, opts Options) (string, error) {
	if kind == KindText {
		return rep.Text(), nil
	}
	return Format(rep.Lines, kind, rep.Records, opts)
}

func formatHTML(body []string, opts Options) (string, error) {
	title := opts.Title
	if title == "" {
		title = "Browser report"
	}
	text := strings.Join(body, "\n")
	data := struct {
		Title string
		Body  any
	}{Title: title, Body: text}
	if opts.TrustedHTML {
		data.Body = template.HTML(text)
	}
	var buf bytes.Buffer
	if err := reportPageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

var reportPageTemplate = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: "Courier New", monospace; margin: 20px; }
    pre { white-space: pre-wrap; }
  </style>
</head>
<body>
<pre>{{.Body}}</pre>
</body>
</html>
`))
