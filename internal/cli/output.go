package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"

	"github.com/hyperjump/prana/internal/models"
	"github.com/hyperjump/prana/pkg/utils"
	"github.com/yuin/goldmark"
)

// OutputFormat is the format for ask output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the API response as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputHTML renders the Markdown answer and the source list as an HTML fragment.
	OutputHTML OutputFormat = "html"
)

const maxSourceTitle = 80

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON, OutputHTML:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, json, or html", s)
	}
}

// WriteAskResponse writes resp to w in the given format.
func WriteAskResponse(w io.Writer, resp *models.AskResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputHTML:
		return writeAskResponseHTML(w, resp)
	default:
		writeAskResponseText(w, resp)
		return nil
	}
}

func writeAskResponseText(w io.Writer, resp *models.AskResponse) {
	fmt.Fprintln(w)
	if resp.IsUnsafe {
		fmt.Fprintln(w, "[safety] This question was answered with guidance instead of retrieved content.")
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, resp.Answer)
	if len(resp.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for i, src := range resp.Sources {
			fmt.Fprintf(w, "  %d. %s\n", i+1, utils.Truncate(src.Title, maxSourceTitle))
			if src.Link != "" {
				fmt.Fprintf(w, "     %s\n", src.Link)
			}
		}
	}
	fmt.Fprintf(w, "\nQuery ID: %s\n", resp.QueryID)
}

func writeAskResponseHTML(w io.Writer, resp *models.AskResponse) error {
	var buf bytes.Buffer
	buf.WriteString(`<div class="answer">` + "\n")
	if err := goldmark.Convert([]byte(resp.Answer), &buf); err != nil {
		return fmt.Errorf("render answer: %w", err)
	}
	buf.WriteString("</div>\n")
	if len(resp.Sources) > 0 {
		buf.WriteString(`<ol class="sources">` + "\n")
		for _, src := range resp.Sources {
			title := html.EscapeString(src.Title)
			if src.Link != "" {
				fmt.Fprintf(&buf, "<li><a href=\"%s\">%s</a></li>\n", html.EscapeString(src.Link), title)
			} else {
				fmt.Fprintf(&buf, "<li>%s</li>\n", title)
			}
		}
		buf.WriteString("</ol>\n")
	}
	fmt.Fprintf(&buf, "<p class=\"query-id\">%s</p>\n", html.EscapeString(resp.QueryID))
	_, err := w.Write(buf.Bytes())
	return err
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
