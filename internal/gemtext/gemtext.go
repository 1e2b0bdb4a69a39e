// Package gemtext builds text/gemini lines.
package gemtext

import "strings"

func Item(text string) string {
	return "* " + text
}

// Link renders a link line. The label is optional.
func Link(url, label string) string {
	return strings.TrimSpace("=> " + url + "\t" + label)
}

func H1(text string) string {
	return "# " + text
}

func H2(text string) string {
	return "## " + text
}

func H3(text string) string {
	return "### " + text
}

func Quote(text string) string {
	return "> " + text
}

// Pre wraps text in a preformatted block with an optional alt text.
func Pre(text, alt string) string {
	return "```" + alt + "\n" + text + "\n```"
}

// Document joins lines into a text/gemini body.
func Document(lines ...string) string {
	return strings.Join(lines, "\n")
}
