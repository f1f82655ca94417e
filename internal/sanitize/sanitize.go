// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sanitize strips disallowed markup from member-supplied rich text.
package sanitize

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// AllowedTags is the element allow-list. Everything else is stripped and
// script/style bodies are dropped with their tags.
var AllowedTags = []string{
	"p", "br", "strong", "b", "em", "i", "u", "s", "a",
	"ul", "ol", "li",
	"h1", "h2", "h3", "h4", "h5", "h6",
	"blockquote", "pre", "code", "span", "div",
}

var targetPattern = regexp.MustCompile(`^_(blank|self|parent|top)$`)

var (
	policy = newPolicy()
	strict = bluemonday.StrictPolicy()
)

// html2text undoes the entity escaping StrictPolicy applies to text.
var html2text = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&#34;", `"`, "&#39;", "'")

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough, extension.Linkify),
)

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)

	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(targetPattern).OnElements("a")
	p.AllowAttrs("rel").Matching(bluemonday.SpaceSeparatedTokens).OnElements("a")

	return p
}

// Sanitize returns html with every tag and attribute outside the
// allow-list removed. It is safe for concurrent use and idempotent.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}

// PlainText strips all markup, leaving escaped text. It is used for
// moderation snippets and term matching.
func PlainText(html string) string {
	return strings.TrimSpace(html2text.Replace(strict.Sanitize(html)))
}

// MarkdownToSafeHTML renders Markdown and sanitizes the result. Raw HTML
// inside the Markdown is never passed through.
func MarkdownToSafeHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return Sanitize(buf.String()), nil
}
