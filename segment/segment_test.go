package segment

import (
	"slices"
	"strings"
	"testing"
)

func join(spans []Span) string {
	var b strings.Builder
	for _, sp := range spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

func checkCoverage(t *testing.T, input string, spans []Span) {
	t.Helper()
	if got := join(spans); got != input {
		t.Fatalf("spans do not reproduce input\n got: %q\nwant: %q", got, input)
	}
	pos := 0
	for i, sp := range spans {
		if sp.Start != pos || sp.End != sp.Start+len(sp.Text) {
			t.Fatalf("span %d has offsets [%d,%d) for %q, expected start %d", i, sp.Start, sp.End, sp.Text, pos)
		}
		if sp.Text == "" {
			t.Fatalf("span %d is empty", i)
		}
		if input[sp.Start:sp.End] != sp.Text {
			t.Fatalf("span %d text %q does not match input slice %q", i, sp.Text, input[sp.Start:sp.End])
		}
		pos = sp.End
	}
}

func TestSpansLossless(t *testing.T) {
	inputs := []string{
		"",
		"Hello, world!",
		"<p>Hello, <b>brave</b> new world.</p>",
		`<?xml version="1.0" encoding="utf-8"?><!DOCTYPE html><html xmlns="http://www.w3.org/1999/xhtml"><head><title>Chapter 1</title></head><body><p>It was a dark &amp; stormy night.</p></body></html>`,
		"<p>Café naïve жизнь 日本語</p>",
		"<p>unterminated <b class=",
		"<!-- comment <p>inside</p> -->text",
		"<script>var a = '<p>';</script><p>after</p>",
		"<p>R&D &#169; &#x00A9; &bogus &</p>",
		"a < b > c",
		"broken \xff\xfe utf8",
		"<p>line one\r\nline two</p>",
		"<svg><text>ignored</text></svg><p>shown</p>",
		"<script src=\"x.js\"/><p>still prose</p>",
	}

	for _, in := range inputs {
		for _, mode := range []Mode{HTML, Text} {
			spans := slices.Collect(Spans(in, mode))
			checkCoverage(t, in, spans)
		}
	}
}

func TestSpansRestartable(t *testing.T) {
	seq := Spans("<p>one two three</p>", HTML)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second iteration differs:\n%v\n%v", first, second)
	}

	// Stopping early and ranging again starts from the beginning.
	for sp := range seq {
		if sp.Kind == Word {
			break
		}
	}
	third := slices.Collect(seq)
	if !slices.Equal(first, third) {
		t.Error("iteration after early stop differs")
	}
}

func TestSpansKinds(t *testing.T) {
	in := "<p>Hi, you&amp;me!</p>"
	spans := slices.Collect(Spans(in, HTML))

	want := []struct {
		kind Kind
		text string
	}{
		{Markup, "<p>"},
		{Word, "Hi"},
		{Punct, ","},
		{Whitespace, " "},
		{Word, "you"},
		{Markup, "&amp;"},
		{Word, "me"},
		{Punct, "!"},
		{Markup, "</p>"},
	}

	if len(spans) != len(want) {
		t.Fatalf("got %d spans %v, want %d", len(spans), spans, len(want))
	}
	for i, w := range want {
		if spans[i].Kind != w.kind || spans[i].Text != w.text {
			t.Errorf("span %d = %v %q, want %v %q", i, spans[i].Kind, spans[i].Text, w.kind, w.text)
		}
	}
}

func TestOpaqueContentIsMarkup(t *testing.T) {
	in := "<html><head><title>Secret Title</title><style>p { color: red }</style></head><body><script>hidden()</script><p>Visible text</p></body></html>"
	var words []string
	for sp := range Words(in, HTML) {
		words = append(words, sp.Text)
	}
	if !slices.Equal(words, []string{"Visible", "text"}) {
		t.Errorf("Words() = %v, want [Visible text]", words)
	}
}

func TestSelfClosingScript(t *testing.T) {
	in := `<script src="a.js"/><p>Real prose</p>`
	if got := CountWords(in, HTML); got != 2 {
		t.Errorf("CountWords() = %d, want 2", got)
	}
}

func TestTextModeHasNoMarkup(t *testing.T) {
	in := "<p>not a tag</p> &amp;"
	for sp := range Spans(in, Text) {
		if sp.Kind == Markup {
			t.Fatalf("Text mode produced markup span %q", sp.Text)
		}
	}
	if got := CountWords(in, Text); got != 6 {
		t.Errorf("CountWords(Text) = %d, want 6", got)
	}
}

func TestUnicodeWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"café crème", []string{"café", "crème"}},
		{"привет, мир", []string{"привет", "мир"}},
		{"room 101b", []string{"room", "101b"}},
		{"don't", []string{"don", "t"}},
	}
	for _, tt := range tests {
		var got []string
		for sp := range Words(tt.in, Text) {
			got = append(got, sp.Text)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Words(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEntityLen(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"&amp;", 5},
		{"&#169;x", 6},
		{"&#x00A9;", 8},
		{"&bogus", 0},
		{"& ;", 0},
		{"&;", 0},
		{"&#;", 0},
	}
	for _, tt := range tests {
		if got := entityLen(tt.in); got != tt.want {
			t.Errorf("entityLen(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
