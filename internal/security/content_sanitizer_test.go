package security

import (
	"strings"
	"testing"
)

func TestSanitize_RemovesScriptTags(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p>本文</p><script>alert("xss")</script>`)

	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("Sanitize() = %q, script content survived", got)
	}
	if !strings.Contains(got, "<p>本文</p>") {
		t.Errorf("Sanitize() = %q, allowed tag was removed", got)
	}
}

func TestSanitize_RemovesEventHandlers(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p onclick="steal()">クリック</p>`)

	if strings.Contains(got, "onclick") {
		t.Errorf("Sanitize() = %q, event handler survived", got)
	}
}

func TestSanitize_RemovesIframe(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<iframe src="https://evil.example.com"></iframe><p>ok</p>`)

	if strings.Contains(got, "iframe") {
		t.Errorf("Sanitize() = %q, iframe survived", got)
	}
}

func TestSanitize_KeepsAllowedFormatting(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>段落</p><ul><li>項目</li></ul><blockquote>引用</blockquote><pre><code>code</code></pre><strong>強調</strong><em>斜体</em>`
	got := s.Sanitize(input)

	for _, tag := range []string{"<p>", "<ul>", "<li>", "<blockquote>", "<pre>", "<code>", "<strong>", "<em>"} {
		if !strings.Contains(got, tag) {
			t.Errorf("Sanitize() removed allowed tag %s: %q", tag, got)
		}
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	s := NewContentSanitizer()

	if got := s.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}

// 同一入力に対して常に同一出力を返す（冪等）。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>本文</p><script>alert(1)</script><a href="https://example.com">link</a>`
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize() is not idempotent: %q then %q", first, second)
	}
}

func TestStripTags_RemovesAllMarkup(t *testing.T) {
	s := NewContentSanitizer()

	got := s.StripTags(`<p>hello <strong>world</strong></p><ul><li>item</li></ul>`)

	if strings.ContainsAny(got, "<>") {
		t.Errorf("StripTags() = %q, markup survived", got)
	}
	if !strings.Contains(got, "hello") || !strings.Contains(got, "world") || !strings.Contains(got, "item") {
		t.Errorf("StripTags() = %q, text content lost", got)
	}
}
