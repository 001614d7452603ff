package sanitize

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRichText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "hello world", "hello world"},
		{"allowed tags kept", "<p>a <strong>b</strong> <em>c</em> <u>d</u></p>", "<p>a <strong>b</strong> <em>c</em> <u>d</u></p>"},
		{"lists kept", "<ul><li>one</li></ul><ol><li>two</li></ol>", "<ul><li>one</li></ul><ol><li>two</li></ol>"},
		{"script dropped with content", "<p>ok</p><script>alert(1)</script>", "<p>ok</p>"},
		{"style dropped with content", "<style>p{color:red}</style><p>x</p>", "<p>x</p>"},
		{"iframe dropped", `<iframe src="https://evil.test"></iframe>text`, "text"},
		{"nested svg dropped", "<svg><g><svg></svg><p>in</p></g></svg><p>out</p>", "<p>out</p>"},
		{"div unwrapped", "<div><p>kept</p></div>", "<p>kept</p>"},
		{"span unwrapped keeps text", "<span class=\"x\">text</span>", "text"},
		{"img removed", `<img src=x onerror=alert(1)>`, ""},
		{"br normalized", "a<br/>b<br>c</br>", "a<br>b<br>c"},
		{"attributes stripped from p", `<p class="c" style="x" onclick="evil()">t</p>`, "<p>t</p>"},
		{"link attributes kept", `<a href="https://example.com" title="t" target="_blank" rel="noopener">l</a>`, `<a href="https://example.com" title="t" target="_blank" rel="noopener">l</a>`},
		{"event handler on link", `<a href="/x" onmouseover="evil()">l</a>`, `<a href="/x">l</a>`},
		{"upper case handler", `<a href="/x" OnClick="evil()">l</a>`, `<a href="/x">l</a>`},
		{"javascript href", `<a href="javascript:alert(1)">l</a>`, "<a>l</a>"},
		{"obfuscated javascript href", "<a href=\" JaVa\tScRiPt:alert(1)\">l</a>", "<a>l</a>"},
		{"entity encoded javascript href", `<a href="&#106;avascript:alert(1)">l</a>`, "<a>l</a>"},
		{"vbscript href", `<a href="vbscript:msgbox(1)">l</a>`, "<a>l</a>"},
		{"data href", `<a href="data:text/html;base64,PHNjcmlwdD4=">l</a>`, "<a>l</a>"},
		{"comments dropped", "<p>a<!-- secret -->b</p>", "<p>ab</p>"},
		{"doctype dropped", "<!DOCTYPE html><p>x</p>", "<p>x</p>"},
		{"text re-escaped", "<p>1 &lt; 2 &amp; 3</p>", "<p>1 &lt; 2 &amp; 3</p>"},
		{"handler text neutralized", "<p>onload=alert(1)</p>", "<p>onload&#61;alert(1)</p>"},
		{"javascript text neutralized", "<p>javascript:void(0)</p>", "<p>javascript&#58;void(0)</p>"},
		{"upper case tags lowered", "<P><STRONG>x</STRONG></P>", "<p><strong>x</strong></p>"},
		{"scheme joined across unwrapped tag", "<p>javascript<span>:</span>alert(1)</p>", "<p>javascript&#58;alert(1)</p>"},
		{"handler joined across unwrapped tag", "<p>on<span>click</span>=alert(1)</p>", "<p>onclick&#61;alert(1)</p>"},
		{"handler joined across comment", "<p>on<!-- -->load=x</p>", "<p>onload&#61;x</p>"},
		{"handler joined across dropped element", "<p>on<script>x</script>error=y</p>", "<p>onerror&#61;y</p>"},
		{"text split by kept tag stays apart", "<p>javascript<em>:</em></p>", "<p>javascript<em>:</em></p>"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RichText(tc.in))
		})
	}
}

func TestRichTextNeverEmitsActiveContent(t *testing.T) {
	inputs := []string{
		`<p onclick="x">a</p>`,
		`<a href="javascript:alert(1)" onfocus='y'>b</a>`,
		`<body onload=alert(1)>c`,
		`<p>onerror = alert(1)</p>`,
		`<scr<script>ipt>alert(1)</script>`,
		`<a href="java&#x09;script:alert(1)">d</a>`,
		`"><img src=x onerror=alert(1)>`,
		`<math><mtext><script>alert(1)</script></mtext></math>`,
	}
	for _, in := range inputs {
		assertInert(t, in, RichText(in))
	}
}

func TestRichTextIdempotent(t *testing.T) {
	inputs := []string{
		"<p>ok</p><script>alert(1)</script>",
		`<a href="https://example.com?a=1&b=2" title='say "hi"'>link</a>`,
		"<div><p>1 &lt; 2</p></div>",
		"<p>onload=alert(1) javascript:x</p>",
		"<ul><li>unclosed",
		"plain & simple",
	}
	for _, in := range inputs {
		once := RichText(in)
		assert.Equal(t, once, RichText(once), in)
	}
}

var (
	handlerOutput = regexp.MustCompile(`(?i)on\w+\s*=`)
	forbiddenTags = []string{"<script", "<iframe", "<object", "<embed", "<style", "<link", "<meta", "<base", "<form"}
	soupFragments = []string{
		"on", "click", "load", "error", "=", " = ", " ", "\t", "\n", "x", "alert(1)",
		"java", "script", "javascript", "JavaScript", ":", "&#58;", "&#61;", "&lt;", "&amp;", "<", ">", "\"", "'",
		"<p>", "</p>", "<br>", "<em>", "</em>", "<a href=\"", "<a title='", "\">", "'>", "</a>",
		"<span>", "</span>", "<div class=x>", "</div>", "<b>", "</b>", "<!-- -->", "<!--", "-->", "<!DOCTYPE html>",
		"<script>", "</script>", "<STYLE>", "</style>", "<iframe src=x>", "</iframe>", "<img src=x ", "onerror=",
		"<svg>", "</svg>", "<form>", "<meta charset=x>", "<link rel=x>", "<base href=x>", "<object>", "<embed>",
	}
)

func assertInert(t *testing.T, in, out string) {
	t.Helper()
	lower := strings.ToLower(out)
	for _, tag := range forbiddenTags {
		assert.NotContains(t, lower, tag, "%q -> %q", in, out)
	}
	assert.NotContains(t, lower, "javascript:", "%q -> %q", in, out)
	assert.False(t, handlerOutput.MatchString(out), "%q -> %q", in, out)
}

func tokenSoup(r *rand.Rand) string {
	var b strings.Builder
	n := 1 + r.Intn(16)
	for i := 0; i < n; i++ {
		b.WriteString(soupFragments[r.Intn(len(soupFragments))])
	}
	return b.String()
}

func TestRichTextGeneratedInput(t *testing.T) {
	r := rand.New(rand.NewSource(20240611))
	for i := 0; i < 5000; i++ {
		in := tokenSoup(r)
		once := RichText(in)
		assertInert(t, in, once)
		assert.Equal(t, once, RichText(once), "not stable for %q", in)
		if t.Failed() {
			return
		}
	}
}

func FuzzRichText(f *testing.F) {
	for _, seed := range []string{
		"<p>javascript<span>:</span>alert(1)</p>",
		"<p>on<span>click</span>=alert(1)</p>",
		"<p>on<!-- -->load=x</p>",
		`<a href="java&#x09;script:alert(1)" onclick="x">a</a>`,
		"<ul><li>unclosed",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once := RichText(in)
		assertInert(t, in, once)
		assert.Equal(t, once, RichText(once))
	})
}
