// Package mathrender splits question text into plain and math segments and
// normalizes shorthand notation (x^2, a_1, sqrt(x), pi, <=) into LaTeX.
//
// Rendering never fails: on invalid input or any internal fault the text
// comes back as a single literal segment.
package mathrender

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind tags a rendered segment.
type Kind string

const (
	KindText       Kind = "text"
	KindInlineMath Kind = "inline_math"
	KindBlockMath  Kind = "block_math"
)

// Segment is one renderable piece of a text fragment.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
}

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// rewrites run in order; later rules see the output of earlier ones.
var rewrites = []rewrite{
	{regexp.MustCompile(`\^(\d+)`), `^{${1}}`},
	{regexp.MustCompile(`\^([a-zA-Z]+)`), `^{${1}}`},
	{regexp.MustCompile(`_(\d+)`), `_{${1}}`},
	{regexp.MustCompile(`_([a-zA-Z]+)`), `_{${1}}`},
	{regexp.MustCompile(`(\w+)/(\w+)`), `\frac{${1}}{${2}}`},
	{regexp.MustCompile(`sqrt\(([^)]+)\)`), `\sqrt{${1}}`},
	{regexp.MustCompile(`\bpi\b`), `\pi`},
	{regexp.MustCompile(`\balpha\b`), `\alpha`},
	{regexp.MustCompile(`\bbeta\b`), `\beta`},
	{regexp.MustCompile(`\bgamma\b`), `\gamma`},
	{regexp.MustCompile(`\bdelta\b`), `\delta`},
	{regexp.MustCompile(`\btheta\b`), `\theta`},
	{regexp.MustCompile(`\blambda\b`), `\lambda`},
	{regexp.MustCompile(`\bmu\b`), `\mu`},
	{regexp.MustCompile(`\bsigma\b`), `\sigma`},
	{regexp.MustCompile(`\bphi\b`), `\phi`},
	{regexp.MustCompile(`\bomega\b`), `\omega`},
	{regexp.MustCompile(`\beta\b`), `\eta`},
	{regexp.MustCompile(`m/s\^2`), `m/s^2`},
	{regexp.MustCompile(`m/s2`), `m/s^2`},
	{regexp.MustCompile(`ms\^-2`), `ms^{-2}`},
	{regexp.MustCompile(`(\d+)%`), `${1}\%`},
	{regexp.MustCompile(`(\d+)°`), `${1}^\circ`},
	{regexp.MustCompile(`\*`), `\times`},
	{regexp.MustCompile(`<=`), `\leq`},
	{regexp.MustCompile(`>=`), `\geq`},
	{regexp.MustCompile(`!=`), `\neq`},
}

var (
	// delimited matches $$...$$ and $...$ spans; a span never contains $.
	delimited = regexp.MustCompile(`\$\$[^$]+\$\$|\$[^$]+\$`)

	// shorthand detects bare math in undelimited text.
	shorthand = regexp.MustCompile(`[\^_]|\d+%|m/s|sqrt|\\|<=|>=|!=|π|α|β|γ|δ|θ|λ|μ|σ|φ|ω|η|\$|` +
		`\b(?:pi|alpha|beta|gamma|delta|theta|lambda|mu|sigma|phi|omega|eta)\b`)
)

// ToLatex rewrites shorthand math notation into LaTeX.
func ToLatex(text string) string {
	for _, rw := range rewrites {
		text = rw.re.ReplaceAllString(text, rw.repl)
	}
	return text
}

// HasMath reports whether undelimited text looks like it contains math.
func HasMath(text string) bool {
	return shorthand.MatchString(text)
}

// Render splits text into text and math segments. Explicit $...$ and
// $$...$$ spans become inline and block math; other parts that contain
// shorthand become inline math.
func Render(text string) (segs []Segment) {
	defer recoverLiteral(text, &segs)

	if !utf8.ValidString(text) {
		return literal(text)
	}

	var out []Segment
	last := 0
	for _, loc := range delimited.FindAllStringIndex(text, -1) {
		out = appendUndelimited(out, text[last:loc[0]])
		span := text[loc[0]:loc[1]]
		if strings.HasPrefix(span, "$$") {
			out = append(out, Segment{Kind: KindBlockMath, Content: ToLatex(span[2 : len(span)-2])})
		} else {
			out = append(out, Segment{Kind: KindInlineMath, Content: ToLatex(span[1 : len(span)-1])})
		}
		last = loc[1]
	}
	out = appendUndelimited(out, text[last:])
	return out
}

// RenderBlock treats the whole of text as one block of math.
func RenderBlock(text string) (segs []Segment) {
	defer recoverLiteral(text, &segs)

	if !utf8.ValidString(text) {
		return literal(text)
	}
	return []Segment{{Kind: KindBlockMath, Content: ToLatex(text)}}
}

// Plain flattens segments into terminal text, wrapping math in $ or $$.
func Plain(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		switch s.Kind {
		case KindInlineMath:
			b.WriteString("$" + s.Content + "$")
		case KindBlockMath:
			b.WriteString("$$" + s.Content + "$$")
		default:
			b.WriteString(s.Content)
		}
	}
	return b.String()
}

func appendUndelimited(out []Segment, part string) []Segment {
	if part == "" {
		return out
	}
	if HasMath(part) {
		return append(out, Segment{Kind: KindInlineMath, Content: ToLatex(part)})
	}
	return append(out, Segment{Kind: KindText, Content: part})
}

func literal(text string) []Segment {
	return []Segment{{Kind: KindText, Content: text}}
}

func recoverLiteral(text string, segs *[]Segment) {
	if r := recover(); r != nil {
		*segs = literal(text)
	}
}
