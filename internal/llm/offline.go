package llm

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/agnivade/levenshtein"
)

// OfflineProvider produces deterministic layouts and summaries without any
// network access. It keeps the canvas usable when no API key is configured.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider { return &OfflineProvider{} }

func (OfflineProvider) GenerateLayout(ctx context.Context, req GenerateLayoutRequest) (GenerateLayoutResponse, error) {
	if err := ctx.Err(); err != nil {
		return GenerateLayoutResponse{}, err
	}
	p := strings.ToLower(req.Prompt)
	title := html.EscapeString(properCap(strings.TrimSpace(req.Prompt)))

	var body string
	switch {
	case containsAny(p, "login", "sign in", "signin"):
		body = `<section><h2>Sign in</h2><form>` +
			`<label>Email</label><input type="email" placeholder="you@example.com">` +
			`<label>Password</label><input type="password" placeholder="Password">` +
			`<button type="submit">Sign in</button>` +
			`<p><a href="#forgot">Forgot password?</a></p></form></section>`
	case containsAny(p, "signup", "sign up", "register"):
		body = `<section><h2>Create account</h2><form>` +
			`<label>Name</label><input type="text" placeholder="Full name">` +
			`<label>Email</label><input type="email" placeholder="you@example.com">` +
			`<button type="submit">Create account</button></form></section>`
	case containsAny(p, "dashboard", "admin", "analytics"):
		body = `<nav><a href="#overview">Overview</a> <a href="#reports">Reports</a> <a href="#settings">Settings</a></nav>` +
			`<section><h2>Overview</h2><ul><li>Active users: 1,204</li><li>Revenue: $8,430</li><li>Churn: 2.1%</li></ul></section>` +
			`<section><h2>Recent activity</h2><p>No new events.</p></section>`
	case containsAny(p, "landing", "home", "marketing"):
		body = `<section><h2>Build faster</h2><p>A short pitch for the product goes here.</p>` +
			`<button type="button">Get started</button></section>` +
			`<section><h3>Features</h3><ul><li>Fast</li><li>Simple</li><li>Reliable</li></ul></section>`
	default:
		body = `<section><h2>Main content</h2><p>Placeholder content for: ` + title + `</p>` +
			`<button type="button">Primary action</button></section>`
	}
	out := `<header><h1>` + title + `</h1></header><main>` + body + `</main><footer><p>Footer</p></footer>`
	return GenerateLayoutResponse{LayoutSuggestion: out}, nil
}

// similarityThreshold is the normalized edit distance under which two
// comments are reported as one theme.
const similarityThreshold = 0.34

func (OfflineProvider) SummarizeFeedback(ctx context.Context, req SummarizeFeedbackRequest) (SummarizeFeedbackResponse, error) {
	if err := ctx.Err(); err != nil {
		return SummarizeFeedbackResponse{}, err
	}
	type theme struct {
		text  string
		count int
	}
	var themes []theme
	total := 0
	for _, raw := range req.Feedback {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		total++
		key := strings.ToLower(text)
		merged := false
		for i := range themes {
			if distanceRatio(key, strings.ToLower(themes[i].text)) <= similarityThreshold {
				themes[i].count++
				merged = true
				break
			}
		}
		if !merged {
			themes = append(themes, theme{text: text, count: 1})
		}
	}
	if len(themes) == 0 {
		return SummarizeFeedbackResponse{}, fmt.Errorf("offline: nothing to summarize")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s across %s.", pluralize(total, "comment"), pluralize(len(themes), "theme"))
	for _, t := range themes {
		b.WriteString("\n- ")
		b.WriteString(t.text)
		if t.count > 1 {
			fmt.Fprintf(&b, " (x%d)", t.count)
		}
	}
	return SummarizeFeedbackResponse{Summary: b.String()}, nil
}

func distanceRatio(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 0
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func properCap(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
