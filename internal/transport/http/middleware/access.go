package middleware

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
	"github.com/gugatkesheladze/youtube-monitor/internal/metrics"
)

// PathClassifier decides whether a path belongs to the protected class.
type PathClassifier struct {
	matchers []glob.Glob
}

// NewPathClassifier compiles pattern with '/' as separator, so "*" stays within
// one segment and "**" spans segments. "/x/**" also covers "/x" itself.
func NewPathClassifier(pattern string) (*PathClassifier, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("protected pattern must start with '/': %q", pattern)
	}
	patterns := []string{pattern}
	if base, ok := strings.CutSuffix(pattern, "/**"); ok && base != "" {
		patterns = append(patterns, base)
	}

	pc := &PathClassifier{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compile protected pattern %q: %w", p, err)
		}
		pc.matchers = append(pc.matchers, g)
	}
	return pc, nil
}

// Protected matches the cleaned path, so dot segments and duplicate slashes
// cannot step around the pattern.
func (pc *PathClassifier) Protected(p string) bool {
	if p == "" {
		p = "/"
	}
	p = path.Clean(p)
	for _, g := range pc.matchers {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// Access rejects protected paths without an identity. Everything else passes.
func Access(pc *PathClassifier) Stage {
	return func(ex Exchange) (Exchange, error) {
		if !pc.Protected(ex.Request.URL.Path) {
			metrics.GateDecisions.WithLabelValues("public").Inc()
			return ex, nil
		}
		if !ex.Identity.Authenticated() {
			metrics.GateDecisions.WithLabelValues("rejected").Inc()
			return ex, domain.ErrAuthenticationRequired()
		}
		metrics.GateDecisions.WithLabelValues("authenticated").Inc()
		return ex, nil
	}
}
