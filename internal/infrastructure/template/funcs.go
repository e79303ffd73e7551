package template

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	tmpltext "text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultFuncs is the helper library exposed to every template.
var DefaultFuncs = tmpltext.FuncMap{
	"toUpper": strings.ToUpper,
	"toLower": strings.ToLower,
	// Casers are stateful, so each call gets its own.
	"title": func(s string) string {
		return cases.Title(language.AmericanEnglish).String(s)
	},
	// join is equal to strings.Join but inverts the argument order
	// for easier pipelining in templates.
	"join": func(sep string, s []string) string {
		return strings.Join(s, sep)
	},
	"match": regexp.MatchString,
	"reReplaceAll": func(pattern, repl, text string) (string, error) {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return "", fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		return re.ReplaceAllString(text, repl), nil
	},
	"safeHtml": func(text string) template.HTML {
		return template.HTML(text)
	},
	"stringSlice": func(s ...string) []string {
		return s
	},
	"countFiring": func(alerts ExtendedAlerts) int {
		return len(alerts.Firing())
	},
	"countResolved": func(alerts ExtendedAlerts) int {
		return len(alerts.Resolved())
	},
}
