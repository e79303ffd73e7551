// Package template renders notification text from a group of alerts.
//
// A Template holds the compiled default definitions plus any operator
// supplied ones. It is immutable after New returns and safe for concurrent
// use: every execution works on a clone of the compiled set.
package template

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	tmpltext "text/template"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
	domainerrors "github.com/altuslabsxyz/alert-dispatch/internal/domain/errors"
)

// Template is the compiled template set plus the default external URL.
type Template struct {
	text        *tmpltext.Template
	externalURL *url.URL
}

type options struct {
	definitions []string
	files       []string
}

// Option configures New.
type Option func(*options)

// WithDefinitions adds template definitions ({{ define "name" }}) to the set.
func WithDefinitions(defs ...string) Option {
	return func(o *options) {
		o.definitions = append(o.definitions, defs...)
	}
}

// WithDefinitionFiles adds template definitions read from files.
func WithDefinitionFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
	}
}

// New compiles the default templates and any extra definitions.
func New(externalURL *url.URL, opts ...Option) (*Template, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	text := tmpltext.New("root").Option("missingkey=zero").Funcs(DefaultFuncs)
	if _, err := text.Parse(defaultTemplateString); err != nil {
		return nil, fmt.Errorf("parsing default templates: %w", err)
	}

	for _, path := range o.files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading template file %s: %w", path, err)
		}
		o.definitions = append(o.definitions, string(data))
	}
	for i, def := range o.definitions {
		if _, err := text.New(fmt.Sprintf("definitions_%d", i)).Parse(def); err != nil {
			return nil, domainerrors.NewRenderError(err)
		}
	}

	if externalURL == nil {
		externalURL = &url.URL{}
	}

	return &Template{text: text, externalURL: externalURL}, nil
}

// ExternalURL returns the default external base URL.
func (t *Template) ExternalURL() *url.URL {
	return t.externalURL
}

// ExternalURLFor returns the external URL for one notification, preferring
// the one carried by the context.
func (t *Template) ExternalURLFor(ctx context.Context) *url.URL {
	if u, ok := entity.ExternalURL(ctx); ok {
		return u
	}
	return t.externalURL
}

// ExecuteTextString executes text as an anonymous template against data.
// Syntax and reference errors are returned as-is.
func (t *Template) ExecuteTextString(text string, data any) (string, error) {
	if text == "" {
		return "", nil
	}
	tmpl, err := t.text.Clone()
	if err != nil {
		return "", err
	}
	tmpl, err = tmpl.New("").Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	return buf.String(), err
}

// Data builds the template data model for one notification.
func (t *Template) Data(ctx context.Context, alerts []*entity.Alert) *ExtendedData {
	externalURL := t.ExternalURLFor(ctx)
	receiver, _ := entity.ReceiverName(ctx)
	groupLabels, _ := entity.GroupLabels(ctx)
	group := entity.NewAlertGroup("", groupLabels, alerts...)

	data := &ExtendedData{
		Receiver:          receiver,
		Status:            string(group.Status()),
		Alerts:            make(ExtendedAlerts, 0, len(alerts)),
		GroupLabels:       labelSetToKV(groupLabels),
		CommonLabels:      labelSetToKV(group.CommonLabels()),
		CommonAnnotations: removeReserved(group.CommonAnnotations()),
		ExternalURL:       externalURL.String(),
	}

	for _, a := range alerts {
		data.Alerts = append(data.Alerts, extendAlert(a, externalURL))
	}
	return data
}

func extendAlert(a *entity.Alert, externalURL *url.URL) ExtendedAlert {
	status := entity.StatusFiring
	if a.IsResolved() {
		status = entity.StatusResolved
	}

	extended := ExtendedAlert{
		Status:       string(status),
		Labels:       labelSetToKV(a.Labels),
		Annotations:  removeReserved(a.Annotations),
		StartsAt:     a.StartsAt,
		EndsAt:       a.EndsAt,
		GeneratorURL: a.GeneratorURL,
		Fingerprint:  a.Fingerprint(),
		SilenceURL:   SilenceURL(externalURL, a.Labels),
		ValueString:  a.GetAnnotation(entity.ValueStringAnnotation),
	}
	if u, ok := DashboardURL(externalURL, a.Annotations); ok {
		extended.DashboardURL = u
	}
	if u, ok := PanelURL(externalURL, a.Annotations); ok {
		extended.PanelURL = u
	}
	return extended
}

// Expander renders several fields of one notification against the same
// data. After the first failure every further call returns "" and Err
// reports that failure.
type Expander struct {
	tmpl *Template
	data *ExtendedData
	err  error
}

// Expander builds the data model for alerts and returns an Expander over it.
func (t *Template) Expander(ctx context.Context, alerts []*entity.Alert) *Expander {
	return &Expander{tmpl: t, data: t.Data(ctx, alerts)}
}

// Text renders text, or returns "" once an error has been recorded.
func (e *Expander) Text(text string) string {
	if e.err != nil {
		return ""
	}
	s, err := e.tmpl.ExecuteTextString(text, e.data)
	if err != nil {
		e.err = err
		return ""
	}
	return s
}

// Data returns the data model templates run against.
func (e *Expander) Data() *ExtendedData {
	return e.data
}

// Err returns the first render error as a render-category DomainError.
func (e *Expander) Err() error {
	if e.err == nil {
		return nil
	}
	return domainerrors.NewRenderError(e.err)
}
