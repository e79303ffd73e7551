package template

import (
	"net/url"
	"path"
	"sort"

	"github.com/prometheus/common/model"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
)

const (
	silencePath   = "/alerting/silence/new"
	alertListPath = "/alerting/list"
	dashboardPath = "/d/"

	silenceAlertmanager = "grafana"
)

// SilenceURL links to the silence editor prefilled with one matcher per
// label. Matchers are ordered by label name.
func SilenceURL(externalURL *url.URL, labels model.LabelSet) string {
	u := baseURL(externalURL, silencePath)

	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, string(name))
	}
	sort.Strings(names)

	query := url.Values{}
	query.Add("alertmanager", silenceAlertmanager)
	for _, name := range names {
		query.Add("matcher", name+"="+string(labels[model.LabelName(name)]))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// DashboardURL links to the dashboard named by the reserved dashboard annotation.
func DashboardURL(externalURL *url.URL, annotations model.LabelSet) (string, bool) {
	uid := string(annotations[entity.DashboardUIDAnnotation])
	if uid == "" {
		return "", false
	}
	u := baseURL(externalURL, dashboardPath, uid)
	return u.String(), true
}

// PanelURL links to a single panel. It needs both the dashboard and panel annotations.
func PanelURL(externalURL *url.URL, annotations model.LabelSet) (string, bool) {
	uid := string(annotations[entity.DashboardUIDAnnotation])
	panelID := string(annotations[entity.PanelIDAnnotation])
	if uid == "" || panelID == "" {
		return "", false
	}
	u := baseURL(externalURL, dashboardPath, uid)
	u.RawQuery = "viewPanel=" + url.QueryEscape(panelID)
	return u.String(), true
}

// AlertListURL links to the alert list view.
func AlertListURL(externalURL *url.URL) string {
	u := baseURL(externalURL, alertListPath)
	return u.String()
}

func baseURL(externalURL *url.URL, elems ...string) url.URL {
	var u url.URL
	if externalURL != nil {
		u = *externalURL
	}
	u.RawQuery = ""
	u.RawPath = ""
	u.Fragment = ""
	u.Path = path.Join(append([]string{u.Path}, elems...)...)
	return u
}
