package template

import (
	"net/url"
	"testing"

	"github.com/prometheus/common/model"
	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return u
}

func TestSilenceURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		labels model.LabelSet
		want   string
	}{
		{
			name:   "matchers sorted by label name",
			base:   "http://localhost",
			labels: model.LabelSet{"lbl1": "val1", "alertname": "alert1"},
			want:   "http://localhost/alerting/silence/new?alertmanager=grafana&matcher=alertname%3Dalert1&matcher=lbl1%3Dval1",
		},
		{
			name:   "base path preserved",
			base:   "https://grafana.example.com/grafana/",
			labels: model.LabelSet{"alertname": "a b"},
			want:   "https://grafana.example.com/grafana/alerting/silence/new?alertmanager=grafana&matcher=alertname%3Da+b",
		},
		{
			name:   "base query dropped",
			base:   "http://localhost?orgId=1#frag",
			labels: model.LabelSet{},
			want:   "http://localhost/alerting/silence/new?alertmanager=grafana",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SilenceURL(mustParse(t, tt.base), tt.labels))
		})
	}
}

func TestDashboardAndPanelURL(t *testing.T) {
	base := mustParse(t, "http://localhost")

	tests := []struct {
		name          string
		annotations   model.LabelSet
		wantDashboard string
		wantPanel     string
	}{
		{
			name:          "both annotations",
			annotations:   model.LabelSet{"__dashboardUid__": "abcd", "__panelId__": "efgh"},
			wantDashboard: "http://localhost/d/abcd",
			wantPanel:     "http://localhost/d/abcd?viewPanel=efgh",
		},
		{
			name:          "dashboard only",
			annotations:   model.LabelSet{"__dashboardUid__": "abcd"},
			wantDashboard: "http://localhost/d/abcd",
		},
		{
			name:        "panel without dashboard",
			annotations: model.LabelSet{"__panelId__": "7"},
		},
		{
			name: "no annotations",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dashboard, ok := DashboardURL(base, tt.annotations)
			assert.Equal(t, tt.wantDashboard != "", ok)
			assert.Equal(t, tt.wantDashboard, dashboard)

			panel, ok := PanelURL(base, tt.annotations)
			assert.Equal(t, tt.wantPanel != "", ok)
			assert.Equal(t, tt.wantPanel, panel)
		})
	}
}

func TestAlertListURL(t *testing.T) {
	assert.Equal(t, "http://localhost/alerting/list", AlertListURL(mustParse(t, "http://localhost")))
	assert.Equal(t, "https://g.example.com/sub/alerting/list", AlertListURL(mustParse(t, "https://g.example.com/sub")))
	assert.Equal(t, "/alerting/list", AlertListURL(nil))
}
