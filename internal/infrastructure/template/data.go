package template

import (
	"sort"
	"time"

	"github.com/prometheus/common/model"

	"github.com/altuslabsxyz/alert-dispatch/internal/domain/entity"
)

// Pair is a key/value string pair.
type Pair struct {
	Name, Value string
}

// Pairs is a list of key/value string pairs.
type Pairs []Pair

// Names returns the list of names in the pairs.
func (ps Pairs) Names() []string {
	ns := make([]string, 0, len(ps))
	for _, p := range ps {
		ns = append(ns, p.Name)
	}
	return ns
}

// Values returns the list of values in the pairs.
func (ps Pairs) Values() []string {
	vs := make([]string, 0, len(ps))
	for _, p := range ps {
		vs = append(vs, p.Value)
	}
	return vs
}

// KV is a set of key/value string pairs.
type KV map[string]string

// SortedPairs returns a sorted list of key/value pairs. The alertname
// label, if present, always comes first.
func (kv KV) SortedPairs() Pairs {
	var (
		pairs     = make(Pairs, 0, len(kv))
		keys      = make([]string, 0, len(kv))
		sortStart = 0
	)
	for k := range kv {
		if k == string(model.AlertNameLabel) {
			keys = append([]string{k}, keys...)
			sortStart = 1
		} else {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys[sortStart:])

	for _, k := range keys {
		pairs = append(pairs, Pair{k, kv[k]})
	}
	return pairs
}

// Remove returns a copy of the key/value set without the given keys.
func (kv KV) Remove(keys []string) KV {
	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	res := KV{}
	for k, v := range kv {
		if _, ok := keySet[k]; !ok {
			res[k] = v
		}
	}
	return res
}

// Names returns the names of the label names in the LabelSet.
func (kv KV) Names() []string {
	return kv.SortedPairs().Names()
}

// Values returns a list of the values in the LabelSet.
func (kv KV) Values() []string {
	return kv.SortedPairs().Values()
}

// ExtendedAlert is the per-alert view exposed to templates.
type ExtendedAlert struct {
	Status       string    `json:"status"`
	Labels       KV        `json:"labels"`
	Annotations  KV        `json:"annotations"`
	StartsAt     time.Time `json:"startsAt"`
	EndsAt       time.Time `json:"endsAt"`
	GeneratorURL string    `json:"generatorURL"`
	Fingerprint  string    `json:"fingerprint"`
	SilenceURL   string    `json:"silenceURL"`
	DashboardURL string    `json:"dashboardURL"`
	PanelURL     string    `json:"panelURL"`
	ValueString  string    `json:"valueString"`
}

// ExtendedAlerts is a list of alerts with partition helpers.
type ExtendedAlerts []ExtendedAlert

// Firing returns the subset of alerts that are firing.
func (as ExtendedAlerts) Firing() ExtendedAlerts {
	res := ExtendedAlerts{}
	for _, a := range as {
		if a.Status == string(entity.StatusFiring) {
			res = append(res, a)
		}
	}
	return res
}

// Resolved returns the subset of alerts that are resolved.
func (as ExtendedAlerts) Resolved() ExtendedAlerts {
	res := ExtendedAlerts{}
	for _, a := range as {
		if a.Status == string(entity.StatusResolved) {
			res = append(res, a)
		}
	}
	return res
}

// ExtendedData is the root data model templates are executed against.
type ExtendedData struct {
	Receiver string         `json:"receiver"`
	Status   string         `json:"status"`
	Alerts   ExtendedAlerts `json:"alerts"`

	GroupLabels       KV `json:"groupLabels"`
	CommonLabels      KV `json:"commonLabels"`
	CommonAnnotations KV `json:"commonAnnotations"`

	ExternalURL string `json:"externalURL"`
}

func labelSetToKV(ls model.LabelSet) KV {
	kv := make(KV, len(ls))
	for k, v := range ls {
		kv[string(k)] = string(v)
	}
	return kv
}

func removeReserved(ls model.LabelSet) KV {
	kv := labelSetToKV(ls)
	for _, name := range entity.ReservedAnnotations {
		delete(kv, string(name))
	}
	return kv
}
