package conversation

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// MetricsKey is the profile key holding the list of tracked metrics.
const MetricsKey = "metrics"

// Metric is a tracked health attribute and the objectives that asked for it.
type Metric struct {
	Name       string   `json:"name"`
	Value      any      `json:"value"`
	Objectives []string `json:"objectives"`
}

// HasObjective reports whether objective is already linked to the metric.
func (m Metric) HasObjective(objective string) bool {
	return slices.Contains(m.Objectives, objective)
}

// Attribute is a single profile entry. It is either a bare scalar such as
// {"weight": 80} or, once linked to objectives, a record such as
// {"weight": {"value": 80, "objectiveIds": ["Lose 10 lbs"]}}.
type Attribute struct {
	Value        any
	ObjectiveIDs []string
	record       bool
}

// Scalar returns an attribute in bare scalar form.
func Scalar(v any) Attribute {
	return Attribute{Value: v}
}

// Record returns an attribute in record form.
func Record(v any, objectiveIDs ...string) Attribute {
	return Attribute{Value: v, ObjectiveIDs: append([]string{}, objectiveIDs...), record: true}
}

// IsRecord reports whether the attribute is in record form.
func (a Attribute) IsRecord() bool {
	return a.record
}

type attributeRecord struct {
	Value        any      `json:"value"`
	ObjectiveIDs []string `json:"objectiveIds"`
}

func (a Attribute) MarshalJSON() ([]byte, error) {
	if a.record {
		ids := a.ObjectiveIDs
		if ids == nil {
			ids = []string{}
		}
		return json.Marshal(attributeRecord{Value: a.Value, ObjectiveIDs: ids})
	}
	return json.Marshal(a.Value)
}

func (a *Attribute) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err == nil {
		if _, ok := probe["objectiveIds"]; ok {
			var rec attributeRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return fmt.Errorf("decoding profile record: %w", err)
			}
			*a = Attribute{Value: rec.Value, ObjectiveIDs: rec.ObjectiveIDs, record: true}
			return nil
		}
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding profile value: %w", err)
	}
	*a = Attribute{Value: v}
	return nil
}

func (a Attribute) clone() Attribute {
	out := a
	if a.ObjectiveIDs != nil {
		out.ObjectiveIDs = append([]string{}, a.ObjectiveIDs...)
	}
	return out
}

// UserProfile is the caller-owned health profile. On the wire it is a flat
// JSON object: "metrics" holds the metric list, bare or wrapped in record
// form, and every other key is an Attribute.
type UserProfile struct {
	// Metrics is nil when the profile has no usable metric list.
	Metrics    []Metric
	Attributes map[string]Attribute

	metricsRecord       bool
	metricsObjectiveIDs []string
}

// IsEmpty reports whether the profile has no keys.
func (p *UserProfile) IsEmpty() bool {
	return p == nil || (p.Metrics == nil && len(p.Attributes) == 0)
}

// Has reports whether key is present, including the metrics key.
func (p *UserProfile) Has(key string) bool {
	if key == MetricsKey && p.Metrics != nil {
		return true
	}
	_, ok := p.Attributes[key]
	return ok
}

// SetDefault stores a scalar under key unless the key already exists.
func (p *UserProfile) SetDefault(key string, v any) {
	if p.Has(key) {
		return
	}
	if p.Attributes == nil {
		p.Attributes = make(map[string]Attribute)
	}
	p.Attributes[key] = Scalar(v)
}

// EnsureMetrics creates an empty metrics list if none exists. It reports
// false, and changes nothing, when the metrics key already holds a value that
// is not a metric list.
func (p *UserProfile) EnsureMetrics() bool {
	if p.Metrics != nil {
		return true
	}
	if _, opaque := p.Attributes[MetricsKey]; opaque {
		return false
	}
	p.Metrics = []Metric{}
	return true
}

// MetricsObjectiveIDs returns the objectives linked to the metric list as a
// whole, or nil when the list is in bare form.
func (p *UserProfile) MetricsObjectiveIDs() []string {
	if !p.metricsRecord {
		return nil
	}
	return p.metricsObjectiveIDs
}

// Metric returns the metric with the given name, or nil.
func (p *UserProfile) Metric(name string) *Metric {
	for i := range p.Metrics {
		if p.Metrics[i].Name == name {
			return &p.Metrics[i]
		}
	}
	return nil
}

// AttachObjective links objective to every key. Scalars are migrated to
// record form so both forms never coexist afterwards; records gain the
// objective once. A metric list is wrapped the same way and keeps its entries.
func (p *UserProfile) AttachObjective(objective string) {
	if p.Metrics != nil {
		if !p.metricsRecord {
			p.metricsRecord = true
			p.metricsObjectiveIDs = []string{}
		}
		if !slices.Contains(p.metricsObjectiveIDs, objective) {
			p.metricsObjectiveIDs = append(p.metricsObjectiveIDs, objective)
		}
	}
	for key, attr := range p.Attributes {
		if !attr.record {
			p.Attributes[key] = Record(attr.Value, objective)
			continue
		}
		if !slices.Contains(attr.ObjectiveIDs, objective) {
			attr.ObjectiveIDs = append(attr.ObjectiveIDs, objective)
			p.Attributes[key] = attr
		}
	}
}

// Clone returns a deep copy.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return &UserProfile{}
	}
	out := &UserProfile{metricsRecord: p.metricsRecord}
	if p.metricsObjectiveIDs != nil {
		out.metricsObjectiveIDs = append([]string{}, p.metricsObjectiveIDs...)
	}
	if p.Metrics != nil {
		out.Metrics = make([]Metric, len(p.Metrics))
		for i, m := range p.Metrics {
			out.Metrics[i] = m
			if m.Objectives != nil {
				out.Metrics[i].Objectives = append([]string{}, m.Objectives...)
			}
		}
	}
	if p.Attributes != nil {
		out.Attributes = make(map[string]Attribute, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = v.clone()
		}
	}
	return out
}

// Keys returns every top-level key in sorted order.
func (p *UserProfile) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, 0, len(p.Attributes)+1)
	for k := range p.Attributes {
		keys = append(keys, k)
	}
	if _, dup := p.Attributes[MetricsKey]; p.Metrics != nil && !dup {
		keys = append(keys, MetricsKey)
	}
	sort.Strings(keys)
	return keys
}

// Describe renders the value stored under key for inclusion in a prompt.
// Strings are returned as-is, anything else as compact JSON.
func (p *UserProfile) Describe(key string) string {
	var v any
	if key == MetricsKey && p.Metrics != nil {
		v = p.metricsValue()
	} else {
		attr, ok := p.Attributes[key]
		if !ok {
			return ""
		}
		if !attr.record {
			if s, ok := attr.Value.(string); ok {
				return s
			}
		}
		v = attr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func (p *UserProfile) metricsValue() any {
	if p.metricsRecord {
		return Record(p.Metrics, p.metricsObjectiveIDs...)
	}
	return p.Metrics
}

func (p UserProfile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attributes)+1)
	for k, v := range p.Attributes {
		out[k] = v
	}
	if p.Metrics != nil {
		out[MetricsKey] = p.metricsValue()
	}
	return json.Marshal(out)
}

type wrappedMetrics struct {
	Value        []Metric `json:"value"`
	ObjectiveIDs []string `json:"objectiveIds"`
}

func (p *UserProfile) decodeMetrics(raw json.RawMessage) bool {
	var list []Metric
	if err := json.Unmarshal(raw, &list); err == nil {
		if list == nil {
			list = []Metric{}
		}
		p.Metrics = list
		return true
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	if _, ok := fields["objectiveIds"]; !ok {
		return false
	}
	var rec wrappedMetrics
	if err := json.Unmarshal(raw, &rec); err != nil {
		return false
	}
	if rec.Value == nil {
		rec.Value = []Metric{}
	}
	if rec.ObjectiveIDs == nil {
		rec.ObjectiveIDs = []string{}
	}
	p.Metrics = rec.Value
	p.metricsRecord = true
	p.metricsObjectiveIDs = rec.ObjectiveIDs
	return true
}

func (p *UserProfile) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decoding user profile: %w", err)
	}
	*p = UserProfile{}
	for key, raw := range fields {
		if key == MetricsKey && p.decodeMetrics(raw) {
			continue
		}
		var attr Attribute
		if err := attr.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("decoding profile key %q: %w", key, err)
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]Attribute)
		}
		p.Attributes[key] = attr
	}
	return nil
}
