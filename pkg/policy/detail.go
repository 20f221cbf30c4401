package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Rule is the policy-level object inside a detail envelope. Only the fields
// this system reads or repositions are typed; everything else rides in Extra
// and is echoed on write-back.
type Rule struct {
	ID                  int64           `json:"id,omitempty"`
	Name                string          `json:"name,omitempty"`
	Type                Category        `json:"type,omitempty"`
	Version             int             `json:"version,omitempty"`
	EngineType          string          `json:"engineType,omitempty"`
	AnalyticsPipelineID json.RawMessage `json:"analyticsPipelineId,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var ruleFields = []string{"id", "name", "type", "version", "engineType", "analyticsPipelineId"}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rule) UnmarshalJSON(data []byte) error {
	type alias Rule
	var a alias
	extra, err := decodeWithExtra(data, &a, ruleFields)
	if err != nil {
		return err
	}
	*r = Rule(a)
	r.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Rule) MarshalJSON() ([]byte, error) {
	type alias Rule
	return encodeWithExtra(alias(r), r.Extra)
}

// CheckItem is one data-quality check inside a quality policy definition.
type CheckItem struct {
	ID              int64           `json:"id,omitempty"`
	MeasurementType MeasurementKind `json:"measurementType,omitempty"`
	ColumnName      string          `json:"columnName,omitempty"`
	RuleExpression  string          `json:"ruleExpression,omitempty"`
	Value           json.RawMessage `json:"value,omitempty"`
	Labels          []Label         `json:"labels"`

	Extra map[string]json.RawMessage `json:"-"`
}

var checkItemFields = []string{"id", "measurementType", "columnName", "ruleExpression", "value", "labels"}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CheckItem) UnmarshalJSON(data []byte) error {
	type alias CheckItem
	var a alias
	extra, err := decodeWithExtra(data, &a, checkItemFields)
	if err != nil {
		return err
	}
	*c = CheckItem(a)
	c.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c CheckItem) MarshalJSON() ([]byte, error) {
	type alias CheckItem
	a := alias(c)
	if a.Labels == nil {
		a.Labels = []Label{}
	}
	return encodeWithExtra(a, c.Extra)
}

// UDFID returns the udfId scalar from the check's value object in its
// literal form, or "" when the value object or the field is absent.
func (c *CheckItem) UDFID() string {
	if len(c.Value) == 0 || bytes.Equal(c.Value, []byte("null")) {
		return ""
	}

	var v struct {
		UDFID any `json:"udfId"`
	}
	dec := json.NewDecoder(bytes.NewReader(c.Value))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return ""
	}

	switch id := v.UDFID.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// ColumnMapping is one left/right column pairing inside a reconciliation
// policy definition.
type ColumnMapping struct {
	ID              int64   `json:"id,omitempty"`
	LeftColumnName  string  `json:"leftColumnName,omitempty"`
	RightColumnName string  `json:"rightColumnName,omitempty"`
	Labels          []Label `json:"labels"`

	Extra map[string]json.RawMessage `json:"-"`
}

var columnMappingFields = []string{"id", "leftColumnName", "rightColumnName", "labels"}

// UnmarshalJSON implements json.Unmarshaler.
func (m *ColumnMapping) UnmarshalJSON(data []byte) error {
	type alias ColumnMapping
	var a alias
	extra, err := decodeWithExtra(data, &a, columnMappingFields)
	if err != nil {
		return err
	}
	*m = ColumnMapping(a)
	m.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m ColumnMapping) MarshalJSON() ([]byte, error) {
	type alias ColumnMapping
	a := alias(m)
	if a.Labels == nil {
		a.Labels = []Label{}
	}
	return encodeWithExtra(a, m.Extra)
}

// ReconItem is one measurement row of a reconciliation policy. Its kind
// names the reconciliation type for the whole policy.
type ReconItem struct {
	ID              int64           `json:"id,omitempty"`
	MeasurementType MeasurementKind `json:"measurementType,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var reconItemFields = []string{"id", "measurementType"}

// UnmarshalJSON implements json.Unmarshaler.
func (i *ReconItem) UnmarshalJSON(data []byte) error {
	type alias ReconItem
	var a alias
	extra, err := decodeWithExtra(data, &a, reconItemFields)
	if err != nil {
		return err
	}
	*i = ReconItem(a)
	i.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (i ReconItem) MarshalJSON() ([]byte, error) {
	type alias ReconItem
	return encodeWithExtra(alias(i), i.Extra)
}

// QualityDetails is the details object of a quality policy envelope.
type QualityDetails struct {
	Items         []CheckItem     `json:"items"`
	TransformUDFs json.RawMessage `json:"transformUDFs,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var qualityDetailsFields = []string{"items", "transformUDFs"}

// UnmarshalJSON implements json.Unmarshaler.
func (d *QualityDetails) UnmarshalJSON(data []byte) error {
	type alias QualityDetails
	var a alias
	extra, err := decodeWithExtra(data, &a, qualityDetailsFields)
	if err != nil {
		return err
	}
	*d = QualityDetails(a)
	d.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d QualityDetails) MarshalJSON() ([]byte, error) {
	type alias QualityDetails
	a := alias(d)
	if a.Items == nil {
		a.Items = []CheckItem{}
	}
	return encodeWithExtra(a, d.Extra)
}

// QualityDetail is the full GET envelope for a quality policy.
type QualityDetail struct {
	Rule    Rule           `json:"rule"`
	Details QualityDetails `json:"details"`

	Extra map[string]json.RawMessage `json:"-"`
}

var detailEnvelopeFields = []string{"rule", "details"}

// UnmarshalJSON implements json.Unmarshaler.
func (d *QualityDetail) UnmarshalJSON(data []byte) error {
	type alias QualityDetail
	var a alias
	extra, err := decodeWithExtra(data, &a, detailEnvelopeFields)
	if err != nil {
		return err
	}
	*d = QualityDetail(a)
	d.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d QualityDetail) MarshalJSON() ([]byte, error) {
	type alias QualityDetail
	return encodeWithExtra(alias(d), d.Extra)
}

// ReconDetails is the details object of a reconciliation policy envelope.
type ReconDetails struct {
	Items          []ReconItem     `json:"items"`
	ColumnMappings []ColumnMapping `json:"columnMappings"`
	TransformUDFs  json.RawMessage `json:"transformUDFs,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var reconDetailsFields = []string{"items", "columnMappings", "transformUDFs"}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ReconDetails) UnmarshalJSON(data []byte) error {
	type alias ReconDetails
	var a alias
	extra, err := decodeWithExtra(data, &a, reconDetailsFields)
	if err != nil {
		return err
	}
	*d = ReconDetails(a)
	d.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d ReconDetails) MarshalJSON() ([]byte, error) {
	type alias ReconDetails
	a := alias(d)
	if a.Items == nil {
		a.Items = []ReconItem{}
	}
	if a.ColumnMappings == nil {
		a.ColumnMappings = []ColumnMapping{}
	}
	return encodeWithExtra(a, d.Extra)
}

// ReconKind returns the measurement kind of the first item, which names the
// reconciliation type for the whole policy. Empty when the policy has no
// items.
func (d *ReconDetails) ReconKind() MeasurementKind {
	if len(d.Items) == 0 {
		return ""
	}
	return d.Items[0].MeasurementType
}

// ReconDetail is the full GET envelope for a reconciliation policy.
type ReconDetail struct {
	Rule    Rule         `json:"rule"`
	Details ReconDetails `json:"details"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *ReconDetail) UnmarshalJSON(data []byte) error {
	type alias ReconDetail
	var a alias
	extra, err := decodeWithExtra(data, &a, detailEnvelopeFields)
	if err != nil {
		return err
	}
	*d = ReconDetail(a)
	d.Extra = extra
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d ReconDetail) MarshalJSON() ([]byte, error) {
	type alias ReconDetail
	return encodeWithExtra(alias(d), d.Extra)
}
