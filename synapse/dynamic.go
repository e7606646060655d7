package synapse

import (
	"encoding/json"
	"maps"
)

// Dynamic is an envelope whose name and payload are only known at runtime. The
// payload fields are kept as raw JSON next to the Base metadata.
type Dynamic struct {
	Base
	Name   string
	Fields map[string]json.RawMessage
}

// NewDynamic returns a Dynamic envelope routed to name.
func NewDynamic(name string, fields map[string]json.RawMessage) *Dynamic {
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	return &Dynamic{Name: name, Fields: fields}
}

func (d *Dynamic) SynapseName() string {
	return d.Name
}

// Deserialize returns the payload fields.
func (d *Dynamic) Deserialize() any {
	return d.Fields
}

func (d *Dynamic) Clone() Synapse {
	raw, _ := json.Marshal(d.Base)
	clone := &Dynamic{Name: d.Name, Fields: maps.Clone(d.Fields)}
	_ = json.Unmarshal(raw, &clone.Base)
	return clone
}

func (d *Dynamic) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(d.Base)
	if err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage, len(d.Fields)+len(baseKeys))
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for key, value := range d.Fields {
		if _, reserved := baseKeys[key]; reserved {
			continue
		}
		merged[key] = value
	}
	return json.Marshal(merged)
}

func (d *Dynamic) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	var base Base
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	d.Base = base
	if d.Fields == nil {
		d.Fields = make(map[string]json.RawMessage)
	}
	for key, value := range all {
		if _, reserved := baseKeys[key]; reserved {
			continue
		}
		d.Fields[key] = value
	}
	return nil
}
