package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotAnObject is returned when the stored payload is not a JSON object
var ErrNotAnObject = errors.New("document is not a JSON object")

// DecodeDocument decodes a stored document leniently. Values of the wrong
// type are coerced or dropped to their zero value; only a payload that is
// not a JSON object at all is rejected.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

// EncodeDocument serializes the document including passthrough keys
func EncodeDocument(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}

	*d = Document{}
	for key, raw := range fields {
		switch key {
		case "admin_code":
			d.AdminCode = coerceString(raw)
		case "corpo_code":
			d.CorpoCode = coerceString(raw)
		case "users":
			d.Users = decodeUsers(raw)
		case "user_data":
			d.UserData = decodeUserData(raw)
		case "fleet":
			d.Fleet = decodeFleet(raw)
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = raw
		}
	}
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Extra)+5)
	for k, v := range d.Extra {
		out[k] = v
	}
	users := d.Users
	if users == nil {
		users = map[string]string{}
	}
	userData := d.UserData
	if userData == nil {
		userData = map[string]PilotProfile{}
	}
	fleet := d.Fleet
	if fleet == nil {
		fleet = []ShipRecord{}
	}
	out["admin_code"] = d.AdminCode
	out["corpo_code"] = d.CorpoCode
	out["users"] = users
	out["user_data"] = userData
	out["fleet"] = fleet
	return json.Marshal(out)
}

func (p *PilotProfile) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}

	*p = PilotProfile{}
	for key, raw := range fields {
		switch key {
		case "auec_balance":
			p.AUECBalance = coerceFloat(raw)
		case "acquisition_target":
			if s := coerceString(raw); s != "" {
				p.AcquisitionTarget = &s
			}
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[key] = raw
		}
	}
	return nil
}

func (p PilotProfile) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Extra)+2)
	for k, v := range p.Extra {
		out[k] = v
	}
	out["auec_balance"] = p.AUECBalance
	out["acquisition_target"] = p.AcquisitionTarget
	return json.Marshal(out)
}

func (s *ShipRecord) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}

	*s = ShipRecord{}
	for key, raw := range fields {
		switch key {
		case "id":
			s.ID = coerceInt64(raw)
		case "owner":
			s.Owner = coerceString(raw)
		case "ship_name":
			s.ShipName = coerceString(raw)
		case "brand":
			s.Brand = coerceString(raw)
		case "role":
			s.Role = coerceString(raw)
		case "flight_ready":
			s.FlightReady = coerceBool(raw)
		case "need_crew":
			s.NeedCrew = coerceBool(raw)
		case "crew_list":
			s.CrewList = coerceStrings(raw)
		case "crew_max":
			s.CrewMax = int(coerceInt64(raw))
		case "image_path":
			s.ImagePath = coerceString(raw)
		case "source":
			s.Source = coerceString(raw)
		case "insurance":
			s.Insurance = coerceString(raw)
		case "price_usd":
			s.PriceUSD = coerceFloat(raw)
		case "price_auec":
			s.PriceAUEC = coerceFloat(raw)
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]json.RawMessage)
			}
			s.Extra[key] = raw
		}
	}
	return nil
}

func (s ShipRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+14)
	for k, v := range s.Extra {
		out[k] = v
	}
	crew := s.CrewList
	if crew == nil {
		crew = []string{}
	}
	out["id"] = s.ID
	out["owner"] = s.Owner
	out["ship_name"] = s.ShipName
	out["brand"] = s.Brand
	out["role"] = s.Role
	out["flight_ready"] = s.FlightReady
	out["need_crew"] = s.NeedCrew
	out["crew_list"] = crew
	out["crew_max"] = s.CrewMax
	out["image_path"] = s.ImagePath
	out["source"] = s.Source
	out["insurance"] = s.Insurance
	out["price_usd"] = s.PriceUSD
	out["price_auec"] = s.PriceAUEC
	return json.Marshal(out)
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotAnObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeUsers(raw json.RawMessage) map[string]string {
	fields, err := objectFields(raw)
	if err != nil {
		return nil
	}
	users := make(map[string]string, len(fields))
	for name, pin := range fields {
		users[name] = coerceString(pin)
	}
	return users
}

func decodeUserData(raw json.RawMessage) map[string]PilotProfile {
	fields, err := objectFields(raw)
	if err != nil {
		return nil
	}
	data := make(map[string]PilotProfile, len(fields))
	for name, v := range fields {
		var p PilotProfile
		// a malformed profile is replaced by the default one
		_ = json.Unmarshal(v, &p)
		data[name] = p
	}
	return data
}

func decodeFleet(raw json.RawMessage) []ShipRecord {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	fleet := make([]ShipRecord, 0, len(items))
	for _, item := range items {
		var s ShipRecord
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		fleet = append(fleet, s)
	}
	return fleet
}

// CoerceString, CoerceBool and CoerceFloat expose the lenient scalar
// conversions used by the decoder so legacy keys can be read the same way.
func CoerceString(raw json.RawMessage) string { return coerceString(raw) }
func CoerceBool(raw json.RawMessage) bool     { return coerceBool(raw) }
func CoerceFloat(raw json.RawMessage) float64 { return coerceFloat(raw) }
func CoerceInt(raw json.RawMessage) int       { return int(coerceInt64(raw)) }
func CoerceStrings(raw json.RawMessage) []string {
	return coerceStrings(raw)
}

func decodeAny(raw json.RawMessage) any {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func coerceString(raw json.RawMessage) string {
	switch v := decodeAny(raw).(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func coerceBool(raw json.RawMessage) bool {
	switch v := decodeAny(raw).(type) {
	case bool:
		return v
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "oui":
			return true
		}
	}
	return false
}

func coerceFloat(raw json.RawMessage) float64 {
	switch v := decodeAny(raw).(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func coerceInt64(raw json.RawMessage) int64 {
	switch v := decodeAny(raw).(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return 0
}

func coerceStrings(raw json.RawMessage) []string {
	switch v := decodeAny(raw).(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			var s string
			switch t := item.(type) {
			case string:
				s = t
			case json.Number:
				s = t.String()
			}
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}
