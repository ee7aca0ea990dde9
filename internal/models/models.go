package models

import (
	"encoding/json"
)

// Ship sources
const (
	SourceStore  = "STORE"
	SourceIngame = "INGAME"
)

// Defaults applied by the normalizer when a field is missing
const (
	DefaultAdminCode = "9999"
	DefaultCorpoCode = "APQ8M3"
	DefaultInsurance = "Standard"
	UnknownOwner     = "UNKNOWN"
	UnknownShip      = "Unknown"
	UnknownRole      = "Unknown"
	UnknownBrand     = "N/A"
	DefaultCrewMax   = 1
)

// Document is the whole persisted state of the corporation.
// It is read and written as one JSON object.
type Document struct {
	AdminCode string                  `json:"admin_code"`
	CorpoCode string                  `json:"corpo_code"`
	Users     map[string]string       `json:"users"`
	UserData  map[string]PilotProfile `json:"user_data"`
	Fleet     []ShipRecord            `json:"fleet"`

	// Extra holds top-level keys this server does not know about.
	Extra map[string]json.RawMessage `json:"-"`
}

// PilotProfile holds per-pilot data that is not a ship
type PilotProfile struct {
	AUECBalance       float64 `json:"auec_balance"`
	AcquisitionTarget *string `json:"acquisition_target"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ShipRecord is one owned ship instance (not a ship type).
// Brand, Role, CrewMax and the prices are copied from the catalog at
// acquisition time and never refreshed.
type ShipRecord struct {
	ID          int64    `json:"id"`
	Owner       string   `json:"owner"`
	ShipName    string   `json:"ship_name"`
	Brand       string   `json:"brand"`
	Role        string   `json:"role"`
	FlightReady bool     `json:"flight_ready"`
	NeedCrew    bool     `json:"need_crew"`
	CrewList    []string `json:"crew_list"`
	CrewMax     int      `json:"crew_max"`
	ImagePath   string   `json:"image_path"`
	Source      string   `json:"source"`
	Insurance   string   `json:"insurance"`
	PriceUSD    float64  `json:"price_usd"`
	PriceAUEC   float64  `json:"price_auec"`

	// Extra holds unknown keys, including legacy keys still waiting for migration.
	Extra map[string]json.RawMessage `json:"-"`
}

// NewDocument returns the empty-but-valid document used when nothing could be loaded
func NewDocument(corpoCode string) *Document {
	if corpoCode == "" {
		corpoCode = DefaultCorpoCode
	}
	return &Document{
		AdminCode: DefaultAdminCode,
		CorpoCode: corpoCode,
		Users:     map[string]string{},
		UserData:  map[string]PilotProfile{},
		Fleet:     []ShipRecord{},
	}
}

// HasCrew reports whether pilot is enrolled in the ship's crew
func (s *ShipRecord) HasCrew(pilot string) bool {
	for _, m := range s.CrewList {
		if m == pilot {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		AdminCode: d.AdminCode,
		CorpoCode: d.CorpoCode,
		Extra:     cloneRaw(d.Extra),
	}
	if d.Users != nil {
		out.Users = make(map[string]string, len(d.Users))
		for k, v := range d.Users {
			out.Users[k] = v
		}
	}
	if d.UserData != nil {
		out.UserData = make(map[string]PilotProfile, len(d.UserData))
		for k, v := range d.UserData {
			out.UserData[k] = v.clone()
		}
	}
	if d.Fleet != nil {
		out.Fleet = make([]ShipRecord, len(d.Fleet))
		for i := range d.Fleet {
			out.Fleet[i] = d.Fleet[i].Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the record.
func (s ShipRecord) Clone() ShipRecord {
	out := s
	if s.CrewList != nil {
		out.CrewList = append(make([]string, 0, len(s.CrewList)), s.CrewList...)
	}
	out.Extra = cloneRaw(s.Extra)
	return out
}

func (p PilotProfile) clone() PilotProfile {
	out := p
	if p.AcquisitionTarget != nil {
		t := *p.AcquisitionTarget
		out.AcquisitionTarget = &t
	}
	out.Extra = cloneRaw(p.Extra)
	return out
}

func cloneRaw(in map[string]json.RawMessage) map[string]json.RawMessage {
	if in == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
