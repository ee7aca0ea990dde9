// Package fleet holds the corporation document rules: schema normalization,
// legacy field migration, the mutations pilots and admins perform, and the
// aggregated views built on top of the fleet list.
package fleet

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rongwang/pioneer-fleet/internal/catalog"
	"github.com/rongwang/pioneer-fleet/internal/models"
)

// Placeholders written by older revisions for missing owner, ship and role
const (
	legacyUnknownOwner = "INCONNU"
	legacyUnknownName  = "Inconnu"
)

// Catalog is the read-only catalog lookup used while normalizing and acquiring
type Catalog interface {
	Lookup(name string) (catalog.Ship, bool)
}

// Normalizer re-establishes the document invariants. The zero value uses the
// built-in admin and corporation codes and no catalog.
type Normalizer struct {
	Catalog          Catalog
	DefaultAdminCode string
	DefaultCorpoCode string
}

// Normalize is shorthand for a Normalizer with default codes
func Normalize(doc *models.Document, cat Catalog) *models.Document {
	return Normalizer{Catalog: cat}.Normalize(doc)
}

// Normalize returns a normalized copy of doc; doc itself is left untouched.
// It never fails: missing or malformed values are replaced by defaults, legacy
// keys are migrated and removed, and unknown keys are kept. Running it on its
// own output changes nothing.
func (n Normalizer) Normalize(doc *models.Document) *models.Document {
	if doc == nil {
		doc = models.NewDocument(n.DefaultCorpoCode)
		doc.AdminCode = firstNonEmpty(n.DefaultAdminCode, models.DefaultAdminCode)
	}
	out := doc.Clone()

	if out.AdminCode == "" {
		out.AdminCode = firstNonEmpty(n.DefaultAdminCode, models.DefaultAdminCode)
	}
	if out.CorpoCode == "" {
		out.CorpoCode = firstNonEmpty(n.DefaultCorpoCode, models.DefaultCorpoCode)
	}
	if out.Users == nil {
		out.Users = map[string]string{}
	}
	if out.UserData == nil {
		out.UserData = map[string]models.PilotProfile{}
	}
	if out.Fleet == nil {
		out.Fleet = []models.ShipRecord{}
	}

	for i := range out.Fleet {
		rec := &out.Fleet[i]
		migrateRenamedKeys(rec)
		normalizeSource(rec)
		migrateDispo(rec)
		migratePrix(rec)
		n.backfill(rec)
	}

	// ids are minted after the scan so they land above every existing id
	next := maxID(out.Fleet)
	for i := range out.Fleet {
		if out.Fleet[i].ID <= 0 {
			next++
			out.Fleet[i].ID = next
		}
	}

	for pilot := range out.Users {
		if _, ok := out.UserData[pilot]; !ok {
			out.UserData[pilot] = models.PilotProfile{}
		}
	}
	return out
}

func (n Normalizer) backfill(rec *models.ShipRecord) {
	if rec.Owner == "" || rec.Owner == legacyUnknownOwner {
		rec.Owner = models.UnknownOwner
	}
	if rec.ShipName == "" || rec.ShipName == legacyUnknownName {
		rec.ShipName = models.UnknownShip
	}
	if rec.Brand == "" {
		rec.Brand = models.UnknownBrand
	}
	if rec.Role == "" || rec.Role == legacyUnknownName {
		rec.Role = models.UnknownRole
	}
	if rec.CrewList == nil {
		rec.CrewList = []string{}
	}
	if rec.CrewMax < 1 {
		rec.CrewMax = models.DefaultCrewMax
		if n.Catalog != nil {
			if ship, ok := n.Catalog.Lookup(rec.ShipName); ok && ship.CrewMax > 0 {
				rec.CrewMax = ship.CrewMax
			}
		}
	}
	if rec.Insurance == "" {
		rec.Insurance = models.DefaultInsurance
	}
}

// legacyField maps a key written by an older revision onto its current field.
// The current value wins when it is already set.
type legacyField struct {
	key   string
	apply func(rec *models.ShipRecord, raw json.RawMessage)
}

var renamedKeys = []legacyField{
	{"Propriétaire", func(r *models.ShipRecord, v json.RawMessage) { setString(&r.Owner, v) }},
	{"Vaisseau", func(r *models.ShipRecord, v json.RawMessage) { setString(&r.ShipName, v) }},
	{"Marque", func(r *models.ShipRecord, v json.RawMessage) { setString(&r.Brand, v) }},
	{"Rôle", func(r *models.ShipRecord, v json.RawMessage) { setString(&r.Role, v) }},
	{"Image", func(r *models.ShipRecord, v json.RawMessage) { setString(&r.ImagePath, v) }},
	{"Source", func(r *models.ShipRecord, v json.RawMessage) { setString(&r.Source, v) }},
	{"Assurance", func(r *models.ShipRecord, v json.RawMessage) { setString(&r.Insurance, v) }},
	{"FlightReady", func(r *models.ShipRecord, v json.RawMessage) {
		if !r.FlightReady {
			r.FlightReady = models.CoerceBool(v)
		}
	}},
	{"NeedCrew", func(r *models.ShipRecord, v json.RawMessage) {
		if !r.NeedCrew {
			r.NeedCrew = models.CoerceBool(v)
		}
	}},
	{"CrewList", func(r *models.ShipRecord, v json.RawMessage) {
		if len(r.CrewList) == 0 {
			if crew := models.CoerceStrings(v); crew != nil {
				r.CrewList = crew
			}
		}
	}},
	{"Prix_USD", func(r *models.ShipRecord, v json.RawMessage) {
		if r.PriceUSD == 0 {
			r.PriceUSD = models.CoerceFloat(v)
		}
	}},
	{"Prix_aUEC", func(r *models.ShipRecord, v json.RawMessage) {
		if r.PriceAUEC == 0 {
			r.PriceAUEC = models.CoerceFloat(v)
		}
	}},
}

func migrateRenamedKeys(rec *models.ShipRecord) {
	if len(rec.Extra) == 0 {
		return
	}
	for _, f := range renamedKeys {
		raw, ok := rec.Extra[f.key]
		if !ok {
			continue
		}
		f.apply(rec, raw)
		delete(rec.Extra, f.key)
	}
	dropEmptyExtra(rec)
}

// migrateDispo renames the old availability flag. Its value replaces the
// current flag, the way the first rename did.
func migrateDispo(rec *models.ShipRecord) {
	raw, ok := rec.Extra["Dispo"]
	if !ok {
		return
	}
	rec.FlightReady = models.CoerceBool(raw)
	delete(rec.Extra, "Dispo")
	dropEmptyExtra(rec)
}

// migratePrix moves the old single free-text price into the price of the
// record's source, only when that price is still unset.
func migratePrix(rec *models.ShipRecord) {
	raw, ok := rec.Extra["Prix"]
	if !ok {
		return
	}
	delete(rec.Extra, "Prix")
	dropEmptyExtra(rec)

	var price float64
	if isJSONNumber(raw) {
		price = models.CoerceFloat(raw)
	} else {
		var ok bool
		if price, ok = ParseLegacyPrice(models.CoerceString(raw)); !ok {
			return
		}
	}

	if rec.Source == models.SourceIngame {
		if rec.PriceAUEC == 0 {
			rec.PriceAUEC = price
		}
		return
	}
	if rec.PriceUSD == 0 {
		rec.PriceUSD = price
	}
}

// normalizeSource folds any source other than INGAME onto STORE
func normalizeSource(rec *models.ShipRecord) {
	if strings.ToUpper(strings.TrimSpace(rec.Source)) == models.SourceIngame {
		rec.Source = models.SourceIngame
		return
	}
	rec.Source = models.SourceStore
}

// isJSONNumber reports whether raw holds a number literal rather than text
func isJSONNumber(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	c := trimmed[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func setString(dst *string, raw json.RawMessage) {
	if *dst == "" {
		*dst = models.CoerceString(raw)
	}
}

func dropEmptyExtra(rec *models.ShipRecord) {
	if len(rec.Extra) == 0 {
		rec.Extra = nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
