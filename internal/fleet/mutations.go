package fleet

import (
	"strings"

	"github.com/rongwang/pioneer-fleet/internal/models"
)

// Every mutation below edits the in-memory document only. Callers persist the
// whole document afterwards; nothing here guards against another writer.

// ValidCredentials reports whether pilot and pin have an acceptable shape:
// a non-empty name that is not an orphan sentinel and exactly four digits.
func ValidCredentials(pilot, pin string) bool {
	if pilot == "" || pilot == models.UnknownOwner || pilot == legacyUnknownOwner {
		return false
	}
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Authenticate logs a pilot in, registering unknown pilots on the fly.
// registered is true when the document was changed and must be saved.
func Authenticate(doc *models.Document, pilot, pin, corpoCode string) (registered bool, err error) {
	if corpoCode != doc.CorpoCode {
		return false, ErrInvalidCorpoCode
	}
	pilot = strings.TrimSpace(pilot)
	if !ValidCredentials(pilot, pin) {
		return false, ErrMalformedCredentials
	}

	if known, ok := doc.Users[pilot]; ok {
		if known != pin {
			return false, ErrWrongPin
		}
		return false, nil
	}

	if doc.Users == nil {
		doc.Users = map[string]string{}
	}
	if doc.UserData == nil {
		doc.UserData = map[string]models.PilotProfile{}
	}
	doc.Users[pilot] = pin
	if _, ok := doc.UserData[pilot]; !ok {
		doc.UserData[pilot] = models.PilotProfile{}
	}
	return true, nil
}

// CheckAdminCode compares code with the document's admin passphrase
func CheckAdminCode(doc *models.Document, code string) error {
	if code == "" || code != doc.AdminCode {
		return ErrInvalidAdminCode
	}
	return nil
}

// AcquireShips appends one new record per cart item. Items naming a ship the
// catalog does not know are skipped and returned separately.
func AcquireShips(doc *models.Document, pilot string, items []models.AcquireItem, cat Catalog, ids *IDGenerator) (added []models.ShipRecord, skipped []string) {
	for _, item := range items {
		ship, ok := cat.Lookup(item.ShipName)
		if !ok {
			skipped = append(skipped, item.ShipName)
			continue
		}
		source := models.SourceStore
		if item.Source == models.SourceIngame {
			source = models.SourceIngame
		}
		rec := models.ShipRecord{
			ID:        ids.Next(doc.Fleet),
			Owner:     pilot,
			ShipName:  ship.Name,
			Brand:     firstNonEmpty(ship.Brand, models.UnknownBrand),
			Role:      firstNonEmpty(ship.Role, models.UnknownRole),
			CrewList:  []string{},
			CrewMax:   ship.CrewMax,
			ImagePath: ship.Image,
			Source:    source,
			Insurance: firstNonEmpty(item.Insurance, models.DefaultInsurance),
			PriceUSD:  ship.PriceUSD,
			PriceAUEC: ship.PriceAUEC,
		}
		if rec.CrewMax < 1 {
			rec.CrewMax = models.DefaultCrewMax
		}
		doc.Fleet = append(doc.Fleet, rec)
		added = append(added, rec)
	}
	return added, skipped
}

// UpdateShipAttributes rewrites insurance, flight readiness and crew search on
// every record of pilot matching the tuple. Identical stacked ships are
// updated together. It returns the number of records changed.
func UpdateShipAttributes(doc *models.Document, pilot string, match models.ShipMatch, update models.ShipUpdate) (int, error) {
	n := 0
	for i := range doc.Fleet {
		rec := &doc.Fleet[i]
		if !match.Matches(pilot, rec) {
			continue
		}
		rec.Insurance = firstNonEmpty(update.Insurance, models.DefaultInsurance)
		rec.FlightReady = update.FlightReady
		rec.NeedCrew = update.NeedCrew
		n++
	}
	if n == 0 {
		return 0, ErrNoMatchingShips
	}
	return n, nil
}

// FindShip returns the first record carrying id
func FindShip(doc *models.Document, id int64) (*models.ShipRecord, bool) {
	for i := range doc.Fleet {
		if doc.Fleet[i].ID == id {
			return &doc.Fleet[i], true
		}
	}
	return nil, false
}

// ToggleCrewSignup makes pilot leave the crew of ship id when enrolled, or
// join it when there is room. joined reports the resulting membership.
func ToggleCrewSignup(doc *models.Document, id int64, pilot string, crewMax int) (joined bool, err error) {
	rec, ok := FindShip(doc, id)
	if !ok {
		return false, ErrShipNotFound
	}

	for i, m := range rec.CrewList {
		if m == pilot {
			rec.CrewList = append(rec.CrewList[:i], rec.CrewList[i+1:]...)
			return false, nil
		}
	}
	if len(rec.CrewList) >= crewMax {
		return false, ErrCrewFull
	}
	rec.CrewList = append(rec.CrewList, pilot)
	return true, nil
}

// DeleteShip removes one record of pilot: the one with req.ID when set,
// otherwise the first matching ship name, source, insurance and readiness.
func DeleteShip(doc *models.Document, pilot string, req models.DeleteShipRequest) (models.ShipRecord, error) {
	if req.ID == 0 && (req.ShipName == "" || req.Source == "" || req.Insurance == "") {
		return models.ShipRecord{}, ErrInvalidCriteria
	}

	for i := range doc.Fleet {
		rec := doc.Fleet[i]
		if rec.Owner != pilot {
			continue
		}
		if req.ID != 0 {
			if rec.ID != req.ID {
				continue
			}
		} else if rec.ShipName != req.ShipName || rec.Source != req.Source ||
			rec.Insurance != req.Insurance || rec.FlightReady != req.FlightReady {
			continue
		}
		doc.Fleet = append(doc.Fleet[:i], doc.Fleet[i+1:]...)
		return rec, nil
	}
	return models.ShipRecord{}, ErrShipNotFound
}

// DeletePilot removes a pilot and everything attached: login, profile, owned
// ships and crew seats on other ships. It returns the number of ships removed.
func DeletePilot(doc *models.Document, pilot string) (int, error) {
	_, isUser := doc.Users[pilot]
	owns := false
	for i := range doc.Fleet {
		if doc.Fleet[i].Owner == pilot {
			owns = true
			break
		}
	}
	if !isUser && !owns {
		return 0, ErrPilotNotFound
	}

	delete(doc.Users, pilot)
	delete(doc.UserData, pilot)

	kept := doc.Fleet[:0]
	removed := 0
	for _, rec := range doc.Fleet {
		if rec.Owner == pilot {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	doc.Fleet = kept

	for i := range doc.Fleet {
		crew := doc.Fleet[i].CrewList[:0]
		for _, m := range doc.Fleet[i].CrewList {
			if m != pilot {
				crew = append(crew, m)
			}
		}
		doc.Fleet[i].CrewList = crew
	}
	return removed, nil
}

// SetCorpoCode replaces the signup passphrase
func SetCorpoCode(doc *models.Document, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrEmptyCorpoCode
	}
	doc.CorpoCode = code
	return nil
}

// UpdateProfile stores the pilot's aUEC balance and acquisition target. An
// empty target clears it; otherwise it must be a ship purchasable in game.
func UpdateProfile(doc *models.Document, pilot string, balance float64, target string, cat Catalog) error {
	if _, ok := doc.Users[pilot]; !ok {
		return ErrPilotNotFound
	}
	target = strings.TrimSpace(target)

	profile := doc.UserData[pilot]
	if target == "" {
		profile.AcquisitionTarget = nil
	} else {
		ship, ok := cat.Lookup(target)
		if !ok || !ship.Ingame {
			return ErrUnknownTarget
		}
		profile.AcquisitionTarget = &target
	}
	if balance < 0 {
		balance = 0
	}
	profile.AUECBalance = balance

	if doc.UserData == nil {
		doc.UserData = map[string]models.PilotProfile{}
	}
	doc.UserData[pilot] = profile
	return nil
}
