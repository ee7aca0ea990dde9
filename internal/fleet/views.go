package fleet

import (
	"sort"
	"strings"

	"github.com/rongwang/pioneer-fleet/internal/models"
)

// ViewCatalog is the catalog surface the read-only views need
type ViewCatalog interface {
	Catalog
	IsHighValue(name string) bool
	CurrentPrice(name, source string) float64
}

type hangarKey struct {
	ship, source, insurance string
	ready, need             bool
}

// Hangar groups a pilot's ships into stacks of identical records. search
// filters case-insensitively on ship name and role.
func Hangar(doc *models.Document, pilot, search string, cat ViewCatalog) []models.HangarGroup {
	needle := strings.ToLower(strings.TrimSpace(search))

	index := make(map[hangarKey]int)
	groups := []models.HangarGroup{}
	for i := range doc.Fleet {
		rec := &doc.Fleet[i]
		if rec.Owner != pilot {
			continue
		}
		if needle != "" && !containsFold(rec.ShipName, needle) && !containsFold(rec.Role, needle) {
			continue
		}

		key := hangarKey{rec.ShipName, rec.Source, rec.Insurance, rec.FlightReady, rec.NeedCrew}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, models.HangarGroup{
				ShipName:    rec.ShipName,
				Source:      rec.Source,
				Insurance:   rec.Insurance,
				FlightReady: rec.FlightReady,
				NeedCrew:    rec.NeedCrew,
				Image:       imageFor(rec, cat),
				Price:       cat.CurrentPrice(rec.ShipName, rec.Source),
				Flagship:    cat.IsHighValue(rec.ShipName),
			})
		}
		g := &groups[pos]
		g.Quantity++
		if rec.CrewMax > g.CrewMax {
			g.CrewMax = rec.CrewMax
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if a.ShipName != b.ShipName {
			return a.ShipName < b.ShipName
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Insurance != b.Insurance {
			return a.Insurance < b.Insurance
		}
		if a.FlightReady != b.FlightReady {
			return !a.FlightReady
		}
		return !a.NeedCrew && b.NeedCrew
	})
	return groups
}

// Stats sums the corporate fleet. Store ships are valued in USD and in-game
// ships in aUEC, using the price captured at acquisition.
func Stats(doc *models.Document) models.CorpoStats {
	var s models.CorpoStats
	for i := range doc.Fleet {
		rec := &doc.Fleet[i]
		s.Ships++
		switch rec.Source {
		case models.SourceStore:
			s.ValueUSD += rec.PriceUSD
		case models.SourceIngame:
			s.ValueAUEC += rec.PriceAUEC
		}
		if rec.FlightReady {
			s.FlightReady++
		}
	}
	return s
}

// Overview splits the fleet into flagships, listed with their owners, and
// standard ships counted per type. role, when set, filters standard ships.
func Overview(doc *models.Document, role string, cat ViewCatalog) models.FleetOverview {
	out := models.FleetOverview{
		Flagships: []models.FlagshipGroup{},
		Standard:  []models.ShipCount{},
		Roles:     []string{},
	}

	flagIndex := make(map[string]int)
	flagOwners := make(map[string]map[string]bool)
	stdIndex := make(map[string]int)
	roles := make(map[string]bool)

	for i := range doc.Fleet {
		rec := &doc.Fleet[i]
		if cat.IsHighValue(rec.ShipName) {
			pos, ok := flagIndex[rec.ShipName]
			if !ok {
				pos = len(out.Flagships)
				flagIndex[rec.ShipName] = pos
				flagOwners[rec.ShipName] = make(map[string]bool)
				out.Flagships = append(out.Flagships, models.FlagshipGroup{
					ShipName: rec.ShipName,
					Image:    imageFor(rec, cat),
				})
			}
			if !flagOwners[rec.ShipName][rec.Owner] {
				flagOwners[rec.ShipName][rec.Owner] = true
				out.Flagships[pos].Owners = append(out.Flagships[pos].Owners, rec.Owner)
			}
			continue
		}

		roles[rec.Role] = true
		if role != "" && rec.Role != role {
			continue
		}
		pos, ok := stdIndex[rec.ShipName]
		if !ok {
			pos = len(out.Standard)
			stdIndex[rec.ShipName] = pos
			out.Standard = append(out.Standard, models.ShipCount{
				ShipName: rec.ShipName,
				Image:    imageFor(rec, cat),
			})
		}
		out.Standard[pos].Quantity++
	}

	for i := range out.Flagships {
		sort.Strings(out.Flagships[i].Owners)
	}
	sort.Slice(out.Flagships, func(i, j int) bool { return out.Flagships[i].ShipName < out.Flagships[j].ShipName })
	sort.Slice(out.Standard, func(i, j int) bool { return out.Standard[i].ShipName < out.Standard[j].ShipName })
	for r := range roles {
		out.Roles = append(out.Roles, r)
	}
	sort.Strings(out.Roles)
	return out
}

type registryKey struct {
	ship, source, role string
}

// Registry is the full corporate table grouped by ship, source and role.
// search filters case-insensitively on ship name, owner and role.
func Registry(doc *models.Document, search string, cat ViewCatalog) []models.RegistryRow {
	needle := strings.ToLower(strings.TrimSpace(search))

	index := make(map[registryKey]int)
	owners := make([]map[string]bool, 0)
	rows := []models.RegistryRow{}
	for i := range doc.Fleet {
		rec := &doc.Fleet[i]
		if needle != "" && !containsFold(rec.ShipName, needle) &&
			!containsFold(rec.Owner, needle) && !containsFold(rec.Role, needle) {
			continue
		}
		key := registryKey{rec.ShipName, rec.Source, rec.Role}
		pos, ok := index[key]
		if !ok {
			pos = len(rows)
			index[key] = pos
			owners = append(owners, make(map[string]bool))
			rows = append(rows, models.RegistryRow{
				ShipName: rec.ShipName,
				Role:     rec.Role,
				Source:   rec.Source,
				Image:    imageFor(rec, cat),
				Value:    cat.CurrentPrice(rec.ShipName, rec.Source),
			})
		}
		rows[pos].Quantity++
		owners[pos][rec.Owner] = true
	}

	for i := range rows {
		rows[i].Owners = strings.Join(sortedKeys(owners[i]), ", ")
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ShipName != b.ShipName {
			return a.ShipName < b.ShipName
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Role < b.Role
	})
	return rows
}

// Members lists every registered pilot and every ship owner, except the
// orphan sentinel, with their ship count and acquisition target.
func Members(doc *models.Document) []models.Member {
	counts := make(map[string]int)
	for pilot := range doc.Users {
		counts[pilot] = 0
	}
	for i := range doc.Fleet {
		counts[doc.Fleet[i].Owner]++
	}
	delete(counts, models.UnknownOwner)

	members := make([]models.Member, 0, len(counts))
	for _, pilot := range sortedKeys(counts) {
		m := models.Member{Pilot: pilot, Ships: counts[pilot]}
		if p, ok := doc.UserData[pilot]; ok && p.AcquisitionTarget != nil {
			m.AcquisitionTarget = *p.AcquisitionTarget
		}
		members = append(members, m)
	}
	return members
}

// CrewOffers lists ships recruiting crew, seen from viewer
func CrewOffers(doc *models.Document, viewer string, cat ViewCatalog) []models.CrewOffer {
	offers := []models.CrewOffer{}
	for i := range doc.Fleet {
		rec := &doc.Fleet[i]
		if !rec.NeedCrew {
			continue
		}
		isOwner := rec.Owner == viewer
		enrolled := rec.HasCrew(viewer)
		offers = append(offers, models.CrewOffer{
			ID:       rec.ID,
			ShipName: rec.ShipName,
			Owner:    rec.Owner,
			Image:    imageFor(rec, cat),
			CrewList: append([]string{}, rec.CrewList...),
			CrewMax:  rec.CrewMax,
			IsOwner:  isOwner,
			Enrolled: enrolled,
			CanJoin:  !isOwner && !enrolled && len(rec.CrewList) < rec.CrewMax,
		})
	}
	return offers
}

// Progress reports how far a pilot's aUEC balance covers their target
func Progress(doc *models.Document, pilot string, cat ViewCatalog) models.AcquisitionProgress {
	profile := doc.UserData[pilot]
	out := models.AcquisitionProgress{AUECBalance: profile.AUECBalance}
	if profile.AcquisitionTarget == nil {
		return out
	}
	out.AcquisitionTarget = *profile.AcquisitionTarget
	out.TargetPrice = cat.CurrentPrice(out.AcquisitionTarget, models.SourceIngame)
	if out.TargetPrice > 0 {
		out.Ratio = profile.AUECBalance / out.TargetPrice
		if out.Ratio > 1 {
			out.Ratio = 1
		}
	}
	return out
}

func imageFor(rec *models.ShipRecord, cat ViewCatalog) string {
	if rec.ImagePath != "" {
		return rec.ImagePath
	}
	if ship, ok := cat.Lookup(rec.ShipName); ok {
		return ship.Image
	}
	return ""
}

func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
