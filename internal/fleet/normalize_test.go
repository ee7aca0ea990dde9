package fleet

import (
	"testing"

	"github.com/rongwang/pioneer-fleet/internal/catalog"
	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	return cat
}

func decode(t *testing.T, raw string) *models.Document {
	t.Helper()
	doc, err := models.DecodeDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestNormalizeNilGivesDefaultDocument(t *testing.T) {
	doc := Normalizer{DefaultAdminCode: "4242", DefaultCorpoCode: "CORP"}.Normalize(nil)

	assert.Equal(t, "4242", doc.AdminCode)
	assert.Equal(t, "CORP", doc.CorpoCode)
	assert.NotNil(t, doc.Users)
	assert.NotNil(t, doc.UserData)
	assert.NotNil(t, doc.Fleet)
	assert.Empty(t, doc.Fleet)
}

func TestNormalizeBackfillsEveryField(t *testing.T) {
	cat := testCatalog(t)
	doc := decode(t, `{
		"users": {"Nova": "1234"},
		"fleet": [
			{"ship_name": "Cutlass Black"},
			{},
			"not a ship",
			{"id": 7, "owner": "Nova", "source": "store", "crew_max": 0}
		]
	}`)

	out := Normalize(doc, cat)

	assert.Equal(t, models.DefaultAdminCode, out.AdminCode)
	assert.Equal(t, models.DefaultCorpoCode, out.CorpoCode)
	assert.Contains(t, out.UserData, "Nova")
	require.Len(t, out.Fleet, 3)

	cutlass := out.Fleet[0]
	assert.Equal(t, models.UnknownOwner, cutlass.Owner)
	assert.Equal(t, models.UnknownBrand, cutlass.Brand)
	assert.Equal(t, models.UnknownRole, cutlass.Role)
	assert.Equal(t, 3, cutlass.CrewMax)
	assert.Equal(t, models.DefaultInsurance, cutlass.Insurance)
	assert.Equal(t, models.SourceStore, cutlass.Source)
	assert.NotNil(t, cutlass.CrewList)

	blank := out.Fleet[1]
	assert.Equal(t, models.UnknownShip, blank.ShipName)
	assert.Equal(t, models.DefaultCrewMax, blank.CrewMax)

	// ids are minted above the existing ones
	assert.Equal(t, int64(7), out.Fleet[2].ID)
	assert.Equal(t, int64(8), out.Fleet[0].ID)
	assert.Equal(t, int64(9), out.Fleet[1].ID)
	assert.Equal(t, models.SourceStore, out.Fleet[2].Source)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	cat := testCatalog(t)
	doc := decode(t, `{
		"admin_code": "1111",
		"corpo_code": "ABC",
		"theme": "dark",
		"users": {"Nova": "1234", "Ace": "0000"},
		"fleet": [
			{"Propriétaire": "Nova", "Vaisseau": "Polaris", "Dispo": true, "Prix": "975$", "custom": 1},
			{"owner": "Ace", "ship_name": "Cutlass Black", "source": "INGAME"}
		]
	}`)

	once := Normalize(doc, cat)
	twice := Normalize(once, cat)
	assert.Equal(t, once, twice)

	a, err := models.EncodeDocument(once)
	require.NoError(t, err)
	b, err := models.EncodeDocument(twice)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))

	// Unknown keys survive
	assert.Contains(t, once.Extra, "theme")
	assert.Contains(t, once.Fleet[0].Extra, "custom")
}

func TestNormalizeLeavesInputUntouched(t *testing.T) {
	doc := decode(t, `{"fleet": [{"Vaisseau": "Polaris"}]}`)
	_ = Normalize(doc, nil)

	assert.Empty(t, doc.Fleet[0].ShipName)
	assert.Contains(t, doc.Fleet[0].Extra, "Vaisseau")
}

func TestNormalizeMigratesDispo(t *testing.T) {
	doc := decode(t, `{"fleet": [
		{"id": 1, "ship_name": "Polaris", "Dispo": true},
		{"id": 2, "ship_name": "Polaris", "flight_ready": true, "Dispo": false}
	]}`)

	out := Normalize(doc, nil)

	assert.True(t, out.Fleet[0].FlightReady)
	assert.False(t, out.Fleet[1].FlightReady)
	for _, rec := range out.Fleet {
		assert.NotContains(t, rec.Extra, "Dispo")
	}
}

func TestNormalizeMigratesLegacyPrice(t *testing.T) {
	doc := decode(t, `{"fleet": [
		{"id": 1, "ship_name": "Cutlass Black", "Prix": "1 234,50$"},
		{"id": 2, "ship_name": "Cutlass Black", "source": "INGAME", "Prix": "1.750.000 aUEC"},
		{"id": 3, "ship_name": "Cutlass Black", "price_usd": 110, "Prix": "999$"},
		{"id": 4, "ship_name": "Cutlass Black", "Prix": "sold out"},
		{"id": 5, "ship_name": "Cutlass Black", "Prix": 12.345},
		{"id": 6, "ship_name": "Cutlass Black", "source": "INGAME", "Prix": 1.5e7}
	]}`)

	out := Normalize(doc, nil)

	assert.Equal(t, 1234.50, out.Fleet[0].PriceUSD)
	assert.Equal(t, 0.0, out.Fleet[0].PriceAUEC)
	assert.Equal(t, 1750000.0, out.Fleet[1].PriceAUEC)
	assert.Equal(t, 110.0, out.Fleet[2].PriceUSD)
	assert.Equal(t, 0.0, out.Fleet[3].PriceUSD)
	// number literals are taken as they are, not read as text
	assert.Equal(t, 12.345, out.Fleet[4].PriceUSD)
	assert.Equal(t, 15000000.0, out.Fleet[5].PriceAUEC)
	for _, rec := range out.Fleet {
		assert.NotContains(t, rec.Extra, "Prix")
	}
}

func TestNormalizeRenamesLegacyKeys(t *testing.T) {
	doc := decode(t, `{"fleet": [{
		"id": 1,
		"Propriétaire": "Nova",
		"Vaisseau": "Polaris",
		"Marque": "RSI",
		"Rôle": "Corvette",
		"Source": "Ingame",
		"Assurance": "LTI",
		"FlightReady": "true",
		"NeedCrew": 1,
		"CrewList": ["Ace"],
		"Prix_USD": "975",
		"Image": "polaris.jpg",
		"owner": "Ace"
	}]}`)

	rec := Normalize(doc, nil).Fleet[0]

	// the current key wins over its legacy twin
	assert.Equal(t, "Ace", rec.Owner)
	assert.Equal(t, "Polaris", rec.ShipName)
	assert.Equal(t, "RSI", rec.Brand)
	assert.Equal(t, "Corvette", rec.Role)
	assert.Equal(t, models.SourceIngame, rec.Source)
	assert.Equal(t, "LTI", rec.Insurance)
	assert.True(t, rec.FlightReady)
	assert.True(t, rec.NeedCrew)
	assert.Equal(t, []string{"Ace"}, rec.CrewList)
	assert.Equal(t, 975.0, rec.PriceUSD)
	assert.Equal(t, "polaris.jpg", rec.ImagePath)
	assert.Empty(t, rec.Extra)
}

func TestNormalizeMapsLegacyPlaceholders(t *testing.T) {
	doc := decode(t, `{
		"users": {"Nova": "1234"},
		"fleet": [{"Propriétaire": "INCONNU", "Vaisseau": "Inconnu", "Rôle": "Inconnu"}]
	}`)

	out := Normalize(doc, nil)

	rec := out.Fleet[0]
	assert.Equal(t, models.UnknownOwner, rec.Owner)
	assert.Equal(t, models.UnknownShip, rec.ShipName)
	assert.Equal(t, models.UnknownRole, rec.Role)

	members := Members(out)
	require.Len(t, members, 1)
	assert.Equal(t, "Nova", members[0].Pilot)

	// nobody can claim the orphaned ships by registering as the placeholder
	_, err := Authenticate(out, "INCONNU", "0000", out.CorpoCode)
	assert.ErrorIs(t, err, ErrMalformedCredentials)
	assert.Empty(t, Hangar(out, "INCONNU", "", nil))
}
