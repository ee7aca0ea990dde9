package fleet

import (
	"testing"
	"time"

	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCredentials(t *testing.T) {
	assert.True(t, ValidCredentials("Nova", "0042"))
	assert.False(t, ValidCredentials("", "1234"))
	assert.False(t, ValidCredentials(models.UnknownOwner, "1234"))
	assert.False(t, ValidCredentials("Nova", "123"))
	assert.False(t, ValidCredentials("Nova", "12345"))
	assert.False(t, ValidCredentials("Nova", "12a4"))
	assert.False(t, ValidCredentials("Nova", "١٢٣٤"))
}

func TestAuthenticate(t *testing.T) {
	doc := models.NewDocument("APQ8M3")
	doc.Users["Nova"] = "1234"

	registered, err := Authenticate(doc, "Nova", "1234", "APQ8M3")
	require.NoError(t, err)
	assert.False(t, registered)

	_, err = Authenticate(doc, "Nova", "9999", "APQ8M3")
	assert.ErrorIs(t, err, ErrWrongPin)

	_, err = Authenticate(doc, "Nova", "1234", "apq8m3")
	assert.ErrorIs(t, err, ErrInvalidCorpoCode)

	_, err = Authenticate(doc, " ", "1234", "APQ8M3")
	assert.ErrorIs(t, err, ErrMalformedCredentials)

	registered, err = Authenticate(doc, " Orion ", "4321", "APQ8M3")
	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, "4321", doc.Users["Orion"])
	assert.Contains(t, doc.UserData, "Orion")
}

func TestCheckAdminCode(t *testing.T) {
	doc := models.NewDocument("")
	assert.NoError(t, CheckAdminCode(doc, models.DefaultAdminCode))
	assert.ErrorIs(t, CheckAdminCode(doc, "0000"), ErrInvalidAdminCode)
	assert.ErrorIs(t, CheckAdminCode(doc, ""), ErrInvalidAdminCode)
}

func TestAcquireShipsBatchGetsDistinctIDs(t *testing.T) {
	cat := testCatalog(t)
	doc := models.NewDocument("")
	doc.Fleet = append(doc.Fleet, models.ShipRecord{ID: 1 << 62, Owner: "Ace", ShipName: "Polaris"})

	ids := NewIDGenerator()
	items := []models.AcquireItem{
		{ShipName: "Cutlass Black", Source: models.SourceIngame, Insurance: "Standard"},
		{ShipName: "Cutlass Black", Source: models.SourceIngame, Insurance: "Standard"},
		{ShipName: "Imaginary", Source: models.SourceStore, Insurance: "LTI"},
	}
	added, skipped := AcquireShips(doc, "Nova", items, cat, ids)

	require.Len(t, added, 2)
	assert.Equal(t, []string{"Imaginary"}, skipped)
	assert.Greater(t, added[0].ID, int64(1<<62))
	assert.Greater(t, added[1].ID, added[0].ID)
	assert.Len(t, doc.Fleet, 3)
	assert.Equal(t, models.SourceIngame, added[0].Source)
	assert.Equal(t, 3, added[0].CrewMax)
}

func TestUpdateShipAttributesUpdatesBothDuplicates(t *testing.T) {
	doc := models.NewDocument("")
	twin := models.ShipRecord{Owner: "Nova", ShipName: "Cutlass Black", Source: models.SourceStore, Insurance: "LTI", CrewList: []string{}}
	other := twin
	other.Owner = "Ace"
	doc.Fleet = []models.ShipRecord{twin, twin, other}
	doc.Fleet[0].ID, doc.Fleet[1].ID, doc.Fleet[2].ID = 1, 2, 3

	match := models.ShipMatch{ShipName: "Cutlass Black", Source: models.SourceStore, Insurance: "LTI"}
	n, err := UpdateShipAttributes(doc, "Nova", match, models.ShipUpdate{Insurance: "6M", FlightReady: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "6M", doc.Fleet[0].Insurance)
	assert.Equal(t, "6M", doc.Fleet[1].Insurance)
	assert.True(t, doc.Fleet[1].FlightReady)
	assert.Equal(t, "LTI", doc.Fleet[2].Insurance)

	_, err = UpdateShipAttributes(doc, "Nova", match, models.ShipUpdate{Insurance: "6M"})
	assert.ErrorIs(t, err, ErrNoMatchingShips)
}

func TestToggleCrewSignupCapacity(t *testing.T) {
	doc := models.NewDocument("")
	doc.Fleet = []models.ShipRecord{{ID: 10, Owner: "Nova", ShipName: "Cutlass Black", NeedCrew: true, CrewList: []string{"A", "B"}, CrewMax: 2}}

	_, err := ToggleCrewSignup(doc, 10, "C", 2)
	assert.ErrorIs(t, err, ErrCrewFull)

	joined, err := ToggleCrewSignup(doc, 10, "A", 2)
	require.NoError(t, err)
	assert.False(t, joined)
	assert.Equal(t, []string{"B"}, doc.Fleet[0].CrewList)

	joined, err = ToggleCrewSignup(doc, 10, "C", 2)
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, []string{"B", "C"}, doc.Fleet[0].CrewList)

	_, err = ToggleCrewSignup(doc, 11, "C", 2)
	assert.ErrorIs(t, err, ErrShipNotFound)
}

func TestDeleteShip(t *testing.T) {
	doc := models.NewDocument("")
	rec := models.ShipRecord{Owner: "Nova", ShipName: "Polaris", Source: models.SourceStore, Insurance: "LTI"}
	doc.Fleet = []models.ShipRecord{rec, rec, rec}
	doc.Fleet[0].ID, doc.Fleet[1].ID, doc.Fleet[2].ID = 1, 2, 3
	doc.Fleet[2].Owner = "Ace"

	removed, err := DeleteShip(doc, "Nova", models.DeleteShipRequest{ShipName: "Polaris", Source: models.SourceStore, Insurance: "LTI"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed.ID)
	require.Len(t, doc.Fleet, 2)

	_, err = DeleteShip(doc, "Nova", models.DeleteShipRequest{ID: 3})
	assert.ErrorIs(t, err, ErrShipNotFound)

	_, err = DeleteShip(doc, "Nova", models.DeleteShipRequest{ID: 2})
	require.NoError(t, err)
	assert.Len(t, doc.Fleet, 1)

	_, err = DeleteShip(doc, "Nova", models.DeleteShipRequest{ShipName: "Polaris"})
	assert.ErrorIs(t, err, ErrInvalidCriteria)
}

func TestDeletePilotCascade(t *testing.T) {
	doc := models.NewDocument("")
	doc.Users = map[string]string{"Nova": "1234", "Ace": "1111", "Bolt": "2222"}
	doc.UserData = map[string]models.PilotProfile{"Nova": {}, "Ace": {}, "Bolt": {}}
	doc.Fleet = []models.ShipRecord{
		{ID: 1, Owner: "Ace", CrewList: []string{"Bolt", "Nova"}},
		{ID: 2, Owner: "Nova", CrewList: []string{"Ace"}},
		{ID: 3, Owner: "Nova", CrewList: []string{}},
		{ID: 4, Owner: "Bolt", CrewList: []string{"Ace"}},
		{ID: 5, Owner: "Nova", CrewList: []string{"Bolt"}},
	}

	// Nova owns three ships and crews a fourth
	removed, err := DeletePilot(doc, "Nova")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)
	assert.NotContains(t, doc.Users, "Nova")
	assert.NotContains(t, doc.UserData, "Nova")
	require.Len(t, doc.Fleet, 2)
	for _, rec := range doc.Fleet {
		assert.NotEqual(t, "Nova", rec.Owner)
		assert.NotContains(t, rec.CrewList, "Nova")
	}
	assert.Equal(t, []string{"Bolt"}, doc.Fleet[0].CrewList)
	assert.Equal(t, []string{"Ace"}, doc.Fleet[1].CrewList)

	_, err = DeletePilot(doc, "Nova")
	assert.ErrorIs(t, err, ErrPilotNotFound)

	// an owner without login is still a pilot
	doc.Fleet = append(doc.Fleet, models.ShipRecord{ID: 6, Owner: "Legacy"})
	removed, err = DeletePilot(doc, "Legacy")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSetCorpoCode(t *testing.T) {
	doc := models.NewDocument("")
	assert.ErrorIs(t, SetCorpoCode(doc, "  "), ErrEmptyCorpoCode)
	require.NoError(t, SetCorpoCode(doc, " NEW1 "))
	assert.Equal(t, "NEW1", doc.CorpoCode)
}

func TestUpdateProfile(t *testing.T) {
	cat := testCatalog(t)
	doc := models.NewDocument("")
	doc.Users["Nova"] = "1234"

	require.NoError(t, UpdateProfile(doc, "Nova", 1000, "Cutlass Black", cat))
	require.NotNil(t, doc.UserData["Nova"].AcquisitionTarget)
	assert.Equal(t, "Cutlass Black", *doc.UserData["Nova"].AcquisitionTarget)

	assert.ErrorIs(t, UpdateProfile(doc, "Nova", 0, "890 Jump", cat), ErrUnknownTarget)
	assert.ErrorIs(t, UpdateProfile(doc, "Nova", 0, "Imaginary", cat), ErrUnknownTarget)
	assert.ErrorIs(t, UpdateProfile(doc, "Ghost", 0, "", cat), ErrPilotNotFound)

	require.NoError(t, UpdateProfile(doc, "Nova", -1, "", cat))
	assert.Nil(t, doc.UserData["Nova"].AcquisitionTarget)
	assert.Equal(t, 0.0, doc.UserData["Nova"].AUECBalance)
}

// A full session: register, buy, flag ready, stack, recruit, crew up and leave.
func TestNovaScenario(t *testing.T) {
	cat := testCatalog(t)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := &IDGenerator{now: func() time.Time { return clock }}
	cutlass := models.AcquireItem{ShipName: "Cutlass Black", Source: models.SourceStore, Insurance: "LTI"}

	doc := Normalize(nil, cat)

	registered, err := Authenticate(doc, "Nova", "4321", models.DefaultCorpoCode)
	require.NoError(t, err)
	require.True(t, registered)
	doc = Normalize(doc, cat)
	assert.Equal(t, "4321", doc.Users["Nova"])
	assert.Equal(t, models.PilotProfile{AUECBalance: 0, AcquisitionTarget: nil}, doc.UserData["Nova"])

	added, _ := AcquireShips(doc, "Nova", []models.AcquireItem{cutlass}, cat, ids)
	require.Len(t, added, 1)
	assert.Equal(t, clock.UnixMicro(), added[0].ID)
	doc = Normalize(doc, cat)
	require.Len(t, doc.Fleet, 1)
	rec := doc.Fleet[0]
	assert.Equal(t, "Nova", rec.Owner)
	assert.False(t, rec.FlightReady)
	assert.False(t, rec.NeedCrew)
	assert.Equal(t, []string{}, rec.CrewList)

	grounded := models.ShipMatch{ShipName: "Cutlass Black", Source: models.SourceStore, Insurance: "LTI"}
	n, err := UpdateShipAttributes(doc, "Nova", grounded, models.ShipUpdate{Insurance: "LTI", FlightReady: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, doc.Fleet[0].FlightReady)
	assert.False(t, doc.Fleet[0].NeedCrew)

	// a second copy stacks once it carries the same flags
	_, err = Authenticate(doc, "Ace", "1111", models.DefaultCorpoCode)
	require.NoError(t, err)
	more, _ := AcquireShips(doc, "Nova", []models.AcquireItem{cutlass}, cat, ids)
	require.Len(t, more, 1)
	assert.Equal(t, clock.UnixMicro()+1, more[0].ID)
	doc = Normalize(doc, cat)
	assert.Len(t, Hangar(doc, "Nova", "", cat), 2)

	n, err = UpdateShipAttributes(doc, "Nova", grounded, models.ShipUpdate{Insurance: "LTI", FlightReady: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	groups := Hangar(doc, "Nova", "", cat)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Quantity)

	ready := grounded
	ready.FlightReady = true
	n, err = UpdateShipAttributes(doc, "Nova", ready, models.ShipUpdate{Insurance: "LTI", FlightReady: true, NeedCrew: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	offers := CrewOffers(doc, "Ace", cat)
	require.Len(t, offers, 2)
	assert.True(t, offers[0].CanJoin)

	joined, err := ToggleCrewSignup(doc, added[0].ID, "Ace", 3)
	require.NoError(t, err)
	assert.True(t, joined)

	stats := Stats(doc)
	assert.Equal(t, 2, stats.Ships)
	assert.Equal(t, 220.0, stats.ValueUSD)
	assert.Equal(t, 2, stats.FlightReady)

	removed, err := DeletePilot(doc, "Ace")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Empty(t, doc.Fleet[0].CrewList)

	out := Normalize(doc, cat)
	assert.Equal(t, doc, out)
}
