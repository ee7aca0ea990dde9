package api_test

import (
	"encoding/json"
	"testing"

	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertErrorCode(t *testing.T, body []byte, code string) {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp), string(body))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, code, resp.Code)
}

// seedFleetDocument returns a document with three pilots and a mixed fleet
func seedFleetDocument() *models.Document {
	target := "Cutlass Black"
	doc := models.NewDocument("APQ8M3")
	doc.Users = map[string]string{"Nova": "1234", "Ace": "1111", "Bolt": "2222", "Cyra": "3333"}
	doc.UserData = map[string]models.PilotProfile{
		"Ace": {AUECBalance: 500000, AcquisitionTarget: &target},
	}
	doc.Fleet = []models.ShipRecord{
		{ID: 100, Owner: "Nova", ShipName: "Cutlass Black", Brand: "Drake", Role: "Polyvalent",
			NeedCrew: true, CrewList: []string{"Ace", "Bolt"}, CrewMax: 2, Source: models.SourceStore,
			Insurance: "LTI", PriceUSD: 110, PriceAUEC: 1750000},
		{ID: 101, Owner: "Ace", ShipName: "Polaris", Brand: "RSI", Role: "Corvette",
			CrewList: []string{}, CrewMax: 14, Source: models.SourceStore, Insurance: "LTI", PriceUSD: 975, FlightReady: true},
		{ID: 102, Owner: "Bolt", ShipName: "Cutlass Black", Brand: "Drake", Role: "Polyvalent",
			CrewList: []string{"Nova"}, CrewMax: 3, Source: models.SourceIngame, Insurance: "Standard", PriceAUEC: 1750000},
		{ID: 103, Owner: models.UnknownOwner, ShipName: "Aurora MR", Brand: "RSI", Role: "Starter",
			CrewList: []string{}, CrewMax: 1, Source: models.SourceStore, Insurance: "Standard", PriceUSD: 25},
	}
	return doc
}
