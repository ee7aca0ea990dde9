package models

// Request models
// LoginRequest carries no binding rules: an empty pilot or pin is reported as
// malformed credentials, after the corporation code check.
type LoginRequest struct {
	Pilot     string `json:"pilot"`
	PIN       string `json:"pin"`
	CorpoCode string `json:"corpoCode"`
}

type AdminUnlockRequest struct {
	AdminCode string `json:"adminCode" binding:"required"`
}

// AcquireItem is one cart line: a catalog ship bought from a source with an insurance
type AcquireItem struct {
	ShipName  string `json:"shipName" binding:"required"`
	Source    string `json:"source" binding:"required,oneof=STORE INGAME"`
	Insurance string `json:"insurance" binding:"required"`
}

type AcquireShipsRequest struct {
	Items []AcquireItem `json:"items" binding:"required,min=1,dive"`
}

// ShipMatch selects the owner's ships whose attribute tuple equals these values.
// Several identical ships stacked in a hangar all match.
type ShipMatch struct {
	ShipName    string `json:"shipName" binding:"required"`
	Source      string `json:"source" binding:"required"`
	Insurance   string `json:"insurance" binding:"required"`
	FlightReady bool   `json:"flightReady"`
	NeedCrew    bool   `json:"needCrew"`
}

// Matches reports whether rec is owned by owner and carries the tuple
func (m ShipMatch) Matches(owner string, rec *ShipRecord) bool {
	return rec.Owner == owner &&
		rec.ShipName == m.ShipName &&
		rec.Source == m.Source &&
		rec.Insurance == m.Insurance &&
		rec.FlightReady == m.FlightReady &&
		rec.NeedCrew == m.NeedCrew
}

type ShipUpdate struct {
	Insurance   string `json:"insurance" binding:"required"`
	FlightReady bool   `json:"flightReady"`
	NeedCrew    bool   `json:"needCrew"`
}

type UpdateShipsRequest struct {
	Match  ShipMatch  `json:"match"`
	Update ShipUpdate `json:"update"`
}

// DeleteShipRequest removes a single ship, either by id or by the first
// record matching the tuple (need_crew is not part of the tuple).
type DeleteShipRequest struct {
	ID          int64  `json:"id"`
	ShipName    string `json:"shipName"`
	Source      string `json:"source"`
	Insurance   string `json:"insurance"`
	FlightReady bool   `json:"flightReady"`
}

type UpdateProfileRequest struct {
	AUECBalance       float64 `json:"auecBalance"`
	AcquisitionTarget string  `json:"acquisitionTarget"`
}

type UpdateCorpoCodeRequest struct {
	CorpoCode string `json:"corpoCode" binding:"required"`
}

// Response models
type AuthResponse struct {
	Status     string `json:"status"`
	Pilot      string `json:"pilot,omitempty"`
	Registered bool   `json:"registered,omitempty"`
	Admin      bool   `json:"admin,omitempty"`
	Token      string `json:"token,omitempty"`
	ExpiresIn  int    `json:"expiresIn,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

// MutationResponse reports the outcome of a write. Warning is set when the
// store accepted the call but signalled that the document exceeds its size cap.
type MutationResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Affected int    `json:"affected"`
	Warning  string `json:"warning,omitempty"`
}

type AcquireShipsResponse struct {
	Status  string       `json:"status"`
	Added   []ShipRecord `json:"added"`
	Skipped []string     `json:"skipped,omitempty"`
	Warning string       `json:"warning,omitempty"`
}

type CrewToggleResponse struct {
	Status   string   `json:"status"`
	Joined   bool     `json:"joined"`
	CrewList []string `json:"crewList"`
	CrewMax  int      `json:"crewMax"`
	Warning  string   `json:"warning,omitempty"`
}

// HangarGroup is a stack of identical ships in one pilot's hangar
type HangarGroup struct {
	ShipName    string  `json:"shipName"`
	Source      string  `json:"source"`
	Insurance   string  `json:"insurance"`
	FlightReady bool    `json:"flightReady"`
	NeedCrew    bool    `json:"needCrew"`
	Quantity    int     `json:"quantity"`
	CrewMax     int     `json:"crewMax"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Flagship    bool    `json:"flagship"`
}

type HangarResponse struct {
	Status string        `json:"status"`
	Pilot  string        `json:"pilot"`
	Groups []HangarGroup `json:"groups"`
}

type CorpoStats struct {
	Ships       int     `json:"ships"`
	ValueUSD    float64 `json:"valueUsd"`
	ValueAUEC   float64 `json:"valueAuec"`
	FlightReady int     `json:"flightReady"`
}

type FlagshipGroup struct {
	ShipName string   `json:"shipName"`
	Image    string   `json:"image"`
	Owners   []string `json:"owners"`
}

type ShipCount struct {
	ShipName string `json:"shipName"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
}

type FleetOverview struct {
	Flagships []FlagshipGroup `json:"flagships"`
	Standard  []ShipCount     `json:"standard"`
	Roles     []string        `json:"roles"`
}

type RegistryRow struct {
	ShipName string  `json:"shipName"`
	Role     string  `json:"role"`
	Source   string  `json:"source"`
	Owners   string  `json:"owners"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
	Value    float64 `json:"value"`
}

type Member struct {
	Pilot             string `json:"pilot"`
	Ships             int    `json:"ships"`
	AcquisitionTarget string `json:"acquisitionTarget,omitempty"`
}

type CrewOffer struct {
	ID       int64    `json:"id"`
	ShipName string   `json:"shipName"`
	Owner    string   `json:"owner"`
	Image    string   `json:"image"`
	CrewList []string `json:"crewList"`
	CrewMax  int      `json:"crewMax"`
	IsOwner  bool     `json:"isOwner"`
	Enrolled bool     `json:"enrolled"`
	CanJoin  bool     `json:"canJoin"`
}

type AcquisitionProgress struct {
	AUECBalance       float64 `json:"auecBalance"`
	AcquisitionTarget string  `json:"acquisitionTarget,omitempty"`
	TargetPrice       float64 `json:"targetPrice"`
	Ratio             float64 `json:"ratio"`
}

type ProfileResponse struct {
	Status   string              `json:"status"`
	Pilot    string              `json:"pilot"`
	Progress AcquisitionProgress `json:"progress"`
	Targets  []string            `json:"targets"`
	Warning  string              `json:"warning,omitempty"`
}

// CatalogShip is a catalog entry priced for the requested source
type CatalogShip struct {
	Name     string  `json:"name"`
	Brand    string  `json:"brand"`
	Role     string  `json:"role"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	CrewMax  int     `json:"crewMax"`
	Ingame   bool    `json:"ingame"`
	Flagship bool    `json:"flagship"`
}

type CatalogResponse struct {
	Status     string        `json:"status"`
	Source     string        `json:"source"`
	Ships      []CatalogShip `json:"ships"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int           `json:"total"`
	Brands     []string      `json:"brands"`
	Roles      []string      `json:"roles"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
