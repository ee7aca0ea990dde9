package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rongwang/pioneer-fleet/internal/catalog"
	"github.com/rongwang/pioneer-fleet/internal/fleet"
	"github.com/rongwang/pioneer-fleet/internal/metrics"
	"github.com/rongwang/pioneer-fleet/internal/models"
	"github.com/rongwang/pioneer-fleet/internal/repository"
	"github.com/rongwang/pioneer-fleet/internal/utils"
)

// ErrStoreUnavailable wraps every failed document save
var ErrStoreUnavailable = errors.New("document store unavailable")

// Service defines all the business logic operations
type Service interface {
	// Authentication
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	UnlockAdmin(ctx context.Context, pilot string, req models.AdminUnlockRequest) (*models.AuthResponse, error)
	CheckPilot(ctx context.Context, pilot string) error

	// Hangar operations
	Hangar(ctx context.Context, pilot, search string) (*models.HangarResponse, error)
	AcquireShips(ctx context.Context, pilot string, req models.AcquireShipsRequest) (*models.AcquireShipsResponse, error)
	UpdateShips(ctx context.Context, pilot string, req models.UpdateShipsRequest) (*models.MutationResponse, error)
	DeleteShip(ctx context.Context, pilot string, req models.DeleteShipRequest) (*models.MutationResponse, error)

	// Profile
	GetProfile(ctx context.Context, pilot string) (*models.ProfileResponse, error)
	UpdateProfile(ctx context.Context, pilot string, req models.UpdateProfileRequest) (*models.ProfileResponse, error)

	// Crew
	CrewOffers(ctx context.Context, viewer string) ([]models.CrewOffer, error)
	ToggleCrew(ctx context.Context, pilot string, shipID int64) (*models.CrewToggleResponse, error)

	// Corporation views
	CorpoStats(ctx context.Context) (models.CorpoStats, error)
	CorpoFleet(ctx context.Context, role string) (models.FleetOverview, error)
	Registry(ctx context.Context, search string) ([]models.RegistryRow, error)
	Members(ctx context.Context) ([]models.Member, error)

	// Catalog
	BrowseCatalog(source string, q catalog.Query) *models.CatalogResponse

	// Administration
	DeletePilot(ctx context.Context, pilot string) (*models.MutationResponse, error)
	UpdateCorpoCode(ctx context.Context, req models.UpdateCorpoCodeRequest) (*models.MutationResponse, error)
	ExportDocument(ctx context.Context) ([]byte, string, error)
}

// DocumentStore is the persistence the service needs
type DocumentStore interface {
	Load(ctx context.Context) *models.Document
	Save(ctx context.Context, doc *models.Document) (repository.SaveResult, error)
}

// Claims are the session claims carried by every token. The subject is the
// pilot name.
type Claims struct {
	Admin bool `json:"adm,omitempty"`
	jwt.RegisteredClaims
}

// DefaultService implements the Service interface
type DefaultService struct {
	store         DocumentStore
	catalog       *catalog.Catalog
	ids           *fleet.IDGenerator
	jwtSecret     []byte
	tokenDuration time.Duration
	logger        *utils.Logger
	metrics       *metrics.Registry
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(store DocumentStore, cat *catalog.Catalog, jwtSecret string, tokenDuration time.Duration, logger *utils.Logger, m *metrics.Registry) Service {
	if tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}
	return &DefaultService{
		store:         store,
		catalog:       cat,
		ids:           fleet.NewIDGenerator(),
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: tokenDuration,
		logger:        logger,
		metrics:       m,
	}
}

// Authentication methods
func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	doc := s.store.Load(ctx)

	registered, err := fleet.Authenticate(doc, req.Pilot, req.PIN, req.CorpoCode)
	if err != nil {
		s.metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		return nil, err
	}
	pilot := strings.TrimSpace(req.Pilot)

	var warning string
	if registered {
		// A pilot who could not be stored must not get a session
		if warning, err = s.save(ctx, "register", doc); err != nil {
			return nil, err
		}
		s.logger.Info("Registered pilot %s", pilot)
		s.metrics.LoginAttempts.WithLabelValues("registered").Inc()
	} else {
		s.metrics.LoginAttempts.WithLabelValues("ok").Inc()
	}

	token, err := s.generateJWT(pilot, false)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:     "success",
		Pilot:      pilot,
		Registered: registered,
		Token:      token,
		ExpiresIn:  int(s.tokenDuration.Seconds()),
		Warning:    warning,
	}, nil
}

func (s *DefaultService) UnlockAdmin(ctx context.Context, pilot string, req models.AdminUnlockRequest) (*models.AuthResponse, error) {
	doc := s.store.Load(ctx)
	if _, ok := doc.Users[pilot]; !ok {
		return nil, fleet.ErrPilotNotFound
	}
	if err := fleet.CheckAdminCode(doc, req.AdminCode); err != nil {
		s.logger.Warn("Rejected admin unlock for %s", pilot)
		return nil, err
	}

	token, err := s.generateJWT(pilot, true)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		Pilot:     pilot,
		Admin:     true,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// CheckPilot reports ErrPilotNotFound once pilot has been removed from the
// roster, whatever tokens it still holds.
func (s *DefaultService) CheckPilot(ctx context.Context, pilot string) error {
	doc := s.store.Load(ctx)
	if _, ok := doc.Users[pilot]; !ok {
		return fleet.ErrPilotNotFound
	}
	return nil
}

// Hangar operations
func (s *DefaultService) Hangar(ctx context.Context, pilot, search string) (*models.HangarResponse, error) {
	doc := s.store.Load(ctx)
	return &models.HangarResponse{
		Status: "success",
		Pilot:  pilot,
		Groups: fleet.Hangar(doc, pilot, search, s.catalog),
	}, nil
}

func (s *DefaultService) AcquireShips(ctx context.Context, pilot string, req models.AcquireShipsRequest) (*models.AcquireShipsResponse, error) {
	doc := s.store.Load(ctx)
	if _, ok := doc.Users[pilot]; !ok {
		return nil, fleet.ErrPilotNotFound
	}

	added, skipped := fleet.AcquireShips(doc, pilot, req.Items, s.catalog, s.ids)
	if len(skipped) > 0 {
		s.logger.Warn("Skipped unknown ships for %s: %s", pilot, strings.Join(skipped, ", "))
	}

	resp := &models.AcquireShipsResponse{
		Status:  "success",
		Added:   added,
		Skipped: skipped,
	}
	if len(added) == 0 {
		// nothing changed, nothing to store
		resp.Added = []models.ShipRecord{}
		return resp, nil
	}

	warning, err := s.save(ctx, "acquire", doc)
	if err != nil {
		return nil, err
	}
	resp.Warning = warning
	return resp, nil
}

func (s *DefaultService) UpdateShips(ctx context.Context, pilot string, req models.UpdateShipsRequest) (*models.MutationResponse, error) {
	doc := s.store.Load(ctx)

	n, err := fleet.UpdateShipAttributes(doc, pilot, req.Match, req.Update)
	if err != nil {
		s.metrics.Mutations.WithLabelValues("update", "rejected").Inc()
		return nil, err
	}

	warning, err := s.save(ctx, "update", doc)
	if err != nil {
		return nil, err
	}
	return &models.MutationResponse{
		Status:   "success",
		Message:  fmt.Sprintf("%d ship(s) updated", n),
		Affected: n,
		Warning:  warning,
	}, nil
}

func (s *DefaultService) DeleteShip(ctx context.Context, pilot string, req models.DeleteShipRequest) (*models.MutationResponse, error) {
	doc := s.store.Load(ctx)

	rec, err := fleet.DeleteShip(doc, pilot, req)
	if err != nil {
		s.metrics.Mutations.WithLabelValues("delete_ship", "rejected").Inc()
		return nil, err
	}

	warning, err := s.save(ctx, "delete_ship", doc)
	if err != nil {
		return nil, err
	}
	return &models.MutationResponse{
		Status:   "success",
		Message:  fmt.Sprintf("%s #%d removed", rec.ShipName, rec.ID),
		Affected: 1,
		Warning:  warning,
	}, nil
}

// Profile
func (s *DefaultService) GetProfile(ctx context.Context, pilot string) (*models.ProfileResponse, error) {
	doc := s.store.Load(ctx)
	if _, ok := doc.Users[pilot]; !ok {
		return nil, fleet.ErrPilotNotFound
	}
	return s.profileResponse(doc, pilot, ""), nil
}

func (s *DefaultService) UpdateProfile(ctx context.Context, pilot string, req models.UpdateProfileRequest) (*models.ProfileResponse, error) {
	doc := s.store.Load(ctx)

	if err := fleet.UpdateProfile(doc, pilot, req.AUECBalance, req.AcquisitionTarget, s.catalog); err != nil {
		s.metrics.Mutations.WithLabelValues("profile", "rejected").Inc()
		return nil, err
	}

	warning, err := s.save(ctx, "profile", doc)
	if err != nil {
		return nil, err
	}
	return s.profileResponse(doc, pilot, warning), nil
}

func (s *DefaultService) profileResponse(doc *models.Document, pilot, warning string) *models.ProfileResponse {
	targets := s.catalog.IngameNames()
	if targets == nil {
		targets = []string{}
	}
	return &models.ProfileResponse{
		Status:   "success",
		Pilot:    pilot,
		Progress: fleet.Progress(doc, pilot, s.catalog),
		Targets:  targets,
		Warning:  warning,
	}
}

// Crew
func (s *DefaultService) CrewOffers(ctx context.Context, viewer string) ([]models.CrewOffer, error) {
	doc := s.store.Load(ctx)
	return fleet.CrewOffers(doc, viewer, s.catalog), nil
}

func (s *DefaultService) ToggleCrew(ctx context.Context, pilot string, shipID int64) (*models.CrewToggleResponse, error) {
	doc := s.store.Load(ctx)
	if _, ok := doc.Users[pilot]; !ok {
		return nil, fleet.ErrPilotNotFound
	}

	rec, ok := fleet.FindShip(doc, shipID)
	if !ok {
		s.metrics.Mutations.WithLabelValues("crew", "rejected").Inc()
		return nil, fleet.ErrShipNotFound
	}
	crewMax := rec.CrewMax

	joined, err := fleet.ToggleCrewSignup(doc, shipID, pilot, crewMax)
	if err != nil {
		s.metrics.Mutations.WithLabelValues("crew", "rejected").Inc()
		return nil, err
	}

	warning, err := s.save(ctx, "crew", doc)
	if err != nil {
		return nil, err
	}

	rec, _ = fleet.FindShip(doc, shipID)
	return &models.CrewToggleResponse{
		Status:   "success",
		Joined:   joined,
		CrewList: append([]string{}, rec.CrewList...),
		CrewMax:  crewMax,
		Warning:  warning,
	}, nil
}

// Corporation views
func (s *DefaultService) CorpoStats(ctx context.Context) (models.CorpoStats, error) {
	return fleet.Stats(s.store.Load(ctx)), nil
}

func (s *DefaultService) CorpoFleet(ctx context.Context, role string) (models.FleetOverview, error) {
	return fleet.Overview(s.store.Load(ctx), role, s.catalog), nil
}

func (s *DefaultService) Registry(ctx context.Context, search string) ([]models.RegistryRow, error) {
	return fleet.Registry(s.store.Load(ctx), search, s.catalog), nil
}

func (s *DefaultService) Members(ctx context.Context) ([]models.Member, error) {
	return fleet.Members(s.store.Load(ctx)), nil
}

// BrowseCatalog returns one page of the catalog priced for source
func (s *DefaultService) BrowseCatalog(source string, q catalog.Query) *models.CatalogResponse {
	if source != models.SourceIngame {
		source = models.SourceStore
	}
	page := s.catalog.Browse(q)

	ships := make([]models.CatalogShip, 0, len(page.Ships))
	for _, ship := range page.Ships {
		ships = append(ships, models.CatalogShip{
			Name:     ship.Name,
			Brand:    ship.Brand,
			Role:     ship.Role,
			Price:    ship.Price(source),
			Image:    ship.Image,
			CrewMax:  ship.CrewMax,
			Ingame:   ship.Ingame,
			Flagship: s.catalog.IsHighValue(ship.Name),
		})
	}

	return &models.CatalogResponse{
		Status:     "success",
		Source:     source,
		Ships:      ships,
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		Brands:     s.catalog.Brands(),
		Roles:      s.catalog.Roles(),
	}
}

// Administration
func (s *DefaultService) DeletePilot(ctx context.Context, pilot string) (*models.MutationResponse, error) {
	doc := s.store.Load(ctx)

	removed, err := fleet.DeletePilot(doc, pilot)
	if err != nil {
		s.metrics.Mutations.WithLabelValues("delete_pilot", "rejected").Inc()
		return nil, err
	}

	warning, err := s.save(ctx, "delete_pilot", doc)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Deleted pilot %s and %d ship(s)", pilot, removed)
	return &models.MutationResponse{
		Status:   "success",
		Message:  fmt.Sprintf("pilot %s deleted", pilot),
		Affected: removed,
		Warning:  warning,
	}, nil
}

func (s *DefaultService) UpdateCorpoCode(ctx context.Context, req models.UpdateCorpoCodeRequest) (*models.MutationResponse, error) {
	doc := s.store.Load(ctx)

	if err := fleet.SetCorpoCode(doc, req.CorpoCode); err != nil {
		return nil, err
	}

	warning, err := s.save(ctx, "corpo_code", doc)
	if err != nil {
		return nil, err
	}
	return &models.MutationResponse{
		Status:  "success",
		Message: "corporation code updated",
		Warning: warning,
	}, nil
}

// ExportDocument returns the encoded normalized document and its digest
func (s *DefaultService) ExportDocument(ctx context.Context) ([]byte, string, error) {
	data, err := models.EncodeDocument(s.store.Load(ctx))
	if err != nil {
		return nil, "", fmt.Errorf("error encoding document: %w", err)
	}
	return data, models.Digest(data), nil
}

// save persists doc and returns the warning to surface to the client
func (s *DefaultService) save(ctx context.Context, op string, doc *models.Document) (string, error) {
	result, err := s.store.Save(ctx, doc)
	s.metrics.Mutations.WithLabelValues(op, result.String()).Inc()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return result.Warning(), nil
}

// Helper methods
func (s *DefaultService) generateJWT(pilot string, admin bool) (string, error) {
	now := time.Now()

	claims := Claims{
		Admin: admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   pilot,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
