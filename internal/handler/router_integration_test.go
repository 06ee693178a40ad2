package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/farmtrust/livestock-api/internal/models"
	"github.com/farmtrust/livestock-api/internal/repository"
	"github.com/farmtrust/livestock-api/internal/service"
	"github.com/farmtrust/livestock-api/pkg/config"
	"github.com/farmtrust/livestock-api/pkg/storage"
)

// memStore is a single in-memory backend standing in for the Postgres
// repositories, shared by every service under test.
type memStore struct {
	users        map[int64]*models.User
	usersByEmail map[string]*models.User
	tokens       map[string]*models.RefreshToken
	animals      map[int64]*models.Animal
	records      map[int64]*models.Record
	nextUser     int64
	nextAnimal   int64
	nextRecord   int64
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[int64]*models.User),
		usersByEmail: make(map[string]*models.User),
		tokens:       make(map[string]*models.RefreshToken),
		animals:      make(map[int64]*models.Animal),
		records:      make(map[int64]*models.Record),
		nextUser:     1,
		nextAnimal:   1,
		nextRecord:   1,
	}
}

func (m *memStore) Create(_ context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	user.ID = m.nextUser
	m.nextUser++
	m.users[user.ID] = user
	m.usersByEmail[user.Email] = user
	return nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := m.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *memStore) UpdateLastLogin(_ context.Context, id int64, ts time.Time) error {
	if user, ok := m.users[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (m *memStore) RevokeUserRefreshTokens(_ context.Context, userID int64) error {
	for _, token := range m.tokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (m *memStore) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *memStore) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *memStore) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.tokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

type memAnimals struct{ store *memStore }

func (m memAnimals) Create(_ context.Context, animal *models.Animal) error {
	animal.ID = m.store.nextAnimal
	m.store.nextAnimal++
	clone := *animal
	m.store.animals[animal.ID] = &clone
	return nil
}

func (m memAnimals) GetByID(_ context.Context, id int64) (*models.Animal, error) {
	animal, ok := m.store.animals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *animal
	return &clone, nil
}

func (m memAnimals) GetByTag(_ context.Context, tag string) (*models.Animal, error) {
	normalized := models.NormalizeTag(tag)
	for _, animal := range m.store.animals {
		if animal.TagID == normalized {
			clone := *animal
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m memAnimals) ExistsByTag(_ context.Context, tag string) (bool, error) {
	_, err := m.GetByTag(context.Background(), tag)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (m memAnimals) ListByFarmer(_ context.Context, farmerID int64) ([]models.Animal, error) {
	var out []models.Animal
	for _, animal := range m.store.animals {
		if animal.FarmerID == farmerID {
			out = append(out, *animal)
		}
	}
	return out, nil
}

func (m memAnimals) ListActiveByFarmer(ctx context.Context, farmerID int64) ([]models.Animal, error) {
	animals, _ := m.ListByFarmer(ctx, farmerID)
	var out []models.Animal
	for _, animal := range animals {
		if animal.Status == models.AnimalStatusActive {
			out = append(out, animal)
		}
	}
	return out, nil
}

func (m memAnimals) UpdateProfile(_ context.Context, params repository.UpdateAnimalParams) error {
	animal, ok := m.store.animals[params.ID]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Breed != nil {
		animal.Breed = *params.Breed
	}
	if params.BasePrice != nil {
		animal.BasePrice = *params.BasePrice
	}
	if params.TargetPrice != nil {
		animal.TargetPrice = *params.TargetPrice
	}
	return nil
}

func (m memAnimals) Delete(_ context.Context, id int64) error {
	if _, ok := m.store.animals[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.store.animals, id)
	for recordID, record := range m.store.records {
		if record.AnimalID == id {
			delete(m.store.records, recordID)
		}
	}
	return nil
}

type memRecords struct{ store *memStore }

func (m memRecords) Create(_ context.Context, record *models.Record) error {
	record.ID = m.store.nextRecord
	m.store.nextRecord++
	if record.RequestStatus == "" {
		record.RequestStatus = models.RequestStatusCompleted
	}
	clone := *record
	m.store.records[record.ID] = &clone
	return nil
}

func (m memRecords) GetByID(_ context.Context, id int64) (*models.Record, error) {
	record, ok := m.store.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *record
	return &clone, nil
}

func (m memRecords) Approve(_ context.Context, params repository.ApproveParams) error {
	record, ok := m.store.records[params.ID]
	if !ok || record.RequestStatus != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	record.RequestStatus = models.RequestStatusApproved
	record.VaccinationDate = &params.VaccinationDate
	record.NextDueDate = &params.NextDueDate
	record.WithdrawalEnd = &params.WithdrawalEnd
	record.WithdrawalDays = params.WithdrawalDays
	return nil
}

func (m memRecords) Reject(_ context.Context, id int64, notes string) error {
	record, ok := m.store.records[id]
	if !ok || record.RequestStatus != models.RequestStatusPending {
		return sql.ErrNoRows
	}
	record.RequestStatus = models.RequestStatusRejected
	record.Notes = &notes
	return nil
}

func (m memRecords) SignOff(_ context.Context, params repository.SignOffParams) error {
	record, ok := m.store.records[params.ID]
	if !ok || record.IsVerified {
		return sql.ErrNoRows
	}
	record.IsVerified = true
	record.RequestStatus = models.RequestStatusCompleted
	record.VetID = &params.VetID
	record.VerifiedAt = &params.VerifiedAt
	record.WithdrawalEnd = &params.WithdrawalEnd
	record.WithdrawalDays = params.WithdrawalDays
	record.BatchNumber = &params.BatchNumber
	record.Dosage = &params.Dosage
	record.ClinicalNotes = &params.ClinicalNotes
	return nil
}

func (m memRecords) DeleteVerified(_ context.Context, id int64) error {
	record, ok := m.store.records[id]
	if !ok || !record.IsVerified {
		return sql.ErrNoRows
	}
	delete(m.store.records, id)
	return nil
}

func (m memRecords) HasVerifiedForAnimal(_ context.Context, animalID int64) (bool, error) {
	for _, record := range m.store.records {
		if record.AnimalID == animalID && record.IsVerified {
			return true, nil
		}
	}
	return false, nil
}

func (m memRecords) CertifiedAnimalIDs(_ context.Context, animalIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, id := range animalIDs {
		certified, _ := m.HasVerifiedForAnimal(context.Background(), id)
		if certified {
			out[id] = true
		}
	}
	return out, nil
}

func (m memRecords) detail(record *models.Record) models.RecordDetail {
	detail := models.RecordDetail{Record: *record}
	if animal, ok := m.store.animals[record.AnimalID]; ok {
		detail.AnimalTag = animal.TagID
		detail.AnimalBreed = animal.Breed
		detail.AnimalSpecies = animal.Species
		detail.FarmerID = animal.FarmerID
		detail.AnimalBasePrice = animal.BasePrice
	}
	return detail
}

func (m memRecords) ListByAnimal(_ context.Context, animalID int64) ([]models.RecordDetail, error) {
	var out []models.RecordDetail
	for _, record := range m.store.records {
		if record.AnimalID == animalID {
			out = append(out, m.detail(record))
		}
	}
	return out, nil
}

func (m memRecords) ListPendingRequests(_ context.Context) ([]models.RecordDetail, error) {
	var out []models.RecordDetail
	for _, record := range m.store.records {
		if record.RequestStatus == models.RequestStatusPending {
			out = append(out, m.detail(record))
		}
	}
	return out, nil
}

func (m memRecords) ListPendingSignoffs(_ context.Context) ([]models.RecordDetail, error) {
	var out []models.RecordDetail
	for _, record := range m.store.records {
		if record.RequestStatus == models.RequestStatusApproved && !record.IsVerified {
			out = append(out, m.detail(record))
		}
	}
	return out, nil
}

func (m memRecords) ListUnverified(_ context.Context) ([]models.RecordDetail, error) {
	var out []models.RecordDetail
	for _, record := range m.store.records {
		if !record.IsVerified && record.RequestStatus != models.RequestStatusPending {
			out = append(out, m.detail(record))
		}
	}
	return out, nil
}

func (m memRecords) ListVerified(_ context.Context, farmerID *int64) ([]models.RecordDetail, error) {
	var out []models.RecordDetail
	for _, record := range m.store.records {
		if !record.IsVerified {
			continue
		}
		detail := m.detail(record)
		if farmerID != nil && detail.FarmerID != *farmerID {
			continue
		}
		out = append(out, detail)
	}
	return out, nil
}

func (m memRecords) ListDueForVaccination(_ context.Context, animalIDs []int64, today time.Time) ([]models.RecordDetail, error) {
	ids := make(map[int64]bool, len(animalIDs))
	for _, id := range animalIDs {
		ids[id] = true
	}
	var out []models.RecordDetail
	for _, record := range m.store.records {
		if ids[record.AnimalID] && record.IsVerified && record.NextDueDate != nil && !record.NextDueDate.After(today) {
			out = append(out, m.detail(record))
		}
	}
	return out, nil
}

type testAPI struct {
	router *gin.Engine
	store  *memStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemStore()
	animals := memAnimals{store: store}
	records := memRecords{store: store}
	logr := zap.NewNop()

	cfg := &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Exports:   config.ExportsConfig{Enabled: true},
	}

	auth := service.NewAuthService(store, nil, logr, service.AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "livestock-api",
	})

	projections := service.NewProjectionService(records, animals, 0, nil, logr)

	archive, err := storage.NewArchive(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(projections, archive, storage.NewTokenSigner("test-secret", time.Hour), service.ExportOptions{
		Workers:  1,
		BasePath: cfg.APIPrefix,
	})
	exportCtx, stopExports := context.WithCancel(context.Background())
	exports.Start(exportCtx)
	t.Cleanup(func() {
		stopExports()
		exports.Stop()
	})

	deps := Dependencies{
		Auth:         auth,
		Livestock:    service.NewLivestockService(animals, store, nil, logr),
		Valuation:    service.NewValuationService(animals, records, "NGN", logr),
		Vaccinations: service.NewVaccinationService(records, animals, nil, logr),
		Projections:  projections,
		Exports:      exports,
		Metrics:      service.NewMetricsService(),
	}

	return &testAPI{router: NewRouter(cfg, logr, deps), store: store}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) signup(t *testing.T, email, role string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username":  strings.SplitN(email, "@", 2)[0],
		"email":     email,
		"password":  "secret123",
		"full_name": "Test User",
		"role":      role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var envelope struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	return envelope.Data.AccessToken
}

func dataField(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestRoutesRequireAuthentication(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/v1/livestock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVetCannotRegisterAnimals(t *testing.T) {
	api := newTestAPI(t)
	vetToken := api.signup(t, "vet@example.com", "VET")

	rec := api.do(t, http.MethodPost, "/api/v1/livestock", vetToken, gin.H{
		"tag_id": "COW-001", "breed": "Holstein", "species": "Cattle",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestFarmerCannotUseVetQueues(t *testing.T) {
	api := newTestAPI(t)
	farmerToken := api.signup(t, "farmer@example.com", "FARMER")

	for _, path := range []string{
		"/api/v1/vaccinations/requests/pending",
		"/api/v1/vaccinations/signoffs/pending",
		"/api/v1/livestock/search?tag=COW-001",
	} {
		rec := api.do(t, http.MethodGet, path, farmerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestFullWorkflowLiftsValuation(t *testing.T) {
	api := newTestAPI(t)
	farmerToken := api.signup(t, "farmer@example.com", "FARMER")
	vetToken := api.signup(t, "vet@example.com", "VET")

	rec := api.do(t, http.MethodPost, "/api/v1/livestock", farmerToken, gin.H{
		"tag_id": "COW-001", "breed": "Holstein", "species": "Cattle",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	animalID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/livestock/%d/valuation", animalID), farmerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 500000.0, dataField(t, rec)["estimated_value"].(float64), 0.001)

	rec = api.do(t, http.MethodPost, "/api/v1/vaccinations/requests", farmerToken, gin.H{
		"animal_id": animalID, "vaccination_type": "Brucellosis",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	recordID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/vaccinations/requests/%d/approve", recordID), vetToken, gin.H{
		"vaccination_date": "2026-03-01", "next_due_date": "2027-03-01",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/vaccinations/%d/signoff", recordID), vetToken, gin.H{
		"batch_number":           "BATCH-42",
		"dosage":                 "5ml",
		"withdrawal_period_days": 30,
		"clinical_notes":         "No adverse reaction",
		"digital_pin":            "1234",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, fmt.Sprintf("/api/v1/livestock/%d/valuation", animalID), farmerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 575000.0, dataField(t, rec)["estimated_value"].(float64), 0.001)
}

func TestSignOffByFarmerForbidden(t *testing.T) {
	api := newTestAPI(t)
	farmerToken := api.signup(t, "farmer@example.com", "FARMER")

	rec := api.do(t, http.MethodPost, "/api/v1/livestock", farmerToken, gin.H{
		"tag_id": "COW-001", "breed": "Holstein", "species": "Cattle",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	animalID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodPost, "/api/v1/vaccinations", farmerToken, gin.H{
		"animal_id":        animalID,
		"vaccination_type": "FMD",
		"vaccination_date": "2026-01-10",
		"next_due_date":    "2026-07-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	recordID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/vaccinations/%d/signoff", recordID), farmerToken, gin.H{
		"batch_number":           "BATCH-42",
		"dosage":                 "5ml",
		"withdrawal_period_days": 0,
		"clinical_notes":         "n/a",
		"digital_pin":            "1234",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDuplicateTagConflictOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	farmerToken := api.signup(t, "farmer@example.com", "FARMER")

	rec := api.do(t, http.MethodPost, "/api/v1/livestock", farmerToken, gin.H{
		"tag_id": "COW-001", "breed": "Holstein", "species": "Cattle",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/v1/livestock", farmerToken, gin.H{
		"tag_id": "cow-001", "breed": "Angus", "species": "Cattle",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExportVerifiedCSV(t *testing.T) {
	api := newTestAPI(t)
	farmerToken := api.signup(t, "farmer@example.com", "FARMER")
	vetToken := api.signup(t, "vet@example.com", "VET")

	rec := api.do(t, http.MethodPost, "/api/v1/livestock", farmerToken, gin.H{
		"tag_id": "COW-001", "breed": "Holstein", "species": "Cattle",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	animalID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodPost, "/api/v1/vaccinations", farmerToken, gin.H{
		"animal_id":        animalID,
		"vaccination_type": "Antibiotic",
		"vaccination_date": "2026-01-10",
		"next_due_date":    "2026-07-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	recordID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/vaccinations/%d/signoff", recordID), vetToken, gin.H{
		"batch_number":           "BATCH-42",
		"dosage":                 "5ml",
		"withdrawal_period_days": 21,
		"clinical_notes":         "ok",
		"digital_pin":            "1234",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/api/v1/vaccinations/verified/export?format=csv", farmerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "COW-001")
}

func TestAsyncExportDownloadFlow(t *testing.T) {
	api := newTestAPI(t)
	farmerToken := api.signup(t, "farmer@example.com", "FARMER")
	vetToken := api.signup(t, "vet@example.com", "VET")

	rec := api.do(t, http.MethodPost, "/api/v1/livestock", farmerToken, gin.H{
		"tag_id": "COW-002", "breed": "Angus", "species": "Cattle",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	animalID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodPost, "/api/v1/vaccinations", farmerToken, gin.H{
		"animal_id":        animalID,
		"vaccination_type": "Brucellosis",
		"vaccination_date": "2026-01-10",
		"next_due_date":    "2027-01-10",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	recordID := int64(dataField(t, rec)["id"].(float64))

	rec = api.do(t, http.MethodPost, fmt.Sprintf("/api/v1/vaccinations/%d/signoff", recordID), vetToken, gin.H{
		"batch_number":           "BATCH-7",
		"dosage":                 "2ml",
		"withdrawal_period_days": 30,
		"clinical_notes":         "ok",
		"digital_pin":            "4321",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodPost, "/api/v1/exports?format=csv", farmerToken, nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	exportID := dataField(t, rec)["id"].(string)

	var downloadURL string
	require.Eventually(t, func() bool {
		rec := api.do(t, http.MethodGet, "/api/v1/exports/"+exportID, farmerToken, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		data := dataField(t, rec)
		if data["status"] != "ready" {
			return false
		}
		downloadURL = data["download_url"].(string)
		return true
	}, 2*time.Second, 10*time.Millisecond)

	// the signed link works without a session
	rec = api.do(t, http.MethodGet, downloadURL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "COW-002")

	// a stranger cannot see the job, and a bad token is refused
	rec = api.do(t, http.MethodGet, "/api/v1/exports/"+exportID, vetToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/v1/exports/"+exportID+"/download?token=bogus", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetricsExposed(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
