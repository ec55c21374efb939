package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/roadwatch/backend/internal/apperrors"
	"github.com/roadwatch/backend/internal/media"
	mw "github.com/roadwatch/backend/internal/middleware"
	"github.com/roadwatch/backend/internal/models"
	"github.com/roadwatch/backend/internal/repositories"
	"github.com/roadwatch/backend/internal/services"
	"github.com/roadwatch/backend/validators"
)

const testSecret = "test-secret"

// memReportRepo is an in-memory ReportRepository for handler tests
type memReportRepo struct {
	reports map[string]*models.Report
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: map[string]*models.Report{}}
}

func (m *memReportRepo) CreateReport(_ context.Context, report *models.Report) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	cp := *report
	m.reports[report.ID.Hex()] = &cp
	return nil
}

func (m *memReportRepo) GetReportByID(_ context.Context, id string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok || r.Deleted {
		return nil, repositories.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReportRepo) GetReportByIDAndOwner(_ context.Context, id, ownerID string) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok || r.Deleted || r.OwnerID != ownerID {
		return nil, repositories.ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReportRepo) GetReportsByIDs(_ context.Context, ids []string) ([]models.Report, error) {
	out := []models.Report{}
	for _, id := range ids {
		if r, ok := m.reports[id]; ok && !r.Deleted {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReportRepo) GetReportsByOwner(_ context.Context, ownerID string, _, _ int64) ([]models.Report, error) {
	out := []models.Report{}
	for _, r := range m.reports {
		if !r.Deleted && r.OwnerID == ownerID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReportRepo) GetAllReports(_ context.Context, _, _ int64) ([]models.Report, error) {
	out := []models.Report{}
	for _, r := range m.reports {
		if !r.Deleted {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReportRepo) GetReportsByStatus(_ context.Context, status string, _, _ int64) ([]models.Report, error) {
	out := []models.Report{}
	for _, r := range m.reports {
		if !r.Deleted && r.Status == status {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memReportRepo) SoftDeleteReport(_ context.Context, id, ownerID string) error {
	r, ok := m.reports[id]
	if !ok || r.Deleted || r.OwnerID != ownerID {
		return repositories.ErrReportNotFound
	}
	r.Deleted = true
	return nil
}

func (m *memReportRepo) ReviewReport(_ context.Context, id, status, reason string, priority *int) error {
	r, ok := m.reports[id]
	if !ok || r.Deleted {
		return repositories.ErrReportNotFound
	}
	if r.Status != models.StatusSubmitted {
		return repositories.ErrAlreadyReviewed
	}
	r.Status = status
	r.ReviewReason = reason
	r.Priority = priority
	return nil
}

// memReactionRepo is an in-memory ReactionRepository
type memReactionRepo struct {
	rows []models.Reaction
}

func (m *memReactionRepo) UpsertReaction(reaction *models.Reaction) error {
	for i := range m.rows {
		if m.rows[i].ReportID == reaction.ReportID && m.rows[i].UserID == reaction.UserID {
			m.rows[i].ReactionType = reaction.ReactionType
			return nil
		}
	}
	m.rows = append(m.rows, *reaction)
	return nil
}

func (m *memReactionRepo) DeleteReaction(reportID, userID, reactionType string) error {
	for i := range m.rows {
		if m.rows[i].ReportID == reportID && m.rows[i].UserID == userID && m.rows[i].ReactionType == reactionType {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memReactionRepo) GetReactionCounts(reportIDs []string) (map[string]map[string]int64, error) {
	counts := map[string]map[string]int64{}
	for _, row := range m.rows {
		for _, id := range reportIDs {
			if row.ReportID == id {
				if counts[id] == nil {
					counts[id] = map[string]int64{}
				}
				counts[id][row.ReactionType]++
			}
		}
	}
	return counts, nil
}

func (m *memReactionRepo) GetViewerReactions(reportIDs []string, userID string) (map[string][]string, error) {
	viewer := map[string][]string{}
	for _, row := range m.rows {
		for _, id := range reportIDs {
			if row.ReportID == id && row.UserID == userID {
				viewer[id] = append(viewer[id], row.ReactionType)
			}
		}
	}
	return viewer, nil
}

// memCommentRepo is an in-memory CommentRepository
type memCommentRepo struct {
	rows   []models.Comment
	nextID uint
}

func (m *memCommentRepo) CreateComment(comment *models.Comment) error {
	m.nextID++
	comment.ID = m.nextID
	m.rows = append(m.rows, *comment)
	return nil
}

func (m *memCommentRepo) GetCommentsByReportID(reportID string) ([]models.Comment, error) {
	out := []models.Comment{}
	for _, row := range m.rows {
		if row.ReportID == reportID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memCommentRepo) DeleteCommentByIDAndUser(id uint, userID string) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrCommentNotFound
}

func (m *memCommentRepo) GetCommentCounts(reportIDs []string) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, row := range m.rows {
		for _, id := range reportIDs {
			if row.ReportID == id {
				counts[id]++
			}
		}
	}
	return counts, nil
}

// memBlobDest stands in for object storage
type memBlobDest struct{ calls int }

func (d *memBlobDest) Store(_ context.Context, ref media.FileRef, up media.Upload) (models.MediaFile, error) {
	d.calls++
	id := fmt.Sprintf("file-%d", d.calls)
	path := ref.OwnerID + "/" + ref.ReportID + "/" + id
	return models.MediaFile{
		ID:          id,
		FileName:    up.FileName,
		ContentType: up.ContentType,
		SizeBytes:   up.Size,
		UploadedAt:  time.Now(),
		URL:         "https://signed.example.com/" + path,
		ObjectPath:  path,
	}, nil
}

func (d *memBlobDest) SignedURL(objectPath string) (string, error) {
	return "https://signed.example.com/" + objectPath, nil
}

// testApp wires the full Echo stack over the in-memory fakes
type testApp struct {
	e       *echo.Echo
	reports *memReportRepo
}

func newTestApp() *testApp {
	reportRepo := newMemReportRepo()
	reactionRepo := &memReactionRepo{}
	commentRepo := &memCommentRepo{}
	blob := &memBlobDest{}

	reportService := services.NewReportService(reportRepo, media.NewRouter(nil, blob), blob, 1<<20, 1, 5)
	engagementService := services.NewEngagementService(reportRepo, reactionRepo, commentRepo)

	reportHandler := NewReportHandler(reportService)
	engagementHandler := NewEngagementHandler(engagementService)
	commentHandler := NewCommentHandler(engagementService)

	e := echo.New()
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler
	e.Validator = validators.NewValidator()

	public := e.Group("/api/v1/public")
	public.Use(mw.OptionalJWTAuthMiddleware(testSecret))
	reportHandler.RegisterPublicRoutes(public)
	engagementHandler.RegisterPublicRoutes(public)
	commentHandler.RegisterPublicRoutes(public)

	api := e.Group("/api/v1")
	api.Use(mw.JWTAuthMiddleware(testSecret))
	reportHandler.RegisterReportRoutes(api)
	engagementHandler.RegisterReactionRoutes(api)
	commentHandler.RegisterCommentRoutes(api)

	admin := e.Group("/api/v1/admin")
	admin.Use(mw.JWTAuthMiddleware(testSecret), mw.RequireRole(models.RoleAdmin))
	reportHandler.RegisterAdminRoutes(admin)

	return &testApp{e: e, reports: reportRepo}
}

func signToken(t *testing.T, userID, role string) string {
	t.Helper()
	claims := &models.JwtCustomClaims{UserID: userID, Email: userID + "@example.com", Role: role}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (a *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
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
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) seedReport(t *testing.T, ownerID, status string) *models.Report {
	t.Helper()
	report := &models.Report{
		OwnerID:     ownerID,
		Title:       "Near miss at 5th and Pine",
		Description: "Driver failed to yield while turning.",
		OccurredAt:  time.Now().Add(-2 * time.Hour),
		RoadUsages:  []string{"Pedestrian"},
		EventTypes:  []string{"Failure to Yield"},
		State:       "Washington",
		Injuries:    "None",
		Status:      status,
	}
	require.NoError(t, a.reports.CreateReport(context.Background(), report))
	return report
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (code, message string) {
	t.Helper()
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code, body.Message
}

func validCreateBody() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Ran red light on Main St",
		"description": "A car ran the red light while I was in the crosswalk.",
		"occurred_at": time.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339),
		"road_usages": []string{"Auto"},
		"event_types": []string{"Red Light"},
		"state":       "California",
		"injuries":    "None",
	}
}

func TestCreateReportJSON(t *testing.T) {
	app := newTestApp()
	token := signToken(t, "user-1", "user")

	rec := app.request(t, http.MethodPost, "/api/v1/reports", token, validCreateBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, models.StatusSubmitted, report.Status)
	assert.Equal(t, "user-1", report.OwnerID)
	assert.Empty(t, report.MediaFiles)
}

func TestCreateReportMultipartWithMedia(t *testing.T) {
	app := newTestApp()
	token := signToken(t, "user-1", "user")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"title":       "Ran red light on Main St",
		"description": "A car ran the red light while I was in the crosswalk.",
		"occurred_at": time.Now().Add(-3 * time.Hour).UTC().Format(time.RFC3339),
		"state":       "California",
		"injuries":    "None",
	} {
		require.NoError(t, w.WriteField(field, value))
	}
	require.NoError(t, w.WriteField("road_usages", "Auto"))
	require.NoError(t, w.WriteField("event_types", "Red Light"))

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="media"; filename="photo.jpg"`)
	header.Set("Content-Type", "image/jpeg")
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.MediaFiles, 1)
	assert.Equal(t, "photo.jpg", report.MediaFiles[0].FileName)
	assert.Contains(t, report.MediaFiles[0].URL, "signed.example.com")
}

func TestCreateReportValidationErrorShape(t *testing.T) {
	app := newTestApp()
	token := signToken(t, "user-1", "user")

	body := validCreateBody()
	delete(body, "title")

	rec := app.request(t, http.MethodPost, "/api/v1/reports", token, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeValidation, code)
}

func TestCreateReportRequiresAuth(t *testing.T) {
	app := newTestApp()

	rec := app.request(t, http.MethodPost, "/api/v1/reports", "", validCreateBody())
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeUnauthorized, code)
}

func TestGetReportOtherOwnerIs404(t *testing.T) {
	app := newTestApp()
	report := app.seedReport(t, "user-1", models.StatusSubmitted)

	rec := app.request(t, http.MethodGet, "/api/v1/reports/"+report.ID.Hex(), signToken(t, "user-2", "user"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeNotFound, code)
}

func TestPublicFeedListsOnlyApproved(t *testing.T) {
	app := newTestApp()
	approved := app.seedReport(t, "user-1", models.StatusReviewedPass)
	app.seedReport(t, "user-1", models.StatusSubmitted)
	app.seedReport(t, "user-2", models.StatusReviewedFail)

	rec := app.request(t, http.MethodGet, "/api/v1/public/reports", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var feed []models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, approved.ID, feed[0].ID)
}

func TestAdminRoutesRequireElevatedRole(t *testing.T) {
	app := newTestApp()

	rec := app.request(t, http.MethodGet, "/api/v1/admin/reports", signToken(t, "user-1", "user"), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeForbidden, code)

	rec = app.request(t, http.MethodGet, "/api/v1/admin/reports", signToken(t, "admin-1", models.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReviewRejectWithoutReason(t *testing.T) {
	app := newTestApp()
	report := app.seedReport(t, "user-1", models.StatusSubmitted)
	token := signToken(t, "admin-1", models.RoleAdmin)

	rec := app.request(t, http.MethodPost, "/api/v1/admin/reports/"+report.ID.Hex()+"/review", token,
		map[string]interface{}{"status": models.StatusReviewedFail})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	code, _ := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeValidation, code)

	assert.Equal(t, models.StatusSubmitted, app.reports.reports[report.ID.Hex()].Status)
}

func TestReviewApproveShowsUpInPublicFeed(t *testing.T) {
	app := newTestApp()
	report := app.seedReport(t, "user-1", models.StatusSubmitted)
	token := signToken(t, "admin-1", models.RoleAdmin)

	rec := app.request(t, http.MethodPost, "/api/v1/admin/reports/"+report.ID.Hex()+"/review", token,
		map[string]interface{}{"status": models.StatusReviewedPass, "priority": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request(t, http.MethodGet, "/api/v1/public/reports", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed []models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	require.NotNil(t, feed[0].Priority)
	assert.Equal(t, 2, *feed[0].Priority)
}

func TestEngagementFlow(t *testing.T) {
	app := newTestApp()
	report := app.seedReport(t, "owner", models.StatusReviewedPass)
	reportID := report.ID.Hex()

	// three users react, one comments
	for _, user := range []string{"user-1", "user-2", "user-3"} {
		rec := app.request(t, http.MethodPost, "/api/v1/reports/"+reportID+"/reactions", signToken(t, user, "user"),
			map[string]string{"reaction_type": models.ReactionThumbsUp})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := app.request(t, http.MethodPost, "/api/v1/reports/"+reportID+"/comments", signToken(t, "user-1", "user"),
		map[string]string{"content": "Saw this happen too"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// anonymous summary: counts but no viewer reactions
	rec = app.request(t, http.MethodGet, "/api/v1/public/reports/"+reportID+"/engagement", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.EngagementSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, map[string]int64{models.ReactionThumbsUp: 3}, summary.ReactionCounts)
	assert.Empty(t, summary.ViewerReactions)
	assert.Equal(t, int64(1), summary.CommentCount)

	// an authenticated viewer sees their own reaction
	rec = app.request(t, http.MethodGet, "/api/v1/public/reports/"+reportID+"/engagement", signToken(t, "user-2", "user"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, []string{models.ReactionThumbsUp}, summary.ViewerReactions)

	// removing a reaction updates the counts
	rec = app.request(t, http.MethodDelete, "/api/v1/reports/"+reportID+"/reactions/"+models.ReactionThumbsUp, signToken(t, "user-3", "user"), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.request(t, http.MethodGet, "/api/v1/public/reports/"+reportID+"/engagement", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, map[string]int64{models.ReactionThumbsUp: 2}, summary.ReactionCounts)
}

func TestBulkEngagementEndpoint(t *testing.T) {
	app := newTestApp()
	first := app.seedReport(t, "owner", models.StatusReviewedPass)
	second := app.seedReport(t, "owner", models.StatusReviewedPass)

	rec := app.request(t, http.MethodPost, "/api/v1/reports/"+first.ID.Hex()+"/reactions", signToken(t, "user-1", "user"),
		map[string]string{"reaction_type": models.ReactionAngryCar})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.request(t, http.MethodPost, "/api/v1/public/reports/engagement", "",
		map[string][]string{"report_ids": {first.ID.Hex(), second.ID.Hex()}})
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []models.EngagementSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, map[string]int64{models.ReactionAngryCar: 1}, summaries[0].ReactionCounts)
	assert.Empty(t, summaries[1].ReactionCounts)

	// a deleted report disappears from the batch instead of leaking its counts
	require.NoError(t, app.reports.SoftDeleteReport(context.Background(), first.ID.Hex(), "owner"))

	rec = app.request(t, http.MethodPost, "/api/v1/public/reports/engagement", "",
		map[string][]string{"report_ids": {first.ID.Hex(), second.ID.Hex()}})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, second.ID.Hex(), summaries[0].ReportID)
}

func TestDeleteCommentOwnerOnly(t *testing.T) {
	app := newTestApp()
	report := app.seedReport(t, "owner", models.StatusReviewedPass)
	reportID := report.ID.Hex()

	rec := app.request(t, http.MethodPost, "/api/v1/reports/"+reportID+"/comments", signToken(t, "user-1", "user"),
		map[string]string{"content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var comment models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comment))
	commentPath := fmt.Sprintf("/api/v1/reports/%s/comments/%d", reportID, comment.ID)

	rec = app.request(t, http.MethodDelete, commentPath, signToken(t, "user-2", "user"), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request(t, http.MethodDelete, commentPath, signToken(t, "user-1", "user"), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// listing is public
	rec = app.request(t, http.MethodGet, "/api/v1/public/reports/"+reportID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestInvalidTokenRejectedOnOptionalRoutes(t *testing.T) {
	app := newTestApp()
	report := app.seedReport(t, "owner", models.StatusReviewedPass)

	rec := app.request(t, http.MethodGet, "/api/v1/public/reports/"+report.ID.Hex()+"/engagement", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
