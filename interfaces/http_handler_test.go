package interfaces_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/domain"
	"jobboard/infrastructure/testdb"
	"jobboard/interfaces"
)

func TestListJobsDefaultsToPublished(t *testing.T) {
	s := newServer(t, testConfig())
	owner, token := s.user("owner@example.com", false)
	testdb.Job(t, s.db, owner, domain.JobPublished, testdb.WithTitle("Python Developer"))
	testdb.Job(t, s.db, owner, domain.JobPublished, testdb.WithTitle("Java Developer"))
	testdb.Job(t, s.db, owner, domain.JobDraft, testdb.WithTitle("Secret Draft"))

	w := s.do(http.MethodGet, "/api/jobs/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 2, body["count"])
	assert.EqualValues(t, 20, body["page_size"])
	for _, r := range body["results"].([]any) {
		assert.Equal(t, "published", r.(map[string]any)["status"])
	}

	w = s.do(http.MethodGet, "/api/jobs/?search=python", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(http.MethodGet, "/api/jobs/?status=draft", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"], "anonymous callers never see drafts")

	w = s.do(http.MethodGet, "/api/jobs/?status=draft", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(http.MethodGet, "/api/jobs/?category=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJob(t *testing.T) {
	s := newServer(t, testConfig())
	_, token := s.user("owner@example.com", false)
	eng := testdb.Category(t, s.db, "Engineering")

	payload := map[string]any{
		"title":        "Go Developer",
		"description":  "Write Go",
		"company_name": "Acme",
		"location":     "Remote",
		"salary_min":   "50000",
		"salary_max":   80000,
		"category_id":  eng.ID,
	}

	w := s.do(http.MethodPost, "/api/jobs/", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication credentials were not provided.", decode(t, w)["detail"])

	w = s.do(http.MethodPost, "/api/jobs/", token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "draft", body["status"])
	assert.Equal(t, "owner@example.com", body["created_by_email"])
	assert.Equal(t, "50000.00", body["salary_min"])
	assert.Equal(t, "80000.00", body["salary_max"])
	assert.Nil(t, body["published_at"])
	assert.Equal(t, "Engineering", body["category"].(map[string]any)["name"])

	payload["salary_min"] = 90000
	w = s.do(http.MethodPost, "/api/jobs/", token, payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []any{"Maximum salary must be greater than minimum salary"}, decode(t, w)["salary_max"])
}

func TestInvalidTokenIsRejected(t *testing.T) {
	s := newServer(t, testConfig())
	w := s.do(http.MethodGet, "/api/jobs/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token.", decode(t, w)["detail"])
}

func TestJobDetailAndOwnership(t *testing.T) {
	s := newServer(t, testConfig())
	owner, ownerToken := s.user("owner@example.com", false)
	_, otherToken := s.user("other@example.com", false)
	draft := testdb.Job(t, s.db, owner, domain.JobDraft)
	path := fmt.Sprintf("/api/jobs/%d/", draft.ID)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, path, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/jobs/abc/", "", nil).Code)

	w := s.do(http.MethodPatch, path, otherToken, map[string]any{"title": "Hijacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPatch, path, ownerToken, map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Renamed", body["title"])
	assert.Equal(t, "Acme", body["company_name"], "absent fields are kept")

	w = s.do(http.MethodPut, path, ownerToken, map[string]any{"title": "Only a title"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w), "description")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodDelete, path, otherToken, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, path, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, ownerToken, nil).Code)
}

func TestPublishAndCloseEndpoints(t *testing.T) {
	s := newServer(t, testConfig())
	owner, token := s.user("owner@example.com", false)
	job := testdb.Job(t, s.db, owner, domain.JobDraft)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/jobs/%d/publish/", job.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["changed"])
	published := body["job"].(map[string]any)
	assert.Equal(t, "published", published["status"])
	assert.NotNil(t, published["published_at"])

	w = s.do(http.MethodPost, fmt.Sprintf("/api/jobs/%d/publish/", job.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["changed"])
	assert.Equal(t, published["published_at"], body["job"].(map[string]any)["published_at"])

	for i := 0; i < 2; i++ {
		w = s.do(http.MethodPost, fmt.Sprintf("/api/jobs/%d/close/", job.ID), token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		body = decode(t, w)
		assert.Equal(t, true, body["changed"])
		assert.Equal(t, "closed", body["job"].(map[string]any)["status"])
	}
}

func TestApplyEndpoint(t *testing.T) {
	s := newServer(t, testConfig())
	owner, _ := s.user("owner@example.com", false)
	_, token := s.user("applicant@example.com", false)
	job := testdb.Job(t, s.db, owner, domain.JobPublished, testdb.WithTitle("Go Developer"))
	closed := testdb.Job(t, s.db, owner, domain.JobClosed)
	draft := testdb.Job(t, s.db, owner, domain.JobDraft)
	payload := map[string]any{"cover_letter": "Hi", "resume_url": "https://example.com/cv.pdf"}

	path := fmt.Sprintf("/api/jobs/%d/apply/", job.ID)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, path, "", payload).Code)

	w := s.do(http.MethodPost, path, token, payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "Go Developer", body["job_title"])
	assert.Equal(t, "applicant@example.com", body["applicant_email"])
	assert.Nil(t, body["reviewed_at"])

	w = s.do(http.MethodPost, path, token, payload)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You have already applied for this job", decode(t, w)["error"])

	for _, j := range []*domain.Job{closed, draft} {
		w = s.do(http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply/", j.ID), token, payload)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "You can only apply to published jobs", decode(t, w)["error"])
	}

	w = s.do(http.MethodPost, "/api/jobs/9999/apply/", token, payload)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApplyIsThrottled(t *testing.T) {
	cfg := testConfig()
	cfg.Server.ApplyRatePerMinute = 1
	s := newServer(t, cfg)
	owner, _ := s.user("owner@example.com", false)
	_, token := s.user("applicant@example.com", false)
	first := testdb.Job(t, s.db, owner, domain.JobPublished)
	second := testdb.Job(t, s.db, owner, domain.JobPublished)

	w := s.do(http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply/", first.ID), token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, fmt.Sprintf("/api/jobs/%d/apply/", second.ID), token, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestApplicationsEndpoints(t *testing.T) {
	s := newServer(t, testConfig())
	owner, _ := s.user("owner@example.com", false)
	alice, aliceToken := s.user("alice@example.com", false)
	bob, bobToken := s.user("bob@example.com", false)
	_, staffToken := s.user("staff@example.com", true)
	job := testdb.Job(t, s.db, owner, domain.JobPublished)
	other := testdb.Job(t, s.db, owner, domain.JobPublished)
	aliceApp := testdb.Application(t, s.db, job, alice, domain.ApplicationPending)
	testdb.Application(t, s.db, job, bob, domain.ApplicationPending)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/applications/", "", nil).Code)

	w := s.do(http.MethodGet, "/api/applications/", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = s.do(http.MethodGet, "/api/applications/", staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	appPath := fmt.Sprintf("/api/applications/%d/", aliceApp.ID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, appPath, aliceToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, appPath, bobToken, nil).Code)

	w = s.do(http.MethodPost, "/api/applications/", bobToken, map[string]any{"job": other.ID, "cover_letter": "Me too"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, other.ID, decode(t, w)["job"])

	w = s.do(http.MethodPost, "/api/applications/", bobToken, map[string]any{"cover_letter": "No job"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w), "job")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, appPath, bobToken, nil).Code)
	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, appPath, aliceToken, nil).Code)
}

func TestReviewEndpoint(t *testing.T) {
	s := newServer(t, testConfig())
	owner, ownerToken := s.user("owner@example.com", false)
	applicant, _ := s.user("applicant@example.com", false)
	_, staffToken := s.user("staff@example.com", true)
	job := testdb.Job(t, s.db, owner, domain.JobPublished)
	app := testdb.Application(t, s.db, job, applicant, domain.ApplicationPending)
	path := fmt.Sprintf("/api/applications/%d/review/", app.ID)

	w := s.do(http.MethodPost, path, ownerToken, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Only staff can review applications", decode(t, w)["error"])

	w = s.do(http.MethodGet, fmt.Sprintf("/api/applications/%d/", app.ID), staffToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode(t, w)["status"])

	w = s.do(http.MethodPost, path, staffToken, map[string]any{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid status. Must be one of: reviewed, accepted, rejected", decode(t, w)["error"])

	w = s.do(http.MethodPost, path, staffToken, map[string]any{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "accepted", body["status"])
	assert.NotNil(t, body["reviewed_at"])
}

func TestStatisticsEndpoint(t *testing.T) {
	s := newServer(t, testConfig())
	owner, ownerToken := s.user("owner@example.com", false)
	_, otherToken := s.user("other@example.com", false)
	job := testdb.Job(t, s.db, owner, domain.JobPublished)
	for i, st := range []domain.ApplicationStatus{
		domain.ApplicationPending, domain.ApplicationPending,
		domain.ApplicationAccepted, domain.ApplicationRejected,
	} {
		u := testdb.User(t, s.db, fmt.Sprintf("applicant%d@example.com", i), false)
		testdb.Application(t, s.db, job, u, st)
	}
	path := fmt.Sprintf("/api/jobs/%d/statistics/", job.ID)

	w := s.do(http.MethodGet, path, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"total": 4.0, "pending": 2.0, "accepted": 1.0, "rejected": 1.0}, decode(t, w))

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, path, otherToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/jobs/9999/statistics/", ownerToken, nil).Code)
}

func TestCategoriesEndpoint(t *testing.T) {
	s := newServer(t, testConfig())
	testdb.Category(t, s.db, "Zeta")
	alpha := testdb.Category(t, s.db, "Alpha")

	w := s.do(http.MethodGet, "/api/categories/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Alpha"`)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/categories/%d/", alpha.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Alpha", decode(t, w)["name"])

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/categories/9999/", "", nil).Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newServer(t, testConfig())
	w := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAPIIgnoresTokenCookie(t *testing.T) {
	s := newServer(t, testConfig())
	owner, token := s.user("owner@example.com", false)
	job := testdb.Job(t, s.db, owner, domain.JobPublished)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/jobs/%d/close/", job.ID), strings.NewReader("{}"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Origin", "https://evil.example")
	req.AddCookie(&http.Cookie{Name: interfaces.TokenCookie, Value: token})
	w := s.raw(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())

	var stored domain.Job
	require.NoError(t, s.db.First(&stored, job.ID).Error)
	assert.Equal(t, domain.JobPublished, stored.Status)

	req = httptest.NewRequest(http.MethodPost, "/api/jobs/", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	w = s.raw(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
