package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/campusworks/studyrank/internal/domain"
	"github.com/campusworks/studyrank/internal/domain/resource"
	rankuc "github.com/campusworks/studyrank/internal/usecase/rank"
	recommenduc "github.com/campusworks/studyrank/internal/usecase/recommend"
	"github.com/campusworks/studyrank/internal/vectorspace"
)

// memResources backs both the transport and the recommender in tests.
type memResources struct {
	byKey map[string]resource.Resource
}

func newMemResources(items ...resource.Resource) *memResources {
	m := &memResources{byKey: make(map[string]resource.Resource)}
	for _, res := range items {
		m.byKey[res.Key()] = res
	}
	return m
}

func (m *memResources) ListApproved(_ context.Context, faculty string) ([]resource.Resource, error) {
	var out []resource.Resource
	for _, res := range m.byKey {
		if !res.Approved() {
			continue
		}
		if faculty != "" && res.Faculty() != faculty {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (m *memResources) Get(_ context.Context, category resource.Category, id string) (resource.Resource, error) {
	res, ok := m.byKey[string(category)+":"+id]
	if !ok {
		return resource.Resource{}, domain.ErrResourceNotFound
	}
	return res, nil
}

func (m *memResources) Upsert(_ context.Context, res *resource.Resource) (bool, error) {
	_, existed := m.byKey[res.Key()]
	m.byKey[res.Key()] = *res
	return !existed, nil
}

func (m *memResources) IncrView(_ context.Context, category resource.Category, id string, at time.Time) error {
	res, ok := m.byKey[string(category)+":"+id]
	if !ok {
		return domain.ErrResourceNotFound
	}
	m.byKey[res.Key()] = resource.Reconstruct(
		res.ID(), res.Category(), res.Title(), res.Description(), res.Content(),
		res.Subject(), res.Faculty(), res.Status(),
		res.ViewCount()+1, res.DownloadCount(), at,
	)
	return nil
}

func (m *memResources) IncrDownload(_ context.Context, category resource.Category, id string) error {
	if !category.Downloadable() {
		return domain.ErrInvalidResource
	}
	res, ok := m.byKey[string(category)+":"+id]
	if !ok {
		return domain.ErrResourceNotFound
	}
	m.byKey[res.Key()] = resource.Reconstruct(
		res.ID(), res.Category(), res.Title(), res.Description(), res.Content(),
		res.Subject(), res.Faculty(), res.Status(),
		res.ViewCount(), res.DownloadCount()+1, res.LastViewed(),
	)
	return nil
}

type stubActivity struct {
	entries []resource.ActivityEntry
}

func (s *stubActivity) Record(_ context.Context, entry resource.ActivityEntry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubActivity) Recent(context.Context, string, time.Time) ([]resource.ActivityEntry, error) {
	return nil, nil
}

func (s *stubActivity) MostRecentView(context.Context, string) (resource.ActivityEntry, error) {
	return resource.ActivityEntry{}, domain.ErrNotFound
}

type stubProfiles struct{}

func (stubProfiles) FacultyOf(context.Context, string) (string, error) { return "", nil }

type okPinger struct{ err error }

func (p okPinger) Ping(context.Context) error { return p.err }

func fixture(id string, category resource.Category, title, faculty string, views, downloads int64) resource.Resource {
	return resource.Reconstruct(
		id, category, title, "about "+title, "content on "+title, "Computer Science", faculty,
		resource.StatusApproved, views, downloads, time.Time{},
	)
}

func newTestRouter(res *memResources, act *stubActivity, health pinger) *gochi.Mux {
	builder := vectorspace.New()
	ranker := rankuc.New(builder)
	recommender := recommenduc.New(res, act, stubProfiles{}, builder, nil)
	srv := NewServer(ranker, recommender, res, act, health, Limits{
		SearchDefault: 20, SearchMax: 100, PerCategory: 10,
		RecommendDefault: 5, RecommendMax: 20,
	}, zap.NewNop())

	r := gochi.NewRouter()
	srv.Routes(r)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGetSearch_MissingQuery(t *testing.T) {
	r := newTestRouter(newMemResources(), &stubActivity{}, okPinger{})
	rr := doRequest(t, r, "GET", "/search", "")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetSearch_RanksMatches(t *testing.T) {
	res := newMemResources(
		fixture("1", resource.Note, "data structures and algorithms", "BSc CSIT", 0, 0),
		fixture("2", resource.Note, "organizational behaviour", "BSc CSIT", 0, 0),
	)
	r := newTestRouter(res, &stubActivity{}, okPinger{})

	rr := doRequest(t, r, "GET", "/search?q=data+structures", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp searchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count == 0 {
		t.Fatal("expected at least one result")
	}
	if resp.Results[0].ID != "1" {
		t.Errorf("top result = %s, want the data structures note", resp.Results[0].ID)
	}
}

func TestGetSearch_Grouped(t *testing.T) {
	res := newMemResources(
		fixture("1", resource.Note, "data structures notes", "BSc CSIT", 0, 0),
		fixture("2", resource.Syllabus, "data structures syllabus", "BSc CSIT", 0, 0),
	)
	r := newTestRouter(res, &stubActivity{}, okPinger{})

	rr := doRequest(t, r, "GET", "/search?q=data+structures&grouped=true", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp searchGroupedResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Groups["notes"]) != 1 || len(resp.Groups["syllabi"]) != 1 {
		t.Errorf("groups = %v, want one note and one syllabus", resp.Groups)
	}
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if resp.Counts["notes"] != 1 || resp.Counts["vivas"] != 0 {
		t.Errorf("counts = %v, want notes:1 vivas:0", resp.Counts)
	}
}

func TestGetTrending_OrdersByPopularity(t *testing.T) {
	res := newMemResources(
		fixture("quiet", resource.Note, "quiet note", "BSc CSIT", 1, 0),
		fixture("hot", resource.Note, "hot note", "BSc CSIT", 10, 5),
	)
	r := newTestRouter(res, &stubActivity{}, okPinger{})

	rr := doRequest(t, r, "GET", "/recommendations/trending?faculty=BSc+CSIT", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp recommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 || resp.Results[0].ID != "hot" {
		t.Errorf("results = %+v, want hot note first", resp.Results)
	}
}

func TestGetFacultyOverview(t *testing.T) {
	res := newMemResources(
		fixture("hot", resource.Note, "hot note", "BSc CSIT", 10, 5),
	)
	r := newTestRouter(res, &stubActivity{}, okPinger{})

	rr := doRequest(t, r, "GET", "/recommendations/overview?faculty=BSc+CSIT", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	var resp bundleResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Trending) != 1 || len(resp.Personalized) != 0 {
		t.Errorf("overview = %+v, want trending only", resp)
	}

	rr = doRequest(t, r, "GET", "/recommendations/overview", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing faculty: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetRecommendations_MissingUser(t *testing.T) {
	r := newTestRouter(newMemResources(), &stubActivity{}, okPinger{})
	rr := doRequest(t, r, "GET", "/recommendations", "")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetSimilar_UnknownCategory(t *testing.T) {
	r := newTestRouter(newMemResources(), &stubActivity{}, okPinger{})
	rr := doRequest(t, r, "GET", "/resources/bogus/1/similar", "")

	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}

	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != errCodeUnknownCategory {
		t.Errorf("error code = %s, want %s", errResp.Code, errCodeUnknownCategory)
	}
}

func TestGetSimilar_MissingResource(t *testing.T) {
	r := newTestRouter(newMemResources(), &stubActivity{}, okPinger{})
	rr := doRequest(t, r, "GET", "/resources/note/missing/similar", "")

	if rr.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestPutResource_CreateAndUpdate(t *testing.T) {
	res := newMemResources()
	r := newTestRouter(res, &stubActivity{}, okPinger{})

	body := `{"title":"Graph Theory","faculty":"BSc CSIT","status":"approved"}`
	rr := doRequest(t, r, "PUT", "/resources/note/1", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d, want %d: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	rr = doRequest(t, r, "PUT", "/resources/note/1", body)
	if rr.Code != http.StatusOK {
		t.Errorf("update: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestPutResource_MissingTitle(t *testing.T) {
	r := newTestRouter(newMemResources(), &stubActivity{}, okPinger{})

	rr := doRequest(t, r, "PUT", "/resources/note/1", `{"faculty":"BSc CSIT"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPutResource_PreservesCounters(t *testing.T) {
	res := newMemResources(fixture("1", resource.Note, "Graphs", "BSc CSIT", 7, 3))
	r := newTestRouter(res, &stubActivity{}, okPinger{})

	body := `{"title":"Graphs v2","faculty":"BSc CSIT","status":"approved"}`
	rr := doRequest(t, r, "PUT", "/resources/note/1", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusOK)
	}

	got, err := res.Get(context.Background(), resource.Note, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ViewCount() != 7 || got.DownloadCount() != 3 {
		t.Errorf("counters = %d/%d, want preserved 7/3", got.ViewCount(), got.DownloadCount())
	}
	if got.Title() != "Graphs v2" {
		t.Errorf("title = %q, want updated", got.Title())
	}
}

func TestPostView_RecordsActivity(t *testing.T) {
	res := newMemResources(fixture("1", resource.Note, "Graphs", "BSc CSIT", 0, 0))
	act := &stubActivity{}
	r := newTestRouter(res, act, okPinger{})

	rr := doRequest(t, r, "POST", "/resources/note/1/views", `{"user":"alice"}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want %d: %s", rr.Code, http.StatusNoContent, rr.Body.String())
	}

	got, err := res.Get(context.Background(), resource.Note, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ViewCount() != 1 {
		t.Errorf("ViewCount = %d, want 1", got.ViewCount())
	}
	if len(act.entries) != 1 || act.entries[0].User != "alice" {
		t.Errorf("activity = %+v, want one entry for alice", act.entries)
	}
}

func TestPostView_AnonymousSkipsActivityLog(t *testing.T) {
	res := newMemResources(fixture("1", resource.Note, "Graphs", "BSc CSIT", 0, 0))
	act := &stubActivity{}
	r := newTestRouter(res, act, okPinger{})

	rr := doRequest(t, r, "POST", "/resources/note/1/views", `{}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if len(act.entries) != 0 {
		t.Errorf("anonymous view must not log activity, got %+v", act.entries)
	}
}

func TestPostDownload_ViewOnlyRejected(t *testing.T) {
	res := newMemResources(fixture("1", resource.Viva, "Viva Questions", "BSc CSIT", 0, 0))
	r := newTestRouter(res, &stubActivity{}, okPinger{})

	rr := doRequest(t, r, "POST", "/resources/viva/1/downloads", `{"user":"alice"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestGetHealth(t *testing.T) {
	r := newTestRouter(newMemResources(), &stubActivity{}, okPinger{})
	rr := doRequest(t, r, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rr.Code, http.StatusOK)
	}

	rUnavailable := newTestRouter(newMemResources(), &stubActivity{}, okPinger{err: context.DeadlineExceeded})
	rr = doRequest(t, rUnavailable, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}
