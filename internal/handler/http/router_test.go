package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apptrail/storefront/internal/catalog"
	"github.com/apptrail/storefront/internal/domain"
	"github.com/apptrail/storefront/internal/identity"
	"github.com/apptrail/storefront/internal/review"
	"github.com/apptrail/storefront/pkg/health"
)

// stubProvider accepts any credentials and returns a fixed account.
type stubProvider struct {
	user domain.User
	err  error
}

func (s *stubProvider) Register(ctx context.Context, in identity.RegisterInput) (domain.User, error) {
	return s.user, s.err
}

func (s *stubProvider) Login(ctx context.Context, in identity.LoginInput) (domain.User, error) {
	return s.user, s.err
}

func (s *stubProvider) LoginWithProvider(ctx context.Context, in identity.ProviderLoginInput) (domain.User, error) {
	return s.user, s.err
}

func (s *stubProvider) UpdateProfile(ctx context.Context, uid string, in identity.ProfileUpdate) (domain.User, error) {
	u := s.user
	u.DisplayName = in.DisplayName
	return u, s.err
}

func (s *stubProvider) RequestPasswordReset(ctx context.Context, email string) error {
	return s.err
}

func (s *stubProvider) Logout(ctx context.Context, uid string) {}

type harness struct {
	server   *httptest.Server
	store    *catalog.Store
	identity *identity.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := catalog.NewStore()
	store.Replace([]domain.App{
		{ID: "a1", Name: "PhotoSnap", Developer: "Acme", Category: "Photography", Rating: 4.5, Downloads: 1200,
			Reviews: []domain.Review{
				{ID: "r1", User: "alice", Date: "2024-01-01", Rating: 5, Comment: "excellent", Likes: 2},
				{ID: "r2", User: "bob", Date: "2024-01-02", Rating: 3, Comment: "average"},
			}},
		{ID: "a2", Name: "TaskFlow", Developer: "Beta", Category: "Productivity", Rating: 4.8, Downloads: 900,
			Reviews: []domain.Review{
				{ID: "r3", User: "carol", Date: "2024-01-03", Rating: 1, Comment: "broken"},
			}},
	})

	installs := catalog.NewInstalls()
	reviewService := review.NewService(store, nil, logger)

	provider := &stubProvider{user: domain.User{UID: "u1", Email: "alice@example.com", DisplayName: "Alice"}}
	sessions := identity.NewSessionManager([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	identityService := identity.NewService(provider, sessions, logger)
	identityService.OnSessionEnded(reviewService.Votes().Forget)
	identityService.OnSessionEnded(installs.Forget)

	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("catalog", func(ctx context.Context) error { return store.Ready() })

	router := NewRouter(RouterConfig{
		ServiceName:    "storefront",
		Environment:    "development",
		AllowedOrigins: []string{"*"},
		Limits:         HomeLimits{Slider: 3, Trending: 4, NewRelease: 4, Featured: 6},
	}, store, installs, reviewService, identityService, nil, nil, healthHandler, logger)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &harness{server: server, store: store, identity: identityService}
}

func (h *harness) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (h *harness) login(t *testing.T) string {
	t.Helper()

	resp := h.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "hunter22",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data.Token)
	return envelope.Data.Token
}

func decodeData(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope.Error.Code
}

func TestRouter_HealthEndpoints(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/health/live", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/health/ready", "", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/metrics", "", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListApps(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/v1/apps", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data       []appSummary `json:"data"`
		TotalCount int          `json:"total_count"`
	}
	decodeData(t, resp, &result)
	assert.Equal(t, 2, result.TotalCount)
}

func TestListApps_CategoryAndSearch(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/v1/apps?category=productivity", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []appSummary `json:"data"`
	}
	decodeData(t, resp, &result)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "TaskFlow", result.Data[0].Name)

	resp = h.do(t, http.MethodGet, "/api/v1/apps?q=acme", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, resp, &result)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "PhotoSnap", result.Data[0].Name)
}

func TestGetApp_RequiresSession(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/v1/apps/a1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_REQUIRED", errorCode(t, resp))
}

func TestGetApp_WithSession(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodGet, "/api/v1/apps/a1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		App       domain.App                `json:"app"`
		Reviews   []domain.AggregatedReview `json:"reviews"`
		Installed bool                      `json:"installed"`
	}
	decodeData(t, resp, &result)
	assert.Equal(t, "PhotoSnap", result.App.Name)
	assert.Len(t, result.Reviews, 2)
	assert.False(t, result.Installed)
}

func TestInstallToggle(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodPost, "/api/v1/apps/a1/install", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Installed bool `json:"installed"`
	}
	decodeData(t, resp, &result)
	assert.True(t, result.Installed)

	resp = h.do(t, http.MethodPost, "/api/v1/apps/a1/install", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, resp, &result)
	assert.False(t, result.Installed)
}

func TestHomeAndFeatured(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/v1/home", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var home struct {
		Slider      []appSummary `json:"slider"`
		Trending    []appSummary `json:"trending"`
		NewReleases []appSummary `json:"new_releases"`
		Categories  []string     `json:"categories"`
	}
	decodeData(t, resp, &home)
	require.Len(t, home.Slider, 2)
	require.Len(t, home.Trending, 2)
	require.Len(t, home.NewReleases, 2)
	assert.Equal(t, "TaskFlow", home.Trending[0].Name, "highest rated first")
	assert.Equal(t, []string{"Photography", "Productivity"}, home.Categories)

	resp = h.do(t, http.MethodGet, "/api/v1/featured", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var featured []appSummary
	decodeData(t, resp, &featured)
	require.Len(t, featured, 2)
	assert.Equal(t, "PhotoSnap", featured[0].Name, "most downloaded first")
}

func TestListReviews_PublicWithPipelineParams(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/v1/reviews?sort=newest&per_page=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result review.ListResult
	decodeData(t, resp, &result)

	assert.Equal(t, 3, result.Stats.Total)
	assert.Equal(t, 3.0, result.Stats.Average)
	require.Len(t, result.Reviews.Data, 2)
	assert.Equal(t, "r3", result.Reviews.Data[0].ID)
	assert.Equal(t, "r2", result.Reviews.Data[1].ID)
	assert.Equal(t, 2, result.Reviews.TotalPages)
}

func TestListReviews_RatingFilter(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodGet, "/api/v1/reviews?rating=5", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result review.ListResult
	decodeData(t, resp, &result)
	require.Len(t, result.Reviews.Data, 1)
	assert.Equal(t, "r1", result.Reviews.Data[0].ID)
	assert.Equal(t, 3, result.Stats.Total, "summary still covers everything")
}

func TestSubmitReview_RequiresSession(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/api/v1/reviews", "", map[string]any{
		"app_id": "a1", "rating": 4, "comment": "a perfectly fine comment",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "AUTH_REQUIRED", errorCode(t, resp))
}

func TestSubmitReview_Flow(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodPost, "/api/v1/reviews", token, map[string]any{
		"app_id": "a1", "rating": 4, "comment": "a perfectly fine comment",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var submitted domain.AggregatedReview
	decodeData(t, resp, &submitted)
	assert.Equal(t, "Alice", submitted.User)
	assert.Equal(t, "PhotoSnap", submitted.AppName)

	resp = h.do(t, http.MethodGet, "/api/v1/reviews?sort=newest", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result review.ListResult
	decodeData(t, resp, &result)
	assert.Equal(t, 4, result.Stats.Total)
	assert.Equal(t, submitted.ID, result.Reviews.Data[0].ID, "new review sorts newest")
}

func TestSubmitReview_ValidationError(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodPost, "/api/v1/reviews", token, map[string]any{
		"app_id": "a1", "comment": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, resp))
}

func TestVoteReview_Flow(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodPost, "/api/v1/reviews/r1/vote", token, map[string]string{"direction": "up"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result review.VoteResult
	decodeData(t, resp, &result)
	assert.True(t, result.State.Up)
	assert.Equal(t, 3, result.Likes)

	// The signed-in list shows the delta; anonymous requests do not.
	resp = h.do(t, http.MethodGet, "/api/v1/reviews?sort=oldest", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list review.ListResult
	decodeData(t, resp, &list)
	assert.Equal(t, 3, list.Reviews.Data[0].Likes)

	resp = h.do(t, http.MethodGet, "/api/v1/reviews?sort=oldest", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, resp, &list)
	assert.Equal(t, 2, list.Reviews.Data[0].Likes)
}

func TestVoteReview_UnknownReview(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodPost, "/api/v1/reviews/nope/vote", token, map[string]string{"direction": "up"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, resp))
}

func TestComposer_Endpoints(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodGet, "/api/v1/reviews/composer", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state struct {
		State string `json:"state"`
	}
	decodeData(t, resp, &state)
	assert.Equal(t, "idle", state.State)

	resp = h.do(t, http.MethodPost, "/api/v1/reviews/composer", token, map[string]string{"action": "open"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, resp, &state)
	assert.Equal(t, "form_open", state.State)

	resp = h.do(t, http.MethodPost, "/api/v1/reviews/composer", token, map[string]string{"action": "open"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, resp))
}

func TestAuth_LogoutRevokesSessionAndVotes(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodPost, "/api/v1/reviews/r1/vote", token, map[string]string{"direction": "up"})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = h.do(t, http.MethodGet, "/api/v1/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// A fresh session starts with clean vote state.
	token = h.login(t)
	resp = h.do(t, http.MethodGet, "/api/v1/reviews?sort=oldest", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list review.ListResult
	decodeData(t, resp, &list)
	assert.Equal(t, 2, list.Reviews.Data[0].Likes)
}

func TestAuth_ProfileRoundTrip(t *testing.T) {
	h := newHarness(t)
	token := h.login(t)

	resp := h.do(t, http.MethodGet, "/api/v1/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user domain.User
	decodeData(t, resp, &user)
	assert.Equal(t, "Alice", user.DisplayName)

	resp = h.do(t, http.MethodPut, "/api/v1/auth/profile", token, map[string]string{"display_name": "Alice B"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, resp, &user)
	assert.Equal(t, "Alice B", user.DisplayName)
}

func TestAuth_RegisterValidation(t *testing.T) {
	h := newHarness(t)

	resp := h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "not-an-email", "password": "hunter22", "display_name": "Alice",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, resp))
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodPost, h.server.URL+"/api/v1/auth/login", bytes.NewReader([]byte("a=b")))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}
