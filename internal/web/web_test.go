package web

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeninja-coin/admin-service/internal/auth"
	"github.com/codeninja-coin/admin-service/internal/client"
	"github.com/codeninja-coin/admin-service/internal/handlers"
	"github.com/codeninja-coin/admin-service/internal/media"
	"github.com/codeninja-coin/admin-service/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "secret1"

type fakeSessions struct {
	mu        sync.Mutex
	sessions  map[string]*auth.Session
	loading   bool
	initCalls int
	signedOut []string
	events    chan auth.SessionEvent
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: make(map[string]*auth.Session),
		events:   make(chan auth.SessionEvent, 4),
	}
}

func (f *fakeSessions) Initialize(ctx context.Context, cookieValue string) auth.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if f.loading {
		return auth.State{Loading: true}
	}
	s, ok := f.sessions[cookieValue]
	if !ok {
		return auth.State{}
	}
	return auth.State{User: s.User, Session: s}
}

func (f *fakeSessions) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	if password != testPassword {
		return nil, auth.NewError("Invalid email or password", nil)
	}
	return &auth.Session{
		ID:          fakeSessionID(email),
		User:        &models.User{ID: "u-1", Email: email},
		AccessToken: "tok-" + email,
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

// fakeSessionID keeps cookie values free of characters gin would escape
func fakeSessionID(email string) string {
	return "sid-" + strings.NewReplacer("@", "-at-", ".", "-").Replace(email)
}

func (f *fakeSessions) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	if len(password) < 6 {
		return nil, auth.NewError("Password must be at least 6 characters", nil)
	}
	return f.SignIn(ctx, email, testPassword)
}

func (f *fakeSessions) SignOut(ctx context.Context, cookieValue string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, cookieValue)
	f.signedOut = append(f.signedOut, cookieValue)
}

func (f *fakeSessions) CookieValue(session *auth.Session) (string, error) {
	value := "cookie-" + session.ID
	f.mu.Lock()
	f.sessions[value] = session
	f.mu.Unlock()
	return value, nil
}

func (f *fakeSessions) Subscribe(ctx context.Context) (<-chan auth.SessionEvent, func()) {
	return f.events, func() {}
}

type fakeAPI struct {
	mu       sync.Mutex
	students []*models.Student
	items    []*models.RewardItem
	listErr  error
	tokens   []string
	created  []*models.RewardItemCreateRequest
	updated  []*models.RewardItemUpdateRequest
}

func (f *fakeAPI) seen(token string) {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
}

func (f *fakeAPI) ListStudents(ctx context.Context, token string) ([]*models.Student, error) {
	f.seen(token)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.students, nil
}

func (f *fakeAPI) CreateStudent(ctx context.Context, token string, req *models.StudentCreateRequest) (*models.Student, error) {
	f.seen(token)
	if req.FirstName == "" || req.LastName == "" || req.Belt == "" {
		return nil, &client.APIError{Status: http.StatusBadRequest, Message: "First name, last name, and belt are required"}
	}
	s := &models.Student{ID: "s-new", FirstName: req.FirstName, LastName: req.LastName, Belt: req.Belt, Age: req.Age.Ptr()}
	f.students = append([]*models.Student{s}, f.students...)
	return s, nil
}

func (f *fakeAPI) AddCoin(ctx context.Context, token, id string) (*models.Student, error) {
	f.seen(token)
	for _, s := range f.students {
		if s.ID == id {
			s.Coins++
			return s, nil
		}
	}
	return nil, &client.APIError{Status: http.StatusNotFound, Message: "Student not found"}
}

func (f *fakeAPI) ListRewardItems(ctx context.Context, token string) ([]*models.RewardItem, error) {
	f.seen(token)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeAPI) GetRewardItem(ctx context.Context, token, id string) (*models.RewardItem, error) {
	f.seen(token)
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, &client.APIError{Status: http.StatusNotFound, Message: "Reward item not found"}
}

func (f *fakeAPI) CreateRewardItem(ctx context.Context, token string, req *models.RewardItemCreateRequest) (*models.RewardItem, error) {
	f.seen(token)
	if req.Title == "" || !req.Price.Valid || req.Price.Value <= 0 {
		return nil, &client.APIError{Status: http.StatusBadRequest, Message: "Title and price are required"}
	}
	f.created = append(f.created, req)
	return &models.RewardItem{ID: "r-new", Title: req.Title, Price: req.Price.Value, ImageURL: req.ImageURL}, nil
}

func (f *fakeAPI) UpdateRewardItem(ctx context.Context, token, id string, req *models.RewardItemUpdateRequest) (*models.RewardItem, error) {
	f.seen(token)
	item, err := f.GetRewardItem(ctx, token, id)
	if err != nil {
		return nil, err
	}
	if req.Title.Set && req.Title.Value == "" {
		return nil, &client.APIError{Status: http.StatusBadRequest, Message: "Title must not be empty"}
	}
	f.updated = append(f.updated, req)
	return item, nil
}

func (f *fakeAPI) DeleteRewardItem(ctx context.Context, token, id string) error {
	f.seen(token)
	for i, item := range f.items {
		if item.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return &client.APIError{Status: http.StatusNotFound, Message: "Reward item not found"}
}

func (f *fakeAPI) DashboardStats(ctx context.Context, token string) (*models.DashboardStats, error) {
	f.seen(token)
	return &models.DashboardStats{TotalStudents: int64(len(f.students)), TotalRewardItems: int64(len(f.items))}, nil
}

type fakeUploader struct {
	err    error
	images []*media.Image
}

func (f *fakeUploader) Upload(ctx context.Context, img *media.Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.images = append(f.images, img)
	return "https://media.example.com/" + img.Filename, nil
}

type testEnv struct {
	handler  *Handler
	router   *gin.Engine
	sessions *fakeSessions
	api      *fakeAPI
	uploader *fakeUploader
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		sessions: newFakeSessions(),
		api: &fakeAPI{
			students: []*models.Student{
				{ID: "s-1", FirstName: "Ana", LastName: "Lee", Belt: models.BeltWhite},
				{ID: "s-2", FirstName: "Bo", LastName: "Kim", Belt: models.BeltBlue, Coins: 1},
			},
			items: []*models.RewardItem{
				{ID: "r-1", Title: "Sticker Pack", Price: 3, Stock: 10},
				{ID: "r-2", Title: "Headband", Price: 8},
			},
		},
		uploader: &fakeUploader{},
	}

	h, err := New(Config{
		Sessions:    env.sessions,
		API:         env.api,
		Uploader:    env.uploader,
		AuthLimiter: handlers.NewRateLimiter(60),
	})
	require.NoError(t, err)

	env.handler = h
	env.router = gin.New()
	h.Register(env.router)
	return env
}

func (env *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func (env *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return env.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (env *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return env.do(req, cookies...)
}

// signIn logs in through the form and returns the session cookie
func (env *testEnv) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	w := env.postForm("/login", url.Values{"email": {"sensei@dojo.test"}, "password": {testPassword}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	return findCookie(t, w, "cnc_session")
}

func findCookie(t *testing.T, w *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func multipartRequest(t *testing.T, path string, fields map[string]string, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/dashboard", "/allStudents", "/addStudent", "/rewardItems", "/addrewardItem", "/rewardItems/r-1/edit"} {
		w := env.get(path)
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}

	w := env.get("/allStudents", &http.Cookie{Name: "cnc_session", Value: "forged"})
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Empty(t, env.api.tokens)
}

func TestLoadingSessionRendersPlaceholder(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)
	env.handler.states.evictCookie(cookie.Value)
	env.sessions.loading = true

	w := env.get("/allStudents", cookie)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "loading")
	assert.Empty(t, env.api.tokens)
}

func TestLoginAndDashboard(t *testing.T) {
	env := setupTestEnv(t)

	w := env.postForm("/login", url.Values{"email": {"sensei@dojo.test"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")
	assert.Contains(t, w.Body.String(), `value="sensei@dojo.test"`)

	cookie := env.signIn(t)
	assert.True(t, cookie.HttpOnly)

	w = env.get("/dashboard", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome, sensei@dojo.test!")
	assert.Contains(t, w.Body.String(), "Sign Out")
	assert.Equal(t, []string{"tok-sensei@dojo.test"}, env.api.tokens)
}

func TestSignup(t *testing.T) {
	env := setupTestEnv(t)

	w := env.postForm("/signup", url.Values{"email": {"new@dojo.test"}, "password": {"123"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Password must be at least 6 characters")

	w = env.postForm("/signup", url.Values{"email": {"new@dojo.test"}, "password": {"longenough"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestAuthAttemptsAreRateLimited(t *testing.T) {
	env := setupTestEnv(t)
	env.handler.authLimiter = handlers.NewRateLimiter(2)
	env.router = gin.New()
	env.handler.Register(env.router)

	form := url.Values{"email": {"a@b.co"}, "password": {"wrong"}}
	assert.Equal(t, http.StatusUnauthorized, env.postForm("/login", form).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.postForm("/login", form).Code)
}

func TestSessionStateIsCachedUntilSignOut(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	env.get("/dashboard", cookie)
	env.get("/allStudents", cookie)
	assert.Equal(t, 1, env.sessions.initCalls)
	_, cached := env.handler.states.get(cookie.Value)
	require.True(t, cached)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		env.handler.Run(ctx)
		close(done)
	}()

	env.sessions.events <- auth.SessionEvent{Type: auth.SessionSignedOut, SessionID: fakeSessionID("sensei@dojo.test")}
	assert.Eventually(t, func() bool {
		_, ok := env.handler.states.get(cookie.Value)
		return !ok
	}, time.Second, 10*time.Millisecond)

	close(env.sessions.events)
	<-done
}

func TestLogout(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	w := env.postForm("/logout", nil, cookie)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, []string{cookie.Value}, env.sessions.signedOut)
	assert.Equal(t, -1, findCookie(t, w, "cnc_session").MaxAge)

	w = env.get("/dashboard", cookie)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestAllStudents(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	w := env.get("/allStudents", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Ana Lee")
	assert.Contains(t, body, "Bo Kim")
	assert.Contains(t, body, "Not specified")
	assert.Contains(t, body, "1 coin")
	assert.Contains(t, body, "Total Students: 2")

	w = env.get("/allStudents?q=LEE", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ana Lee")
	assert.NotContains(t, w.Body.String(), "Bo Kim")
	assert.Len(t, env.api.students, 2)
}

func TestAllStudents_APIError(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)
	env.api.listErr = errors.New("connection refused")

	w := env.get("/allStudents", cookie)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to fetch students")
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestAddCoinFlow(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	w := env.get("/allStudents?confirm=s-1", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Should Ana Lee receive a new coin?")
	assert.Contains(t, w.Body.String(), `action="/allStudents/s-1/add-coin"`)

	w = env.get("/allStudents", cookie)
	assert.NotContains(t, w.Body.String(), "receive a new coin?")

	w = env.postForm("/allStudents/s-1/add-coin", nil, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/allStudents", w.Header().Get("Location"))
	assert.Equal(t, 1, env.api.students[0].Coins)

	flashCookie := findCookie(t, w, flashCookieName)
	w = env.get("/allStudents", cookie, flashCookie)
	assert.Contains(t, w.Body.String(), "Successfully added coin to Ana Lee")
	assert.Contains(t, w.Body.String(), "1 coin")

	w = env.postForm("/allStudents/missing/add-coin", nil, cookie)
	w = env.get("/allStudents", cookie, findCookie(t, w, flashCookieName))
	assert.Contains(t, w.Body.String(), "Student not found")
}

func TestAddStudent(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	w := env.postForm("/addStudent", url.Values{"firstName": {"Cy"}, "lastName": {""}, "belt": {"GREEN"}, "age": {"9"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "First name, last name, and belt are required")
	assert.Contains(t, w.Body.String(), `value="Cy"`)
	assert.Contains(t, w.Body.String(), `<option value="GREEN" selected>`)
	assert.Len(t, env.api.students, 2)

	w = env.postForm("/addStudent", url.Values{"firstName": {"Cy"}, "lastName": {"Park"}, "belt": {"GREEN"}, "age": {"9"}}, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Student added successfully!")
	assert.Contains(t, w.Body.String(), `content="2;url=/allStudents"`)
	assert.NotContains(t, w.Body.String(), `value="Cy"`)
	require.Len(t, env.api.students, 3)
	require.NotNil(t, env.api.students[0].Age)
	assert.Equal(t, 9, *env.api.students[0].Age)
}

func TestRewardItemsPage(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	w := env.get("/rewardItems", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Sticker Pack")
	assert.Contains(t, body, "Headband")
	assert.Contains(t, body, "Stock: 10")
	assert.Contains(t, body, `class="btn btn-sm btn-primary" disabled>Exchange`)

	w = env.get("/rewardItems?q=band", cookie)
	assert.NotContains(t, w.Body.String(), "Sticker Pack")
	assert.Contains(t, w.Body.String(), "Headband")

	w = env.get("/rewardItems?q=zzz", cookie)
	assert.Contains(t, w.Body.String(), `No item found matching "zzz"`)
}

func TestAddRewardItem(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)
	fields := map[string]string{"title": "Belt Bag", "price": "12", "stock": "3"}

	w := env.do(multipartRequest(t, "/addrewardItem", fields, "notes.pdf", "application/pdf", []byte("%PDF-1.4")), cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please upload a valid image file (JPEG, PNG, WebP, or GIF)")
	assert.Contains(t, w.Body.String(), `value="Belt Bag"`)
	assert.Empty(t, env.api.created)
	assert.Empty(t, env.uploader.images)

	env.uploader.err = media.ErrUpload
	w = env.do(multipartRequest(t, "/addrewardItem", fields, "bag.png", "image/png", pngBytes), cookie)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to upload image")
	assert.Empty(t, env.api.created)

	env.uploader.err = nil
	w = env.do(multipartRequest(t, "/addrewardItem", fields, "bag.png", "image/png", pngBytes), cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Reward item created successfully!")
	assert.Contains(t, w.Body.String(), `content="2;url=/rewardItems"`)
	require.Len(t, env.api.created, 1)
	require.NotNil(t, env.api.created[0].ImageURL)
	assert.Equal(t, "https://media.example.com/bag.png", *env.api.created[0].ImageURL)
	assert.Equal(t, 3, env.api.created[0].Stock.Value)

	w = env.do(multipartRequest(t, "/addrewardItem", map[string]string{"title": "Free", "price": "0"}, "", "", nil), cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title and price are required")
	assert.Len(t, env.api.created, 1)
}

func TestAddRewardItem_RejectsLargeImage(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	data := make([]byte, 25<<20)
	copy(data, pngBytes)
	w := env.do(multipartRequest(t, "/addrewardItem", map[string]string{"title": "Huge", "price": "1"}, "huge.png", "image/png", data), cookie)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "Image size must be less than 20MB")
	assert.Empty(t, env.uploader.images)
	assert.Empty(t, env.api.created)
}

func TestEditRewardItem(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	w := env.get("/rewardItems/missing/edit", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Reward item not found")
	assert.NotContains(t, w.Body.String(), `name="title"`)

	w = env.get("/rewardItems/r-1/edit", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="Sticker Pack"`)

	fields := map[string]string{"title": "", "price": "3", "stock": "10"}
	w = env.do(multipartRequest(t, "/rewardItems/r-1/edit", fields, "", "", nil), cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Title must not be empty")
	assert.Contains(t, w.Body.String(), `action="/rewardItems/r-1/edit"`)

	fields = map[string]string{"title": "Sticker Pack XL", "price": "4", "stock": "", "description": ""}
	w = env.do(multipartRequest(t, "/rewardItems/r-1/edit", fields, "", "", nil), cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, env.api.updated, 1)
	req := env.api.updated[0]
	assert.Equal(t, "Sticker Pack XL", req.Title.Value)
	assert.Equal(t, 4, req.Price.Value)
	assert.False(t, req.Stock.Set)
	assert.True(t, req.Description.Null)
	assert.False(t, req.ImageURL.Set)
}

func TestDeleteRewardItem(t *testing.T) {
	env := setupTestEnv(t)
	cookie := env.signIn(t)

	w := env.get("/rewardItems/r-2/delete", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `Delete "Headband"?`)

	w = env.postForm("/rewardItems/r-2/delete", nil, cookie)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Len(t, env.api.items, 1)

	w = env.get("/rewardItems", cookie, findCookie(t, w, flashCookieName))
	assert.Contains(t, w.Body.String(), "Reward item deleted successfully")
	assert.NotContains(t, w.Body.String(), "Headband")

	w = env.postForm("/rewardItems/r-2/delete", nil, cookie)
	w = env.get("/rewardItems", cookie, findCookie(t, w, flashCookieName))
	assert.Contains(t, w.Body.String(), "Reward item not found")
}
