package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/database"
	"github.com/lshigami/polls/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// SetupTestDB opens a private in-memory SQLite database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := database.SQLiteDSN("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// GetTestConfig returns a standard test configuration.
func GetTestConfig() *config.Config {
	return &config.Config{
		LogLevel: "disabled",
		Server: config.Server{
			Port:    "8080",
			GinMode: gin.TestMode,
			SiteURL: "http://testserver",
		},
		Database:     config.Database{Driver: "sqlite"},
		Session:      config.Session{Secret: "test-session-secret"},
		Verification: config.Verification{Secret: "test-verification-secret", TTL: time.Hour},
		Polls: config.Polls{
			PageSize:          10,
			UnpublishedPolicy: config.PolicyRedirect,
		},
	}
}

// CreateQuestion creates a published question whose pub date is offset
// from now by the given number of days (negative for the past).
func CreateQuestion(t *testing.T, db *gorm.DB, text string, days int) *model.Question {
	t.Helper()

	q := &model.Question{
		QuestionText: text,
		PubDate:      time.Now().UTC().AddDate(0, 0, days),
		Published:    true,
	}
	if err := db.Create(q).Error; err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}
	return q
}

// AddChoice adds a choice with zero votes to a question.
func AddChoice(t *testing.T, db *gorm.DB, q *model.Question, text string) *model.Choice {
	t.Helper()

	c := &model.Choice{QuestionID: q.ID, ChoiceText: text}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("Failed to create test choice: %v", err)
	}
	return c
}

// Votes reads a choice's vote count straight from the database.
func Votes(t *testing.T, db *gorm.DB, choiceID uint) int {
	t.Helper()

	var c model.Choice
	if err := db.First(&c, choiceID).Error; err != nil {
		t.Fatalf("Failed to load choice %d: %v", choiceID, err)
	}
	return c.Votes
}

// CreateUser creates an account with username@example.org as its email.
func CreateUser(t *testing.T, db *gorm.DB, username, password string, verified, staff bool) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	u := &model.User{
		Username:      username,
		Email:         username + "@example.org",
		PasswordHash:  string(hash),
		EmailVerified: verified,
		IsStaff:       staff,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// Login posts credentials to the login form and returns the session cookies.
func Login(t *testing.T, h http.Handler, login, password string) []*http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, MakeFormRequest(http.MethodPost, "/accounts/login/", url.Values{
		"login":    {login},
		"password": {password},
	}, nil))
	if w.Code != http.StatusFound {
		t.Fatalf("Login failed: status %d, body: %s", w.Code, w.Body.String())
	}
	cookies := MergeCookies(nil, w)
	if len(cookies) == 0 {
		t.Fatal("Login did not set a session cookie")
	}
	return cookies
}

// MakeRequest creates a request carrying the given cookies.
func MakeRequest(method, path string, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// MakeFormRequest creates a urlencoded form request.
func MakeFormRequest(method, path string, form url.Values, cookies []*http.Cookie) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

// MergeCookies returns base updated with any cookies the response set.
func MergeCookies(base []*http.Cookie, w *httptest.ResponseRecorder) []*http.Cookie {
	byName := make(map[string]*http.Cookie, len(base))
	var order []string
	for _, c := range base {
		if _, ok := byName[c.Name]; !ok {
			order = append(order, c.Name)
		}
		byName[c.Name] = c
	}
	for _, c := range w.Result().Cookies() {
		if _, ok := byName[c.Name]; !ok {
			order = append(order, c.Name)
		}
		byName[c.Name] = c
	}
	merged := make([]*http.Cookie, 0, len(order))
	for _, name := range order {
		merged = append(merged, byName[name])
	}
	return merged
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertRedirect checks for a 302 to the expected location.
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	AssertStatus(t, w, http.StatusFound)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected redirect to %q, got %q", location, got)
	}
}

// AssertContains checks that the body includes the given text.
func AssertContains(t *testing.T, w *httptest.ResponseRecorder, text string) {
	t.Helper()
	if !strings.Contains(w.Body.String(), text) {
		t.Errorf("Expected body to contain %q. Body: %s", text, w.Body.String())
	}
}

// AssertNotContains checks that the body does not include the given text.
func AssertNotContains(t *testing.T, w *httptest.ResponseRecorder, text string) {
	t.Helper()
	if strings.Contains(w.Body.String(), text) {
		t.Errorf("Expected body not to contain %q. Body: %s", text, w.Body.String())
	}
}
