package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/polls/config"
	"github.com/lshigami/polls/internal/app"
	"github.com/lshigami/polls/internal/component"
	"github.com/lshigami/polls/internal/controller"
	"github.com/lshigami/polls/internal/controller/account"
	"github.com/lshigami/polls/internal/controller/admin"
	"github.com/lshigami/polls/internal/controller/user"
	"github.com/lshigami/polls/internal/dto"
	"github.com/lshigami/polls/internal/middleware"
	"github.com/lshigami/polls/internal/repository"
	"github.com/lshigami/polls/internal/service"
	"github.com/lshigami/polls/internal/testutil"
	"github.com/lshigami/polls/internal/web"
	"gorm.io/gorm"
)

// setupTestRouter wires the real application against an in-memory database.
func setupTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	reg, err := component.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	tmpl, err := web.NewTemplates(reg)
	if err != nil {
		t.Fatal(err)
	}

	questionRepo := repository.NewQuestionRepository(db)
	choiceRepo := repository.NewChoiceRepository(db)
	clock := service.NewClock()
	accounts := service.NewAccountService(repository.NewUserRepository(db), service.NewLogMailer(), cfg, clock)

	router := app.NewGinEngine(cfg, tmpl, accounts)
	ctrl := controller.NewController(
		user.NewPollController(service.NewPollService(questionRepo, choiceRepo, cfg, clock), cfg),
		admin.NewAdminPollController(service.NewAdminPollService(questionRepo, choiceRepo, clock)),
		account.NewAccountController(accounts),
		db,
		cfg,
	)
	ctrl.RegisterRoutes(router)
	return router, db
}

// verifiedLogin creates a verified user and signs in.
func verifiedLogin(t *testing.T, router http.Handler, db *gorm.DB) []*http.Cookie {
	t.Helper()
	testutil.CreateUser(t, db, "voter", "password123", true, false)
	return testutil.Login(t, router, "voter", "password123")
}

func get(router http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.MakeRequest(http.MethodGet, path, cookies))
	return w
}

func TestRoot_RedirectsToPolls(t *testing.T) {
	router, _ := setupTestRouter(t, testutil.GetTestConfig())
	testutil.AssertRedirect(t, get(router, "/", nil), "/polls/")
}

func TestHealthz(t *testing.T) {
	router, _ := setupTestRouter(t, testutil.GetTestConfig())
	w := get(router, "/healthz", nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, `"status":"ok"`)
}

func TestIndex_NoQuestions(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	cookies := verifiedLogin(t, router, db)

	w := get(router, "/polls/", cookies)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "No polls are available.")
	testutil.AssertContains(t, w, `<dt>Published</dt>`)
}

func TestIndex_PastQuestion(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	cookies := verifiedLogin(t, router, db)
	testutil.CreateQuestion(t, db, "Past question.", -30)

	w := get(router, "/polls/", cookies)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "Past question.")
	testutil.AssertNotContains(t, w, "No polls are available.")
}

func TestIndex_FutureQuestionHidden(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	cookies := verifiedLogin(t, router, db)
	testutil.CreateQuestion(t, db, "Past question.", -30)
	testutil.CreateQuestion(t, db, "Future question.", 30)

	w := get(router, "/polls/", cookies)
	testutil.AssertContains(t, w, "Past question.")
	testutil.AssertNotContains(t, w, "Future question.")
}

func TestIndex_Pagination(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	cookies := verifiedLogin(t, router, db)
	for i := 1; i <= 11; i++ {
		testutil.CreateQuestion(t, db, fmt.Sprintf("Question %02d", i), -i)
	}

	w := get(router, "/polls/?page=2", cookies)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "Question 11")
	testutil.AssertNotContains(t, w, "Question 01")
	testutil.AssertContains(t, w, "Page 2 of 2.")

	testutil.AssertStatus(t, get(router, "/polls/?page=3", cookies), http.StatusNotFound)
	testutil.AssertStatus(t, get(router, "/polls/?page=abc", cookies), http.StatusNotFound)
	testutil.AssertStatus(t, get(router, "/polls/?page=last", cookies), http.StatusOK)
}

func TestIndex_RequiresVerifiedAccount(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())

	testutil.AssertRedirect(t, get(router, "/polls/", nil), middleware.LoginURL+"?next=%2Fpolls%2F")

	testutil.CreateUser(t, db, "pending", "password123", false, false)
	cookies := testutil.Login(t, router, "pending", "password123")
	testutil.AssertRedirect(t, get(router, "/polls/", cookies), middleware.VerificationURL)
}

func TestDetail_FutureQuestionRedirectsWithFlash(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	cookies := verifiedLogin(t, router, db)
	q := testutil.CreateQuestion(t, db, "Future question.", 5)

	w := get(router, fmt.Sprintf("/polls/%d/", q.ID), cookies)
	testutil.AssertRedirect(t, w, "/polls/")
	testutil.AssertNotContains(t, w, "Future question.")

	w = get(router, "/polls/", testutil.MergeCookies(cookies, w))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, user.NotAvailableMessage)
	testutil.AssertContains(t, w, `class="error"`)
}

func TestDetail_FutureQuestionNotFoundPolicy(t *testing.T) {
	cfg := testutil.GetTestConfig()
	cfg.Polls.UnpublishedPolicy = config.PolicyNotFound
	router, db := setupTestRouter(t, cfg)
	cookies := verifiedLogin(t, router, db)
	q := testutil.CreateQuestion(t, db, "Future question.", 5)

	w := get(router, fmt.Sprintf("/polls/%d/", q.ID), cookies)
	testutil.AssertStatus(t, w, http.StatusNotFound)
	testutil.AssertNotContains(t, w, "Future question.")
}

func TestDetail_PastQuestion(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	cookies := verifiedLogin(t, router, db)
	q := testutil.CreateQuestion(t, db, "Past Question.", -5)
	testutil.AddChoice(t, db, q, "Yes")

	w := get(router, fmt.Sprintf("/polls/%d/", q.ID), cookies)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "Past Question.")
	testutil.AssertContains(t, w, `name="choice"`)
}

func TestDetail_Unknown(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	cookies := verifiedLogin(t, router, db)

	testutil.AssertStatus(t, get(router, "/polls/999/", cookies), http.StatusNotFound)
	testutil.AssertStatus(t, get(router, "/polls/abc/", cookies), http.StatusNotFound)
}

func TestVote_NoChoice(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	q := testutil.CreateQuestion(t, db, "Past question.", -1)
	c := testutil.AddChoice(t, db, q, "Only")

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.MakeFormRequest(http.MethodPost, fmt.Sprintf("/polls/%d/vote/", q.ID), url.Values{}, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		testutil.AssertContains(t, w, html.EscapeString(user.NoChoiceMessage))
		testutil.AssertContains(t, w, "Past question.")
	}

	if got := testutil.Votes(t, db, c.ID); got != 0 {
		t.Errorf("expected votes to stay at 0, got %d", got)
	}
}

func TestVote_InvalidChoice(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	q := testutil.CreateQuestion(t, db, "Q", -1)
	c := testutil.AddChoice(t, db, q, "Only")

	for _, choice := range []string{"abc", "999"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, testutil.MakeFormRequest(http.MethodPost, fmt.Sprintf("/polls/%d/vote/", q.ID), url.Values{"choice": {choice}}, nil))
		testutil.AssertStatus(t, w, http.StatusOK)
		testutil.AssertContains(t, w, html.EscapeString(user.NoChoiceMessage))
	}
	if got := testutil.Votes(t, db, c.ID); got != 0 {
		t.Errorf("expected votes to stay at 0, got %d", got)
	}
}

func TestVote_ValidChoice(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	q := testutil.CreateQuestion(t, db, "Q", -1)
	c := testutil.AddChoice(t, db, q, "Only")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.MakeFormRequest(http.MethodPost, fmt.Sprintf("/polls/%d/vote/", q.ID),
		url.Values{"choice": {strconv.FormatUint(uint64(c.ID), 10)}}, nil))
	testutil.AssertRedirect(t, w, user.ResultsURL(q.ID))

	if got := testutil.Votes(t, db, c.ID); got != 1 {
		t.Errorf("expected 1 vote, got %d", got)
	}

	w = get(router, user.ResultsURL(q.ID), nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, "Only -- 1 vote<")
}

func TestVote_UnknownQuestion(t *testing.T) {
	router, _ := setupTestRouter(t, testutil.GetTestConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, testutil.MakeFormRequest(http.MethodPost, "/polls/42/vote/", url.Values{"choice": {"1"}}, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestResults_Unknown(t *testing.T) {
	router, _ := setupTestRouter(t, testutil.GetTestConfig())
	testutil.AssertStatus(t, get(router, "/polls/42/results/", nil), http.StatusNotFound)
}

func TestResultsAPI(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	q := testutil.CreateQuestion(t, db, "Q", -1)
	testutil.AddChoice(t, db, q, "A")

	w := get(router, fmt.Sprintf("/api/v1/polls/%d/results", q.ID), nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var got dto.QuestionDTO
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != q.ID || len(got.Choices) != 1 || got.Choices[0].ChoiceText != "A" {
		t.Errorf("unexpected results %+v", got)
	}

	testutil.AssertStatus(t, get(router, "/api/v1/polls/42/results", nil), http.StatusNotFound)
	testutil.AssertStatus(t, get(router, "/api/v1/polls/abc/results", nil), http.StatusBadRequest)
}

func TestNoRoute(t *testing.T) {
	router, _ := setupTestRouter(t, testutil.GetTestConfig())
	w := get(router, "/nowhere", nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
	testutil.AssertContains(t, w, "Not Found")
}

func jsonRequest(method, path string, body any, cookies []*http.Cookie) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestAdminAPI_Access(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())

	testutil.AssertStatus(t, get(router, "/api/v1/admin/questions", nil), http.StatusUnauthorized)

	cookies := verifiedLogin(t, router, db)
	testutil.AssertStatus(t, get(router, "/api/v1/admin/questions", cookies), http.StatusForbidden)
}

func TestAdminAPI_CRUD(t *testing.T) {
	router, db := setupTestRouter(t, testutil.GetTestConfig())
	testutil.CreateUser(t, db, "admin", "password123", true, true)
	cookies := testutil.Login(t, router, "admin", "password123")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/v1/admin/questions", dto.QuestionCreateDTO{
		QuestionText: "What's new?",
		Published:    true,
		Choices:      []dto.ChoiceCreateDTO{{ChoiceText: "Not much"}, {ChoiceText: "The sky"}},
	}, cookies))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created dto.QuestionDTO
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if len(created.Choices) != 2 {
		t.Fatalf("expected 2 inline choices, got %+v", created.Choices)
	}
	base := fmt.Sprintf("/api/v1/admin/questions/%d", created.ID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/v1/admin/questions", map[string]any{"question_text": ""}, cookies))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPatch, base, map[string]any{"question_text": "What's up?"}, cookies))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertContains(t, w, `"question_text":"What's up?"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, base+"/choices", dto.ChoiceCreateDTO{ChoiceText: "Just hacking"}, cookies))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var choice dto.ChoiceDTO
	if err := json.Unmarshal(w.Body.Bytes(), &choice); err != nil {
		t.Fatal(err)
	}

	w = get(router, "/api/v1/admin/questions?search=UP", cookies)
	testutil.AssertStatus(t, w, http.StatusOK)
	var list dto.AdminQuestionListDTO
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 1 || len(list.Items[0].Choices) != 3 {
		t.Errorf("unexpected admin list %+v", list)
	}

	testutil.AssertStatus(t, get(router, "/api/v1/admin/questions?published_after=yesterday", cookies), http.StatusBadRequest)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodDelete, fmt.Sprintf("/api/v1/admin/choices/%d", choice.ID), nil, cookies))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodDelete, base, nil, cookies))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	testutil.AssertStatus(t, get(router, base, cookies), http.StatusNotFound)

	var remaining int64
	db.Table("choices").Where("question_id = ?", created.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("expected choices to be deleted with the question, %d left", remaining)
	}
}
