package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/pkg/errors"

	"github.com/kyalo/darasa/apps/api/echo"
	"github.com/kyalo/darasa/core/ai"
	"github.com/kyalo/darasa/core/user"
	"github.com/kyalo/darasa/tests"
)

func Test_aiApi_chat(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	aiMock.Responses = []string{"Pythagoras says a² + b² = c²."}

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, ai.ChatRequest{Message: "hi"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "required fields", token: getToken(t, student), body: marchallObj(t, ai.ChatRequest{}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"message": "this field is required"}),
		},
		{
			name: "Answered", token: getToken(t, student),
			body:     marchallObj(t, ai.ChatRequest{Message: "explain the pythagorean theorem", History: []ai.Turn{{Role: "user", Content: "hi"}}}),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.ChatResponse{Success: true, Response: "Pythagoras says a² + b² = c²."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/ai/chat"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the provider got the history and a tutoring system prompt
	if len(aiMock.Prompts) == 0 {
		t.Fatal("no prompt reached the provider")
	}
	prompt := aiMock.Prompts[len(aiMock.Prompts)-1]
	if prompt.System == "" {
		t.Error("prompt.System is empty")
	}
	if len(prompt.History) != 1 || prompt.History[0].Content != "hi" {
		t.Errorf("prompt.History = %+v, want the prior turn", prompt.History)
	}
}

func Test_aiApi_flashcards(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	token := getToken(t, student)

	cards := []ai.Flashcard{
		{Front: "What is 2+2?", Back: "4"},
		{Front: "What is 3*3?", Back: "9"},
		{Front: "", Back: "dropped"}, // malformed entry is filtered out
	}
	fenced := "```json\n" + string(marchallObj(t, cards)) + "\n```"
	aiMock.Responses = []string{fenced}

	body := marchallObj(t, ai.AidRequest{Topic: "arithmetic", Count: 2})

	req, rec := newAuthRequest(http.MethodPost, "/v1/ai/flashcards", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("flashcards: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got []ai.Flashcard
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cards = %v, want 2", len(got))
	}
	if got[0] != cards[0] || got[1] != cards[1] {
		t.Errorf("cards = %+v, want the two valid ones", got)
	}

	// unusable completion is a bad gateway
	aiMock.Responses = []string{"sorry, I cannot do that"}
	req, rec = newAuthRequest(http.MethodPost, "/v1/ai/flashcards", token, body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadGateway,
		wantData: marchallObj(t, httpErr{Error: "the assistant could not produce a usable answer, please try again"}),
	}, rec)
}

func Test_aiApi_quiz(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)

	qs := []ai.QuizQuestion{
		{Question: "2+2?", Choices: []string{"3", "4"}, Answer: "4"},
		{Question: "no choices", Choices: []string{"only one"}, Answer: "x"}, // filtered out
	}
	aiMock.Responses = []string{string(marchallObj(t, qs))}

	req, rec := newAuthRequest(http.MethodPost, "/v1/ai/quiz", getToken(t, student), marchallObj(t, ai.AidRequest{Topic: "arithmetic"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("quiz: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got []ai.QuizQuestion
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(got) != 1 || got[0].Question != "2+2?" {
		t.Errorf("questions = %+v, want just the well-formed one", got)
	}
}

func Test_aiApi_matchTutors(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	tutor1 := testutil.CreateUser(t, usrRepo, "Tutor One", "tutor1", "t1@test.cd", "", []string{user.RoleTeacher}, true)
	tutor2 := testutil.CreateUser(t, usrRepo, "Tutor Two", "tutor2", "t2@test.cd", "", []string{user.RoleTeacher}, true)
	testutil.CreateUser(t, usrRepo, "Gone", "tutor3", "t3@test.cd", "", []string{user.RoleTeacher}, false) // inactive, never a candidate

	token := getToken(t, student)

	// the provider picks one tutor; hallucinated IDs are dropped
	matches := []ai.TutorMatch{
		{TeacherID: tutor1.ID, Reason: "teaches math"},
		{TeacherID: "00000000-0000-0000-0000-000000000000", Reason: "made up"},
	}
	aiMock.Responses = []string{string(marchallObj(t, matches))}

	req, rec := newAuthRequest(http.MethodPost, "/v1/ai/match-tutors", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("match-tutors: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got []ai.TutorMatch
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(got) != 1 || got[0].TeacherID != tutor1.ID {
		t.Errorf("matches = %+v, want just tutor1", got)
	}

	// provider failure falls back to the active candidates
	aiMock.Err = errors.New("service unavailable")
	req, rec = newAuthRequest(http.MethodPost, "/v1/ai/match-tutors", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("match-tutors fallback: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	got = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	ids := map[string]bool{}
	for _, m := range got {
		ids[m.TeacherID] = true
	}
	if len(got) != 2 || !ids[tutor1.ID] || !ids[tutor2.ID] {
		t.Errorf("fallback matches = %+v, want both active tutors", got)
	}
}

func Test_aiApi_recommendCourses(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)

	token := getToken(t, student)

	// no courses yet: an empty list, no provider round-trip
	req, rec := newAuthRequest(http.MethodPost, "/v1/ai/recommend-courses", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)}, rec)
	if len(aiMock.Prompts) != 0 {
		t.Errorf("provider called %v times, want 0", len(aiMock.Prompts))
	}

	crs1 := testutil.CreateCourse(t, crsRepo, "Algebra I", "math", teacher)
	crs2 := testutil.CreateCourse(t, crsRepo, "Biology", "science", teacher)

	// garbage completion falls back to the candidate courses
	aiMock.Responses = []string{"no json here"}
	req, rec = newAuthRequest(http.MethodPost, "/v1/ai/recommend-courses", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("recommend-courses: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got []ai.CourseRecommendation
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	ids := map[string]bool{}
	for _, r := range got {
		ids[r.CourseID] = true
	}
	if len(got) != 2 || !ids[crs1.ID] || !ids[crs2.ID] {
		t.Errorf("fallback recommendations = %+v, want both courses", got)
	}
}
