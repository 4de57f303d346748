package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/kyalo/darasa/core/message"
	"github.com/kyalo/darasa/core/user"
	"github.com/kyalo/darasa/tests"
)

func Test_messageApi_messageSend(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)

	body := func(recipientID, text string) []byte {
		return marchallObj(t, message.NewMessage{RecipientID: recipientID, Body: text})
	}

	tests := []httpTest{
		{
			name: "Auth required", body: body(teacher.ID, "hi"),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "required fields", token: getToken(t, student), body: body("", ""),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recipient_id": "this field is required", "body": "this field is required"}),
		},
		{
			name: "unknown recipient", token: getToken(t, student), body: body("00000000-0000-0000-0000-000000000000", "hi"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recipient_id": "recipient not found"}),
		},
		{
			name: "self-messaging", token: getToken(t, student), body: body(student.ID, "hi me"),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recipient_id": "cannot message yourself"}),
		},
		{name: "Sent", token: getToken(t, student), body: body(teacher.ID, "hi teacher"), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/messages"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var msg message.Message
				if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if msg.ID == "" || msg.SenderID != student.ID || msg.RecipientID != teacher.ID {
					t.Errorf("message = %+v, want one from the student to the teacher", msg)
				}
				if msg.ReadAt != nil {
					t.Error("failed! new message already read")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_messageApi_messageThread(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	now := time.Now().UTC().Truncate(time.Second)
	m1 := testutil.CreateMessage(t, msgRepo, student, teacher, "hi", now.Add(-3*time.Minute))
	m2 := testutil.CreateMessage(t, msgRepo, teacher, student, "hello", now.Add(-2*time.Minute))
	m3 := testutil.CreateMessage(t, msgRepo, teacher, student, "still there?", now.Add(-1*time.Minute))
	testutil.CreateMessage(t, msgRepo, other, teacher, "yo", now) // another thread

	// the peer param is required
	req, rec := newAuthRequest(http.MethodGet, "/v1/messages", getToken(t, student))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"peer": "this field is required"}),
	}, rec)

	// full thread, oldest first, scoped to the pair
	req, rec = newAuthRequest(http.MethodGet, "/v1/messages?peer="+teacher.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("thread: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var msgs []message.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("thread length = %v, want 3", len(msgs))
	}
	for i, want := range []string{m1.ID, m2.ID, m3.ID} {
		if msgs[i].ID != want {
			t.Errorf("msgs[%d].ID = %v, want %v", i, msgs[i].ID, want)
		}
	}

	// fetching the thread marked the received messages as read
	req, rec = newAuthRequest(http.MethodGet, "/v1/messages?peer="+teacher.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	msgs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	for _, msg := range msgs {
		if msg.RecipientID == student.ID && msg.ReadAt == nil {
			t.Errorf("message %v still unread", msg.ID)
		}
		if msg.SenderID == student.ID && msg.ReadAt != nil {
			t.Errorf("message %v read by its own sender", msg.ID)
		}
	}
}

func Test_messageApi_messageConversations(t *testing.T) {
	resetDB(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	now := time.Now().UTC().Truncate(time.Second)
	testutil.CreateMessage(t, msgRepo, student, teacher, "hi", now.Add(-4*time.Minute))
	testutil.CreateMessage(t, msgRepo, teacher, student, "hello", now.Add(-3*time.Minute))
	testutil.CreateMessage(t, msgRepo, teacher, student, "still there?", now.Add(-2*time.Minute))
	testutil.CreateMessage(t, msgRepo, other, student, "yo", now.Add(-1*time.Minute))

	req, rec := newAuthRequest(http.MethodGet, "/v1/messages/conversations", getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("conversations: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var convs []message.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &convs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("conversations = %v, want 2", len(convs))
	}

	// most recent exchange first
	if convs[0].PeerID != other.ID || convs[0].PeerName != other.Name || convs[0].Unread != 1 {
		t.Errorf("convs[0] = %+v, want the other student with 1 unread", convs[0])
	}
	if convs[1].PeerID != teacher.ID || convs[1].LastBody != "still there?" || convs[1].Unread != 2 {
		t.Errorf("convs[1] = %+v, want the teacher thread with 2 unread", convs[1])
	}

	// reading the teacher thread clears its unread count
	req, rec = newAuthRequest(http.MethodGet, "/v1/messages?peer="+teacher.ID, getToken(t, student))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("thread: code = %v; want %v", rec.Code, http.StatusOK)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/messages/conversations", getToken(t, student))
	app.ServeHTTP(rec, req)
	convs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &convs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	for _, conv := range convs {
		if conv.PeerID == teacher.ID && conv.Unread != 0 {
			t.Errorf("teacher thread unread = %v, want 0", conv.Unread)
		}
	}
}
