package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/kyalo/darasa/core"
	"github.com/kyalo/darasa/core/course"
	"github.com/kyalo/darasa/core/user"
	"github.com/kyalo/darasa/tests"
)

func Test_courseApi_courseCreate(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)

	body := marchallObj(t, course.NewCourse{Title: "Algebra I", Subject: "math"})

	tests := []httpTest{
		{name: "Auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students cannot create courses", token: getToken(t, student), body: body,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: getToken(t, teacher), body: marchallObj(t, course.NewCourse{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required", "subject": "this field is required"}),
		},
		{name: "Created", token: getToken(t, teacher), body: body, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/courses"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var crs course.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &crs); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if crs.ID == "" {
					t.Error("failed! empty course ID")
				}
				if crs.TeacherID != teacher.ID || crs.TeacherName != teacher.Name {
					t.Errorf("teacher = (%v, %v), want (%v, %v)", crs.TeacherID, crs.TeacherName, teacher.ID, teacher.Name)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_courseUpdateDestroy(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)
	rival := testutil.CreateUser(t, usrRepo, "Rival", "rival1", "rival@test.cd", "", []string{user.RoleTeacher}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	crs := testutil.CreateCourse(t, crsRepo, "Algebra I", "math", teacher)
	updateBody := marchallObj(t, course.UpdateCourse{Title: "Algebra II", Subject: "math"})
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPut, body: updateBody, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Only the owner may update", method: http.MethodPut, token: getToken(t, rival), body: updateBody, wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "Owner updates", method: http.MethodPut, token: getToken(t, teacher), body: updateBody, wantCode: http.StatusOK},
		{
			// omitted title & subject keep their current values
			name: "Partial update keeps omitted fields", method: http.MethodPut, token: getToken(t, teacher),
			body: marchallObj(t, course.UpdateCourse{Description: "intro algebra"}), wantCode: http.StatusOK,
			extra: "intro algebra",
		},
		{name: "Only the owner may delete", method: http.MethodDelete, token: getToken(t, rival), wantCode: http.StatusForbidden, wantData: forbidden},
		{name: "Admin deletes", method: http.MethodDelete, token: getToken(t, admin), wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.path = "/v1/courses/" + crs.ID

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			switch tt.wantCode {
			case http.StatusOK:
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var updated course.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if updated.Title != "Algebra II" || updated.Subject != "math" {
					t.Errorf("course = (%v, %v), want (Algebra II, math)", updated.Title, updated.Subject)
				}
				if want, ok := tt.extra.(string); ok && updated.Description != want {
					t.Errorf("description = %v, want %v", updated.Description, want)
				}
			case http.StatusNoContent:
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				if _, err := crsRepo.GetCourse(req.Context(), crs.ID); err != course.ErrNotFound {
					t.Errorf("GetCourse() error = %v, want %v", err, course.ErrNotFound)
				}
			default:
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func Test_courseApi_enroll(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	crs := testutil.CreateCourse(t, crsRepo, "Algebra I", "math", teacher)

	studentToken := getToken(t, student)

	// enroll
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll: code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var enr course.Enrollment
	if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if enr.CourseID != crs.ID || enr.StudentID != student.ID {
		t.Errorf("enrollment = (%v, %v), want (%v, %v)", enr.CourseID, enr.StudentID, crs.ID, student.ID)
	}

	// double enrollment is rejected
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"course_id": "already enrolled in this course"}),
	}, rec)

	// the owner cannot enroll in their own course
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"course_id": "cannot enroll in your own course"}),
	}, rec)

	// the roster is only visible to the owner
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/enrollments", getToken(t, other))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/enrollments", getToken(t, teacher))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("enrollments: code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var roster []course.Enrollment
	if err := json.Unmarshal(rec.Body.Bytes(), &roster); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(roster) != 1 || roster[0].StudentID != student.ID || roster[0].StudentName != student.Name {
		t.Errorf("roster = %+v, want the enrolled student", roster)
	}

	// unenroll, then a second attempt 404s
	req, rec = newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID+"/enroll", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unenroll: code = %v; want %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodDelete, "/v1/courses/"+crs.ID+"/enroll", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "not found"}),
	}, rec)
}

func newUploadRequest(t *testing.T, path, token, title, filename, contentType string, content []byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if title != "" {
		if err := w.WriteField("title", title); err != nil {
			t.Fatalf("WriteField(): %v", err)
		}
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		fw, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart(): %v", err)
		}
		if _, err = fw.Write(content); err != nil {
			t.Fatalf("Write(): %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close(): %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func Test_courseApi_contentUpload(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent}, true)

	crs := testutil.CreateCourse(t, crsRepo, "Algebra I", "math", teacher)
	videosPath := "/v1/courses/" + crs.ID + "/videos"
	pdfsPath := "/v1/courses/" + crs.ID + "/pdfs"
	payload := []byte("not really a video")

	// only the owner may upload
	req, rec := newUploadRequest(t, videosPath, getToken(t, student), "Intro", "intro.mp4", "video/mp4", payload)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	// the file part is required
	req, rec = newUploadRequest(t, videosPath, getToken(t, teacher), "Intro", "", "", nil)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"file": "this field is required"}),
	}, rec)

	// upload a video
	req, rec = newUploadRequest(t, videosPath, getToken(t, teacher), "Intro", "intro.mp4", "video/mp4", payload)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var video course.Content
	if err := json.Unmarshal(rec.Body.Bytes(), &video); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if video.Kind != course.KindVideo || video.Title != "Intro" || video.Filename != "intro.mp4" {
		t.Errorf("content = %+v, want a video titled Intro", video)
	}
	if video.Size != int64(len(payload)) {
		t.Errorf("size = %v, want %v", video.Size, len(payload))
	}
	if blobs.Len() != 1 {
		t.Errorf("blob count = %v, want 1", blobs.Len())
	}

	// and a pdf
	req, rec = newUploadRequest(t, pdfsPath, getToken(t, teacher), "Notes", "notes.pdf", "application/pdf", []byte("%PDF-1.4"))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// listings are split by kind
	req2, rec2 := newAuthRequest(http.MethodGet, videosPath, getToken(t, student))
	app.ServeHTTP(rec2, req2)
	var videos []course.Content
	if err := json.Unmarshal(rec2.Body.Bytes(), &videos); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(videos) != 1 || videos[0].Kind != course.KindVideo {
		t.Errorf("videos = %+v, want just the video", videos)
	}

	req2, rec2 = newAuthRequest(http.MethodGet, pdfsPath, getToken(t, student))
	app.ServeHTTP(rec2, req2)
	var pdfs []course.Content
	if err := json.Unmarshal(rec2.Body.Bytes(), &pdfs); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(pdfs) != 1 || pdfs[0].Kind != course.KindPDF {
		t.Errorf("pdfs = %+v, want just the pdf", pdfs)
	}

	// removing a video drops its blob too
	req2, rec2 = newAuthRequest(http.MethodDelete, videosPath+"/"+video.ID, getToken(t, teacher))
	app.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusNoContent {
		t.Fatalf("remove: code = %v; want %v; body %s", rec2.Code, http.StatusNoContent, rec2.Body.String())
	}
	if blobs.Len() != 1 {
		t.Errorf("blob count = %v, want 1 (the pdf)", blobs.Len())
	}

	// unknown content 404s
	req2, rec2 = newAuthRequest(http.MethodDelete, videosPath+"/"+video.ID, getToken(t, teacher))
	app.ServeHTTP(rec2, req2)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "not found"}),
	}, rec2)
}

func Test_courseApi_contentUploadLimits(t *testing.T) {
	resetDB(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach1", "teach@test.cd", "", []string{user.RoleTeacher}, true)
	crs := testutil.CreateCourse(t, crsRepo, "Algebra I", "math", teacher)
	teacherToken := getToken(t, teacher)

	videosPath := "/v1/courses/" + crs.ID + "/videos"
	pdfsPath := "/v1/courses/" + crs.ID + "/pdfs"

	// a video upload must carry a video content type
	req, rec := newUploadRequest(t, videosPath, teacherToken, "Intro", "intro.txt", "text/plain", []byte("hello"))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"file": "file must be a video"}),
	}, rec)

	// and a pdf upload an application/pdf one
	req, rec = newUploadRequest(t, pdfsPath, teacherToken, "Notes", "notes.mp4", "video/mp4", []byte("lol"))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"file": "file must be a pdf"}),
	}, rec)

	// oversize uploads are rejected and leave no blob behind
	origMax := core.Conf.Upload.MaxVideoSize
	core.Conf.Upload.MaxVideoSize = 1 << 20
	defer func() { core.Conf.Upload.MaxVideoSize = origMax }()

	tooBig := bytes.Repeat([]byte("a"), 1<<20+1)
	req, rec = newUploadRequest(t, videosPath, teacherToken, "Intro", "intro.mp4", "video/mp4", tooBig)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"file": "file exceeds the 1MB size limit"}),
	}, rec)
	if blobs.Len() != 0 {
		t.Errorf("blob count = %v, want 0", blobs.Len())
	}
}
