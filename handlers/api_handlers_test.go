package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coattainment-server-go/attainment"
	"coattainment-server-go/db"
	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *db.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := db.NewMemoryStore()
	return NewRouter(NewAPIHandler(store, nil), []string{"*"}), store
}

func upload(t *testing.T, r http.Handler, path, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func submitAll(t *testing.T, r http.Handler) {
	t.Helper()
	if w := upload(t, r, "/api/process_excel", "file", "students.csv", "Roll No,Name\nR1,Asha\nR2,Bilal\n"); w.Code != http.StatusOK {
		t.Fatalf("process_excel: %d %s", w.Code, w.Body)
	}
	if w := postJSON(r, "/api/submit_subject_details", `{"subject_name":"Networks","course_id":"CS301","total_co":"2"}`); w.Code != http.StatusOK {
		t.Fatalf("submit_subject_details: %d %s", w.Code, w.Body)
	}
	mapping := `[{"exam_type":"minor1","question_number":1,"co":"CO1"},{"exam_type":"minor1","question_number":"2","co":"CO2"},{"exam_type":"final","question_number":1,"co":"CO1"}]`
	if w := postJSON(r, "/api/submit_question_mapping", mapping); w.Code != http.StatusOK {
		t.Fatalf("submit_question_mapping: %d %s", w.Code, w.Body)
	}
	if w := upload(t, r, "/api/upload_marks/minor1", "marks_file", "minor1.csv", "1,2\n8,2\n9,9\n"); w.Code != http.StatusOK {
		t.Fatalf("upload_marks: %d %s", w.Code, w.Body)
	}
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t)
	w := get(r, "/api/ping")
	if w.Code != http.StatusOK || w.Header().Get(requestIDHeader) == "" {
		t.Fatalf("ping: %d, request id %q", w.Code, w.Header().Get(requestIDHeader))
	}
}

func TestProcessExcel(t *testing.T) {
	r, store := newTestRouter(t)

	w := upload(t, r, "/api/process_excel", "file", "students.csv", "Roll No,Name\nR1,Asha\nR2,Bilal\n")
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}
	var resp struct {
		TotalStudents int `json:"total_students"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalStudents != 2 {
		t.Fatalf("total_students = %d", resp.TotalStudents)
	}
	students, _ := store.Students()
	if len(students) != 2 || students[1].Name != "Bilal" {
		t.Fatalf("stored students %+v", students)
	}

	if w := upload(t, r, "/api/process_excel", "file", "students.csv", "Branch,Year\nCSE,2\n"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for undetectable columns, got %d", w.Code)
	}
	if w := postJSON(r, "/api/process_excel", "{}"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", w.Code)
	}
}

func TestSubmitSubjectDetailsValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	tests := []struct {
		body string
		code int
	}{
		{`{"subject_name":"Networks","course_id":"CS301","total_co":3}`, http.StatusOK},
		{`{"subject_name":"Networks","total_co":"4"}`, http.StatusOK},
		{`{"subject_name":"Networks","total_co":0}`, http.StatusBadRequest},
		{`{"course_id":"CS301","total_co":3}`, http.StatusBadRequest},
		{`{"subject_name":"Networks","total_co":"three"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := postJSON(r, "/api/submit_subject_details", tt.body); w.Code != tt.code {
			t.Errorf("%s: got %d, want %d (%s)", tt.body, w.Code, tt.code, w.Body)
		}
	}
}

func TestSubmitQuestionMappingValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := postJSON(r, "/api/submit_question_mapping", `[]`); w.Code != http.StatusBadRequest {
		t.Fatalf("empty mapping: %d", w.Code)
	}
	if w := postJSON(r, "/api/submit_question_mapping", `[{"question_number":1,"co":"CO1"}]`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing exam_type: %d", w.Code)
	}
	if w := postJSON(r, "/api/submit_question_mapping", `[{"exam_type":"Minor1","question_number":1}]`); w.Code != http.StatusOK {
		t.Fatalf("entry without co is accepted and later ignored: %d", w.Code)
	}
}

func TestUploadMarksUnknownExam(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := upload(t, r, "/api/upload_marks/quiz", "marks_file", "quiz.csv", "1\n3\n"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := upload(t, r, "/api/upload_marks/final", "file", "final.csv", "1\n3\n"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong field name, got %d", w.Code)
	}
}

func TestReportsRequireAllInputs(t *testing.T) {
	r, _ := newTestRouter(t)
	for _, path := range []string{"/api/attainment", "/api/generate_mapping", "/api/report.xlsx"} {
		w := get(r, path)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), missingInputMessage) {
			t.Fatalf("%s: unexpected body %s", path, w.Body)
		}
	}
}

func TestAttainmentFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	submitAll(t, r)

	w := get(r, "/api/attainment")
	if w.Code != http.StatusOK {
		t.Fatalf("attainment: %d %s", w.Code, w.Body)
	}
	var resp struct {
		Attainment []attainment.Score `json:"attainment"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Attainment) != 2 || resp.Attainment[0].CO != "CO1" || resp.Attainment[1].CO != "CO2" {
		t.Fatalf("unexpected attainment %+v", resp.Attainment)
	}
	if d := resp.Attainment[0].Score - 0.9; d > 1e-9 || d < -1e-9 {
		t.Fatalf("CO1 = %v, want 0.9", resp.Attainment[0].Score)
	}

	w = get(r, "/api/generate_mapping")
	if w.Code != http.StatusOK {
		t.Fatalf("generate_mapping: %d %s", w.Code, w.Body)
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
	if !strings.Contains(w.Body.String(), "CO Attainment for Networks") {
		t.Fatal("chart page missing title")
	}

	w = get(r, "/api/report.xlsx")
	if w.Code != http.StatusOK || w.Body.Len() == 0 {
		t.Fatalf("report.xlsx: %d, %d bytes", w.Code, w.Body.Len())
	}
}
