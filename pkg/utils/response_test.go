package utils_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danieljharvey/chatbat/pkg/utils"
)

func TestRespondJSON(t *testing.T) {
	recorder := httptest.NewRecorder()

	utils.RespondJSON(recorder, http.StatusCreated, map[string]string{"id": "abc"})

	if recorder.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusCreated)
	}
	if got := recorder.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content type = %q", got)
	}

	var body map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != "abc" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()

	utils.RespondError(recorder, http.StatusNotFound, "session not found")

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", recorder.Code, http.StatusNotFound)
	}

	var body map[string]string
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "session not found" {
		t.Fatalf("unexpected body: %v", body)
	}
}
