package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewConflictError(ErrUserExists))

	if got := KindOf(wrapped); got != KindConflict {
		t.Errorf("expected wrapped conflict, got %s", got)
	}
	if got := KindOf(errors.New("boom")); got != KindInternal {
		t.Errorf("plain errors should be internal, got %s", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[ErrorKind]int{
		KindConflict:          http.StatusConflict,
		KindNotFound:          http.StatusNotFound,
		KindInvalidState:      http.StatusBadRequest,
		KindInvalidCredential: http.StatusBadRequest,
		KindValidation:        http.StatusBadRequest,
		KindForbidden:         http.StatusForbidden,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := HTTPStatus(kind); got != want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"conflict", NewConflictError(ErrUserExists), http.StatusConflict, "CONFLICT", ErrUserExists},
		{"validation details", NewValidationError(ErrValidationFailed, map[string]string{"email": "required"}), http.StatusBadRequest, "VALIDATION_ERROR", ErrValidationFailed},
		{"internal hides cause", NewInternalError("db exploded", errors.New("secret dsn")), http.StatusInternalServerError, "INTERNAL_ERROR", ErrInternalServer},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR", ErrInternalServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Status != StatusError || body.Error == nil {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
			if body.Error.Code != tt.wantCode || body.Error.Message != tt.wantMsg {
				t.Errorf("error = %+v, want %s/%s", body.Error, tt.wantCode, tt.wantMsg)
			}
		})
	}
}

func TestValidationErrorFromFormatsFields(t *testing.T) {
	request := struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,strong_password"`
	}{Email: "nope", Password: "letters"}

	appErr := ValidationErrorFrom(ValidateStruct(request))
	if appErr.Kind != KindValidation {
		t.Fatalf("expected validation kind, got %s", appErr.Kind)
	}
	if _, ok := appErr.Details["email"]; !ok {
		t.Errorf("expected email detail, got %v", appErr.Details)
	}
	if _, ok := appErr.Details["password"]; !ok {
		t.Errorf("expected password detail, got %v", appErr.Details)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		password string
		ok       bool
	}{
		{"secret123", true},
		{"short1", false},
		{"allletters", false},
		{"1234567890", false},
	}
	for _, tt := range tests {
		if err := ValidatePasswordStrength(tt.password); (err == nil) != tt.ok {
			t.Errorf("ValidatePasswordStrength(%q) = %v, want ok=%v", tt.password, err, tt.ok)
		}
	}
}

func TestNormalizeAndMask(t *testing.T) {
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
	if got := NormalizePhone("(555) 010-0001"); got != "+5550100001" {
		t.Errorf("NormalizePhone = %q", got)
	}
	if got := MaskEmail("jane@example.com"); got != "j**e@example.com" {
		t.Errorf("MaskEmail = %q", got)
	}
}
