package validation

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Provider string `json:"provider" validate:"omitempty,provider"`
	Limit    int    `form:"limit" validate:"omitempty,max=100"`
}

func TestToDetailsUsesTagNames(t *testing.T) {
	v := validator.New()
	register(v)

	err := v.Struct(signup{Email: "nope", Password: "short", Provider: "facebook", Limit: 500})
	got := ToDetails(err)
	want := map[string]string{
		"email":    "must be a valid email",
		"password": "min length 8",
		"provider": "must be one of: local, google, github",
		"limit":    "must be at most 100",
	}
	for k, msg := range want {
		if got[k] != msg {
			t.Fatalf("details[%s] = %q, want %q (all: %v)", k, got[k], msg, got)
		}
	}
}

func TestToDetailsInvalidJSON(t *testing.T) {
	var dst map[string]any
	err := json.Unmarshal([]byte("{"), &dst)
	if got := ToDetails(err); got["payload"] != "invalid json" {
		t.Fatalf("got %v", got)
	}
	if ToDetails(nil) != nil {
		t.Fatalf("nil error must give nil details")
	}
}
