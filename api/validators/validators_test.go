package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
)

type addItemBody struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1,max=99"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p1","quantity":2}`))
	var body addItemBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.ProductID != "p1" || body.Quantity != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONBodyValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"quantity":0}`))
	var body addItemBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["product_id"] != "is required" || details["quantity"] != "must be at least 1" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"product_id":"p1","quantity":1,"price":0}`))
	var body addItemBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsEmptyAndOversizedBodies(t *testing.T) {
	var body addItemBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) || pkgerrors.As(err).Message() != "request body is required" {
		t.Fatalf("expected missing body error, got %v", err)
	}

	huge := `{"product_id":"` + strings.Repeat("x", MaxBodyBytes) + `","quantity":1}`
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(huge))
	err = DecodeJSONBody(req, &body)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) || pkgerrors.As(err).Message() != "request body too large" {
		t.Fatalf("expected oversized body error, got %v", err)
	}
}

type variantBody struct {
	Variants map[string]string `json:"variants" validate:"omitempty,max=2,dive,keys,min=1,max=8,endkeys,max=4"`
}

func TestDecodeJSONBodyValidatesVariantEntries(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"variants":{"color":"crimson"}}`))
	var body variantBody
	err := DecodeJSONBody(req, &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", err)
	}
	if details["variants[color]"] != "must have at most 4 characters or entries" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?min=100&force=true&bad=x", nil)

	min, err := ParseOptionalQueryInt(req, "min", 0)
	if err != nil || min == nil || *min != 100 {
		t.Fatalf("unexpected min %v err=%v", min, err)
	}
	missing, err := ParseOptionalQueryInt(req, "max", 0)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for absent key, got %v err=%v", missing, err)
	}
	if _, err := ParseOptionalQueryInt(req, "bad", 0); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	force, err := ParseQueryBool(req, "force", false)
	if err != nil || !force {
		t.Fatalf("unexpected force %v err=%v", force, err)
	}
	if _, err := ParseQueryBool(req, "bad", false); err == nil {
		t.Fatalf("expected error for non-bool")
	}

	limit, err := ParseQueryInt(req, "limit", 20, 1, 100)
	if err != nil || limit != 20 {
		t.Fatalf("expected default limit, got %d err=%v", limit, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  abcdef  ", 3); got != "abc" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
	if got := SanitizeString("cafés", 4); got != "café" {
		t.Fatalf("expected rune-aligned truncation, got %q", got)
	}
	if got := SanitizeString("日本語カテゴリ", 2); got != "日本" {
		t.Fatalf("expected two runes, got %q", got)
	}
	if got := SanitizeString("camp\x00ing\t", 0); got != "camping" {
		t.Fatalf("expected control characters dropped, got %q", got)
	}
}
