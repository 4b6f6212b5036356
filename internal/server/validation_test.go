package server

import (
	"strings"
	"testing"
)

func TestValidateNameNormalizes(t *testing.T) {
	name, err := validateName("  Ada   Lovelace ")
	if err != nil {
		t.Fatalf("validate name: %v", err)
	}
	if name != "Ada Lovelace" {
		t.Fatalf("expected normalized name, got %q", name)
	}
	if _, err := validateName("   "); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
	if _, err := validateName(strings.Repeat("a", maxNameLength+1)); err == nil {
		t.Fatalf("expected oversized name to be rejected")
	}
	// Limits count characters, not bytes.
	if _, err := validateName(strings.Repeat("é", maxNameLength)); err != nil {
		t.Fatalf("expected %d-rune multibyte name to pass, got %v", maxNameLength, err)
	}
	if _, err := validateName(strings.Repeat("é", maxNameLength+1)); err == nil {
		t.Fatalf("expected %d-rune name to be rejected", maxNameLength+1)
	}
}

func TestValidatePredictionText(t *testing.T) {
	text, err := validatePredictionText(" will  trip over\tthe cat ")
	if err != nil {
		t.Fatalf("validate text: %v", err)
	}
	if text != "will trip over the cat" {
		t.Fatalf("expected normalized text, got %q", text)
	}
	if _, err := validatePredictionText(""); err == nil {
		t.Fatalf("expected empty text to be rejected")
	}
	if _, err := validatePredictionText(strings.Repeat("x", maxPredictionLength+1)); err == nil {
		t.Fatalf("expected oversized text to be rejected")
	}
	if _, err := validatePredictionText(strings.Repeat("ü", maxPredictionLength)); err != nil {
		t.Fatalf("expected %d-rune multibyte text to pass, got %v", maxPredictionLength, err)
	}
}

func TestValidateRequestTags(t *testing.T) {
	if err := validateRequest(playerRequest{Name: "Ada"}); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if err := validateRequest(playerRequest{}); err == nil {
		t.Fatalf("expected missing name to fail")
	}
	if err := validateRequest(predictionRequest{
		RoundID:     "round-1",
		PredictorID: 1,
		TargetID:    2,
		Text:        "will wave",
	}); err != nil {
		t.Fatalf("expected valid prediction request, got %v", err)
	}
	if err := validateRequest(predictionRequest{RoundID: "round-1", PredictorID: 1, TargetID: 2}); err == nil {
		t.Fatalf("expected missing text to fail")
	}
}
