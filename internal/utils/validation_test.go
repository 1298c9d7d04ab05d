package utils

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	if err := ValidateName("Groceries"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateName(""); err == nil {
		t.Error("empty name accepted")
	}
	if err := ValidateName("   "); err == nil {
		t.Error("whitespace-only name accepted")
	}
	if err := ValidateName(strings.Repeat("x", MaxNameLength+1)); err == nil {
		t.Error("overlong name accepted")
	}
}

func TestParseQuantityFlag(t *testing.T) {
	v, err := ParseQuantityFlag("2.5")
	if err != nil || v != 2.5 {
		t.Errorf("ParseQuantityFlag(2.5) = %v, %v", v, err)
	}
	if _, err := ParseQuantityFlag("abc"); err == nil {
		t.Error("non-numeric quantity accepted")
	}
	if _, err := ParseQuantityFlag("0"); err == nil {
		t.Error("zero quantity accepted")
	}
	if _, err := ParseQuantityFlag("-1"); err == nil {
		t.Error("negative quantity accepted")
	}
}
