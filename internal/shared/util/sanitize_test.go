package util

import "testing"

func TestSanitizeFileNameReplacesSeparators(t *testing.T) {
	got, err := SanitizeFileName("reports/q1\\final.pdf")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if got != "reports_q1_final.pdf" {
		t.Fatalf("unexpected sanitized name: %s", got)
	}
}

func TestSanitizeFileNameRejectsTraversal(t *testing.T) {
	if _, err := SanitizeFileName("../../etc/passwd"); err == nil {
		t.Fatal("expected traversal pattern to be rejected")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatal("expected blank name to be rejected")
	}
}
