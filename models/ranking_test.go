package models

import "testing"

func TestRankScopeTag(t *testing.T) {
	if got := GlobalScope().Tag(); got != "global" {
		t.Errorf("global tag = %q, want global", got)
	}
	if got := CategoryScope("CS2").Tag(); got != "category:CS2" {
		t.Errorf("category tag = %q, want category:CS2", got)
	}
	if got := (RankScope{}).Tag(); got != "global" {
		t.Errorf("zero scope tag = %q, want global", got)
	}
}
