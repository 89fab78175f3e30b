package model

import (
	"testing"
	"time"
)

func TestSessionStatusCanTransition(t *testing.T) {
	for _, tc := range []struct {
		from, to SessionStatus
		want     bool
	}{
		{StatusScheduled, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusInProgress, StatusScheduled, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusScheduled, StatusScheduled, false},
		{StatusCompleted, StatusCompleted, false},
	} {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSessionStatusIsValid(t *testing.T) {
	for _, s := range []SessionStatus{StatusScheduled, StatusInProgress, StatusCompleted} {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if SessionStatus("cancelled").IsValid() {
		t.Error("cancelled should not be valid")
	}
}

func TestScoreCodeCounted(t *testing.T) {
	for _, tc := range []struct {
		code ScoreCode
		want bool
	}{
		{ScoreCorrect, true},
		{ScoreSelfCorrect, true},
		{ScoreIncorrect, false},
		{ScoreNoResponse, false},
	} {
		if got := tc.code.Counted(); got != tc.want {
			t.Errorf("Counted(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestScoreCodeIsValid(t *testing.T) {
	if ScoreCode("partial").IsValid() {
		t.Error("partial should not be valid")
	}
	if !ScoreNoResponse.IsValid() {
		t.Error("no_response should be valid")
	}
}

func TestCapabilityKindIsValid(t *testing.T) {
	if !KindGuardianPortal.IsValid() || !KindSubstituteProctor.IsValid() {
		t.Error("known kinds should be valid")
	}
	if CapabilityKind("admin").IsValid() {
		t.Error("admin should not be valid")
	}
}

func TestCapabilityExpired(t *testing.T) {
	now := time.Now()
	cap := &Capability{ExpiresAt: now.Add(24 * time.Hour)}
	if cap.Expired(now) {
		t.Error("capability should not be expired before expires_at")
	}
	if !cap.Expired(now.Add(24*time.Hour + time.Second)) {
		t.Error("capability should be expired one second past expires_at")
	}
	if !cap.Expired(cap.ExpiresAt) {
		t.Error("capability should be expired exactly at expires_at")
	}
}
