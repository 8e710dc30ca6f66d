package service

import (
	"testing"
	"time"

	"github.com/veritest/veritest-backend/internal/model"
)

var trackerBase = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestRemainingSecondsUntimed(t *testing.T) {
	s := &model.Session{ElapsedSeconds: 9999}
	if got := RemainingSeconds(s, 0, trackerBase); got != nil {
		t.Errorf("untimed exam should report nil, got %d", *got)
	}
}

func TestRemainingSecondsPaused(t *testing.T) {
	// 10-minute exam, 4 minutes consumed across earlier runs, not running.
	s := &model.Session{ElapsedSeconds: 240}
	got := RemainingSeconds(s, 10, trackerBase)
	if got == nil || *got != 360 {
		t.Fatalf("got %v, want 360", got)
	}

	// A paused clock does not drain: same reading an hour later.
	got = RemainingSeconds(s, 10, trackerBase.Add(time.Hour))
	if got == nil || *got != 360 {
		t.Errorf("paused session drained to %v, want 360", got)
	}
}

func TestRemainingSecondsRunning(t *testing.T) {
	start := trackerBase.Add(-90 * time.Second)
	s := &model.Session{
		ElapsedSeconds: 120,
		Running:        true,
		RunStartedAt:   &start,
	}

	// 10 min cap, 120s banked + 90s open run = 390 remaining.
	got := RemainingSeconds(s, 10, trackerBase)
	if got == nil || *got != 390 {
		t.Fatalf("got %v, want 390", got)
	}
}

func TestRemainingSecondsClampedAtZero(t *testing.T) {
	start := trackerBase.Add(-time.Hour)
	s := &model.Session{
		ElapsedSeconds: 500,
		Running:        true,
		RunStartedAt:   &start,
	}

	got := RemainingSeconds(s, 5, trackerBase)
	if got == nil || *got != 0 {
		t.Errorf("overrun session reported %v, want 0", got)
	}
}

func TestRemainingSecondsFinalized(t *testing.T) {
	done := trackerBase.Add(-time.Minute)
	s := &model.Session{ElapsedSeconds: 10, CompletedAt: &done}

	got := RemainingSeconds(s, 60, trackerBase)
	if got == nil || *got != 0 {
		t.Errorf("finalized session reported %v, want 0", got)
	}
}

func TestExpired(t *testing.T) {
	s := &model.Session{ElapsedSeconds: 601}
	if !Expired(s, 10, trackerBase) {
		t.Error("session past its cap should be expired")
	}

	s = &model.Session{ElapsedSeconds: 599}
	if Expired(s, 10, trackerBase) {
		t.Error("session with clock left should not be expired")
	}

	if Expired(&model.Session{ElapsedSeconds: 9999}, 0, trackerBase) {
		t.Error("untimed session can never expire")
	}

	done := trackerBase
	s = &model.Session{ElapsedSeconds: 9999, CompletedAt: &done}
	if Expired(s, 10, trackerBase) {
		t.Error("finalized session is not expired, it is finished")
	}
}
