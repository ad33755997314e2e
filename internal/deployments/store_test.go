package deployments

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "workspace")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func f64(v float64) *float64 { return &v }

func TestAssessRisk_BaselineForFirstDeployment(t *testing.T) {
	s := newTestStore(t)
	record, err := s.AssessRisk("api-gateway", "2.1.0")
	if err != nil {
		t.Fatalf("AssessRisk: %v", err)
	}
	if record.Status != StatusPlanned {
		t.Errorf("Status = %s, want planned", record.Status)
	}
	if record.RiskScore < 0 || record.RiskScore > 1 {
		t.Errorf("RiskScore out of [0,1]: %f", record.RiskScore)
	}
	if len(record.RiskFactors) == 0 {
		t.Error("expected at least a baseline risk factor")
	}
}

func TestAssessRisk_RecentFailuresRaiseScore(t *testing.T) {
	s := newTestStore(t)
	d1, _ := s.AssessRisk("svc", "1.0.0")
	d1.Status = StatusFailed
	_ = s.save()

	d2, _ := s.AssessRisk("svc", "1.0.1")
	var hasFailureFactor bool
	for _, f := range d2.RiskFactors {
		if f.Name == "recent_failures" {
			hasFailureFactor = true
		}
	}
	if !hasFailureFactor {
		t.Error("expected recent_failures factor after a prior failed deployment")
	}
}

func TestAssessRisk_MajorVersionBump(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.AssessRisk("svc", "1.9.0")
	d2, _ := s.AssessRisk("svc", "2.0.0")

	var found bool
	for _, f := range d2.RiskFactors {
		if f.Name == "major_version_change" {
			found = true
		}
	}
	if !found {
		t.Error("expected major_version_change factor for 1.x -> 2.x")
	}
}

func TestLabelForScore_Thresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  RiskLabel
	}{
		{0.0, RiskLow},
		{0.29, RiskLow},
		{0.3, RiskMedium},
		{0.59, RiskMedium},
		{0.6, RiskHigh},
		{0.79, RiskHigh},
		{0.8, RiskCritical},
		{1.0, RiskCritical},
	}
	for _, tc := range cases {
		if got := LabelForScore(tc.score); got != tc.want {
			t.Errorf("LabelForScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestUpdateCanary_SuccessCriteria(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.AssessRisk("api", "3.0")

	updated, err := s.UpdateCanary(d.ID, f64(10), f64(0.005), f64(200))
	if err != nil {
		t.Fatalf("UpdateCanary: %v", err)
	}
	if !updated.CanaryMetrics.SuccessCriteriaMet {
		t.Error("expected success criteria met for low error rate and latency")
	}
	if updated.Status != StatusCanary {
		t.Errorf("Status = %s, want canary", updated.Status)
	}
}

func TestUpdateCanary_FailsWhenErrorRateTooHigh(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.AssessRisk("api", "3.0")
	updated, _ := s.UpdateCanary(d.ID, f64(10), f64(0.05), f64(200))
	if updated.CanaryMetrics.SuccessCriteriaMet {
		t.Error("expected success criteria not met for high error rate")
	}
}

func TestShouldRollback_TrueWhenCanaryFails(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.AssessRisk("api", "3.0")
	updated, _ := s.UpdateCanary(d.ID, f64(10), f64(0.05), f64(900))
	if !updated.ShouldRollback() {
		t.Error("expected rollback recommended when canary fails success criteria")
	}
}

func TestShouldRollback_FalseWithoutCanaryMetrics(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.AssessRisk("api", "3.0")
	if d.ShouldRollback() {
		t.Error("expected no rollback recommendation before canary metrics exist")
	}
}

func TestPostDeployVerify_PromotesOnSuccess(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.AssessRisk("api", "3.0")
	_, _ = s.UpdateCanary(d.ID, f64(100), f64(0.001), f64(100))

	updated, err := s.PostDeployVerify(d.ID, "looks good")
	if err != nil {
		t.Fatalf("PostDeployVerify: %v", err)
	}
	if updated.Status != StatusPromoted {
		t.Errorf("Status = %s, want promoted", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Error("expected CompletedAt to be set")
	}
	if len(updated.Notes) != 1 || updated.Notes[0] != "looks good" {
		t.Errorf("Notes = %+v", updated.Notes)
	}
}

func TestPostDeployVerify_NoPromotionWithoutCanarySuccess(t *testing.T) {
	s := newTestStore(t)
	d, _ := s.AssessRisk("api", "3.0")
	updated, err := s.PostDeployVerify(d.ID, "")
	if err != nil {
		t.Fatalf("PostDeployVerify: %v", err)
	}
	if updated.Status != StatusPlanned {
		t.Errorf("Status = %s, want unchanged planned", updated.Status)
	}
}

func TestDiffAnalysis_ComparesLastTwoDeployments(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.AssessRisk("svc", "1.0")
	_, _ = s.AssessRisk("svc", "2.0")

	current, previous, delta, ok := s.DiffAnalysis("svc")
	if !ok {
		t.Fatal("expected ok=true with two deployments")
	}
	if current.Version != "2.0" || previous.Version != "1.0" {
		t.Errorf("current=%s previous=%s", current.Version, previous.Version)
	}
	_ = delta
}

func TestDiffAnalysis_FalseWithInsufficientHistory(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.AssessRisk("svc", "1.0")
	if _, _, _, ok := s.DiffAnalysis("svc"); ok {
		t.Error("expected ok=false with only one deployment")
	}
}

func TestChangeWindow_Contains(t *testing.T) {
	w := ChangeWindow{Name: "business_hours", AllowedDays: []int{1, 2, 3, 4, 5}, StartHour: 9, EndHour: 17}
	inWindow := time.Date(2026, 7, 27, 12, 0, 0, 0, time.UTC) // Monday
	outOfWindow := time.Date(2026, 7, 27, 20, 0, 0, 0, time.UTC)
	weekend := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) // Saturday

	if !w.Contains(inWindow) {
		t.Error("expected Monday noon to be within business hours window")
	}
	if w.Contains(outOfWindow) {
		t.Error("expected Monday 20:00 to be outside business hours window")
	}
	if w.Contains(weekend) {
		t.Error("expected Saturday to be outside a Mon-Fri window")
	}
}

func TestAddAndListChangeWindows(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddChangeWindow(ChangeWindow{Name: "biz", AllowedDays: []int{1, 2, 3, 4, 5}, StartHour: 9, EndHour: 17}); err != nil {
		t.Fatalf("AddChangeWindow: %v", err)
	}
	if len(s.ChangeWindows()) != 1 {
		t.Errorf("len(ChangeWindows) = %d, want 1", len(s.ChangeWindows()))
	}
}

func TestTimeline_RespectsLimitAndServiceFilter(t *testing.T) {
	s := newTestStore(t)
	_, _ = s.AssessRisk("web", "1.0")
	_, _ = s.AssessRisk("api", "1.0")
	_, _ = s.AssessRisk("web", "1.1")

	webOnly := s.Timeline("web", 0)
	if len(webOnly) != 2 {
		t.Errorf("len(webOnly) = %d, want 2", len(webOnly))
	}
	limited := s.Timeline("", 1)
	if len(limited) != 1 {
		t.Errorf("len(limited) = %d, want 1", len(limited))
	}
}

func TestStore_PersistsAcrossReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "workspace")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	_, _ = s.AssessRisk("svc", "1.0")

	reloaded, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore reload: %v", err)
	}
	if len(reloaded.Timeline("", 0)) != 1 {
		t.Errorf("expected 1 deployment after reload, got %d", len(reloaded.Timeline("", 0)))
	}
}
