package liability

import (
	"testing"

	"github.com/brightpay/ledgercore/src/models"
)

func TestDefaultClassificationKnownCode(t *testing.T) {
	ref, ok := defaultClassification(models.RailACH, "R01")
	if !ok {
		t.Fatal("expected R01 to resolve")
	}
	if ref.DefaultParty != models.LiabilityPartyEmployer {
		t.Errorf("DefaultParty = %v, want employer", ref.DefaultParty)
	}
	if !ref.IsRecoverable {
		t.Error("R01 should be recoverable")
	}
}

func TestDefaultClassificationUnknownCode(t *testing.T) {
	if _, ok := defaultClassification(models.RailACH, "R99"); ok {
		t.Error("expected unknown code to miss")
	}
}

func TestDefaultClassificationRailSpecific(t *testing.T) {
	if _, ok := defaultClassification(models.RailFedNow, "R01"); ok {
		t.Error("ACH codes should not resolve under a different rail")
	}
}
