package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/medtimeline/backend/internal/application/services"
)

func TestFingerprint_RootIndependence(t *testing.T) {
	a := services.Fingerprint("scans/2021/cardiology/echo_results.pdf")
	b := services.Fingerprint("backup/old drive/2021/cardiology/echo_results.pdf")
	assert.Equal(t, a, b)
}

func TestFingerprint_AliasIndependence(t *testing.T) {
	// gp and pcp both canonicalize to primary_care, so the same file
	// scanned under either spelling dedups.
	a := services.Fingerprint("scans/2022/gp/visit_note.pdf")
	b := services.Fingerprint("scans/2022/pcp/visit_note.pdf")
	assert.Equal(t, a, b)
}

func TestFingerprint_CaseAndExtensionInsensitive(t *testing.T) {
	a := services.Fingerprint("scans/2021/cardiology/Echo_Results.PDF")
	b := services.Fingerprint("scans/2021/cardiology/echo_results.pdf")
	assert.Equal(t, a, b)
}

func TestFingerprint_DuplicateSuffixStripped(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
	}{
		{"single copy marker", "scans/2021/cardiology/echo_results (1).pdf", "scans/2021/cardiology/echo_results.pdf"},
		{"stacked copy markers", "scans/2021/cardiology/echo_results (1) (2).pdf", "scans/2021/cardiology/echo_results.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, services.Fingerprint(tt.b), services.Fingerprint(tt.a))
		})
	}
}

func TestFingerprint_HistoricalOverrides(t *testing.T) {
	withSuffix := services.Fingerprint("2019/mcas/tryptase_lab_report_final.pdf")
	canonical := services.Fingerprint("2019/mcas/tryptase_lab_report.pdf")
	assert.Equal(t, canonical, withSuffix)
}

func TestFingerprint_DistinctFilesStayDistinct(t *testing.T) {
	a := services.Fingerprint("scans/2021/cardiology/echo_results.pdf")
	b := services.Fingerprint("scans/2021/cardiology/stress_test.pdf")
	assert.NotEqual(t, a, b)
}
