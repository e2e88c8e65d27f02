package retrieval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/config"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexSearch(t *testing.T) {
	ix := NewIndex("test", testLogger())
	ix.AddText("a", "diabetes is a chronic condition affecting blood sugar levels")
	ix.AddText("b", "appointments can be booked through the mobile application")
	ix.AddText("c", "hypertension means elevated blood pressure readings")
	ix.Build()

	chunks := ix.Search("how do I book an appointment", 2)
	if len(chunks) == 0 {
		t.Fatal("expected at least one result")
	}
	if chunks[0].Source != "b" {
		t.Errorf("expected booking chunk first, got %q", chunks[0].Source)
	}
}

func TestIndexSearchEmptyIndex(t *testing.T) {
	ix := NewIndex("empty", testLogger())
	ix.Build()
	if got := ix.Search("anything", 5); len(got) != 0 {
		t.Errorf("expected no results from empty index, got %d", len(got))
	}
}

func TestRetrieverContext(t *testing.T) {
	medDir := t.TempDir()
	flowDir := t.TempDir()
	writeDoc(t, medDir, "diabetes.md", "# Diabetes\n\nDiabetes is a chronic condition affecting blood sugar.")
	writeDoc(t, flowDir, "booking.md", "# Booking\n\nAppointments can be booked through the application.")

	r, err := NewRetriever(&config.KnowledgeConfig{
		MedicalDir:    medDir,
		SystemFlowDir: flowDir,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	ctx, err := r.Context(IndexMedical, "what is diabetes blood sugar condition", DefaultTopK)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ctx, "chronic condition") {
		t.Errorf("expected diabetes passage, got %q", ctx)
	}

	if _, err := r.Context("nope", "q", 3); err == nil {
		t.Error("expected error for unknown index")
	}
}

func TestRetrieverRebuild(t *testing.T) {
	r, err := NewRetriever(&config.KnowledgeConfig{
		MedicalDir:    t.TempDir(),
		SystemFlowDir: t.TempDir(),
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	r.Rebuild(IndexProperNouns, []string{"Doctor Ahmed Hassan cardiology", "Doctor Sara Ali dermatology"})
	ctx, err := r.Context(IndexProperNouns, "who is doctor ahmed hassan", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ctx, "Ahmed Hassan") {
		t.Errorf("expected rebuilt index to match, got %q", ctx)
	}
}

func TestHasApology(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Sorry, I could not find that information.", true},
		{"عذرًا، لا تتوفر لدي هذه المعلومة.", true},
		{"أنا آسف لعدم توفر البيانات.", true},
		{"Diabetes is a chronic condition.", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasApology(tt.text); got != tt.want {
			t.Errorf("HasApology(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
