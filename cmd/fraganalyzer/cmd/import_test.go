package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChrisMcGann/FragAnalyzer/pkg/core"
	"github.com/ChrisMcGann/FragAnalyzer/pkg/store"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
	return path
}

func TestImportAll(t *testing.T) {
	dir := t.TempDir()
	identificationsFile = writeFile(t, dir, "idents.tsv", "3\n"+
		"1\t10\tPEPTIDE\tPEPTIDE\t2\tQTOF\tNH2\tCOOH\t15000\n"+
		"not a record\n"+
		"2\tnull\tELVISK\tELVISK\t2\tQTOF\tNH2\tCOOH\n")
	fragmentsFile = writeFile(t, dir, "fragments.tsv",
		"1\tb\t2\t227.1\t100\t0.01\n"+
			"1\ty\t3\t363.2\t50\n"+
			"2\tb\t0\t1\t1\n")
	peaksFile = writeFile(t, dir, "peaks.txt", "SpectrumId: 10\nNumPeaks: 2\n100.1\t50\n200.2\t25\n")
	t.Cleanup(func() { identificationsFile, fragmentsFile, peaksFile = "", "", "" })

	ctx := context.Background()
	db, err := store.OpenDSN(ctx, "sqlite3", filepath.Join(dir, "import.db"))
	if err != nil {
		t.Fatalf("OpenDSN() error = %v", err)
	}
	defer db.Close()

	w, err := db.NewWriter(ctx, core.DefaultModDatabase())
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	skipped, err := importAll(ctx, w)
	if err != nil {
		w.Rollback()
		t.Fatalf("importAll() error = %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}

	got, err := w.Commit()
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	want := store.ImportCounts{Identifications: 2, FragmentIons: 2, Spectra: 1}
	if got != want {
		t.Errorf("Commit() counts = %+v, want %+v", got, want)
	}

	stored, err := db.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts() error = %v", err)
	}
	if stored != want {
		t.Errorf("Counts() = %+v, want %+v", stored, want)
	}
}

func TestImportMissingFile(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenDSN(ctx, "sqlite3", filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatalf("OpenDSN() error = %v", err)
	}
	defer db.Close()

	w, err := db.NewWriter(ctx, nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	defer w.Rollback()

	if _, err := importFragments(ctx, w, filepath.Join(t.TempDir(), "missing.tsv")); err == nil {
		t.Error("importFragments() on a missing file should fail")
	}
}

func TestTable(t *testing.T) {
	out := table([]string{"Ion", "%"}, [][]string{{"Prec", "50"}, {"y-H2O++", "12.5"}}, nil)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("table has %d lines, want 3:\n%s", len(lines), out)
	}
	for i, want := range []string{"Ion", "Prec", "y-H2O++"} {
		if !strings.Contains(lines[i], want) {
			t.Errorf("line %d = %q, want it to contain %q", i, lines[i], want)
		}
	}
}

func TestEncodeRejectsUnknownFormat(t *testing.T) {
	var b strings.Builder
	if err := encode(&b, "xml", struct{}{}); err == nil {
		t.Error("encode() with xml should fail")
	}
	if err := encode(&b, "json", map[string]int{"rows": 2}); err != nil {
		t.Fatalf("encode() json error = %v", err)
	}
	if !strings.Contains(b.String(), `"rows": 2`) {
		t.Errorf("json output = %q", b.String())
	}
}

func TestModEntries(t *testing.T) {
	db := core.NewModDatabase()
	db.Add("Pho", 79.966331)
	db.Add("Mox", 15.994915)

	entries := modEntries(db)
	if len(entries) != 2 || entries[0].Name != "Mox" || entries[1].Name != "Pho" {
		t.Fatalf("modEntries() = %v, want Mox then Pho", entries)
	}
	if entries[1].Mass != 79.966331 {
		t.Errorf("Pho mass = %v", entries[1].Mass)
	}
	if out := renderMods(entries); !strings.Contains(out, "15.994915") {
		t.Errorf("renderMods() = %q, want the Mox mass", out)
	}
}
