// Package testsupport holds fixtures and assertions shared by the package
// tests.
package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"

	pkgmodel "github.com/goliatone/go-contactform/pkg/model"
	pkgopenapi "github.com/goliatone/go-contactform/pkg/openapi"
)

// UpdateGoldensEnv names the variable that makes golden tests rewrite their
// files instead of comparing.
const UpdateGoldensEnv = "UPDATE_GOLDENS"

// Context is the context tests hand to loaders and renderers.
func Context() context.Context {
	return context.Background()
}

// LoadContract loads the embedded contract, or whatever opts point at.
func LoadContract(t *testing.T, opts ...pkgopenapi.Option) *pkgopenapi.Contract {
	t.Helper()
	contract, err := pkgopenapi.Load(Context(), opts...)
	if err != nil {
		t.Fatalf("load contract: %v", err)
	}
	return contract
}

// ContactForm is the form model of the embedded contract.
func ContactForm(t *testing.T) pkgmodel.FormModel {
	t.Helper()
	return LoadContract(t).Form
}

// MustLoadFormModel decodes a JSON form model snapshot.
func MustLoadFormModel(t *testing.T, path string) pkgmodel.FormModel {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read form model %s: %v", path, err)
	}
	var form pkgmodel.FormModel
	if err := json.Unmarshal(data, &form); err != nil {
		t.Fatalf("decode form model %s: %v", path, err)
	}
	return form
}

// WriteMaybeGolden rewrites path with data when UPDATE_GOLDENS is set and
// reports whether it did; the caller then skips its comparison.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv(UpdateGoldensEnv) == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden %s: %v", path, err)
	}
	t.Logf("updated %s", path)
	return true
}

// CompareGolden diffs a golden value against the current one, (-want +got).
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustParseHTML parses rendered markup for selector assertions.
func MustParseHTML(t *testing.T, markup []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// ByTestID selects the nodes tagged data-testid=id.
func ByTestID(doc *goquery.Document, id string) *goquery.Selection {
	return doc.Find(fmt.Sprintf(`[data-testid=%q]`, id))
}

// CountTestID counts the nodes tagged data-testid=id.
func CountTestID(doc *goquery.Document, id string) int {
	return ByTestID(doc, id).Length()
}

// TestIDText is the trimmed text of the first node tagged data-testid=id.
func TestIDText(doc *goquery.Document, id string) string {
	return strings.TrimSpace(ByTestID(doc, id).First().Text())
}
