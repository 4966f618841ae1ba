package qrstamp

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/google/go-cmp/cmp"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/gardar/qrstamp/pkg/urlcsv"
)

var letter = fpdf.SizeType{Wd: 612, Ht: 792}

// makeTestPDF builds a PDF with the given number of pages, each carrying a
// line of text so it has real content.
func makeTestPDF(t *testing.T, pages int, size fpdf.SizeType) []byte {
	t.Helper()

	pdf := fpdf.New("P", "pt", "", "")
	for i := 0; i < pages; i++ {
		pdf.AddPageFormat("P", size)
		pdf.SetFont("Helvetica", "", 12)
		pdf.Text(40, 60, fmt.Sprintf("Example Page %d", i+1))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("Failed to build test PDF: %v", err)
	}
	return buf.Bytes()
}

// withObjectStreams rewrites pdfData the way PDF 1.5+ producers write it,
// with objects packed into compressed object streams.
func withObjectStreams(t *testing.T, pdfData []byte) []byte {
	t.Helper()

	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true

	var buf bytes.Buffer
	if err := pdfapi.Optimize(bytes.NewReader(pdfData), &buf, conf); err != nil {
		t.Fatalf("Failed to pack object streams: %v", err)
	}
	return buf.Bytes()
}

// pageContent returns the decoded content stream of page n (1-based).
func pageContent(t *testing.T, pdfData []byte, n int) string {
	t.Helper()

	dir := t.TempDir()
	conf := model.NewDefaultConfiguration()
	err := pdfapi.ExtractContent(bytes.NewReader(pdfData), dir, "out.pdf", []string{fmt.Sprint(n)}, conf)
	if err != nil {
		t.Fatalf("ExtractContent(page %d) failed: %v", n, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf("*_%d.txt", n)))
	if err != nil || len(matches) != 1 {
		t.Fatalf("content file for page %d not found (matches %v, err %v)", n, matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("Failed to read page %d content: %v", n, err)
	}
	return string(data)
}

// testConfig returns a quiet config whose scratch space lives under tmp.
func testConfig(tmp string) Config {
	config := DefaultConfig()
	config.Placement = PlacementConfig{Anchor: AnchorRight, Offset: 40, Y: 83, Size: 70}
	config.TempDir = tmp
	config.LogWarnings = false
	return config
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s) failed: %v", dir, err)
	}
	if len(entries) != 0 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("temp dir not cleaned up, found: %s", strings.Join(names, ", "))
	}
}

func TestReadPages(t *testing.T) {
	pages, err := ReadPages(makeTestPDF(t, 3, letter))
	if err != nil {
		t.Fatalf("ReadPages() failed: %v", err)
	}

	want := []Page{
		{Index: 0, Width: 612, Height: 792},
		{Index: 1, Width: 612, Height: 792},
		{Index: 2, Width: 612, Height: 792},
	}
	if diff := cmp.Diff(want, pages, cmp.Comparer(approxEqual)); diff != "" {
		t.Errorf("ReadPages() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPagesInvalid(t *testing.T) {
	if _, err := ReadPages(nil); err == nil {
		t.Error("ReadPages(nil) succeeded, want error")
	}
	if _, err := ReadPages([]byte("this is not a PDF")); err == nil {
		t.Error("ReadPages(garbage) succeeded, want error")
	}
}

func TestStampEveryPage(t *testing.T) {
	tmp := t.TempDir()
	pdfData := makeTestPDF(t, 3, letter)
	csvData := []byte("URL\nhttps://a.com\nhttps://b.com\nhttps://c.com\n")

	var progress []float64
	config := testConfig(tmp)
	config.Progress = func(f float64) { progress = append(progress, f) }

	result, err := Stamp(pdfData, csvData, config)
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}

	wantPages := []PageResult{
		{Index: 0, URL: "https://a.com", Stamped: true, Rect: Rect{X: 502, Y: 83, Size: 70}, OnPage: true},
		{Index: 1, URL: "https://b.com", Stamped: true, Rect: Rect{X: 502, Y: 83, Size: 70}, OnPage: true},
		{Index: 2, URL: "https://c.com", Stamped: true, Rect: Rect{X: 502, Y: 83, Size: 70}, OnPage: true},
	}
	if diff := cmp.Diff(wantPages, result.Pages, cmp.Comparer(approxEqual)); diff != "" {
		t.Errorf("Pages mismatch (-want +got):\n%s", diff)
	}
	if result.Stamped != 3 {
		t.Errorf("Stamped = %d, want 3", result.Stamped)
	}
	if result.Mismatch != nil {
		t.Errorf("Mismatch = %v, want nil", result.Mismatch)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}

	out, err := ReadPages(result.PDF)
	if err != nil {
		t.Fatalf("ReadPages(output) failed: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("output has %d pages, want 3", len(out))
	}

	wantProgress := []float64{1.0 / 3, 2.0 / 3, 1}
	if diff := cmp.Diff(wantProgress, progress, cmp.Comparer(approxEqual)); diff != "" {
		t.Errorf("progress mismatch (-want +got):\n%s", diff)
	}

	assertEmptyDir(t, tmp)
}

func TestStampFewerRowsThanPages(t *testing.T) {
	tmp := t.TempDir()
	pdfData := makeTestPDF(t, 2, letter)
	csvData := []byte("URL\nhttps://a.com\n")

	result, err := Stamp(pdfData, csvData, testConfig(tmp))
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}

	if result.Stamped != 1 {
		t.Errorf("Stamped = %d, want 1", result.Stamped)
	}
	if len(result.Pages) != 2 {
		t.Fatalf("got %d page results, want 2", len(result.Pages))
	}
	if !result.Pages[0].Stamped {
		t.Error("page 1 was not stamped")
	}
	if diff := cmp.Diff(PageResult{Index: 1}, result.Pages[1]); diff != "" {
		t.Errorf("page 2 should pass through unchanged (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(&RowCountMismatch{Pages: 2, Rows: 1}, result.Mismatch); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Warnings = %v, want exactly one", result.Warnings)
	}

	out, err := ReadPages(result.PDF)
	if err != nil {
		t.Fatalf("ReadPages(output) failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("output has %d pages, want 2", len(out))
	}
	assertEmptyDir(t, tmp)
}

func TestStampMoreRowsThanPages(t *testing.T) {
	tmp := t.TempDir()
	pdfData := makeTestPDF(t, 1, letter)
	csvData := []byte("URL\nhttps://a.com\nhttps://b.com\nhttps://c.com\n")

	result, err := Stamp(pdfData, csvData, testConfig(tmp))
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}
	if result.Stamped != 1 || len(result.Pages) != 1 {
		t.Errorf("Stamped = %d, pages = %d, want 1 and 1", result.Stamped, len(result.Pages))
	}
	if diff := cmp.Diff(&RowCountMismatch{Pages: 1, Rows: 3}, result.Mismatch); diff != "" {
		t.Errorf("Mismatch (-want +got):\n%s", diff)
	}
}

func TestStampMissingColumn(t *testing.T) {
	tmp := t.TempDir()
	csvData := []byte("Link\nhttps://a.com\n")

	// The PDF is never read when the column is missing
	_, err := Stamp(nil, csvData, testConfig(tmp))

	var mce *urlcsv.MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatalf("Stamp() error = %v, want *urlcsv.MissingColumnError", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindValidation {
		t.Errorf("Stamp() error = %v, want validation error", err)
	}
	assertEmptyDir(t, tmp)
}

type failingRenderer struct{ calls int }

func (r *failingRenderer) RenderPNG(payload, path string) error {
	r.calls++
	if err := os.WriteFile(path, []byte("partial"), 0o644); err != nil {
		return err
	}
	return errors.New("encoder exploded")
}

func TestStampRendererFailureCleansUp(t *testing.T) {
	tmp := t.TempDir()
	pdfData := makeTestPDF(t, 2, letter)
	renderer := &failingRenderer{}

	config := testConfig(tmp)
	config.Renderer = renderer

	result, err := Stamp(pdfData, []byte("URL\nhttps://a.com\nhttps://b.com\n"), config)
	if err == nil {
		t.Fatal("Stamp() succeeded, want error")
	}
	if result != nil {
		t.Error("Stamp() returned partial output on failure")
	}

	var se *Error
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *Error", err)
	}
	if se.Kind != KindProcessing || se.Page != 0 {
		t.Errorf("got kind %v page %d, want processing on page 0", se.Kind, se.Page)
	}
	if !strings.Contains(err.Error(), "encoder exploded") {
		t.Errorf("error %q does not carry the underlying message", err)
	}
	if renderer.calls != 1 {
		t.Errorf("renderer called %d times, want 1 (batch aborts on first failure)", renderer.calls)
	}
	assertEmptyDir(t, tmp)
}

func TestStampEmptyURL(t *testing.T) {
	tmp := t.TempDir()
	pdfData := makeTestPDF(t, 2, letter)

	_, err := Stamp(pdfData, []byte("Name,URL\nAnn,https://a.com\nBob,\n"), testConfig(tmp))

	var se *Error
	if !errors.As(err, &se) || se.Kind != KindProcessing || se.Page != 1 {
		t.Fatalf("Stamp() error = %v, want processing error on page 2", err)
	}
	assertEmptyDir(t, tmp)
}

func TestStampCorruptPDF(t *testing.T) {
	tmp := t.TempDir()

	_, err := Stamp([]byte("%PDF-1.4 garbage"), []byte("URL\nhttps://a.com\n"), testConfig(tmp))

	var se *Error
	if !errors.As(err, &se) || se.Kind != KindProcessing {
		t.Fatalf("Stamp() error = %v, want processing error", err)
	}
	assertEmptyDir(t, tmp)
}

func TestStampInvalidPlacement(t *testing.T) {
	config := testConfig(t.TempDir())
	config.Placement.Size = 0

	_, err := Stamp(makeTestPDF(t, 1, letter), []byte("URL\nhttps://a.com\n"), config)

	var se *Error
	if !errors.As(err, &se) || se.Kind != KindValidation {
		t.Fatalf("Stamp() error = %v, want validation error", err)
	}
}

func TestStampOffPageWarns(t *testing.T) {
	tmp := t.TempDir()
	var log bytes.Buffer

	config := testConfig(tmp)
	config.Placement = PlacementConfig{Anchor: AnchorRight, Offset: 600, Y: 83, Size: 70}
	config.LogWarnings = true
	config.Logger = &log

	result, err := Stamp(makeTestPDF(t, 1, letter), []byte("URL\nhttps://a.com\n"), config)
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}

	page := result.Pages[0]
	if page.OnPage || page.Rect.X != -58 {
		t.Errorf("got %+v, want off-page rect at x=-58", page)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one off-page warning", result.Warnings)
	}
	if !strings.Contains(log.String(), "extends past the page edge") {
		t.Errorf("logger output %q lacks off-page warning", log.String())
	}
}

func TestStampWithCaptionAndCustomPageSize(t *testing.T) {
	tmp := t.TempDir()
	a5 := fpdf.SizeType{Wd: 419.53, Ht: 595.28}

	config := testConfig(tmp)
	config.Placement = DefaultPlacement
	config.Placement.Caption = "Scannez pour vous inscrire au café"
	config.Debug = true
	config.Logger = &bytes.Buffer{}

	result, err := Stamp(makeTestPDF(t, 2, a5), []byte("URL\nhttps://a.com\nhttps://b.com\n"), config)
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}

	out, err := ReadPages(result.PDF)
	if err != nil {
		t.Fatalf("ReadPages(output) failed: %v", err)
	}
	want := []Page{
		{Index: 0, Width: 419.53, Height: 595.28},
		{Index: 1, Width: 419.53, Height: 595.28},
	}
	opt := cmp.Comparer(func(a, b float64) bool { return a-b < 0.01 && b-a < 0.01 })
	if diff := cmp.Diff(want, out, opt); diff != "" {
		t.Errorf("output page sizes should follow the source (-want +got):\n%s", diff)
	}
	if got := result.Pages[0].Rect.X; !approxEqual(got, 419.53-70-40) {
		t.Errorf("Rect.X = %v, want %v", got, 419.53-70-40)
	}
	assertEmptyDir(t, tmp)
}

func TestStampRefusesStampedPDF(t *testing.T) {
	tmp := t.TempDir()
	csvData := []byte("URL\nhttps://a.com\n")

	first, err := Stamp(makeTestPDF(t, 1, letter), csvData, testConfig(tmp))
	if err != nil {
		t.Fatalf("first Stamp() failed: %v", err)
	}

	detection, err := DetectStamp(first.PDF, testConfig(tmp))
	if err != nil {
		t.Fatalf("DetectStamp() failed: %v", err)
	}
	if !detection.HasStamp {
		t.Fatalf("DetectStamp() found no QR layer, layers: %q", detection.LayerInfo.Layers)
	}

	_, err = Stamp(first.PDF, csvData, testConfig(tmp))
	var se *Error
	if !errors.As(err, &se) || se.Kind != KindValidation {
		t.Fatalf("second Stamp() error = %v, want validation error", err)
	}

	config := testConfig(tmp)
	config.Force = true
	if _, err := Stamp(first.PDF, csvData, config); err != nil {
		t.Errorf("forced Stamp() failed: %v", err)
	}
	assertEmptyDir(t, tmp)
}

type recordingRenderer struct {
	payloads []string
	dirs     []string
}

func (r *recordingRenderer) RenderPNG(payload, path string) error {
	r.payloads = append(r.payloads, payload)
	r.dirs = append(r.dirs, filepath.Dir(path))
	return QRCodeRenderer{}.RenderPNG(payload, path)
}

func TestStampNormalizeURLs(t *testing.T) {
	tmp := t.TempDir()
	renderer := &recordingRenderer{}

	config := testConfig(tmp)
	config.NormalizeURLs = true
	config.Renderer = renderer

	_, err := Stamp(makeTestPDF(t, 2, letter), []byte("URL\na.com/x\nhttp://b.com\n"), config)
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}

	if diff := cmp.Diff([]string{"https://a.com/x", "http://b.com"}, renderer.payloads); diff != "" {
		t.Errorf("payloads mismatch (-want +got):\n%s", diff)
	}
	for _, dir := range renderer.dirs {
		if filepath.Dir(dir) != tmp {
			t.Errorf("raster written to %s, want a scratch dir under %s", dir, tmp)
		}
	}
	assertEmptyDir(t, tmp)
}

func TestStampObjectStreamPDF(t *testing.T) {
	tmp := t.TempDir()
	pdfData := withObjectStreams(t, makeTestPDF(t, 2, letter))

	result, err := Stamp(pdfData, []byte("URL\nhttps://a.com\nhttps://b.com\n"), testConfig(tmp))
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}
	if result.Stamped != 2 {
		t.Errorf("Stamped = %d, want 2", result.Stamped)
	}

	out, err := ReadPages(result.PDF)
	if err != nil {
		t.Fatalf("ReadPages(output) failed: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("output has %d pages, want 2", len(out))
	}
	assertEmptyDir(t, tmp)
}

func TestStampOutputContent(t *testing.T) {
	tmp := t.TempDir()

	result, err := Stamp(makeTestPDF(t, 2, letter), []byte("URL\nhttps://a.com\n"), testConfig(tmp))
	if err != nil {
		t.Fatalf("Stamp() failed: %v", err)
	}

	// Page 1: source template, then the QR image at (502, 83) sized 70
	// inside an optional content block
	stamped := pageContent(t, result.PDF, 1)
	tpl := strings.Index(stamped, "/GOFPDITPL")
	oc := strings.Index(stamped, "/OC")
	img := strings.Index(stamped, "70.00000 0 0 70.00000 502.00000 83.00000 cm")
	emc := strings.LastIndex(stamped, "EMC")
	if tpl < 0 || oc < 0 || img < 0 || emc < 0 {
		t.Fatalf("page 1 content lacks template, layer or QR image:\n%s", stamped)
	}
	if !(tpl < oc && oc < img && img < emc) {
		t.Errorf("QR image is not drawn inside a layer on top of the page:\n%s", stamped)
	}

	// Page 2 has no row: only the imported page is drawn
	passThrough := pageContent(t, result.PDF, 2)
	if !strings.Contains(passThrough, "/GOFPDITPL") {
		t.Errorf("page 2 content lacks the imported page:\n%s", passThrough)
	}
	for _, unwanted := range []string{"/OC", "BDC", " cm /I"} {
		if strings.Contains(passThrough, unwanted) {
			t.Errorf("page 2 content contains %q, want the page unchanged:\n%s", unwanted, passThrough)
		}
	}
	assertEmptyDir(t, tmp)
}

func TestStampDelimiterOnlyRowKeepsPairing(t *testing.T) {
	tmp := t.TempDir()
	csvData := []byte("Name,URL\nAnn,https://a.com\n,\nCid,https://c.com\n")

	// The empty second record still owns page 2, so the batch stops there
	// instead of shifting https://c.com onto page 2.
	_, err := Stamp(makeTestPDF(t, 3, letter), csvData, testConfig(tmp))

	var se *Error
	if !errors.As(err, &se) || se.Kind != KindProcessing || se.Page != 1 {
		t.Fatalf("Stamp() error = %v, want processing error on page 2", err)
	}
	assertEmptyDir(t, tmp)
}

func TestStampInvalidQRSettings(t *testing.T) {
	tmp := t.TempDir()
	config := testConfig(tmp)
	config.QR.ErrorCorrection = "X"

	_, err := Stamp(makeTestPDF(t, 1, letter), []byte("URL\nhttps://a.com\n"), config)

	var se *Error
	if !errors.As(err, &se) || se.Kind != KindValidation {
		t.Fatalf("Stamp() error = %v, want validation error", err)
	}
	assertEmptyDir(t, tmp)
}
