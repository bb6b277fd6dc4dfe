package tools_test

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/petasbytes/research-agent/internal/pdftext"
	"github.com/petasbytes/research-agent/internal/safety"
	"github.com/petasbytes/research-agent/tools"
)

const pdfSentinel = "-- truncated; use page/pages to fetch more --\n"

func TestReadPDF_LocalAllPages(t *testing.T) {
	writePDF(t, rel(t, "paper.pdf"), "Introduction", "Method", "Results")
	def := tools.ReadPDF(nil)

	out, err := call(t, def, tools.ReadPDFInput{Source: rel(t, "paper.pdf")})
	if err != nil {
		t.Fatalf("read_pdf: %v", err)
	}
	for _, want := range []string{"Title: Fixture Paper", "Pages: 3", "--- page 1 ---", "Introduction", "--- page 3 ---", "Results"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, pdfSentinel) {
		t.Fatalf("unexpected sentinel:\n%s", out)
	}
}

func TestReadPDF_PageWindowAddsSentinel(t *testing.T) {
	writePDF(t, rel(t, "paper.pdf"), "Introduction", "Method", "Results")
	def := tools.ReadPDF(nil)

	out, err := call(t, def, tools.ReadPDFInput{Source: rel(t, "paper.pdf"), Page: 2, Pages: 1})
	if err != nil {
		t.Fatalf("read_pdf: %v", err)
	}
	if !strings.Contains(out, "Method") || strings.Contains(out, "Introduction") || strings.Contains(out, "Results") {
		t.Fatalf("unexpected window:\n%s", out)
	}
	if !strings.HasSuffix(out, pdfSentinel) {
		t.Fatalf("expected sentinel suffix:\n%s", out)
	}

	// A page past the end returns the header only.
	out, err = call(t, def, tools.ReadPDFInput{Source: rel(t, "paper.pdf"), Page: 9})
	if err != nil || strings.Contains(out, "--- page") {
		t.Fatalf("past-end page: err=%v\n%s", err, out)
	}
}

func TestReadPDF_LocalPolicy(t *testing.T) {
	def := tools.ReadPDF(nil)

	_, err := call(t, def, tools.ReadPDFInput{Source: "notes.txt"})
	wantCode(t, err, safety.CodeUnsupportedType)

	_, err = call(t, def, tools.ReadPDFInput{Source: "../../etc/paper.pdf"})
	wantCode(t, err, safety.CodeOutsideSandbox)

	_, err = call(t, def, tools.ReadPDFInput{Source: ""})
	wantCode(t, err, tools.CodeInvalidInput)

	_, err = call(t, def, tools.ReadPDFInput{Source: "https://arxiv.org/pdf/2601.00001"})
	wantCode(t, err, tools.CodeInvalidInput)
}

func TestReadPDF_RemoteDownloadsOnce(t *testing.T) {
	body := writePDF(t, rel(t, "remote.pdf"), "Remote body")
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	def := tools.ReadPDF(pdftext.NewDownloaderWithClient(t.TempDir(), srv.Client()))
	for range 2 {
		out, err := call(t, def, tools.ReadPDFInput{Source: srv.URL + "/pdf/2601.00001v1"})
		if err != nil {
			t.Fatalf("read_pdf remote: %v", err)
		}
		if !strings.Contains(out, "Remote body") {
			t.Fatalf("unexpected output:\n%s", out)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("expected one download, got %d", n)
	}
}

func TestReadPDF_HugePagingValues(t *testing.T) {
	writePDF(t, rel(t, "paper.pdf"), "Introduction", "Method", "Results")
	def := tools.ReadPDF(nil)

	out, err := call(t, def, tools.ReadPDFInput{Source: rel(t, "paper.pdf"), Page: 2, Pages: math.MaxInt})
	if err != nil {
		t.Fatalf("read_pdf: %v", err)
	}
	if strings.Contains(out, "Introduction") || !strings.Contains(out, "Method") || !strings.Contains(out, "Results") {
		t.Fatalf("unexpected window:\n%s", out)
	}
	if strings.Contains(out, pdfSentinel) {
		t.Fatalf("window reaches the last page, no sentinel expected:\n%s", out)
	}

	out, err = call(t, def, tools.ReadPDFInput{Source: rel(t, "paper.pdf"), Page: math.MaxInt, Pages: math.MaxInt})
	if err != nil || !strings.Contains(out, "Pages: 3") || strings.Contains(out, "--- page") {
		t.Fatalf("max page: err=%v\n%s", err, out)
	}
}
