package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/spektr-org/covidscope/schema"
)

const sampleCSV = `location,date,total_cases,total_deaths
Kenya,2020-03-13,1,
India,2021-03-01,50,
`

func TestNewPicksFetcher(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"https://covid.ourworldindata.org/data/owid-covid-data.csv", "*source.HTTPFetcher"},
		{"http://localhost:8080/data.csv", "*source.HTTPFetcher"},
		{"s3://datasets/owid/owid-covid-data.csv", "*source.S3Fetcher"},
		{"file:///tmp/owid.csv", "*source.FileFetcher"},
		{"./owid.csv", "*source.FileFetcher"},
	}
	for _, tt := range tests {
		f, err := New(tt.location, time.Second)
		if err != nil {
			t.Errorf("New(%q) failed: %v", tt.location, err)
			continue
		}
		if got := typeName(f); got != tt.want {
			t.Errorf("New(%q) = %s, want %s", tt.location, got, tt.want)
		}
	}
}

func TestNewRejectsBadLocations(t *testing.T) {
	for _, loc := range []string{"", "  ", "s3://bucket-only", "s3:///key", "ftp://host/file.csv"} {
		if _, err := New(loc, time.Second); err == nil {
			t.Errorf("New(%q) should fail", loc)
		}
	}
}

func TestS3Name(t *testing.T) {
	f, _ := New("s3://datasets/owid/latest.csv", 0)
	if got := f.Name(); got != "s3://datasets/owid/latest.csv" {
		t.Errorf("Name = %q", got)
	}
}

func TestLoadOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	tbl, stats, err := Load(context.Background(), NewHTTP(srv.URL, 5*time.Second), schema.OWID())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tbl.Len() != 2 || stats.Rows != 2 {
		t.Errorf("rows = %d, stats = %+v", tbl.Len(), stats)
	}
	if got := tbl.Dimension(1, "location"); got != "India" {
		t.Errorf("location[1] = %q", got)
	}
}

func TestLoadHTTPStatusIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tbl, _, err := Load(context.Background(), NewHTTP(srv.URL, 5*time.Second), schema.OWID())
	if tbl != nil {
		t.Error("no table expected on failure")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if fe.Source != srv.URL || !strings.Contains(fe.Reason, "503") || !strings.Contains(fe.Reason, "upstream unavailable") {
		t.Errorf("unexpected FetchError: %+v", fe)
	}
}

func TestLoadUnreachableIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := Load(context.Background(), NewHTTP(url, time.Second), schema.OWID())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Err == nil {
		t.Fatalf("expected *FetchError wrapping the transport error, got %v", err)
	}
}

func TestLoadHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, sampleCSV)
	}))
	defer srv.Close()

	_, _, err := Load(ctx, NewHTTP(srv.URL, time.Second), schema.OWID())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestLoadEmptyBodyIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	_, _, err := Load(context.Background(), NewHTTP(srv.URL, time.Second), schema.OWID())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Reason != "unreadable CSV" {
		t.Errorf("expected unreadable CSV FetchError, got %v", err)
	}
}

func TestLoadLongRowIsFetchError(t *testing.T) {
	body := "location,date,total_cases,total_deaths\n" +
		"India,2021-03-01,50,0\n" +
		"Kenya,2020-03-13,1,0,7\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, body)
	}))
	defer srv.Close()

	tbl, _, err := Load(context.Background(), NewHTTP(srv.URL, time.Second), schema.OWID())
	if tbl != nil {
		t.Error("no table expected on failure")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Reason != "unreadable CSV" {
		t.Fatalf("expected unreadable CSV FetchError, got %v", err)
	}
	if !strings.Contains(err.Error(), "5 fields") {
		t.Errorf("error should name the field count: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "owid.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := New("file://"+path, 0)
	if err != nil {
		t.Fatal(err)
	}
	tbl, _, err := Load(context.Background(), f, schema.OWID())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("rows = %d, want 2", tbl.Len())
	}

	_, _, err = Load(context.Background(), NewFile(filepath.Join(t.TempDir(), "missing.csv")), schema.OWID())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

// ============================================================================
// S3
// ============================================================================

type fakeS3 struct {
	body  string
	err   error
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestLoadFromS3(t *testing.T) {
	fake := &fakeS3{body: sampleCSV}
	f := NewS3("datasets", "owid/latest.csv", time.Second)
	f.client = fake

	tbl, _, err := Load(context.Background(), f, schema.OWID())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tbl.Len() != 2 {
		t.Errorf("rows = %d, want 2", tbl.Len())
	}
	if *fake.input.Bucket != "datasets" || *fake.input.Key != "owid/latest.csv" {
		t.Errorf("GetObject input = %s/%s", *fake.input.Bucket, *fake.input.Key)
	}
}

func TestLoadFromS3Failure(t *testing.T) {
	denied := errors.New("AccessDenied")
	f := NewS3("datasets", "owid/latest.csv", time.Second)
	f.client = &fakeS3{err: denied}

	_, _, err := Load(context.Background(), f, schema.OWID())
	var fe *FetchError
	if !errors.As(err, &fe) || !errors.Is(err, denied) {
		t.Errorf("expected FetchError wrapping AccessDenied, got %v", err)
	}
}

func typeName(f Fetcher) string {
	switch f.(type) {
	case *HTTPFetcher:
		return "*source.HTTPFetcher"
	case *S3Fetcher:
		return "*source.S3Fetcher"
	case *FileFetcher:
		return "*source.FileFetcher"
	}
	return "unknown"
}
