package sources

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/Adda-Baaj/vpic-harvester/pkg/httpclient"
	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"
)

type mockHTTPClient struct {
	t         *testing.T
	expect    map[string]string
	expectURL string
	status    int
	body      string
	err       error
}

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte        { return r.body }
func (r mockResponse) StatusCode() int     { return r.statusCode }
func (r mockResponse) Header() http.Header { return http.Header{} }

func (m mockHTTPClient) Get(ctx context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	if m.expectURL != "" && url != m.expectURL {
		m.t.Fatalf("expected url %q, got %q", m.expectURL, url)
	}
	for key, want := range m.expect {
		if got := headers[key]; got != want {
			m.t.Fatalf("expected header %s=%q, got %q", key, want, got)
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(m.body), statusCode: status}, nil
}

func (m mockHTTPClient) PostForm(ctx context.Context, url, body string, headers map[string]string) (httpclient.Response, error) {
	m.t.Fatalf("unexpected POST to %s", url)
	return nil, nil
}

const sampleCSV = `VIN, Year ,Owner
1FTFW1CT5DFC10312,2013,fleet
5UXWX7C5*BA,2011,
,2014,no vin here
1ftfw1ct5dfc10312,2013,duplicate
3GNDA13D76S000000,,
`

func TestParseRowsAndPairs(t *testing.T) {
	rows, err := ParseRows(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseRows error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	if rows[0]["owner"] != "fleet" {
		t.Fatalf("expected lower-cased header keys, got %v", rows[0])
	}

	pairs, err := PairsFromRows(rows, "VIN", "year")
	if err != nil {
		t.Fatalf("PairsFromRows error: %v", err)
	}
	want := []vpic.VINYear{
		{VIN: "1FTFW1CT5DFC10312", Year: 2013},
		{VIN: "5UXWX7C5*BA", Year: 2011},
		{VIN: "3GNDA13D76S000000"},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("unexpected pairs:\n got %v\nwant %v", pairs, want)
	}
}

func TestPairsFromRowsInvalidYear(t *testing.T) {
	rows := []Row{{"vin": "1FTFW1CT5DFC10312", "year": "twenty"}}
	if _, err := PairsFromRows(rows, "vin", "year"); err == nil {
		t.Fatalf("expected invalid year error")
	}
}

func TestCSVLoaderCustomColumns(t *testing.T) {
	file := writeFile(t, "fleet.csv", "chassis,my\nWBA3A5C51CF256551,2012\n")
	src := Source{ID: "fleet", Type: TypeCSV, Location: file, Config: map[string]any{
		ConfigVINColumnKey:  "chassis",
		ConfigYearColumnKey: "my",
	}}

	pairs, err := NewCSVLoader().Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(pairs) != 1 || pairs[0] != (vpic.VINYear{VIN: "WBA3A5C51CF256551", Year: 2012}) {
		t.Fatalf("unexpected pairs %v", pairs)
	}
}

func TestHTTPCSVLoader(t *testing.T) {
	client := mockHTTPClient{
		t:         t,
		expectURL: "https://example.com/vins.csv",
		expect:    map[string]string{"User-Agent": "vpic-harvester/test"},
		body:      sampleCSV,
	}
	src := Source{ID: "remote", Type: TypeHTTPCSV, Location: "https://example.com/vins.csv", Config: map[string]any{
		ConfigUserAgentKey: "vpic-harvester/test",
	}}

	pairs, err := NewHTTPCSVLoader(client).Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("expected 3 pairs, got %v", pairs)
	}
}

func TestHTTPCSVLoaderErrors(t *testing.T) {
	src := Source{ID: "remote", Type: TypeHTTPCSV, Location: "https://example.com/vins.csv"}

	_, err := NewHTTPCSVLoader(mockHTTPClient{t: t, status: 503, body: "down"}).Load(context.Background(), src)
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}

	boom := errors.New("boom")
	_, err = NewHTTPCSVLoader(mockHTTPClient{t: t, err: boom}).Load(context.Background(), src)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}

const samplePage = `<html><body>
<table class="recalls">
  <tr><td>Unit 7</td><td>vin: 1ftfw1ct5dfc10312</td></tr>
  <tr><td>Unit 8</td><td>WBA3A5C51CF256551 and 1FTFW1CT5DFC10312</td></tr>
  <tr><td>too short</td><td>WBA3A5C51CF25655</td></tr>
</table>
<p>JTDKB20U693000000 outside the table</p>
</body></html>`

func TestHTMLLoader(t *testing.T) {
	client := mockHTTPClient{t: t, body: samplePage}
	src := Source{ID: "page", Type: TypeHTML, Location: "https://example.com/recalls", Config: map[string]any{
		ConfigSelectorKey: "table.recalls td",
		ConfigYearKey:     2013,
	}}

	pairs, err := NewHTMLLoader(client).Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := []vpic.VINYear{
		{VIN: "1FTFW1CT5DFC10312", Year: 2013},
		{VIN: "WBA3A5C51CF256551", Year: 2013},
	}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("unexpected pairs:\n got %v\nwant %v", pairs, want)
	}
}

func TestHTMLLoaderDefaultSelector(t *testing.T) {
	pairs, err := NewHTMLLoader(mockHTTPClient{t: t, body: samplePage}).Load(context.Background(), Source{ID: "page", Location: "https://example.com"})
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected only table cell VINs, got %v", pairs)
	}
}

func TestStaticLoader(t *testing.T) {
	src := Source{ID: "inline", Type: TypeStatic, Config: map[string]any{
		ConfigVINsKey: []any{"1FTFW1CT5DFC10312,2013", " 5UXWX7C5*BA ", "1FTFW1CT5DFC10312, 2013"},
	}}

	pairs, err := NewStaticLoader().Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := []vpic.VINYear{{VIN: "1FTFW1CT5DFC10312", Year: 2013}, {VIN: "5UXWX7C5*BA"}}
	if !reflect.DeepEqual(pairs, want) {
		t.Fatalf("unexpected pairs:\n got %v\nwant %v", pairs, want)
	}

	src.Config[ConfigVINsKey] = []any{"1FTFW1CT5DFC10312,abc"}
	if _, err := NewStaticLoader().Load(context.Background(), src); err == nil {
		t.Fatalf("expected invalid year error")
	}
}

func TestLoaderRegistry(t *testing.T) {
	reg := DefaultLoaderRegistry(mockHTTPClient{t: t})

	for _, typ := range []string{TypeCSV, TypeHTTPCSV, TypeHTML, TypeStatic} {
		l, err := reg.LoaderFor(Source{ID: "x", Type: typ})
		if err != nil {
			t.Fatalf("LoaderFor(%s) error: %v", typ, err)
		}
		if l.Type() != typ {
			t.Fatalf("LoaderFor(%s) returned %s loader", typ, l.Type())
		}
	}

	if _, err := reg.LoaderFor(Source{ID: "x", Type: "ftp"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := reg.LoaderFor(Source{Type: TypeCSV}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}
