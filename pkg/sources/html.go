package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Adda-Baaj/vpic-harvester/pkg/vpic"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultHTMLSelector = "td"
	maxHTMLBodyBytes    = 1 << 20 // 1 MiB
)

// VINs never contain I, O or Q.
var vinPattern = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)

// HTMLLoader scrapes 17 character VINs out of the text of matching elements.
type HTMLLoader struct {
	client HTTPClient
}

func NewHTMLLoader(client HTTPClient) *HTMLLoader {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &HTMLLoader{client: client}
}

func (*HTMLLoader) Type() string { return TypeHTML }

// Load applies config "year" to every VIN found under config "selector".
func (l *HTMLLoader) Load(ctx context.Context, src Source) ([]vpic.VINYear, error) {
	year, err := ConfigInt(src, ConfigYearKey, 0)
	if err != nil {
		return nil, err
	}

	body, err := download(ctx, l.client, src)
	if err != nil {
		return nil, err
	}
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	vins, err := extractVINs(body, ConfigString(src, ConfigSelectorKey, defaultHTMLSelector))
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}

	pairs := make([]vpic.VINYear, 0, len(vins))
	for _, vin := range vins {
		pairs = append(pairs, vpic.VINYear{VIN: vin, Year: year})
	}
	return dedupePairs(pairs), nil
}

func extractVINs(body []byte, selector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var vins []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.ToUpper(s.Text())
		vins = append(vins, vinPattern.FindAllString(text, -1)...)
	})
	return vins, nil
}
