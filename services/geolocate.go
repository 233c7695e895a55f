package services

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"vps-tracker/system"

	"github.com/oschwald/geoip2-golang"
)

// Location is one usable geolocation answer from a provider.
type Location struct {
	Code    string // 2-letter country code, may be empty
	Country string
	City    string // may be empty
}

// String renders "RU Russia, Moscow" (code and city optional).
func (l Location) String() string {
	out := l.Country
	if l.Code != "" {
		out = l.Code + " " + out
	}
	if l.City != "" {
		out += ", " + l.City
	}
	return out
}

// Provider is one geolocation source tried by the resolver. A false return
// means "no usable answer", whatever the reason; providers never error.
type Provider interface {
	Name() string
	TryResolve(ip string) (Location, bool)
}

// LocationResolver is what the enrichment pass and the handlers depend on.
type LocationResolver interface {
	Resolve(ip string) (string, bool)
}

// Resolver tries providers in order and takes the first usable answer.
// Provider order is priority; results are never merged across providers.
type Resolver struct {
	providers []Provider
}

// NewResolver builds the default chain: an optional local GeoLite2 City
// database (when geoipPath is set), then ipapi.co, then ipwho.is. The
// remote providers share one short-timeout client so a dead provider
// cannot stall a page load for long.
func NewResolver(geoipPath string) *Resolver {
	client := &http.Client{Timeout: 3 * time.Second}

	var providers []Provider
	if geoipPath != "" {
		p, err := newMaxMindProvider(geoipPath)
		if err != nil {
			system.Warn("GeoLite2 database unavailable, falling back to remote providers: %v", err)
		} else {
			providers = append(providers, p)
			system.Info("GeoLite2 database loaded: %s", geoipPath)
		}
	}
	providers = append(providers,
		&ipapiProvider{client: client, baseURL: "https://ipapi.co"},
		&ipwhoProvider{client: client, baseURL: "https://ipwho.is"},
	)

	return &Resolver{providers: providers}
}

// NewResolverWith builds a resolver over an explicit provider chain.
func NewResolverWith(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Resolve returns the formatted location for an IP, or false when no
// provider yields a usable country. Failures are swallowed: geolocation
// is best-effort and the next list view retries naturally.
func (r *Resolver) Resolve(ip string) (string, bool) {
	if ip == "" {
		return "", false
	}
	for _, p := range r.providers {
		if loc, ok := p.TryResolve(ip); ok {
			return loc.String(), true
		}
	}
	return "", false
}

// Close releases providers holding resources (the GeoLite2 reader).
func (r *Resolver) Close() {
	for _, p := range r.providers {
		if c, ok := p.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

// HasISOPrefix reports whether a stored location already carries the
// resolved "CC " prefix: two alphabetic characters then a single space.
// Legacy free-text locations fail this and stay eligible for re-resolution.
func HasISOPrefix(loc string) bool {
	if len(loc) < 3 {
		return false
	}
	return isAlpha(loc[0]) && isAlpha(loc[1]) && loc[2] == ' '
}

func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// normCode keeps a country code only when it is exactly two alphabetic
// characters, uppercased; anything else is dropped rather than stored.
func normCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 || !isAlpha(code[0]) || !isAlpha(code[1]) {
		return ""
	}
	return code
}

// ipapiProvider queries https://ipapi.co/<ip>/json/
type ipapiProvider struct {
	client  *http.Client
	baseURL string
}

func (p *ipapiProvider) Name() string { return "ipapi.co" }

func (p *ipapiProvider) TryResolve(ip string) (Location, bool) {
	resp, err := p.client.Get(fmt.Sprintf("%s/%s/json/", p.baseURL, ip))
	if err != nil {
		return Location{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, false
	}

	var data struct {
		Error       bool   `json:"error"`
		CountryName string `json:"country_name"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
		City        string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Location{}, false
	}
	if data.Error {
		return Location{}, false
	}

	country := data.CountryName
	if country == "" {
		country = data.Country
	}
	if country == "" {
		return Location{}, false
	}

	return Location{Code: normCode(data.CountryCode), Country: country, City: data.City}, true
}

// ipwhoProvider queries https://ipwho.is/<ip>
type ipwhoProvider struct {
	client  *http.Client
	baseURL string
}

func (p *ipwhoProvider) Name() string { return "ipwho.is" }

func (p *ipwhoProvider) TryResolve(ip string) (Location, bool) {
	resp, err := p.client.Get(fmt.Sprintf("%s/%s", p.baseURL, ip))
	if err != nil {
		return Location{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, false
	}

	var data struct {
		// ipwho.is omits "success" on some answers; absent means success
		Success     *bool  `json:"success"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
		City        string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Location{}, false
	}
	if data.Success != nil && !*data.Success {
		return Location{}, false
	}
	if data.Country == "" {
		return Location{}, false
	}

	return Location{Code: normCode(data.CountryCode), Country: data.Country, City: data.City}, true
}

// maxmindProvider answers from a local GeoLite2 City database. No network
// round trip, so it sits at the head of the chain when configured.
type maxmindProvider struct {
	reader *geoip2.Reader
}

func newMaxMindProvider(path string) (*maxmindProvider, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &maxmindProvider{reader: reader}, nil
}

func (p *maxmindProvider) Name() string { return "geolite2" }

func (p *maxmindProvider) TryResolve(ip string) (Location, bool) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, false
	}
	record, err := p.reader.City(parsed)
	if err != nil {
		return Location{}, false
	}
	country := record.Country.Names["en"]
	if country == "" {
		return Location{}, false
	}
	return Location{
		Code:    normCode(record.Country.IsoCode),
		Country: country,
		City:    record.City.Names["en"],
	}, true
}

func (p *maxmindProvider) Close() error {
	return p.reader.Close()
}
