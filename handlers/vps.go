package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"vps-tracker/models"
	"vps-tracker/services"
	"vps-tracker/store"
	"vps-tracker/system"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	Store    *store.VPSStore
	Resolver services.LocationResolver
}

func NewHandler(s *store.VPSStore, resolver services.LocationResolver) *Handler {
	return &Handler{Store: s, Resolver: resolver}
}

// vpsRow is the list-view model; all display logic is precomputed here so
// the template stays dumb.
type vpsRow struct {
	ID           uint
	Name         string
	Provider     string
	IP           string
	IconURL      string
	FlagCode     string // lowercase, for the flag CDN path; empty = no flag
	FlagAlt      string
	LocationText string
	RenewalDate  string
	Cost         string
	Notes        string
	RowClass     string // "", "soon" or "expired"
}

type currencyTotal struct {
	Currency string
	Amount   string
}

// ListVPS renders the main table.
// GET /
func (h *Handler) ListVPS(c *fiber.Ctx) error {
	// Lazy backfill: records whose location is missing or lacks the ISO
	// prefix get re-resolved before rendering. Best-effort, blocks the
	// request on the outbound lookups.
	services.EnrichLocations(h.Store, h.Resolver)

	records, err := h.Store.List()
	if err != nil {
		system.Error("Failed to list records: %v", err)
		return c.Status(http.StatusInternalServerError).SendString("Internal error")
	}

	today := dateOnly(time.Now().UTC())
	rows := make([]vpsRow, 0, len(records))
	totals := make(map[string]float64)

	for _, v := range records {
		rows = append(rows, buildRow(v, today))
		if v.MonthlyCost != nil {
			totals[v.Currency] += *v.MonthlyCost
		}
	}

	return c.Render("list", fiber.Map{
		"Rows":   rows,
		"Totals": sortedTotals(totals),
	})
}

func buildRow(v models.VPS, today time.Time) vpsRow {
	row := vpsRow{
		ID:       v.ID,
		Name:     v.Name,
		Provider: v.Provider,
		Notes:    v.Notes,
		IconURL:  providerIcon(v.ProviderDomain),
	}

	if v.IP != nil {
		row.IP = *v.IP
	}

	if v.Location != nil {
		if services.HasISOPrefix(*v.Location) {
			code := (*v.Location)[:2]
			row.FlagCode = strings.ToLower(code)
			row.FlagAlt = code
			row.LocationText = (*v.Location)[3:]
		} else {
			row.LocationText = *v.Location
		}
	}

	if v.RenewalDate != nil {
		rd := dateOnly(*v.RenewalDate)
		row.RenewalDate = rd.Format("2006-01-02")
		switch {
		case rd.Before(today):
			row.RowClass = "expired"
		case !rd.After(today.AddDate(0, 0, 7)):
			row.RowClass = "soon"
		}
	}

	if v.MonthlyCost != nil {
		row.Cost = strings.TrimSpace(fmt.Sprintf("%.2f %s", *v.MonthlyCost, v.Currency))
	}

	return row
}

func sortedTotals(totals map[string]float64) []currencyTotal {
	out := make([]currencyTotal, 0, len(totals))
	for cur, amount := range totals {
		out = append(out, currencyTotal{Currency: cur, Amount: fmt.Sprintf("%.2f", amount)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out
}

// providerIcon turns the free-form provider_domain field into an icon URL:
// explicit image URLs pass through, site URLs get /favicon.ico appended,
// bare domains go through Google's favicon service.
func providerIcon(domain string) string {
	if domain == "" {
		return ""
	}
	lower := strings.ToLower(domain)
	for _, ext := range []string{".ico", ".png", ".jpg", ".jpeg", ".svg"} {
		if strings.HasSuffix(lower, ext) {
			return domain
		}
	}
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		rest := domain[strings.Index(domain, "://")+3:]
		if strings.Contains(rest, "/") {
			return strings.TrimRight(domain, "/") + "/favicon.ico"
		}
		return "https://www.google.com/s2/favicons?domain=" + rest
	}
	return "https://www.google.com/s2/favicons?domain=" + domain
}

// vpsForm carries form field values back into the add/edit template.
type vpsForm struct {
	Name           string
	Provider       string
	ProviderDomain string
	IP             string
	RenewalDate    string
	MonthlyCost    string
	Currency       string
	Notes          string
}

func formFromVPS(v *models.VPS) vpsForm {
	f := vpsForm{
		Name:           v.Name,
		Provider:       v.Provider,
		ProviderDomain: v.ProviderDomain,
		Currency:       v.Currency,
		Notes:          v.Notes,
	}
	if v.IP != nil {
		f.IP = *v.IP
	}
	if v.RenewalDate != nil {
		f.RenewalDate = v.RenewalDate.Format("2006-01-02")
	}
	if v.MonthlyCost != nil {
		f.MonthlyCost = strconv.FormatFloat(*v.MonthlyCost, 'f', -1, 64)
	}
	return f
}

// applyForm parses the submitted form into v. Validation errors come back
// as a message for the 400 response; the record is left untouched on error.
func applyForm(c *fiber.Ctx, v *models.VPS) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		return fmt.Errorf("name is required")
	}

	var renewal *time.Time
	if raw := strings.TrimSpace(c.FormValue("renewal_date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid renewal date: %s", raw)
		}
		renewal = &parsed
	}

	var cost *float64
	if raw := strings.TrimSpace(c.FormValue("monthly_cost")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid monthly cost: %s", raw)
		}
		cost = &parsed
	}

	v.Name = name
	v.Provider = c.FormValue("provider")
	v.ProviderDomain = derefOr(cleanStr(c.FormValue("provider_domain")))
	v.IP = cleanStr(c.FormValue("ip"))
	v.RenewalDate = renewal
	v.MonthlyCost = cost
	v.Currency = c.FormValue("currency")
	v.Notes = c.FormValue("notes")
	return nil
}

// AddVPS shows the create form and handles its submission. A supplied IP
// is resolved synchronously so the new record lands with a location.
// GET|POST /add
func (h *Handler) AddVPS(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodGet {
		return c.Render("form", fiber.Map{"Form": vpsForm{Currency: "EUR"}})
	}

	var v models.VPS
	if err := applyForm(c, &v); err != nil {
		return c.Status(http.StatusBadRequest).SendString(err.Error())
	}

	if v.IP != nil {
		if loc, ok := h.Resolver.Resolve(*v.IP); ok {
			v.Location = &loc
		}
	}

	if err := h.Store.Create(&v); err != nil {
		system.Error("Failed to create record: %v", err)
		return c.Status(http.StatusInternalServerError).SendString("Internal error")
	}
	return c.Redirect("/", http.StatusFound)
}

// EditVPS shows the edit form and handles its submission. An IP present on
// save always triggers a fresh resolve (authoritative refresh, unlike the
// lazy backfill on the list view); a cleared IP clears the location.
// GET|POST /edit/:id
func (h *Handler) EditVPS(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return c.Status(http.StatusNotFound).SendString("Not found")
	}

	v, err := h.Store.GetByID(id)
	if err != nil {
		if err == store.ErrNotFound {
			return c.Status(http.StatusNotFound).SendString("Not found")
		}
		system.Error("Failed to fetch record %d: %v", id, err)
		return c.Status(http.StatusInternalServerError).SendString("Internal error")
	}

	if c.Method() == fiber.MethodGet {
		return c.Render("form", fiber.Map{"Form": formFromVPS(v)})
	}

	if err := applyForm(c, v); err != nil {
		return c.Status(http.StatusBadRequest).SendString(err.Error())
	}

	if v.IP != nil {
		// keep the stored location when every provider comes up empty
		if loc, ok := h.Resolver.Resolve(*v.IP); ok {
			v.Location = &loc
		}
	} else {
		v.Location = nil
	}

	if err := h.Store.Update(v); err != nil {
		system.Error("Failed to update record %d: %v", id, err)
		return c.Status(http.StatusInternalServerError).SendString("Internal error")
	}
	return c.Redirect("/", http.StatusFound)
}

// DeleteVPS removes a record; an unknown id just redirects back.
// GET /delete/:id
func (h *Handler) DeleteVPS(c *fiber.Ctx) error {
	if id, err := parseID(c); err == nil {
		if err := h.Store.Delete(id); err != nil {
			system.Warn("Failed to delete record %d: %v", id, err)
		}
	}
	return c.Redirect("/", http.StatusFound)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// cleanStr trims the input and maps blank to absent, so the store never
// holds an empty string where NULL is meant.
func cleanStr(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
