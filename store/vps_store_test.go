package store

import (
	"path/filepath"
	"testing"
	"time"

	"vps-tracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *VPSStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "vps.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func datePtr(t time.Time) *time.Time { return &t }

func TestCreateRoundTrip(t *testing.T) {
	s := openTestStore(t)

	rd := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	v := models.VPS{
		Name:           "web-1",
		Provider:       "hetzner",
		ProviderDomain: "hetzner.com",
		IP:             strPtr("8.8.8.8"),
		Location:       strPtr("DE Germany, Falkenstein"),
		RenewalDate:    &rd,
		MonthlyCost:    floatPtr(4.51),
		Currency:       "EUR",
		Notes:          "prod box",
	}
	require.NoError(t, s.Create(&v))
	require.NotZero(t, v.ID)

	got, err := s.GetByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Name, got.Name)
	assert.Equal(t, v.Provider, got.Provider)
	assert.Equal(t, v.ProviderDomain, got.ProviderDomain)
	assert.Equal(t, *v.IP, *got.IP)
	assert.Equal(t, *v.Location, *got.Location)
	assert.True(t, rd.Equal(got.RenewalDate.UTC()))
	assert.Equal(t, *v.MonthlyCost, *got.MonthlyCost)
	assert.Equal(t, v.Currency, got.Currency)
	assert.Equal(t, v.Notes, got.Notes)
}

func TestGetByIDNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.GetByID(12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	v := models.VPS{Name: "doomed"}
	require.NoError(t, s.Create(&v))

	require.NoError(t, s.Delete(v.ID))
	_, err := s.GetByID(v.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing id is a no-op
	assert.NoError(t, s.Delete(v.ID))
	assert.NoError(t, s.Delete(99999))
}

func TestListOrderNullsLast(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Create(&models.VPS{Name: "no-date"}))
	require.NoError(t, s.Create(&models.VPS{Name: "later",
		RenewalDate: datePtr(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))}))
	require.NoError(t, s.Create(&models.VPS{Name: "sooner",
		RenewalDate: datePtr(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))}))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "sooner", list[0].Name)
	assert.Equal(t, "later", list[1].Name)
	assert.Equal(t, "no-date", list[2].Name)
}

func TestListWithIP(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Create(&models.VPS{Name: "with-ip", IP: strPtr("1.2.3.4")}))
	require.NoError(t, s.Create(&models.VPS{Name: "without-ip"}))

	list, err := s.ListWithIP()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "with-ip", list[0].Name)
}

func TestListDueBy(t *testing.T) {
	s := openTestStore(t)

	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	for name, offset := range map[string]int{"overdue": -1, "today": 0, "edge": 7, "beyond": 8} {
		require.NoError(t, s.Create(&models.VPS{Name: name,
			RenewalDate: datePtr(today.AddDate(0, 0, offset))}))
	}
	require.NoError(t, s.Create(&models.VPS{Name: "no-date"}))

	list, err := s.ListDueBy(today.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, list, 3)
	// ordered soonest first, null dates never selected
	assert.Equal(t, "overdue", list[0].Name)
	assert.Equal(t, "today", list[1].Name)
	assert.Equal(t, "edge", list[2].Name)
}

func TestUpdateLocationOnly(t *testing.T) {
	s := openTestStore(t)
	v := models.VPS{Name: "web-1", IP: strPtr("8.8.8.8"), Notes: "keep me"}
	require.NoError(t, s.Create(&v))

	require.NoError(t, s.UpdateLocation(v.ID, strPtr("US United States, Mountain View")))

	got, err := s.GetByID(v.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, "US United States, Mountain View", *got.Location)
	assert.Equal(t, "keep me", got.Notes)

	// clearing writes NULL back
	require.NoError(t, s.UpdateLocation(v.ID, nil))
	got, err = s.GetByID(v.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Location)
}
