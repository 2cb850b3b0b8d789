package seed_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotekit/quotekit/internal/founding"
	"github.com/quotekit/quotekit/internal/pricing"
	"github.com/quotekit/quotekit/internal/seed"
)

// recordingWriter implements pricing.Writer in memory.
type recordingWriter struct {
	entries  []pricing.PriceMatrixEntry
	zones    []pricing.Zone
	seasonal []pricing.SeasonalRate
	tiers    []pricing.BundleTier
	entryErr error
}

func (w *recordingWriter) UpsertEntry(_ context.Context, e *pricing.PriceMatrixEntry) error {
	if w.entryErr != nil {
		return w.entryErr
	}
	w.entries = append(w.entries, *e)
	return nil
}

func (w *recordingWriter) UpsertZone(_ context.Context, z pricing.Zone) error {
	w.zones = append(w.zones, z)
	return nil
}

func (w *recordingWriter) UpsertSeasonalRate(_ context.Context, s pricing.SeasonalRate) error {
	w.seasonal = append(w.seasonal, s)
	return nil
}

func (w *recordingWriter) UpsertBundleTier(_ context.Context, b pricing.BundleTier) error {
	w.tiers = append(w.tiers, b)
	return nil
}

type mockPreRegistrar struct {
	createFn func(ctx context.Context, email string) error
}

func (m *mockPreRegistrar) CreatePreRegistration(ctx context.Context, email string) error {
	return m.createFn(ctx, email)
}

func TestLoad_Fixture(t *testing.T) {
	f, err := seed.Load("testdata/tables.yaml")
	require.NoError(t, err)

	require.Len(t, f.PriceMatrix, 3)
	gutter := f.PriceMatrix[0]
	assert.Equal(t, "gutter_cleaning", gutter.ServiceType)
	assert.Equal(t, pricing.UnitFlat, gutter.Unit)
	assert.Equal(t, "150", gutter.BaseRate.String())
	require.NotNil(t, gutter.MaxPrice)
	assert.Equal(t, "400", gutter.MaxPrice.String())
	require.NotNil(t, gutter.EstimatedDuration)
	assert.Equal(t, 120, *gutter.EstimatedDuration)

	assert.Nil(t, f.PriceMatrix[1].MaxPrice)
	assert.Equal(t, "0.25", f.PriceMatrix[2].BaseRate.String())

	require.Len(t, f.Zones, 1)
	assert.Equal(t, "32801", f.Zones[0].ZipCode)
	require.Len(t, f.SeasonalRates, 1)
	assert.Equal(t, 4, f.SeasonalRates[0].Month)
	require.Len(t, f.BundleDiscounts, 2)
	assert.Equal(t, "15", f.BundleDiscounts[1].DiscountPercent.String())
	assert.Equal(t, []string{"first@example.com", "Second@Example.com"}, f.FoundingMembers)
}

func TestLoad_MissingFile(t *testing.T) {
	f, err := seed.Load("testdata/does-not-exist.yaml")

	assert.Error(t, err)
	assert.Nil(t, f)
}

func TestParse_UnknownField(t *testing.T) {
	_, err := seed.Parse([]byte("zones:\n  - zipCode: \"1\"\n    multiplier: 1\n    mulitplier: 2\n"))

	assert.Error(t, err)
}

func TestParse_ValidationErrors(t *testing.T) {
	doc := `
priceMatrix:
  - serviceType: ""
    sizeCategory: medium
    scopeLevel: standard
    baseRate: -1
    unit: per_hour
    minPrice: 10
    maxPrice: 5
  - serviceType: a
    sizeCategory: medium
    scopeLevel: standard
    baseRate: 1
    unit: flat
  - serviceType: a
    sizeCategory: medium
    scopeLevel: standard
    baseRate: 2
    unit: flat
zones:
  - zipCode: "32801"
    multiplier: 0
seasonalRates:
  - serviceType: landscaping
    month: 13
    multiplier: 1.2
bundleDiscounts:
  - minServices: 0
    discountPercent: 120
    bundleName: ""
foundingMembers:
  - not-an-email
`

	_, err := seed.Parse([]byte(doc))

	var verr *seed.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{
		"priceMatrix[0].serviceType",
		"priceMatrix[0].baseRate",
		"priceMatrix[0].unit",
		"priceMatrix[0].minPrice",
		"priceMatrix[2]",
		"zones[0].multiplier",
		"seasonalRates[0].month",
		"bundleDiscounts[0].minServices",
		"bundleDiscounts[0].discountPercent",
		"bundleDiscounts[0].bundleName",
		"foundingMembers[0]",
	}, fields)
	assert.Contains(t, err.Error(), "invalid seed file")
}

func TestApply(t *testing.T) {
	f, err := seed.Load("testdata/tables.yaml")
	require.NoError(t, err)

	w := &recordingWriter{}
	var emails []string
	prereg := &mockPreRegistrar{createFn: func(_ context.Context, email string) error {
		emails = append(emails, email)
		if email == "Second@Example.com" {
			return founding.ErrDuplicatePreRegistration
		}
		return nil
	}}

	res, err := seed.Apply(context.Background(), f, w, prereg)
	require.NoError(t, err)

	assert.Equal(t, seed.Result{
		Entries:         3,
		Zones:           1,
		SeasonalRates:   1,
		BundleTiers:     2,
		FoundingMembers: 1,
		SkippedMembers:  1,
	}, res)
	assert.Len(t, w.entries, 3)
	assert.Equal(t, "Spring growth season", w.seasonal[0].Reason)
	assert.Equal(t, "Trio", w.tiers[1].BundleName)
	assert.Equal(t, []string{"first@example.com", "Second@Example.com"}, emails)
}

func TestApply_WriterError(t *testing.T) {
	f, err := seed.Load("testdata/tables.yaml")
	require.NoError(t, err)

	w := &recordingWriter{entryErr: errors.New("connection reset")}

	res, err := seed.Apply(context.Background(), f, w, nil)

	assert.ErrorContains(t, err, "gutter_cleaning/medium/standard")
	assert.Equal(t, 0, res.Entries)
}

func TestApply_MembersWithoutRegistrar(t *testing.T) {
	f := &seed.File{FoundingMembers: []string{"a@example.com"}}

	_, err := seed.Apply(context.Background(), f, &recordingWriter{}, nil)

	assert.Error(t, err)
}
