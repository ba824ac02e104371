package aggregate

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/refload/internal/model"
	"github.com/gyeh/refload/internal/source"
)

type fakeAdapter struct {
	name     string
	fallback bool
	recs     []model.Record
	calls    *[]string
}

func (f *fakeAdapter) Name() string   { return f.name }
func (f *fakeAdapter) Fallback() bool { return f.fallback }
func (f *fakeAdapter) Fetch(context.Context) []model.Record {
	if f.calls != nil {
		*f.calls = append(*f.calls, f.name)
	}
	return f.recs
}

func dx(code, desc string) model.Record {
	return &model.DiagnosisRecord{Code: code, Description: desc}
}

func dxs(n int, prefix string) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		out[i] = dx(prefix+string(rune('A'+i%26))+string(rune('0'+i/26)), "x")
	}
	return out
}

func TestFirstSeenWins(t *testing.T) {
	agg := Aggregator{
		Adapters: []source.Adapter{
			&fakeAdapter{name: "A", recs: []model.Record{dx("J00", "Common cold")}},
			&fakeAdapter{name: "B", fallback: true, recs: []model.Record{
				dx("J00", "Rhinopharyngitis"),
				dx("J18.9", "Pneumonia, unspecified"),
			}},
		},
		Sufficient: 100,
		Minimum:    10,
		Log:        zerolog.Nop(),
	}

	res := agg.Run(context.Background())
	require.Len(t, res.Records, 2)
	assert.Equal(t, 3, res.Fetched)

	got := map[string]string{}
	for _, r := range res.Records {
		got[r.NaturalKey()] = r.(*model.DiagnosisRecord).Description
	}
	assert.Equal(t, map[string]string{
		"J00":   "Common cold",
		"J18.9": "Pneumonia, unspecified",
	}, got)
}

func TestFallbackOrdering(t *testing.T) {
	var calls []string
	static := dxs(12, "S")
	agg := Aggregator{
		Adapters: []source.Adapter{
			&fakeAdapter{name: "primary", recs: dxs(3, "P"), calls: &calls},
			&fakeAdapter{name: "static", fallback: true, recs: static, calls: &calls},
			&fakeAdapter{name: "secondary", recs: dxs(2, "Q"), calls: &calls},
		},
		Sufficient: 1000,
		Minimum:    10,
		Log:        zerolog.Nop(),
	}

	res := agg.Run(context.Background())
	assert.Equal(t, []string{"primary", "secondary", "static"}, calls)
	assert.GreaterOrEqual(t, len(res.Records), len(static))
	assert.Equal(t, []model.SourceCount{
		{Source: "primary", Count: 3},
		{Source: "secondary", Count: 2},
		{Source: "static", Count: 12},
	}, res.PerSource)
}

func TestEarlyExit(t *testing.T) {
	var calls []string
	agg := Aggregator{
		Adapters: []source.Adapter{
			&fakeAdapter{name: "primary", recs: dxs(60, "P"), calls: &calls},
			&fakeAdapter{name: "secondary", recs: dxs(5, "Q"), calls: &calls},
			&fakeAdapter{name: "static", fallback: true, recs: dxs(5, "S"), calls: &calls},
		},
		Sufficient: 50,
		Minimum:    10,
		Log:        zerolog.Nop(),
	}

	res := agg.Run(context.Background())
	assert.Equal(t, []string{"primary"}, calls)
	assert.Len(t, res.Records, 60)
}

func TestNoEarlyExitWhenSufficientZero(t *testing.T) {
	var calls []string
	agg := Aggregator{
		Adapters: []source.Adapter{
			&fakeAdapter{name: "primary", recs: dxs(60, "P"), calls: &calls},
			&fakeAdapter{name: "secondary", recs: dxs(5, "Q"), calls: &calls},
			&fakeAdapter{name: "static", fallback: true, recs: dxs(5, "S"), calls: &calls},
		},
		Sufficient: 0,
		Minimum:    20,
		Log:        zerolog.Nop(),
	}

	res := agg.Run(context.Background())
	assert.Equal(t, []string{"primary", "secondary"}, calls)
	assert.Len(t, res.Records, 65)
}

func TestAllSourcesEmpty(t *testing.T) {
	agg := Aggregator{
		Adapters: []source.Adapter{
			&fakeAdapter{name: "primary"},
			&fakeAdapter{name: "static", fallback: true},
		},
		Minimum: 10,
		Log:     zerolog.Nop(),
	}
	res := agg.Run(context.Background())
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Fetched)
	assert.Len(t, res.PerSource, 2)
}

func TestDedup(t *testing.T) {
	in := []model.Record{
		dx("A00", "first"),
		dx("", "no key"),
		dx("B00", "b"),
		dx("A00", "second"),
	}
	out := Dedup(in)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].(*model.DiagnosisRecord).Description)
	assert.Equal(t, "B00", out[1].NaturalKey())
	assert.Empty(t, Dedup(nil))
}
