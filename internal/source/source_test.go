package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/refload/internal/config"
	"github.com/gyeh/refload/internal/model"
)

func cumServer(t *testing.T, total int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		limit, _ := strconv.Atoi(r.URL.Query().Get("$limit"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("$offset"))
		var page []map[string]any
		for i := offset; i < total && i < offset+limit; i++ {
			page = append(page, map[string]any{
				"expedientecum":     strconv.Itoa(20000000 + i),
				"consecutivocum":    "1",
				"producto":          "PRODUCTO " + strconv.Itoa(i),
				"principioactivo":   "ACETAMINOFEN",
				"cantidad":          "500",
				"unidadmedida":      "mg",
				"formafarmaceutica": "TABLETA",
				"viaadministracion": "ORAL",
				"titular":           "LABORATORIO",
				"registrosanitario": "INVIMA 2020M-000" + strconv.Itoa(i),
				"fechavencimiento":  "2030-01-31T00:00:00.000",
				"estadoregistro":    "Vigente",
				"estadocum":         "Activo",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRESTPaginatesAndCaps(t *testing.T) {
	srv, calls := cumServer(t, 25)

	a := NewREST(model.Drugs, config.AdapterConfig{
		Name: "cum", Kind: "rest", URL: srv.URL, PageSize: 10, MaxRecords: 100,
	}, zerolog.Nop())
	recs := a.Fetch(context.Background())

	require.Len(t, recs, 25)
	assert.EqualValues(t, 3, atomic.LoadInt32(calls))

	d := recs[0].(*model.DrugRecord)
	assert.Equal(t, "20000000-1", d.CumCode)
	assert.Equal(t, "500 mg", d.Concentration)
	assert.Equal(t, []string{"Oral"}, d.RoutesOfAdministration)
	assert.Equal(t, "Tablet", d.PharmaceuticalForm)
	require.NotNil(t, d.RegistrationExpiresOn)
	assert.Equal(t, 2030, d.RegistrationExpiresOn.Year())
	assert.True(t, d.Active)
	assert.True(t, d.RequiresPrescription)
}

func TestRESTMaxRecords(t *testing.T) {
	srv, _ := cumServer(t, 1000)

	a := NewREST(model.Drugs, config.AdapterConfig{
		Name: "cum", URL: srv.URL, PageSize: 10, MaxRecords: 15,
	}, zerolog.Nop())
	assert.Len(t, a.Fetch(context.Background()), 15)
}

func TestRESTCapIgnoredLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		page := make([]map[string]any, 0, 50)
		for i := range 50 {
			page = append(page, map[string]any{
				"expedientecum":   strconv.Itoa(int(n)*1000 + i),
				"principioactivo": "ACETAMINOFEN",
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	a := NewREST(model.Drugs, config.AdapterConfig{
		Name: "cum", URL: srv.URL, PageSize: 10, MaxRecords: 100,
	}, zerolog.Nop())
	assert.Len(t, a.Fetch(context.Background()), 100)
	assert.EqualValues(t, 10, atomic.LoadInt32(&calls))
}

func TestRESTCustomParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Equal(t, "vigente", r.URL.Query().Get("estado"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"codigo":"J00","descripcion":"Common cold"}]`)
	}))
	defer srv.Close()

	a := NewREST(model.Diagnoses, config.AdapterConfig{
		Name: "cie10", URL: srv.URL, LimitParam: "limit", OffsetParam: "offset",
		PageSize: 5, Query: map[string]string{"estado": "vigente"},
	}, zerolog.Nop())
	recs := a.Fetch(context.Background())
	require.Len(t, recs, 1)
	assert.Equal(t, "J00", recs[0].NaturalKey())
}

func TestRESTFailuresYieldEmpty(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()
		a := NewREST(model.Diagnoses, config.AdapterConfig{Name: "x", URL: srv.URL}, zerolog.Nop())
		assert.Empty(t, a.Fetch(context.Background()))
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>maintenance</html>`)
		}))
		defer srv.Close()
		a := NewREST(model.Diagnoses, config.AdapterConfig{Name: "x", URL: srv.URL}, zerolog.Nop())
		assert.Empty(t, a.Fetch(context.Background()))
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()
		a := NewREST(model.Diagnoses, config.AdapterConfig{Name: "x", URL: srv.URL, Timeout: 20 * time.Millisecond}, zerolog.Nop())
		assert.Empty(t, a.Fetch(context.Background()))
	})

	t.Run("not configured", func(t *testing.T) {
		a := NewREST(model.Diagnoses, config.AdapterConfig{Name: "x"}, zerolog.Nop())
		assert.Empty(t, a.Fetch(context.Background()))
	})
}

const cieTable = `<html><body>
<table>
  <thead><tr><th>Código</th><th>Descripción</th></tr></thead>
  <tbody>
    <tr><td>J00</td><td>Rinofaringitis aguda</td></tr>
    <tr><td>j189</td><td>Neumonía, no especificada</td></tr>
    <tr><td></td><td>sin código</td></tr>
  </tbody>
</table>
</body></html>`

func TestHTMLHeaderColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, cieTable)
	}))
	defer srv.Close()

	a := NewHTML(model.Diagnoses, config.AdapterConfig{Name: "minsalud", URL: srv.URL}, zerolog.Nop())
	recs := a.Fetch(context.Background())
	require.Len(t, recs, 2)

	dx := recs[1].(*model.DiagnosisRecord)
	assert.Equal(t, "J18.9", dx.Code)
	assert.Equal(t, "Diseases of the respiratory system", dx.Category)
	assert.True(t, dx.RequiresHospitalization)
}

func TestHTMLExplicitColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="row"><span>890201</span><span>Consulta general</span><span>25.000</span></div>`)
	}))
	defer srv.Close()

	a := NewHTML(model.Procedures, config.AdapterConfig{
		Name: "cups", URL: srv.URL, RowSelector: "div.row", CellSelector: "span",
		Columns: []string{"code", "description", "tariffCurrent"},
	}, zerolog.Nop())
	recs := a.Fetch(context.Background())
	require.Len(t, recs, 1)

	p := recs[0].(*model.ProcedureRecord)
	assert.Equal(t, "Consultation", p.Category)
	require.NotNil(t, p.TariffCurrent)
	assert.Equal(t, 25000.0, *p.TariffCurrent)
}

func TestHTMLLayoutChangeYieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>Página en mantenimiento</p></body></html>`)
	}))
	defer srv.Close()

	a := NewHTML(model.Diagnoses, config.AdapterConfig{Name: "minsalud", URL: srv.URL}, zerolog.Nop())
	assert.Empty(t, a.Fetch(context.Background()))
}

func TestStaticTables(t *testing.T) {
	for _, et := range []model.EntityType{model.Procedures, model.Diagnoses, model.Drugs} {
		a := NewStatic(et, zerolog.Nop())
		assert.True(t, a.Fallback())
		recs := a.Fetch(context.Background())
		assert.GreaterOrEqual(t, len(recs), 10, et.Name)
		for _, r := range recs {
			assert.NotEmpty(t, r.NaturalKey())
		}
	}
	assert.Empty(t, NewStatic(model.Supplies, zerolog.Nop()).Fetch(context.Background()))
}

func TestStaticTablesMeetDefaultMinimum(t *testing.T) {
	defaults := config.DefaultPipeline().Entities
	// Drugs have a default origin; the other static tables stand alone.
	for _, et := range []model.EntityType{model.Procedures, model.Diagnoses} {
		recs := NewStatic(et, zerolog.Nop()).Fetch(context.Background())
		assert.GreaterOrEqual(t, len(recs), defaults[et.Name].Minimum, et.Name)
	}
}

func TestStaticDiagnosesIncludeCommonCodes(t *testing.T) {
	recs := NewStatic(model.Diagnoses, zerolog.Nop()).Fetch(context.Background())
	byCode := map[string]*model.DiagnosisRecord{}
	for _, r := range recs {
		byCode[r.NaturalKey()] = r.(*model.DiagnosisRecord)
	}
	require.Contains(t, byCode, "J00")
	require.Contains(t, byCode, "J18.9")
	assert.Equal(t, model.SeverityCritical, byCode["I21.9"].Severity)
	assert.True(t, byCode["E11.9"].IsChronic)
	require.NotNil(t, byCode["S72.0"].InjuryType)
	assert.Equal(t, "Fracture", *byCode["S72.0"].InjuryType)
}

func TestStaticDrugsControlled(t *testing.T) {
	recs := NewStatic(model.Drugs, zerolog.Nop()).Fetch(context.Background())
	byCum := map[string]*model.DrugRecord{}
	for _, r := range recs {
		byCum[r.NaturalKey()] = r.(*model.DrugRecord)
	}
	assert.True(t, byCum["19987654-2"].IsControlledSubstance)
	assert.Equal(t, []string{"Intravenous", "Subcutaneous"}, byCum["19987654-2"].RoutesOfAdministration)
	assert.False(t, byCum["19943544-1"].IsControlledSubstance)
	assert.False(t, byCum["19943544-1"].RequiresPrescription)
	assert.Equal(t, "Injection", byCum["20001232-1"].PharmaceuticalForm)
}

func TestBuild(t *testing.T) {
	adapters := Build(model.Diagnoses, []config.AdapterConfig{
		{Name: "api", Kind: "rest", URL: "http://example.invalid"},
		{Name: "web", Kind: "html"},
		{Name: "static", Kind: "static"},
		{Name: "bogus", Kind: "ftp"},
	}, time.Second, zerolog.Nop())

	require.Len(t, adapters, 3)
	assert.Equal(t, "api", adapters[0].Name())
	assert.False(t, adapters[1].Fallback())
	assert.True(t, adapters[2].Fallback())
}
