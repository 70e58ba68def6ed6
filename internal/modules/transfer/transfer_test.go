package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/microsolutions/showcase/internal/database/dbtest"
	"github.com/microsolutions/showcase/internal/models"
	"github.com/microsolutions/showcase/internal/modules/asset"
	"github.com/microsolutions/showcase/internal/modules/asset/assettest"
	"github.com/microsolutions/showcase/internal/modules/singleton"
	"github.com/microsolutions/showcase/internal/modules/solution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var gif = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00!\xf9\x04\x01\x00\x00\x00\x00,\x00\x00\x00\x00\x01\x00\x01\x00\x00\x02\x02D\x01\x00;")

type env struct {
	svc       *Service
	solutions *solution.Service
	stats     *singleton.StatisticsForm
}

func newEnv(t *testing.T) env {
	t.Helper()
	db := dbtest.Open(t)
	assets := asset.NewManager(db, assettest.NewMemoryStore(), nil)
	sols := solution.NewService(db, assets, nil, nil)
	stats := singleton.NewStatisticsForm(db, nil, nil)
	return env{
		svc:       NewService(sols, singleton.NewCompanyForm(db, assets, nil, nil), singleton.NewContactsForm(db, nil, nil), stats, nil),
		solutions: sols,
		stats:     stats,
	}
}

func seed(t *testing.T, sols *solution.Service, title string) {
	t.Helper()
	images := make([]solution.ImageInput, solution.MinCreateImages)
	for i := range images {
		images[i] = solution.ImageInput{File: &asset.File{Name: fmt.Sprintf("%d.gif", i), Data: gif}}
	}
	_, err := sols.Create(context.Background(), solution.CreateInput{
		Fields: solution.Fields{
			Title: title, Subtitle: title + " subtitle", Description: title + " description",
			Status: "live", BusinessAreas: []string{"logistics", "sales"}, SDGGoals: []int{9, 12},
			Problem: "manual work", HoursSaved: 310, UsersImpacted: 42,
		},
		Images: images,
		Icon:   &asset.File{Name: "icon.gif", Data: gif},
	})
	require.NoError(t, err)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newEnv(t)
	ctx := context.Background()
	seed(t, src.solutions, "Route Optimizer")
	seed(t, src.solutions, "Stock Forecaster")

	data, err := src.svc.ExportSolutionsJSON(ctx)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "assets.test")
	assert.NotContains(t, string(data), "icon_url")
	assert.NotContains(t, string(data), "images")

	dst := newEnv(t)
	ids, err := dst.svc.ImportSolutions(ctx, data)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"route-optimizer", "stock-forecaster"}, ids)

	imported, err := dst.solutions.Get(ctx, "route-optimizer")
	require.NoError(t, err)
	require.NotNil(t, imported)
	assert.Equal(t, "Route Optimizer subtitle", imported.Subtitle)
	assert.Equal(t, "Route Optimizer description", imported.Description)
	assert.Equal(t, models.StatusLive, imported.Status)
	assert.Equal(t, []string{"sales", "logistics"}, imported.Areas())
	assert.Equal(t, []int{9, 12}, imported.Goals())
	assert.Equal(t, int64(310), imported.HoursSaved)
	assert.Equal(t, int64(42), imported.UsersImpacted)
	assert.Empty(t, imported.IconURL)
	assert.Empty(t, imported.Images)
}

func TestImportIntoPopulatedStoreGetsFreshIDs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seed(t, e.solutions, "Route Optimizer")

	data, err := e.svc.ExportSolutionsJSON(ctx)
	require.NoError(t, err)
	ids, err := e.svc.ImportSolutions(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, []string{"route-optimizer-2"}, ids)
}

func TestImportRejectsMalformedInput(t *testing.T) {
	e := newEnv(t)
	cases := map[string]string{
		"syntax":        `[{"title": "x",`,
		"object":        `{"title": "x"}`,
		"empty":         ``,
		"missing title": `[{"title": "ok"}, {"subtitle": "no title"}]`,
		"wrong type":    `[{"title": "x", "hours_saved": "many"}]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.svc.ImportSolutions(context.Background(), []byte(body))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
	assert.Empty(t, e.solutions.List(context.Background()), "no partial import")
}

func TestImportNormalisesUnknownValues(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ids, err := e.svc.ImportSolutions(ctx, []byte(`[{"title":"Loose","status":"shipped","business_areas":["mining","Finance"],"sdg_goals":[0,5,40],"hours_saved":-3}]`))
	require.NoError(t, err)

	got, err := e.solutions.Get(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, models.StatusConcept, got.Status)
	assert.Equal(t, []string{"finance"}, got.Areas())
	assert.Equal(t, []int{5}, got.Goals())
	assert.Zero(t, got.HoursSaved)
}

func TestExportXLSX(t *testing.T) {
	e := newEnv(t)
	seed(t, e.solutions, "Route Optimizer")

	data, err := e.svc.ExportSolutionsXLSX(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(xlsxSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, xlsxHeader, rows[0])
	assert.Equal(t, "Route Optimizer", rows[1][0])
	assert.Equal(t, "sales, logistics", rows[1][4])
	assert.Equal(t, "9, 12", rows[1][9])
	assert.Equal(t, "310", rows[1][10])
}

func TestExportSingletons(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.stats.Save(ctx, "", models.StatisticsModel{Partners: 7})
	require.NoError(t, err)

	data, err := e.svc.ExportSingletonsJSON(ctx)
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &out))
	assert.JSONEq(t, "null", string(out["company"]))
	assert.Contains(t, string(out["statistics"]), `"partners": 7`)
}
