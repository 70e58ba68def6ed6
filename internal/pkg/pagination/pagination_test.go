package pagination

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/microsolutions/showcase/internal/database/dbtest"
	"github.com/microsolutions/showcase/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := map[string]Query{
		"/?page=0&limit=500": {Page: 1, Size: MaxSize},
		"/?page=3&size=x":    {Page: 3, Size: DefaultSize},
	}
	for target, want := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", target, nil)
		assert.Equal(t, want, FromContext(c), target)
	}
}

func TestPaginate(t *testing.T) {
	db := dbtest.Open(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.AssetReferenceModel{Path: fmt.Sprintf("icons/%d.png", i)}).Error)
	}

	var page []models.AssetReferenceModel
	meta, err := Paginate(context.Background(), db.Model(&models.AssetReferenceModel{}).Order("path"), Query{Page: 2, Size: 2}, &page)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, "icons/2.png", page[0].Path)
	assert.EqualValues(t, 5, meta.Total)
	assert.Equal(t, 3, meta.TotalPage)
	assert.True(t, meta.HasNextPage)
}
