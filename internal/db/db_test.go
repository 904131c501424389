package db_test

import (
	"testing"

	"codenook/internal/db"
	"codenook/internal/db/dbtest"
	"codenook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCategoriesRunsOnce(t *testing.T) {
	conn := dbtest.New(t)

	require.NoError(t, db.SeedCategories(conn))
	require.NoError(t, db.SeedCategories(conn))

	var categories []models.Category
	require.NoError(t, conn.Order("name ASC").Find(&categories).Error)
	assert.Len(t, categories, 5)
	assert.Equal(t, "cloud", categories[0].Slug)
	assert.Equal(t, "web-development", categories[4].Slug)
}
