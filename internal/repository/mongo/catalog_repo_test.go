package mongo

import (
	"testing"

	"coastalfit/coach-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildCatalogFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, buildCatalogFilter(domain.CatalogFilter{}))

	q := buildCatalogFilter(domain.CatalogFilter{
		Search:     "row (cable)",
		Category:   " Back ",
		Equipment:  "Cable",
		Difficulty: "Beginner",
	})
	assert.Equal(t, "back", q["category"])
	assert.Equal(t, "cable", q["equipment"])
	assert.Equal(t, "beginner", q["difficulty"])

	or, ok := q["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	pattern := or[0].(bson.M)["name"].(primitive.Regex)
	assert.Equal(t, `row \(cable\)`, pattern.Pattern)
	assert.Equal(t, "i", pattern.Options)
}
