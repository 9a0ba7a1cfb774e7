package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func matched(n int) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: n}, bson.E{Key: "nModified", Value: n})
}

func updatedIDs(mt *mtest.T) []string {
	var ids []string
	for _, e := range mt.GetAllStartedEvents() {
		if e.CommandName != "update" {
			continue
		}
		updates := e.Command.Lookup("updates").Array()
		values, err := updates.Values()
		require.NoError(mt, err)
		for _, v := range values {
			ids = append(ids, v.Document().Lookup("q", "_id").ObjectID().Hex())
		}
	}
	return ids
}

func TestUserRepository_RemoveRelation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	specialistID, clientID := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("both sides pulled", func(mt *mtest.T) {
		repo := &mongoUserRepository{collection: mt.Coll}
		mt.AddMockResponses(matched(1), matched(1))

		require.NoError(mt, repo.RemoveRelation(context.Background(), specialistID, clientID))
		assert.Equal(mt, []string{specialistID.Hex(), clientID.Hex()}, updatedIDs(mt))
	})

	mt.Run("missing client is not restored on the specialist", func(mt *mtest.T) {
		repo := &mongoUserRepository{collection: mt.Coll}
		mt.AddMockResponses(matched(1), matched(0))

		require.NoError(mt, repo.RemoveRelation(context.Background(), specialistID, clientID))
		assert.Equal(mt, []string{specialistID.Hex(), clientID.Hex()}, updatedIDs(mt))
	})

	mt.Run("failed client write restores the specialist", func(mt *mtest.T) {
		repo := &mongoUserRepository{collection: mt.Coll}
		mt.AddMockResponses(
			matched(1),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Name: "BadValue", Message: "boom"}),
			matched(1),
		)

		err := repo.RemoveRelation(context.Background(), specialistID, clientID)
		require.Error(mt, err)
		assert.Equal(mt, []string{specialistID.Hex(), clientID.Hex(), specialistID.Hex()}, updatedIDs(mt))
	})
}
