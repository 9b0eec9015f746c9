package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/localtourx-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableInputs_IndexKeysAreDefined(t *testing.T) {
	inputs := tableInputs(config.DynamoTables{Users: "users", Posts: "posts"})
	require.Len(t, inputs, 2)

	for _, in := range inputs {
		defined := map[string]bool{}
		for _, ad := range in.AttributeDefinitions {
			defined[aws.ToString(ad.AttributeName)] = true
		}
		used := map[string]bool{}
		for _, ks := range in.KeySchema {
			used[aws.ToString(ks.AttributeName)] = true
		}
		for _, g := range in.GlobalSecondaryIndexes {
			for _, ks := range g.KeySchema {
				used[aws.ToString(ks.AttributeName)] = true
			}
		}
		// DynamoDB rejects definitions that no key schema references and vice versa.
		assert.Equal(t, defined, used, "table %s", aws.ToString(in.TableName))
	}
}

func TestGSI_SortKeyOptional(t *testing.T) {
	g := gsi("email-index", "email", "")
	assert.Len(t, g.KeySchema, 1)

	g = gsi(indexPostFeed, fieldFeed, fieldCreatedAt)
	require.Len(t, g.KeySchema, 2)
	assert.Equal(t, types.KeyTypeRange, g.KeySchema[1].KeyType)
	assert.Equal(t, types.ProjectionTypeAll, g.Projection.ProjectionType)
}
