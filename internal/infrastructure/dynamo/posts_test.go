package dynamo

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/localtourx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortableTime_OrdersLexically(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 5, 0, time.UTC)
	a := sortableTime(base.Add(100 * time.Millisecond))
	b := sortableTime(base.Add(120 * time.Millisecond))
	c := sortableTime(base.Add(time.Second))
	assert.Less(t, a, b)
	assert.Less(t, b, c)
	assert.Equal(t, "2024-05-01T10:00:05.100000000Z", a)
}

func TestMarshalPost_AddsFeedAndEmptyComments(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	item, err := marshalPost(&domain.Post{PostID: "p1", PostedBy: "u1", Title: "t", CreatedAt: created})
	require.NoError(t, err)

	feed, ok := item[fieldFeed].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, feedPartition, feed.Value)

	comments, ok := item[fieldComments].(*types.AttributeValueMemberL)
	require.True(t, ok)
	assert.Empty(t, comments.Value)

	_, hasLikes := item[fieldLikes]
	assert.False(t, hasLikes, "empty string sets cannot be stored")
}

func TestUnmarshalPost_RoundTripsCreatedAt(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 123000000, time.UTC)
	item, err := marshalPost(&domain.Post{PostID: "p1", Likes: []string{"u2"}, CreatedAt: created})
	require.NoError(t, err)

	p, err := unmarshalPost(item)
	require.NoError(t, err)
	assert.True(t, created.Equal(p.CreatedAt))
	assert.Equal(t, []string{"u2"}, p.Likes)
	assert.NotNil(t, p.Comments)
}

func TestListFeed_SecondPageSkipsOffset(t *testing.T) {
	repo, _ := newFakeFeed(t, 5)

	posts, total, err := repo.ListFeed(context.Background(), 2, 2)

	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, posts, 2)
	assert.Equal(t, "p2", posts[0].PostID)
	assert.Equal(t, "p3", posts[1].PostID)
}

func TestListFeed_LastPartialPage(t *testing.T) {
	repo, _ := newFakeFeed(t, 5)

	posts, _, err := repo.ListFeed(context.Background(), 3, 2)

	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "p4", posts[0].PostID)
}

func TestListFeed_PageBeyondEndReadsNoItems(t *testing.T) {
	for _, page := range []int{3, 1000000000000000001, math.MaxInt} {
		repo, f := newFakeFeed(t, 3)

		posts, total, err := repo.ListFeed(context.Background(), page, 10)

		require.NoError(t, err, "page %d", page)
		assert.Empty(t, posts, "page %d", page)
		assert.Equal(t, 3, total)
		assert.Zero(t, f.itemQueries(), "page %d", page)
	}
}

func TestAddLike_UsesStringSetAdd(t *testing.T) {
	repo, f := newFakeFeed(t, 1)

	_, err := repo.AddLike(context.Background(), "p0", "u2")
	require.NoError(t, err)

	call, ok := f.lastCall("UpdateItem")
	require.True(t, ok)
	assert.Equal(t, "ADD #l :u", call.Body["UpdateExpression"])
	assert.Equal(t, "attribute_exists(#pk)", call.Body["ConditionExpression"])
	assert.Equal(t, fieldLikes, call.Body["ExpressionAttributeNames"].(map[string]any)["#l"])
	values := call.Body["ExpressionAttributeValues"].(map[string]any)
	assert.Equal(t, map[string]any{"SS": []any{"u2"}}, values[":u"])
}

func TestRemoveLike_UsesStringSetDelete(t *testing.T) {
	repo, f := newFakeFeed(t, 1)

	_, err := repo.RemoveLike(context.Background(), "p0", "u2")
	require.NoError(t, err)

	call, ok := f.lastCall("UpdateItem")
	require.True(t, ok)
	assert.Equal(t, "DELETE #l :u", call.Body["UpdateExpression"])
	values := call.Body["ExpressionAttributeValues"].(map[string]any)
	assert.Equal(t, map[string]any{"SS": []any{"u2"}}, values[":u"])
}
