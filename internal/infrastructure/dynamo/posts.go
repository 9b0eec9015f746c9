package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/localtourx-api/internal/domain"
)

// PostRepo provides typed DynamoDB operations for the posts table.
type PostRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPostRepo(client *dynamodb.Client, tableName string) *PostRepo {
	return &PostRepo{client: client, tableName: tableName}
}

func (r *PostRepo) Put(ctx context.Context, p *domain.Post) error {
	item, err := marshalPost(p)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PostRepo) Get(ctx context.Context, postID string) (*domain.Post, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("post_id", postID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("post not found: %w", domain.ErrNotFound)
	}
	return unmarshalPost(out.Item)
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey("post_id", postID),
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": "post_id"},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("post not found: %w", domain.ErrNotFound)
	}
	return err
}

// Update applies a partial update and returns the stored post.
func (r *PostRepo) Update(ctx context.Context, postID string, updates map[string]interface{}) (*domain.Post, error) {
	updates[fieldUpdatedAt] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return nil, err
	}
	return r.update(ctx, postID, ue)
}

// AddLike adds userID to the post's like set. Adding an existing member is a no-op.
func (r *PostRepo) AddLike(ctx context.Context, postID, userID string) (*domain.Post, error) {
	return r.update(ctx, postID, updateExpr{
		Expr:   "ADD #l :u",
		Names:  map[string]string{"#l": fieldLikes},
		Values: map[string]types.AttributeValue{":u": &types.AttributeValueMemberSS{Value: []string{userID}}},
	})
}

// RemoveLike removes userID from the post's like set. Removing a non-member is a no-op.
func (r *PostRepo) RemoveLike(ctx context.Context, postID, userID string) (*domain.Post, error) {
	return r.update(ctx, postID, updateExpr{
		Expr:   "DELETE #l :u",
		Names:  map[string]string{"#l": fieldLikes},
		Values: map[string]types.AttributeValue{":u": &types.AttributeValueMemberSS{Value: []string{userID}}},
	})
}

// AppendComment appends c to the end of the post's comment list.
func (r *PostRepo) AppendComment(ctx context.Context, postID string, c domain.Comment) (*domain.Post, error) {
	av, err := attributevalue.Marshal([]domain.Comment{c})
	if err != nil {
		return nil, fmt.Errorf("marshal comment: %w", err)
	}
	return r.update(ctx, postID, updateExpr{
		Expr:  "SET #c = list_append(if_not_exists(#c, :empty), :new)",
		Names: map[string]string{"#c": fieldComments},
		Values: map[string]types.AttributeValue{
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":new":   av,
		},
	})
}

// ListFeed returns one page of all posts, newest first, and the total post count.
// page is 1-based.
func (r *PostRepo) ListFeed(ctx context.Context, page, limit int) ([]domain.Post, int, error) {
	total, err := r.countIndex(ctx, indexPostFeed, fieldFeed, feedPartition)
	if err != nil {
		return nil, 0, err
	}
	// Compare pages rather than offsets so a huge page cannot overflow.
	if page < 1 || limit <= 0 || page > pageCount(total, limit) {
		return []domain.Post{}, total, nil
	}
	offset := (page - 1) * limit
	posts, err := r.queryIndex(ctx, indexPostFeed, fieldFeed, feedPartition, offset+limit)
	if err != nil {
		return nil, 0, err
	}
	if offset >= len(posts) {
		return []domain.Post{}, total, nil
	}
	return posts[offset:], total, nil
}

func pageCount(total, limit int) int {
	n := total / limit
	if total%limit != 0 {
		n++
	}
	return n
}

// ListByOwner returns every post by ownerID, newest first.
func (r *PostRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Post, error) {
	return r.queryIndex(ctx, indexPostOwner, "posted_by", ownerID, 0)
}

func (r *PostRepo) update(ctx context.Context, postID string, ue updateExpr) (*domain.Post, error) {
	ue.Names["#pk"] = "post_id"
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("post_id", postID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("post not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return unmarshalPost(out.Attributes)
}

// queryIndex reads an index newest first. maxItems <= 0 reads every page.
func (r *PostRepo) queryIndex(ctx context.Context, index, attr, value string, maxItems int) ([]domain.Post, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		ScanIndexForward:          aws.Bool(false),
	})
	posts := []domain.Post{}
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			post, err := unmarshalPost(item)
			if err != nil {
				return nil, err
			}
			posts = append(posts, *post)
			if maxItems > 0 && len(posts) >= maxItems {
				return posts, nil
			}
		}
	}
	return posts, nil
}

func (r *PostRepo) countIndex(ctx context.Context, index, attr, value string) (int, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Select:                    types.SelectCount,
	})
	total := 0
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
	}
	return total, nil
}

// marshalPost adds the feed partition and a lexically sortable created_at,
// and stores an empty comment list so list_append always has a list to extend.
func marshalPost(p *domain.Post) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return nil, fmt.Errorf("marshal post: %w", err)
	}
	item[fieldFeed] = &types.AttributeValueMemberS{Value: feedPartition}
	item[fieldCreatedAt] = &types.AttributeValueMemberS{Value: sortableTime(p.CreatedAt)}
	if len(p.Comments) == 0 {
		item[fieldComments] = &types.AttributeValueMemberL{Value: []types.AttributeValue{}}
	}
	return item, nil
}

func unmarshalPost(item map[string]types.AttributeValue) (*domain.Post, error) {
	var p domain.Post
	if err := attributevalue.UnmarshalMap(item, &p); err != nil {
		return nil, fmt.Errorf("unmarshal post: %w", err)
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	if p.Comments == nil {
		p.Comments = []domain.Comment{}
	}
	return &p, nil
}
