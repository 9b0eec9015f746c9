package dynamo

import "time"

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUpdatedAt = "updated_at"
	fieldCreatedAt = "created_at"
	fieldLikes     = "likes"
	fieldComments  = "comments"
	fieldFeed      = "feed"
)

const (
	indexUserEmail      = "email-index"
	indexUserResetToken = "reset_password_token-index"
	indexPostFeed       = "feed-created_at-index"
	indexPostOwner      = "posted_by-created_at-index"
)

// feedPartition is the constant partition value of the feed index.
const feedPartition = "post"

// sortableTimeLayout keeps a fixed nine-digit fraction so that timestamps
// compare correctly as strings. time.Time still parses it as RFC 3339.
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func sortableTime(t time.Time) string {
	return t.UTC().Format(sortableTimeLayout)
}
