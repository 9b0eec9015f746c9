package dynamo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type recordedCall struct {
	Op   string
	Body map[string]any
}

// fakeEndpoint answers the DynamoDB JSON protocol for a fixed feed of posts,
// stored newest first, and records every call it receives.
type fakeEndpoint struct {
	mu    sync.Mutex
	items []map[string]any
	calls []recordedCall
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimPrefix(r.Header.Get("X-Amz-Target"), "DynamoDB_20120810.")
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Op: op, Body: body})
	items := f.items
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/x-amz-json-1.0")
	var out map[string]any
	switch op {
	case "Query":
		if body["Select"] == "COUNT" {
			out = map[string]any{"Count": len(items), "ScannedCount": len(items)}
		} else {
			out = map[string]any{"Items": items, "Count": len(items), "ScannedCount": len(items)}
		}
	case "UpdateItem":
		out = map[string]any{"Attributes": items[0]}
	default:
		w.WriteHeader(http.StatusBadRequest)
		out = map[string]any{
			"__type":  "com.amazonaws.dynamodb.v20120810#ValidationException",
			"message": "unsupported operation " + op,
		}
	}
	_ = json.NewEncoder(w).Encode(out)
}

// itemQueries counts Query calls that read items rather than a count.
func (f *fakeEndpoint) itemQueries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Op == "Query" && c.Body["Select"] != "COUNT" {
			n++
		}
	}
	return n
}

func (f *fakeEndpoint) lastCall(op string) (recordedCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Op == op {
			return f.calls[i], true
		}
	}
	return recordedCall{}, false
}

func wirePost(postID string, created time.Time, likes ...string) map[string]any {
	item := map[string]any{
		"post_id":    map[string]any{"S": postID},
		"posted_by":  map[string]any{"S": "u1"},
		"title":      map[string]any{"S": "Title " + postID},
		"feed":       map[string]any{"S": feedPartition},
		"created_at": map[string]any{"S": sortableTime(created)},
		"comments":   map[string]any{"L": []any{}},
	}
	if len(likes) > 0 {
		item["likes"] = map[string]any{"SS": likes}
	}
	return item
}

// newFakeFeed serves n posts, p0 being the newest.
func newFakeFeed(t *testing.T, n int) (*PostRepo, *fakeEndpoint) {
	t.Helper()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeEndpoint{}
	for i := 0; i < n; i++ {
		f.items = append(f.items, wirePost(fmt.Sprintf("p%d", i), base.Add(-time.Duration(i)*time.Minute)))
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client := dynamodb.New(dynamodb.Options{
		Region:           "us-east-1",
		BaseEndpoint:     aws.String(srv.URL),
		Credentials:      credentials.NewStaticCredentialsProvider("test", "test", ""),
		RetryMaxAttempts: 1,
	})
	return NewPostRepo(client, "posts"), f
}
