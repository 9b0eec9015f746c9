package validate

import (
	"testing"

	"github.com/localtourx-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(&domain.CreatePostRequest{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.Equal(t, "photo is required", err.Error())
}

func TestStruct_NumericPhone(t *testing.T) {
	req := domain.RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "pw12345", Phone: "555-0001"}
	err := Struct(&req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone must contain only digits")

	req.Phone = "5550001"
	assert.NoError(t, Struct(&req))
}

func TestStruct_RejectsAdminSelfRegistration(t *testing.T) {
	req := domain.RegisterRequest{Name: "Alice", Email: "a@x.com", Password: "pw123456", Phone: "5550001234", Role: domain.RoleAdmin}
	err := Struct(&req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role must be one of")
}
