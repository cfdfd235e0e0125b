package validation

import (
	"testing"

	"github.com/example/ec-storefront/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addLineRequest struct {
	ProductID int64    `json:"productId" validate:"gt=0"`
	Quantity  int      `json:"quantity" validate:"min=1,max=99"`
	Color     string   `json:"color" validate:"required"`
	Tags      []string `json:"tags" validate:"min=1"`
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(addLineRequest{ProductID: 1, Quantity: 2, Color: "Red", Tags: []string{"x"}})

	assert.NoError(t, err)
}

func TestStruct_DetailsUseJSONNames(t *testing.T) {
	err := Struct(addLineRequest{Quantity: 0, Tags: nil})

	require.Error(t, err)
	typed := apperr.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, apperr.CodeInvalidArgument, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be greater than 0", details["productId"])
	assert.Equal(t, "must be at least 1", details["quantity"])
	assert.Equal(t, "is required", details["color"])
	assert.Equal(t, "must contain at least 1 item(s)", details["tags"])
}
