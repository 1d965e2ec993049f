package validator

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactRequest struct {
	FullName    string `json:"full_name" validate:"notblank,max=200"`
	PhoneNumber string `json:"phone_number" validate:"max=50"`
	Quantity    int    `json:"quantity" validate:"gte=0,lte=100"`
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(contactRequest{FullName: "Aruzhan", Quantity: 1}))
}

func TestValidate_NotBlank(t *testing.T) {
	err := Validate(contactRequest{FullName: "   "})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "is required", vErr.Fields()["full_name"])
}

func TestValidate_Bounds(t *testing.T) {
	err := Validate(contactRequest{FullName: "A", Quantity: 101})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "must be less than or equal to 100", vErr.Fields()["quantity"])
	assert.Contains(t, vErr.Error(), "field 'quantity'")
}

func TestDecodeAndValidate(t *testing.T) {
	r := httptest.NewRequest("PUT", "/", strings.NewReader(`{"full_name":"Dana","quantity":2}`))
	var req contactRequest
	require.NoError(t, DecodeAndValidate(r, &req))
	assert.Equal(t, "Dana", req.FullName)

	r = httptest.NewRequest("PUT", "/", strings.NewReader(`{not json`))
	err := DecodeAndValidate(r, &req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
