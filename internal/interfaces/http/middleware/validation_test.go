package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=10"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.Use(RequestID())
	router.POST("/test", func(c *gin.Context) {
		var req reviewInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleValidationError_FieldDetails(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"rating": 9, "comment": "this comment is far too long"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
	require.Len(t, resp.Error.Details, 2)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Tag
	}
	assert.Equal(t, "max", fields["rating"])
	assert.Equal(t, "max", fields["comment"])
}

func TestHandleValidationError_BodyErrors(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"rating": `, dto.ErrCodeInvalidJSON},
		{"syntax error", `{rating: 1}`, dto.ErrCodeInvalidJSON},
		{"wrong type", `{"rating": "five"}`, dto.ErrCodeValidation},
		{"empty body", ``, dto.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleValidationError_Valid(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"rating": 4, "comment": "great"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Required string `validate:"required"`
		Email    string `validate:"omitempty,email"`
		Min      string `validate:"min=5"`
		UUID     string `validate:"omitempty,uuid"`
		OneOf    string `validate:"omitempty,oneof=html pdf"`
		GTE      int    `validate:"gte=10"`
	}

	err := validator.New().Struct(input{Email: "invalid", Min: "ab", UUID: "nope", OneOf: "doc", GTE: 1})
	require.Error(t, err)

	expected := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: html pdf",
		"GTE":      "Must be greater than or equal to 10",
	}
	errs := err.(validator.ValidationErrors)
	require.Len(t, errs, len(expected))
	for _, e := range errs {
		assert.Equal(t, expected[e.Field()], getValidationMessage(e), e.Field())
	}
}
