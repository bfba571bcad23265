package handlers

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type bindTestStruct struct {
	Name string `json:"name"`
	Rent int    `json:"rent"`
}

func TestBindNestedOrFlat(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		key         string
		body        string
		expected    bindTestStruct
		expectError bool
	}{
		{
			name:        "Nested Structure",
			key:         "tenancy",
			body:        `{"tenancy": {"name": "Flat 101", "rent": 5000}}`,
			expected:    bindTestStruct{Name: "Flat 101", Rent: 5000},
			expectError: false,
		},
		{
			name:        "Flat Structure",
			key:         "tenancy",
			body:        `{"name": "Flat 102", "rent": 5500}`,
			expected:    bindTestStruct{Name: "Flat 102", Rent: 5500},
			expectError: false,
		},
		{
			name:        "Nested Structure with Missing Key Fallback",
			key:         "tenancy",
			body:        `{"other": "value", "name": "Flat 103", "rent": 6000}`,
			expected:    bindTestStruct{Name: "Flat 103", Rent: 6000},
			expectError: false,
		},
		{
			name:        "Nested Structure with Different Key",
			key:         "payment",
			body:        `{"payment": {"name": "Receipt", "rent": 100}}`,
			expected:    bindTestStruct{Name: "Receipt", Rent: 100},
			expectError: false,
		},
		{
			name:        "Invalid JSON",
			key:         "tenancy",
			body:        `{"name": "Flat 104", "rent": "invalid"}`, // rent is int
			expected:    bindTestStruct{},
			expectError: true,
		},
		{
			name:        "Nested but Invalid Content",
			key:         "tenancy",
			body:        `{"tenancy": {"name": "Flat 105", "rent": "invalid"}}`,
			expected:    bindTestStruct{},
			expectError: true,
		},
		{
			name:        "Nested Key Present but Invalid Type",
			key:         "tenancy",
			body:        `{"tenancy": "some string"}`,
			expected:    bindTestStruct{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("POST", "/", bytes.NewBufferString(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var result bindTestStruct
			err := BindNestedOrFlat(c, tt.key, &result)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
