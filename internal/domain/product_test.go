package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/furnacestore/storefront/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestProduct_Validate(t *testing.T) {
	tests := []struct {
		name      string
		product   Product
		wantField string
	}{
		{
			name:    "valid without description",
			product: Product{Name: "Печь ИПП-60", CategoryID: 1},
		},
		{
			name:    "valid with description",
			product: Product{Name: "Печь", Description: strPtr("Индукционная печь"), CategoryID: 1},
		},
		{
			name:      "empty name",
			product:   Product{Name: "", CategoryID: 1},
			wantField: "name",
		},
		{
			name:    "name at limit counted in runes",
			product: Product{Name: strings.Repeat("ж", MaxProductNameLength), CategoryID: 1},
		},
		{
			name:      "name over limit",
			product:   Product{Name: strings.Repeat("a", MaxProductNameLength+1), CategoryID: 1},
			wantField: "name",
		},
		{
			name:      "empty description",
			product:   Product{Name: "a", Description: strPtr(""), CategoryID: 1},
			wantField: "description",
		},
		{
			name:      "description over limit",
			product:   Product{Name: "a", Description: strPtr(strings.Repeat("b", MaxProductDescriptionLength+1)), CategoryID: 1},
			wantField: "description",
		},
		{
			name:      "missing category",
			product:   Product{Name: "a"},
			wantField: "category_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Contains(t, appErr.Fields, tt.wantField)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}
