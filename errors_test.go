package sheetquery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorContext(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	tests := []struct {
		name string
		ctx  *ErrorContext
		base error
		want string
	}{
		{
			name: "operation only",
			ctx:  NewErrorContext("open", ""),
			want: "sheetquery: open failed",
		},
		{
			name: "full context",
			ctx: NewErrorContext("materialize", "Companies.xlsx").
				WithWorksheet("Companies").
				WithProperty("EmployeeCount", "Employees").
				WithDetails("row 3"),
			base: base,
			want: "sheetquery: materialize failed, file: Companies.xlsx, worksheet: Companies, " +
				"property: EmployeeCount, column: Employees, details: row 3: boom",
		},
		{
			name: "property without column",
			ctx:  NewErrorContext("relation", "").WithProperty("Members", ""),
			base: base,
			want: "sheetquery: relation failed, property: Members: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.ctx.Error(tt.base)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			if tt.base != nil {
				assert.ErrorIs(t, err, tt.base)
			}
		})
	}
}
