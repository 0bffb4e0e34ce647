package validator

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Name     string          `validate:"required"`
	Quantity int64           `validate:"gt=0"`
	Rate     decimal.Decimal `validate:"decimal_gte0"`
	Price    decimal.Decimal `validate:"decimal_gt0"`
	Owner    uuid.UUID       `validate:"uuid_required"`
}

func TestValidateStructAccepts(t *testing.T) {
	errs := ValidateStruct(line{
		Name:     "Widget",
		Quantity: 1,
		Rate:     decimal.Zero,
		Price:    decimal.RequireFromString("0.01"),
		Owner:    uuid.New(),
	})
	assert.Empty(t, errs)
}

func TestValidateStructReportsEachField(t *testing.T) {
	errs := ValidateStruct(line{
		Rate:  decimal.NewFromInt(-1),
		Price: decimal.Zero,
	})
	require.Len(t, errs, 5)

	tags := make(map[string]string, len(errs))
	for _, e := range errs {
		tags[e.FailedField] = e.Tag
	}
	assert.Equal(t, "required", tags["line.Name"])
	assert.Equal(t, "gt", tags["line.Quantity"])
	assert.Equal(t, "decimal_gte0", tags["line.Rate"])
	assert.Equal(t, "decimal_gt0", tags["line.Price"])
	assert.Equal(t, "uuid_required", tags["line.Owner"])
}
