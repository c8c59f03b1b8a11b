package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quotesapp/backend-quotes/internal/common"
	"github.com/quotesapp/backend-quotes/internal/validate"
)

type itemPayload struct {
	Name      string `json:"name" validate:"required"`
	Quantity  string `json:"quantity" validate:"required,quantity_text"`
	UnitPrice string `json:"unitPrice" validate:"required,money_text"`
}

type datePayload struct {
	Date string `json:"date" validate:"required,quote_date"`
}

func TestStructAccepts(t *testing.T) {
	v := validate.New()
	require.NoError(t, validate.Struct(v, itemPayload{Name: "Consulting", Quantity: "3", UnitPrice: "19.99"}))
	require.NoError(t, validate.Struct(v, itemPayload{Name: "Travel", Quantity: "1", UnitPrice: "0"}))
	require.NoError(t, validate.Struct(v, datePayload{Date: "2024-03-01"}))
}

func TestStructRejectsAndNamesField(t *testing.T) {
	v := validate.New()
	cases := []struct {
		payload any
		field   string
	}{
		{itemPayload{Name: "", Quantity: "1", UnitPrice: "1.00"}, "name"},
		{itemPayload{Name: "x", Quantity: "0", UnitPrice: "1.00"}, "quantity"},
		{itemPayload{Name: "x", Quantity: "-2", UnitPrice: "1.00"}, "quantity"},
		{itemPayload{Name: "x", Quantity: "1.5", UnitPrice: "1.00"}, "quantity"},
		{itemPayload{Name: "x", Quantity: "1", UnitPrice: "1.999"}, "unitPrice"},
		{itemPayload{Name: "x", Quantity: "1", UnitPrice: "-1.00"}, "unitPrice"},
		{itemPayload{Name: "x", Quantity: "1", UnitPrice: "1.5"}, "unitPrice"},
		{datePayload{Date: "03/01/2024"}, "date"},
		{datePayload{Date: "2024-13-40"}, "date"},
	}
	for _, tc := range cases {
		err := validate.Struct(v, tc.payload)
		require.Error(t, err)
		require.True(t, common.IsValidation(err))

		var app *common.AppError
		require.ErrorAs(t, err, &app)
		details := app.Details.(map[string]string)
		require.Equal(t, tc.field, details["field"])
	}
}
