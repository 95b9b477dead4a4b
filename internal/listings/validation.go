package listings

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/swapmarket/backend/pkg/db/models"
	"github.com/swapmarket/backend/pkg/enums"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
)

const (
	conditionMin = 1
	conditionMax = 5
)

var minPrice = decimal.NewFromInt(models.NotReadyForSell)

// ValidateInput checks the cross-field rules the struct tags cannot express.
func ValidateInput(input ListingInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing payload").
			WithDetails(map[string]string{"name": "name is required"})
	}
	if !input.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing payload").
			WithDetails(map[string]string{"kind": "kind should be good/service"})
	}

	if err := validateKindCondition(input.Kind, input.Condition); err != nil {
		return err
	}

	if input.PriceCurrency.LessThan(minPrice) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing payload").
			WithDetails(map[string]string{"price_currency": "price_currency must be -1 or greater"})
	}
	if input.PriceGifts < models.NotReadyForSell {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing payload").
			WithDetails(map[string]string{"price_gifts": "price_gifts must be -1 or greater"})
	}

	return nil
}

// validateKindCondition enforces that goods carry a condition grade and
// services do not get an out-of-range one.
func validateKindCondition(kind enums.ListingKind, condition *int) error {
	if kind == enums.ListingKindGood && condition == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing payload").
			WithDetails(map[string]string{"condition": "condition is required for goods"})
	}
	if condition != nil && (*condition < conditionMin || *condition > conditionMax) {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing payload").
			WithDetails(map[string]string{"condition": "condition should be between 1 and 5"})
	}
	return nil
}
