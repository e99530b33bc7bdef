package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/codeninja-coin/admin-service/internal/models"
)

const (
	RulePositive    = "positive"
	RuleNonNegative = "non_negative"
	RuleInteger     = "integer"
	RuleRequired    = "required"
)

func (v *Validator) registerBusinessRules() {
	_ = v.validate.RegisterValidation("belt", func(fl validator.FieldLevel) bool {
		return models.Belt(fl.Field().String()).IsValid()
	})
}

// ValidateStudentCreate checks the intake form. Age and coins are lenient and
// never fail validation; they are normalized by the caller.
func (v *Validator) ValidateStudentCreate(req *models.StudentCreateRequest) ValidationErrors {
	return v.Validate(req)
}

// ValidateRewardItemCreate checks the catalog form including the coin price
func (v *Validator) ValidateRewardItemCreate(req *models.RewardItemCreateRequest) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, v.Validate(req)...)

	switch {
	case !req.Price.Set || req.Price.Null:
		errs = append(errs, ValidationError{Field: "price", Message: "is required", Rule: RuleRequired})
	case !req.Price.Valid:
		errs = append(errs, ValidationError{Field: "price", Message: "must be a whole number", Rule: RuleInteger})
	case req.Price.Value < 1:
		errs = append(errs, ValidationError{Field: "price", Message: "must be a positive integer", Value: req.Price.Value, Rule: RulePositive})
	}

	errs = append(errs, validateStock(req.Stock)...)
	return errs
}

// ValidateRewardItemUpdate checks every provided field before anything is merged
func (v *Validator) ValidateRewardItemUpdate(req *models.RewardItemUpdateRequest) ValidationErrors {
	var errs ValidationErrors

	if req.Title.Set {
		switch {
		case req.Title.Null || strings.TrimSpace(req.Title.Value) == "":
			errs = append(errs, ValidationError{Field: "title", Message: "must not be empty", Rule: RuleRequired})
		case len(req.Title.Value) > 200:
			errs = append(errs, ValidationError{Field: "title", Message: "must be at most 200", Rule: "max"})
		}
	}

	if req.Description.Set && !req.Description.Null && len(req.Description.Value) > 2000 {
		errs = append(errs, ValidationError{Field: "description", Message: "must be at most 2000", Rule: "max"})
	}

	if req.ImageURL.Set && !req.ImageURL.Null && strings.TrimSpace(req.ImageURL.Value) != "" {
		if err := v.validate.Var(req.ImageURL.Value, "url,max=1000"); err != nil {
			for _, e := range ToValidationErrors(err) {
				e.Field = "imageUrl"
				errs = append(errs, e)
			}
		}
	}

	if req.Price.Set {
		switch {
		case req.Price.Null:
			errs = append(errs, ValidationError{Field: "price", Message: "must not be empty", Rule: RuleRequired})
		case !req.Price.Valid:
			errs = append(errs, ValidationError{Field: "price", Message: "must be a whole number", Rule: RuleInteger})
		case req.Price.Value < 1:
			errs = append(errs, ValidationError{Field: "price", Message: "must be a positive integer", Value: req.Price.Value, Rule: RulePositive})
		}
	}

	if req.Stock.Set && req.Stock.Null {
		errs = append(errs, ValidationError{Field: "stock", Message: "must not be empty", Rule: RuleRequired})
	} else {
		errs = append(errs, validateStock(req.Stock)...)
	}
	return errs
}

// ValidateCredentials checks a sign-in or sign-up form
func (v *Validator) ValidateCredentials(creds *models.Credentials) ValidationErrors {
	return v.Validate(creds)
}

func validateStock(stock models.OptionalInt) ValidationErrors {
	if !stock.Set || stock.Null {
		return nil
	}
	if !stock.Valid {
		return ValidationErrors{{Field: "stock", Message: "must be a whole number", Rule: RuleInteger}}
	}
	if stock.Value < 0 {
		return ValidationErrors{{Field: "stock", Message: "must not be negative", Value: stock.Value, Rule: RuleNonNegative}}
	}
	return nil
}
