package promo

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator validates a promo code against a cart subtotal and returns the
// computed discount. The current parameter carries the code already active on
// the cart, if any; validation fails when one is present so a discount can
// never be applied twice. Callers validating a stateless request, where at
// most one code can exist, pass current as empty.
type Validator interface {
	Validate(ctx context.Context, code, current string, subtotal decimal.Decimal) (*Discount, error)
}

// RepoValidator implements Validator by looking up rules from a Repository.
type RepoValidator struct {
	repo Repository
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo}
}

// Validate looks up the rule for code and applies it to subtotal. It returns
// ErrAlreadyApplied when the cart already carries a code, and ErrInvalidCode
// when the code is unknown. Matching is exact after upper-casing; there is no
// fuzzy or prefix matching.
func (v *RepoValidator) Validate(ctx context.Context, code, current string, subtotal decimal.Decimal) (*Discount, error) {
	if current != "" {
		return nil, ErrAlreadyApplied
	}

	rule, err := v.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup promo code")
	}

	d := Apply(rule, subtotal)
	return &d, nil
}
