package middleware

import (
	"context"

	"github.com/brailletranslate/backend/internal/models"
)

type contextKey string

const accountKey contextKey = "account"

// WithAccount stores the resolved account in the context
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext retrieves the account resolved by the route guard
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountKey).(*models.Account)
	return account, ok && account != nil
}
