package middleware

import (
	"context"

	"github.com/SKYGOD07/Arjuna-Project/internal/request"
	"github.com/google/uuid"
)

// SetCallerInContext is a helper for tests in other packages that need an authenticated request
func SetCallerInContext(ctx context.Context, userID uuid.UUID) context.Context {
	return request.WithCaller(ctx, &request.Caller{UserID: userID, Subject: userID.String()})
}
