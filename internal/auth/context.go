package auth

import "context"

const RoleAdmin = "admin"

type UserContext struct {
	UserID string
	Role   string
}

func (u UserContext) IsAdmin() bool { return u.Role == RoleAdmin }

type userKey struct{}

func WithUser(ctx context.Context, u UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func GetUser(ctx context.Context) (UserContext, bool) {
	u, ok := ctx.Value(userKey{}).(UserContext)
	return u, ok && u.UserID != ""
}

// GetUserID returns the authenticated caller, or "" when there is none.
func GetUserID(ctx context.Context) string {
	u, _ := GetUser(ctx)
	return u.UserID
}
