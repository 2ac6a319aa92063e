// handlers/context.go
package handlers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// actor is the authenticated caller, resolved once per request from the
// context values the auth middleware injects. Workflow calls receive it
// explicitly; nothing below the handler reads ambient auth state.
type actor struct {
	ID    primitive.ObjectID
	IDHex string
	Email string
	Role  string
	OrgID primitive.ObjectID
}

func actorFromRequest(r *http.Request) (actor, bool) {
	userIDStr, ok := r.Context().Value("userID").(string)
	if !ok || userIDStr == "" {
		return actor{}, false
	}
	orgIDStr, ok := r.Context().Value("orgID").(string)
	if !ok || orgIDStr == "" {
		return actor{}, false
	}

	userID, err := primitive.ObjectIDFromHex(userIDStr)
	if err != nil {
		return actor{}, false
	}
	orgID, err := primitive.ObjectIDFromHex(orgIDStr)
	if err != nil {
		return actor{}, false
	}

	email, _ := r.Context().Value("userName").(string)
	role, _ := r.Context().Value("userRole").(string)

	return actor{
		ID:    userID,
		IDHex: userIDStr,
		Email: email,
		Role:  role,
		OrgID: orgID,
	}, true
}

func requestID(r *http.Request) string {
	rid, _ := r.Context().Value("requestID").(string)
	return rid
}
