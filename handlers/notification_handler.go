// handlers/notification_handler.go
package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"costmgt/models"
	"costmgt/utils"
)

// NotifyUser persists an in-app notification and pushes it over the
// websocket hub. Strictly best-effort: runs after the owning transition has
// committed, and every failure is logged at warning level and swallowed so a
// notification problem can never undo or fail an approval.
func NotifyUser(orgID, userID primitive.ObjectID, ntype, title, message, entityType string, entityID primitive.ObjectID, metadata bson.M) {
	n := models.Notification{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		UserID:         userID,
		Module:         "cost",
		Type:           ntype,
		Title:          title,
		Message:        message,
		EntityType:     entityType,
		EntityID:       entityID,
		Metadata:       metadata,
		Read:           false,
		CreatedAt:      time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := notificationCollection.InsertOne(ctx, n); err != nil {
		log.Printf("WARN: notification dispatch failed (type=%s user=%s): %v", ntype, userID.Hex(), err)
		return
	}
	BroadcastNotification(&n)
}

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l >= 1 && l <= 100 {
			limit = l
		}
	}
	skip := 0
	if skipStr := r.URL.Query().Get("skip"); skipStr != "" {
		if s, err := strconv.Atoi(skipStr); err == nil && s >= 0 {
			skip = s
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"organizationId": act.OrgID, "userId": act.ID}
	if unread := r.URL.Query().Get("unread"); unread == "true" {
		filter["read"] = false
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(skip))

	cursor, err := notificationCollection.Find(ctx, filter, opts)
	if err != nil {
		log.Printf("notifications find error: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to decode notifications")
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	unreadCount, _ := notificationCollection.CountDocuments(ctx, bson.M{
		"organizationId": act.OrgID,
		"userId":         act.ID,
		"read":           false,
	})

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unreadCount":   unreadCount,
		"success":       true,
	})
}

// MarkNotificationRead flags one of the caller's notifications as read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	act, ok := actorFromRequest(r)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := notificationCollection.UpdateOne(ctx,
		bson.M{"_id": id, "organizationId": act.OrgID, "userId": act.ID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "failed to update notification")
		return
	}
	if res.MatchedCount == 0 {
		utils.RespondWithErrorCode(w, http.StatusNotFound, utils.CodeNotFound, "Notification not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
