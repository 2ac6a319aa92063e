// handlers/collections.go
package handlers

import (
	"go.mongodb.org/mongo-driver/mongo"

	"costmgt/database"
)

var (
	orgCollection          *mongo.Collection
	userCollection         *mongo.Collection
	projectCollection      *mongo.Collection
	contractCollection     *mongo.Collection
	changeOrderCollection  *mongo.Collection
	certificateCollection  *mongo.Collection
	paymentCollection      *mongo.Collection
	costPolicyCollection   *mongo.Collection
	auditLogCollection     *mongo.Collection
	notificationCollection *mongo.Collection
)

func InitCollections() {
	orgCollection = database.Collection("organizations")
	userCollection = database.Collection("users")
	projectCollection = database.Collection("projects")
	contractCollection = database.Collection("contracts")
	changeOrderCollection = database.Collection("change_orders")
	certificateCollection = database.Collection("payment_certificates")
	paymentCollection = database.Collection("payments")
	costPolicyCollection = database.Collection("cost_policies")
	auditLogCollection = database.Collection("audit_logs")
	notificationCollection = database.Collection("notifications")
}
