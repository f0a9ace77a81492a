package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityKind names a journaled user action.
type ActivityKind string

const (
	ActivitySignup      ActivityKind = "signup"
	ActivityLogin       ActivityKind = "login"
	ActivityLogout      ActivityKind = "logout"
	ActivityPublish     ActivityKind = "publish"
	ActivityImageUpload ActivityKind = "image_upload"
)

// Activity is a single journal entry stored in MongoDB.
type Activity struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	UserID    int64              `json:"user_id"    bson:"user_id"`
	Kind      ActivityKind       `json:"kind"       bson:"kind"`
	Subject   string             `json:"subject"    bson:"subject"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// ImageUpload is the response body for POST /api/images.
type ImageUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
