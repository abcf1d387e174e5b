package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LookupEvent is a single dictionary search stored in MongoDB.
type LookupEvent struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Term      string             `json:"term"       bson:"term"`
	Hits      int                `json:"hits"       bson:"hits"`
	Visitor   string             `json:"visitor"    bson:"visitor"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
