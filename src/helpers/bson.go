package helpers

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// EncodeBSON marshals a document-shaped value (bson.M, bson.D, map or struct).
func EncodeBSON(document interface{}) ([]byte, error) {
	bsonData, err := bson.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("error encoding BSON: %w", err)
	}
	return bsonData, nil
}

// DecodeBSON unmarshals raw BSON into a bson.M.
func DecodeBSON(bsonData []byte) (bson.M, error) {
	var decodedData bson.M
	if err := bson.Unmarshal(bsonData, &decodedData); err != nil {
		return nil, fmt.Errorf("error decoding BSON: %w", err)
	}
	return decodedData, nil
}

// CopyDocument returns a deep copy of document as a bson.M. Values come back
// with their BSON types, so Go ints become int32 or int64.
func CopyDocument(document interface{}) (bson.M, error) {
	data, err := EncodeBSON(document)
	if err != nil {
		return nil, err
	}
	return DecodeBSON(data)
}

// NormalizeValue returns v as it reads back after a BSON round trip.
func NormalizeValue(v interface{}) (interface{}, error) {
	doc, err := CopyDocument(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return nil, err
	}
	return doc["v"], nil
}
