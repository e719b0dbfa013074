// Package audit implements the AuditSink interface with a JSONL file sink
// and a Kafka producer sink, plus optional HMAC signing of records.
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/crowdlens/crowdlens/internal/domain/models"
)

// SignRecord calculates the HMAC-SHA256 signature over the record's JSON
// serialization, excluding any existing signature.
func SignRecord(record *models.AuditRecord, secretKey string) (string, error) {
	unsigned := *record
	unsigned.Signature = ""

	data, err := json.Marshal(&unsigned)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(data)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// VerifyRecord reports whether the record's signature matches its content.
func VerifyRecord(record *models.AuditRecord, secretKey string) bool {
	expected, err := SignRecord(record, secretKey)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(record.Signature))
}
