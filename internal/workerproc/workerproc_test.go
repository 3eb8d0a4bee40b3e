package workerproc

import (
	"errors"
	"testing"

	"attachments-backend/internal/queue"
)

func TestParseMessageEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var emptyErr ErrEmptyBody
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestParseMessageInvalidJSON(t *testing.T) {
	_, meta, err := ParseMessage("{bad-json")
	var decodeErr ErrDecode
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if meta.BodyLen != len("{bad-json") {
		t.Fatalf("meta body length wrong: %d", meta.BodyLen)
	}
	if meta.BodySHA == "" {
		t.Fatal("meta sha must be set for non-empty bodies")
	}
}

func TestParseMessageMissingDocumentID(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{Kind: queue.KindOCR, RequestID: "req-1"})
	_, _, err := ParseMessage(string(body))
	var missingErr ErrMissingDocumentID
	if !errors.As(err, &missingErr) {
		t.Fatalf("expected ErrMissingDocumentID, got %v", err)
	}
	if missingErr.RequestID != "req-1" {
		t.Fatalf("request id must carry through, got %q", missingErr.RequestID)
	}
}

func TestParseMessageUnknownKind(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{Kind: "thumbnail", DocumentID: "doc-1"})
	_, _, err := ParseMessage(string(body))
	var kindErr ErrUnknownKind
	if !errors.As(err, &kindErr) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if kindErr.Kind != "thumbnail" {
		t.Fatalf("kind must carry through, got %q", kindErr.Kind)
	}
}

func TestParseMessageValid(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{Kind: queue.KindOCR, DocumentID: "doc-1", RequestID: "req-2", Version: 1})
	msg, meta, err := ParseMessage(string(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.DocumentID != "doc-1" || msg.RequestID != "req-2" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if meta.BodyLen == 0 || meta.BodySHA == "" {
		t.Fatalf("meta must be populated, got %+v", meta)
	}
}

func TestParseMessageAcceptsLegacyWithoutKind(t *testing.T) {
	body, _ := queue.EncodeMessage(queue.Message{DocumentID: "doc-2"})
	msg, _, err := ParseMessage(string(body))
	if err != nil {
		t.Fatalf("parse without kind: %v", err)
	}
	if msg.DocumentID != "doc-2" {
		t.Fatalf("unexpected message %+v", msg)
	}
}
