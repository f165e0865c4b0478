package models_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"pkt.systems/jmap/api"
	"pkt.systems/jmap/codec"
	"pkt.systems/jmap/models"
)

func ptr[T any](v T) *T { return &v }

func roundTrip[T any](t *testing.T, in T) {
	t.Helper()
	wire, err := codec.Encode(in)
	if err != nil {
		t.Fatalf("encode %T: %v", in, err)
	}
	var out T
	if err := codec.Decode(wire, &out); err != nil {
		t.Fatalf("decode %T: %v", in, err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch for %T:\n in %#v\nout %#v", in, in, out)
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	received := time.Date(1994, 8, 24, 12, 1, 2, 0, time.UTC)
	roundTrip(t, models.Email{
		ID:         ptr("Md45b47b4877521042cec0938"),
		BlobID:     ptr("Ge8de6c9f6de198239b982ea214e0f3a704e4af74"),
		ThreadID:   ptr("T1"),
		MailboxIDs: map[string]bool{"MBX1": true},
		Keywords:   map[string]bool{"$seen": true},
		Size:       ptr(int64(2048)),
		ReceivedAt: &received,
		MessageID:  []string{"first@ness.onett.example.net"},
		Headers:    []models.EmailHeader{models.Header("X-Example", "1")},
		From:       []models.EmailAddress{models.Address("Paula", "paula@twoson.example.net")},
		To:         []models.EmailAddress{models.Address("", "ness@onett.example.net")},
		Subject:    ptr("I am from Twoson"),
		SentAt:     ptr(received.Add(-time.Minute)),
		BodyStructure: &models.EmailBodyPart{
			Type:     ptr("multipart/alternative"),
			SubParts: []models.EmailBodyPart{{PartID: ptr("1"), Type: ptr("text/plain"), Size: ptr(int64(12))}},
		},
		BodyValues:    map[string]models.EmailBodyValue{"1": {Value: ptr("hello"), IsTruncated: ptr(false)}},
		TextBody:      []models.EmailBodyPart{{PartID: ptr("1")}},
		HasAttachment: ptr(false),
		Preview:       ptr("hello"),
	})
	roundTrip(t, models.Mailbox{
		ID:           ptr("MBX1"),
		Name:         ptr("Inbox"),
		Role:         ptr("inbox"),
		SortOrder:    ptr(int64(0)),
		TotalEmails:  ptr(int64(100)),
		IsSubscribed: ptr(true),
		MyRights:     &models.MailboxRights{MayReadItems: true, MayAddItems: true},
	})
	roundTrip(t, models.Thread{ID: "T1", EmailIDs: []string{"M1", "M2"}})
	roundTrip(t, models.Identity{
		ID:            "ID1",
		Name:          "Ness",
		Email:         "ness@onett.example.net",
		ReplyTo:       []models.EmailAddress{models.Address("Ness", "ness@onett.example.net")},
		TextSignature: ptr("Ness"),
		MayDelete:     true,
	})
	roundTrip(t, models.SearchSnippet{EmailID: "M1", Subject: ptr("<mark>Twoson</mark>")})
	roundTrip(t, models.VacationResponse{
		ID:        models.VacationResponseID,
		IsEnabled: true,
		FromDate:  &received,
		Subject:   ptr("Away"),
		TextBody:  ptr("Back soon"),
	})
	roundTrip(t, models.EmailSubmission{
		ID:         ptr("S1"),
		IdentityID: ptr("ID1"),
		EmailID:    ptr("M1"),
		Envelope: &models.Envelope{
			MailFrom: &models.SMTPAddress{Email: "ness@onett.example.net"},
			RcptTo:   []models.SMTPAddress{{Email: "paula@twoson.example.net", Parameters: map[string]string{"NOTIFY": "NEVER"}}},
		},
		SendAt:         &received,
		UndoStatus:     ptr(models.UndoPending),
		DeliveryStatus: map[string]models.DeliveryStatus{"paula@twoson.example.net": {SMTPReply: "250 OK", Delivered: models.DeliveredQueued, Displayed: models.DisplayedUnknown}},
	})
	roundTrip(t, models.MaskedEmail{
		ID:        ptr("masked-1"),
		Email:     ptr("pk.fire@ness.example.net"),
		State:     ptr(models.MaskedEmailEnabled),
		ForDomain: ptr("onett.example.net"),
		CreatedAt: &received,
	})
}

func TestEmailTimestampsEncodeUTC(t *testing.T) {
	sent := time.Date(1994, 8, 24, 14, 1, 2, 0, time.FixedZone("CEST", 2*3600))
	wire, err := codec.Encode(models.Email{SentAt: &sent})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if wire["sentAt"] != "1994-08-24T12:01:02Z" {
		t.Fatalf("unexpected sentAt %v", wire["sentAt"])
	}
	if len(wire) != 1 {
		t.Fatalf("absent fields must not be emitted: %#v", wire)
	}
}

func TestFilterEncoding(t *testing.T) {
	filter := models.And(
		models.EmailFilterCondition{InMailbox: api.Value("MBX1")},
		models.Not(models.EmailFilterCondition{HasKeyword: api.Value("$seen")}),
	)
	wire, err := codec.Encode(filter)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := map[string]any{
		"operator": "AND",
		"conditions": []any{
			map[string]any{"inMailbox": "MBX1"},
			map[string]any{
				"operator":   "NOT",
				"conditions": []any{map[string]any{"hasKeyword": "$seen"}},
			},
		},
	}
	if !reflect.DeepEqual(wire, want) {
		t.Fatalf("unexpected filter:\n got %#v\nwant %#v", wire, want)
	}
}

func TestComparators(t *testing.T) {
	wire, err := codec.Encode(models.Descending("receivedAt"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !reflect.DeepEqual(wire, map[string]any{"property": "receivedAt", "isAscending": false}) {
		t.Fatalf("unexpected comparator %#v", wire)
	}
	if !models.Ascending("name").IsAscending {
		t.Fatalf("expected ascending comparator")
	}
}

func TestCreationIDsAreUnique(t *testing.T) {
	a, b := models.NewCreationID(), models.NewCreationID()
	if a == b || !strings.HasPrefix(a, "c") {
		t.Fatalf("unexpected creation ids %q %q", a, b)
	}
	if (models.Thread{EmailIDs: []string{"a", "b"}}).Len() != 2 {
		t.Fatalf("unexpected thread length")
	}
}
