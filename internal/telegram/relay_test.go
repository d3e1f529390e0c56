package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestForwardToOwnerCorrelatesHeaderAndContent(t *testing.T) {
	svc, fake, st := newTestService(t)

	svc.handleMessage(userMessage(42, "hello owner"))

	ownerTexts := fake.textsTo(testOwnerID)
	if len(ownerTexts) != 2 {
		t.Fatalf("owner received %d messages, want header + content", len(ownerTexts))
	}
	if !containsText(ownerTexts, "New Message from User") {
		t.Errorf("no header: %v", ownerTexts)
	}
	if !containsText(ownerTexts, "hello owner") {
		t.Errorf("no content: %v", ownerTexts)
	}

	// the fake assigns ids 1, 2 to the two owner deliveries
	for _, id := range []int{1, 2} {
		if got, ok := st.ResolveCorrelation(id); !ok || got != 42 {
			t.Errorf("message %d resolves to %d,%v, want 42", id, got, ok)
		}
	}

	// the user got a confirmation
	if len(fake.textsTo(42)) != 1 {
		t.Errorf("user confirmations: %v", fake.textsTo(42))
	}
}

func TestForwardPhotoKeepsCaption(t *testing.T) {
	svc, fake, _ := newTestService(t)

	msg := userMessage(42, "")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}
	msg.Caption = "look at this"

	svc.handleMessage(msg)

	photos := fake.photosTo(testOwnerID)
	if len(photos) != 1 {
		t.Fatalf("owner received %d photos", len(photos))
	}
	if photos[0].Caption != "look at this" {
		t.Errorf("caption = %q", photos[0].Caption)
	}
	if fid, ok := photos[0].File.(tgbotapi.FileID); !ok || string(fid) != "big" {
		t.Errorf("file = %v, want largest size", photos[0].File)
	}
}

func TestOwnerReplyRoutedToUser(t *testing.T) {
	svc, fake, _ := newTestService(t)

	svc.handleMessage(userMessage(42, "question"))

	reply := userMessage(testOwnerID, "answer")
	reply.From = &tgbotapi.User{ID: testOwnerID, FirstName: "Owner"}
	reply.Chat = &tgbotapi.Chat{ID: testOwnerID}
	reply.ReplyToMessage = &tgbotapi.Message{MessageID: 1} // the header

	svc.handleMessage(reply)

	if !containsText(fake.textsTo(42), "answer") {
		t.Errorf("user did not get the reply: %v", fake.textsTo(42))
	}
	if !containsText(fake.textsTo(testOwnerID), "Reply sent to user 42") {
		t.Errorf("owner did not get confirmation: %v", fake.textsTo(testOwnerID))
	}
}

func TestOwnerReplyToUncorrelatedMessageIgnored(t *testing.T) {
	svc, fake, _ := newTestService(t)

	reply := userMessage(testOwnerID, "talking to myself")
	reply.ReplyToMessage = &tgbotapi.Message{MessageID: 777}

	svc.handleMessage(reply)

	if len(fake.sent) != 0 {
		t.Errorf("uncorrelated reply produced %d messages", len(fake.sent))
	}
}

func TestDeliveryFailureNotifiesSender(t *testing.T) {
	svc, fake, _ := newTestService(t)
	fake.failFor[testOwnerID] = true

	svc.handleMessage(userMessage(42, "hello"))

	if !containsText(fake.textsTo(42), "Failed to send message") {
		t.Errorf("no failure notice: %v", fake.textsTo(42))
	}
}

func TestBroadcastCountsFailuresPerRecipient(t *testing.T) {
	svc, fake, st := newTestService(t)

	for id := int64(1); id <= 3; id++ {
		if err := st.UpsertUser(id, "", "U"); err != nil {
			t.Fatal(err)
		}
	}
	fake.failFor[2] = true

	sent, failed, total := svc.broadcast(Content{Kind: ContentText, Text: "hi all"})

	if sent != 2 || failed != 1 || total != 3 {
		t.Errorf("broadcast = %d/%d/%d, want 2/1/3", sent, failed, total)
	}
	if !containsText(fake.textsTo(1), "hi all") || !containsText(fake.textsTo(3), "hi all") {
		t.Error("reachable users did not get the broadcast")
	}
}

func TestBroadcastSkipsBannedUsers(t *testing.T) {
	svc, fake, st := newTestService(t)

	if err := st.UpsertUser(1, "", "U"); err != nil {
		t.Fatal(err)
	}
	if err := st.UpsertUser(2, "", "U"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetBanned(2, true); err != nil {
		t.Fatal(err)
	}

	_, _, total := svc.broadcast(Content{Kind: ContentText, Text: "hi"})

	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(fake.textsTo(2)) != 0 {
		t.Error("banned user got the broadcast")
	}
}

func TestExtractContent(t *testing.T) {
	text := userMessage(42, "hi")
	if c := extractContent(text); c.Kind != ContentText || c.Text != "hi" {
		t.Errorf("text: %+v", c)
	}

	video := userMessage(42, "")
	video.Video = &tgbotapi.Video{FileID: "v1"}
	video.Caption = "clip"
	if c := extractContent(video); c.Kind != ContentVideo || c.FileID != "v1" || c.Caption != "clip" {
		t.Errorf("video: %+v", c)
	}

	voice := userMessage(42, "")
	voice.Voice = &tgbotapi.Voice{FileID: "vo1"}
	if c := extractContent(voice); c.Kind != ContentVoice || c.FileID != "vo1" {
		t.Errorf("voice: %+v", c)
	}

	// service messages carry nothing relayable
	empty := userMessage(42, "")
	if c := extractContent(empty); c.Kind != ContentNone {
		t.Errorf("empty: %+v", c)
	}
}
