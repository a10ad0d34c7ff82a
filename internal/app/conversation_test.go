package app

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"carecompanion/internal/api"
)

type fakeChatAPI struct {
	sessions       []api.ChatSession
	createErr      error
	createCalls    int
	sendResp       *api.ChatResponse
	sendErr        error
	sendCalls      int
	lastSent       string
	getSession     *api.ChatSession
	getMessages    []api.ChatMessage
	getErr         error
	convCtx        *api.ConversationContext
	convCtxErr     error
	deleteCalls    int
	renamedSession *api.ChatSession
}

func (f *fakeChatAPI) CreateSession(_ context.Context, title string) (*api.ChatSession, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &api.ChatSession{ID: "sess-1", Title: title, IsActive: true}, nil
}

func (f *fakeChatAPI) GetSession(context.Context, string) (*api.ChatSession, []api.ChatMessage, error) {
	return f.getSession, f.getMessages, f.getErr
}

func (f *fakeChatAPI) RenameSession(context.Context, string, string) (*api.ChatSession, error) {
	return f.renamedSession, nil
}

func (f *fakeChatAPI) DeleteSession(context.Context, string) error {
	f.deleteCalls++
	return nil
}

func (f *fakeChatAPI) ListSessions(context.Context) ([]api.ChatSession, error) {
	return f.sessions, nil
}

func (f *fakeChatAPI) SendMessage(_ context.Context, _, content string) (*api.ChatResponse, error) {
	f.sendCalls++
	f.lastSent = content
	return f.sendResp, f.sendErr
}

func (f *fakeChatAPI) GetConversationContext(context.Context, string) (*api.ConversationContext, error) {
	return f.convCtx, f.convCtxErr
}

func okResponse(content string) *api.ChatResponse {
	return &api.ChatResponse{
		AIResponse: api.ChatMessage{
			ID:          "msg-ai-1",
			MessageType: "ai",
			Content:     content,
			Mood:        MoodSupportive,
			CreatedAt:   time.Date(2025, 3, 10, 14, 0, 5, 0, time.UTC),
		},
		ProcessingResults: api.ProcessingResults{
			MoodAnalysis: &api.MoodAnalysis{Mood: MoodSupportive},
		},
	}
}

func newTestConversation(t *testing.T, chat *fakeChatAPI) (*ConversationController, *fakeTimerAPI) {
	t.Helper()
	timerFake := &fakeTimerAPI{dailyTotal: &api.DailyTotal{TotalSeconds: 0}}
	logger := NewLogger(io.Discard)
	timer := NewTimerController(timerFake, nil, logger)
	conv := NewConversationController(chat, timer, nil, nil, logger, DefaultConfig())
	return conv, timerFake
}

func TestAppendOptimisticBeforeNetwork(t *testing.T) {
	chat := &fakeChatAPI{}
	conv, _ := newTestConversation(t, chat)

	entry, err := conv.AppendOptimistic("  hello there  ")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if entry.Content != "hello there" {
		t.Fatalf("content = %q, want trimmed text", entry.Content)
	}
	if !entry.Pending {
		t.Fatal("optimistic entry must be pending")
	}
	if chat.sendCalls != 0 || chat.createCalls != 0 {
		t.Fatal("append must not touch the network")
	}

	transcript := conv.Transcript()
	if len(transcript) != 1 || transcript[0].ID != entry.ID {
		t.Fatalf("transcript = %+v, want the single optimistic entry", transcript)
	}
}

func TestAppendOptimisticRejectsEmpty(t *testing.T) {
	conv, _ := newTestConversation(t, &fakeChatAPI{})
	if _, err := conv.AppendOptimistic("   "); err != ErrEmptyMessage {
		t.Fatalf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestSendCreatesSessionImplicitly(t *testing.T) {
	chat := &fakeChatAPI{sendResp: okResponse("hi!")}
	conv, timerFake := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("first message")
	outcome := conv.Send(context.Background(), entry.ID, entry.Content)

	if chat.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", chat.createCalls)
	}
	if timerFake.startCalls != 1 {
		t.Fatalf("timer start calls = %d, want 1", timerFake.startCalls)
	}
	if outcome.AI == nil || outcome.AI.Content != "hi!" {
		t.Fatalf("outcome.AI = %+v, want the reply", outcome.AI)
	}
	if s := conv.Session(); s == nil || s.ID != "sess-1" {
		t.Fatalf("session = %+v, want sess-1", s)
	}

	// A second send reuses the open session.
	entry2, _ := conv.AppendOptimistic("second message")
	conv.Send(context.Background(), entry2.ID, entry2.Content)
	if chat.createCalls != 1 {
		t.Fatalf("create calls = %d after second send, want 1", chat.createCalls)
	}
}

func TestSendRewritesScrubbedContentOnce(t *testing.T) {
	resp := okResponse("I removed that for you.")
	resp.ProcessingResults.PIIScrubbed = true
	resp.ProcessingResults.ProcessedMessage = "my number is [REDACTED]"
	chat := &fakeChatAPI{sendResp: resp}
	conv, _ := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("my number is 555-0100")
	outcome := conv.Send(context.Background(), entry.ID, entry.Content)

	if !outcome.PIIRewritten {
		t.Fatal("expected the rewrite flag")
	}
	transcript := conv.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want 2", len(transcript))
	}
	if transcript[0].Content != "my number is [REDACTED]" {
		t.Fatalf("user entry = %q, want the redacted content in place", transcript[0].Content)
	}
	if transcript[0].Pending {
		t.Fatal("user entry must no longer be pending")
	}

	foundInfo := false
	for _, n := range outcome.Notices {
		if n.Level == NoticeInfo {
			foundInfo = true
		}
	}
	if !foundInfo {
		t.Fatal("expected an informational notice about the scrub")
	}
}

func TestSendPolicyRejectionKeepsEntry(t *testing.T) {
	chat := &fakeChatAPI{sendErr: &api.Error{
		StatusCode: 400,
		Warnings:   []string{"Detected toxic content"},
	}}
	conv, _ := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("something hostile")
	outcome := conv.Send(context.Background(), entry.ID, entry.Content)

	if !outcome.Blocked {
		t.Fatal("expected a blocked outcome")
	}
	if outcome.AI != nil {
		t.Fatal("a rejected message must not produce an AI reply")
	}

	transcript := conv.Transcript()
	if len(transcript) != 1 {
		t.Fatalf("transcript length = %d, want 1 (entry never rolled back)", len(transcript))
	}
	if transcript[0].Pending {
		t.Fatal("entry must settle out of pending after the rejection")
	}
	if len(outcome.Notices) == 0 || outcome.Notices[0].Level != NoticeWarning {
		t.Fatalf("notices = %+v, want a warning", outcome.Notices)
	}
}

func TestSendGenericFailureKeepsEntry(t *testing.T) {
	chat := &fakeChatAPI{sendErr: errors.New("connection reset")}
	conv, _ := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("hello?")
	outcome := conv.Send(context.Background(), entry.ID, entry.Content)

	if outcome.Blocked {
		t.Fatal("a transport failure is not a policy rejection")
	}
	if len(conv.Transcript()) != 1 {
		t.Fatal("entry must stay visible after a failed send")
	}
	if len(outcome.Notices) == 0 || outcome.Notices[0].Level != NoticeError {
		t.Fatalf("notices = %+v, want an error notice", outcome.Notices)
	}
}

func TestSendRedirectSuggestions(t *testing.T) {
	resp := okResponse("Let's talk about something else.")
	resp.ProcessingResults.ShouldRedirect = true
	resp.ProcessingResults.RedirectSuggestions = []string{"Tell me about your day", "What made you smile recently?"}
	chat := &fakeChatAPI{sendResp: resp}
	conv, _ := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("same dark topic again")
	conv.Send(context.Background(), entry.ID, entry.Content)

	state, suggestions := conv.Redirect()
	if state != RedirectSuggesting {
		t.Fatalf("redirect state = %v, want suggesting", state)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %v, want 2", suggestions)
	}

	text, ok := conv.AcceptSuggestion(1)
	if !ok || text != "What made you smile recently?" {
		t.Fatalf("accepted = %q/%v, want the second suggestion", text, ok)
	}
	state, suggestions = conv.Redirect()
	if state != RedirectIdle || len(suggestions) != 0 {
		t.Fatal("accepting must clear the redirect immediately")
	}

	// A reply without a redirect clears any prior prompt.
	chat.sendResp = okResponse("Sounds lovely.")
	entry2, _ := conv.AppendOptimistic("my day was fine")
	conv.Send(context.Background(), entry2.ID, entry2.Content)
	if state, _ := conv.Redirect(); state != RedirectIdle {
		t.Fatal("redirect must stay idle without suggestions")
	}
}

func TestAcceptSuggestionOutOfRange(t *testing.T) {
	conv, _ := newTestConversation(t, &fakeChatAPI{})
	if _, ok := conv.AcceptSuggestion(0); ok {
		t.Fatal("no suggestions are on offer")
	}
}

func TestMoodHistoryAppendsPerReply(t *testing.T) {
	chat := &fakeChatAPI{sendResp: okResponse("reply one")}
	conv, _ := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("one")
	conv.Send(context.Background(), entry.ID, entry.Content)

	happy := okResponse("reply two")
	happy.ProcessingResults.MoodAnalysis = &api.MoodAnalysis{Mood: MoodHappy}
	chat.sendResp = happy
	entry2, _ := conv.AppendOptimistic("two")
	conv.Send(context.Background(), entry2.ID, entry2.Content)

	history := conv.MoodHistory()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2 (append-only)", len(history))
	}
	if conv.CurrentMood() != MoodHappy {
		t.Fatalf("current mood = %q, want happy", conv.CurrentMood())
	}
}

func TestLoadSessionReplacesStateWholesale(t *testing.T) {
	chat := &fakeChatAPI{
		sendResp:   okResponse("old reply"),
		getSession: &api.ChatSession{ID: "sess-2", Title: "Earlier chat"},
		getMessages: []api.ChatMessage{
			{ID: "m1", MessageType: "user", Content: "stored question"},
			{ID: "m2", MessageType: "ai", Content: "stored answer", Mood: MoodCurious},
		},
		convCtx: &api.ConversationContext{
			CurrentMood: MoodCurious,
			MoodHistory: []api.MoodHistoryEntry{{Mood: MoodCurious}},
		},
	}
	conv, _ := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("live message")
	conv.Send(context.Background(), entry.ID, entry.Content)

	if err := conv.LoadSession(context.Background(), "sess-2"); err != nil {
		t.Fatalf("load: %v", err)
	}

	transcript := conv.Transcript()
	if len(transcript) != 2 {
		t.Fatalf("transcript length = %d, want the stored 2 only", len(transcript))
	}
	if transcript[0].Content != "stored question" {
		t.Fatalf("transcript[0] = %q, want the stored question", transcript[0].Content)
	}
	if conv.CurrentMood() != MoodCurious {
		t.Fatalf("mood = %q, want curious", conv.CurrentMood())
	}
	if history := conv.MoodHistory(); len(history) != 1 {
		t.Fatalf("history length = %d, want the stored 1 only", len(history))
	}
}

func TestDeleteOpenSessionClearsLocalState(t *testing.T) {
	chat := &fakeChatAPI{sendResp: okResponse("hello")}
	conv, timerFake := newTestConversation(t, chat)

	entry, _ := conv.AppendOptimistic("hi")
	conv.Send(context.Background(), entry.ID, entry.Content)

	if err := conv.DeleteSession(context.Background(), "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if chat.deleteCalls != 1 {
		t.Fatalf("delete calls = %d, want 1", chat.deleteCalls)
	}
	if conv.Session() != nil {
		t.Fatal("open session must be cleared")
	}
	if len(conv.Transcript()) != 0 {
		t.Fatal("transcript must be cleared with the session")
	}
	if timerFake.stopCalls == 0 {
		t.Fatal("deleting the open session must stop its timer")
	}
}
