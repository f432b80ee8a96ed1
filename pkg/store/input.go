package store

// DialogueInput is the single inbound type for a conversational turn. Exactly
// one of the variant fields is set; the orchestrator dispatches on Kind rather
// than probing payload shapes.
type DialogueInput struct {
	Kind           InputKind
	ConversationID string
	PartyID        string

	// FreeText
	Text string

	// ButtonSelection carries the opaque callback value of a pressed button.
	Button string

	// Attachment starts or feeds an upload flow.
	AttachmentName string
	AttachmentKey  string
}

type InputKind string

const (
	InputFreeText        InputKind = "free_text"
	InputButtonSelection InputKind = "button_selection"
	InputAttachment      InputKind = "attachment"
)

// FreeText builds a plain utterance input.
func FreeText(conversationID, partyID, text string) DialogueInput {
	return DialogueInput{Kind: InputFreeText, ConversationID: conversationID, PartyID: partyID, Text: text}
}

// ButtonSelection builds a menu-button input.
func ButtonSelection(conversationID, partyID, button string) DialogueInput {
	return DialogueInput{Kind: InputButtonSelection, ConversationID: conversationID, PartyID: partyID, Button: button}
}

// Attachment builds a document-attachment input.
func Attachment(conversationID, partyID, name, storageKey string) DialogueInput {
	return DialogueInput{Kind: InputAttachment, ConversationID: conversationID, PartyID: partyID, AttachmentName: name, AttachmentKey: storageKey}
}
