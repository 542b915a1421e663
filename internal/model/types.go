package model

import "time"

// Recipient is a directory record: the person a user records messages for.
type Recipient struct {
	ID                    string     `json:"id"`
	UserID                string     `json:"userId"`
	RecipientName         string     `json:"recipientName"`
	RecipientEmail        string     `json:"recipientEmail"`
	RecipientRelationship string     `json:"recipientRelationship"`
	RecipientBirthday     *time.Time `json:"recipientBirthday,omitempty"`
	SenderName            string     `json:"senderName"`
	SenderEmail           string     `json:"senderEmail"`
	Connect               bool       `json:"connect"`
	CreationTime          time.Time  `json:"creationTime"`
}

// Message is a free-text note left for a recipient.
type Message struct {
	ID           string    `json:"id"`
	DirectoryID  string    `json:"directoryId"`
	Message      string    `json:"message"`
	Context      string    `json:"context,omitempty"`
	Note         string    `json:"note,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// Event is a dated occasion tied to a recipient.
type Event struct {
	ID           string     `json:"id"`
	DirectoryID  string     `json:"directoryId"`
	Event        string     `json:"event"`
	Date         *time.Time `json:"date,omitempty"`
	Message      string     `json:"message,omitempty"`
	CreationTime time.Time  `json:"creationTime"`
}

// Voice links a user to their cloned voice at the voice provider.
type Voice struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	VoiceID      string    `json:"voiceId"`
	Name         string    `json:"name"`
	Meta         string    `json:"meta,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// Assistant is the local record of a recipient's assistant at the assistant provider.
type Assistant struct {
	ID            string    `json:"id"`
	DirectoryID   string    `json:"directoryId"`
	AssistantID   string    `json:"assistantId"`
	OrgID         string    `json:"orgId,omitempty"`
	AssistantName string    `json:"assistantName"`
	Content       string    `json:"content"`
	FirstMessage  string    `json:"firstMessage"`
	Publish       bool      `json:"publish"`
	CreationTime  time.Time `json:"creationTime"`
}

// RecipientUpdate carries the mutable recipient fields; nil means unchanged.
type RecipientUpdate struct {
	RecipientName         *string
	RecipientEmail        *string
	RecipientRelationship *string
	RecipientBirthday     *time.Time
	Connect               *bool
}

// Well-known event labels offered by the UI. Any other label is a custom event.
var EventLabels = []string{
	"Birthday",
	"Anniversary",
	"Graduation",
	"Holiday",
	"Achievement",
	"Reunion",
}
