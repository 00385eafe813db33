// ABOUTME: Transient user notices produced by board and contact actions
// ABOUTME: Rendered as flash messages on the web and a status line in the TUI
package board

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
	NoticeInfo    NoticeKind = "info"
)

// Contact action messages shared by the web UI and the TUI.
const (
	MsgContactAdded      = "Contact added successfully!"
	MsgContactAddFailed  = "Failed to add contact"
	MsgContactDeleted    = "Contact deleted successfully!"
	MsgContactDelFailed  = "Failed to delete contact"
	MsgEditComingSoon    = "Edit functionality coming soon!"
	MsgAddDealComingSoon = "Add deal functionality coming soon!"
)

// Notice is a short message for the user. The zero value means nothing to show.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

func (n Notice) IsZero() bool {
	return n.Message == ""
}

func Success(msg string) Notice { return Notice{Kind: NoticeSuccess, Message: msg} }
func Error(msg string) Notice   { return Notice{Kind: NoticeError, Message: msg} }
func Info(msg string) Notice    { return Notice{Kind: NoticeInfo, Message: msg} }
