package domain

type ButtonStyle string

const (
	ButtonPrimary   ButtonStyle = "PRIMARY"
	ButtonSecondary ButtonStyle = "SECONDARY"
)

// Button is a postback button rendered in a private action dialog.
type Button struct {
	ID    string
	Label string
	Style ButtonStyle
}

// ResponseMessage is a generic annotation message sent to a space or dialog.
type ResponseMessage struct {
	Title   string
	Text    string
	Actor   string
	Buttons []Button
}
