package domain

// View names one screen of the client. Exactly one is active at a time.
type View string

const (
	ViewNone             View = ""
	ViewLogin            View = "login"
	ViewMain             View = "main"
	ViewRegister         View = "register"
	ViewRegisterComplete View = "register-complete"
)

// Panel names an error display area.
type Panel string

const (
	PanelLogin    Panel = "login-error"
	PanelRegister Panel = "register-error"
)
