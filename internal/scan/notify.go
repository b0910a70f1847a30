package scan

// Variant selects toast styling.
type Variant int

const (
	VariantDefault Variant = iota
	VariantDestructive
)

// Toast is a user-visible notification.
type Toast struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier is a fire-and-forget notification sink.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

type nopNotifier struct{}

func (nopNotifier) Notify(Toast) {}

const (
	toastSuccessTitle = "Scan Successful!"
	toastReadErrTitle = "Scan Error"
	toastReadErrDesc  = "Could not read the NFC tag. Please try again."
	toastNFCErrTitle  = "NFC Error"
	toastNFCErrDesc   = "Could not start NFC scanning. Make sure permissions are granted."
)

func successToast(id string) Toast {
	return Toast{Title: toastSuccessTitle, Description: "ID: " + id}
}
